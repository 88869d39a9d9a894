package domain

import (
	"fmt"
	"math/big"
	"strings"
)

// MistPerSui is the number of MIST in one SUI.
const MistPerSui = 1_000_000_000

var mistPerSuiInt = big.NewInt(MistPerSui)

// MistToSui converts a MIST amount (decimal string, arbitrary precision) to
// a SUI decimal string with trailing zeros trimmed, e.g. "1500000000" ->
// "1.5" and "1000000000" -> "1".
func MistToSui(mist string) (string, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(mist), 10)
	if !ok {
		return "", fmt.Errorf("units: invalid MIST amount %q", mist)
	}

	neg := n.Sign() < 0
	if neg {
		n = new(big.Int).Neg(n)
	}

	whole, frac := new(big.Int).QuoRem(n, mistPerSuiInt, new(big.Int))

	out := whole.String()
	if frac.Sign() != 0 {
		digits := fmt.Sprintf("%09d", frac)
		digits = strings.TrimRight(digits, "0")
		out += "." + digits
	}
	if neg {
		out = "-" + out
	}
	return out, nil
}

// SuiToMist converts a SUI decimal string to a MIST amount. Fractional
// digits beyond the ninth are rounded half away from zero.
func SuiToMist(sui string) (*big.Int, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(sui))
	if !ok {
		return nil, fmt.Errorf("units: invalid SUI amount %q", sui)
	}

	r.Mul(r, new(big.Rat).SetInt(mistPerSuiInt))

	// Round half away from zero: (2*num + den*sign) / (2*den) truncated.
	num := new(big.Int).Lsh(r.Num(), 1)
	den := new(big.Int).Lsh(r.Denom(), 1)
	half := new(big.Int).Set(r.Denom())
	if r.Sign() < 0 {
		half.Neg(half)
	}
	num.Add(num, half)
	return num.Quo(num, den), nil
}

// ShortenAddress renders an address as "0xabcd...ef12" for logs and
// notifications. chars counts the hex digits kept on each side.
func ShortenAddress(address string, chars int) string {
	if address == "" {
		return ""
	}
	if chars <= 0 {
		chars = 4
	}
	if len(address) <= chars*2+2 {
		return address
	}
	return address[:chars+2] + "..." + address[len(address)-chars:]
}
