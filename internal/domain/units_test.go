package domain

import "testing"

func TestMistToSui(t *testing.T) {
	tests := []struct {
		mist string
		want string
	}{
		{"0", "0"},
		{"1", "0.000000001"},
		{"1000000000", "1"},
		{"1500000000", "1.5"},
		{"1050000000", "1.05"},
		{"123456789", "0.123456789"},
		{"2000000000000", "2000"},
		{"-1500000000", "-1.5"},
		{"18446744073709551615", "18446744073.709551615"}, // max u64
	}

	for _, tt := range tests {
		got, err := MistToSui(tt.mist)
		if err != nil {
			t.Errorf("MistToSui(%q): %v", tt.mist, err)
			continue
		}
		if got != tt.want {
			t.Errorf("MistToSui(%q) = %q, want %q", tt.mist, got, tt.want)
		}
	}
}

func TestMistToSui_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "1.5", "0x10"} {
		if _, err := MistToSui(in); err == nil {
			t.Errorf("MistToSui(%q): expected error", in)
		}
	}
}

func TestSuiToMist(t *testing.T) {
	tests := []struct {
		sui  string
		want string
	}{
		{"0", "0"},
		{"1", "1000000000"},
		{"1.5", "1500000000"},
		{"0.000000001", "1"},
		{"2000", "2000000000000"},
		{"-1.5", "-1500000000"},
		{"0.0000000005", "1"},  // rounds half away from zero
		{"0.0000000004", "0"},  // rounds down
		{"-0.0000000005", "-1"},
	}

	for _, tt := range tests {
		got, err := SuiToMist(tt.sui)
		if err != nil {
			t.Errorf("SuiToMist(%q): %v", tt.sui, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("SuiToMist(%q) = %s, want %s", tt.sui, got, tt.want)
		}
	}
}

func TestSuiToMist_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "1..5"} {
		if _, err := SuiToMist(in); err == nil {
			t.Errorf("SuiToMist(%q): expected error", in)
		}
	}
}

func TestMistSuiRoundTrip(t *testing.T) {
	for _, mist := range []string{"1", "999999999", "1000000001", "1500000000", "18446744073709551615"} {
		sui, err := MistToSui(mist)
		if err != nil {
			t.Fatalf("MistToSui(%q): %v", mist, err)
		}
		back, err := SuiToMist(sui)
		if err != nil {
			t.Fatalf("SuiToMist(%q): %v", sui, err)
		}
		if back.String() != mist {
			t.Errorf("round trip %q -> %q -> %s", mist, sui, back)
		}
	}
}

func TestShortenAddress(t *testing.T) {
	tests := []struct {
		address string
		chars   int
		want    string
	}{
		{"0x1234567890abcdef1234567890abcdef", 4, "0x1234...cdef"},
		{"0x12", 4, "0x12"}, // too short to shorten
		{"", 4, ""},
		{"0x1234567890abcdef", 0, "0x1234...cdef"}, // zero falls back to 4
	}

	for _, tt := range tests {
		if got := ShortenAddress(tt.address, tt.chars); got != tt.want {
			t.Errorf("ShortenAddress(%q, %d) = %q, want %q", tt.address, tt.chars, got, tt.want)
		}
	}
}
