package domain

// Network identifies which Sui network the service runs against.
type Network string

const (
	NetworkLocalnet Network = "localnet"
	NetworkDevnet   Network = "devnet"
	NetworkTestnet  Network = "testnet"
	NetworkMainnet  Network = "mainnet"
)

// Valid reports whether the network is one of the known presets.
func (n Network) Valid() bool {
	switch n {
	case NetworkLocalnet, NetworkDevnet, NetworkTestnet, NetworkMainnet:
		return true
	}
	return false
}

// explorerBase maps each network to its Suiscan explorer root.
var explorerBase = map[Network]string{
	NetworkMainnet:  "https://suiscan.xyz/mainnet",
	NetworkTestnet:  "https://suiscan.xyz/testnet",
	NetworkDevnet:   "https://suiscan.xyz/devnet",
	NetworkLocalnet: "http://localhost:9000",
}

// ExplorerTxURL returns the explorer page for a transaction digest.
func ExplorerTxURL(n Network, digest string) string {
	base, ok := explorerBase[n]
	if !ok {
		base = explorerBase[NetworkTestnet]
	}
	return base + "/tx/" + digest
}

// ExplorerObjectURL returns the explorer page for an object ID.
func ExplorerObjectURL(n Network, objectID string) string {
	base, ok := explorerBase[n]
	if !ok {
		base = explorerBase[NetworkTestnet]
	}
	return base + "/object/" + objectID
}
