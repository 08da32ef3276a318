package solana

import "strings"

type Environment string

const (
	EnvironmentDev   Environment = "https://api.devnet.solana.com"
	EnvironmentTest  Environment = "https://api.testnet.solana.com"
	EnvironmentProd  Environment = "https://api.mainnet-beta.solana.com"
	EnvironmentLocal Environment = "http://127.0.0.1:8899"
)

var environmentsByMoniker = map[string]Environment{
	"devnet":       EnvironmentDev,
	"testnet":      EnvironmentTest,
	"mainnet":      EnvironmentProd,
	"mainnet-beta": EnvironmentProd,
	"localnet":     EnvironmentLocal,
	"localhost":    EnvironmentLocal,
}

// ResolveEndpoint expands a cluster moniker such as devnet into its public
// RPC endpoint. Any other value is returned unchanged.
func ResolveEndpoint(value string) string {
	if env, ok := environmentsByMoniker[strings.ToLower(strings.TrimSpace(value))]; ok {
		return string(env)
	}
	return value
}
