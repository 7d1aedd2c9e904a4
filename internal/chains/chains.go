package chains

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownChain = errors.New("unknown chain")
	ErrUnknownToken = errors.New("unknown token")
)

// Token describes an ERC-20 token on a specific chain.
type Token struct {
	Symbol   string
	Address  string
	Decimals int
	Name     string
	// CoinID is the coingecko identifier used for spot prices.
	CoinID string
}

// Chain holds the network parameters the bot needs for one chain: where to
// send transactions, where to read balances, and how the chain is keyed in
// external services. Pure data, no side effects.
type Chain struct {
	Name        string
	DisplayName string
	ID          int64
	RPC         string
	// Explorer is the link base for humans, e.g. https://polygonscan.com/.
	Explorer string
	// ExplorerAPI is the etherscan-family API base for balance and tx reads.
	ExplorerAPI string
	// APIKeyName selects the explorer API key from the bootstrap config.
	APIKeyName string
	// CoinID is the coingecko identifier of the native currency.
	CoinID   string
	Currency string

	tokens map[string]Token
}

// Token resolves a token symbol on this chain.
func (c Chain) Token(symbol string) (Token, error) {
	t, ok := c.tokens[symbol]
	if !ok {
		return Token{}, fmt.Errorf("%w: %s on %s", ErrUnknownToken, symbol, c.Name)
	}
	return t, nil
}

// TxLink returns the explorer URL for a transaction hash.
func (c Chain) TxLink(hash string) string {
	return c.Explorer + "tx/" + hash
}

var registry = map[string]Chain{
	"ethereum": {
		Name:        "ethereum",
		DisplayName: "Ethereum",
		ID:          1,
		RPC:         "https://eth.llamarpc.com",
		Explorer:    "https://etherscan.io/",
		ExplorerAPI: "https://api.etherscan.io",
		APIKeyName:  "etherscan",
		CoinID:      "ethereum",
		Currency:    "ETH",
		tokens: map[string]Token{
			"USDC": {Symbol: "USDC", Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6, Name: "USD Coin", CoinID: "usd-coin"},
			"WETH": {Symbol: "WETH", Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Decimals: 18, Name: "Wrapped Ether", CoinID: "weth"},
		},
	},
	"goerli": {
		Name:        "goerli",
		DisplayName: "Goerli",
		ID:          5,
		RPC:         "https://rpc.ankr.com/eth_goerli",
		Explorer:    "https://goerli.etherscan.io/",
		ExplorerAPI: "https://api-goerli.etherscan.io",
		APIKeyName:  "etherscan",
		CoinID:      "ethereum",
		Currency:    "ETH",
		tokens: map[string]Token{
			"USDC": {Symbol: "USDC", Address: "0x07865c6E87B9F70255377e024ace6630C1Eaa37F", Decimals: 6, Name: "USD Coin", CoinID: "usd-coin"},
			"WETH": {Symbol: "WETH", Address: "0xB4FBF271143F4FBf7B91A5ded31805e42b2208d6", Decimals: 18, Name: "Wrapped Ether", CoinID: "weth"},
		},
	},
	"polygon": {
		Name:        "polygon",
		DisplayName: "Polygon",
		ID:          137,
		RPC:         "https://polygon-rpc.com",
		Explorer:    "https://polygonscan.com/",
		ExplorerAPI: "https://api.polygonscan.com",
		APIKeyName:  "polygonscan",
		CoinID:      "matic-network",
		Currency:    "MATIC",
		tokens: map[string]Token{
			"USDC": {Symbol: "USDC", Address: "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174", Decimals: 6, Name: "USD Coin", CoinID: "usd-coin"},
			"WETH": {Symbol: "WETH", Address: "0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619", Decimals: 18, Name: "Wrapped Ether", CoinID: "weth"},
		},
	},
	"mumbai": {
		Name:        "mumbai",
		DisplayName: "Polygon Mumbai",
		ID:          80001,
		RPC:         "https://rpc-mumbai.maticvigil.com",
		Explorer:    "https://mumbai.polygonscan.com/",
		ExplorerAPI: "https://api-mumbai.polygonscan.com",
		APIKeyName:  "polygonscan",
		CoinID:      "matic-network",
		Currency:    "MATIC",
		tokens: map[string]Token{
			"USDC": {Symbol: "USDC", Address: "0xE097d6B3100777DC31B34dC2c58fB524C2e76921", Decimals: 6, Name: "USD Coin", CoinID: "usd-coin"},
			"WETH": {Symbol: "WETH", Address: "0xA6FA4fB5f76172d178d61B04b0ecd319C5d1C0aa", Decimals: 18, Name: "Wrapped Ether", CoinID: "weth"},
		},
	},
	"optimism": {
		Name:        "optimism",
		DisplayName: "Optimism",
		ID:          10,
		RPC:         "https://mainnet.optimism.io",
		Explorer:    "https://optimistic.etherscan.io/",
		ExplorerAPI: "https://api-optimistic.etherscan.io",
		APIKeyName:  "optimism",
		CoinID:      "ethereum",
		Currency:    "ETH",
		tokens: map[string]Token{
			"USDC": {Symbol: "USDC", Address: "0x7F5c764cBc14f9669B88837ca1490cCa17c31607", Decimals: 6, Name: "USD Coin", CoinID: "usd-coin"},
			"WETH": {Symbol: "WETH", Address: "0x4200000000000000000000000000000000000006", Decimals: 18, Name: "Wrapped Ether", CoinID: "weth"},
		},
	},
	"arbitrum": {
		Name:        "arbitrum",
		DisplayName: "Arbitrum",
		ID:          42161,
		RPC:         "https://arb1.arbitrum.io/rpc",
		Explorer:    "https://arbiscan.io/",
		ExplorerAPI: "https://api.arbiscan.io",
		APIKeyName:  "arbiscan",
		CoinID:      "ethereum",
		Currency:    "ETH",
		tokens: map[string]Token{
			"USDC": {Symbol: "USDC", Address: "0xFF970A61A04b1cA14834A43f5dE4533eBDDB5CC8", Decimals: 6, Name: "USD Coin", CoinID: "usd-coin"},
			"WETH": {Symbol: "WETH", Address: "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1", Decimals: 18, Name: "Wrapped Ether", CoinID: "weth"},
		},
	},
}

// Resolve maps a configured chain name to its network parameters.
func Resolve(name string) (Chain, error) {
	c, ok := registry[name]
	if !ok {
		return Chain{}, fmt.Errorf("%w: %q", ErrUnknownChain, name)
	}
	return c, nil
}

// Names lists the registered chain names, for the control surface.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
