package chains

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	chain, err := Resolve("polygon")
	assert.NoError(t, err)
	assert.Equal(t, "Polygon", chain.DisplayName)
	assert.Equal(t, int64(137), chain.ID)
	assert.Equal(t, "MATIC", chain.Currency)

	_, err = Resolve("dogechain")
	assert.ErrorIs(t, err, ErrUnknownChain)
}

func TestToken(t *testing.T) {
	chain, err := Resolve("ethereum")
	assert.NoError(t, err)

	usdc, err := chain.Token("USDC")
	assert.NoError(t, err)
	assert.Equal(t, 6, usdc.Decimals)
	assert.Equal(t, "usd-coin", usdc.CoinID)

	weth, err := chain.Token("WETH")
	assert.NoError(t, err)
	assert.Equal(t, 18, weth.Decimals)

	_, err = chain.Token("DOGE")
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestTxLink(t *testing.T) {
	chain, err := Resolve("mumbai")
	assert.NoError(t, err)
	assert.Equal(t, "https://mumbai.polygonscan.com/tx/0xdead", chain.TxLink("0xdead"))
}

func TestRegistryComplete(t *testing.T) {
	names := Names()
	assert.Len(t, names, 6)

	// Every chain must resolve both configured tokens and carry the
	// identifiers the external services are keyed by.
	for _, name := range names {
		chain, err := Resolve(name)
		assert.NoError(t, err)
		assert.NotEmpty(t, chain.RPC, name)
		assert.NotEmpty(t, chain.ExplorerAPI, name)
		assert.NotEmpty(t, chain.APIKeyName, name)
		assert.NotEmpty(t, chain.CoinID, name)

		for _, symbol := range []string{"USDC", "WETH"} {
			token, err := chain.Token(symbol)
			assert.NoError(t, err)
			assert.NotEmpty(t, token.Address, name)
			assert.NotEmpty(t, token.CoinID, name)
		}
	}
}
