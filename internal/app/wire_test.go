package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Atlas-Looti/atlas-os-sub001/internal/domain"
)

func TestChainFromName(t *testing.T) {
	assert.Equal(t, domain.ChainEthereum, chainFromName("ethereum"))
	assert.Equal(t, domain.ChainArbitrum, chainFromName("Arbitrum"))
	assert.Equal(t, domain.ChainBase, chainFromName("base"))
	// Unknown names fall back to mainnet.
	assert.Equal(t, domain.ChainEthereum, chainFromName("solana"))
}
