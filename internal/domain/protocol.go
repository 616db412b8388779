// Package domain defines the universal, venue-agnostic data model shared by
// every protocol adapter. Adapters convert their wire-level representations
// into these types; the orchestrator, risk engine, and presentation layers
// consume only these, never protocol-specific structs.
package domain

// Protocol identifies which trading venue a piece of data comes from.
type Protocol string

const (
	ProtocolHyperliquid Protocol = "hyperliquid"
	ProtocolMorpho      Protocol = "morpho"
	ProtocolZeroX       Protocol = "0x"
)

// String returns the lowercase registry key for the protocol.
func (p Protocol) String() string {
	return string(p)
}

// Chain identifies the settlement chain a venue or balance lives on.
type Chain string

const (
	ChainEthereum      Chain = "ethereum"
	ChainArbitrum      Chain = "arbitrum"
	ChainBase          Chain = "base"
	ChainSolana        Chain = "solana"
	ChainHyperliquidL1 Chain = "hyperliquid-l1"
)

// String returns the lowercase name of the chain.
func (c Chain) String() string {
	return string(c)
}
