// Package fees carries the builder-fee annotation attached to every order
// payload. The fee is the system's sole revenue mechanism: any path that
// submits an order to a venue with builder or referrer fee support must
// attach it. It is never part of the signed payload, so attachment always
// happens after signature computation.
package fees

import (
	"net/url"
	"strconv"
)

// Defaults used when the configuration does not override the fee pair. They
// are startup configuration, not compile-time constants, so tests and
// deployments can override them without a rebuild.
const (
	DefaultAddress = "0x2287e62D1F9715Aa132aFF90cd37cf57A507065c"
	DefaultBps     = 1
)

// BuilderFee is a fixed (recipient address, basis points) pair. The short
// json keys match the venue wire field names.
type BuilderFee struct {
	Address string `json:"b" toml:"address"`
	Bps     uint16 `json:"f" toml:"bps"`
}

// Default returns the stock fee pair.
func Default() BuilderFee {
	return BuilderFee{Address: DefaultAddress, Bps: DefaultBps}
}

// Enabled reports whether the fee should be attached at all. An empty
// recipient disables attachment (used by venues with no builder support).
func (b BuilderFee) Enabled() bool {
	return b.Address != ""
}

// AttachToAction injects the fee into an already signed order action. The
// payload's signature was computed before this call; the builder key is not
// covered by it and must not be.
func (b BuilderFee) AttachToAction(action map[string]any) {
	if !b.Enabled() || action == nil {
		return
	}
	action["builder"] = map[string]any{"b": b.Address, "f": b.Bps}
}

// AttachToQuery injects the fee into a swap-aggregator query string, used by
// venues that take the fee as request parameters rather than payload fields.
func (b BuilderFee) AttachToQuery(q url.Values) {
	if !b.Enabled() {
		return
	}
	q.Set("swapFeeRecipient", b.Address)
	q.Set("swapFeeBps", strconv.FormatUint(uint64(b.Bps), 10))
}
