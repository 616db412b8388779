package domain

import "github.com/shopspring/decimal"

// Side is the direction of a trade. Position direction is always carried by
// an explicit Side, never by the sign of a size.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderType indicates how an order executes.
type OrderType string

const (
	OrderTypeMarket     OrderType = "market"
	OrderTypeLimit      OrderType = "limit"
	OrderTypeStopMarket OrderType = "stop_market"
	OrderTypeStopLimit  OrderType = "stop_limit"
)

// OrderStatus tracks the order lifecycle. Open is the only non-terminal
// state apart from PartiallyFilled, which resolves to Filled.
type OrderStatus string

const (
	OrderStatusOpen            OrderStatus = "open"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusRejected        OrderStatus = "rejected"
)

// Terminal reports whether the status can no longer change.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected:
		return true
	default:
		return false
	}
}

// Order is a venue-assigned resting or historical order.
type Order struct {
	Protocol    Protocol
	Symbol      string
	Side        Side
	Type        OrderType
	Size        decimal.Decimal
	Price       *decimal.Decimal
	FilledSize  *decimal.Decimal
	Status      OrderStatus
	OrderID     string
	TimestampMs uint64
}

// OrderResult is the return value of an order placement call.
type OrderResult struct {
	Protocol   Protocol
	OrderID    string
	Status     OrderStatus
	FilledSize *decimal.Decimal
	AvgPrice   *decimal.Decimal
	Message    string
}

// Fill is a realized trade. Fills are append-only facts: once recorded they
// are never mutated or deleted.
type Fill struct {
	Protocol    Protocol
	Symbol      string
	Side        Side
	Price       decimal.Decimal
	Size        decimal.Decimal
	Fee         decimal.Decimal
	RealizedPnl *decimal.Decimal
	OrderID     string
	TxHash      string
	TimestampMs uint64
}
