package model

import "time"

// Side is the aggressor side of a public trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Trade is a single public trade print.
type Trade struct {
	InstID string    `json:"inst_id"`
	Side   Side      `json:"side"`
	Price  float64   `json:"price"`
	Size   float64   `json:"size"` // base quantity
	TS     time.Time `json:"ts"`
}

// Notional returns price * size in quote currency.
func (t *Trade) Notional() float64 {
	return t.Price * t.Size
}
