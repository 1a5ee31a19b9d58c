package model

import "strings"

// Instrument represents a tradable spot listing on the venue.
type Instrument struct {
	InstID    string  `json:"inst_id"` // venue identifier, e.g. "BTC-USDT"
	Base      string  `json:"base"`
	Quote     string  `json:"quote"`
	VolCcy24h float64 `json:"vol_ccy_24h"` // 24h quote volume
}

// ParseInstID splits "BASE-QUOTE" into upper-cased parts.
// ok is false when the id carries no separator.
func ParseInstID(instID string) (base, quote string, ok bool) {
	b, q, found := strings.Cut(instID, "-")
	if !found {
		return "", "", false
	}
	return strings.ToUpper(b), strings.ToUpper(q), true
}
