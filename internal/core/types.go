package core

import "time"

// DailyBar is one day of price history for a ticker. Bars are immutable
// once fetched and always carry the closing price only; the strategy
// operates on daily closes.
type DailyBar struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// SentimentPoint is a daily sentiment score for a ticker, in [-1, 1].
type SentimentPoint struct {
	Date      time.Time `json:"date"`
	Sentiment float64   `json:"sentiment"`
}

// Position is a discrete daily exposure: +1 long, -1 short, 0 flat.
type Position int

const (
	PositionShort Position = -1
	PositionFlat  Position = 0
	PositionLong  Position = 1
)

// Label returns the human-readable position name.
func (p Position) Label() string {
	switch p {
	case PositionLong:
		return "LONG"
	case PositionShort:
		return "SHORT"
	default:
		return "FLAT"
	}
}

// DateFormat is the wire format for all dates in API payloads.
const DateFormat = "2006-01-02"
