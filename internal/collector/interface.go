package collector

import (
	"context"
	"time"

	"github.com/altalpha/lab/internal/core"
)

// PriceProvider fetches daily closing-price history for a ticker.
// Bars are returned in ascending date order.
type PriceProvider interface {
	Name() string
	FetchDailyHistory(ctx context.Context, symbol string, start, end time.Time) ([]core.DailyBar, error)
}
