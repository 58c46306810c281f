// Package sentiment provides daily sentiment scores aligned to price
// history. The mock source stands in for a real news/social scoring
// pipeline: it generates a reproducible per-ticker series so the rest of
// the system can be exercised end to end.
package sentiment

import (
	"hash/fnv"
	"math/rand"
	"strings"
	"time"

	"github.com/altalpha/lab/internal/core"
)

const smoothWindow = 5

// Source produces a sentiment series aligned to the given dates.
type Source interface {
	Name() string
	Series(symbol string, dates []time.Time) []core.SentimentPoint
}

// Mock generates a deterministic random-walk sentiment series per ticker.
type Mock struct{}

// NewMock creates a mock sentiment source.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Name() string {
	return "mock"
}

// Series returns one sentiment point per input date, in input order.
// The series is seeded from the ticker so repeated calls are identical.
func (m *Mock) Series(symbol string, dates []time.Time) []core.SentimentPoint {
	if len(dates) == 0 {
		return nil
	}

	rng := rand.New(rand.NewSource(seedFor(symbol)))

	raw := make([]float64, len(dates))
	for i := range raw {
		raw[i] = rng.NormFloat64() * 0.3
	}

	points := make([]core.SentimentPoint, len(dates))
	for i, date := range dates {
		// Trailing mean over up to smoothWindow raw values, so early
		// points still get a score.
		lo := i - smoothWindow + 1
		if lo < 0 {
			lo = 0
		}
		var sum float64
		for _, v := range raw[lo : i+1] {
			sum += v
		}
		score := sum / float64(i+1-lo)

		if score > 1 {
			score = 1
		} else if score < -1 {
			score = -1
		}

		points[i] = core.SentimentPoint{Date: date, Sentiment: score}
	}

	return points
}

func seedFor(symbol string) int64 {
	h := fnv.New32a()
	h.Write([]byte(strings.ToUpper(symbol)))
	return int64(h.Sum32())
}
