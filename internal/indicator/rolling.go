package indicator

import "math"

// RollingMean calculates the trailing mean over a fixed window.
// Returns slice of length: len(xs) - window + 1, where result[i] is the
// mean of xs[i : i+window].
func RollingMean(xs []float64, window int) []float64 {
	if window <= 0 || len(xs) < window {
		return []float64{}
	}

	result := make([]float64, 0, len(xs)-window+1)

	var sum float64
	for i := 0; i < window; i++ {
		sum += xs[i]
	}
	result = append(result, sum/float64(window))

	// Rolling calculation
	for i := window; i < len(xs); i++ {
		sum = sum - xs[i-window] + xs[i]
		result = append(result, sum/float64(window))
	}

	return result
}

// RollingStd calculates the trailing sample standard deviation over a
// fixed window. Alignment matches RollingMean. Sample-based (n-1
// denominator), so window must be at least 2.
func RollingStd(xs []float64, window int) []float64 {
	if window < 2 || len(xs) < window {
		return []float64{}
	}

	result := make([]float64, 0, len(xs)-window+1)

	for i := window - 1; i < len(xs); i++ {
		w := xs[i-window+1 : i+1]

		var sum float64
		for _, x := range w {
			sum += x
		}
		mean := sum / float64(window)

		var variance float64
		for _, x := range w {
			variance += (x - mean) * (x - mean)
		}
		result = append(result, math.Sqrt(variance/float64(window-1)))
	}

	return result
}
