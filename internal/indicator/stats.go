package indicator

import "math"

// MeanStd returns the rolling mean and population standard deviation over
// window p, aligned to x. Warmup positions (i < p-1) hold NaN.
func MeanStd(x []float64, p int) (mean, std []float64) {
	if p <= 0 {
		return nil, nil
	}
	n := len(x)
	mean = make([]float64, n)
	std = make([]float64, n)

	var sum, sum2 float64
	for i := 0; i < n; i++ {
		sum += x[i]
		sum2 += x[i] * x[i]
		if i >= p {
			sum -= x[i-p]
			sum2 -= x[i-p] * x[i-p]
		}
		if i < p-1 {
			mean[i] = math.NaN()
			std[i] = math.NaN()
			continue
		}
		m := sum / float64(p)
		variance := sum2/float64(p) - m*m
		if variance < 0 {
			variance = 0 // rounding
		}
		mean[i] = m
		std[i] = math.Sqrt(variance)
	}
	return mean, std
}

// Min and Max return the extremes of x. Both return 0 for an empty slice.
func Min(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	m := x[0]
	for _, v := range x[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func Max(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	m := x[0]
	for _, v := range x[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// Return computes x[len-1]/x[len-1-lag] - 1, guarded by Epsilon.
// Returns 0 when the series is too short.
func Return(x []float64, lag int) float64 {
	if lag < 1 || len(x) <= lag {
		return 0
	}
	return x[len(x)-1]/(x[len(x)-1-lag]+Epsilon) - 1
}
