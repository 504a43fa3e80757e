package mathx

import "math"

func Mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Hash3 folds three integers into one well-mixed 64-bit value.
func Hash3(seed int64, a, b int64) uint64 {
	v := uint64(seed) ^ (uint64(a) * 0x9e3779b97f4a7c15) ^ (uint64(b) * 0xc2b2ae3d27d4eb4f)
	return Mix64(Mix64(v) ^ uint64(b))
}

func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Round2 rounds half away from zero to two decimals.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// MeanStddev returns the mean and the sample standard deviation of xs. The
// deviation is zero for fewer than two values; the mean is zero for none.
func MeanStddev(xs []float64) (mean, stddev float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean = sum / float64(len(xs))
	if len(xs) < 2 {
		return mean, 0
	}
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(xs)-1))
}
