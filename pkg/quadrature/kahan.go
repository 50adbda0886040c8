package quadrature

import "math"

// compensated is a Neumaier-compensated running sum.
type compensated[F Float] struct {
	sum, c F
}

func (k *compensated[F]) Add(inc F) {
	t := k.sum + inc
	switch {
	case math.IsInf(float64(t), 0):
		k.c = 0

	// Swap roles when the next term is larger than the running sum.
	case abs(k.sum) >= abs(inc):
		k.c += (k.sum - t) + inc
	default:
		k.c += (inc - t) + k.sum
	}
	k.sum = t
}

func (k *compensated[F]) Value() F {
	return k.sum + k.c
}
