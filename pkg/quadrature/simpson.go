package quadrature

import (
	"context"
	"math"

	"golang.org/x/exp/constraints"
)

// Float is the set of floating-point widths the integrator is instantiated for.
type Float interface {
	constraints.Float
}

// Func is an integrand. It must be deterministic and free of side effects.
type Func[F Float] func(x F) F

// ParamFunc is an integrand that takes a caller-owned parameter block. The block is passed
// unchanged to every evaluation and is never read or written by the integrator.
type ParamFunc[F Float, P any] func(x F, params P) F

// Simpson returns the three-point Simpson estimate h*(fa+4*fm+fb)/6 for an interval of
// length h with endpoint values fa, fb and midpoint value fm.
func Simpson[F Float](h, fa, fm, fb F) F {
	return h * (fa + 4*fm + fb) / 6
}

// Integrate returns the integral of f over the interval between a and b to within tol,
// bisecting at most maxDepth times along any path. The result is unsigned with respect to
// the order of a and b. An interval whose error estimate is not finite contributes 0, so
// Integrate never fails.
//
// maxDepth 0 still refines the root once: f is evaluated five times and the result is
// left+right+delta/15, not the three-point Simpson estimate.
//
// Neither tol nor maxDepth is validated. maxDepth bounds native recursion, so keep it at 64
// or below, or use Integrator with ModeIterative.
func Integrate[F Float](f Func[F], a, b, tol F, maxDepth int) F {
	res, _ := Integrator[F]{Tolerance: tol, MaxDepth: maxDepth}.Integrate(context.Background(), f, a, b)
	return res.Value
}

// IntegrateParams is Integrate for integrands that take a parameter block.
func IntegrateParams[F Float, P any](f ParamFunc[F, P], a, b, tol F, maxDepth int, params P) F {
	return Integrate(func(x F) F { return f(x, params) }, a, b, tol, maxDepth)
}

// Integrate32 integrates in reduced (float32) precision.
func Integrate32(f Func[float32], a, b, tol float32, maxDepth int) float32 {
	return Integrate(f, a, b, tol, maxDepth)
}

// Integrate64 integrates in extended (float64) precision.
func Integrate64(f Func[float64], a, b, tol float64, maxDepth int) float64 {
	return Integrate(f, a, b, tol, maxDepth)
}

func abs[F Float](v F) F {
	if v < 0 {
		return -v
	}
	return v
}

func isFinite[F Float](v F) bool {
	x := float64(v)
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
