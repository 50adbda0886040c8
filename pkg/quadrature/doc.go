// Package quadrature integrates scalar real functions with adaptive Simpson quadrature.
//
// The interval [a, b] is seeded with a three-point Simpson estimate and then bisected until
// the difference between the two half-interval estimates and the whole-interval estimate is
// within 15 times the tolerance allotted to that interval, or until the recursion depth
// budget runs out. Accepted intervals contribute left + right + delta/15 (Richardson
// extrapolation). Tolerance is halved and depth decremented on every split, so the work is
// bounded by O(2^maxDepth) function evaluations whether or not the estimate converges.
//
// Interval length is always taken as |b - a|: integrating over [b, a] yields the same value
// as over [a, b], not its negation.
//
// One algorithm serves both float32 and float64; each width keeps its own rounding. The
// Simpson rule is always formed as h*(fa+4*fm+fb)/6.
//
// Integrate and IntegrateParams never fail. Integrator exposes the non-finite policy, the
// explicit work-list controller, an Observer hook and evaluation Stats.
package quadrature
