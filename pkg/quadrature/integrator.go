package quadrature

import (
	"context"
	"fmt"
)

// Interval is one pending or settled piece of the integration domain together with the
// values already known on it. Values are threaded down to children and never re-evaluated.
type Interval[F Float] struct {
	A, M, B    F
	FA, FM, FB F
	Whole      F   // Simpson estimate over [A, B]
	Tol        F   // tolerance allotted to this interval
	Depth      int // remaining split budget
	Level      int // splits between the root and this interval
}

// Observer receives the controller's decisions. Calls arrive in evaluation order,
// left halves before right halves. NonFinite fires under both NonFiniteZero and
// NonFiniteReport; under the latter it is the last call of the run.
type Observer[F Float] interface {
	Split(iv Interval[F])
	Accept(iv Interval[F], value F, exhausted bool)
	NonFinite(iv Interval[F])
}

// Stats counts the work done by one integration.
type Stats struct {
	Evaluations    int `json:"evaluations"`
	Accepted       int `json:"accepted"`
	Splits         int `json:"splits"`
	DepthExhausted int `json:"depth_exhausted"` // accepted only because the budget ran out
	NonFinite      int `json:"non_finite"`      // subtrees hit by the non-finite guard
	MaxLevel       int `json:"max_level"`
}

// Result is an integral estimate and the work it took.
type Result[F Float] struct {
	Value F     `json:"value"`
	Stats Stats `json:"stats"`
}

// Integrator holds the settings of an adaptive Simpson integration. The zero value of
// every field other than Tolerance and MaxDepth selects the default behavior.
type Integrator[F Float] struct {
	Tolerance F
	MaxDepth  int
	NonFinite NonFinitePolicy
	Mode      Mode
	Observer  Observer[F]
}

// Integrate integrates f over the interval between a and b.
//
// An error is returned only when NonFinite is NonFiniteReport and an error estimate is not
// finite, or when ctx is cancelled before the integration settles. ctx is checked before
// every split, not during evaluations of f.
func (in Integrator[F]) Integrate(ctx context.Context, f Func[F], a, b F) (Result[F], error) {
	e := &engine[F]{ctx: ctx, f: f, cfg: in}

	fa, fb := e.eval(a), e.eval(b)
	m := (a + b) / 2
	fm := e.eval(m)
	root := Interval[F]{
		A: a, M: m, B: b,
		FA: fa, FM: fm, FB: fb,
		Whole: Simpson(abs(b-a), fa, fm, fb),
		Tol:   in.Tolerance,
		Depth: in.MaxDepth,
	}

	var v F
	switch in.Mode {
	case ModeIterative:
		v = e.iterate(root)
	default:
		v = e.recurse(root)
	}
	if e.err != nil {
		return Result[F]{Stats: e.stats}, e.err
	}
	return Result[F]{Value: v, Stats: e.stats}, nil
}

// engine is the per-call state. Nothing in it outlives one Integrate call.
type engine[F Float] struct {
	ctx   context.Context
	f     Func[F]
	cfg   Integrator[F]
	stats Stats
	err   error
}

// refinement holds the one-level-finer estimates of an interval.
type refinement[F Float] struct {
	lm, flm     F
	rm, frm     F
	left, right F
	delta       F
}

func (e *engine[F]) eval(x F) F {
	e.stats.Evaluations++
	return e.f(x)
}

func (e *engine[F]) refine(iv Interval[F]) refinement[F] {
	if iv.Level > e.stats.MaxLevel {
		e.stats.MaxLevel = iv.Level
	}
	r := refinement[F]{
		lm: (iv.A + iv.M) / 2,
		rm: (iv.M + iv.B) / 2,
	}
	r.flm = e.eval(r.lm)
	r.frm = e.eval(r.rm)
	r.left = Simpson(abs(iv.M-iv.A), iv.FA, r.flm, iv.FM)
	r.right = Simpson(abs(iv.B-iv.M), iv.FM, r.frm, iv.FB)
	r.delta = r.left + r.right - iv.Whole
	return r
}

// settle decides whether iv is final. When it is, the returned value is the interval's
// contribution to the total.
func (e *engine[F]) settle(iv Interval[F], r refinement[F]) (F, bool) {
	if !isFinite(r.delta) {
		if e.cfg.NonFinite == NonFiniteZero || e.cfg.NonFinite == NonFiniteReport {
			e.stats.NonFinite++
			if e.cfg.Observer != nil {
				e.cfg.Observer.NonFinite(iv)
			}
			if e.cfg.NonFinite == NonFiniteReport {
				e.err = fmt.Errorf("%w on [%v, %v] at level %d", ErrNonFinite, iv.A, iv.B, iv.Level)
			}
			return 0, true
		}
	}

	converged := abs(r.delta) <= 15*iv.Tol
	if !converged && iv.Depth > 0 {
		return 0, false
	}
	v := r.left + r.right + r.delta/15
	e.stats.Accepted++
	if !converged {
		e.stats.DepthExhausted++
	}
	if e.cfg.Observer != nil {
		e.cfg.Observer.Accept(iv, v, !converged)
	}
	return v, true
}

// split halves iv. Each child gets half the tolerance and one less unit of depth.
func (e *engine[F]) split(iv Interval[F], r refinement[F]) (left, right Interval[F], err error) {
	if err := e.ctx.Err(); err != nil {
		return left, right, fmt.Errorf("integration cancelled on [%v, %v]: %w", iv.A, iv.B, err)
	}
	e.stats.Splits++
	if e.cfg.Observer != nil {
		e.cfg.Observer.Split(iv)
	}
	tol := iv.Tol / 2
	left = Interval[F]{
		A: iv.A, M: r.lm, B: iv.M,
		FA: iv.FA, FM: r.flm, FB: iv.FM,
		Whole: r.left,
		Tol:   tol,
		Depth: iv.Depth - 1,
		Level: iv.Level + 1,
	}
	right = Interval[F]{
		A: iv.M, M: r.rm, B: iv.B,
		FA: iv.FM, FM: r.frm, FB: iv.FB,
		Whole: r.right,
		Tol:   tol,
		Depth: iv.Depth - 1,
		Level: iv.Level + 1,
	}
	return left, right, nil
}

func (e *engine[F]) recurse(iv Interval[F]) F {
	if e.err != nil {
		return 0
	}
	r := e.refine(iv)
	if v, done := e.settle(iv, r); done {
		return v
	}
	left, right, err := e.split(iv, r)
	if err != nil {
		e.err = err
		return 0
	}
	lv := e.recurse(left)
	rv := e.recurse(right)
	return lv + rv
}
