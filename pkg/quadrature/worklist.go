package quadrature

// iterate is recurse with the call stack replaced by an explicit LIFO of pending intervals.
// Right halves are pushed before left halves, so f is evaluated in the same order as in
// recursive mode and Stats match exactly. Only the summation order differs.
func (e *engine[F]) iterate(root Interval[F]) F {
	var sum compensated[F]
	pending := []Interval[F]{root}
	for len(pending) > 0 {
		iv := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		r := e.refine(iv)
		if v, done := e.settle(iv, r); done {
			if e.err != nil {
				return 0
			}
			sum.Add(v)
			continue
		}
		left, right, err := e.split(iv, r)
		if err != nil {
			e.err = err
			return 0
		}
		pending = append(pending, right, left)
	}
	return sum.Value()
}
