package quadrature

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNonFinite is returned by Integrator.Integrate under NonFiniteReport when an interval's
// error indicator is NaN or infinite.
var ErrNonFinite = errors.New("non-finite error estimate")

// NonFinitePolicy decides what happens to an interval whose error indicator is not finite.
type NonFinitePolicy int

const (
	// NonFiniteZero drops the interval: it contributes 0 and is never refined.
	NonFiniteZero NonFinitePolicy = iota
	// NonFinitePropagate applies no guard. The non-finite value reaches the sum.
	NonFinitePropagate
	// NonFiniteReport stops the integration and returns ErrNonFinite.
	NonFiniteReport
)

var policyNames = map[NonFinitePolicy]string{
	NonFiniteZero:      "zero",
	NonFinitePropagate: "propagate",
	NonFiniteReport:    "report",
}

func (p NonFinitePolicy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("NonFinitePolicy(%d)", int(p))
}

// ParseNonFinitePolicy accepts "zero", "propagate" or "report" (case-insensitive).
// The empty string selects NonFiniteZero.
func ParseNonFinitePolicy(s string) (NonFinitePolicy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return NonFiniteZero, nil
	}
	for p, name := range policyNames {
		if name == s {
			return p, nil
		}
	}
	return NonFiniteZero, fmt.Errorf("unknown non-finite policy %q (want zero, propagate or report)", s)
}

// Mode selects how pending intervals are scheduled.
type Mode int

const (
	// ModeRecursive refines intervals with ordinary call-stack recursion.
	ModeRecursive Mode = iota
	// ModeIterative keeps pending intervals on an explicit stack, so native stack use does
	// not grow with the depth budget.
	ModeIterative
)

func (m Mode) String() string {
	switch m {
	case ModeRecursive:
		return "recursive"
	case ModeIterative:
		return "iterative"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts "recursive" or "iterative". The empty string selects ModeRecursive.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "recursive":
		return ModeRecursive, nil
	case "iterative":
		return ModeIterative, nil
	}
	return ModeRecursive, fmt.Errorf("unknown mode %q (want recursive or iterative)", s)
}
