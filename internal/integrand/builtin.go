package integrand

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

var (
	builtins   = make(map[string]*Integrand)
	builtinsMu sync.RWMutex
)

func init() {
	mustRegister("one", "1", "constant one", func(float64) float64 { return 1 })
	mustRegister("x2", "x*x", "square", func(x float64) float64 { return x * x })
	mustRegister("x3", "x*x*x", "cube", func(x float64) float64 { return x * x * x })
	mustRegister("sin", "math.Sin(x)", "sine", math.Sin)
	mustRegister("exp", "math.Exp(x)", "exponential", math.Exp)
	mustRegister("sqrt", "math.Sqrt(x)", "square root, infinite slope at 0", math.Sqrt)
	mustRegister("runge", "1/(1+25*x*x)", "Runge's function", func(x float64) float64 { return 1 / (1 + 25*x*x) })
	mustRegister("gauss", "math.Exp(-x*x)", "Gaussian bell", func(x float64) float64 { return math.Exp(-x * x) })
	mustRegister("step", "", "0 below 0.5, 1 from 0.5 on", func(x float64) float64 {
		if x < 0.5 {
			return 0
		}
		return 1
	})
	mustRegister("nan_at_half", "", "1 everywhere except NaN at exactly 0.5", func(x float64) float64 {
		if x == 0.5 {
			return math.NaN()
		}
		return 1
	})
}

// Register adds a named builtin. Names are unique.
func Register(name, expr, description string, fn func(float64) float64) error {
	builtinsMu.Lock()
	defer builtinsMu.Unlock()

	if _, exists := builtins[name]; exists {
		return fmt.Errorf("builtin %q already registered", name)
	}
	builtins[name] = &Integrand{Name: name, Description: description, Expr: expr, fn: fn}
	return nil
}

func mustRegister(name, expr, description string, fn func(float64) float64) {
	if err := Register(name, expr, description, fn); err != nil {
		panic(err)
	}
}

// Builtin looks up a named builtin.
func Builtin(name string) (*Integrand, bool) {
	builtinsMu.RLock()
	defer builtinsMu.RUnlock()

	in, ok := builtins[name]
	return in, ok
}

// Builtins returns every builtin sorted by name.
func Builtins() []*Integrand {
	builtinsMu.RLock()
	defer builtinsMu.RUnlock()

	out := make([]*Integrand, 0, len(builtins))
	for _, in := range builtins {
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
