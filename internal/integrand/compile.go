// Package integrand turns text into integrands: Go expressions in x interpreted with Yaegi,
// or named builtins.
package integrand

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"

	"asi/pkg/quadrature"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// Integrand is a compiled scalar function of x.
type Integrand struct {
	Name        string
	Description string
	Expr        string
	fn          func(float64) float64
}

// Float64 returns the integrand in extended precision.
func (in *Integrand) Float64() quadrature.Func[float64] {
	return in.fn
}

// Float32 returns the integrand in reduced precision. The expression is evaluated in
// float64 and rounded.
func (in *Integrand) Float32() quadrature.Func[float32] {
	fn := in.fn
	return func(x float32) float32 {
		return float32(fn(float64(x)))
	}
}

const source = `package main

import "math"

var _ = math.Pi

func F(x float64) float64 {
	return float64(%s)
}
`

// Compile interprets expr, a single Go expression in the float64 variable x that may call
// functions and use constants of package math. Function literals, other identifiers and
// other calls are rejected before anything is interpreted.
func Compile(ctx context.Context, expr string) (*Integrand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validate(expr); err != nil {
		return nil, fmt.Errorf("invalid expression %q: %w", expr, err)
	}

	i := interp.New(interp.Options{})
	if err := i.Use(interp.Exports{"math/math": stdlib.Symbols["math/math"]}); err != nil {
		return nil, fmt.Errorf("failed to load math: %w", err)
	}

	if _, err := i.EvalWithContext(ctx, fmt.Sprintf(source, expr)); err != nil {
		return nil, fmt.Errorf("expression evaluation failed: %w", err)
	}

	v, err := i.Eval("main.F")
	if err != nil {
		return nil, fmt.Errorf("compiled function not found: %w", err)
	}
	if v.Kind() != reflect.Func {
		return nil, fmt.Errorf("compiled symbol is %s, not a function", v.Kind())
	}
	fn, ok := v.Interface().(func(float64) float64)
	if !ok {
		return nil, fmt.Errorf("compiled function has signature %s", v.Type())
	}

	return &Integrand{Name: expr, Description: "user expression", Expr: expr, fn: fn}, nil
}

// validate accepts number literals, x, math.Name selectors, calls of math functions and
// float64 conversions combined with operators and parentheses.
func validate(expr string) error {
	node, err := parser.ParseExpr(expr)
	if err != nil {
		return err
	}

	var bad error
	ast.Inspect(node, func(n ast.Node) bool {
		if bad != nil || n == nil {
			return false
		}
		switch n := n.(type) {
		case *ast.BasicLit:
			if n.Kind != token.INT && n.Kind != token.FLOAT {
				bad = fmt.Errorf("literal %s not allowed", n.Value)
			}
		case *ast.Ident:
			if n.Name != "x" && n.Name != "float64" {
				bad = fmt.Errorf("identifier %q not allowed", n.Name)
			}
		case *ast.SelectorExpr:
			pkg, ok := n.X.(*ast.Ident)
			if !ok || pkg.Name != "math" {
				bad = fmt.Errorf("only math.%s selectors are allowed", n.Sel.Name)
			}
			// The selector itself is checked; do not descend into math or Sel.
			return false
		case *ast.CallExpr:
			if n.Ellipsis.IsValid() {
				bad = fmt.Errorf("variadic calls not allowed")
			}
		case *ast.BinaryExpr, *ast.UnaryExpr, *ast.ParenExpr:
		default:
			bad = fmt.Errorf("%T not allowed", n)
		}
		return bad == nil
	})
	return bad
}
