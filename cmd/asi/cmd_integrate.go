package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"asi/internal/config"
	"asi/internal/integrand"
	"asi/internal/logging"
	"asi/pkg/quadrature"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type integrateFlags struct {
	expr      string
	fn        string
	a, b      float64
	tol       float64
	depth     int
	precision int
	mode      string
	nonFinite string
	json      bool
}

// integrateOutput is the --json document. Value is a number when finite and a string
// ("NaN", "+Inf", "-Inf") otherwise.
type integrateOutput struct {
	RunID     string           `json:"run_id"`
	Integrand string           `json:"integrand"`
	A         float64          `json:"a"`
	B         float64          `json:"b"`
	Tolerance float64          `json:"tolerance"`
	MaxDepth  int              `json:"max_depth"`
	Precision int              `json:"precision"`
	Mode      string           `json:"mode"`
	NonFinite string           `json:"non_finite"`
	Value     any              `json:"value"`
	Stats     quadrature.Stats `json:"stats"`
	Elapsed   string           `json:"elapsed"`
}

func newIntegrateCmd(c *cli) *cobra.Command {
	f := &integrateFlags{}
	cmd := &cobra.Command{
		Use:   "integrate",
		Short: "Integrate a builtin or an expression over [a, b]",
		Long: `Integrates the function given by --fn or --expr over the interval between
--a and --b. The interval length is |b - a|, so swapping the bounds gives the
same value.

Flags override the config file, which overrides the defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntegrate(cmd, c, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.expr, "expr", "", "Go expression in x, e.g. \"math.Exp(-x*x)\"")
	flags.StringVar(&f.fn, "fn", "", "builtin integrand name")
	flags.Float64Var(&f.a, "a", 0, "first bound")
	flags.Float64Var(&f.b, "b", 0, "second bound")
	flags.Float64Var(&f.tol, "tol", 0, "absolute tolerance (default from config)")
	flags.IntVar(&f.depth, "depth", 0, "maximum bisection depth (default from config)")
	flags.IntVar(&f.precision, "precision", 0, "32 or 64 (default from config)")
	flags.StringVar(&f.mode, "mode", "", "recursive or iterative (default from config)")
	flags.StringVar(&f.nonFinite, "non-finite", "", "zero, propagate or report (default from config)")
	flags.BoolVar(&f.json, "json", false, "print a JSON document with stats")
	_ = cmd.MarkFlagRequired("a")
	_ = cmd.MarkFlagRequired("b")
	cmd.MarkFlagsMutuallyExclusive("expr", "fn")
	cmd.MarkFlagsOneRequired("expr", "fn")
	return cmd
}

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(cmd *cobra.Command, cfg *config.Config, f *integrateFlags) error {
	flags := cmd.Flags()
	if flags.Changed("tol") {
		cfg.Quadrature.Tolerance = f.tol
	}
	if flags.Changed("depth") {
		cfg.Quadrature.MaxDepth = f.depth
	}
	if flags.Changed("precision") {
		cfg.Quadrature.Precision = f.precision
	}
	if flags.Changed("mode") {
		cfg.Quadrature.Mode = f.mode
	}
	if flags.Changed("non-finite") {
		cfg.Quadrature.NonFinite = f.nonFinite
	}
	return cfg.Validate()
}

func resolveIntegrand(ctx context.Context, cfg *config.Config, f *integrateFlags, log *zap.Logger) (*integrand.Integrand, error) {
	if f.fn != "" {
		in, ok := integrand.Builtin(f.fn)
		if !ok {
			return nil, fmt.Errorf("unknown builtin %q (see \"asi functions\")", f.fn)
		}
		return in, nil
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.GetCompileTimeout())
	defer cancel()

	start := time.Now()
	in, err := integrand.Compile(ctx, f.expr)
	if err != nil {
		return nil, err
	}
	log.Debug("expression compiled", zap.String("expr", f.expr), zap.Duration("took", time.Since(start)))
	return in, nil
}

func runIntegrate(cmd *cobra.Command, c *cli, f *integrateFlags) error {
	cfg := c.cfg
	if err := applyFlags(cmd, cfg, f); err != nil {
		return err
	}

	runID := uuid.New().String()
	base := c.logger.With(zap.String("run_id", runID))
	boot := logging.For(base, cfg.Logging, logging.CategoryBoot)

	in, err := resolveIntegrand(cmd.Context(), cfg, f, logging.For(base, cfg.Logging, logging.CategoryIntegrand))
	if err != nil {
		return err
	}

	qlog := logging.For(base, cfg.Logging, logging.CategoryQuadrature)
	start := time.Now()
	var (
		value float64
		stats quadrature.Stats
	)
	switch cfg.Quadrature.Precision {
	case 32:
		res, err := integrate(cmd.Context(), cfg, in.Float32(), f.a, f.b, qlog)
		if err != nil {
			return err
		}
		value, stats = float64(res.Value), res.Stats
	default:
		res, err := integrate(cmd.Context(), cfg, in.Float64(), f.a, f.b, qlog)
		if err != nil {
			return err
		}
		value, stats = res.Value, res.Stats
	}
	elapsed := time.Since(start)

	boot.Info("integration finished",
		zap.String("integrand", in.Name),
		zap.Float64("value", value),
		zap.Int("evaluations", stats.Evaluations),
		zap.Int("depth_exhausted", stats.DepthExhausted),
		zap.Int("non_finite", stats.NonFinite),
		zap.Duration("elapsed", elapsed),
	)
	if stats.NonFinite > 0 {
		boot.Warn("non-finite subtrees contributed zero", zap.Int("count", stats.NonFinite))
	}

	out := cmd.OutOrStdout()
	if !f.json {
		_, err := fmt.Fprintln(out, strconv.FormatFloat(value, 'g', -1, cfg.Quadrature.Precision))
		return err
	}
	return writeJSON(out, integrateOutput{
		RunID:     runID,
		Integrand: in.Name,
		A:         f.a,
		B:         f.b,
		Tolerance: cfg.Quadrature.Tolerance,
		MaxDepth:  cfg.Quadrature.MaxDepth,
		Precision: cfg.Quadrature.Precision,
		Mode:      cfg.Mode().String(),
		NonFinite: cfg.NonFinitePolicy().String(),
		Value:     jsonFloat(value),
		Stats:     stats,
		Elapsed:   elapsed.String(),
	})
}

func integrate[F quadrature.Float](ctx context.Context, cfg *config.Config, fn quadrature.Func[F], a, b float64, log *zap.Logger) (quadrature.Result[F], error) {
	in := quadrature.Integrator[F]{
		Tolerance: F(cfg.Quadrature.Tolerance),
		MaxDepth:  cfg.Quadrature.MaxDepth,
		NonFinite: cfg.NonFinitePolicy(),
		Mode:      cfg.Mode(),
		Observer:  logging.NewObserver[F](log),
	}
	res, err := in.Integrate(ctx, fn, F(a), F(b))
	if errors.Is(err, quadrature.ErrNonFinite) {
		return res, fmt.Errorf("integration aborted: %w", err)
	}
	return res, err
}

func jsonFloat(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return v
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
