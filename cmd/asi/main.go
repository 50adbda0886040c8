package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"asi/internal/config"
	"asi/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is set with -ldflags "-X main.version=..."
var version = "dev"

// cli holds the state shared by every subcommand of one invocation.
type cli struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "asi",
		Short: "asi - adaptive Simpson integration",
		Long: `asi integrates a scalar function over an interval with adaptive Simpson
quadrature under a bounded bisection depth.

The integrand is either a builtin (see "asi functions") or a Go expression in x
that may use package math, for example:

  asi integrate --expr "math.Sin(x)*math.Exp(-x)" --a 0 --b 10`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			if c.verbose {
				cfg.Logging.Level = "debug"
			}
			// Quadrature settings are validated by the subcommand once its flags are applied.
			if err := cfg.ValidateLogging(); err != nil {
				return fmt.Errorf("invalid config %s: %w", c.configPath, err)
			}
			c.cfg = cfg

			// Tests inject their own logger.
			if c.logger == nil {
				c.logger, err = logging.New(cfg.Logging)
				if err != nil {
					return err
				}
			}
			logging.For(c.logger, cfg.Logging, logging.CategoryConfig).Debug("configuration resolved",
				zap.String("path", c.configPath),
				zap.Float64("tolerance", cfg.Quadrature.Tolerance),
				zap.Int("max_depth", cfg.Quadrature.MaxDepth),
				zap.Int("precision", cfg.Quadrature.Precision),
				zap.String("mode", cfg.Quadrature.Mode),
				zap.String("non_finite", cfg.Quadrature.NonFinite),
			)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "asi.yaml", "path to the YAML config file")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log every split and accept decision")

	root.AddCommand(newIntegrateCmd(c), newFunctionsCmd(), newConfigCmd(c), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the asi version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "asi %s\n", version)
			return err
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(&cli{}).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
