package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"asi/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// run executes the root command with args against a fresh, absent config file and returns stdout.
func run(t *testing.T, logger *zap.Logger, args ...string) (string, error) {
	t.Helper()
	return runConfig(t, logger, filepath.Join(t.TempDir(), "asi.yaml"), args...)
}

// runConfig is run with an explicit config path.
func runConfig(t *testing.T, logger *zap.Logger, path string, args ...string) (string, error) {
	t.Helper()
	for _, k := range []string{"ASI_TOLERANCE", "ASI_MAX_DEPTH", "ASI_PRECISION", "ASI_MODE", "ASI_NON_FINITE", "ASI_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	root := newRootCmd(&cli{logger: logger})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--config", path))
	err := root.Execute()
	return out.String(), err
}

func parseValue(t *testing.T, out string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	require.NoError(t, err, out)
	return v
}

func TestIntegrate_Builtin(t *testing.T) {
	out, err := run(t, nil, "integrate", "--fn", "sin", "--a", "0", "--b", "3.141592653589793")
	require.NoError(t, err)
	assert.InDelta(t, 2.0, parseValue(t, out), 1e-6)
}

func TestIntegrate_ReversedBounds(t *testing.T) {
	out, err := run(t, nil, "integrate", "--fn", "one", "--a", "1", "--b", "0")
	require.NoError(t, err)
	assert.Equal(t, 1.0, parseValue(t, out))
}

func TestIntegrate_Expression(t *testing.T) {
	out, err := run(t, nil, "integrate", "--expr", "x*x", "--a", "0", "--b", "1", "--tol", "1e-9", "--mode", "iterative")
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3, parseValue(t, out), 1e-12)
}

func TestIntegrate_Float32(t *testing.T) {
	out, err := run(t, nil, "integrate", "--fn", "gauss", "--a", "-2", "--b", "2", "--precision", "32")
	require.NoError(t, err)
	assert.InDelta(t, 1.764162781, parseValue(t, out), 1e-4)
}

func TestIntegrate_JSON(t *testing.T) {
	out, err := run(t, nil, "integrate", "--fn", "x2", "--a", "0", "--b", "1", "--depth", "0", "--json")
	require.NoError(t, err)

	var doc struct {
		RunID     string  `json:"run_id"`
		Integrand string  `json:"integrand"`
		MaxDepth  int     `json:"max_depth"`
		Mode      string  `json:"mode"`
		NonFinite string  `json:"non_finite"`
		Value     float64 `json:"value"`
		Stats     struct {
			Evaluations int `json:"evaluations"`
			Accepted    int `json:"accepted"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Len(t, doc.RunID, 36)
	assert.Equal(t, "x2", doc.Integrand)
	assert.Equal(t, 0, doc.MaxDepth)
	assert.Equal(t, "recursive", doc.Mode)
	assert.Equal(t, "zero", doc.NonFinite)
	assert.InDelta(t, 1.0/3, doc.Value, 1e-15)
	assert.Equal(t, 5, doc.Stats.Evaluations)
	assert.Equal(t, 1, doc.Stats.Accepted)
}

func TestIntegrate_NonFinitePolicies(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	out, err := run(t, zap.New(core), "integrate", "--fn", "nan_at_half", "--a", "0", "--b", "1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, parseValue(t, out))
	assert.Equal(t, 1, logs.FilterMessage("non-finite subtrees contributed zero").Len())

	out, err = run(t, nil, "integrate", "--fn", "nan_at_half", "--a", "0", "--b", "1", "--non-finite", "propagate", "--depth", "2", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"value": "NaN"`)

	_, err = run(t, nil, "integrate", "--fn", "nan_at_half", "--a", "0", "--b", "1", "--non-finite", "report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "integration aborted")
}

func TestIntegrate_LogsCarryRunID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	_, err := run(t, zap.New(core), "integrate", "--fn", "sqrt", "--a", "0", "--b", "1", "--depth", "3", "--tol", "0")
	require.NoError(t, err)

	splits := logs.FilterMessage("split").All()
	require.NotEmpty(t, splits)
	assert.Equal(t, "quadrature", splits[0].LoggerName)
	id, ok := splits[0].ContextMap()["run_id"].(string)
	require.True(t, ok)
	assert.Len(t, id, 36)
}

func TestIntegrate_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "asi.yaml")
	require.NoError(t, os.WriteFile(path, []byte("quadrature:\n  max_depth: 0\n"), 0644))

	root := newRootCmd(&cli{logger: zap.NewNop()})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"integrate", "--fn", "x3", "--a", "0", "--b", "2", "--json", "--config", path})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), `"max_depth": 0`)
	assert.Contains(t, out.String(), `"evaluations": 5`)
}

func TestIntegrate_FlagsOverrideInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asi.yaml")
	require.NoError(t, os.WriteFile(path, []byte("quadrature:\n  max_depth: 100\n  precision: 16\n"), 0644))

	out, err := runConfig(t, nil, path, "integrate", "--fn", "one", "--a", "0", "--b", "1", "--depth", "10", "--precision", "64")
	require.NoError(t, err)
	assert.Equal(t, 1.0, parseValue(t, out))

	// Without the overriding flags the file values are still rejected.
	_, err = runConfig(t, nil, path, "integrate", "--fn", "one", "--a", "0", "--b", "1", "--precision", "64")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_depth")

	// Commands that never read the quadrature section are unaffected.
	out, err = runConfig(t, nil, path, "version")
	require.NoError(t, err)
	assert.Equal(t, "asi dev\n", out)
}

func TestIntegrate_FlagErrors(t *testing.T) {
	tests := map[string][]string{
		"no integrand":    {"integrate", "--a", "0", "--b", "1"},
		"both integrands": {"integrate", "--fn", "one", "--expr", "1", "--a", "0", "--b", "1"},
		"missing bound":   {"integrate", "--fn", "one", "--a", "0"},
		"unknown builtin": {"integrate", "--fn", "nope", "--a", "0", "--b", "1"},
		"bad precision":   {"integrate", "--fn", "one", "--a", "0", "--b", "1", "--precision", "16"},
		"bad expression":  {"integrate", "--expr", "os.Exit(1)", "--a", "0", "--b", "1"},
		"depth cap":       {"integrate", "--fn", "one", "--a", "0", "--b", "1", "--depth", "65"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := run(t, nil, args...)
			assert.Error(t, err)
		})
	}
}

func TestFunctions(t *testing.T) {
	out, err := run(t, nil, "functions")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "math.Sin(x)")
	assert.Contains(t, out, "nan_at_half")
}

func TestVersion(t *testing.T) {
	out, err := run(t, nil, "version")
	require.NoError(t, err)
	assert.Equal(t, "asi dev\n", out)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "asi.yaml")

	out, err := runConfig(t, nil, path, "config", "init")
	require.NoError(t, err)
	assert.Equal(t, "wrote "+path+"\n", out)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	_, err = runConfig(t, nil, path, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, os.WriteFile(path, []byte("quadrature: [broken\n"), 0644))
	_, err = runConfig(t, nil, path, "config", "init", "--force")
	require.NoError(t, err)

	cfg, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	// The written file drives integrate directly.
	out, err = runConfig(t, nil, path, "integrate", "--fn", "x2", "--a", "0", "--b", "1")
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3, parseValue(t, out), 1e-9)
}
