package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/solarrank/solarrank/pkg/energy"
	"github.com/solarrank/solarrank/pkg/scoring"
	"github.com/solarrank/solarrank/pkg/shading"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, shading.DefaultSearchRadius, cfg.Engine.SearchRadius)
	assert.Equal(t, shading.DefaultShadowLength, cfg.Engine.ShadowLength)
	assert.Equal(t, energy.DefaultEfficiency, cfg.Engine.Efficiency)
	assert.Equal(t, energy.DefaultEconomics(), cfg.Economics)
	assert.Equal(t, scoring.DefaultWeightSet, cfg.Scoring.WeightSet)
	assert.True(t, cfg.Scoring.Weights.IsZero())
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, DefaultNamespace, cfg.Storage.Namespace)
	assert.NotEmpty(t, cfg.Storage.LocalDir)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "valid YAML overrides defaults",
			yaml: `
engine:
  search_radius_m: 150
  size_curve: exponential
  size_curve_param: 2
  workers: 3
scoring:
  weight_set: low-shade
economics:
  price_per_kwh: 0.31
storage:
  backend: s3
  bucket: solar-runs
server:
  port: 9090
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 150.0, cfg.Engine.SearchRadius)
				assert.Equal(t, shading.DefaultShadowLength, cfg.Engine.ShadowLength, "unset keys keep defaults")
				assert.Equal(t, "exponential", cfg.Engine.SizeCurve)
				assert.Equal(t, 3, cfg.Engine.Workers)
				assert.Equal(t, "low-shade", cfg.Scoring.WeightSet)
				assert.Equal(t, 0.31, cfg.Economics.PricePerKWh)
				assert.Equal(t, 200.0, cfg.Economics.CostPerM2)
				assert.Equal(t, "s3", cfg.Storage.Backend)
				assert.Equal(t, "solar-runs", cfg.Storage.Bucket)
				assert.Equal(t, 9090, cfg.Server.Port)
			},
		},
		{
			name: "custom weights",
			yaml: `
scoring:
  weights:
    energy: 0.7
    orientation: 0.1
    shading: 0.1
    area: 0.1
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, scoring.Weights{Energy: 0.7, Orientation: 0.1, Shading: 0.1, Area: 0.1}, cfg.Scoring.Weights)
			},
		},
		{
			name:    "invalid YAML returns error",
			yaml:    "{{invalid yaml",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.yaml), 0o644))

			cfg, err := Load(path)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tc.check(t, cfg)
		})
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, shading.DefaultSearchRadius, cfg.Engine.SearchRadius)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SOLARRANK_ENGINE_WORKERS", "7")
	t.Setenv("SOLARRANK_SCORING_WEIGHT_SET", "balanced")
	t.Setenv("SOLARRANK_SERVER_API_KEY", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Engine.Workers)
	assert.Equal(t, "balanced", cfg.Scoring.WeightSet)
	assert.Equal(t, "s3cret", cfg.Server.APIKey)
}

func TestFindConfigFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".solarrank"), 0o755))
	want := filepath.Join(root, ".solarrank", "config.yaml")
	require.NoError(t, os.WriteFile(want, []byte("log:\n  level: debug\n"), 0o644))

	nested := filepath.Join(root, "data", "delft")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	assert.Equal(t, want, FindConfigFile(nested))
	assert.Equal(t, "", FindConfigFile(t.TempDir()))
}

func TestResolveWeights(t *testing.T) {
	cfg := DefaultConfig()
	name, w, err := cfg.ResolveWeights()
	require.NoError(t, err)
	assert.Equal(t, scoring.DefaultWeightSet, name)
	assert.Equal(t, scoring.DefaultWeights(), w)

	cfg.Scoring.WeightSet = "energy-first"
	name, _, err = cfg.ResolveWeights()
	require.NoError(t, err)
	assert.Equal(t, "energy-first", name)

	cfg.Scoring.WeightSet = "made-up"
	_, _, err = cfg.ResolveWeights()
	assert.True(t, eris.Is(err, scoring.ErrInvalidWeights))

	cfg.Scoring.Weights = scoring.Weights{Energy: 0.25, Orientation: 0.25, Shading: 0.25, Area: 0.25}
	name, w, err = cfg.ResolveWeights()
	require.NoError(t, err, "custom weights win over an unknown set name")
	assert.Equal(t, "custom", name)
	assert.Equal(t, 0.25, w.Area)

	cfg.Scoring.Weights = scoring.Weights{Energy: 0.9, Area: 0.9}
	_, _, err = cfg.ResolveWeights()
	assert.True(t, eris.Is(err, scoring.ErrInvalidWeights))
}

func TestShadingModel(t *testing.T) {
	cfg := DefaultConfig()
	m, err := cfg.ShadingModel()
	require.NoError(t, err)
	assert.Equal(t, shading.DefaultCurve, m.Curve)

	cfg.Engine.SizeCurveParam = 0
	m, err = cfg.ShadingModel()
	require.NoError(t, err)
	assert.Equal(t, shading.LinearCurve{Floor: 0}, m.Curve, "a zero floor is honoured")
	cfg.Engine.SizeCurveParam = shading.DefaultCurveParam

	cfg.Engine.SunElevation = 45
	m, err = cfg.ShadingModel()
	require.NoError(t, err)
	assert.InDelta(t, cfg.Engine.HeightScale, m.ShadowLength, 1e-9)

	cfg.Engine.SunElevation = 95
	_, err = cfg.ShadingModel()
	assert.Error(t, err)

	cfg.Engine.SunElevation = 0
	cfg.Engine.SizeCurve = "cubic"
	_, err = cfg.ShadingModel()
	assert.Error(t, err)

	cfg.Engine.SizeCurve = "linear"
	cfg.Engine.SearchRadius = 0
	_, err = cfg.ShadingModel()
	assert.Error(t, err)
}

func TestPipelineOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.Workers = 2
	cfg.Engine.VerifyRanking = true

	opts, err := cfg.PipelineOptions()
	require.NoError(t, err)
	assert.Equal(t, scoring.DefaultWeightSet, opts.WeightSet)
	assert.Equal(t, 2, opts.Workers)
	assert.True(t, opts.Verify)
	assert.Equal(t, cfg.Economics, opts.Economics)
}

func TestImportOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.IDProperty = "pand_id"
	cfg.Engine.HeightProperty = "roof_h"
	cfg.Engine.DefaultIrradiance = 1010

	opts := cfg.ImportOptions()
	assert.Equal(t, "pand_id", opts.IDProperty)
	assert.Equal(t, "roof_h", opts.HeightProperties[0])
	assert.Contains(t, opts.HeightProperties, "height")
	assert.Equal(t, 1010.0, opts.DefaultIrradiance)
}

func TestDumpRedacted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.APIKey = "s3cret"
	cfg.Storage.SecretKey = "hunter2"

	var buf bytes.Buffer
	require.NoError(t, cfg.Redacted().Dump(&buf))
	out := buf.String()
	assert.NotContains(t, out, "s3cret")
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "search_radius_m: 100")
	assert.Equal(t, "s3cret", cfg.Server.APIKey, "Redacted copies")

	var back Config
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, cfg.Engine, back.Engine)
}

func TestInitLogger(t *testing.T) {
	assert.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "json"}))
	assert.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "console"}))
	assert.Error(t, InitLogger(LogConfig{Level: "loud"}))
}

func TestCacheDir(t *testing.T) {
	dir := CacheDir("/home/user/data/delft")
	assert.True(t, strings.HasSuffix(dir, filepath.Join("solarrank", "data_delft")), dir)
}
