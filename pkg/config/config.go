// Package config handles loading and managing solarrank configuration.
package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/solarrank/solarrank/pkg/building"
	"github.com/solarrank/solarrank/pkg/energy"
	"github.com/solarrank/solarrank/pkg/pipeline"
	"github.com/solarrank/solarrank/pkg/scoring"
	"github.com/solarrank/solarrank/pkg/shading"
)

// EnvPrefix prefixes environment overrides, e.g. SOLARRANK_ENGINE_WORKERS.
const EnvPrefix = "SOLARRANK"

// Config is the top-level configuration for solarrank.
type Config struct {
	Engine    EngineConfig     `yaml:"engine" mapstructure:"engine"`
	Scoring   ScoringConfig    `yaml:"scoring" mapstructure:"scoring"`
	Economics energy.Economics `yaml:"economics" mapstructure:"economics"`
	Storage   StorageConfig    `yaml:"storage" mapstructure:"storage"`
	Server    ServerConfig     `yaml:"server" mapstructure:"server"`
	Log       LogConfig        `yaml:"log" mapstructure:"log"`
}

// EngineConfig controls the shading and energy models, the worker pool and
// the import defaults.
type EngineConfig struct {
	SearchRadius float64 `yaml:"search_radius_m" mapstructure:"search_radius_m"`
	ShadowLength float64 `yaml:"shadow_length_m" mapstructure:"shadow_length_m"`
	HeightScale  float64 `yaml:"height_scale_m" mapstructure:"height_scale_m"`
	// SunElevation derives the shadow length when set; 0 keeps ShadowLength.
	SunElevation   float64 `yaml:"sun_elevation_deg" mapstructure:"sun_elevation_deg"`
	SizeCurve      string  `yaml:"size_curve" mapstructure:"size_curve"`
	// SizeCurveParam is the linear floor or the exponential rate; negative
	// keeps the curve's default.
	SizeCurveParam float64 `yaml:"size_curve_param" mapstructure:"size_curve_param"`
	Efficiency     float64 `yaml:"efficiency" mapstructure:"efficiency"`
	// Workers bounds the pipeline worker pool; 0 means GOMAXPROCS.
	Workers       int  `yaml:"workers" mapstructure:"workers"`
	VerifyRanking bool `yaml:"verify_ranking" mapstructure:"verify_ranking"`

	IDProperty        string  `yaml:"id_property" mapstructure:"id_property"`
	HeightProperty    string  `yaml:"height_property" mapstructure:"height_property"`
	DefaultIrradiance float64 `yaml:"default_irradiance" mapstructure:"default_irradiance"`
}

// ScoringConfig selects the weight set. Non-zero Weights replace the named set.
type ScoringConfig struct {
	WeightSet string          `yaml:"weight_set" mapstructure:"weight_set"`
	Weights   scoring.Weights `yaml:"weights" mapstructure:"weights"`
}

// StorageConfig selects where snapshots and runs are kept.
type StorageConfig struct {
	// Backend is local, gcs or s3.
	Backend  string `yaml:"backend" mapstructure:"backend"`
	LocalDir string `yaml:"local_dir" mapstructure:"local_dir"`
	Bucket   string `yaml:"bucket" mapstructure:"bucket"`
	Region   string `yaml:"region" mapstructure:"region"`
	// Endpoint points S3 at a compatible service such as MinIO or R2.
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"`
	AccessKey string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key"`
	Namespace string `yaml:"namespace" mapstructure:"namespace"`
}

// ServerConfig configures the HTTP query server. An empty APIKey disables
// auth and a zero RateLimit disables rate limiting.
type ServerConfig struct {
	Port      int     `yaml:"port" mapstructure:"port"`
	APIKey    string  `yaml:"api_key" mapstructure:"api_key"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst int     `yaml:"rate_burst" mapstructure:"rate_burst"`
	CacheSize int     `yaml:"cache_size" mapstructure:"cache_size"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultNamespace is used when the storage namespace is not configured.
const DefaultNamespace = "default"

func setDefaults(v *viper.Viper, workDir string) {
	m := shading.Default()
	v.SetDefault("engine.search_radius_m", m.SearchRadius)
	v.SetDefault("engine.shadow_length_m", m.ShadowLength)
	v.SetDefault("engine.height_scale_m", m.HeightScale)
	v.SetDefault("engine.sun_elevation_deg", 0.0)
	v.SetDefault("engine.size_curve", "linear")
	v.SetDefault("engine.size_curve_param", shading.DefaultCurveParam)
	v.SetDefault("engine.efficiency", energy.DefaultEfficiency)
	v.SetDefault("engine.workers", 0)
	v.SetDefault("engine.verify_ranking", false)
	v.SetDefault("engine.height_property", "")
	v.SetDefault("engine.id_property", "")
	v.SetDefault("engine.default_irradiance", 0.0)

	v.SetDefault("scoring.weight_set", scoring.DefaultWeightSet)
	v.SetDefault("scoring.weights.energy", 0.0)
	v.SetDefault("scoring.weights.orientation", 0.0)
	v.SetDefault("scoring.weights.shading", 0.0)
	v.SetDefault("scoring.weights.area", 0.0)

	econ := energy.DefaultEconomics()
	v.SetDefault("economics.price_per_kwh", econ.PricePerKWh)
	v.SetDefault("economics.cost_per_m2", econ.CostPerM2)

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.local_dir", filepath.Join(CacheDir(workDir), "store"))
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.namespace", DefaultNamespace)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.api_key", "")
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("server.cache_size", 16)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() *Config {
	cfg, err := decode(newViper(workingDir()))
	if err != nil {
		// defaults always decode
		panic(err)
	}
	return cfg
}

// Load reads a config file from the given path, applying SOLARRANK_*
// environment overrides on top. If the file does not exist, it returns the
// defaults with overrides applied.
func Load(path string) (*Config, error) {
	v := newViper(workingDir())

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, eris.Wrap(err, "config: read file")
			}
		} else if !os.IsNotExist(err) {
			return nil, eris.Wrap(err, "config: stat file")
		}
	}

	return decode(v)
}

func newViper(workDir string) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, workDir)
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &cfg, nil
}

func workingDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// FindConfigFile looks for .solarrank/config.yaml in the given directory
// and its parents, returning the path if found, or "" if not.
func FindConfigFile(dir string) string {
	for {
		candidate := filepath.Join(dir, ".solarrank", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// ResolveWeights returns the weights to score with and the name to record
// for them. Custom weights win over the named set and are reported as
// "custom".
func (c *Config) ResolveWeights() (string, scoring.Weights, error) {
	if !c.Scoring.Weights.IsZero() {
		if err := c.Scoring.Weights.Validate(); err != nil {
			return "", scoring.Weights{}, err
		}
		return "custom", c.Scoring.Weights, nil
	}
	w, err := scoring.LookupWeightSet(c.Scoring.WeightSet)
	if err != nil {
		return "", scoring.Weights{}, err
	}
	name := c.Scoring.WeightSet
	if name == "" {
		name = scoring.DefaultWeightSet
	}
	return name, w, nil
}

// ShadingModel builds the shading model from the engine section.
func (c *Config) ShadingModel() (shading.Model, error) {
	curve, err := shading.ParseCurve(c.Engine.SizeCurve, c.Engine.SizeCurveParam)
	if err != nil {
		return shading.Model{}, err
	}
	m := shading.Model{
		SearchRadius: c.Engine.SearchRadius,
		ShadowLength: c.Engine.ShadowLength,
		HeightScale:  c.Engine.HeightScale,
		Curve:        curve,
	}
	if c.Engine.SunElevation != 0 {
		if c.Engine.SunElevation <= 0 || c.Engine.SunElevation >= 90 {
			return shading.Model{}, eris.Errorf("sun elevation must be in (0, 90) degrees, got %g", c.Engine.SunElevation)
		}
		m = m.WithSunElevation(c.Engine.SunElevation)
	}
	if err := m.Validate(); err != nil {
		return shading.Model{}, err
	}
	return m, nil
}

// PipelineOptions assembles validated pipeline options.
func (c *Config) PipelineOptions() (pipeline.Options, error) {
	name, weights, err := c.ResolveWeights()
	if err != nil {
		return pipeline.Options{}, err
	}
	model, err := c.ShadingModel()
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		WeightSet:  name,
		Weights:    weights,
		Shading:    model,
		Efficiency: c.Engine.Efficiency,
		Economics:  c.Economics,
		Workers:    c.Engine.Workers,
		Verify:     c.Engine.VerifyRanking,
	}, nil
}

// ImportOptions returns the footprint import options, with the configured
// properties tried before the built-in ones.
func (c *Config) ImportOptions() building.ImportOptions {
	opts := building.DefaultImportOptions()
	opts.IDProperty = c.Engine.IDProperty
	if c.Engine.HeightProperty != "" {
		opts.HeightProperties = append([]string{c.Engine.HeightProperty}, opts.HeightProperties...)
	}
	if c.Engine.DefaultIrradiance > 0 {
		opts.DefaultIrradiance = c.Engine.DefaultIrradiance
	}
	return opts
}

// Redacted returns a copy with credentials masked, for display.
func (c *Config) Redacted() *Config {
	out := *c
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	out.Storage.AccessKey = mask(out.Storage.AccessKey)
	out.Storage.SecretKey = mask(out.Storage.SecretKey)
	out.Server.APIKey = mask(out.Server.APIKey)
	return &out
}

// Dump writes the configuration as YAML.
func (c *Config) Dump(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return eris.Wrap(err, "config: encode yaml")
	}
	return enc.Close()
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

// CacheDir returns the cache directory for a given workspace path.
// Uses ~/.cache/solarrank/<slug>/ to keep runs out of the data directory.
func CacheDir(workspacePath string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".cache", "solarrank", workspaceSlug(workspacePath))
}

// workspaceSlug creates a filesystem-safe identifier from a workspace path,
// using its last two components ("/home/me/data/delft" -> "data_delft").
func workspaceSlug(workspacePath string) string {
	abs, err := filepath.Abs(workspacePath)
	if err != nil {
		abs = workspacePath
	}
	dir := filepath.Base(filepath.Dir(abs))
	base := filepath.Base(abs)
	return dir + "_" + base
}
