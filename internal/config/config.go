package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/risk-inventory/internal/catalog"
	"github.com/sells-group/risk-inventory/internal/store"
	"github.com/sells-group/risk-inventory/internal/turnover"
)

// Config holds the full application configuration.
type Config struct {
	Store      store.Config     `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Benchmarks BenchmarksConfig `yaml:"benchmarks" mapstructure:"benchmarks"`
	Costs      turnover.Costs   `yaml:"costs" mapstructure:"costs"`
	Scoring    ScoringConfig    `yaml:"scoring" mapstructure:"scoring"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
	CORSOrigins    []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// BenchmarksConfig holds the sector reference rates for the HR engines.
type BenchmarksConfig struct {
	Absence  catalog.Benchmarks `yaml:"absence" mapstructure:"absence"`
	Turnover catalog.Benchmarks `yaml:"turnover" mapstructure:"turnover"`
}

// ScoringConfig tunes questionnaire scoring.
type ScoringConfig struct {
	// Strict classifies instruments by their worst dimension instead of the mean.
	Strict bool `yaml:"strict" mapstructure:"strict"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RISK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "risk-inventory.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit_rps", 10.0)
	v.SetDefault("server.rate_limit_burst", 20)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("scoring.strict", false)

	absence := catalog.AbsenceBenchmarks()
	v.SetDefault("benchmarks.absence.by_sector", anyMap(absence.BySector))
	v.SetDefault("benchmarks.absence.default", absence.Default)
	to := catalog.TurnoverBenchmarks()
	v.SetDefault("benchmarks.turnover.by_sector", anyMap(to.BySector))
	v.SetDefault("benchmarks.turnover.default", to.Default)

	costs := turnover.DefaultCosts()
	v.SetDefault("costs.separation", costs.Separation)
	v.SetDefault("costs.hiring", costs.Hiring)
	v.SetDefault("costs.productivity", costs.Productivity)
	v.SetDefault("costs.annual_salary", costs.AnnualSalary)
}

// anyMap widens a sector table so viper merges file overrides per sector
// instead of replacing the whole table.
func anyMap(m map[string]float64) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Validate checks the settings needed by mode ("cli" or "serve") and
// reports every problem at once.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "cli":
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Server.RateLimitRPS <= 0 {
			errs = append(errs, "server.rate_limit_rps must be > 0")
		}
		if c.Server.RateLimitBurst < 1 {
			errs = append(errs, "server.rate_limit_burst must be >= 1")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch strings.ToLower(c.Store.Driver) {
	case "sqlite", "":
	case "postgres", "postgresql":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q must be sqlite or postgres", c.Store.Driver))
	}

	errs = append(errs, benchmarkErrors("absence", c.Benchmarks.Absence)...)
	errs = append(errs, benchmarkErrors("turnover", c.Benchmarks.Turnover)...)

	if c.Costs.Separation < 0 || c.Costs.Hiring < 0 || c.Costs.Productivity < 0 || c.Costs.AnnualSalary < 0 {
		errs = append(errs, "costs values must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func benchmarkErrors(name string, b catalog.Benchmarks) []string {
	var errs []string
	if b.Default <= 0 {
		errs = append(errs, fmt.Sprintf("benchmarks.%s.default must be > 0", name))
	}
	for sector, v := range b.BySector {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("benchmarks.%s.by_sector.%s must be >= 0", name, sector))
		}
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
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
