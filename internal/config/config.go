package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Data      DataConfig      `yaml:"data" mapstructure:"data"`
	HTTP      HTTPConfig      `yaml:"http" mapstructure:"http"`
	Ingest    IngestConfig    `yaml:"ingest" mapstructure:"ingest"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Discovery DiscoveryConfig `yaml:"discovery" mapstructure:"discovery"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// DataConfig locates the on-disk artifacts of the pipeline.
type DataConfig struct {
	RawDir     string `yaml:"raw_dir" mapstructure:"raw_dir"`
	ExportDir  string `yaml:"export_dir" mapstructure:"export_dir"`
	SeedFile   string `yaml:"seed_file" mapstructure:"seed_file"`
	DomainFile string `yaml:"domain_file" mapstructure:"domain_file"`
}

// HTTPConfig configures outbound ATS API requests.
type HTTPConfig struct {
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// IngestConfig configures the ingestion stage.
type IngestConfig struct {
	MaxConcurrentCompanies int  `yaml:"max_concurrent_companies" mapstructure:"max_concurrent_companies"`
	StrictUS               bool `yaml:"strict_us" mapstructure:"strict_us"`
}

// EnrichConfig points at optional taxonomy seed files. Empty values fall
// back to the built-in taxonomies.
type EnrichConfig struct {
	RoleFamilyFile string `yaml:"role_family_file" mapstructure:"role_family_file"`
	SkillsFile     string `yaml:"skills_file" mapstructure:"skills_file"`
	IndustryFile   string `yaml:"industry_file" mapstructure:"industry_file"`
}

// DiscoveryConfig configures ATS discovery probing.
type DiscoveryConfig struct {
	TimeoutSecs int  `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Verify      bool `yaml:"verify" mapstructure:"verify"`
}

// ServerConfig configures the read-only data API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("JOBINTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("data.raw_dir", "data/raw")
	v.SetDefault("data.export_dir", "data/exports")
	v.SetDefault("data.seed_file", "data/seeds/companies.csv")
	v.SetDefault("data.domain_file", "data/seeds/domains.yaml")
	v.SetDefault("http.user_agent", "jobintel/1.0")
	v.SetDefault("http.timeout_secs", 30)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.rate_per_sec", 4.0)
	v.SetDefault("ingest.max_concurrent_companies", 5)
	v.SetDefault("ingest.strict_us", true)
	v.SetDefault("discovery.timeout_secs", 10)
	v.SetDefault("discovery.verify", true)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks that the configuration is usable for the given mode.
// Modes: "ingest" (outbound fetching), "store" (database access),
// "serve" (data API).
func (c *Config) Validate(mode string) error {
	var errs []string

	if c.Ingest.MaxConcurrentCompanies < 1 || c.Ingest.MaxConcurrentCompanies > 50 {
		errs = append(errs, "ingest.max_concurrent_companies must be between 1 and 50")
	}

	switch mode {
	case "ingest":
		if c.HTTP.TimeoutSecs <= 0 {
			errs = append(errs, "http.timeout_secs must be > 0")
		}
		if c.HTTP.RatePerSec <= 0 {
			errs = append(errs, "http.rate_per_sec must be > 0")
		}
	case "store":
		if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for the postgres driver")
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.New(fmt.Sprintf("config: %s", strings.Join(errs, "; ")))
	}
	return nil
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
