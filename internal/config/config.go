package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/treasury-audit/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Audit     AuditConfig     `yaml:"audit" mapstructure:"audit"`
	Companies CompaniesConfig `yaml:"companies" mapstructure:"companies"`
	Registry  RegistryConfig  `yaml:"registry" mapstructure:"registry"`
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

// FetchConfig configures outbound source retrieval.
type FetchConfig struct {
	UserAgent       string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs     int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries      int     `yaml:"max_retries" mapstructure:"max_retries"`
	RequestsPerHost float64 `yaml:"requests_per_host" mapstructure:"requests_per_host"`
	MaxPayloadBytes int64   `yaml:"max_payload_bytes" mapstructure:"max_payload_bytes"`
}

// AuditConfig configures verdict thresholds and run behavior.
type AuditConfig struct {
	WarningThreshold       float64        `yaml:"warning_threshold" mapstructure:"warning_threshold"`
	ErrorThreshold         float64        `yaml:"error_threshold" mapstructure:"error_threshold"`
	MaxConcurrentCompanies int            `yaml:"max_concurrent_companies" mapstructure:"max_concurrent_companies"`
	StalenessDays          int            `yaml:"staleness_days" mapstructure:"staleness_days"`
	StalenessPerKind       map[string]int `yaml:"staleness_per_kind" mapstructure:"staleness_per_kind"`
}

// CompaniesConfig points at the configured-metrics file under audit.
type CompaniesConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// RegistryConfig points at an optional source table override file. When
// Path is empty the built-in table is used.
type RegistryConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("TREASURY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "treasury-audit.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("fetch.user_agent", "Sells Advisors treasury-audit blake@sellsadvisors.com")
	v.SetDefault("fetch.timeout_secs", 15)
	v.SetDefault("fetch.max_retries", 2)
	v.SetDefault("fetch.requests_per_host", 2)
	v.SetDefault("fetch.max_payload_bytes", 8<<20)
	v.SetDefault("audit.warning_threshold", 0.01)
	v.SetDefault("audit.error_threshold", 0.05)
	v.SetDefault("audit.max_concurrent_companies", 4)
	v.SetDefault("audit.staleness_days", 30)
	v.SetDefault("audit.staleness_per_kind", map[string]int{
		"holdings":           30,
		"burn_rate":          90,
		"shares_outstanding": 90,
		"market_cap":         1,
	})
	v.SetDefault("companies.path", "companies.yaml")
	v.SetDefault("server.port", 8080)
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

// Validate checks the settings a command actually needs. Mode is the
// command name: "audit", "status", or "serve".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "audit":
		if c.Companies.Path == "" {
			problems = append(problems, "companies.path is required")
		}
	case "status":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required")
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Companies.Path == "" {
			problems = append(problems, "companies.path is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Audit.MaxConcurrentCompanies < 1 || c.Audit.MaxConcurrentCompanies > 50 {
		problems = append(problems, "audit.max_concurrent_companies must be between 1 and 50")
	}
	if c.Audit.WarningThreshold <= 0 || c.Audit.WarningThreshold >= c.Audit.ErrorThreshold {
		problems = append(problems, "audit.warning_threshold must be > 0 and below audit.error_threshold")
	}
	if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
		problems = append(problems, "store.driver must be sqlite or postgres")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// LoadCompanies reads the configured company metrics file.
func LoadCompanies(path string) ([]model.Company, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read companies %s", path)
	}

	var doc struct {
		Companies []model.Company `yaml:"companies"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrapf(err, "config: parse companies %s", path)
	}
	return doc.Companies, nil
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
