package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/treasury-audit/internal/model"
)

func chTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chTempDir(t) // no config.yaml present

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "treasury-audit.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Audit.MaxConcurrentCompanies)
	assert.InDelta(t, 0.01, cfg.Audit.WarningThreshold, 1e-9)
	assert.InDelta(t, 0.05, cfg.Audit.ErrorThreshold, 1e-9)
	assert.Equal(t, 30, cfg.Audit.StalenessDays)
	assert.Equal(t, 1, cfg.Audit.StalenessPerKind["market_cap"])
	assert.Equal(t, 90, cfg.Audit.StalenessPerKind["burn_rate"])
	assert.Equal(t, 15, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 2, cfg.Fetch.MaxRetries)
	assert.Contains(t, cfg.Fetch.UserAgent, "treasury-audit")
	assert.Equal(t, "companies.yaml", cfg.Companies.Path)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/audit
log:
  level: debug
  format: console
server:
  port: 9090
audit:
  max_concurrent_companies: 8
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Audit.MaxConcurrentCompanies)
	// Defaults still apply for unset values
	assert.InDelta(t, 0.05, cfg.Audit.ErrorThreshold, 1e-9)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("TREASURY_STORE_DRIVER", "postgres")
	t.Setenv("TREASURY_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chTempDir(t)

	t.Setenv("TREASURY_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadCompanies(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
companies:
  - ticker: MSTR
    name: Strategy
    asset: BTC
    cik: "1050446"
    metrics:
      - kind: holdings
        value:
          number: 672497
          unit: BTC
      - kind: shares_outstanding
        value:
          number: 283544304
          unit: shares
  - ticker: BMNR
    name: Bitmine Immersion
    asset: ETH
    metrics:
      - kind: burn_rate
        value:
          number: 170000000
          unit: usd/yr
`
	path := filepath.Join(dir, "companies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	companies, err := LoadCompanies(path)
	require.NoError(t, err)
	require.Len(t, companies, 2)
	assert.Equal(t, "MSTR", companies[0].Ticker)
	assert.Equal(t, "1050446", companies[0].CIK)
	require.Len(t, companies[0].Metrics, 2)
	assert.Equal(t, model.MetricHoldings, companies[0].Metrics[0].Kind)
	assert.InDelta(t, 672497, companies[0].Metrics[0].Value.Number, 0.1)
	assert.Equal(t, model.Unit("BTC"), companies[0].Metrics[0].Value.Unit)
	assert.Equal(t, model.MetricBurnRate, companies[1].Metrics[0].Kind)
}

func TestLoadCompanies_MissingFile(t *testing.T) {
	_, err := LoadCompanies("/nonexistent/companies.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read companies")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config that passes validation in every mode.
func validDefaults() *Config {
	return &Config{
		Store:     StoreConfig{Driver: "sqlite", DatabaseURL: "audit.db"},
		Audit:     AuditConfig{WarningThreshold: 0.01, ErrorThreshold: 0.05, MaxConcurrentCompanies: 4},
		Companies: CompaniesConfig{Path: "companies.yaml"},
		Server:    ServerConfig{Port: 8080},
	}
}

func TestValidate_Modes(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("audit"))
	assert.NoError(t, cfg.Validate("status"))
	assert.NoError(t, cfg.Validate("serve"))

	err := cfg.Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidate_MissingCompaniesPath(t *testing.T) {
	cfg := validDefaults()
	cfg.Companies.Path = ""

	err := cfg.Validate("audit")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "companies.path is required")
}

func TestValidate_ServePort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidate_ConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Audit.MaxConcurrentCompanies = 0
	err := cfg.Validate("audit")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_concurrent_companies must be between 1 and 50")

	cfg.Audit.MaxConcurrentCompanies = 51
	err = cfg.Validate("audit")
	require.Error(t, err)

	cfg.Audit.MaxConcurrentCompanies = 50
	assert.NoError(t, cfg.Validate("audit"))
}

func TestValidate_Thresholds(t *testing.T) {
	cfg := validDefaults()

	cfg.Audit.WarningThreshold = 0.1 // above error threshold
	err := cfg.Validate("audit")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "warning_threshold")

	cfg.Audit.WarningThreshold = 0
	err = cfg.Validate("audit")
	require.Error(t, err)
}

func TestValidate_Driver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("audit")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
}
