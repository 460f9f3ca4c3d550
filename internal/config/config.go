package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Env            string   `mapstructure:"ENV"`
	DatabaseURL    string   `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32    `mapstructure:"DB_MIN_CONNS"`
	AuthIssuer     string   `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL    string   `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience   string   `mapstructure:"AUTH_AUDIENCE"`
	DefaultTenant  string   `mapstructure:"DEFAULT_TENANT"`
	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `mapstructure:"RATE_LIMIT_BURST"`

	// Readiness engine tuning.
	VerifyPolicyMode     string `mapstructure:"VERIFY_POLICY_MODE"`
	VerifyFreshnessHours int    `mapstructure:"VERIFY_FRESHNESS_HOURS"`
	RollupCacheTTLSecs   int    `mapstructure:"ROLLUP_CACHE_TTL_SECS"`

	// Risk queue thresholds. The warning window applies when a catalog
	// item has no expiration_warning_days of its own.
	RiskWarningDays int `mapstructure:"RISK_WARNING_DAYS"`
	RiskOrangeDays  int `mapstructure:"RISK_ORANGE_DAYS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("DEFAULT_TENANT", "default")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("VERIFY_POLICY_MODE", "binding")
	v.SetDefault("VERIFY_FRESHNESS_HOURS", 24)
	v.SetDefault("ROLLUP_CACHE_TTL_SECS", 300)
	v.SetDefault("RISK_WARNING_DAYS", 30)
	v.SetDefault("RISK_ORANGE_DAYS", 7)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("AUTH_ISSUER")
	v.BindEnv("AUTH_JWKS_URL")
	v.BindEnv("AUTH_AUDIENCE")
	v.BindEnv("DEFAULT_TENANT")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("VERIFY_POLICY_MODE")
	v.BindEnv("VERIFY_FRESHNESS_HOURS")
	v.BindEnv("ROLLUP_CACHE_TTL_SECS")
	v.BindEnv("RISK_WARNING_DAYS")
	v.BindEnv("RISK_ORANGE_DAYS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.VerifyPolicyMode != "binding" && cfg.VerifyPolicyMode != "freshness" {
		return nil, fmt.Errorf("VERIFY_POLICY_MODE must be \"binding\" or \"freshness\", got %q", cfg.VerifyPolicyMode)
	}

	if cfg.IsDev() {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active — all requests get admin access.")
		log.Println("WARNING: Do NOT use this configuration in production.")
		log.Println("WARNING: Set ENV=production and configure AUTH_ISSUER for production.")
		log.Println("WARNING: ============================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// FreshnessWindow converts the configured hours into a duration.
func (c *Config) FreshnessWindow() time.Duration {
	return time.Duration(c.VerifyFreshnessHours) * time.Hour
}

// RollupCacheTTL converts the configured seconds into a duration.
func (c *Config) RollupCacheTTL() time.Duration {
	return time.Duration(c.RollupCacheTTLSecs) * time.Second
}

// Validate checks that the configuration is safe to run. Outside
// development AUTH_ISSUER must be set so real JWT authentication is
// enforced.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthIssuer == "" {
		return fmt.Errorf(
			"AUTH_ISSUER must be set when ENV is not \"development\" (current ENV=%q). "+
				"Refusing to start without authentication configuration", c.Env)
	}
	return nil
}
