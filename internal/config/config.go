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
	AuthMode       string   `mapstructure:"AUTH_MODE"`
	AuthIssuer     string   `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL    string   `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience   string   `mapstructure:"AUTH_AUDIENCE"`
	FHIRServerType string   `mapstructure:"FHIR_SERVER_TYPE"`
	FHIRBaseURL    string   `mapstructure:"FHIR_BASE_URL"`
	FHIRTimeoutMS  int      `mapstructure:"FHIR_TIMEOUT_MS"`
	DatabaseURL    string   `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("AUTH_MODE", "") // auto-detect: "" -> inferred from ENV
	v.SetDefault("FHIR_SERVER_TYPE", "mock")
	v.SetDefault("FHIR_BASE_URL", "https://hapi.fhir.org/baseR4")
	v.SetDefault("FHIR_TIMEOUT_MS", 10000)
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("AUTH_MODE")
	v.BindEnv("AUTH_ISSUER")
	v.BindEnv("AUTH_JWKS_URL")
	v.BindEnv("AUTH_AUDIENCE")
	v.BindEnv("FHIR_SERVER_TYPE")
	v.BindEnv("FHIR_BASE_URL")
	v.BindEnv("FHIR_TIMEOUT_MS")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")

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

	if cfg.IsDev() {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: Dev auth is active — all requests get a synthetic clinician.")
		log.Println("WARNING: Do NOT use this configuration in production.")
		log.Println("WARNING: Set ENV=production and configure AUTH_ISSUER for production.")
		log.Println("WARNING: ============================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// FHIRTimeout returns the upstream FHIR request timeout as a duration.
func (c *Config) FHIRTimeout() time.Duration {
	return time.Duration(c.FHIRTimeoutMS) * time.Millisecond
}

// ResolvedAuthMode returns the effective auth mode. If AUTH_MODE is explicitly
// set, it is returned. Otherwise, the mode is inferred:
//   - ENV=development → "development" (no auth, synthetic dev user)
//   - Otherwise       → "external" (Auth0, Keycloak, any OIDC issuer)
func (c *Config) ResolvedAuthMode() string {
	if c.AuthMode != "" {
		return c.AuthMode
	}
	if c.IsDev() {
		return "development"
	}
	return "external"
}

// ResolvedJWKSURL returns the JWKS endpoint, deriving the issuer's
// conventional well-known location when none is configured.
func (c *Config) ResolvedJWKSURL() string {
	if c.AuthJWKSURL != "" {
		return c.AuthJWKSURL
	}
	if c.AuthIssuer != "" {
		return strings.TrimRight(c.AuthIssuer, "/") + "/.well-known/jwks.json"
	}
	return ""
}

// Validate checks that the configuration is safe to run. In external auth
// mode AUTH_ISSUER must be set so that real JWT authentication is enforced,
// and the postgres data source needs a DATABASE_URL.
func (c *Config) Validate() error {
	mode := c.ResolvedAuthMode()
	if mode != "development" && mode != "external" {
		return fmt.Errorf("AUTH_MODE must be \"development\" or \"external\", got %q", mode)
	}
	if mode == "external" && c.AuthIssuer == "" {
		return fmt.Errorf(
			"AUTH_ISSUER must be set when AUTH_MODE is \"external\" (current ENV=%q). "+
				"Refusing to start without authentication configuration", c.Env)
	}

	switch c.FHIRServerType {
	case "mock", "hapi":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when FHIR_SERVER_TYPE is \"postgres\"")
		}
	default:
		return fmt.Errorf("FHIR_SERVER_TYPE must be \"mock\", \"hapi\", or \"postgres\", got %q", c.FHIRServerType)
	}

	if c.FHIRServerType == "hapi" && c.FHIRBaseURL == "" {
		return fmt.Errorf("FHIR_BASE_URL is required when FHIR_SERVER_TYPE is \"hapi\"")
	}

	return nil
}
