package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("DATABASE_URL")
	os.Unsetenv("FHIR_SERVER_TYPE")
	os.Unsetenv("PORT")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.FHIRServerType != "mock" {
		t.Errorf("expected default FHIR_SERVER_TYPE mock, got %s", cfg.FHIRServerType)
	}
	if cfg.FHIRBaseURL != "https://hapi.fhir.org/baseR4" {
		t.Errorf("unexpected default FHIR_BASE_URL %s", cfg.FHIRBaseURL)
	}
	if cfg.FHIRTimeout() != 10*time.Second {
		t.Errorf("expected default timeout 10s, got %s", cfg.FHIRTimeout())
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:3000" {
		t.Errorf("unexpected default CORS origins %v", cfg.CORSOrigins)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	os.Setenv("FHIR_SERVER_TYPE", "hapi")
	os.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	defer os.Unsetenv("FHIR_SERVER_TYPE")
	defer os.Unsetenv("CORS_ORIGINS")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.FHIRServerType != "hapi" {
		t.Errorf("expected hapi, got %s", cfg.FHIRServerType)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("unexpected CORS origins %v", cfg.CORSOrigins)
	}
}

func TestConfig_IsDev(t *testing.T) {
	c := &Config{Env: "development"}
	if !c.IsDev() {
		t.Error("expected IsDev() to return true for development")
	}

	c.Env = "production"
	if c.IsDev() {
		t.Error("expected IsDev() to return false for production")
	}
}

func TestConfig_ResolvedAuthMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"explicit mode wins", Config{Env: "development", AuthMode: "external"}, "external"},
		{"development inferred", Config{Env: "development"}, "development"},
		{"production defaults to external", Config{Env: "production"}, "external"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.ResolvedAuthMode(); got != tt.want {
				t.Errorf("ResolvedAuthMode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfig_ResolvedJWKSURL(t *testing.T) {
	c := &Config{AuthIssuer: "https://tenant.auth0.com/"}
	want := "https://tenant.auth0.com/.well-known/jwks.json"
	if got := c.ResolvedJWKSURL(); got != want {
		t.Errorf("ResolvedJWKSURL() = %q, want %q", got, want)
	}

	c.AuthJWKSURL = "https://keys.example/jwks"
	if got := c.ResolvedJWKSURL(); got != "https://keys.example/jwks" {
		t.Errorf("explicit JWKS URL not honored, got %q", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"dev with mock", Config{Env: "development", FHIRServerType: "mock"}, false},
		{"production without issuer", Config{Env: "production", FHIRServerType: "mock"}, true},
		{"production with issuer", Config{Env: "production", AuthIssuer: "https://iss.example", FHIRServerType: "hapi", FHIRBaseURL: "https://hapi.fhir.org/baseR4"}, false},
		{"postgres without database url", Config{Env: "development", FHIRServerType: "postgres"}, true},
		{"postgres with database url", Config{Env: "development", FHIRServerType: "postgres", DatabaseURL: "postgres://localhost/onye"}, false},
		{"unknown server type", Config{Env: "development", FHIRServerType: "dynamo"}, true},
		{"unknown auth mode", Config{Env: "development", AuthMode: "basic", FHIRServerType: "mock"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
