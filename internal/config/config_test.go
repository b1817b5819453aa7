package config

import (
	"strings"
	"testing"
	"time"
)

func validHosted() Config {
	return Config{
		Backend:       BackendHosted,
		HostedAPIURL:  "https://proj.example.co",
		HostedAPIKey:  "anon-key",
		OperatorEmail: "op@example.com",
	}
}

func TestValidate_Hosted(t *testing.T) {
	cfg := validHosted()
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg = validHosted()
	cfg.HostedAPIKey = ""
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "HOSTED_API_KEY") {
		t.Errorf("expected a missing-key error, got %v", err)
	}
}

func TestValidate_Postgres(t *testing.T) {
	cfg := Config{
		Backend:              BackendPostgres,
		DatabaseURL:          "postgres://localhost/contactadmin",
		OperatorPasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		OperatorEmail:        "op@example.com",
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.DatabaseURL = ""
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("expected a missing-database error, got %v", err)
	}
}

func TestValidate_RequiresOperatorEmail(t *testing.T) {
	cfg := validHosted()
	cfg.OperatorEmail = ""
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "OPERATOR_EMAIL") {
		t.Errorf("expected a missing-operator error, got %v", err)
	}
}

func TestValidate_UnknownBackend(t *testing.T) {
	cfg := validHosted()
	cfg.Backend = "dynamo"
	if err := cfg.Validate(); err == nil {
		t.Error("expected an unknown-backend error")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BACKEND", BackendHosted)
	t.Setenv("HOSTED_API_URL", "https://proj.example.co")
	t.Setenv("HOSTED_API_KEY", "anon-key")
	t.Setenv("OPERATOR_EMAIL", "op@example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if cfg.RefreshMargin != time.Minute {
		t.Errorf("RefreshMargin = %v", cfg.RefreshMargin)
	}
	if cfg.LoginRateLimit != 5 {
		t.Errorf("LoginRateLimit = %d", cfg.LoginRateLimit)
	}
}
