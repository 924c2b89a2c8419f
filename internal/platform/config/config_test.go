package config

import (
	"testing"
	"time"
)

func baseConfig() Config {
	return Config{
		DatabaseURL:         "postgres://localhost/gestimmo",
		Environment:         "development",
		MaxBodyBytes:        1048576,
		MaintenanceInterval: 6 * time.Hour,
	}
}

func TestValidateRequiresDatabaseURL(t *testing.T) {
	cfg := baseConfig()
	cfg.DatabaseURL = "  "
	if err := cfg.Validate(); err == nil {
		t.Fatal("blank DATABASE_URL must fail validation")
	}
}

func TestValidateProductionSecrets(t *testing.T) {
	cfg := baseConfig()
	cfg.Environment = "production"
	if err := cfg.Validate(); err == nil {
		t.Fatal("production without JWT_SECRET must fail")
	}

	cfg.JWTSecret = "strong"
	cfg.RunSeed = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("production seed without admin password must fail")
	}

	cfg.RunSeed = false
	if err := cfg.Validate(); err != nil {
		t.Fatalf("seed disabled should pass: %v", err)
	}

	cfg.RunSeed = true
	cfg.SeedAdminPassword = "changed"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("seed with password should pass: %v", err)
	}
}

func TestValidateBodyLimit(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxBodyBytes = 512
	if err := cfg.Validate(); err == nil {
		t.Fatal("body limit below 1024 must fail")
	}
}

func TestValidateEmailNeedsHost(t *testing.T) {
	cfg := baseConfig()
	cfg.EmailEnabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("email enabled without SMTP_HOST must fail")
	}
	cfg.SMTPHost = "smtp.example.com"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("email with host should pass: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_ADDR", "SMTP_PORT", "MAINTENANCE_INTERVAL", "RUN_MIGRATIONS"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected default addr: %s", cfg.Addr)
	}
	if cfg.SMTPPort != 587 {
		t.Fatalf("unexpected default smtp port: %d", cfg.SMTPPort)
	}
	if cfg.MaintenanceInterval != 6*time.Hour {
		t.Fatalf("unexpected default interval: %s", cfg.MaintenanceInterval)
	}
	if !cfg.RunMigrations {
		t.Fatal("migrations should run by default")
	}
}
