package config

import (
	"os"
	"testing"
	"time"
)

func TestServerConfig_Timeouts_Defaults(t *testing.T) {
	// Set required env vars
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	// Verify default timeout values match hardcoded values from main.go
	tests := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"ReadTimeout", cfg.Server.ReadTimeout, 15 * time.Second},
		{"WriteTimeout", cfg.Server.WriteTimeout, 15 * time.Second},
		{"IdleTimeout", cfg.Server.IdleTimeout, 60 * time.Second},
	}

	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}
}

func TestServerConfig_Timeouts_CustomValues(t *testing.T) {
	// Set required env vars
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("SERVER_READ_TIMEOUT", "30s")
	os.Setenv("SERVER_WRITE_TIMEOUT", "45s")
	os.Setenv("SERVER_IDLE_TIMEOUT", "120s")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	// Verify custom timeout values
	tests := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"ReadTimeout", cfg.Server.ReadTimeout, 30 * time.Second},
		{"WriteTimeout", cfg.Server.WriteTimeout, 45 * time.Second},
		{"IdleTimeout", cfg.Server.IdleTimeout, 120 * time.Second},
	}

	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}
}

func TestServerConfig_Timeouts_InvalidDuration(t *testing.T) {
	// Set required env vars
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("SERVER_READ_TIMEOUT", "not-a-duration")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	// Invalid duration should fall back to default
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("ReadTimeout with invalid value: got %v, want %v", cfg.Server.ReadTimeout, 15*time.Second)
	}
}

func TestServerConfig_Timeouts_PartialCustom(t *testing.T) {
	// Set required env vars and only some timeouts
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("SERVER_READ_TIMEOUT", "25s")
	// WriteTimeout and IdleTimeout not set, should use defaults
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	// Verify mixed custom and default values
	tests := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"ReadTimeout (custom)", cfg.Server.ReadTimeout, 25 * time.Second},
		{"WriteTimeout (default)", cfg.Server.WriteTimeout, 15 * time.Second},
		{"IdleTimeout (default)", cfg.Server.IdleTimeout, 60 * time.Second},
	}

	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}
}

func TestServerConfig_Timeouts_ZeroValues(t *testing.T) {
	// Set required env vars
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("SERVER_READ_TIMEOUT", "0s")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	// Explicitly setting 0s should be honored (no timeout)
	if cfg.Server.ReadTimeout != 0 {
		t.Errorf("ReadTimeout with 0s: got %v, want 0", cfg.Server.ReadTimeout)
	}
}

func TestRecoveryConfig_Defaults(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Recovery.TokenTTL != 30*time.Minute {
		t.Errorf("TokenTTL: got %v, want %v", cfg.Recovery.TokenTTL, 30*time.Minute)
	}
	if cfg.Recovery.RecoverURI != "http://localhost:5173/recover-password" {
		t.Errorf("RecoverURI: got %q", cfg.Recovery.RecoverURI)
	}
	if cfg.Email.Provider != "log" {
		t.Errorf("Email.Provider: got %q, want log", cfg.Email.Provider)
	}
	if cfg.Cache.Driver != "memory" {
		t.Errorf("Cache.Driver: got %q, want memory", cfg.Cache.Driver)
	}
}

func TestRecoveryConfig_TTLFromSeconds(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("PASSWORD_RECOVER_TOKEN_TTL_SECONDS", "90")
	os.Setenv("PASSWORD_RECOVER_URI", "https://shop.example.com/recover")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Recovery.TokenTTL != 90*time.Second {
		t.Errorf("TokenTTL: got %v, want 90s", cfg.Recovery.TokenTTL)
	}
	if cfg.Recovery.RecoverURI != "https://shop.example.com/recover" {
		t.Errorf("RecoverURI: got %q", cfg.Recovery.RecoverURI)
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing jwt secret", map[string]string{"DB_PASSWORD": "test"}},
		{"missing db password", map[string]string{"JWT_SECRET": "test-secret-32-characters-long!"}},
		{"weak jwt secret", map[string]string{"JWT_SECRET": "short", "DB_PASSWORD": "test"}},
		{"non-positive ttl", map[string]string{
			"JWT_SECRET": "test-secret-32-characters-long!", "DB_PASSWORD": "test",
			"PASSWORD_RECOVER_TOKEN_TTL_SECONDS": "0",
		}},
		{"unknown email provider", map[string]string{
			"JWT_SECRET": "test-secret-32-characters-long!", "DB_PASSWORD": "test",
			"EMAIL_PROVIDER": "carrier-pigeon",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.env {
				os.Setenv(k, v)
			}
			defer os.Clearenv()

			if _, err := Load(); err == nil {
				t.Error("Load() = nil, want error")
			}
		})
	}
}

func TestLoadDatabase_NoJWTSecretNeeded(t *testing.T) {
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("DB_NAME", "catalog_test")
	defer os.Clearenv()

	cfg, err := LoadDatabase()
	if err != nil {
		t.Fatalf("LoadDatabase() = %v, want nil", err)
	}
	if cfg.Name != "catalog_test" {
		t.Errorf("Name: got %q, want catalog_test", cfg.Name)
	}
	if cfg.DSN() != "host=localhost port=5432 user=postgres password=test dbname=catalog_test sslmode=disable" {
		t.Errorf("unexpected DSN %q", cfg.DSN())
	}
}
