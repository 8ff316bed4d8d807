package internal

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.Tracker.BaseURL = "https://tracker.example.com"
	cfg.Tracker.Username = "svc-user"
	cfg.Tracker.Password = "secret"
	cfg.Mail.Host = "relay.example.com"
	cfg.Mail.From = "bridge@example.com"
	cfg.Mail.To = []string{"shop@example.com"}
	return cfg
}

func TestConfig_ValidPasses(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config should pass: %v", err)
	}
}

func TestTrackerConfig_RequiresCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Tracker.Password = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing tracker password should fail validation")
	}
}

func TestMailConfig_RequiresRecipients(t *testing.T) {
	cfg := validConfig()
	cfg.Mail.To = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing recipients should fail validation")
	}
}

func TestStagingConfig_RequiresSharedDir(t *testing.T) {
	cfg := validConfig()
	cfg.Staging.SharedDir = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing shared dir should fail validation")
	}
}

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}
