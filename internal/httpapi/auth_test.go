package httpapi

import (
	"strings"
	"testing"
	"time"
)

func newTestSessionManager(test *testing.T, ttl time.Duration) *SessionManager {
	test.Helper()
	manager, err := NewSessionManager(Config{
		SessionSigningKey: "secret-key",
		SessionIssuer:     "budgetway",
		TokenTTL:          ttl,
	})
	if err != nil {
		test.Fatalf("session manager init: %v", err)
	}
	return manager
}

func TestSessionTokenRoundTrip(test *testing.T) {
	test.Parallel()
	manager := newTestSessionManager(test, time.Hour)

	token, err := manager.Issue("household-1")
	if err != nil {
		test.Fatalf("issue: %v", err)
	}
	claims, err := manager.Validate(token)
	if err != nil {
		test.Fatalf("validate: %v", err)
	}
	if claims.BudgetID != "household-1" {
		test.Fatalf("expected budget household-1, got %q", claims.BudgetID)
	}
}

func TestSessionTokenRejectsWrongKey(test *testing.T) {
	test.Parallel()
	manager := newTestSessionManager(test, time.Hour)
	token, err := manager.Issue("household-1")
	if err != nil {
		test.Fatalf("issue: %v", err)
	}

	other, err := NewSessionManager(Config{
		SessionSigningKey: "different-key",
		SessionIssuer:     "budgetway",
		TokenTTL:          time.Hour,
	})
	if err != nil {
		test.Fatalf("session manager init: %v", err)
	}
	if _, err := other.Validate(token); err == nil {
		test.Fatalf("expected validation to fail under a different key")
	}
}

func TestSessionTokenRejectsWrongIssuer(test *testing.T) {
	test.Parallel()
	manager := newTestSessionManager(test, time.Hour)
	foreign, err := NewSessionManager(Config{
		SessionSigningKey: "secret-key",
		SessionIssuer:     "someone-else",
		TokenTTL:          time.Hour,
	})
	if err != nil {
		test.Fatalf("session manager init: %v", err)
	}
	token, err := foreign.Issue("household-1")
	if err != nil {
		test.Fatalf("issue: %v", err)
	}
	if _, err := manager.Validate(token); err == nil {
		test.Fatalf("expected validation to fail for a foreign issuer")
	}
}

func TestSessionTokenRejectsExpired(test *testing.T) {
	test.Parallel()
	manager := newTestSessionManager(test, -time.Minute)
	token, err := manager.Issue("household-1")
	if err != nil {
		test.Fatalf("issue: %v", err)
	}
	if _, err := manager.Validate(token); err == nil {
		test.Fatalf("expected validation to fail for an expired token")
	}
}

func TestSessionTokenRejectsGarbage(test *testing.T) {
	test.Parallel()
	manager := newTestSessionManager(test, time.Hour)
	if _, err := manager.Validate("not-a-token"); err == nil {
		test.Fatalf("expected validation to fail for a malformed token")
	}
}

func TestSessionManagerRequiresSigningKey(test *testing.T) {
	test.Parallel()
	if _, err := NewSessionManager(Config{SessionIssuer: "budgetway"}); err == nil {
		test.Fatalf("expected an error for a blank signing key")
	}
}

func TestConfigValidateAppliesDefaults(test *testing.T) {
	test.Parallel()
	cfg := Config{SessionSigningKey: "secret-key"}
	if err := cfg.Validate(); err != nil {
		test.Fatalf("validate: %v", err)
	}
	if cfg.ListenAddr == "" || cfg.SessionIssuer == "" || cfg.TokenTTL <= 0 || len(cfg.AllowedOrigins) == 0 {
		test.Fatalf("expected defaults to be filled, got %+v", cfg)
	}
}

func TestConfigValidateRequiresSigningKey(test *testing.T) {
	test.Parallel()
	cfg := Config{}
	if err := cfg.Validate(); err == nil {
		test.Fatalf("expected an error for a blank signing key")
	}
}

func TestParseAllowedOrigins(test *testing.T) {
	test.Parallel()
	origins := ParseAllowedOrigins(" http://a.example , ,http://b.example ")
	if len(origins) != 2 || origins[0] != "http://a.example" || origins[1] != "http://b.example" {
		test.Fatalf("unexpected origins: %v", origins)
	}
	if got := ParseAllowedOrigins("  "); len(got) != 0 {
		test.Fatalf("expected no origins, got %v", got)
	}
}

func TestSessionTokenRejectsBlankBudget(test *testing.T) {
	test.Parallel()
	manager := newTestSessionManager(test, time.Hour)
	token, err := manager.Issue(strings.Repeat(" ", 3))
	if err != nil {
		test.Fatalf("issue: %v", err)
	}
	if _, err := manager.Validate(token); err == nil {
		test.Fatalf("expected validation to fail for a blank budget id")
	}
}
