package config

import (
	"testing"
)

func validTestConfig() ServerEnvironment {
	return ServerEnvironment{
		Environment:       "test",
		Port:              8080,
		DBMaxConnections:  4,
		DBMinConnections:  0,
		SealPoolSize:      4,
		OutboxSize:        16,
		MaxRequestSize:    1024,
		SupportedVersions: []string{"3.0.0"},
		ParticipantRole:   "dso",
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *ServerEnvironment)
		wantErr bool
	}{
		{"valid", func(c *ServerEnvironment) {}, false},
		{"bad port", func(c *ServerEnvironment) { c.Port = 0 }, true},
		{"bad environment", func(c *ServerEnvironment) { c.Environment = "qa" }, true},
		{"min connections above max", func(c *ServerEnvironment) { c.DBMinConnections = 5 }, true},
		{"unknown role", func(c *ServerEnvironment) { c.ParticipantRole = "BRP" }, true},
		{"empty seal pool", func(c *ServerEnvironment) { c.SealPoolSize = 0 }, true},
		{"no versions", func(c *ServerEnvironment) { c.SupportedVersions = nil }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(&cfg)
			err := validateConfig(&cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateConfigNormalisesRole(t *testing.T) {
	cfg := validTestConfig()
	if err := validateConfig(&cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ParticipantRole != "DSO" {
		t.Errorf("ParticipantRole = %q, want DSO", cfg.ParticipantRole)
	}
}

func TestRequireParticipant(t *testing.T) {
	complete := ClientEnvironment{
		ParticipantDomain: "dso.example.com",
		ParticipantRole:   "DSO",
		SigningKeyPath:    "keys/dso.example.com.private.jwk",
		RegistryPath:      "participants.csv",
	}

	tests := []struct {
		name    string
		mutate  func(c *ClientEnvironment)
		wantErr bool
	}{
		{"complete", func(c *ClientEnvironment) {}, false},
		{"no domain", func(c *ClientEnvironment) { c.ParticipantDomain = "" }, true},
		{"no signing key", func(c *ClientEnvironment) { c.SigningKeyPath = "" }, true},
		{"no registry", func(c *ClientEnvironment) { c.RegistryPath = "" }, true},
		{"unknown role", func(c *ClientEnvironment) { c.ParticipantRole = "BRP" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := complete
			tt.mutate(&cfg)
			err := cfg.RequireParticipant()
			if (err != nil) != tt.wantErr {
				t.Errorf("RequireParticipant() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
