package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
)

// Environment variables with defaults
type ServerEnvironment struct {

	// http server settings
	Environment           string        `env:"ENVIRONMENT,default=dev"`
	Host                  string        `env:"HOST,default=0.0.0.0"`
	Port                  int           `env:"PORT,default=8080"`
	LogLevel              string        `env:"LOG_LEVEL,default=debug"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
	ReadTimeout           time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout          time.Duration `env:"WRITE_TIMEOUT,default=15s"`
	IdleTimeout           time.Duration `env:"IDLE_TIMEOUT,default=60s"`
	RateLimitRPS          int32         `env:"RATE_LIMIT_RPS,default=100"`
	RateLimitBurst        int32         `env:"RATE_LIMIT_BURST,default=200"`
	MaxRequestSize        int64         `env:"MAX_REQUEST_SIZE,default=1048576"`

	// database settings
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS,default=4"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS,default=0"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME,default=60m"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME,default=30m"`
	DBConnectTimeout    time.Duration `env:"DB_CONNECT_TIMEOUT,default=5s"`
	DatabasePingTimeout time.Duration `env:"DATABASE_PING_TIMEOUT,default=10s"`

	// JWK cache settings
	SkipJWKCache        bool          `env:"SKIP_JWK_CACHE,default=false"`
	JWKCacheMinRefresh  time.Duration `env:"JWK_CACHE_MIN_REFRESH,default=10m"`
	JWKCacheMaxRefresh  time.Duration `env:"JWK_CACHE_MAX_REFRESH,default=12h"`
	JWKCacheHTTPTimeout time.Duration `env:"JWK_CACHE_HTTP_TIMEOUT,default=30s"`

	// UFTP protocol settings
	SealPoolSize        int32         `env:"SEAL_POOL_SIZE,default=8"`
	SendConnectTimeout  time.Duration `env:"SEND_CONNECT_TIMEOUT,default=5s"`
	SendResponseTimeout time.Duration `env:"SEND_RESPONSE_TIMEOUT,default=30s"`
	OutboxSize          int           `env:"OUTBOX_SIZE,default=256"`
	ISPDuration         string        `env:"ISP_DURATION,default=PT15M"`
	SupportedVersions   []string      `env:"SUPPORTED_VERSIONS,default=3.0.0,separator=|"`

	// Required UFTP configuration - must be set by environment variables
	ParticipantDomain string `env:"PARTICIPANT_DOMAIN,required=true"`
	ParticipantRole   string `env:"PARTICIPANT_ROLE,required=true"`
	SigningKeyPath    string `env:"SIGNING_KEY_PATH,required=true"`
	RegistryPath      string `env:"REGISTRY_PATH,required=true"`
	ManualKeysDir     string `env:"MANUAL_KEYS_DIR"`
	DatabaseURL       string `env:"DATABASE_URL,required=true"`
}

var validEnvs = map[string]bool{
	"dev":     true,
	"test":    true,
	"prod":    true,
	"staging": true,
}

var validRoles = map[string]bool{
	"AGR": true,
	"DSO": true,
	"CRO": true,
}

// NewServerConfig loads environment variables and returns a ServerEnvironment struct that contains the values
func NewServerConfig() (*ServerEnvironment, error) {
	var cfg ServerEnvironment

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validateConfig checks for required env variables
func validateConfig(cfg *ServerEnvironment) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if !validEnvs[cfg.Environment] {
		return fmt.Errorf("invalid ENVIRONMENT: %s", cfg.Environment)
	}

	// Validate database pool configuration
	if cfg.DBMaxConnections < 1 {
		return fmt.Errorf("DB_MAX_CONNECTIONS must be at least 1")
	}
	if cfg.DBMinConnections < 0 {
		return fmt.Errorf("DB_MIN_CONNECTIONS must be 0 or greater")
	}
	if cfg.DBMinConnections > cfg.DBMaxConnections {
		return fmt.Errorf("DB_MIN_CONNECTIONS (%d) cannot be greater than DB_MAX_CONNECTIONS (%d)",
			cfg.DBMinConnections, cfg.DBMaxConnections)
	}

	cfg.ParticipantRole = strings.ToUpper(cfg.ParticipantRole)
	if !validRoles[cfg.ParticipantRole] {
		return fmt.Errorf("PARTICIPANT_ROLE must be one of AGR, DSO or CRO, got %q", cfg.ParticipantRole)
	}
	if cfg.SealPoolSize < 1 {
		return fmt.Errorf("SEAL_POOL_SIZE must be at least 1")
	}
	if cfg.OutboxSize < 1 {
		return fmt.Errorf("OUTBOX_SIZE must be at least 1")
	}
	if cfg.MaxRequestSize < 1 {
		return fmt.Errorf("MAX_REQUEST_SIZE must be at least 1")
	}
	if len(cfg.SupportedVersions) == 0 {
		return fmt.Errorf("SUPPORTED_VERSIONS must list at least one version")
	}

	return nil
}

// ClientEnvironment configures the uftp CLI. The participant settings are only needed by commands that send.
type ClientEnvironment struct {
	Environment string `env:"ENVIRONMENT,default=dev"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`

	ParticipantDomain string `env:"PARTICIPANT_DOMAIN"`
	ParticipantRole   string `env:"PARTICIPANT_ROLE"`
	SigningKeyPath    string `env:"SIGNING_KEY_PATH"`
	RegistryPath      string `env:"REGISTRY_PATH"`
	ManualKeysDir     string `env:"MANUAL_KEYS_DIR"`

	SendConnectTimeout  time.Duration `env:"SEND_CONNECT_TIMEOUT,default=5s"`
	SendResponseTimeout time.Duration `env:"SEND_RESPONSE_TIMEOUT,default=30s"`
	ISPDuration         string        `env:"ISP_DURATION,default=PT15M"`
	SupportedVersions   []string      `env:"SUPPORTED_VERSIONS,default=3.0.0,separator=|"`
}

// NewClientConfig loads the CLI settings from the environment
func NewClientConfig() (*ClientEnvironment, error) {
	var cfg ClientEnvironment

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}
	if !validEnvs[cfg.Environment] {
		return nil, fmt.Errorf("invalid ENVIRONMENT: %s", cfg.Environment)
	}
	cfg.ParticipantRole = strings.ToUpper(cfg.ParticipantRole)
	return &cfg, nil
}

// RequireParticipant checks the settings needed to send as this participant are present.
func (c *ClientEnvironment) RequireParticipant() error {
	missing := []string{}
	if c.ParticipantDomain == "" {
		missing = append(missing, "PARTICIPANT_DOMAIN")
	}
	if c.SigningKeyPath == "" {
		missing = append(missing, "SIGNING_KEY_PATH")
	}
	if c.RegistryPath == "" {
		missing = append(missing, "REGISTRY_PATH")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if !validRoles[c.ParticipantRole] {
		return fmt.Errorf("PARTICIPANT_ROLE must be one of AGR, DSO or CRO, got %q", c.ParticipantRole)
	}
	return nil
}
