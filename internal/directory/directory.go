// Package directory resolves UFTP participants to their message endpoint and Ed25519 public key.
//
// Participants are listed in a CSV registry with the columns
//
//	Domain,Role,Endpoint,JWKSEndpoint,ManualKeyID
//
// Each participant has either a JWKS endpoint or the kid of a manually configured key, not both.
//
// # manual keys
// Manual keys are loaded once at startup from a directory of single-key JWK files
// (.jwk, .jwks, .jwks.json). A key is only kept when its kid is listed in the registry.
//
// # remote keys
// JWKS endpoints are registered with an auto-refreshing jwk.Cache and fetched in the background.
// The first Ed25519 signing key in the set is used.
//
// TODO: the registry is loaded at startup and not refreshed. A change in participants needs a restart.
package directory

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"

	"github.com/uftp-network/uftp-engine/internal/crypto"
	"github.com/uftp-network/uftp-engine/internal/uftp"
)

var registryHeader = []string{"Domain", "Role", "Endpoint", "JWKSEndpoint", "ManualKeyID"}

// participant is a registry row.
type participant struct {
	uftp.Participant

	// Endpoint is the URL messages for this participant are posted to
	Endpoint string

	// JWKSEndpoint is the URL of the participant's JWK set, e.g. "https://dso.example.com/.well-known/jwks.json"
	JWKSEndpoint string

	// ManualKeyID is the kid of a key in the manual keys directory
	ManualKeyID string
}

// Config holds the directory configuration.
type Config struct {
	// RegistryPath is the path of the participants CSV file.
	RegistryPath string

	// ManualKeysDir is the directory with manually configured public keys. Empty disables manual keys.
	ManualKeysDir string

	// SkipJWKCache disables remote key fetching (useful for testing).
	SkipJWKCache bool

	// WaitForRemoteKeys blocks New until every JWKS endpoint was fetched once.
	WaitForRemoteKeys bool

	JWKCacheMinRefreshInterval time.Duration
	JWKCacheMaxRefreshInterval time.Duration
}

// Directory implements uftp.ParticipantDirectory.
type Directory struct {
	// participants is keyed by role and domain, see participantKey
	participants map[string]*participant

	// manualKeys is keyed by kid
	manualKeys map[string]jwk.Key

	jwkCache *jwk.Cache
	logger   *slog.Logger
	config   Config

	// mu protects the maps (currently only written during New)
	mu sync.RWMutex
}

func participantKey(role uftp.Role, domain string) string {
	return string(role) + "@" + strings.ToLower(domain)
}

// New loads the registry and the manual keys and starts the remote key cache.
func New(ctx context.Context, config Config, logger *slog.Logger) (*Directory, error) {
	if logger == nil {
		return nil, uftp.NewInternalError("logger cannot be nil")
	}
	if config.RegistryPath == "" {
		return nil, NewRegistryError("registry path is required")
	}

	d := &Directory{
		participants: make(map[string]*participant),
		manualKeys:   make(map[string]jwk.Key),
		logger:       logger,
		config:       config,
	}

	logger.Info("initializing participant directory",
		slog.String("registry_path", config.RegistryPath),
		slog.Bool("skip_jwk_cache", config.SkipJWKCache))

	if err := d.loadRegistry(); err != nil {
		return nil, err
	}
	logger.Info("participant registry loaded", slog.Int("participants", len(d.participants)))

	if config.ManualKeysDir != "" {
		if err := d.loadManualKeys(); err != nil {
			return nil, err
		}
		logger.Info("manual keys loaded", slog.Int("keys", len(d.manualKeys)))
	}

	if !config.SkipJWKCache {
		if err := d.initJWKCache(ctx); err != nil {
			return nil, err
		}
	} else {
		logger.Info("JWK cache initialization skipped")
	}

	return d, nil
}

func (d *Directory) loadRegistry() error {
	data, err := os.ReadFile(d.config.RegistryPath)
	if err != nil {
		return WrapRegistryError(err, "failed to read participant registry")
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = len(registryHeader)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return WrapRegistryError(err, "failed to parse participant registry")
	}

	for _, record := range records {
		if record[0] == registryHeader[0] {
			continue
		}

		p, err := parseRecord(record)
		if err != nil {
			return err
		}

		key := participantKey(p.Role, p.Domain)
		if d.participants[key] != nil {
			return NewRegistryError(fmt.Sprintf("duplicate participant in registry: %s", p.Participant))
		}
		d.participants[key] = p
	}

	return nil
}

func parseRecord(record []string) (*participant, error) {
	domain, roleName, endpoint, jwksEndpoint, manualKeyID := record[0], record[1], record[2], record[3], record[4]

	if domain == "" {
		return nil, NewRegistryError(fmt.Sprintf("invalid registry record - domain not set: %v", record))
	}

	role, err := uftp.ParseRole(roleName)
	if err != nil {
		return nil, WrapRegistryError(err, fmt.Sprintf("invalid registry record - bad role: %v", record))
	}

	if err := checkURL(endpoint); err != nil {
		return nil, WrapRegistryError(err, fmt.Sprintf("invalid registry record - bad endpoint: %v", record))
	}

	if jwksEndpoint == "" && manualKeyID == "" {
		return nil, NewRegistryError(fmt.Sprintf("invalid registry record - no jwks_endpoint or manual_key_id: %v", record))
	}
	if jwksEndpoint != "" && manualKeyID != "" {
		return nil, NewRegistryError(fmt.Sprintf("invalid registry record - both jwks_endpoint and manual_key_id set: %v", record))
	}
	if jwksEndpoint != "" {
		if err := checkURL(jwksEndpoint); err != nil {
			return nil, WrapRegistryError(err, fmt.Sprintf("invalid registry record - bad jwks_endpoint: %v", record))
		}
	}

	return &participant{
		Participant:  uftp.Participant{Domain: domain, Role: role},
		Endpoint:     endpoint,
		JWKSEndpoint: jwksEndpoint,
		ManualKeyID:  manualKeyID,
	}, nil
}

func checkURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%q is not an absolute http(s) url", s)
	}
	return nil
}

// loadManualKeys loads single-key JWK files. Files that cannot be used are logged and skipped.
func (d *Directory) loadManualKeys() error {
	dir := d.config.ManualKeysDir
	d.logger.Info("loading manual keys", slog.String("dir", dir))

	info, err := os.Stat(dir)
	if err != nil {
		return WrapKeyError(err, "failed to stat manual keys directory")
	}
	if !info.IsDir() {
		return NewKeyError(fmt.Sprintf("manual keys path is not a directory: %s", dir))
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return WrapKeyError(err, "failed to open manual keys directory")
	}
	defer root.Close()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return WrapKeyError(err, "failed to read manual keys directory")
	}

	wanted := make(map[string]bool)
	for _, p := range d.participants {
		if p.ManualKeyID != "" {
			wanted[p.ManualKeyID] = true
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, entry := range entries {
		filename := entry.Name()
		if entry.IsDir() || !isJWKFile(filename) {
			continue
		}

		data, err := root.ReadFile(filename)
		if err != nil {
			d.logger.Error("skipping: failed to read manual key file",
				slog.String("file", filename),
				slog.String("error", err.Error()))
			continue
		}

		keySet, err := jwk.Parse(data)
		if err != nil {
			d.logger.Error("skipping: failed to parse manual key file",
				slog.String("file", filename),
				slog.String("error", err.Error()))
			continue
		}
		if keySet.Len() != 1 {
			d.logger.Error("skipping: manual key file must contain exactly one key",
				slog.String("file", filename),
				slog.Int("key_count", keySet.Len()))
			continue
		}

		key, _ := keySet.Key(0)
		keyID, ok := key.KeyID()
		if !ok || keyID == "" {
			d.logger.Error("skipping: manual key missing kid", slog.String("file", filename))
			continue
		}

		if _, err := crypto.Ed25519JWKToPublicKey(key); err != nil {
			d.logger.Warn("skipping: manual key is not an Ed25519 key",
				slog.String("file", filename),
				slog.String("error", err.Error()))
			continue
		}

		if !wanted[keyID] {
			d.logger.Warn("skipping: kid not found in the participant registry",
				slog.String("file", filename),
				slog.String("kid", keyID))
			continue
		}

		d.manualKeys[keyID] = key
		d.logger.Debug("loaded manual key",
			slog.String("file", filename),
			slog.String("kid", keyID))
	}

	return nil
}

func isJWKFile(name string) bool {
	return strings.HasSuffix(name, ".jwk") ||
		strings.HasSuffix(name, ".jwks") ||
		strings.HasSuffix(name, ".jwks.json")
}

// initJWKCache registers every participant's JWKS endpoint with an auto-refreshing cache.
func (d *Directory) initJWKCache(ctx context.Context) error {
	cache, err := jwk.NewCache(ctx, httprc.NewClient())
	if err != nil {
		return WrapKeyError(err, "failed to create JWK cache")
	}
	d.jwkCache = cache

	registered := 0
	for _, p := range d.participants {
		if p.JWKSEndpoint == "" {
			continue
		}

		err := cache.Register(ctx, p.JWKSEndpoint,
			jwk.WithMinInterval(d.config.JWKCacheMinRefreshInterval),
			jwk.WithMaxInterval(d.config.JWKCacheMaxRefreshInterval),
			jwk.WithWaitReady(d.config.WaitForRemoteKeys),
		)
		if err != nil {
			d.logger.Warn("failed to register JWK endpoint",
				slog.String("participant", p.Participant.String()),
				slog.String("jwk_url", p.JWKSEndpoint),
				slog.String("error", err.Error()))
			continue
		}
		registered++
	}

	d.logger.Info("JWK cache initialized", slog.Int("endpoints_registered", registered))
	return nil
}

func (d *Directory) lookup(role uftp.Role, domain string) (*participant, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.participants[participantKey(role, domain)]
	if !ok {
		return nil, uftp.NewUnknownParticipantError(fmt.Sprintf("participant %s(%s) is not registered", domain, role))
	}
	return p, nil
}

// GetEndpointURL returns the URL messages for p are posted to.
func (d *Directory) GetEndpointURL(_ context.Context, p uftp.Participant) (string, error) {
	entry, err := d.lookup(p.Role, p.Domain)
	if err != nil {
		return "", err
	}
	return entry.Endpoint, nil
}

// GetPublicKey returns the base64 Ed25519 public key of the participant.
func (d *Directory) GetPublicKey(ctx context.Context, role uftp.Role, domain string) (string, error) {
	entry, err := d.lookup(role, domain)
	if err != nil {
		return "", err
	}

	key, err := d.signingKey(ctx, entry)
	if err != nil {
		return "", err
	}
	return crypto.PublicKeyBase64FromJWK(key)
}

func (d *Directory) signingKey(ctx context.Context, p *participant) (jwk.Key, error) {
	if p.ManualKeyID != "" {
		d.mu.RLock()
		key, ok := d.manualKeys[p.ManualKeyID]
		d.mu.RUnlock()
		if !ok {
			return nil, NewKeyError(fmt.Sprintf("manual key %s for %s not loaded", p.ManualKeyID, p.Participant))
		}
		return key, nil
	}

	if d.jwkCache == nil {
		return nil, NewKeyError(fmt.Sprintf("remote keys disabled, cannot resolve key for %s", p.Participant))
	}

	keySet, err := d.jwkCache.Lookup(ctx, p.JWKSEndpoint)
	if err != nil {
		return nil, WrapKeyError(err, fmt.Sprintf("failed to look up JWK set for %s", p.Participant))
	}

	for i := range keySet.Len() {
		key, ok := keySet.Key(i)
		if !ok {
			continue
		}
		if usage, ok := key.KeyUsage(); ok && usage != string(jwk.ForSignature) {
			continue
		}
		if _, err := crypto.Ed25519JWKToPublicKey(key); err == nil {
			return key, nil
		}
	}
	return nil, NewKeyError(fmt.Sprintf("no Ed25519 signing key in JWK set of %s", p.Participant))
}

// Participants returns the registered participants.
func (d *Directory) Participants() []uftp.Participant {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]uftp.Participant, 0, len(d.participants))
	for _, p := range d.participants {
		out = append(out, p.Participant)
	}
	return out
}

// ResolveRole returns the role of the participant registered for domain.
// A domain registered under more than one role is ambiguous and returns an error.
func (d *Directory) ResolveRole(_ context.Context, domain string) (uftp.Role, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var roles []uftp.Role
	for _, p := range d.participants {
		if strings.EqualFold(p.Domain, domain) {
			roles = append(roles, p.Role)
		}
	}

	switch len(roles) {
	case 0:
		return "", uftp.NewUnknownParticipantError(fmt.Sprintf("no participant registered for domain %s", domain))
	case 1:
		return roles[0], nil
	default:
		return "", NewRegistryError(fmt.Sprintf("domain %s is registered for several roles %v", domain, roles))
	}
}
