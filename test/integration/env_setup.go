//go:build integration

package integration

// Test environment setup and server lifecycle management.
//
// The integration tests start the uftp-server HTTP server with a temporary database and run tests against it.
// Each test creates an empty temporary database and applies all the migrations so the schema reflects the latest code.
// The database is dropped after each test.
//
// The server runs as the DSO dso.example.com. The other participant (AGR agr.example.com) is played by the test:
// its key pair is generated per test, its public key is configured as a manual key and its message endpoint is an
// httptest server that records what the DSO sends it.
//
// By default the server logs are not included in the test output, you can enable them with:
//
//	ENABLE_SERVER_LOGS=true go test -tags=integration -v ./test/integration
//

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/uftp-network/uftp-engine/internal/config"
	"github.com/uftp-network/uftp-engine/internal/crypto"
	"github.com/uftp-network/uftp-engine/internal/database"
	"github.com/uftp-network/uftp-engine/internal/logger"
	"github.com/uftp-network/uftp-engine/internal/server"
	"github.com/uftp-network/uftp-engine/internal/uftp"
	"github.com/uftp-network/uftp-engine/sql/schema"
)

var (
	dso = uftp.Participant{Domain: "dso.example.com", Role: uftp.RoleDSO}
	agr = uftp.Participant{Domain: "agr.example.com", Role: uftp.RoleAGR}
)

// peer plays the AGR: it signs the messages it posts to the server and records the messages the server sends back.
type peer struct {
	privateKey string
	server     *httptest.Server

	mu       sync.Mutex
	received [][]byte
	arrived  chan struct{}
}

func (p *peer) messages() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.received...)
}

// waitForMessage blocks until the peer received a message or the timeout expires.
func (p *peer) waitForMessage(t *testing.T, timeout time.Duration) {
	t.Helper()
	select {
	case <-p.arrived:
	case <-time.After(timeout):
		t.Fatal("peer did not receive a message in time")
	}
}

// testEnv provides access to test db and server for integration tests
type testEnv struct {
	baseURL      string
	cfg          *config.ServerEnvironment
	pool         *pgxpool.Pool
	queries      *database.Queries
	dsoPublicKey ed25519.PublicKey
	peer         *peer
	shutdown     func()
}

// startInProcessServer starts the uftp-server in-process for testing
func startInProcessServer(t *testing.T) *testEnv {
	t.Helper()

	testEnv := &testEnv{}

	t.Log("Starting in-process server...")

	var (
		ctx          = context.Background()
		host         = "localhost"
		port         = findFreePort(t)
		skipJWKCache = true
		rateLimitRPS = 0
		environment  = "test"
		logLevel     = logger.ParseLogLevel("none")
		keysDir      = t.TempDir()
	)

	enableServerLogs := false
	if os.Getenv("ENABLE_SERVER_LOGS") == "true" {
		enableServerLogs = true
		logLevel = logger.ParseLogLevel("debug")
	}

	testEnv.baseURL = fmt.Sprintf("http://localhost:%d", port)

	// keys: the DSO private key is the server's signing key, the AGR public key is a manual key
	dsoKey := generateKey(t, keysDir, "dso.example.com.private.jwk", true)
	testEnv.dsoPublicKey = dsoKey.Public().(ed25519.PublicKey)

	manualKeysDir := filepath.Join(keysDir, "manual")
	if err := os.Mkdir(manualKeysDir, 0755); err != nil {
		t.Fatalf("failed to create manual keys dir: %v", err)
	}
	agrKey := generateKey(t, manualKeysDir, "agr.example.com.public.jwk", false)
	agrKeyID, err := crypto.GenerateKeyIDFromEd25519Key(agrKey.Public().(ed25519.PublicKey))
	if err != nil {
		t.Fatalf("failed to generate kid: %v", err)
	}

	testEnv.peer = startPeer(t, crypto.EncodePrivateKeyBase64(agrKey))

	registryPath := filepath.Join(keysDir, "participants.csv")
	registry := "Domain,Role,Endpoint,JWKSEndpoint,ManualKeyID\n" +
		fmt.Sprintf("%s,%s,%s,,%s\n", agr.Domain, agr.Role, testEnv.peer.server.URL, agrKeyID)
	if err := os.WriteFile(registryPath, []byte(registry), 0600); err != nil {
		t.Fatalf("failed to write registry: %v", err)
	}

	// configure db
	testEnv.pool = setupTestDatabase(t)
	testDatabaseURL := testEnv.pool.Config().ConnString()

	// Set environment variables before calling NewServerConfig
	testEnvVars := map[string]string{
		"HOST":           host,
		"SKIP_JWK_CACHE": fmt.Sprintf("%v", skipJWKCache),
		"RATE_LIMIT_RPS": fmt.Sprintf("%d", rateLimitRPS),

		"DATABASE_URL": testDatabaseURL,
		"ENVIRONMENT":  environment,
		"LOG_LEVEL":    logLevel.String(),
		"PORT":         fmt.Sprintf("%d", port),

		"PARTICIPANT_DOMAIN": dso.Domain,
		"PARTICIPANT_ROLE":   string(dso.Role),
		"REGISTRY_PATH":      registryPath,
		"MANUAL_KEYS_DIR":    manualKeysDir,
		"SIGNING_KEY_PATH":   filepath.Join(keysDir, "dso.example.com.private.jwk"),
	}
	for key, value := range testEnvVars {
		t.Setenv(key, value)
	}

	cfg, err := config.NewServerConfig()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	testEnv.queries = database.New(testEnv.pool)

	logLevel = logger.ParseLogLevel("none")
	if enableServerLogs {
		logLevel = logger.ParseLogLevel("debug")
	}
	appLogger := logger.InitLogger(logLevel, "test")

	// Create a cancellable context for server shutdown
	serverCtx, serverCancel := context.WithCancel(ctx)

	serverInstance, err := server.NewServer(
		serverCtx,
		testEnv.pool,
		cfg,
		appLogger,
	)
	if err != nil {
		serverCancel()
		t.Fatalf("Failed to create server: %v", err)
	}

	// Start server
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := serverInstance.Start(serverCtx); err != nil {
			serverDone <- err
		}
	}()

	// Create shutdown function to be called by the test
	testEnv.shutdown = func() {
		t.Log("Stopping server...")

		// Cancel the server context to trigger graceful shutdown
		serverCancel()

		// Wait for server to shut down gracefully with timeout
		select {
		case err := <-serverDone:
			if err != nil {
				t.Logf("❌ Server shutdown with error: %v", err)
			} else {
				t.Log("✅ Server shut down gracefully")
			}
		case <-time.After(5 * time.Second):
			t.Log("⚠️ Server shutdown timeout")
		}

		// Ensure database connections are closed
		serverInstance.DatabaseShutdown()
	}

	t.Logf("Starting in-process server at %s", testEnv.baseURL)

	testEnv.cfg = cfg

	// Wait for server to be ready
	if !waitForServer(t, testEnv.baseURL+"/health/live", 30*time.Second) {
		t.Fatal("Server failed to start within timeout")
	}

	t.Log("✅ Server started")
	return testEnv
}

// generateKey creates an Ed25519 key pair and writes the private or public half as a JWK file in dir.
func generateKey(t *testing.T, dir, filename string, private bool) ed25519.PrivateKey {
	t.Helper()

	key, err := crypto.GenerateEd25519KeyPair()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	publicKey := key.Public().(ed25519.PublicKey)
	kid, err := crypto.GenerateKeyIDFromEd25519Key(publicKey)
	if err != nil {
		t.Fatalf("failed to generate kid: %v", err)
	}

	if private {
		err = crypto.SaveEd25519PrivateKeyToJWKFile(key, kid, dir, filename)
	} else {
		err = crypto.SaveEd25519PublicKeyToJWKFile(publicKey, kid, dir, filename)
	}
	if err != nil {
		t.Fatalf("failed to save key: %v", err)
	}
	return key
}

func startPeer(t *testing.T, privateKey string) *peer {
	t.Helper()

	p := &peer{
		privateKey: privateKey,
		arrived:    make(chan struct{}, 16),
	}
	p.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		p.mu.Lock()
		p.received = append(p.received, body)
		p.mu.Unlock()
		p.arrived <- struct{}{}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(p.server.Close)
	return p
}

func findFreePort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("Failed to find free port: %v", err)
	}
	defer listener.Close()

	addr := listener.Addr().(*net.TCPAddr)
	return addr.Port
}

func waitForServer(t *testing.T, url string, timeout time.Duration) bool {
	t.Helper()

	client := &http.Client{Timeout: 1 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return true
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}

// Test database configuration

type databaseConfig struct {
	userAndPassword string
	dbname          string
	host            string
	port            int
}

func (d *databaseConfig) connectionURL() string {
	return fmt.Sprintf("postgres://%s@%s:%d/%s?sslmode=disable",
		d.userAndPassword, d.host, d.port, d.dbname)
}

func (d *databaseConfig) WithDatabase(dbname string) *databaseConfig {
	return &databaseConfig{
		userAndPassword: d.userAndPassword,
		host:            d.host,
		port:            d.port,
		dbname:          dbname,
	}
}

func localDatabaseConfig() *databaseConfig {
	return &databaseConfig{
		userAndPassword: "uftp-dev",
		dbname:          "tmp_uftp_integration_test",
		host:            "localhost",
		port:            15433,
	}
}

func ciDatabaseConfig() *databaseConfig {
	return &databaseConfig{
		userAndPassword: "postgres:postgres",
		dbname:          "tmp_uftp_integration_test",
		host:            "localhost",
		port:            5432,
	}
}

// setupTestDatabase creates an empty test db, applies migrations and returns a connection pool
// the function auto-detects if it is running in CI (github actions) and uses the appropriate database config
func setupTestDatabase(t *testing.T) *pgxpool.Pool {

	ctx := context.Background()
	config := databaseConfig{}

	if os.Getenv("GITHUB_ACTIONS") == "true" {
		config = *ciDatabaseConfig()
	} else {
		config = *localDatabaseConfig()
	}

	postgresConfig := config.WithDatabase("postgres")

	// connect to the postgres database to create the test database
	postgresConnectionURL := postgresConfig.connectionURL()

	// Note: We manually manage this pool's lifecycle (not using setupDatabaseConn)
	// because we need it to stay open until after we drop the test database in cleanup
	postgresPoolConfig, err := pgxpool.ParseConfig(postgresConnectionURL)
	if err != nil {
		t.Fatalf("Failed to parse postgres database URL: %v", err)
	}

	postgresPool, err := pgxpool.NewWithConfig(ctx, postgresPoolConfig)
	if err != nil {
		t.Fatalf("Unable to create postgres connection pool: %v", err)
	}

	if err := postgresPool.Ping(ctx); err != nil {
		t.Fatalf("Can't ping PostgreSQL server %s", postgresConnectionURL)
	}

	_, err = postgresPool.Exec(ctx, "DROP DATABASE IF EXISTS "+config.dbname)
	if err != nil {
		t.Fatalf("DROP DATABASE IF EXISTS Failed : %v", err)
	}

	_, err = postgresPool.Exec(ctx, "CREATE DATABASE "+config.dbname)
	if err != nil {
		t.Fatalf("CREATE DATABASE Failed : %v", err)
	}

	// Close the postgres pool
	t.Cleanup(func() {
		postgresPool.Close()
	})

	// drop the test database when the test is complete
	t.Cleanup(func() {
		_, err := postgresPool.Exec(ctx, "DROP DATABASE "+config.dbname+" WITH (FORCE)")
		if err != nil {
			t.Errorf("Failed to drop test database: %v", err)
		}
	})

	// connect to the new database
	testDatabasePool := setupDatabaseConn(t, config.connectionURL())

	// Apply the embedded migrations
	if err := schema.Migrate(ctx, testDatabasePool); err != nil {
		t.Fatalf("Failed to apply database migrations: %v", err)
	}

	t.Logf("Database ready: %s", config.dbname)

	return testDatabasePool
}

func setupDatabaseConn(t *testing.T, databaseURL string) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		t.Fatalf("Failed to parse database URL: %v", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("Unable to create connection pool: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
	})

	return pool
}
