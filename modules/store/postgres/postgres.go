// Package postgres implements the store.postgres module: a memory.Store
// backed by PostgreSQL via pgxpool, for deployments where the memory
// bank outlives a single host.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"

	"github.com/tbellamy/membank/internal/core"
	"github.com/tbellamy/membank/internal/memory"
)

func init() {
	core.RegisterModule(&Module{})
}

// Compile-time interface guards.
var (
	_ core.Module       = (*Module)(nil)
	_ core.Configurable = (*Module)(nil)
	_ core.Provisioner  = (*Module)(nil)
	_ core.Validator    = (*Module)(nil)
	_ core.Stopper      = (*Module)(nil)
	_ memory.Store      = (*store)(nil)
)

// defaultConnectTimeout bounds pool creation and schema setup.
const defaultConnectTimeout = 10 * time.Second

// Config holds the Postgres store module configuration.
type Config struct {
	// URL is the connection string. Falls back to url_env when empty.
	URL string `yaml:"url"`

	// URLEnv names an environment variable holding the connection
	// string. Defaults to DATABASE_URL.
	URLEnv string `yaml:"url_env"`

	// ConnectTimeout bounds initial connection and schema setup.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

func (c *Config) defaults() {
	if c.URLEnv == "" {
		c.URLEnv = "DATABASE_URL"
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
}

// Module is the store.postgres module.
type Module struct {
	config Config
	pool   *pgxpool.Pool
	logger *slog.Logger
	store  *store
}

// store implements memory.Store backed by a pgx pool.
type store struct {
	pool *pgxpool.Pool
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "store.postgres",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("postgres: decode config: %w", err)
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner. It connects, applies the
// schema, and registers the store as the "memory.store" service.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.logger = ctx.Logger

	url := m.config.URL
	if url == "" {
		url = os.Getenv(m.config.URLEnv)
	}
	if url == "" {
		return fmt.Errorf("postgres: no connection string: set url or %s", m.config.URLEnv)
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), m.config.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.New(connectCtx, url)
	if err != nil {
		return fmt.Errorf("postgres: connect: %w", err)
	}

	if err := initSchema(connectCtx, pool); err != nil {
		pool.Close()
		return err
	}

	m.pool = pool
	m.store = &store{pool: pool}

	ctx.RegisterService("memory.store", m.store)

	m.logger.Info("postgres store provisioned")
	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	if m.pool == nil {
		return errors.New("postgres: pool not initialized (Provision not called)")
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), m.config.ConnectTimeout)
	defer cancel()

	if err := m.pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("postgres: ping failed: %w", err)
	}
	return nil
}

// Stop implements core.Stopper.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("postgres store stopping")
	if m.pool != nil {
		m.pool.Close()
	}
	return nil
}

// Store returns the memory.Store implementation.
func (m *Module) Store() memory.Store {
	return m.store
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS turns (
			seq        BIGSERIAL PRIMARY KEY,
			user_id    TEXT NOT NULL,
			session_id TEXT NOT NULL,
			role       TEXT NOT NULL,
			text       TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_turns_session ON turns (user_id, session_id, seq)`,
		`CREATE TABLE IF NOT EXISTS facts (
			seq          BIGSERIAL,
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL,
			fact         TEXT NOT NULL,
			context      TEXT NOT NULL DEFAULT '',
			importance   INTEGER NOT NULL DEFAULT 0,
			session_id   TEXT NOT NULL DEFAULT '',
			extracted_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_facts_user ON facts (user_id, seq)`,
		`CREATE TABLE IF NOT EXISTS extraction_marks (
			user_id      TEXT NOT NULL,
			session_id   TEXT NOT NULL,
			extracted_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (user_id, session_id)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}
