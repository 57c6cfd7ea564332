package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Addr          string
	ShutdownGrace time.Duration
}

// DatabaseConfig selects the storage backend. An empty DSN means the in-memory store.
type DatabaseConfig struct {
	DSN           string
	MigrationsDir string
}

// SweepConfig drives the idle queue sweeper. An empty schedule disables it.
type SweepConfig struct {
	Schedule    string
	BatchSize   int
	Concurrency int
	Timeout     time.Duration
}

// GameConfig tunes the queue engine.
type GameConfig struct {
	CatalogPath string
	MaxCatchUp  int
	RNGSeed     uint64
	SeedPlayer  string
	// FinishedLimit caps the finished queues returned by a status poll.
	FinishedLimit int
}

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Sweep    SweepConfig
	Game     GameConfig
	LogLevel string
}

const (
	defaultAddr          = ":8080"
	defaultMigrationsDir = "./migrations"
	defaultLogLevel      = "info"
	defaultSweepSchedule = "@every 1m"
	defaultSweepBatch    = 200
	defaultSweepWorkers  = 8
	defaultSweepTimeout  = 30 * time.Second
	defaultSeedPlayer    = "demo-player"
	defaultFinishedLimit = 20
	defaultShutdownGrace = 5 * time.Second
)

type lookupFunc func(key string) (string, bool)

func getEnvString(lookup lookupFunc, key, defaultVal string) string {
	if val, ok := lookup(key); ok {
		return strings.TrimSpace(val)
	}
	return defaultVal
}

func getEnvInt(lookup lookupFunc, key string, defaultVal int) int {
	if val, ok := lookup(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvUint(lookup lookupFunc, key string, defaultVal uint64) uint64 {
	if val, ok := lookup(key); ok {
		if u, err := strconv.ParseUint(strings.TrimSpace(val), 10, 64); err == nil {
			return u
		}
	}
	return defaultVal
}

func getEnvDuration(lookup lookupFunc, key string, defaultVal time.Duration) time.Duration {
	if val, ok := lookup(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(val)); err == nil {
			return d
		}
	}
	return defaultVal
}

// Parse builds the configuration from the process environment and command line.
// Priority: CLI flags > environment variables > .env file > defaults.
func Parse() (*Config, error) {
	_ = godotenv.Load(".env") // optional
	return Load(os.Args[1:], os.LookupEnv)
}

// Load is Parse without the .env side effect, for callers that supply their own sources.
func Load(args []string, lookup lookupFunc) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Addr:          getEnvString(lookup, "FIEFDOM_HTTP_ADDR", defaultAddr),
			ShutdownGrace: getEnvDuration(lookup, "FIEFDOM_SHUTDOWN_GRACE", defaultShutdownGrace),
		},
		Database: DatabaseConfig{
			DSN:           getEnvString(lookup, "FIEFDOM_DB_DSN", ""),
			MigrationsDir: getEnvString(lookup, "FIEFDOM_MIGRATIONS_DIR", defaultMigrationsDir),
		},
		Sweep: SweepConfig{
			Schedule:    getEnvString(lookup, "FIEFDOM_SWEEP_SCHEDULE", defaultSweepSchedule),
			BatchSize:   getEnvInt(lookup, "FIEFDOM_SWEEP_BATCH", defaultSweepBatch),
			Concurrency: getEnvInt(lookup, "FIEFDOM_SWEEP_CONCURRENCY", defaultSweepWorkers),
			Timeout:     getEnvDuration(lookup, "FIEFDOM_SWEEP_TIMEOUT", defaultSweepTimeout),
		},
		Game: GameConfig{
			CatalogPath:   getEnvString(lookup, "FIEFDOM_CATALOG_PATH", ""),
			MaxCatchUp:    getEnvInt(lookup, "FIEFDOM_MAX_CATCHUP", 0),
			RNGSeed:       getEnvUint(lookup, "FIEFDOM_RNG_SEED", 0),
			SeedPlayer:    getEnvString(lookup, "FIEFDOM_SEED_PLAYER", defaultSeedPlayer),
			FinishedLimit: getEnvInt(lookup, "FIEFDOM_FINISHED_LIMIT", defaultFinishedLimit),
		},
		LogLevel: getEnvString(lookup, "FIEFDOM_LOG_LEVEL", defaultLogLevel),
	}

	fs := flag.NewFlagSet("fiefdom", flag.ContinueOnError)
	var (
		addr, dsn, migrations, logLevel, catalog, schedule, seedPlayer string
		maxCatchUp, sweepBatch, sweepWorkers                           int
	)
	fs.StringVar(&addr, "addr", "", "HTTP listen address (overrides env)")
	fs.StringVar(&dsn, "dsn", "", "Postgres DSN; empty keeps the in-memory store")
	fs.StringVar(&migrations, "migrations", "", "Directory of SQL migrations")
	fs.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&catalog, "catalog", "", "Activity catalog YAML; empty uses the embedded catalog")
	fs.StringVar(&schedule, "sweep-schedule", "", "Cron schedule of the idle queue sweep")
	fs.StringVar(&seedPlayer, "seed-player", "", "Player id created at boot when missing")
	fs.IntVar(&maxCatchUp, "max-catchup", 0, "Repetitions resolved per poll; 0 resolves all due")
	fs.IntVar(&sweepBatch, "sweep-batch", 0, "Due queues scanned per sweep")
	fs.IntVar(&sweepWorkers, "sweep-concurrency", 0, "Players advanced in parallel per sweep")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if addr != "" {
		cfg.Server.Addr = addr
	}
	if dsn != "" {
		cfg.Database.DSN = dsn
	}
	if migrations != "" {
		cfg.Database.MigrationsDir = migrations
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if catalog != "" {
		cfg.Game.CatalogPath = catalog
	}
	if seedPlayer != "" {
		cfg.Game.SeedPlayer = seedPlayer
	}
	if sweepBatch > 0 {
		cfg.Sweep.BatchSize = sweepBatch
	}
	if sweepWorkers > 0 {
		cfg.Sweep.Concurrency = sweepWorkers
	}
	// Flags whose zero or empty value is meaningful are applied only when set.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "sweep-schedule":
			cfg.Sweep.Schedule = schedule
		case "max-catchup":
			cfg.Game.MaxCatchUp = maxCatchUp
		}
	})

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("http addr is required")
	}
	if c.Game.MaxCatchUp < 0 {
		return fmt.Errorf("max catch-up must be >= 0, got %d", c.Game.MaxCatchUp)
	}
	if c.Sweep.BatchSize < 1 {
		c.Sweep.BatchSize = defaultSweepBatch
	}
	if c.Sweep.Concurrency < 1 {
		c.Sweep.Concurrency = defaultSweepWorkers
	}
	if c.Game.FinishedLimit < 1 {
		c.Game.FinishedLimit = defaultFinishedLimit
	}
	return nil
}

// UsesPostgres reports whether a database DSN was configured.
func (c *Config) UsesPostgres() bool {
	return c.Database.DSN != ""
}
