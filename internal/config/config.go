package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Store backends selectable through STORE_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendMirror   = "mirror"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"quiz-studio"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	LogLevel                string        `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	APIPrefix               string        `env:"API_PREFIX" envDefault:"/api"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`
	StoreBackend            string        `env:"STORE_BACKEND" envDefault:"postgres"`

	Postgres Postgres
	Redis    Redis
	Mirror   Mirror
	Cache       Cache
	Leaderboard Leaderboard
	Security Security
	CORS     CORS
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host        string `env:"PG_HOST" envDefault:"localhost"`
	Port        int    `env:"PG_PORT" envDefault:"5432"`
	User        string `env:"PG_USER" envDefault:"quiz"`
	Password    string `env:"PG_PASSWORD" envDefault:""`
	Database    string `env:"PG_DATABASE" envDefault:"quiz"`
	SSLMode     string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxConns    int32  `env:"PG_MAX_CONNS" envDefault:"10"`
	AutoMigrate bool   `env:"PG_AUTO_MIGRATE" envDefault:"false"`
}

// DSN renders the connection string understood by pgx and goose.
func (p Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// Redis holds the mirror substrate and cache configuration. An empty Addr
// disables the public-list cache in postgres mode.
type Redis struct {
	Addr     string `env:"REDIS_ADDR" envDefault:""`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Mirror configures the Redis-backed local store.
type Mirror struct {
	KeyPrefix string `env:"MIRROR_KEY_PREFIX" envDefault:"quizmirror"`
}

// Cache governs the public quiz list cache.
type Cache struct {
	PublicListTTL time.Duration `env:"PUBLIC_LIST_CACHE_TTL" envDefault:"30s"`
}

// Leaderboard sizes the per-quiz rankings kept next to the cache.
type Leaderboard struct {
	TopN int `env:"LEADERBOARD_TOP_N" envDefault:"50"`
}

// Security stores secrets and parameters for credentials and tokens.
type Security struct {
	JWTSecret  string        `env:"JWT_SECRET,notEmpty"`
	JWTTTL     time.Duration `env:"JWT_TTL" envDefault:"24h"`
	JWTIssuer  string        `env:"JWT_ISSUER" envDefault:"quiz-studio"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"10"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadSection parses a single config section such as Postgres or Redis, for
// tools that do not need the full server configuration.
func LoadSection(section any) error {
	if err := env.ParseWithOptions(section, env.Options{RequiredIfNoDef: true}); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// Validate checks cross-field requirements env tags cannot express.
func (a *App) Validate() error {
	switch a.StoreBackend {
	case BackendPostgres:
		if a.Postgres.Host == "" || a.Postgres.Database == "" {
			return fmt.Errorf("config: postgres backend needs PG_HOST and PG_DATABASE")
		}
	case BackendMirror:
		if a.Redis.Addr == "" {
			return fmt.Errorf("config: mirror backend needs REDIS_ADDR")
		}
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", a.StoreBackend)
	}
	if a.Security.BcryptCost < 4 || a.Security.BcryptCost > 31 {
		return fmt.Errorf("config: BCRYPT_COST must be within 4..31, got %d", a.Security.BcryptCost)
	}
	if a.Security.JWTTTL <= 0 {
		return fmt.Errorf("config: JWT_TTL must be positive")
	}
	return nil
}
