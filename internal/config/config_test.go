package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, 24*time.Hour, cfg.Security.JWTTTL)
	assert.Equal(t, 10, cfg.Security.BcryptCost)
	assert.Equal(t, "postgres://quiz:@localhost:5432/quiz?sslmode=disable", cfg.Postgres.DSN())
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load(context.Background())
	assert.Error(t, err)
}

func TestLoad_MirrorNeedsRedis(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_BACKEND", BackendMirror)
	t.Setenv("REDIS_ADDR", "")

	_, err := Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_ADDR")

	t.Setenv("REDIS_ADDR", "localhost:6379")
	cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "quizmirror", cfg.Mirror.KeyPrefix)
}

func TestValidate_UnknownBackend(t *testing.T) {
	cfg := &App{StoreBackend: "sqlite", Security: Security{BcryptCost: 10, JWTTTL: time.Hour}}
	assert.ErrorContains(t, cfg.Validate(), "unknown STORE_BACKEND")
}
