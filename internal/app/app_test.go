package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quiz-studio/internal/config"
)

func TestNew_MirrorBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.App{
		Name:                    "quiz-studio",
		Env:                     "test",
		LogLevel:                "error",
		HTTPAddr:                "127.0.0.1:0",
		APIPrefix:               "/api",
		GracefulShutdownTimeout: time.Second,
		StoreBackend:            config.BackendMirror,
		Redis:                   config.Redis{Addr: mr.Addr(), PoolSize: 2},
		Mirror:                  config.Mirror{KeyPrefix: "apptest"},
		Security:                config.Security{JWTSecret: "secret", JWTTTL: time.Hour, BcryptCost: 4},
	}
	require.NoError(t, cfg.Validate())

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(a.close)

	body, _ := json.Marshal(map[string]string{"username": "erin", "email": "erin@example.com", "password": "pw123"})
	rec := httptest.NewRecorder()
	a.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/users/register", bytes.NewReader(body)))
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, mr.Exists("apptest:users"))

	rec = httptest.NewRecorder()
	a.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, a.pool)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	a := &Application{
		cfg:    &config.App{HTTPAddr: "127.0.0.1:0", GracefulShutdownTimeout: time.Second},
		logger: zerolog.Nop(),
		http:   &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, a.Run(ctx))
}
