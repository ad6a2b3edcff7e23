package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, KVDriverRedis, cfg.KVDriver)
	assert.Equal(t, "users", cfg.KVUsersKey)
	assert.Equal(t, 3, cfg.LLMMaxRetries)
	assert.Equal(t, time.Minute, cfg.SynthRateWindow)
	assert.False(t, cfg.EventsEnabled)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("KV_DRIVER", "Postgres")
	t.Setenv("LLM_TEMPERATURE", "0.2")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("SYNTH_RATE_LIMIT", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://a.test , ,http://b.test")

	cfg := Load()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, KVDriverPostgres, cfg.KVDriver)
	assert.InDelta(t, 0.2, cfg.LLMTemperature, 1e-9)
	assert.Equal(t, 5*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 10, cfg.SynthRateLimit)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
}

func TestValidate(t *testing.T) {
	t.Setenv("KV_DRIVER", "etcd")
	assert.Error(t, Load().Validate())

	t.Setenv("KV_DRIVER", "memory")
	t.Setenv("LLM_MAX_RETRIES", "0")
	assert.Error(t, Load().Validate())
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "d", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", cfg.PostgresDSN())
}
