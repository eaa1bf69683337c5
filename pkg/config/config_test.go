package config

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, "servicehub", cfg.Database.Database)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Cache.ServiceTTL)
	assert.Equal(t, "@every 1m", cfg.Marketplace.ExpirySweepSchedule)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("MARKETPLACE_TIMEZONE", "America/Mexico_City")
	t.Setenv("MARKETPLACE_LOCALE", "es")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("SERVER_WRITE_TIMEOUT", "45s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoragePostgres, cfg.Storage.Driver)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "es", cfg.Marketplace.DefaultLocale)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 45*time.Second, cfg.Server.WriteTimeout)

	loc, err := cfg.Marketplace.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Mexico_City", loc.String())
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown storage driver": {"STORAGE_DRIVER": "sqlite"},
		"bad timezone":           {"MARKETPLACE_TIMEZONE": "Mars/Olympus"},
		"bad locale":             {"MARKETPLACE_LOCALE": "fr"},
		"bad schedule":           {"EXPIRY_SWEEP_SCHEDULE": "every minute"},
		"bad port":               {"SERVER_PORT": "not-a-number"},
		"zero rate limit":        {"RATE_LIMIT_PER_MINUTE": "0"},
	}

	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "localhost", Port: 5432, User: "app", Password: "secret", Database: "servicehub", SSLMode: "disable"}

	assert.Equal(t, "host=localhost port=5432 user=app password=secret dbname=servicehub sslmode=disable", cfg.DatabaseDSN())
}
