package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PGHOST", "db")
	t.Setenv("PGUSER", "u")
	t.Setenv("PGPASSWORD", "p")
	t.Setenv("PGDATABASE", "puzzles")
	t.Setenv("DATABASE_URL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@db:5432/puzzles?sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "cloudinary", cfg.StorageConfig.Driver)
	assert.Equal(t, "puzzle-photos", cfg.StorageConfig.Bucket)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, int32(10), cfg.DatabaseConfig.MaxConns)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "postgres://x@y/z")
	t.Setenv("STORAGE_DRIVER", "minio")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("APP_ENV", "development")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres://x@y/z", cfg.DatabaseURL)
	assert.Equal(t, "minio", cfg.StorageConfig.Driver)
	assert.True(t, cfg.MinioConfig.UseSSL)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 3, cfg.RedisConfig.DB)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	assert.EqualError(t, err, "JWT_SECRET is required")
}

func TestLoadConfig_UnknownStorageDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE_DRIVER", "ftp")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestGetEnvInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	assert.Equal(t, 7, getEnvInt("SOME_INT", 7))
}
