package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"STORESYNC_APP_ENV",
	"STORESYNC_APP_PORT",
	"STORESYNC_DATABASE_HOST",
	"STORESYNC_DATABASE_PASSWORD",
	"STORESYNC_DATABASE_SSLMODE",
	"STORESYNC_DATABASE_MAX_OPEN_CONNS",
	"STORESYNC_DATABASE_MAX_IDLE_CONNS",
	"STORESYNC_JWT_SECRET",
	"STORESYNC_REDIS_HOST",
	"STORESYNC_SYNC_AUDIT_CHUNK_THRESHOLD_BYTES",
	"STORESYNC_SYNC_APPLY_IDEMPOTENCY_TTL",
	"STORESYNC_SYNC_MAX_RECORDS",
	"STORESYNC_PLATFORM_WOOCOMMERCE_BATCH_SIZE",
	"STORESYNC_PLATFORM_REQUESTS_PER_SECOND",
	"STORESYNC_STORAGE_ENABLED",
	"STORESYNC_STORAGE_ACCESS_KEY",
	"STORESYNC_STORAGE_SECRET_KEY",
	"STORESYNC_TELEMETRY_SAMPLING_RATIO",
}

// clearConfigEnv unsets every variable the tests touch and restores them afterwards
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "storesync-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "storesync", cfg.Database.DBName)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.False(t, cfg.Redis.Enabled())

	assert.Equal(t, int64(80<<20), cfg.Sync.AuditChunkThresholdBytes)
	assert.Equal(t, 5, cfg.Sync.ErrorSampleSize)
	assert.Equal(t, 24*time.Hour, cfg.Sync.ApplyIdempotencyTTL)
	assert.Equal(t, 50000, cfg.Sync.MaxRecords)

	assert.Equal(t, 100, cfg.Platform.WooCommerceBatchSize)
	assert.Equal(t, 50, cfg.Platform.ShopifySKUChunkSize)
	assert.Equal(t, "2024-10", cfg.Platform.ShopifyAPIVersion)
	assert.Equal(t, 3, cfg.Platform.MaxRetries)
	assert.Equal(t, 5, cfg.Platform.BreakerFailureThreshold)

	assert.False(t, cfg.Storage.Enabled)
	assert.Equal(t, 200*time.Millisecond, cfg.Telemetry.DBSlowQueryThresh)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("STORESYNC_APP_PORT", "9000")
	t.Setenv("STORESYNC_DATABASE_HOST", "db.internal")
	t.Setenv("STORESYNC_REDIS_HOST", "cache.internal")
	t.Setenv("STORESYNC_SYNC_AUDIT_CHUNK_THRESHOLD_BYTES", "1048576")
	t.Setenv("STORESYNC_SYNC_APPLY_IDEMPOTENCY_TTL", "2h")
	t.Setenv("STORESYNC_SYNC_MAX_RECORDS", "10")
	t.Setenv("STORESYNC_PLATFORM_REQUESTS_PER_SECOND", "0.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "cache.internal:6379", cfg.Redis.Addr())
	assert.Equal(t, int64(1<<20), cfg.Sync.AuditChunkThresholdBytes)
	assert.Equal(t, 2*time.Hour, cfg.Sync.ApplyIdempotencyTTL)
	assert.Equal(t, 10, cfg.Sync.MaxRecords)
	assert.Equal(t, 0.5, cfg.Platform.RequestsPerSecond)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name: "idle conns exceed open conns",
			env: map[string]string{
				"STORESYNC_DATABASE_MAX_OPEN_CONNS": "10",
				"STORESYNC_DATABASE_MAX_IDLE_CONNS": "20",
			},
			wantErr: "cannot exceed",
		},
		{
			name:    "negative idle conns",
			env:     map[string]string{"STORESYNC_DATABASE_MAX_IDLE_CONNS": "-1"},
			wantErr: "max_idle_conns cannot be negative",
		},
		{
			name:    "tiny chunk threshold",
			env:     map[string]string{"STORESYNC_SYNC_AUDIT_CHUNK_THRESHOLD_BYTES": "100"},
			wantErr: "audit_chunk_threshold_bytes",
		},
		{
			name:    "woocommerce batch above the endpoint limit",
			env:     map[string]string{"STORESYNC_PLATFORM_WOOCOMMERCE_BATCH_SIZE": "250"},
			wantErr: "woocommerce_batch_size",
		},
		{
			name:    "storage without credentials",
			env:     map[string]string{"STORESYNC_STORAGE_ENABLED": "true"},
			wantErr: "storage.access_key",
		},
		{
			name:    "sampling ratio out of range",
			env:     map[string]string{"STORESYNC_TELEMETRY_SAMPLING_RATIO": "1.5"},
			wantErr: "sampling_ratio",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_ProductionValidation(t *testing.T) {
	production := map[string]string{
		"STORESYNC_APP_ENV":           "production",
		"STORESYNC_JWT_SECRET":        "this-is-a-very-secure-jwt-secret-key-32chars",
		"STORESYNC_DATABASE_PASSWORD": "secure-password",
		"STORESYNC_DATABASE_SSLMODE":  "require",
	}

	tests := []struct {
		name    string
		unset   string
		set     map[string]string
		wantErr string
	}{
		{name: "valid production config"},
		{name: "missing jwt secret", unset: "STORESYNC_JWT_SECRET", wantErr: "jwt.secret is required"},
		{
			name:    "short jwt secret",
			set:     map[string]string{"STORESYNC_JWT_SECRET": "short"},
			wantErr: "at least 32 characters",
		},
		{name: "missing database password", unset: "STORESYNC_DATABASE_PASSWORD", wantErr: "database.password is required"},
		{
			name:    "ssl disabled",
			set:     map[string]string{"STORESYNC_DATABASE_SSLMODE": "disable"},
			wantErr: "sslmode cannot be 'disable'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range production {
				if k != tt.unset {
					t.Setenv(k, v)
				}
			}
			for k, v := range tt.set {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "production", cfg.App.Env)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "user",
		Password: "pass@word#123",
		DBName:   "storesync",
		SSLMode:  "disable",
	}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "localhost:5432")
	assert.Contains(t, dsn, "/storesync")
	assert.Contains(t, dsn, "sslmode=disable")
	assert.Contains(t, dsn, "pass%40word%23123")
}
