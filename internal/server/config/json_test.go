package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"endpoint_addr_grpc":       "www.example:9000",
		"database_dsn":             "memory",
		"secret_key":               "my_secret_key",
		"photo_collection_timeout": "2m",
		"photo_timeout_resets":     true,
		"review_view_idle_expiry":  "10m",
		"notify_burst":             3,
		"archive_photos":           true,
		"s3_bucket":                "bucket",
	})

	t.Run("loads from json", func(t *testing.T) {
		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg, []string{"-config", path})

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
		assert.Equal(t, "memory", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 2*time.Minute, cfg.PhotoCollectionTimeout)
		assert.True(t, cfg.PhotoTimeoutResets)
		assert.Equal(t, 10*time.Minute, cfg.ReviewViewIdleExpiry)
		assert.Equal(t, 3, cfg.NotifyBurst)
		assert.True(t, cfg.ArchivePhotos)
		assert.Equal(t, "bucket", cfg.S3Bucket)
	})

	t.Run("absent keys keep current values", func(t *testing.T) {
		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg, []string{"-c", path})

		assert.Equal(t, "applications", cfg.AdminChannel)
		assert.Equal(t, "welcome", cfg.WelcomeChannel)
		assert.Equal(t, ":8080", cfg.EndpointAddrHTTP)
	})

	t.Run("no config flag means no changes", func(t *testing.T) {
		cfg := &Config{AdminChannel: "keep"}
		parseJson(cfg, []string{"-a", ":1"})
		assert.Equal(t, "keep", cfg.AdminChannel)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		require.Panics(t, func() { parseJson(&Config{}, []string{"-c", bad}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		require.Panics(t, func() { parseJson(&Config{}, []string{"-c", "/does/not/exist.json"}) })
	})
}
