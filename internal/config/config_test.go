package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`
jwt:
  secret: test-secret
database:
  driver: memory
`))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, int64(10), cfg.Server.MaxUploadMB)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, "none", cfg.Cache.Type)
	assert.Equal(t, 30*24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}

func TestParse_ExpandsEnvironment(t *testing.T) {
	t.Setenv("SOCIAL_HOUSE_TEST_SECRET", "from-env")

	cfg, err := Parse([]byte(`
jwt:
  secret: ${SOCIAL_HOUSE_TEST_SECRET}
  ttl: 2h
database:
  driver: memory
`))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, 2*time.Hour, cfg.JWT.TTL)
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing secret", "database:\n  driver: memory\n"},
		{"postgres without host", "jwt:\n  secret: s\n"},
		{"unknown driver", "jwt:\n  secret: s\ndatabase:\n  driver: mysql\n"},
		{"s3 without bucket", "jwt:\n  secret: s\ndatabase:\n  driver: memory\nstorage:\n  type: s3\n"},
		{"unknown cache", "jwt:\n  secret: s\ndatabase:\n  driver: memory\ncache:\n  type: memcached\n"},
		{"redis without addr", "jwt:\n  secret: s\ndatabase:\n  driver: memory\ncache:\n  type: redis\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
database:
  driver: postgres
  host: db
  dbname: social
  max_conns: 8
jwt:
  secret: s
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "host=db port=5432 user= password= dbname=social sslmode=disable pool_max_conns=8", cfg.Database.DSN())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
