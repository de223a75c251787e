package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
server:
  host: 0.0.0.0
  http_port: 8080
  grpc_port: 9090
database:
  host: localhost
  user: rental
  database: toolrental
jwt:
  secret: 0123456789abcdef0123456789abcdef
storage:
  upload_dir: /tmp/uploads
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(baseYAML))
	require.NoError(t, err)

	assert.Equal(t, StoreTypePostgres, cfg.Store.Type)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "UTC", cfg.Clock.Timezone)
	assert.Equal(t, 60, cfg.JWT.AccessTokenExpiry)
	assert.NotEmpty(t, cfg.Scheduler.ReportOverdueLoans)
	assert.NotEmpty(t, cfg.Scheduler.CloseEmptyLoans)
	assert.Equal(t, "postgres://rental:@localhost:5432/toolrental?sslmode=disable", cfg.GetDatabaseConnectionString())
	assert.Equal(t, "0.0.0.0:8080", cfg.GetHTTPAddress())
	assert.Equal(t, "0.0.0.0:9090", cfg.GetGRPCAddress())
}

func TestParse_EnvOverride(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("HTTP_PORT", "8181")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TIMEZONE", "America/Santiago")

	cfg, err := Parse([]byte(baseYAML))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 8181, cfg.Server.HTTPPort)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "America/Santiago", cfg.Location().String())
}

func TestParse_MemoryStoreSkipsDatabase(t *testing.T) {
	yaml := `
server:
  http_port: 8080
store:
  type: memory
jwt:
  secret: 0123456789abcdef0123456789abcdef
storage:
  upload_dir: /tmp/uploads
`
	cfg, err := Parse([]byte(yaml))
	require.NoError(t, err)
	assert.Equal(t, StoreTypeMemory, cfg.Store.Type)
	assert.Equal(t, "", cfg.GetGRPCAddress())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"Bad port", func(c *Config) { c.Server.HTTPPort = 70000 }, "invalid http port"},
		{"Short secret", func(c *Config) { c.JWT.Secret = "short" }, "at least 32 characters"},
		{"No upload dir", func(c *Config) { c.Storage.UploadDir = "" }, "upload directory is required"},
		{"Unknown store", func(c *Config) { c.Store.Type = "mongo" }, "unknown store type"},
		{"Missing db host", func(c *Config) { c.Database.Host = "" }, "database host is required"},
		{"Bad timezone", func(c *Config) { c.Clock.Timezone = "Mars/Olympus" }, "invalid timezone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Server:   ServerConfig{HTTPPort: 8080},
				Database: DatabaseConfig{Host: "localhost", User: "u", Database: "d"},
				JWT:      JWTConfig{Secret: "0123456789abcdef0123456789abcdef"},
				Storage:  StorageConfig{UploadDir: "/tmp"},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGetSecurityLevel(t *testing.T) {
	assert.Equal(t, SecurityPublic, GetSecurityLevel("auth.login"))
	assert.Equal(t, SecurityStaff, GetSecurityLevel("items.deliver"))
	assert.Equal(t, SecurityAdmin, GetSecurityLevel("inventory.add"))
	assert.Equal(t, SecurityAdmin, GetSecurityLevel("unknown.route"))
}
