// internal/common/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
app:
  name: equireal-workers
  environment: test
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: equireal
    user: ${TEST_DB_USER}
  elasticsearch:
    addresses:
      - http://localhost:9200
  redis:
    address: localhost:6379
workers:
  score-risk:
    enabled: true
  send-notification:
    enabled: false
    timeout: 5000
lease:
  strategy: weighted
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_DefaultsAndExpansion(t *testing.T) {
	t.Setenv("TEST_DB_USER", "lease_admin")

	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "lease_admin", cfg.Database.Postgres.User)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "http://localhost:9200", cfg.Database.Elasticsearch.GetURL())

	assert.Equal(t, "weighted", cfg.Lease.Strategy)
	assert.Equal(t, 30, cfg.Lease.ValidityDays)
	assert.Equal(t, "lease-deals", cfg.Search.Index)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "@every 5m", cfg.Scheduler.DashboardRefresh)
	assert.Equal(t, "equireal-workers", cfg.Observability.ServiceName)
	assert.Equal(t, 5*time.Minute, GetDuration(cfg.Cache.DealTTL))

	scorer := GetWorkerConfig(cfg, "score-risk")
	assert.True(t, scorer.Enabled)
	assert.Equal(t, 5, scorer.MaxJobsActive)
	assert.Equal(t, 3, scorer.MaxRetries)

	assert.False(t, IsWorkerEnabled(cfg, "send-notification"))
	assert.Equal(t, 5000, GetWorkerConfig(cfg, "send-notification").Timeout)
	assert.True(t, IsWorkerEnabled(cfg, "unlisted-worker"))
}

func TestLoadFromFile_EmptySecretsFallBackToEnv(t *testing.T) {
	t.Setenv("TEST_DB_USER", "")
	t.Setenv("DB_USER", "fallback_user")
	t.Setenv("LANDLORD_EMAIL", "owner@example.com")

	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "fallback_user", cfg.Database.Postgres.User)
	assert.Equal(t, "owner@example.com", cfg.Notifications.Email.LandlordEmail)
}

func TestLoadFromFile_Validation(t *testing.T) {
	t.Setenv("TEST_DB_USER", "lease_admin")

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing broker",
			body:    "database:\n  postgres:\n    host: h\n",
			wantErr: "camunda.broker_address",
		},
		{
			name: "tracing without endpoint",
			body: minimalYAML + `
observability:
  tracing:
    enabled: true
`,
			wantErr: "jaeger_endpoint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JAEGER_ENDPOINT", "")
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromFile_ShippedConfig(t *testing.T) {
	t.Setenv("ZEEBE_ADDRESS", "zeebe:26500")
	t.Setenv("POSTGRES_HOST", "postgres")
	t.Setenv("POSTGRES_USER", "equireal")
	t.Setenv("ELASTICSEARCH_URL", "http://elasticsearch:9200")
	t.Setenv("REDIS_ADDRESS", "redis:6379")
	t.Setenv("AWS_REGION", "eu-west-1")

	cfg, err := LoadFromFile(filepath.Join("..", "..", "..", "configs", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "zeebe:26500", cfg.Camunda.BrokerAddress)
	assert.Equal(t, "eu-west-1", cfg.Notifications.AWS.Region)
	assert.Equal(t, "additive", cfg.Lease.Strategy)
	assert.Equal(t, "0 0 * * * *", cfg.Scheduler.ReindexRecent)
	assert.Len(t, cfg.Workers, 12)
	for name, w := range cfg.Workers {
		assert.True(t, w.Enabled, name)
		assert.NotZero(t, w.MaxRetries, name)
	}
}
