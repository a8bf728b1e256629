// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"incident-triage/internal/classifier"
)

const baseYAML = `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: incidents
    user: triage
  redis:
    address: localhost:6379
workers:
  classify-incident:
    enabled: true
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, "incident-triage", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, 10*time.Minute, cfg.Store.CacheTTL)
	assert.Equal(t, 5*time.Second, cfg.Store.QueryTimeout)
	assert.Equal(t, "incidents", cfg.Search.Index)
	assert.Equal(t, classifier.PriorityP0, cfg.Notifications.PriorityThreshold)
	assert.Equal(t, "info", cfg.Logging.Level)

	worker := cfg.Workers["classify-incident"]
	assert.True(t, worker.Enabled)
	assert.Equal(t, 5, worker.MaxJobsActive)
	assert.Equal(t, 30000, worker.Timeout)
	assert.Equal(t, 3, worker.MaxRetries)

	assert.Empty(t, cfg.Classifier.Options())
}

func TestLoadFromFile_ServiceBoostsAndDurations(t *testing.T) {
	body := baseYAML + `
store:
  cache_ttl: 90s
classifier:
  service_boosts:
    - contains: auth
      category: Authentication
    - contains: mail
      category: Email
`
	cfg, err := LoadFromFile(writeConfig(t, body))
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.Store.CacheTTL)
	require.Len(t, cfg.Classifier.ServiceBoosts, 2)
	assert.Equal(t, classifier.ServiceBoost{Contains: "auth", Category: "Authentication"}, cfg.Classifier.ServiceBoosts[0])

	c := classifier.New(cfg.Classifier.Options()...)
	assert.Equal(t, "Email", c.Classify(classifier.IncidentInput{ServiceAffected: "Mail relay"}).Category)
}

func TestLoadFromFile_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_POSTGRES_HOST", "db.internal")
	t.Setenv("TRIAGE_LOG_LEVEL", "debug")

	path := writeConfig(t, baseYAML+`
logging:
  level: ${TRIAGE_LOG_LEVEL}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Postgres.Host)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		errMsg string
	}{
		{
			name:   "missing broker",
			body:   "database:\n  postgres:\n    host: x\n",
			errMsg: "camunda.broker_address is required",
		},
		{
			name:   "bad threshold",
			body:   baseYAML + "notifications:\n  priority_threshold: P9\n",
			errMsg: "priority_threshold",
		},
		{
			name:   "sns without topic",
			body:   baseYAML + "notifications:\n  sns:\n    enabled: true\n",
			errMsg: "topic_arn",
		},
		{
			name:   "search without elasticsearch",
			body:   baseYAML + "search:\n  enabled: true\n",
			errMsg: "elasticsearch",
		},
		{
			name:   "incomplete boost",
			body:   baseYAML + "classifier:\n  service_boosts:\n    - contains: pay\n",
			errMsg: "service_boosts[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("INCIDENT_SNS_TOPIC_ARN", "")
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestGetWorkerConfig_Fallback(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{"query-incidents": {Enabled: false}}}

	assert.False(t, IsWorkerEnabled(cfg, "query-incidents"))
	assert.True(t, IsWorkerEnabled(cfg, "classify-incident"))
	assert.Equal(t, 30000, GetWorkerConfig(cfg, "classify-incident").Timeout)
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
