// pkg/registry/registry_test.go
package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Find(t *testing.T) {
	reg := Default()

	for _, taskType := range []string{
		"classify-incident", "create-incident-record", "update-incident-status", "query-incidents",
	} {
		a, ok := reg.Find(taskType)
		require.True(t, ok, taskType)
		assert.Equal(t, taskType, a.TaskType)
		assert.NotEmpty(t, a.InputSchema)
	}

	_, ok := reg.Find("unknown")
	assert.False(t, ok)
	assert.Nil(t, reg.InputSchema("unknown"))
}

func TestDefault_ClassifyAcceptsAnyFieldTypes(t *testing.T) {
	a, ok := Default().Find("classify-incident")
	require.True(t, ok)

	assert.Equal(t, map[string]interface{}{"type": "object"}, a.InputSchema)
}

func TestNilRegistry(t *testing.T) {
	var reg *ActivityRegistry
	_, ok := reg.Find("classify-incident")
	assert.False(t, ok)
}

func TestLoadRegistry_RoundTripsDefault(t *testing.T) {
	data, err := json.Marshal(Default())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "activity-registry.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Len(t, reg.Activities, 4)

	a, ok := reg.Find("update-incident-status")
	require.True(t, ok)
	assert.Equal(t, []interface{}{"incidentId", "status"}, a.InputSchema["required"])
}

func TestLoadRegistry_Errors(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err = LoadRegistry(path)
	assert.ErrorContains(t, err, "parse registry")
}
