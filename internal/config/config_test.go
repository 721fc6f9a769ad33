package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenant-api/internal/tenant"
)

func writeJob(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "job.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad(t *testing.T) {
	p := writeJob(t, `
source: data/blocs.geojson
output: out/tenants.geojson
block_field: nom_bloc
distance_m: 80
where:
  secteur: "N"
pass_through: [proprio, annee]
`)
	job, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "data/blocs.geojson", job.Source)
	assert.Equal(t, 80.0, job.DistanceM)
	assert.Equal(t, map[string]string{"secteur": "N"}, job.Where)
	assert.Equal(t, []string{"proprio", "annee"}, job.PassThrough)

	cfg := job.TenantConfig()
	assert.Equal(t, 80.0, cfg.DistanceM)
	require.NotNil(t, cfg.Filter)
	assert.True(t, cfg.Filter(tenant.Feature{Attrs: map[string]any{"secteur": "N"}}))
}

func TestLoad_DefaultsAndEnvOverrides(t *testing.T) {
	p := writeJob(t, "block_field: nom_bloc\n")
	job, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, DefaultDistanceM, job.DistanceM)

	t.Setenv("TENANT_DISTANCE_M", "120")
	t.Setenv("TENANT_BLOCK_FIELD", "bloc")
	t.Setenv("TENANT_PASS_THROUGH", " a, ,b ")
	job, err = Load(p)
	require.NoError(t, err)
	assert.Equal(t, 120.0, job.DistanceM)
	assert.Equal(t, "bloc", job.BlockField)
	assert.Equal(t, []string{"a", "b"}, job.PassThrough)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		job  Job
		ok   bool
	}{
		{"ok", Job{BlockField: "b", DistanceM: 60}, true},
		{"min", Job{BlockField: "b", DistanceM: 1}, true},
		{"max", Job{BlockField: "b", DistanceM: 1000}, true},
		{"too small", Job{BlockField: "b", DistanceM: 0.5}, false},
		{"too large", Job{BlockField: "b", DistanceM: 1001}, false},
		{"missing field", Job{DistanceM: 60}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.job.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidJob)
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeJob(t, "distance_m: [oops"))
	assert.Error(t, err)

	_, err = Load(writeJob(t, "distance_m: 50\n"))
	assert.ErrorIs(t, err, ErrInvalidJob)
}

func TestRead_SkipsValidation(t *testing.T) {
	job, err := Read(writeJob(t, "distance_m: 5000\n"))
	require.NoError(t, err)
	assert.Equal(t, 5000.0, job.DistanceM)
	assert.ErrorIs(t, job.Validate(), ErrInvalidJob)

	job, err = Read("")
	require.NoError(t, err)
	assert.Equal(t, DefaultDistanceM, job.DistanceM)
}
