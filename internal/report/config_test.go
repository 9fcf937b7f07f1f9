package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phillip-england/jobcard/internal/config"
)

func loadConfig(t *testing.T, body string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobcard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := loadConfig(t, `
report:
  vendor: ACME Yard
materials:
  sheet: BOM
  key_column: Drawing
  allowed_types: [PIPE]
`)
	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "ACME Yard", opts.Layout.Vendor)
	assert.Equal(t, []string{"PIPE"}, opts.MaterialFilter.AllowedTypes)
	assert.Equal(t, DefaultJobCardFields(), opts.JobCardFields)

	spools := SpoolSource(cfg)
	assert.Equal(t, "Spool", spools.Sheet)
	assert.Equal(t, 8, spools.HeaderRow)
	assert.Equal(t, SpoolKeyAliases, spools.KeyAliases)

	materials := MaterialSource(cfg)
	assert.Equal(t, "BOM", materials.Sheet)
	assert.Equal(t, "Drawing", materials.KeyColumn)
	assert.Equal(t, MaterialKeyAliases, materials.KeyAliases)
}

func TestOptionsFromConfigMissingLogo(t *testing.T) {
	cfg := loadConfig(t, "{}\n")
	cfg.Report.RightLogo = filepath.Join(t.TempDir(), "missing.png")
	_, err := OptionsFromConfig(cfg)
	assert.ErrorContains(t, err, "right logo")
}
