package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerloom/tally/internal/classify"
	"github.com/ledgerloom/tally/internal/config"
	"github.com/ledgerloom/tally/internal/ingest"
	"github.com/ledgerloom/tally/internal/migrate"
)

// setupProject lays out a project directory the way a user would: a config/
// dir with settings plus a data/ dir with one CSV source.
func setupProject(t *testing.T) (base, configDir string) {
	t.Helper()
	base = t.TempDir()
	configDir = filepath.Join(base, "config")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "data"), 0o755))

	settings := `year: 2025
data_sources:
  - name: Test
    file: data/test.csv
    format: "{date:%Y-%m-%d},{description},{amount}"
`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "settings.yaml"), []byte(settings), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(base, "data", "test.csv"),
		[]byte("date,description,amount\n2025-01-15,NETFLIX STREAMING,15.99\n"), 0o600))
	return base, configDir
}

func TestPipeline_EndToEnd(t *testing.T) {
	_, configDir := setupProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "merchants.rules"),
		[]byte("NETFLIX => Netflix | Subscriptions | Streaming\n"), 0o600))

	settings, err := config.LoadSettings(configDir)
	require.NoError(t, err)
	assert.Equal(t, 2025, settings.Year)

	store, err := loadRuleStore(settings)
	require.NoError(t, err)

	txns, err := ingest.LoadAll(settings)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), txns[0].Date)

	classified := classify.ClassifyAll(txns, store)
	require.Len(t, classified, 1)
	assert.Equal(t, "Netflix", classified[0].Merchant)
	assert.Equal(t, "Subscriptions", classified[0].Category)
	assert.Equal(t, "Streaming", classified[0].Subcategory)
}

func TestRun_InvalidOnlyWithNoViewsIsFatal(t *testing.T) {
	_, configDir := setupProject(t)

	cmd := runCmd()
	cmd.SetArgs([]string{"--only", "invalid", "--format", "summary", configDir})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no valid views")
}

func TestRun_InvalidFormat(t *testing.T) {
	_, configDir := setupProject(t)

	cmd := runCmd()
	cmd.SetArgs([]string{"--format", "invalid", configDir})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid choice")
}

func TestRun_MigrateFlagConvertsLegacyRules(t *testing.T) {
	_, configDir := setupProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(configDir, migrate.LegacyFileName),
		[]byte("Pattern,Merchant,Category,Subcategory\nNETFLIX,Netflix,Subscriptions,Streaming\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "views.rules"),
		[]byte("monthly => all | month\n"), 0o600))

	cmd := runCmd()
	cmd.SetArgs([]string{"--migrate", "--format", "json", configDir})
	require.NoError(t, cmd.Execute())

	assert.FileExists(t, filepath.Join(configDir, migrate.RulesFileName))
	assert.FileExists(t, filepath.Join(configDir, migrate.LegacyFileName+migrate.BackupSuffix))
}

func TestRun_MissingConfigSuggestsInit(t *testing.T) {
	cmd := runCmd()
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "nope")})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tally init")
}

func TestInit_CreatesConfigFiles(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "tally")

	cmd := initCmd()
	cmd.SetArgs([]string{configDir})
	require.NoError(t, cmd.Execute())

	assert.FileExists(t, filepath.Join(configDir, "settings.yaml"))
	assert.FileExists(t, filepath.Join(configDir, migrate.RulesFileName))
	assert.FileExists(t, filepath.Join(configDir, migrate.ViewsFileName))

	settings, err := os.ReadFile(filepath.Join(configDir, "settings.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(settings), "views_file:")
}

func TestInit_MigratesLegacyRules(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "settings.yaml"),
		[]byte("year: 2025\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, migrate.LegacyFileName),
		[]byte("Pattern,Merchant,Category,Subcategory\nNETFLIX,Netflix,Subscriptions,Streaming\nAMAZON,Amazon,Shopping,Online\n"), 0o600))

	cmd := initCmd()
	cmd.SetArgs([]string{configDir})
	require.NoError(t, cmd.Execute())

	content, err := os.ReadFile(filepath.Join(configDir, migrate.RulesFileName))
	require.NoError(t, err)
	assert.Contains(t, string(content), "Netflix")
	assert.Contains(t, string(content), "Amazon")
	assert.FileExists(t, filepath.Join(configDir, migrate.LegacyFileName+migrate.BackupSuffix))
	assert.NoFileExists(t, filepath.Join(configDir, migrate.LegacyFileName))
}

func TestExplain_UnknownMerchantSuggestsSimilar(t *testing.T) {
	_, configDir := setupProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "merchants.rules"),
		[]byte("NETFLIX => Netflix | Subscriptions | Streaming\n"), 0o600))

	cmd := explainCmd()
	cmd.SetArgs([]string{"Netflx", configDir})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Did you mean")
	assert.Contains(t, err.Error(), "Netflix")
}

func TestExplain_SuggestsFromLegacyRulesBeforeMigration(t *testing.T) {
	_, configDir := setupProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(configDir, migrate.LegacyFileName),
		[]byte("Pattern,Merchant,Category,Subcategory\nNETFLIX,Netflix,Subscriptions,Streaming\n"), 0o600))

	cmd := explainCmd()
	cmd.SetArgs([]string{"Netflx", configDir})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Did you mean")
	assert.Contains(t, err.Error(), "Netflix")
}

func TestExplain_UnknownCategoryIsFatalWhenSoleTarget(t *testing.T) {
	_, configDir := setupProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "merchants.rules"),
		[]byte("NETFLIX => Netflix | Subscriptions | Streaming\n"), 0o600))

	cmd := explainCmd()
	cmd.SetArgs([]string{"--category", "NonExistent", configDir})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No merchants found in category 'NonExistent'")
}

func TestExplain_UnknownCategoryWithValidMerchantSucceeds(t *testing.T) {
	_, configDir := setupProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "merchants.rules"),
		[]byte("NETFLIX => Netflix | Subscriptions | Streaming\n"), 0o600))

	cmd := explainCmd()
	cmd.SetArgs([]string{"Netflix", configDir, "--category", "NonExistent"})
	require.NoError(t, cmd.Execute())
}

func TestInit_MalformedLegacyFileFails(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, migrate.LegacyFileName),
		[]byte("Pattern,Merchant,Category,Subcategory\nNETFLIX,\"Netflix\n"), 0o600))

	cmd := initCmd()
	cmd.SetArgs([]string{configDir})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), migrate.LegacyFileName)
}

func TestExplain_UnknownView(t *testing.T) {
	_, configDir := setupProject(t)

	cmd := explainCmd()
	cmd.SetArgs([]string{"--view", "invalid", configDir})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No view")
}
