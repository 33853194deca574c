package main

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgerloom/tally/internal/cli"
	"github.com/ledgerloom/tally/internal/config"
	"github.com/ledgerloom/tally/internal/migrate"
)

const defaultSettings = `# tally settings
year: %d

# Describe where your transaction data lives and how to parse it:
# data_sources:
#   - name: Checking
#     file: data/checking.csv
#     format: "{date:%%Y-%%m-%%d},{description},{amount}"
`

const defaultMerchantRules = `# Merchant classification rules, first match wins.
# PATTERN => Merchant | Category | Subcategory
# NETFLIX => Netflix | Subscriptions | Streaming
`

const defaultViews = `# Report views: name => filter | group_by fields
monthly => all | month
by-category => all | category, subcategory
`

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [config_dir]",
		Short: "Initialize a tally configuration directory",
		Long: `Create a config directory with settings.yaml, merchants.rules and
views.rules. An existing config/ directory is detected and reused, and a
legacy merchant_categories.csv is converted to the native rule format.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInit,
	}
}

func runInit(_ *cobra.Command, args []string) error {
	var configDir string
	switch {
	case len(args) == 1:
		configDir = args[0]
	case fileExists(config.SettingsPath("config")):
		configDir = "config"
		fmt.Println("Found existing config/ directory, using it.")
	default:
		configDir = "tally"
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", configDir, err)
	}

	settingsPath := config.SettingsPath(configDir)
	if !fileExists(settingsPath) {
		content := fmt.Sprintf(defaultSettings, time.Now().Year())
		if err := os.WriteFile(settingsPath, []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write settings: %w", err)
		}
		fmt.Println(cli.FormatSuccess("created " + settingsPath))
	}

	detected, err := migrate.Detect(configDir)
	if err != nil {
		return err
	}
	if detected {
		fmt.Println("Converting legacy " + migrate.LegacyFileName + " to " + migrate.RulesFileName + "...")
		result, err := migrate.Migrate(configDir)
		if err != nil {
			return err
		}
		fmt.Println(cli.FormatSuccess(fmt.Sprintf("converted %d rules (legacy file backed up as %s%s)",
			result.RulesWritten, migrate.LegacyFileName, migrate.BackupSuffix)))
	}

	if err := writeIfMissing(filepath.Join(configDir, migrate.RulesFileName), defaultMerchantRules); err != nil {
		return err
	}
	if err := writeIfMissing(filepath.Join(configDir, migrate.ViewsFileName), defaultViews); err != nil {
		return err
	}

	base := filepath.Base(configDir)
	added, err := config.EnsureKeys(configDir, map[string]string{
		"merchants_file": path.Join(base, migrate.RulesFileName),
		"views_file":     path.Join(base, migrate.ViewsFileName),
	})
	if err != nil {
		return err
	}
	for _, key := range added {
		fmt.Println(cli.FormatSuccess("added " + key + " to " + config.SettingsFileName))
	}

	fmt.Println(cli.FormatSuccess(configDir + " is ready; edit " + settingsPath + " to add data sources"))
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func writeIfMissing(path, content string) error {
	if fileExists(path) {
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Println(cli.FormatSuccess("created " + path))
	return nil
}
