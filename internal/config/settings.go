package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/ledgerloom/tally/internal/common"
)

// SettingsFileName is the well-known settings file inside a config directory.
const SettingsFileName = "settings.yaml"

// DataSource describes one transaction file and the template used to parse it.
type DataSource struct {
	Name   string `mapstructure:"name"`
	File   string `mapstructure:"file"`
	Format string `mapstructure:"format"`
}

// Settings holds the per-run configuration loaded from settings.yaml.
type Settings struct {
	Title         string       `mapstructure:"title"`
	MerchantsFile string       `mapstructure:"merchants_file"`
	ViewsFile     string       `mapstructure:"views_file"`
	DataSources   []DataSource `mapstructure:"data_sources"`
	Year          int          `mapstructure:"year"`

	// BaseDir is the directory relative file paths resolve against: the
	// parent of the config directory. Set at load time, not persisted.
	BaseDir string `mapstructure:"-"`

	// ConfigDir is the directory the settings were loaded from. Set at
	// load time, not persisted.
	ConfigDir string `mapstructure:"-"`
}

// SettingsPath returns the settings file path for a config directory.
func SettingsPath(configDir string) string {
	return filepath.Join(configDir, SettingsFileName)
}

// LoadSettings reads and validates settings.yaml from the config directory.
// A missing file is ErrConfigMissing with guidance to run init.
func LoadSettings(configDir string) (*Settings, error) {
	path := SettingsPath(configDir)
	if _, err := os.Stat(path); err != nil {
		return nil, common.NewUserError(
			fmt.Sprintf("no settings file at %s (run 'tally init' to create one)", path),
			common.ErrConfigMissing)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, common.NewParseError(path, 0, "invalid settings: %v", err)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, common.NewParseError(path, 0, "invalid settings: %v", err)
	}

	base := filepath.Dir(configDir)
	if base == "" {
		base = "."
	}
	s.BaseDir = base
	s.ConfigDir = configDir

	if s.MerchantsFile == "" {
		s.MerchantsFile = filepath.Join(filepath.Base(configDir), "merchants.rules")
	}
	if s.ViewsFile == "" {
		s.ViewsFile = filepath.Join(filepath.Base(configDir), "views.rules")
	}

	return &s, nil
}

// Resolve turns a settings-relative file path into one usable from the
// current working directory. Absolute paths pass through untouched.
func (s *Settings) Resolve(path string) string {
	path = ExpandPath(path)
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.BaseDir, path)
}

// EnsureKeys adds the given keys to settings.yaml when absent. Pre-existing
// keys are never clobbered. Returns the keys actually added.
func EnsureKeys(configDir string, keys map[string]string) ([]string, error) {
	path := SettingsPath(configDir)

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, common.NewParseError(path, 0, "invalid settings: %v", err)
	}

	var added []string
	for key, value := range keys {
		if v.IsSet(key) {
			continue
		}
		v.Set(key, value)
		added = append(added, key)
	}

	if len(added) == 0 {
		return nil, nil
	}
	if err := v.WriteConfig(); err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", path, err)
	}
	return added, nil
}
