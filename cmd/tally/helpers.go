package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ledgerloom/tally/internal/config"
	"github.com/ledgerloom/tally/internal/fuzzy"
	"github.com/ledgerloom/tally/internal/migrate"
	"github.com/ledgerloom/tally/internal/rules"
	"github.com/ledgerloom/tally/internal/views"
)

// defaultConfigDir picks the config directory when none is given on the
// command line: an existing ./config takes precedence over ./tally.
func defaultConfigDir() string {
	if _, err := os.Stat(config.SettingsPath("config")); err == nil {
		return "config"
	}
	return "tally"
}

func resolveConfigDir(arg string) string {
	if arg != "" {
		return arg
	}
	return defaultConfigDir()
}

// loadRuleStore loads the configured merchants file. When the native file is
// absent, a not-yet-migrated legacy file still serves as the rule source. With
// neither present, classification proceeds with zero rules and everything
// lands in the unclassified bucket.
func loadRuleStore(settings *config.Settings) (*rules.Store, error) {
	path := settings.Resolve(settings.MerchantsFile)
	if _, err := os.Stat(path); err == nil {
		return rules.Load(path)
	}

	legacy, err := migrate.ReadLegacyRules(settings.ConfigDir)
	if err == nil {
		slog.Debug("using legacy rules file", "dir", settings.ConfigDir)
		return rules.NewStore(legacy), nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	slog.Debug("no merchants rules file", "path", path)
	return rules.NewStore(nil), nil
}

// loadViewDefinitions loads the configured views file. An absent file means
// zero views are defined.
func loadViewDefinitions(settings *config.Settings) (map[string]views.Definition, error) {
	path := settings.Resolve(settings.ViewsFile)
	if _, err := os.Stat(path); err != nil {
		slog.Debug("no views file", "path", path)
		return map[string]views.Definition{}, nil
	}
	return views.Load(path)
}

// didYouMean formats a fuzzy suggestion suffix for an unknown identifier, or
// "" when nothing scores within the shared threshold.
func didYouMean(query string, candidates []string) string {
	suggestions := fuzzy.Suggest(query, candidates, fuzzy.DefaultMaxSuggestions, fuzzy.DefaultThreshold)
	if len(suggestions) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		quoted = append(quoted, fmt.Sprintf("'%s'", s))
	}
	return fmt.Sprintf(" Did you mean %s?", strings.Join(quoted, " or "))
}
