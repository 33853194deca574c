// Package migrate converts the deprecated tabular rule format into the
// native rules syntax.
//
// The legacy file is a CSV with header Pattern,Merchant,Category,Subcategory.
// Migration writes the native file first, then renames the legacy file to a
// .bak backup, so a crash between the phases leaves recoverable state and a
// second run is a no-op.
package migrate

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ledgerloom/tally/internal/common"
	"github.com/ledgerloom/tally/internal/config"
	"github.com/ledgerloom/tally/internal/model"
	"github.com/ledgerloom/tally/internal/rules"
)

// Well-known file names inside a config directory.
const (
	LegacyFileName = "merchant_categories.csv"
	RulesFileName  = "merchants.rules"
	ViewsFileName  = "views.rules"
	BackupSuffix   = ".bak"
)

// Result reports what a migration run did.
type Result struct {
	RulesWritten int
	BackedUp     bool
}

// Detect reports whether a legacy rule file with at least one data row
// exists in the config directory. A legacy file that cannot be parsed is an
// error, not a silent negative.
func Detect(configDir string) (bool, error) {
	rows, err := ReadLegacyRules(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return len(rows) > 0, nil
}

// ReadLegacyRules parses the legacy rule file in a config directory without
// migrating it. Pre-migration configs classify straight from the legacy file
// until it is converted.
func ReadLegacyRules(configDir string) ([]model.Rule, error) {
	return readLegacy(filepath.Join(configDir, LegacyFileName))
}

// Migrate converts the legacy rule file into native syntax. A legacy file
// with zero data rows is left untouched and nothing is converted. The native
// file is written before the legacy file is renamed to its backup; an
// existing native file with different content fails with
// ErrMigrationConflict rather than being merged silently.
func Migrate(configDir string) (Result, error) {
	legacyPath := filepath.Join(configDir, LegacyFileName)
	rows, err := readLegacy(legacyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{}, nil
		}
		return Result{}, err
	}
	if len(rows) == 0 {
		return Result{}, nil
	}

	rulesPath := filepath.Join(configDir, RulesFileName)
	content := renderRules(rows)

	existing, err := os.ReadFile(rulesPath)
	switch {
	case err == nil:
		if !bytes.Equal(existing, content) {
			return Result{}, common.NewUserError(
				fmt.Sprintf("%s already exists with different content; resolve manually before migrating", rulesPath),
				common.ErrMigrationConflict)
		}
		// Already converted; just finish the rename phase.
	case os.IsNotExist(err):
		if err := os.WriteFile(rulesPath, content, 0o644); err != nil {
			return Result{}, fmt.Errorf("failed to write %s: %w", rulesPath, err)
		}
	default:
		return Result{}, fmt.Errorf("failed to read %s: %w", rulesPath, err)
	}

	backupPath := legacyPath + BackupSuffix
	if _, err := os.Stat(backupPath); err == nil {
		return Result{}, fmt.Errorf("backup %s already exists; refusing to overwrite", backupPath)
	}
	if err := os.Rename(legacyPath, backupPath); err != nil {
		return Result{}, fmt.Errorf("failed to back up legacy file: %w", err)
	}

	base := filepath.Base(configDir)
	if _, err := config.EnsureKeys(configDir, map[string]string{
		"merchants_file": path.Join(base, RulesFileName),
		"views_file":     path.Join(base, ViewsFileName),
	}); err != nil {
		return Result{}, err
	}

	return Result{RulesWritten: len(rows), BackedUp: true}, nil
}

// readLegacy returns the data rows of a legacy rule file, skipping comments
// and the header row. Row order is preserved as rule order.
func readLegacy(legacyPath string) ([]model.Rule, error) {
	f, err := os.Open(legacyPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, common.NewParseError(legacyPath, 0, "invalid legacy rule file: %v", err)
	}

	var parsed []model.Rule
	for _, record := range records {
		if len(record) == 0 || strings.EqualFold(strings.TrimSpace(record[0]), "Pattern") {
			continue
		}
		if len(record) != 4 {
			return nil, common.NewParseError(legacyPath, 0,
				"legacy rule row needs 4 fields (Pattern,Merchant,Category,Subcategory), got %d", len(record))
		}
		parsed = append(parsed, model.Rule{
			Pattern:     strings.TrimSpace(record[0]),
			Merchant:    strings.TrimSpace(record[1]),
			Category:    strings.TrimSpace(record[2]),
			Subcategory: strings.TrimSpace(record[3]),
			Order:       len(parsed),
		})
	}
	return parsed, nil
}

// renderRules translates legacy rows into native rule syntax, one line per
// rule, preserving row order.
func renderRules(rows []model.Rule) []byte {
	var b strings.Builder
	b.WriteString(rules.CommentMarker + " Converted from " + LegacyFileName + "\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%s => %s | %s | %s\n", r.Pattern, r.Merchant, r.Category, r.Subcategory)
	}
	return []byte(b.String())
}
