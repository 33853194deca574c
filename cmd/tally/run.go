package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ledgerloom/tally/internal/classify"
	"github.com/ledgerloom/tally/internal/cli"
	"github.com/ledgerloom/tally/internal/config"
	"github.com/ledgerloom/tally/internal/ingest"
	"github.com/ledgerloom/tally/internal/migrate"
	"github.com/ledgerloom/tally/internal/model"
	"github.com/ledgerloom/tally/internal/render"
	"github.com/ledgerloom/tally/internal/views"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [config_dir]",
		Short: "Classify transactions and render view reports",
		Long: `Ingest every configured data source, classify transactions against the
merchant rules, resolve the requested views and render a report.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRun,
	}

	cmd.Flags().StringSlice("only", nil, "comma-separated view names to resolve (default: all)")
	cmd.Flags().String("format", "summary", "output format ("+strings.Join(render.Formats(), ", ")+")")
	cmd.Flags().Bool("migrate", false, "convert a legacy merchant_categories.csv before running")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	only, _ := cmd.Flags().GetStringSlice("only")
	format, _ := cmd.Flags().GetString("format")
	doMigrate, _ := cmd.Flags().GetBool("migrate")

	renderer, err := render.New(format)
	if err != nil {
		return err
	}

	var configDir string
	if len(args) == 1 {
		configDir = args[0]
	}
	configDir = resolveConfigDir(configDir)

	if doMigrate {
		result, err := migrate.Migrate(configDir)
		if err != nil {
			return err
		}
		if result.RulesWritten > 0 {
			fmt.Fprintln(os.Stderr, cli.FormatSuccess(
				fmt.Sprintf("converted %d legacy rules to %s", result.RulesWritten, migrate.RulesFileName)))
		}
	}

	settings, err := config.LoadSettings(configDir)
	if err != nil {
		return err
	}

	store, err := loadRuleStore(settings)
	if err != nil {
		return err
	}

	txns, err := ingest.LoadAll(settings)
	if err != nil {
		return err
	}

	classified := classify.ClassifyAll(txns, store)

	defs, err := loadViewDefinitions(settings)
	if err != nil {
		return err
	}

	requested := only
	if len(requested) == 0 {
		requested = views.Names(defs)
	}

	valid, invalid := views.Validate(requested, defs)
	for _, name := range invalid {
		msg := fmt.Sprintf("Warning: Invalid view '%s'.%s", name, didYouMean(name, views.Names(defs)))
		fmt.Fprintln(os.Stderr, cli.FormatWarning(msg))
	}
	if len(invalid) > 0 && len(defs) > 0 {
		fmt.Fprintln(os.Stderr, "Available views: "+strings.Join(views.Names(defs), ", "))
	}
	if len(valid) == 0 && len(requested) > 0 {
		return fmt.Errorf("no valid views to resolve")
	}

	selected := make(map[string]views.Definition, len(valid))
	for _, name := range valid {
		selected[name] = defs[name]
	}
	resolved := views.Resolve(selected, classified)

	results := make([]model.ViewResult, 0, len(valid))
	if len(only) == 0 {
		sort.Strings(valid)
	}
	for _, name := range valid {
		results = append(results, resolved[name])
	}

	report := render.Report{
		Title:        settings.Title,
		Year:         settings.Year,
		Results:      results,
		Unclassified: classify.Unmatched(classified),
		TotalCount:   len(classified),
	}

	return renderer.Render(os.Stdout, report)
}
