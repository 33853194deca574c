package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ledgerloom/tally/internal/common"
	"github.com/ledgerloom/tally/internal/config"
	"github.com/ledgerloom/tally/internal/rules"
	"github.com/ledgerloom/tally/internal/views"
)

func explainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain [merchant] [config_dir]",
		Short: "Explain how merchants, categories and views are configured",
		Long: `Show how a merchant is classified, list the merchants in a category, or
show a view definition. With no arguments, lists every known merchant.`,
		Args: cobra.MaximumNArgs(2),
		RunE: runExplain,
	}

	cmd.Flags().String("category", "", "list merchants in this category")
	cmd.Flags().String("view", "", "show this view definition")

	return cmd
}

func runExplain(cmd *cobra.Command, args []string) error {
	category, _ := cmd.Flags().GetString("category")
	viewName, _ := cmd.Flags().GetString("view")

	// With a flag set, a single positional is the config dir; otherwise the
	// first positional is the merchant name.
	var merchant, configDir string
	switch {
	case len(args) == 2:
		merchant, configDir = args[0], args[1]
	case len(args) == 1 && (category != "" || viewName != ""):
		configDir = args[0]
	case len(args) == 1:
		merchant = args[0]
	}
	configDir = resolveConfigDir(configDir)

	settings, err := config.LoadSettings(configDir)
	if err != nil {
		return err
	}

	store, err := loadRuleStore(settings)
	if err != nil {
		return err
	}

	if viewName != "" {
		if err := explainView(settings, viewName); err != nil {
			return err
		}
	}
	if category != "" {
		if err := explainCategory(store, category); err != nil {
			// Fatal only when the category was the sole target; with a
			// merchant or view alongside, the listing above suffices.
			if merchant == "" && viewName == "" {
				return err
			}
		}
	}
	if merchant != "" {
		if err := explainMerchant(store, merchant); err != nil {
			return err
		}
	}
	if merchant == "" && category == "" && viewName == "" {
		explainAll(store)
	}
	return nil
}

func explainMerchant(store *rules.Store, merchant string) error {
	rule, ok := store.FindRule(merchant)
	if !ok {
		return common.NewUserError(
			fmt.Sprintf("No merchant named '%s'.%s", merchant, didYouMean(merchant, store.Merchants())),
			common.ErrUnknownIdentifier)
	}

	fmt.Printf("%s => %s / %s\n", rule.Merchant, rule.Category, rule.Subcategory)
	fmt.Printf("  matched by pattern %q (rule %d)\n", rule.Pattern, rule.Order+1)
	return nil
}

func explainCategory(store *rules.Store, category string) error {
	merchants := store.LookupCategory(category)
	if len(merchants) == 0 {
		msg := fmt.Sprintf("No merchants found in category '%s'.%s", category, didYouMean(category, store.Categories()))
		fmt.Println(msg)
		fmt.Println("Available categories: " + strings.Join(store.Categories(), ", "))
		return common.NewUserError(msg, common.ErrUnknownIdentifier)
	}

	fmt.Printf("%s:\n", category)
	for _, name := range merchants {
		_, subcategory, _ := store.Find(name)
		fmt.Printf("  %s (%s)\n", name, subcategory)
	}
	return nil
}

func explainView(settings *config.Settings, name string) error {
	defs, err := loadViewDefinitions(settings)
	if err != nil {
		return err
	}

	def, ok := defs[name]
	if !ok {
		available := ""
		if len(defs) > 0 {
			available = " Available views: " + strings.Join(views.Names(defs), ", ")
		}
		return common.NewUserError(
			fmt.Sprintf("No view named '%s'.%s%s", name, didYouMean(name, views.Names(defs)), available),
			common.ErrUnknownIdentifier)
	}

	fmt.Printf("%s:\n", def.Name)
	if len(def.Filter) == 0 {
		fmt.Println("  filter: all")
	} else {
		clauses := make([]string, 0, len(def.Filter))
		for _, c := range def.Filter {
			if c.Field == "amount" {
				clauses = append(clauses, fmt.Sprintf("amount %s %g", c.Op, c.Num))
			} else {
				clauses = append(clauses, fmt.Sprintf("%s %s %s", c.Field, c.Op, c.Value))
			}
		}
		fmt.Println("  filter: " + strings.Join(clauses, " and "))
	}
	fmt.Println("  group by: " + strings.Join(def.GroupBy, ", "))
	return nil
}

func explainAll(store *rules.Store) {
	categories := store.Categories()
	if len(categories) == 0 {
		fmt.Println("No merchant rules defined yet.")
		return
	}
	for _, category := range categories {
		fmt.Printf("%s:\n", category)
		for _, name := range store.LookupCategory(category) {
			_, subcategory, _ := store.Find(name)
			fmt.Printf("  %s (%s)\n", name, subcategory)
		}
	}
}
