// Package rules loads and indexes merchant classification rules.
//
// The native rule file maps one pattern per line to a classification target:
//
//	# comment
//	NETFLIX => Netflix | Subscriptions | Streaming
//
// Line order is significant: the classifier applies rules first-match-wins
// in file order.
package rules

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ledgerloom/tally/internal/common"
	"github.com/ledgerloom/tally/internal/model"
)

// CommentMarker starts a comment line in a rules file.
const CommentMarker = "#"

// Store holds the ordered rule sequence and a reverse index from merchant
// name to its classification target.
type Store struct {
	byMerchant map[string]model.Rule
	rules      []model.Rule
}

// NewStore builds a store over an already-parsed rule sequence.
func NewStore(ruleList []model.Rule) *Store {
	s := &Store{
		rules:      ruleList,
		byMerchant: make(map[string]model.Rule, len(ruleList)),
	}
	for _, r := range ruleList {
		// First rule for a merchant wins the reverse index too.
		if _, ok := s.byMerchant[r.Merchant]; !ok {
			s.byMerchant[r.Merchant] = r
		}
	}
	return s
}

// Load parses a native rules file into a store, preserving file order for
// classification precedence. Malformed lines fail with a ParseError; a
// duplicate pattern with a conflicting target is rejected, while an exact
// duplicate line is ignored.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rules file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var ruleList []model.Rule
	seen := make(map[string]model.Rule)

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, CommentMarker) {
			continue
		}

		rule, err := parseLine(line)
		if err != nil {
			return nil, common.NewParseError(path, lineNo, "%v", err)
		}

		key := strings.ToLower(rule.Pattern)
		if prev, ok := seen[key]; ok {
			if prev.Merchant == rule.Merchant && prev.Category == rule.Category && prev.Subcategory == rule.Subcategory {
				continue
			}
			return nil, common.NewParseError(path, lineNo,
				"duplicate pattern %q conflicts with earlier rule for %s", rule.Pattern, prev.Merchant)
		}

		rule.Order = len(ruleList)
		seen[key] = rule
		ruleList = append(ruleList, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	return NewStore(ruleList), nil
}

func parseLine(line string) (model.Rule, error) {
	pattern, target, ok := strings.Cut(line, "=>")
	if !ok {
		return model.Rule{}, fmt.Errorf("expected 'PATTERN => Merchant | Category | Subcategory', got %q", line)
	}

	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return model.Rule{}, fmt.Errorf("empty pattern in %q", line)
	}

	parts := strings.Split(target, "|")
	if len(parts) != 3 {
		return model.Rule{}, fmt.Errorf("expected 3 target fields (merchant | category | subcategory), got %d", len(parts))
	}

	rule := model.Rule{
		Pattern:     pattern,
		Merchant:    strings.TrimSpace(parts[0]),
		Category:    strings.TrimSpace(parts[1]),
		Subcategory: strings.TrimSpace(parts[2]),
	}
	if rule.Merchant == "" || rule.Category == "" || rule.Subcategory == "" {
		return model.Rule{}, fmt.Errorf("missing target field in %q", line)
	}
	return rule, nil
}

// Rules returns the rule sequence in load order.
func (s *Store) Rules() []model.Rule {
	return s.rules
}

// Find returns the category and subcategory for a merchant name.
func (s *Store) Find(merchant string) (category, subcategory string, ok bool) {
	r, ok := s.byMerchant[merchant]
	if !ok {
		return "", "", false
	}
	return r.Category, r.Subcategory, true
}

// FindRule returns the first rule that targets the given merchant name.
func (s *Store) FindRule(merchant string) (model.Rule, bool) {
	r, ok := s.byMerchant[merchant]
	return r, ok
}

// LookupCategory returns the merchant names in a category, sorted. The
// category match is case-sensitive and exact.
func (s *Store) LookupCategory(category string) []string {
	var merchants []string
	for name, r := range s.byMerchant {
		if r.Category == category {
			merchants = append(merchants, name)
		}
	}
	sort.Strings(merchants)
	return merchants
}

// Merchants returns all known merchant names, sorted.
func (s *Store) Merchants() []string {
	merchants := make([]string, 0, len(s.byMerchant))
	for name := range s.byMerchant {
		merchants = append(merchants, name)
	}
	sort.Strings(merchants)
	return merchants
}

// Categories returns the distinct category names, sorted.
func (s *Store) Categories() []string {
	set := make(map[string]struct{})
	for _, r := range s.rules {
		set[r.Category] = struct{}{}
	}
	categories := make([]string, 0, len(set))
	for c := range set {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories
}
