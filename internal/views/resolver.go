// Package views parses named view definitions and aggregates classified
// transactions per view.
//
// The views file holds one definition per line:
//
//	# name => filter | group_by fields
//	monthly => all | month
//	streaming => category = Subscriptions and amount > 5 | month, merchant
//
// A filter is "all" or clauses joined by "and": string equality on
// merchant, category, subcategory, source, or month, and numeric
// comparisons on amount.
package views

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/ledgerloom/tally/internal/common"
	"github.com/ledgerloom/tally/internal/model"
)

// CommentMarker starts a comment line in a views file.
const CommentMarker = "#"

var groupableFields = map[string]bool{
	"merchant":    true,
	"category":    true,
	"subcategory": true,
	"source":      true,
	"month":       true,
}

// Definition is one named view: a filter over classified transactions and an
// ordered list of grouping fields. Definitions are immutable after load.
type Definition struct {
	Name    string
	GroupBy []string
	Filter  []Clause
}

// Clause is a single filter condition. String operators compare a
// classification field; numeric operators apply to the amount.
type Clause struct {
	Field string
	Op    string
	Value string
	Num   float64
}

// Matches evaluates the clause against one classified transaction.
func (c Clause) Matches(txn model.ClassifiedTransaction) bool {
	switch c.Op {
	case "=":
		return txn.Field(c.Field) == c.Value
	case "!=":
		return txn.Field(c.Field) != c.Value
	case "<":
		return txn.Amount < c.Num
	case "<=":
		return txn.Amount <= c.Num
	case ">":
		return txn.Amount > c.Num
	case ">=":
		return txn.Amount >= c.Num
	}
	return false
}

// Matches reports whether a transaction passes every filter clause.
func (d Definition) Matches(txn model.ClassifiedTransaction) bool {
	for _, clause := range d.Filter {
		if !clause.Matches(txn) {
			return false
		}
	}
	return true
}

// Load parses a views file into a name-keyed definition map. Malformed
// definitions and duplicate view names fail with a ParseError.
func Load(path string) (map[string]Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open views file: %w", err)
	}
	defer func() { _ = f.Close() }()

	defs := make(map[string]Definition)

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, CommentMarker) {
			continue
		}

		def, err := parseDefinition(line)
		if err != nil {
			return nil, common.NewParseError(path, lineNo, "%v", err)
		}
		if _, ok := defs[def.Name]; ok {
			return nil, common.NewParseError(path, lineNo, "duplicate view name %q", def.Name)
		}
		defs[def.Name] = def
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read views file: %w", err)
	}

	return defs, nil
}

func parseDefinition(line string) (Definition, error) {
	name, body, ok := strings.Cut(line, "=>")
	if !ok {
		return Definition{}, fmt.Errorf("expected 'name => filter | group_by', got %q", line)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Definition{}, fmt.Errorf("empty view name in %q", line)
	}

	filterPart, groupPart, ok := strings.Cut(body, "|")
	if !ok {
		return Definition{}, fmt.Errorf("view %q is missing group_by fields", name)
	}

	filter, err := parseFilter(strings.TrimSpace(filterPart))
	if err != nil {
		return Definition{}, fmt.Errorf("view %q: %w", name, err)
	}

	var groupBy []string
	for _, field := range strings.Split(groupPart, ",") {
		field = strings.TrimSpace(field)
		if !groupableFields[field] {
			return Definition{}, fmt.Errorf("view %q: unknown group_by field %q", name, field)
		}
		groupBy = append(groupBy, field)
	}
	if len(groupBy) == 0 {
		return Definition{}, fmt.Errorf("view %q has no group_by fields", name)
	}

	return Definition{Name: name, Filter: filter, GroupBy: groupBy}, nil
}

func parseFilter(expr string) ([]Clause, error) {
	if expr == "all" {
		return nil, nil
	}
	if expr == "" {
		return nil, fmt.Errorf("empty filter (use 'all' to match everything)")
	}

	var clauses []Clause
	for _, part := range strings.Split(expr, " and ") {
		clause, err := parseClause(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}
	return clauses, nil
}

// Operator order matters: two-character operators must be tried before
// their one-character prefixes.
var operators = []string{"!=", "<=", ">=", "=", "<", ">"}

func parseClause(expr string) (Clause, error) {
	for _, op := range operators {
		field, value, ok := strings.Cut(expr, op)
		if !ok {
			continue
		}
		field = strings.TrimSpace(field)
		value = strings.TrimSpace(value)
		if field == "" || value == "" {
			return Clause{}, fmt.Errorf("malformed filter clause %q", expr)
		}

		switch op {
		case "=", "!=":
			if field == "amount" {
				return Clause{}, fmt.Errorf("amount supports <, <=, >, >= only, got %q", expr)
			}
			if !groupableFields[field] {
				return Clause{}, fmt.Errorf("unknown filter field %q", field)
			}
			return Clause{Field: field, Op: op, Value: value}, nil
		default:
			if field != "amount" {
				return Clause{}, fmt.Errorf("operator %q applies to amount only, got %q", op, expr)
			}
			num, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return Clause{}, fmt.Errorf("non-numeric amount %q in %q", value, expr)
			}
			return Clause{Field: field, Op: op, Num: num}, nil
		}
	}
	return Clause{}, fmt.Errorf("malformed filter clause %q", expr)
}

// Validate partitions requested view names into those defined and those
// unknown. It never fails; the caller decides whether any invalid name is
// fatal.
func Validate(requested []string, known map[string]Definition) (valid, invalid []string) {
	for _, name := range requested {
		if _, ok := known[name]; ok {
			valid = append(valid, name)
		} else {
			invalid = append(invalid, name)
		}
	}
	return valid, invalid
}

// Names returns the defined view names, sorted.
func Names(defs map[string]Definition) []string {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve aggregates classified transactions per view. Each view filters
// independently, then groups by its ordered group-by fields; a transaction
// whose group-by field is empty or unclassified lands under the explicit
// "unclassified" key rather than being dropped.
func Resolve(defs map[string]Definition, classified []model.ClassifiedTransaction) map[string]model.ViewResult {
	results := make(map[string]model.ViewResult, len(defs))
	for name, def := range defs {
		results[name] = resolveOne(def, classified)
	}
	return results
}

func resolveOne(def Definition, classified []model.ClassifiedTransaction) model.ViewResult {
	result := model.ViewResult{
		Name:   def.Name,
		Groups: make(map[string]model.Aggregate),
	}

	for _, txn := range classified {
		if !def.Matches(txn) {
			continue
		}

		key := groupKey(def.GroupBy, txn)
		agg := result.Groups[key]
		agg.Sum += txn.Amount
		agg.Count++
		result.Groups[key] = agg
	}

	return result
}

func groupKey(fields []string, txn model.ClassifiedTransaction) string {
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		value := txn.Field(field)
		if value == "" {
			value = model.Unclassified
		}
		parts = append(parts, value)
	}
	return strings.Join(parts, model.GroupKeySeparator)
}
