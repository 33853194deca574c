// Package classify assigns merchant classifications to transactions by
// matching rule patterns against transaction descriptions.
package classify

import (
	"strings"

	"github.com/ledgerloom/tally/internal/model"
	"github.com/ledgerloom/tally/internal/rules"
)

// Classify matches a transaction against the store's rules. A rule matches
// when its pattern appears within the description, case-insensitively. The
// first matching rule in load order wins: rule files are authored assuming
// first-match-wins, with specific patterns placed before generic catch-alls.
// With no match, all three classification fields are set to Unclassified.
func Classify(txn model.Transaction, store *rules.Store) model.ClassifiedTransaction {
	description := strings.ToLower(txn.Description)

	for _, rule := range store.Rules() {
		if strings.Contains(description, strings.ToLower(rule.Pattern)) {
			return model.ClassifiedTransaction{
				Transaction: txn,
				Merchant:    rule.Merchant,
				Category:    rule.Category,
				Subcategory: rule.Subcategory,
			}
		}
	}

	return model.ClassifiedTransaction{
		Transaction: txn,
		Merchant:    model.Unclassified,
		Category:    model.Unclassified,
		Subcategory: model.Unclassified,
	}
}

// ClassifyAll classifies a transaction sequence in order.
func ClassifyAll(txns []model.Transaction, store *rules.Store) []model.ClassifiedTransaction {
	classified := make([]model.ClassifiedTransaction, 0, len(txns))
	for _, txn := range txns {
		classified = append(classified, Classify(txn, store))
	}
	return classified
}

// Unmatched returns the transactions no rule matched.
func Unmatched(classified []model.ClassifiedTransaction) []model.ClassifiedTransaction {
	var unmatched []model.ClassifiedTransaction
	for _, c := range classified {
		if !c.IsClassified() {
			unmatched = append(unmatched, c)
		}
	}
	return unmatched
}
