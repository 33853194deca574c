// Package model defines the core domain models used throughout the application.
package model

import "time"

// Unclassified is the sentinel merchant/category/subcategory value assigned
// to transactions no rule matched. It is a valid terminal state, not an error.
const Unclassified = "unclassified"

// Transaction represents a single financial transaction from any data source.
// Transactions are immutable once ingested.
type Transaction struct {
	Date        time.Time
	Description string
	Source      string
	Amount      float64
}

// Month returns the calendar month of the transaction as "YYYY-MM".
func (t Transaction) Month() string {
	return t.Date.Format("2006-01")
}

// ClassifiedTransaction is a transaction after rule matching. Either all
// three classification fields are set from a single rule, or all three are
// Unclassified; partial assignment never occurs.
type ClassifiedTransaction struct {
	Transaction
	Merchant    string
	Category    string
	Subcategory string
}

// IsClassified reports whether a rule matched this transaction.
func (c ClassifiedTransaction) IsClassified() bool {
	return c.Merchant != Unclassified
}

// Field returns the named classification or transaction field as a string,
// for view filtering and grouping. Unknown fields return "".
func (c ClassifiedTransaction) Field(name string) string {
	switch name {
	case "merchant":
		return c.Merchant
	case "category":
		return c.Category
	case "subcategory":
		return c.Subcategory
	case "source":
		return c.Source
	case "month":
		return c.Month()
	}
	return ""
}
