package model

// Rule maps a merchant pattern to a classification target. Rules are
// immutable after load; Order reflects file position and lower order wins
// when patterns overlap.
type Rule struct {
	Pattern     string
	Merchant    string
	Category    string
	Subcategory string
	Order       int
}
