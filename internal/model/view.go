package model

// ViewResult holds the aggregates produced by resolving one view.
type ViewResult struct {
	Name   string
	Groups map[string]Aggregate
}

// Aggregate accumulates the amount sum and transaction count for one group.
type Aggregate struct {
	Sum   float64
	Count int
}

// GroupKeySeparator joins group-by field values into a single group key.
const GroupKeySeparator = " / "
