package render

import (
	"encoding/json"
	"io"
)

// JSONRenderer writes the report as machine-readable JSON.
type JSONRenderer struct{}

type jsonReport struct {
	Title        string     `json:"title,omitempty"`
	Views        []jsonView `json:"views"`
	Unclassified []jsonTxn  `json:"unclassified,omitempty"`
	TotalCount   int        `json:"total_count"`
	Year         int        `json:"year,omitempty"`
}

type jsonView struct {
	Name   string      `json:"name"`
	Groups []jsonGroup `json:"groups"`
}

type jsonGroup struct {
	Key   string  `json:"key"`
	Sum   float64 `json:"sum"`
	Count int     `json:"count"`
}

type jsonTxn struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Source      string  `json:"source"`
	Amount      float64 `json:"amount"`
}

// Render writes the report with group keys in stable sorted order.
func (r *JSONRenderer) Render(w io.Writer, report Report) error {
	out := jsonReport{
		Title:      report.Title,
		Year:       report.Year,
		TotalCount: report.TotalCount,
		Views:      make([]jsonView, 0, len(report.Results)),
	}

	for _, result := range report.Results {
		view := jsonView{Name: result.Name, Groups: make([]jsonGroup, 0, len(result.Groups))}
		for _, key := range sortedGroupKeys(result) {
			agg := result.Groups[key]
			view.Groups = append(view.Groups, jsonGroup{Key: key, Sum: agg.Sum, Count: agg.Count})
		}
		out.Views = append(out.Views, view)
	}

	for _, txn := range report.Unclassified {
		out.Unclassified = append(out.Unclassified, jsonTxn{
			Date:        txn.Date.Format("2006-01-02"),
			Description: txn.Description,
			Amount:      txn.Amount,
			Source:      txn.Source,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
