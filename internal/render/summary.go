package render

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ledgerloom/tally/internal/cli"
)

// SummaryRenderer writes a styled plain-text report to the terminal.
type SummaryRenderer struct{}

// Render writes one table per view plus an unclassified footer.
func (r *SummaryRenderer) Render(w io.Writer, report Report) error {
	title := report.Title
	if title == "" {
		title = fmt.Sprintf("tally %d", report.Year)
	}
	fmt.Fprintln(w, cli.FormatTitle(title))

	for _, result := range report.Results {
		fmt.Fprintf(w, "\n%s\n", cli.SubtitleStyle.Render(result.Name))

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "%s\t%s\t%s\n", "Group", "Sum", "Count")

		var sum float64
		var count int
		for _, key := range sortedGroupKeys(result) {
			agg := result.Groups[key]
			fmt.Fprintf(tw, "%s\t%.2f\t%d\n", key, agg.Sum, agg.Count)
			sum += agg.Sum
			count += agg.Count
		}
		fmt.Fprintf(tw, "%s\t%.2f\t%d\n", "total", sum, count)
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if n := len(report.Unclassified); n > 0 {
		fmt.Fprintf(w, "\n%s\n",
			cli.FormatWarning(fmt.Sprintf("%d of %d transactions unclassified", n, report.TotalCount)))
		for _, txn := range report.Unclassified {
			fmt.Fprintf(w, "  %s  %-40s  %8.2f  (%s)\n",
				txn.Date.Format("2006-01-02"), txn.Description, txn.Amount, txn.Source)
		}
	}

	return nil
}
