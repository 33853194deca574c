// Package render turns resolved view results into user-facing reports. The
// engine upstream knows nothing about output formats.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ledgerloom/tally/internal/model"
)

// Report is everything a renderer needs for one run.
type Report struct {
	Title        string
	Results      []model.ViewResult
	Unclassified []model.ClassifiedTransaction
	TotalCount   int
	Year         int
}

// Renderer writes a report in one output format.
type Renderer interface {
	Render(w io.Writer, report Report) error
}

// Formats lists the supported --format choices.
func Formats() []string {
	return []string{"summary", "html", "json"}
}

// New returns the renderer for a format name.
func New(format string) (Renderer, error) {
	switch format {
	case "summary":
		return &SummaryRenderer{}, nil
	case "html":
		return &HTMLRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	}
	return nil, fmt.Errorf("invalid choice %q for --format (choose from %s)",
		format, strings.Join(Formats(), ", "))
}

// sortedGroupKeys returns a view's group keys in stable alphabetical order.
func sortedGroupKeys(result model.ViewResult) []string {
	keys := make([]string, 0, len(result.Groups))
	for key := range result.Groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
