package render

import (
	"html/template"
	"io"
)

// HTMLRenderer writes a standalone HTML report page.
type HTMLRenderer struct{}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{if .Title}}{{.Title}}{{else}}tally {{.Year}}{{end}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; margin-bottom: 2rem; }
th, td { border: 1px solid #ccc; padding: 0.35rem 0.75rem; text-align: left; }
td.num { text-align: right; }
caption { font-weight: bold; text-align: left; padding-bottom: 0.5rem; }
.warn { color: #a15c00; }
</style>
</head>
<body>
<h1>{{if .Title}}{{.Title}}{{else}}tally {{.Year}}{{end}}</h1>
{{range .Views}}
<table>
<caption>{{.Name}}</caption>
<tr><th>Group</th><th>Sum</th><th>Count</th></tr>
{{range .Groups}}
<tr><td>{{.Key}}</td><td class="num">{{printf "%.2f" .Sum}}</td><td class="num">{{.Count}}</td></tr>
{{end}}
</table>
{{end}}
{{if .Unclassified}}
<p class="warn">{{len .Unclassified}} of {{.TotalCount}} transactions unclassified</p>
<table>
<tr><th>Date</th><th>Description</th><th>Amount</th><th>Source</th></tr>
{{range .Unclassified}}
<tr><td>{{.Date}}</td><td>{{.Description}}</td><td class="num">{{printf "%.2f" .Amount}}</td><td>{{.Source}}</td></tr>
{{end}}
</table>
{{end}}
</body>
</html>
`))

// Render writes the report as HTML, reusing the JSON view shaping so group
// order stays stable.
func (r *HTMLRenderer) Render(w io.Writer, report Report) error {
	out := jsonReport{
		Title:      report.Title,
		Year:       report.Year,
		TotalCount: report.TotalCount,
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
	return htmlTemplate.Execute(w, out)
}
