// Package ingest reads transaction records from CSV data sources, driven by
// the per-source format template from settings, e.g.
//
//	"{date:%Y-%m-%d},{description},{amount}"
//
// Each template token names one CSV column; the date token carries a
// strftime-style layout.
package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ledgerloom/tally/internal/common"
	"github.com/ledgerloom/tally/internal/config"
	"github.com/ledgerloom/tally/internal/model"
)

type column struct {
	name       string
	dateLayout string
}

// LoadSource reads and parses one data source into typed transactions. A
// first row whose date column does not parse is treated as a header and
// skipped; any later malformed row is a ParseError.
func LoadSource(settings *config.Settings, src config.DataSource) ([]model.Transaction, error) {
	columns, err := parseFormat(src.Format)
	if err != nil {
		return nil, fmt.Errorf("data source %q: %w", src.Name, err)
	}

	path := settings.Resolve(src.File)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("data source %q: %w", src.Name, err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, common.NewParseError(path, 0, "invalid CSV: %v", err)
	}

	var txns []model.Transaction
	for i, record := range records {
		txn, err := parseRecord(record, columns, src.Name)
		if err != nil {
			if i == 0 {
				continue // header row
			}
			return nil, common.NewParseError(path, i+1, "%v", err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// LoadAll ingests every configured data source in settings order.
func LoadAll(settings *config.Settings) ([]model.Transaction, error) {
	var all []model.Transaction
	for _, src := range settings.DataSources {
		txns, err := LoadSource(settings, src)
		if err != nil {
			return nil, err
		}
		all = append(all, txns...)
	}
	return all, nil
}

func parseRecord(record []string, columns []column, source string) (model.Transaction, error) {
	if len(record) < len(columns) {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", len(columns), len(record))
	}

	var txn model.Transaction
	txn.Source = source
	for i, col := range columns {
		value := strings.TrimSpace(record[i])
		switch col.name {
		case "date":
			date, err := time.Parse(col.dateLayout, value)
			if err != nil {
				return model.Transaction{}, fmt.Errorf("invalid date %q", value)
			}
			txn.Date = date
		case "description":
			txn.Description = value
		case "amount":
			amount, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return model.Transaction{}, fmt.Errorf("invalid amount %q", value)
			}
			txn.Amount = amount
		}
	}
	return txn, nil
}

func parseFormat(format string) ([]column, error) {
	if format == "" {
		return nil, fmt.Errorf("missing format template")
	}

	var columns []column
	hasDate, hasDescription, hasAmount := false, false, false
	for _, token := range strings.Split(format, ",") {
		token = strings.TrimSpace(token)
		if !strings.HasPrefix(token, "{") || !strings.HasSuffix(token, "}") {
			return nil, fmt.Errorf("malformed format token %q", token)
		}
		body := token[1 : len(token)-1]
		name, spec, _ := strings.Cut(body, ":")

		col := column{name: name}
		switch name {
		case "date":
			layout, err := strftimeLayout(spec)
			if err != nil {
				return nil, err
			}
			col.dateLayout = layout
			hasDate = true
		case "description":
			hasDescription = true
		case "amount":
			hasAmount = true
		default:
			return nil, fmt.Errorf("unknown format field %q", name)
		}
		columns = append(columns, col)
	}

	if !hasDate || !hasDescription || !hasAmount {
		return nil, fmt.Errorf("format template must include {date:...}, {description} and {amount}")
	}
	return columns, nil
}

// strftime directives the date token supports, mapped to Go reference-time
// layout fragments.
var strftimeDirectives = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'd': "02",
	'b': "Jan",
	'B': "January",
	'H': "15",
	'M': "04",
	'S': "05",
}

func strftimeLayout(spec string) (string, error) {
	if spec == "" {
		return "", fmt.Errorf("date token needs a layout, e.g. {date:%%Y-%%m-%%d}")
	}

	var layout strings.Builder
	for i := 0; i < len(spec); i++ {
		if spec[i] != '%' {
			layout.WriteByte(spec[i])
			continue
		}
		i++
		if i >= len(spec) {
			return "", fmt.Errorf("trailing %% in date layout %q", spec)
		}
		fragment, ok := strftimeDirectives[spec[i]]
		if !ok {
			return "", fmt.Errorf("unsupported date directive %%%c in %q", spec[i], spec)
		}
		layout.WriteString(fragment)
	}
	return layout.String(), nil
}
