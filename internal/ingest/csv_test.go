package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerloom/tally/internal/common"
	"github.com/ledgerloom/tally/internal/config"
)

func setupSource(t *testing.T, csvContent string) (*config.Settings, config.DataSource) {
	t.Helper()
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "data", "test.csv"), []byte(csvContent), 0o600))

	settings := &config.Settings{BaseDir: base}
	src := config.DataSource{
		Name:   "Test",
		File:   "data/test.csv",
		Format: "{date:%Y-%m-%d},{description},{amount}",
	}
	return settings, src
}

func TestLoadSource(t *testing.T) {
	settings, src := setupSource(t, `date,description,amount
2025-01-15,NETFLIX STREAMING,15.99
2025-01-16,KROGER #123,-54.20
`)

	txns, err := LoadSource(settings, src)
	require.NoError(t, err)
	require.Len(t, txns, 2, "header row skipped")

	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), txns[0].Date)
	assert.Equal(t, "NETFLIX STREAMING", txns[0].Description)
	assert.InDelta(t, 15.99, txns[0].Amount, 1e-9)
	assert.Equal(t, "Test", txns[0].Source)

	assert.InDelta(t, -54.20, txns[1].Amount, 1e-9, "signed amounts preserved")
}

func TestLoadSource_NoHeader(t *testing.T) {
	settings, src := setupSource(t, "2025-01-15,NETFLIX STREAMING,15.99\n")

	txns, err := LoadSource(settings, src)
	require.NoError(t, err)
	require.Len(t, txns, 1)
}

func TestLoadSource_BadRowAfterHeader(t *testing.T) {
	settings, src := setupSource(t, `date,description,amount
2025-01-15,NETFLIX STREAMING,15.99
not-a-date,BROKEN,1.00
`)

	_, err := LoadSource(settings, src)
	require.Error(t, err)
	var parseErr *common.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 3, parseErr.Line)
}

func TestLoadSource_BadAmount(t *testing.T) {
	settings, src := setupSource(t, `date,description,amount
2025-01-15,NETFLIX STREAMING,lots
`)

	_, err := LoadSource(settings, src)
	require.Error(t, err)
}

func TestLoadSource_MissingFile(t *testing.T) {
	settings := &config.Settings{BaseDir: t.TempDir()}
	src := config.DataSource{Name: "Test", File: "data/missing.csv", Format: "{date:%Y-%m-%d},{description},{amount}"}

	_, err := LoadSource(settings, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Test")
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantErr bool
	}{
		{name: "standard template", format: "{date:%Y-%m-%d},{description},{amount}"},
		{name: "reordered columns", format: "{description},{amount},{date:%d %b %Y}"},
		{name: "empty", format: "", wantErr: true},
		{name: "unknown field", format: "{date:%Y-%m-%d},{memo},{amount}", wantErr: true},
		{name: "date without layout", format: "{date},{description},{amount}", wantErr: true},
		{name: "missing amount", format: "{date:%Y-%m-%d},{description}", wantErr: true},
		{name: "unsupported directive", format: "{date:%Q},{description},{amount}", wantErr: true},
		{name: "bare token", format: "date,{description},{amount}", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFormat(tt.format)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStrftimeLayout(t *testing.T) {
	tests := []struct {
		spec string
		want string
	}{
		{spec: "%Y-%m-%d", want: "2006-01-02"},
		{spec: "%d/%m/%y", want: "02/01/06"},
		{spec: "%d %b %Y", want: "02 Jan 2006"},
		{spec: "%Y-%m-%d %H:%M:%S", want: "2006-01-02 15:04:05"},
	}

	for _, tt := range tests {
		got, err := strftimeLayout(tt.spec)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := strftimeLayout("%Y-%m-%")
	assert.Error(t, err, "trailing percent")
}

func TestLoadAll_ConcatenatesSourcesInOrder(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "data", "a.csv"),
		[]byte("2025-01-01,FIRST,1.00\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(base, "data", "b.csv"),
		[]byte("2025-01-02,SECOND,2.00\n"), 0o600))

	settings := &config.Settings{
		BaseDir: base,
		DataSources: []config.DataSource{
			{Name: "A", File: "data/a.csv", Format: "{date:%Y-%m-%d},{description},{amount}"},
			{Name: "B", File: "data/b.csv", Format: "{date:%Y-%m-%d},{description},{amount}"},
		},
	}

	txns, err := LoadAll(settings)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "A", txns[0].Source)
	assert.Equal(t, "B", txns[1].Source)
}
