package sheet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/api/option"
)

func TestReadCSVSeparators(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"comma", "Group,Description,Amount,Percentage\nG,Writer,\"1 000,5\",\n"},
		{"semicolon", "Group;Description;Amount;Percentage\nG;Writer;1 000,5;\n"},
		{"tab", "Group\tDescription\tAmount\tPercentage\nG\tWriter\t1 000,5\t\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := ReadCSV(strings.NewReader(tt.in))
			require.NoError(t, err)
			require.Len(t, rows, 2)
			assert.Equal(t, []string{"G", "Writer", "1 000,5", ""}, rows[1])
		})
	}
}

func TestReadCSVRaggedRows(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader("a,b,c,d\nG,Only\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"G", "Only"}, rows[1])
}

func TestFileDispatch(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "budget.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("h1,h2,h3,h4\nG,A,,40\n"), 0o644))
	rows, err := File{Path: csvPath}.Rows(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = File{Path: filepath.Join(dir, "budget.ods")}.Rows(context.Background())
	assert.ErrorContains(t, err, "unsupported sheet format")
}

func TestXLSXRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.xlsx")
	in := [][]string{
		Header,
		{"SCRIPT", "Writer", "3000", "75"},
		{"FEES", "Agency", "", "10.5"},
	}
	require.NoError(t, WriteXLSX(path, in))

	rows, err := File{Path: path}.Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{"SCRIPT", "Writer", "3000", "75"}, rows[1])
	assert.Equal(t, "10.5", rows[2][3])
}

func TestReadXLSXUsesActiveSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "multi.xlsx")
	f := excelize.NewFile()
	idx, err := f.NewSheet("Budget")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"wrong"}))
	require.NoError(t, f.SetSheetRow("Budget", "A1", &[]interface{}{"Group", "Description", "Amount", "Percentage"}))
	require.NoError(t, f.SetSheetRow("Budget", "A2", &[]interface{}{"G", "A", 1250.5, nil}))
	f.SetActiveSheet(idx)
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	rows, err := ReadXLSX(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1250.5", rows[1][2])
}

func TestGoogleSheetRows(t *testing.T) {
	var gotPath, gotRender string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRender = r.URL.Query().Get("valueRenderOption")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"range": "Budget!A1:D3",
			"majorDimension": "ROWS",
			"values": [
				["Group", "Description", "Amount", "Percentage"],
				["SCRIPT", "Writer", 1500000, ""],
				["FEES", "Agency", "", 0.1]
			]
		}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	g, err := NewGoogleSheet(ctx, "sheet-id", "Budget!A:D",
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)

	rows, err := g.Rows(ctx)
	require.NoError(t, err)
	assert.Contains(t, gotPath, "sheet-id")
	assert.Equal(t, "UNFORMATTED_VALUE", gotRender)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"SCRIPT", "Writer", "1500000", ""}, rows[1])
	assert.Equal(t, "0.1", rows[2][3])

	p, err := Parse(rows)
	require.NoError(t, err)
	assert.True(t, p.AmountMode)
	assertDecimal(t, "1650000", p.GrandTotal)
}

func TestNewGoogleSheetRequiresID(t *testing.T) {
	_, err := NewGoogleSheet(context.Background(), "", "", option.WithoutAuthentication())
	assert.Error(t, err)
}

func TestCredentialsOption(t *testing.T) {
	_, err := CredentialsOption("", "")
	assert.Error(t, err)

	_, err = CredentialsOption("", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "read service account file")

	opt, err := CredentialsOption(`{"type":"service_account"}`, "")
	require.NoError(t, err)
	assert.NotNil(t, opt)
}
