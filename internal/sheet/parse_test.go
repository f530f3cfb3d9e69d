package sheet

import (
	"testing"

	"github.com/theirongolddev/allot/internal/budget"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, d(want).Equal(got), append([]interface{}{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

var header = []string{"Group", "Description", "Amount", "Percentage"}

func TestParsePercentageSheet(t *testing.T) {
	p, err := Parse([][]string{
		header,
		{"SCRIPT", "Writer", "", "20"},
		{"PRODUCTION", "Crew", "0", "50,5"},
		{"", "ignored", "99", "99"},
		{"SCRIPT", "Research", "", "29,5%"},
		{"fees", "Agency", "", "0,1"},
		{"FEES", "Insurance", "1 500", ""},
	})
	require.NoError(t, err)

	assert.False(t, p.AmountMode)
	require.Len(t, p.Categories, 3)
	assert.Equal(t, "Research", p.Categories[2].Name)
	assertDecimal(t, "50.5", p.Categories[1].Percentage)
	assertDecimal(t, "29.5", p.Categories[2].Percentage)

	require.Len(t, p.Groups, 2)
	assert.Equal(t, "SCRIPT", p.Groups[0].Label)
	assert.Equal(t, p.Categories[0].ID, p.Groups[0].Members[0])
	assert.Equal(t, p.Categories[2].ID, p.Groups[0].Members[1])
	assert.Equal(t, "PRODUCTION", p.Groups[1].Label)

	require.Len(t, p.Fees, 2)
	assert.Equal(t, budget.FeePercentage, p.Fees[0].Type)
	assertDecimal(t, "10", p.Fees[0].Value, "fractions below 1 are scaled to percent")
	assert.Equal(t, budget.FeeFixed, p.Fees[1].Type)
	assertDecimal(t, "1500", p.Fees[1].Value)
}

func TestParseAmountSheetNormalizes(t *testing.T) {
	p, err := Parse([][]string{
		header,
		{"SCRIPT", "Writer", "3000", ""},
		{"POST", "Editing", "1000", "junk"},
		{"FEES", "Agency", "", "10"},
		{"FEES", "Insurance", "400", ""},
	})
	require.NoError(t, err)

	assert.True(t, p.AmountMode)
	assertDecimal(t, "75", p.Categories[0].Percentage)
	assertDecimal(t, "25", p.Categories[1].Percentage)

	for _, f := range p.Fees {
		assert.Equal(t, budget.FeePercentage, f.Type)
	}
	assertDecimal(t, "10", p.Fees[1].Value, "400 of 4000")
	assertDecimal(t, "4800", p.GrandTotal)
}

func TestParseUnreadableNumbersAreZero(t *testing.T) {
	p, err := Parse([][]string{
		header,
		{"G", "A", "n/a", "abc"},
		{"G", "B"},
	})
	require.NoError(t, err)
	assert.False(t, p.AmountMode)
	require.Len(t, p.Categories, 2)
	assert.True(t, p.Categories[0].Amount.IsZero())
	assert.True(t, p.Categories[1].Percentage.IsZero())
}

func TestParseRejectsMixedMode(t *testing.T) {
	_, err := Parse([][]string{
		header,
		{"G", "A", "1000", ""},
		{"FEES", "Agency", "", "5"},
		{"G", "B", "", "40"},
	})
	require.ErrorIs(t, err, ErrMixedMode)
	assert.Contains(t, err.Error(), "row 4")
}

func TestParseEmpty(t *testing.T) {
	p, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, p.Categories)

	p, err = Parse([][]string{header})
	require.NoError(t, err)
	assert.Empty(t, p.Categories)
}

func TestImportFailureLeavesEngineUntouched(t *testing.T) {
	e := budget.New(d("0"))
	require.NoError(t, e.Load(budget.Snapshot{
		GrandTotal: d("1000"),
		Mode:       budget.ModePercentage,
		Categories: []budget.Category{{Name: "Keep"}},
		Fees:       []budget.Fee{{Name: "Existing", Type: budget.FeeFixed, Value: d("50")}},
	}))
	before := e.Snapshot()

	err := Import(e, [][]string{
		header,
		{"FEES", "New fee", "", "5"},
		{"G", "A", "100", ""},
		{"G", "B", "0", "50"},
	})
	require.ErrorIs(t, err, ErrMixedMode)

	assert.Equal(t, before, e.Snapshot())
	require.Len(t, e.Fees(), 1)
	assert.Equal(t, "Existing", e.Fees()[0].Name)
}

func TestImportAmountSheetPreservesAmounts(t *testing.T) {
	e := budget.New(d("1"))
	e.SetAdminPct(d("5"))
	require.NoError(t, Import(e, [][]string{
		header,
		{"G", "A", "333", ""},
		{"G", "B", "667", ""},
	}))

	assert.Equal(t, budget.ModePreserveAmounts, e.Mode())
	assertDecimal(t, "1000", e.GrandTotal())
	assertDecimal(t, "5", e.AdminPct(), "settings outside the sheet survive")
	assertDecimal(t, "333", e.Categories()[0].Amount)
	assertDecimal(t, "33.3", e.Categories()[0].Percentage)
}

func TestImportedAmountsFollowGrandTotal(t *testing.T) {
	e := budget.New(d("0"))
	require.NoError(t, Import(e, [][]string{
		header,
		{"SCRIPT", "Script", "1000", ""},
		{"CREW", "Crew", "3000", ""},
		{"FEES", "Agency", "", "10"},
	}))
	assertDecimal(t, "4400", e.GrandTotal())
	assertDecimal(t, "4000", e.Subtotal())

	e.SetGrandTotal(d("8800"))
	assertDecimal(t, "8000", e.Subtotal())
	assertDecimal(t, "2000", e.Categories()[0].Amount)
	assertDecimal(t, "6000", e.Categories()[1].Amount)
	assertDecimal(t, "25", e.Categories()[0].Percentage)
	assertDecimal(t, "75", e.Categories()[1].Percentage)
}

func TestImportPercentageSheetKeepsGrandTotal(t *testing.T) {
	e := budget.New(d("2000"))
	require.NoError(t, Import(e, [][]string{
		header,
		{"G", "A", "", "25"},
		{"G", "B", "", "75"},
	}))

	assert.Equal(t, budget.ModePercentage, e.Mode())
	assertDecimal(t, "2000", e.GrandTotal())
	assertDecimal(t, "500", e.Categories()[0].Amount)
	assertDecimal(t, "1500", e.Categories()[1].Amount)
}

func TestExportRowsReimport(t *testing.T) {
	e := budget.New(d("0"))
	require.NoError(t, Import(e, [][]string{
		header,
		{"SCRIPT", "Writer", "3000", ""},
		{"POST", "Editing", "1000", ""},
		{"FEES", "Agency", "", "10"},
	}))

	rows := ExportRows(e.Snapshot())
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{"SCRIPT", "Writer", "3000", "75.00"}, rows[1])
	assert.Equal(t, []string{"FEES", "Agency", "", "10"}, rows[3])

	again := budget.New(d("0"))
	require.NoError(t, Import(again, rows))
	assertDecimal(t, e.GrandTotal().String(), again.GrandTotal())
	assertDecimal(t, "1000", again.Categories()[1].Amount)
}

func TestExportRowsPercentageLayout(t *testing.T) {
	e := budget.New(d("100"))
	e.AddCategory("Loose", "")
	e.AddCategory("Empty", "")

	rows := ExportRows(e.Snapshot())
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"OTHER", "Loose", "", "100.0000"}, rows[1])
	assert.Equal(t, []string{"OTHER", "Empty", "", "0.0000"}, rows[2])
}
