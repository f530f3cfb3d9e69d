package document

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/theirongolddev/allot/internal/budget"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleEngine(t *testing.T) *budget.Engine {
	t.Helper()
	e := budget.New(d("0"))
	require.NoError(t, e.Load(budget.Snapshot{
		GrandTotal:     d("11000"),
		AdminPct:       d("5"),
		ContingencyPct: d("10"),
		Mode:           budget.ModePercentage,
		Categories: []budget.Category{
			{Name: "Writer", Percentage: d("40")},
			{Name: "Crew", Percentage: d("35"), Lock: budget.LockPercentage},
			{Name: "Editing", Percentage: d("25")},
		},
		Fees: []budget.Fee{{Name: "Agency", Type: budget.FeePercentage, Value: d("10")}},
	}))
	cats := e.Categories()
	s := e.Snapshot()
	s.Groups = []budget.Group{{Label: "Script", Members: []uuid.UUID{cats[0].ID}}}
	require.NoError(t, e.Load(s))
	require.NoError(t, e.SetLockType(2, budget.LockAmount))
	require.NoError(t, e.SetCategoryAmount(2, d("2500")))
	return e
}

func TestRoundTripReproducesProjection(t *testing.T) {
	e := sampleEngine(t)
	path := filepath.Join(t.TempDir(), "nested", "budget.json")
	require.NoError(t, Save(path, e.Snapshot()))

	s, err := Load(path)
	require.NoError(t, err)
	loaded := budget.New(d("0"))
	require.NoError(t, loaded.Load(s))

	assert.Equal(t, e.Mode(), loaded.Mode())
	assert.True(t, e.Subtotal().Equal(loaded.Subtotal()))
	assert.True(t, e.ComputedGrandTotal().Equal(loaded.ComputedGrandTotal()))
	assert.True(t, loaded.AdminPct().Equal(d("5")))

	want, got := e.Categories(), loaded.Categories()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Name, got[i].Name)
		assert.Equal(t, want[i].Lock, got[i].Lock)
		assert.True(t, want[i].Amount.Equal(got[i].Amount), "amount of %s", want[i].Name)
	}
	require.NotNil(t, got[2].AmountOverride)
	assert.True(t, got[2].AmountOverride.Equal(d("2500")))

	require.Len(t, loaded.Groups(), 1)
	assert.Equal(t, []uuid.UUID{want[0].ID}, loaded.Groups()[0].Members)
}

func TestMarshalLayout(t *testing.T) {
	data, err := Marshal(sampleEngine(t).Snapshot())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(data), "{\n    \"grand_total\": 11000,"), string(data[:40]))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "percentage", raw["import_mode"])
	assert.NotContains(t, raw, "keep_category_amounts")

	cats := raw["categories"].([]any)
	first := cats[0].(map[string]any)
	assert.Nil(t, first["amount_override"])
	assert.Contains(t, first, "amount_override", "null overrides are written out")
	assert.EqualValues(t, 0, first["lock_type"])

	groups := raw["groups"].([]any)
	items := groups[0].(map[string]any)["items"].([]any)
	assert.Equal(t, "Writer", items[0].(map[string]any)["name"])

	fees := raw["fees"].([]any)
	assert.Equal(t, "percentage", fees[0].(map[string]any)["fee_type"])
}

func TestDecodeDefaults(t *testing.T) {
	s, err := Unmarshal([]byte(`{
		"grand_total": 1000,
		"categories": [{"name": "A", "percentage": 60}, {"name": "B"}],
		"fees": [{"name": "Agency"}]
	}`))
	require.NoError(t, err)

	assert.Equal(t, budget.ModeAmount, s.Mode)
	assert.True(t, s.AdminPct.IsZero())
	assert.True(t, s.ContingencyPct.IsZero())
	require.Len(t, s.Categories, 2)
	assert.Equal(t, budget.Unlocked, s.Categories[1].Lock)
	assert.Nil(t, s.Categories[0].AmountOverride)
	assert.NotEqual(t, s.Categories[0].ID, s.Categories[1].ID)
	require.Len(t, s.Fees, 1)
	assert.Equal(t, budget.FeePercentage, s.Fees[0].Type)
	assert.True(t, s.Fees[0].Value.IsZero())
}

func TestDecodeKeepCategoryAmounts(t *testing.T) {
	s, err := Unmarshal([]byte(`{"import_mode": "percentage", "keep_category_amounts": true}`))
	require.NoError(t, err)
	assert.Equal(t, budget.ModePreserveAmounts, s.Mode)

	data, err := Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"keep_category_amounts": true`)
}

func TestDecodeGroupsByName(t *testing.T) {
	s, err := Unmarshal([]byte(`{
		"categories": [{"name": "Dup"}, {"name": "Dup"}, {"name": "Solo"}],
		"groups": [
			{"name": "First", "items": [{"name": "Dup"}]},
			{"name": "Second", "items": [{"name": "Dup"}, {"name": "Missing"}]}
		]
	}`))
	require.NoError(t, err)
	require.Len(t, s.Groups, 2)
	assert.Equal(t, []uuid.UUID{s.Categories[0].ID}, s.Groups[0].Members)
	assert.Equal(t, []uuid.UUID{s.Categories[1].ID}, s.Groups[1].Members)

	e := budget.New(d("0"))
	assert.NoError(t, e.Load(s))
}

func TestDecodeRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"lock type", `{"categories": [{"name": "A", "lock_type": 5}]}`},
		{"fee type", `{"fees": [{"name": "F", "fee_type": "bonus"}]}`},
		{"import mode", `{"import_mode": "both"}`},
		{"category id", `{"categories": [{"id": "nope", "name": "A"}]}`},
		{"syntax", `{"grand_total": }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestDecodeAcceptsQuotedNumbers(t *testing.T) {
	s, err := Unmarshal([]byte(`{"grand_total": "1500.5"}`))
	require.NoError(t, err)
	assert.True(t, s.GrandTotal.Equal(d("1500.5")))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
