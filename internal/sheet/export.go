package sheet

import (
	"fmt"
	"strconv"

	"github.com/theirongolddev/allot/internal/budget"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// Header is the first row written by ExportRows. Parse skips it.
var Header = []string{"Group", "Description", "Amount", "Percentage"}

// ExportRows renders a budget in the import layout so that it can be edited
// in a spreadsheet and imported again. Categories carry amounts when every
// category has one, otherwise percentages, since Parse refuses a mix.
func ExportRows(s budget.Snapshot) [][]string {
	amounts := len(s.Categories) > 0
	for _, c := range s.Categories {
		if !c.Amount.IsPositive() {
			amounts = false
			break
		}
	}

	group := make(map[uuid.UUID]string, len(s.Categories))
	for _, g := range s.Groups {
		for _, id := range g.Members {
			group[id] = g.Label
		}
	}

	rows := [][]string{Header}
	for _, c := range s.Categories {
		label := group[c.ID]
		if label == "" {
			label = "OTHER"
		}
		if amounts {
			rows = append(rows, []string{label, c.Name, c.Amount.String(), c.Percentage.StringFixed(2)})
		} else {
			rows = append(rows, []string{label, c.Name, "", c.Percentage.StringFixed(4)})
		}
	}
	for _, f := range s.Fees {
		if f.Type == budget.FeeFixed {
			rows = append(rows, []string{FeesPrefix, f.Name, f.Value.String(), ""})
		} else {
			rows = append(rows, []string{FeesPrefix, f.Name, "", f.Value.String()})
		}
	}
	return rows
}

// WriteXLSX saves rows to a new workbook at path. Cells that hold numbers
// are written as numbers.
func WriteXLSX(path string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			if n, err := strconv.ParseFloat(v, 64); err == nil && i > 0 {
				values[j] = n
			} else {
				values[j] = v
			}
		}
		if err := f.SetSheetRow(sheet, cellRef, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}
