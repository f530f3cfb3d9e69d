package sheet

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Source yields the raw rows of a sheet, header included.
type Source interface {
	Rows(ctx context.Context) ([][]string, error)
}

// File reads a local .xlsx or .csv file.
type File struct {
	Path string
}

func (f File) Rows(_ context.Context) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(f.Path)
	case ".csv", ".tsv", ".txt":
		fh, err := os.Open(f.Path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", f.Path, err)
		}
		defer fh.Close()
		return ReadCSV(fh)
	}
	return nil, fmt.Errorf("unsupported sheet format %q (want .xlsx or .csv)", filepath.Ext(f.Path))
}

// ReadXLSX returns the rows of the workbook's active sheet as raw cell
// values, so number formatting never leaks into parsing.
func ReadXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	name := f.GetSheetName(f.GetActiveSheetIndex())
	if name == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrNoRows)
	}
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", name, err)
	}
	return rows, nil
}

// ReadCSV reads comma, semicolon or tab separated rows. The separator is
// guessed from the header line.
func ReadCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffSeparator(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func sniffSeparator(data []byte) rune {
	sc := bufio.NewScanner(bytes.NewReader(data))
	if !sc.Scan() {
		return ','
	}
	header := sc.Text()
	best, count := ',', strings.Count(header, ",")
	for _, sep := range []rune{';', '\t'} {
		if n := strings.Count(header, string(sep)); n > count {
			best, count = sep, n
		}
	}
	return best
}
