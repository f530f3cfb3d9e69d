package sheet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultRange covers the four import columns of the first sheet.
const DefaultRange = "A:D"

// GoogleSheet reads a range of a Google spreadsheet.
type GoogleSheet struct {
	svc           *gsheet.Service
	spreadsheetID string
	rng           string
}

// NewGoogleSheet builds a read-only Sheets client. Callers pass credentials
// as client options; see CredentialsOption.
func NewGoogleSheet(ctx context.Context, spreadsheetID, rng string, opts ...option.ClientOption) (*GoogleSheet, error) {
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if rng == "" {
		rng = DefaultRange
	}
	opts = append([]option.ClientOption{option.WithScopes(gsheet.SpreadsheetsReadonlyScope)}, opts...)
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &GoogleSheet{svc: svc, spreadsheetID: spreadsheetID, rng: rng}, nil
}

// CredentialsOption loads a service account key from inline JSON or a file,
// preferring the JSON.
func CredentialsOption(credentialsJSON, credentialsFile string) (option.ClientOption, error) {
	switch {
	case credentialsJSON != "":
		return option.WithCredentialsJSON([]byte(credentialsJSON)), nil
	case credentialsFile != "":
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return option.WithCredentialsJSON(data), nil
	}
	return nil, errors.New("missing service account credentials (set ALLOT_GOOGLE_CREDENTIALS or google.credentials_file)")
}

// Rows fetches unformatted values so that numbers arrive without currency
// symbols or locale grouping.
func (g *GoogleSheet) Rows(ctx context.Context) ([][]string, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, g.rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", g.rng, err)
	}
	log.Debug().Str("spreadsheet", g.spreadsheetID).Str("range", g.rng).Int("rows", len(resp.Values)).Msg("sheet fetched")

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, len(raw))
		for i, v := range raw {
			row[i] = cellString(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}
