// Package document reads and writes the JSON budget document.
package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/theirongolddev/allot/internal/budget"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ErrMalformed wraps every decode failure that is not a JSON syntax error.
var ErrMalformed = errors.New("malformed budget document")

// Document is the on-disk layout. Numbers are kept as json.Number so that
// amounts survive a save/load cycle without float rounding.
type Document struct {
	GrandTotal     json.Number `json:"grand_total"`
	AdminPct       json.Number `json:"admin_pct"`
	ContingencyPct json.Number `json:"contingency_pct"`
	Categories     []Category  `json:"categories"`
	Groups         []Group     `json:"groups"`
	Fees           []Fee       `json:"fees"`
	ImportMode     string      `json:"import_mode,omitempty"`
	// KeepCategoryAmounts marks a budget whose imported amounts are still
	// authoritative.
	KeepCategoryAmounts bool `json:"keep_category_amounts,omitempty"`
}

// Category is one category record. Group items repeat the full record.
type Category struct {
	ID             string       `json:"id,omitempty"`
	Name           string       `json:"name"`
	Percentage     json.Number  `json:"percentage"`
	Amount         json.Number  `json:"amount"`
	AmountOverride *json.Number `json:"amount_override"`
	LockType       int          `json:"lock_type"`
}

type Group struct {
	Name  string     `json:"name"`
	Items []Category `json:"items"`
}

type Fee struct {
	Name    string      `json:"name"`
	FeeType string      `json:"fee_type,omitempty"`
	Value   json.Number `json:"value"`
}

const (
	modeAmount     = "amount"
	modePercentage = "percentage"
)

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func parseNumber(n json.Number, field string) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(string(n))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %v", ErrMalformed, field, err)
	}
	return d, nil
}

func encodeCategory(c budget.Category) Category {
	rec := Category{
		ID:         c.ID.String(),
		Name:       c.Name,
		Percentage: number(c.Percentage),
		Amount:     number(c.Amount),
		LockType:   int(c.Lock),
	}
	if c.AmountOverride != nil {
		o := number(*c.AmountOverride)
		rec.AmountOverride = &o
	}
	return rec
}

// Encode converts engine state to its document form. Groups carry the full
// category records of their members, in member order.
func Encode(s budget.Snapshot) Document {
	doc := Document{
		GrandTotal:     number(s.GrandTotal),
		AdminPct:       number(s.AdminPct),
		ContingencyPct: number(s.ContingencyPct),
		Categories:     make([]Category, 0, len(s.Categories)),
		Groups:         make([]Group, 0, len(s.Groups)),
		Fees:           make([]Fee, 0, len(s.Fees)),
	}
	byID := make(map[uuid.UUID]Category, len(s.Categories))
	for _, c := range s.Categories {
		rec := encodeCategory(c)
		doc.Categories = append(doc.Categories, rec)
		byID[c.ID] = rec
	}
	for _, g := range s.Groups {
		out := Group{Name: g.Label, Items: make([]Category, 0, len(g.Members))}
		for _, id := range g.Members {
			if rec, ok := byID[id]; ok {
				out.Items = append(out.Items, rec)
			}
		}
		doc.Groups = append(doc.Groups, out)
	}
	for _, f := range s.Fees {
		doc.Fees = append(doc.Fees, Fee{Name: f.Name, FeeType: string(f.Type), Value: number(f.Value)})
	}

	switch s.Mode {
	case budget.ModeAmount:
		doc.ImportMode = modeAmount
	case budget.ModePercentage:
		doc.ImportMode = modePercentage
	case budget.ModePreserveAmounts:
		doc.ImportMode = modePercentage
		doc.KeepCategoryAmounts = true
	}
	return doc
}

// Decode turns a document into engine input. Missing fields take their zero
// value, a missing fee_type means percentage and a missing import_mode means
// amount. Derived values in the document are carried over but the engine
// recomputes them on Load.
func Decode(doc Document) (budget.Snapshot, error) {
	var s budget.Snapshot
	var err error
	if s.GrandTotal, err = parseNumber(doc.GrandTotal, "grand_total"); err != nil {
		return s, err
	}
	if s.AdminPct, err = parseNumber(doc.AdminPct, "admin_pct"); err != nil {
		return s, err
	}
	if s.ContingencyPct, err = parseNumber(doc.ContingencyPct, "contingency_pct"); err != nil {
		return s, err
	}

	switch strings.ToLower(strings.TrimSpace(doc.ImportMode)) {
	case "", modeAmount:
		s.Mode = budget.ModeAmount
	case modePercentage:
		s.Mode = budget.ModePercentage
	default:
		return s, fmt.Errorf("%w: import_mode %q", ErrMalformed, doc.ImportMode)
	}
	if doc.KeepCategoryAmounts {
		s.Mode = budget.ModePreserveAmounts
	}

	for i, rec := range doc.Categories {
		c, err := decodeCategory(rec)
		if err != nil {
			return s, fmt.Errorf("categories[%d]: %w", i, err)
		}
		s.Categories = append(s.Categories, c)
	}

	claimed := make(map[int]bool, len(s.Categories))
	for _, g := range doc.Groups {
		group := budget.Group{Label: g.Name}
		for _, item := range g.Items {
			i := resolve(s.Categories, claimed, item)
			if i < 0 {
				log.Warn().Str("group", g.Name).Str("item", item.Name).Msg("group item matches no category, dropped")
				continue
			}
			claimed[i] = true
			group.Members = append(group.Members, s.Categories[i].ID)
		}
		s.Groups = append(s.Groups, group)
	}

	for i, rec := range doc.Fees {
		typ, err := budget.ParseFeeType(rec.FeeType)
		if err != nil {
			return s, fmt.Errorf("fees[%d]: %w", i, err)
		}
		v, err := parseNumber(rec.Value, "value")
		if err != nil {
			return s, fmt.Errorf("fees[%d]: %w", i, err)
		}
		s.Fees = append(s.Fees, budget.Fee{Name: rec.Name, Type: typ, Value: v})
	}
	return s, nil
}

func decodeCategory(rec Category) (budget.Category, error) {
	c := budget.Category{Name: rec.Name, Lock: budget.LockType(rec.LockType)}
	if !c.Lock.Valid() {
		return c, fmt.Errorf("%w: lock_type %d", budget.ErrInvalidLockType, rec.LockType)
	}
	if rec.ID != "" {
		id, err := uuid.Parse(rec.ID)
		if err != nil {
			return c, fmt.Errorf("%w: id %q: %v", ErrMalformed, rec.ID, err)
		}
		c.ID = id
	} else {
		c.ID = uuid.New()
	}
	var err error
	if c.Percentage, err = parseNumber(rec.Percentage, "percentage"); err != nil {
		return c, err
	}
	if c.Amount, err = parseNumber(rec.Amount, "amount"); err != nil {
		return c, err
	}
	if rec.AmountOverride != nil && *rec.AmountOverride != "" {
		o, err := parseNumber(*rec.AmountOverride, "amount_override")
		if err != nil {
			return c, err
		}
		c.AmountOverride = &o
	}
	return c, nil
}

// resolve finds the category a group item refers to: by id when the item
// has one, otherwise the first unclaimed category with the same name.
func resolve(cats []budget.Category, claimed map[int]bool, item Category) int {
	if item.ID != "" {
		if id, err := uuid.Parse(item.ID); err == nil {
			for i, c := range cats {
				if c.ID == id {
					return i
				}
			}
		}
		return -1
	}
	for i, c := range cats {
		if !claimed[i] && c.Name == item.Name {
			return i
		}
	}
	return -1
}

// Marshal renders s as an indented document.
func Marshal(s budget.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(Encode(s), "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encoding budget: %w", err)
	}
	return append(data, '\n'), nil
}

// Unmarshal parses a document.
func Unmarshal(data []byte) (budget.Snapshot, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return budget.Snapshot{}, fmt.Errorf("parsing budget: %w", err)
	}
	return Decode(doc)
}

// Load reads the document at path.
func Load(path string) (budget.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return budget.Snapshot{}, fmt.Errorf("reading budget: %w", err)
	}
	s, err := Unmarshal(data)
	if err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Save overwrites the document at path, creating parent directories.
func Save(path string, s budget.Snapshot) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating budget dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing budget: %w", err)
	}
	log.Debug().Str("path", path).Int("bytes", len(data)).Msg("budget saved")
	return nil
}
