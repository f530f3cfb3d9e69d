package budget

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// rowJSON is the wire form of every Row kind, told apart by Type.
type rowJSON struct {
	Type        string           `json:"type"`
	Index       *int             `json:"index,omitempty"`
	ID          *uuid.UUID       `json:"id,omitempty"`
	Group       string           `json:"group,omitempty"`
	Description string           `json:"description"`
	Amount      decimal.Decimal  `json:"amount"`
	Percentage  *decimal.Decimal `json:"percentage,omitempty"`
	Lock        string           `json:"lock,omitempty"`
	FeeType     FeeType          `json:"fee_type,omitempty"`
	OverBudget  bool             `json:"over_budget,omitempty"`
}

func toRowJSON(r Row) rowJSON {
	switch r := r.(type) {
	case CategoryRow:
		return rowJSON{
			Type: "category", Index: &r.Index, ID: &r.ID, Group: r.Group,
			Description: r.Description, Amount: r.Amount, Percentage: &r.Percentage,
			Lock: r.Lock.String(), OverBudget: r.OverBudget,
		}
	case GroupTotalRow:
		return rowJSON{Type: "group_total", Group: r.Label, Description: r.Label, Amount: r.Amount, Percentage: &r.Percentage}
	case SubtotalRow:
		base := hundred
		return rowJSON{Type: "subtotal", Description: SubtotalLabel, Amount: r.Amount, Percentage: &base}
	case FeeRow:
		return rowJSON{
			Type: "fee", Index: &r.Index, Description: r.Description,
			Amount: r.Amount, Percentage: &r.Percentage, FeeType: r.Type,
		}
	case GrandTotalRow:
		return rowJSON{Type: "grand_total", Description: GrandTotalLabel, Amount: r.Amount}
	}
	return rowJSON{Type: "unknown"}
}

// MarshalJSON writes the rows in display order, each tagged with its type.
func (p Projection) MarshalJSON() ([]byte, error) {
	rows := make([]rowJSON, len(p.Rows))
	for i, r := range p.Rows {
		rows[i] = toRowJSON(r)
	}
	return json.Marshal(struct {
		Mode       string               `json:"mode"`
		OverBudget bool                 `json:"over_budget"`
		Summary    Summary              `json:"summary"`
		Groups     map[string]GroupRows `json:"groups"`
		Rows       []rowJSON            `json:"rows"`
	}{p.Mode.String(), p.OverBudget, p.Summary, p.Groups, rows})
}
