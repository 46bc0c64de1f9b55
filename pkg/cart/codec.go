package cart

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// storedLine is the persisted shape of a line. Fields are optional on read.
type storedLine struct {
	ProductID string       `json:"productId"`
	Name      string       `json:"name,omitempty"`
	Price     *storedPrice `json:"price,omitempty"`
	Image     string       `json:"image,omitempty"`
	Quantity  *int         `json:"quantity,omitempty"`
}

// storedPrice writes a bare JSON number and reads either a number or a quoted string.
type storedPrice struct {
	decimal.Decimal
}

func (p storedPrice) MarshalJSON() ([]byte, error) {
	return []byte(p.Decimal.String()), nil
}

func encodeLines(lines []Line) ([]byte, error) {
	stored := make([]storedLine, 0, len(lines))
	for _, line := range lines {
		qty := line.Quantity
		stored = append(stored, storedLine{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Price:     &storedPrice{Decimal: line.Product.Price},
			Image:     line.Product.PrimaryImage(),
			Quantity:  &qty,
		})
	}
	return json.Marshal(stored)
}

// decodeLines restores lines from a persisted slot.
//
// A payload that is not a JSON array is an error. Individual entries that fail
// to decode, lack a product id, or carry a non-positive quantity or a negative
// price are skipped.
// A missing quantity counts as one and a missing price as zero. Repeated ids
// merge into the first occurrence.
func decodeLines(data []byte) ([]Line, int, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, fmt.Errorf("decode cart slot: %w", err)
	}

	lines := make([]Line, 0, len(raw))
	index := make(map[string]int, len(raw))
	skipped := 0
	for _, item := range raw {
		var entry storedLine
		if err := json.Unmarshal(item, &entry); err != nil || entry.ProductID == "" {
			skipped++
			continue
		}
		qty := 1
		if entry.Quantity != nil {
			qty = *entry.Quantity
		}
		if qty < 1 {
			skipped++
			continue
		}
		if pos, ok := index[entry.ProductID]; ok {
			lines[pos].Quantity += qty
			continue
		}

		product := Product{ID: entry.ProductID, Name: entry.Name}
		if entry.Price != nil {
			if entry.Price.IsNegative() {
				skipped++
				continue
			}
			product.Price = entry.Price.Decimal
		}
		if entry.Image != "" {
			product.Images = []string{entry.Image}
		}
		index[entry.ProductID] = len(lines)
		lines = append(lines, Line{Product: product, Quantity: qty})
	}
	return lines, skipped, nil
}
