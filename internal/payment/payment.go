// Package payment handles the two shapes the metodo_pago column can take:
// a bare method name for single-method sales, or a JSON array of
// {metodo, monto} entries when a sale was split across methods.
package payment

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Entry is one method/amount pair of a split payment.
type Entry struct {
	Metodo string  `json:"metodo"`
	Monto  float64 `json:"monto"`
}

// Descriptor is either Simple (Itemized empty) or Itemized (Simple empty).
type Descriptor struct {
	Simple   string
	Itemized []Entry
}

// Decode parses a stored metodo_pago value. Anything that is not a valid
// JSON array of entries is treated as a bare method name, so legacy rows
// keep working.
func Decode(raw string) Descriptor {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "[") {
		var entries []Entry
		if err := json.Unmarshal([]byte(trimmed), &entries); err == nil && len(entries) > 0 {
			return Descriptor{Itemized: entries}
		}
	}
	return Descriptor{Simple: raw}
}

// Encode returns the column value for a descriptor.
func (d Descriptor) Encode() (string, error) {
	if len(d.Itemized) == 0 {
		return d.Simple, nil
	}
	b, err := json.Marshal(d.Itemized)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// MarshalJSON keeps the historical API shape: a string for simple payments
// and an array for split ones.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	if len(d.Itemized) == 0 {
		return json.Marshal(d.Simple)
	}
	return json.Marshal(d.Itemized)
}

// UnmarshalJSON accepts either shape from request bodies.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*d = Descriptor{Simple: s}
		return nil
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*d = Descriptor{Itemized: entries}
	return nil
}

// Total returns the amount covered by the descriptor. Simple descriptors
// carry no amount of their own, so fallback is returned for them.
func (d Descriptor) Total(fallback float64) float64 {
	if len(d.Itemized) == 0 {
		return fallback
	}
	sum := decimal.Zero
	for _, e := range d.Itemized {
		sum = sum.Add(decimal.NewFromFloat(e.Monto))
	}
	f, _ := sum.Round(2).Float64()
	return f
}

// NormalizeMethod maps method names to the canonical uppercase labels used
// in closing-report breakdowns.
func NormalizeMethod(m string) string {
	return strings.ToUpper(strings.TrimSpace(m))
}

// SumByMethod accumulates a sale's payment into totals, keyed by
// normalized method name. Simple sales attribute their full total to the
// single method.
func SumByMethod(totals map[string]float64, raw string, saleTotal float64) {
	d := Decode(raw)
	if len(d.Itemized) == 0 {
		key := NormalizeMethod(d.Simple)
		if key == "" {
			key = "EFECTIVO"
		}
		totals[key] = add(totals[key], saleTotal)
		return
	}
	for _, e := range d.Itemized {
		key := NormalizeMethod(e.Metodo)
		totals[key] = add(totals[key], e.Monto)
	}
}

func add(a, b float64) float64 {
	f, _ := decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Round(2).Float64()
	return f
}
