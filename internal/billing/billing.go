// Package billing turns lists of dish labels into priced bills backed by a
// menu catalog.
package billing

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/traybill/traybill/internal/catalog"
)

// ErrIndexOutOfRange is returned by Correct for line indices outside the bill.
var ErrIndexOutOfRange = errors.New("line item index out of range")

// LineItem is one priced line of a bill. Fallback marks lines priced with the
// catalog's fallback entry because the label was not on the menu.
type LineItem struct {
	Index    int    `json:"id"`
	Label    string `json:"item"`
	Price    int64  `json:"price"`
	Calories int    `json:"calories"`
	Fallback bool   `json:"fallback,omitempty"`
}

// Bill is a priced set of line items with aggregate totals. Totals are always
// recomputed from the lines, never carried over.
type Bill struct {
	Items         []LineItem `json:"bill_details"`
	TotalCost     int64      `json:"total_cost"`
	TotalCalories int        `json:"total_calories"`
}

// Biller prices dish labels against a catalog.
type Biller struct {
	catalog *catalog.Catalog
}

// NewBiller returns a biller over the given catalog. A nil catalog gets the
// built-in default menu.
func NewBiller(c *catalog.Catalog) *Biller {
	if c == nil {
		c = catalog.Default()
	}
	return &Biller{catalog: c}
}

// Calculate prices each label in order. Labels missing from the menu are
// priced with the fallback entry but keep their original label on the line,
// so the customer still sees what was detected.
func (b *Biller) Calculate(labels []string) Bill {
	bill := Bill{Items: make([]LineItem, 0, len(labels))}
	for i, label := range labels {
		entry, ok := b.catalog.Lookup(label)
		if !ok {
			fb := b.catalog.Fallback()
			slog.Warn("label not on menu, using fallback pricing",
				"label", label, "price", fb.Price, "calories", fb.Calories)
			entry = fb
		}
		bill.Items = append(bill.Items, LineItem{
			Index:    i,
			Label:    label,
			Price:    entry.Price,
			Calories: entry.Calories,
			Fallback: !ok,
		})
	}
	return withTotals(bill.Items)
}

// Correct replaces the label of one line item and reprices the whole bill.
// The input bill is never mutated; totals of the returned bill are recomputed
// from scratch.
func (b *Biller) Correct(bill Bill, index int, newLabel string) (Bill, error) {
	if index < 0 || index >= len(bill.Items) {
		return Bill{}, fmt.Errorf("%w: %d (bill has %d items)", ErrIndexOutOfRange, index, len(bill.Items))
	}

	items := make([]LineItem, len(bill.Items))
	copy(items, bill.Items)

	entry, ok := b.catalog.Lookup(newLabel)
	if !ok {
		entry = b.catalog.Fallback()
	}
	items[index].Label = newLabel
	items[index].Price = entry.Price
	items[index].Calories = entry.Calories
	items[index].Fallback = !ok

	return withTotals(items), nil
}

// Lookup exposes the underlying catalog lookup for callers that need to
// validate a label before correcting a bill.
func (b *Biller) Lookup(label string) (catalog.Entry, bool) {
	return b.catalog.Lookup(label)
}

func withTotals(items []LineItem) Bill {
	bill := Bill{Items: items}
	for i := range items {
		items[i].Index = i
		bill.TotalCost += items[i].Price
		bill.TotalCalories += items[i].Calories
	}
	return bill
}
