package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CartLine is one product's presence in the cart.
type CartLine struct {
	ProductID    ProductID       `json:"product_id"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	RemoteLineID LineID          `json:"remote_line_id,omitempty"`
	Product      json.RawMessage `json:"product,omitempty"`
}

// Subtotal is quantity times unit price.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Lines is an ordered list of cart lines, in the order they were added.
// The wishlist uses the same shape and never sets RemoteLineID.
type Lines []CartLine

// Find returns the index of the line for id, or -1.
func (ls Lines) Find(id ProductID) int {
	for i := range ls {
		if ls[i].ProductID == id {
			return i
		}
	}
	return -1
}

// Count is the number of distinct products.
func (ls Lines) Count() int { return len(ls) }

// TotalItems is the sum of all quantities.
func (ls Lines) TotalItems() int {
	var n int
	for _, l := range ls {
		n += l.Quantity
	}
	return n
}

// TotalPrice is the sum of every line's subtotal.
func (ls Lines) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, l := range ls {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Clone returns a copy that shares no mutable state with ls.
func (ls Lines) Clone() Lines {
	if ls == nil {
		return Lines{}
	}
	out := make(Lines, len(ls))
	for i, l := range ls {
		l.Product = append(json.RawMessage(nil), l.Product...)
		out[i] = l
	}
	return out
}

// Normalize drops lines that break the list invariants: empty ids,
// quantities below one, negative prices and repeated product ids (the
// first occurrence wins). It is applied to anything read back from storage.
func (ls Lines) Normalize() Lines {
	out := make(Lines, 0, len(ls))
	seen := make(map[ProductID]struct{}, len(ls))
	for _, l := range ls {
		if l.ProductID == "" || l.Quantity < 1 || l.UnitPrice.IsNegative() {
			continue
		}
		if _, dup := seen[l.ProductID]; dup {
			continue
		}
		seen[l.ProductID] = struct{}{}
		out = append(out, l)
	}
	return out
}

// NewLine builds a line for a product at the given quantity.
func NewLine(p Product, qty int) CartLine {
	return CartLine{
		ProductID: p.ID,
		Quantity:  qty,
		UnitPrice: p.Price,
		Product:   p.Raw,
	}
}
