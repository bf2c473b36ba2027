package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ProductID identifies a product. The backend emits it as either a JSON
// number or a string; both decode to the same ProductID.
type ProductID string

func (id *ProductID) UnmarshalJSON(data []byte) error {
	s, err := flexString(data)
	if err != nil {
		return fmt.Errorf("product id: %w", err)
	}
	*id = ProductID(s)
	return nil
}

func (id ProductID) String() string { return string(id) }

// LineID is the backend's identifier for a confirmed cart line.
type LineID string

func (id *LineID) UnmarshalJSON(data []byte) error {
	s, err := flexString(data)
	if err != nil {
		return fmt.Errorf("line id: %w", err)
	}
	*id = LineID(s)
	return nil
}

func flexString(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		return "", nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return "", err
		}
		return n.String(), nil
	}
}

// ParsePrice reads a price the backend may send as a number, a numeric
// string or null. ok is false when the value is absent or not a number.
func ParsePrice(raw json.RawMessage) (price decimal.Decimal, ok bool) {
	s := strings.TrimSpace(string(raw))
	s = strings.Trim(s, `"`)
	if s == "" || s == "null" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ErrMissingProductID is returned when a product payload has no id.
var ErrMissingProductID = errors.New("product has no id")

// Product is a catalog product as far as the cart needs to understand it.
// Every other field is kept verbatim in Raw and never interpreted.
type Product struct {
	ID    ProductID
	Price decimal.Decimal
	Raw   json.RawMessage
}

// ProductFromJSON extracts the id and price of a product payload. The price
// falls back to sale_price and then to zero.
func ProductFromJSON(raw json.RawMessage) (Product, error) {
	var fields struct {
		ID        ProductID       `json:"id"`
		Price     json.RawMessage `json:"price"`
		SalePrice json.RawMessage `json:"sale_price"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Product{}, fmt.Errorf("decode product: %w", err)
	}
	if fields.ID == "" {
		return Product{}, ErrMissingProductID
	}

	price, ok := ParsePrice(fields.Price)
	if !ok {
		price, _ = ParsePrice(fields.SalePrice)
	}
	if price.IsNegative() {
		price = decimal.Zero
	}

	return Product{
		ID:    fields.ID,
		Price: price,
		Raw:   append(json.RawMessage(nil), raw...),
	}, nil
}

// MarshalJSON emits the original payload when there is one.
func (p Product) MarshalJSON() ([]byte, error) {
	if len(p.Raw) > 0 {
		return p.Raw, nil
	}
	return json.Marshal(struct {
		ID    ProductID       `json:"id"`
		Price decimal.Decimal `json:"price"`
	}{p.ID, p.Price})
}

func (p *Product) UnmarshalJSON(data []byte) error {
	parsed, err := ProductFromJSON(data)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
