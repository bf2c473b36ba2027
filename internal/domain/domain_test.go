package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ============================================================================
// ProductID / LineID
// ============================================================================

func TestProductID_AcceptsNumbersAndStrings(t *testing.T) {
	var got struct {
		A ProductID `json:"a"`
		B ProductID `json:"b"`
		C ProductID `json:"c"`
		D LineID    `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":42,"b":"sku-9","c":null,"d":1001}`), &got))

	assert.Equal(t, ProductID("42"), got.A)
	assert.Equal(t, ProductID("sku-9"), got.B)
	assert.Equal(t, ProductID(""), got.C)
	assert.Equal(t, LineID("1001"), got.D)
}

func TestProductID_RejectsObjects(t *testing.T) {
	var id ProductID
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &id))
}

// ============================================================================
// ParsePrice / ProductFromJSON
// ============================================================================

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{`50`, "50", true},
		{`"49.99"`, "49.99", true},
		{`" 12.5 "`, "12.5", true},
		{`null`, "0", false},
		{``, "0", false},
		{`"abc"`, "0", false},
	}

	for _, tt := range tests {
		got, ok := ParsePrice(json.RawMessage(tt.raw))
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.True(t, dec(tt.want).Equal(got), "%s: got %s", tt.raw, got)
	}
}

func TestProductFromJSON(t *testing.T) {
	raw := json.RawMessage(`{"id":7,"name":"Basmati Rice 5kg","price":"450.00","images":["a.jpg"]}`)

	p, err := ProductFromJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, ProductID("7"), p.ID)
	assert.True(t, dec("450").Equal(p.Price))
	assert.JSONEq(t, string(raw), string(p.Raw))
}

func TestProductFromJSON_SalePriceFallback(t *testing.T) {
	p, err := ProductFromJSON(json.RawMessage(`{"id":"A","sale_price":"30"}`))
	require.NoError(t, err)
	assert.True(t, dec("30").Equal(p.Price))
}

func TestProductFromJSON_NegativePriceClamped(t *testing.T) {
	p, err := ProductFromJSON(json.RawMessage(`{"id":"A","price":-5}`))
	require.NoError(t, err)
	assert.True(t, p.Price.IsZero())
}

func TestProductFromJSON_Errors(t *testing.T) {
	_, err := ProductFromJSON(json.RawMessage(`{"name":"no id"}`))
	assert.ErrorIs(t, err, ErrMissingProductID)

	_, err = ProductFromJSON(json.RawMessage(`[1,2]`))
	assert.Error(t, err)
}

func TestProduct_JSONRoundTripKeepsPayload(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"id":"A","price":10,"brand":"Tata"}`), &p))

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"A","price":10,"brand":"Tata"}`, string(out))

	out, err = json.Marshal(Product{ID: "B", Price: dec("2.5")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"B","price":"2.5"}`, string(out))
}

// ============================================================================
// Lines
// ============================================================================

func sampleLines() Lines {
	return Lines{
		{ProductID: "A", Quantity: 2, UnitPrice: dec("10")},
		{ProductID: "B", Quantity: 1, UnitPrice: dec("0.1")},
		{ProductID: "C", Quantity: 3, UnitPrice: dec("0.2")},
	}
}

func TestLines_Aggregates(t *testing.T) {
	ls := sampleLines()

	assert.Equal(t, 3, ls.Count())
	assert.Equal(t, 6, ls.TotalItems())
	assert.True(t, dec("20.7").Equal(ls.TotalPrice()), "got %s", ls.TotalPrice())
}

func TestLines_EmptyAggregates(t *testing.T) {
	var ls Lines
	assert.Zero(t, ls.Count())
	assert.Zero(t, ls.TotalItems())
	assert.True(t, ls.TotalPrice().IsZero())
}

func TestLines_Find(t *testing.T) {
	ls := sampleLines()
	assert.Equal(t, 1, ls.Find("B"))
	assert.Equal(t, -1, ls.Find("Z"))
}

func TestLines_CloneIsIndependent(t *testing.T) {
	ls := Lines{{ProductID: "A", Quantity: 1, Product: json.RawMessage(`{"id":"A"}`)}}
	c := ls.Clone()

	c[0].Quantity = 9
	c[0].Product[2] = 'X'

	assert.Equal(t, 1, ls[0].Quantity)
	assert.JSONEq(t, `{"id":"A"}`, string(ls[0].Product))
	assert.NotNil(t, Lines(nil).Clone())
}

func TestLines_Normalize(t *testing.T) {
	ls := Lines{
		{ProductID: "A", Quantity: 1, UnitPrice: dec("5")},
		{ProductID: "", Quantity: 1},
		{ProductID: "B", Quantity: 0},
		{ProductID: "C", Quantity: 1, UnitPrice: dec("-1")},
		{ProductID: "A", Quantity: 4, UnitPrice: dec("5")},
		{ProductID: "D", Quantity: 2, UnitPrice: dec("1")},
	}

	got := ls.Normalize()
	require.Len(t, got, 2)
	assert.Equal(t, ProductID("A"), got[0].ProductID)
	assert.Equal(t, 1, got[0].Quantity)
	assert.Equal(t, ProductID("D"), got[1].ProductID)
}

func TestNewLine(t *testing.T) {
	p := Product{ID: "A", Price: dec("50"), Raw: json.RawMessage(`{"id":"A","price":50}`)}
	l := NewLine(p, 3)

	assert.Equal(t, ProductID("A"), l.ProductID)
	assert.Equal(t, 3, l.Quantity)
	assert.True(t, dec("150").Equal(l.Subtotal()))
	assert.Empty(t, l.RemoteLineID)
}

func TestCartLine_MirrorEncoding(t *testing.T) {
	in := Lines{{ProductID: "A", Quantity: 2, UnitPrice: dec("12.50"), RemoteLineID: "77", Product: json.RawMessage(`{"id":"A"}`)}}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Lines
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out, 1)
	assert.Equal(t, LineID("77"), out[0].RemoteLineID)
	assert.True(t, dec("12.5").Equal(out[0].UnitPrice))
}

// ============================================================================
// Profile
// ============================================================================

func TestProfile_Merge(t *testing.T) {
	p := Profile{"id": float64(12), "name": "Asha", "phone": "98xxxxxx01"}
	merged := p.Merge(Profile{"name": "Asha K", "email": "asha@example.com"})

	assert.Equal(t, "Asha K", merged["name"])
	assert.Equal(t, "98xxxxxx01", merged["phone"])
	assert.Equal(t, "asha@example.com", merged["email"])
	assert.Equal(t, "Asha", p["name"], "original must not change")
}

func TestProfile_ID(t *testing.T) {
	assert.Equal(t, "12", Profile{"id": float64(12)}.ID())
	assert.Equal(t, "u-1", Profile{"id": "u-1"}.ID())
	assert.Equal(t, "", Profile{}.ID())
	assert.Equal(t, "", Profile(nil).ID())
}
