package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addLineRequest struct {
	ProductID string          `json:"product_id" validate:"required,max=64"`
	Price     decimal.Decimal `json:"price" validate:"money"`
	Quantity  int             `json:"quantity" validate:"gte=1,lte=100"`
}

func TestValidate_Success(t *testing.T) {
	req := addLineRequest{ProductID: "p-1", Price: decimal.NewFromInt(10), Quantity: 2}
	assert.NoError(t, Validate(req))
}

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	err := Validate(addLineRequest{Price: decimal.Zero, Quantity: 1})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, map[string]string{"product_id": "is required"}, valErr.Fields())
}

func TestValidate_NegativeMoney(t *testing.T) {
	err := Validate(addLineRequest{ProductID: "p-1", Price: decimal.NewFromInt(-1), Quantity: 1})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be a non-negative amount", valErr.Fields()["price"])
}

func TestValidate_RangeMessages(t *testing.T) {
	err := Validate(addLineRequest{ProductID: "p-1", Quantity: 0})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be greater than or equal to 1", valErr.Fields()["quantity"])
	assert.Contains(t, err.Error(), "field 'quantity'")
}

func TestValidate_StringMaxMessage(t *testing.T) {
	err := Validate(addLineRequest{ProductID: strings.Repeat("x", 65), Quantity: 1})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be at most 64 characters", valErr.Fields()["product_id"])
}

func TestDecodeAndValidate(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":"p-9","price":"12.50","quantity":3}`))

	var req addLineRequest
	require.NoError(t, DecodeAndValidate(r, &req))
	assert.Equal(t, "p-9", req.ProductID)
	assert.True(t, req.Price.Equal(decimal.RequireFromString("12.50")))
	assert.Equal(t, 3, req.Quantity)
}

func TestDecodeAndValidate_BadJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{not json`))

	var req addLineRequest
	err := DecodeAndValidate(r, &req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}
