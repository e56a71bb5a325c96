package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStock(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"empty stays empty", "", ""},
		{"whitespace only", "   ", ""},
		{"boolean true", "true", "in_stock"},
		{"in stock phrase", "In Stock", "in_stock"},
		{"in-stock hyphen", "in-stock", "in_stock"},
		{"in_stock underscore", "IN_STOCK", "in_stock"},
		{"low stock", "Low stock - 3 left", "low_stock"},
		{"out of stock", "Out of stock", "out_of_stock"},
		{"sold out", "sold out", "out_of_stock"},
		{"unknown passes through", "backordered", "backordered"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyStock(tt.text))
		})
	}
}

func TestBrandField(t *testing.T) {
	tests := []struct {
		name     string
		node     map[string]any
		expected string
	}{
		{"object brand", map[string]any{"brand": map[string]any{"name": "Acme"}}, "Acme"},
		{"string brand", map[string]any{"brand": "Acme"}, "Acme"},
		{"brandName key", map[string]any{"brandName": "Acme"}, "Acme"},
		{"object wins over brandName", map[string]any{"brand": map[string]any{"name": "A"}, "brandName": "B"}, "A"},
		{"empty object falls through", map[string]any{"brand": map[string]any{}, "brandName": "B"}, "B"},
		{"trimmed", map[string]any{"brand": "  Acme  "}, "Acme"},
		{"absent", map[string]any{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, brandField(tt.node))
		})
	}
}

func TestCoerceNumber(t *testing.T) {
	require.Nil(t, coerceNumber(nil))
	require.Nil(t, coerceNumber("not a number"))
	require.Nil(t, coerceNumber(true))

	v := coerceNumber(12.5)
	require.NotNil(t, v)
	assert.Equal(t, 12.5, *v)

	v = coerceNumber(" 45.00 ")
	require.NotNil(t, v)
	assert.Equal(t, 45.0, *v)
}

func TestTruthy(t *testing.T) {
	assert.False(t, truthy(nil))
	assert.False(t, truthy(false))
	assert.False(t, truthy(""))
	assert.False(t, truthy("  "))
	assert.False(t, truthy(0.0))
	assert.True(t, truthy(true))
	assert.True(t, truthy("x"))
	assert.True(t, truthy(1.0))
	assert.True(t, truthy([]any{}))
}
