package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cardHTML = `
<html><body>
  <div class="product-card">
    <a href="/products/blue-dream">
      <h3 class="product-name">Blue Dream</h3>
    </a>
    <span class="brand">Acme Farms</span>
    <span class="strain">Hybrid</span>
    <span class="weight-size">3.5g</span>
    <span class="price">$45.00</span>
    <span class="stock">In Stock</span>
  </div>
  <div class="product-card">
    <a href="/products/og-kush">
      <h3 class="product-name">OG Kush</h3>
    </a>
    <span class="price">$1,200.00</span>
  </div>
</body></html>`

func TestScrapeProducts_Cards(t *testing.T) {
	records, err := ScrapeProducts(cardHTML)
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "Blue Dream", first.ProductName)
	assert.Equal(t, "Acme Farms", first.Brand)
	assert.Equal(t, "Hybrid", first.StrainType)
	assert.Equal(t, "3.5g", first.Size)
	require.NotNil(t, first.Price)
	assert.Equal(t, 45.0, *first.Price)
	assert.Equal(t, "in_stock", first.StockStatus)
	assert.Empty(t, first.ProductID, "DOM records carry no IDs")

	second := records[1]
	assert.Equal(t, "OG Kush", second.ProductName)
	assert.Empty(t, second.Brand)
	require.NotNil(t, second.Price)
	assert.Equal(t, 1200.0, *second.Price, "thousands separator stripped")
}

func TestScrapeProducts_AnchorWithoutCard(t *testing.T) {
	html := `<html><body><a href="/products/x">  Lone   Product  </a></body></html>`
	records, err := ScrapeProducts(html)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Lone Product", records[0].ProductName, "whitespace collapsed")
	assert.Nil(t, records[0].Price)
}

func TestScrapeProducts_NoProducts(t *testing.T) {
	records, err := ScrapeProducts(`<html><body><p>Nothing here</p></body></html>`)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected *float64
	}{
		{"dollar amount", "$45.00", f(45)},
		{"with commas", "$1,234.50", f(1234.5)},
		{"no digits", "Sale!", nil},
		{"zero is absent", "$0", nil},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parsePrice(tt.text)
			if tt.expected == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, *tt.expected, *got)
			}
		})
	}
}

func f(v float64) *float64 { return &v }
