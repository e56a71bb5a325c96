// Package dom extracts product data and navigation links from rendered page
// markup. It is the fallback strategy when no structured responses matched.
package dom

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/menu-crawler/internal/extract"
	"github.com/jonathan/menu-crawler/internal/types"
)

// maxCards caps how many candidate anchors one page can contribute.
const maxCards = 1000

const (
	candidateSelector = `a[href*="/products/"], [data-test*="product"], [data-testid*="product"]`
	cardSelector      = `[class*="product"], [data-test*="product"]`
	nameSelector      = `h3, h2, [data-test*="name"], [class*="name"]`
	brandSelector     = `[data-test*="brand"], [class*="brand"]`
	priceSelector     = `[data-test*="price"], [class*="price"]`
	sizeSelector      = `[data-test*="size"], [class*="size"], [class*="weight"]`
	strainSelector    = `[data-test*="strain"], [class*="strain"], [class*="type"]`
	stockSelector     = `[data-test*="stock"], [class*="stock"], [class*="availability"]`
)

var (
	numericToken = regexp.MustCompile(`[\d,.]+`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// ScrapeProducts extracts product records from rendered HTML in document
// order. Missing fields yield empty values, never errors; records carry no
// product or variant IDs. No dedup happens here.
func ScrapeProducts(html string) ([]types.ProductRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &ScrapeError{Message: "failed to parse HTML", Cause: err}
	}

	var records []types.ProductRecord
	doc.Find(candidateSelector).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= maxCards {
			return false
		}
		root := sel.Closest(cardSelector)
		if root.Length() == 0 {
			root = sel
		}

		name := cleanText(root.Find(nameSelector).First().Text())
		if name == "" {
			name = cleanText(sel.Text())
		}

		records = append(records, types.ProductRecord{
			ProductName: name,
			Brand:       cleanText(root.Find(brandSelector).First().Text()),
			StrainType:  cleanText(root.Find(strainSelector).First().Text()),
			Size:        cleanText(root.Find(sizeSelector).First().Text()),
			Price:       parsePrice(cleanText(root.Find(priceSelector).First().Text())),
			StockStatus: extract.ClassifyStock(cleanText(root.Find(stockSelector).First().Text())),
		})
		return true
	})

	return records, nil
}

// parsePrice takes the first numeric token from price-labeled text, stripping
// thousands separators. Unparseable or zero prices are absent.
func parsePrice(text string) *float64 {
	token := numericToken.FindString(text)
	if token == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(token, ",", ""), 64)
	if err != nil || f == 0 {
		return nil
	}
	return &f
}

func cleanText(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
