package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/menu-crawler/internal/types"
)

var (
	inStockPattern  = regexp.MustCompile(`(?i)true|in[_\s-]?stock`)
	lowStockPattern = regexp.MustCompile(`(?i)low`)
	outStockPattern = regexp.MustCompile(`(?i)out`)
)

// ClassifyStock maps free-text availability to a known stock status. Text
// matching none of the known tokens passes through unchanged; empty text
// stays empty.
func ClassifyStock(text string) string {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return ""
	case inStockPattern.MatchString(text):
		return types.StockInStock
	case lowStockPattern.MatchString(text):
		return types.StockLowStock
	case outStockPattern.MatchString(text):
		return types.StockOutOfStock
	}
	return text
}

// stringField returns the first key whose value stringifies to non-empty
// text, trimmed.
func stringField(node map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := stringify(node[key]); s != "" {
			return s
		}
	}
	return ""
}

// brandField handles the two brand shapes seen upstream: a plain string or an
// object with a name.
func brandField(node map[string]any) string {
	if brand, ok := node["brand"].(map[string]any); ok {
		if s := stringField(brand, "name"); s != "" {
			return s
		}
	}
	if s := stringField(node, "brandName"); s != "" {
		return s
	}
	if s, ok := node["brand"].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// numberField returns the first key that coerces to a finite number, or nil.
func numberField(node map[string]any, keys ...string) *float64 {
	for _, key := range keys {
		v, ok := node[key]
		if !ok || v == nil {
			continue
		}
		if f := coerceNumber(v); f != nil {
			return f
		}
	}
	return nil
}

func firstNumber(candidates ...*float64) *float64 {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}

// coerceNumber converts a decoded JSON value to a finite float, or nil. A
// value that fails to parse is absence, never an error.
func coerceNumber(v any) *float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

// truthy mirrors the loose presence test the shape heuristic needs: nil,
// false, empty strings and zero all count as absent.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return strings.TrimSpace(t) != ""
	case float64:
		return t != 0
	}
	return true
}

func anyTruthy(node map[string]any, keys ...string) bool {
	for _, key := range keys {
		if truthy(node[key]) {
			return true
		}
	}
	return false
}
