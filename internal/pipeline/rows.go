package pipeline

import (
	"net/url"
	"strings"

	"github.com/jonathan/menu-crawler/internal/types"
)

// competitorFromURL derives the competitor identifier from the second path
// segment of the menu URL (e.g. /dispensary/<competitor>).
func competitorFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "unknown"
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 || segments[1] == "" {
		return "unknown"
	}
	return segments[1]
}

// rowMeta carries the per-visit tags every persisted row shares.
type rowMeta struct {
	Timestamp  string
	Competitor string
	MenuURL    string
}

func productRow(meta rowMeta, source string, p types.ProductRecord) map[string]any {
	return map[string]any{
		"timestamp_iso": meta.Timestamp,
		"competitor":    meta.Competitor,
		"menu_url":      meta.MenuURL,
		"source":        source,
		"product_id":    nullString(p.ProductID),
		"variant_id":    nullString(p.VariantID),
		"product_name":  nullString(p.ProductName),
		"brand":         nullString(p.Brand),
		"category":      nullString(p.Category),
		"strain_type":   nullString(p.StrainType),
		"size":          nullString(p.Size),
		"price":         nullNumber(p.Price),
		"price_sale":    nullNumber(p.PriceSale),
		"thc_percent":   nullNumber(p.THCPercent),
		"cbd_percent":   nullNumber(p.CBDPercent),
		"stock_status":  nullString(p.StockStatus),
		"description":   nullString(p.Description),
	}
}

func ocrProductRow(meta rowMeta, p types.ProductRecord) map[string]any {
	return map[string]any{
		"timestamp_iso": meta.Timestamp,
		"competitor":    meta.Competitor,
		"menu_url":      meta.MenuURL,
		"page_label":    nullString(p.PageLabel),
		"source":        types.SourceOCRAI,
		"product_name":  nullString(p.ProductName),
		"brand":         nullString(p.Brand),
		"category":      nullString(p.Category),
		"size":          nullString(p.Size),
		"price":         nullNumber(p.Price),
		"price_sale":    nullNumber(p.PriceSale),
		"thc_percent":   nullNumber(p.THCPercent),
		"cbd_percent":   nullNumber(p.CBDPercent),
		"stock_status":  nullString(p.StockStatus),
	}
}

func promoRow(meta rowMeta, p types.PromotionRecord) map[string]any {
	return map[string]any{
		"timestamp_iso": meta.Timestamp,
		"competitor":    meta.Competitor,
		"menu_url":      meta.MenuURL,
		"page_label":    nullString(p.PageLabel),
		"source":        types.SourceOCRAI,
		"type":          nullString(p.Type),
		"title":         nullString(p.Title),
		"details":       nullString(p.Details),
		"discount_pct":  nullNumber(p.DiscountPct),
		"start_date":    nullString(p.StartDate),
		"end_date":      nullString(p.EndDate),
		"raw":           nullString(p.Raw),
	}
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullNumber(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
