// Package types defines the canonical record shapes shared across the crawl pipeline.
package types

// Source values tag which extraction strategy produced a record.
const (
	SourceGraphQL = "graphql"
	SourceDOM     = "dom"
	SourceOCRAI   = "ocr+ai"
)

// Known stock-status values derived from free-text availability fields.
// Availability text that matches none of the known tokens passes through
// unchanged, so consumers must treat this as an open vocabulary.
const (
	StockInStock    = "in_stock"
	StockLowStock   = "low_stock"
	StockOutOfStock = "out_of_stock"
)

// PromotionTypeHeuristic marks promotion rows produced by the line heuristics
// rather than AI extraction.
const PromotionTypeHeuristic = "promotion_or_event"

// ProductRecord is one normalized product entry. String fields use "" for
// absent values; numeric fields use nil. Records from DOM and OCR sources
// carry no product or variant IDs.
type ProductRecord struct {
	ProductID   string
	VariantID   string
	ProductName string
	Brand       string
	Category    string
	StrainType  string
	Size        string
	Price       *float64
	PriceSale   *float64
	THCPercent  *float64
	CBDPercent  *float64
	StockStatus string
	Description string
	PageLabel   string
}

// PromotionRecord is a free-form promotional or event entry. The heuristic
// extractor fills only Type, Details and Raw; the AI path may fill the rest.
type PromotionRecord struct {
	Title       string
	Details     string
	DiscountPct *float64
	StartDate   string
	EndDate     string
	Type        string
	Raw         string
	PageLabel   string
}

// CaptureTarget is one labeled URL slated for a full-page screenshot in the
// OCR pipeline. Targets are discovered once per listing-page visit,
// deduplicated by URL, and consumed exactly once.
type CaptureTarget struct {
	Label string
	URL   string
}

// Link is a discovered anchor with its visible text.
type Link struct {
	Text string
	URL  string
}

// AIExtraction is the decoded payload of one AI extraction call.
type AIExtraction struct {
	Products   []AIProduct   `json:"products"`
	Promotions []AIPromotion `json:"promotions"`
}

// AIProduct mirrors the product entries the AI extraction collaborator
// returns. Numeric fields use Number so loosely typed model output (numeric
// strings, nulls) coerces instead of failing the decode.
type AIProduct struct {
	ProductName string `json:"product_name"`
	Brand       string `json:"brand"`
	Category    string `json:"category"`
	Size        string `json:"size"`
	Price       Number `json:"price"`
	PriceSale   Number `json:"price_sale"`
	THCPercent  Number `json:"thc_percent"`
	CBDPercent  Number `json:"cbd_percent"`
	StockStatus string `json:"stock_status"`
}

// Record converts an AI product entry to the canonical shape, tagged with the
// capture target's label.
func (p AIProduct) Record(pageLabel string) ProductRecord {
	return ProductRecord{
		ProductName: p.ProductName,
		Brand:       p.Brand,
		Category:    p.Category,
		Size:        p.Size,
		Price:       p.Price.Float,
		PriceSale:   p.PriceSale.Float,
		THCPercent:  p.THCPercent.Float,
		CBDPercent:  p.CBDPercent.Float,
		StockStatus: p.StockStatus,
		PageLabel:   pageLabel,
	}
}

// AIPromotion mirrors the promotion entries the AI extraction collaborator
// returns.
type AIPromotion struct {
	Title       string `json:"title"`
	Details     string `json:"details"`
	DiscountPct Number `json:"discount_pct"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Type        string `json:"type"`
	Raw         string `json:"raw"`
}

// Record converts an AI promotion entry to the canonical shape, tagged with
// the capture target's label.
func (p AIPromotion) Record(pageLabel string) PromotionRecord {
	return PromotionRecord{
		Title:       p.Title,
		Details:     p.Details,
		DiscountPct: p.DiscountPct.Float,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		Type:        p.Type,
		Raw:         p.Raw,
		PageLabel:   pageLabel,
	}
}
