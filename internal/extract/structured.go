// Package extract turns intercepted structured network responses into
// normalized product records and removes duplicates across strategies.
package extract

import (
	"github.com/jonathan/menu-crawler/internal/types"
)

// maxWalkDepth bounds the traversal of pathological or self-referencing
// payloads. Menu responses observed in practice nest fewer than 20 levels.
const maxWalkDepth = 64

// FromResponse walks an arbitrarily nested decoded JSON value and returns one
// ProductRecord per variant of every product-shaped node. The shape heuristic
// is deliberately schema-free: the upstream response format is undocumented
// and shifts without notice. Records are not deduplicated here.
func FromResponse(v any) []types.ProductRecord {
	var out []types.ProductRecord
	walk(v, 0, func(node map[string]any) {
		out = append(out, recordsFromNode(node)...)
	})
	return out
}

func walk(v any, depth int, visit func(map[string]any)) {
	if depth > maxWalkDepth {
		return
	}
	switch t := v.(type) {
	case map[string]any:
		visit(t)
		for _, child := range t {
			walk(child, depth+1, visit)
		}
	case []any:
		for _, child := range t {
			walk(child, depth+1, visit)
		}
	}
}

// looksLikeProduct reports whether a node has a name-like field, a brand-like
// field, and at least one of a variant list or a price field.
func looksLikeProduct(node map[string]any) bool {
	if stringField(node, "name", "productName") == "" {
		return false
	}
	if brandField(node) == "" {
		return false
	}
	return anyTruthy(node, "variants", "options", "variantOptions", "price", "prices")
}

func recordsFromNode(node map[string]any) []types.ProductRecord {
	if !looksLikeProduct(node) {
		return nil
	}

	base := types.ProductRecord{
		ProductID:   stringField(node, "id", "_id", "productId"),
		ProductName: stringField(node, "name", "productName"),
		Brand:       brandField(node),
		Category:    stringField(node, "category", "categoryName", "type"),
		StrainType:  stringField(node, "strainType", "strain"),
		Description: stringField(node, "description"),
	}

	variants, selfVariant := variantList(node)

	var recs []types.ProductRecord
	for _, v := range variants {
		variant, _ := v.(map[string]any)

		rec := base
		sizeKeys := []string{"size", "unit", "weight", "option", "name"}
		if selfVariant {
			// The node stands in for its own variant; its name is the
			// product name, not a size label.
			sizeKeys = sizeKeys[:4]
			rec.VariantID = ""
		} else {
			rec.VariantID = stringField(variant, "id", "_id", "variantId")
		}
		rec.Size = stringField(variant, sizeKeys...)
		rec.Price = firstNumber(
			numberField(variant, "price", "unitPrice", "retailPrice"),
			numberField(node, "price", "retailPrice"),
		)
		rec.PriceSale = numberField(variant, "salePrice", "specialPrice", "discountPrice")
		rec.THCPercent = firstNumber(
			numberField(variant, "thcPercent", "potencyThc", "thc"),
			numberField(node, "thcPercent", "potencyThc"),
		)
		rec.CBDPercent = firstNumber(
			numberField(variant, "cbdPercent", "potencyCbd", "cbd"),
			numberField(node, "cbdPercent", "potencyCbd"),
		)
		rec.StockStatus = ClassifyStock(availabilityText(variant, node))

		recs = append(recs, rec)
	}
	return recs
}

// variantList resolves the node's variant list, or a singleton list holding
// the node itself so base-level price fields still produce one record. The
// second return reports the self-variant case.
func variantList(node map[string]any) ([]any, bool) {
	for _, key := range []string{"variants", "options", "variantOptions"} {
		v, ok := node[key]
		if !ok || !truthy(v) {
			continue
		}
		if arr, ok := v.([]any); ok {
			return arr, false
		}
		return []any{v}, false
	}
	return []any{node}, true
}

// availabilityText stringifies the variant's availability field, falling back
// to the parent node. Boolean inStock values stringify to "true"/"false" so
// the classifier sees them.
func availabilityText(variant, node map[string]any) string {
	if s := stringField(variant, "availability", "inStock"); s != "" {
		return s
	}
	return stringField(node, "availability")
}
