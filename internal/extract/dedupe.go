package extract

import (
	"strconv"
	"strings"

	"github.com/jonathan/menu-crawler/internal/types"
)

// keySeparator joins identity key parts. Pipes do not appear in product IDs,
// names or size labels upstream.
const keySeparator = "|"

// IdentityKey builds the composite dedup key for a product record. Absent
// fields coerce to empty strings so records from ID-less sources still compare.
func IdentityKey(p types.ProductRecord) string {
	return strings.Join([]string{
		p.ProductID,
		p.VariantID,
		p.ProductName,
		p.Size,
		formatKeyNumber(p.Price),
		formatKeyNumber(p.PriceSale),
	}, keySeparator)
}

// Deduplicate collapses records sharing an identity key, keeping the first
// occurrence and preserving first-seen order. Applying it twice is a no-op.
func Deduplicate(items []types.ProductRecord) []types.ProductRecord {
	seen := make(map[string]struct{}, len(items))
	out := make([]types.ProductRecord, 0, len(items))
	for _, p := range items {
		key := IdentityKey(p)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

func formatKeyNumber(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
