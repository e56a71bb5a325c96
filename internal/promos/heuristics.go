// Package promos identifies promotional and event lines in raw OCR text.
package promos

import (
	"regexp"
	"strings"

	"github.com/jonathan/menu-crawler/internal/types"
)

var (
	percentOffPattern = regexp.MustCompile(`(?i)%\s*off`)
	keywordPattern    = regexp.MustCompile(`(?i)\b(BOGO|bundle|deal|sale|special|happy hour|buy\s+\d+\s+get|flash|vendor day|vendor[-\s]?night|pop[-\s]?up|event)\b`)
)

// ExtractLines classifies each non-empty trimmed line of OCR text
// independently as a promotion/event candidate. Matching lines become records
// with the raw line text only; dates, discounts and titles are left for the
// AI path to fill.
func ExtractLines(rawText string) []types.PromotionRecord {
	var promos []types.PromotionRecord
	for _, line := range strings.Split(rawText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if percentOffPattern.MatchString(line) || keywordPattern.MatchString(line) {
			promos = append(promos, types.PromotionRecord{
				Type:    types.PromotionTypeHeuristic,
				Details: line,
				Raw:     line,
			})
		}
	}
	return promos
}
