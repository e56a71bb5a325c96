package pipeline

import (
	"regexp"
	"strings"

	"github.com/jonathan/menu-crawler/internal/types"
)

var labelSanitizer = regexp.MustCompile(`[^\w-]+`)

// BuildCaptureTargets assembles the OCR capture list: the current page first
// (labeled "all"), then category tabs, then deals links, deduplicated by URL
// in first-discovery order.
func BuildCaptureTargets(pageURL string, tabs []types.Link, deals []string) []types.CaptureTarget {
	candidates := make([]types.CaptureTarget, 0, 1+len(tabs)+len(deals))
	candidates = append(candidates, types.CaptureTarget{Label: "all", URL: pageURL})
	for _, tab := range tabs {
		label := tab.Text
		if label == "" {
			label = "category"
		}
		candidates = append(candidates, types.CaptureTarget{Label: label, URL: tab.URL})
	}
	for _, u := range deals {
		candidates = append(candidates, types.CaptureTarget{Label: "deals", URL: u})
	}

	seen := make(map[string]bool, len(candidates))
	targets := make([]types.CaptureTarget, 0, len(candidates))
	for _, t := range candidates {
		if t.URL == "" || seen[t.URL] {
			continue
		}
		seen[t.URL] = true
		targets = append(targets, t)
	}
	return targets
}

// sanitizeLabel makes a capture label safe for blob keys and file names.
func sanitizeLabel(label string) string {
	label = strings.ToLower(labelSanitizer.ReplaceAllString(label, "_"))
	label = strings.Trim(label, "_")
	if label == "" {
		return "section"
	}
	return label
}
