package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/menu-crawler/internal/types"
)

func TestBuildCaptureTargets_OrderAndLabels(t *testing.T) {
	tabs := []types.Link{
		{Text: "Flower", URL: "https://x.com/menu?c=flower"},
		{Text: "", URL: "https://x.com/menu?c=vape"},
	}
	deals := []string{"https://x.com/deals"}

	targets := BuildCaptureTargets("https://x.com/menu", tabs, deals)
	require.Len(t, targets, 4)
	assert.Equal(t, types.CaptureTarget{Label: "all", URL: "https://x.com/menu"}, targets[0])
	assert.Equal(t, types.CaptureTarget{Label: "Flower", URL: "https://x.com/menu?c=flower"}, targets[1])
	assert.Equal(t, types.CaptureTarget{Label: "category", URL: "https://x.com/menu?c=vape"}, targets[2])
	assert.Equal(t, types.CaptureTarget{Label: "deals", URL: "https://x.com/deals"}, targets[3])
}

func TestBuildCaptureTargets_DeduplicatedByURL(t *testing.T) {
	tabs := []types.Link{
		{Text: "All Products", URL: "https://x.com/menu"},
		{Text: "Deals", URL: "https://x.com/deals"},
	}
	deals := []string{"https://x.com/deals", "https://x.com/specials"}

	targets := BuildCaptureTargets("https://x.com/menu", tabs, deals)
	require.Len(t, targets, 3)
	assert.Equal(t, "all", targets[0].Label, "current page wins over tab with same URL")
	assert.Equal(t, "Deals", targets[1].Label, "first discovery wins")
	assert.Equal(t, "https://x.com/specials", targets[2].URL)
}

func TestBuildCaptureTargets_SkipsEmptyURLs(t *testing.T) {
	targets := BuildCaptureTargets("https://x.com/menu", []types.Link{{Text: "Bad", URL: ""}}, nil)
	require.Len(t, targets, 1)
	assert.Equal(t, "all", targets[0].Label)
}

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"Flower", "flower"},
		{"Pre-Rolls", "pre-rolls"},
		{"Deals & Events!", "deals_events"},
		{"  ", "section"},
		{"", "section"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, sanitizeLabel(tt.in), "input %q", tt.in)
	}
}
