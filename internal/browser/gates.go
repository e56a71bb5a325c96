package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/chromedp/chromedp"
)

// apiResponsePattern matches URLs of backend responses worth scanning for
// product data.
var apiResponsePattern = regexp.MustCompile(`(?i)graphql|customer-api|gateway|api`)

// MatchesAPIPattern reports whether a response URL looks like a backend API
// call.
func MatchesAPIPattern(url string) bool {
	return apiResponsePattern.MatchString(url)
}

// gateSelectors are attribute-based candidates for consent/age-gate buttons.
var gateSelectors = []string{
	`button[id*="accept"]`,
	`button[class*="accept"]`,
	`button[data-test*="age"]`,
}

// gateButtonTexts are visible-text candidates for consent/age-gate buttons.
var gateButtonTexts = []string{"Accept all", "Accept", "I agree", "I am 21+", "Enter"}

// DismissGates best-effort clicks consent and age-gate buttons. Each attempt
// is bounded by a short timeout and failures are ignored; no state threads
// between attempts.
func (s *Session) DismissGates() {
	for _, sel := range gateSelectors {
		clickCtx, cancel := context.WithTimeout(s.ctx, gateClickTimeout)
		_ = chromedp.Run(clickCtx, chromedp.Click(sel, chromedp.NodeVisible))
		cancel()
	}

	texts, _ := json.Marshal(gateButtonTexts)
	script := fmt.Sprintf(`(() => {
		const texts = %s;
		for (const t of texts) {
			const btn = Array.from(document.querySelectorAll('button, [role="button"]'))
				.find((b) => (b.textContent || '').trim().toLowerCase() === t.toLowerCase());
			if (btn) { btn.click(); return true; }
		}
		return false;
	})()`, texts)

	clickCtx, cancel := context.WithTimeout(s.ctx, gateClickTimeout)
	_ = chromedp.Run(clickCtx, chromedp.Evaluate(script, nil))
	cancel()
}
