package dom

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/menu-crawler/internal/types"
)

const tabSelector = `[data-test*="category"] a, [role="tab"] a, nav a[href*="category"]`

// categoryWords match the visible text of category tab links on menu pages.
var categoryWords = []string{"Flower", "Pre", "Vape", "Edible", "Concentrate", "Topical", "Tincture"}

var dealsTextPattern = regexp.MustCompile(`(?i)\b(deal|special|sale|event|vendor|happy hour)`)

// FindCategoryTabs discovers category-tab links in rendered HTML, resolved
// against baseURL and deduplicated by URL in document order.
func FindCategoryTabs(html, baseURL string) ([]types.Link, error) {
	doc, base, err := parseDoc(html, baseURL)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var tabs []types.Link

	add := func(sel *goquery.Selection) {
		href := resolveHref(sel, base)
		if href == "" || seen[href] {
			return
		}
		seen[href] = true
		tabs = append(tabs, types.Link{Text: cleanText(sel.Text()), URL: href})
	}

	doc.Find(tabSelector).Each(func(_ int, sel *goquery.Selection) {
		add(sel)
	})
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		text := cleanText(sel.Text())
		for _, word := range categoryWords {
			if strings.Contains(text, word) {
				add(sel)
				return
			}
		}
	})

	return tabs, nil
}

// FindDealsLinks discovers deals/specials/event links by anchor text,
// resolved against baseURL and deduplicated in document order.
func FindDealsLinks(html, baseURL string) ([]string, error) {
	doc, base, err := parseDoc(html, baseURL)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		if !dealsTextPattern.MatchString(cleanText(sel.Text())) {
			return
		}
		href := resolveHref(sel, base)
		if href == "" || seen[href] {
			return
		}
		seen[href] = true
		links = append(links, href)
	})

	return links, nil
}

func parseDoc(html, baseURL string) (*goquery.Document, *url.URL, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, nil, &ScrapeError{Message: "invalid base URL: " + baseURL, Cause: err}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, nil, &ScrapeError{Message: "failed to parse HTML", Cause: err}
	}
	return doc, base, nil
}

func resolveHref(sel *goquery.Selection, base *url.URL) string {
	href, ok := sel.Attr("href")
	if !ok || href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	return resolved.String()
}
