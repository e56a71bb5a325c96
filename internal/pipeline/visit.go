package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonathan/menu-crawler/internal/dom"
	"github.com/jonathan/menu-crawler/internal/extract"
	"github.com/jonathan/menu-crawler/internal/promos"
	"github.com/jonathan/menu-crawler/internal/types"
)

// Settle-barrier timing. The accumulator must not be read before the initial
// settle completes; capture targets get a shorter wait since the heavy assets
// loaded already.
var (
	initialSettleTimeout = 60 * time.Second
	scrollSettleTimeout  = 10 * time.Second
	captureSettleTimeout = 15 * time.Second
	settlePause          = 600 * time.Millisecond
)

// Visit runs the full extraction state machine for one listing page. Only a
// failure to open or navigate the page, or an exhausted visit deadline, is
// returned; everything else degrades per target or per field.
func (c *Crawler) Visit(ctx context.Context, pageURL string) error {
	page, err := c.deps.NewPage()
	if err != nil {
		return fmt.Errorf("failed to open page: %w", err)
	}
	defer page.Close()

	logger := c.deps.Logger.With().Str("url", pageURL).Logger()
	logger.Info().Msg("visiting menu page")

	acc := NewAccumulator()
	page.Listen(func(respURL string, body []byte) {
		var payload any
		if err := json.Unmarshal(body, &payload); err != nil {
			logger.Debug().Str("response", respURL).Msg("structured response parse skipped")
			return
		}
		if found := extract.FromResponse(payload); len(found) > 0 {
			acc.Add(found...)
		}
	})

	if err := page.Navigate(pageURL); err != nil {
		return err
	}
	page.DismissGates()

	// Settle barrier: network idle plus the configured fixed delay, then
	// lazy-load scrolling and a short post-scroll settle.
	page.WaitSettle(initialSettleTimeout)
	pause(time.Duration(c.cfg.WaitForNetworkIdleMs) * time.Millisecond)
	if err := page.ScrollToBottom(); err != nil {
		logger.Debug().Err(err).Msg("lazy-load scroll failed")
	}
	page.WaitSettle(scrollSettleTimeout)
	pause(settlePause)

	items := acc.Snapshot()
	source := types.SourceGraphQL
	if len(items) == 0 {
		logger.Warn().Msg("structured responses yielded 0 items, falling back to DOM scrape")
		source = types.SourceDOM
		items = c.scrapeDOM(page, logger)
	}
	items = extract.Deduplicate(items)

	meta := rowMeta{
		Timestamp:  c.now().UTC().Format(time.RFC3339),
		Competitor: competitorFromURL(pageURL),
		MenuURL:    pageURL,
	}
	for _, p := range items {
		if err := c.deps.Primary.Push(ctx, productRow(meta, source, p)); err != nil {
			logger.Warn().Err(err).Msg("primary dataset push failed")
		}
	}
	logger.Info().Int("count", len(items)).Str("source", source).Msg("primary extraction complete")

	if c.cfg.UseOCRBackup && c.deps.OCR != nil {
		c.secondaryPass(ctx, page, pageURL, meta, logger)
	}

	// A visit that ran out its deadline counts as failed even though every
	// step past navigation degrades instead of aborting.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("page visit aborted: %w", err)
	}
	return nil
}

func (c *Crawler) scrapeDOM(page Page, logger zerolog.Logger) []types.ProductRecord {
	html, err := page.HTML()
	if err != nil {
		logger.Warn().Err(err).Msg("page HTML unavailable for DOM fallback")
		return nil
	}
	items, err := dom.ScrapeProducts(html)
	if err != nil {
		logger.Warn().Err(err).Msg("DOM scrape failed")
		return nil
	}
	return items
}

type capturedShot struct {
	label string
	url   string
	image []byte
}

// secondaryPass drives the OCR+AI pipeline across capture targets. It runs
// regardless of the primary pass outcome and never propagates failures.
func (c *Crawler) secondaryPass(ctx context.Context, page Page, pageURL string, meta rowMeta, logger zerolog.Logger) {
	tabs, deals := c.discoverLinks(page, pageURL, logger)

	var shots []capturedShot
	if len(tabs) == 0 && len(deals) == 0 {
		// Nothing discovered: one best-effort capture of the current page.
		if img, err := page.Screenshot(); err != nil {
			logger.Warn().Err(err).Msg("menu capture failed")
		} else {
			shots = append(shots, capturedShot{label: "menu", url: pageURL, image: img})
		}
	} else {
		targets := BuildCaptureTargets(pageURL, tabs, deals)
		for _, target := range targets {
			img, err := c.captureTarget(page, target)
			if err != nil {
				logger.Warn().Err(err).Str("target", target.URL).Msg("capture failed, skipping target")
				continue
			}
			shots = append(shots, capturedShot{label: sanitizeLabel(target.Label), url: target.URL, image: img})
		}
		if len(shots) == 0 {
			if img, err := page.Screenshot(); err != nil {
				logger.Warn().Err(err).Msg("menu capture failed")
			} else {
				shots = append(shots, capturedShot{label: "menu", url: pageURL, image: img})
			}
		}
	}

	var ocrProducts []types.ProductRecord
	var ocrPromos []types.PromotionRecord

	for _, shot := range shots {
		products, promoRecs := c.processShot(ctx, shot, logger)
		ocrProducts = append(ocrProducts, products...)
		ocrPromos = append(ocrPromos, promoRecs...)
	}

	if len(ocrProducts) == 0 && len(ocrPromos) == 0 {
		return
	}
	for _, p := range ocrProducts {
		if err := c.deps.OCRDataset.Push(ctx, ocrProductRow(meta, p)); err != nil {
			logger.Warn().Err(err).Msg("ocr dataset push failed")
		}
	}
	for _, p := range ocrPromos {
		if err := c.deps.OCRDataset.Push(ctx, promoRow(meta, p)); err != nil {
			logger.Warn().Err(err).Msg("ocr dataset push failed")
		}
	}
	logger.Info().
		Int("products", len(ocrProducts)).
		Int("promos", len(ocrPromos)).
		Str("dataset", c.deps.OCRDataset.Name()).
		Msg("ocr extraction complete")
}

func (c *Crawler) discoverLinks(page Page, pageURL string, logger zerolog.Logger) ([]types.Link, []string) {
	html, err := page.HTML()
	if err != nil {
		logger.Warn().Err(err).Msg("page HTML unavailable for target discovery")
		return nil, nil
	}
	tabs, err := dom.FindCategoryTabs(html, pageURL)
	if err != nil {
		logger.Debug().Err(err).Msg("category tab discovery failed")
	}
	deals, err := dom.FindDealsLinks(html, pageURL)
	if err != nil {
		logger.Debug().Err(err).Msg("deals link discovery failed")
	}
	return tabs, deals
}

// captureTarget navigates (when needed), scrolls and screenshots one target.
// Any error fails just this target.
func (c *Crawler) captureTarget(page Page, target types.CaptureTarget) ([]byte, error) {
	loc, err := page.Location()
	if err != nil {
		return nil, err
	}
	if target.URL != loc {
		if err := page.Navigate(target.URL); err != nil {
			return nil, err
		}
		page.DismissGates()
		page.WaitSettle(captureSettleTimeout)
		pause(settlePause)
	}
	if err := page.ScrollToBottom(); err != nil {
		return nil, err
	}
	pause(settlePause)
	return page.Screenshot()
}

// processShot persists the audit blobs for one capture and harvests heuristic
// and AI records from its OCR text.
func (c *Crawler) processShot(ctx context.Context, shot capturedShot, logger zerolog.Logger) ([]types.ProductRecord, []types.PromotionRecord) {
	if err := c.deps.KV.Set(ctx, "screenshot_"+shot.label+".png", shot.image, "image/png"); err != nil {
		logger.Warn().Err(err).Str("label", shot.label).Msg("screenshot blob save failed")
	}

	rawText, err := c.deps.OCR.Text(ctx, shot.image)
	if err != nil {
		logger.Warn().Err(err).Str("label", shot.label).Msg("ocr failed, skipping target")
		return nil, nil
	}
	if err := c.deps.KV.Set(ctx, "ocr_raw_"+shot.label+".txt", []byte(rawText), "text/plain; charset=utf-8"); err != nil {
		logger.Warn().Err(err).Str("label", shot.label).Msg("ocr text blob save failed")
	}

	var products []types.ProductRecord
	var promoRecs []types.PromotionRecord

	if c.cfg.PromoHeuristicsEnabled {
		for _, promo := range promos.ExtractLines(rawText) {
			promo.PageLabel = shot.label
			promoRecs = append(promoRecs, promo)
		}
	}

	if c.deps.AI != nil {
		parsed, raw, err := c.deps.AI.Extract(ctx, rawText)
		if err != nil {
			logger.Warn().Err(err).Str("label", shot.label).Msg("ai extraction failed")
			return products, promoRecs
		}
		for _, p := range parsed.Products {
			products = append(products, p.Record(shot.label))
		}
		for _, p := range parsed.Promotions {
			promoRecs = append(promoRecs, p.Record(shot.label))
		}
		if err := c.deps.KV.Set(ctx, "ocr_ai_"+shot.label+".json", raw, "application/json; charset=utf-8"); err != nil {
			logger.Warn().Err(err).Str("label", shot.label).Msg("ai response blob save failed")
		}
	}

	return products, promoRecs
}

func pause(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}
