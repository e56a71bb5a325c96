// Package pipeline sequences the extraction strategies for each menu page:
// structured-response capture first, DOM fallback on empty result, then the
// OCR+AI secondary pass across discovered capture targets.
package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/menu-crawler/internal/config"
	"github.com/jonathan/menu-crawler/internal/store"
	"github.com/jonathan/menu-crawler/internal/types"
)

// Page is the rendered-page collaborator. One page is exclusively owned by
// one visit; methods are called sequentially.
type Page interface {
	// Listen registers the handler for intercepted API-like XHR/fetch
	// response bodies.
	Listen(handler func(url string, body []byte))
	Navigate(url string) error
	DismissGates()
	// WaitSettle blocks until network activity quiets or timeout; timing out
	// degrades to proceeding with whatever state exists.
	WaitSettle(timeout time.Duration)
	ScrollToBottom() error
	HTML() (string, error)
	Screenshot() ([]byte, error)
	Location() (string, error)
	Close()
}

// OCRReader turns an image into plain text.
type OCRReader interface {
	Text(ctx context.Context, image []byte) (string, error)
}

// AIExtractor turns raw OCR text into structured products and promotions,
// also returning the raw response for audit persistence.
type AIExtractor interface {
	Extract(ctx context.Context, rawText string) (*types.AIExtraction, []byte, error)
}

// Notifier delivers the end-of-run summary.
type Notifier interface {
	Ping(ctx context.Context, text string) error
}

// Deps are the collaborators a Crawler drives. OCR and AI may be nil when the
// corresponding feature is disabled or unconfigured; the secondary pass
// degrades accordingly.
type Deps struct {
	NewPage    func() (Page, error)
	OCR        OCRReader
	AI         AIExtractor
	Primary    store.Dataset
	OCRDataset store.Dataset
	KV         store.KeyValueStore
	Notifier   Notifier
	Logger     zerolog.Logger
}

// visitTimeout bounds the worst-case duration of one page visit, hung
// collaborators included. Exceeding it fails only that visit.
var visitTimeout = 120 * time.Second

// Crawler runs page visits over a bounded worker pool. Each visit owns fresh
// accumulator state; nothing is shared across visits except the sinks, which
// are append-only.
type Crawler struct {
	cfg  config.Config
	deps Deps
	now  func() time.Time
}

func NewCrawler(cfg config.Config, deps Deps) *Crawler {
	return &Crawler{cfg: cfg, deps: deps, now: time.Now}
}

// Run visits every start URL with bounded concurrency. A failed page visit is
// reported and does not affect other queued pages; Run itself only fails on
// context cancellation.
func (c *Crawler) Run(ctx context.Context) error {
	var failed atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(c.cfg.MaxConcurrency)
	for _, pageURL := range c.cfg.StartURLs {
		g.Go(func() error {
			visitCtx, cancel := context.WithTimeout(ctx, visitTimeout)
			defer cancel()
			if err := c.Visit(visitCtx, pageURL); err != nil {
				failed.Add(1)
				c.deps.Logger.Error().Err(err).Str("url", pageURL).Msg("page visit failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	c.summarize(ctx, int(failed.Load()))
	return nil
}

func (c *Crawler) summarize(ctx context.Context, failed int) {
	ocrRows := 0
	if c.deps.OCRDataset != nil {
		if n, err := c.deps.OCRDataset.Count(ctx); err == nil {
			ocrRows = n
		} else {
			c.deps.Logger.Debug().Err(err).Msg("ocr dataset count unavailable")
		}
	}

	total := len(c.cfg.StartURLs)
	c.deps.Logger.Info().
		Int("pages", total).
		Int("failed", failed).
		Int("ocr_rows", ocrRows).
		Msg("run complete")

	if c.deps.Notifier == nil {
		return
	}
	msg := fmt.Sprintf("menu crawl done: %d/%d pages ok, OCR rows: %d",
		total-failed, total, ocrRows)
	if err := c.deps.Notifier.Ping(ctx, msg); err != nil {
		c.deps.Logger.Warn().Err(err).Msg("run summary notification failed")
	}
}
