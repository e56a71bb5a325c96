// Package browser drives a headless Chrome page session for menu crawling.
// One session owns one page and is never shared across page visits.
package browser

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options configures one browser session.
type Options struct {
	Headless          bool
	ProxyServer       string
	ViewportWidth     int
	ViewportHeight    int
	NavigationTimeout time.Duration
}

const (
	defaultViewportWidth  = 1440
	defaultViewportHeight = 2000
	defaultNavTimeout     = 60 * time.Second

	gateClickTimeout = 1500 * time.Millisecond
	scrollAttempts   = 12
	scrollPauseMs    = 300
	settleProbe      = 250 * time.Millisecond
)

// ResponseHandler receives the body of one intercepted API-like response.
type ResponseHandler func(url string, body []byte)

// Session is a live Chrome page. Methods are not safe for concurrent use;
// the owning page-visit worker calls them sequentially.
type Session struct {
	ctx     context.Context
	cancels []context.CancelFunc
	opts    Options
	log     zerolog.Logger

	mu      sync.Mutex
	handler ResponseHandler
	pending map[network.RequestID]string

	inflight  atomic.Int64
	fetching  atomic.Int64
	fetchBody func(reqID network.RequestID) ([]byte, error)
}

// NewSession launches a browser page and enables network interception.
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	if opts.ViewportWidth == 0 {
		opts.ViewportWidth = defaultViewportWidth
	}
	if opts.ViewportHeight == 0 {
		opts.ViewportHeight = defaultViewportHeight
	}
	if opts.NavigationTimeout == 0 {
		opts.NavigationTimeout = defaultNavTimeout
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.ProxyServer != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.ProxyServer))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	pageCtx, cancelPage := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:     pageCtx,
		cancels: []context.CancelFunc{cancelPage, cancelAlloc},
		opts:    opts,
		log:     log.With().Str("component", "browser").Logger(),
		pending: make(map[network.RequestID]string),
	}
	s.fetchBody = func(reqID network.RequestID) ([]byte, error) {
		c := chromedp.FromContext(s.ctx)
		return network.GetResponseBody(reqID).Do(cdp.WithExecutor(s.ctx, c.Target))
	}
	chromedp.ListenTarget(pageCtx, s.onEvent)

	err := chromedp.Run(pageCtx,
		network.Enable(),
		chromedp.EmulateViewport(int64(opts.ViewportWidth), int64(opts.ViewportHeight)),
	)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start browser session: %w", err)
	}
	return s, nil
}

// Listen registers the handler for intercepted XHR/fetch responses whose URL
// looks API-like. Responses arriving before Listen are dropped.
func (s *Session) Listen(handler func(url string, body []byte)) {
	s.mu.Lock()
	s.handler = handler
	s.mu.Unlock()
}

func (s *Session) onEvent(ev any) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		s.inflight.Add(1)
	case *network.EventLoadingFinished:
		s.inflight.Add(-1)
		s.onLoadingFinished(e.RequestID)
	case *network.EventLoadingFailed:
		s.inflight.Add(-1)
		s.mu.Lock()
		delete(s.pending, e.RequestID)
		s.mu.Unlock()
	case *network.EventResponseReceived:
		s.onResponse(e)
	}
}

// onResponse only records the request; the body is not retrievable until the
// matching loadingFinished event arrives.
func (s *Session) onResponse(e *network.EventResponseReceived) {
	if e.Type != network.ResourceTypeXHR && e.Type != network.ResourceTypeFetch {
		return
	}
	if !MatchesAPIPattern(e.Response.URL) {
		return
	}
	s.mu.Lock()
	s.pending[e.RequestID] = e.Response.URL
	s.mu.Unlock()
}

func (s *Session) onLoadingFinished(reqID network.RequestID) {
	s.mu.Lock()
	respURL, ok := s.pending[reqID]
	delete(s.pending, reqID)
	handler := s.handler
	s.mu.Unlock()
	if !ok || handler == nil {
		return
	}

	// Fetch off the event goroutine so the CDP event loop is never blocked.
	// The fetching counter keeps WaitSettle from declaring quiet while a body
	// is still being delivered to the handler.
	s.fetching.Add(1)
	go func() {
		defer s.fetching.Add(-1)
		body, err := s.fetchBody(reqID)
		if err != nil {
			s.log.Debug().Err(err).Str("url", respURL).Msg("response body unavailable")
			return
		}
		handler(respURL, body)
	}()
}

// Navigate loads the URL and waits for the body element, bounded by the
// session's navigation timeout.
func (s *Session) Navigate(url string) error {
	navCtx, cancel := context.WithTimeout(s.ctx, s.opts.NavigationTimeout)
	defer cancel()
	err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	)
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// WaitSettle blocks until no network requests are in flight and no response
// bodies are still being delivered, across two consecutive probes, or until
// timeout. Timing out degrades to proceeding with whatever state exists.
func (s *Session) WaitSettle(timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	quiet := 0
	for time.Now().Before(deadline) {
		if s.inflight.Load() <= 0 && s.fetching.Load() == 0 {
			quiet++
		} else {
			quiet = 0
		}
		if quiet >= 2 {
			return
		}
		time.Sleep(settleProbe)
	}
}

// ScrollToBottom triggers lazy loading by repeatedly scrolling to the page
// bottom, stopping early once the page height stabilizes.
func (s *Session) ScrollToBottom() error {
	script := fmt.Sprintf(`(async () => {
		const sleep = (ms) => new Promise((r) => setTimeout(r, ms));
		let last = 0;
		for (let i = 0; i < %d; i++) {
			window.scrollBy(0, document.body.scrollHeight);
			await sleep(%d);
			const cur = document.body.scrollHeight;
			if (cur === last) break;
			last = cur;
		}
	})()`, scrollAttempts, scrollPauseMs)

	err := chromedp.Run(s.ctx, chromedp.Evaluate(script, nil,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		},
	))
	if err != nil {
		return fmt.Errorf("lazy-load scroll failed: %w", err)
	}
	return nil
}

// HTML returns the rendered document markup.
func (s *Session) HTML() (string, error) {
	var html string
	if err := chromedp.Run(s.ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page HTML: %w", err)
	}
	return html, nil
}

// Screenshot captures the full page as PNG.
func (s *Session) Screenshot() ([]byte, error) {
	var buf []byte
	if err := chromedp.Run(s.ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return buf, nil
}

// Location returns the page's current URL.
func (s *Session) Location() (string, error) {
	var url string
	if err := chromedp.Run(s.ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return url, nil
}

func (s *Session) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
}
