package fetch

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"github.com/AdilYassar/companies-scrapper/internal/robots"
	"github.com/AdilYassar/companies-scrapper/pkg/types"
)

// RenderOptions configures the headless-browser strategy.
type RenderOptions struct {
	Timeout         time.Duration
	NavigateTimeout time.Duration
	ScrollDelay     time.Duration
	UserAgent       string
	ProxyURL        string
	DisableHeadless bool
}

// Rendered scrapes JavaScript-driven directories with a headless browser.
// One browser session serves a whole source run and is released on every
// exit path.
type Rendered struct {
	Options   RenderOptions
	Robots    *robots.Agent
	Pacer     *Pacer
	PageDelay time.Duration
	UnitDelay time.Duration
	Logger    *slog.Logger
}

// Fetch starts one browser session and walks every unit of the source
// through it. A browser that fails to start is a resource failure and
// surfaces as an error; unit failures inside a running session are recorded
// and skipped.
func (r *Rendered) Fetch(ctx context.Context, src Source) (Result, error) {
	opts := r.Options
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.NavigateTimeout <= 0 {
		opts.NavigateTimeout = 15 * time.Second
	}
	if opts.ScrollDelay <= 0 {
		opts.ScrollDelay = time.Second
	}

	logger := r.logger().With("source", src.ID, "mode", string(ModeRendered))

	execOpts := []chromedp.ExecAllocatorOption{
		chromedp.Flag("headless", !opts.DisableHeadless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
	}
	if ua := strings.TrimSpace(opts.UserAgent); ua != "" {
		execOpts = append(execOpts, chromedp.UserAgent(ua))
	}
	if proxyURL := strings.TrimSpace(opts.ProxyURL); proxyURL != "" {
		execOpts = append(execOpts, chromedp.ProxyServer(proxyURL))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, execOpts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	if err := chromedp.Run(browserCtx); err != nil {
		return Result{}, fmt.Errorf("start browser: %w", err)
	}

	var res Result
	for i, unit := range src.Units() {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if i > 0 {
			if err := Sleep(ctx, r.UnitDelay); err != nil {
				return res, err
			}
		}

		listings, err := r.fetchUnit(browserCtx, src, unit, opts)
		res.record(unit, listings, err)
		if err != nil {
			logger.Warn("unit failed", "unit", unit.Label, "error", err)
			continue
		}
		logger.Info("unit complete", "unit", unit.Label, "listings", len(listings))
	}
	return res, nil
}

func (r *Rendered) fetchUnit(browserCtx context.Context, src Source, unit Unit, opts RenderOptions) ([]types.RawListing, error) {
	maxPages := src.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}

	var all []types.RawListing
	for page := 1; page <= maxPages; page++ {
		pageURL := PageURL(unit.URL, src.PageParam, page)
		if r.Robots != nil && !r.Robots.AllowedURL(browserCtx, pageURL) {
			r.logger().Warn("robots disallows url, stopping unit", "source", src.ID, "url", pageURL)
			break
		}

		if err := Sleep(browserCtx, r.Pacer.hostDelay()); err != nil {
			return all, err
		}

		html, err := r.renderPage(browserCtx, pageURL, src, opts)
		if err != nil {
			if page == 1 {
				return nil, fmt.Errorf("render %s: %w", pageURL, err)
			}
			r.logger().Warn("page render failed, stopping unit", "source", src.ID, "page", page, "error", err)
			break
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(html)))
		if err != nil {
			if page == 1 {
				return nil, fmt.Errorf("parse rendered html: %w", err)
			}
			break
		}

		listings := ParseListings(doc, src, pageURL)
		if len(listings) == 0 {
			break
		}
		all = append(all, listings...)

		if page < maxPages {
			if err := Sleep(browserCtx, r.PageDelay); err != nil {
				return all, err
			}
		}
	}
	return all, nil
}

// renderPage navigates, settles the page via a cascade of wait strategies,
// waits for a listing selector, scrolls until the page stops growing, and
// exports the DOM.
func (r *Rendered) renderPage(browserCtx context.Context, pageURL string, src Source, opts RenderOptions) (string, error) {
	tabCtx, cancel := context.WithTimeout(browserCtx, opts.Timeout)
	defer cancel()

	if err := chromedp.Run(tabCtx, chromedp.Navigate(pageURL)); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}

	r.settle(tabCtx, opts)

	if found := r.waitForListings(tabCtx, src); !found {
		// The page loaded but never produced listings. Export whatever is
		// there; extraction will yield an empty slice.
		r.logger().Debug("no listing selector appeared", "source", src.ID, "url", pageURL)
	}

	r.scrollToBottom(tabCtx, opts.ScrollDelay)

	var html string
	if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("export html: %w", err)
	}
	return html, nil
}

// settle tries progressively weaker load signals: interactive DOM, then the
// full load event, then a flat delay standing in for network idle. The first
// one that succeeds wins.
func (r *Rendered) settle(tabCtx context.Context, opts RenderOptions) {
	strategies := []func(context.Context) error{
		func(ctx context.Context) error { return waitDocumentReady(ctx, "interactive") },
		func(ctx context.Context) error { return waitDocumentReady(ctx, "complete") },
		func(ctx context.Context) error { return Sleep(ctx, 3*time.Second) },
	}
	for _, strategy := range strategies {
		waitCtx, cancel := context.WithTimeout(tabCtx, opts.NavigateTimeout)
		err := strategy(waitCtx)
		cancel()
		if err == nil {
			return
		}
	}
}

// waitForListings waits up to ten seconds for the primary listing selector,
// then briefly probes each fallback selector.
func (r *Rendered) waitForListings(tabCtx context.Context, src Source) bool {
	selectors := make([]string, 0, len(src.WaitSelectors)+1)
	if src.Selectors.Listing != "" {
		selectors = append(selectors, src.Selectors.Listing)
	}
	selectors = append(selectors, src.WaitSelectors...)

	for i, selector := range selectors {
		timeout := 2 * time.Second
		if i == 0 {
			timeout = 10 * time.Second
		}
		waitCtx, cancel := context.WithTimeout(tabCtx, timeout)
		err := chromedp.Run(waitCtx, chromedp.WaitReady(selector, chromedp.ByQuery))
		cancel()
		if err == nil {
			return true
		}
	}
	return false
}

// scrollToBottom scrolls repeatedly until the document height stops growing,
// so lazily loaded listings make it into the exported DOM.
func (r *Rendered) scrollToBottom(tabCtx context.Context, delay time.Duration) {
	const maxScrolls = 20

	var lastHeight int64 = -1
	for i := 0; i < maxScrolls; i++ {
		var height int64
		if err := chromedp.Run(tabCtx, chromedp.Evaluate(`document.body.scrollHeight`, &height)); err != nil {
			return
		}
		if height == lastHeight {
			return
		}
		lastHeight = height

		if err := chromedp.Run(tabCtx, chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil)); err != nil {
			return
		}
		if err := Sleep(tabCtx, delay); err != nil {
			return
		}
	}
}

func (r *Rendered) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func waitDocumentReady(ctx context.Context, minimum string) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		var readyState string
		if err := chromedp.Run(ctx, chromedp.Evaluate(`document.readyState`, &readyState)); err != nil {
			return err
		}
		if readyState == "complete" || (minimum == "interactive" && readyState == "interactive") {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// hostDelay exposes the pacer's fixed delay for the browser path, which does
// not issue its own HTTP requests but should still pace page loads.
func (p *Pacer) hostDelay() time.Duration {
	if p == nil {
		return 0
	}
	return p.delay
}
