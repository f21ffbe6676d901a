package headless

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/Sgct97/truckingCompanyCrawler/internal/audit"
)

// session is one site's browser. Fetch runs pages through it sequentially;
// a session is never shared across sites or goroutines.
type session struct {
	cfg           Config
	siteID        string
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	logger        *zap.Logger
}

// Fetch renders one page and captures a snapshot. Page-level problems
// (timeouts, HTTP errors, render failures) come back encoded in the snapshot
// with a nil error; a non-nil error means the browser itself is gone and the
// session must be recreated.
func (s *session) Fetch(ctx context.Context, rawURL string) (audit.PageSnapshot, error) {
	if err := s.browserCtx.Err(); err != nil {
		return audit.PageSnapshot{}, fmt.Errorf("browser session closed: %w", err)
	}

	tabCtx, tabCancel := chromedp.NewContext(s.browserCtx)
	defer tabCancel()
	tabCtx, timeoutCancel := context.WithTimeout(tabCtx, s.cfg.PageTimeout)
	defer timeoutCancel()

	meta := newResponseMeta()
	chromedp.ListenTarget(tabCtx, meta.captureEvent)

	start := time.Now()
	var (
		firstHTML string
		finalHTML string
		finalURL  string
		title     string
	)
	actions := []chromedp.Action{
		network.Enable(),
		stealthAction(),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.cfg.SettleDelay),
		chromedp.OuterHTML("html", &firstHTML, chromedp.ByQuery),
		// Lazy-loaded location lists and map widgets often hydrate only
		// once scrolled into view, so links are extracted twice.
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Sleep(s.cfg.SettleDelay / 2),
		chromedp.Location(&finalURL),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &finalHTML, chromedp.ByQuery),
	}
	err := chromedp.Run(tabCtx, actions...)
	duration := time.Since(start)

	if err != nil {
		if fatal := s.sessionFatal(ctx, err); fatal != nil {
			return audit.PageSnapshot{}, fatal
		}
		kind := audit.KindOf(err)
		s.logger.Debug("page fetch failed",
			zap.String("site", s.siteID),
			zap.String("url", rawURL),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return audit.PageSnapshot{
			URL:         rawURL,
			FinalURL:    rawURL,
			Failed:      true,
			ErrorKind:   kind,
			ErrorDetail: err.Error(),
			Duration:    duration,
		}, nil
	}

	status := meta.status()
	if finalURL == "" {
		finalURL = rawURL
	}
	snap := audit.PageSnapshot{
		URL:        rawURL,
		FinalURL:   finalURL,
		Title:      title,
		HTML:       finalHTML,
		StatusCode: status,
		Duration:   duration,
	}
	if kind := audit.StatusErrorKind(status); kind != audit.ErrKindNone {
		snap.Failed = true
		snap.ErrorKind = kind
		snap.ErrorDetail = fmt.Sprintf("http status %d", status)
		return snap, nil
	}

	snap.Links = mergeLinks(
		extractLinks(finalURL, firstHTML),
		extractLinks(finalURL, finalHTML),
	)
	return snap, nil
}

// Close tears down the browser and its allocator.
func (s *session) Close() {
	s.browserCancel()
	s.allocCancel()
}

// sessionFatal decides whether a chromedp error means the browser process is
// unusable. Caller cancellation also surfaces as an error so the pool can
// stop cleanly instead of recording a bogus page failure.
func (s *session) sessionFatal(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("fetch canceled: %w", ctx.Err())
	}
	if s.browserCtx.Err() != nil {
		return fmt.Errorf("browser session closed: %w", s.browserCtx.Err())
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"chrome failed to start",
		"browser closed",
		"target closed",
		"session closed",
		"websocket url timeout",
		"lost websocket",
	} {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("browser crashed: %w", err)
		}
	}
	return nil
}

// stealthAction installs a pre-navigation script that hides the most common
// headless giveaways probed by bot walls.
func stealthAction() chromedp.Action {
	const script = `
Object.defineProperty(navigator, 'webdriver', {get: () => undefined});
Object.defineProperty(navigator, 'languages', {get: () => ['en-US', 'en']});
Object.defineProperty(navigator, 'plugins', {get: () => [1, 2, 3, 4, 5]});
window.chrome = window.chrome || { runtime: {} };
`
	return chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx)
		if err != nil {
			return fmt.Errorf("install stealth script: %w", err)
		}
		return nil
	})
}

// responseMeta records the status of the top-level document response.
type responseMeta struct {
	mu     sync.Mutex
	code   int
	gotDoc bool
}

func newResponseMeta() *responseMeta {
	return &responseMeta{}
}

func (m *responseMeta) captureEvent(ev any) {
	resp, ok := ev.(*network.EventResponseReceived)
	if !ok || resp.Type != network.ResourceTypeDocument || resp.Response == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// Redirect chains fire multiple document responses; the last one wins.
	m.code = int(resp.Response.Status)
	m.gotDoc = true
}

func (m *responseMeta) status() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.gotDoc || m.code == 0 {
		return 200
	}
	return m.code
}
