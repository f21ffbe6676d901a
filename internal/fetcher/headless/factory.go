// Package headless provides browser-backed page fetching via chromedp. Each
// site is crawled through its own Session: an isolated Chrome profile whose
// cookies, cache, and fingerprint never leak across sites.
package headless

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync/atomic"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/Sgct97/truckingCompanyCrawler/internal/audit"
)

// defaultUserAgents rotate across sessions so repeated runs do not present a
// single fingerprint to every carrier site.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
}

// Config controls browser session behavior.
type Config struct {
	// UserAgents overrides the built-in rotation list when non-empty.
	UserAgents []string
	// PageTimeout bounds a single navigation plus render settle.
	PageTimeout time.Duration
	// SettleDelay waits after DOM-ready for late JS (map widgets, location
	// lists hydrated from JSON).
	SettleDelay time.Duration
	// ChromePath forces a browser binary; empty means auto-detect.
	ChromePath string
	// Headful disables headless mode for local debugging.
	Headful bool
}

// Factory builds isolated browser sessions. It implements
// audit.SessionFactory.
type Factory struct {
	cfg     Config
	logger  *zap.Logger
	counter atomic.Uint64
}

// NewFactory creates a session factory, applying timeout defaults.
func NewFactory(cfg Config, logger *zap.Logger) *Factory {
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 45 * time.Second
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = 1500 * time.Millisecond
	}
	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = defaultUserAgents
	}
	if cfg.ChromePath == "" {
		cfg.ChromePath = findChrome()
	}
	return &Factory{cfg: cfg, logger: logger}
}

// NewSession starts a fresh browser for one site. The returned session owns
// its allocator and must be closed by the caller.
func (f *Factory) NewSession(ctx context.Context, site audit.Site) (audit.Session, error) {
	ua := f.cfg.UserAgents[f.counter.Add(1)%uint64(len(f.cfg.UserAgents))]

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("window-size", "1920,1080"),
		chromedp.Flag("disk-cache-size", "0"),
		chromedp.UserAgent(ua),
	)
	if f.cfg.Headful {
		opts = append(opts, chromedp.Flag("headless", false))
	} else {
		opts = append(opts, chromedp.Flag("headless", "new"))
	}
	if f.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(f.cfg.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Start the browser eagerly so a broken Chrome install surfaces here,
	// not on the first page fetch.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser for site %s: %w", site.ID, err)
	}

	f.logger.Debug("browser session started",
		zap.String("site", site.ID),
		zap.String("user_agent", ua))

	return &session{
		cfg:           f.cfg,
		siteID:        site.ID,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		logger:        f.logger,
	}, nil
}

// findChrome locates a browser binary: CHROME_PATH first, then common Linux
// install paths, then PATH lookup. Empty lets chromedp use its own default.
func findChrome() string {
	if path := os.Getenv("CHROME_PATH"); path != "" {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	candidates := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() && info.Mode()&0111 != 0 {
			return path
		}
	}
	for _, name := range []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser", "chrome"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}
