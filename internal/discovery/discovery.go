// Package discovery builds a site's initial URL set from robots.txt sitemap
// directives and well-known sitemap locations. Discovery is best-effort: any
// failure degrades to a homepage-only seed list, never to a site failure.
package discovery

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"

	"github.com/Sgct97/truckingCompanyCrawler/internal/audit"
)

const (
	// maxSitemapDepth bounds recursion through nested sitemap indexes.
	maxSitemapDepth = 3
	// maxSubSitemaps bounds how many child sitemaps of one index are expanded.
	maxSubSitemaps = 10
	// maxSitemapBytes bounds a single sitemap document read.
	maxSitemapBytes = 8 << 20
)

// sitemapCandidates are probed when robots.txt declares no Sitemap directive.
var sitemapCandidates = []string{
	"/sitemap.xml",
	"/sitemap_index.xml",
	"/sitemap/sitemap.xml",
}

// Discoverer resolves seed URLs for a site over plain HTTP. Sitemaps are
// static documents, so no browser session is involved here.
type Discoverer struct {
	client    *http.Client
	userAgent string
	logger    *zap.Logger
}

// New builds a Discoverer with a bounded-timeout HTTP client.
func New(userAgent string, timeout time.Duration, logger *zap.Logger) *Discoverer {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Discoverer{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		logger:    logger,
	}
}

// Discover returns the seed list for a site: its homepage first, then every
// same-site URL found in its sitemaps. The homepage is always present even
// when robots.txt and every sitemap candidate fail.
func (d *Discoverer) Discover(ctx context.Context, site audit.Site) []audit.QueuedURL {
	homepage := site.Homepage()
	seeds := []audit.QueuedURL{{URL: homepage, Depth: 0, Source: audit.SourceFallback}}

	parsed, err := url.Parse(homepage)
	if err != nil || parsed.Host == "" {
		return seeds
	}
	siteHost := audit.SiteHost(homepage)
	if siteHost == "" {
		return seeds
	}

	sitemaps := d.sitemapLocations(ctx, parsed)
	seen := map[string]struct{}{}
	homeKey, cerr := audit.Canonicalize(homepage)
	if cerr == nil {
		seen[homeKey] = struct{}{}
	}

	visited := map[string]struct{}{}
	for _, loc := range sitemaps {
		for _, pageURL := range d.expand(ctx, loc, visited, 0) {
			if !audit.SameSite(pageURL, siteHost) {
				continue
			}
			key, err := audit.Canonicalize(pageURL)
			if err != nil {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			seeds = append(seeds, audit.QueuedURL{URL: key, Depth: 1, Source: audit.SourceSitemap})
		}
	}
	d.logger.Info("discovery complete",
		zap.String("site", site.ID),
		zap.Int("sitemaps", len(sitemaps)),
		zap.Int("seeds", len(seeds)))
	return seeds
}

// sitemapLocations returns robots.txt Sitemap directives when present,
// otherwise the well-known candidate paths rooted at the site.
func (d *Discoverer) sitemapLocations(ctx context.Context, parsed *url.URL) []string {
	robotsURL := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host, Path: "/robots.txt"}
	body, status, err := d.get(ctx, robotsURL.String())
	if err == nil {
		data, perr := robotstxt.FromStatusAndBytes(status, body)
		if perr == nil && len(data.Sitemaps) > 0 {
			return data.Sitemaps
		}
	} else {
		d.logger.Debug("robots fetch failed; probing well-known sitemaps",
			zap.String("host", parsed.Host), zap.Error(err))
	}

	locs := make([]string, 0, len(sitemapCandidates))
	for _, candidate := range sitemapCandidates {
		u := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host, Path: candidate}
		locs = append(locs, u.String())
	}
	return locs
}

type sitemapDoc struct {
	XMLName  xml.Name     `xml:""`
	URLs     []sitemapLoc `xml:"url"`
	Sitemaps []sitemapLoc `xml:"sitemap"`
}

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

// expand fetches one sitemap document and returns the page URLs it lists,
// recursing through index files up to maxSitemapDepth.
func (d *Discoverer) expand(ctx context.Context, loc string, visited map[string]struct{}, depth int) []string {
	if depth > maxSitemapDepth {
		return nil
	}
	loc = strings.TrimSpace(loc)
	if _, ok := visited[loc]; ok {
		return nil
	}
	visited[loc] = struct{}{}

	body, status, err := d.get(ctx, loc)
	if err != nil || status != http.StatusOK {
		d.logger.Debug("sitemap fetch skipped",
			zap.String("url", loc), zap.Int("status", status), zap.Error(err))
		return nil
	}
	if strings.HasSuffix(strings.ToLower(loc), ".gz") {
		body, err = gunzip(body)
		if err != nil {
			d.logger.Debug("sitemap gunzip failed", zap.String("url", loc), zap.Error(err))
			return nil
		}
	}

	var doc sitemapDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		d.logger.Debug("sitemap parse failed", zap.String("url", loc), zap.Error(err))
		return nil
	}

	if doc.XMLName.Local == "sitemapindex" {
		var pages []string
		children := doc.Sitemaps
		if len(children) > maxSubSitemaps {
			children = children[:maxSubSitemaps]
		}
		for _, child := range children {
			pages = append(pages, d.expand(ctx, child.Loc, visited, depth+1)...)
		}
		return pages
	}

	pages := make([]string, 0, len(doc.URLs))
	for _, entry := range doc.URLs {
		if u := strings.TrimSpace(entry.Loc); u != "" {
			pages = append(pages, u)
		}
	}
	return pages
}

func (d *Discoverer) get(ctx context.Context, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			d.logger.Debug("failed to close response body", zap.Error(cerr))
		}
	}()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSitemapBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read %s: %w", rawURL, err)
	}
	return body, resp.StatusCode, nil
}

func gunzip(body []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer func() { _ = zr.Close() }()
	return io.ReadAll(io.LimitReader(zr, maxSitemapBytes))
}
