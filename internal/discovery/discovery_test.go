package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Sgct97/truckingCompanyCrawler/internal/audit"
)

func testSite(baseURL string) audit.Site {
	return audit.Site{ID: "acme", Name: "Acme Freight", RootURLs: []string{baseURL}}
}

func seedURLs(seeds []audit.QueuedURL) []string {
	urls := make([]string, 0, len(seeds))
	for _, s := range seeds {
		urls = append(urls, s.URL)
	}
	return urls
}

func TestDiscoverUsesRobotsSitemapDirective(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "User-agent: *\nAllow: /\nSitemap: %s/custom-sitemap.xml\n", srv.URL)
	})
	mux.HandleFunc("/custom-sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%s/terminals</loc></url>
  <url><loc>%s/about</loc></url>
  <url><loc>https://other-host.example/offsite</loc></url>
</urlset>`, srv.URL, srv.URL)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	d := New("auditbot/1.0", 5*time.Second, zap.NewNop())
	seeds := d.Discover(context.Background(), testSite(srv.URL))

	urls := seedURLs(seeds)
	require.Equal(t, srv.URL, urls[0])
	require.Contains(t, urls, srv.URL+"/terminals")
	require.Contains(t, urls, srv.URL+"/about")
	for _, u := range urls {
		require.NotContains(t, u, "other-host.example")
	}
	require.Equal(t, audit.SourceFallback, seeds[0].Source)
	require.Equal(t, audit.SourceSitemap, seeds[1].Source)
}

func TestDiscoverFallsBackToWellKnownSitemap(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<urlset><url><loc>%s/locations</loc></url></urlset>`, srv.URL)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	d := New("auditbot/1.0", 5*time.Second, zap.NewNop())
	seeds := d.Discover(context.Background(), testSite(srv.URL))

	require.Contains(t, seedURLs(seeds), srv.URL+"/locations")
}

func TestDiscoverExpandsSitemapIndex(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<sitemapindex>
  <sitemap><loc>%s/sitemap-pages.xml</loc></sitemap>
  <sitemap><loc>%s/sitemap-pages.xml</loc></sitemap>
</sitemapindex>`, srv.URL, srv.URL)
	})
	mux.HandleFunc("/sitemap-pages.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<urlset><url><loc>%s/service-centers</loc></url></urlset>`, srv.URL)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	d := New("auditbot/1.0", 5*time.Second, zap.NewNop())
	seeds := d.Discover(context.Background(), testSite(srv.URL))

	urls := seedURLs(seeds)
	require.Contains(t, urls, srv.URL+"/service-centers")
	// The duplicate child index entry must not duplicate the page URL.
	count := 0
	for _, u := range urls {
		if u == srv.URL+"/service-centers" {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestDiscoverCapsNestedIndexDepth(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	var srv *httptest.Server
	// Every sitemap level points one level deeper; only levels within the
	// depth cap contribute pages.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/sitemap-") {
			http.NotFound(w, r)
			return
		}
		var level int
		fmt.Sscanf(r.URL.Path, "/sitemap-%d.xml", &level)
		fmt.Fprintf(w, `<sitemapindex><sitemap><loc>%s/sitemap-%d.xml</loc></sitemap></sitemapindex>`,
			srv.URL, level+1)
	})
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "Sitemap: %s/sitemap-0.xml\n", srv.URL)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	d := New("auditbot/1.0", 5*time.Second, zap.NewNop())
	seeds := d.Discover(context.Background(), testSite(srv.URL))

	// Only the homepage: the chain never yields page URLs and recursion stops.
	require.Len(t, seeds, 1)
}

func TestDiscoverDegradesToHomepageOnTotalFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := New("auditbot/1.0", 5*time.Second, zap.NewNop())
	seeds := d.Discover(context.Background(), testSite(srv.URL))

	require.Len(t, seeds, 1)
	require.Equal(t, srv.URL, seeds[0].URL)
	require.Equal(t, audit.SourceFallback, seeds[0].Source)
}
