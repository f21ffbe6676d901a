package headless

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Sgct97/truckingCompanyCrawler/internal/audit"
)

var rawHrefRe = regexp.MustCompile(`href=["']([^"'#]+)["']`)

// extractLinks pulls navigable links out of rendered HTML: plain anchors
// plus JS-driven elements exposing a target through data attributes. Links
// are resolved against the page URL and canonicalized; excluded schemes,
// binary assets, and social hosts are dropped.
func extractLinks(pageURL, html string) []audit.Link {
	if html == "" {
		return nil
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var links []audit.Link
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if canonical, ok := audit.NormalizeLink(base, href); ok {
			links = append(links, audit.Link{
				URL:  canonical,
				Text: strings.TrimSpace(s.Text()),
			})
		}
	})

	// Location cards routed through JS click handlers.
	doc.Find("[data-href], [data-url], [data-link]").Each(func(_ int, s *goquery.Selection) {
		for _, attr := range []string{"data-href", "data-url", "data-link"} {
			target, ok := s.Attr(attr)
			if !ok {
				continue
			}
			if canonical, ok := audit.NormalizeLink(base, target); ok {
				links = append(links, audit.Link{
					URL:  canonical,
					Text: strings.TrimSpace(s.Text()),
				})
			}
			break
		}
	})

	// Location-finder forms navigate on submit; same-host iframes often hold
	// an embedded branch locator worth a visit of its own.
	doc.Find("form[action], iframe[src]").Each(func(_ int, s *goquery.Selection) {
		target, ok := s.Attr("action")
		if !ok {
			target, _ = s.Attr("src")
		}
		if canonical, ok := audit.NormalizeLink(base, target); ok {
			links = append(links, audit.Link{URL: canonical})
		}
	})

	if len(links) == 0 {
		// Markup too broken for the DOM pass (unclosed tags collapse the
		// tree); scrape hrefs straight from the source.
		for _, m := range rawHrefRe.FindAllStringSubmatch(html, -1) {
			if canonical, ok := audit.NormalizeLink(base, m[1]); ok {
				links = append(links, audit.Link{URL: canonical})
			}
		}
	}

	return links
}

// mergeLinks combines the pre-scroll and post-scroll extraction passes,
// keeping first-seen anchor text per canonical URL.
func mergeLinks(passes ...[]audit.Link) []audit.Link {
	seen := make(map[string]struct{})
	var merged []audit.Link
	for _, pass := range passes {
		for _, link := range pass {
			if _, ok := seen[link.URL]; ok {
				continue
			}
			seen[link.URL] = struct{}{}
			merged = append(merged, link)
		}
	}
	return merged
}
