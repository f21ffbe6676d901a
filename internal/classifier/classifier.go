// Package classifier decides HOW a page exposes location data. Given a
// rendered page snapshot it emits modality tags and a human-readable
// extraction recipe. Classification is pure and deterministic: the same
// snapshot always yields the same result, with no network access.
package classifier

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Sgct97/truckingCompanyCrawler/internal/audit"
)

// Config tunes the classifier thresholds.
type Config struct {
	// AddressThreshold is the minimum number of detected postal addresses
	// for the ADDRESS_LIST modality.
	AddressThreshold int
	// ClickableThreshold is the minimum number of repeated location
	// elements for the CLICKABLE_LIST modality.
	ClickableThreshold int
	// IndexLinkThreshold is the minimum number of location-flavored
	// outgoing links for the INDEX_PAGE modality.
	IndexLinkThreshold int
	// ForeignPathPenalty is subtracted from the rank score of pages under
	// a non-US path segment. It never excludes a page.
	ForeignPathPenalty int
}

// DefaultConfig returns the thresholds used in production runs.
func DefaultConfig() Config {
	return Config{
		AddressThreshold:   10,
		ClickableThreshold: 5,
		IndexLinkThreshold: 3,
		ForeignPathPenalty: 3,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.AddressThreshold <= 0 {
		c.AddressThreshold = d.AddressThreshold
	}
	if c.ClickableThreshold <= 0 {
		c.ClickableThreshold = d.ClickableThreshold
	}
	if c.IndexLinkThreshold <= 0 {
		c.IndexLinkThreshold = d.IndexLinkThreshold
	}
	if c.ForeignPathPenalty <= 0 {
		c.ForeignPathPenalty = d.ForeignPathPenalty
	}
	return c
}

// recipes maps each modality to its extraction recipe fragment. Fragments
// are concatenated in detector order with "; ".
var recipes = map[audit.Tag]string{
	audit.TagAddressList:    "HTML: Scrape address list",
	audit.TagGmapsEmbed:     "Maps: Extract from map embed",
	audit.TagStaticMapImage: "Image: Manual review of static map",
	audit.TagClickableList:  "Browser: Interact with clickable location list",
	audit.TagPDFLink:        "PDF: Parse linked document",
	audit.TagSearchForm:     "Form: Automate location search",
	audit.TagIndexPage:      "Index: Recurse into linked location pages",
	audit.TagNone:           "Manual review needed",
}

// Classifier evaluates page snapshots against a fixed, ordered detector set.
type Classifier struct {
	cfg Config
}

// New builds a Classifier, filling zero-valued thresholds with defaults.
func New(cfg Config) *Classifier {
	return &Classifier{cfg: cfg.withDefaults()}
}

// signals carries everything the detectors need, extracted in one DOM pass.
type signals struct {
	addressCount   int
	mapEmbeds      int
	staticMapImgs  int
	clickableItems int
	pdfLinks       int
	searchForms    int
	indexPath      bool
	locationLinks  int
}

// Classify tags a fetched page. Failed snapshots classify to NONE with a
// zero score.
func (c *Classifier) Classify(snap audit.PageSnapshot) audit.ClassificationResult {
	if snap.Failed || snap.HTML == "" {
		return audit.ClassificationResult{
			Tags:   []audit.Tag{audit.TagNone},
			Recipe: recipes[audit.TagNone],
		}
	}

	sig := c.extract(snap)
	var tags []audit.Tag
	add := func(tag audit.Tag, hit bool) {
		if hit {
			tags = append(tags, tag)
		}
	}
	// Detector order is fixed; the recipe concatenation depends on it.
	add(audit.TagAddressList, sig.addressCount >= c.cfg.AddressThreshold)
	add(audit.TagGmapsEmbed, sig.mapEmbeds > 0)
	add(audit.TagStaticMapImage, sig.staticMapImgs > 0)
	add(audit.TagClickableList, sig.clickableItems >= c.cfg.ClickableThreshold)
	add(audit.TagPDFLink, sig.pdfLinks > 0)
	add(audit.TagSearchForm, sig.searchForms > 0)
	add(audit.TagIndexPage, sig.indexPath && sig.locationLinks >= c.cfg.IndexLinkThreshold)

	if len(tags) == 0 {
		return audit.ClassificationResult{
			Tags:         []audit.Tag{audit.TagNone},
			AddressCount: sig.addressCount,
			Recipe:       recipes[audit.TagNone],
		}
	}

	fragments := make([]string, 0, len(tags))
	for _, tag := range tags {
		fragments = append(fragments, recipes[tag])
	}

	return audit.ClassificationResult{
		Tags:         tags,
		AddressCount: sig.addressCount,
		Score:        c.score(tags, sig, snap.FinalURL),
		Recipe:       strings.Join(fragments, "; "),
	}
}

func (c *Classifier) extract(snap audit.PageSnapshot) signals {
	var sig signals

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snap.HTML))
	if err != nil {
		return sig
	}

	// Chrome and boilerplate headers repeat the same contact address on
	// every page, so address counting looks at main content only.
	content := doc.Clone()
	content.Find("header, footer, nav, script, style, noscript").Remove()
	text := content.Text()
	sig.addressCount = countAddresses(text)

	doc.Find("iframe[src], script[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if isMapEmbed(src) {
			sig.mapEmbeds++
		}
	})

	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		alt, _ := s.Attr("alt")
		lowerSrc := strings.ToLower(src)
		lowerAlt := strings.ToLower(alt)
		if strings.Contains(lowerSrc, "staticmap") ||
			containsAny(lowerSrc, staticMapKeywords) ||
			containsAny(lowerAlt, staticMapKeywords) ||
			(strings.Contains(lowerSrc, "map") && hasImageExt(lowerSrc)) {
			sig.staticMapImgs++
		}
	})

	sig.clickableItems = doc.Find(clickableListSelector).Length()

	doc.Find("form").Each(func(_ int, form *goquery.Selection) {
		// Quote calculators and shipment trackers ask for zip codes too;
		// those forms say nothing about location pages.
		if containsAny(formProbe(form), nonSearchFormKeywords) {
			return
		}
		hit := false
		form.Find("input, select").EachWithBreak(func(_ int, field *goquery.Selection) bool {
			probe := fieldProbe(field)
			for _, kw := range searchInputKeywords {
				if strings.Contains(probe, kw) {
					hit = true
					return false
				}
			}
			return true
		})
		if hit {
			sig.searchForms++
		}
	})

	pageURL := snap.FinalURL
	if pageURL == "" {
		pageURL = snap.URL
	}
	sig.indexPath = matchesIndexPath(pageURL)

	for _, link := range snap.Links {
		lowerURL := strings.ToLower(link.URL)
		lowerText := strings.ToLower(link.Text)
		if strings.Contains(lowerURL, ".pdf") &&
			(containsAny(lowerURL, locationLinkKeywords) || containsAny(lowerText, locationLinkKeywords) ||
				strings.Contains(lowerURL, "map") || strings.Contains(lowerText, "map")) {
			sig.pdfLinks++
		}
		if containsAny(lowerURL, locationLinkKeywords) || containsAny(lowerText, locationLinkKeywords) {
			sig.locationLinks++
		}
	}

	return sig
}

// score is the page's ranking weight inside its site: breadth of modalities
// first, address volume second, with index hubs and foreign-language pages
// ranked below direct sources.
func (c *Classifier) score(tags []audit.Tag, sig signals, finalURL string) int {
	score := len(tags) * 10
	if sig.addressCount > 50 {
		score += 50
	} else {
		score += sig.addressCount
	}
	if len(tags) == 1 && tags[0] == audit.TagIndexPage {
		score -= 5
	}
	if IsForeignPath(finalURL) {
		score -= c.cfg.ForeignPathPenalty
	}
	if score < 0 {
		score = 0
	}
	return score
}

func countAddresses(text string) int {
	street := len(streetAddressRe.FindAllString(text, -1))
	cityZip := len(cityStateZipRe.FindAllString(text, -1))
	if street > cityZip {
		return street
	}
	return cityZip
}

func isMapEmbed(src string) bool {
	lower := strings.ToLower(src)
	for _, host := range nonMapGoogleHosts {
		if strings.Contains(lower, host) {
			return false
		}
	}
	for _, host := range mapEmbedHosts {
		if strings.Contains(lower, host) {
			return true
		}
	}
	return false
}

func hasImageExt(lower string) bool {
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif", ".webp"} {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}

func formProbe(form *goquery.Selection) string {
	var parts []string
	for _, attr := range []string{"id", "class", "name", "action"} {
		if v, ok := form.Attr(attr); ok {
			parts = append(parts, v)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func fieldProbe(field *goquery.Selection) string {
	var parts []string
	for _, attr := range []string{"name", "id", "placeholder", "aria-label"} {
		if v, ok := field.Attr(attr); ok {
			parts = append(parts, v)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func matchesIndexPath(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	idx := strings.Index(lower, "://")
	if idx >= 0 {
		slash := strings.Index(lower[idx+3:], "/")
		if slash < 0 {
			return false
		}
		lower = lower[idx+3+slash:]
	}
	for _, pattern := range indexPathPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// IsForeignPath reports whether the URL's path sits under a non-US language
// or country segment.
func IsForeignPath(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, seg := range foreignPathSegments {
		if strings.Contains(lower, seg) {
			return true
		}
	}
	return false
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
