package classifier

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sgct97/truckingCompanyCrawler/internal/audit"
)

func addressBlock(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "<p>%d0%d Industrial Parkway, Springfield, OH 4550%d</p>\n", i+1, i, i%10)
	}
	return b.String()
}

func page(url, body string) audit.PageSnapshot {
	return audit.PageSnapshot{
		URL:      url,
		FinalURL: url,
		HTML:     "<html><head></head><body>" + body + "</body></html>",
	}
}

func TestAddressListDetection(t *testing.T) {
	t.Parallel()

	c := New(DefaultConfig())
	snap := page("https://acme.com/terminals", addressBlock(15))
	res := c.Classify(snap)

	require.Equal(t, []audit.Tag{audit.TagAddressList}, res.Tags)
	require.Equal(t, 15, res.AddressCount)
	require.Equal(t, "HTML: Scrape address list", res.Recipe)
}

func TestFewAddressesDoNotTriggerAddressList(t *testing.T) {
	t.Parallel()

	c := New(DefaultConfig())
	res := c.Classify(page("https://acme.com/contact", addressBlock(3)))

	require.Equal(t, []audit.Tag{audit.TagNone}, res.Tags)
	require.Equal(t, 3, res.AddressCount)
	require.Equal(t, "Manual review needed", res.Recipe)
}

func TestMapEmbedPlusAddressListConcatenatesRecipes(t *testing.T) {
	t.Parallel()

	c := New(DefaultConfig())
	body := addressBlock(12) +
		`<iframe src="https://www.google.com/maps/embed?pb=!1m18"></iframe>`
	res := c.Classify(page("https://acme.com/service-map", body))

	require.Equal(t, []audit.Tag{audit.TagAddressList, audit.TagGmapsEmbed}, res.Tags)
	require.Equal(t, "HTML: Scrape address list; Maps: Extract from map embed", res.Recipe)
}

func TestAnalyticsScriptsAreNotMapEmbeds(t *testing.T) {
	t.Parallel()

	c := New(DefaultConfig())
	body := `<script src="https://www.googletagmanager.com/gtm.js?id=GTM-X"></script>
<script src="https://www.google.com/recaptcha/api.js"></script>
<link href="https://fonts.googleapis.com/css2?family=Inter">`
	res := c.Classify(page("https://acme.com/", body))

	require.Equal(t, []audit.Tag{audit.TagNone}, res.Tags)
}

func TestHeaderAndFooterAddressesAreExcluded(t *testing.T) {
	t.Parallel()

	c := New(Config{AddressThreshold: 1})
	snap := page("https://acme.com/about",
		`<footer><p>100 Corporate Drive, Columbus, OH 43004</p></footer>`)
	res := c.Classify(snap)

	require.Equal(t, 0, res.AddressCount)
	require.Equal(t, []audit.Tag{audit.TagNone}, res.Tags)
}

func TestStaticMapImageDetection(t *testing.T) {
	t.Parallel()

	c := New(DefaultConfig())
	res := c.Classify(page("https://acme.com/coverage-area",
		`<img src="/assets/coverage-map.png" alt="Coverage">`))

	require.Contains(t, res.Tags, audit.TagStaticMapImage)
	require.Contains(t, res.Recipe, "Image: Manual review of static map")
}

func TestClickableListDetection(t *testing.T) {
	t.Parallel()

	c := New(DefaultConfig())
	var b strings.Builder
	for i := 0; i < 8; i++ {
		fmt.Fprintf(&b, `<div class="location-card" data-location="%d">Terminal %d</div>`, i, i)
	}
	res := c.Classify(page("https://acme.com/our-network", b.String()))

	require.Contains(t, res.Tags, audit.TagClickableList)
}

func TestSearchFormDetection(t *testing.T) {
	t.Parallel()

	c := New(DefaultConfig())
	res := c.Classify(page("https://acme.com/find",
		`<form action="/find"><input type="text" name="zipcode" placeholder="Enter ZIP"><button>Search</button></form>`))

	require.Equal(t, []audit.Tag{audit.TagSearchForm}, res.Tags)
	require.Equal(t, "Form: Automate location search", res.Recipe)
}

func TestPDFLinkDetection(t *testing.T) {
	t.Parallel()

	c := New(DefaultConfig())
	snap := page("https://acme.com/resources", "<p>Downloads</p>")
	snap.Links = []audit.Link{
		{URL: "https://acme.com/docs/terminal-directory.pdf", Text: "Terminal Directory"},
	}
	res := c.Classify(snap)

	require.Equal(t, []audit.Tag{audit.TagPDFLink}, res.Tags)
	require.Equal(t, "PDF: Parse linked document", res.Recipe)
}

func TestIndexPageNeedsPathAndLocationLinks(t *testing.T) {
	t.Parallel()

	c := New(DefaultConfig())
	snap := page("https://acme.com/locations", "<ul><li>regions</li></ul>")
	snap.Links = []audit.Link{
		{URL: "https://acme.com/locations/ohio", Text: "Ohio"},
		{URL: "https://acme.com/locations/texas", Text: "Texas"},
		{URL: "https://acme.com/locations/georgia", Text: "Georgia"},
	}
	res := c.Classify(snap)
	require.Equal(t, []audit.Tag{audit.TagIndexPage}, res.Tags)
	require.Equal(t, "Index: Recurse into linked location pages", res.Recipe)

	// Same links on a non-index path do not qualify.
	other := snap
	other.URL = "https://acme.com/about-acme"
	other.FinalURL = other.URL
	require.Equal(t, []audit.Tag{audit.TagNone}, c.Classify(other).Tags)
}

func TestFailedSnapshotClassifiesToNone(t *testing.T) {
	t.Parallel()

	c := New(DefaultConfig())
	res := c.Classify(audit.PageSnapshot{
		URL:       "https://acme.com/broken",
		Failed:    true,
		ErrorKind: audit.ErrKindHTTP,
	})

	require.Equal(t, []audit.Tag{audit.TagNone}, res.Tags)
	require.Zero(t, res.Score)
}

func TestClassifyIsDeterministic(t *testing.T) {
	t.Parallel()

	c := New(DefaultConfig())
	body := addressBlock(12) +
		`<iframe src="https://maps.google.com/maps?q=terminals"></iframe>` +
		`<img src="https://maps.googleapis.com/maps/api/staticmap?center=OH">`
	snap := page("https://acme.com/terminals", body)

	first := c.Classify(snap)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, c.Classify(snap))
	}
}

func TestForeignPathLowersScore(t *testing.T) {
	t.Parallel()

	c := New(DefaultConfig())
	us := c.Classify(page("https://acme.com/locations/list", addressBlock(12)))
	foreign := c.Classify(page("https://acme.com/es/locations/list", addressBlock(12)))

	require.Greater(t, us.Score, foreign.Score)
}

func TestQuoteFormsDoNotCountAsSearchForms(t *testing.T) {
	t.Parallel()

	c := New(DefaultConfig())
	res := c.Classify(page("https://acme.com/quote",
		`<form id="quote-form" action="/rate-quote">
<input name="origin_zip" placeholder="Origin ZIP">
<input name="dest_zip" placeholder="Destination ZIP">
</form>`))

	require.Equal(t, []audit.Tag{audit.TagNone}, res.Tags)
}

func TestStaticMapDetectedByAltText(t *testing.T) {
	t.Parallel()

	c := New(DefaultConfig())
	res := c.Classify(page("https://acme.com/about",
		`<img src="/img/img_2041.jpg" alt="Map of our service-map coverage">`))

	require.Contains(t, res.Tags, audit.TagStaticMapImage)
}
