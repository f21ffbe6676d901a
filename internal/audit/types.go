// Package audit defines the core types and interfaces for the location-modality
// audit engine. It includes site lifecycle states, page snapshots, classification
// results, and the capability interfaces the worker pool is assembled from.
package audit

import (
	"time"
)

// SiteState represents the lifecycle state of a site under audit.
type SiteState string

// Site lifecycle states persisted in the checkpoint.
const (
	SiteStatePending        SiteState = "PENDING"
	SiteStateInProgress     SiteState = "IN_PROGRESS"
	SiteStateDone           SiteState = "DONE"
	SiteStateFailed         SiteState = "FAILED"
	SiteStateBudgetExceeded SiteState = "BUDGET_EXCEEDED"
)

// Terminal reports whether the state ends a site's crawl.
func (s SiteState) Terminal() bool {
	switch s {
	case SiteStateDone, SiteStateFailed, SiteStateBudgetExceeded:
		return true
	default:
		return false
	}
}

// Site is one target organization's website being audited.
type Site struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	RootURLs []string  `json:"root_urls"`
	State    SiteState `json:"state"`
}

// Homepage returns the first root URL, the seed of last resort.
func (s Site) Homepage() string {
	if len(s.RootURLs) == 0 {
		return ""
	}
	return s.RootURLs[0]
}

// URLSource records how a URL entered the frontier.
type URLSource string

// Discovery sources for frontier entries.
const (
	SourceSitemap  URLSource = "sitemap"
	SourceLink     URLSource = "link"
	SourceFallback URLSource = "fallback"
)

// URLStatus is the per-page fetch outcome.
type URLStatus string

// Fetch outcomes recorded per URL.
const (
	URLStatusQueued  URLStatus = "QUEUED"
	URLStatusFetched URLStatus = "FETCHED"
	URLStatusFailed  URLStatus = "FAILED"
	URLStatusSkipped URLStatus = "SKIPPED"
)

// URLRecord tracks one canonical URL for its owning site.
type URLRecord struct {
	URL           string    `json:"url"`
	SiteID        string    `json:"site_id"`
	Source        URLSource `json:"source"`
	Depth         int       `json:"depth"`
	Status        URLStatus `json:"status"`
	Attempts      int       `json:"attempts"`
	LastErrorKind ErrorKind `json:"last_error_kind,omitempty"`
}

// Link is an outbound link discovered on a rendered page. Text is the anchor
// text, used by the frontier to boost location-looking links.
type Link struct {
	URL  string `json:"url"`
	Text string `json:"text,omitempty"`
}

// PageSnapshot is the result of rendering one URL.
type PageSnapshot struct {
	URL         string        `json:"url"`
	FinalURL    string        `json:"final_url"`
	Title       string        `json:"title"`
	HTML        string        `json:"-"`
	Links       []Link        `json:"-"`
	StatusCode  int           `json:"status_code"`
	Failed      bool          `json:"failed"`
	ErrorKind   ErrorKind     `json:"error_kind,omitempty"`
	ErrorDetail string        `json:"error_detail,omitempty"`
	Duration    time.Duration `json:"duration_ns"`
}

// Tag is a location-data presentation modality detected on a page.
// The vocabulary is closed; consumers must treat unknown tags as unclassified.
type Tag string

// Modality tags in detector evaluation order.
const (
	TagAddressList    Tag = "ADDRESS_LIST"
	TagGmapsEmbed     Tag = "GMAPS_EMBED"
	TagStaticMapImage Tag = "STATIC_MAP_IMAGE"
	TagClickableList  Tag = "CLICKABLE_LIST"
	TagPDFLink        Tag = "PDF_LINK"
	TagSearchForm     Tag = "SEARCH_FORM"
	TagIndexPage      Tag = "INDEX_PAGE"
	TagNone           Tag = "NONE"
)

// ClassificationResult is the pure output of classifying one PageSnapshot.
type ClassificationResult struct {
	Tags         []Tag  `json:"tags"`
	AddressCount int    `json:"address_count"`
	Score        int    `json:"score"`
	Recipe       string `json:"recipe"`
}

// HasTag reports whether the result carries the given tag.
func (c ClassificationResult) HasTag(tag Tag) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// PageResult pairs a fetched page with its classification and stored artifact.
type PageResult struct {
	Record         URLRecord            `json:"record"`
	Title          string               `json:"title,omitempty"`
	Classification ClassificationResult `json:"classification"`
	ArtifactURI    string               `json:"artifact_uri,omitempty"`
}

// SiteResult is the structured per-site output record.
type SiteResult struct {
	SiteID     string       `json:"site_id"`
	Name       string       `json:"name"`
	State      SiteState    `json:"state"`
	Pages      []PageResult `json:"pages"`
	ErrorText  string       `json:"error_text,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
}

// SiteSummary aggregates a terminal SiteResult for the external reporter.
// It is read-only once produced.
type SiteSummary struct {
	SiteID        string    `json:"site_id"`
	Name          string    `json:"name"`
	State         SiteState `json:"state"`
	TotalPages    int       `json:"total_pages"`
	FailedPages   int       `json:"failed_pages"`
	LocationPages int       `json:"location_pages"`
	TopPageURL    string    `json:"top_page_url,omitempty"`
	TopPageScore  int       `json:"top_page_score"`
	Modalities    []Tag     `json:"modalities"`
	Recipe        string    `json:"recipe"`
}

// QueuedURL is one pending frontier entry inside a FrontierSnapshot.
type QueuedURL struct {
	URL    string    `json:"url"`
	Depth  int       `json:"depth"`
	Source URLSource `json:"source"`
}

// FrontierSnapshot is the durable form of a site's frontier, persisted for
// in-progress sites so a resumed run never re-fetches visited pages.
type FrontierSnapshot struct {
	Visited []string    `json:"visited"`
	Boosted []QueuedURL `json:"boosted"`
	Normal  []QueuedURL `json:"normal"`
	Fetched int         `json:"fetched"`
}
