// Package frontier implements the per-site URL queue: a visited set plus a
// two-tier FIFO (boosted, normal) bounded by a page budget. A Frontier is
// owned exclusively by the worker currently processing its site and is not
// safe for concurrent use.
package frontier

import (
	"strings"

	"github.com/Sgct97/truckingCompanyCrawler/internal/audit"
)

// boostKeywords promote a URL to the boosted tier when found in its path or
// in the anchor text that discovered it.
var boostKeywords = []string{
	"location", "terminal", "branch", "service-center", "service_center",
	"service-location", "depot", "yard", "facilit", "find-us", "find_us",
	"locator", "finder", "where-we", "coverage", "servicemap",
}

// boostLinkText are anchor-text phrases that mark a likely location link.
var boostLinkText = []string{
	"location", "terminal", "service center", "find", "near you",
	"where we", "our facilities", "branches", "coverage",
}

// Frontier is one site's pending/visited URL state.
type Frontier struct {
	siteID  string
	budget  int
	fetched int
	visited map[string]struct{}
	queued  map[string]struct{}
	boosted []audit.QueuedURL
	normal  []audit.QueuedURL
}

// New creates an empty Frontier with the given page budget.
func New(siteID string, budget int) *Frontier {
	return &Frontier{
		siteID:  siteID,
		budget:  budget,
		visited: make(map[string]struct{}),
		queued:  make(map[string]struct{}),
	}
}

// Seed enqueues discovery output in order.
func (f *Frontier) Seed(urls []audit.QueuedURL) {
	for _, u := range urls {
		f.Enqueue(u.URL, u.Depth, u.Source, "")
	}
}

// Enqueue adds a URL at the given depth. It is a no-op when the canonical key
// was already visited or queued, when the URL does not canonicalize, or when
// the page budget is exhausted. Returns true if the URL was accepted.
func (f *Frontier) Enqueue(rawURL string, depth int, source audit.URLSource, linkText string) bool {
	if f.BudgetReached() {
		return false
	}
	key, err := audit.Canonicalize(rawURL)
	if err != nil {
		return false
	}
	if _, ok := f.visited[key]; ok {
		return false
	}
	if _, ok := f.queued[key]; ok {
		return false
	}
	item := audit.QueuedURL{URL: key, Depth: depth, Source: source}
	f.queued[key] = struct{}{}
	if boosted(key, linkText) {
		f.boosted = append(f.boosted, item)
	} else {
		f.normal = append(f.normal, item)
	}
	return true
}

// Dequeue pops the next URL, draining the boosted tier before the normal
// tier, FIFO within each. ok is false when the frontier is exhausted.
func (f *Frontier) Dequeue() (audit.QueuedURL, bool) {
	if f.BudgetReached() {
		return audit.QueuedURL{}, false
	}
	if len(f.boosted) > 0 {
		item := f.boosted[0]
		f.boosted = f.boosted[1:]
		delete(f.queued, item.URL)
		return item, true
	}
	if len(f.normal) > 0 {
		item := f.normal[0]
		f.normal = f.normal[1:]
		delete(f.queued, item.URL)
		return item, true
	}
	return audit.QueuedURL{}, false
}

// MarkVisited records the canonical key as visited and counts it against the
// page budget.
func (f *Frontier) MarkVisited(rawURL string) {
	key, err := audit.Canonicalize(rawURL)
	if err != nil {
		key = rawURL
	}
	if _, ok := f.visited[key]; ok {
		return
	}
	f.visited[key] = struct{}{}
	f.fetched++
}

// Visited reports whether the canonical key was already fetched.
func (f *Frontier) Visited(rawURL string) bool {
	key, err := audit.Canonicalize(rawURL)
	if err != nil {
		key = rawURL
	}
	_, ok := f.visited[key]
	return ok
}

// BudgetReached reports whether the fetched-page count hit the budget.
func (f *Frontier) BudgetReached() bool {
	return f.budget > 0 && f.fetched >= f.budget
}

// IsExhausted reports whether there is nothing left to dequeue, either
// because both tiers are empty or because the budget is spent.
func (f *Frontier) IsExhausted() bool {
	if f.BudgetReached() {
		return true
	}
	return len(f.boosted) == 0 && len(f.normal) == 0
}

// Pending returns how many URLs are still queued, regardless of budget.
func (f *Frontier) Pending() int {
	return len(f.boosted) + len(f.normal)
}

// FetchedCount returns the number of pages counted against the budget.
func (f *Frontier) FetchedCount() int {
	return f.fetched
}

// Snapshot captures the frontier for checkpointing.
func (f *Frontier) Snapshot() audit.FrontierSnapshot {
	snap := audit.FrontierSnapshot{
		Visited: make([]string, 0, len(f.visited)),
		Boosted: append([]audit.QueuedURL(nil), f.boosted...),
		Normal:  append([]audit.QueuedURL(nil), f.normal...),
		Fetched: f.fetched,
	}
	for key := range f.visited {
		snap.Visited = append(snap.Visited, key)
	}
	return snap
}

// Restore rebuilds a Frontier from a checkpoint snapshot. The page budget
// comes from the current run configuration, not the snapshot, so an operator
// can raise the budget between runs.
func Restore(siteID string, budget int, snap audit.FrontierSnapshot) *Frontier {
	f := New(siteID, budget)
	for _, key := range snap.Visited {
		f.visited[key] = struct{}{}
	}
	f.fetched = snap.Fetched
	for _, item := range snap.Boosted {
		if _, ok := f.visited[item.URL]; ok {
			continue
		}
		f.queued[item.URL] = struct{}{}
		f.boosted = append(f.boosted, item)
	}
	for _, item := range snap.Normal {
		if _, ok := f.visited[item.URL]; ok {
			continue
		}
		f.queued[item.URL] = struct{}{}
		f.normal = append(f.normal, item)
	}
	return f
}

func boosted(canonicalURL, linkText string) bool {
	lowerURL := strings.ToLower(canonicalURL)
	for _, kw := range boostKeywords {
		if strings.Contains(lowerURL, kw) {
			return true
		}
	}
	// Location-named PDFs are often the single best source on a site.
	if strings.Contains(lowerURL, ".pdf") {
		for _, kw := range []string{"map", "service", "terminal", "directory"} {
			if strings.Contains(lowerURL, kw) {
				return true
			}
		}
	}
	if linkText != "" {
		lowerText := strings.ToLower(linkText)
		for _, kw := range boostLinkText {
			if strings.Contains(lowerText, kw) {
				return true
			}
		}
	}
	return false
}
