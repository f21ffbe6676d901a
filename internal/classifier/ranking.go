package classifier

import (
	"sort"

	"github.com/Sgct97/truckingCompanyCrawler/internal/audit"
)

// RankPages orders a site's classified pages best-first. The ordering is
// total and deterministic: distinct modality count, then address count, then
// direct sources over index hubs, then the signal score (which carries the
// foreign-path penalty), then shallower depth, then the URL itself.
func RankPages(pages []audit.PageResult) []audit.PageResult {
	ranked := append([]audit.PageResult(nil), pages...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		at, bt := distinctTags(a.Classification.Tags), distinctTags(b.Classification.Tags)
		if at != bt {
			return at > bt
		}
		if a.Classification.AddressCount != b.Classification.AddressCount {
			return a.Classification.AddressCount > b.Classification.AddressCount
		}
		ai, bi := indexOnly(a.Classification), indexOnly(b.Classification)
		if ai != bi {
			return !ai
		}
		if a.Classification.Score != b.Classification.Score {
			return a.Classification.Score > b.Classification.Score
		}
		if a.Record.Depth != b.Record.Depth {
			return a.Record.Depth < b.Record.Depth
		}
		return a.Record.URL < b.Record.URL
	})
	return ranked
}

// distinctTags counts real modalities, ignoring NONE.
func distinctTags(tags []audit.Tag) int {
	n := 0
	for _, tag := range tags {
		if tag != audit.TagNone {
			n++
		}
	}
	return n
}

func indexOnly(c audit.ClassificationResult) bool {
	return len(c.Tags) == 1 && c.Tags[0] == audit.TagIndexPage
}
