// Package aggregate condenses a site's page results into the one-row
// SiteSummary operators act on: which modalities the site exposes, its best
// page, and the combined extraction recipe.
package aggregate

import (
	"sort"
	"strings"

	"github.com/Sgct97/truckingCompanyCrawler/internal/audit"
	"github.com/Sgct97/truckingCompanyCrawler/internal/classifier"
)

// Summarize reduces a finished site to its summary. Failed pages count but
// never contribute modalities. A site with no location-bearing page gets the
// manual-review recipe.
func Summarize(result audit.SiteResult) audit.SiteSummary {
	summary := audit.SiteSummary{
		SiteID:     result.SiteID,
		Name:       result.Name,
		State:      result.State,
		TotalPages: len(result.Pages),
	}

	modalitySet := make(map[audit.Tag]struct{})
	recipeSet := make(map[string]struct{})
	var recipeOrder []string

	for _, page := range result.Pages {
		if page.Record.Status == audit.URLStatusFailed {
			summary.FailedPages++
			continue
		}
		tagged := false
		located := false
		for _, tag := range page.Classification.Tags {
			if tag == audit.TagNone {
				continue
			}
			tagged = true
			modalitySet[tag] = struct{}{}
			// Index hubs point at location pages without being one.
			if tag != audit.TagIndexPage {
				located = true
			}
		}
		if !tagged {
			continue
		}
		if located {
			summary.LocationPages++
		}
		for _, fragment := range strings.Split(page.Classification.Recipe, "; ") {
			if fragment == "" {
				continue
			}
			if _, ok := recipeSet[fragment]; !ok {
				recipeSet[fragment] = struct{}{}
				recipeOrder = append(recipeOrder, fragment)
			}
		}
	}

	ranked := classifier.RankPages(result.Pages)
	if len(ranked) > 0 && ranked[0].Record.Status != audit.URLStatusFailed && hasModality(ranked[0]) {
		summary.TopPageURL = ranked[0].Record.URL
		summary.TopPageScore = ranked[0].Classification.Score
	}

	summary.Modalities = sortedModalities(modalitySet)
	if len(recipeOrder) == 0 {
		summary.Recipe = "Manual review needed"
	} else {
		summary.Recipe = strings.Join(recipeOrder, "; ")
	}
	return summary
}

func hasModality(page audit.PageResult) bool {
	for _, tag := range page.Classification.Tags {
		if tag != audit.TagNone {
			return true
		}
	}
	return false
}

func sortedModalities(set map[audit.Tag]struct{}) []audit.Tag {
	tags := make([]audit.Tag, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}
