// Package sitelist loads the carrier roster from a JSON file. Each record
// names a company and one or more website URLs; bare domains get an https
// scheme and the site ID derives from the first URL's host.
package sitelist

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/Sgct97/truckingCompanyCrawler/internal/audit"
)

// record is one roster row as stored on disk. Websites is a comma-separated
// list because the roster is exported from a spreadsheet.
type record struct {
	Name     string `json:"name"`
	Websites string `json:"websites"`
}

// Load reads and normalizes the roster. Records without a usable URL are
// skipped with their index reported in the error-free skip list.
func Load(path string) ([]audit.Site, []string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read sites file %s: %w", path, err)
	}
	var records []record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, nil, fmt.Errorf("parse sites file %s: %w", path, err)
	}

	sites := make([]audit.Site, 0, len(records))
	var skipped []string
	seen := make(map[string]struct{})

	for i, rec := range records {
		urls := splitURLs(rec.Websites)
		if len(urls) == 0 {
			skipped = append(skipped, fmt.Sprintf("record %d (%s): no usable url", i, rec.Name))
			continue
		}
		id := audit.SiteHost(urls[0])
		if id == "" {
			skipped = append(skipped, fmt.Sprintf("record %d (%s): bad url %q", i, rec.Name, urls[0]))
			continue
		}
		if _, dup := seen[id]; dup {
			skipped = append(skipped, fmt.Sprintf("record %d (%s): duplicate of %s", i, rec.Name, id))
			continue
		}
		seen[id] = struct{}{}

		name := strings.TrimSpace(rec.Name)
		if name == "" {
			name = id
		}
		sites = append(sites, audit.Site{
			ID:       id,
			Name:     name,
			RootURLs: urls,
			State:    audit.SiteStatePending,
		})
	}
	return sites, skipped, nil
}

// splitURLs normalizes a comma-separated website field.
func splitURLs(field string) []string {
	var urls []string
	for _, part := range strings.Split(field, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.HasPrefix(part, "http://") && !strings.HasPrefix(part, "https://") {
			part = "https://" + part
		}
		if _, err := audit.Canonicalize(part); err != nil {
			continue
		}
		urls = append(urls, part)
	}
	return urls
}
