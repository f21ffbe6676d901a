package audit

import (
	"fmt"
	"net/url"
	"strings"
)

// excludedLinkFragments are substrings that disqualify a link from the
// frontier: low-value sections, binary assets, social hosts, and
// non-navigable schemes.
var excludedLinkFragments = []string{
	"/blog", "/news", "/press", "/career", "/job", "/apply",
	"/login", "/signin", "/register", "/cart", "/checkout",
	"/privacy", "/terms", "/legal", "/cookie",
	".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp", ".ico", ".css", ".js",
	".mp4", ".mp3", ".avi", ".mov",
	".zip", ".rar", ".exe", ".dmg",
	"facebook.com", "twitter.com", "linkedin.com", "instagram.com",
	"youtube.com", "mailto:", "tel:", "javascript:",
}

// Canonicalize standardizes a URL so equivalent spellings share one frontier
// key. It lowercases the scheme and host, removes default ports, drops the
// fragment and any trailing slash, and sorts query parameters.
// Canonicalization is idempotent.
func Canonicalize(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme == "http" {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.Fragment = ""

	// Encode() sorts query parameters by key.
	u.RawQuery = u.Query().Encode()

	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	if u.Path == "/" && u.RawQuery == "" {
		u.Path = ""
	}

	return u.String(), nil
}

// NormalizeLink resolves href against base, applies the exclusion list, and
// returns the canonical form. ok is false when the link should not enter the
// frontier.
func NormalizeLink(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || base == nil {
		return "", false
	}
	lower := strings.ToLower(href)
	for _, frag := range excludedLinkFragments {
		if strings.Contains(lower, frag) {
			return "", false
		}
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	canonical, err := Canonicalize(abs.String())
	if err != nil {
		return "", false
	}
	return canonical, true
}

// SiteHost extracts the registrable comparison host of a URL: lowercase,
// without a leading www.
func SiteHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// SameSite reports whether rawURL belongs to the given site host, counting
// subdomains (locator.example.com belongs to example.com). Location finders
// frequently live on tool subdomains, so those must remain crawlable.
func SameSite(rawURL, siteHost string) bool {
	if siteHost == "" {
		return false
	}
	host := SiteHost(rawURL)
	if host == "" {
		return false
	}
	return host == siteHost || strings.HasSuffix(host, "."+siteHost)
}
