package classifier

import "regexp"

// streetAddressRe matches a US street line: a house number followed by a
// street name and a recognized suffix.
var streetAddressRe = regexp.MustCompile(`(?i)\b\d{1,6}\s+[A-Za-z0-9'.\- ]{2,40}\b(Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Drive|Dr|Lane|Ln|Highway|Hwy|Parkway|Pkwy|Court|Ct|Circle|Cir|Way|Place|Pl|Trail|Trl|Pike|Loop)\.?\b`)

// cityStateZipRe matches "City, ST 12345" with an optional ZIP+4.
var cityStateZipRe = regexp.MustCompile(`\b[A-Z][A-Za-z.' \-]{1,40},\s*[A-Z]{2}\s+\d{5}(-\d{4})?\b`)

// mapEmbedHosts identify interactive map iframes and loader scripts.
var mapEmbedHosts = []string{
	"google.com/maps",
	"maps.google.com",
	"maps.googleapis.com",
	"mapbox.com",
	"api.mapbox.com",
	"leafletjs.com",
	"unpkg.com/leaflet",
	"arcgis.com",
}

// nonMapGoogleHosts are Google resources that must never count as a map
// embed even though they match loosely on "google".
var nonMapGoogleHosts = []string{
	"googletagmanager.com",
	"google-analytics.com",
	"recaptcha",
	"fonts.googleapis.com",
	"fonts.gstatic.com",
	"doubleclick.net",
}

// indexPathPatterns mark hub pages that link out to per-location subpages.
var indexPathPatterns = []string{
	"/locations",
	"/location",
	"/terminals",
	"/terminal",
	"/service-centers",
	"/service_centers",
	"/service-center",
	"/branches",
	"/branch",
	"/facilities",
	"/find-us",
	"/find_us",
	"/locator",
	"/branch-locator",
	"/store-locator",
	"/where-we-are",
	"/coverage",
	"/network",
}

// locationLinkKeywords flag anchors that point at location content.
var locationLinkKeywords = []string{
	"location", "terminal", "service-center", "service_center",
	"branch", "depot", "yard", "facilit", "locator", "finder", "find-us",
}

// staticMapKeywords identify non-interactive coverage map images by source
// path or alt text.
var staticMapKeywords = []string{
	"coverage-map", "coverage_map", "service-map", "service_map",
	"network-map", "network_map", "terminal-map", "terminal_map",
	"servicemap", "coveragemap", "map of",
}

// searchInputKeywords flag a location-search form field by its name, id, or
// placeholder.
var searchInputKeywords = []string{
	"zip", "postal", "city", "location", "address", "radius", "near",
}

// nonSearchFormKeywords disqualify a form from SEARCH_FORM even when it has
// zip/city fields.
var nonSearchFormKeywords = []string{
	"quote", "tracking", "track-", "login", "signin", "sign-in",
	"newsletter", "subscribe", "careers",
}

// clickableListSelector matches repeated location cards and list entries.
const clickableListSelector = `[class*="location"], [class*="terminal"], [class*="branch"], [class*="facility"], [data-location], [data-terminal]`

// foreignPathSegments are leading path segments that indicate non-US content.
// Such pages are deprioritized in ranking, never excluded.
var foreignPathSegments = []string{
	"/es/", "/fr/", "/de/", "/pt/", "/mx/", "/en-ca/", "/fr-ca/",
	"/en-gb/", "/en-au/", "/intl/", "/international/",
}
