package audit

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalizeCollapsesEquivalentSpellings(t *testing.T) {
	t.Parallel()

	variants := []string{
		"https://ACME.com/Terminals/",
		"https://acme.com:443/Terminals",
		"https://acme.com/Terminals#map",
		"  https://acme.com/Terminals/  ",
	}
	want := "https://acme.com/Terminals"
	for _, v := range variants {
		got, err := Canonicalize(v)
		require.NoError(t, err, v)
		require.Equal(t, want, got, v)
	}
}

func TestCanonicalizeIsIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"https://acme.com/",
		"http://acme.com:80/locations?b=2&a=1",
		"https://www.acme.com/find-us/?zip=44113#results",
	}
	for _, in := range inputs {
		once, err := Canonicalize(in)
		require.NoError(t, err)
		twice, err := Canonicalize(once)
		require.NoError(t, err)
		require.Equal(t, once, twice, in)
	}
}

func TestCanonicalizeSortsQueryParams(t *testing.T) {
	t.Parallel()

	a, err := Canonicalize("https://acme.com/search?zip=44113&radius=50")
	require.NoError(t, err)
	b, err := Canonicalize("https://acme.com/search?radius=50&zip=44113")
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestCanonicalizeRejectsNonWebURLs(t *testing.T) {
	t.Parallel()

	for _, bad := range []string{"ftp://acme.com/map.pdf", "https:///no-host", "not a url at all"} {
		_, err := Canonicalize(bad)
		require.Error(t, err, bad)
	}
}

func TestNormalizeLinkResolvesRelativeHrefs(t *testing.T) {
	t.Parallel()

	base, err := url.Parse("https://acme.com/locations/")
	require.NoError(t, err)

	got, ok := NormalizeLink(base, "columbus/")
	require.True(t, ok)
	require.Equal(t, "https://acme.com/locations/columbus", got)
}

func TestNormalizeLinkRejectsExcludedTargets(t *testing.T) {
	t.Parallel()

	base, err := url.Parse("https://acme.com/")
	require.NoError(t, err)

	for _, href := range []string{
		"/blog/route-updates",
		"/careers",
		"mailto:dispatch@acme.com",
		"tel:+18005551212",
		"javascript:void(0)",
		"https://facebook.com/acmefreight",
		"/assets/fleet.png",
		"",
	} {
		_, ok := NormalizeLink(base, href)
		require.False(t, ok, href)
	}
}

func TestSameSiteIncludesSubdomains(t *testing.T) {
	t.Parallel()

	require.True(t, SameSite("https://acme.com/terminals", "acme.com"))
	require.True(t, SameSite("https://locator.acme.com/find", "acme.com"))
	require.True(t, SameSite("https://www.acme.com/", "acme.com"))
	require.False(t, SameSite("https://acme.com.evil.example/", "acme.com"))
	require.False(t, SameSite("https://other.com/", "acme.com"))
}

func TestSiteHostStripsWWW(t *testing.T) {
	t.Parallel()

	require.Equal(t, "acme.com", SiteHost("https://WWW.Acme.com/about"))
	require.Equal(t, "", SiteHost("://broken"))
}
