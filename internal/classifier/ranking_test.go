package classifier

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sgct97/truckingCompanyCrawler/internal/audit"
)

func pageResult(url string, depth, score, addresses int, tags ...audit.Tag) audit.PageResult {
	return audit.PageResult{
		Record: audit.URLRecord{URL: url, Depth: depth},
		Classification: audit.ClassificationResult{
			Tags:         tags,
			Score:        score,
			AddressCount: addresses,
		},
	}
}

func TestRankPagesPrefersRicherModalities(t *testing.T) {
	t.Parallel()

	pages := []audit.PageResult{
		pageResult("https://acme.com/locations", 1, 5, 0, audit.TagIndexPage),
		pageResult("https://acme.com/terminals", 2, 32, 22, audit.TagAddressList, audit.TagGmapsEmbed),
		pageResult("https://acme.com/find", 1, 10, 0, audit.TagSearchForm),
	}

	ranked := RankPages(pages)
	require.Equal(t, "https://acme.com/terminals", ranked[0].Record.URL)
	require.Equal(t, "https://acme.com/find", ranked[1].Record.URL)
	require.Equal(t, "https://acme.com/locations", ranked[2].Record.URL)
}

func TestRankPagesPrefersModalityCountOverScore(t *testing.T) {
	t.Parallel()

	pages := []audit.PageResult{
		pageResult("https://acme.com/directory", 1, 55, 45, audit.TagAddressList),
		pageResult("https://acme.com/coverage", 2, 30, 0,
			audit.TagGmapsEmbed, audit.TagStaticMapImage, audit.TagSearchForm),
	}

	ranked := RankPages(pages)
	require.Equal(t, "https://acme.com/coverage", ranked[0].Record.URL)
	require.Equal(t, "https://acme.com/directory", ranked[1].Record.URL)
}

func TestRankPagesScoreBreaksTiesWithinEqualModalities(t *testing.T) {
	t.Parallel()

	// Same tags and address count; the lower score models the penalty a
	// foreign-language path variant receives.
	pages := []audit.PageResult{
		pageResult("https://acme.com/es/locations", 1, 19, 12, audit.TagAddressList),
		pageResult("https://acme.com/locations", 1, 22, 12, audit.TagAddressList),
	}

	ranked := RankPages(pages)
	require.Equal(t, "https://acme.com/locations", ranked[0].Record.URL)
}

func TestRankPagesBreaksTiesOnDepthThenURL(t *testing.T) {
	t.Parallel()

	pages := []audit.PageResult{
		pageResult("https://acme.com/z", 2, 10, 0, audit.TagSearchForm),
		pageResult("https://acme.com/b", 1, 10, 0, audit.TagSearchForm),
		pageResult("https://acme.com/a", 1, 10, 0, audit.TagSearchForm),
	}

	ranked := RankPages(pages)
	require.Equal(t, "https://acme.com/a", ranked[0].Record.URL)
	require.Equal(t, "https://acme.com/b", ranked[1].Record.URL)
	require.Equal(t, "https://acme.com/z", ranked[2].Record.URL)
}

func TestRankPagesPrefersDirectSourceOverIndexHub(t *testing.T) {
	t.Parallel()

	pages := []audit.PageResult{
		pageResult("https://acme.com/locations", 1, 10, 0, audit.TagIndexPage),
		pageResult("https://acme.com/find", 2, 10, 0, audit.TagSearchForm),
	}

	ranked := RankPages(pages)
	require.Equal(t, "https://acme.com/find", ranked[0].Record.URL)
}

func TestRankPagesDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	pages := []audit.PageResult{
		pageResult("https://acme.com/a", 1, 1, 0, audit.TagSearchForm),
		pageResult("https://acme.com/b", 1, 9, 0, audit.TagSearchForm),
	}
	_ = RankPages(pages)
	require.Equal(t, "https://acme.com/a", pages[0].Record.URL)
}
