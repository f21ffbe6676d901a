package sitelist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeRoster(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sites.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadNormalizesRecords(t *testing.T) {
	t.Parallel()

	path := writeRoster(t, `[
  {"name": "Acme Freight", "websites": "www.acme.com, https://locator.acme.com"},
  {"name": "Bravo Trucking", "websites": "https://bravotrucking.com"},
  {"name": "", "websites": "charlie-carrier.com"}
]`)

	sites, skipped, err := Load(path)
	require.NoError(t, err)
	require.Empty(t, skipped)
	require.Len(t, sites, 3)

	require.Equal(t, "acme.com", sites[0].ID)
	require.Equal(t, "Acme Freight", sites[0].Name)
	require.Equal(t, []string{"https://www.acme.com", "https://locator.acme.com"}, sites[0].RootURLs)
	require.Equal(t, "https://www.acme.com", sites[0].Homepage())

	// Name falls back to the site ID.
	require.Equal(t, "charlie-carrier.com", sites[2].Name)
}

func TestLoadSkipsEmptyAndDuplicateRecords(t *testing.T) {
	t.Parallel()

	path := writeRoster(t, `[
  {"name": "No Site", "websites": "  "},
  {"name": "Acme", "websites": "acme.com"},
  {"name": "Acme Again", "websites": "https://acme.com/home"}
]`)

	sites, skipped, err := Load(path)
	require.NoError(t, err)
	require.Len(t, sites, 1)
	require.Len(t, skipped, 2)
	require.Contains(t, skipped[0], "no usable url")
	require.Contains(t, skipped[1], "duplicate")
}

func TestLoadFailsOnBadJSON(t *testing.T) {
	t.Parallel()

	path := writeRoster(t, `{"not": "an array"`)
	_, _, err := Load(path)
	require.Error(t, err)
}
