package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArtifactKeyIsStableAndScoped(t *testing.T) {
	t.Parallel()

	a := ArtifactKey("run-1", "acme", "https://acme.com/terminals")
	b := ArtifactKey("run-1", "acme", "https://acme.com/terminals")
	require.Equal(t, a, b)
	require.Contains(t, a, "runs/run-1/sites/acme/pages/")
	require.Contains(t, a, ".html")

	other := ArtifactKey("run-1", "acme", "https://acme.com/find")
	require.NotEqual(t, a, other)
}
