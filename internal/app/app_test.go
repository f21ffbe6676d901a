package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Sgct97/truckingCompanyCrawler/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()

	roster := filepath.Join(dir, "sites.json")
	require.NoError(t, os.WriteFile(roster, []byte(`[
		{"name": "Acme Freight", "websites": "https://acme-freight.example.com"},
		{"name": "Borealis Trucking", "websites": "borealis-trucking.example.com"}
	]`), 0o644))

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.SitesFile = roster
	cfg.Checkpoint.Path = filepath.Join(dir, "checkpoint.json")
	cfg.Storage.Provider = "memory"
	cfg.Publisher.Provider = "memory"
	cfg.Server.Enabled = false
	return cfg
}

func TestNewWiresMemoryProviders(t *testing.T) {
	t.Parallel()

	a, err := New(context.Background(), testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	require.NotEmpty(t, a.RunID())
	require.Len(t, a.Sites(), 2)
	require.NotNil(t, a.Pool())
}

func TestNewAppliesStartIndex(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Crawl.StartIndex = 1

	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	require.Len(t, a.Sites(), 1)
	require.Equal(t, "borealis-trucking.example.com", a.Sites()[0].ID)
}

func TestNewRejectsStartIndexPastRoster(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Crawl.StartIndex = 5

	_, err := New(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	require.Contains(t, err.Error(), "start_index")
}

func TestNewRejectsUnknownStorageProvider(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Storage.Provider = "s3"

	_, err := New(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown storage provider")
}

func TestFreshRunDiscardsCheckpoint(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.Checkpoint.Path, []byte(`{"version": 99}`), 0o644))
	cfg.Resume = false

	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	a.Close()
}
