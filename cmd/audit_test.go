package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sgct97/truckingCompanyCrawler/internal/config"
)

func TestApplyFlagOverrides(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load("")
	require.NoError(t, err)

	auditCmd := newAuditCmd()
	require.NoError(t, auditCmd.Flags().Set("workers", "9"))
	require.NoError(t, auditCmd.Flags().Set("resume", "false"))

	applyFlagOverrides(auditCmd, &auditFlags{workers: 9, resume: false}, &cfg)

	require.Equal(t, 9, cfg.Crawl.Workers)
	require.False(t, cfg.Resume)
	require.Equal(t, 50, cfg.Crawl.PageBudget, "unset flags must not clobber config")
}

func TestRootCommandListsAudit(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	sub, _, err := root.Find([]string{"audit"})
	require.NoError(t, err)
	require.Equal(t, "audit", sub.Name())
}
