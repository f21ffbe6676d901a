// Package pool runs the crawl: a bounded set of workers, each auditing one
// site at a time through its own isolated browser session. The pool owns
// run-level fatality decisions; everything below site granularity is the
// worker's problem.
package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Sgct97/truckingCompanyCrawler/internal/audit"
	"github.com/Sgct97/truckingCompanyCrawler/internal/checkpoint"
	"github.com/Sgct97/truckingCompanyCrawler/internal/metrics"
)

// Discoverer resolves a site's seed URLs.
type Discoverer interface {
	Discover(ctx context.Context, site audit.Site) []audit.QueuedURL
}

// Classifier tags a rendered page.
type Classifier interface {
	Classify(snap audit.PageSnapshot) audit.ClassificationResult
}

// Config controls pool behavior.
type Config struct {
	// Workers caps concurrent sites in flight.
	Workers int
	// PageBudget caps pages fetched per site.
	PageBudget int
	// RequestDelay is the minimum spacing between fetches within one site.
	RequestDelay time.Duration
	// CheckpointInterval is the page count between in-progress flushes.
	CheckpointInterval int
	// MaxSessionRestarts bounds browser recreations per site.
	MaxSessionRestarts int
	// Topic receives site summaries as sites finish.
	Topic string
}

// Deps are the collaborators a pool needs.
type Deps struct {
	Factory    audit.SessionFactory
	Discoverer Discoverer
	Classifier Classifier
	Checkpoint *checkpoint.Store
	Blobs      audit.BlobStore
	Publisher  audit.Publisher
	Retry      audit.RetryPolicy
	Clock      audit.Clock
	Logger     *zap.Logger
	RunID      string
}

// Pool fans sites out to workers and tracks run-level progress.
type Pool struct {
	cfg  Config
	deps Deps

	mu       sync.Mutex
	statuses map[string]SiteStatus

	// Session-establishment failures with zero successes anywhere mean the
	// browser environment is broken; the run aborts instead of marking
	// every site FAILED one by one.
	sessionFailures int
	sessionSuccess  bool
	fatalErr        error
	cancelRun       context.CancelFunc
}

// SiteStatus is one site's live progress, served by the status API.
type SiteStatus struct {
	SiteID       string          `json:"site_id"`
	Name         string          `json:"name"`
	State        audit.SiteState `json:"state"`
	PagesFetched int             `json:"pages_fetched"`
	FailedPages  int             `json:"failed_pages"`
	Error        string          `json:"error,omitempty"`
}

// Progress is the run-level view.
type Progress struct {
	RunID          string       `json:"run_id"`
	TotalSites     int          `json:"total_sites"`
	Pending        int          `json:"pending"`
	InProgress     int          `json:"in_progress"`
	Done           int          `json:"done"`
	Failed         int          `json:"failed"`
	BudgetExceeded int          `json:"budget_exceeded"`
	Sites          []SiteStatus `json:"sites"`
}

// New builds a Pool, applying config defaults.
func New(cfg Config, deps Deps) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.PageBudget <= 0 {
		cfg.PageBudget = 50
	}
	if cfg.CheckpointInterval <= 0 {
		cfg.CheckpointInterval = 25
	}
	if cfg.MaxSessionRestarts <= 0 {
		cfg.MaxSessionRestarts = 2
	}
	metrics.Init()
	return &Pool{
		cfg:      cfg,
		deps:     deps,
		statuses: make(map[string]SiteStatus),
	}
}

// Run audits all sites and blocks until the run completes, the context is
// canceled, or session establishment proves globally broken.
func (p *Pool) Run(ctx context.Context, sites []audit.Site) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	p.mu.Lock()
	p.cancelRun = cancel
	for _, site := range sites {
		p.statuses[site.ID] = SiteStatus{SiteID: site.ID, Name: site.Name, State: audit.SiteStatePending}
	}
	p.mu.Unlock()

	feed := make(chan audit.Site)
	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w := newWorker(id, p)
			for site := range feed {
				w.process(runCtx, site)
			}
		}(i)
	}

	for _, site := range sites {
		select {
		case feed <- site:
		case <-runCtx.Done():
			close(feed)
			wg.Wait()
			return p.runError(ctx)
		}
	}
	close(feed)
	wg.Wait()

	if err := p.deps.Checkpoint.Flush(); err != nil {
		return fmt.Errorf("final checkpoint flush: %w", err)
	}
	return p.runError(ctx)
}

// Status returns a consistent snapshot of run progress.
func (p *Pool) Status() Progress {
	p.mu.Lock()
	defer p.mu.Unlock()

	progress := Progress{
		RunID:      p.deps.RunID,
		TotalSites: len(p.statuses),
		Sites:      make([]SiteStatus, 0, len(p.statuses)),
	}
	for _, status := range p.statuses {
		progress.Sites = append(progress.Sites, status)
		switch status.State {
		case audit.SiteStatePending:
			progress.Pending++
		case audit.SiteStateInProgress:
			progress.InProgress++
		case audit.SiteStateDone:
			progress.Done++
		case audit.SiteStateFailed:
			progress.Failed++
		case audit.SiteStateBudgetExceeded:
			progress.BudgetExceeded++
		}
	}
	return progress
}

// SiteStatus returns one site's live status.
func (p *Pool) SiteStatus(siteID string) (SiteStatus, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	status, ok := p.statuses[siteID]
	return status, ok
}

func (p *Pool) updateStatus(siteID string, update func(*SiteStatus)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	status := p.statuses[siteID]
	update(&status)
	p.statuses[siteID] = status
}

// noteSessionOutcome tracks run-level browser health. Three failed session
// establishments before any success aborts the run.
func (p *Pool) noteSessionOutcome(established bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if established {
		p.sessionSuccess = true
		return
	}
	p.sessionFailures++
	if !p.sessionSuccess && p.sessionFailures >= 3 && p.fatalErr == nil {
		p.fatalErr = fmt.Errorf("%d session failures with no successes: browser environment is broken", p.sessionFailures)
		if p.cancelRun != nil {
			p.cancelRun()
		}
	}
}

func (p *Pool) runError(parent context.Context) error {
	p.mu.Lock()
	fatal := p.fatalErr
	p.mu.Unlock()
	if fatal != nil {
		return fatal
	}
	if err := parent.Err(); err != nil {
		return fmt.Errorf("run interrupted: %w", err)
	}
	return nil
}

// observeTerminal pushes terminal bookkeeping shared by all exit paths.
func (p *Pool) observeTerminal(result audit.SiteResult) {
	metrics.ObserveSite(string(result.State))
	p.updateStatus(result.SiteID, func(s *SiteStatus) {
		s.State = result.State
		s.PagesFetched = len(result.Pages)
		s.FailedPages = countFailed(result.Pages)
		s.Error = result.ErrorText
	})
}

func countFailed(pages []audit.PageResult) int {
	n := 0
	for _, page := range pages {
		if page.Record.Status == audit.URLStatusFailed {
			n++
		}
	}
	return n
}
