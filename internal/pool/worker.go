package pool

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Sgct97/truckingCompanyCrawler/internal/aggregate"
	"github.com/Sgct97/truckingCompanyCrawler/internal/audit"
	"github.com/Sgct97/truckingCompanyCrawler/internal/frontier"
	"github.com/Sgct97/truckingCompanyCrawler/internal/metrics"
	"github.com/Sgct97/truckingCompanyCrawler/internal/storage"
)

// worker audits one site end to end: discover or restore the frontier, open
// a dedicated browser session, drain the queue, classify pages, and record
// the terminal result.
type worker struct {
	id     int
	pool   *Pool
	logger *zap.Logger
}

func newWorker(id int, p *Pool) *worker {
	return &worker{
		id:     id,
		pool:   p,
		logger: p.deps.Logger.With(zap.Int("worker", id)),
	}
}

func (w *worker) process(ctx context.Context, site audit.Site) {
	if ctx.Err() != nil {
		return
	}
	deps := w.pool.deps
	logger := w.logger.With(zap.String("site", site.ID))

	if entry, ok := deps.Checkpoint.Lookup(site.ID); ok && entry.State.Terminal() {
		logger.Info("site already terminal, skipping", zap.String("state", string(entry.State)))
		w.pool.updateStatus(site.ID, func(s *SiteStatus) {
			s.State = entry.State
			if entry.Result != nil {
				s.PagesFetched = len(entry.Result.Pages)
				s.FailedPages = countFailed(entry.Result.Pages)
				s.Error = entry.Result.ErrorText
			}
		})
		return
	}

	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()
	w.pool.updateStatus(site.ID, func(s *SiteStatus) { s.State = audit.SiteStateInProgress })

	result := audit.SiteResult{
		SiteID:    site.ID,
		Name:      site.Name,
		StartedAt: deps.Clock.Now(),
	}

	front, pages := w.restoreOrDiscover(ctx, site, logger)
	result.Pages = pages

	session, err := w.openSession(ctx, site, logger)
	if err != nil {
		w.pool.noteSessionOutcome(false)
		w.finishSite(ctx, result, audit.SiteStateFailed, "session establishment failed: "+err.Error(), logger)
		return
	}
	w.pool.noteSessionOutcome(true)
	defer func() {
		if session != nil {
			session.Close()
		}
	}()

	limiter := rate.NewLimiter(rate.Every(w.pool.cfg.RequestDelay), 1)
	restarts := 0
	sinceFlush := 0

	for !front.IsExhausted() {
		if ctx.Err() != nil {
			w.checkpointProgress(site.ID, front, result.Pages, logger)
			return
		}
		item, ok := front.Dequeue()
		if !ok {
			break
		}
		if front.Visited(item.URL) {
			continue
		}

		if w.pool.cfg.RequestDelay > 0 {
			waitStart := deps.Clock.Now()
			if err := limiter.Wait(ctx); err != nil {
				w.checkpointProgress(site.ID, front, result.Pages, logger)
				return
			}
			metrics.ObservePaceWait(deps.Clock.Now().Sub(waitStart))
		}

		snap, attempts, sessErr := w.fetchWithRetry(ctx, session, item.URL)
		if sessErr != nil {
			if ctx.Err() != nil {
				w.checkpointProgress(site.ID, front, result.Pages, logger)
				return
			}
			if restarts >= w.pool.cfg.MaxSessionRestarts {
				w.finishSite(ctx, result, audit.SiteStateFailed,
					"browser session kept crashing: "+sessErr.Error(), logger)
				return
			}
			restarts++
			metrics.ObserveSessionRestart()
			logger.Warn("recreating browser session", zap.Error(sessErr), zap.Int("restart", restarts))
			session.Close()
			session, err = w.openSession(ctx, site, logger)
			if err != nil {
				w.pool.noteSessionOutcome(false)
				w.finishSite(ctx, result, audit.SiteStateFailed,
					"session recreation failed: "+err.Error(), logger)
				return
			}
			w.pool.noteSessionOutcome(true)
			// One resumed attempt for the URL that killed the session; if
			// that fails too the page is abandoned, not the site. The next
			// dequeued URL goes through the restart path again when the
			// fresh session is also dead.
			snap, attempts, sessErr = w.fetchWithRetry(ctx, session, item.URL)
			if sessErr != nil {
				logger.Warn("abandoning page after session recreation",
					zap.String("url", item.URL), zap.Error(sessErr))
				snap = audit.PageSnapshot{
					URL:         item.URL,
					FinalURL:    item.URL,
					Failed:      true,
					ErrorKind:   audit.KindOf(sessErr),
					ErrorDetail: sessErr.Error(),
				}
			}
		}

		front.MarkVisited(item.URL)
		page := w.buildPageResult(ctx, site, item, snap, attempts, logger)
		result.Pages = append(result.Pages, page)
		w.pool.updateStatus(site.ID, func(s *SiteStatus) {
			s.PagesFetched = len(result.Pages)
			s.FailedPages = countFailed(result.Pages)
		})

		if !snap.Failed {
			for _, link := range snap.Links {
				if !audit.SameSite(link.URL, audit.SiteHost(site.Homepage())) {
					continue
				}
				front.Enqueue(link.URL, item.Depth+1, audit.SourceLink, link.Text)
			}
		}

		sinceFlush++
		if sinceFlush >= w.pool.cfg.CheckpointInterval {
			w.checkpointProgress(site.ID, front, result.Pages, logger)
			sinceFlush = 0
		}
	}

	state := audit.SiteStateDone
	if front.BudgetReached() && front.Pending() > 0 {
		state = audit.SiteStateBudgetExceeded
	}
	w.finishSite(ctx, result, state, "", logger)
}

// restoreOrDiscover rebuilds the frontier from the checkpoint when the site
// was interrupted mid-crawl, otherwise runs discovery and seeds a fresh one.
func (w *worker) restoreOrDiscover(ctx context.Context, site audit.Site, logger *zap.Logger) (*frontier.Frontier, []audit.PageResult) {
	deps := w.pool.deps
	if entry, ok := deps.Checkpoint.Lookup(site.ID); ok && entry.Frontier != nil {
		logger.Info("resuming site from checkpoint",
			zap.Int("fetched", entry.Frontier.Fetched),
			zap.Int("queued", len(entry.Frontier.Boosted)+len(entry.Frontier.Normal)))
		return frontier.Restore(site.ID, w.pool.cfg.PageBudget, *entry.Frontier), entry.Pages
	}

	seeds := deps.Discoverer.Discover(ctx, site)
	front := frontier.New(site.ID, w.pool.cfg.PageBudget)
	front.Seed(seeds)
	return front, nil
}

// openSession establishes a browser session with bounded retries.
func (w *worker) openSession(ctx context.Context, site audit.Site, logger *zap.Logger) (audit.Session, error) {
	deps := w.pool.deps
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		session, err := deps.Factory.NewSession(ctx, site)
		if err == nil {
			return session, nil
		}
		lastErr = err
		logger.Warn("session establishment failed",
			zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-time.After(deps.Retry.Backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// fetchWithRetry fetches one URL, retrying page-level failures per the retry
// policy. A non-nil error is session-fatal and bubbles to the caller.
func (w *worker) fetchWithRetry(ctx context.Context, session audit.Session, url string) (audit.PageSnapshot, int, error) {
	deps := w.pool.deps
	attempt := 1
	for {
		snap, err := session.Fetch(ctx, url)
		if err != nil {
			return audit.PageSnapshot{}, attempt, err
		}
		if !snap.Failed || !retryableSnapshot(snap) || !deps.Retry.ShouldRetry(snap.ErrorKind, attempt) {
			return snap, attempt, nil
		}
		metrics.ObserveRetry(string(snap.ErrorKind))
		select {
		case <-time.After(deps.Retry.Backoff(attempt)):
		case <-ctx.Done():
			return snap, attempt, nil
		}
		attempt++
	}
}

// retryableSnapshot rules out failures another attempt cannot change.
// Client errors are definitive; 429 is the one 4xx worth waiting out.
func retryableSnapshot(snap audit.PageSnapshot) bool {
	if snap.ErrorKind != audit.ErrKindHTTP {
		return true
	}
	if snap.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return snap.StatusCode >= 500
}

// buildPageResult classifies a snapshot and archives its rendered HTML.
func (w *worker) buildPageResult(ctx context.Context, site audit.Site, item audit.QueuedURL, snap audit.PageSnapshot, attempts int, logger *zap.Logger) audit.PageResult {
	deps := w.pool.deps
	record := audit.URLRecord{
		URL:      item.URL,
		SiteID:   site.ID,
		Source:   item.Source,
		Depth:    item.Depth,
		Attempts: attempts,
	}

	if snap.Failed {
		record.Status = audit.URLStatusFailed
		record.LastErrorKind = snap.ErrorKind
		metrics.ObservePage(site.ID, string(audit.URLStatusFailed), snap.Duration)
		logger.Debug("page failed",
			zap.String("url", item.URL),
			zap.String("kind", string(snap.ErrorKind)),
			zap.String("detail", snap.ErrorDetail))
		return audit.PageResult{Record: record}
	}

	record.Status = audit.URLStatusFetched
	metrics.ObservePage(site.ID, string(audit.URLStatusFetched), snap.Duration)

	page := audit.PageResult{
		Record:         record,
		Title:          snap.Title,
		Classification: deps.Classifier.Classify(snap),
	}

	if deps.Blobs != nil {
		key := storage.ArtifactKey(deps.RunID, site.ID, item.URL)
		uri, putErr := deps.Blobs.PutObject(ctx, key, "text/html; charset=utf-8", []byte(snap.HTML))
		if putErr != nil {
			logger.Warn("artifact upload failed", zap.String("url", item.URL), zap.Error(putErr))
		} else {
			page.ArtifactURI = uri
		}
	}
	return page
}

// checkpointProgress flushes an interrupted site's frontier so a later run
// resumes instead of recrawling.
func (w *worker) checkpointProgress(siteID string, front *frontier.Frontier, pages []audit.PageResult, logger *zap.Logger) {
	if err := w.pool.deps.Checkpoint.RecordInProgress(siteID, front.Snapshot(), pages); err != nil {
		logger.Error("checkpoint write failed", zap.Error(err))
	}
}

// finishSite records the terminal state, publishes the summary, and updates
// live status.
func (w *worker) finishSite(ctx context.Context, result audit.SiteResult, state audit.SiteState, errText string, logger *zap.Logger) {
	deps := w.pool.deps
	result.State = state
	result.ErrorText = errText
	result.FinishedAt = deps.Clock.Now()

	if err := deps.Checkpoint.RecordTerminal(result); err != nil {
		logger.Error("terminal checkpoint write failed", zap.Error(err))
	}
	w.pool.observeTerminal(result)

	summary := aggregate.Summarize(result)
	if deps.Publisher != nil {
		// Publish with a background-derived context so a canceled run still
		// reports the sites it finished.
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if _, err := deps.Publisher.Publish(pubCtx, w.pool.cfg.Topic, summary); err != nil {
			logger.Warn("summary publish failed", zap.Error(err))
		}
	}

	logger.Info("site finished",
		zap.String("state", string(state)),
		zap.Int("pages", len(result.Pages)),
		zap.Int("location_pages", summary.LocationPages),
		zap.String("recipe", summary.Recipe))
}
