// Package checkpoint persists run progress to a single JSON document so an
// interrupted run resumes where it stopped. Writes go through a temp file
// and an atomic rename, so a crash mid-write can never corrupt the last
// good checkpoint.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Sgct97/truckingCompanyCrawler/internal/audit"
)

// Version is bumped on incompatible document layout changes.
const Version = 1

// Document is the on-disk checkpoint layout.
type Document struct {
	Version   int              `json:"version"`
	RunID     string           `json:"run_id"`
	UpdatedAt time.Time        `json:"updated_at"`
	Sites     map[string]Entry `json:"sites"`
}

// Entry is one site's persisted progress. Terminal sites carry a Result;
// in-flight sites carry a Frontier to resume from.
type Entry struct {
	State    audit.SiteState         `json:"state"`
	Result   *audit.SiteResult       `json:"result,omitempty"`
	Frontier *audit.FrontierSnapshot `json:"frontier,omitempty"`
	Pages    []audit.PageResult      `json:"pages,omitempty"`
}

// Store owns the checkpoint file. Safe for concurrent use by pool workers.
type Store struct {
	mu     sync.Mutex
	path   string
	doc    Document
	clock  audit.Clock
	logger *zap.Logger
}

// Open loads an existing checkpoint or initializes a fresh document. A file
// that exists but does not parse is corruption: resuming from it could
// silently re-crawl or skip sites, so Open fails with a CHECKPOINT error and
// the operator decides whether to delete it.
func Open(path, runID string, clock audit.Clock, logger *zap.Logger) (*Store, error) {
	s := &Store{
		path:   path,
		clock:  clock,
		logger: logger,
		doc: Document{
			Version: Version,
			RunID:   runID,
			Sites:   make(map[string]Entry),
		},
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, audit.WrapKind(audit.ErrKindCheckpoint, fmt.Errorf("read checkpoint %s: %w", path, err))
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, audit.WrapKind(audit.ErrKindCheckpoint, fmt.Errorf("parse checkpoint %s: %w", path, err))
	}
	if doc.Version != Version {
		return nil, audit.WrapKind(audit.ErrKindCheckpoint,
			fmt.Errorf("checkpoint %s has version %d, expected %d", path, doc.Version, Version))
	}
	if doc.Sites == nil {
		doc.Sites = make(map[string]Entry)
	}
	doc.RunID = runID
	s.doc = doc
	logger.Info("checkpoint loaded",
		zap.String("path", path),
		zap.Int("sites", len(doc.Sites)))
	return s, nil
}

// Lookup returns a site's persisted entry.
func (s *Store) Lookup(siteID string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.doc.Sites[siteID]
	return entry, ok
}

// RecordInProgress saves a site's frontier and pages fetched so far. Flushed
// immediately so a crash between page-interval flushes loses bounded work.
func (s *Store) RecordInProgress(siteID string, frontier audit.FrontierSnapshot, pages []audit.PageResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := frontier
	s.doc.Sites[siteID] = Entry{
		State:    audit.SiteStateInProgress,
		Frontier: &snap,
		Pages:    pages,
	}
	return s.flushLocked()
}

// RecordTerminal saves a site's final result and drops its frontier.
func (s *Store) RecordTerminal(result audit.SiteResult) error {
	if !result.State.Terminal() {
		return fmt.Errorf("site %s state %s is not terminal", result.SiteID, result.State)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r := result
	s.doc.Sites[result.SiteID] = Entry{
		State:  result.State,
		Result: &r,
	}
	return s.flushLocked()
}

// Flush forces a write of the current document.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

// Close flushes one final time.
func (s *Store) Close() error {
	return s.Flush()
}

func (s *Store) flushLocked() error {
	s.doc.UpdatedAt = s.clock.Now().UTC()
	raw, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".checkpoint-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// Best effort; the temp file is gone after a successful rename.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp checkpoint: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace checkpoint: %w", err)
	}
	return nil
}
