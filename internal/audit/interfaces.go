package audit

import (
	"context"
	"time"
)

// Session is one isolated browsing context dedicated to a single site.
// Fetch returns a PageSnapshot for every page-level outcome, including
// failures; a non-nil error means the session itself is unusable and must
// be recreated.
type Session interface {
	Fetch(ctx context.Context, url string) (PageSnapshot, error)
	Close()
}

// SessionFactory opens isolated browsing sessions, one per site at a time.
type SessionFactory interface {
	NewSession(ctx context.Context, site Site) (Session, error)
}

// BlobStore writes rendered-page artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes site-summary events to an external consumer. An empty
// topic means the publisher's configured default.
type Publisher interface {
	Publish(ctx context.Context, topic string, summary SiteSummary) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// RetryPolicy decides whether a failed page fetch should be retried and how
// long to back off before the next attempt.
type RetryPolicy interface {
	ShouldRetry(kind ErrorKind, attempt int) bool
	Backoff(attempt int) time.Duration
}
