package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInitIsIdempotentAndObserversDoNotPanic(t *testing.T) {
	Init()
	Init()

	require.NotPanics(t, func() {
		ObservePage("acme.com", "FETCHED", 2*time.Second)
		ObservePage("acme.com", "FAILED", 45*time.Second)
		ObserveSite("DONE")
		ObserveRetry("NETWORK")
		ObserveSessionRestart()
		IncActiveWorkers()
		DecActiveWorkers()
		ObservePaceWait(500 * time.Millisecond)
	})
}

func TestHandlerServesMetrics(t *testing.T) {
	Init()
	ObserveSite("DONE")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	require.Contains(t, rec.Body.String(), "audit_sites_total")
}
