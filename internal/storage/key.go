// Package storage provides artifact key construction shared by all blob
// store backends. The stores themselves live in subpackages (gcs, local,
// memory) behind the audit.BlobStore interface.
package storage

import (
	"fmt"

	"github.com/Sgct97/truckingCompanyCrawler/internal/hash/sha256"
)

// ArtifactKey builds the object path of a page's rendered HTML artifact,
// keyed by the digest of its canonical URL.
func ArtifactKey(runID, siteID, canonicalURL string) string {
	return fmt.Sprintf("runs/%s/sites/%s/pages/%s.html", runID, siteID, sha256.URLDigest(canonicalURL))
}
