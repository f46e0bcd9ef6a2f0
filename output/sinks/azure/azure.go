// Package azure implements the Azure Blob SAS-URI output sink, per spec
// §4.13: url is a SAS URI of the form https://…?sv=…, recomposed per
// object as {base}/{directory}%2F{name}%2F{file}?{query}, PUT with
// x-ms-version and (for a plain block upload) x-ms-blob-type headers,
// retrying up to 15 times on non-2xx. The azure-storage-blob-go
// dependency this package's grounding row names is the pack's only
// Azure SDK; its own client surface targets container/blob URLs rather
// than ad hoc SAS recomposition, so the PUT itself is issued directly
// over net/http against the recomposed URI as spec §4.13 describes it.
package azure

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hostforensics/triage/internal/backoff"
	"github.com/hostforensics/triage/internal/logging"
)

const apiVersion = "2019-12-12"

// Sink PUTs blobs against a single SAS URI's base+query, recomposing the
// path per upload.
type Sink struct {
	// BaseURL and Query are the SAS URI split at its first '?': BaseURL is
	// everything before, Query is everything after (without the '?').
	BaseURL string
	Query   string
	// Directory and Name are the Descriptor fields spec §4.13 folds into
	// the recomposed path alongside the per-call file name.
	Directory string
	Name      string

	http *http.Client
}

// New splits a SAS URI of the form https://…?sv=… into base and query.
func New(sasURI, directory, name string) (*Sink, error) {
	idx := strings.IndexByte(sasURI, '?')
	if idx < 0 {
		return nil, fmt.Errorf("azure sink: url missing SAS query: %q", sasURI)
	}
	return &Sink{
		BaseURL:   sasURI[:idx],
		Query:     sasURI[idx+1:],
		Directory: directory,
		Name:      name,
		http:      &http.Client{Timeout: 300 * time.Second},
	}, nil
}

// Put recomposes {base}/{directory}%2F{name}%2F{file}?{query} and PUTs
// body as a single BlockBlob, retrying up to 15 times on non-2xx per
// spec §4.13.
func (s *Sink) Put(ctx context.Context, file string, body []byte, contentType string) error {
	url := fmt.Sprintf("%s/%s%%2F%s%%2F%s?%s", s.BaseURL, s.Directory, s.Name, file, s.Query)

	return backoff.Policy{MaxAttempts: 15, BaseDelay: backoff.Default.BaseDelay, MaxDelay: backoff.Default.MaxDelay}.Retry(ctx, func(n int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("azure sink: build request: %w", err)
		}
		req.Header.Set("x-ms-version", apiVersion)
		req.Header.Set("x-ms-blob-type", "BlockBlob")
		req.Header.Set("Content-Type", contentType)
		req.ContentLength = int64(len(body))

		resp, err := s.http.Do(req)
		if err != nil {
			logging.Warn("azure sink PUT attempt failed", "file", file, "attempt", n, "error", err)
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("azure sink: PUT %q returned %d", file, resp.StatusCode)
		}
		return nil
	})
}
