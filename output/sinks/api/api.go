// Package api implements the HTTP API output sink: per spec §4.13/§9.2,
// it POSTs multipart Content-Type: application/octet-stream chunks to
// url and expects a 2xx response, authenticating with endpoint_id and
// collection_id as headers. Built on stdlib mime/multipart + net/http,
// the pack's own choice for this concern (no example repo wraps a
// dedicated multipart-upload library).
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/hostforensics/triage/internal/backoff"
	"github.com/hostforensics/triage/internal/logging"
)

// Sink POSTs multipart bodies to a single collector endpoint.
type Sink struct {
	URL          string
	EndpointID   string
	CollectionID string
	http         *http.Client
}

func New(url, endpointID, collectionID string) *Sink {
	return &Sink{
		URL:          url,
		EndpointID:   endpointID,
		CollectionID: collectionID,
		http:         &http.Client{Timeout: 300 * time.Second},
	}
}

// Put POSTs body as a single multipart field named "file", retrying up
// to 15 times on non-2xx per spec §4.13's shared sink retry policy.
func (s *Sink) Put(ctx context.Context, name string, body []byte, contentType string) error {
	return backoff.Default.Retry(ctx, func(n int) error {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", name)
		if err != nil {
			return fmt.Errorf("api sink: create form file: %w", err)
		}
		if _, err := part.Write(body); err != nil {
			return fmt.Errorf("api sink: write form body: %w", err)
		}
		if err := mw.Close(); err != nil {
			return fmt.Errorf("api sink: close multipart writer: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, &buf)
		if err != nil {
			return fmt.Errorf("api sink: build request: %w", err)
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("X-Endpoint-Id", s.EndpointID)
		req.Header.Set("X-Collection-Id", s.CollectionID)

		resp, err := s.http.Do(req)
		if err != nil {
			logging.Warn("api sink POST attempt failed", "name", name, "attempt", n, "error", err)
			return err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("api sink: POST %q returned %d", name, resp.StatusCode)
		}
		return nil
	})
}
