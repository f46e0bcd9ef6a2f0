// Package gcp implements the Google Cloud Storage output sink. Spec
// §4.13 describes gcp as "analogous" to the aws contract: api_key
// carries base64-encoded JSON credentials and url names the bucket.
// Grounded on google.golang.org/api/storage/v1, the ecosystem's GCS
// client (present in the pack's manifests), mirroring the
// credentials-in-api_key shape output/sinks/aws already uses.
package gcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/storage/v1"

	"github.com/hostforensics/triage/internal/backoff"
	"github.com/hostforensics/triage/internal/logging"
)

// Sink uploads objects into a single GCS bucket via the JSON API.
type Sink struct {
	svc    *storage.Service
	bucket string
}

// New decodes apiKey as base64 service-account JSON credentials and
// builds the storage client for bucket.
func New(ctx context.Context, apiKey, bucket string) (*Sink, error) {
	raw, err := base64.StdEncoding.DecodeString(apiKey)
	if err != nil {
		return nil, fmt.Errorf("gcp sink: decode api_key: %w", err)
	}
	svc, err := storage.NewService(ctx, option.WithCredentialsJSON(raw))
	if err != nil {
		return nil, fmt.Errorf("gcp sink: new service: %w", err)
	}
	return &Sink{svc: svc, bucket: bucket}, nil
}

// Put uploads body as name, retrying per internal/backoff's default
// policy since the GCS JSON API gives no SDK-level retryer the way
// aws-sdk-go-v2 does.
func (s *Sink) Put(ctx context.Context, name string, body []byte, contentType string) error {
	obj := &storage.Object{Name: name, Bucket: s.bucket, ContentType: contentType}
	return backoff.Default.Retry(ctx, func(n int) error {
		_, err := s.svc.Objects.Insert(s.bucket, obj).Media(bytes.NewReader(body)).Context(ctx).Do()
		if err != nil {
			logging.Warn("gcp sink PUT attempt failed", "name", name, "attempt", n, "error", err)
		}
		return err
	})
}
