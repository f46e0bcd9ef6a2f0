// Package aws implements the S3 presigned-PUT output sink, per spec
// §4.13: api_key is a base64-encoded JSON object {bucket, secret, key,
// region}, and the sink constructs a presigned PUT URL valid for 3600s
// rather than holding a live S3 client session. Grounded on
// ClusterCockpit-cc-backend's pkg/archive/parquet/target.go for the
// aws-sdk-go-v2 config/credentials wiring.
package aws

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hostforensics/triage/internal/backoff"
	"github.com/hostforensics/triage/internal/logging"
)

// credentialSet is the decoded shape of the base64-encoded api_key JSON
// object spec §4.13 names.
type credentialSet struct {
	Bucket string `json:"bucket"`
	Secret string `json:"secret"`
	Key    string `json:"key"`
	Region string `json:"region"`
}

// Sink presigns and PUTs objects into a single S3 bucket.
type Sink struct {
	client *s3.Client
	bucket string
	http   *http.Client
}

// New decodes apiKey (base64 JSON {bucket,secret,key,region}) and builds
// the presign client.
func New(apiKey string) (*Sink, error) {
	raw, err := base64.StdEncoding.DecodeString(apiKey)
	if err != nil {
		return nil, fmt.Errorf("aws sink: decode api_key: %w", err)
	}
	var creds credentialSet
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("aws sink: unmarshal api_key: %w", err)
	}
	if creds.Bucket == "" {
		return nil, fmt.Errorf("aws sink: api_key missing bucket")
	}
	region := creds.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.Key, creds.Secret, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("aws sink: load config: %w", err)
	}

	return &Sink{
		client: s3.NewFromConfig(awsCfg),
		bucket: creds.Bucket,
		http:   &http.Client{Timeout: 300 * time.Second},
	}, nil
}

// presignTTL is spec §4.13's exact 3600s presigned-URL validity window.
const presignTTL = 3600 * time.Second

// Put presigns a PUT for name and uploads body, retrying on failure per
// internal/backoff's default policy.
func (s *Sink) Put(ctx context.Context, name string, body []byte, contentType string) error {
	presignClient := s3.NewPresignClient(s.client, s3.WithPresignExpires(presignTTL))
	req, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(name),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("aws sink: presign %q: %w", name, err)
	}

	return backoff.Default.Retry(ctx, func(n int) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, req.URL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("aws sink: build request: %w", err)
		}
		httpReq.Header.Set("Content-Type", contentType)
		httpReq.ContentLength = int64(len(body))

		resp, err := s.http.Do(httpReq)
		if err != nil {
			logging.Warn("aws sink PUT attempt failed", "name", name, "attempt", n, "error", err)
			return err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("aws sink: PUT %q returned %d", name, resp.StatusCode)
		}
		return nil
	})
}
