// Package output defines the Descriptor configuration value and Sink
// interface shared by every output destination (C16/C17), per spec §3's
// "Output descriptor" data-model entry and §4.13's routing table.
package output

import "context"

// Format selects the serialization formatters produce, per spec §3.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
)

// Kind selects which sink backend Write dispatches to, per spec §4.13.
type Kind string

const (
	KindLocal Kind = "local"
	KindAWS   Kind = "aws"
	KindAzure Kind = "azure"
	KindGCP   Kind = "gcp"
	KindSFTP  Kind = "sftp"
	KindAPI   Kind = "api"
)

// Descriptor is the configuration value every artifact invocation carries,
// per spec §3. It is created by the caller, mutated only to record
// successive committed-file counts, and destroyed when the collection
// completes.
type Descriptor struct {
	Name         string
	Directory    string
	Format       Format
	Compress     bool
	Timeline     bool
	URL          string
	APIKey       string
	EndpointID   string
	CollectionID string
	Output       Kind
	FilterName   string
	FilterScript string
	Logging      bool

	// FilesWritten is the descriptor's mutable counter: it increments once
	// per file actually committed to the sink.
	FilesWritten int
}

// Sink is implemented by every output backend, per spec §4.13's single
// interface shared across local/aws/azure/gcp/sftp/api. Put commits body
// under name, relative to whatever root the sink's configuration names
// (Descriptor.Directory for local, a bucket/container/remote path for the
// remote sinks).
type Sink interface {
	Put(ctx context.Context, name string, body []byte, contentType string) error
}

// Metadata frames one artifact's output, per spec §6: `{ metadata: {...},
// data: [...] }` for JSON, or a metadata line followed by per-record lines
// for JSONL.
type Metadata struct {
	Name      string `json:"name"`
	Artifact  string `json:"artifact"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}
