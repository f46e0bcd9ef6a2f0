// Package facade is the uniform artifact entry point spec §4.14 names:
// one Grab per invocation, routed through a map[string]Collector registry
// so every artifact is reachable by name from both the in-process caller
// and (per §4.15) the scripting host. Grounded on the shape of the
// teacher's own command dispatch (cmd/hiveexplorer's flag-to-handler
// table), generalized from "one registry subcommand" to "one artifact
// collector".
package facade

import (
	"context"
	"fmt"
	"time"

	"github.com/hostforensics/triage/internal/logging"
	"github.com/hostforensics/triage/output"
	"github.com/hostforensics/triage/output/formatters"
)

// Options carries whatever raw input a Collector needs. Not every field
// applies to every artifact: file-backed containers (MFT, LNK, plist,
// PE resources) read Raw; registry-backed containers open HivePath
// themselves; ScheduledTask additionally needs Name; the sqlite collector
// uses HivePath as the database path plus Query/Args.
type Options struct {
	Raw      []byte
	HivePath string
	Name     string
	Query    string
	Args     []any
}

// Collector captures one artifact's records from opts. The returned value
// must be JSON-marshalable: Grab serializes it directly.
type Collector func(ctx context.Context, opts Options) (any, error)

// registry is the name -> Collector table. Populated by RegisterDefaults
// and by scripting.Bindings so the two surfaces can never drift apart,
// per spec §4.15.
var registry = map[string]Collector{}

// Register adds or replaces the Collector for name.
func Register(name string, c Collector) {
	registry[name] = c
}

// Registered reports which artifact names are currently routable.
func Registered() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// ErrUnknownArtifact is returned by Grab when name has no registered
// Collector.
type ErrUnknownArtifact struct{ Name string }

func (e ErrUnknownArtifact) Error() string {
	return fmt.Sprintf("facade: no collector registered for artifact %q", e.Name)
}

// Call runs the named artifact's Collector and returns its raw result
// without going through the output pipeline, for callers (notably
// scripting.Bindings) that only want the decoded value back.
func Call(ctx context.Context, artifact string, opts Options) (any, error) {
	collector, ok := registry[artifact]
	if !ok {
		return nil, ErrUnknownArtifact{Name: artifact}
	}
	return collector(ctx, opts)
}

// Grab runs the named artifact's Collector and writes its output via
// sink, per spec §4.14: capture start time, call the container, serialize
// to JSON/JSONL, hand off to the sink. A failing artifact never aborts a
// sibling's collection; the caller runs one Grab per artifact and decides
// independently how to react to each error.
func Grab(ctx context.Context, artifact string, opts Options, desc *output.Descriptor, sink output.Sink) error {
	collector, ok := registry[artifact]
	if !ok {
		return ErrUnknownArtifact{Name: artifact}
	}

	start := time.Now().UTC().Format(time.RFC3339Nano)
	records, err := collector(ctx, opts)
	if err != nil {
		logging.Error("artifact collection failed", "artifact", artifact, "error", err)
		return fmt.Errorf("facade: grab %q: %w", artifact, err)
	}

	list, ok := records.([]any)
	if !ok {
		list = []any{records}
	}
	list = applyFilter(ctx, artifact, list, desc.FilterName, desc.FilterScript)
	end := time.Now().UTC().Format(time.RFC3339Nano)
	meta := output.Metadata{Name: desc.Name, Artifact: artifact, StartTime: start, EndTime: end}

	body, err := formatters.Render(desc.Format, desc.Compress, meta, list)
	if err != nil {
		return fmt.Errorf("facade: render %q: %w", artifact, err)
	}

	filename := artifact + "." + formatters.Extension(desc.Format, desc.Compress)
	if err := sink.Put(ctx, filename, body, contentTypeFor(desc)); err != nil {
		return fmt.Errorf("facade: write %q: %w", artifact, err)
	}
	desc.FilesWritten++
	logging.Info("artifact collected", "artifact", artifact, "records", len(list), "file", filename)
	return nil
}

func contentTypeFor(desc *output.Descriptor) string {
	if desc.Compress {
		return "application/gzip"
	}
	if desc.Format == output.FormatJSONL {
		return "application/json-seq"
	}
	return "application/json"
}
