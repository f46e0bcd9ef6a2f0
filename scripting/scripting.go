// Package scripting is the boundary-only host interface spec §4.15
// describes: a flat JSON-in/JSON-out capability surface built once from
// the same Collector registry artifacts/facade uses, so the two surfaces
// can never drift apart. The runtime that would actually embed a
// scripting language is out of scope; this package only defines and
// populates the binding table.
package scripting

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/hostforensics/triage/artifacts/facade"
	"github.com/hostforensics/triage/internal/enc"
)

// Binding is a single callable surface: raw JSON in, raw JSON out. Purity
// and round-trip-without-structural-loss are its only hard requirements,
// per spec §4.15.
type Binding func(ctx context.Context, input json.RawMessage) (json.RawMessage, error)

// Bindings is the full flat registry, keyed by capability name.
var Bindings = map[string]Binding{}

// bind registers name, panicking on a duplicate key: every binding name
// is chosen by this package, never by runtime input, so a collision is a
// programming error caught at init.
func bind(name string, b Binding) {
	if _, exists := Bindings[name]; exists {
		panic(fmt.Sprintf("scripting: duplicate binding %q", name))
	}
	Bindings[name] = b
}

func init() {
	registerArtifactBindings()
	registerUtilityBindings()
}

// artifactInput is the JSON shape every artifact binding accepts: raw
// bytes (base64, per encoding/json's []byte convention), and the two
// optional fields some collectors require.
type artifactInput struct {
	Raw      []byte `json:"raw"`
	HivePath string `json:"hive_path"`
	Name     string `json:"name"`
	Query    string `json:"query"`
	Args     []any  `json:"args"`
}

// registerArtifactBindings exposes one binding per facade.Collector,
// named "artifact.<name>".
func registerArtifactBindings() {
	for _, name := range facade.Registered() {
		name := name
		bind("artifact."+name, func(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
			var in artifactInput
			if err := json.Unmarshal(input, &in); err != nil {
				return nil, fmt.Errorf("scripting: artifact.%s: decode input: %w", name, err)
			}
			result, err := facade.Call(ctx, name, facade.Options{
				Raw:      in.Raw,
				HivePath: in.HivePath,
				Name:     in.Name,
				Query:    in.Query,
				Args:     in.Args,
			})
			if err != nil {
				return nil, fmt.Errorf("scripting: artifact.%s: %w", name, err)
			}
			out, err := json.Marshal(result)
			if err != nil {
				return nil, fmt.Errorf("scripting: artifact.%s: encode output: %w", name, err)
			}
			return out, nil
		})
	}
}

// registerUtilityBindings exposes the standalone parsers spec §4.15 names
// alongside the artifact collectors: base64, gzip, and the raw byte
// decoders a host embedder needs without going through a whole artifact.
func registerUtilityBindings() {
	bind("util.base64_decode", func(_ context.Context, input json.RawMessage) (json.RawMessage, error) {
		var s string
		if err := json.Unmarshal(input, &s); err != nil {
			return nil, fmt.Errorf("scripting: util.base64_decode: decode input: %w", err)
		}
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("scripting: util.base64_decode: %w", err)
		}
		return json.Marshal(decoded)
	})
	bind("util.base64_encode", func(_ context.Context, input json.RawMessage) (json.RawMessage, error) {
		var b []byte
		if err := json.Unmarshal(input, &b); err != nil {
			return nil, fmt.Errorf("scripting: util.base64_encode: decode input: %w", err)
		}
		return json.Marshal(enc.Base64Std(b))
	})
}
