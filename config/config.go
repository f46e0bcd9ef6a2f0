// Package config loads the Output descriptor spec §3 and the SPEC_FULL
// Data Model section add: a TOML document when driven from a collection
// config file, or a plain struct literal when the embedder builds one
// in-process. Grounded on standardbeagle-lci's
// internal/config/build_artifact_detector.go's use of
// github.com/pelletier/go-toml/v2.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/hostforensics/triage/output"
)

// descriptorDoc mirrors output.Descriptor with toml struct tags: the
// in-process API keeps output.Descriptor tag-free so callers never need
// this package just to build one by hand.
type descriptorDoc struct {
	Name         string `toml:"name"`
	Directory    string `toml:"directory"`
	Format       string `toml:"format"`
	Compress     bool   `toml:"compress"`
	Timeline     bool   `toml:"timeline"`
	URL          string `toml:"url"`
	APIKey       string `toml:"api_key"`
	EndpointID   string `toml:"endpoint_id"`
	CollectionID string `toml:"collection_id"`
	Output       string `toml:"output"`
	FilterName   string `toml:"filter_name"`
	FilterScript string `toml:"filter_script"`
	Logging      bool   `toml:"logging"`
}

// LoadDescriptor reads a TOML collection config file at path and decodes
// it into an output.Descriptor.
func LoadDescriptor(path string) (*output.Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	return DecodeDescriptor(data)
}

// DecodeDescriptor parses a TOML document's bytes into an output.Descriptor.
func DecodeDescriptor(data []byte) (*output.Descriptor, error) {
	var doc descriptorDoc
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: unmarshal toml: %w", err)
	}
	return &output.Descriptor{
		Name:         doc.Name,
		Directory:    doc.Directory,
		Format:       output.Format(doc.Format),
		Compress:     doc.Compress,
		Timeline:     doc.Timeline,
		URL:          doc.URL,
		APIKey:       doc.APIKey,
		EndpointID:   doc.EndpointID,
		CollectionID: doc.CollectionID,
		Output:       output.Kind(doc.Output),
		FilterName:   doc.FilterName,
		FilterScript: doc.FilterScript,
		Logging:      doc.Logging,
	}, nil
}

// EncodeDescriptor marshals desc back to TOML, the inverse of
// DecodeDescriptor, for round-tripping a collection config.
func EncodeDescriptor(desc *output.Descriptor) ([]byte, error) {
	doc := descriptorDoc{
		Name:         desc.Name,
		Directory:    desc.Directory,
		Format:       string(desc.Format),
		Compress:     desc.Compress,
		Timeline:     desc.Timeline,
		URL:          desc.URL,
		APIKey:       desc.APIKey,
		EndpointID:   desc.EndpointID,
		CollectionID: desc.CollectionID,
		Output:       string(desc.Output),
		FilterName:   desc.FilterName,
		FilterScript: desc.FilterScript,
		Logging:      desc.Logging,
	}
	out, err := toml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("config: marshal toml: %w", err)
	}
	return out, nil
}
