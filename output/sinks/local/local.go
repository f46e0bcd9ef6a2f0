// Package local implements the filesystem output sink: per spec §4.13, it
// writes under {directory}/{name}/{artifact}.{format}[.gz], optionally
// zip-bundling the directory afterward. Grounded on
// ClusterCockpit-cc-backend's internal/metricstore/archive.go for the
// archive/zip usage pattern.
package local

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hostforensics/triage/internal/logging"
)

// Sink writes files beneath Root, one artifact at a time.
type Sink struct {
	Root string
}

func New(root string) *Sink {
	return &Sink{Root: root}
}

// Put writes body to Root/name, creating any intermediate directories.
// contentType is accepted for Sink interface parity but unused: the
// filesystem has no content-type metadata slot.
func (s *Sink) Put(_ context.Context, name string, body []byte, _ string) error {
	path := filepath.Join(s.Root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("local sink: mkdir %q: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, body, 0o640); err != nil {
		return fmt.Errorf("local sink: write %q: %w", path, err)
	}
	logging.Info("local sink wrote file", "path", path, "bytes", len(body))
	return nil
}

// zipEligible lists the extensions spec §4.13 allows the bundler to
// delete once their bytes are copied into the zip.
var zipEligible = map[string]bool{
	".json":  true,
	".jsonl": true,
	".log":   true,
	".gz":    true,
	".csv":   true,
}

// Bundle zips every eligible loose file under dir into dir/../name.zip
// using default (store-level, per spec §4.13) compression, then deletes
// the originals and finally the now-empty directory.
func Bundle(dir, name string) error {
	zipPath := filepath.Join(filepath.Dir(dir), name+".zip")
	zf, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("local sink: create zip %q: %w", zipPath, err)
	}
	defer zf.Close()

	zw := zip.NewWriter(zf)
	var toDelete []string
	err = filepath.Walk(dir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}
		if !zipEligible[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: rel, Method: zip.Store})
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if _, err := io.Copy(w, f); err != nil {
			return err
		}
		toDelete = append(toDelete, path)
		return nil
	})
	if err != nil {
		zw.Close()
		return fmt.Errorf("local sink: bundle %q: %w", dir, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("local sink: finalize zip %q: %w", zipPath, err)
	}

	for _, path := range toDelete {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("local sink: delete %q: %w", path, err)
		}
	}
	// Remove is best-effort: a leftover ineligible file means the
	// directory isn't empty, and it's left in place rather than treated
	// as an error.
	if err := os.Remove(dir); err != nil {
		logging.Warn("local sink left directory in place after bundling", "dir", dir, "reason", err)
	}
	logging.Info("local sink bundled directory", "zip", zipPath, "files", len(toDelete))
	return nil
}
