// Package publish writes snapshots as static JSON documents.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/statuswatch/statuswatch/internal/snapshot"
)

// DefaultDir is where the static site reads its data from.
const DefaultDir = "frontend/public/data"

// Document file names.
const (
	ProvidersFile = "providers.json"
	StatusFile    = "status.json"
	IncidentsFile = "incidents.json"
	AnalyticsFile = "analytics.json"
)

// FileSink writes the four snapshot documents into a directory.
type FileSink struct {
	dir    string
	logger zerolog.Logger
}

var _ snapshot.Sink = (*FileSink)(nil)

// NewFileSink creates a sink writing into dir (DefaultDir when empty).
func NewFileSink(dir string, logger zerolog.Logger) *FileSink {
	if dir == "" {
		dir = DefaultDir
	}
	return &FileSink{dir: dir, logger: logger}
}

// Name implements snapshot.Sink.
func (s *FileSink) Name() string { return "file" }

// Dir returns the output directory.
func (s *FileSink) Dir() string { return s.dir }

// Publish writes every document, creating the directory if needed. Each file
// is replaced atomically so readers never see a partial document.
func (s *FileSink) Publish(ctx context.Context, snap *snapshot.Snapshot) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	docs := []struct {
		name string
		doc  any
	}{
		{ProvidersFile, snap.Providers},
		{StatusFile, snap.Status},
		{IncidentsFile, snap.Incidents},
		{AnalyticsFile, snap.Analytics},
	}

	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.write(d.name, d.doc); err != nil {
			return err
		}
		s.logger.Debug().Str("file", d.name).Str("dir", s.dir).Msg("document written")
	}
	return nil
}

func (s *FileSink) write(name string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}
