package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/san-kum/monte/internal/sampling"
)

// Open returns the backend for kind ("files" or "sqlite") rooted at dataDir.
func Open(kind, dataDir string) (Backend, error) {
	switch kind {
	case "", "files":
		s := New(dataDir)
		if err := s.Init(); err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, err
		}
		return NewSQLiteStore(filepath.Join(dataDir, "monte.db"))
	}
	return nil, fmt.Errorf("unknown storage %q", kind)
}

// ExportData is a whole run in one document.
type ExportData struct {
	Metadata   RunMetadata                  `json:"metadata"`
	Series     map[string][]sampling.Sample `json:"series"`
	Trajectory json.RawMessage              `json:"trajectory,omitempty"`
}

// Export loads run runID from b and writes it to w as indented JSON.
func Export(ctx context.Context, b Backend, runID string, w io.Writer) error {
	meta, err := b.Load(ctx, runID)
	if err != nil {
		return err
	}
	data := ExportData{Metadata: *meta, Series: make(map[string][]sampling.Sample, len(meta.Observables))}
	for _, o := range meta.Observables {
		samples, err := b.LoadSeries(ctx, runID, o.Name)
		if err != nil {
			return fmt.Errorf("series %s: %w", o.Name, err)
		}
		data.Series[o.Name] = samples
	}
	if data.Trajectory, err = b.LoadTrajectory(ctx, runID); err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportFile writes run runID to path.
func ExportFile(ctx context.Context, b Backend, runID, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return Export(ctx, b, runID, file)
}
