package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/monte/internal/sampling"
)

// Store keeps each run in its own directory: metadata.json, one CSV per
// series and, when recorded, trajectory.json.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Close() error { return nil }

func (s *Store) Save(ctx context.Context, rec Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	runID := rec.Meta.ID
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), rec.Meta); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}
	for _, series := range rec.Series {
		if err := writeSeries(filepath.Join(runDir, seriesFile(series.Name())), series); err != nil {
			return "", fmt.Errorf("write series %s: %w", series.Name(), err)
		}
	}
	if len(rec.Trajectory) > 0 {
		if err := writeJSON(filepath.Join(runDir, "trajectory.json"), rec.Trajectory); err != nil {
			return "", fmt.Errorf("write trajectory: %w", err)
		}
	}
	return runID, nil
}

// List returns every readable run, oldest first.
func (s *Store) List(ctx context.Context) ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(ctx, entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].Timestamp.Before(runs[j].Timestamp)
		}
		return runs[i].Run < runs[j].Run
	})
	return runs, nil
}

func (s *Store) Load(_ context.Context, runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadSeries(_ context.Context, runID, name string) ([]sampling.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, seriesFile(name)))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sampling.Sample{}, nil
	}

	samples := make([]sampling.Sample, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) < 2 {
			return nil, fmt.Errorf("%s line %d: short record", name, i+2)
		}
		idx, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", name, i+2, err)
		}
		p, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", name, i+2, err)
		}
		values := make([]float64, 0, len(record)-2)
		for _, field := range record[2:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", name, i+2, err)
			}
			values = append(values, v)
		}
		samples = append(samples, sampling.Sample{Index: idx, Progress: p, Values: values})
	}
	return samples, nil
}

// LoadTrajectory returns the raw snapshots of a run, nil when none were taken.
func (s *Store) LoadTrajectory(_ context.Context, runID string) (json.RawMessage, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "trajectory.json"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}

func seriesFile(name string) string {
	return "series_" + strings.ReplaceAll(name, string(filepath.Separator), "_") + ".csv"
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSeries(path string, series *sampling.Series) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(seriesHeader(series)); err != nil {
		return err
	}
	for _, smp := range series.Samples() {
		row := []string{
			strconv.FormatInt(smp.Index, 10),
			strconv.FormatFloat(smp.Progress, 'g', -1, 64),
		}
		for _, v := range smp.Values {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func seriesHeader(series *sampling.Series) []string {
	header := []string{"index", "progress"}
	if comps := series.Components(); len(comps) > 0 {
		return append(header, comps...)
	}
	for i := 0; i < series.Width(); i++ {
		header = append(header, fmt.Sprintf("v%d", i))
	}
	return header
}
