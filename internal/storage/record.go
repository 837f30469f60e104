package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/monte/internal/campaign"
	"github.com/san-kum/monte/internal/completion"
	"github.com/san-kum/monte/internal/monte"
	"github.com/san-kum/monte/internal/sampling"
)

// ErrNotFound is returned when a run id is not in the store.
var ErrNotFound = errors.New("run not found")

type RunMetadata struct {
	ID          string                       `json:"id"`
	Campaign    string                       `json:"campaign"`
	Run         int                          `json:"run"`
	Timestamp   time.Time                    `json:"timestamp"`
	Initial     monte.Conditions             `json:"initial_conditions"`
	Final       monte.Conditions             `json:"final_conditions"`
	Reason      completion.Reason            `json:"reason"`
	Limit       string                       `json:"limit,omitempty"`
	Passes      int64                        `json:"passes"`
	Samples     int64                        `json:"samples"`
	Time        float64                      `json:"time"`
	Skipped     int                          `json:"skipped"`
	Resume      int64                        `json:"resume"`
	Observables []ObservableMeta             `json:"observables"`
	Criteria    []completion.CriterionResult `json:"criteria"`
}

type ObservableMeta struct {
	Name       string   `json:"name"`
	Components []string `json:"components,omitempty"`
}

// Frame is one stored configuration snapshot. Configuration is whatever the
// model's configuration marshals to.
type Frame struct {
	Index         int64   `json:"index"`
	Progress      float64 `json:"progress"`
	Configuration any     `json:"configuration"`
}

// Record is a finished run in storable form.
type Record struct {
	Meta       RunMetadata
	Series     []*sampling.Series
	Trajectory []Frame
}

// Backend persists records.
type Backend interface {
	Save(ctx context.Context, rec Record) (string, error)
	List(ctx context.Context) ([]RunMetadata, error)
	Load(ctx context.Context, runID string) (*RunMetadata, error)
	LoadSeries(ctx context.Context, runID, name string) ([]sampling.Sample, error)
	LoadTrajectory(ctx context.Context, runID string) (json.RawMessage, error)
	Close() error
}

// NewRecord converts a run result, assigning it a fresh id.
func NewRecord[C monte.Configuration[C]](camp string, res *campaign.RunResult[C]) Record {
	meta := RunMetadata{
		ID:        uuid.New().String(),
		Campaign:  camp,
		Run:       res.Run,
		Timestamp: time.Now().UTC(),
		Initial:   res.Initial.Clone(),
		Final:     res.Final.Conditions.Clone(),
		Reason:    res.Completion.Reason,
		Limit:     res.Completion.Limit,
		Passes:    res.Passes,
		Samples:   res.Completion.Progress.Samples,
		Time:      res.Time,
		Skipped:   res.Skipped,
		Resume:    res.Resume,
		Criteria:  res.Completion.Criteria,
	}

	rec := Record{Meta: meta}
	for _, name := range res.Names {
		s := res.Series[name]
		rec.Series = append(rec.Series, s)
		rec.Meta.Observables = append(rec.Meta.Observables, ObservableMeta{Name: name, Components: s.Components()})
	}
	if res.Trajectory != nil {
		for _, snap := range res.Trajectory.Snapshots() {
			rec.Trajectory = append(rec.Trajectory, Frame{
				Index:         snap.Index,
				Progress:      snap.Progress,
				Configuration: snap.Configuration,
			})
		}
	}
	return rec
}

// Writer adapts a backend to a campaign writer.
func Writer[C monte.Configuration[C]](b Backend) campaign.Writer[C] {
	return campaign.WriterFunc[C](func(ctx context.Context, camp string, res *campaign.RunResult[C]) error {
		_, err := b.Save(ctx, NewRecord(camp, res))
		return err
	})
}
