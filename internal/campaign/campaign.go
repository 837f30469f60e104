package campaign

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/monte/internal/monte"
)

// Writer consumes finished runs, in order. Results must be treated as read-only.
type Writer[C monte.Configuration[C]] interface {
	WriteRun(ctx context.Context, campaign string, res *RunResult[C]) error
}

// WriterFunc adapts a function to Writer.
type WriterFunc[C monte.Configuration[C]] func(ctx context.Context, campaign string, res *RunResult[C]) error

func (f WriterFunc[C]) WriteRun(ctx context.Context, campaign string, res *RunResult[C]) error {
	return f(ctx, campaign, res)
}

// Campaign bundles everything one independent sequence of runs needs.
type Campaign[C monte.Configuration[C]] struct {
	Name      string
	Generator Generator[C]
	Runner    *Runner[C]
	Stepper   Stepper[C]
	Writer    Writer[C]
}

// Run drains gen, running each state to completion and feeding its final
// state back to the generator. A nil writer is allowed.
func Run[C monte.Configuration[C]](ctx context.Context, gen Generator[C], runner *Runner[C], stepper Stepper[C], w Writer[C]) ([]*RunResult[C], error) {
	return Campaign[C]{Generator: gen, Runner: runner, Stepper: stepper, Writer: w}.Run(ctx)
}

func (c Campaign[C]) Run(ctx context.Context) ([]*RunResult[C], error) {
	if c.Generator == nil || c.Runner == nil {
		return nil, monte.Configf("campaign", "%q needs a generator and a runner", c.Name)
	}

	var results []*RunResult[C]
	var prev *monte.State[C]
	for i := 0; c.Generator.HasNext(); i++ {
		initial, err := c.Generator.Next(prev)
		if err != nil {
			return results, err
		}

		res, err := c.Runner.Run(ctx, i, initial, c.Stepper)
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			return results, fmt.Errorf("campaign %q: %w", c.Name, err)
		}

		if c.Writer != nil {
			if err := c.Writer.WriteRun(ctx, c.Name, res); err != nil {
				return results, fmt.Errorf("campaign %q: write run %d: %w", c.Name, i, err)
			}
		}
		prev = &res.Final
	}
	return results, nil
}

// RunAll runs independent campaigns on at most workers goroutines. The first
// failure cancels the rest. Results are indexed like campaigns.
func RunAll[C monte.Configuration[C]](ctx context.Context, campaigns []Campaign[C], workers int) ([][]*RunResult[C], error) {
	results := make([][]*RunResult[C], len(campaigns))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, c := range campaigns {
		g.Go(func() error {
			res, err := c.Run(ctx)
			results[i] = res
			return err
		})
	}

	err := g.Wait()
	return results, err
}
