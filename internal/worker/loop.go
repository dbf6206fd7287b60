// Package worker claims batch jobs from the store and hands them to the
// processor one at a time.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"batchgen/internal/domain"
)

const (
	DefaultPollInterval = 2 * time.Second
	DefaultStaleAfter   = 10 * time.Minute
)

// Claimer hands out the next runnable job, or nil when there is none.
type Claimer interface {
	ClaimNextJob(ctx context.Context, staleAfter time.Duration) (*domain.BatchJob, error)
}

// JobRunner drives one job to completion. *batch.Processor implements it.
type JobRunner interface {
	Run(ctx context.Context, jobID string) error
}

type Options struct {
	Claimer      Claimer
	Runner       JobRunner
	PollInterval time.Duration
	StaleAfter   time.Duration
	Logger       *zerolog.Logger
	Sleep        func(ctx context.Context, d time.Duration) error
}

type Loop struct {
	claimer    Claimer
	runner     JobRunner
	poll       time.Duration
	staleAfter time.Duration
	logger     zerolog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

func New(opts Options) (*Loop, error) {
	if opts.Claimer == nil {
		return nil, errors.New("worker: claimer is required")
	}
	if opts.Runner == nil {
		return nil, errors.New("worker: job runner is required")
	}
	l := &Loop{
		claimer:    opts.Claimer,
		runner:     opts.Runner,
		poll:       opts.PollInterval,
		staleAfter: opts.StaleAfter,
		logger:     zerolog.Nop(),
		sleep:      opts.Sleep,
	}
	if l.poll <= 0 {
		l.poll = DefaultPollInterval
	}
	if l.staleAfter <= 0 {
		l.staleAfter = DefaultStaleAfter
	}
	if opts.Logger != nil {
		l.logger = *opts.Logger
	}
	if l.sleep == nil {
		l.sleep = sleepContext
	}
	return l, nil
}

// Run claims and processes jobs until ctx is cancelled, then returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info().Dur("poll_interval", l.poll).Dur("stale_after", l.staleAfter).Msg("worker: started")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ran, err := l.RunOnce(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			l.logger.Error().Err(err).Msg("worker: claim failed")
		}
		if ran {
			continue
		}
		if err := l.sleep(ctx, l.poll); err != nil {
			return err
		}
	}
}

// RunOnce claims at most one job and runs it. It reports whether a job was
// claimed. Job failures are logged, not returned; the processor has already
// recorded them on the job.
func (l *Loop) RunOnce(ctx context.Context) (bool, error) {
	job, err := l.claimer.ClaimNextJob(ctx, l.staleAfter)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	logger := l.logger.With().Str("job_id", job.ID).Logger()
	resumed := job.StartedAt != nil
	logger.Info().
		Int("total_items", job.TotalItems).
		Int("completed_items", job.CompletedItems).
		Bool("resumed", resumed).
		Msg("worker: picked job")

	start := time.Now()
	if err := l.runner.Run(ctx, job.ID); err != nil {
		if ctx.Err() != nil {
			logger.Warn().Err(err).Msg("worker: job interrupted by shutdown")
			return true, nil
		}
		if errors.Is(err, domain.ErrJobTerminal) {
			logger.Info().Err(err).Msg("worker: job already finished")
			return true, nil
		}
		logger.Error().Err(err).Dur("took", time.Since(start)).Msg("worker: job failed")
		return true, nil
	}
	logger.Info().Dur("took", time.Since(start)).Msg("worker: job finished")
	return true, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
