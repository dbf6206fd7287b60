package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"batchgen/internal/domain"
	"batchgen/internal/speed"
	"batchgen/pkg/schema"
)

// PacingPolicy selects how long the processor waits between items.
type PacingPolicy string

const (
	// PacingFixed waits a constant ItemDelay between items regardless of the
	// speed controller.
	PacingFixed PacingPolicy = "fixed"
	// PacingAdaptive waits the delay most recently recommended by the speed
	// controller.
	PacingAdaptive PacingPolicy = "adaptive"

	DefaultItemDelay = 3 * time.Second
)

// ParsePacingPolicy maps free-form configuration onto a policy.
func ParsePacingPolicy(v string) PacingPolicy {
	if strings.EqualFold(strings.TrimSpace(v), string(PacingAdaptive)) {
		return PacingAdaptive
	}
	return PacingFixed
}

// Options wires a Processor. Store, References, Generator and Assets are
// required.
type Options struct {
	Store      domain.BatchJobRepository
	References domain.ReferenceRepository
	Generator  Generator
	Describer  Describer
	Assets     AssetStore
	Reporter   ProgressReporter
	Logger     *zerolog.Logger

	Speed     speed.Config
	ItemDelay time.Duration
	Pacing    PacingPolicy

	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// Processor drives one batch job at a time from running to a terminal state.
//
// Items run strictly in item_index order. Cancellation is cooperative: the
// job status is re-read before each item, so a cancel request takes effect
// after at most one item plus the inter-item delay.
type Processor struct {
	store     domain.BatchJobRepository
	refs      domain.ReferenceRepository
	generator Generator
	describer Describer
	assets    AssetStore
	reporter  ProgressReporter
	logger    zerolog.Logger
	speedCfg  speed.Config
	itemDelay time.Duration
	pacing    PacingPolicy
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewProcessor validates the collaborators and applies defaults.
func NewProcessor(opts Options) (*Processor, error) {
	switch {
	case opts.Store == nil:
		return nil, errors.New("batch: store is required")
	case opts.References == nil:
		return nil, errors.New("batch: reference repository is required")
	case opts.Generator == nil:
		return nil, errors.New("batch: generator is required")
	case opts.Assets == nil:
		return nil, errors.New("batch: asset store is required")
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	itemDelay := opts.ItemDelay
	if itemDelay <= 0 {
		itemDelay = DefaultItemDelay
	}
	pacing := opts.Pacing
	if pacing == "" {
		pacing = PacingFixed
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return &Processor{
		store:     opts.Store,
		refs:      opts.References,
		generator: opts.Generator,
		describer: opts.Describer,
		assets:    opts.Assets,
		reporter:  opts.Reporter,
		logger:    logger,
		speedCfg:  opts.Speed,
		itemDelay: itemDelay,
		pacing:    pacing,
		now:       now,
		sleep:     sleep,
	}, nil
}

// run holds the per-execution state. A fresh speed controller is built for
// every run.
type run struct {
	p          *Processor
	job        *domain.BatchJob
	controller *speed.Controller
	refs       *ReferenceData
	source     SourceImage
	logger     zerolog.Logger
	lastRec    *speed.Recommendation
}

// Run processes every pending item of the job. A cancelled job returns nil.
// A cancelled ctx stops the run without touching the job status; the item in
// flight is re-queued by the next run. Any other error fails the job and is
// returned.
func (p *Processor) Run(ctx context.Context, jobID string) error {
	logger := p.logger.With().Str("job_id", jobID).Logger()

	job, err := p.store.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", jobID, err)
	}
	if job.Status.Terminal() {
		logger.Info().Str("status", string(job.Status)).Msg("batch: job already finished, skipping")
		return fmt.Errorf("job %s is %s: %w", jobID, job.Status, domain.ErrJobTerminal)
	}

	started := p.now()
	if err := p.store.UpdateJob(ctx, jobID, domain.JobPatch{
		Status:    domain.JobStatusPtr(domain.BatchJobRunning),
		StartedAt: &started,
	}); err != nil {
		return fmt.Errorf("mark job running: %w", err)
	}
	job.Status = domain.BatchJobRunning

	controller := speed.NewController(p.speedCfg)
	controller.Reset()
	r := &run{p: p, job: job, controller: controller, logger: logger}

	logger.Info().Int("total_items", job.TotalItems).Str("pacing", string(p.pacing)).Msg("batch: job started")
	err = r.execute(ctx)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		logger.Warn().Err(err).Msg("batch: run interrupted")
		return err
	}
	r.fail(context.WithoutCancel(ctx), err)
	return err
}

func (r *run) execute(ctx context.Context) error {
	p := r.p
	refs, err := LoadReferenceData(ctx, p.refs)
	if err != nil {
		return fmt.Errorf("load reference data: %w", err)
	}
	r.refs = refs

	source, err := p.assets.Load(ctx, r.job.Config.Source)
	if err != nil {
		return fmt.Errorf("load source asset: %w", err)
	}
	r.source = source

	requeued, err := p.store.RequeueRunningItems(ctx, r.job.ID)
	if err != nil {
		return fmt.Errorf("requeue interrupted items: %w", err)
	}
	if requeued > 0 {
		r.logger.Info().Int("items", requeued).Msg("batch: requeued items from interrupted run")
	}

	items, err := p.store.ListPendingItems(ctx, r.job.ID)
	if err != nil {
		return fmt.Errorf("list pending items: %w", err)
	}

	for i := range items {
		current, err := p.store.GetJob(ctx, r.job.ID)
		if err != nil {
			return fmt.Errorf("refresh job status: %w", err)
		}
		if current.Status.Terminal() {
			r.logger.Info().
				Str("status", string(current.Status)).
				Int("remaining_items", len(items)-i).
				Msg("batch: job stopped externally")
			r.report(ctx, r.event(stopEvent(current.Status), current.Status, storedCounts(current)))
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := r.processItem(ctx, items[i]); err != nil {
			return err
		}

		if i < len(items)-1 {
			if err := p.sleep(ctx, r.pause()); err != nil {
				return err
			}
		}
	}

	counts, err := r.syncCounts(ctx)
	if err != nil {
		return err
	}
	finished := p.now()
	if err := p.store.UpdateJob(ctx, r.job.ID, domain.JobPatch{
		Status:      domain.JobStatusPtr(domain.BatchJobCompleted),
		CompletedAt: &finished,
	}); err != nil {
		return fmt.Errorf("mark job completed: %w", err)
	}
	// The guarded update leaves a job cancelled during its last item as is.
	final, err := p.store.GetJob(ctx, r.job.ID)
	if err != nil {
		return fmt.Errorf("reload finished job: %w", err)
	}
	if final.Status == domain.BatchJobCompleted {
		r.logger.Info().
			Int("successful_items", counts.Completed).
			Int("failed_items", counts.Failed).
			Msg("batch: job completed")
	} else {
		r.logger.Info().Str("status", string(final.Status)).Msg("batch: job stopped externally")
	}
	r.report(ctx, r.event(stopEvent(final.Status), final.Status, counts))
	return nil
}

// processItem runs one item. Generation, selector and storage failures are
// recorded on the item; only store or context errors are returned.
func (r *run) processItem(ctx context.Context, item domain.BatchJobItem) error {
	p := r.p
	logger := r.logger.With().Str("item_id", item.ID).Int("item_index", item.ItemIndex).Logger()

	start := p.now()
	if err := p.store.UpdateItem(ctx, item.ID, domain.ItemPatch{
		Status:    domain.ItemStatusPtr(domain.BatchItemRunning),
		StartedAt: &start,
	}); err != nil {
		return fmt.Errorf("mark item %d running: %w", item.ItemIndex, err)
	}

	selectors, err := r.refs.Resolve(item.Selectors)
	if err != nil {
		return r.failItem(ctx, item, start, 0, err, logger)
	}

	genStart := p.now()
	asset, genErr := p.generator.Generate(ctx, GenerateRequest{
		JobID:     r.job.ID,
		ItemID:    item.ID,
		ItemIndex: item.ItemIndex,
		Source:    r.source,
		Prompt:    r.job.Config.Prompt,
		Selectors: selectors,
	})
	genDuration := p.now().Sub(genStart)
	if genErr == nil && (asset == nil || len(asset.Data) == 0) {
		genErr = domain.ErrNoAsset
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	r.controller.Record(genErr == nil, genDuration, errorHint(genErr))
	rec := r.controller.Recommend()
	r.lastRec = &rec
	logger.Debug().
		Str("adjustment", string(rec.AdjustmentType)).
		Dur("recommended_delay", rec.Delay).
		Int("parallelism", rec.Parallelism).
		Float64("confidence", rec.Confidence).
		Str("reasoning", rec.Reasoning).
		Msg("batch: speed recommendation")

	if genErr != nil {
		return r.failItem(ctx, item, start, genDuration, fmt.Errorf("generate: %w", genErr), logger)
	}

	hints := describeHints(r.job.Config.Prompt.Subject, r.job.Config.Prompt.Locale, selectors)
	description := r.describe(ctx, asset, hints, logger)

	assetID, err := p.assets.Store(ctx, asset, AssetMetadata{
		JobID:       r.job.ID,
		ItemID:      item.ID,
		ItemIndex:   item.ItemIndex,
		Description: description,
		Selectors:   item.Selectors,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return r.failItem(ctx, item, start, genDuration, fmt.Errorf("store asset: %w", err), logger)
	}

	finished := p.now()
	genMs := genDuration.Milliseconds()
	totalMs := finished.Sub(start).Milliseconds()
	if err := p.store.UpdateItem(ctx, item.ID, domain.ItemPatch{
		Status:               domain.ItemStatusPtr(domain.BatchItemCompleted),
		CompletedAt:          &finished,
		GeneratedImageID:     &assetID,
		GenerationDurationMs: &genMs,
		TotalDurationMs:      &totalMs,
	}); err != nil {
		return fmt.Errorf("mark item %d completed: %w", item.ItemIndex, err)
	}
	logger.Info().
		Str("generated_image_id", assetID).
		Int64("gemini_duration_ms", genMs).
		Int64("total_duration_ms", totalMs).
		Msg("batch: item completed")

	counts, err := r.syncCounts(ctx)
	if err != nil {
		return err
	}
	ev := r.itemEvent(item, domain.BatchItemCompleted, counts, genMs, totalMs)
	ev.GeneratedImageID = assetID
	r.report(ctx, ev)
	return nil
}

func (r *run) failItem(ctx context.Context, item domain.BatchJobItem, start time.Time, genDuration time.Duration, cause error, logger zerolog.Logger) error {
	p := r.p
	finished := p.now()
	msg := cause.Error()
	genMs := genDuration.Milliseconds()
	totalMs := finished.Sub(start).Milliseconds()
	if err := p.store.UpdateItem(ctx, item.ID, domain.ItemPatch{
		Status:               domain.ItemStatusPtr(domain.BatchItemFailed),
		CompletedAt:          &finished,
		ErrorMessage:         &msg,
		GenerationDurationMs: &genMs,
		TotalDurationMs:      &totalMs,
	}); err != nil {
		return fmt.Errorf("mark item %d failed: %w", item.ItemIndex, err)
	}
	logger.Warn().Err(cause).Msg("batch: item failed")

	counts, err := r.syncCounts(ctx)
	if err != nil {
		return err
	}
	ev := r.itemEvent(item, domain.BatchItemFailed, counts, genMs, totalMs)
	ev.Error = msg
	r.report(ctx, ev)
	return nil
}

func (r *run) describe(ctx context.Context, asset *GeneratedAsset, hints DescribeHints, logger zerolog.Logger) string {
	if r.p.describer == nil {
		return defaultDescription(hints)
	}
	text, err := r.p.describer.Describe(ctx, asset, hints)
	if err != nil || strings.TrimSpace(text) == "" {
		logger.Warn().Err(err).Msg("batch: description failed, using default")
		return defaultDescription(hints)
	}
	return strings.TrimSpace(text)
}

// syncCounts recomputes the job counters from item statuses and persists them.
func (r *run) syncCounts(ctx context.Context) (domain.ItemCounts, error) {
	counts, err := r.p.store.CountItemsByStatus(ctx, r.job.ID)
	if err != nil {
		return domain.ItemCounts{}, fmt.Errorf("count items: %w", err)
	}
	if err := r.p.store.UpdateJob(ctx, r.job.ID, domain.JobPatch{Counts: &counts}); err != nil {
		return domain.ItemCounts{}, fmt.Errorf("update job counters: %w", err)
	}
	return counts, nil
}

func (r *run) fail(ctx context.Context, cause error) {
	finished := r.p.now()
	if err := r.p.store.UpdateJob(ctx, r.job.ID, domain.JobPatch{
		Status:         domain.JobStatusPtr(domain.BatchJobFailed),
		CompletedAt:    &finished,
		AppendErrorLog: cause.Error(),
	}); err != nil {
		r.logger.Error().Err(err).Msg("batch: mark job failed")
	}
	r.logger.Error().Err(cause).Msg("batch: job failed")

	ev := r.event(schema.EventJobFailed, domain.BatchJobFailed, domain.ItemCounts{})
	if counts, err := r.p.store.CountItemsByStatus(ctx, r.job.ID); err == nil {
		ev.Counts = schemaCounts(counts)
	}
	ev.Error = cause.Error()
	r.report(ctx, ev)
}

func (r *run) pause() time.Duration {
	if r.p.pacing == PacingAdaptive {
		return r.controller.State().Delay
	}
	return r.p.itemDelay
}

// errorHint renders err into the form the speed window classifies: the HTTP
// status first when known, "timeout" for deadline errors, else the message.
func errorHint(err error) string {
	if err == nil {
		return ""
	}
	var statusErr httpStatusError
	if errors.As(err, &statusErr) && statusErr.HTTPStatus() > 0 {
		return fmt.Sprintf("%d %s", statusErr.HTTPStatus(), err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout: " + err.Error()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout: " + err.Error()
	}
	return err.Error()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
