package batch

import (
	"context"

	"batchgen/internal/domain"
	"batchgen/pkg/schema"
)

func (r *run) event(kind schema.BatchEventType, status domain.BatchJobStatus, counts domain.ItemCounts) schema.BatchProgressEvent {
	ev := schema.BatchProgressEvent{
		Type:       kind,
		JobID:      r.job.ID,
		JobStatus:  string(status),
		Counts:     schemaCounts(counts),
		HappenedAt: r.p.now().Unix(),
	}
	if rec := r.lastRec; rec != nil {
		ev.Speed = &schema.SpeedSnapshot{
			DelayMs:        rec.Delay.Milliseconds(),
			Parallelism:    rec.Parallelism,
			AdjustmentType: string(rec.AdjustmentType),
			Confidence:     rec.Confidence,
			Reasoning:      rec.Reasoning,
		}
	}
	return ev
}

func (r *run) itemEvent(item domain.BatchJobItem, status domain.BatchItemStatus, counts domain.ItemCounts, genMs, totalMs int64) schema.BatchProgressEvent {
	ev := r.event(schema.EventItemFinished, domain.BatchJobRunning, counts)
	ev.ItemID = item.ID
	ev.ItemIndex = item.ItemIndex
	ev.ItemStatus = string(status)
	ev.GenerationDurationMs = genMs
	ev.TotalDurationMs = totalMs
	return ev
}

// report publishes ev. Publish failures are logged and never fail the job.
func (r *run) report(ctx context.Context, ev schema.BatchProgressEvent) {
	if r.p.reporter == nil {
		return
	}
	if err := r.p.reporter.Report(ctx, ev); err != nil {
		r.logger.Warn().Err(err).Str("event", string(ev.Type)).Msg("batch: publish progress failed")
	}
}

func schemaCounts(c domain.ItemCounts) schema.BatchCounts {
	return schema.BatchCounts{
		Total:      c.Total,
		Completed:  c.Finished(),
		Successful: c.Completed,
		Failed:     c.Failed,
	}
}

func storedCounts(job *domain.BatchJob) domain.ItemCounts {
	return domain.ItemCounts{
		Total:     job.TotalItems,
		Completed: job.SuccessfulItems,
		Failed:    job.FailedItems,
	}
}

func stopEvent(status domain.BatchJobStatus) schema.BatchEventType {
	switch status {
	case domain.BatchJobCompleted:
		return schema.EventJobCompleted
	case domain.BatchJobFailed:
		return schema.EventJobFailed
	default:
		return schema.EventJobCancelled
	}
}
