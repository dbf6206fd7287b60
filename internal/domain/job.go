package domain

import (
	"time"

	"batchgen/internal/domain/jsoncfg"
)

// BatchJobStatus enumerates job lifecycle states.
type BatchJobStatus string

const (
	BatchJobPending   BatchJobStatus = "pending"
	BatchJobRunning   BatchJobStatus = "running"
	BatchJobCompleted BatchJobStatus = "completed"
	BatchJobFailed    BatchJobStatus = "failed"
	BatchJobCancelled BatchJobStatus = "cancelled"
)

// Terminal reports whether no further transition may leave the status.
func (s BatchJobStatus) Terminal() bool {
	switch s {
	case BatchJobCompleted, BatchJobFailed, BatchJobCancelled:
		return true
	default:
		return false
	}
}

// BatchItemStatus enumerates item lifecycle states.
type BatchItemStatus string

const (
	BatchItemPending   BatchItemStatus = "pending"
	BatchItemRunning   BatchItemStatus = "running"
	BatchItemCompleted BatchItemStatus = "completed"
	BatchItemFailed    BatchItemStatus = "failed"
)

// Terminal reports whether the item is immutable.
func (s BatchItemStatus) Terminal() bool {
	return s == BatchItemCompleted || s == BatchItemFailed
}

// BatchJob is one batch run producing many variations of a single source image.
type BatchJob struct {
	ID              string
	Status          BatchJobStatus
	Config          jsoncfg.BatchConfig
	TotalItems      int
	CompletedItems  int
	SuccessfulItems int
	FailedItems     int
	StartedAt       *time.Time
	CompletedAt     *time.Time
	ErrorLog        []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// BatchJobItem is one requested variation of a job.
type BatchJobItem struct {
	ID                   string
	JobID                string
	ItemIndex            int
	Status               BatchItemStatus
	Selectors            jsoncfg.Selectors
	GeneratedImageID     string
	StartedAt            *time.Time
	CompletedAt          *time.Time
	GenerationDurationMs int64
	TotalDurationMs      int64
	ErrorMessage         string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// JobPatch is an idempotent partial update of a job. Nil fields are left
// untouched. StartedAt only fills an empty started_at so resumed runs keep the
// first start. A status change against a terminal job is ignored by the store.
type JobPatch struct {
	Status         *BatchJobStatus
	StartedAt      *time.Time
	CompletedAt    *time.Time
	Counts         *ItemCounts
	AppendErrorLog string
}

// ItemPatch is an idempotent partial update of an item. The store ignores
// patches against items already in a terminal state.
type ItemPatch struct {
	Status               *BatchItemStatus
	StartedAt            *time.Time
	CompletedAt          *time.Time
	GeneratedImageID     *string
	GenerationDurationMs *int64
	TotalDurationMs      *int64
	ErrorMessage         *string
}

// ItemCounts aggregates item statuses for a job.
type ItemCounts struct {
	Total     int
	Pending   int
	Running   int
	Completed int
	Failed    int
}

// Finished is the number of items that reached a terminal state.
func (c ItemCounts) Finished() int {
	return c.Completed + c.Failed
}

// CountsFromStatuses builds ItemCounts from a status histogram.
func CountsFromStatuses(byStatus map[BatchItemStatus]int) ItemCounts {
	c := ItemCounts{
		Pending:   byStatus[BatchItemPending],
		Running:   byStatus[BatchItemRunning],
		Completed: byStatus[BatchItemCompleted],
		Failed:    byStatus[BatchItemFailed],
	}
	for _, n := range byStatus {
		c.Total += n
	}
	return c
}

func JobStatusPtr(s BatchJobStatus) *BatchJobStatus { return &s }

func ItemStatusPtr(s BatchItemStatus) *BatchItemStatus { return &s }
