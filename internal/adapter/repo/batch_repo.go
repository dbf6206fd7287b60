package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"batchgen/internal/domain"
	"batchgen/internal/domain/jsoncfg"
	"batchgen/internal/infra"
	"batchgen/internal/sqlinline"
)

// BatchJobRepositoryPG implements domain.BatchJobAdmin on PostgreSQL.
type BatchJobRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewBatchJobRepository creates a batch job repository over the given executor.
func NewBatchJobRepository(sql infra.SQLExecutor) *BatchJobRepositoryPG {
	return &BatchJobRepositoryPG{sql: sql}
}

var _ domain.BatchJobAdmin = (*BatchJobRepositoryPG)(nil)

type scanner interface {
	Scan(dest ...any) error
}

type itemSeed struct {
	ID        string            `json:"id"`
	ItemIndex int               `json:"item_index"`
	Selectors jsoncfg.Selectors `json:"selectors"`
}

// CreateJob inserts the job together with its items. The job's counters are
// derived from the items.
func (r *BatchJobRepositoryPG) CreateJob(ctx context.Context, job *domain.BatchJob, items []domain.BatchJobItem) error {
	if job == nil {
		return errors.New("job is required")
	}
	config, err := json.Marshal(job.Config)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	seeds := make([]itemSeed, 0, len(items))
	for _, it := range items {
		seeds = append(seeds, itemSeed{ID: it.ID, ItemIndex: it.ItemIndex, Selectors: it.Selectors})
	}
	seedJSON, err := json.Marshal(seeds)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	status := job.Status
	if status == "" {
		status = domain.BatchJobPending
	}

	var inserted int64
	row := r.sql.QueryRow(ctx, sqlinline.QBatchInsertJob, job.ID, string(status), config, len(items), seedJSON)
	if err := row.Scan(&job.CreatedAt, &job.UpdatedAt, &inserted); err != nil {
		return fmt.Errorf("insert batch job: %w", err)
	}
	if int(inserted) != len(items) {
		return fmt.Errorf("insert batch job: %d of %d items written", inserted, len(items))
	}
	job.Status = status
	job.TotalItems = len(items)
	job.CompletedItems, job.SuccessfulItems, job.FailedItems = 0, 0, 0
	return nil
}

// GetJob fetches a job by its identifier.
func (r *BatchJobRepositoryPG) GetJob(ctx context.Context, jobID string) (*domain.BatchJob, error) {
	job, err := scanJob(r.sql.QueryRow(ctx, sqlinline.QBatchSelectJob, jobID))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// UpdateJob applies patch. A status change against a terminal job is a no-op.
func (r *BatchJobRepositoryPG) UpdateJob(ctx context.Context, jobID string, patch domain.JobPatch) error {
	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}
	var total, completed, successful, failed *int
	if c := patch.Counts; c != nil {
		fin := c.Finished()
		total, completed, successful, failed = &c.Total, &fin, &c.Completed, &c.Failed
	}
	var appendLog *string
	if patch.AppendErrorLog != "" {
		appendLog = &patch.AppendErrorLog
	}

	tag, err := r.sql.Exec(ctx, sqlinline.QBatchUpdateJob,
		jobID,
		status,
		patch.StartedAt,
		patch.CompletedAt,
		total,
		completed,
		successful,
		failed,
		appendLog,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CancelJob moves a pending or running job to cancelled. A job that already
// finished is returned unchanged together with domain.ErrJobTerminal.
func (r *BatchJobRepositoryPG) CancelJob(ctx context.Context, jobID string) (*domain.BatchJob, error) {
	job, err := scanJob(r.sql.QueryRow(ctx, sqlinline.QBatchCancelJob, jobID))
	if err == nil {
		return job, nil
	}
	if !infra.IsNoRows(err) {
		return nil, err
	}
	current, err := r.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return current, domain.ErrJobTerminal
}

// ClaimNextJob locks and returns the next job to run, or nil when the queue
// is empty. Running jobs untouched for staleAfter are reclaimed.
func (r *BatchJobRepositoryPG) ClaimNextJob(ctx context.Context, staleAfter time.Duration) (*domain.BatchJob, error) {
	job, err := scanJob(r.sql.QueryRow(ctx, sqlinline.QBatchClaimNextJob, staleAfter.Seconds()))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return job, nil
}

func (r *BatchJobRepositoryPG) ListPendingItems(ctx context.Context, jobID string) ([]domain.BatchJobItem, error) {
	return r.listItems(ctx, sqlinline.QBatchListPendingItems, jobID)
}

func (r *BatchJobRepositoryPG) ListItems(ctx context.Context, jobID string) ([]domain.BatchJobItem, error) {
	return r.listItems(ctx, sqlinline.QBatchListItems, jobID)
}

func (r *BatchJobRepositoryPG) listItems(ctx context.Context, query, jobID string) ([]domain.BatchJobItem, error) {
	rows, err := r.sql.Query(ctx, query, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.BatchJobItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateItem applies patch unless the item already reached a terminal state.
func (r *BatchJobRepositoryPG) UpdateItem(ctx context.Context, itemID string, patch domain.ItemPatch) error {
	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}
	var imageID *string
	if patch.GeneratedImageID != nil && *patch.GeneratedImageID != "" {
		imageID = patch.GeneratedImageID
	}
	_, err := r.sql.Exec(ctx, sqlinline.QBatchUpdateItem,
		itemID,
		status,
		patch.StartedAt,
		patch.CompletedAt,
		imageID,
		patch.GenerationDurationMs,
		patch.TotalDurationMs,
		patch.ErrorMessage,
	)
	return err
}

func (r *BatchJobRepositoryPG) CountItemsByStatus(ctx context.Context, jobID string) (domain.ItemCounts, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QBatchCountItemsByStatus, jobID)
	if err != nil {
		return domain.ItemCounts{}, err
	}
	defer rows.Close()

	byStatus := make(map[domain.BatchItemStatus]int)
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return domain.ItemCounts{}, err
		}
		byStatus[domain.BatchItemStatus(status)] = int(n)
	}
	if err := rows.Err(); err != nil {
		return domain.ItemCounts{}, err
	}
	return domain.CountsFromStatuses(byStatus), nil
}

func (r *BatchJobRepositoryPG) RequeueRunningItems(ctx context.Context, jobID string) (int, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QBatchRequeueRunningItems, jobID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func scanJob(row scanner) (*domain.BatchJob, error) {
	var (
		job      domain.BatchJob
		status   string
		config   []byte
		errorLog []byte
	)
	if err := row.Scan(
		&job.ID,
		&status,
		&config,
		&job.TotalItems,
		&job.CompletedItems,
		&job.SuccessfulItems,
		&job.FailedItems,
		&job.StartedAt,
		&job.CompletedAt,
		&errorLog,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	job.Status = domain.BatchJobStatus(status)
	if len(config) > 0 {
		if err := json.Unmarshal(config, &job.Config); err != nil {
			return nil, fmt.Errorf("decode job %s config: %w", job.ID, err)
		}
	}
	if len(errorLog) > 0 {
		if err := json.Unmarshal(errorLog, &job.ErrorLog); err != nil {
			return nil, fmt.Errorf("decode job %s error log: %w", job.ID, err)
		}
	}
	return &job, nil
}

func scanItem(row scanner) (*domain.BatchJobItem, error) {
	var (
		item      domain.BatchJobItem
		status    string
		selectors []byte
		imageID   *string
		genMs     *int64
		totalMs   *int64
		errMsg    *string
	)
	if err := row.Scan(
		&item.ID,
		&item.JobID,
		&item.ItemIndex,
		&status,
		&selectors,
		&imageID,
		&item.StartedAt,
		&item.CompletedAt,
		&genMs,
		&totalMs,
		&errMsg,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	item.Status = domain.BatchItemStatus(status)
	if len(selectors) > 0 {
		if err := json.Unmarshal(selectors, &item.Selectors); err != nil {
			return nil, fmt.Errorf("decode item %s selectors: %w", item.ID, err)
		}
	}
	if imageID != nil {
		item.GeneratedImageID = *imageID
	}
	if genMs != nil {
		item.GenerationDurationMs = *genMs
	}
	if totalMs != nil {
		item.TotalDurationMs = *totalMs
	}
	if errMsg != nil {
		item.ErrorMessage = *errMsg
	}
	return &item, nil
}
