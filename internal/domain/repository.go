package domain

import (
	"context"
	"time"
)

// BatchJobRepository is the durable store for jobs and their items.
type BatchJobRepository interface {
	GetJob(ctx context.Context, jobID string) (*BatchJob, error)
	UpdateJob(ctx context.Context, jobID string, patch JobPatch) error
	ListPendingItems(ctx context.Context, jobID string) ([]BatchJobItem, error)
	UpdateItem(ctx context.Context, itemID string, patch ItemPatch) error
	CountItemsByStatus(ctx context.Context, jobID string) (ItemCounts, error)
	RequeueRunningItems(ctx context.Context, jobID string) (int, error)
}

// BatchJobAdmin extends the processor-facing store with the operations used
// by the API and the worker loop.
type BatchJobAdmin interface {
	BatchJobRepository
	CreateJob(ctx context.Context, job *BatchJob, items []BatchJobItem) error
	ListItems(ctx context.Context, jobID string) ([]BatchJobItem, error)
	CancelJob(ctx context.Context, jobID string) (*BatchJob, error)
	ClaimNextJob(ctx context.Context, staleAfter time.Duration) (*BatchJob, error)
}

// ReferenceRepository exposes the selector lookup tables.
type ReferenceRepository interface {
	ListBreeds(ctx context.Context) ([]Breed, error)
	ListCoats(ctx context.Context) ([]Coat, error)
	ListStyles(ctx context.Context) ([]Style, error)
}

// GeneratedImageRepository persists stored variation records.
type GeneratedImageRepository interface {
	Insert(ctx context.Context, img *GeneratedImage) error
	ListByJob(ctx context.Context, jobID string) ([]GeneratedImage, error)
}
