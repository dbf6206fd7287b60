package handlers

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"batchgen/internal/domain"
)

type fakeJobs struct {
	mu        sync.Mutex
	jobs      map[string]*domain.BatchJob
	items     map[string][]domain.BatchJobItem
	createErr error
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{jobs: map[string]*domain.BatchJob{}, items: map[string][]domain.BatchJobItem{}}
}

func (f *fakeJobs) put(job domain.BatchJob, items ...domain.BatchJobItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.ID] = &job
	f.items[job.ID] = items
}

func (f *fakeJobs) CreateJob(_ context.Context, job *domain.BatchJob, items []domain.BatchJobItem) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	job.TotalItems = len(items)
	job.CreatedAt, job.UpdatedAt = now, now
	cp := *job
	f.jobs[job.ID] = &cp
	f.items[job.ID] = append([]domain.BatchJobItem(nil), items...)
	return nil
}

func (f *fakeJobs) GetJob(_ context.Context, jobID string) (*domain.BatchJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (f *fakeJobs) UpdateJob(context.Context, string, domain.JobPatch) error {
	return errors.New("not used")
}

func (f *fakeJobs) ListPendingItems(context.Context, string) ([]domain.BatchJobItem, error) {
	return nil, errors.New("not used")
}

func (f *fakeJobs) UpdateItem(context.Context, string, domain.ItemPatch) error {
	return errors.New("not used")
}

func (f *fakeJobs) CountItemsByStatus(context.Context, string) (domain.ItemCounts, error) {
	return domain.ItemCounts{}, errors.New("not used")
}

func (f *fakeJobs) RequeueRunningItems(context.Context, string) (int, error) {
	return 0, errors.New("not used")
}

func (f *fakeJobs) ListItems(_ context.Context, jobID string) ([]domain.BatchJobItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := append([]domain.BatchJobItem(nil), f.items[jobID]...)
	sort.Slice(items, func(i, j int) bool { return items[i].ItemIndex < items[j].ItemIndex })
	return items, nil
}

func (f *fakeJobs) CancelJob(_ context.Context, jobID string) (*domain.BatchJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if job.Status.Terminal() {
		cp := *job
		return &cp, domain.ErrJobTerminal
	}
	job.Status = domain.BatchJobCancelled
	cp := *job
	return &cp, nil
}

func (f *fakeJobs) ClaimNextJob(context.Context, time.Duration) (*domain.BatchJob, error) {
	return nil, errors.New("not used")
}

type fakeRefs struct{}

func (fakeRefs) ListBreeds(context.Context) ([]domain.Breed, error) {
	return []domain.Breed{{ID: "lab", Name: "Labrador Retriever"}, {ID: "pug", Name: "Pug"}}, nil
}

func (fakeRefs) ListCoats(context.Context) ([]domain.Coat, error) {
	return []domain.Coat{{ID: "cream", Name: "Cream"}}, nil
}

func (fakeRefs) ListStyles(context.Context) ([]domain.Style, error) {
	return []domain.Style{{ID: "oil", Name: "Oil Painting"}}, nil
}

type fakeArchiver struct {
	data  []byte
	count int
	err   error
}

func (f fakeArchiver) Archive(context.Context, string) ([]byte, int, error) {
	return f.data, f.count, f.err
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }
