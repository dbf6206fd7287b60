package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"batchgen/internal/batch"
	"batchgen/internal/domain"
	"batchgen/internal/domain/jsoncfg"
	"batchgen/internal/middleware"
)

const maxCreateBody = 1 << 20

// CreateBatchJob accepts a batch config, expands the variation axes into
// items and persists the job as pending.
func (a *App) CreateBatchJob(w http.ResponseWriter, r *http.Request) {
	var cfg jsoncfg.BatchConfig
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCreateBody))
	if err := dec.Decode(&cfg); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	cfg.Normalize(middleware.LocaleFromContext(r.Context()))
	if err := cfg.Validate(); err != nil {
		a.error(w, http.StatusUnprocessableEntity, "invalid_config", err.Error())
		return
	}

	selectors := cfg.Expand()
	if a.References != nil {
		refs, err := batch.LoadReferenceData(r.Context(), a.References)
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("load reference data")
			a.error(w, http.StatusInternalServerError, "internal", "failed to load reference data")
			return
		}
		for _, sel := range selectors {
			if _, err := refs.Resolve(sel); err != nil {
				a.error(w, http.StatusUnprocessableEntity, "invalid_selector", err.Error())
				return
			}
		}
	}

	job := &domain.BatchJob{ID: a.newID(), Status: domain.BatchJobPending, Config: cfg}
	items := make([]domain.BatchJobItem, len(selectors))
	for i, sel := range selectors {
		items[i] = domain.BatchJobItem{
			ID:        a.newID(),
			JobID:     job.ID,
			ItemIndex: i,
			Status:    domain.BatchItemPending,
			Selectors: sel,
		}
	}
	if err := a.Jobs.CreateJob(r.Context(), job, items); err != nil {
		a.storeError(w, r, err, "failed to create batch job")
		return
	}
	zerolog.Ctx(r.Context()).Info().
		Str("job_id", job.ID).
		Int("items", len(items)).
		Str("subject", middleware.SubjectFromContext(r.Context())).
		Msg("batch job created")

	w.Header().Set("Location", "/v1/batch-jobs/"+job.ID)
	a.json(w, http.StatusCreated, toJobResponse(job))
}

func (a *App) GetBatchJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := a.jobID(w, r)
	if !ok {
		return
	}
	job, err := a.Jobs.GetJob(r.Context(), jobID)
	if err != nil {
		a.storeError(w, r, err, "failed to load batch job")
		return
	}
	a.json(w, http.StatusOK, toJobResponse(job))
}

func (a *App) ListBatchJobItems(w http.ResponseWriter, r *http.Request) {
	jobID, ok := a.jobID(w, r)
	if !ok {
		return
	}
	if _, err := a.Jobs.GetJob(r.Context(), jobID); err != nil {
		a.storeError(w, r, err, "failed to load batch job")
		return
	}
	items, err := a.Jobs.ListItems(r.Context(), jobID)
	if err != nil {
		a.storeError(w, r, err, "failed to list batch items")
		return
	}
	resp := itemsResponse{JobID: jobID, Items: make([]itemResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, toItemResponse(item))
	}
	a.json(w, http.StatusOK, resp)
}

// CancelBatchJob moves a pending or running job to cancelled. A running
// worker notices before its next item.
func (a *App) CancelBatchJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := a.jobID(w, r)
	if !ok {
		return
	}
	job, err := a.Jobs.CancelJob(r.Context(), jobID)
	if errors.Is(err, domain.ErrJobTerminal) {
		msg := "batch job already finished"
		if job != nil {
			msg = fmt.Sprintf("batch job already %s", job.Status)
		}
		a.error(w, http.StatusConflict, "job_terminal", msg)
		return
	}
	if err != nil {
		a.storeError(w, r, err, "failed to cancel batch job")
		return
	}
	zerolog.Ctx(r.Context()).Info().Str("job_id", jobID).Msg("batch job cancelled")
	a.json(w, http.StatusOK, toJobResponse(job))
}

// DownloadBatchArchive streams a zip of every image the job produced so far.
func (a *App) DownloadBatchArchive(w http.ResponseWriter, r *http.Request) {
	jobID, ok := a.jobID(w, r)
	if !ok {
		return
	}
	if a.Archives == nil {
		a.error(w, http.StatusNotImplemented, "not_implemented", "archives are not configured")
		return
	}
	if _, err := a.Jobs.GetJob(r.Context(), jobID); err != nil {
		a.storeError(w, r, err, "failed to load batch job")
		return
	}
	archive, count, err := a.Archives.Archive(r.Context(), jobID)
	if err != nil {
		a.storeError(w, r, err, "failed to build archive")
		return
	}
	if count == 0 {
		a.error(w, http.StatusNotFound, "no_images", "batch job has no generated images yet")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="batch-%s.zip"`, jobID))
	w.Header().Set("Content-Length", strconv.Itoa(len(archive)))
	w.Header().Set("X-Archive-Entries", strconv.Itoa(count))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func (a *App) jobID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid_id", "batch job id must be a uuid")
		return "", false
	}
	return id.String(), true
}
