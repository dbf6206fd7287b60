package handlers

import (
	"time"

	"batchgen/internal/domain"
	"batchgen/internal/domain/jsoncfg"
)

type jobResponse struct {
	ID              string              `json:"id"`
	Status          string              `json:"status"`
	Config          jsoncfg.BatchConfig `json:"config"`
	TotalItems      int                 `json:"total_items"`
	CompletedItems  int                 `json:"completed_items"`
	SuccessfulItems int                 `json:"successful_items"`
	FailedItems     int                 `json:"failed_items"`
	Progress        float64             `json:"progress"`
	StartedAt       *time.Time          `json:"started_at,omitempty"`
	CompletedAt     *time.Time          `json:"completed_at,omitempty"`
	ErrorLog        []string            `json:"error_log"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func toJobResponse(job *domain.BatchJob) jobResponse {
	resp := jobResponse{
		ID:              job.ID,
		Status:          string(job.Status),
		Config:          job.Config,
		TotalItems:      job.TotalItems,
		CompletedItems:  job.CompletedItems,
		SuccessfulItems: job.SuccessfulItems,
		FailedItems:     job.FailedItems,
		StartedAt:       job.StartedAt,
		CompletedAt:     job.CompletedAt,
		ErrorLog:        job.ErrorLog,
		CreatedAt:       job.CreatedAt,
		UpdatedAt:       job.UpdatedAt,
	}
	if resp.ErrorLog == nil {
		resp.ErrorLog = []string{}
	}
	if job.TotalItems > 0 {
		resp.Progress = float64(job.CompletedItems) * 100 / float64(job.TotalItems)
	}
	return resp
}

type itemResponse struct {
	ID                   string            `json:"id"`
	ItemIndex            int               `json:"item_index"`
	Status               string            `json:"status"`
	Selectors            jsoncfg.Selectors `json:"selectors"`
	GeneratedImageID     string            `json:"generated_image_id,omitempty"`
	StartedAt            *time.Time        `json:"started_at,omitempty"`
	CompletedAt          *time.Time        `json:"completed_at,omitempty"`
	GenerationDurationMs int64             `json:"gemini_duration_ms,omitempty"`
	TotalDurationMs      int64             `json:"total_duration_ms,omitempty"`
	ErrorMessage         string            `json:"error_message,omitempty"`
}

func toItemResponse(item domain.BatchJobItem) itemResponse {
	return itemResponse{
		ID:                   item.ID,
		ItemIndex:            item.ItemIndex,
		Status:               string(item.Status),
		Selectors:            item.Selectors,
		GeneratedImageID:     item.GeneratedImageID,
		StartedAt:            item.StartedAt,
		CompletedAt:          item.CompletedAt,
		GenerationDurationMs: item.GenerationDurationMs,
		TotalDurationMs:      item.TotalDurationMs,
		ErrorMessage:         item.ErrorMessage,
	}
}

type itemsResponse struct {
	JobID string         `json:"job_id"`
	Items []itemResponse `json:"items"`
}
