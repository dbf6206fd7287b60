// pkg/schema/events.go
package schema

type BatchEventType string

const (
	EventItemFinished BatchEventType = "item_finished"
	EventJobCompleted BatchEventType = "job_completed"
	EventJobFailed    BatchEventType = "job_failed"
	EventJobCancelled BatchEventType = "job_cancelled"
)

type BatchCounts struct {
	Total      int `json:"total_items"`
	Completed  int `json:"completed_items"`
	Successful int `json:"successful_items"`
	Failed     int `json:"failed_items"`
}

type SpeedSnapshot struct {
	DelayMs        int64   `json:"delay_ms"`
	Parallelism    int     `json:"parallelism"`
	AdjustmentType string  `json:"adjustment_type"`
	Confidence     float64 `json:"confidence"`
	Reasoning      string  `json:"reasoning,omitempty"`
}

type BatchProgressEvent struct {
	Type                 BatchEventType `json:"type"`
	JobID                string         `json:"job_id"`
	JobStatus            string         `json:"job_status"`
	ItemID               string         `json:"item_id,omitempty"`
	ItemIndex            int            `json:"item_index,omitempty"`
	ItemStatus           string         `json:"item_status,omitempty"`
	GeneratedImageID     string         `json:"generated_image_id,omitempty"`
	GenerationDurationMs int64          `json:"gemini_duration_ms,omitempty"`
	TotalDurationMs      int64          `json:"total_duration_ms,omitempty"`
	Counts               BatchCounts    `json:"counts"`
	Speed                *SpeedSnapshot `json:"speed,omitempty"`
	Error                string         `json:"error,omitempty"`
	HappenedAt           int64          `json:"happened_at"`
}
