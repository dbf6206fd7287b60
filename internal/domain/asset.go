package domain

import "time"

// GeneratedImage is the persisted record of a stored variation.
type GeneratedImage struct {
	ID           string
	JobID        string
	ItemID       string
	StorageKey   string
	ThumbnailKey string
	MIME         string
	Width        int
	Height       int
	Bytes        int64
	Description  string
	Metadata     map[string]any
	CreatedAt    time.Time
}
