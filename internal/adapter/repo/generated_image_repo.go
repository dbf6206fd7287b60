package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"batchgen/internal/domain"
	"batchgen/internal/infra"
	"batchgen/internal/sqlinline"
)

// GeneratedImageRepositoryPG persists stored variation records.
type GeneratedImageRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewGeneratedImageRepository(sql infra.SQLExecutor) *GeneratedImageRepositoryPG {
	return &GeneratedImageRepositoryPG{sql: sql}
}

var _ domain.GeneratedImageRepository = (*GeneratedImageRepositoryPG)(nil)

func (r *GeneratedImageRepositoryPG) Insert(ctx context.Context, img *domain.GeneratedImage) error {
	if img == nil {
		return errors.New("generated image is required")
	}
	var meta []byte
	if len(img.Metadata) > 0 {
		raw, err := json.Marshal(img.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		meta = raw
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertGeneratedImage,
		img.ID,
		img.JobID,
		img.ItemID,
		img.StorageKey,
		img.ThumbnailKey,
		img.MIME,
		img.Width,
		img.Height,
		img.Bytes,
		img.Description,
		meta,
	)
	return row.Scan(&img.CreatedAt)
}

func (r *GeneratedImageRepositoryPG) ListByJob(ctx context.Context, jobID string) ([]domain.GeneratedImage, error) {
	return queryAll(ctx, r.sql, sqlinline.QSelectGeneratedImagesByJob, func(row scanner) (domain.GeneratedImage, error) {
		var (
			img  domain.GeneratedImage
			meta []byte
		)
		if err := row.Scan(
			&img.ID,
			&img.JobID,
			&img.ItemID,
			&img.StorageKey,
			&img.ThumbnailKey,
			&img.MIME,
			&img.Width,
			&img.Height,
			&img.Bytes,
			&img.Description,
			&meta,
			&img.CreatedAt,
		); err != nil {
			return img, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &img.Metadata); err != nil {
				return img, fmt.Errorf("decode image %s metadata: %w", img.ID, err)
			}
		}
		return img, nil
	}, jobID)
}
