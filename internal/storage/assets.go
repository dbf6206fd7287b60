package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"batchgen/internal/batch"
	"batchgen/internal/domain"
	"batchgen/internal/domain/jsoncfg"
	"batchgen/pkg/zip"
)

const (
	DefaultThumbnailSize = 320

	maxRemoteSourceBytes = 20 << 20
)

type AssetStoreOptions struct {
	Files         *FileStore
	Images        domain.GeneratedImageRepository
	ThumbnailSize int
	HTTPClient    *http.Client
	Logger        *zerolog.Logger
	NewID         func() string
}

// AssetStore loads batch sources and persists generated variations together
// with a thumbnail and a generated_images row.
type AssetStore struct {
	files      *FileStore
	images     domain.GeneratedImageRepository
	thumbSize  int
	httpClient *http.Client
	logger     zerolog.Logger
	newID      func() string
}

func NewAssetStore(opts AssetStoreOptions) (*AssetStore, error) {
	if opts.Files == nil {
		return nil, errors.New("storage: file store is required")
	}
	if opts.Images == nil {
		return nil, errors.New("storage: image repository is required")
	}
	thumbSize := opts.ThumbnailSize
	if thumbSize <= 0 {
		thumbSize = DefaultThumbnailSize
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &AssetStore{
		files:      opts.Files,
		images:     opts.Images,
		thumbSize:  thumbSize,
		httpClient: client,
		logger:     logger,
		newID:      newID,
	}, nil
}

// Load reads the batch source from local storage, or downloads it when only
// a URL was given.
func (s *AssetStore) Load(ctx context.Context, src jsoncfg.SourceAsset) (batch.SourceImage, error) {
	out := batch.SourceImage{StorageKey: src.StorageKey, URL: src.URL, MIME: src.MIME}
	switch {
	case strings.TrimSpace(src.StorageKey) != "":
		data, err := s.files.Read(ctx, src.StorageKey)
		if err != nil {
			return batch.SourceImage{}, err
		}
		out.Data = data
	case strings.TrimSpace(src.URL) != "":
		data, mime, err := s.download(ctx, src.URL)
		if err != nil {
			return batch.SourceImage{}, err
		}
		out.Data = data
		if out.MIME == "" {
			out.MIME = mime
		}
	default:
		return batch.SourceImage{}, fmt.Errorf("source asset has no location: %w", domain.ErrInvalidConfig)
	}
	if len(out.Data) == 0 {
		return batch.SourceImage{}, fmt.Errorf("source asset is empty: %w", domain.ErrNoAsset)
	}
	if out.MIME == "" {
		out.MIME = http.DetectContentType(out.Data)
	}
	return out, nil
}

// Store writes the asset and its thumbnail, records it, and returns the new
// generated image id.
func (s *AssetStore) Store(ctx context.Context, asset *batch.GeneratedAsset, meta batch.AssetMetadata) (string, error) {
	if asset == nil || len(asset.Data) == 0 {
		return "", domain.ErrNoAsset
	}
	id := s.newID()
	mime := asset.MIME
	if mime == "" {
		mime = http.DetectContentType(asset.Data)
	}
	prefix := fmt.Sprintf("generated/batches/%s/%04d-%s", meta.JobID, meta.ItemIndex, id)

	key, err := s.files.Write(ctx, prefix+extensionFor(mime), asset.Data)
	if err != nil {
		return "", err
	}
	written := []string{key}

	width, height := asset.Width, asset.Height
	if width == 0 || height == 0 {
		if w, h, err := Dimensions(asset.Data); err == nil {
			width, height = w, h
		}
	}

	var thumbKey string
	thumb, _, _, err := Thumbnail(asset.Data, s.thumbSize)
	if err != nil {
		s.logger.Warn().Err(err).Str("storage_key", key).Msg("storage: thumbnail skipped")
	} else {
		thumbKey, err = s.files.Write(ctx, prefix+"_thumb.png", thumb)
		if err != nil {
			s.cleanup(written)
			return "", err
		}
		written = append(written, thumbKey)
	}

	metadata := map[string]any{"item_index": meta.ItemIndex}
	if asset.Model != "" {
		metadata["model"] = asset.Model
	}
	if meta.Selectors.BreedID != "" {
		metadata["breed_id"] = meta.Selectors.BreedID
	}
	if meta.Selectors.CoatID != "" {
		metadata["coat_id"] = meta.Selectors.CoatID
	}
	if meta.Selectors.StyleID != "" {
		metadata["style_id"] = meta.Selectors.StyleID
	}
	if len(meta.Selectors.Extras) > 0 {
		metadata["extras"] = meta.Selectors.Extras
	}

	record := &domain.GeneratedImage{
		ID:           id,
		JobID:        meta.JobID,
		ItemID:       meta.ItemID,
		StorageKey:   key,
		ThumbnailKey: thumbKey,
		MIME:         mime,
		Width:        width,
		Height:       height,
		Bytes:        int64(len(asset.Data)),
		Description:  meta.Description,
		Metadata:     metadata,
	}
	if err := s.images.Insert(ctx, record); err != nil {
		s.cleanup(written)
		return "", fmt.Errorf("record generated image: %w", err)
	}
	return id, nil
}

// Archive zips every generated image of a job in item order.
func (s *AssetStore) Archive(ctx context.Context, jobID string) ([]byte, int, error) {
	images, err := s.images.ListByJob(ctx, jobID)
	if err != nil {
		return nil, 0, err
	}
	assets := make([]zip.Asset, 0, len(images))
	for _, img := range images {
		data, err := s.files.Read(ctx, img.StorageKey)
		if err != nil {
			s.logger.Warn().Err(err).Str("image_id", img.ID).Msg("storage: archive entry skipped")
			continue
		}
		assets = append(assets, zip.Asset{
			Filename: archiveName(img),
			MIME:     img.MIME,
			Data:     data,
		})
	}
	archive, err := zip.ArchiveAssets(assets)
	if err != nil {
		return nil, 0, err
	}
	return archive, len(assets), nil
}

func (s *AssetStore) download(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create source request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download source: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, "", fmt.Errorf("download source: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteSourceBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read source: %w", err)
	}
	if len(data) > maxRemoteSourceBytes {
		return nil, "", fmt.Errorf("source exceeds %d bytes", maxRemoteSourceBytes)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (s *AssetStore) cleanup(keys []string) {
	for _, key := range keys {
		if err := s.files.Delete(context.Background(), key); err != nil {
			s.logger.Warn().Err(err).Str("storage_key", key).Msg("storage: cleanup failed")
		}
	}
}

func archiveName(img domain.GeneratedImage) string {
	var idx int
	switch v := img.Metadata["item_index"].(type) {
	case float64:
		idx = int(v)
	case int:
		idx = v
	}
	return fmt.Sprintf("%04d-%s%s", idx, img.ID, extensionFor(img.MIME))
}

func extensionFor(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}

var _ batch.AssetStore = (*AssetStore)(nil)
