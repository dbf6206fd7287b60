package batch

import (
	"context"

	"batchgen/internal/domain"
	"batchgen/internal/domain/jsoncfg"
	"batchgen/pkg/schema"
)

// SourceImage is the loaded source asset every item is generated from.
type SourceImage struct {
	StorageKey string
	URL        string
	MIME       string
	Data       []byte
}

// ResolvedSelectors carries the reference rows an item's selectors point at.
// A nil entry means the axis was not requested.
type ResolvedSelectors struct {
	Breed  *domain.Breed
	Coat   *domain.Coat
	Style  *domain.Style
	Extras map[string]any
}

// GenerateRequest is handed to the generation service for one item.
type GenerateRequest struct {
	JobID     string
	ItemID    string
	ItemIndex int
	Source    SourceImage
	Prompt    jsoncfg.PromptContext
	Selectors ResolvedSelectors
}

// GeneratedAsset is an image produced by the generation service.
type GeneratedAsset struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
	Model  string
}

// DescribeHints gives the description service context about the variation.
type DescribeHints struct {
	Subject string
	Breed   string
	Coat    string
	Style   string
	Locale  string
}

// AssetMetadata accompanies a generated asset into storage.
type AssetMetadata struct {
	JobID       string
	ItemID      string
	ItemIndex   int
	Description string
	Selectors   jsoncfg.Selectors
}

// Generator produces one variation. Errors should expose the HTTP status
// through HTTPStatus() when one exists so failures can be classified.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*GeneratedAsset, error)
}

// Describer writes a short text description of a generated asset.
type Describer interface {
	Describe(ctx context.Context, asset *GeneratedAsset, hints DescribeHints) (string, error)
}

// AssetStore loads source assets and persists generated ones.
type AssetStore interface {
	Load(ctx context.Context, src jsoncfg.SourceAsset) (SourceImage, error)
	Store(ctx context.Context, asset *GeneratedAsset, meta AssetMetadata) (string, error)
}

// ProgressReporter receives job and item progress events.
type ProgressReporter interface {
	Report(ctx context.Context, event schema.BatchProgressEvent) error
}

type httpStatusError interface {
	HTTPStatus() int
}
