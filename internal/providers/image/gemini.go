package image

import (
	"context"
	"fmt"
	"strconv"

	"batchgen/internal/batch"
	"batchgen/internal/domain"
	"batchgen/internal/providers/genai"
)

// GeminiVariationGenerator renders batch items through the Gemini image model.
type GeminiVariationGenerator struct {
	client *genai.Client
}

func NewGeminiVariationGenerator(client *genai.Client) *GeminiVariationGenerator {
	return &GeminiVariationGenerator{client: client}
}

func (g *GeminiVariationGenerator) Generate(ctx context.Context, req batch.GenerateRequest) (*batch.GeneratedAsset, error) {
	asset, err := g.client.GenerateVariation(ctx, genai.VariationRequest{
		Prompt: BuildVariationPrompt(req),
		Source: genai.InlineImage{
			MIME: req.Source.MIME,
			Data: req.Source.Data,
		},
		AspectRatio: req.Prompt.AspectRatio,
		RequestID:   req.JobID + "/" + strconv.Itoa(req.ItemIndex),
	})
	if err != nil {
		// Both sentinels stay matchable so the speed window still sees the HTTP status.
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderFailure, err)
	}
	return &batch.GeneratedAsset{
		Data:   asset.Data,
		MIME:   asset.Format,
		Width:  asset.Width,
		Height: asset.Height,
		Model:  asset.Model,
	}, nil
}

var _ batch.Generator = (*GeminiVariationGenerator)(nil)
