package prompt

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"batchgen/internal/batch"
	"batchgen/internal/providers/genai"
)

// DefaultMaxDescriptionRunes bounds stored descriptions.
const DefaultMaxDescriptionRunes = 280

type GeminiDescriberOptions struct {
	Client   *genai.Client
	MaxRunes int
}

// GeminiDescriber captions generated variations with the Gemini text model.
type GeminiDescriber struct {
	client   *genai.Client
	maxRunes int
}

func NewGeminiDescriber(opts GeminiDescriberOptions) *GeminiDescriber {
	maxRunes := opts.MaxRunes
	if maxRunes <= 0 {
		maxRunes = DefaultMaxDescriptionRunes
	}
	return &GeminiDescriber{client: opts.Client, maxRunes: maxRunes}
}

// Describe returns genai.ErrNoAPIKey when the client runs without a key so
// the caller can fall back to its own text.
func (d *GeminiDescriber) Describe(ctx context.Context, asset *batch.GeneratedAsset, hints batch.DescribeHints) (string, error) {
	if d.client == nil || !d.client.HasAPIKey() {
		return "", genai.ErrNoAPIKey
	}
	req := genai.DescribeRequest{Prompt: buildDescribePrompt(hints)}
	if asset != nil {
		req.Image = genai.InlineImage{MIME: asset.MIME, Data: asset.Data}
	}
	text, err := d.client.DescribeImage(ctx, req)
	if err != nil {
		return "", err
	}
	cleaned := cleanDescription(text, d.maxRunes)
	if cleaned == "" {
		return "", genai.ErrNoText
	}
	return cleaned, nil
}

func buildDescribePrompt(h batch.DescribeHints) string {
	locale := strings.TrimSpace(h.Locale)
	if locale == "" {
		locale = "en"
	}
	sb := &strings.Builder{}
	sb.WriteString("Write one or two plain sentences describing the attached pet portrait for a gallery caption. ")
	sb.WriteString("No markdown, no quotes, no hashtags. ")
	fmt.Fprintf(sb, "Use locale '%s'. ", locale)
	var known []string
	if h.Breed != "" {
		known = append(known, fmt.Sprintf("breed=%q", h.Breed))
	}
	if h.Coat != "" {
		known = append(known, fmt.Sprintf("coat=%q", h.Coat))
	}
	if h.Style != "" {
		known = append(known, fmt.Sprintf("style=%q", h.Style))
	}
	if h.Subject != "" {
		known = append(known, fmt.Sprintf("scene=%q", h.Subject))
	}
	if len(known) > 0 {
		sb.WriteString("Known details: ")
		sb.WriteString(strings.Join(known, ", "))
		sb.WriteString(".")
	}
	return strings.TrimSpace(sb.String())
}

func cleanDescription(raw string, maxRunes int) string {
	text := trimCodeFence(raw)
	text = strings.Join(strings.Fields(text), " ")
	text = strings.Trim(text, "\"'` ")
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	runes := []rune(text)[:maxRunes]
	cut := string(runes)
	if idx := strings.LastIndex(cut, " "); idx > maxRunes/2 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,;:") + "…"
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```text")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

var _ batch.Describer = (*GeminiDescriber)(nil)
