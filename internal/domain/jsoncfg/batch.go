package jsoncfg

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SourceAsset points at the uploaded image every variation of a batch is derived from.
type SourceAsset struct {
	AssetID    string `json:"asset_id,omitempty"`
	StorageKey string `json:"storage_key,omitempty"`
	URL        string `json:"url,omitempty"`
	MIME       string `json:"mime,omitempty"`
}

// IsZero reports whether no source location was provided.
func (s SourceAsset) IsZero() bool {
	return strings.TrimSpace(s.StorageKey) == "" && strings.TrimSpace(s.URL) == ""
}

type PromptContext struct {
	Subject        string `json:"subject"`
	Instructions   string `json:"instructions,omitempty"`
	Locale         string `json:"locale,omitempty"`
	AspectRatio    string `json:"aspect_ratio,omitempty"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
}

// VariationAxes lists the reference ids requested for each axis. The batch is
// the cartesian product of all non-empty axes.
type VariationAxes struct {
	BreedIDs []string `json:"breed_ids,omitempty"`
	CoatIDs  []string `json:"coat_ids,omitempty"`
	StyleIDs []string `json:"style_ids,omitempty"`
}

// BatchConfig is the structured payload stored in batch_jobs.config.
type BatchConfig struct {
	Version    string         `json:"version"`
	Source     SourceAsset    `json:"source"`
	Prompt     PromptContext  `json:"prompt"`
	Variations VariationAxes  `json:"variations"`
	Extras     map[string]any `json:"extras,omitempty"`
}

// Selectors identifies a single variation inside a batch.
type Selectors struct {
	BreedID string         `json:"breed_id,omitempty"`
	CoatID  string         `json:"coat_id,omitempty"`
	StyleID string         `json:"style_id,omitempty"`
	Extras  map[string]any `json:"extras,omitempty"`
}

// IsZero reports whether the selectors carry no variation parameter.
func (s Selectors) IsZero() bool {
	return s.BreedID == "" && s.CoatID == "" && s.StyleID == ""
}

var allowedAspectRatios = map[string]struct{}{
	"1:1":  {},
	"4:3":  {},
	"3:4":  {},
	"16:9": {},
	"9:16": {},
}

const (
	// DefaultConfigVersion represents the schema version persisted for batch configs.
	DefaultConfigVersion = "2024-06"
	// DefaultAspectRatio is used when the request omits the aspect ratio.
	DefaultAspectRatio = "1:1"
	// DefaultLocale is applied when no locale preference is provided.
	DefaultLocale = "en"
	// MaxBatchItems caps the size of the variation product.
	MaxBatchItems = 500
)

// Normalize trims identifiers, drops duplicates and applies defaults.
func (c *BatchConfig) Normalize(preferredLocale string) {
	if c == nil {
		return
	}
	if c.Version == "" {
		c.Version = DefaultConfigVersion
	}
	c.Prompt.Subject = strings.TrimSpace(c.Prompt.Subject)
	if c.Prompt.AspectRatio == "" {
		c.Prompt.AspectRatio = DefaultAspectRatio
	}
	if c.Prompt.Locale == "" {
		if preferredLocale != "" {
			c.Prompt.Locale = preferredLocale
		} else {
			c.Prompt.Locale = DefaultLocale
		}
	}
	c.Variations.BreedIDs = uniqueIDs(c.Variations.BreedIDs)
	c.Variations.CoatIDs = uniqueIDs(c.Variations.CoatIDs)
	c.Variations.StyleIDs = uniqueIDs(c.Variations.StyleIDs)
}

// Validate ensures the config satisfies the contract before the job is persisted.
func (c BatchConfig) Validate() error {
	if c.Source.IsZero() {
		return fmt.Errorf("source.storage_key or source.url is required")
	}
	if c.Prompt.Subject == "" {
		return fmt.Errorf("prompt.subject is required")
	}
	if _, ok := allowedAspectRatios[c.Prompt.AspectRatio]; !ok {
		return fmt.Errorf("prompt.aspect_ratio must be one of 1:1, 4:3, 3:4, 16:9, 9:16")
	}
	n := c.ItemCount()
	if n == 0 {
		return fmt.Errorf("variations must request at least one breed, coat or style")
	}
	if n > MaxBatchItems {
		return fmt.Errorf("variations expand to %d items, max is %d", n, MaxBatchItems)
	}
	return nil
}

// ItemCount returns the size of the variation product.
func (c BatchConfig) ItemCount() int {
	axes := [][]string{c.Variations.BreedIDs, c.Variations.CoatIDs, c.Variations.StyleIDs}
	n := 0
	for _, axis := range axes {
		if len(axis) == 0 {
			continue
		}
		if n == 0 {
			n = len(axis)
			continue
		}
		n *= len(axis)
	}
	return n
}

// Expand returns one Selectors value per item, breed-major, in the order the
// items are indexed.
func (c BatchConfig) Expand() []Selectors {
	if c.ItemCount() == 0 {
		return nil
	}
	breeds := axisOrBlank(c.Variations.BreedIDs)
	coats := axisOrBlank(c.Variations.CoatIDs)
	styles := axisOrBlank(c.Variations.StyleIDs)
	out := make([]Selectors, 0, len(breeds)*len(coats)*len(styles))
	for _, b := range breeds {
		for _, co := range coats {
			for _, s := range styles {
				out = append(out, Selectors{BreedID: b, CoatID: co, StyleID: s})
			}
		}
	}
	return out
}

func axisOrBlank(ids []string) []string {
	if len(ids) == 0 {
		return []string{""}
	}
	return ids
}

func uniqueIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func MustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("json marshal: %w", err))
	}
	return b
}
