package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"batchgen/internal/infra"
	"batchgen/internal/sqlinline"
)

const ProviderGemini = "gemini"

// GeminiCredential is the key the worker generates with and the image model
// an operator pinned next to it.
type GeminiCredential struct {
	APIKey     string
	ImageModel string
}

// Store keeps the Gemini credential in integration_tokens so the worker can
// run without the key in its environment.
type Store struct {
	sql infra.SQLExecutor
	now func() time.Time
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql, now: time.Now}
}

// Gemini returns the stored credential. A missing row is a zero credential.
func (s *Store) Gemini(ctx context.Context) (GeminiCredential, error) {
	var cred GeminiCredential
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, ProviderGemini)
	if err := row.Scan(&cred.APIKey, &cred.ImageModel); err != nil {
		if infra.IsNoRows(err) {
			return GeminiCredential{}, nil
		}
		return GeminiCredential{}, err
	}
	cred.APIKey = strings.TrimSpace(cred.APIKey)
	cred.ImageModel = strings.TrimSpace(cred.ImageModel)
	return cred, nil
}

// ResolveGemini picks the credential the worker runs with. A configured key
// wins together with the configured model. Otherwise the stored key is used,
// and its pinned image model replaces the configured one when present.
func (s *Store) ResolveGemini(ctx context.Context, configured GeminiCredential) (GeminiCredential, error) {
	configured.APIKey = strings.TrimSpace(configured.APIKey)
	configured.ImageModel = strings.TrimSpace(configured.ImageModel)
	if configured.APIKey != "" {
		return configured, nil
	}
	stored, err := s.Gemini(ctx)
	if err != nil {
		return configured, err
	}
	if stored.APIKey == "" {
		return configured, nil
	}
	if stored.ImageModel == "" {
		stored.ImageModel = configured.ImageModel
	}
	return stored, nil
}

// SetGemini stores or rotates the credential. An empty ImageModel keeps any
// model pinned earlier.
func (s *Store) SetGemini(ctx context.Context, cred GeminiCredential) error {
	key := strings.TrimSpace(cred.APIKey)
	if key == "" {
		return errors.New("gemini api key is required")
	}
	props := map[string]any{"set_at": s.now().UTC().Format(time.RFC3339)}
	if model := strings.TrimSpace(cred.ImageModel); model != "" {
		props["image_model"] = model
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, ProviderGemini, key, raw)
	return err
}
