package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type stubExecutor struct {
	token   string
	model   string
	err     error
	queried int
	exec    struct {
		query string
		args  []any
	}
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.exec.query = query
	s.exec.args = args
	return pgconn.CommandTag{}, s.err
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.queried++
	return stubRow{values: []string{s.token, s.model}, err: s.err}
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

type stubRow struct {
	values []string
	err    error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return errors.New("unexpected dest count")
	}
	for i, d := range dest {
		ptr, ok := d.(*string)
		if !ok {
			return errors.New("invalid dest")
		}
		*ptr = r.values[i]
	}
	return nil
}

func TestGemini(t *testing.T) {
	store := NewStore(&stubExecutor{token: " abc123 ", model: " imagen-x "})
	cred, err := store.Gemini(context.Background())
	if err != nil {
		t.Fatalf("Gemini error: %v", err)
	}
	if cred.APIKey != "abc123" || cred.ImageModel != "imagen-x" {
		t.Fatalf("unexpected credential: %+v", cred)
	}
}

func TestGemini_NoRows(t *testing.T) {
	store := NewStore(&stubExecutor{err: pgx.ErrNoRows})
	cred, err := store.Gemini(context.Background())
	if err != nil {
		t.Fatalf("Gemini error: %v", err)
	}
	if cred != (GeminiCredential{}) {
		t.Fatalf("expected zero credential, got %+v", cred)
	}
}

func TestResolveGemini(t *testing.T) {
	configured := GeminiCredential{ImageModel: "env-model"}
	tests := []struct {
		name       string
		exec       *stubExecutor
		configured GeminiCredential
		want       GeminiCredential
		wantQuery  bool
	}{
		{
			name:       "configured key wins with configured model",
			exec:       &stubExecutor{token: "stored", model: "pinned"},
			configured: GeminiCredential{APIKey: " from-env ", ImageModel: "env-model"},
			want:       GeminiCredential{APIKey: "from-env", ImageModel: "env-model"},
		},
		{
			name:       "stored key brings its pinned model",
			exec:       &stubExecutor{token: "stored", model: "pinned"},
			configured: configured,
			want:       GeminiCredential{APIKey: "stored", ImageModel: "pinned"},
			wantQuery:  true,
		},
		{
			name:       "stored key without model keeps configured model",
			exec:       &stubExecutor{token: "stored"},
			configured: configured,
			want:       GeminiCredential{APIKey: "stored", ImageModel: "env-model"},
			wantQuery:  true,
		},
		{
			name:       "nothing stored",
			exec:       &stubExecutor{err: pgx.ErrNoRows},
			configured: configured,
			want:       configured,
			wantQuery:  true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewStore(tc.exec).ResolveGemini(context.Background(), tc.configured)
			if err != nil {
				t.Fatalf("ResolveGemini error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("ResolveGemini = %+v, want %+v", got, tc.want)
			}
			if queried := tc.exec.queried > 0; queried != tc.wantQuery {
				t.Fatalf("queried = %v, want %v", queried, tc.wantQuery)
			}
		})
	}
}

func TestResolveGeminiStoreError(t *testing.T) {
	configured := GeminiCredential{ImageModel: "env-model"}
	got, err := NewStore(&stubExecutor{err: errors.New("db down")}).ResolveGemini(context.Background(), configured)
	if err == nil {
		t.Fatal("expected error")
	}
	if got != configured {
		t.Fatalf("ResolveGemini = %+v, want configured fallback", got)
	}
}

func TestSetGemini(t *testing.T) {
	exec := &stubExecutor{}
	store := NewStore(exec)
	store.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	if err := store.SetGemini(context.Background(), GeminiCredential{APIKey: "secret", ImageModel: " imagen-x "}); err != nil {
		t.Fatalf("SetGemini error: %v", err)
	}
	if len(exec.exec.args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(exec.exec.args))
	}
	if v, ok := exec.exec.args[1].(string); !ok || v != "secret" {
		t.Fatalf("expected secret argument, got %T %v", exec.exec.args[1], exec.exec.args[1])
	}
	raw, ok := exec.exec.args[2].([]byte)
	if !ok {
		t.Fatalf("unexpected properties argument: %T", exec.exec.args[2])
	}
	var props map[string]string
	if err := json.Unmarshal(raw, &props); err != nil {
		t.Fatalf("properties not json: %v", err)
	}
	if props["image_model"] != "imagen-x" || props["set_at"] != "2026-03-01T12:00:00Z" {
		t.Fatalf("unexpected properties: %v", props)
	}
}

func TestSetGeminiWithoutModelKeepsPinned(t *testing.T) {
	exec := &stubExecutor{}
	if err := NewStore(exec).SetGemini(context.Background(), GeminiCredential{APIKey: "secret"}); err != nil {
		t.Fatalf("SetGemini error: %v", err)
	}
	var props map[string]string
	if err := json.Unmarshal(exec.exec.args[2].([]byte), &props); err != nil {
		t.Fatalf("properties not json: %v", err)
	}
	if _, ok := props["image_model"]; ok {
		t.Fatalf("image_model should be omitted, got %v", props)
	}
}

func TestSetGeminiEmpty(t *testing.T) {
	store := NewStore(&stubExecutor{})
	if err := store.SetGemini(context.Background(), GeminiCredential{APIKey: " "}); err == nil {
		t.Fatal("expected error for empty key")
	}
}
