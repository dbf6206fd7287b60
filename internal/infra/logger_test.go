package infra

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		env      string
		override string
		want     zerolog.Level
	}{
		{env: "development", want: zerolog.DebugLevel},
		{env: "production", want: zerolog.InfoLevel},
		{env: "production", override: "WARN", want: zerolog.WarnLevel},
		{env: "production", override: "bogus", want: zerolog.InfoLevel},
	}
	for _, tc := range tests {
		l := newLogger(&bytes.Buffer{}, tc.env, tc.override)
		if got := l.GetLevel(); got != tc.want {
			t.Fatalf("level(%s, %q) = %v, want %v", tc.env, tc.override, got, tc.want)
		}
	}
}

func TestNewLoggerJSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "production", "")
	l.Info().Str("job_id", "j1").Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["service"] != "batchgen" || entry["job_id"] != "j1" || entry["message"] != "hello" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}
