package repo

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"batchgen/internal/infra"
)

type call struct {
	query string
	args  []any
}

// stubExecutor answers queries by their inline SQL constant.
type stubExecutor struct {
	t     *testing.T
	rows  map[string][][]any
	row   map[string][]stubRow
	tags  map[string]pgconn.CommandTag
	err   error
	calls []call
}

func newStubExecutor(t *testing.T) *stubExecutor {
	return &stubExecutor{
		t:    t,
		rows: map[string][][]any{},
		row:  map[string][]stubRow{},
		tags: map[string]pgconn.CommandTag{},
	}
}

func (s *stubExecutor) record(query string, args []any) {
	if _, _, err := infra.ExtractMarker(query); err != nil {
		s.t.Fatalf("query without marker: %v", err)
	}
	s.calls = append(s.calls, call{query: query, args: args})
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.record(query, args)
	if s.err != nil {
		return pgconn.CommandTag{}, s.err
	}
	return s.tags[query], nil
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.record(query, args)
	if s.err != nil {
		return stubRow{err: s.err}
	}
	queue := s.row[query]
	if len(queue) == 0 {
		return stubRow{err: pgx.ErrNoRows}
	}
	s.row[query] = queue[1:]
	return queue[0]
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	s.record(query, args)
	if s.err != nil {
		return nil, s.err
	}
	return &stubRows{data: s.rows[query], idx: -1}, nil
}

func (s *stubExecutor) lastCall() call {
	if len(s.calls) == 0 {
		s.t.Fatal("no sql call recorded")
	}
	return s.calls[len(s.calls)-1]
}

type stubRow struct {
	values []any
	err    error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.values)
}

type stubRows struct {
	data [][]any
	idx  int
}

func (r *stubRows) Close()                                       {}
func (r *stubRows) Err() error                                   { return nil }
func (r *stubRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubRows) Values() ([]any, error)                       { return r.data[r.idx], nil }
func (r *stubRows) RawValues() [][]byte                          { return nil }
func (r *stubRows) Conn() *pgx.Conn                              { return nil }

func (r *stubRows) Next() bool {
	r.idx++
	return r.idx < len(r.data)
}

func (r *stubRows) Scan(dest ...any) error {
	return assign(dest, r.data[r.idx])
}

func assign(dest []any, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(values))
	}
	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		if values[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		v := reflect.ValueOf(values[i])
		if !v.Type().AssignableTo(target.Type()) {
			return fmt.Errorf("scan: column %d is %s, destination is %s", i, v.Type(), target.Type())
		}
		target.Set(v)
	}
	return nil
}
