package repo

import (
	"context"

	"batchgen/internal/domain"
	"batchgen/internal/infra"
	"batchgen/internal/sqlinline"
)

// ReferenceRepositoryPG reads the breed, coat and style lookup tables.
type ReferenceRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewReferenceRepository(sql infra.SQLExecutor) *ReferenceRepositoryPG {
	return &ReferenceRepositoryPG{sql: sql}
}

var _ domain.ReferenceRepository = (*ReferenceRepositoryPG)(nil)

func (r *ReferenceRepositoryPG) ListBreeds(ctx context.Context) ([]domain.Breed, error) {
	return queryAll(ctx, r.sql, sqlinline.QSelectBreeds, func(row scanner) (domain.Breed, error) {
		var b domain.Breed
		err := row.Scan(&b.ID, &b.Name, &b.Species, &b.Description)
		return b, err
	})
}

func (r *ReferenceRepositoryPG) ListCoats(ctx context.Context) ([]domain.Coat, error) {
	return queryAll(ctx, r.sql, sqlinline.QSelectCoats, func(row scanner) (domain.Coat, error) {
		var c domain.Coat
		err := row.Scan(&c.ID, &c.Name, &c.Pattern, &c.Description)
		return c, err
	})
}

func (r *ReferenceRepositoryPG) ListStyles(ctx context.Context) ([]domain.Style, error) {
	return queryAll(ctx, r.sql, sqlinline.QSelectStyles, func(row scanner) (domain.Style, error) {
		var s domain.Style
		err := row.Scan(&s.ID, &s.Name, &s.Prompt)
		return s, err
	})
}

func queryAll[T any](ctx context.Context, sql infra.SQLExecutor, query string, scan func(scanner) (T, error), args ...any) ([]T, error) {
	rows, err := sql.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
