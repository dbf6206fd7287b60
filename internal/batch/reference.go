package batch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"batchgen/internal/domain"
	"batchgen/internal/domain/jsoncfg"
)

// ReferenceData indexes the lookup tables loaded once per run.
type ReferenceData struct {
	breeds map[string]domain.Breed
	coats  map[string]domain.Coat
	styles map[string]domain.Style
}

// NewReferenceData indexes the given rows by id.
func NewReferenceData(breeds []domain.Breed, coats []domain.Coat, styles []domain.Style) *ReferenceData {
	ref := &ReferenceData{
		breeds: make(map[string]domain.Breed, len(breeds)),
		coats:  make(map[string]domain.Coat, len(coats)),
		styles: make(map[string]domain.Style, len(styles)),
	}
	for _, b := range breeds {
		ref.breeds[b.ID] = b
	}
	for _, c := range coats {
		ref.coats[c.ID] = c
	}
	for _, s := range styles {
		ref.styles[s.ID] = s
	}
	return ref
}

// LoadReferenceData fetches all lookup tables concurrently.
func LoadReferenceData(ctx context.Context, repo domain.ReferenceRepository) (*ReferenceData, error) {
	var (
		breeds []domain.Breed
		coats  []domain.Coat
		styles []domain.Style
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if breeds, err = repo.ListBreeds(gctx); err != nil {
			return fmt.Errorf("list breeds: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if coats, err = repo.ListCoats(gctx); err != nil {
			return fmt.Errorf("list coats: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if styles, err = repo.ListStyles(gctx); err != nil {
			return fmt.Errorf("list styles: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return NewReferenceData(breeds, coats, styles), nil
}

// Resolve looks up every selector the item sets.
func (r *ReferenceData) Resolve(sel jsoncfg.Selectors) (ResolvedSelectors, error) {
	out := ResolvedSelectors{Extras: sel.Extras}
	if sel.BreedID != "" {
		b, ok := r.breeds[sel.BreedID]
		if !ok {
			return ResolvedSelectors{}, fmt.Errorf("%w: breed %q", domain.ErrInvalidSelector, sel.BreedID)
		}
		out.Breed = &b
	}
	if sel.CoatID != "" {
		c, ok := r.coats[sel.CoatID]
		if !ok {
			return ResolvedSelectors{}, fmt.Errorf("%w: coat %q", domain.ErrInvalidSelector, sel.CoatID)
		}
		out.Coat = &c
	}
	if sel.StyleID != "" {
		s, ok := r.styles[sel.StyleID]
		if !ok {
			return ResolvedSelectors{}, fmt.Errorf("%w: style %q", domain.ErrInvalidSelector, sel.StyleID)
		}
		out.Style = &s
	}
	return out, nil
}
