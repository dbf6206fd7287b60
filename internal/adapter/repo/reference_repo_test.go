package repo

import (
	"context"
	"testing"

	"batchgen/internal/domain"
	"batchgen/internal/sqlinline"
)

func TestReferenceRepositoryLists(t *testing.T) {
	exec := newStubExecutor(t)
	exec.rows[sqlinline.QSelectBreeds] = [][]any{
		{"lab", "Labrador Retriever", "dog", ""},
		{"pug", "Pug", "dog", "small"},
	}
	exec.rows[sqlinline.QSelectCoats] = [][]any{{"cream", "Cream", "solid", ""}}
	exec.rows[sqlinline.QSelectStyles] = [][]any{{"oil", "Oil Painting", "thick brush strokes"}}
	repo := NewReferenceRepository(exec)
	ctx := context.Background()

	breeds, err := repo.ListBreeds(ctx)
	if err != nil {
		t.Fatalf("ListBreeds error: %v", err)
	}
	if len(breeds) != 2 || breeds[1] != (domain.Breed{ID: "pug", Name: "Pug", Species: "dog", Description: "small"}) {
		t.Fatalf("unexpected breeds: %+v", breeds)
	}

	coats, err := repo.ListCoats(ctx)
	if err != nil {
		t.Fatalf("ListCoats error: %v", err)
	}
	if len(coats) != 1 || coats[0].Pattern != "solid" {
		t.Fatalf("unexpected coats: %+v", coats)
	}

	styles, err := repo.ListStyles(ctx)
	if err != nil {
		t.Fatalf("ListStyles error: %v", err)
	}
	if len(styles) != 1 || styles[0].Prompt != "thick brush strokes" {
		t.Fatalf("unexpected styles: %+v", styles)
	}
}

func TestReferenceRepositoryEmpty(t *testing.T) {
	breeds, err := NewReferenceRepository(newStubExecutor(t)).ListBreeds(context.Background())
	if err != nil {
		t.Fatalf("ListBreeds error: %v", err)
	}
	if len(breeds) != 0 {
		t.Fatalf("expected no breeds, got %d", len(breeds))
	}
}
