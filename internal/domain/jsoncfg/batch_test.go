package jsoncfg

import "testing"

func TestBatchConfigNormalizeDefaults(t *testing.T) {
	c := &BatchConfig{Variations: VariationAxes{BreedIDs: []string{" lab ", "lab", "", "pug"}}}
	c.Normalize("")

	if c.Version != DefaultConfigVersion {
		t.Fatalf("Version = %q, want %q", c.Version, DefaultConfigVersion)
	}
	if c.Prompt.AspectRatio != DefaultAspectRatio {
		t.Fatalf("AspectRatio = %q, want %q", c.Prompt.AspectRatio, DefaultAspectRatio)
	}
	if c.Prompt.Locale != DefaultLocale {
		t.Fatalf("Locale = %q, want %q", c.Prompt.Locale, DefaultLocale)
	}
	if len(c.Variations.BreedIDs) != 2 || c.Variations.BreedIDs[0] != "lab" || c.Variations.BreedIDs[1] != "pug" {
		t.Fatalf("BreedIDs = %#v, want [lab pug]", c.Variations.BreedIDs)
	}
}

func TestBatchConfigNormalizePreferredLocale(t *testing.T) {
	c := &BatchConfig{}
	c.Normalize("id")
	if c.Prompt.Locale != "id" {
		t.Fatalf("Locale = %q, want %q", c.Prompt.Locale, "id")
	}
}

func TestBatchConfigExpandProduct(t *testing.T) {
	c := BatchConfig{Variations: VariationAxes{
		BreedIDs: []string{"lab", "pug"},
		StyleIDs: []string{"oil", "watercolor", "sketch"},
	}}
	if got := c.ItemCount(); got != 6 {
		t.Fatalf("ItemCount = %d, want 6", got)
	}
	items := c.Expand()
	if len(items) != 6 {
		t.Fatalf("len(Expand) = %d, want 6", len(items))
	}
	first, last := items[0], items[5]
	if first.BreedID != "lab" || first.StyleID != "oil" || first.CoatID != "" {
		t.Fatalf("first selector = %#v", first)
	}
	if last.BreedID != "pug" || last.StyleID != "sketch" {
		t.Fatalf("last selector = %#v", last)
	}
}

func TestBatchConfigValidate(t *testing.T) {
	valid := BatchConfig{
		Source:     SourceAsset{StorageKey: "uploads/dog.png"},
		Prompt:     PromptContext{Subject: "a dog on a sofa", AspectRatio: "1:1"},
		Variations: VariationAxes{CoatIDs: []string{"cream"}},
	}
	tests := []struct {
		name    string
		mutate  func(c *BatchConfig)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *BatchConfig) {}},
		{name: "missing source", mutate: func(c *BatchConfig) { c.Source = SourceAsset{} }, wantErr: true},
		{name: "missing subject", mutate: func(c *BatchConfig) { c.Prompt.Subject = "" }, wantErr: true},
		{name: "bad aspect", mutate: func(c *BatchConfig) { c.Prompt.AspectRatio = "2:1" }, wantErr: true},
		{name: "no variations", mutate: func(c *BatchConfig) { c.Variations = VariationAxes{} }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
