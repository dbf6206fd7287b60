package domain

// Breed, Coat and Style are the read-only lookup tables item selectors are
// resolved against.
type Breed struct {
	ID          string
	Name        string
	Species     string
	Description string
}

type Coat struct {
	ID          string
	Name        string
	Pattern     string
	Description string
}

type Style struct {
	ID     string
	Name   string
	Prompt string
}
