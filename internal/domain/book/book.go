// Package book holds the catalogue record and availability value objects.
package book

// Placeholders used when a catalogue record lacks a field.
const (
	UnknownTitle   = "Unknown Title"
	UnknownAuthor  = "Unknown Author"
	NoCallNumber   = "No Call Number"
	DefaultFormat  = "Book"
	AnyBranch      = "Multiple Locations"
	DefaultLibrary = "Toronto Public Library"
	UnknownBranch  = "Unknown Branch"
)

// Source tags carried by every record and search response.
const (
	SourceLive     = "Toronto Public Library - Live Data"
	SourceFallback = "Enhanced Mock Data (TPL API unavailable)"
)

// PopularNote marks records substituted when a fallback query matched nothing.
const PopularNote = "Popular recommendation - no exact matches found"

// Record is a normalised catalogue entry.
// Title and Author are never empty; Source is always set.
type Record struct {
	ID             string
	Title          string
	Author         string
	ISBN           string
	PublishYear    *int
	CallNumber     string
	Format         string
	Description    string
	Branch         string
	Availability   Availability
	HoldURL        string
	CatalogURL     string
	Source         string
	RelevanceScore *int
	Note           string
}

// WithDefaults fills empty display fields with their placeholders.
func (r Record) WithDefaults() Record {
	if r.Title == "" {
		r.Title = UnknownTitle
	}
	if r.Author == "" {
		r.Author = UnknownAuthor
	}
	if r.Format == "" {
		r.Format = DefaultFormat
	}
	if r.Branch == "" {
		r.Branch = AnyBranch
	}
	return r
}

// HasKnownAuthor reports whether the author is a real value rather than the placeholder.
func (r Record) HasKnownAuthor() bool {
	return r.Author != "" && r.Author != UnknownAuthor
}

// IsAllBranches reports whether a branch preference means "no preference".
func IsAllBranches(branch string) bool {
	return branch == "" || branch == "all"
}
