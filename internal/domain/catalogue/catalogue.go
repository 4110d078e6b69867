// Package catalogue holds the static fallback catalogue.
package catalogue

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// PopularCount is the number of leading entries served when a query matches nothing.
const PopularCount = 5

//go:embed books.yaml
var booksYAML []byte

// Entry is one static catalogue book.
type Entry struct {
	Title       string   `yaml:"title"`
	Author      string   `yaml:"author"`
	ISBN        string   `yaml:"isbn"`
	Year        int      `yaml:"year"`
	CallNumber  string   `yaml:"call_number"`
	Format      string   `yaml:"format"`
	Subjects    []string `yaml:"subjects"`
	Description string   `yaml:"description"`
}

type document struct {
	Books []Entry `yaml:"books"`
}

// Catalogue is an ordered, read-only list of entries.
type Catalogue struct {
	entries []Entry
}

// Parse decodes a YAML catalogue document. Every entry needs a title and an author.
func Parse(data []byte) (*Catalogue, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}
	if len(doc.Books) == 0 {
		return nil, fmt.Errorf("parse catalogue: no books")
	}
	for i, e := range doc.Books {
		if e.Title == "" || e.Author == "" {
			return nil, fmt.Errorf("parse catalogue: entry %d missing title or author", i)
		}
		if e.Format == "" {
			doc.Books[i].Format = "Book"
		}
	}
	return &Catalogue{entries: doc.Books}, nil
}

var loadDefault = sync.OnceValues(func() (*Catalogue, error) {
	return Parse(booksYAML)
})

// Default returns the embedded catalogue, parsed once.
func Default() (*Catalogue, error) {
	return loadDefault()
}

// Entries returns all entries in catalogue order.
func (c *Catalogue) Entries() []Entry { return c.entries }

// Len returns the number of entries.
func (c *Catalogue) Len() int { return len(c.entries) }

// Popular returns the first n entries.
func (c *Catalogue) Popular(n int) []Entry {
	if n > len(c.entries) {
		n = len(c.entries)
	}
	return c.entries[:n]
}

var branches = []string{
	"Toronto Reference Library",
	"North York Central Library",
	"Scarborough Civic Centre",
	"Etobicoke Civic Centre",
	"Beaches",
	"High Park",
	"Junction",
	"Riverdale",
	"College Shaw",
	"Distillery District",
	"Fort York",
	"Harbourfront",
}

// BranchFor assigns a stable home branch to a call number.
func BranchFor(callNumber string) string {
	sum := 0
	for _, r := range callNumber {
		sum += int(r)
	}
	return branches[sum%len(branches)]
}
