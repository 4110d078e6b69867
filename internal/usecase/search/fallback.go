package search

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"

	"github.com/kailas-cloud/tplsearch/internal/domain/book"
	"github.com/kailas-cloud/tplsearch/internal/domain/catalogue"
)

type availabilityScenario struct {
	available, total int
	weight           float64
}

// Weights sum to 1; the last scenario absorbs rounding.
var availabilityScenarios = []availabilityScenario{
	{available: 3, total: 5, weight: 0.4},
	{available: 0, total: 3, weight: 0.3},
	{available: 1, total: 1, weight: 0.2},
	{available: 0, total: 1, weight: 0.1},
}

// availabilityGenerator produces plausible availability for static entries.
// Output depends only on the seed and the entry, so repeated searches agree.
type availabilityGenerator struct {
	seed uint64
}

func (g availabilityGenerator) generate(e catalogue.Entry, branch string) book.Availability {
	r := rand.New(rand.NewPCG(g.seed, fnv64(e.ISBN+"|"+e.Title))) //nolint:gosec // display data only

	roll := r.Float64()
	sc := availabilityScenarios[len(availabilityScenarios)-1]
	cumulative := 0.0
	for _, s := range availabilityScenarios {
		cumulative += s.weight
		if roll < cumulative {
			sc = s
			break
		}
	}

	if book.IsAllBranches(branch) {
		branch = catalogue.BranchFor(e.CallNumber)
	}

	status, holdingStatus := book.StatusAvailable, book.StatusAvailable
	message := fmt.Sprintf("%d of %d copies available", sc.available, sc.total)
	if sc.available == 0 {
		status, holdingStatus = book.StatusOnHold, book.StatusCheckedOut
		message = fmt.Sprintf("All %d copies checked out. Place a hold?", sc.total)
	}

	return book.NewAvailability(status, sc.total, sc.available, message, []book.Holding{
		book.NewHolding(branch, sc.total, sc.available, holdingStatus),
	})
}

// fallbackRecord converts a static entry into a catalogue record.
func (s *Service) fallbackRecord(e catalogue.Entry, score int, branch string) book.Record {
	id := "mock_" + e.ISBN
	if e.ISBN == "" {
		id = fmt.Sprintf("mock_%x", fnv64(e.Title))
	}

	var year *int
	if e.Year > 0 {
		y := e.Year
		year = &y
	}
	sc := score

	displayBranch := branch
	if book.IsAllBranches(branch) {
		displayBranch = book.AnyBranch
	}

	return book.Record{
		ID:             id,
		Title:          e.Title,
		Author:         e.Author,
		ISBN:           e.ISBN,
		PublishYear:    year,
		CallNumber:     e.CallNumber,
		Format:         e.Format,
		Description:    e.Description,
		Branch:         displayBranch,
		Availability:   s.avail.generate(e, branch),
		HoldURL:        s.links.Hold("", e.Title),
		CatalogURL:     s.links.Catalog(e.Title),
		Source:         book.SourceFallback,
		RelevanceScore: &sc,
	}.WithDefaults()
}

// fallbackSearch scores the static catalogue. A query that matches nothing
// yields the popular entries, each marked with book.PopularNote.
func (s *Service) fallbackSearch(query, branch string) []book.Record {
	entries := s.catalogue.Entries()
	top := s.scorer.Top(query, entries, s.limit)

	if len(top) == 0 {
		popular := s.catalogue.Popular(catalogue.PopularCount)
		out := make([]book.Record, 0, len(popular))
		for _, e := range popular {
			r := s.fallbackRecord(e, 1, branch)
			r.Note = book.PopularNote
			out = append(out, r)
		}
		return out
	}

	out := make([]book.Record, 0, len(top))
	for _, sc := range top {
		out = append(out, s.fallbackRecord(sc.Entry, sc.Score, branch))
	}
	return out
}

func fnv64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
