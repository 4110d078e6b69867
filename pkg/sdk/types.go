package tplsearch

import "time"

// Holding is per-branch availability.
type Holding struct {
	Branch          string `json:"branch"`
	TotalCopies     int    `json:"totalCopies"`
	AvailableCopies int    `json:"availableCopies"`
	Status          string `json:"status"`
}

// Availability summarises copies of a title.
type Availability struct {
	Status          string    `json:"status"` // available, on_hold, checked_out, unknown
	TotalCopies     int       `json:"totalCopies"`
	AvailableCopies int       `json:"availableCopies"`
	Message         string    `json:"message"`
	BranchHoldings  []Holding `json:"branchHoldings"`
}

// Book is a catalogue record.
type Book struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Author         string       `json:"author"`
	ISBN           string       `json:"isbn,omitempty"`
	PublishYear    *int         `json:"publishYear"`
	CallNumber     string       `json:"callNumber"`
	Format         string       `json:"format"`
	Description    string       `json:"description"`
	Branch         string       `json:"branch"`
	Availability   Availability `json:"availability"`
	HoldURL        string       `json:"holdUrl"`
	CatalogURL     string       `json:"catalogUrl"`
	Source         string       `json:"source"`
	RelevanceScore *int         `json:"relevanceScore,omitempty"`
	Note           string       `json:"note,omitempty"`
}

// SearchResult is the search envelope.
type SearchResult struct {
	Results        []Book    `json:"results"`
	Total          int       `json:"total"`
	Query          string    `json:"query"`
	Branch         string    `json:"branch"`
	Timestamp      time.Time `json:"timestamp"`
	Source         string    `json:"source"`
	APIStatus      string    `json:"api_status"` // success or fallback
	FallbackReason string    `json:"fallback_reason,omitempty"`
}

// Live reports whether the live catalogue answered.
func (r SearchResult) Live() bool { return r.APIStatus == "success" }

// Recommendation is one suggested book.
type Recommendation struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Reason      string `json:"reason"`
	Genre       string `json:"genre"`
}

// PriorBook is a book the user already found, excluded from recommendations.
type PriorBook struct {
	Title  string `json:"title"`
	Author string `json:"author,omitempty"`
}

// PriorFromBooks converts search results into prior books.
func PriorFromBooks(books []Book) []PriorBook {
	prior := make([]PriorBook, len(books))
	for i, b := range books {
		prior[i] = PriorBook{Title: b.Title, Author: b.Author}
	}
	return prior
}

// Discovery holds the outcome of a concurrent search and recommendation.
type Discovery struct {
	Search          SearchResult
	SearchErr       error
	Recommendations []Recommendation
	RecommendErr    error
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            `json:"status"` // "ok", "degraded"
	Checks map[string]string `json:"checks"` // component → "ok"/"error"/"disabled"
}
