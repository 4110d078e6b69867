package chi

import (
	"time"

	"github.com/kailas-cloud/tplsearch/internal/domain/book"
	"github.com/kailas-cloud/tplsearch/internal/domain/recommendation"
	"github.com/kailas-cloud/tplsearch/internal/usecase/recommend"
	searchuc "github.com/kailas-cloud/tplsearch/internal/usecase/search"
)

type searchRequest struct {
	Query  string `json:"query" validate:"max=500"`
	Branch string `json:"branch" validate:"max=100"`
}

type priorBook struct {
	Title  string `json:"title" validate:"max=500"`
	Author string `json:"author" validate:"max=300"`
}

type recommendRequest struct {
	Query         string      `json:"query" validate:"max=500"`
	SearchResults []priorBook `json:"searchResults" validate:"max=50,dive"`
}

type holdingResponse struct {
	Branch          string `json:"branch"`
	TotalCopies     int    `json:"totalCopies"`
	AvailableCopies int    `json:"availableCopies"`
	Status          string `json:"status"`
}

type availabilityResponse struct {
	Status          string            `json:"status"`
	TotalCopies     int               `json:"totalCopies"`
	AvailableCopies int               `json:"availableCopies"`
	Message         string            `json:"message"`
	BranchHoldings  []holdingResponse `json:"branchHoldings"`
}

type bookResponse struct {
	ID             string               `json:"id"`
	Title          string               `json:"title"`
	Author         string               `json:"author"`
	ISBN           string               `json:"isbn,omitempty"`
	PublishYear    *int                 `json:"publishYear"`
	CallNumber     string               `json:"callNumber"`
	Format         string               `json:"format"`
	Description    string               `json:"description"`
	Branch         string               `json:"branch"`
	Availability   availabilityResponse `json:"availability"`
	HoldURL        string               `json:"holdUrl"`
	CatalogURL     string               `json:"catalogUrl"`
	Source         string               `json:"source"`
	RelevanceScore *int                 `json:"relevanceScore,omitempty"`
	Note           string               `json:"note,omitempty"`
}

type searchResponse struct {
	Results        []bookResponse `json:"results"`
	Total          int            `json:"total"`
	Query          string         `json:"query"`
	Branch         string         `json:"branch"`
	Timestamp      time.Time      `json:"timestamp"`
	Source         string         `json:"source"`
	APIStatus      string         `json:"api_status"`
	FallbackReason string         `json:"fallback_reason,omitempty"`
}

type recommendResponse struct {
	Recommendations      []recommendation.Record `json:"recommendations"`
	Query                string                  `json:"query"`
	TotalRecommendations int                     `json:"totalRecommendations"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

func searchToResponse(r searchuc.Response) searchResponse {
	results := make([]bookResponse, len(r.Results))
	for i, rec := range r.Results {
		results[i] = bookToResponse(rec)
	}
	return searchResponse{
		Results:        results,
		Total:          r.Total(),
		Query:          r.Query,
		Branch:         r.Branch,
		Timestamp:      r.Timestamp,
		Source:         r.Source,
		APIStatus:      string(r.APIStatus),
		FallbackReason: r.FallbackReason,
	}
}

func bookToResponse(b book.Record) bookResponse {
	return bookResponse{
		ID:             b.ID,
		Title:          b.Title,
		Author:         b.Author,
		ISBN:           b.ISBN,
		PublishYear:    b.PublishYear,
		CallNumber:     b.CallNumber,
		Format:         b.Format,
		Description:    b.Description,
		Branch:         b.Branch,
		Availability:   availabilityToResponse(b.Availability),
		HoldURL:        b.HoldURL,
		CatalogURL:     b.CatalogURL,
		Source:         b.Source,
		RelevanceScore: b.RelevanceScore,
		Note:           b.Note,
	}
}

func availabilityToResponse(a book.Availability) availabilityResponse {
	holdings := make([]holdingResponse, len(a.Holdings()))
	for i, h := range a.Holdings() {
		holdings[i] = holdingResponse{
			Branch:          h.Branch(),
			TotalCopies:     h.TotalCopies(),
			AvailableCopies: h.AvailableCopies(),
			Status:          string(h.Status()),
		}
	}
	return availabilityResponse{
		Status:          string(a.Status()),
		TotalCopies:     a.TotalCopies(),
		AvailableCopies: a.AvailableCopies(),
		Message:         a.Message(),
		BranchHoldings:  holdings,
	}
}

func priorFromRequest(items []priorBook) []recommend.Prior {
	if len(items) == 0 {
		return nil
	}
	prior := make([]recommend.Prior, len(items))
	for i, it := range items {
		prior[i] = recommend.Prior{Title: it.Title, Author: it.Author}
	}
	return prior
}
