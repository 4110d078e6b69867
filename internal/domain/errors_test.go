package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_UnwrapsToInvalidRequest(t *testing.T) {
	err := fmt.Errorf("decode body: %w", NewValidationError(FieldError{Field: "query", Rule: "max"}))

	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatal("expected errors.Is(err, ErrInvalidRequest)")
	}

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatal("expected errors.As to find *ValidationError")
	}
	if ve.Fields[0].Field != "query" {
		t.Errorf("field = %q, want query", ve.Fields[0].Field)
	}
}

func TestValidationError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"no fields", NewValidationError(), "invalid request"},
		{"one field", NewValidationError(FieldError{Field: "branch", Rule: "max"}), `invalid request: field "branch" failed "max"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.Error(); got != tc.want {
				t.Errorf("Error() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCatalogueError(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := fmt.Errorf("symphony search: %w", NewCatalogueError("transport_error", cause))

	if !errors.Is(err, ErrCatalogueUnavailable) {
		t.Error("expected errors.Is(err, ErrCatalogueUnavailable)")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable")
	}

	var ce *CatalogueError
	if !errors.As(err, &ce) || ce.Reason != "transport_error" {
		t.Fatalf("expected CatalogueError with reason, got %v", err)
	}

	want := "catalogue unavailable: circuit_open"
	if got := NewCatalogueError("circuit_open", nil).Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
