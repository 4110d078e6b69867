package book

import "testing"

func TestNewAvailability_Clamps(t *testing.T) {
	tests := []struct {
		name         string
		total, avail int
		wantT, wantA int
	}{
		{"available exceeds total", 2, 5, 2, 2},
		{"negative total", -3, 0, 0, 0},
		{"negative available", 4, -1, 4, 0},
		{"valid", 5, 3, 5, 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := NewAvailability(StatusAvailable, tc.total, tc.avail, "", nil)
			if a.TotalCopies() != tc.wantT || a.AvailableCopies() != tc.wantA {
				t.Errorf("got %d/%d, want %d/%d", a.AvailableCopies(), a.TotalCopies(), tc.wantA, tc.wantT)
			}
			if a.AvailableCopies() > a.TotalCopies() {
				t.Error("available exceeds total")
			}
		})
	}
}

func TestNewHolding_Clamps(t *testing.T) {
	h := NewHolding("Central Library", 1, 3, StatusAvailable)
	if h.AvailableCopies() != 1 || h.TotalCopies() != 1 {
		t.Errorf("got %d/%d, want 1/1", h.AvailableCopies(), h.TotalCopies())
	}
}

func TestNewAvailability_CapsHoldings(t *testing.T) {
	hs := make([]Holding, 8)
	for i := range hs {
		hs[i] = NewHolding("b", 1, 1, StatusAvailable)
	}
	a := NewAvailability(StatusAvailable, 8, 8, "", hs)
	if len(a.Holdings()) != MaxHoldings {
		t.Errorf("holdings = %d, want %d", len(a.Holdings()), MaxHoldings)
	}
}

func TestNewAvailability_InvalidStatus(t *testing.T) {
	a := NewAvailability(Status("lost"), 1, 0, "", nil)
	if a.Status() != StatusUnknown {
		t.Errorf("status = %q, want unknown", a.Status())
	}
}

func TestUnknownAvailability(t *testing.T) {
	a := UnknownAvailability("all")
	if a.Status() != StatusUnknown || a.TotalCopies() != 1 || a.AvailableCopies() != 0 {
		t.Fatalf("unexpected availability %+v", a)
	}
	if a.Message() != UnknownMessage {
		t.Errorf("message = %q", a.Message())
	}
	if got := a.Holdings()[0].Branch(); got != DefaultLibrary {
		t.Errorf("branch = %q, want %q", got, DefaultLibrary)
	}

	if got := UnknownAvailability("Parkdale").Holdings()[0].Branch(); got != "Parkdale" {
		t.Errorf("branch = %q, want Parkdale", got)
	}
}

func TestRecord_WithDefaults(t *testing.T) {
	r := Record{}.WithDefaults()
	if r.Title != UnknownTitle || r.Author != UnknownAuthor || r.Format != DefaultFormat || r.Branch != AnyBranch {
		t.Errorf("unexpected defaults: %+v", r)
	}
	if r.HasKnownAuthor() {
		t.Error("placeholder author should not count as known")
	}

	named := Record{Title: "Dune", Author: "Frank Herbert", Format: "eBook"}.WithDefaults()
	if named.Title != "Dune" || named.Format != "eBook" || !named.HasKnownAuthor() {
		t.Errorf("defaults overwrote values: %+v", named)
	}
}
