package book

// Status is a copy availability state.
type Status string

// Availability states.
const (
	StatusAvailable  Status = "available"
	StatusOnHold     Status = "on_hold"
	StatusCheckedOut Status = "checked_out"
	StatusUnknown    Status = "unknown"
)

// MaxHoldings caps the per-branch holdings carried by an Availability.
const MaxHoldings = 5

// UnknownMessage is shown when the catalogue returns no usable holdings.
const UnknownMessage = "Availability information not available from TPL API"

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusOnHold, StatusCheckedOut, StatusUnknown:
		return true
	}
	return false
}

// Holding is the copy count for one branch (immutable value object).
type Holding struct {
	branch    string
	total     int
	available int
	status    Status
}

// NewHolding creates a Holding. Counts are clamped so that 0 <= available <= total.
func NewHolding(branch string, total, available int, status Status) Holding {
	total, available = clamp(total, available)
	if !status.Valid() {
		status = StatusUnknown
	}
	return Holding{branch: branch, total: total, available: available, status: status}
}

// Branch returns the branch name.
func (h Holding) Branch() string { return h.branch }

// TotalCopies returns the number of copies at the branch.
func (h Holding) TotalCopies() int { return h.total }

// AvailableCopies returns the number of copies on the shelf.
func (h Holding) AvailableCopies() int { return h.available }

// Status returns the branch status.
func (h Holding) Status() Status { return h.status }

// Availability summarises copy availability for a record (immutable value object).
type Availability struct {
	status    Status
	total     int
	available int
	message   string
	holdings  []Holding
}

// NewAvailability creates an Availability.
// Counts are clamped so that 0 <= available <= total; holdings beyond MaxHoldings are dropped.
func NewAvailability(status Status, total, available int, message string, holdings []Holding) Availability {
	total, available = clamp(total, available)
	if !status.Valid() {
		status = StatusUnknown
	}
	if len(holdings) > MaxHoldings {
		holdings = holdings[:MaxHoldings]
	}
	cp := make([]Holding, len(holdings))
	copy(cp, holdings)
	return Availability{status: status, total: total, available: available, message: message, holdings: cp}
}

// UnknownAvailability is the default when holdings are missing or malformed.
// The single holding names the requested branch, or the library system when none was given.
func UnknownAvailability(branch string) Availability {
	if IsAllBranches(branch) {
		branch = DefaultLibrary
	}
	return NewAvailability(StatusUnknown, 1, 0, UnknownMessage, []Holding{
		NewHolding(branch, 1, 0, StatusUnknown),
	})
}

// Status returns the overall status.
func (a Availability) Status() Status { return a.status }

// TotalCopies returns the total copy count.
func (a Availability) TotalCopies() int { return a.total }

// AvailableCopies returns the available copy count.
func (a Availability) AvailableCopies() int { return a.available }

// Message returns the human readable summary.
func (a Availability) Message() string { return a.message }

// Holdings returns at most MaxHoldings branch holdings.
func (a Availability) Holdings() []Holding { return a.holdings }

func clamp(total, available int) (int, int) {
	if total < 0 {
		total = 0
	}
	if available < 0 {
		available = 0
	}
	if available > total {
		available = total
	}
	return total, available
}
