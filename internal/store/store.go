package store

import "github.com/cwbudde/psnr/internal/report"

// Store defines the interface for report persistence operations.
// Implementations must be safe for concurrent use.
//
// Error handling conventions:
//   - Return ErrNotFound if the report doesn't exist (for Load/Delete)
//   - Return *ValidationError for empty or unsafe IDs and malformed reports
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// SaveReport atomically saves a report under report.ID, overwriting any
	// report with the same ID.
	SaveReport(r *report.Report) error

	// LoadReport retrieves the report with the given ID.
	LoadReport(id string) (*report.Report, error)

	// ListReports returns metadata for all stored reports, oldest first.
	// The returned slice is empty, not nil, when nothing is stored.
	ListReports() ([]Info, error)

	// DeleteReport removes the report and its directory.
	DeleteReport(id string) error
}

// ErrNotFound is returned when a requested report does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing report error.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return "report not found: " + e.ID
	}
	return "report not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
