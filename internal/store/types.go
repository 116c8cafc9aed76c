package store

import (
	"strings"
	"time"

	"github.com/cwbudde/psnr/internal/report"
)

// Info is report metadata for listings, without the channel breakdown.
type Info struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Reference string    `json:"reference"`
	Candidate string    `json:"candidate"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	PeakMode  string    `json:"peakMode"`
	Identical bool      `json:"identical"`
}

// ToInfo extracts listing metadata from a full report.
func ToInfo(r *report.Report) Info {
	return Info{
		ID:        r.ID,
		CreatedAt: r.CreatedAt,
		Reference: r.Reference,
		Candidate: r.Candidate,
		Width:     r.Width,
		Height:    r.Height,
		PeakMode:  r.PeakMode,
		Identical: r.Identical,
	}
}

// Validate checks that a report can be persisted.
func Validate(r *report.Report) error {
	if r == nil {
		return &ValidationError{Field: "Report", Reason: "cannot be nil"}
	}
	if err := validateID(r.ID); err != nil {
		return err
	}
	if r.Width <= 0 || r.Height <= 0 {
		return &ValidationError{Field: "Size", Reason: "must be positive"}
	}
	if len(r.Channels) == 0 {
		return &ValidationError{Field: "Channels", Reason: "cannot be empty"}
	}
	if r.CreatedAt.IsZero() {
		return &ValidationError{Field: "CreatedAt", Reason: "cannot be zero"}
	}
	return nil
}

// validateID rejects IDs that would escape the results directory.
func validateID(id string) error {
	if id == "" {
		return &ValidationError{Field: "ID", Reason: "cannot be empty"}
	}
	if id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return &ValidationError{Field: "ID", Reason: "must not contain path elements"}
	}
	return nil
}

// ValidationError represents a report validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
