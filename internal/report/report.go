// Package report renders PSNR results for people and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cwbudde/psnr/internal/psnr"
	"github.com/google/uuid"
)

// Format selects a renderer.
type Format string

const (
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatVector Format = "vector"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatVector:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format: %q", s)
	}
}

// Channel is the result for one channel.
type Channel struct {
	Name  string  `json:"name"`
	PSNR  DB      `json:"psnr"`
	MSE   float64 `json:"mse"`
	Peak  float64 `json:"peak"`
	Exact bool    `json:"exact"` // PSNR is the 0 exact-match sentinel
}

// Report is one reference/candidate comparison.
type Report struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Reference string    `json:"reference"`
	Candidate string    `json:"candidate"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Layout    string    `json:"layout"`
	PeakMode  string    `json:"peakMode"`
	Channels  []Channel `json:"channels"`
	Identical bool      `json:"identical"`
}

// New builds a report with a fresh ID. names may be shorter than the
// channel count; missing names are generated.
func New(reference, candidate string, layout psnr.ChannelLayout, names []string, stats *psnr.Stats) *Report {
	r := &Report{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Reference: reference,
		Candidate: candidate,
		Width:     stats.Width,
		Height:    stats.Height,
		Layout:    layout.String(),
		PeakMode:  stats.Mode.String(),
		Channels:  make([]Channel, stats.Channels),
		Identical: stats.Identical(),
	}

	for c := range r.Channels {
		name := fmt.Sprintf("c%d", c)
		if c < len(names) {
			name = names[c]
		}
		r.Channels[c] = Channel{
			Name:  name,
			PSNR:  DB(stats.PSNR[c]),
			MSE:   stats.MSE[c],
			Peak:  stats.Peak[c],
			Exact: stats.MSE[c] == 0,
		}
	}

	return r
}

// Values returns the per-channel PSNR vector.
func (r *Report) Values() []float64 {
	v := make([]float64, len(r.Channels))
	for i, c := range r.Channels {
		v[i] = float64(c.PSNR)
	}
	return v
}

// Write renders r to w in the given format.
func Write(w io.Writer, r *Report, format Format) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatVector:
		return WriteVector(w, r)
	default:
		return WriteText(w, r)
	}
}

// WriteText renders a table. Exact-match channels show "identical" instead of 0.
func WriteText(w io.Writer, r *Report) error {
	fmt.Fprintf(w, "Reference: %s\n", r.Reference)
	fmt.Fprintf(w, "Candidate: %s\n", r.Candidate)
	fmt.Fprintf(w, "Size:      %dx%d (%s, peak %s)\n\n", r.Width, r.Height, r.Layout, r.PeakMode)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CHANNEL\tPSNR (dB)\tMSE\tPEAK")
	fmt.Fprintln(tw, "-------\t---------\t---\t----")

	for _, c := range r.Channels {
		value := c.PSNR.String()
		if c.Exact {
			value = "identical"
		}
		fmt.Fprintf(tw, "%s\t%s\t%.4f\t%.0f\n", c.Name, value, c.MSE, c.Peak)
	}

	return tw.Flush()
}

// WriteJSON renders indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// WriteVector prints the bare dB vector, e.g. [18.0618, 0].
func WriteVector(w io.Writer, r *Report) error {
	parts := make([]string, len(r.Channels))
	for i, c := range r.Channels {
		parts[i] = c.PSNR.String()
	}
	_, err := fmt.Fprintf(w, "[%s]\n", strings.Join(parts, ", "))
	return err
}

// DB is a PSNR value in decibels. A zero observed peak yields -Inf, which
// JSON cannot carry as a number, so non-finite values travel as strings.
type DB float64

func (d DB) String() string {
	v := float64(d)
	switch {
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsInf(v, 1):
		return "inf"
	case v == 0:
		return "0"
	default:
		return strconv.FormatFloat(v, 'f', 4, 64)
	}
}

func (d DB) MarshalJSON() ([]byte, error) {
	v := float64(d)
	if math.IsInf(v, 0) {
		return json.Marshal(d.String())
	}
	return json.Marshal(v)
}

func (d *DB) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*d = DB(v)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid dB value: %s", data)
	}
	switch s {
	case "-inf":
		*d = DB(math.Inf(-1))
	case "inf":
		*d = DB(math.Inf(1))
	default:
		return fmt.Errorf("invalid dB value: %q", s)
	}
	return nil
}
