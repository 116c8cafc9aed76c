package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/cwbudde/psnr/internal/report"
)

// FSStore implements the Store interface using filesystem-based persistence.
// Reports are stored as <baseDir>/results/<id>/report.json.
//
// Thread-safety: writes go through a temp file and an atomic rename, so no
// locks are needed and concurrent callers never observe partial files.
type FSStore struct {
	baseDir string
}

// NewFSStore creates a new filesystem-based store.
// The baseDir will be created if it doesn't exist.
func NewFSStore(baseDir string) (*FSStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FSStore{
		baseDir: baseDir,
	}, nil
}

func (fs *FSStore) resultsDir() string {
	return filepath.Join(fs.baseDir, "results")
}

func (fs *FSStore) reportDir(id string) string {
	return filepath.Join(fs.resultsDir(), id)
}

func (fs *FSStore) reportPath(id string) string {
	return filepath.Join(fs.reportDir(id), "report.json")
}

// SaveReport atomically saves a report.
func (fs *FSStore) SaveReport(r *report.Report) error {
	if err := Validate(r); err != nil {
		return err
	}

	dir := fs.reportDir(r.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	// Write to temporary file first (atomic pattern)
	tempPath := fs.reportPath(r.ID) + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp report file: %w", err)
	}

	finalPath := fs.reportPath(r.ID)
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename report file: %w", err)
	}

	slog.Debug("Report saved", "id", r.ID, "path", finalPath)
	return nil
}

// LoadReport retrieves the report with the given ID.
func (fs *FSStore) LoadReport(id string) (*report.Report, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	path := fs.reportPath(id)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &NotFoundError{ID: id}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}

	var r report.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to deserialize report: %w", err)
	}

	slog.Debug("Report loaded", "id", id, "path", path)
	return &r, nil
}

// ListReports returns metadata for every readable report, oldest first.
func (fs *FSStore) ListReports() ([]Info, error) {
	entries, err := os.ReadDir(fs.resultsDir())
	if os.IsNotExist(err) {
		return []Info{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read results directory: %w", err)
	}

	infos := []Info{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		id := entry.Name()
		if _, err := os.Stat(fs.reportPath(id)); os.IsNotExist(err) {
			continue // Skip directories without report.json
		}

		r, err := fs.LoadReport(id)
		if err != nil {
			slog.Warn("Failed to load report for listing", "id", id, "error", err)
			continue
		}

		infos = append(infos, ToInfo(r))
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})

	slog.Debug("Listed reports", "count", len(infos))
	return infos, nil
}

// DeleteReport removes the report directory.
func (fs *FSStore) DeleteReport(id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	dir := fs.reportDir(id)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return &NotFoundError{ID: id}
	} else if err != nil {
		return fmt.Errorf("failed to stat report directory: %w", err)
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove report directory: %w", err)
	}

	slog.Debug("Report deleted", "id", id, "path", dir)
	return nil
}
