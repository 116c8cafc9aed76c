package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/cwbudde/psnr/internal/psnr"
	"github.com/cwbudde/psnr/internal/store"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelWarn, true},
		{"", slog.LevelWarn, true},
	}

	for _, tt := range tests {
		got, err := parseLogLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLogLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestRootCommand_UnknownLogLevel(t *testing.T) {
	t.Cleanup(func() { logLevel = "warn" })

	_, err := execute(t, "version", "--log-level", "loud")
	if err == nil || !strings.Contains(err.Error(), "unknown log level") {
		t.Errorf("Expected unknown log level error, got %v", err)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"dimension", &psnr.MismatchError{Err: psnr.ErrDimensionMismatch}, 2},
		{"channel", fmt.Errorf("wrapped: %w", psnr.ErrChannelMismatch), 2},
		{"empty", psnr.ErrEmptyImage, 2},
		{"not found", &store.NotFoundError{ID: "x"}, 1},
		{"other", errors.New("disk on fire"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("Expected exit code %d, got %d", tt.want, got)
			}
		})
	}
}
