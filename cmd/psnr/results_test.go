package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/cwbudde/psnr/internal/store"
)

func TestSelectReportsForDeletion_ByAge(t *testing.T) {
	now := time.Now()
	infos := []store.Info{
		{ID: "rep1", CreatedAt: now.AddDate(0, 0, -10)}, // 10 days old
		{ID: "rep2", CreatedAt: now.AddDate(0, 0, -5)},  // 5 days old
		{ID: "rep3", CreatedAt: now.AddDate(0, 0, -1)},  // 1 day old
		{ID: "rep4", CreatedAt: now.AddDate(0, 0, -30)}, // 30 days old
	}

	// Delete reports older than 7 days
	toDelete := selectReportsForDeletion(infos, 0, 7, now)

	if len(toDelete) != 2 {
		t.Fatalf("Expected 2 reports to delete, got %d", len(toDelete))
	}
	if !containsID(toDelete, "rep1") || !containsID(toDelete, "rep4") {
		t.Error("Expected rep1 and rep4 to be selected for deletion")
	}
}

func TestSelectReportsForDeletion_ByCount(t *testing.T) {
	now := time.Now()
	infos := []store.Info{
		{ID: "rep1", CreatedAt: now.AddDate(0, 0, -10)},
		{ID: "rep2", CreatedAt: now.AddDate(0, 0, -5)},
		{ID: "rep3", CreatedAt: now.AddDate(0, 0, -1)},
		{ID: "rep4", CreatedAt: now.AddDate(0, 0, -30)},
	}

	// Keep only the newest 2 reports
	toDelete := selectReportsForDeletion(infos, 2, 0, now)

	if len(toDelete) != 2 {
		t.Fatalf("Expected 2 reports to delete, got %d", len(toDelete))
	}
	if !containsID(toDelete, "rep4") || !containsID(toDelete, "rep1") {
		t.Error("Expected rep4 and rep1 to be selected for deletion (oldest)")
	}
}

func TestSelectReportsForDeletion_Combined(t *testing.T) {
	now := time.Now()
	infos := []store.Info{
		{ID: "rep1", CreatedAt: now.AddDate(0, 0, -10)},
		{ID: "rep2", CreatedAt: now.AddDate(0, 0, -5)},
		{ID: "rep3", CreatedAt: now.AddDate(0, 0, -1)},
		{ID: "rep4", CreatedAt: now.AddDate(0, 0, -30)},
	}

	// Age selects rep1 and rep4, count selects rep4, rep1 and rep2
	toDelete := selectReportsForDeletion(infos, 1, 7, now)

	if len(toDelete) != 3 {
		t.Fatalf("Expected 3 reports to delete without duplicates, got %d", len(toDelete))
	}
	if containsID(toDelete, "rep3") {
		t.Error("Newest report should be kept")
	}
}

func TestSelectReportsForDeletion_NothingToDelete(t *testing.T) {
	now := time.Now()
	infos := []store.Info{
		{ID: "rep1", CreatedAt: now.AddDate(0, 0, -1)},
		{ID: "rep2", CreatedAt: now},
	}

	if toDelete := selectReportsForDeletion(infos, 5, 7, now); len(toDelete) != 0 {
		t.Errorf("Expected no reports to delete, got %d", len(toDelete))
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.bytes); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestDisplayID(t *testing.T) {
	if got := displayID("short"); got != "short" {
		t.Errorf("Expected short ID unchanged, got %q", got)
	}
	if got := displayID("0123456789abcdef"); got != "0123456789ab..." {
		t.Errorf("Expected truncated ID, got %q", got)
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"yes\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		if got := confirm(strings.NewReader(tt.input), &out, "? "); got != tt.want {
			t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if out.String() != "? " {
			t.Errorf("Expected prompt to be printed, got %q", out.String())
		}
	}
}

func containsID(infos []store.Info, id string) bool {
	for _, info := range infos {
		if info.ID == id {
			return true
		}
	}
	return false
}
