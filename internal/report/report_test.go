package report

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/cwbudde/psnr/internal/psnr"
)

// knownStats runs the 8x8 single-pixel scenario on a two-channel raster,
// leaving the second channel identical
func knownStats(t *testing.T) *psnr.Stats {
	t.Helper()

	ref := psnr.NewRaster(8, 8, 2)
	ref.Fill(255, 40)
	cand := ref.Clone()
	cand.Set(0, 0, 0, 40)

	stats, err := psnr.Analyze(ref, cand, psnr.Options{})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	return stats
}

func TestNew(t *testing.T) {
	r := New("a.png", "b.png", psnr.LayoutAuto, []string{"Y"}, knownStats(t))

	if r.ID == "" {
		t.Error("Report ID should not be empty")
	}
	if r.Width != 8 || r.Height != 8 {
		t.Errorf("Expected 8x8, got %dx%d", r.Width, r.Height)
	}
	if len(r.Channels) != 2 {
		t.Fatalf("Expected 2 channels, got %d", len(r.Channels))
	}
	if r.Channels[0].Name != "Y" || r.Channels[1].Name != "c1" {
		t.Errorf("Unexpected channel names %q, %q", r.Channels[0].Name, r.Channels[1].Name)
	}
	if r.Channels[0].Exact || !r.Channels[1].Exact {
		t.Errorf("Expected only channel 1 exact, got %+v", r.Channels)
	}
	if r.Identical {
		t.Error("Report should not be identical")
	}
	if r.PeakMode != "observed" {
		t.Errorf("Expected observed peak mode, got %s", r.PeakMode)
	}

	values := r.Values()
	if math.Abs(values[0]-10*math.Log10(64)) > 1e-9 || values[1] != 0 {
		t.Errorf("Unexpected values %v", values)
	}
}

func TestWriteVector(t *testing.T) {
	r := New("a.png", "b.png", psnr.LayoutAuto, nil, knownStats(t))

	var buf bytes.Buffer
	if err := WriteVector(&buf, r); err != nil {
		t.Fatalf("WriteVector failed: %v", err)
	}

	if got := buf.String(); got != "[18.0618, 0]\n" {
		t.Errorf("Expected [18.0618, 0], got %q", got)
	}
}

func TestWriteText(t *testing.T) {
	r := New("a.png", "b.png", psnr.LayoutAuto, []string{"R", "A"}, knownStats(t))

	var buf bytes.Buffer
	if err := Write(&buf, r, FormatText); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Reference: a.png", "Candidate: b.png", "8x8", "18.0618", "identical", "CHANNEL"} {
		if !strings.Contains(out, want) {
			t.Errorf("Text output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteJSON_RoundTrip(t *testing.T) {
	r := New("a.png", "b.png", psnr.LayoutRGB, nil, knownStats(t))
	r.Channels[1].PSNR = DB(math.Inf(-1))

	var buf bytes.Buffer
	if err := Write(&buf, r, FormatJSON); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"-inf"`) {
		t.Errorf("Expected -inf to be encoded as a string:\n%s", buf.String())
	}

	var back Report
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.ID != r.ID || back.Layout != "rgb" {
		t.Errorf("Round trip lost fields: %+v", back)
	}
	if back.Channels[0].PSNR != r.Channels[0].PSNR {
		t.Errorf("Expected %v, got %v", r.Channels[0].PSNR, back.Channels[0].PSNR)
	}
	if !math.IsInf(float64(back.Channels[1].PSNR), -1) {
		t.Errorf("Expected -Inf after round trip, got %v", back.Channels[1].PSNR)
	}
}

func TestDB_UnmarshalInvalid(t *testing.T) {
	var d DB
	if err := json.Unmarshal([]byte(`"loud"`), &d); err == nil {
		t.Error("Expected error for unknown string")
	}
	if err := json.Unmarshal([]byte(`true`), &d); err == nil {
		t.Error("Expected error for boolean")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"vector", FormatVector, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}
