package main

import (
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"runtime"

	"github.com/cwbudde/psnr/internal/compare"
	"github.com/cwbudde/psnr/internal/report"
	"github.com/cwbudde/psnr/internal/store"
	"github.com/spf13/cobra"
)

var (
	peakMode    string
	layoutName  string
	outFormat   string
	workers     int
	saveResult  bool
	diffPath    string
	compareData string
)

var compareCmd = &cobra.Command{
	Use:   "compare <reference> <candidate>",
	Short: "Compute per-channel PSNR of candidate against reference",
	Long: `Compute the peak signal-to-noise ratio of each channel of the candidate
image against the reference image. By default the peak is the largest value
observed in each reference channel; use --peak fixed for the 255 convention.

A channel that matches exactly reports 0. Images with different dimensions
or channel counts, or without pixels, exit with status 2. Under --layout auto
a CMYK image compared with an RGB(A) image is converted to RGBA on both sides.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringVar(&peakMode, "peak", "observed", "Peak convention (observed, fixed)")
	compareCmd.Flags().StringVar(&layoutName, "layout", "auto", "Channel layout (auto, gray, rgb, rgba, cmyk)")
	compareCmd.Flags().StringVarP(&outFormat, "format", "o", "text", "Output format (text, json, vector)")
	compareCmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "Number of row workers (0 or 1 = sequential)")
	compareCmd.Flags().BoolVar(&saveResult, "save", false, "Persist the report to the result store")
	compareCmd.Flags().StringVar(&diffPath, "diff", "", "Write a difference image (PNG) to this path")
	compareCmd.Flags().StringVar(&compareData, "data-dir", "./data", "Base directory for result storage")
}

func runCompare(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(outFormat)
	if err != nil {
		return err
	}

	req := compare.Request{
		Reference: args[0],
		Candidate: args[1],
		Peak:      peakMode,
		Layout:    layoutName,
		Workers:   workers,
	}

	rep, err := compare.Run(req)
	if err != nil {
		return err
	}

	if saveResult {
		resultStore, err := store.NewFSStore(compareData)
		if err != nil {
			return fmt.Errorf("failed to create result store: %w", err)
		}
		if err := resultStore.SaveReport(rep); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		slog.Info("Saved report", "id", rep.ID, "data_dir", compareData)
	}

	if diffPath != "" {
		if err := writeDiff(req, diffPath); err != nil {
			return err
		}
	}

	return report.Write(cmd.OutOrStdout(), rep, format)
}

// writeDiff renders the difference map of req to path
func writeDiff(req compare.Request, path string) error {
	diff, err := compare.DiffFiles(req)
	if err != nil {
		return fmt.Errorf("failed to render diff: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create diff file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, diff); err != nil {
		return fmt.Errorf("failed to encode diff: %w", err)
	}

	slog.Info("Wrote difference image", "path", path)
	return nil
}
