package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cwbudde/psnr/internal/report"
	"github.com/cwbudde/psnr/internal/store"
	"github.com/spf13/cobra"
)

var (
	resultsDataDir string
	showFormat     string
	keepLast       int
	olderThanDays  int
	forceClean     bool
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Manage saved comparison reports",
	Long: `Manage reports saved with "compare --save" or by the HTTP server,
including listing and cleaning old reports.`,
}

var listResultsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all saved reports",
	Long:  `Display all saved reports with ID, timestamp, images, peak mode and file size.`,
	Args:  cobra.NoArgs,
	RunE:  runListResults,
}

var showResultCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved report",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowResult,
}

var deleteResultCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved report",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeleteResult,
}

var cleanResultsCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean old reports",
	Long: `Delete old reports based on retention policy.
You can keep only the newest N reports or delete reports older than N days.`,
	Args: cobra.NoArgs,
	RunE: runCleanResults,
}

func init() {
	rootCmd.AddCommand(resultsCmd)

	resultsCmd.AddCommand(listResultsCmd)
	resultsCmd.AddCommand(showResultCmd)
	resultsCmd.AddCommand(deleteResultCmd)
	resultsCmd.AddCommand(cleanResultsCmd)

	resultsCmd.PersistentFlags().StringVar(&resultsDataDir, "data-dir", "./data", "Base directory for result storage")

	showResultCmd.Flags().StringVarP(&showFormat, "format", "o", "text", "Output format (text, json, vector)")

	cleanResultsCmd.Flags().IntVar(&keepLast, "keep-last", 0, "Keep only the newest N reports (0 = keep all)")
	cleanResultsCmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Delete reports older than N days (0 = no age limit)")
	cleanResultsCmd.Flags().BoolVarP(&forceClean, "force", "f", false, "Skip confirmation prompt")
}

func openResultStore() (*store.FSStore, error) {
	resultStore, err := store.NewFSStore(resultsDataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create result store: %w", err)
	}
	return resultStore, nil
}

func runListResults(cmd *cobra.Command, args []string) error {
	resultStore, err := openResultStore()
	if err != nil {
		return err
	}

	infos, err := resultStore.ListReports()
	if err != nil {
		return fmt.Errorf("failed to list reports: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(infos) == 0 {
		fmt.Fprintln(out, "No reports found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tREFERENCE\tCANDIDATE\tSIZE\tPEAK\tIDENTICAL\tDISK")
	fmt.Fprintln(w, "--\t-------\t---------\t---------\t----\t----\t---------\t----")

	for _, info := range infos {
		size, err := getDirSize(filepath.Join(resultsDataDir, "results", info.ID))
		sizeStr := "unknown"
		if err == nil {
			sizeStr = formatBytes(size)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dx%d\t%s\t%t\t%s\n",
			displayID(info.ID),
			info.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			filepath.Base(info.Reference),
			filepath.Base(info.Candidate),
			info.Width, info.Height,
			info.PeakMode,
			info.Identical,
			sizeStr,
		)
	}

	w.Flush()

	fmt.Fprintf(out, "\nTotal reports: %d\n", len(infos))
	return nil
}

func runShowResult(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(showFormat)
	if err != nil {
		return err
	}

	resultStore, err := openResultStore()
	if err != nil {
		return err
	}

	rep, err := resultStore.LoadReport(args[0])
	if err != nil {
		return err
	}

	return report.Write(cmd.OutOrStdout(), rep, format)
}

func runDeleteResult(cmd *cobra.Command, args []string) error {
	resultStore, err := openResultStore()
	if err != nil {
		return err
	}

	if err := resultStore.DeleteReport(args[0]); err != nil {
		return err
	}

	slog.Info("Deleted report", "id", args[0])
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted report %s\n", args[0])
	return nil
}

func runCleanResults(cmd *cobra.Command, args []string) error {
	if keepLast == 0 && olderThanDays == 0 {
		return fmt.Errorf("must specify either --keep-last or --older-than")
	}

	resultStore, err := openResultStore()
	if err != nil {
		return err
	}

	infos, err := resultStore.ListReports()
	if err != nil {
		return fmt.Errorf("failed to list reports: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(infos) == 0 {
		fmt.Fprintln(out, "No reports to clean.")
		return nil
	}

	toDelete := selectReportsForDeletion(infos, keepLast, olderThanDays, time.Now())
	if len(toDelete) == 0 {
		fmt.Fprintln(out, "No reports match deletion criteria.")
		return nil
	}

	fmt.Fprintf(out, "Found %d report(s) to delete:\n", len(toDelete))
	for _, info := range toDelete {
		fmt.Fprintf(out, "  - %s (%s vs %s, %s)\n",
			displayID(info.ID),
			filepath.Base(info.Reference),
			filepath.Base(info.Candidate),
			info.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		)
	}

	if !forceClean && !confirm(cmd.InOrStdin(), out, "\nProceed with deletion? [y/N]: ") {
		fmt.Fprintln(out, "Aborted.")
		return nil
	}

	deleted := 0
	failed := 0
	for _, info := range toDelete {
		if err := resultStore.DeleteReport(info.ID); err != nil {
			slog.Error("Failed to delete report", "id", info.ID, "error", err)
			failed++
		} else {
			slog.Info("Deleted report", "id", info.ID)
			deleted++
		}
	}

	fmt.Fprintf(out, "\nDeleted %d report(s), %d failed.\n", deleted, failed)
	return nil
}

// selectReportsForDeletion applies the retention policy. A report is
// selected when it is older than olderThanDays or falls outside the
// newest keepLast reports; each report is selected at most once.
func selectReportsForDeletion(infos []store.Info, keepLast, olderThanDays int, now time.Time) []store.Info {
	var toDelete []store.Info
	selected := make(map[string]bool)

	if olderThanDays > 0 {
		cutoff := now.AddDate(0, 0, -olderThanDays)
		for _, info := range infos {
			if info.CreatedAt.Before(cutoff) {
				toDelete = append(toDelete, info)
				selected[info.ID] = true
			}
		}
	}

	if keepLast > 0 && len(infos) > keepLast {
		// Oldest first
		sorted := make([]store.Info, len(infos))
		copy(sorted, infos)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		})

		for _, info := range sorted[:len(sorted)-keepLast] {
			if !selected[info.ID] {
				toDelete = append(toDelete, info)
				selected[info.ID] = true
			}
		}
	}

	return toDelete
}

// confirm prints prompt and reports whether the answer was y or Y
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	response, _ := bufio.NewReader(in).ReadString('\n')
	response = strings.TrimSpace(response)
	return response == "y" || response == "Y"
}

// displayID truncates long report IDs for tables
func displayID(id string) string {
	if len(id) > 12 {
		return id[:12] + "..."
	}
	return id
}

// getDirSize calculates the total size of a directory
func getDirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

// formatBytes formats bytes as human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
