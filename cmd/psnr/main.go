package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/cwbudde/psnr/internal/psnr"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode separates incomparable inputs from every other failure
func exitCode(err error) int {
	switch {
	case errors.Is(err, psnr.ErrDimensionMismatch),
		errors.Is(err, psnr.ErrChannelMismatch),
		errors.Is(err, psnr.ErrEmptyImage):
		return 2
	default:
		return 1
	}
}
