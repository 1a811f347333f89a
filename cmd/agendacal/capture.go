package main

import (
	"time"

	"github.com/spf13/cobra"

	"agendacal/internal/capture"
	"agendacal/internal/config"
)

var (
	captureURL     string
	captureOut     string
	captureWidth   int
	captureHeight  int
	captureTimeout time.Duration
	captureChrome  string
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Screenshot the calendar page with headless Chromium",
	Long: `Open the /calendar page of a running server in headless Chromium at a
phone-sized viewport and save a PNG once the page reports it is ready.

Flags default to the capture section of the config file.`,
	RunE: runCapture,
}

func init() {
	captureCmd.Flags().StringVar(&captureURL, "url", "", "Calendar page URL")
	captureCmd.Flags().StringVar(&captureOut, "out", "", "Output PNG path")
	captureCmd.Flags().IntVar(&captureWidth, "width", 0, "Viewport width in px")
	captureCmd.Flags().IntVar(&captureHeight, "height", 0, "Viewport height in px")
	captureCmd.Flags().DurationVar(&captureTimeout, "timeout", capture.DefaultTimeout, "Overall capture timeout")
	captureCmd.Flags().StringVar(&captureChrome, "chrome", "", "Chromium binary (defaults to PATH lookup)")
	rootCmd.AddCommand(captureCmd)
}

func runCapture(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil && cfg == nil {
		return err
	}
	opts := capture.Options{
		URL:        firstNonEmpty(captureURL, cfg.Capture.URL),
		OutputPath: firstNonEmpty(captureOut, cfg.Capture.Output),
		Width:      firstPositive(captureWidth, cfg.Capture.Width),
		Height:     firstPositive(captureHeight, cfg.Capture.Height),
		Timeout:    captureTimeout,
		ExecPath:   captureChrome,
	}
	return capture.Screenshot(cmd.Context(), opts)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}
