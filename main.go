package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "cinelist",
		Short:         "Movie watchlist backend with profile picture normalization",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to a YAML config file")

	root.AddCommand(
		newServeCommand(&configFile),
		newNormalizeCommand(&configFile),
		newInspectCommand(&configFile),
	)
	return root
}

// newLogger writes human-readable text to stdout and JSON to stderr.
func newLogger(stdout, stderr io.Writer, level slog.Level) *slog.Logger {
	logOpts := &slog.HandlerOptions{Level: level}
	return slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(stdout, logOpts),
		slog.NewJSONHandler(stderr, logOpts),
	))
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
