package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/msomdec/cinelist/internal/config"
	"github.com/msomdec/cinelist/internal/imaging"
)

// loadNormalizer builds a Normalizer from configuration without touching the database.
func loadNormalizer(cmd *cobra.Command, configFile string, verbose bool) (*imaging.Normalizer, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Image.Validate(); err != nil {
		return nil, fmt.Errorf("image limits: %w", err)
	}

	level := cfg.LogLevel
	if verbose {
		level = min(level, slog.LevelDebug)
	}
	logger := newLogger(cmd.ErrOrStderr(), io.Discard, level)
	return imaging.NewNormalizer(imaging.NewDrawTransformer(), cfg.Image, imaging.WithLogger(logger)), nil
}

func newNormalizeCommand(configFile *string) *cobra.Command {
	var (
		output  string
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "normalize <file>",
		Short: "Resize and re-encode an image into a profile picture data URI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := loadNormalizer(cmd, *configFile, verbose)
			if err != nil {
				return err
			}

			path := args[0]
			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			mtype, err := mimetype.DetectFile(path)
			if err != nil {
				return fmt.Errorf("detect file type: %w", err)
			}
			c := imaging.Candidate{MimeType: mtype.String(), FileSizeBytes: info.Size()}
			if err := n.ValidateCandidate(c).Err(); err != nil {
				return err
			}

			img, err := n.Normalize(cmd.Context(), imaging.FileSource(path))
			if err != nil {
				return err
			}

			if output != "" {
				if err := os.WriteFile(output, []byte(img.DataURI()), 0o644); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				printf(cmd, "%dx%d, %s -> %s\n", img.Width, img.Height, humanize.IBytes(uint64(img.SizeBytes())), output)
				return nil
			}
			printf(cmd, "%s\n", img.DataURI())
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the data URI to this file instead of stdout")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline steps to stderr")
	return cmd
}

func newInspectCommand(configFile *string) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "inspect <data-uri|->",
		Short: "Report the size of a stored data URI and whether it fits the budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := loadNormalizer(cmd, *configFile, false)
			if err != nil {
				return err
			}

			value := args[0]
			if value == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				value = strings.TrimSpace(string(data))
			}

			parsed := n.ParseDataURI(value)
			if parsed == nil {
				return fmt.Errorf("not an image data uri")
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(parsed)
			}
			verdict := "within budget"
			if !parsed.Valid {
				verdict = fmt.Sprintf("over budget (limit %s)", humanize.IBytes(uint64(n.Limits().MaxEncodedSize)))
			}
			printf(cmd, "%s, %dKB, %s\n", parsed.MimeType, parsed.SizeKB, verdict)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}
