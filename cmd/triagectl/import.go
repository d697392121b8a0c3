package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/triage/backend/internal/ai"
	"github.com/triage/backend/internal/classify"
	"github.com/triage/backend/internal/models"
	"github.com/triage/backend/internal/service"
)

type importOutput struct {
	Report   models.ImportReport    `json:"report"`
	Analysis models.AnalysisSummary `json:"analysis"`
}

func init() {
	var tz, aiURL string
	var verbose bool
	importCmd := &cobra.Command{
		Use:   "import FILE.csv",
		Short: "Classify a CSV export and print the report and analysis as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zerolog.Nop()
			if verbose {
				logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
			}
			return runImport(cmd.Context(), args[0], lexiconFlag, tz, aiURL, logger, cmd.OutOrStdout())
		},
	}
	importCmd.Flags().StringVar(&tz, "tz", "", "Zone for sent_date values without one (default: local)")
	importCmd.Flags().StringVar(&aiURL, "ai-url", "", "Classify through an external /classify service")
	importCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log row failures to stderr")
	rootCmd.AddCommand(importCmd)
}

func runImport(ctx context.Context, path, lexiconPath, tz, aiURL string, logger zerolog.Logger, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	loc := time.Local
	if tz != "" {
		if loc, err = time.LoadLocation(tz); err != nil {
			return fmt.Errorf("invalid --tz %q: %w", tz, err)
		}
	}

	var adapter ai.Adapter
	if aiURL != "" {
		adapter = ai.HTTPAdapter{BaseURL: aiURL}
	} else {
		lexicon, err := loadLexicon(lexiconPath)
		if err != nil {
			return err
		}
		adapter = ai.NewRuleAdapter(lexicon)
	}

	importer := service.NewImporter(adapter, logger)
	importer.Location = loc
	report, err := importer.ImportCSV(ctx, string(data))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(importOutput{
		Report:   report,
		Analysis: service.Summarize(report.Tickets, loc),
	})
}

func loadLexicon(path string) (classify.Lexicon, error) {
	if path == "" {
		return classify.DefaultLexicon(), nil
	}
	return classify.LoadLexicon(path)
}
