package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/interlock-tracker/constants"
	"github.com/joseph-ayodele/interlock-tracker/internal/common"
	"github.com/joseph-ayodele/interlock-tracker/internal/export"
	"github.com/joseph-ayodele/interlock-tracker/internal/jobs"
	"github.com/joseph-ayodele/interlock-tracker/internal/llm"
	"github.com/joseph-ayodele/interlock-tracker/internal/llm/openai"
	"github.com/joseph-ayodele/interlock-tracker/internal/matrix"
	"github.com/joseph-ayodele/interlock-tracker/internal/resolve"
	"github.com/joseph-ayodele/interlock-tracker/internal/textextract"
)

// report is what parse prints.
type report struct {
	File         string            `json:"file"`
	Pages        int               `json:"pages"`
	Enriched     bool              `json:"enriched"`
	ChunksTotal  int               `json:"chunks_total,omitempty"`
	ChunksFailed int               `json:"chunks_failed,omitempty"`
	Warnings     []string          `json:"warnings,omitempty"`
	Matrix       matrix.Candidates `json:"matrix"`
}

func parseCmd(g *globals) *cobra.Command {
	var (
		enrich   bool
		asJSON   bool
		xlsxPath string
	)
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Extract the cause-and-effect matrix from a document without touching the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var enricher jobs.Enricher
			if enrich {
				if !g.cfg.EnrichmentEnabled() {
					return errors.New("--enrich needs OPENAI_API_KEY")
				}
				enricher = newEnricher(g)
			}
			rep, err := analyze(cmd.Context(), args[0], enricher, g.cfg.Jobs.MinTextChars, g.logger)
			if err != nil {
				return err
			}
			if xlsxPath != "" {
				b, err := export.MatrixWorkbook(export.FromCandidates(rep.Matrix))
				if err != nil {
					return err
				}
				if err := os.WriteFile(xlsxPath, b, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", xlsxPath, err)
				}
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			printSummary(cmd.OutOrStdout(), rep)
			return nil
		},
	}
	cmd.Flags().BoolVar(&enrich, "enrich", false, "Refine the heuristic result with the language model")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full matrix as JSON")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write the matrix workbook to this path")
	return cmd
}

// newEnricher returns an enricher that reports itself disabled when no API key is set.
func newEnricher(g *globals) *llm.Enricher {
	var completer llm.Completer
	if g.cfg.EnrichmentEnabled() {
		completer = openai.NewClient(openai.Config{
			APIKey:      g.cfg.LLM.APIKey,
			BaseURL:     g.cfg.LLM.BaseURL,
			Model:       g.cfg.LLM.Model,
			Temperature: g.cfg.LLM.Temperature,
			Timeout:     g.cfg.LLM.Timeout,
		}, g.logger)
	}
	return llm.NewEnricher(completer,
		llm.WithChunkChars(g.cfg.LLM.ChunkChars),
		llm.WithConcurrency(g.cfg.LLM.MaxConcurrency),
		llm.WithLogger(g.logger),
	)
}

// analyze runs text extraction, heuristics and optional enrichment, then
// reconciles the two proposals the same way a job does before persisting.
func analyze(ctx context.Context, path string, enricher jobs.Enricher, minChars int, logger *slog.Logger) (report, error) {
	rep := report{File: path}
	if minChars <= 0 {
		minChars = constants.MinExtractableChars
	}
	text, err := textextract.NewService(logger).Extract(ctx, path)
	if err != nil {
		return rep, err
	}
	rep.Pages = len(text.Pages)
	rep.Warnings = text.Warnings
	if err := textextract.CheckExtractable(text, minChars); err != nil {
		return rep, err
	}

	heuristic := matrix.ParseWithLogger(logger, text.Pages)
	var enriched matrix.Candidates
	if enricher != nil && enricher.Enabled() {
		proposal, stats, err := enricher.Enrich(ctx, text.Pages, nil)
		rep.ChunksTotal, rep.ChunksFailed = stats.Total, stats.Failed
		switch {
		case errors.Is(err, common.ErrEnrichmentUnavailable):
			rep.Warnings = append(rep.Warnings, "enrichment unavailable; heuristics only")
		case err != nil:
			return rep, err
		default:
			enriched = llm.ToCandidates(proposal)
			rep.Enriched = true
		}
	}
	rep.Matrix = resolve.Reconcile(heuristic, enriched)
	return rep, nil
}

func printSummary(w io.Writer, rep report) {
	fmt.Fprintf(w, "%s: %d pages, %d zones, %d equipment, %d links (enriched: %t)\n",
		rep.File, rep.Pages, len(rep.Matrix.Zones), len(rep.Matrix.Equipment), len(rep.Matrix.Links), rep.Enriched)
	for _, warn := range rep.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ZONE\tNAME\tDETECTORS\tLEVEL\tEQUIPMENT")
	for _, z := range rep.Matrix.Zones {
		key := matrix.CanonicalCode(z.Code)
		printed := false
		for _, l := range rep.Matrix.Links {
			if matrix.CanonicalCode(l.ZoneCode) != key {
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\tAL%d\t%s\n", z.Code, z.Name, z.DetectorRange, l.AlarmLevel, l.EquipmentCode)
			printed = true
		}
		if !printed {
			fmt.Fprintf(tw, "%s\t%s\t%s\t-\t-\n", z.Code, z.Name, z.DetectorRange)
		}
	}
	_ = tw.Flush()
}
