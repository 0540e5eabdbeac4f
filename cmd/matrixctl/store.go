package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/interlock-tracker/internal/entity"
	"github.com/joseph-ayodele/interlock-tracker/internal/export"
	"github.com/joseph-ayodele/interlock-tracker/internal/ingest"
	"github.com/joseph-ayodele/interlock-tracker/internal/jobs"
	"github.com/joseph-ayodele/interlock-tracker/internal/repository"
	"github.com/joseph-ayodele/interlock-tracker/internal/resolve"
	"github.com/joseph-ayodele/interlock-tracker/internal/textextract"
)

func openStore(ctx context.Context, g *globals) (*repository.DB, error) {
	if err := g.cfg.Validate(); err != nil {
		return nil, err
	}
	db, err := repository.Open(ctx, g.cfg.Database, g.logger)
	if err != nil {
		return nil, err
	}
	if err := repository.HealthCheck(ctx, db.DB, 5*time.Second); err != nil {
		db.Close(g.logger)
		return nil, err
	}
	if err := repository.Bootstrap(ctx, db.DB, g.logger); err != nil {
		db.Close(g.logger)
		return nil, err
	}
	return db, nil
}

func scopeFlags(cmd *cobra.Command, s *entity.Scope) {
	cmd.Flags().StringVar(&s.CompanyID, "company", "", "Company id of the tenant")
	cmd.Flags().StringVar(&s.SiteID, "site", "", "Site id of the tenant")
}

func dbhealthCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "dbhealth",
		Short: "Ping the configured store and apply the schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(cmd.Context(), g)
			if err != nil {
				return fmt.Errorf("DB health: FAIL (%w)", err)
			}
			defer db.Close(g.logger)
			fmt.Fprintf(cmd.OutOrStdout(), "DB health: OK (%s)\n", db.Driver)
			return nil
		},
	}
}

func exportCmd(g *globals) *cobra.Command {
	var (
		scope    entity.Scope
		building string
		out      string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the stored matrix of a tenant to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer db.Close(g.logger)

			svc := export.NewService(
				repository.NewZoneRepository(db.DB, g.logger),
				repository.NewEquipmentRepository(db.DB, g.logger),
				repository.NewLinkRepository(db.DB, g.logger),
				g.logger,
			)
			b, err := svc.ExportMatrixXLSX(cmd.Context(), scope, building)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, b, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(b))
			return nil
		},
	}
	scopeFlags(cmd, &scope)
	cmd.Flags().StringVar(&building, "building", "", "Only zones of this building")
	cmd.Flags().StringVarP(&out, "out", "o", "matrix.xlsx", "Output path")
	return cmd
}

func ingestCmd(g *globals) *cobra.Command {
	var (
		scope      entity.Scope
		parse      bool
		skipHidden bool
	)
	cmd := &cobra.Command{
		Use:   "ingest <dir>",
		Short: "Store every matrix document under a directory, optionally parsing each new one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := openStore(ctx, g)
			if err != nil {
				return err
			}
			defer db.Close(g.logger)

			docs := repository.NewDocumentRepository(db.DB, g.logger)
			store, err := ingest.NewStore(g.cfg.Storage.DocumentDir, docs, int64(g.cfg.Storage.MaxUploadMB)<<20, g.logger)
			if err != nil {
				return err
			}
			results, stats, err := store.IngestDirectory(ctx, scope, args[0], skipHidden)
			if err != nil {
				return err
			}

			var manager *jobs.Manager
			if parse {
				zones := repository.NewZoneRepository(db.DB, g.logger)
				equipment := repository.NewEquipmentRepository(db.DB, g.logger)
				links := repository.NewLinkRepository(db.DB, g.logger)
				manager = jobs.NewManager(jobs.Deps{
					Store:        repository.NewExtractJobRepository(db.DB, g.logger),
					Documents:    docs,
					Extractor:    textextract.NewService(g.logger),
					Enricher:     newEnricher(g),
					Persister:    resolve.NewResolver(db.DB, zones, equipment, links, g.logger),
					Logger:       g.logger,
					MinTextChars: g.cfg.Jobs.MinTextChars,
				})
			}

			w := cmd.OutOrStdout()
			for _, r := range results {
				switch {
				case r.Err != "":
					fmt.Fprintf(w, "FAIL  %s: %s\n", r.SourcePath, r.Err)
					continue
				case r.Deduplicated:
					fmt.Fprintf(w, "DUP   %s\n", r.SourcePath)
					continue
				}
				fmt.Fprintf(w, "OK    %s -> %s\n", r.SourcePath, r.DocumentID)
				if manager == nil {
					continue
				}
				// Submit without a queue only records the job; Run executes it here.
				job, err := manager.Submit(ctx, r.DocumentID, scope)
				if err != nil {
					return err
				}
				if err := manager.Run(ctx, job.ID); err != nil {
					fmt.Fprintf(w, "      parse failed: %v\n", err)
					continue
				}
				done, err := manager.Get(ctx, job.ID)
				if err != nil {
					return err
				}
				if done.Result != nil {
					fmt.Fprintf(w, "      zones +%d, equipment +%d, links +%d\n",
						done.Result.ZonesCreated, done.Result.EquipmentCreated, done.Result.LinksCreated)
				}
			}
			fmt.Fprintf(w, "scanned %d, matched %d, stored %d, deduplicated %d, failed %d\n",
				stats.Scanned, stats.Matched, stats.Succeeded, stats.Deduplicated, stats.Failed)
			return nil
		},
	}
	scopeFlags(cmd, &scope)
	cmd.Flags().BoolVar(&parse, "parse", false, "Run extraction on every newly stored document")
	cmd.Flags().BoolVar(&skipHidden, "skip-hidden", true, "Skip dot files and directories")
	return cmd
}
