package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/parsebench/parsebench-go/internal/domain"
	"github.com/parsebench/parsebench-go/internal/fixtures"
	"github.com/parsebench/parsebench-go/internal/report"
	"github.com/parsebench/parsebench-go/internal/results"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var (
		backendNames []string
		docType      string
		outputPath   string
		save         bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run backends over the fixture corpus and print summary statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			dt, err := parseDocumentType(docType)
			if err != nil {
				return err
			}

			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			backends, err := a.backends(backendNames)
			if err != nil {
				return err
			}
			docs, err := fixtures.Load(a.cfg.FixturesDir, dt)
			if err != nil {
				return err
			}
			sink, closeSink, err := a.sink(ctx, save)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeSink(); err != nil {
					a.logger.Warn("close store failed", "error", err)
				}
			}()

			a.logger.Info("benchmark starting", "backends", backendNames, "document_type", dt, "documents", len(docs))
			sums := make([]domain.Summary, 0, len(backends))
			var recordErr error
			for _, b := range backends {
				s := a.coord.Run(ctx, b, dt, docs)
				if err := sink.Record(ctx, s); err != nil {
					a.logger.Error("record summary failed", "backend", s.BackendName, "error", err)
					recordErr = errors.Join(recordErr, err)
				}
				sums = append(sums, s)
			}

			if err := report.Summaries(cmd.OutOrStdout(), sums); err != nil {
				return err
			}
			if outputPath != "" {
				if err := results.WriteJSON(outputPath, sums); err != nil {
					return err
				}
				a.logger.Info("results written", "path", outputPath)
			}
			return recordErr
		},
	}

	cmd.Flags().StringSliceVarP(&backendNames, "backend", "b", []string{"goquery", "htmlquery"}, "backend to run (repeatable)")
	cmd.Flags().StringVarP(&docType, "document-type", "t", string(domain.DocumentHTML), "document type: html or xml")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write all summaries to this JSON file")
	cmd.Flags().BoolVar(&save, "save", false, "save summaries to the configured results store")
	return cmd
}
