package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parsebench/parsebench-go/internal/domain"
	"github.com/parsebench/parsebench-go/internal/fixtures"
	"github.com/parsebench/parsebench-go/internal/report"
	"github.com/parsebench/parsebench-go/internal/results"
	"github.com/parsebench/parsebench-go/internal/stats"
)

// compareReport is the --output document of the compare command.
type compareReport struct {
	Summaries  []domain.Summary  `json:"summaries"`
	Comparison domain.Comparison `json:"comparison"`
}

// Exit codes: 0 equivalent, 1 divergence detected, 2 error.
func newCompareCmd(opts *rootOptions) *cobra.Command {
	var (
		nameA, nameB   string
		docType        string
		tolerancesFile string
		overrides      []string
		outputPath     string
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare two backends document by document under a tolerance table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			dt, err := parseDocumentType(docType)
			if err != nil {
				return withExitCode(2, err)
			}

			a, err := newApp(ctx, opts)
			if err != nil {
				return withExitCode(2, err)
			}
			defer a.close(ctx)

			tol, err := resolveTolerances(a.cfg, tolerancesFile, overrides)
			if err != nil {
				return withExitCode(2, err)
			}
			backends, err := a.backends([]string{nameA, nameB})
			if err != nil {
				return withExitCode(2, err)
			}
			docs, err := fixtures.Load(a.cfg.FixturesDir, dt)
			if err != nil {
				return withExitCode(2, err)
			}

			res, err := a.coord.ComparePairDetailed(ctx, backends[0], backends[1], docs, tol)
			if err != nil {
				return withExitCode(2, err)
			}

			total := domain.TotalBytes(docs)
			sums := []domain.Summary{
				stats.Reduce(res.SamplesA, total),
				stats.Reduce(res.SamplesB, total),
			}
			sums[0].BackendName, sums[0].DocumentType = backends[0].Name(), string(dt)
			sums[1].BackendName, sums[1].DocumentType = backends[1].Name(), string(dt)

			out := cmd.OutOrStdout()
			if err := report.Summaries(out, sums); err != nil {
				return withExitCode(2, err)
			}
			fmt.Fprintln(out)
			if err := report.Comparison(out, res.Comparison); err != nil {
				return withExitCode(2, err)
			}
			if outputPath != "" {
				if err := results.WriteJSON(outputPath, compareReport{Summaries: sums, Comparison: res.Comparison}); err != nil {
					return withExitCode(2, err)
				}
			}

			if !res.Comparison.Equivalent {
				a.logger.Warn("divergence detected", "documents", res.Comparison.DivergentDocuments())
				return &exitError{code: 1}
			}
			a.logger.Info("backends equivalent", "verdicts", len(res.Comparison.Verdicts), "skipped", len(res.Comparison.Skipped))
			return nil
		},
	}

	cmd.Flags().StringVar(&nameA, "a", "goquery", "first backend")
	cmd.Flags().StringVar(&nameB, "b", "htmlquery", "second backend")
	cmd.Flags().StringVarP(&docType, "document-type", "t", string(domain.DocumentHTML), "document type: html or xml")
	cmd.Flags().StringVar(&tolerancesFile, "tolerances", "", "YAML tolerance table replacing the defaults")
	cmd.Flags().StringArrayVar(&overrides, "tolerance", nil, "field=value override (repeatable)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write summaries and comparison to this JSON file")
	return cmd
}
