package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/parsebench/parsebench-go/internal/config"
)

func newTolerancesCmd() *cobra.Command {
	var (
		tolerancesFile string
		overrides      []string
	)

	cmd := &cobra.Command{
		Use:   "tolerances",
		Short: "Print the effective tolerance table as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return err
			}
			tol, err := resolveTolerances(cfg, tolerancesFile, overrides)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			return enc.Encode(tol)
		},
	}

	cmd.Flags().StringVar(&tolerancesFile, "tolerances", "", "YAML tolerance table replacing the defaults")
	cmd.Flags().StringArrayVar(&overrides, "tolerance", nil, "field=value override (repeatable)")
	return cmd
}
