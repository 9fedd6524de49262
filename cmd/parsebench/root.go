package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	fixturesDir string
	concurrency int
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "parsebench",
		Short:         "Benchmark HTML/XML parser backends and check their equivalence",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.fixturesDir, "fixtures-dir", "", "fixture corpus root (overrides PARSEBENCH_FIXTURES_DIR)")
	cmd.PersistentFlags().IntVarP(&opts.concurrency, "concurrency", "j", 0, "documents parsed at once (overrides PARSEBENCH_CONCURRENCY)")

	cmd.AddCommand(newRunCmd(opts))
	cmd.AddCommand(newCompareCmd(opts))
	cmd.AddCommand(newTolerancesCmd())
	return cmd
}

// exitError carries a process exit code. A nil err exits silently.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}
