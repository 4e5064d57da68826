package main

import (
	"context"
	"fmt"

	"github.com/quailyquaily/tgrelay/internal/relay"
	"github.com/spf13/cobra"
)

// stderrProgress prints wait ticks to stderr, keeping stdout for results.
func stderrProgress(cmd *cobra.Command) relay.ProgressFunc {
	return func(_ context.Context, message string, _, _ float64) error {
		_, err := fmt.Fprintln(cmd.ErrOrStderr(), message)
		return err
	}
}
