package main

import (
	"fmt"

	"github.com/quailyquaily/tgrelay/internal/bridge"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether Telegram credentials are configured",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			probe, _ := cmd.Flags().GetBool("probe")
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), bridge.FormatStatus(rt.service.Status(cmd.Context(), probe)))
			return nil
		},
	}

	cmd.Flags().Bool("probe", false, "Also call getMe to check the token.")

	return cmd
}
