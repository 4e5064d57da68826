package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/quailyquaily/tgrelay/internal/bridge"
	"github.com/quailyquaily/tgrelay/internal/clifmt"
	"github.com/quailyquaily/tgrelay/internal/relay"
	"github.com/spf13/cobra"
)

func newRepliesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replies [message-id]",
		Short: "Check for replies to sent messages",
		Long: "Without an id, prints and clears every pending reply. With an id,\n" +
			"prints the reply to that message and marks it read.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int64
			if len(args) == 1 {
				v, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
				if err != nil || v <= 0 {
					return fmt.Errorf("invalid message id %q", args[0])
				}
				id = v
			}

			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if sent, _ := cmd.Flags().GetBool("sent"); sent {
				list, err := rt.service.Ledger().List(ctx)
				if err != nil {
					return err
				}
				printSentTable(cmd, list)
				return nil
			}

			if id > 0 {
				reply, ok, err := rt.service.CheckReply(ctx, id)
				if err != nil {
					return fmt.Errorf("%s", bridge.DescribeError(err))
				}
				if !ok {
					_, _ = fmt.Fprintln(out, bridge.FormatNoReply(id))
					return nil
				}
				_, _ = fmt.Fprintln(out, bridge.FormatReply(id, reply))
				return nil
			}

			var replies []relay.InboundReply
			if peek, _ := cmd.Flags().GetBool("peek"); peek {
				replies, err = rt.service.PeekReplies(ctx)
			} else {
				replies, err = rt.service.CheckAllReplies(ctx)
			}
			if len(replies) > 0 || err == nil {
				_, _ = fmt.Fprintln(out, bridge.FormatPendingReplies(replies))
			}
			if err != nil {
				return fmt.Errorf("%s", bridge.DescribeError(err))
			}
			return nil
		},
	}

	cmd.Flags().Bool("peek", false, "List pending replies without clearing them.")
	cmd.Flags().Bool("sent", false, "List sent messages and their reply status instead.")

	return cmd
}

func printSentTable(cmd *cobra.Command, list []relay.OutboundMessage) {
	rows := make([]clifmt.SentRow, 0, len(list))
	for _, m := range list {
		rows = append(rows, clifmt.SentRow{
			ID:     m.ID,
			Status: string(m.Status),
			SentAt: m.SentAt,
			Body:   truncateString(strings.Join(strings.Fields(m.Body), " "), 160),
		})
	}
	clifmt.PrintSentTable(cmd.OutOrStdout(), rows)
}
