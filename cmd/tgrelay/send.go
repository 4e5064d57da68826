package main

import (
	"fmt"
	"strings"

	"github.com/quailyquaily/tgrelay/internal/bridge"
	"github.com/spf13/cobra"
)

func newSendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send [message...]",
		Short: "Send a message, optionally waiting for a reply",
		Long: "Send a message to the configured chat.\n\n" +
			"With --header the message is sent as a notification: a bold header\n" +
			"followed by the positional text as body. Otherwise the text is sent\n" +
			"as is and --wait blocks until a reply arrives or --timeout passes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			header := strings.TrimSpace(flagOrViperString(cmd, "header", ""))
			text := strings.Join(args, " ")
			if header == "" && strings.TrimSpace(text) == "" {
				return fmt.Errorf("missing message (pass it as arguments or use --header)")
			}

			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()
			out := cmd.OutOrStdout()

			if header != "" {
				id, err := rt.service.Notify(cmd.Context(), header, text)
				if err != nil {
					return fmt.Errorf("%s", bridge.FormatNotifyFailed(err))
				}
				_, _ = fmt.Fprintln(out, bridge.FormatNotifySent(id))
				return nil
			}

			wait, _ := cmd.Flags().GetBool("wait")
			timeout := flagOrViperDuration(cmd, "timeout", "reply.timeout")
			interval := flagOrViperDuration(cmd, "poll-interval", "reply.poll_interval")
			res, err := rt.service.SendAndWait(cmd.Context(), bridge.SendAndWaitRequest{
				Message:      text,
				WaitForReply: wait,
				Timeout:      timeout,
				PollInterval: interval,
				OnProgress:   stderrProgress(cmd),
			})
			if err != nil {
				if res.MessageID == 0 {
					return fmt.Errorf("%s", bridge.FormatSendFailed(err))
				}
				return err
			}
			_, _ = fmt.Fprintln(out, bridge.FormatSendAndWait(res, timeout))
			return nil
		},
	}

	cmd.Flags().String("header", "", "Send as a notification with this bold header.")
	cmd.Flags().Bool("wait", false, "Wait for a reply after sending.")
	cmd.Flags().Duration("timeout", bridge.DefaultReplyTimeout, "Maximum time to wait for a reply.")
	cmd.Flags().Duration("poll-interval", bridge.DefaultPollInterval, "Time between reply polls.")

	return cmd
}
