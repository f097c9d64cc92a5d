package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"daybook/internal/logging"
	"daybook/internal/notify"
	"daybook/internal/poll"
)

func newSyncCommand(cmdCtx *commandContext) *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Follow per-account diary sync status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSyncStatus(cmdCtx, cmd)
		},
	}

	syncCmd.PersistentFlags().Int("limit", 50, "Maximum status records to fetch")

	syncCmd.AddCommand(&cobra.Command{
		Use:   "trigger <account-id>",
		Short: "Schedule an ad hoc sync for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid account id %q", args[0])
			}
			client, err := cmdCtx.ensureClient()
			if err != nil {
				return err
			}
			if err := client.TriggerSync(cmd.Context(), accountID); err != nil {
				return fmt.Errorf("trigger sync for account %d: %w", accountID, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sync scheduled for account %d\n", accountID)
			return nil
		},
	})

	syncCmd.AddCommand(newSyncWatchCommand(cmdCtx))

	return syncCmd
}

func runSyncStatus(cmdCtx *commandContext, cmd *cobra.Command) error {
	client, err := cmdCtx.ensureClient()
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")

	records, err := client.LatestStatuses(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("fetch sync status: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No sync history")
		return nil
	}

	rows := make([][]string, 0, len(records))
	for _, record := range records {
		detail := record.ErrorMessage
		if detail == "" && (record.DiariesCount > 0 || record.PairedDiariesCount > 0) {
			detail = fmt.Sprintf("%d diaries, %d paired", record.DiariesCount, record.PairedDiariesCount)
		}
		rows = append(rows, []string{
			strconv.FormatInt(record.AccountID, 10),
			string(record.Status),
			formatTimestamp(record.StartedAt),
			detail,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Account", "Status", "Started", "Detail"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	))
	return nil
}

func newSyncWatchCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll sync status and report transitions until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := cmdCtx.ensureClient()
			if err != nil {
				return err
			}
			logger, err := cmdCtx.ensureLogger()
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")

			notifier := notify.NewNotifier(cfg)
			out := cmd.OutOrStdout()

			watcher := poll.NewWatcher(client, nil, poll.WatcherConfig{
				ActiveInterval: time.Duration(cfg.Poll.StatusActive) * time.Second,
				IdleInterval:   time.Duration(cfg.Poll.StatusIdle) * time.Second,
				MaxInterval:    time.Duration(cfg.Poll.StatusMaxInterval) * time.Second,
				Limit:          limit,
			}, logger, func(notice notify.Notice) {
				fmt.Fprintf(out, "%s  %s\n", time.Now().Local().Format("15:04:05"), notice.Message)
				if err := notifier.Notify(ctx, notice); err != nil {
					logger.Warn("push notification failed", logging.Error(err))
				}
			}, nil)

			fmt.Fprintln(out, "Watching sync status (Ctrl-C to stop)")
			watcher.Start(ctx)
			<-ctx.Done()
			watcher.Cancel()
			<-watcher.Done()
			return nil
		},
	}
}
