package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"daybook/internal/poll"
	"daybook/internal/statestore"
)

func newWatchCommand(cmdCtx *commandContext) *cobra.Command {
	var dateFlag string

	cmd := &cobra.Command{
		Use:   "watch [job-id]",
		Short: "Re-attach to a running publish job",
		Long: `With a job id, polls that job until it finishes. Without one, scans recent
jobs for an incomplete run worth resuming: a fresh run is polled, a stalled
one is reported as interrupted without polling it forever.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			return cmdCtx.withStore(func(store *statestore.Store) error {
				orch, err := cmdCtx.orchestrator(store)
				if err != nil {
					return err
				}

				if len(args) == 1 {
					jobID, err := strconv.ParseInt(args[0], 10, 64)
					if err != nil {
						return fmt.Errorf("invalid job id %q", args[0])
					}
					job, err := orch.GetJob(ctx, jobID)
					if err != nil {
						return err
					}
					if job.Terminal() {
						fmt.Fprintln(out, renderJob(job))
						return directOutcome(job)
					}
					return followJob(ctx, cmdCtx, cmd, store, job)
				}

				client, err := cmdCtx.ensureClient()
				if err != nil {
					return err
				}
				job, decision, err := poll.FindResumable(ctx, client, orch, dateFlag, poll.ResumeConfig{
					Window: time.Duration(cfg.Poll.ResumeWindowHours) * time.Hour,
					Grace:  time.Duration(cfg.Poll.ResumeGrace) * time.Second,
				}, time.Now())
				if err != nil {
					return err
				}
				switch decision {
				case poll.DecisionResume:
					fmt.Fprintf(out, "Resuming job %d (%s)\n", job.ID, job.Date)
					return followJob(ctx, cmdCtx, cmd, store, job)
				case poll.DecisionInterrupted:
					fmt.Fprintf(out, "Job %d (%s) looks interrupted: %s\n", job.ID, job.Date, jobProgressLine(job))
					fmt.Fprintf(out, "Inspect it with: daybook jobs show %d\n", job.ID)
					return nil
				default:
					fmt.Fprintln(out, "Nothing to resume")
					return nil
				}
			})
		},
	}

	cmd.Flags().StringVarP(&dateFlag, "date", "d", "", "Restrict the resume scan to one diary date")
	return cmd
}
