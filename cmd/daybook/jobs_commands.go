package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"daybook/internal/statestore"
)

func newJobsCommand(cmdCtx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect publish job history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if local, _ := cmd.Flags().GetBool("local"); local {
				return runJobsLocal(cmdCtx, cmd)
			}
			return runJobsList(cmdCtx, cmd)
		},
	}

	jobsCmd.PersistentFlags().String("date", "", "Filter by diary date (YYYY-MM-DD)")
	jobsCmd.PersistentFlags().Int("limit", 20, "Maximum number of jobs to list")
	jobsCmd.Flags().Bool("local", false, "List the local run journal instead of asking the server")

	jobsCmd.AddCommand(&cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job with its per-account items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid job id %q", args[0])
			}
			return runJobsShow(cmdCtx, cmd, jobID)
		},
	})

	return jobsCmd
}

func runJobsList(cmdCtx *commandContext, cmd *cobra.Command) error {
	client, err := cmdCtx.ensureClient()
	if err != nil {
		return err
	}
	date, _ := cmd.Flags().GetString("date")
	limit, _ := cmd.Flags().GetInt("limit")

	summaries, err := client.ListJobs(cmd.Context(), date, limit)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(out, "No jobs found")
		return nil
	}

	rows := make([][]string, 0, len(summaries))
	for _, summary := range summaries {
		state := "done"
		if summary.Incomplete() {
			state = "incomplete"
		}
		rows = append(rows, []string{
			strconv.FormatInt(summary.ID, 10),
			summary.Date,
			formatTimestamp(summary.CreatedAt),
			fmt.Sprintf("%d/%d", summary.Done(), summary.Total()),
			strconv.Itoa(summary.Failed),
			state,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Date", "Created", "Done", "Failed", "State"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))
	return nil
}

// runJobsLocal reads the run journal kept in the state store; useful when the
// server's history endpoint is unreachable.
func runJobsLocal(cmdCtx *commandContext, cmd *cobra.Command) error {
	limit, _ := cmd.Flags().GetInt("limit")
	return cmdCtx.withStore(func(store *statestore.Store) error {
		records, err := store.RecentRuns(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("read run journal: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintln(out, "No local run history")
			return nil
		}
		rows := make([][]string, 0, len(records))
		for _, record := range records {
			rows = append(rows, []string{
				strconv.FormatInt(record.JobID, 10),
				record.Date,
				formatTimestamp(record.CreatedAt),
				fmt.Sprintf("%d/%d", record.LastDone, record.LastTotal),
				formatTimestamp(record.UpdatedAt),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"ID", "Date", "Created", "Progress", "Last Seen"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
		))
		return nil
	})
}

func runJobsShow(cmdCtx *commandContext, cmd *cobra.Command, jobID int64) error {
	orch, err := cmdCtx.orchestrator(nil)
	if err != nil {
		return err
	}
	job, err := orch.GetJob(cmd.Context(), jobID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job %d  date=%s  created=%s\n", job.ID, job.Date, formatTimestamp(job.CreatedAt))
	fmt.Fprintln(out, jobProgressLine(job))
	fmt.Fprintln(out, renderJob(job))
	return nil
}
