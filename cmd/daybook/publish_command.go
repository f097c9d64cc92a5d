package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"daybook/internal/poll"
	"daybook/internal/publish"
	"daybook/internal/statestore"
)

func newPublishCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		dateFlag    string
		targetsFlag string
		fileFlag    string
		directFlag  bool
		noWatchFlag bool
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a diary entry to one or more accounts",
		Long: `Creates a publish job for the given date and targets and starts it on the
server. Without --targets the last-used selection is reused. With --direct the
client drives one request per target itself instead of delegating to the
server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			content, err := readContent(fileFlag)
			if err != nil {
				return err
			}

			return cmdCtx.withStore(func(store *statestore.Store) error {
				orch, err := cmdCtx.orchestrator(store)
				if err != nil {
					return err
				}

				targets, err := resolveTargets(ctx, orch, targetsFlag)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				job, err := orch.CreateJob(ctx, dateFlag, content, targets)
				if err != nil {
					if errors.Is(err, publish.ErrValidation) {
						return err
					}
					return fmt.Errorf("create publish job: %w", err)
				}
				fmt.Fprintf(out, "Created job %d for %s (%d targets)\n", job.ID, job.Date, len(targets))

				if recordErr := store.RecordRun(ctx, statestore.RunRecord{
					JobID:     job.ID,
					Date:      job.Date,
					CreatedAt: job.CreatedAt,
					LastTotal: job.Total(),
				}); recordErr != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: run journal not updated: %v\n", recordErr)
				}

				if directFlag {
					updated := orch.PublishDirect(ctx, job, cfg.Publish.DirectConcurrency)
					fmt.Fprintln(out, renderJob(updated))
					return directOutcome(updated)
				}

				alreadyRunning, err := orch.StartJob(ctx, job.ID, cfg.Publish.Concurrency)
				if err != nil {
					return fmt.Errorf("start publish job %d: %w", job.ID, err)
				}
				if alreadyRunning {
					fmt.Fprintln(out, "Job was already running; attaching")
				}
				if noWatchFlag {
					fmt.Fprintf(out, "Started. Follow with: daybook watch %d\n", job.ID)
					return nil
				}
				return followJob(ctx, cmdCtx, cmd, store, job)
			})
		},
	}

	cmd.Flags().StringVarP(&dateFlag, "date", "d", time.Now().Format("2006-01-02"), "Diary date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&targetsFlag, "targets", "t", "", "Comma-separated account ids (default: last-used selection)")
	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Content file ('-' or omitted reads stdin)")
	cmd.Flags().BoolVar(&directFlag, "direct", false, "Client-driven mode: one request per target")
	cmd.Flags().BoolVar(&noWatchFlag, "no-watch", false, "Start the job and return without polling")
	return cmd
}

func resolveTargets(ctx context.Context, orch *publish.Orchestrator, flag string) ([]int64, error) {
	if flag != "" {
		return parseTargetIDs(flag)
	}
	targets := orch.DefaultSelection(ctx)
	if len(targets) == 0 {
		return nil, fmt.Errorf("no targets: pass --targets (no previous selection is stored)")
	}
	return targets, nil
}

func directOutcome(job *publish.Job) error {
	_, failed := job.Counts()
	if failed > 0 {
		return fmt.Errorf("%d of %d targets failed", failed, job.Total())
	}
	return nil
}

// followJob polls the job until it is terminal, printing progress as items
// complete. Ctrl-C detaches cleanly; the job keeps running server-side.
func followJob(ctx context.Context, cmdCtx *commandContext, cmd *cobra.Command, store *statestore.Store, job *publish.Job) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := cmdCtx.ensureLogger()
	if err != nil {
		return err
	}
	orch, err := cmdCtx.orchestrator(store)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	lastDone := -1
	session := poll.NewSession(orch, job.ID, poll.SessionConfig{
		Interval:    time.Duration(cfg.Poll.JobInterval) * time.Second,
		MaxInterval: time.Duration(cfg.Poll.JobMaxInterval) * time.Second,
	}, logger, func(snapshot *publish.Job) {
		if snapshot.Done() == lastDone {
			return
		}
		lastDone = snapshot.Done()
		fmt.Fprintln(out, jobProgressLine(snapshot))
		if store != nil {
			_ = store.RecordRun(ctx, statestore.RunRecord{
				JobID:     snapshot.ID,
				Date:      snapshot.Date,
				CreatedAt: snapshot.CreatedAt,
				LastDone:  snapshot.Done(),
				LastTotal: snapshot.Total(),
			})
		}
	})
	session.Seed(job)
	session.Start(ctx)

	select {
	case <-ctx.Done():
		session.Cancel()
		<-session.Done()
		fmt.Fprintf(out, "Detached. Job %d keeps running; follow with: daybook watch %d\n", job.ID, job.ID)
		return nil
	case <-session.Done():
	}

	final := session.Job()
	if final == nil {
		return fmt.Errorf("job %d: polling stopped without a snapshot", job.ID)
	}
	fmt.Fprintln(out, renderJob(final))
	return directOutcome(final)
}
