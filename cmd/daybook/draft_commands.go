package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"daybook/internal/autosave"
	"daybook/internal/config"
	"daybook/internal/publish"
)

// autosaveTiming maps the [autosave] config section onto engine timing.
func autosaveTiming(cfg *config.Config) autosave.Timing {
	return autosave.Timing{
		Debounce: time.Duration(cfg.Autosave.Debounce) * time.Second,
		MaxWait:  time.Duration(cfg.Autosave.MaxWait) * time.Second,
	}
}

func newDraftCommand(cmdCtx *commandContext) *cobra.Command {
	draftCmd := &cobra.Command{
		Use:   "draft",
		Short: "Read and write date-scoped drafts",
	}

	draftCmd.AddCommand(newDraftShowCommand(cmdCtx))
	draftCmd.AddCommand(newDraftSaveCommand(cmdCtx))

	return draftCmd
}

func newDraftShowCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <date>",
		Short: "Print the draft for a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := args[0]
			if err := publish.ValidateDate(date); err != nil {
				return err
			}
			client, err := cmdCtx.ensureClient()
			if err != nil {
				return err
			}
			draft, err := client.FetchDraft(cmd.Context(), date)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if draft.Content == "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "No draft for %s\n", date)
				return nil
			}
			if !draft.UpdatedAt.IsZero() {
				fmt.Fprintf(cmd.ErrOrStderr(), "Last saved %s\n", formatTimestamp(draft.UpdatedAt))
			}
			fmt.Fprint(out, draft.Content)
			return nil
		},
	}
}

func newDraftSaveCommand(cmdCtx *commandContext) *cobra.Command {
	var fileFlag string

	cmd := &cobra.Command{
		Use:   "save <date>",
		Short: "Replace the draft for a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := args[0]
			if err := publish.ValidateDate(date); err != nil {
				return err
			}
			content, err := readContent(fileFlag)
			if err != nil {
				return err
			}
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

			engine := autosave.NewEngine(client, autosaveTiming(cfg), logger, nil)
			defer engine.Stop()
			if _, err := engine.Load(cmd.Context(), date); err != nil {
				return err
			}
			engine.SetText(content)
			if err := engine.Save(cmd.Context()); err != nil {
				return fmt.Errorf("save draft %s: %w", date, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved draft for %s at %s\n", date, time.Now().Local().Format("15:04:05"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Content file ('-' or omitted reads stdin)")
	return cmd
}
