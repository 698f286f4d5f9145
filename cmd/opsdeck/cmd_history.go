package main

import (
	"context"
	"fmt"

	"opsdeck/cmd/opsdeck/ui"
	"opsdeck/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	purgeYes     bool
	showPlain    bool
)

// historyCmd lists recorded check runs
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded entrypoint contract checks",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show the full report of a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every recorded run (asks for confirmation)",
	Args:  cobra.NoArgs,
	RunE:  runHistoryPurge,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to list")
	historyShowCmd.Flags().BoolVar(&showPlain, "plain", false, "Print markdown without terminal styling")
	historyPurgeCmd.Flags().BoolVarP(&purgeYes, "yes", "y", false, "Skip the confirmation dialog")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyPurgeCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(true)
	defer cancel()

	hs, err := store.Open(historyPath())
	if err != nil {
		return err
	}
	defer hs.Close()

	runs, err := hs.Recent(ctx, historyLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no recorded runs")
		return nil
	}

	tbl := ui.NewSimpleTable("Recorded runs", "ID", "CHECKED", "RESULT", "ROOT")
	for _, r := range runs {
		result := "pass"
		if !r.Passed {
			result = fmt.Sprintf("fail (%d/%d)", r.Failed, r.Total)
		}
		tbl.AddRow(r.ID, r.CheckedAt.Format("2006-01-02 15:04:05"), result, r.Root)
	}
	fmt.Fprint(out, tbl.View(ui.DefaultStyles()))
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(true)
	defer cancel()

	hs, err := store.Open(historyPath())
	if err != nil {
		return err
	}
	defer hs.Close()

	report, err := hs.Get(ctx, args[0])
	if err != nil {
		return err
	}
	printMarkdown(cmd.OutOrStdout(), report.Markdown(), showPlain)
	return nil
}

func runHistoryPurge(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(false)
	defer cancel()

	hs, err := store.Open(historyPath())
	if err != nil {
		return err
	}
	defer hs.Close()

	out := cmd.OutOrStdout()
	if purgeYes {
		n, err := hs.Purge(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted %d recorded runs\n", n)
		return nil
	}

	count, err := hs.Count(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		fmt.Fprintln(out, "no recorded runs")
		return nil
	}

	model := newPurgeModel(count, ui.DefaultStyles(), func() (int64, error) {
		return hs.Purge(context.WithoutCancel(ctx))
	})
	final, err := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(cmd.ErrOrStderr())).Run()
	if err != nil {
		return err
	}

	result := final.(purgeModel)
	switch {
	case result.err != nil:
		return result.err
	case result.cancelled:
		return errCancelled
	}
	fmt.Fprintf(out, "deleted %d recorded runs\n", result.deleted)
	return nil
}
