package main

import (
	"fmt"
	"sync"

	"opsdeck/cmd/opsdeck/ui"
	"opsdeck/internal/contract"
	"opsdeck/internal/watch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchRecord bool

// watchCmd re-runs the contract check whenever entrypoints or manifest change
var watchCmd = &cobra.Command{
	Use:   "watch [server-root]",
	Short: "Re-check the entrypoint contract on every change",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchRecord, "record", false, "Record every run in the history database")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(false)
	defer cancel()

	checker, err := contract.NewChecker(cfg.ContractSpec())
	if err != nil {
		return err
	}

	root := serverRoot(args)
	out := cmd.OutOrStdout()
	styles := ui.DefaultStyles()

	var mu sync.Mutex
	onReport := func(r *contract.Report, err error) {
		mu.Lock()
		defer mu.Unlock()

		if r == nil {
			fmt.Fprintln(out, styles.Error.Render("check failed: "+err.Error()))
			return
		}
		if watchRecord {
			if recErr := recordReport(ctx, r); recErr != nil {
				logger.Warn("failed to record run", zap.Error(recErr))
			}
		}
		fmt.Fprintln(out, summaryLine(r, styles))
		if err != nil {
			fmt.Fprintln(out, styles.Warning.Render("  "+err.Error()))
		}
		for _, a := range r.Failed() {
			fmt.Fprintln(out, styles.Muted.Render("  - "+a.Name+": "+a.Message))
		}
	}

	w, err := watch.New(root, checker, cfg.GetDebounce(), onReport)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, styles.Muted.Render("watching "+root+" (ctrl+c to stop)"))

	<-ctx.Done()
	w.Stop()
	return nil
}

func summaryLine(r *contract.Report, styles ui.Styles) string {
	stamp := r.CheckedAt.Format("15:04:05")
	failed := len(r.Failed())
	if failed == 0 {
		return styles.Success.Render(fmt.Sprintf("%s PASS %d/%d", stamp, len(r.Assertions), len(r.Assertions)))
	}
	return styles.Error.Render(fmt.Sprintf("%s FAIL %d/%d", stamp, len(r.Assertions)-failed, len(r.Assertions)))
}
