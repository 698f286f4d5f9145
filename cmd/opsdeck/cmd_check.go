package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"opsdeck/cmd/opsdeck/ui"
	"opsdeck/internal/contract"
	"opsdeck/internal/logging"
	"opsdeck/internal/store"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	checkJSON   bool
	checkRecord bool
	checkPlain  bool
)

// checkCmd verifies the entrypoint contract of a server root
var checkCmd = &cobra.Command{
	Use:   "check [server-root]",
	Short: "Verify a server exposes separate api and worker entrypoints",
	Long: `Checks that the server root contains the api and worker entrypoint
files and that its manifest declares non-empty dev:api, dev:worker,
start:api and start:worker scripts. Every assertion is reported on its
own; the command exits non-zero if any fails.

Example:
  opsdeck check ./server
  opsdeck check --json --record`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Print the report as JSON")
	checkCmd.Flags().BoolVar(&checkRecord, "record", false, "Record the run in the history database")
	checkCmd.Flags().BoolVar(&checkPlain, "plain", false, "Print markdown without terminal styling")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(true)
	defer cancel()

	checker, err := contract.NewChecker(cfg.ContractSpec())
	if err != nil {
		return err
	}

	root := serverRoot(args)
	logger.Debug("checking server root", zap.String("root", root))

	report, checkErr := checker.Check(ctx, root)
	if report == nil {
		return checkErr
	}
	logging.Check("check %s: %d of %d assertions failed", root, len(report.Failed()), len(report.Assertions))

	if checkRecord {
		if err := recordReport(ctx, report); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if checkJSON {
		data, err := report.JSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	} else {
		printMarkdown(out, report.Markdown(), checkPlain)
	}

	if checkErr != nil {
		return checkErr
	}
	if !report.Passed() {
		return errContractFailed
	}
	return nil
}

// recordReport stores the report and prunes runs past the retention window.
func recordReport(ctx context.Context, report *contract.Report) error {
	hs, err := store.Open(historyPath())
	if err != nil {
		return err
	}
	defer hs.Close()

	if err := hs.Record(ctx, report); err != nil {
		return err
	}
	if keep := cfg.GetRetention(); keep > 0 {
		pruned, err := hs.Prune(ctx, time.Now().Add(-keep))
		if err != nil {
			return err
		}
		if pruned > 0 {
			logger.Debug("pruned old check runs", zap.Int64("count", pruned))
		}
	}
	return nil
}

// printMarkdown renders md with glamour, falling back to the raw text.
func printMarkdown(out io.Writer, md string, plain bool) {
	if plain {
		fmt.Fprint(out, md)
		return
	}

	style := "light"
	if ui.DetectTheme().IsDark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		logger.Debug("glamour unavailable", zap.Error(err))
		fmt.Fprint(out, md)
		return
	}
	rendered, err := r.Render(md)
	if err != nil {
		fmt.Fprint(out, md)
		return
	}
	fmt.Fprint(out, rendered)
}
