package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mohamed-services/AgentLang/cmd/council/internal"
	"github.com/mohamed-services/AgentLang/internal/docket"
	"github.com/mohamed-services/AgentLang/internal/presenter"
)

var flagReadmeCmd = &cobra.Command{
	Use:   "flag-readme",
	Short: "Flag changes to files that are rejected without a vote",
	Long: `Report whether the change set touches a file that is always rejected (README.md
by default). When it does, the notice is published and the command exits 1.`,
	RunE: runFlagReadme,
}

func init() {
	registerRunFlags(flagReadmeCmd)
	flagReadmeCmd.Flags().String("source", sourceGitHub, "Where to read the change from (github|local)")
	flagReadmeCmd.Flags().Bool("dry-run", false, "Print the notice instead of publishing it")
}

func runFlagReadme(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	source, _ := cmd.Flags().GetString("source")

	meta, err := app.readRunMeta(cmd, !dryRun, source == sourceLocal)
	if err != nil {
		return err
	}

	path, touched, memory, err := app.flagReadme(cmd.Context(), meta, source, dryRun)
	if err != nil {
		return err
	}

	if !touched {
		return app.out.Pass("No always-rejected files changed")
	}

	if err := app.out.Fail(path + " is modified; the change will be rejected"); err != nil {
		return err
	}
	if memory != nil {
		if err := app.printNotices(cmd.Context(), memory, meta.Number); err != nil {
			return err
		}
	}
	return internal.NewCLIError(internal.ExitError, "changes to "+path+" are automatically rejected")
}

// flagReadme checks the change set for an always-rejected path and publishes the
// notice when one is found.
func (e *environment) flagReadme(ctx context.Context, meta docket.Meta, sourceKind string, dryRun bool) (string, bool, *presenter.MemoryStore, error) {
	source, err := e.changeSource(meta, sourceKind)
	if err != nil {
		return "", false, nil, err
	}

	paths, err := source.ChangedPaths(ctx, meta.BaseSHA, meta.HeadSHA)
	if err != nil {
		return "", false, nil, err
	}

	path, touched := e.selector().Touches(paths)
	if !touched {
		return "", false, nil, nil
	}

	store, memory, err := e.noticeStore(meta, dryRun)
	if err != nil {
		return "", false, nil, err
	}
	if err := e.presenter(store).PublishReadmeNotice(ctx, meta.Number, path); err != nil {
		return "", false, nil, err
	}
	return path, true, memory, nil
}
