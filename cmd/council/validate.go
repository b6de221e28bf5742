package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohamed-services/AgentLang/cmd/council/internal"
	"github.com/mohamed-services/AgentLang/internal/docket"
	"github.com/mohamed-services/AgentLang/internal/presenter"
	"github.com/mohamed-services/AgentLang/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check changed AgentLang sources",
	Long: `Check every source file added or modified between base and head. Line 1 of
each file must declare the language version in printable ASCII.

On failure the validation notice is published and the command exits 1. Judges are
never invoked.`,
	RunE: runValidate,
}

func init() {
	registerRunFlags(validateCmd)
	validateCmd.Flags().Bool("dry-run", false, "Print the notice instead of publishing it")
}

func runValidate(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	meta, err := app.readRunMeta(cmd, !dryRun, true)
	if err != nil {
		return err
	}

	results, memory, err := app.validateSources(cmd.Context(), meta, dryRun)
	if err != nil {
		return err
	}

	if err := app.reportValidation(results); err != nil {
		return err
	}
	if memory != nil {
		if err := app.printNotices(cmd.Context(), memory, meta.Number); err != nil {
			return err
		}
	}

	if failed := validate.Failures(results); len(failed) > 0 {
		return internal.NewCLIError(internal.ExitError, fmt.Sprintf("%d source file(s) failed validation", len(failed)))
	}
	return nil
}

// validateSources validates the changed sources and publishes the failure notice
// when any file fails.
func (e *environment) validateSources(ctx context.Context, meta docket.Meta, dryRun bool) ([]validate.Result, *presenter.MemoryStore, error) {
	results, err := e.validator().ValidateChanged(ctx, meta.BaseSHA, meta.HeadSHA)
	if err != nil {
		return nil, nil, err
	}

	failed := validate.Failures(results)
	if len(failed) == 0 {
		return results, nil, nil
	}

	store, memory, err := e.noticeStore(meta, dryRun)
	if err != nil {
		return nil, nil, err
	}
	if err := e.presenter(store).PublishValidationFailure(ctx, meta.Number, failed); err != nil {
		return nil, nil, err
	}
	return results, memory, nil
}

func (e *environment) reportValidation(results []validate.Result) error {
	if e.format == internal.FormatJSON {
		return e.out.JSON(map[string]interface{}{
			"results": results,
			"passed":  len(validate.Failures(results)) == 0,
		})
	}

	if len(results) == 0 {
		return e.out.Pass("No source files changed")
	}
	for _, r := range results {
		if r.Passed {
			if err := e.out.Pass(r.Path); err != nil {
				return err
			}
			continue
		}
		if err := e.out.Fail(r.Path + ": " + r.Error); err != nil {
			return err
		}
	}
	return nil
}
