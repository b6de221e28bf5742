package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mohamed-services/AgentLang/cmd/council/internal"
	"github.com/mohamed-services/AgentLang/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "council",
	Short: "AgentLang council - LLM judges vote on pull requests",
	Long: `council asks a panel of language-model judges to review a pull request.
Each judge votes APPROVE, REJECT or ABSTAIN; the change is approved when the share of
approvals strictly exceeds the policy threshold. Changes under protected paths need a
super-majority, and some files are rejected without a vote.

Pull request metadata is read from flags or the workflow environment
(PR_NUMBER, PR_TITLE, PR_BODY, BASE_SHA, HEAD_SHA, REPO_FULL_NAME).`,
	PersistentPreRunE: loadEnvironment,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// app is set by loadEnvironment before any command that needs configuration runs.
var app *environment

// Execute runs the root command with signal handling
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	defer func() {
		if app != nil {
			app.close()
		}
	}()

	return rootCmd.ExecuteContext(ctx)
}

// loadEnvironment loads configuration and builds the environment before any
// command runs.
func loadEnvironment(cmd *cobra.Command, args []string) error {
	flags, err := ParseGlobalFlags(globalFlags)
	if err != nil {
		return err
	}

	if cmd.Name() == "version" || cmd.Name() == "help" {
		return nil
	}

	loader := config.NewConfigLoader(config.NewValidator())
	cfg, err := loader.LoadWithDefaults(flags.ConfigFile)
	if err != nil {
		return internal.WrapError(internal.ExitConfigError, "failed to load configuration", err)
	}

	app, err = newEnvironment(cfg, flags, cmd.OutOrStdout())
	return err
}

func init() {
	RegisterGlobalFlags(rootCmd)

	rootCmd.AddCommand(voteCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(flagReadmeCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
