package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mohamed-services/AgentLang/cmd/council/internal"
	"github.com/mohamed-services/AgentLang/internal/config"
	"github.com/mohamed-services/AgentLang/internal/docket"
	"github.com/mohamed-services/AgentLang/internal/types"
)

// GlobalFlags holds global flags available to all commands
type GlobalFlags struct {
	Verbose      bool
	Quiet        bool
	OutputFormat string
	ConfigFile   string
}

var globalFlags = &GlobalFlags{}

// RegisterGlobalFlags registers persistent flags on the root command
func RegisterGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&globalFlags.Quiet, "quiet", "q", false, "Only log errors")
	cmd.PersistentFlags().StringVarP(&globalFlags.OutputFormat, "output", "o", "text", "Output format (text|json)")
	cmd.PersistentFlags().StringVar(&globalFlags.ConfigFile, "config", config.DefaultConfigPath, "Path to config file")
}

// ParseGlobalFlags validates the global flags.
func ParseGlobalFlags(flags *GlobalFlags) (*GlobalFlags, error) {
	format := internal.OutputFormat(flags.OutputFormat)
	if format != internal.FormatText && format != internal.FormatJSON {
		return nil, internal.NewCLIError(internal.ExitConfigError,
			"invalid --output "+flags.OutputFormat+" (must be text or json)")
	}

	if flags.Verbose && flags.Quiet {
		return nil, internal.NewCLIError(internal.ExitConfigError, "--verbose and --quiet cannot be used together")
	}

	return flags, nil
}

// Format returns the selected output format.
func (f *GlobalFlags) Format() internal.OutputFormat {
	return internal.OutputFormat(f.OutputFormat)
}

// LogLevel returns the level implied by --verbose and --quiet, or fallback.
func (f *GlobalFlags) LogLevel(fallback string) string {
	switch {
	case f.Verbose:
		return "debug"
	case f.Quiet:
		return "error"
	default:
		return fallback
	}
}

// runFlagKeys maps the pull request metadata flags shared by run commands to their
// viper keys.
var runFlagKeys = map[string]string{
	"pr":    config.KeyNumber,
	"title": config.KeyTitle,
	"body":  config.KeyDescription,
	"base":  config.KeyBase,
	"head":  config.KeyHead,
	"repo":  config.KeyRepository,
}

func registerRunFlags(cmd *cobra.Command) {
	cmd.Flags().Int("pr", 0, "Pull request number (env PR_NUMBER)")
	cmd.Flags().String("title", "", "Pull request title (env PR_TITLE)")
	cmd.Flags().String("body", "", "Pull request description (env PR_BODY)")
	cmd.Flags().String("base", "", "Base commit (env BASE_SHA)")
	cmd.Flags().String("head", "", "Head commit (env HEAD_SHA)")
	cmd.Flags().String("repo", "", "Repository as owner/name (env REPO_FULL_NAME)")
}

// runViper binds the run flags of cmd over the workflow environment. Flags that were
// set win over the environment.
func runViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	if err := config.BindRunEnv(v); err != nil {
		return nil, err
	}
	for name, key := range runFlagKeys {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, internal.WrapError(internal.ExitConfigError, "failed to bind --"+name, err)
			}
		}
	}
	return v, nil
}

// readRunMeta reads the pull request metadata for cmd. The number is only required
// when something will be published. When the change is read from the local checkout
// and no head was given, the checked-out commit is used.
func (e *environment) readRunMeta(cmd *cobra.Command, publishing, local bool) (docket.Meta, error) {
	v, err := runViper(cmd)
	if err != nil {
		return docket.Meta{}, err
	}

	if local && v.GetString(config.KeyHead) == "" {
		head, err := e.gitOps.HeadCommit(cmd.Context(), e.cfg.Validation.Dir)
		if err != nil {
			return docket.Meta{}, types.WrapError(types.VALIDATION_GIT_FAILED, "failed to resolve the checked-out commit", err)
		}
		v.Set(config.KeyHead, head)
	}

	if publishing {
		return config.RunMeta(v)
	}
	return config.RunRange(v)
}
