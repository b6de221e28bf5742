package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mohamed-services/AgentLang/cmd/council/internal"
	"github.com/mohamed-services/AgentLang/internal/config"
	"github.com/mohamed-services/AgentLang/internal/docket"
	"github.com/mohamed-services/AgentLang/internal/git"
	"github.com/mohamed-services/AgentLang/internal/github"
	"github.com/mohamed-services/AgentLang/internal/observability"
	"github.com/mohamed-services/AgentLang/internal/orchestrator"
	"github.com/mohamed-services/AgentLang/internal/policy"
	"github.com/mohamed-services/AgentLang/internal/presenter"
	"github.com/mohamed-services/AgentLang/internal/types"
	"github.com/mohamed-services/AgentLang/internal/validate"
)

// Change sources accepted by --source.
const (
	sourceGitHub = "github"
	sourceLocal  = "local"
)

const shutdownTimeout = 5 * time.Second

// reviewClient is the review system as both change source and notice store.
type reviewClient interface {
	orchestrator.ChangeSource
	presenter.NoticeStore
}

// environment is everything a command needs once configuration is loaded.
type environment struct {
	cfg    *config.Config
	logger *slog.Logger
	format internal.OutputFormat
	out    internal.Formatter
	stdout io.Writer
	creds  config.CredentialSource
	gitOps git.GitOperations

	newReview func(repository string, opts github.Options) (reviewClient, error)
	client    reviewClient
	closeLog  func() error
}

func newEnvironment(cfg *config.Config, flags *GlobalFlags, stdout io.Writer) (*environment, error) {
	logCfg := cfg.Logging
	logCfg.Level = flags.LogLevel(logCfg.Level)

	w, closeLog, err := observability.OpenOutput(logCfg.Output)
	if err != nil {
		return nil, internal.WrapError(internal.ExitConfigError, "failed to open log output", err)
	}
	logger := observability.NewLogger(logCfg, w)
	slog.SetDefault(logger)

	return &environment{
		cfg:       cfg,
		logger:    logger,
		format:    flags.Format(),
		out:       internal.NewFormatter(flags.Format(), stdout),
		stdout:    stdout,
		creds:     config.EnvCredentials{},
		gitOps:    git.NewDefaultGitOperations(),
		newReview: newGitHubClient,
		closeLog:  closeLog,
	}, nil
}

func (e *environment) close() {
	if e.closeLog != nil {
		_ = e.closeLog()
	}
}

func newGitHubClient(repository string, opts github.Options) (reviewClient, error) {
	client, err := github.New(repository, opts)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// review returns the review-system client for meta's repository, creating it once.
func (e *environment) review(meta docket.Meta) (reviewClient, error) {
	if e.client != nil {
		return e.client, nil
	}
	if meta.Repository == "" {
		return nil, types.NewError(types.RUN_INVALID_REQUEST, "missing pull request metadata: --repo (REPO_FULL_NAME)")
	}

	token, err := config.RequireCredential(e.creds, e.cfg.GitHub.TokenKey)
	if err != nil {
		return nil, err
	}

	client, err := e.newReview(meta.Repository, github.Options{
		APIURL:           e.cfg.GitHub.APIURL,
		Token:            token,
		Timeout:          e.cfg.GitHub.Timeout,
		MutationInterval: e.cfg.GitHub.MutationInterval,
		Logger:           e.logger,
	})
	if err != nil {
		return nil, err
	}
	e.client = client
	return client, nil
}

func (e *environment) changeSource(meta docket.Meta, kind string) (orchestrator.ChangeSource, error) {
	switch kind {
	case sourceLocal:
		return git.NewLocalSource(e.gitOps, e.cfg.Validation.Dir), nil
	case sourceGitHub:
		return e.review(meta)
	default:
		return nil, internal.NewCLIError(internal.ExitConfigError,
			fmt.Sprintf("invalid --source %q (must be %s or %s)", kind, sourceGitHub, sourceLocal))
	}
}

// noticeStore returns where notices go: the review system, or memory on a dry run.
func (e *environment) noticeStore(meta docket.Meta, dryRun bool) (presenter.NoticeStore, *presenter.MemoryStore, error) {
	if dryRun {
		memory := presenter.NewMemoryStore()
		return memory, memory, nil
	}
	client, err := e.review(meta)
	if err != nil {
		return nil, nil, err
	}
	return client, nil, nil
}

func (e *environment) presenter(store presenter.NoticeStore) *presenter.Presenter {
	return presenter.New(store, e.cfg.Markers, e.cfg.Labels, e.logger)
}

func (e *environment) selector() *policy.Selector {
	return &policy.Selector{
		SimpleMajority:    e.cfg.Council.SimpleMajority,
		SuperMajority:     e.cfg.Council.SuperMajority,
		ProtectedPrefixes: e.cfg.Council.ProtectedPrefixes,
		AlwaysReject:      e.cfg.Council.AlwaysReject,
	}
}

func (e *environment) validator() *validate.Validator {
	v := validate.NewValidator(e.gitOps, e.cfg.Validation.Dir, e.cfg.Validation.Extensions)
	v.Logger = e.logger
	return v
}

// printNotices writes what a dry run would have published.
func (e *environment) printNotices(ctx context.Context, memory *presenter.MemoryStore, number int) error {
	comments, err := memory.ListComments(ctx, number)
	if err != nil {
		return err
	}

	if e.format == internal.FormatJSON {
		bodies := make([]string, 0, len(comments))
		for _, c := range comments {
			bodies = append(bodies, c.Body)
		}
		return e.out.JSON(map[string]interface{}{
			"notices": bodies,
			"labels":  memory.Labels(number),
		})
	}

	for i, c := range comments {
		if _, err := fmt.Fprintf(e.stdout, "\n--- notice %d of %d ---\n%s\n", i+1, len(comments), c.Body); err != nil {
			return err
		}
	}
	for _, label := range memory.Labels(number) {
		if _, err := fmt.Fprintf(e.stdout, "\n--- label: %s ---\n", label); err != nil {
			return err
		}
	}
	return nil
}

// shutdown runs fn with a short deadline that survives cancellation of ctx.
func (e *environment) shutdown(ctx context.Context, what string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		e.logger.Warn("shutdown failed", "component", what, "error", err)
	}
}
