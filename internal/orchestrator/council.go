// Package orchestrator runs one council vote: it gathers the change, selects the
// policy, fans the case out to every judge concurrently, tallies the verdicts and
// publishes the result.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/mohamed-services/AgentLang/internal/docket"
	"github.com/mohamed-services/AgentLang/internal/judge"
	"github.com/mohamed-services/AgentLang/internal/llm"
	"github.com/mohamed-services/AgentLang/internal/llm/providers"
	"github.com/mohamed-services/AgentLang/internal/observability"
	"github.com/mohamed-services/AgentLang/internal/policy"
	"github.com/mohamed-services/AgentLang/internal/presenter"
	"github.com/mohamed-services/AgentLang/internal/tally"
	"github.com/mohamed-services/AgentLang/internal/types"
	"github.com/mohamed-services/AgentLang/internal/validate"
)

// ChangeSource supplies the change under review.
type ChangeSource interface {
	ChangedPaths(ctx context.Context, base, head string) ([]string, error)
	Diff(ctx context.Context, base, head string) (string, error)
}

// SourceValidator checks the changed source files and reports per-file results.
type SourceValidator interface {
	ValidateChanged(ctx context.Context, base, head string) ([]validate.Result, error)
}

// Credentials resolves a credential by name.
type Credentials interface {
	Lookup(name string) (string, bool)
}

// CredentialsFunc adapts a lookup function to Credentials.
type CredentialsFunc func(name string) (string, bool)

// Lookup calls f.
func (f CredentialsFunc) Lookup(name string) (string, bool) {
	return f(name)
}

// EnvCredentials reads credentials from the process environment.
var EnvCredentials Credentials = CredentialsFunc(os.LookupEnv)

// ProviderFactory builds a provider from a back-end configuration.
type ProviderFactory func(cfg llm.ProviderConfig) (llm.Provider, error)

// Outcome is the result of one run.
type Outcome struct {
	RunID    types.RunID
	State    State
	Trail    []State
	Decision policy.Decision
	Case     *docket.Case
	Verdicts []judge.Verdict
	Result   tally.Result
	Status   tally.Outcome
	Approved bool

	// Invocations counts provider calls, retries included.
	Invocations int
	Duration    time.Duration
}

// Council runs votes for a fixed roster of judges.
type Council struct {
	judges      []judge.Identity
	source      ChangeSource
	presenter   *presenter.Presenter
	validator   SourceValidator
	selector    *policy.Selector
	builder     *docket.Builder
	providers   ProviderFactory
	credentials Credentials
	judgeOpts   []judge.Option

	maxConcurrent int
	timeout       time.Duration

	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *observability.CouncilMetrics
}

// Option is a functional option for configuring a Council.
type Option func(*Council)

// WithValidator sets the source validator whose status is included in the case.
func WithValidator(v SourceValidator) Option {
	return func(c *Council) {
		c.validator = v
	}
}

// WithSelector replaces the default policy selector.
func WithSelector(s *policy.Selector) Option {
	return func(c *Council) {
		if s != nil {
			c.selector = s
		}
	}
}

// WithBuilder replaces the default case builder.
func WithBuilder(b *docket.Builder) Option {
	return func(c *Council) {
		if b != nil {
			c.builder = b
		}
	}
}

// WithProviderFactory replaces the provider registry.
func WithProviderFactory(f ProviderFactory) Option {
	return func(c *Council) {
		if f != nil {
			c.providers = f
		}
	}
}

// WithCredentials sets where judge credentials are looked up.
func WithCredentials(creds Credentials) Option {
	return func(c *Council) {
		if creds != nil {
			c.credentials = creds
		}
	}
}

// WithJudgeOptions applies opts to every judge built for a run.
func WithJudgeOptions(opts ...judge.Option) Option {
	return func(c *Council) {
		c.judgeOpts = append(c.judgeOpts, opts...)
	}
}

// WithMaxConcurrent bounds the number of judges invoked at once. Zero means no bound.
func WithMaxConcurrent(n int) Option {
	return func(c *Council) {
		if n >= 0 {
			c.maxConcurrent = n
		}
	}
}

// WithTimeout bounds the whole run.
func WithTimeout(d time.Duration) Option {
	return func(c *Council) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Council) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTracer sets the OpenTelemetry tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Council) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithMetrics sets the metric instruments.
func WithMetrics(m *observability.CouncilMetrics) Option {
	return func(c *Council) {
		if m != nil {
			c.metrics = m
		}
	}
}

// New creates a Council for judges, in roster order.
//
// Required components:
//   - source: where changed paths and the diff come from
//   - pres: where notices are published
func New(judges []judge.Identity, source ChangeSource, pres *presenter.Presenter, opts ...Option) *Council {
	c := &Council{
		judges:      append([]judge.Identity(nil), judges...),
		source:      source,
		presenter:   pres,
		selector:    policy.NewSelector(),
		builder:     docket.NewBuilder(docket.DefaultMaxDiffChars),
		providers:   providers.NewProvider,
		credentials: EnvCredentials,
		logger:      slog.Default(),
		tracer:      noop.NewTracerProvider().Tracer(observability.TracerName),
		metrics:     observability.NoopCouncilMetrics(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// run carries the per-run state.
type run struct {
	outcome *Outcome
	log     *observability.TracedLogger
}

func (r *run) transition(ctx context.Context, next State) {
	from := r.outcome.State
	if !from.CanTransition(next) {
		r.log.Error(ctx, "invalid state transition", "from", from, "to", next)
	}
	r.outcome.State = next
	r.outcome.Trail = append(r.outcome.Trail, next)
	r.log.Info(ctx, "state transition", "from", from, "to", next)
}

// Run executes one vote for the pull request described by meta.
//
// Collaborator failures (fetching the change, validation git errors, publishing the
// summary) abort the run with an error. Judge failures never do: they become ERROR
// verdicts and are counted.
func (c *Council) Run(ctx context.Context, meta docket.Meta) (*Outcome, error) {
	start := time.Now()

	if err := validateMeta(meta); err != nil {
		return nil, err
	}
	if err := validateRoster(c.judges); err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	runID := types.NewRunID()
	ctx, span := c.tracer.Start(ctx, "council.run", trace.WithAttributes(
		attribute.String("council.run_id", runID.String()),
		attribute.Int("council.case_number", meta.Number),
		attribute.String("council.repository", meta.Repository),
	))
	defer span.End()

	r := &run{
		outcome: &Outcome{RunID: runID, State: StatePending, Trail: []State{StatePending}},
		log:     observability.NewTracedLogger(c.logger.Handler(), runID.String(), meta.Number),
	}
	r.log.Info(ctx, "council run starting", "repository", meta.Repository, "base", meta.BaseSHA, "head", meta.HeadSHA, "judges", len(c.judges))

	outcome, err := c.run(ctx, r, meta)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.log.Error(ctx, "council run failed", "state", r.outcome.State, "error", err)
		return nil, err
	}

	outcome.Duration = time.Since(start)
	span.SetAttributes(
		attribute.String("council.outcome", string(outcome.Status)),
		attribute.Float64("council.ratio", outcome.Result.Ratio),
		attribute.Float64("council.threshold", outcome.Decision.Threshold),
		attribute.Int("council.invocations", outcome.Invocations),
	)
	c.metrics.RecordRun(ctx, string(outcome.Status), outcome.Decision.SuperMajority, outcome.Decision.ShortCircuit != nil)
	r.log.Info(ctx, "council run resolved",
		"outcome", outcome.Status,
		"approvals", outcome.Result.Approvals,
		"denominator", outcome.Result.Denominator,
		"ratio", outcome.Result.Ratio,
		"threshold", outcome.Decision.Threshold,
		"duration_ms", outcome.Duration.Milliseconds(),
	)

	return outcome, nil
}

func (c *Council) run(ctx context.Context, r *run, meta docket.Meta) (*Outcome, error) {
	out := r.outcome

	paths, err := c.source.ChangedPaths(ctx, meta.BaseSHA, meta.HeadSHA)
	if err != nil {
		return nil, collaboratorError(types.REVIEW_FETCH_FAILED, "failed to list changed paths", err)
	}

	out.Decision = c.selector.Select(paths)
	r.log.Info(ctx, "policy selected",
		"paths", len(paths),
		"threshold", out.Decision.Threshold,
		"super_majority", out.Decision.SuperMajority,
	)

	if sc := out.Decision.ShortCircuit; sc != nil {
		r.transition(ctx, StateShortCircuited)
		if err := c.presenter.PublishShortCircuit(ctx, meta.Number, *sc); err != nil {
			return nil, err
		}
		out.Result = tally.Count(nil, out.Decision.Threshold)
		out.Status = tally.OutcomeRejected
		c.presenter.ApplyOutcomeLabel(ctx, meta.Number, out.Status)
		r.transition(ctx, StateResolved)
		return out, nil
	}

	diff, err := c.source.Diff(ctx, meta.BaseSHA, meta.HeadSHA)
	if err != nil {
		return nil, collaboratorError(types.REVIEW_FETCH_FAILED, "failed to fetch diff", err)
	}

	status, err := c.validationStatus(ctx, meta)
	if err != nil {
		return nil, err
	}

	kase := c.builder.Build(meta, diff, paths, status)
	out.Case = &kase
	caseText := docket.Render(kase)
	if kase.DiffTruncated {
		r.log.Warn(ctx, "diff truncated", "shown", kase.ShownDiffChars(), "total", kase.DiffChars)
	}

	r.transition(ctx, StateInvoking)
	counter := &callCounter{}
	active, disabled := c.partition(ctx, r, counter)

	r.transition(ctx, StateCollecting)
	verdicts := c.collect(ctx, active, caseText)
	verdicts = append(verdicts, disabled...)
	out.Verdicts = verdicts
	out.Invocations = counter.Load()

	for _, v := range verdicts {
		c.metrics.RecordVote(ctx, v.Judge.ID, string(v.Tag), v.Attempts, v.Duration)
	}

	r.transition(ctx, StateTallying)
	out.Result = tally.Count(verdicts, out.Decision.Threshold)
	out.Status = out.Result.Outcome()
	out.Approved = out.Result.Approved

	published := c.presenter.PublishVerdicts(ctx, meta.Number, verdicts)
	r.log.Debug(ctx, "judge notices published", "count", published)

	if err := c.presenter.PublishSummary(ctx, meta.Number, presenter.Summary{
		Verdicts:      verdicts,
		Result:        out.Result,
		Decision:      out.Decision,
		DiffTruncated: kase.DiffTruncated,
		DiffShown:     kase.ShownDiffChars(),
		DiffTotal:     kase.DiffChars,
	}); err != nil {
		return nil, err
	}
	c.presenter.ApplyOutcomeLabel(ctx, meta.Number, out.Status)

	r.transition(ctx, StateResolved)
	return out, nil
}

func (c *Council) validationStatus(ctx context.Context, meta docket.Meta) (string, error) {
	if c.validator == nil {
		return "Source validation was not run.", nil
	}
	results, err := c.validator.ValidateChanged(ctx, meta.BaseSHA, meta.HeadSHA)
	if err != nil {
		return "", collaboratorError(types.VALIDATION_GIT_FAILED, "source validation failed", err)
	}
	return validate.FormatStatus(results), nil
}

func validateMeta(meta docket.Meta) error {
	var missing []string
	if meta.Number <= 0 {
		missing = append(missing, "number")
	}
	if meta.BaseSHA == "" {
		missing = append(missing, "base")
	}
	if meta.HeadSHA == "" {
		missing = append(missing, "head")
	}
	if len(missing) > 0 {
		return types.NewError(types.RUN_INVALID_REQUEST,
			fmt.Sprintf("pull request metadata incomplete: missing %s", strings.Join(missing, ", ")))
	}
	return nil
}

// validateRoster rejects judges whose notice markers would collide.
func validateRoster(judges []judge.Identity) error {
	owners := make(map[string]string, len(judges))
	for _, j := range judges {
		slug := j.Slug()
		if slug == "" {
			return types.NewError(types.CONFIG_VALIDATION_FAILED,
				fmt.Sprintf("judge id %q has no letters or digits", j.ID))
		}
		if first, ok := owners[slug]; ok {
			return types.NewError(types.CONFIG_VALIDATION_FAILED,
				fmt.Sprintf("judge ids %q and %q share the notice marker slug %q", first, j.ID, slug))
		}
		owners[slug] = j.ID
	}
	return nil
}

// collaboratorError keeps an existing code and wraps uncoded errors with code.
func collaboratorError(code types.ErrorCode, msg string, err error) error {
	if types.CodeOf(err) != "" {
		return err
	}
	return types.WrapError(code, msg, err)
}
