package judge

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/mohamed-services/AgentLang/internal/llm"
	"github.com/mohamed-services/AgentLang/internal/types"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 2 * time.Second
	DefaultMaxJitter   = time.Second
	DefaultCallTimeout = 90 * time.Second
	DefaultMaxTokens   = 1024
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Judge wraps a provider with the council call contract: bounded retries with
// exponential backoff and jitter, then verdict parsing.
// Each Judge owns its own retry state; a Judge is used by one goroutine at a time.
type Judge struct {
	identity    Identity
	provider    llm.Provider
	maxAttempts int
	baseDelay   time.Duration
	maxJitter   time.Duration
	callTimeout time.Duration
	maxTokens   int
	sleep       Sleeper
	jitter      func() float64
	logger      *slog.Logger
}

// Option is a functional option for configuring a Judge.
type Option func(*Judge)

// WithMaxAttempts sets the total number of provider calls per vote.
func WithMaxAttempts(n int) Option {
	return func(j *Judge) {
		if n > 0 {
			j.maxAttempts = n
		}
	}
}

// WithBackoff sets the base delay (doubled each retry) and the jitter bound.
func WithBackoff(base, maxJitter time.Duration) Option {
	return func(j *Judge) {
		if base >= 0 {
			j.baseDelay = base
		}
		if maxJitter >= 0 {
			j.maxJitter = maxJitter
		}
	}
}

// WithCallTimeout bounds each individual provider call.
func WithCallTimeout(d time.Duration) Option {
	return func(j *Judge) {
		if d > 0 {
			j.callTimeout = d
		}
	}
}

// WithMaxTokens caps the response length requested from the provider. A back-end's
// own max_tokens takes precedence.
func WithMaxTokens(n int) Option {
	return func(j *Judge) {
		if n > 0 {
			j.maxTokens = n
		}
	}
}

// WithSleeper replaces the backoff sleep, mainly for tests.
func WithSleeper(s Sleeper) Option {
	return func(j *Judge) {
		if s != nil {
			j.sleep = s
		}
	}
}

// WithJitterSource replaces the jitter source. f must return values in [0, 1).
func WithJitterSource(f func() float64) Option {
	return func(j *Judge) {
		if f != nil {
			j.jitter = f
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(j *Judge) {
		if logger != nil {
			j.logger = logger
		}
	}
}

// New creates a Judge for identity backed by provider.
func New(identity Identity, provider llm.Provider, opts ...Option) *Judge {
	j := &Judge{
		identity:    identity,
		provider:    provider,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		maxJitter:   DefaultMaxJitter,
		callTimeout: DefaultCallTimeout,
		maxTokens:   DefaultMaxTokens,
		sleep:       SleepContext,
		jitter:      rand.Float64,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(j)
	}

	return j
}

// Identity returns the judge's identity.
func (j *Judge) Identity() Identity {
	return j.identity
}

// Invoke makes a single provider call and returns the raw text.
func (j *Judge) Invoke(ctx context.Context, directive, caseText string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, j.callTimeout)
	defer cancel()

	req := llm.CompletionRequest{
		Messages: []llm.Message{
			llm.NewSystemMessage(directive),
			llm.NewUserMessage(caseText),
		},
		MaxTokens: j.maxTokens,
	}
	if b := j.identity.Backend; b != nil {
		req.Model = b.Model
		if b.MaxTokens > 0 {
			req.MaxTokens = b.MaxTokens
		}
	}

	resp, err := j.provider.Complete(callCtx, req)
	if err != nil {
		return "", llm.TranslateError(j.provider.Name(), err)
	}
	return resp.Text(), nil
}

// Vote evaluates the case and returns a verdict. It never returns an error: after
// the attempts are exhausted, or on a non-retryable failure, the verdict is ERROR
// carrying the last failure message.
func (j *Judge) Vote(ctx context.Context, directive, caseText string) Verdict {
	start := time.Now()
	logger := j.logger.With("judge_id", j.identity.ID, "provider", j.provider.Name())

	var lastErr error
	attempts := 0

	for attempt := 0; attempt < j.maxAttempts; attempt++ {
		attempts++

		raw, err := j.Invoke(ctx, directive, caseText)
		if err == nil {
			tag, reasoning := ParseVerdict(raw)
			logger.Debug("judge voted", "tag", tag, "attempts", attempts)
			return Verdict{
				Judge:     j.identity,
				Tag:       tag,
				Reasoning: reasoning,
				Attempts:  attempts,
				Duration:  time.Since(start),
			}
		}

		lastErr = err
		logger.Warn("judge call failed", "attempt", attempts, "max_attempts", j.maxAttempts, "error", err)

		if !llm.IsRetryable(err) || ctx.Err() != nil {
			break
		}

		if attempt < j.maxAttempts-1 {
			if sleepErr := j.sleep(ctx, j.Backoff(attempt)); sleepErr != nil {
				lastErr = types.WrapError(types.JUDGE_CALL_FAILED, "retry backoff interrupted", lastErr)
				break
			}
		}
	}

	v := Failed(j.identity, lastErr, attempts)
	v.Duration = time.Since(start)
	return v
}

// Backoff returns the delay before the retry that follows the given zero-based attempt:
// baseDelay * 2^attempt plus up to maxJitter.
func (j *Judge) Backoff(attempt int) time.Duration {
	delay := j.baseDelay * time.Duration(1<<attempt)
	if j.maxJitter > 0 {
		delay += time.Duration(j.jitter() * float64(j.maxJitter))
	}
	return delay
}
