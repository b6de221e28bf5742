package orchestrator

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/mohamed-services/AgentLang/internal/docket"
	"github.com/mohamed-services/AgentLang/internal/judge"
	"github.com/mohamed-services/AgentLang/internal/llm"
	"github.com/mohamed-services/AgentLang/internal/types"
)

// slot is one active roster entry. Exactly one of judge or fixed is set: fixed holds a
// verdict decided without invoking the judge.
type slot struct {
	identity judge.Identity
	judge    *judge.Judge
	fixed    *judge.Verdict
}

// callCounter counts provider calls across all judges of a run.
type callCounter struct {
	n atomic.Int64
}

func (c *callCounter) wrap(p llm.Provider) llm.Provider {
	return countingProvider{Provider: p, counter: c}
}

// Load returns the number of calls made so far.
func (c *callCounter) Load() int {
	return int(c.n.Load())
}

type countingProvider struct {
	llm.Provider
	counter *callCounter
}

func (p countingProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.counter.n.Add(1)
	return p.Provider.Complete(ctx, req)
}

// partition splits the roster into active slots and DISABLED verdicts, both in roster
// order. Judges whose credential is missing, or whose back-end cannot be built, get a
// fixed verdict and are never invoked.
func (c *Council) partition(ctx context.Context, r *run, counter *callCounter) ([]slot, []judge.Verdict) {
	var (
		active   []slot
		disabled []judge.Verdict
	)

	for _, id := range c.judges {
		if !id.Active() {
			disabled = append(disabled, judge.Disabled(id))
			continue
		}

		cfg := *id.Backend
		if id.NeedsCredential() {
			key, ok := c.credentials.Lookup(id.CredentialKey)
			if !ok || key == "" {
				r.log.Warn(ctx, "judge credential not configured", "judge_id", id.ID, "credential_key", id.CredentialKey)
				v := judge.MissingCredential(id)
				active = append(active, slot{identity: id, fixed: &v})
				continue
			}
			cfg.APIKey = key
		}

		provider, err := c.providers(cfg)
		if err != nil {
			r.log.Warn(ctx, "judge back-end could not be built", "judge_id", id.ID, "provider", cfg.Type, "error", err)
			v := judge.Failed(id, types.WrapError(types.JUDGE_BUILD_FAILED, "could not build back-end", err), 0)
			active = append(active, slot{identity: id, fixed: &v})
			continue
		}

		opts := append([]judge.Option{judge.WithLogger(c.logger)}, c.judgeOpts...)
		active = append(active, slot{identity: id, judge: judge.New(id, counter.wrap(provider), opts...)})
	}

	r.log.Info(ctx, "roster partitioned", "active", len(active), "disabled", len(disabled))
	return active, disabled
}

// collect invokes every slot concurrently and waits for all of them. Each goroutine
// writes only its own index, so the result keeps roster order. A panicking judge is
// recorded as ERROR.
func (c *Council) collect(ctx context.Context, slots []slot, caseText string) []judge.Verdict {
	verdicts := make([]judge.Verdict, len(slots))

	var g errgroup.Group
	if c.maxConcurrent > 0 {
		g.SetLimit(c.maxConcurrent)
	}

	for i, s := range slots {
		if s.fixed != nil {
			verdicts[i] = *s.fixed
			continue
		}

		g.Go(func() error {
			ctx, span := c.tracer.Start(ctx, "council.judge", trace.WithAttributes(
				attribute.String("council.judge_id", s.identity.ID),
			))
			defer span.End()

			defer func() {
				if p := recover(); p != nil {
					verdicts[i] = judge.Failed(s.identity,
						types.NewError(types.JUDGE_PANICKED, fmt.Sprintf("judge panicked: %v", p)), 1)
				}
				span.SetAttributes(
					attribute.String("council.tag", string(verdicts[i].Tag)),
					attribute.Int("council.attempts", verdicts[i].Attempts),
				)
			}()

			verdicts[i] = s.judge.Vote(ctx, docket.Directive(s.identity), caseText)
			return nil
		})
	}

	_ = g.Wait()
	return verdicts
}
