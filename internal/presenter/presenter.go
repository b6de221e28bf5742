// Package presenter publishes council results to the review system as
// marker-keyed notices that are replaced, never duplicated, on re-runs.
package presenter

import (
	"context"
	"log/slog"

	"github.com/mohamed-services/AgentLang/internal/judge"
	"github.com/mohamed-services/AgentLang/internal/policy"
	"github.com/mohamed-services/AgentLang/internal/tally"
	"github.com/mohamed-services/AgentLang/internal/types"
	"github.com/mohamed-services/AgentLang/internal/validate"
)

// Labels maps outcomes to the label applied to the pull request. Empty entries
// apply no label.
type Labels struct {
	Approved string `mapstructure:"approved" yaml:"approved,omitempty"`
	Rejected string `mapstructure:"rejected" yaml:"rejected,omitempty"`
	NoQuorum string `mapstructure:"no_quorum" yaml:"no_quorum,omitempty"`
}

// For returns the label for outcome.
func (l Labels) For(outcome tally.Outcome) string {
	switch outcome {
	case tally.OutcomeApproved:
		return l.Approved
	case tally.OutcomeRejected:
		return l.Rejected
	default:
		return l.NoQuorum
	}
}

// Presenter renders and publishes notices for one pull request.
type Presenter struct {
	store   NoticeStore
	markers Markers
	labels  Labels
	logger  *slog.Logger
}

// New creates a Presenter.
func New(store NoticeStore, markers Markers, labels Labels, logger *slog.Logger) *Presenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Presenter{store: store, markers: markers, labels: labels, logger: logger}
}

// Markers returns the marker set in use.
func (p *Presenter) Markers() Markers {
	return p.markers
}

func (p *Presenter) upsert(ctx context.Context, number int, marker, body string) error {
	replaced, err := Upsert(ctx, p.store, number, marker, body)
	if err != nil {
		return types.WrapError(types.REVIEW_PUBLISH_FAILED, "failed to publish notice "+marker, err)
	}
	p.logger.Debug("notice published", "marker", marker, "replaced", replaced)
	return nil
}

// PublishVerdicts publishes one notice per responding judge. A failure to publish
// one notice is logged and does not stop the others. It returns the number of
// notices published.
func (p *Presenter) PublishVerdicts(ctx context.Context, number int, verdicts []judge.Verdict) int {
	published := 0
	for _, v := range verdicts {
		if !v.Responded() {
			continue
		}
		marker := p.markers.Judge(v.Judge.Slug())
		if err := p.upsert(ctx, number, marker, p.markers.RenderJudgeNotice(v)); err != nil {
			p.logger.Warn("could not publish judge notice", "judge_id", v.Judge.ID, "error", err)
			continue
		}
		published++
	}
	return published
}

// PublishSummary publishes the summary notice. Failure is returned.
func (p *Presenter) PublishSummary(ctx context.Context, number int, s Summary) error {
	return p.upsert(ctx, number, p.markers.Summary, p.markers.RenderSummary(s))
}

// PublishShortCircuit publishes the automatic-rejection summary.
func (p *Presenter) PublishShortCircuit(ctx context.Context, number int, sc policy.ShortCircuit) error {
	return p.upsert(ctx, number, p.markers.Summary, p.markers.RenderShortCircuit(sc))
}

// PublishReadmeNotice publishes the always-reject file notice.
func (p *Presenter) PublishReadmeNotice(ctx context.Context, number int, path string) error {
	return p.upsert(ctx, number, p.markers.Readme, p.markers.RenderReadmeNotice(path))
}

// PublishValidationFailure publishes the validation failure notice.
func (p *Presenter) PublishValidationFailure(ctx context.Context, number int, failures []validate.Result) error {
	return p.upsert(ctx, number, p.markers.Validation, p.markers.RenderValidationFailure(failures))
}

// ApplyOutcomeLabel adds the configured label for outcome, if any. Failures are
// logged only.
func (p *Presenter) ApplyOutcomeLabel(ctx context.Context, number int, outcome tally.Outcome) {
	label := p.labels.For(outcome)
	if label == "" {
		return
	}
	if err := p.store.AddLabel(ctx, number, label); err != nil {
		p.logger.Warn("could not apply label", "label", label, "error", err)
	}
}
