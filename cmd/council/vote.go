package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohamed-services/AgentLang/cmd/council/internal"
	"github.com/mohamed-services/AgentLang/internal/docket"
	"github.com/mohamed-services/AgentLang/internal/judge"
	"github.com/mohamed-services/AgentLang/internal/observability"
	"github.com/mohamed-services/AgentLang/internal/orchestrator"
	"github.com/mohamed-services/AgentLang/internal/policy"
	"github.com/mohamed-services/AgentLang/internal/presenter"
	"github.com/mohamed-services/AgentLang/internal/tally"
)

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Run a council vote on a pull request",
	Long: `Run one council vote: fetch the change, select the policy, ask every enabled
judge concurrently, tally the verdicts and publish one notice per judge followed by
the summary.

Exits 0 when the change is approved and 1 when it is rejected or nobody voted.`,
	Example: `  # In a workflow, with PR_NUMBER, BASE_SHA, HEAD_SHA and REPO_FULL_NAME set
  council vote

  # Against a local checkout, printing the notices instead of publishing them
  council vote --source local --dry-run --pr 12 --base main --head HEAD`,
	RunE: runVote,
}

func init() {
	registerRunFlags(voteCmd)
	voteCmd.Flags().String("source", sourceGitHub, "Where to read the change from (github|local)")
	voteCmd.Flags().Bool("dry-run", false, "Print notices instead of publishing them")
}

func runVote(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	source, _ := cmd.Flags().GetString("source")

	meta, err := app.readRunMeta(cmd, true, source == sourceLocal)
	if err != nil {
		return err
	}

	outcome, memory, err := app.vote(cmd.Context(), meta, source, dryRun)
	if err != nil {
		return err
	}

	if err := app.reportOutcome(outcome); err != nil {
		return err
	}
	if memory != nil {
		if err := app.printNotices(cmd.Context(), memory, meta.Number); err != nil {
			return err
		}
	}

	if !outcome.Approved {
		return internal.NewCLIError(internal.ExitError, "change was not approved ("+string(outcome.Status)+")")
	}
	return nil
}

// vote runs one council vote. On a dry run the returned store holds the notices.
func (e *environment) vote(ctx context.Context, meta docket.Meta, sourceKind string, dryRun bool) (*orchestrator.Outcome, *presenter.MemoryStore, error) {
	source, err := e.changeSource(meta, sourceKind)
	if err != nil {
		return nil, nil, err
	}
	store, memory, err := e.noticeStore(meta, dryRun)
	if err != nil {
		return nil, nil, err
	}

	tp, err := observability.InitTracing(ctx, e.cfg.Tracing)
	if err != nil {
		return nil, nil, err
	}
	defer e.shutdown(ctx, "tracing", func(ctx context.Context) error {
		return observability.ShutdownTracing(ctx, tp)
	})

	mp, err := observability.InitMetrics(ctx, e.cfg.Metrics)
	if err != nil {
		return nil, nil, err
	}
	defer e.shutdown(ctx, "metrics", func(ctx context.Context) error {
		return observability.ShutdownMetrics(ctx, mp)
	})

	metrics, err := observability.NewCouncilMetrics(mp.Meter(observability.TracerName))
	if err != nil {
		return nil, nil, err
	}

	opts := []orchestrator.Option{
		orchestrator.WithSelector(e.selector()),
		orchestrator.WithBuilder(docket.NewBuilder(e.cfg.Council.MaxDiffChars)),
		orchestrator.WithCredentials(e.creds),
		orchestrator.WithJudgeOptions(e.judgeOptions()...),
		orchestrator.WithMaxConcurrent(e.cfg.Council.MaxConcurrent),
		orchestrator.WithTimeout(e.cfg.Council.Timeout),
		orchestrator.WithLogger(e.logger),
		orchestrator.WithTracer(tp.Tracer(observability.TracerName)),
		orchestrator.WithMetrics(metrics),
	}
	if e.cfg.Validation.Enabled {
		opts = append(opts, orchestrator.WithValidator(e.validator()))
	}

	council := orchestrator.New(e.cfg.Judges.Members, source, e.presenter(store), opts...)
	outcome, err := council.Run(ctx, meta)
	if err != nil {
		return nil, nil, err
	}
	return outcome, memory, nil
}

func (e *environment) judgeOptions() []judge.Option {
	j := e.cfg.Judges
	return []judge.Option{
		judge.WithMaxAttempts(j.MaxAttempts),
		judge.WithBackoff(j.BaseDelay, j.MaxJitter),
		judge.WithCallTimeout(j.CallTimeout),
		judge.WithMaxTokens(j.MaxTokens),
		judge.WithLogger(e.logger),
	}
}

// outcomeReport is the JSON form of a vote.
type outcomeReport struct {
	RunID       string          `json:"run_id"`
	Status      tally.Outcome   `json:"status"`
	Approved    bool            `json:"approved"`
	Decision    policy.Decision `json:"decision"`
	Result      tally.Result    `json:"result"`
	Verdicts    []verdictReport `json:"verdicts"`
	Invocations int             `json:"invocations"`
	Duration    string          `json:"duration"`
}

type verdictReport struct {
	Judge     string    `json:"judge"`
	Name      string    `json:"name"`
	Tag       judge.Tag `json:"tag"`
	Reasoning string    `json:"reasoning,omitempty"`
	Message   string    `json:"message,omitempty"`
	Attempts  int       `json:"attempts,omitempty"`
}

func (e *environment) reportOutcome(o *orchestrator.Outcome) error {
	if e.format == internal.FormatJSON {
		report := outcomeReport{
			RunID:       o.RunID.String(),
			Status:      o.Status,
			Approved:    o.Approved,
			Decision:    o.Decision,
			Result:      o.Result,
			Verdicts:    make([]verdictReport, 0, len(o.Verdicts)),
			Invocations: o.Invocations,
			Duration:    o.Duration.Round(time.Millisecond).String(),
		}
		for _, v := range o.Verdicts {
			report.Verdicts = append(report.Verdicts, verdictReport{
				Judge:     v.Judge.ID,
				Name:      v.Judge.Name,
				Tag:       v.Tag,
				Reasoning: v.Reasoning,
				Message:   v.Message,
				Attempts:  v.Attempts,
			})
		}
		return e.out.JSON(report)
	}

	if o.Decision.ShortCircuit != nil {
		_, err := internal.TagColor(string(o.Status)).Fprintf(e.stdout,
			"REJECTED: %s\n", o.Decision.ShortCircuit.Reason)
		return err
	}

	rows := make([][]string, 0, len(o.Verdicts))
	for _, v := range o.Verdicts {
		note := v.Message
		if v.Tag == judge.TagError && note == "" {
			note = "could not retrieve vote"
		}
		rows = append(rows, []string{v.Judge.Name, v.Judge.Organization, string(v.Tag), note})
	}
	if err := e.out.Table(internal.Table{Columns: []string{"judge", "organization", "vote", "notes"}, Rows: rows, Tagged: "vote"}); err != nil {
		return err
	}

	_, err := internal.TagColor(string(o.Status)).Fprintln(e.stdout, resultLine(o))
	return err
}

// resultLine summarizes the tally on one line.
func resultLine(o *orchestrator.Outcome) string {
	r := o.Result
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d approve, %d reject, %d abstain, %d error",
		strings.ToUpper(strings.ReplaceAll(string(o.Status), "_", " ")),
		r.Approvals, r.Rejections, r.Abstentions, r.Errors)
	if r.Denominator > 0 {
		fmt.Fprintf(&b, " (ratio %.3f, needs > %.3f)", r.Ratio, r.Threshold)
	}
	if o.Decision.SuperMajority {
		b.WriteString(" [super-majority]")
	}
	return b.String()
}
