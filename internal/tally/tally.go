// Package tally turns a set of verdicts into a resolution against a threshold.
// It performs no I/O and is fully deterministic.
package tally

import (
	"github.com/mohamed-services/AgentLang/internal/judge"
)

// Outcome is the resolution class of a tally.
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
	OutcomeNoQuorum Outcome = "no_quorum"
)

// Result is the derived quorum computation for one run.
type Result struct {
	// Approvals is the number of APPROVE verdicts.
	Approvals int `json:"approvals"`

	// Rejections is the number of REJECT verdicts.
	Rejections int `json:"rejections"`

	// Abstentions is the number of ABSTAIN verdicts, including judges that were
	// skipped for a missing credential.
	Abstentions int `json:"abstentions"`

	// Errors is the number of ERROR verdicts. Errors count against approval.
	Errors int `json:"errors"`

	// Disabled is the number of DISABLED verdicts. They are shown but never counted.
	Disabled int `json:"disabled"`

	// Denominator is Approvals + Rejections + Abstentions + Errors.
	Denominator int `json:"denominator"`

	// Ratio is Approvals / Denominator, or 0 when Denominator is 0.
	Ratio float64 `json:"ratio"`

	// Threshold is the bar the ratio had to strictly exceed.
	Threshold float64 `json:"threshold"`

	// Approved is Denominator > 0 && Ratio > Threshold.
	Approved bool `json:"approved"`
}

// Count tallies verdicts against threshold.
func Count(verdicts []judge.Verdict, threshold float64) Result {
	r := Result{Threshold: threshold}

	for _, v := range verdicts {
		switch v.Tag {
		case judge.TagApprove:
			r.Approvals++
		case judge.TagReject:
			r.Rejections++
		case judge.TagAbstain:
			r.Abstentions++
		case judge.TagError:
			r.Errors++
		case judge.TagDisabled:
			r.Disabled++
		}
	}

	r.Denominator = r.Approvals + r.Rejections + r.Abstentions + r.Errors
	if r.Denominator > 0 {
		r.Ratio = float64(r.Approvals) / float64(r.Denominator)
		r.Approved = r.Ratio > threshold
	}

	return r
}

// Outcome classifies the result.
func (r Result) Outcome() Outcome {
	switch {
	case r.Denominator == 0:
		return OutcomeNoQuorum
	case r.Approved:
		return OutcomeApproved
	default:
		return OutcomeRejected
	}
}

// Total returns the number of verdicts tallied, disabled included.
func (r Result) Total() int {
	return r.Denominator + r.Disabled
}
