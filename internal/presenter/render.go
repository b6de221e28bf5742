package presenter

import (
	"fmt"
	"strings"

	"github.com/mohamed-services/AgentLang/internal/judge"
	"github.com/mohamed-services/AgentLang/internal/policy"
	"github.com/mohamed-services/AgentLang/internal/tally"
	"github.com/mohamed-services/AgentLang/internal/validate"
)

const summaryHeading = "## AgentLang Council Vote Summary"

var tagEmoji = map[judge.Tag]string{
	judge.TagApprove:  "✅",
	judge.TagReject:   "❌",
	judge.TagAbstain:  "⚪",
	judge.TagError:    "⚠️",
	judge.TagDisabled: "💤",
}

// Emoji returns the symbol shown next to a tag.
func Emoji(tag judge.Tag) string {
	if e, ok := tagEmoji[tag]; ok {
		return e
	}
	return "❓"
}

// Summary is everything the summary notice reports.
type Summary struct {
	Verdicts []judge.Verdict
	Result   tally.Result
	Decision policy.Decision

	// DiffShown and DiffTotal are set when judges saw a truncated diff.
	DiffTruncated bool
	DiffShown     int
	DiffTotal     int
}

// RenderJudgeNotice renders the notice for one responding judge.
func (m Markers) RenderJudgeNotice(v judge.Verdict) string {
	lines := []string{
		m.Judge(v.Judge.Slug()),
		m.Vote,
		fmt.Sprintf("### %s %s (%s) — %s", Emoji(v.Tag), v.Judge.Name, v.Judge.Organization, v.Tag),
		"",
	}

	switch {
	case v.Tag == judge.TagError:
		lines = append(lines, fmt.Sprintf("_Could not retrieve vote: %s_", neutralize(oneLine(v.Message))))
	case v.Reasoning != "":
		lines = append(lines, neutralize(v.Reasoning))
	case v.Message != "":
		lines = append(lines, "_"+neutralize(oneLine(v.Message))+"_")
	}

	return strings.Join(lines, "\n")
}

// RenderSummary renders the summary notice listing every judge.
func (m Markers) RenderSummary(s Summary) string {
	r := s.Result
	lines := []string{m.Summary, summaryHeading, ""}

	if s.Decision.SuperMajority {
		quoted := make([]string, 0, len(s.Decision.ProtectedPaths))
		for _, p := range s.Decision.ProtectedPaths {
			quoted = append(quoted, "`"+p+"`")
		}
		lines = append(lines,
			fmt.Sprintf("> 🛡️ **Super-majority required.** This PR touches protected paths (%s); "+
				"approval requires a ratio above %.3f.", strings.Join(quoted, ", "), s.Decision.Threshold),
			"",
		)
	}

	lines = append(lines,
		"| Agent | Company | Vote | Notes |",
		"|-------|---------|------|-------|",
	)
	for _, v := range s.Verdicts {
		lines = append(lines, fmt.Sprintf("| %s | %s | %s %s | %s |",
			cell(v.Judge.Name), cell(v.Judge.Organization), Emoji(v.Tag), v.Tag, cell(notes(v))))
	}
	lines = append(lines, "")

	counts := fmt.Sprintf("(%d approve / %d reject / %d abstain / %d error)",
		r.Approvals, r.Rejections, r.Abstentions, r.Errors)

	switch r.Outcome() {
	case tally.OutcomeNoQuorum:
		lines = append(lines, "**Result: NO VOTE** — no eligible votes cast")
	case tally.OutcomeApproved:
		lines = append(lines, "**Result: ✅ APPROVED** "+counts)
	default:
		lines = append(lines, "**Result: ❌ REJECTED** "+counts)
	}

	if r.Denominator > 0 {
		lines = append(lines, "", fmt.Sprintf("Approval: %d of %d eligible votes; ratio %.3f must exceed %.3f.",
			r.Approvals, r.Denominator, r.Ratio, r.Threshold))
	} else {
		lines = append(lines, "", fmt.Sprintf("No eligible votes; the required ratio was %.3f.", r.Threshold))
	}

	if r.Errors > 0 {
		lines = append(lines, "", fmt.Sprintf(
			"> ⚠️ %d agent(s) encountered API errors. Their votes count toward the total but never as approvals.", r.Errors))
	}

	if s.DiffTruncated {
		lines = append(lines, "", fmt.Sprintf(
			"> ✂️ The diff was truncated: judges reviewed the first %d of %d characters.", s.DiffShown, s.DiffTotal))
	}

	lines = append(lines, "",
		"_Votes cast by AI agents on the AgentLang Language Council. Approvals must exceed the threshold share "+
			"of all eligible votes (approve, reject, abstain, error); disabled members are listed but not counted._")

	return strings.Join(lines, "\n")
}

// RenderShortCircuit renders the fixed automatic-rejection summary.
func (m Markers) RenderShortCircuit(sc policy.ShortCircuit) string {
	return strings.Join([]string{
		m.Summary,
		summaryHeading,
		"",
		fmt.Sprintf("**Result: ❌ AUTOMATICALLY REJECTED** — This PR modifies the root `%s`.", sc.Path),
		"",
		fmt.Sprintf("> Per governance rules, any pull request that changes `%s` is automatically rejected.", sc.Path),
		"",
		"_No council members were consulted._",
	}, "\n")
}

// RenderReadmeNotice renders the notice posted when the always-reject file is touched.
func (m Markers) RenderReadmeNotice(path string) string {
	return strings.Join([]string{
		m.Readme,
		fmt.Sprintf("> 📋 This PR modifies `%s`. Such pull requests are rejected automatically by the council.", path),
	}, "\n")
}

// RenderValidationFailure renders the notice listing failed source files.
func (m Markers) RenderValidationFailure(failures []validate.Result) string {
	lines := []string{
		m.Validation,
		"## ⚠️ AgentLang Validation Failure",
		"",
		"The following `.al` files have validation errors:",
		"",
	}
	for _, f := range failures {
		lines = append(lines, fmt.Sprintf("**`%s`**", f.Path), "> "+oneLine(f.Error), "")
	}
	lines = append(lines,
		"_All `.al` source files must declare their version on the first line "+
			"(printable ASCII only), e.g. `AgentLang 0.1.0-alpha`._")
	return strings.Join(lines, "\n")
}

func notes(v judge.Verdict) string {
	switch v.Tag {
	case judge.TagError:
		if v.Message == "" {
			return "_API error_"
		}
		return "_" + v.Message + "_"
	case judge.TagDisabled:
		if v.Message == "" {
			return "_Not yet enabled_"
		}
		return v.Message
	default:
		return v.Message
	}
}

// cell makes s safe for a single markdown table cell.
func cell(s string) string {
	s = neutralize(oneLine(s))
	return strings.ReplaceAll(s, "|", `\|`)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
