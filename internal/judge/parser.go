package judge

import (
	"regexp"
	"strings"
)

var (
	voteLinePattern  = regexp.MustCompile(`(?im)^[ \t]*VOTE:[ \t]*(APPROVE|REJECT|ABSTAIN)\b`)
	reasoningPattern = regexp.MustCompile(`(?is)REASONING:\s*(.+)`)
)

// ParseVerdict extracts the vote tag and reasoning from free-text judge output.
//
// The first line of the form "VOTE: <APPROVE|REJECT|ABSTAIN>" wins; without one the
// tag is ABSTAIN. Everything after "REASONING:" is the reasoning; without the marker
// the whole trimmed output is. It never fails.
func ParseVerdict(raw string) (Tag, string) {
	text := strings.TrimSpace(raw)

	tag := TagAbstain
	if m := voteLinePattern.FindStringSubmatch(text); m != nil {
		tag = Tag(strings.ToUpper(m[1]))
	}

	reasoning := text
	if m := reasoningPattern.FindStringSubmatch(text); m != nil {
		reasoning = strings.TrimSpace(m[1])
	}

	return tag, reasoning
}
