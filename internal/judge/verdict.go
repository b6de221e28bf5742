package judge

import (
	"fmt"
	"strings"
	"time"
)

// Tag is the outcome class of one judge's evaluation.
type Tag string

const (
	TagApprove  Tag = "APPROVE"
	TagReject   Tag = "REJECT"
	TagAbstain  Tag = "ABSTAIN"
	TagError    Tag = "ERROR"
	TagDisabled Tag = "DISABLED"
)

// AllTags lists every tag in presentation order.
var AllTags = []Tag{TagApprove, TagReject, TagAbstain, TagError, TagDisabled}

// String returns the string representation of the Tag
func (t Tag) String() string {
	return string(t)
}

// IsValid checks if the tag is a valid value
func (t Tag) IsValid() bool {
	switch t {
	case TagApprove, TagReject, TagAbstain, TagError, TagDisabled:
		return true
	default:
		return false
	}
}

// Eligible reports whether a verdict with this tag enters the tally denominator.
// Only DISABLED is excluded.
func (t Tag) Eligible() bool {
	return t.IsValid() && t != TagDisabled
}

// ParseTag parses a tag case-insensitively.
func ParseTag(s string) (Tag, error) {
	tag := Tag(strings.ToUpper(strings.TrimSpace(s)))
	if !tag.IsValid() {
		return "", fmt.Errorf("invalid vote tag: %q", s)
	}
	return tag, nil
}

// Verdict is the outcome of one judge's evaluation of a case.
//
// Reasoning is set for APPROVE, REJECT and ABSTAIN. Message carries the error or
// abstain explanation for ERROR and DISABLED, and may accompany ABSTAIN when the
// judge could not be consulted.
type Verdict struct {
	Judge     Identity      `json:"judge"`
	Tag       Tag           `json:"tag"`
	Reasoning string        `json:"reasoning,omitempty"`
	Message   string        `json:"message,omitempty"`
	Attempts  int           `json:"attempts,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// Responded reports whether the judge answered or failed. ERROR always counts, including
// a back-end that could not be constructed. Judges that were never invoked for other
// reasons (missing credential, disabled) did not respond.
func (v Verdict) Responded() bool {
	return v.Attempts > 0 || v.Tag == TagError
}

// Disabled builds the verdict recorded for a judge that is not consulted.
func Disabled(id Identity) Verdict {
	msg := id.AbstainReason
	if msg == "" {
		msg = "Not yet enabled"
	}
	return Verdict{Judge: id, Tag: TagDisabled, Message: msg}
}

// MissingCredential builds the verdict for an enabled judge whose credential is absent.
func MissingCredential(id Identity) Verdict {
	return Verdict{
		Judge:   id,
		Tag:     TagAbstain,
		Message: fmt.Sprintf("API key `%s` not configured.", id.CredentialKey),
	}
}

// Failed builds an ERROR verdict from err.
func Failed(id Identity, err error, attempts int) Verdict {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Verdict{Judge: id, Tag: TagError, Message: msg, Attempts: attempts}
}
