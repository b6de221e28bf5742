// Package policy selects the approval threshold for a change set.
package policy

import (
	"strings"
)

const (
	DefaultSimpleMajority = 0.5
	DefaultSuperMajority  = 2.0 / 3.0
)

// DefaultProtectedPrefixes are the path prefixes that require a super-majority.
var DefaultProtectedPrefixes = []string{"governance/", ".github/"}

// DefaultAlwaysReject lists the paths whose change is rejected without a vote.
var DefaultAlwaysReject = []string{"README.md"}

// ShortCircuit signals a resolution reached without invoking any judge.
type ShortCircuit struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Decision is the policy applied to one change set.
type Decision struct {
	Threshold      float64       `json:"threshold"`
	SuperMajority  bool          `json:"super_majority"`
	ProtectedPaths []string      `json:"protected_paths,omitempty"`
	ShortCircuit   *ShortCircuit `json:"short_circuit,omitempty"`
}

// Selector maps changed paths to a Decision.
type Selector struct {
	SimpleMajority    float64
	SuperMajority     float64
	ProtectedPrefixes []string
	AlwaysReject      []string
}

// NewSelector returns a Selector with the default thresholds and path rules.
func NewSelector() *Selector {
	return &Selector{
		SimpleMajority:    DefaultSimpleMajority,
		SuperMajority:     DefaultSuperMajority,
		ProtectedPrefixes: DefaultProtectedPrefixes,
		AlwaysReject:      DefaultAlwaysReject,
	}
}

// Select returns the decision for paths. Always-reject paths are matched exactly
// and take precedence over everything else.
func (s *Selector) Select(paths []string) Decision {
	for _, p := range paths {
		if s.alwaysRejected(p) {
			return Decision{
				Threshold: s.SimpleMajority,
				ShortCircuit: &ShortCircuit{
					Path:   p,
					Reason: "changes to `" + p + "` are automatically rejected",
				},
			}
		}
	}

	var protected []string
	for _, p := range paths {
		if s.isProtected(p) {
			protected = append(protected, p)
		}
	}

	if len(protected) > 0 {
		return Decision{Threshold: s.SuperMajority, SuperMajority: true, ProtectedPaths: protected}
	}
	return Decision{Threshold: s.SimpleMajority}
}

// Touches reports whether any of paths is an always-reject path and returns it.
func (s *Selector) Touches(paths []string) (string, bool) {
	for _, p := range paths {
		if s.alwaysRejected(p) {
			return p, true
		}
	}
	return "", false
}

func (s *Selector) alwaysRejected(path string) bool {
	for _, r := range s.AlwaysReject {
		if path == r {
			return true
		}
	}
	return false
}

func (s *Selector) isProtected(path string) bool {
	for _, prefix := range s.ProtectedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
