package orchestrator

// State is the lifecycle position of a council run.
type State string

const (
	StatePending        State = "pending"
	StateShortCircuited State = "short_circuited"
	StateInvoking       State = "invoking"
	StateCollecting     State = "collecting"
	StateTallying       State = "tallying"
	StateResolved       State = "resolved"
)

// String returns the string representation of State.
func (s State) String() string {
	return string(s)
}

var transitions = map[State][]State{
	StatePending:        {StateShortCircuited, StateInvoking},
	StateShortCircuited: {StateResolved},
	StateInvoking:       {StateCollecting},
	StateCollecting:     {StateTallying},
	StateTallying:       {StateResolved},
}

// CanTransition reports whether a run may move from s to next.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s ends a run.
func (s State) IsTerminal() bool {
	return s == StateResolved
}
