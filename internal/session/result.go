package session

// Outcome classifies how an ensure invocation left the designated session
// in place.
type Outcome int

const (
	// OutcomeSatisfied means the session already existed; nothing was done.
	OutcomeSatisfied Outcome = iota
	// OutcomeRestored means the session was rebuilt from its snapshot.
	OutcomeRestored
	// OutcomeCreatedFresh means the session was materialized from the
	// configured template.
	OutcomeCreatedFresh
	// OutcomeCreatedBasic means the last-resort bare session was created.
	OutcomeCreatedBasic
	// OutcomeFailed means no tier could produce the session.
	OutcomeFailed
)

// String returns the operator-facing name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSatisfied:
		return "already running"
	case OutcomeRestored:
		return "restored from snapshot"
	case OutcomeCreatedFresh:
		return "created from template"
	case OutcomeCreatedBasic:
		return "created fresh"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result reports one ensure invocation.
type Result struct {
	// Session is the designated session name.
	Session string
	// Outcome says which tier produced the session.
	Outcome Outcome
}
