package assistant

// Phase is the ordering state of a session
type Phase int

const (
	// PhaseGreeting is the state of a new assistant before its first exchange
	PhaseGreeting Phase = iota
	// PhaseOrdering means the customer is still choosing
	PhaseOrdering
	// PhaseCompleted means a reply closed the order; only Reset leaves it
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseGreeting:
		return "greeting"
	case PhaseOrdering:
		return "ordering"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// afterExchange returns the phase following one completed submit.
func (p Phase) afterExchange(orderCompleted bool) Phase {
	if p == PhaseCompleted || orderCompleted {
		return PhaseCompleted
	}
	return PhaseOrdering
}
