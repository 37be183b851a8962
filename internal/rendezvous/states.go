package rendezvous

import "fmt"

type State string

const (
	StateIdle      State = "idle"
	StateAnnounced State = "announced"
	StateListening State = "listening"
	StateConnected State = "connected"
	StateExchanged State = "exchanged"
	StateClosed    State = "closed"
	StateFailed    State = "failed"
)

var validTransitions = map[State][]State{
	StateIdle:      {StateAnnounced, StateFailed},
	StateAnnounced: {StateListening, StateFailed},
	StateListening: {StateConnected, StateFailed},
	StateConnected: {StateExchanged, StateFailed},
	StateExchanged: {StateClosed},
}

// ValidateTransition reports whether a session may move from one state to another.
// Closed and Failed are terminal.
func ValidateTransition(from, to State) error {
	allowed, exists := validTransitions[from]
	if !exists {
		return fmt.Errorf("no transitions from terminal state: %s", from)
	}

	for _, validTo := range allowed {
		if validTo == to {
			return nil
		}
	}

	return fmt.Errorf("invalid state transition: %s -> %s", from, to)
}
