package enrollment

import (
	"errors"
	"fmt"
)

// ErrIllegalTransition is returned when an event does not apply to the
// current step.
var ErrIllegalTransition = errors.New("illegal enrollment transition")

// State is a wizard step.
type State string

const (
	StateWelcome   State = "welcome"
	StateFaceScan  State = "face-scan"
	StateDocUpload State = "doc-upload"
	StateSignup    State = "signup"
	StatePII       State = "pii"
	StateVerifying State = "verifying"
	StateSuccess   State = "success"
)

// Event triggers a transition.
type Event string

const (
	EventBegin            Event = "begin"
	EventFaceCaptured     Event = "face_captured"
	EventDocumentUploaded Event = "document_uploaded"
	EventSignedUp         Event = "signed_up"
	EventSubmit           Event = "submit"
	EventVerified         Event = "verified"
	EventFailed           Event = "failed"
	EventBack             Event = "back"
	EventReset            Event = "reset"
)

var transitions = map[State]map[Event]State{
	StateWelcome: {
		EventBegin: StateFaceScan,
	},
	StateFaceScan: {
		EventFaceCaptured: StateDocUpload,
		EventBack:         StateWelcome,
		EventReset:        StateWelcome,
	},
	StateDocUpload: {
		EventDocumentUploaded: StateSignup,
		EventBack:             StateFaceScan,
		EventReset:            StateWelcome,
	},
	StateSignup: {
		EventSignedUp: StatePII,
		EventBack:     StateDocUpload,
		EventReset:    StateWelcome,
	},
	StatePII: {
		EventSubmit: StateVerifying,
		EventBack:   StateSignup,
		EventReset:  StateWelcome,
	},
	// verifying only ends through the provider outcome
	StateVerifying: {
		EventVerified: StateSuccess,
		EventFailed:   StateWelcome,
	},
	StateSuccess: {
		EventReset: StateWelcome,
	},
}

// Next returns the state reached from s on e.
func Next(s State, e Event) (State, error) {
	to, ok := transitions[s][e]
	if !ok {
		return s, fmt.Errorf("%w: %q in state %q", ErrIllegalTransition, e, s)
	}
	return to, nil
}

// Events lists the events accepted in s.
func Events(s State) []Event {
	order := []Event{
		EventBegin, EventFaceCaptured, EventDocumentUploaded, EventSignedUp,
		EventSubmit, EventVerified, EventFailed, EventBack, EventReset,
	}
	out := make([]Event, 0, len(transitions[s]))
	for _, e := range order {
		if _, ok := transitions[s][e]; ok {
			out = append(out, e)
		}
	}
	return out
}
