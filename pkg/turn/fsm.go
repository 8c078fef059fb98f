package turn

import "time"

// StateChange represents a state transition event.
type StateChange struct {
	From      State
	To        State
	Action    Action
	Reason    string
	Timestamp time.Time
}

// StateListener observes turn state changes.
type StateListener interface {
	OnStateChange(event StateChange)
}

// StateListenerFunc adapts a function to StateListener.
type StateListenerFunc func(event StateChange)

func (f StateListenerFunc) OnStateChange(event StateChange) { f(event) }

// transitions holds the applicable (state, action) pairs. Everything missing
// from the table maps to the current state.
var transitions = map[State]map[Action]State{
	StateIdle: {
		ActionToggleMic:      StateListening,
		ActionStartListening: StateListening,
	},
	StateListening: {
		ActionToggleMic:     StateIdle,
		ActionStopListening: StateIdle,
		ActionStartThinking: StateThinking,
	},
	StateThinking: {
		ActionStartSpeaking: StateSpeaking,
	},
	StateSpeaking: {
		ActionStopSpeaking: StateIdle,
		// Barge-in.
		ActionInterrupt: StateListening,
	},
}

// Transition returns the state that follows current when action is applied.
// It is total: inapplicable and unknown actions return current unchanged,
// and RESET always yields StateIdle.
func Transition(current State, action Action) State {
	if action == ActionReset {
		return StateIdle
	}
	if next, ok := transitions[current][action]; ok {
		return next
	}
	return current
}

// Applicable reports whether action changes current.
func Applicable(current State, action Action) bool {
	return Transition(current, action) != current
}
