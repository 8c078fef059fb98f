package turn

import "strings"

// State is the conversational state of a voice session.
type State int

const (
	StateIdle State = iota
	StateListening
	StateThinking
	StateSpeaking
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateThinking:
		return "thinking"
	case StateSpeaking:
		return "speaking"
	default:
		return "unknown"
	}
}

// Label returns the status text announced by screen readers for the state.
func (s State) Label() string {
	switch s {
	case StateListening:
		return "Voice is listening"
	case StateThinking:
		return "Voice is processing"
	case StateSpeaking:
		return "Voice is speaking"
	default:
		return "Voice is idle"
	}
}

// ParseState resolves a state name as produced by String.
func ParseState(v string) (State, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "idle":
		return StateIdle, true
	case "listening":
		return StateListening, true
	case "thinking":
		return StateThinking, true
	case "speaking":
		return StateSpeaking, true
	default:
		return StateIdle, false
	}
}

// States lists every state in declaration order.
func States() []State {
	return []State{StateIdle, StateListening, StateThinking, StateSpeaking}
}

// Action is a symbolic input to Transition. Values outside the declared
// constants are valid and leave the state unchanged.
type Action string

const (
	ActionToggleMic      Action = "TOGGLE_MIC"
	ActionStartListening Action = "START_LISTENING"
	ActionStopListening  Action = "STOP_LISTENING"
	ActionStartThinking  Action = "START_THINKING"
	ActionStartSpeaking  Action = "START_SPEAKING"
	ActionStopSpeaking   Action = "STOP_SPEAKING"
	ActionInterrupt      Action = "INTERRUPT"
	ActionReset          Action = "RESET"
)

// Actions lists the recognised actions.
func Actions() []Action {
	return []Action{
		ActionToggleMic,
		ActionStartListening,
		ActionStopListening,
		ActionStartThinking,
		ActionStartSpeaking,
		ActionStopSpeaking,
		ActionInterrupt,
		ActionReset,
	}
}

// ParseAction normalizes an action name ("toggle-mic" -> TOGGLE_MIC).
// Unknown names are returned as-is in upper case.
func ParseAction(v string) Action {
	v = strings.ToUpper(strings.TrimSpace(v))
	v = strings.ReplaceAll(v, "-", "_")
	v = strings.ReplaceAll(v, " ", "_")
	return Action(v)
}
