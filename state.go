package damper

// State represents the current state of an AutoSaver's save executor.
// Blocking is orthogonal to the executor state; see AutoSaver.Blocked.
type State int32

const (
	// StateIdle indicates no save is currently executing.
	StateIdle State = iota

	// StateSaving indicates a save attempt is in flight. The executor
	// returns to idle whether the attempt succeeds or fails.
	StateSaving

	// StateStopped indicates the AutoSaver has been torn down. No further
	// saves will execute and all timers have been released.
	StateStopped
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSaving:
		return "saving"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
