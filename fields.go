package damper

import "github.com/zoobzio/capitan"

// Field keys for AutoSaver events.
var (
	// KeyState is the current state of the executor.
	KeyState = capitan.NewStringKey("state")

	// KeyOldState is the previous state before a transition.
	KeyOldState = capitan.NewStringKey("old_state")

	// KeyNewState is the new state after a transition.
	KeyNewState = capitan.NewStringKey("new_state")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")

	// KeyDebounce is the configured debounce duration.
	KeyDebounce = capitan.NewDurationKey("debounce")

	// KeyBlockDuration is the duration of a block window.
	KeyBlockDuration = capitan.NewDurationKey("block_duration")

	// KeyReason identifies what triggered a save attempt.
	KeyReason = capitan.NewStringKey("reason")

	// KeyFieldCount is the number of fields in the filtered snapshot.
	KeyFieldCount = capitan.NewIntKey("field_count")
)
