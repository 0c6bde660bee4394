package damper

import (
	"context"

	"github.com/zoobzio/pipz"
)

// Reason identifies what triggered a save attempt.
type Reason int

const (
	// ReasonChange is a save triggered by detected changes after the
	// debounce window elapsed.
	ReasonChange Reason = iota

	// ReasonOverride is an unconditional save triggered by unblocking,
	// bypassing change detection.
	ReasonOverride

	// ReasonInit is the unconditional initial save requested via SaveOnInit.
	ReasonInit
)

// String returns the string representation of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonChange:
		return "change"
	case ReasonOverride:
		return "override"
	case ReasonInit:
		return "init"
	default:
		return "unknown"
	}
}

// Attempt carries a save attempt through the executor pipeline. It provides
// access to both the previously accepted and current snapshots, allowing
// pipeline stages and hooks to make decisions based on what changed.
type Attempt struct {
	// Previous is the last accepted snapshot. Nil on the first save.
	Previous Snapshot

	// Current is the snapshot being saved. Pipeline stages may modify it
	// before the save action runs.
	Current Snapshot

	// Reason identifies what triggered this attempt.
	Reason Reason
}

// SaveFunc is the save action invoked with the snapshot to persist.
// It may block; the scheduler runs at most one SaveFunc at a time.
type SaveFunc func(ctx context.Context, snap Snapshot) error

// Hook observes a save attempt. A before-hook error aborts the attempt
// without invoking the save action; see the package documentation for the
// full hook contract.
type Hook func(ctx context.Context, a *Attempt) error

// ErrorHook receives the failure from any stage of a save attempt.
type ErrorHook func(ctx context.Context, err error)

// Terminal is the final processing stage in an executor pipeline.
type Terminal = pipz.Chainable[*Attempt]
