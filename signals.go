package damper

import "github.com/zoobzio/capitan"

// AutoSaver lifecycle signals.
var (
	// SaverStarted is emitted when an AutoSaver begins watching.
	SaverStarted = capitan.NewSignal(
		"damper.saver.started",
		"AutoSaver watching started",
	)

	// SaverStopped is emitted when an AutoSaver stops watching.
	SaverStopped = capitan.NewSignal(
		"damper.saver.stopped",
		"AutoSaver watching stopped",
	)

	// SaverStateChanged is emitted when the executor transitions between states.
	SaverStateChanged = capitan.NewSignal(
		"damper.saver.state.changed",
		"Executor state transition",
	)
)

// Change evaluation signals.
var (
	// ChangeNotified is emitted when the host signals a source change.
	ChangeNotified = capitan.NewSignal(
		"damper.change.notified",
		"Change notification received from host",
	)

	// ChangeDetected is emitted when an evaluation accepts a new snapshot.
	ChangeDetected = capitan.NewSignal(
		"damper.change.detected",
		"Snapshot differs from last accepted state",
	)

	// DetectFailed is emitted when snapshot serialization fails during detection.
	DetectFailed = capitan.NewSignal(
		"damper.change.detect.failed",
		"Snapshot serialization failed",
	)
)

// Save execution signals.
var (
	// SaveSkipped is emitted when a trigger fires while watching is blocked.
	SaveSkipped = capitan.NewSignal(
		"damper.save.skipped",
		"Save rejected by block guard",
	)

	// SaveSucceeded is emitted when a save attempt completes successfully.
	SaveSucceeded = capitan.NewSignal(
		"damper.save.succeeded",
		"Save action completed",
	)

	// SaveFailed is emitted when any stage of a save attempt fails.
	SaveFailed = capitan.NewSignal(
		"damper.save.failed",
		"Save attempt failed",
	)
)

// Block control signals.
var (
	// WatcherBlocked is emitted when watching is temporarily suppressed.
	WatcherBlocked = capitan.NewSignal(
		"damper.watcher.blocked",
		"Watching suppressed",
	)

	// WatcherUnblocked is emitted when watching resumes.
	WatcherUnblocked = capitan.NewSignal(
		"damper.watcher.unblocked",
		"Watching resumed",
	)
)
