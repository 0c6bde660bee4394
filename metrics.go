package damper

import "time"

// MetricsProvider allows integration with metrics systems like Prometheus, StatsD, etc.
// Implement this interface to receive callbacks on key scheduler events.
type MetricsProvider interface {
	// OnStateChange is called when the executor transitions between states.
	OnStateChange(from, to State)

	// OnChangeNotified is called when the host signals a source change.
	OnChangeNotified()

	// OnSaveSuccess is called when a save attempt completes successfully.
	// Duration covers the full attempt (hooks and save action).
	OnSaveSuccess(duration time.Duration)

	// OnSaveFailure is called when a save attempt fails at any stage.
	// Stage is one of "detect", "before", "save", or "after".
	OnSaveFailure(stage string, duration time.Duration)

	// OnBlocked is called when watching is suppressed, with the window duration.
	OnBlocked(window time.Duration)

	// OnUnblocked is called when watching resumes.
	OnUnblocked()
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Use this as an embedded type to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnStateChange(_, _ State)                {}
func (NoOpMetricsProvider) OnChangeNotified()                       {}
func (NoOpMetricsProvider) OnSaveSuccess(_ time.Duration)           {}
func (NoOpMetricsProvider) OnSaveFailure(_ string, _ time.Duration) {}
func (NoOpMetricsProvider) OnBlocked(_ time.Duration)               {}
func (NoOpMetricsProvider) OnUnblocked()                            {}
