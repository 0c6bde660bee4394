package damper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/pipz"
)

// DefaultDebounce is the default delay after the last detected change
// before the save action runs.
const DefaultDebounce = 3 * time.Second

// DefaultBlock is the default watch-suppression window for Block.
const DefaultBlock = time.Second

// Debug log lines. The exact text is part of the observable contract.
const (
	debugDetected = "[AutoSave] Detected changes. Saving..."
	debugSuccess  = "[AutoSave] Save successful."
	debugFailure  = "[AutoSave] Save failed: %v"
)

// Executor pipeline stage names.
const (
	beforeID    = "before-save"
	saveID      = "save"
	afterID     = "after-save"
	attemptID   = "attempt"
	handlerID   = "error-handler"
	errorHookID = "error-hook"
)

var errNotStarted = errors.New("autosaver not started")

// command carries a control operation into the scheduler loop.
type command struct {
	kind    commandKind
	window  time.Duration // block window
	delay   time.Duration // delayed-unblock save delay
	delayed bool
}

type commandKind int

const (
	cmdBlock commandKind = iota
	cmdUnblock
	cmdFlush
)

// AutoSaver watches form-like state for meaningful changes, debounces them,
// and invokes a save action with lifecycle hooks and temporary blocking
// controls.
//
// Change notification is message-passing: the host calls Touch whenever the
// watched object may have changed. The AutoSaver derives a filtered snapshot
// fresh on every evaluation, compares it to the last accepted state, and
// schedules a single save per burst of changes.
//
// All save execution runs on the scheduler goroutine, so saves never
// overlap. Notifications arriving while a save is in flight coalesce and
// are evaluated afterwards.
type AutoSaver struct {
	source Source
	save   SaveFunc
	opts   []Option

	debounce    time.Duration
	skip        map[string]struct{}
	skipHelpers bool
	saveOnInit  bool
	syncMode    bool
	debug       bool
	logf        func(format string, args ...any)
	clock       clockz.Clock
	metrics     MetricsProvider
	onStop      func(State)

	before  Hook
	after   Hook
	onError ErrorHook

	det      detector
	pipeline pipz.Chainable[*Attempt]
	stage    string // last executor stage entered; loop-confined

	state     atomic.Int32
	saving    atomic.Bool
	blocked   atomic.Bool
	lastError atomic.Pointer[error]
	history   *errorRing

	mu       sync.Mutex
	started  bool
	runCtx   context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once

	execMu sync.Mutex // serializes sync-mode evaluation

	touches  chan struct{}
	commands chan command
}

// New creates an AutoSaver for the given source and save action.
//
// The source supplies the current field values of the watched object; the
// save action receives the filtered snapshot to persist. Pipeline options
// (With*) configure the executor pipeline. Instance configuration uses
// chainable methods before calling Start().
//
// Example:
//
//	saver := damper.New(form, func(ctx context.Context, snap damper.Snapshot) error {
//	    return client.Persist(ctx, snap)
//	}).Debounce(2 * time.Second).SkipFields("draft")
func New(source Source, save SaveFunc, opts ...Option) *AutoSaver {
	s := &AutoSaver{
		source:      source,
		save:        save,
		opts:        opts,
		debounce:    DefaultDebounce,
		skip:        map[string]struct{}{},
		skipHelpers: true,
		logf:        log.Printf,
		clock:       clockz.RealClock,
		touches:     make(chan struct{}, 1),
		commands:    make(chan command, 8),
	}
	s.det.serializer = JSONSerializer{}
	s.state.Store(int32(StateIdle))
	return s
}

// -----------------------------------------------------------------------------
// Chainable Instance Configuration
// -----------------------------------------------------------------------------

// Debounce sets the delay after the last change notification before the
// save action runs. Notifications arriving within this window are coalesced
// into a single save. Default: 3s. Must be called before Start().
func (s *AutoSaver) Debounce(d time.Duration) *AutoSaver {
	s.debounce = d
	return s
}

// SkipFields excludes the named fields from snapshots. Mutations visible
// only through skipped fields never trigger a save.
// Must be called before Start().
func (s *AutoSaver) SkipFields(names ...string) *AutoSaver {
	for _, name := range names {
		s.skip[name] = struct{}{}
	}
	return s
}

// KeepHelperFields disables the default exclusion of form-helper
// bookkeeping fields (processing, errors, isDirty, request-verb methods,
// and so on). Must be called before Start().
func (s *AutoSaver) KeepHelperFields() *AutoSaver {
	s.skipHelpers = false
	return s
}

// Shallow restricts the default change detection to scalar top-level
// fields. Mutations inside nested maps, slices, or structs do not register.
// Must be called before Start().
func (s *AutoSaver) Shallow() *AutoSaver {
	s.det.shallow = true
	return s
}

// Serializer sets the stable encoding used by the default detection
// strategy. Default: JSONSerializer. Must be called before Start().
func (s *AutoSaver) Serializer(serializer Serializer) *AutoSaver {
	s.det.serializer = serializer
	return s
}

// Comparator switches detection to an equality predicate over snapshots,
// replacing the serialize strategy. Must be called before Start().
func (s *AutoSaver) Comparator(fn Comparator) *AutoSaver {
	s.det.comparator = fn
	return s
}

// SaveOnInit requests one unconditional save during Start, before any
// change is observed. Start returns that save's error, then watching
// continues normally. Must be called before Start().
func (s *AutoSaver) SaveOnInit() *AutoSaver {
	s.saveOnInit = true
	return s
}

// Debug enables the fixed-text diagnostic log lines on the save path.
// Must be called before Start().
func (s *AutoSaver) Debug() *AutoSaver {
	s.debug = true
	return s
}

// Logger sets the destination for debug log lines. Default: log.Printf.
// Must be called before Start().
func (s *AutoSaver) Logger(logf func(format string, args ...any)) *AutoSaver {
	s.logf = logf
	return s
}

// Clock sets a custom clock for time operations.
// Use this with clockz.FakeClock for deterministic debounce testing.
// Must be called before Start().
func (s *AutoSaver) Clock(clock clockz.Clock) *AutoSaver {
	s.clock = clock
	return s
}

// SyncMode enables synchronous processing for testing. In sync mode there
// is no scheduler goroutine and no timers: Touch and Flush evaluate
// immediately, Block suppresses watching until Unblock is called (the
// window duration is ignored), and UnblockAfter saves immediately.
// Must be called before Start().
func (s *AutoSaver) SyncMode() *AutoSaver {
	s.syncMode = true
	return s
}

// Metrics sets a metrics provider for observability integration.
// Must be called before Start().
func (s *AutoSaver) Metrics(provider MetricsProvider) *AutoSaver {
	s.metrics = provider
	return s
}

// OnBeforeSave sets a hook invoked before the save action. If it returns
// an error the save action is never invoked and the error is routed to the
// error hook. Must be called before Start().
func (s *AutoSaver) OnBeforeSave(fn Hook) *AutoSaver {
	s.before = fn
	return s
}

// OnAfterSave sets a hook invoked after the save action succeeds. A failure
// here is routed to the error hook; the save itself remains accepted.
// Must be called before Start().
func (s *AutoSaver) OnAfterSave(fn Hook) *AutoSaver {
	s.after = fn
	return s
}

// OnError sets the hook receiving failures from any stage of a save
// attempt. Must be called before Start().
func (s *AutoSaver) OnError(fn ErrorHook) *AutoSaver {
	s.onError = fn
	return s
}

// OnStop sets a callback invoked when the AutoSaver stops watching, with
// the final state. Must be called before Start().
func (s *AutoSaver) OnStop(fn func(State)) *AutoSaver {
	s.onStop = fn
	return s
}

// ErrorHistorySize sets the number of recent errors to retain. Use 0
// (default) to only retain the most recent error via LastError().
// Must be called before Start().
func (s *AutoSaver) ErrorHistorySize(n int) *AutoSaver {
	s.history = newErrorRing(n)
	return s
}

// -----------------------------------------------------------------------------
// Observables
// -----------------------------------------------------------------------------

// State returns the current executor state.
func (s *AutoSaver) State() State {
	return State(s.state.Load())
}

// IsSaving reports whether a save attempt is currently in flight.
func (s *AutoSaver) IsSaving() bool {
	return s.saving.Load()
}

// Blocked reports whether watching is currently suppressed.
func (s *AutoSaver) Blocked() bool {
	return s.blocked.Load()
}

// LastError returns the last error encountered, or nil. Cleared on the
// next successful save.
func (s *AutoSaver) LastError() error {
	ptr := s.lastError.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// ErrorHistory returns the recent error history, oldest first.
// Returns nil unless enabled via ErrorHistorySize.
func (s *AutoSaver) ErrorHistory() []error {
	return s.history.recent()
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Start begins watching. The comparison baseline is seeded from the
// current filtered snapshot, so a trigger whose only visible mutations are
// skipped or helper fields never fires. If SaveOnInit was requested, the
// initial unconditional save runs synchronously and its error is returned;
// watching continues regardless. Start can only be called once.
func (s *AutoSaver) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("autosaver already started")
	}
	s.started = true
	s.assemblePipeline()
	s.runCtx, s.cancel = context.WithCancel(ctx)
	runCtx := s.runCtx
	s.mu.Unlock()

	capitan.Emit(ctx, SaverStarted,
		KeyDebounce.Field(s.debounce),
	)

	var initialErr error
	if s.saveOnInit {
		s.execMu.Lock()
		initialErr = s.execute(runCtx, ReasonInit)
		s.execMu.Unlock()
	} else {
		// The init save seeds the baseline itself via the accept path.
		s.det.accept(filterSnapshot(s.source.Snapshot(), s.skip, s.skipHelpers))
	}

	if s.syncMode {
		return initialErr
	}

	go s.run(runCtx)

	return initialErr
}

// Stop tears the AutoSaver down: pending timers are released and no further
// saves execute. Safe to call more than once.
func (s *AutoSaver) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	runCtx := s.runCtx
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	if s.syncMode {
		s.finalize(runCtx)
	}
}

// finalize records the stopped state and fires the stop callback once.
func (s *AutoSaver) finalize(ctx context.Context) {
	s.stopOnce.Do(func() {
		old := State(s.state.Swap(int32(StateStopped)))
		if old != StateStopped {
			capitan.Emit(ctx, SaverStateChanged,
				KeyOldState.Field(old.String()),
				KeyNewState.Field(StateStopped.String()),
			)
			if s.metrics != nil {
				s.metrics.OnStateChange(old, StateStopped)
			}
		}
		capitan.Emit(ctx, SaverStopped,
			KeyState.Field(StateStopped.String()),
		)
		if s.onStop != nil {
			s.onStop(StateStopped)
		}
	})
}

// -----------------------------------------------------------------------------
// Triggers and blocking controls
// -----------------------------------------------------------------------------

// Touch notifies the AutoSaver that the watched object may have changed.
// It (re)starts the debounce window; only the window started by the last
// notification in a burst fires. In sync mode the evaluation runs
// immediately instead, with any error stored via LastError.
func (s *AutoSaver) Touch() {
	runCtx, ok := s.running()
	if !ok {
		return
	}
	if s.syncMode {
		s.execMu.Lock()
		_ = s.execute(runCtx, ReasonChange) //nolint:errcheck // Errors stored via setError
		s.execMu.Unlock()
		return
	}
	select {
	case s.touches <- struct{}{}:
	case <-runCtx.Done():
	default:
		// A notification is already queued; the loop will observe the
		// newest source state when it evaluates.
	}
}

// Flush cancels any pending debounce window and evaluates immediately,
// still subject to the block guard and change detection. In sync mode the
// evaluation's error is returned; in async mode the evaluation runs on the
// scheduler goroutine and Flush returns nil.
func (s *AutoSaver) Flush() error {
	runCtx, ok := s.running()
	if !ok {
		return errNotStarted
	}
	if s.syncMode {
		s.execMu.Lock()
		defer s.execMu.Unlock()
		return s.execute(runCtx, ReasonChange)
	}
	s.send(runCtx, command{kind: cmdFlush})
	return nil
}

// Block suppresses watching for the given window (DefaultBlock when
// d <= 0). Any pending debounce or delayed-unblock timer is cancelled, and
// triggers firing while blocked are rejected by the save guard. Watching
// resumes automatically when the window elapses.
func (s *AutoSaver) Block(d time.Duration) {
	if d <= 0 {
		d = DefaultBlock
	}
	runCtx, ok := s.running()
	if !ok {
		return
	}
	if s.syncMode {
		s.blocked.Store(true)
		capitan.Emit(runCtx, WatcherBlocked,
			KeyBlockDuration.Field(d),
		)
		if s.metrics != nil {
			s.metrics.OnBlocked(d)
		}
		return
	}
	s.send(runCtx, command{kind: cmdBlock, window: d})
}

// Unblock re-enables watching immediately, cancels pending timers, and
// invokes the save action unconditionally, bypassing change detection.
// In sync mode the save's error is returned; in async mode the save runs
// on the scheduler goroutine and Unblock returns nil.
func (s *AutoSaver) Unblock() error {
	runCtx, ok := s.running()
	if !ok {
		return errNotStarted
	}
	if s.syncMode {
		s.unblockSync(runCtx)
		s.execMu.Lock()
		defer s.execMu.Unlock()
		return s.execute(runCtx, ReasonOverride)
	}
	s.send(runCtx, command{kind: cmdUnblock})
	return nil
}

// UnblockAfter re-enables watching immediately, cancels pending timers,
// and schedules one unconditional save after the given delay. In sync mode
// the delay is ignored and the save runs immediately.
func (s *AutoSaver) UnblockAfter(d time.Duration) {
	runCtx, ok := s.running()
	if !ok {
		return
	}
	if s.syncMode {
		s.unblockSync(runCtx)
		s.execMu.Lock()
		_ = s.execute(runCtx, ReasonOverride) //nolint:errcheck // Errors stored via setError
		s.execMu.Unlock()
		return
	}
	s.send(runCtx, command{kind: cmdUnblock, delayed: true, delay: d})
}

func (s *AutoSaver) unblockSync(ctx context.Context) {
	s.blocked.Store(false)
	capitan.Emit(ctx, WatcherUnblocked)
	if s.metrics != nil {
		s.metrics.OnUnblocked()
	}
}

// running returns the run context when Start has been called.
func (s *AutoSaver) running() (context.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.runCtx == nil {
		return nil, false
	}
	return s.runCtx, true
}

// send delivers a command to the scheduler loop unless it has shut down.
func (s *AutoSaver) send(ctx context.Context, cmd command) {
	select {
	case s.commands <- cmd:
	case <-ctx.Done():
	}
}

// -----------------------------------------------------------------------------
// Scheduler loop
// -----------------------------------------------------------------------------

// run owns every timer and all save execution. Three timers exist, each
// replaced rather than accumulated: the debounce window, the block window,
// and the delayed-unblock override.
func (s *AutoSaver) run(ctx context.Context) {
	defer s.finalize(ctx)

	var (
		debounce clockz.Timer
		blockT   clockz.Timer
		override clockz.Timer
	)

	stop := func(t clockz.Timer) clockz.Timer {
		if t != nil {
			t.Stop()
		}
		return nil
	}

	for {
		var debounceC, blockC, overrideC <-chan time.Time
		if debounce != nil {
			debounceC = debounce.C()
		}
		if blockT != nil {
			blockC = blockT.C()
		}
		if override != nil {
			overrideC = override.C()
		}

		select {
		case <-ctx.Done():
			stop(debounce)
			stop(blockT)
			stop(override)
			return

		case <-s.touches:
			capitan.Emit(ctx, ChangeNotified)
			if s.metrics != nil {
				s.metrics.OnChangeNotified()
			}
			debounce = stop(debounce)
			debounce = s.clock.NewTimer(s.debounce)

		case cmd := <-s.commands:
			switch cmd.kind {
			case cmdBlock:
				debounce = stop(debounce)
				override = stop(override)
				blockT = stop(blockT)
				s.blocked.Store(true)
				capitan.Emit(ctx, WatcherBlocked,
					KeyBlockDuration.Field(cmd.window),
				)
				if s.metrics != nil {
					s.metrics.OnBlocked(cmd.window)
				}
				blockT = s.clock.NewTimer(cmd.window)

			case cmdUnblock:
				debounce = stop(debounce)
				override = stop(override)
				blockT = stop(blockT)
				s.blocked.Store(false)
				capitan.Emit(ctx, WatcherUnblocked)
				if s.metrics != nil {
					s.metrics.OnUnblocked()
				}
				if cmd.delayed {
					override = s.clock.NewTimer(cmd.delay)
				} else {
					_ = s.execute(ctx, ReasonOverride) //nolint:errcheck // Errors stored via setError
				}

			case cmdFlush:
				debounce = stop(debounce)
				_ = s.execute(ctx, ReasonChange) //nolint:errcheck // Errors stored via setError
			}

		case <-debounceC:
			debounce = nil
			_ = s.execute(ctx, ReasonChange) //nolint:errcheck // Errors stored via setError

		case <-blockC:
			blockT = nil
			s.blocked.Store(false)
			capitan.Emit(ctx, WatcherUnblocked)
			if s.metrics != nil {
				s.metrics.OnUnblocked()
			}

		case <-overrideC:
			override = nil
			_ = s.execute(ctx, ReasonOverride) //nolint:errcheck // Errors stored via setError
		}
	}
}

// -----------------------------------------------------------------------------
// Save executor
// -----------------------------------------------------------------------------

// execute evaluates the source and runs one guarded save attempt.
// Entry guard: watching enabled AND (change detected OR reason overrides
// detection). Comparison state advances only on accepted evaluations.
func (s *AutoSaver) execute(ctx context.Context, reason Reason) error {
	if s.blocked.Load() {
		capitan.Emit(ctx, SaveSkipped,
			KeyReason.Field(reason.String()),
		)
		return nil
	}

	start := s.clock.Now()
	snap := filterSnapshot(s.source.Snapshot(), s.skip, s.skipHelpers)
	prev := s.det.previous()

	if reason == ReasonChange {
		changed, err := s.det.changed(snap)
		if err != nil {
			s.setError(err)
			capitan.Emit(ctx, DetectFailed,
				KeyError.Field(err.Error()),
			)
			if s.metrics != nil {
				s.metrics.OnSaveFailure("detect", s.clock.Since(start))
			}
			if s.onError != nil {
				s.onError(ctx, err)
			}
			return err
		}
		if !changed {
			return nil
		}
		if s.debug {
			s.logf(debugDetected)
		}
	} else {
		s.det.accept(snap)
	}

	capitan.Emit(ctx, ChangeDetected,
		KeyReason.Field(reason.String()),
		KeyFieldCount.Field(len(snap)),
	)

	s.transition(ctx, StateSaving)
	s.saving.Store(true)

	attempt := &Attempt{Previous: prev, Current: snap, Reason: reason}
	_, err := s.pipeline.Process(ctx, attempt)

	s.saving.Store(false)
	s.transition(ctx, StateIdle)

	if err != nil {
		s.setError(err)
		capitan.Emit(ctx, SaveFailed,
			KeyError.Field(err.Error()),
			KeyReason.Field(reason.String()),
		)
		if s.metrics != nil {
			s.metrics.OnSaveFailure(s.stage, s.clock.Since(start))
		}
		if s.debug {
			s.logf(debugFailure, err)
		}
		return err
	}

	s.lastError.Store(nil)
	s.history.reset()
	capitan.Emit(ctx, SaveSucceeded,
		KeyReason.Field(reason.String()),
	)
	if s.metrics != nil {
		s.metrics.OnSaveSuccess(s.clock.Since(start))
	}
	if s.debug {
		s.logf(debugSuccess)
	}
	return nil
}

// transition updates the executor state and emits a change event.
func (s *AutoSaver) transition(ctx context.Context, newState State) {
	old := State(s.state.Swap(int32(newState)))
	if old == newState {
		return
	}
	capitan.Emit(ctx, SaverStateChanged,
		KeyOldState.Field(old.String()),
		KeyNewState.Field(newState.String()),
	)
	if s.metrics != nil {
		s.metrics.OnStateChange(old, newState)
	}
}

// setError stores an error atomically and adds it to the error history.
func (s *AutoSaver) setError(err error) {
	e := err
	s.lastError.Store(&e)
	s.history.record(err)
}

// assemblePipeline composes the executor pipeline: optional before hook,
// save action, optional after hook, caller middleware, and an error handler
// routing every failure to the error hook.
func (s *AutoSaver) assemblePipeline() {
	stages := make([]pipz.Chainable[*Attempt], 0, 3)
	if s.before != nil {
		stages = append(stages, pipz.Effect(beforeID, func(ctx context.Context, a *Attempt) error {
			s.stage = "before"
			if err := s.before(ctx, a); err != nil {
				return fmt.Errorf("before-save hook: %w", err)
			}
			return nil
		}))
	}
	stages = append(stages, pipz.Effect(saveID, func(ctx context.Context, a *Attempt) error {
		s.stage = "save"
		if err := s.save(ctx, a.Current); err != nil {
			return fmt.Errorf("save action: %w", err)
		}
		return nil
	}))
	if s.after != nil {
		stages = append(stages, pipz.Effect(afterID, func(ctx context.Context, a *Attempt) error {
			s.stage = "after"
			if err := s.after(ctx, a); err != nil {
				return fmt.Errorf("after-save hook: %w", err)
			}
			return nil
		}))
	}

	var pipeline pipz.Chainable[*Attempt]
	if len(stages) == 1 {
		pipeline = stages[0]
	} else {
		pipeline = pipz.NewSequence(attemptID, stages...)
	}
	pipeline = buildPipeline(pipeline, s.opts)

	s.pipeline = pipz.NewHandle(handlerID, pipeline,
		pipz.Effect(errorHookID, func(ctx context.Context, pe *pipz.Error[*Attempt]) error {
			if s.onError != nil {
				s.onError(ctx, pe.Err)
			}
			return nil
		}))
}
