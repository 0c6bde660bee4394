/*
Package damper provides debounced autosave scheduling for watched form
state.

The core type is AutoSaver, which derives comparable snapshots of a watched
object, detects meaningful changes, coalesces bursts of changes into a
single save, and invokes a save action with lifecycle hooks and temporary
blocking controls.

# AutoSaver

An AutoSaver processes change notifications through a pipeline:

	Touch → Debounce → Snapshot → Filter → Detect → Save

The host calls Touch whenever the watched object may have changed. After
the debounce window elapses from the last notification, the AutoSaver takes
a fresh snapshot, drops excluded fields, compares the result to the last
accepted state, and runs the save action only when something meaningful
changed.

	saver := damper.New(form, func(ctx context.Context, snap damper.Snapshot) error {
	    return client.Persist(ctx, snap)
	}).Debounce(2 * time.Second)

	if err := saver.Start(ctx); err != nil {
	    log.Printf("initial save failed: %v", err)
	}

# Change Detection

Two strategies are available. The default serializes the filtered snapshot
with a stable encoder (JSONSerializer, or YAMLSerializer via Serializer)
and compares bytes. Supplying a Comparator replaces serialization with an
equality predicate over the previous and current snapshots:

	saver.Comparator(func(prev, curr damper.Snapshot) bool {
	    return prev["title"] == curr["title"]
	})

Form-helper bookkeeping fields (processing, errors, isDirty, request-verb
methods, and so on) are excluded by default so host form libraries never
cause false positives; SkipFields excludes additional fields.

# Blocking

Block suppresses watching for a window, rejecting any trigger that fires
meanwhile; watching resumes automatically. Unblock resumes immediately and
saves unconditionally, bypassing change detection; UnblockAfter does the
same after a delay. These are the override controls for flows like "apply
server state without echoing it back".

# Hooks

OnBeforeSave runs before the save action; an error aborts the attempt
without saving. OnAfterSave runs after a successful save. Failures from any
stage route to OnError. No stage is retried; the scheduler stays healthy
for subsequent attempts.

# Sources

The Source interface abstracts the watched object. The package provides:

  - Form: a mutex-guarded mutable field map that notifies on mutation
  - StructSource: reflection-derived snapshots from a struct pointer,
    with optional validator gating via ValidateHook
  - FileSource: a JSON/YAML document on disk, fed by fsnotify
  - ChannelNotifier: adapts a host event channel to Touch calls

# Single-Flight

All save execution runs on the scheduler goroutine: saves never overlap,
and notifications arriving during a save coalesce and are evaluated after
it completes.
*/
package damper
