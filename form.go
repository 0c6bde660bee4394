package damper

import "sync"

// Form is a mutex-guarded mutable field map implementing Source. It is the
// host-side form object an AutoSaver typically watches: every mutation
// notifies the bound saver, and Reset restores the values the form was
// created with.
type Form struct {
	mu       sync.RWMutex
	fields   map[string]any
	defaults map[string]any
	dirty    bool
	notify   func()
}

// NewForm creates a Form with the given initial field values. The initial
// values also become the reset defaults.
func NewForm(initial map[string]any) *Form {
	fields := make(map[string]any, len(initial))
	defaults := make(map[string]any, len(initial))
	for name, value := range initial {
		fields[name] = value
		defaults[name] = value
	}
	return &Form{fields: fields, defaults: defaults}
}

// Bind routes every subsequent mutation to saver.Touch.
func (f *Form) Bind(saver *AutoSaver) *Form {
	f.mu.Lock()
	f.notify = saver.Touch
	f.mu.Unlock()
	return f
}

// Set stores a field value, marks the form dirty, and notifies the bound saver.
func (f *Form) Set(name string, value any) {
	f.mu.Lock()
	f.fields[name] = value
	f.dirty = true
	notify := f.notify
	f.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// Get returns a field value and whether it is present.
func (f *Form) Get(name string) (any, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	value, ok := f.fields[name]
	return value, ok
}

// Delete removes a field, marks the form dirty, and notifies the bound saver.
func (f *Form) Delete(name string) {
	f.mu.Lock()
	delete(f.fields, name)
	f.dirty = true
	notify := f.notify
	f.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// Reset restores the initial field values, clears the dirty flag, and
// notifies the bound saver.
func (f *Form) Reset() {
	f.mu.Lock()
	f.fields = make(map[string]any, len(f.defaults))
	for name, value := range f.defaults {
		f.fields[name] = value
	}
	f.dirty = false
	notify := f.notify
	f.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// IsDirty reports whether the form has been mutated since creation or the
// last Reset.
func (f *Form) IsDirty() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dirty
}

// Snapshot returns a copy of the current field values.
func (f *Form) Snapshot() Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	snap := make(Snapshot, len(f.fields))
	for name, value := range f.fields {
		snap[name] = value
	}
	return snap
}

// Ensure Form implements Source.
var _ Source = (*Form)(nil)
