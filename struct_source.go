package damper

import (
	"context"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance.
var validate = validator.New()

// StructSource derives snapshots from a struct pointer. Exported fields are
// mapped by their json tag when present, falling back to the field name;
// fields tagged `json:"-"` are omitted.
type StructSource struct {
	mu     sync.RWMutex
	target any
	notify func()
}

// NewStructSource creates a StructSource for the given struct pointer.
func NewStructSource(target any) *StructSource {
	return &StructSource{target: target}
}

// Bind routes Update notifications to saver.Touch.
func (s *StructSource) Bind(saver *AutoSaver) *StructSource {
	s.mu.Lock()
	s.notify = saver.Touch
	s.mu.Unlock()
	return s
}

// Update mutates the target under the source's write lock and notifies the
// bound saver.
func (s *StructSource) Update(fn func()) {
	s.mu.Lock()
	fn()
	notify := s.notify
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// Snapshot returns the current exported field values of the target.
func (s *StructSource) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := reflect.ValueOf(s.target)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	t := v.Type()

	snap := make(Snapshot, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag, ok := field.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		snap[name] = v.Field(i).Interface()
	}
	return snap
}

// ValidateHook returns a Hook that checks the target against its
// go-playground/validator tags. Attach it via OnBeforeSave so invalid state
// aborts the attempt before the save action runs, routed to the error hook.
func (s *StructSource) ValidateHook() Hook {
	return func(_ context.Context, _ *Attempt) error {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return validate.Struct(s.target)
	}
}

// Ensure StructSource implements Source.
var _ Source = (*StructSource)(nil)
