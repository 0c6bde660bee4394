package damper

import (
	"bytes"
	"fmt"
	"reflect"
)

// Comparator is a caller-supplied equality predicate over two snapshots.
// It must be symmetric and deterministic; the detector does not enforce
// this. Supplying a Comparator replaces the serialize strategy entirely.
type Comparator func(prev, curr Snapshot) bool

// detector tracks comparison state between evaluations. Exactly one
// comparison basis is active: the serialized encoding of the previous
// snapshot (default) or the previous snapshot itself (comparator strategy).
// The owner seeds the baseline via accept at startup; while unseeded,
// every evaluation reports a change.
type detector struct {
	serializer Serializer
	comparator Comparator
	shallow    bool

	hasPrev     bool
	prevEncoded []byte
	prevSnap    Snapshot
}

// changed reports whether curr differs from the last accepted snapshot and
// accepts curr as the new comparison state when it does. Rejected
// evaluations leave the prior state untouched. Serialization errors
// propagate to the caller of the detection step.
func (d *detector) changed(curr Snapshot) (bool, error) {
	if d.comparator != nil {
		if d.hasPrev && d.comparator(d.prevSnap, curr) {
			return false, nil
		}
		d.accept(curr)
		return true, nil
	}

	enc, err := d.serializer.Marshal(d.view(curr))
	if err != nil {
		return false, fmt.Errorf("serialize snapshot: %w", err)
	}
	if d.hasPrev && bytes.Equal(enc, d.prevEncoded) {
		return false, nil
	}
	d.prevSnap = curr
	d.prevEncoded = enc
	d.hasPrev = true
	return true, nil
}

// accept unconditionally records curr as the comparison state. Used by the
// override and init paths, which bypass change detection but still count as
// accepted saves.
func (d *detector) accept(curr Snapshot) {
	d.prevSnap = curr
	if d.comparator == nil {
		enc, err := d.serializer.Marshal(d.view(curr))
		if err != nil {
			// Encoding unavailable; fall back to unset so the next
			// evaluation reports a change rather than a stale match.
			d.prevEncoded = nil
			d.hasPrev = false
			return
		}
		d.prevEncoded = enc
	}
	d.hasPrev = true
}

// previous returns the last accepted snapshot, or nil if none.
func (d *detector) previous() Snapshot {
	return d.prevSnap
}

// view returns the snapshot as seen by the serializer. In shallow mode only
// scalar top-level fields participate in detection.
func (d *detector) view(curr Snapshot) Snapshot {
	if !d.shallow {
		return curr
	}
	out := make(Snapshot, len(curr))
	for name, value := range curr {
		if value == nil {
			out[name] = nil
			continue
		}
		switch reflect.ValueOf(value).Kind() {
		case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct,
			reflect.Pointer, reflect.Func, reflect.Chan:
			continue
		default:
			out[name] = value
		}
	}
	return out
}
