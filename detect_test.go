package damper

import "testing"

func TestDetector_FirstEvaluationAlwaysChanged(t *testing.T) {
	d := &detector{serializer: JSONSerializer{}}

	changed, err := d.changed(Snapshot{"title": "draft"})
	if err != nil {
		t.Fatalf("changed failed: %v", err)
	}
	if !changed {
		t.Error("expected first evaluation to report changed")
	}
}

func TestDetector_IdenticalSnapshotsNotChanged(t *testing.T) {
	d := &detector{serializer: JSONSerializer{}}

	if _, err := d.changed(Snapshot{"title": "draft", "count": 1}); err != nil {
		t.Fatalf("changed failed: %v", err)
	}

	// Structurally identical, fresh map.
	changed, err := d.changed(Snapshot{"count": 1, "title": "draft"})
	if err != nil {
		t.Fatalf("changed failed: %v", err)
	}
	if changed {
		t.Error("expected structurally identical snapshot to not report changed")
	}
}

func TestDetector_SingleFieldDifferenceChanged(t *testing.T) {
	d := &detector{serializer: JSONSerializer{}}

	if _, err := d.changed(Snapshot{"title": "draft", "count": 1}); err != nil {
		t.Fatalf("changed failed: %v", err)
	}

	changed, err := d.changed(Snapshot{"title": "draft", "count": 2})
	if err != nil {
		t.Fatalf("changed failed: %v", err)
	}
	if !changed {
		t.Error("expected single field difference to report changed")
	}
}

func TestDetector_RejectedEvaluationLeavesStateUntouched(t *testing.T) {
	d := &detector{serializer: JSONSerializer{}}

	if _, err := d.changed(Snapshot{"title": "a"}); err != nil {
		t.Fatalf("changed failed: %v", err)
	}
	if changed, _ := d.changed(Snapshot{"title": "b"}); !changed {
		t.Fatal("expected change to b")
	}

	// Rejected evaluation (same as accepted state).
	if changed, _ := d.changed(Snapshot{"title": "b"}); changed {
		t.Fatal("expected no change")
	}

	// Prior state is still b, so returning to a registers.
	if changed, _ := d.changed(Snapshot{"title": "a"}); !changed {
		t.Error("expected change back to a to register")
	}
}

func TestDetector_SerializationErrorPropagates(t *testing.T) {
	d := &detector{serializer: JSONSerializer{}}

	_, err := d.changed(Snapshot{"pipe": make(chan int)})
	if err == nil {
		t.Fatal("expected serialization error")
	}

	// Detector state remains unset; a valid snapshot still reports changed.
	changed, err := d.changed(Snapshot{"title": "draft"})
	if err != nil {
		t.Fatalf("changed failed: %v", err)
	}
	if !changed {
		t.Error("expected changed after failed evaluation")
	}
}

func TestDetector_ComparatorStrategy(t *testing.T) {
	d := &detector{comparator: func(prev, curr Snapshot) bool {
		return prev["title"] == curr["title"]
	}}

	if changed, _ := d.changed(Snapshot{"title": "a"}); !changed {
		t.Fatal("expected first evaluation changed")
	}
	if changed, _ := d.changed(Snapshot{"title": "a", "other": 1}); changed {
		t.Error("expected comparator equality to suppress change")
	}
	if changed, _ := d.changed(Snapshot{"title": "b"}); !changed {
		t.Error("expected comparator inequality to report changed")
	}
}

func TestDetector_AcceptOverridesState(t *testing.T) {
	d := &detector{serializer: JSONSerializer{}}

	if _, err := d.changed(Snapshot{"title": "a"}); err != nil {
		t.Fatalf("changed failed: %v", err)
	}

	d.accept(Snapshot{"title": "b"})

	if changed, _ := d.changed(Snapshot{"title": "b"}); changed {
		t.Error("expected accepted snapshot to be the comparison state")
	}
}

func TestDetector_ShallowIgnoresNestedMutations(t *testing.T) {
	d := &detector{serializer: JSONSerializer{}, shallow: true}

	nested := map[string]any{"x": 1}
	if _, err := d.changed(Snapshot{"title": "a", "meta": nested}); err != nil {
		t.Fatalf("changed failed: %v", err)
	}

	// Nested mutation is invisible in shallow mode.
	nested["x"] = 2
	if changed, _ := d.changed(Snapshot{"title": "a", "meta": nested}); changed {
		t.Error("expected nested mutation to be invisible in shallow mode")
	}

	// Scalar top-level change still registers.
	if changed, _ := d.changed(Snapshot{"title": "b", "meta": nested}); !changed {
		t.Error("expected scalar change to register in shallow mode")
	}
}
