package damper

import "testing"

func TestState_String(t *testing.T) {
	cases := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateSaving, "saving"},
		{StateStopped, "stopped"},
		{State(99), "unknown"},
	}

	for _, tc := range cases {
		if got := tc.state.String(); got != tc.want {
			t.Errorf("State(%d).String() = %q, want %q", tc.state, got, tc.want)
		}
	}
}

func TestReason_String(t *testing.T) {
	cases := []struct {
		reason Reason
		want   string
	}{
		{ReasonChange, "change"},
		{ReasonOverride, "override"},
		{ReasonInit, "init"},
		{Reason(99), "unknown"},
	}

	for _, tc := range cases {
		if got := tc.reason.String(); got != tc.want {
			t.Errorf("Reason(%d).String() = %q, want %q", tc.reason, got, tc.want)
		}
	}
}
