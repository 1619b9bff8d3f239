package core

import "testing"

func TestEvent_Handled(t *testing.T) {
	tests := []struct {
		name string
		ev   *Event
		want bool
	}{
		{"nil event", nil, false},
		{"no result yet", &Event{V: 1}, false},
		{"result set, no error", &Event{V: 1, Result: map[string]any{"foo": 1}}, true},
		{"result set, error present", &Event{V: 1, Result: map[string]any{"foo": 1}, Error: map[string]any{"_handle": "x"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ev.Handled(); got != tt.want {
				t.Errorf("Handled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvent_Failed(t *testing.T) {
	if (&Event{}).Failed() {
		t.Error("Failed() = true for event with no error, want false")
	}
	if !(&Event{Error: map[string]any{"_handle": "boom"}}).Failed() {
		t.Error("Failed() = false for event with error, want true")
	}
}

func TestPipelineError_Merge(t *testing.T) {
	e := PipelineError{"_reduce_foo": "bad"}
	e.Merge(map[string]any{"_derive_bar": "worse"})
	if e["_reduce_foo"] != "bad" || e["_derive_bar"] != "worse" {
		t.Errorf("Merge did not combine maps correctly: %#v", e)
	}
}

func TestReduction_IsEmpty(t *testing.T) {
	if !(Reduction{}).IsEmpty() {
		t.Error("zero Reduction should be empty")
	}
	if (Reduction{Set: []Row{{ID: "a"}}}).IsEmpty() {
		t.Error("Reduction with Set should not be empty")
	}
	if (Reduction{Events: []ChildEventSpec{{Type: "x"}}}).IsEmpty() {
		t.Error("Reduction with only Events should not be empty")
	}
}
