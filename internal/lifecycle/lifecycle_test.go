package lifecycle

import "testing"

func TestFireNilHook(t *testing.T) {
	var h Hook
	h.Fire(Started) // must not panic
}

func TestFireDelivers(t *testing.T) {
	var got []Change
	h := Hook(func(c Change) { got = append(got, c) })
	h.Fire(Started)
	h.Fire(Completed)
	if len(got) != 2 || got[0] != Started || got[1] != Completed {
		t.Fatalf("unexpected changes %v", got)
	}
	if Completed.String() != "completed" {
		t.Fatalf("unexpected string %q", Completed.String())
	}
}
