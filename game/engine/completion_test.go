package engine

import "testing"

func TestCompletion_ResolveOnce(t *testing.T) {
	c := NewCompletion()
	calls := 0
	c.Then(func() { calls++ })

	if c.Done() {
		t.Fatal("Expected new completion to be pending")
	}
	c.Resolve()
	c.Resolve()

	if calls != 1 {
		t.Errorf("Expected continuation to run once, ran %d times", calls)
	}
	if !c.Done() {
		t.Error("Expected completion to be done")
	}
}

func TestCompletion_ThenAfterResolve(t *testing.T) {
	c := Resolved()
	ran := false
	c.Then(func() { ran = true })
	if !ran {
		t.Error("Expected continuation on resolved completion to run immediately")
	}
}

func TestCompletion_Order(t *testing.T) {
	c := NewCompletion()
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		c.Then(func() { order = append(order, i) })
	}
	c.Resolve()
	for i, v := range order {
		if v != i {
			t.Fatalf("Expected continuations in registration order, got %v", order)
		}
	}
}
