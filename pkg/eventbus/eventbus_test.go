package eventbus

import "testing"

func TestEmitInvokesListenersInRegistrationOrder(t *testing.T) {
	bus := New[string]()

	var order []int
	bus.On("tick", func(args ...any) { order = append(order, 1) })
	bus.On("tick", func(args ...any) { order = append(order, 2) })
	bus.On("tick", func(args ...any) { order = append(order, 3) })

	bus.Emit("tick")

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("listeners ran in order %v, want [1 2 3]", order)
	}
}

func TestEmitPassesArguments(t *testing.T) {
	bus := New[string]()

	var gotPrev, gotNext any
	bus.On("updated", func(args ...any) {
		gotPrev, gotNext = args[0], args[1]
	})

	bus.Emit("updated", "before", "after")

	if gotPrev != "before" || gotNext != "after" {
		t.Errorf("listener got (%v, %v), want (before, after)", gotPrev, gotNext)
	}
}

func TestOffRemovesExactListener(t *testing.T) {
	bus := New[string]()

	var a, b int
	incA := func(args ...any) { a++ }
	incB := func(args ...any) { b++ }

	bus.On("tick", incA)
	bus.On("tick", incB)
	bus.Off("tick", incA)
	bus.Emit("tick")

	if a != 0 {
		t.Errorf("removed listener fired %d times", a)
	}
	if b != 1 {
		t.Errorf("remaining listener fired %d times, want 1", b)
	}
}

func TestCancelRemovesOnlyItsRegistration(t *testing.T) {
	bus := New[string]()

	// Two closures from the same literal share a function pointer, which
	// is exactly what Off cannot distinguish. The cancel handle must.
	counts := make([]int, 2)
	sub := func(i int) func() {
		return bus.On("tick", func(args ...any) { counts[i]++ })
	}
	cancelFirst := sub(0)
	sub(1)

	cancelFirst()
	bus.Emit("tick")

	if counts[0] != 0 {
		t.Errorf("cancelled listener fired %d times", counts[0])
	}
	if counts[1] != 1 {
		t.Errorf("surviving listener fired %d times, want 1", counts[1])
	}
}

func TestCancelTwiceIsNoOp(t *testing.T) {
	bus := New[string]()

	var n int
	cancel := bus.On("tick", func(args ...any) { n++ })
	cancel()
	cancel()
	bus.Emit("tick")

	if n != 0 {
		t.Errorf("cancelled listener fired %d times", n)
	}
}

func TestOffUnknownIsNoOp(t *testing.T) {
	bus := New[string]()

	// Neither the unknown event nor the unknown listener may panic.
	bus.Off("missing", func(args ...any) {})

	fn := func(args ...any) {}
	bus.On("tick", fn)
	bus.Off("tick", fn)
	bus.Off("tick", fn) // second unsubscribe of the same listener
	bus.Emit("tick")
}

func TestOnNilListenerIgnored(t *testing.T) {
	bus := New[string]()

	bus.On("tick", nil)
	bus.Emit("tick") // must not panic
}

func TestEmitWithoutListeners(t *testing.T) {
	bus := New[string]()
	bus.Emit("nobody-home", 1, 2, 3)
}
