package sigcond

import (
	"errors"
	"strings"
	"testing"
)

func TestProtectCompletesNormally(t *testing.T) {
	h := &Handler{Name: "x", Func: handled}
	ran := false
	entry := Protect(h, func() { ran = true })
	if entry != EntryCompleted {
		t.Errorf("wrong entry: want=%v got=%v", EntryCompleted, entry)
	}
	if !ran {
		t.Error("body did not run")
	}
	RemoveHandler(h)
}

func TestProtectSameHandlerTwicePanics(t *testing.T) {
	h := &Handler{Name: "x", Func: handled}
	Protect(h, func() {})

	func() {
		defer func() {
			r := recover()
			if r == nil {
				t.Error("expected a panic from arming twice")
				return
			}
			if msg, ok := r.(string); !ok || !strings.Contains(msg, "armed twice") {
				t.Errorf("wrong panic: %v", r)
			}
		}()
		Protect(h, func() {})
	}()

	RemoveHandler(h)
	RemoveHandler(h) // the second Protect installed before panicking
}

func TestRearmAfterFirePanics(t *testing.T) {
	h := &Handler{Name: "x", Func: func(*Condition, any) Verdict { return Abort }}
	Protect(h, func() { Signal("x", "m") })

	func() {
		defer func() {
			r := recover()
			if r == nil {
				t.Error("expected a panic from re-arming a fired target")
				return
			}
			if msg, ok := r.(string); !ok || !strings.Contains(msg, "re-armed") {
				t.Errorf("wrong panic: %v", r)
			}
		}()
		Protect(h, func() {})
	}()

	RemoveHandler(h)
	RemoveHandler(h)
}

func TestRefireAfterAbortIsFatal(t *testing.T) {
	h := &Handler{Name: "x", Func: func(*Condition, any) Verdict { return Abort }}
	Protect(h, func() { Signal("x", "m") })

	// The target fired once; the handler is still installed, so a second
	// abort verdict tries to fire a consumed target.
	out, code := catchFatal(t, func() {
		Signal("x", "again")
	})
	if !strings.Contains(out, "not armed") {
		t.Errorf("wrong diagnostic: %q", out)
	}
	if code != 1 {
		t.Errorf("wrong exit status: want=1 got=%d", code)
	}
	RemoveHandler(h)
}

func TestForeignPanicPropagates(t *testing.T) {
	boom := errors.New("boom")
	h := &Handler{Name: "x", Func: handled}

	func() {
		defer func() {
			if r := recover(); r != boom {
				t.Errorf("wrong panic: %v", r)
			}
		}()
		Protect(h, func() { panic(boom) })
	}()

	RemoveHandler(h)
}

func TestAbortThroughNestedProtect(t *testing.T) {
	outer := &Handler{Name: "x", Func: func(*Condition, any) Verdict { return Abort }}
	inner := &Handler{Name: "y", Func: handled}

	reachedAfterInner := false
	entry := Protect(outer, func() {
		Protect(inner, func() {
			Signal("x", "crosses the inner region")
		})
		reachedAfterInner = true
	})
	if entry != EntryAborted {
		t.Errorf("wrong entry: want=%v got=%v", EntryAborted, entry)
	}
	if reachedAfterInner {
		t.Error("inner Protect swallowed a foreign unwind")
	}
	RemoveHandler(outer)

	// The inner handler node sat above the aborter and was swept.
	buf := captureDiag(t)
	RemoveHandler(inner)
	if !strings.Contains(buf.String(), "unknown handler") {
		t.Errorf("inner handler survived the unwind: %q", buf.String())
	}
}
