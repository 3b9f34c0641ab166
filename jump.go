package sigcond

// JumpTarget is the single-fire capability that carries an abort unwind
// back to the point where its handler was installed. The zero value is
// unarmed; Protect arms it. Firing consumes the arming: a fired target
// cannot be re-armed, so a handler can be aborted through at most once per
// installation.
type JumpTarget struct {
	state int
}

const (
	jumpUnarmed = iota
	jumpArmed
	jumpFired
)

// unwindSignal is the value carried by the panic that implements fire. It
// is caught only by the Protect frame whose handler owns the target; any
// other frame re-raises it.
type unwindSignal struct {
	target *JumpTarget
}

func (t *JumpTarget) arm() {
	switch t.state {
	case jumpArmed:
		panic("sigcond: jump target armed twice")
	case jumpFired:
		panic("sigcond: jump target cannot be re-armed after firing")
	}
	t.state = jumpArmed
}

// fire transfers control to the arming scope. It does not return.
func (t *JumpTarget) fire() {
	if t.state != jumpArmed {
		fatalf("jump target fired while not armed")
	}
	t.state = jumpFired
	panic(&unwindSignal{target: t})
}

// Entry reports how control reached the end of a protected region.
type Entry int

const (
	// EntryCompleted means the body ran to completion.
	EntryCompleted Entry = iota
	// EntryAborted means a signal unwound to the region's handler.
	EntryAborted
)

// Protect installs h, arms its jump target, and runs body. It returns
// EntryCompleted when body finishes normally and EntryAborted when a
// handler verdict of Abort unwound to h. On both paths h stays installed
// until the caller removes it with RemoveHandler.
//
// The target is catchable only while body runs; a handler that may abort
// must not outlive its protected region without being removed. The
// condition that caused an abort is destroyed during the unwind sweep and
// is not delivered here; handlers that need to hand data to the recovery
// path do so through their own Data.
func Protect(h *Handler, body func()) (entry Entry) {
	InstallHandler(h)
	h.target.arm()
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if u, ok := r.(*unwindSignal); ok && u.target == &h.target {
			entry = EntryAborted
			return
		}
		panic(r)
	}()
	body()
	return EntryCompleted
}
