package sigcond

// Verdict is what a handler callback returns to the dispatcher.
type Verdict int

const (
	// Handled resolves the condition in place; control returns normally to
	// the signaler.
	Handled Verdict = iota
	// Pass declines the condition; the dispatcher keeps searching toward
	// older handlers. The passing handler stays installed.
	Pass
	// Abort unwinds the stack back to the point where the handler was
	// installed, running the finalizers in between.
	Abort
)

// HandlerFunc inspects a condition and decides how dispatch proceeds. The
// condition is borrowed for the duration of the call.
type HandlerFunc func(c *Condition, data any) Verdict

// Handler binds a condition name to a callback. The struct is caller owned
// storage: the library keeps a reference from InstallHandler until
// RemoveHandler and never copies it, so it must outlive any signal that can
// reach it.
type Handler struct {
	// Name of the condition this handler handles. Matching is exact string
	// equality.
	Name string
	Func HandlerFunc
	Data any

	target JumpTarget
}

// FinalizerFunc runs when its scope exits, normally or by unwinding.
type FinalizerFunc func(data any)

// Finalizer registers cleanup that runs exactly once however its scope
// exits: at RemoveFinalizer on the normal path, or during an abort unwind
// on the abnormal one. Same ownership rule as Handler.
type Finalizer struct {
	Func FinalizerFunc
	Data any
}

// InstallHandler pushes h onto the calling goroutine's handler stack.
// Handlers installed later are consulted first.
func InstallHandler(h *Handler) {
	s := current()
	n := s.newNode()
	n.kind = kindHandler
	n.handler = h
	s.pushEntry(n)
}

// RemoveHandler takes h off the stack wherever it sits. Removing a handler
// that is not on the stack is diagnosed and changes nothing.
func RemoveHandler(h *Handler) {
	s := lookup()
	ok := s != nil && s.removeEntry(func(n *node) bool {
		return n.kind == kindHandler && n.handler == h
	})
	if !ok {
		diag.Warnf("unregister of unknown handler %q", h.Name)
	}
}

// InstallFinalizer pushes f onto the calling goroutine's handler stack.
func InstallFinalizer(f *Finalizer) {
	s := current()
	n := s.newNode()
	n.kind = kindFinalizer
	n.fin = f
	s.pushEntry(n)
}

// RemoveFinalizer runs f and takes it off the stack. Running at the remove
// site is what guarantees a finalizer fires exactly once whichever way its
// scope exits: the normal path runs it here, the unwind path runs it during
// the sweep and removes the node. A later RemoveFinalizer still runs the
// callback again before it finds no node, and then diagnoses the unknown
// unregister.
func RemoveFinalizer(f *Finalizer) {
	f.Func(f.Data)
	s := lookup()
	ok := s != nil && s.removeEntry(func(n *node) bool {
		return n.kind == kindFinalizer && n.fin == f
	})
	if !ok {
		diag.Warnf("unregister of unknown finalizer")
	}
}
