package sigcond

// RestartResult is what a restart callback reports back to the handler that
// invoked it.
type RestartResult int

const (
	RestartSucceeded RestartResult = iota
	RestartFailed
	RestartNotFound
)

// RestartFunc attempts a recovery strategy against the active condition.
type RestartFunc func(c *Condition, data any) RestartResult

// Restart names a recovery routine that handlers can invoke while a
// condition is being dispatched. Same ownership rule as Handler: caller
// owned storage, referenced until RemoveRestart.
type Restart struct {
	Name string
	Func RestartFunc
	Data any
}

// InstallRestart pushes r onto the calling goroutine's restart stack.
func InstallRestart(r *Restart) {
	s := current()
	n := s.newNode()
	n.kind = kindRestart
	n.restart = r
	s.pushRestart(n)
}

// RemoveRestart takes r off the restart stack. Unlike finalizers, restarts
// have no callback on remove. Removing an unknown restart is diagnosed and
// changes nothing.
func RemoveRestart(r *Restart) {
	s := lookup()
	if s == nil || !s.removeRestart(r) {
		diag.Warnf("unregister of unknown restart %q", r.Name)
	}
}

// InvokeRestart searches the restart stack newest-first for name and runs
// the first match against c, returning the callback's result verbatim.
// Restarts do not unwind by themselves; the handler decides what to do with
// the result. Invoking with no matching restart installed, including
// outside any dispatch, returns RestartNotFound.
func InvokeRestart(c *Condition, name string) RestartResult {
	s := lookup()
	if s == nil {
		return RestartNotFound
	}
	for n := s.restarts; n != nil; n = n.next {
		if n.restart.Name == name {
			return n.restart.Func(c, n.restart.Data)
		}
	}
	return RestartNotFound
}
