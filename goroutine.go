package sigcond

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// goroutineID parses the numeric id of the calling goroutine out of the
// first line of its stack header ("goroutine 18 [running]:").
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	head := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(head, ' '); i >= 0 {
		head = head[:i]
	}
	id, _ := strconv.ParseUint(string(head), 10, 64)
	return id
}

var states sync.Map // goroutine id -> *state

// state holds the stacks of a single goroutine. Only the owning goroutine
// reads or writes its state, so the fields need no locking; the map lookup
// is the only shared step.
type state struct {
	handlers *node // unified handler/finalizer stack, newest first
	restarts *node // restart stack, newest first
	free     *node // recycled stack nodes
}

// lookup returns the calling goroutine's state without creating one.
func lookup() *state {
	if s, ok := states.Load(goroutineID()); ok {
		return s.(*state)
	}
	return nil
}

func current() *state {
	id := goroutineID()
	if s, ok := states.Load(id); ok {
		return s.(*state)
	}
	s := new(state)
	states.Store(id, s)
	return s
}

// release drops the goroutine's entry once both stacks are empty so that a
// goroutine which unwinds or unregisters everything leaves nothing behind.
func (s *state) release() {
	if s.handlers == nil && s.restarts == nil {
		states.Delete(goroutineID())
	}
}
