package sigcond

// nodeKind tags entries on the unified handler/finalizer stack. Restart
// nodes live on their own stack but reuse the same node storage.
type nodeKind int

const (
	kindHandler nodeKind = iota
	kindFinalizer
	kindRestart
)

type node struct {
	kind    nodeKind
	handler *Handler
	fin     *Finalizer
	restart *Restart
	next    *node
}

// newNode pops a recycled node or allocates a fresh one. Nodes are small
// and short lived; the freelist keeps repeated install/remove cycles from
// allocating.
func (s *state) newNode() *node {
	if n := s.free; n != nil {
		s.free = n.next
		*n = node{}
		return n
	}
	return new(node)
}

func (s *state) recycle(n *node) {
	*n = node{next: s.free}
	s.free = n
}

func (s *state) pushEntry(n *node) {
	n.next = s.handlers
	s.handlers = n
}

// removeEntry splices the first node matching match out of the handler
// stack. The node may sit anywhere in the list: a handler that passed keeps
// newer scopes alive past their installation order, so removal is a linear
// search rather than a pop.
func (s *state) removeEntry(match func(*node) bool) bool {
	for p := &s.handlers; *p != nil; p = &(*p).next {
		n := *p
		if match(n) {
			*p = n.next
			s.recycle(n)
			s.release()
			return true
		}
	}
	return false
}

func (s *state) pushRestart(n *node) {
	n.next = s.restarts
	s.restarts = n
}

func (s *state) removeRestart(r *Restart) bool {
	for p := &s.restarts; *p != nil; p = &(*p).next {
		n := *p
		if n.restart == r {
			*p = n.next
			s.recycle(n)
			s.release()
			return true
		}
	}
	return false
}

// unwindTo removes every node strictly above target, running finalizer
// callbacks as they come off. The target handler node itself stays on the
// stack; the jump it is about to take does not consume the registration.
func (s *state) unwindTo(target *node) {
	for s.handlers != nil && s.handlers != target {
		n := s.handlers
		s.handlers = n.next
		if n.kind == kindFinalizer {
			n.fin.Func(n.fin.Data)
		}
		s.recycle(n)
	}
}
