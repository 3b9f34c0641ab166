//  Copyright 2023 Stealth Rocket, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sigcond

import (
	"runtime"
	"strings"
)

// WarningName is the reserved condition name produced by Warn.
const WarningName = "warning"

// Signal raises the named condition, capturing the caller's file and line.
// It returns only if a handler resolves the condition with Handled.
func Signal(name, message string) {
	file, line := callerSite()
	SignalAt(name, message, file, line)
}

// Warn signals a condition named "warning".
func Warn(message string) {
	file, line := callerSite()
	SignalAt(WarningName, message, file, line)
}

func callerSite() (string, int) {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "???", 0
	}
	return file, line
}

// SignalAt is the signaling primitive. The dispatcher owns the condition it
// builds: the condition is destroyed when a handler returns Handled, during
// the unwind sweep on Abort, or right before a fatal exit. Handlers are
// consulted newest-first; a handler that returns Pass stays installed and
// the search continues toward older handlers.
//
// SignalAt may be called from inside a handler or finalizer callback; the
// nested dispatch sees the stacks as they are at the moment of reentry.
func SignalAt(name, message, filename string, line int) {
	s := current()
	cond := newCondition(name, message, filename, line)

	// The condition's destructor rides the handler stack as an ordinary
	// finalizer. An abort unwind then releases the condition as part of the
	// sweep, with no special casing.
	condFin := Finalizer{Func: func(any) { Destroy(cond) }}
	InstallFinalizer(&condFin)

	observeSignal(name)

	n := s.handlers
	for n != nil {
		if n.kind != kindHandler || n.handler.Name != name {
			n = n.next
			continue
		}
		h := n.handler
		next := n.next
		switch v := h.Func(cond, h.Data); v {
		case Handled:
			RemoveFinalizer(&condFin)
			return
		case Pass:
			n = next
		case Abort:
			observeUnwind(name)
			s.unwindTo(n)
			s.release()
			h.target.fire()
		default:
			RemoveFinalizer(&condFin)
			fatalf("invalid handler verdict: %d", v)
		}
	}

	var sb strings.Builder
	sb.WriteString("Fatal condition: ")
	Format(&sb, cond)
	RemoveFinalizer(&condFin)
	fatalf("%s", sb.String())
}
