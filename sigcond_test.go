package sigcond

import (
	"bytes"
	"testing"
)

// captureDiag redirects the diagnostic logger into a buffer for the
// duration of the test.
func captureDiag(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)
	prev := diag.Out
	diag.SetOutput(buf)
	t.Cleanup(func() { diag.SetOutput(prev) })
	return buf
}

type exitCall struct {
	code int
}

// catchFatal runs fn with the process exit hook replaced, and returns the
// diagnostics written and the exit status requested. It fails the test if
// fn returns without taking a fatal path.
func catchFatal(t *testing.T, fn func()) (string, int) {
	t.Helper()
	buf := captureDiag(t)
	prev := exit
	exit = func(code int) { panic(exitCall{code: code}) }
	t.Cleanup(func() { exit = prev })

	code := -1
	func() {
		defer func() {
			switch r := recover().(type) {
			case nil:
				t.Error("expected a fatal exit")
			case exitCall:
				code = r.code
			default:
				panic(r)
			}
		}()
		fn()
	}()
	return buf.String(), code
}
