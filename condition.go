package sigcond

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Condition describes a program event worth signaling: a name that handlers
// match on, a human readable message, and the source location it was raised
// from. Values are built by the dispatcher and lent to handler and restart
// callbacks; the dispatcher destroys them when dispatch completes.
type Condition struct {
	Name     string
	Message  string
	Filename string
	Line     int

	destroyed bool
}

// newCondition copies its string arguments so the condition's lifetime is
// independent of the signaling site.
func newCondition(name, message, filename string, line int) *Condition {
	return &Condition{
		Name:     strings.Clone(name),
		Message:  strings.Clone(message),
		Filename: strings.Clone(filename),
		Line:     line,
	}
}

// Format writes the condition to w as "<file>:<line>: <name>:<message>",
// with no trailing newline.
func Format(w io.Writer, c *Condition) {
	fmt.Fprintf(w, "%s:%d: %s:%s", c.Filename, c.Line, c.Name, c.Message)
}

// Print writes the condition to standard output.
func Print(c *Condition) {
	Format(os.Stdout, c)
}

// Destroy releases a condition. Dispatch destroys the conditions it builds
// on every path, so only callers who took explicit ownership of a condition
// need to call it. Destroying a condition twice is diagnosed and ignored.
func Destroy(c *Condition) {
	if c.destroyed {
		diag.Warnf("condition %q destroyed twice", c.Name)
		return
	}
	c.destroyed = true
	c.Name, c.Message, c.Filename = "", "", ""
	c.Line = 0
}
