package sigcond

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// diag carries the library's non-fatal diagnostics: unknown unregisters and
// double destroys. Fatal lines bypass the formatter and are written to the
// same output so their format stays byte-exact.
var diag = newDiagLogger()

func newDiagLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:    true,
		DisableTimestamp: true,
	})
	return l
}

// exit is swapped out by tests exercising the fatal paths.
var exit = os.Exit

// fatalf writes a single newline-terminated diagnostic line and terminates
// the process with a nonzero status.
func fatalf(format string, args ...any) {
	fmt.Fprintf(diag.Out, format+"\n", args...)
	exit(1)
}
