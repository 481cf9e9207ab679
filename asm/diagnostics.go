package asm

import (
	"fmt"
	"io"
	"os"

	"github.com/orlp/golf-cpu/internal/golfio"
)

// Diagnostics collects non-fatal assembler warnings — such as ret
// naming z — and writes them out as they're found, rather than
// batching them the way ErrAsm batches fatal errors.
type Diagnostics struct {
	w *golfio.ErrWriter
}

// NewDiagnostics wraps w in a Diagnostics sink. A nil w defaults to
// os.Stderr.
func NewDiagnostics(w io.Writer) *Diagnostics {
	if w == nil {
		w = os.Stderr
	}
	return &Diagnostics{w: golfio.NewErrWriter(w)}
}

// Warnf records one warning.
func (d *Diagnostics) Warnf(format string, args ...interface{}) {
	fmt.Fprintf(d.w, "warning: "+format+"\n", args...)
}

// Err reports the first write failure encountered while emitting
// warnings, if any.
func (d *Diagnostics) Err() error { return d.w.Err }
