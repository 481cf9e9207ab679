package asm

import (
	"encoding/binary"
	"io"
	"os"
	"strings"
)

// ErrAsm collects every diagnostic found while assembling a source
// file, rather than stopping at the first one — each pass (parse,
// encode) reports its full batch of errors together.
type ErrAsm struct {
	Errs []error
}

func (e *ErrAsm) Error() string {
	var b strings.Builder
	for i, err := range e.Errs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(err.Error())
	}
	return b.String()
}

// Assembled is the result of assembling one source file.
type Assembled struct {
	// Image is the binary ready for vm.LoadBinary: a little-endian
	// uint32 data-segment length, the read-only data segment, then
	// the instruction stream.
	Image []byte
	Debug *Debug
}

// Assemble reads GOLF assembly source from r and produces an
// assembled image plus its debug sidecar. Warnings are written to
// os.Stderr; use AssembleTo to capture them instead.
func Assemble(name string, r io.Reader) (*Assembled, error) {
	return AssembleTo(name, r, os.Stderr)
}

// AssembleTo is Assemble with warnings directed at warnings instead of
// os.Stderr.
func AssembleTo(name string, r io.Reader, warnings io.Writer) (*Assembled, error) {
	diag := NewDiagnostics(warnings)
	items, e, err := Parse(name, r, diag)
	if err != nil {
		return nil, err
	}
	if err := diag.Err(); err != nil {
		return nil, err
	}
	code, dbg, err := Encode(items, e)
	if err != nil {
		return nil, err
	}
	data := e.pool.Bytes()

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(data)))

	image := make([]byte, 0, 4+len(data)+len(code))
	image = append(image, lenBuf[:]...)
	image = append(image, data...)
	image = append(image, code...)

	return &Assembled{Image: image, Debug: dbg}, nil
}
