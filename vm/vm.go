package vm

import (
	"io"
	"math/rand"

	"github.com/pkg/errors"
)

const (
	initialHeapSize  = 4096
	initialStackSize = 4096
)

// frame is a saved call site: the return address and the full register
// file snapshot taken at the call, restored verbatim by the matching
// ret (call/ret semantics).
type frame struct {
	retPC int
	regs  [26]uint64
}

// Option configures an Instance at construction time.
type Option func(*Instance) error

// HeapSize pre-sizes the heap segment to n bytes.
func HeapSize(n int) Option {
	return func(i *Instance) error {
		if n < 0 {
			return errors.Errorf("negative heap size %d", n)
		}
		i.heap = make([]byte, n)
		return nil
	}
}

// StackSize pre-sizes the stack segment to n bytes.
func StackSize(n int) Option {
	return func(i *Instance) error {
		if n < 0 {
			return errors.Errorf("negative stack size %d", n)
		}
		i.stack = make([]byte, n)
		return nil
	}
}

// Stdio sets the reader/writer backing the stdio sentinel address.
func Stdio(r io.Reader, w io.Writer) Option {
	return func(i *Instance) error {
		i.stdin = r
		i.stdout = w
		return nil
	}
}

// MaxCycles sets a runaway guard: Run returns an error once the cycle
// counter would exceed n. Zero (the default) means unlimited.
func MaxCycles(n uint64) Option {
	return func(i *Instance) error { i.maxCycles = n; return nil }
}

// Rand overrides the source used by the rand instruction; primarily
// useful for deterministic tests.
func Rand(r *rand.Rand) Option {
	return func(i *Instance) error { i.rng = r; return nil }
}

// Trace installs a per-step tracer invoked after every successfully
// executed instruction with the PC it ran at.
func Trace(fn func(pc int, mnemonic string)) Option {
	return func(i *Instance) error { i.trace = fn; return nil }
}

// Instance is one running GOLF machine.
type Instance struct {
	regs [26]uint64

	code []byte // instruction stream, immutable for the life of the Instance
	data []byte // read-only data segment

	heap  []byte
	stack []byte

	callstack []frame

	pc     int
	jumped bool
	cycles uint64

	maxCycles uint64

	stdin    io.Reader
	stdout   io.Writer
	stdinEOF bool

	rng   *rand.Rand
	trace func(pc int, mnemonic string)
}

// New creates an Instance ready to execute code, with data as its
// read-only data segment. z (the stack pointer register) starts at
// StackBase, the base of the stack segment.
func New(code, data []byte, opts ...Option) (*Instance, error) {
	i := &Instance{
		code: code,
		data: data,
	}
	i.regs[RegZ] = StackBase
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, errors.Wrap(err, "option failed")
		}
	}
	if i.heap == nil {
		i.heap = make([]byte, initialHeapSize)
	}
	if i.stack == nil {
		i.stack = make([]byte, initialStackSize)
	}
	if i.rng == nil {
		i.rng = rand.New(rand.NewSource(1))
	}
	return i, nil
}

// Reg returns the current value of register r.
func (i *Instance) Reg(r Reg) uint64 { return i.regs[r] }

// SetReg sets register r to v; primarily for test harnesses and the
// CLI's register-dump routine.
func (i *Instance) SetReg(r Reg, v uint64) { i.regs[r] = v }

// Regs returns a snapshot of the full register file, in a-to-z order.
func (i *Instance) Regs() [26]uint64 { return i.regs }

// PC returns the current program counter (a byte offset into the
// instruction stream).
func (i *Instance) PC() int { return i.pc }

// Cycles returns the number of cycles charged so far.
func (i *Instance) Cycles() uint64 { return i.cycles }

// CallDepth returns the number of currently active call frames.
func (i *Instance) CallDepth() int { return len(i.callstack) }
