package vm

import (
	"math/bits"

	"github.com/pkg/errors"

	"github.com/orlp/golf-cpu/isa"
)

// ExitCode is returned by Run when the guest executes halt.
type ExitCode uint64

// Fault reports a runtime error together with the program counter at
// which it occurred, mirroring the reference interpreter's practice of
// surfacing the faulting instruction rather than just the Go error text.
type Fault struct {
	PC    int
	Instr string
	Err   error
}

func (f *Fault) Error() string {
	return errors.Wrapf(f.Err, "fault executing %q @pc=%d", f.Instr, f.PC).Error()
}

func (f *Fault) Unwrap() error { return f.Err }

func s64(v uint64) int64 { return int64(v) }
func u64(v int64) uint64 { return uint64(v) }

func asBool(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// shl shifts a left by n bits. A negative n reverses the direction,
// matching the reference interpreter's single shl/shr/sar primitive
// pair for both directions.
func shl(a uint64, n int64) uint64 {
	if n < 0 {
		return shr(a, -n)
	}
	if n >= 64 {
		return 0
	}
	return a << uint(n)
}

// shr is the logical (unsigned) right shift, symmetric with shl.
func shr(a uint64, n int64) uint64 {
	if n < 0 {
		return shl(a, -n)
	}
	if n >= 64 {
		return 0
	}
	return a >> uint(n)
}

// sar is the arithmetic (sign-extending) right shift.
func sar(a uint64, n int64) uint64 {
	if n < 0 {
		return shl(a, -n)
	}
	if n >= 64 {
		if int64(a) < 0 {
			return ^uint64(0)
		}
		return 0
	}
	return uint64(int64(a) >> uint(n))
}

// mulu computes the full 128-bit unsigned product of a and b, returning
// (low, high).
func mulu(a, b uint64) (lo, hi uint64) {
	hi, lo = bits.Mul64(a, b)
	return lo, hi
}

// mul computes the full 128-bit signed product of a and b, returning
// (low, high) as two's complement halves.
func mul(a, b uint64) (lo, hi uint64) {
	lo, hi = mulu(a, b)
	if int64(a) < 0 {
		hi -= b
	}
	if int64(b) < 0 {
		hi -= a
	}
	return lo, hi
}

// divu is unsigned division; Go's native "/" already floors for
// unsigned operands.
func divu(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, errors.New("division by zero")
	}
	return a / b, nil
}

// div is signed floor division, unlike Go's native truncating "/".
func div(a, b int64) (int64, error) {
	if b == 0 {
		return 0, errors.New("division by zero")
	}
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q, nil
}

// Run decodes and executes instructions from the current program
// counter until the guest halts, a fault occurs, or MaxCycles is
// exceeded. On a clean halt it returns the guest's exit code and a nil
// error.
func (i *Instance) Run() (ExitCode, error) {
	for {
		code, err := i.Step()
		if err != nil {
			return 0, err
		}
		if code != nil {
			return *code, nil
		}
	}
}

// Step decodes and executes exactly one instruction. It returns a
// non-nil ExitCode once the guest halts, otherwise nil.
func (i *Instance) Step() (*ExitCode, error) {
	ins, err := decode(i.code, i.pc)
	if err != nil {
		return nil, &Fault{PC: i.pc, Instr: "?", Err: err}
	}

	if ins.halted {
		code := ExitCode(ins.haltArg.resolve(i))
		return &code, nil
	}

	pc := i.pc
	if ins.mnemonic == "ret" {
		if err := i.execRet(ins); err != nil {
			return nil, &Fault{PC: pc, Instr: "ret", Err: err}
		}
	} else {
		i.jumped = false
		if err := i.execInstr(ins); err != nil {
			return nil, &Fault{PC: pc, Instr: ins.mnemonic, Err: err}
		}
		if !i.jumped {
			i.pc = pc + ins.size
		}
	}

	i.cycles += uint64(isa.Cycles[ins.mnemonic])
	if i.maxCycles != 0 && i.cycles > i.maxCycles {
		return nil, &Fault{PC: pc, Instr: ins.mnemonic, Err: errors.Errorf("exceeded cycle ceiling %d", i.maxCycles)}
	}
	if i.trace != nil {
		i.trace(pc, ins.mnemonic)
	}
	return nil, nil
}

// execRet pops the active call frame, restoring every register from
// the snapshot taken at call time except those named in ins.retMask
// (letters a..y), which keep their live, post-call-body value. z
// always restores from the snapshot: it cannot be named in the 25-bit
// mask.
func (i *Instance) execRet(ins instr) error {
	if len(i.callstack) == 0 {
		return errors.New("ret with empty call stack")
	}
	top := i.callstack[len(i.callstack)-1]
	i.callstack = i.callstack[:len(i.callstack)-1]

	live := i.regs
	i.regs = top.regs
	for r := Reg(0); r < RegZ; r++ {
		if ins.retMask&(1<<uint(r)) != 0 {
			i.regs[r] = live[r]
		}
	}
	i.pc = top.retPC
	return nil
}

// execInstr dispatches and executes any non-ret, non-halt instruction.
func (i *Instance) execInstr(ins instr) error {
	a := func(n int) uint64 { return ins.args[n].resolve(i) }
	set := func(n int, v uint64) { i.regs[ins.outs[n]] = v }

	switch ins.mnemonic {
	case "not":
		set(0, ^a(0))
	case "or":
		set(0, a(0)|a(1))
	case "xor":
		set(0, a(0)^a(1))
	case "and":
		set(0, a(0)&a(1))
	case "shl":
		set(0, shl(a(0), s64(a(1))))
	case "shr":
		set(0, shr(a(0), s64(a(1))))
	case "sar":
		set(0, sar(a(0), s64(a(1))))
	case "add":
		set(0, a(0)+a(1))
	case "sub":
		set(0, a(0)-a(1))
	case "cmp":
		set(0, asBool(a(0) == a(1)))
	case "neq":
		set(0, asBool(a(0) != a(1)))
	case "le":
		set(0, asBool(s64(a(0)) < s64(a(1))))
	case "leq":
		set(0, asBool(s64(a(0)) <= s64(a(1))))
	case "leu":
		set(0, asBool(a(0) < a(1)))
	case "lequ":
		set(0, asBool(a(0) <= a(1)))
	case "mul":
		lo, hi := mul(a(0), a(1))
		set(0, lo)
		set(1, hi)
	case "mulu":
		lo, hi := mulu(a(0), a(1))
		set(0, lo)
		set(1, hi)
	case "div":
		x, y := s64(a(0)), s64(a(1))
		q, err := div(x, y)
		if err != nil {
			return err
		}
		set(0, u64(q))
		set(1, u64(x-q*y))
	case "divu":
		x, y := a(0), a(1)
		q, err := divu(x, y)
		if err != nil {
			return err
		}
		set(0, q)
		set(1, x-q*y)
	case "lb", "lbu", "ls", "lsu", "li", "liu", "lw":
		return i.execLoad(ins, a, set)
	case "sb":
		return i.store(a(0), a(1), 1)
	case "ss":
		return i.store(a(0), a(1), 2)
	case "si":
		return i.store(a(0), a(1), 4)
	case "sw":
		return i.store(a(0), a(1), 8)
	case "rand":
		set(0, i.rng.Uint64())
	case "jz":
		if a(1) == 0 {
			i.pc, i.jumped = int(a(0)), true
		}
	case "jnz":
		if a(1) != 0 {
			i.pc, i.jumped = int(a(0)), true
		}
	case "call":
		i.callstack = append(i.callstack, frame{retPC: i.pc + ins.size, regs: i.regs})
		i.pc, i.jumped = int(a(0)), true
	default:
		return errors.Errorf("unimplemented opcode %q", ins.mnemonic)
	}
	return nil
}

func (i *Instance) execLoad(ins instr, a func(int) uint64, set func(int, uint64)) error {
	var width int
	var signExtend bool
	switch ins.mnemonic {
	case "lb":
		width, signExtend = 1, true
	case "lbu":
		width = 1
	case "ls":
		width, signExtend = 2, true
	case "lsu":
		width = 2
	case "li":
		width, signExtend = 4, true
	case "liu":
		width = 4
	case "lw":
		width = 8
	}
	v, err := i.load(a(0), width)
	if err != nil {
		return err
	}
	if signExtend {
		switch width {
		case 1:
			v = uint64(int64(int8(v)))
		case 2:
			v = uint64(int64(int16(v)))
		case 4:
			v = uint64(int64(int32(v)))
		}
	}
	set(0, v)
	return nil
}
