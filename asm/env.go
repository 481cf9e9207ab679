package asm

import (
	"math"

	"github.com/pkg/errors"

	"github.com/orlp/golf-cpu/vm"
)

// value is the result of evaluating an operand expression: either a
// register reference (which can only ever be used bare, never inside
// arithmetic) or a resolved 64-bit constant.
type value struct {
	isReg   bool
	reg     vm.Reg
	isStr   bool
	str     string
	isLabel bool
	label   string
	num     int64
}

func regValue(r vm.Reg) value   { return value{isReg: true, reg: r} }
func numValue(n int64) value    { return value{num: n} }
func strValue(s string) value   { return value{isStr: true, str: s} }
func labelValue(s string) value { return value{isLabel: true, label: s} }

func (v value) asNum() (int64, error) {
	if v.isReg {
		return 0, errors.New("register used where a constant expression is required")
	}
	if v.isStr {
		return 0, errors.New("string literal used where a constant expression is required")
	}
	if v.isLabel {
		return 0, errors.Errorf("label %q may only be used as a bare operand, not inside an expression", v.label)
	}
	return v.num, nil
}

// mathFunc is a host math function exposed to source under its Go
// math package name, taking and returning float64.
type mathFunc func(args []float64) (float64, error)

// env is the symbol environment threaded through evaluation: registers,
// the host math namespace, pow, the data(...) literal constructor, and
// user `=` bindings.
type env struct {
	consts map[string]int64   // user `=` bindings and bare numeric aliases
	pool   *dataPool          // backs the data(...) constructor
	fns    map[string]mathFunc
}

func newEnv(pool *dataPool) *env {
	e := &env{
		consts: make(map[string]int64),
		pool:   pool,
		fns:    make(map[string]mathFunc),
	}
	e.registerMathFns()
	return e
}

// lookupIdent resolves a bare identifier to a value: a register letter
// or a user constant. Reports not-found otherwise; the caller turns
// that into an undefined-symbol error (code labels use ':name', never
// a bare identifier).
func (e *env) lookupIdent(name string) (value, bool) {
	if len(name) == 1 {
		if r, ok := vm.RegFromName(name[0]); ok {
			return regValue(r), true
		}
	}
	if n, ok := e.consts[name]; ok {
		return numValue(n), true
	}
	return value{}, false
}

// defineConst records a user `name = expr` binding. Redefinition is an
// error: constants, like labels, are single-assignment.
func (e *env) defineConst(name string, v int64) error {
	if _, ok := e.consts[name]; ok {
		return errors.Errorf("constant %q already defined", name)
	}
	if len(name) == 1 {
		if _, ok := vm.RegFromName(name[0]); ok {
			return errors.Errorf("%q shadows a register name", name)
		}
	}
	e.consts[name] = v
	return nil
}

// call dispatches a function-call expression: pow(x, y), data(...), or
// a one-argument math.<fn> lookalike (sin, cos, sqrt, floor, ...).
func (e *env) call(name string, args []value) (value, error) {
	if name == "pow" {
		if len(args) != 2 {
			return value{}, errors.Errorf("pow takes 2 arguments, got %d", len(args))
		}
		a, err := args[0].asNum()
		if err != nil {
			return value{}, err
		}
		b, err := args[1].asNum()
		if err != nil {
			return value{}, err
		}
		return numValue(int64(math.Pow(float64(a), float64(b)))), nil
	}
	if name == "data" {
		return e.pool.define(args)
	}
	fn, ok := e.fns[name]
	if !ok {
		return value{}, errors.Errorf("unknown function %q", name)
	}
	fargs := make([]float64, len(args))
	for idx, a := range args {
		n, err := a.asNum()
		if err != nil {
			return value{}, err
		}
		fargs[idx] = float64(n)
	}
	r, err := fn(fargs)
	if err != nil {
		return value{}, err
	}
	return numValue(int64(r)), nil
}

// registerMathFns populates the math namespace with the unary and
// constant members of Go's math package useful in integer address
// arithmetic, skipping complex/multi-valued members that have no
// sensible single-float64 signature.
func (e *env) registerMathFns() {
	unary := map[string]func(float64) float64{
		"sin": math.Sin, "cos": math.Cos, "tan": math.Tan,
		"sqrt": math.Sqrt, "floor": math.Floor, "ceil": math.Ceil,
		"log": math.Log, "log2": math.Log2, "log10": math.Log10,
		"exp": math.Exp, "abs": math.Abs,
	}
	for name, fn := range unary {
		fn := fn
		e.fns[name] = func(args []float64) (float64, error) {
			if len(args) != 1 {
				return 0, errors.Errorf("%s takes 1 argument, got %d", name, len(args))
			}
			return fn(args[0]), nil
		}
	}
	e.consts["pi"] = int64(math.Pi)
	e.consts["e"] = int64(math.E)
}
