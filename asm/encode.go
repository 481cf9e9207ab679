package asm

import (
	"encoding/binary"

	"github.com/orlp/golf-cpu/isa"
	"github.com/orlp/golf-cpu/vm"
	"github.com/pkg/errors"
)

// sizedInstr is one real instruction after pass 1: every operand has
// been evaluated once and given a descriptor/width, so pass 2 only
// has to resolve label operands and emit bytes.
type sizedInstr struct {
	mnemonic string
	line     int
	addr     int
	size     int

	isRet   bool
	retRegs []vm.Reg

	vals   []value
	descs  []uint8
	widths []int
}

// chooseDescriptor picks the narrowest descriptor/width for v. A
// register never carries trailing bytes — its index lives entirely in
// the descriptor code. A label reference always costs the fixed
// 4-byte descriptor-3 slot assumed during sizing: its real
// address isn't known until every instruction has been sized, so its
// width can't be allowed to depend on the value.
func chooseDescriptor(v value) (uint8, int) {
	if v.isReg {
		return 5 + uint8(v.reg), 0
	}
	if v.isLabel {
		return 3, 4
	}
	switch n := v.num; {
	case n == 0:
		return 0, 0
	case n >= -128 && n <= 127:
		return 1, 1
	case n >= -32768 && n <= 32767:
		return 2, 2
	case n >= -(1 << 31) && n <= (1<<31)-1:
		return 3, 4
	default:
		return 4, 8
	}
}

// sizeInstr evaluates it's operands and computes its encoded byte
// size, without yet knowing any label's resolved address.
func sizeInstr(it programItem, e *env) (*sizedInstr, error) {
	if it.mnemonic == "ret" {
		regs := make([]vm.Reg, 0, len(it.operands))
		for _, o := range it.operands {
			regs = append(regs, vm.Reg(o.text[0]-'a'))
		}
		return &sizedInstr{mnemonic: "ret", line: it.line, isRet: true, retRegs: regs, size: 4}, nil
	}

	vals := make([]value, len(it.operands))
	descs := make([]uint8, len(it.operands))
	widths := make([]int, len(it.operands))
	size := 4
	for idx, o := range it.operands {
		v, err := newExprParser(o.text, o.pos, e).ParseOperand()
		if err != nil {
			return nil, err
		}
		d, w := chooseDescriptor(v)
		vals[idx], descs[idx], widths[idx] = v, d, w
		size += w
	}
	return &sizedInstr{mnemonic: it.mnemonic, line: it.line, vals: vals, descs: descs, widths: widths, size: size}, nil
}

// emitInstr writes si's final bytes, resolving any label operand
// against the now-complete labelAddr table.
func emitInstr(si *sizedInstr, labelAddr map[string]int) ([]byte, error) {
	if si.isRet {
		var mask uint32
		for _, r := range si.retRegs {
			mask |= 1 << uint(r)
		}
		word := uint32(isa.Ids["ret"]) | (mask << 7)
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, word)
		return buf, nil
	}

	word := uint32(isa.Ids[si.mnemonic])
	tail := make([]byte, 0, 16)

	for idx, v := range si.vals {
		desc, width := si.descs[idx], si.widths[idx]
		var n uint64
		switch {
		case v.isLabel:
			addr, ok := labelAddr[v.label]
			if !ok {
				return nil, errors.Errorf("undefined label %q", v.label)
			}
			n = uint64(addr)
		case v.isReg:
			n = 0
		default:
			n = uint64(v.num)
		}

		word |= uint32(desc) << uint(7+5*idx)
		switch width {
		case 0:
		case 1:
			tail = append(tail, byte(n))
		case 2:
			b := make([]byte, 2)
			binary.LittleEndian.PutUint16(b, uint16(n))
			tail = append(tail, b...)
		case 4:
			b := make([]byte, 4)
			binary.LittleEndian.PutUint32(b, uint32(n))
			tail = append(tail, b...)
		case 8:
			b := make([]byte, 8)
			binary.LittleEndian.PutUint64(b, n)
			tail = append(tail, b...)
		}
	}

	head := make([]byte, 4)
	binary.LittleEndian.PutUint32(head, word)
	return append(head, tail...), nil
}

// Encode runs a two-pass scheme: pass 1 sizes
// every instruction (data(...) literals are interned into the data
// pool as they are met and get their address at once; a ':name' label
// reference costs a fixed 4-byte slot) which fixes every
// label's final address; pass 2 resolves label operands against that
// address table and emits the instruction stream. It also returns the
// debug sidecar describing where each instruction landed.
func Encode(items []programItem, e *env) ([]byte, *Debug, error) {
	labelAddr := map[string]int{}
	var instrs []*sizedInstr
	addr := 0
	var errs []error

	for _, it := range items {
		if it.isLabel {
			if _, dup := labelAddr[it.label]; dup {
				errs = append(errs, errors.Errorf("line %d: label %q redefined", it.line, it.label))
				continue
			}
			labelAddr[it.label] = addr
			continue
		}
		si, err := sizeInstr(it, e)
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "line %d", it.line))
			continue
		}
		si.addr = addr
		addr += si.size
		instrs = append(instrs, si)
	}
	if len(errs) > 0 {
		return nil, nil, &ErrAsm{Errs: errs}
	}

	out := make([]byte, 0, addr)
	dbg := &Debug{Labels: labelAddr}
	for _, si := range instrs {
		b, err := emitInstr(si, labelAddr)
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "line %d", si.line))
			continue
		}
		out = append(out, b...)
		dbg.Instructions = append(dbg.Instructions, DebugInstr{
			Line: si.line, Addr: si.addr, Size: si.size, Mnemonic: si.mnemonic,
		})
	}
	if len(errs) > 0 {
		return nil, nil, &ErrAsm{Errs: errs}
	}
	return out, dbg, nil
}
