package vm

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/orlp/golf-cpu/isa"
)

// operand is one decoded, not-yet-resolved instruction operand: either
// a register reference or a literal value produced by the encoder.
type operand struct {
	isReg bool
	reg   Reg
	value uint64
}

// resolve returns the operand's current value: the live register
// contents if it names a register, otherwise the literal encoded at
// assembly time.
func (o operand) resolve(i *Instance) uint64 {
	if o.isReg {
		return i.regs[o.reg]
	}
	return o.value
}

// instr is one fully decoded instruction, ready for dispatch.
type instr struct {
	mnemonic string
	size     int // total encoded size in bytes, including the opcode word

	// outs holds the destination register operands (always plain
	// register references, never resolved to a value).
	outs []Reg
	// args holds the remaining operands, resolved against the live
	// register file at dispatch time.
	args []operand

	retMask uint32 // ret only: bitmap over a..y of registers to preserve
	halted  bool   // halt only
	haltArg operand
}

// descriptorAt extracts the idx'th 5-bit operand descriptor from the
// packed flags field (bits 7..31 of the opcode word), descriptors are
// packed LSB-first.
func descriptorAt(flags uint32, idx int) uint8 {
	return uint8((flags >> uint(5*idx)) & 0x1f)
}

// readOperand decodes one operand starting at code[pos] given its 5-bit
// descriptor, returning the operand and the number of tail bytes consumed.
func readOperand(code []byte, pos int, desc uint8) (operand, int, error) {
	switch {
	case desc == 0:
		return operand{value: 0}, 0, nil
	case desc == 1:
		if pos+1 > len(code) {
			return operand{}, 0, errors.New("truncated 1-byte immediate")
		}
		return operand{value: uint64(int64(int8(code[pos])))}, 1, nil
	case desc == 2:
		if pos+2 > len(code) {
			return operand{}, 0, errors.New("truncated 2-byte immediate")
		}
		v := int16(binary.LittleEndian.Uint16(code[pos : pos+2]))
		return operand{value: uint64(int64(v))}, 2, nil
	case desc == 3:
		if pos+4 > len(code) {
			return operand{}, 0, errors.New("truncated 4-byte immediate")
		}
		v := int32(binary.LittleEndian.Uint32(code[pos : pos+4]))
		return operand{value: uint64(int64(v))}, 4, nil
	case desc == 4:
		if pos+8 > len(code) {
			return operand{}, 0, errors.New("truncated 8-byte immediate")
		}
		v := binary.LittleEndian.Uint64(code[pos : pos+8])
		return operand{value: v}, 8, nil
	case desc >= 5 && desc <= 30:
		return operand{isReg: true, reg: Reg(desc - 5)}, 0, nil
	default:
		return operand{}, 0, errors.Errorf("invalid operand descriptor %d", desc)
	}
}

// decode reads one instruction from code at byte offset pc.
func decode(code []byte, pc int) (instr, error) {
	if pc < 0 || pc+4 > len(code) {
		return instr{}, errors.Errorf("program counter %d out of range", pc)
	}
	word := binary.LittleEndian.Uint32(code[pc : pc+4])
	id := uint8(word & 0x7f)
	flags := word >> 7
	if int(id) >= len(isa.Names) {
		return instr{}, errors.Errorf("unknown opcode id %d", id)
	}
	name := isa.Names[id]

	if name == "ret" {
		return instr{mnemonic: name, size: 4, retMask: flags & 0x1ffffff}, nil
	}

	if name == "halt" {
		arg, n, err := readOperand(code, pc+4, descriptorAt(flags, 0))
		if err != nil {
			return instr{}, errors.Wrap(err, "decoding halt")
		}
		return instr{mnemonic: name, size: 4 + n, halted: true, haltArg: arg}, nil
	}

	sig, ok := isa.Signatures[name]
	if !ok {
		return instr{}, errors.Errorf("opcode id %d (%s) has no signature", id, name)
	}

	ins := instr{mnemonic: name}
	cursor := pc + 4
	for k := 0; k < sig.Out; k++ {
		desc := descriptorAt(flags, k)
		if desc < 5 || desc > 30 {
			return instr{}, errors.Errorf("%s: output operand %d is not a register", name, k)
		}
		ins.outs = append(ins.outs, Reg(desc-5))
	}
	for k := sig.Out; k < sig.Out+sig.In; k++ {
		desc := descriptorAt(flags, k)
		op, n, err := readOperand(code, cursor, desc)
		if err != nil {
			return instr{}, errors.Wrapf(err, "decoding %s operand %d", name, k)
		}
		ins.args = append(ins.args, op)
		cursor += n
	}
	ins.size = cursor - pc
	return ins, nil
}
