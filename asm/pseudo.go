package asm

import "github.com/orlp/golf-cpu/isa"

// realOp is one real instruction produced by expanding a pseudo-
// instruction: a mnemonic plus its operand expressions, reusing the
// source tokens of the pseudo-instruction that produced it so error
// positions stay meaningful.
type realOp struct {
	mnemonic string
	operands []operandTok
}

// expandPseudo lowers one pseudo-instruction into one or more real
// instructions. operands are the already-split, not-yet-evaluated
// operand token strings in source order; outs/ins follow
// isa.Signatures[mnemonic].
func expandPseudo(mnemonic string, operands []operandTok) ([]realOp, error) {
	sig := isa.Signatures[mnemonic]
	if len(operands) != sig.Out+sig.In {
		return nil, errf(operands, "%s takes %d operand(s), got %d", mnemonic, sig.Out+sig.In, len(operands))
	}

	switch mnemonic {
	// ge/geq/geu/gequ mirror le/leq/leu/lequ (x cmp y) by swapping the
	// comparison operands: x>y is the same test as y<x.
	case "ge":
		return one("le", operands[0], operands[2], operands[1]), nil
	case "geq":
		return one("leq", operands[0], operands[2], operands[1]), nil
	case "geu":
		return one("leu", operands[0], operands[2], operands[1]), nil
	case "gequ":
		return one("lequ", operands[0], operands[2], operands[1]), nil

	case "mov":
		return one("add", operands[0], operands[1], zeroTok), nil
	case "inc":
		return one("add", operands[0], operands[0], oneTok), nil
	case "dec":
		return one("add", operands[0], operands[0], negOneTok), nil
	case "neg":
		return one("sub", operands[0], zeroTok, operands[0]), nil

	// jmp is an unconditional jz: a literal 0 condition always takes
	// the branch (jz's first operand is the target, its second the
	// condition).
	case "jmp":
		return one("jz", operands[0], zeroTok), nil

	// sz/snz are expanded by lowerSkip, not here: they need the
	// enclosing logical instruction index and a resolved constant
	// skip count to build their forward/backward label, neither of
	// which expandPseudo has access to.
	case "sz", "snz":
		return nil, errf(operands, "%s must be expanded by lowerSkip", mnemonic)

	// push/pop thread the pointer register through as a parameter
	// rather than hardwiring z; r is both read and written.
	case "push":
		return []realOp{
			{"sw", []operandTok{operands[0], operands[1]}},
			{"add", []operandTok{operands[0], operands[0], eightTok}},
		}, nil
	case "pop":
		return []realOp{
			{"sub", []operandTok{operands[1], operands[1], eightTok}},
			{"lw", []operandTok{operands[0], operands[1]}},
		}, nil
	}
	return nil, errf(operands, "%s is not a recognized pseudo-instruction", mnemonic)
}

// expandSkip builds the real jz/jnz instruction a sz/snz pseudo-op
// lowers to: a deferred reference to the anonymous label anchored at
// the target logical instruction, and the condition register carried
// over unchanged.
func expandSkip(mnemonic string, cond operandTok, targetLabel string) []realOp {
	real := "jz"
	if mnemonic == "snz" {
		real = "jnz"
	}
	return one(real, operandTok{text: ":" + targetLabel}, cond)
}

func one(mnemonic string, operands ...operandTok) []realOp {
	return []realOp{{mnemonic, operands}}
}
