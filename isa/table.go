// Package isa carries the GOLF instruction set tables shared by the
// assembler and the virtual machine: the mnemonic to numeric id
// mapping used by the encoder/decoder, the (out, in) operand
// signature used to validate and expand source, and the per-mnemonic
// cycle cost.
package isa

// Signature describes how many of a mnemonic's operands are outputs
// (always registers) and how many are inputs.
type Signature struct {
	Out int
	In  int
}

// Operands reports the total operand count a mnemonic's signature expects.
func (s Signature) Operands() int { return s.Out + s.In }

// Real, encodable mnemonics, in assigned-id order.
var idOrder = []string{
	"not", "or", "xor", "and", "shl", "shr", "sar",
	"add", "sub", "cmp", "neq", "le", "leq", "leu", "lequ",
	"mul", "mulu", "div", "divu",
	"lb", "lbu", "ls", "lsu", "li", "liu", "lw",
	"sb", "ss", "si", "sw",
	"rand", "jz", "jnz", "call",
	"ret", "halt",
}

// Ids maps every real (post-expansion) mnemonic to its 7-bit opcode id.
var Ids = make(map[string]uint8, len(idOrder))

// Names is the inverse of Ids, indexed by opcode id.
var Names = make([]string, len(idOrder))

// Cycles gives the per-instruction cycle cost charged on execution.
// ALU/register ops cost 1 cycle, memory ops cost 2, control flow and
// ret cost 1, halt costs 0 (it never returns to the scheduler).
var Cycles = map[string]int{
	"not": 1, "or": 1, "xor": 1, "and": 1, "shl": 1, "shr": 1, "sar": 1,
	"add": 1, "sub": 1, "cmp": 1, "neq": 1, "le": 1, "leq": 1, "leu": 1, "lequ": 1,
	"mul": 1, "mulu": 1, "div": 1, "divu": 1,
	"lb": 2, "lbu": 2, "ls": 2, "lsu": 2, "li": 2, "liu": 2, "lw": 2,
	"sb": 2, "ss": 2, "si": 2, "sw": 2,
	"rand": 1, "jz": 1, "jnz": 1, "call": 1,
	"ret": 1, "halt": 0,
}

// Signatures gives the (out, in) operand arity for every mnemonic that
// goes through generic signature validation. "ret" and "halt" are
// intentionally absent: both are special-cased by the assembler and
// the decoder instead of being driven by a table entry.
var Signatures = map[string]Signature{
	// real, encodable instructions
	"not":  {1, 1},
	"or":   {1, 2},
	"xor":  {1, 2},
	"and":  {1, 2},
	"shl":  {1, 2},
	"shr":  {1, 2},
	"sar":  {1, 2},
	"add":  {1, 2},
	"sub":  {1, 2},
	"cmp":  {1, 2},
	"neq":  {1, 2},
	"le":   {1, 2},
	"leq":  {1, 2},
	"leu":  {1, 2},
	"lequ": {1, 2},
	"mul":  {2, 2},
	"mulu": {2, 2},
	"div":  {2, 2},
	"divu": {2, 2},
	"lb":   {1, 1},
	"lbu":  {1, 1},
	"ls":   {1, 1},
	"lsu":  {1, 1},
	"li":   {1, 1},
	"liu":  {1, 1},
	"lw":   {1, 1},
	"sb":   {0, 2},
	"ss":   {0, 2},
	"si":   {0, 2},
	"sw":   {0, 2},
	"rand": {1, 0},
	"jz":   {0, 2},
	"jnz":  {0, 2},
	"call": {0, 1},

	// pseudo-instructions: validated at source level, expanded away
	// before encoding (asm/pseudo.go), never present in Ids/Cycles.
	"ge":   {1, 2},
	"geq":  {1, 2},
	"geu":  {1, 2},
	"gequ": {1, 2},
	"mov":  {1, 1},
	"inc":  {1, 0},
	"dec":  {1, 0},
	"neg":  {1, 0},
	"jmp":  {0, 1},
	"sz":   {0, 2},
	"snz":  {0, 2},
	"push": {1, 1},
	"pop":  {1, 1},
}

func init() {
	for id, name := range idOrder {
		Ids[name] = uint8(id)
		Names[id] = name
	}
}

// IsPseudo reports whether mnemonic is a pseudo-instruction expanded
// away before encoding, i.e. it has a Signatures entry but no Ids entry.
func IsPseudo(mnemonic string) bool {
	_, isReal := Ids[mnemonic]
	_, hasSig := Signatures[mnemonic]
	return hasSig && !isReal
}
