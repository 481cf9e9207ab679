package asm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func toks(texts ...string) []operandTok {
	out := make([]operandTok, len(texts))
	for i, s := range texts {
		out[i] = operandTok{text: s}
	}
	return out
}

func TestExpandGeSwapsComparisonOperands(t *testing.T) {
	ops, err := expandPseudo("ge", toks("a", "b", "c"))
	require.NoError(t, err)
	require.Len(t, ops, 1)
	require.Equal(t, "le", ops[0].mnemonic)
	require.Equal(t, []operandTok{{text: "a"}, {text: "c"}, {text: "b"}}, ops[0].operands)
}

func TestExpandMov(t *testing.T) {
	ops, err := expandPseudo("mov", toks("a", "b"))
	require.NoError(t, err)
	require.Equal(t, "add", ops[0].mnemonic)
	require.Equal(t, "0", ops[0].operands[2].text)
}

func TestExpandIncDec(t *testing.T) {
	ops, err := expandPseudo("inc", toks("a"))
	require.NoError(t, err)
	require.Equal(t, "add", ops[0].mnemonic)
	require.Equal(t, []operandTok{{text: "a"}, {text: "a"}, oneTok}, ops[0].operands)

	ops, err = expandPseudo("dec", toks("a"))
	require.NoError(t, err)
	require.Equal(t, "add", ops[0].mnemonic)
	require.Equal(t, []operandTok{{text: "a"}, {text: "a"}, negOneTok}, ops[0].operands)
}

func TestExpandNeg(t *testing.T) {
	ops, err := expandPseudo("neg", toks("a"))
	require.NoError(t, err)
	require.Equal(t, "sub", ops[0].mnemonic)
	require.Equal(t, []operandTok{{text: "a"}, zeroTok, {text: "a"}}, ops[0].operands)
}

func TestExpandJmpIsUnconditionalJz(t *testing.T) {
	ops, err := expandPseudo("jmp", toks("loop"))
	require.NoError(t, err)
	require.Equal(t, "jz", ops[0].mnemonic)
	require.Equal(t, []operandTok{{text: "loop"}, zeroTok}, ops[0].operands)
}

func TestExpandSkipBuildsJzJnzAgainstAnonLabel(t *testing.T) {
	ops := expandSkip("sz", operandTok{text: "a"}, "skip3")
	require.Len(t, ops, 1)
	require.Equal(t, "jz", ops[0].mnemonic)
	require.Equal(t, []operandTok{{text: ":skip3"}, {text: "a"}}, ops[0].operands)

	ops = expandSkip("snz", operandTok{text: "a"}, "skip3")
	require.Equal(t, "jnz", ops[0].mnemonic)
}

func TestLowerSkipRejectsNonConstantCount(t *testing.T) {
	e := newEnv(newDataPool())
	_, _, err := lowerSkip(2, "snz", toks("a", "b"), e)
	require.Error(t, err)
}

func TestLowerSkipComputesTargetLogicalIndex(t *testing.T) {
	e := newEnv(newDataPool())
	ops, target, err := lowerSkip(2, "snz", toks("a", "-2"), e)
	require.NoError(t, err)
	require.Equal(t, 1, target)
	require.Equal(t, "jnz", ops[0].mnemonic)
	require.Equal(t, operandTok{text: ":" + anonLabelName(1)}, ops[0].operands[0])
}

func TestExpandPushPop(t *testing.T) {
	ops, err := expandPseudo("push", toks("z", "a"))
	require.NoError(t, err)
	require.Len(t, ops, 2)
	require.Equal(t, "sw", ops[0].mnemonic)
	require.Equal(t, "add", ops[1].mnemonic)

	ops, err = expandPseudo("pop", toks("a", "z"))
	require.NoError(t, err)
	require.Len(t, ops, 2)
	require.Equal(t, "sub", ops[0].mnemonic)
	require.Equal(t, "lw", ops[1].mnemonic)
}
