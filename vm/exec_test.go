package vm

import (
	"testing"

	"github.com/orlp/golf-cpu/isa"
	"github.com/stretchr/testify/require"
)

func TestNewInitializesStackPointer(t *testing.T) {
	i, err := New(nil, nil)
	require.NoError(t, err)
	require.Equal(t, StackBase, i.Reg(RegZ))
}

func TestShiftDirectionReversesOnNegativeCount(t *testing.T) {
	require.Equal(t, shl(1, 3), shr(1, -3))
	require.Equal(t, shr(16, 2), shl(16, -2))
	require.Equal(t, uint64(8), shl(1, 3))
	require.Equal(t, uint64(4), shr(16, 2))
}

func TestShiftOfAtLeastWidthIsZero(t *testing.T) {
	require.Equal(t, uint64(0), shl(1, 64))
	require.Equal(t, uint64(0), shr(1, 64))
}

func TestArithmeticShiftSignExtends(t *testing.T) {
	negOne := ^uint64(0)
	require.Equal(t, negOne, sar(negOne, 1))
	require.Equal(t, negOne, sar(negOne, 64))
	require.Equal(t, uint64(0), sar(1, 64))
}

func TestSignedMul128(t *testing.T) {
	lo, hi := mul(2, uint64(int64(-3)))
	require.Equal(t, uint64(0xFFFFFFFFFFFFFFFA), lo)
	require.Equal(t, uint64(0xFFFFFFFFFFFFFFFF), hi)
}

func TestUnsignedMul128(t *testing.T) {
	lo, hi := mulu(2, 3)
	require.Equal(t, uint64(6), lo)
	require.Equal(t, uint64(0), hi)
}

func TestSignedFloorDivision(t *testing.T) {
	q, err := div(-7, 2)
	require.NoError(t, err)
	require.Equal(t, int64(-4), q)

	q, err = div(7, -2)
	require.NoError(t, err)
	require.Equal(t, int64(-4), q)

	q, err = div(-7, -2)
	require.NoError(t, err)
	require.Equal(t, int64(3), q)
}

func TestDivisionByZeroFaults(t *testing.T) {
	_, err := div(1, 0)
	require.Error(t, err)
	_, err = divu(1, 0)
	require.Error(t, err)
}

func TestCallRetPreservesOnlyMaskedRegisters(t *testing.T) {
	i, err := New(nil, nil)
	require.NoError(t, err)
	i.regs[0] = 100 // a
	i.regs[1] = 200 // b
	i.pc = 40

	err = i.execInstr(instr{mnemonic: "call", size: 4, args: []operand{{value: 1000}}})
	require.NoError(t, err)
	require.Equal(t, 1000, i.pc)
	require.True(t, i.jumped)
	require.Len(t, i.callstack, 1)
	require.Equal(t, 44, i.callstack[0].retPC)

	// mutate registers inside the "callee"
	i.regs[0] = 999
	i.regs[1] = 888

	err = i.execRet(instr{mnemonic: "ret", retMask: 1 << 0})
	require.NoError(t, err)
	require.Equal(t, uint64(999), i.regs[0], "a named in retMask keeps its live value")
	require.Equal(t, uint64(200), i.regs[1], "b not named in retMask reverts to the call snapshot")
	require.Equal(t, 44, i.pc)
	require.Empty(t, i.callstack)
}

func TestRetWithEmptyCallStackFaults(t *testing.T) {
	i, err := New(nil, nil)
	require.NoError(t, err)
	err = i.execRet(instr{mnemonic: "ret"})
	require.Error(t, err)
}

func TestRunUntilHalt(t *testing.T) {
	// add a, a, 1 ; halt a
	code := putWord(word(isa.Ids["add"], 5, 5, 1))
	code = append(code, 1)
	code = append(code, putWord(word(isa.Ids["halt"], 5))...)

	i, err := New(code, nil)
	require.NoError(t, err)
	code2, err := i.Run()
	require.NoError(t, err)
	require.Equal(t, ExitCode(1), code2)
}
