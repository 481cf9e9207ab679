package vm

import (
	"encoding/binary"
	"testing"

	"github.com/orlp/golf-cpu/isa"
	"github.com/stretchr/testify/require"
)

func word(id uint8, descs ...uint8) uint32 {
	w := uint32(id)
	for idx, d := range descs {
		w |= uint32(d) << uint(7+5*idx)
	}
	return w
}

func putWord(w uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, w)
	return b
}

func TestDecodeAddRegAndImmediate(t *testing.T) {
	// add a, b, 5  -- out=a(reg0,desc5), in1=b(reg1,desc6), in2=5(1-byte,desc1)
	code := putWord(word(isa.Ids["add"], 5, 6, 1))
	code = append(code, 5)

	ins, err := decode(code, 0)
	require.NoError(t, err)
	require.Equal(t, "add", ins.mnemonic)
	require.Equal(t, []Reg{0}, ins.outs)
	require.Len(t, ins.args, 2)
	require.True(t, ins.args[0].isReg)
	require.Equal(t, Reg(1), ins.args[0].reg)
	require.False(t, ins.args[1].isReg)
	require.Equal(t, uint64(5), ins.args[1].value)
	require.Equal(t, 5, ins.size)
}

func TestDecodeNegativeImmediateSignExtends(t *testing.T) {
	// sub a, a, -1 encoded as a 1-byte descriptor holding 0xFF.
	code := putWord(word(isa.Ids["sub"], 5, 5, 1))
	code = append(code, 0xFF)

	ins, err := decode(code, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(0xFFFFFFFFFFFFFFFF), ins.args[1].value)
}

func TestDecodeRetBitmap(t *testing.T) {
	// ret a, c -- preserve registers 0 and 2
	mask := uint32(1<<0 | 1<<2)
	code := putWord(uint32(isa.Ids["ret"]) | (mask << 7))

	ins, err := decode(code, 0)
	require.NoError(t, err)
	require.Equal(t, "ret", ins.mnemonic)
	require.Equal(t, mask, ins.retMask)
	require.Equal(t, 4, ins.size)
}

func TestDecodeHalt(t *testing.T) {
	// halt z -- exit code taken from register z (index 25, desc 30)
	code := putWord(word(isa.Ids["halt"], 30))

	ins, err := decode(code, 0)
	require.NoError(t, err)
	require.True(t, ins.halted)
	require.True(t, ins.haltArg.isReg)
	require.Equal(t, RegZ, ins.haltArg.reg)
	require.Equal(t, 4, ins.size)
}

func TestDecodeTruncatedOperandFaults(t *testing.T) {
	code := putWord(word(isa.Ids["add"], 5, 6, 4)) // 8-byte immediate, no tail bytes
	_, err := decode(code, 0)
	require.Error(t, err)
}
