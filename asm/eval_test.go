package asm

import (
	"testing"
	"text/scanner"

	"github.com/orlp/golf-cpu/vm"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string, e *env) value {
	t.Helper()
	p := newExprParser(src, scanner.Position{Line: 1}, e)
	v, err := p.ParseOperand()
	require.NoError(t, err)
	return v
}

func TestOperatorPrecedence(t *testing.T) {
	e := newEnv(newDataPool())
	v := parse(t, "1+2*3", e)
	n, err := v.asNum()
	require.NoError(t, err)
	require.EqualValues(t, 7, n)
}

func TestParenthesesOverridePrecedence(t *testing.T) {
	e := newEnv(newDataPool())
	v := parse(t, "(1+2)*3", e)
	n, err := v.asNum()
	require.NoError(t, err)
	require.EqualValues(t, 9, n)
}

func TestBitwiseOperators(t *testing.T) {
	e := newEnv(newDataPool())
	v := parse(t, "6&3|8^1", e)
	n, err := v.asNum()
	require.NoError(t, err)
	require.EqualValues(t, (6&3)|(8^1), n)
}

func TestUnaryMinusAndComplement(t *testing.T) {
	e := newEnv(newDataPool())
	v := parse(t, "-5+~0", e)
	n, err := v.asNum()
	require.NoError(t, err)
	require.EqualValues(t, -5+(^int64(0)), n)
}

func TestHexAndBinaryLiterals(t *testing.T) {
	e := newEnv(newDataPool())
	v := parse(t, "0x10+0b101", e)
	n, err := v.asNum()
	require.NoError(t, err)
	require.EqualValues(t, 16+5, n)
}

func TestColonPrefixYieldsDeferredLabel(t *testing.T) {
	e := newEnv(newDataPool())
	v := parse(t, ":loop_start", e)
	require.True(t, v.isLabel)
	require.Equal(t, "loop_start", v.label)
}

func TestLabelInsideExpressionIsAnError(t *testing.T) {
	e := newEnv(newDataPool())
	p := newExprParser(":loop_start+1", scanner.Position{Line: 1}, e)
	_, err := p.ParseOperand()
	require.Error(t, err)
}

func TestBareUndefinedIdentifierIsAnError(t *testing.T) {
	e := newEnv(newDataPool())
	p := newExprParser("loop_start", scanner.Position{Line: 1}, e)
	_, err := p.ParseOperand()
	require.Error(t, err)
}

func TestRegisterResolvesToRegValue(t *testing.T) {
	e := newEnv(newDataPool())
	v := parse(t, "c", e)
	require.True(t, v.isReg)
}

func TestUserConstant(t *testing.T) {
	e := newEnv(newDataPool())
	require.NoError(t, e.defineConst("limit", 42))
	v := parse(t, "limit+1", e)
	n, err := v.asNum()
	require.NoError(t, err)
	require.EqualValues(t, 43, n)
}

func TestConstantCannotShadowRegister(t *testing.T) {
	e := newEnv(newDataPool())
	require.Error(t, e.defineConst("q", 1))
}

func TestConstantCannotBeRedefined(t *testing.T) {
	e := newEnv(newDataPool())
	require.NoError(t, e.defineConst("limit", 1))
	require.Error(t, e.defineConst("limit", 2))
}

func TestPowFunction(t *testing.T) {
	e := newEnv(newDataPool())
	v := parse(t, "pow(2,10)", e)
	n, err := v.asNum()
	require.NoError(t, err)
	require.EqualValues(t, 1024, n)
}

func TestMathNamespaceFunction(t *testing.T) {
	e := newEnv(newDataPool())
	v := parse(t, "sqrt(16)", e)
	n, err := v.asNum()
	require.NoError(t, err)
	require.EqualValues(t, 4, n)
}

func TestDataStringLiteral(t *testing.T) {
	pool := newDataPool()
	e := newEnv(pool)
	v := parse(t, `data("hi")`, e)
	n, err := v.asNum()
	require.NoError(t, err)
	require.EqualValues(t, vm.DataBase, n)
	require.Equal(t, []byte("hi\x00"), pool.Bytes())
}

func TestDataDeduplicatesIdenticalContent(t *testing.T) {
	pool := newDataPool()
	e := newEnv(pool)
	v1 := parse(t, `data("same")`, e)
	v2 := parse(t, `data("same")`, e)
	n1, _ := v1.asNum()
	n2, _ := v2.asNum()
	require.Equal(t, n1, n2)
	require.Equal(t, []byte("same\x00"), pool.Bytes())
}

func TestDataWordsPacksEightBytesEach(t *testing.T) {
	pool := newDataPool()
	e := newEnv(pool)
	parse(t, "data(1,2)", e)
	require.Len(t, pool.Bytes(), 16)
}

func TestDivisionByZeroInConstantExpressionErrors(t *testing.T) {
	e := newEnv(newDataPool())
	p := newExprParser("1/0", scanner.Position{Line: 1}, e)
	_, err := p.ParseOperand()
	require.Error(t, err)
}

func TestTrailingTokenIsAnError(t *testing.T) {
	e := newEnv(newDataPool())
	p := newExprParser("1 2", scanner.Position{Line: 1}, e)
	_, err := p.ParseOperand()
	require.Error(t, err)
}
