package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeapStackRoundTrip(t *testing.T) {
	i, err := New(nil, nil)
	require.NoError(t, err)

	require.NoError(t, i.store(40, 0xDEADBEEF, 4))
	v, err := i.load(40, 4)
	require.NoError(t, err)
	require.Equal(t, uint64(0xDEADBEEF), v)

	require.NoError(t, i.store(StackBase+8, 0x1122334455667788, 8))
	v, err = i.load(StackBase+8, 8)
	require.NoError(t, err)
	require.Equal(t, uint64(0x1122334455667788), v)
}

func TestHeapGrowsOnAccessBeyondInitialSize(t *testing.T) {
	i, err := New(nil, nil, HeapSize(4))
	require.NoError(t, err)
	require.NoError(t, i.store(1000, 7, 1))
	v, err := i.load(1000, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(7), v)
}

func TestDataSegmentIsReadOnly(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	i, err := New(nil, data)
	require.NoError(t, err)

	v, err := i.load(DataBase, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(1), v)

	err = i.store(DataBase, 9, 1)
	require.Error(t, err)
}

func TestDataSegmentOutOfBoundsFaults(t *testing.T) {
	i, err := New(nil, []byte{1, 2})
	require.NoError(t, err)
	_, err = i.load(DataBase+1, 4)
	require.Error(t, err)
}

func TestStdioRequiresEightByteWidth(t *testing.T) {
	i, err := New(nil, nil, Stdio(strings.NewReader("A"), &bytes.Buffer{}))
	require.NoError(t, err)
	_, err = i.load(StdioAddr, 1)
	require.Error(t, err)
}

func TestStdinReadAndEOFSentinel(t *testing.T) {
	i, err := New(nil, nil, Stdio(strings.NewReader("A"), &bytes.Buffer{}))
	require.NoError(t, err)

	v, err := i.load(StdioAddr, 8)
	require.NoError(t, err)
	require.Equal(t, uint64('A'), v)

	v, err = i.load(StdioAddr, 8)
	require.NoError(t, err)
	require.Equal(t, ^uint64(0), v, "EOF yields the all-ones sentinel, not an error")
}

func TestStdoutWriteLowByte(t *testing.T) {
	var buf bytes.Buffer
	i, err := New(nil, nil, Stdio(nil, &buf))
	require.NoError(t, err)
	require.NoError(t, i.store(StdioAddr, 0x4142, 8))
	require.Equal(t, "B", buf.String())
}

func TestLoadBinaryFraming(t *testing.T) {
	data := []byte{1, 2, 3}
	code := []byte{4, 5, 6, 7}
	var buf bytes.Buffer
	buf.Write([]byte{3, 0, 0, 0})
	buf.Write(data)
	buf.Write(code)

	gotCode, gotData, err := LoadBinary(&buf)
	require.NoError(t, err)
	require.Equal(t, data, gotData)
	require.Equal(t, code, gotCode)
}
