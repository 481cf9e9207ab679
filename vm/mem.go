package vm

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
)

// growTo zero-extends *seg so that it is at least n bytes long.
func growTo(seg *[]byte, n int) {
	if len(*seg) >= n {
		return
	}
	grown := make([]byte, n)
	copy(grown, *seg)
	*seg = grown
}

func readLE(b []byte, width int) uint64 {
	switch width {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	case 8:
		return binary.LittleEndian.Uint64(b)
	default:
		panic("vm: invalid memory access width")
	}
}

func writeLE(b []byte, width int, v uint64) {
	switch width {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(b, v)
	default:
		panic("vm: invalid memory access width")
	}
}

// load reads a width-byte (1, 2, 4 or 8) little-endian value at addr.
func (i *Instance) load(addr uint64, width int) (uint64, error) {
	if addr == StdioAddr {
		if width != 8 {
			return 0, errors.Errorf("stdio access must use 8-byte width, got %d", width)
		}
		return i.readStdin()
	}
	seg, off := classify(addr)
	switch seg {
	case segHeap:
		growTo(&i.heap, int(off)+width)
		return readLE(i.heap[off:off+uint64(width)], width), nil
	case segStack:
		growTo(&i.stack, int(off)+width)
		return readLE(i.stack[off:off+uint64(width)], width), nil
	case segData:
		if off+uint64(width) > uint64(len(i.data)) {
			return 0, errors.Errorf("read out of bounds of data segment at offset %d", off)
		}
		return readLE(i.data[off:off+uint64(width)], width), nil
	default:
		return 0, errors.Errorf("unaddressable location 0x%x", addr)
	}
}

// store writes a width-byte little-endian value v at addr.
func (i *Instance) store(addr uint64, v uint64, width int) error {
	if addr == StdioAddr {
		if width != 8 {
			return errors.Errorf("stdio access must use 8-byte width, got %d", width)
		}
		return i.writeStdout(v)
	}
	seg, off := classify(addr)
	switch seg {
	case segHeap:
		growTo(&i.heap, int(off)+width)
		writeLE(i.heap[off:off+uint64(width)], width, v)
		return nil
	case segStack:
		growTo(&i.stack, int(off)+width)
		writeLE(i.stack[off:off+uint64(width)], width, v)
		return nil
	case segData:
		return errors.Errorf("write to read-only data segment at offset %d", off)
	default:
		return errors.Errorf("unaddressable location 0x%x", addr)
	}
}

// readStdin reads one byte from the machine's input stream. EOF yields
// the all-ones sentinel value rather than an error, matching the
// reference interpreter's treatment of console EOF as a guest-visible
// condition rather than a host fault.
func (i *Instance) readStdin() (uint64, error) {
	if i.stdinEOF || i.stdin == nil {
		return ^uint64(0), nil
	}
	var b [1]byte
	_, err := io.ReadFull(i.stdin, b[:])
	if err != nil {
		i.stdinEOF = true
		return ^uint64(0), nil
	}
	return uint64(b[0]), nil
}

// writeStdout writes the low byte of v to the machine's output stream
// and flushes it immediately.
func (i *Instance) writeStdout(v uint64) error {
	if i.stdout == nil {
		return nil
	}
	_, err := i.stdout.Write([]byte{byte(v)})
	if f, ok := i.stdout.(interface{ Flush() error }); ok {
		if ferr := f.Flush(); err == nil {
			err = ferr
		}
	}
	return errors.Wrap(err, "stdio write failed")
}

// LoadBinary reads an assembled image in its wire format: a
// little-endian uint32 byte count for the data segment, that many
// bytes of read-only data, then the instruction stream to EOF.
func LoadBinary(r io.Reader) (code, data []byte, err error) {
	br := bufio.NewReader(r)
	var lenBuf [4]byte
	if _, err = io.ReadFull(br, lenBuf[:]); err != nil {
		return nil, nil, errors.Wrap(err, "reading data segment length")
	}
	dataLen := binary.LittleEndian.Uint32(lenBuf[:])
	data = make([]byte, dataLen)
	if _, err = io.ReadFull(br, data); err != nil {
		return nil, nil, errors.Wrap(err, "reading data segment")
	}
	code, err = io.ReadAll(br)
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading instruction stream")
	}
	return code, data, nil
}

// LoadBinaryFile opens fileName and loads it with LoadBinary.
func LoadBinaryFile(fileName string) (code, data []byte, err error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open failed")
	}
	defer f.Close()
	return LoadBinary(f)
}
