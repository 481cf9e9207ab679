package asm

import (
	"encoding/binary"

	"github.com/orlp/golf-cpu/vm"
)

// dataPool collects the read-only data segment: every data(...) call
// site contributes one blob, deduplicated by exact byte content, in
// the order first encountered. Addresses are assigned eagerly as each
// distinct blob is first seen, so a data(...) expression can be used
// immediately as an operand value without a later fix-up pass.
type dataPool struct {
	blobs   [][]byte
	offsets map[string]uint64 // content -> address, cache for dedup
	size    uint64
}

func newDataPool() *dataPool {
	return &dataPool{offsets: make(map[string]uint64)}
}

// define encodes args into the pool: a
// single string literal is UTF-8 bytes plus a trailing NUL; any other
// argument list is one or more 8-byte little-endian words, one per
// argument. It returns the (possibly deduplicated) address of the blob.
func (p *dataPool) define(args []value) (value, error) {
	var blob []byte
	if len(args) == 1 && args[0].isStr {
		blob = append([]byte(args[0].str), 0)
	} else {
		blob = make([]byte, 8*len(args))
		for idx, a := range args {
			n, err := a.asNum()
			if err != nil {
				return value{}, err
			}
			binary.LittleEndian.PutUint64(blob[idx*8:], uint64(n))
		}
	}
	return numValue(int64(p.intern(blob))), nil
}

func (p *dataPool) intern(blob []byte) uint64 {
	key := string(blob)
	if addr, ok := p.offsets[key]; ok {
		return addr
	}
	addr := vm.DataBase + p.size
	p.offsets[key] = addr
	p.blobs = append(p.blobs, blob)
	p.size += uint64(len(blob))
	return addr
}

// Bytes concatenates the pool's blobs in first-seen order, forming the
// final read-only data segment.
func (p *dataPool) Bytes() []byte {
	out := make([]byte, 0, p.size)
	for _, b := range p.blobs {
		out = append(out, b...)
	}
	return out
}
