package asm

import (
	"encoding/json"
	"io"
)

// Debug is a sidecar written alongside an assembled image: for
// every emitted instruction, the source line it came from and the
// byte address/size it encoded to, plus the final label table.
// Serialized as JSON with the standard library encoder, matching the
// rest of the toolchain's debug-output style.
type Debug struct {
	Instructions []DebugInstr  `json:"instructions"`
	Labels       map[string]int `json:"labels"`
}

// DebugInstr describes one encoded instruction.
type DebugInstr struct {
	Line     int    `json:"line"`
	Addr     int    `json:"addr"`
	Size     int    `json:"size"`
	Mnemonic string `json:"mnemonic"`
}

// WriteJSON serializes d as indented JSON to w.
func (d *Debug) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}
