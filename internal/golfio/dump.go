package golfio

import (
	"fmt"
	"io"

	"github.com/orlp/golf-cpu/vm"
)

// DumpRegisters writes the exit report: the cycle count and exit
// code, followed by every register's value in decimal and hex.
func DumpRegisters(w io.Writer, regs [26]uint64, cycles uint64, exitCode uint64) error {
	ew := NewErrWriter(w)
	fmt.Fprintf(ew, "Execution terminated after %d cycles with exit code %d. Register file at exit:\n", cycles, exitCode)
	for r := vm.Reg(0); r < 26; r++ {
		v := regs[r]
		fmt.Fprintf(ew, "%s: %-20d 0x%x\n", r, int64(v), v)
	}
	return ew.Err
}
