// Command assemble compiles GOLF source into the binary image format
// executed by golf: a little-endian data-segment length, the
// read-only data segment, then the instruction stream (see
// package asm).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/orlp/golf-cpu/asm"
)

func main() {
	outFileName := flag.String("o", "", "output `filename` (defaults to the source name with .bin)")
	dbgFileName := flag.String("d", "", "write a JSON debug sidecar to `filename`")
	debug := flag.Bool("debug", false, "print full error detail on failure")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: assemble [-o output] [-d debugfile] SOURCE")
		os.Exit(2)
	}
	srcName := flag.Arg(0)

	if err := run(srcName, *outFileName, *dbgFileName, *debug); err != nil {
		if *debug {
			fmt.Fprintf(os.Stderr, "%+v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
		os.Exit(1)
	}
}

func run(srcName, outFileName, dbgFileName string, debug bool) error {
	src, err := os.Open(srcName)
	if err != nil {
		return errors.Wrap(err, "opening source")
	}
	defer src.Close()

	result, err := asm.Assemble(srcName, src)
	if err != nil {
		return errors.Wrap(err, "assembling")
	}

	if outFileName == "" {
		outFileName = replaceExt(srcName, ".bin")
	}
	if err := os.WriteFile(outFileName, result.Image, 0644); err != nil {
		return errors.Wrap(err, "writing image")
	}

	if dbgFileName != "" {
		f, err := os.Create(dbgFileName)
		if err != nil {
			return errors.Wrap(err, "creating debug sidecar")
		}
		defer f.Close()
		if err := result.Debug.WriteJSON(f); err != nil {
			return errors.Wrap(err, "writing debug sidecar")
		}
	}
	return nil
}

// replaceExt swaps srcName's extension for ext, or appends ext if
// srcName has none.
func replaceExt(srcName, ext string) string {
	for i := len(srcName) - 1; i >= 0 && srcName[i] != '/'; i-- {
		if srcName[i] == '.' {
			return srcName[:i] + ext
		}
	}
	return srcName + ext
}
