// Command golf loads and runs an assembled GOLF image (see package
// asm and package vm), printing the exit report — cycle count,
// exit code, and the register file — once the guest halts.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/orlp/golf-cpu/config"
	"github.com/orlp/golf-cpu/internal/golfio"
	"github.com/orlp/golf-cpu/vm"
)

func main() {
	cfgPath := flag.String("config", "", "load configuration from `filename` (defaults to ./golf.toml if present)")
	stats := flag.Bool("stats", false, "print execution time and throughput on exit")
	debug := flag.Bool("debug", false, "print full error detail on failure")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: golf [-config file] [-stats] FILE")
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *cfgPath, *stats); err != nil {
		if *debug {
			fmt.Fprintf(os.Stderr, "%+v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
		os.Exit(1)
	}
}

func run(fileName, cfgPath string, stats bool) error {
	if cfgPath == "" {
		if _, err := os.Stat(config.DefaultPath()); err == nil {
			cfgPath = config.DefaultPath()
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	code, data, err := vm.LoadBinaryFile(fileName)
	if err != nil {
		return errors.Wrap(err, "loading image")
	}

	opts := []vm.Option{
		vm.HeapSize(cfg.Execution.HeapSize),
		vm.StackSize(cfg.Execution.StackSize),
		vm.MaxCycles(cfg.Execution.MaxCycles),
		vm.Stdio(bufio.NewReader(os.Stdin), os.Stdout),
	}

	var traceFile *os.File
	if cfg.Trace.Enabled {
		traceFile, err = os.Create(cfg.Trace.OutputFile)
		if err != nil {
			return errors.Wrap(err, "creating trace file")
		}
		defer traceFile.Close()
		tw := bufio.NewWriter(traceFile)
		defer tw.Flush()
		opts = append(opts, vm.Trace(func(pc int, mnemonic string) {
			fmt.Fprintf(tw, "%d: %s\n", pc, mnemonic)
		}))
	}

	inst, err := vm.New(code, data, opts...)
	if err != nil {
		return errors.Wrap(err, "initializing machine")
	}

	start := time.Now()
	exitCode, err := inst.Run()
	elapsed := time.Since(start)
	if err != nil {
		return errors.Wrap(err, "execution failed")
	}

	if stats {
		fmt.Fprintf(os.Stderr, "Executed %d cycles in %v (%.3f MHz).\n",
			inst.Cycles(), elapsed, float64(inst.Cycles())/float64(elapsed)*float64(time.Second)/1e6)
	}

	return golfio.DumpRegisters(os.Stdout, inst.Regs(), inst.Cycles(), uint64(exitCode))
}
