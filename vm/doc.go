// Package vm implements the GOLF virtual machine: a 26 register, 64-bit
// register machine with a growable heap, a growable stack, a read-only
// data segment and a byte-oriented stdio channel, executing the
// bit-packed instruction stream produced by package asm.
//
// An Instance owns all guest-visible state: the register file, the
// three memory segments, the call stack and the cycle counter. Run
// decodes and executes instructions starting at the current program
// counter until the guest halts, a runtime fault occurs, or an optional
// cycle ceiling configured on the Instance is reached.
package vm
