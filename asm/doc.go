// Package asm assembles GOLF source into the binary image format
// executed by package vm: a line-oriented text syntax of labels,
// constant bindings, and one instruction per line, evaluated by a
// small restricted expression language (registers, integer and string
// literals, the math/pow/data namespace, +-*/%&|^ and unary -/~) and
// encoded through a two-pass label resolution scheme.
package asm
