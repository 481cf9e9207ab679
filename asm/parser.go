package asm

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/scanner"

	"github.com/orlp/golf-cpu/isa"
	"github.com/pkg/errors"
)

// operandTok is one not-yet-evaluated operand: a slice of source text
// together with the position it came from, or a synthetic token
// fabricated by pseudo-instruction expansion (asm/pseudo.go), which
// carries no position since it was never written by the source author.
type operandTok struct {
	text string
	pos  scanner.Position
}

func regTok(letter byte) operandTok { return operandTok{text: string(letter)} }

var (
	zeroTok   = operandTok{text: "0"}
	oneTok    = operandTok{text: "1"}
	negOneTok = operandTok{text: "-1"}
	eightTok  = operandTok{text: "8"}
)

// isBareRegister reports whether t can only ever evaluate to a
// register operand: exactly one lowercase letter.
func (t operandTok) isBareRegister() bool {
	return len(t.text) == 1 && t.text[0] >= 'a' && t.text[0] <= 'z'
}

func errf(toks []operandTok, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if len(toks) > 0 && toks[0].pos.IsValid() {
		return errors.Errorf("%s: %s", toks[0].pos, msg)
	}
	return errors.New(msg)
}

// Line is one source line after comment-stripping and backslash
// continuation joining, annotated with the file line it started on.
type Line struct {
	Text string
	Num  int
}

// readLines joins backslash-continued lines and strips '#'-introduced
// comments that fall outside a string literal.
func readLines(r io.Reader) ([]Line, error) {
	var out []Line
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)

	lineNum := 0
	var pending string
	pendingStart := 0
	for sc.Scan() {
		lineNum++
		stripped := stripComment(sc.Text())
		trimmedRight := strings.TrimRight(stripped, " \t")
		if pending == "" {
			pendingStart = lineNum
		}
		if strings.HasSuffix(trimmedRight, "\\") {
			pending += strings.TrimSuffix(trimmedRight, "\\")
			continue
		}
		pending += trimmedRight
		if trimmed := strings.TrimSpace(pending); trimmed != "" {
			out = append(out, Line{Text: trimmed, Num: pendingStart})
		}
		pending = ""
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "reading source")
	}
	if trimmed := strings.TrimSpace(pending); trimmed != "" {
		out = append(out, Line{Text: trimmed, Num: pendingStart})
	}
	return out, nil
}

// stripComment removes a trailing '#' comment, leaving a '#' that
// appears inside a string literal alone.
func stripComment(s string) string {
	inStr := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inStr = !inStr
		case '#':
			if !inStr {
				return s[:i]
			}
		}
	}
	return s
}

type stmtKind int

const (
	stmtLabel stmtKind = iota
	stmtConst
	stmtInstr
)

type statement struct {
	kind     stmtKind
	line     int
	name     string
	mnemonic string
	operands []operandTok
}

// parseStatement classifies one logical line: a `:label` definition,
// a `name = expr` constant binding, or a `mnemonic op, op, ...`
// instruction.
func parseStatement(ln Line) (statement, error) {
	text := ln.Text

	if strings.HasPrefix(text, ":") {
		name := strings.TrimSpace(text[1:])
		if name == "" {
			return statement{}, errors.Errorf("%d: empty label", ln.Num)
		}
		if !isIdent(name) {
			return statement{}, errors.Errorf("%d: invalid label name %q", ln.Num, name)
		}
		return statement{kind: stmtLabel, line: ln.Num, name: name}, nil
	}

	if eq := topLevelAssign(text); eq >= 0 {
		name := strings.TrimSpace(text[:eq])
		if !isIdent(name) {
			return statement{}, errors.Errorf("%d: invalid constant name %q", ln.Num, name)
		}
		rest := text[eq+1:]
		return statement{
			kind: stmtConst, line: ln.Num, name: name,
			operands: []operandTok{{text: rest, pos: scanner.Position{Line: ln.Num}}},
		}, nil
	}

	i := strings.IndexAny(text, " \t")
	var mnemonic, rest string
	if i < 0 {
		mnemonic, rest = text, ""
	} else {
		mnemonic, rest = text[:i], strings.TrimSpace(text[i:])
	}
	operands, err := splitOperands(rest, ln.Num)
	if err != nil {
		return statement{}, err
	}
	return statement{kind: stmtInstr, line: ln.Num, mnemonic: mnemonic, operands: operands}, nil
}

// topLevelAssign returns the index of the first '=' outside a string
// literal, or -1 if there is none. A line has at most one meaningful
// '=': the grammar has no '=' operator, so its presence always marks
// a constant binding.
func topLevelAssign(s string) int {
	inStr := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inStr = !inStr
		case '=':
			if !inStr {
				return i
			}
		}
	}
	return -1
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for idx, c := range s {
		switch {
		case c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		case idx > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

// splitOperands splits s on top-level commas — outside parens and
// string literals — into operand tokens, each annotated with line.
func splitOperands(s string, line int) ([]operandTok, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []operandTok
	depth := 0
	inStr := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inStr = !inStr
		case '(':
			if !inStr {
				depth++
			}
		case ')':
			if !inStr {
				depth--
			}
		case ',':
			if !inStr && depth == 0 {
				out = append(out, operandTok{text: strings.TrimSpace(s[start:i]), pos: scanner.Position{Line: line}})
				start = i + 1
			}
		}
	}
	out = append(out, operandTok{text: strings.TrimSpace(s[start:]), pos: scanner.Position{Line: line}})
	return out, nil
}

// programItem is either a resolved label definition or a real
// instruction (pseudo-instructions already expanded by lowerInstr)
// awaiting operand evaluation and encoding in asm/encode.go.
type programItem struct {
	isLabel  bool
	label    string
	mnemonic string
	operands []operandTok
	line     int
}

// anonLabelName names the anonymous label anchored at logical
// instruction index idx, used as a sz/snz pseudo-op's jump target.
// The '$' prefix can never collide with a user label: isIdent/label
// names always start with a letter or underscore.
func anonLabelName(idx int) string {
	return fmt.Sprintf("$skip%d", idx)
}

// Parse reads GOLF assembly source and returns the ordered program
// items together with the environment (registers, user constants,
// data pool) accumulated while reading it. diag receives non-fatal
// warnings (e.g. ret naming z); pass NewDiagnostics(nil) for the
// default os.Stderr destination.
func Parse(name string, r io.Reader, diag *Diagnostics) ([]programItem, *env, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, nil, err
	}

	pool := newDataPool()
	e := newEnv(pool)
	var items []programItem
	var errs []error

	// logicalIdx counts instruction statements only (not labels or
	// constant bindings), matching the numbering sz/snz skip counts
	// are relative to. itemIdxForLogical maps each logical index to
	// the position in items its first expanded real instruction
	// starts at, so a sz/snz's anonymous forward/backward label can
	// be anchored there once every logical instruction has been seen.
	logicalIdx := 0
	itemIdxForLogical := map[int]int{}
	neededAnchors := map[int]bool{}

	for _, ln := range lines {
		st, err := parseStatement(ln)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		switch st.kind {
		case stmtLabel:
			items = append(items, programItem{isLabel: true, label: st.name, line: st.line})

		case stmtConst:
			n, err := evalConst(st.operands[0], e)
			if err != nil {
				errs = append(errs, errors.Wrapf(err, "line %d", st.line))
				continue
			}
			if err := e.defineConst(st.name, n); err != nil {
				errs = append(errs, errors.Wrapf(err, "line %d", st.line))
			}

		case stmtInstr:
			itemIdxForLogical[logicalIdx] = len(items)
			expanded, anchor, err := lowerInstr(logicalIdx, st.mnemonic, st.operands, e, diag)
			if err != nil {
				errs = append(errs, errors.Wrapf(err, "line %d", st.line))
				logicalIdx++
				continue
			}
			for _, ro := range expanded {
				items = append(items, programItem{mnemonic: ro.mnemonic, operands: ro.operands, line: st.line})
			}
			if anchor >= 0 {
				neededAnchors[anchor] = true
			}
			logicalIdx++
		}
	}
	// One-past-the-end anchor, for a sz/snz target that lands exactly
	// at the end of the program.
	itemIdxForLogical[logicalIdx] = len(items)

	if len(errs) > 0 {
		return nil, nil, &ErrAsm{Errs: errs}
	}

	if len(neededAnchors) > 0 {
		type pendingAnchor struct {
			itemIdx int
			target  int
		}
		var anchors []pendingAnchor
		for target := range neededAnchors {
			itemIdx, ok := itemIdxForLogical[target]
			if !ok {
				return nil, nil, errors.Errorf("sz/snz target logical instruction %d is out of range", target)
			}
			anchors = append(anchors, pendingAnchor{itemIdx, target})
		}
		// Insert highest item index first so earlier insertions don't
		// shift the positions recorded for anchors still pending.
		sort.Slice(anchors, func(i, j int) bool { return anchors[i].itemIdx > anchors[j].itemIdx })
		for _, a := range anchors {
			label := programItem{isLabel: true, label: anonLabelName(a.target)}
			tail := append([]programItem{label}, items[a.itemIdx:]...)
			items = append(items[:a.itemIdx], tail...)
		}
	}

	return items, e, nil
}

// evalConst evaluates a `name = expr` right-hand side. Constants must
// be fully resolvable numbers at the point of definition: neither a
// bare register nor a label may appear, forward or otherwise — the
// evaluator only ever produces a label sentinel for use as a bare
// operand, never as an arithmetic value (see value.asNum).
func evalConst(tok operandTok, e *env) (int64, error) {
	p := newExprParser(tok.text, tok.pos, e)
	v, err := p.ParseOperand()
	if err != nil {
		return 0, err
	}
	return v.asNum()
}

// lowerInstr validates a source instruction's mnemonic and operand
// count against the opcode table and, for pseudo-instructions, expands
// it into one or more real instructions. It returns the expanded real
// ops together with the logical instruction index a sz/snz anonymous
// label must be anchored at (or -1 if this instruction needs none).
func lowerInstr(logicalIdx int, mnemonic string, operands []operandTok, e *env, diag *Diagnostics) ([]realOp, int, error) {
	switch mnemonic {
	case "halt":
		if len(operands) != 1 {
			return nil, -1, errf(operands, "halt takes exactly 1 operand, got %d", len(operands))
		}
		return one(mnemonic, operands...), -1, nil

	case "ret":
		var kept []operandTok
		for _, o := range operands {
			if !o.isBareRegister() {
				return nil, -1, errf([]operandTok{o}, "ret operands must be bare registers")
			}
			if o.text == "z" {
				diag.Warnf("%s: unnecessary z passed into ret", o.pos)
				continue
			}
			kept = append(kept, o)
		}
		return one(mnemonic, kept...), -1, nil

	case "sz", "snz":
		return lowerSkip(logicalIdx, mnemonic, operands, e)
	}

	sig, ok := isa.Signatures[mnemonic]
	if !ok {
		return nil, -1, errf(operands, "unknown mnemonic %q", mnemonic)
	}
	if len(operands) != sig.Out+sig.In {
		return nil, -1, errf(operands, "%s takes %d operand(s), got %d", mnemonic, sig.Out+sig.In, len(operands))
	}
	for idx := 0; idx < sig.Out; idx++ {
		if !operands[idx].isBareRegister() {
			return nil, -1, errf(operands[idx:idx+1], "%s operand %d must be a register", mnemonic, idx+1)
		}
	}

	if isa.IsPseudo(mnemonic) {
		ops, err := expandPseudo(mnemonic, operands)
		return ops, -1, err
	}
	return one(mnemonic, operands...), -1, nil
}

// lowerSkip expands a sz/snz pseudo-op into a real jz/jnz targeting the
// anonymous label anchored pc+k+1 logical instructions from here, where
// k is this instruction's skip-count operand (a fully resolvable
// constant integer, never a register) and pc is logicalIdx.
func lowerSkip(logicalIdx int, mnemonic string, operands []operandTok, e *env) ([]realOp, int, error) {
	if len(operands) != 2 {
		return nil, -1, errf(operands, "%s takes 2 operand(s), got %d", mnemonic, len(operands))
	}
	if !operands[0].isBareRegister() {
		return nil, -1, errf(operands[0:1], "%s operand 1 must be a register", mnemonic)
	}
	k, err := evalConst(operands[1], e)
	if err != nil {
		return nil, -1, errors.Wrapf(err, "%s skip count must be a constant integer", mnemonic)
	}
	target := logicalIdx + int(k) + 1
	if target < 0 {
		return nil, -1, errf(operands[1:2], "%s skip count moves before the start of the program", mnemonic)
	}
	return expandSkip(mnemonic, operands[0], anonLabelName(target)), target, nil
}
