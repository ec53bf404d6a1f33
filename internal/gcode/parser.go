package gcode

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalid is wrapped by every ParseError.
var ErrInvalid = errors.New("invalid gcode")

// ParseError reports a line that does not match the accepted grammar.
type ParseError struct {
	Line   int    // 1-based line number
	Column int    // 1-based column where parsing stopped
	Text   string // the offending line
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %d: %v: %q", e.Line, e.Column, ErrInvalid, e.Text)
}

func (e *ParseError) Unwrap() error {
	return ErrInvalid
}

// Parser turns lines of text into steps. Axis, extrusion, feed rate and fan
// values carry over from one line to the next, so every returned step holds
// the full machine state.
type Parser struct {
	cur  Step
	line int
}

// NewParser returns a parser starting from an all-zero machine state.
func NewParser() *Parser {
	return &Parser{}
}

// Line returns the number of lines parsed so far.
func (p *Parser) Line() int {
	return p.line
}

// Parse parses one line. A trailing carriage return is ignored. Empty and
// comment-only lines yield a NOP step.
func (p *Parser) Parse(text string) (Step, error) {
	p.line++
	text = strings.TrimSuffix(text, "\r")

	next := p.cur
	next.Kind = NOP
	next.Comment = ""

	l := &lexer{s: text}
	l.instruction(&next)
	if l.literal(";") {
		next.Comment = l.s[l.pos:]
		l.pos = len(l.s)
	}
	if !l.done() {
		return Step{}, &ParseError{Line: p.line, Column: l.pos + 1, Text: text}
	}

	p.cur = next
	return next, nil
}

type lexer struct {
	s   string
	pos int
}

func (l *lexer) done() bool {
	return l.pos == len(l.s)
}

func (l *lexer) literal(lit string) bool {
	if strings.HasPrefix(l.s[l.pos:], lit) {
		l.pos += len(lit)
		return true
	}
	return false
}

// spaces consumes one or more blanks.
func (l *lexer) spaces() bool {
	start := l.pos
	for l.pos < len(l.s) && l.s[l.pos] == ' ' {
		l.pos++
	}
	return l.pos > start
}

// instruction tries each known instruction in turn and leaves the lexer
// untouched when none matches.
func (l *lexer) instruction(st *Step) {
	type rule struct {
		kind  Kind
		match func(*lexer, *Step) bool
	}
	rules := []rule{
		{MoveFast, func(l *lexer, st *Step) bool { return l.literal("G0") && l.spaces() && l.params(st) }},
		{FanOff, func(l *lexer, _ *Step) bool { return l.literal("M107") }},
		{MoveLin, func(l *lexer, st *Step) bool { return l.literal("G1") && l.spaces() && l.params(st) }},
		{RetractStart, func(l *lexer, _ *Step) bool { return l.literal("G10") }},
		{RetractStop, func(l *lexer, _ *Step) bool { return l.literal("G11") }},
		{FanOn, func(l *lexer, st *Step) bool {
			if !(l.literal("M106") && l.spaces() && l.literal("S")) {
				return false
			}
			v, ok := l.integer()
			if ok {
				st.S = v
			}
			return ok
		}},
		{DefinePos, func(l *lexer, st *Step) bool { return l.literal("G92") && l.spaces() && l.params(st) }},
	}

	start := l.pos
	for _, r := range rules {
		trial := *st
		if r.match(l, &trial) {
			trial.Kind = r.kind
			*st = trial
			return
		}
		l.pos = start
	}
}

// params parses one or more single-space separated axis parameters.
func (l *lexer) params(st *Step) bool {
	if !l.param(st) {
		return false
	}
	for {
		save := l.pos
		trial := *st
		if l.literal(" ") && l.param(&trial) {
			*st = trial
			continue
		}
		l.pos = save
		return true
	}
}

func (l *lexer) param(st *Step) bool {
	if l.done() {
		return false
	}
	var dst *float64
	switch l.s[l.pos] {
	case 'X':
		dst = &st.X
	case 'Y':
		dst = &st.Y
	case 'Z':
		dst = &st.Z
	case 'E':
		dst = &st.E
	case 'F':
		dst = &st.F
	default:
		return false
	}
	save := l.pos
	l.pos++
	v, ok := l.number()
	if !ok {
		l.pos = save
		return false
	}
	*dst = v
	return true
}

func (l *lexer) digits() int {
	start := l.pos
	for l.pos < len(l.s) && l.s[l.pos] >= '0' && l.s[l.pos] <= '9' {
		l.pos++
	}
	return l.pos - start
}

func (l *lexer) sign() {
	if l.pos < len(l.s) && (l.s[l.pos] == '+' || l.s[l.pos] == '-') {
		l.pos++
	}
}

// number consumes the longest decimal floating-point literal at the cursor.
func (l *lexer) number() (float64, bool) {
	start := l.pos
	l.sign()
	n := l.digits()
	if l.pos < len(l.s) && l.s[l.pos] == '.' {
		l.pos++
		n += l.digits()
	}
	if n == 0 {
		l.pos = start
		return 0, false
	}
	if l.pos < len(l.s) && (l.s[l.pos] == 'e' || l.s[l.pos] == 'E') {
		save := l.pos
		l.pos++
		l.sign()
		if l.digits() == 0 {
			l.pos = save
		}
	}
	v, err := strconv.ParseFloat(l.s[start:l.pos], 64)
	if err != nil {
		l.pos = start
		return 0, false
	}
	return v, true
}

func (l *lexer) integer() (int, bool) {
	start := l.pos
	l.sign()
	if l.digits() == 0 {
		l.pos = start
		return 0, false
	}
	v, err := strconv.Atoi(l.s[start:l.pos])
	if err != nil {
		l.pos = start
		return 0, false
	}
	return v, true
}
