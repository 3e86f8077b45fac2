// Package filter parses and evaluates boolean row-filter expressions.
//
// The grammar covers equality and ordering comparisons, membership
// tests, and boolean combinators over named columns:
//
//	origin == "Reddit" and (toxic or insult)
//	subject in ("sci.med", "sci.space") and not negative
//
// Anything outside this grammar is rejected with a structured parse
// error rather than handed to a general expression evaluator.
package filter

import (
	"fmt"

	"github.com/moodworks/moodboard/pkg/moodboard/internalerr"
)

// Kind discriminates the value types the grammar knows about.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	}
	return "unknown"
}

// Value is a typed scalar produced by column lookup or a literal.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
}

// String wraps a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number wraps a numeric value.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Bool wraps a boolean value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Env resolves column names to row values during evaluation.
type Env interface {
	Lookup(name string) (Value, bool)
}

// ParseError reports where and why an expression failed to parse.
type ParseError struct {
	Pos int // byte offset into the expression
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Pos, e.Msg)
}

// Unwrap marks parse failures as client errors.
func (e *ParseError) Unwrap() error { return internalerr.ErrBadFilter }

// EvalError reports a well-formed expression that cannot be evaluated
// against the row schema, e.g. an unknown column or a type mismatch.
type EvalError struct {
	Msg string
}

func (e *EvalError) Error() string { return "evaluation error: " + e.Msg }

// Unwrap marks evaluation failures as client errors.
func (e *EvalError) Unwrap() error { return internalerr.ErrBadFilter }

// Program is a parsed filter expression ready for repeated evaluation.
type Program struct {
	root expr
	src  string
}

// Parse compiles an expression. The returned Program is immutable and
// safe for concurrent evaluation.
func Parse(input string) (*Program, error) {
	toks, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, &ParseError{Pos: tok.pos, Msg: fmt.Sprintf("unexpected %q", tok.text)}
	}
	return &Program{root: root, src: input}, nil
}

// Source returns the original expression text.
func (p *Program) Source() string { return p.src }

// Eval evaluates the program against one row. The expression must
// produce a boolean.
func (p *Program) Eval(env Env) (bool, error) {
	v, err := p.root.eval(env)
	if err != nil {
		return false, err
	}
	if v.Kind != KindBool {
		return false, &EvalError{Msg: fmt.Sprintf("expression yields a %s, not a boolean", v.Kind)}
	}
	return v.Bool, nil
}
