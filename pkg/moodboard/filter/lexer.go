package filter

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokAnd
	tokOr
	tokNot
	tokIn
	tokTrue
	tokFalse
	tokEq
	tokNeq
	tokLt
	tokLte
	tokGt
	tokGte
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

var keywords = map[string]tokenKind{
	"and":   tokAnd,
	"or":    tokOr,
	"not":   tokNot,
	"in":    tokIn,
	"true":  tokTrue,
	"false": tokFalse,
}

func lex(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		r, width := utf8.DecodeRuneInString(input[i:])

		switch {
		case unicode.IsSpace(r):
			i += width

		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case r == ',':
			toks = append(toks, token{kind: tokComma, text: ",", pos: i})
			i++

		case r == '=':
			if strings.HasPrefix(input[i:], "==") {
				toks = append(toks, token{kind: tokEq, text: "==", pos: i})
				i += 2
			} else {
				return nil, &ParseError{Pos: i, Msg: "unexpected \"=\" (use \"==\" for equality)"}
			}
		case r == '!':
			if strings.HasPrefix(input[i:], "!=") {
				toks = append(toks, token{kind: tokNeq, text: "!=", pos: i})
				i += 2
			} else {
				return nil, &ParseError{Pos: i, Msg: "unexpected \"!\""}
			}
		case r == '<':
			if strings.HasPrefix(input[i:], "<=") {
				toks = append(toks, token{kind: tokLte, text: "<=", pos: i})
				i += 2
			} else {
				toks = append(toks, token{kind: tokLt, text: "<", pos: i})
				i++
			}
		case r == '>':
			if strings.HasPrefix(input[i:], ">=") {
				toks = append(toks, token{kind: tokGte, text: ">=", pos: i})
				i += 2
			} else {
				toks = append(toks, token{kind: tokGt, text: ">", pos: i})
				i++
			}

		case r == '\'' || r == '"':
			text, next, err := lexString(input, i, byte(r))
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokString, text: text, pos: i})
			i = next

		case unicode.IsDigit(r) || (r == '-' && i+1 < len(input) && input[i+1] >= '0' && input[i+1] <= '9'):
			start := i
			i++
			for i < len(input) && (input[i] == '.' || (input[i] >= '0' && input[i] <= '9')) {
				i++
			}
			num, err := strconv.ParseFloat(input[start:i], 64)
			if err != nil {
				return nil, &ParseError{Pos: start, Msg: fmt.Sprintf("bad number %q", input[start:i])}
			}
			toks = append(toks, token{kind: tokNumber, text: input[start:i], num: num, pos: start})

		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(input) {
				r2, w2 := utf8.DecodeRuneInString(input[i:])
				if !unicode.IsLetter(r2) && !unicode.IsDigit(r2) && r2 != '_' {
					break
				}
				i += w2
			}
			word := input[start:i]
			if kind, ok := keywords[strings.ToLower(word)]; ok {
				toks = append(toks, token{kind: kind, text: word, pos: start})
			} else {
				toks = append(toks, token{kind: tokIdent, text: word, pos: start})
			}

		default:
			return nil, &ParseError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", r)}
		}
	}

	toks = append(toks, token{kind: tokEOF, pos: len(input)})
	return toks, nil
}

// lexString scans a quoted literal with backslash escapes for the
// quote character and backslash itself.
func lexString(input string, start int, quote byte) (string, int, error) {
	var sb strings.Builder
	i := start + 1
	for i < len(input) {
		c := input[i]
		switch {
		case c == '\\' && i+1 < len(input):
			sb.WriteByte(input[i+1])
			i += 2
		case c == quote:
			return sb.String(), i + 1, nil
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return "", 0, &ParseError{Pos: start, Msg: "unterminated string literal"}
}
