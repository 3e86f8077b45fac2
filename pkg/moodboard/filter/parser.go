package filter

import "fmt"

// parser is a recursive descent parser over the lexed token stream.
//
// Grammar, lowest precedence first:
//
//	expr    := and ( "or" and )*
//	and     := unary ( "and" unary )*
//	unary   := "not" unary | cmp
//	cmp     := primary ( cmpOp primary | "in" "(" literals ")" )?
//	primary := "(" expr ")" | literal | ident
type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	tok := p.next()
	if tok.kind != kind {
		return token{}, &ParseError{Pos: tok.pos, Msg: fmt.Sprintf("expected %s, got %q", what, tokenText(tok))}
	}
	return tok, nil
}

func tokenText(tok token) string {
	if tok.kind == tokEOF {
		return "end of expression"
	}
	return tok.text
}

func (p *parser) parseExpr() (expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &logicalExpr{op: opOr, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &logicalExpr{op: opAnd, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (expr, error) {
	if p.peek().kind == tokNot {
		p.next()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &notExpr{inner: inner}, nil
	}
	return p.parseCmp()
}

var cmpTokens = map[tokenKind]cmpOp{
	tokEq:  cmpEq,
	tokNeq: cmpNeq,
	tokLt:  cmpLt,
	tokLte: cmpLte,
	tokGt:  cmpGt,
	tokGte: cmpGte,
}

func (p *parser) parseCmp() (expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	tok := p.peek()
	if op, ok := cmpTokens[tok.kind]; ok {
		p.next()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &cmpExpr{op: op, left: left, right: right}, nil
	}

	if tok.kind == tokIn {
		p.next()
		list, err := p.parseLiteralList()
		if err != nil {
			return nil, err
		}
		return &inExpr{left: left, list: list}, nil
	}

	return left, nil
}

func (p *parser) parseLiteralList() ([]Value, error) {
	if _, err := p.expect(tokLParen, `"(" after "in"`); err != nil {
		return nil, err
	}

	var list []Value
	for {
		tok := p.next()
		switch tok.kind {
		case tokString:
			list = append(list, String(tok.text))
		case tokNumber:
			list = append(list, Number(tok.num))
		case tokTrue:
			list = append(list, Bool(true))
		case tokFalse:
			list = append(list, Bool(false))
		default:
			return nil, &ParseError{Pos: tok.pos, Msg: fmt.Sprintf("expected a literal, got %q", tokenText(tok))}
		}

		sep := p.next()
		if sep.kind == tokRParen {
			return list, nil
		}
		if sep.kind != tokComma {
			return nil, &ParseError{Pos: sep.pos, Msg: fmt.Sprintf(`expected "," or ")", got %q`, tokenText(sep))}
		}
	}
}

func (p *parser) parsePrimary() (expr, error) {
	tok := p.next()
	switch tok.kind {
	case tokLParen:
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, `")"`); err != nil {
			return nil, err
		}
		return inner, nil
	case tokString:
		return &literalExpr{val: String(tok.text)}, nil
	case tokNumber:
		return &literalExpr{val: Number(tok.num)}, nil
	case tokTrue:
		return &literalExpr{val: Bool(true)}, nil
	case tokFalse:
		return &literalExpr{val: Bool(false)}, nil
	case tokIdent:
		return &identExpr{name: tok.text}, nil
	}
	return nil, &ParseError{Pos: tok.pos, Msg: fmt.Sprintf("expected a value, got %q", tokenText(tok))}
}
