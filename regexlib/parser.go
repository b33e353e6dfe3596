package regexlib

// Recursive descent over the fixed pattern grammar:
//
//	regex     := alt
//	alt       := concat ('|' concat)*
//	concat    := piece*
//	piece     := atom quantifier?
//	atom      := literal | '.' | '[' class ']' | '(' alt ')' | '\' escape
type parser struct {
	lex  *lexer
	look token
}

func newParser(pattern string) (*parser, error) {
	p := &parser{lex: newLexer(pattern)}
	if err := p.scan(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *parser) scan() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.look = tok
	return nil
}

func (p *parser) parse() (*astNode, error) {
	node, err := p.parseAlt()
	if err != nil {
		return nil, err
	}
	if p.look.typ == tRParen {
		return nil, &InvalidRegexError{Pos: p.look.pos, Ch: ')', Msg: "unbalanced group"}
	}
	if p.look.typ != tEOF {
		return nil, &InvalidRegexError{Pos: p.look.pos, Ch: p.look.ch, Msg: "unexpected character"}
	}
	return node, nil
}

func (p *parser) parseAlt() (*astNode, error) {
	left, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	for p.look.typ == tUnion {
		if err := p.scan(); err != nil {
			return nil, err
		}
		right, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		left = &astNode{typ: nUnion, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseConcat() (*astNode, error) {
	var left *astNode
	for {
		switch p.look.typ {
		case tUnion, tRParen, tEOF:
			if left == nil {
				return &astNode{typ: nEmpty}, nil
			}
			return left, nil
		case tStar, tPlus, tQMark:
			return nil, &InvalidRegexError{Pos: p.look.pos, Ch: p.look.ch, Msg: "quantifier with no preceding atom"}
		}

		piece, err := p.parsePiece()
		if err != nil {
			return nil, err
		}
		if left == nil {
			left = piece
		} else {
			left = &astNode{typ: nConcat, left: left, right: piece}
		}
	}
}

func (p *parser) parsePiece() (*astNode, error) {
	atom, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	switch p.look.typ {
	case tStar:
		atom = &astNode{typ: nStar, left: atom}
	case tPlus:
		atom = &astNode{typ: nPlus, left: atom}
	case tQMark:
		atom = &astNode{typ: nQMark, left: atom}
	default:
		return atom, nil
	}
	if err := p.scan(); err != nil {
		return nil, err
	}
	return atom, nil
}

func (p *parser) parseAtom() (*astNode, error) {
	switch p.look.typ {
	case tChar, tDash, tRBracket:
		// Bare '-' and ']' outside a class are ordinary literals.
		node := rangeNode(p.look.ch, p.look.ch)
		return node, p.scan()
	case tDot:
		return rangeNode(0, charMax), p.scan()
	case tClass:
		node := spansToNode(p.look.spans)
		return node, p.scan()
	case tLParen:
		open := p.look.pos
		if err := p.scan(); err != nil {
			return nil, err
		}
		inner, err := p.parseAlt()
		if err != nil {
			return nil, err
		}
		if p.look.typ != tRParen {
			return nil, &InvalidRegexError{Pos: open, Ch: '(', Msg: "unbalanced group"}
		}
		return inner, p.scan()
	case tLBracket:
		return p.parseClass()
	default:
		return nil, &InvalidRegexError{Pos: p.look.pos, Ch: p.look.ch, Msg: "unexpected character"}
	}
}

func (p *parser) parseClass() (*astNode, error) {
	open := p.look.pos
	if err := p.scan(); err != nil {
		return nil, err
	}

	var spans []span
	for p.look.typ != tRBracket {
		switch p.look.typ {
		case tEOF:
			return nil, &InvalidRegexError{Pos: open, Ch: '[', Msg: "unterminated character class"}
		case tDash:
			return nil, &InvalidRegexError{Pos: p.look.pos, Ch: '-', Msg: "misplaced '-' in character class"}
		case tClass:
			spans = append(spans, p.look.spans...)
			if err := p.scan(); err != nil {
				return nil, err
			}
		default:
			// Any single byte, possibly the start of a range.
			lo := p.look.ch
			if err := p.scan(); err != nil {
				return nil, err
			}
			if p.look.typ != tDash {
				spans = append(spans, span{lo, lo})
				continue
			}
			dashPos := p.look.pos
			if err := p.scan(); err != nil {
				return nil, err
			}
			if p.look.typ == tEOF || p.look.typ == tRBracket || p.look.typ == tDash || p.look.typ == tClass {
				return nil, &InvalidRegexError{Pos: dashPos, Ch: '-', Msg: "incomplete range in character class"}
			}
			hi := p.look.ch
			if lo > hi {
				return nil, &InvalidRegexError{Pos: p.look.pos, Ch: hi, Msg: "range bounds out of order"}
			}
			spans = append(spans, span{lo, hi})
			if err := p.scan(); err != nil {
				return nil, err
			}
		}
	}

	if len(spans) == 0 {
		return nil, &InvalidRegexError{Pos: p.look.pos, Ch: ']', Msg: "empty character class"}
	}
	return spansToNode(spans), p.scan()
}
