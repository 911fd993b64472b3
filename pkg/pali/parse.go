package pali

import (
	"errors"
	"fmt"

	"github.com/crashandsideburns/lawa/pkg/isa"
	"github.com/crashandsideburns/lawa/pkg/utils"
)

var (
	ErrUnexpectedToken  = errors.New("unexpected token")
	ErrUnexpectedEOF    = errors.New("unexpected end of input")
	ErrUnmatchedParen   = errors.New("unmatched parenthesis")
	ErrUnrecognizedForm = errors.New("unrecognized top-level form")
)

// ParseError is a parse-time diagnostic with a primary span and,
// optionally, the span of a related token (e.g. the opening "(" of a
// paren that was never closed).
type ParseError struct {
	Err          error
	Span         Span
	RelatedSpan  *Span
	RelatedLabel string
}

func (e *ParseError) Error() string {
	if e.RelatedSpan != nil {
		return fmt.Sprintf("%v (at byte %d..%d; %s at byte %d..%d)",
			e.Err, e.Span.Start, e.Span.End, e.RelatedLabel, e.RelatedSpan.Start, e.RelatedSpan.End)
	}
	return fmt.Sprintf("%v (at byte %d..%d)", e.Err, e.Span.Start, e.Span.End)
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseErrorf(span Span, sentinel error, detail string, args ...any) *ParseError {
	return &ParseError{Err: utils.MakeError(sentinel, detail, args...), Span: span}
}

func unpairedParen(openSpan Span) *ParseError {
	return &ParseError{
		Err:          ErrUnmatchedParen,
		Span:         openSpan,
		RelatedSpan:  &openSpan,
		RelatedLabel: "unpaired opening parenthesis",
	}
}

// Immediate is either a literal Number or a Label reference resolved
// later by the symbol table.
type Immediate struct {
	IsLabel bool
	Number  uint16
	Label   string
	Span    Span
}

// CodeKind tags a Code node's variant.
type CodeKind int

const (
	CodeBlock CodeKind = iota
	CodeString
	CodeNumber
	CodeInstruction
	CodeImmediateInstruction
	CodeRCSR
	CodeWCSR
	CodeJSH
)

// Code is one node of parsed assembly: a block, a literal, a plain
// instruction, an instruction carrying a trailing immediate, a
// register/CSR transfer, or JSH's self-contained displacement form.
type Code struct {
	Kind CodeKind
	Span Span

	// CodeBlock
	Label    string
	Contents []Code

	// CodeString
	String string

	// CodeNumber
	Number uint16

	// CodeInstruction, CodeImmediateInstruction
	Opcode isa.Opcode
	Dst    isa.Register
	Src    isa.Register
	Imm    Immediate

	// CodeRCSR: Dst is the GPR, CSR is the source CSR.
	// CodeWCSR: CSR is the destination CSR, Src is the source GPR.
	CSR isa.ControlStatusRegister

	// CodeJSH
	JSHImm Immediate
}

// Size returns the node's size in 16-bit words, per §3: Block is the sum
// of its children, String is its UTF-16 code-unit count, and every other
// node is 1 word except ImmediateInstruction which is 2.
func (c Code) Size() int {
	switch c.Kind {
	case CodeBlock:
		total := 0
		for _, child := range c.Contents {
			total += child.Size()
		}
		return total
	case CodeString:
		return len(utils.Utf16Encode(c.String))
	case CodeImmediateInstruction:
		return 2
	default:
		return 1
	}
}

// LabelRef is an export declaration: a label name with the span it was
// named at, for diagnostics.
type LabelRef struct {
	Label string
	Span  Span
}

// Program is the parsed result: the ordered export list plus eight
// permission-indexed segments of Code.
type Program struct {
	Exports  []LabelRef
	Segments [8][]Code
}

// Parser consumes a Lexer and produces a Program.
type Parser struct {
	lexer   *Lexer
	peeked  *Token
	peekErr error
	source  string
}

// NewParser creates a parser over source.
func NewParser(source string) *Parser {
	return &Parser{lexer: NewLexer(source), source: source}
}

func (p *Parser) peek() (Token, error, bool) {
	if p.peeked == nil && p.peekErr == nil {
		tok, err := p.lexer.Next()
		if err != nil {
			p.peekErr = err
			return Token{}, err, false
		}
		if tok == (Token{}) {
			return Token{}, nil, false
		}
		p.peeked = &tok
	}
	if p.peekErr != nil {
		return Token{}, p.peekErr, false
	}
	if p.peeked == nil {
		return Token{}, nil, false
	}
	return *p.peeked, nil, true
}

func (p *Parser) next() (Token, error, bool) {
	tok, err, ok := p.peek()
	if ok {
		p.peeked = nil
	}
	return tok, err, ok
}

// Parse runs the top-level grammar: a sequence of `(export ...)` and
// `(segment ...)` forms.
func Parse(source string) (*Program, error) {
	p := NewParser(source)
	prog := &Program{}

	for {
		tok, err, ok := p.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return prog, nil
		}
		if tok.Kind != LeftParen {
			return nil, parseErrorf(tok.Span, ErrUnexpectedToken, "expected '(' to start a top-level form, got %v", tok.Kind)
		}

		kw, err, ok := p.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, unpairedParen(tok.Span)
		}

		switch kw.Kind {
		case TokExport:
			exports, err := p.parseExportForm(tok.Span)
			if err != nil {
				return nil, err
			}
			prog.Exports = append(prog.Exports, exports...)
		case TokSegment:
			if err := p.parseSegmentForm(tok.Span, prog); err != nil {
				return nil, err
			}
		default:
			return nil, parseErrorf(kw.Span, ErrUnrecognizedForm, "expected 'export' or 'segment', got %v", kw.Kind)
		}
	}
}

func (p *Parser) parseExportForm(openSpan Span) ([]LabelRef, error) {
	var exports []LabelRef
	for {
		tok, err, ok := p.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, unpairedParen(openSpan)
		}
		if tok.Kind == RightParen {
			return exports, nil
		}
		if tok.Kind != TokLabel {
			return nil, parseErrorf(tok.Span, ErrUnexpectedToken, "expected a label or ')', got %v", tok.Kind)
		}
		exports = append(exports, LabelRef{Label: tok.Label, Span: tok.Span})
	}
}

func (p *Parser) parseSegmentForm(openSpan Span, prog *Program) error {
	permTok, err, ok := p.next()
	if err != nil {
		return err
	}
	if !ok {
		return unpairedParen(openSpan)
	}
	if permTok.Kind != TokSegmentPermissions {
		return parseErrorf(permTok.Span, ErrUnexpectedToken, "expected segment permissions, got %v", permTok.Kind)
	}

	idx := permTok.Permissions.Index()
	for {
		tok, err, ok := p.peek()
		if err != nil {
			return err
		}
		if !ok {
			return unpairedParen(openSpan)
		}
		if tok.Kind == RightParen {
			p.next()
			return nil
		}
		code, err := p.parseCode()
		if err != nil {
			return err
		}
		prog.Segments[idx] = append(prog.Segments[idx], code)
	}
}

// parseCode parses one Code node: a bare string/number, or a parenthesized
// block/instruction form.
func (p *Parser) parseCode() (Code, error) {
	tok, err, ok := p.next()
	if err != nil {
		return Code{}, err
	}
	if !ok {
		return Code{}, &ParseError{Err: ErrUnexpectedEOF, Span: Span{len(p.source), len(p.source)}}
	}

	switch tok.Kind {
	case TokString:
		return Code{Kind: CodeString, Span: tok.Span, String: tok.String}, nil
	case TokNumber:
		return Code{Kind: CodeNumber, Span: tok.Span, Number: tok.Number}, nil
	case LeftParen:
		return p.parseParenForm(tok.Span)
	default:
		return Code{}, parseErrorf(tok.Span, ErrUnexpectedToken, "expected a string, number, or '(', got %v", tok.Kind)
	}
}

func (p *Parser) parseParenForm(openSpan Span) (Code, error) {
	head, err, ok := p.next()
	if err != nil {
		return Code{}, err
	}
	if !ok {
		return Code{}, unpairedParen(openSpan)
	}

	switch head.Kind {
	case TokBlock:
		return p.parseBlock(openSpan)
	case TokOpcode:
		return p.parseOpcodeForm(openSpan, head)
	default:
		return Code{}, parseErrorf(head.Span, ErrUnexpectedToken, "expected 'block' or an opcode, got %v", head.Kind)
	}
}

func (p *Parser) parseBlock(openSpan Span) (Code, error) {
	labelTok, err, ok := p.next()
	if err != nil {
		return Code{}, err
	}
	if !ok {
		return Code{}, unpairedParen(openSpan)
	}
	if labelTok.Kind != TokLabel {
		return Code{}, parseErrorf(labelTok.Span, ErrUnexpectedToken, "expected a block label, got %v", labelTok.Kind)
	}

	block := Code{Kind: CodeBlock, Span: openSpan, Label: labelTok.Label}
	for {
		tok, err, ok := p.peek()
		if err != nil {
			return Code{}, err
		}
		if !ok {
			return Code{}, unpairedParen(openSpan)
		}
		if tok.Kind == RightParen {
			p.next()
			block.Span = block.Span.Join(tok.Span)
			return block, nil
		}
		child, err := p.parseCode()
		if err != nil {
			return Code{}, err
		}
		block.Contents = append(block.Contents, child)
	}
}

func (p *Parser) expectRegister(openSpan Span) (isa.Register, error) {
	tok, err, ok := p.next()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, unpairedParen(openSpan)
	}
	if tok.Kind != TokRegister {
		return 0, parseErrorf(tok.Span, ErrUnexpectedToken, "expected a register, got %v", tok.Kind)
	}
	return tok.Register, nil
}

func (p *Parser) expectCSR(openSpan Span) (isa.ControlStatusRegister, error) {
	tok, err, ok := p.next()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, unpairedParen(openSpan)
	}
	if tok.Kind != TokControlStatusRegister {
		return 0, parseErrorf(tok.Span, ErrUnexpectedToken, "expected a control/status register, got %v", tok.Kind)
	}
	return tok.CSR, nil
}

func (p *Parser) expectImmediate(openSpan Span) (Immediate, error) {
	tok, err, ok := p.next()
	if err != nil {
		return Immediate{}, err
	}
	if !ok {
		return Immediate{}, unpairedParen(openSpan)
	}
	switch tok.Kind {
	case TokNumber:
		return Immediate{Number: tok.Number, Span: tok.Span}, nil
	case TokLabel:
		return Immediate{IsLabel: true, Label: tok.Label, Span: tok.Span}, nil
	default:
		return Immediate{}, parseErrorf(tok.Span, ErrUnexpectedToken, "expected a number or label, got %v", tok.Kind)
	}
}

func (p *Parser) expectCloseParen(openSpan Span) (Span, error) {
	tok, err, ok := p.next()
	if err != nil {
		return Span{}, err
	}
	if !ok || tok.Kind != RightParen {
		return Span{}, unpairedParen(openSpan)
	}
	return tok.Span, nil
}

// parseOpcodeForm dispatches on opcode identity per §4.2: JSH takes a
// single immediate; WCSR/RCSR take a (register, csr) pair in a fixed
// order; other immediate-taking opcodes take (GPR, GPR, IMM); everything
// else takes (GPR, GPR).
func (p *Parser) parseOpcodeForm(openSpan Span, head Token) (Code, error) {
	switch head.Opcode {
	case isa.JSH:
		imm, err := p.expectImmediate(openSpan)
		if err != nil {
			return Code{}, err
		}
		closeSpan, err := p.expectCloseParen(openSpan)
		if err != nil {
			return Code{}, err
		}
		return Code{Kind: CodeJSH, Span: openSpan.Join(closeSpan), JSHImm: imm}, nil

	case isa.WCSR:
		csr, err := p.expectCSR(openSpan)
		if err != nil {
			return Code{}, err
		}
		src, err := p.expectRegister(openSpan)
		if err != nil {
			return Code{}, err
		}
		closeSpan, err := p.expectCloseParen(openSpan)
		if err != nil {
			return Code{}, err
		}
		return Code{Kind: CodeWCSR, Span: openSpan.Join(closeSpan), CSR: csr, Src: src}, nil

	case isa.RCSR:
		dst, err := p.expectRegister(openSpan)
		if err != nil {
			return Code{}, err
		}
		csr, err := p.expectCSR(openSpan)
		if err != nil {
			return Code{}, err
		}
		closeSpan, err := p.expectCloseParen(openSpan)
		if err != nil {
			return Code{}, err
		}
		return Code{Kind: CodeRCSR, Span: openSpan.Join(closeSpan), Dst: dst, CSR: csr}, nil

	default:
		dst, err := p.expectRegister(openSpan)
		if err != nil {
			return Code{}, err
		}
		src, err := p.expectRegister(openSpan)
		if err != nil {
			return Code{}, err
		}
		if head.Opcode.TakesImmediate() {
			imm, err := p.expectImmediate(openSpan)
			if err != nil {
				return Code{}, err
			}
			closeSpan, err := p.expectCloseParen(openSpan)
			if err != nil {
				return Code{}, err
			}
			return Code{Kind: CodeImmediateInstruction, Span: openSpan.Join(closeSpan), Opcode: head.Opcode, Dst: dst, Src: src, Imm: imm}, nil
		}
		closeSpan, err := p.expectCloseParen(openSpan)
		if err != nil {
			return Code{}, err
		}
		return Code{Kind: CodeInstruction, Span: openSpan.Join(closeSpan), Opcode: head.Opcode, Dst: dst, Src: src}, nil
	}
}
