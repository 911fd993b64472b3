// Package pali implements the lawa assembler: a span-tracked lexer and
// recursive-descent parser over a parenthesized, S-expression-like source
// language, a depth-first symbol resolver, and a two-pass assembler that
// emits a poki.Poki.
package pali

import "github.com/crashandsideburns/lawa/pkg/isa"

// Span is a byte-offset range into the original source, used to attribute
// every diagnostic to the text that caused it.
type Span struct {
	Start int
	End   int
}

// Join returns the smallest span covering both a and b.
func (a Span) Join(b Span) Span {
	s := a
	if b.Start < s.Start {
		s.Start = b.Start
	}
	if b.End > s.End {
		s.End = b.End
	}
	return s
}

// TokenKind tags the payload a Token carries.
type TokenKind int

const (
	LeftParen TokenKind = iota
	RightParen
	TokOpcode
	TokRegister
	TokControlStatusRegister
	TokSegment
	TokBlock
	TokExport
	TokNumber
	TokString
	TokSegmentPermissions
	TokLabel
)

// Token is one lexical unit together with its source span. Exactly one of
// the payload fields is meaningful, selected by Kind.
type Token struct {
	Kind TokenKind
	Span Span

	Opcode      isa.Opcode
	Register    isa.Register
	CSR         isa.ControlStatusRegister
	Number      uint16
	String      string
	Permissions isa.SegmentPermissions
	Label       string
}

func (k TokenKind) String() string {
	switch k {
	case LeftParen:
		return "("
	case RightParen:
		return ")"
	case TokOpcode:
		return "opcode"
	case TokRegister:
		return "register"
	case TokControlStatusRegister:
		return "control/status register"
	case TokSegment:
		return "segment"
	case TokBlock:
		return "block"
	case TokExport:
		return "export"
	case TokNumber:
		return "number"
	case TokString:
		return "string"
	case TokSegmentPermissions:
		return "segment permissions"
	case TokLabel:
		return "label"
	default:
		return "unknown"
	}
}
