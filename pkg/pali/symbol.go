package pali

import (
	"errors"
)

var ErrDuplicateLabel = errors.New("duplicate label")

// Symbol is a resolved label's location: the segment it was defined in,
// its word offset within that segment, and the span of its defining
// occurrence (for diagnostics on later duplicates).
type Symbol struct {
	SegmentIndex uint16
	SegmentOffset uint16
	Span          Span
}

// SymbolTable maps a qualified label path (outer.inner.leaf, dot-joined
// from block nesting) to its resolved location.
type SymbolTable map[string]Symbol

// ResolveSymbols walks each of the eight segments depth-first, in
// declaration order, tracking a segment_offset counter that starts at 0
// per segment and advances by each visited node's size. Every Block
// records an entry under its qualified name (the active dotted context
// joined with its own label) before recursing into its contents with that
// name as the new context.
func ResolveSymbols(prog *Program) (SymbolTable, error) {
	table := SymbolTable{}

	for segIdx, segment := range prog.Segments {
		offset := uint16(0)
		if err := resolveSegment(table, uint16(segIdx), segment, "", &offset); err != nil {
			return nil, err
		}
	}

	return table, nil
}

func resolveSegment(table SymbolTable, segIdx uint16, codes []Code, context string, offset *uint16) error {
	for _, code := range codes {
		if code.Kind == CodeBlock {
			qualified := code.Label
			if context != "" {
				qualified = context + "." + code.Label
			}

			if existing, ok := table[qualified]; ok {
				return &ParseError{
					Err:          ErrDuplicateLabel,
					Span:         code.Span,
					RelatedSpan:  &existing.Span,
					RelatedLabel: "first defined here",
				}
			}

			table[qualified] = Symbol{SegmentIndex: segIdx, SegmentOffset: *offset, Span: code.Span}

			if err := resolveSegment(table, segIdx, code.Contents, qualified, offset); err != nil {
				return err
			}
		} else {
			*offset += uint16(code.Size())
		}
	}

	return nil
}
