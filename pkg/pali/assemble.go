package pali

import (
	"errors"

	"github.com/crashandsideburns/lawa/pkg/isa"
	"github.com/crashandsideburns/lawa/pkg/poki"
	"github.com/crashandsideburns/lawa/pkg/utils"
)

var ErrUndefinedExport = errors.New("export of undefined label")

// unresolvedSentinel marks a RelocationEntry whose SegmentOffset indexes
// poki.Poki's UnresolvedTable instead of a segment, per §3's
// segment_index == 0xFFFF convention.
const unresolvedSentinel = 0xFFFF

// assembler holds the per-run state threaded through emission: the symbol
// table built ahead of time, and the unresolved-table interning map
// (dedup by label value, first-seen order).
type assembler struct {
	symbols      SymbolTable
	unresolved   []string
	unresolvedOf map[string]uint16
}

// Assemble runs the full pipeline: lex, parse, resolve symbols, then emit
// a poki.Poki. It is the library entry point named in the CLI surface
// this module exposes for `lawa pali`.
func Assemble(source string) (*poki.Poki, error) {
	prog, err := Parse(source)
	if err != nil {
		return nil, err
	}
	return AssembleProgram(prog)
}

// AssembleProgram assembles an already-parsed Program. Exposed separately
// so callers (and tests) that already have a Program skip re-parsing.
func AssembleProgram(prog *Program) (*poki.Poki, error) {
	symbols, err := ResolveSymbols(prog)
	if err != nil {
		return nil, err
	}

	for _, export := range prog.Exports {
		if _, ok := symbols[export.Label]; !ok {
			return nil, parseErrorf(export.Span, ErrUndefinedExport, "%q is not a defined label", export.Label)
		}
	}

	exportSet := make(map[string]bool, len(prog.Exports))
	for _, export := range prog.Exports {
		exportSet[export.Label] = true
	}

	a := &assembler{symbols: symbols, unresolvedOf: map[string]uint16{}}
	p := poki.NewEmpty()

	for segIdx, codes := range prog.Segments {
		offset := uint16(0)
		seg := &p.Segments[segIdx]
		if err := a.emitSegment(seg, uint16(segIdx), codes, "", exportSet, &offset); err != nil {
			return nil, err
		}
	}

	p.UnresolvedTable = a.unresolved
	return p, nil
}

func (a *assembler) emitSegment(seg *poki.Segment, segIdx uint16, codes []Code, context string, exportSet map[string]bool, offset *uint16) error {
	for _, code := range codes {
		start := *offset

		switch code.Kind {
		case CodeBlock:
			if exportSet[code.Label] {
				seg.ExportTable = append(seg.ExportTable, poki.ExportEntry{Label: code.Label, Offset: start})
			}
			qualified := code.Label
			if context != "" {
				qualified = context + "." + code.Label
			}
			if err := a.emitSegment(seg, segIdx, code.Contents, qualified, exportSet, offset); err != nil {
				return err
			}
			continue

		case CodeString:
			seg.Contents = append(seg.Contents, utils.Utf16Encode(code.String)...)

		case CodeNumber:
			seg.Contents = append(seg.Contents, code.Number)

		case CodeInstruction:
			seg.Contents = append(seg.Contents, isa.EncodeFields(code.Opcode, uint16(code.Dst), uint16(code.Src)))

		case CodeImmediateInstruction:
			seg.Contents = append(seg.Contents, isa.EncodeFields(code.Opcode, uint16(code.Dst), uint16(code.Src)))
			immWord, reloc := a.resolveImmediate(code.Imm, segIdx, start+1)
			seg.Contents = append(seg.Contents, immWord)
			if reloc != nil {
				seg.RelocationTable = append(seg.RelocationTable, *reloc)
			}

		case CodeRCSR:
			seg.Contents = append(seg.Contents, isa.EncodeFields(isa.RCSR, uint16(code.Dst), uint16(code.CSR)))

		case CodeWCSR:
			seg.Contents = append(seg.Contents, isa.EncodeFields(isa.WCSR, uint16(code.CSR), uint16(code.Src)))

		case CodeJSH:
			if code.JSHImm.IsLabel {
				seg.Contents = append(seg.Contents, isa.EncodeJSH(0))
				_, reloc := a.resolveImmediate(code.JSHImm, segIdx, start)
				if reloc != nil {
					seg.RelocationTable = append(seg.RelocationTable, *reloc)
				}
			} else {
				seg.Contents = append(seg.Contents, isa.EncodeJSH(int16(code.JSHImm.Number)))
			}
		}

		*offset += uint16(code.Size())
	}

	return nil
}

// resolveImmediate returns the word to emit in place of an immediate
// (0 when the immediate will be fixed up by relocation) and, when the
// immediate is a label, the RelocationEntry recording that fix-up: bound
// directly to the symbol's location if already resolved, or interned into
// the unresolved table (deduplicated by label value) otherwise.
func (a *assembler) resolveImmediate(imm Immediate, segIdx, wordOffset uint16) (uint16, *poki.RelocationEntry) {
	if !imm.IsLabel {
		return imm.Number, nil
	}

	if sym, ok := a.symbols[imm.Label]; ok {
		return 0, &poki.RelocationEntry{
			Offset:        wordOffset,
			SegmentIndex:  sym.SegmentIndex,
			SegmentOffset: sym.SegmentOffset,
		}
	}

	idx, ok := a.unresolvedOf[imm.Label]
	if !ok {
		idx = uint16(len(a.unresolved))
		a.unresolved = append(a.unresolved, imm.Label)
		a.unresolvedOf[imm.Label] = idx
	}

	return 0, &poki.RelocationEntry{
		Offset:        wordOffset,
		SegmentIndex:  unresolvedSentinel,
		SegmentOffset: idx,
	}
}
