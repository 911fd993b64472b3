package isa

import "github.com/crashandsideburns/lawa/pkg/utils"

// Instruction words are packed as opc(6) | dst(5) | src(5), low bit first,
// the same layout the original Rust lexer/emulator share implicitly across
// crates. EncodeFields/DecodeFields make that layout explicit in one place
// so pali and sama never redefine it independently.
const (
	opcodeWidth = 6
	regWidth    = 5

	opcodeBit = 0
	dstBit    = opcodeWidth
	srcBit    = opcodeWidth + regWidth
)

// EncodeFields packs an opcode and two register-width operand fields into
// a single instruction word.
func EncodeFields(opcode Opcode, dst, src uint16) uint16 {
	var word uint16
	view := utils.CreateBitView(&word)
	view.Write(uint16(opcode), opcodeBit, opcodeWidth)
	view.Write(dst, dstBit, regWidth)
	view.Write(src, srcBit, regWidth)
	return word
}

// DecodeFields unpacks an instruction word into its opcode and operand
// fields.
func DecodeFields(word uint16) (opcode Opcode, dst, src uint16) {
	view := utils.CreateBitView(&word)
	opcode = Opcode(view.Read(opcodeBit, opcodeWidth))
	dst = view.Read(dstBit, regWidth)
	src = view.Read(srcBit, regWidth)
	return
}

// jshDisplacementBit/Width describe where JSH, the only opcode that embeds
// its own immediate rather than carrying a trailing word, packs its signed
// 10-bit displacement: in the dst/src fields combined, bits [6:16).
const (
	jshDisplacementBit   = dstBit
	jshDisplacementWidth = regWidth + regWidth
)

// EncodeJSH packs JSH's signed displacement, occupying the whole
// dst/src field as one 10-bit value, into a single instruction word.
func EncodeJSH(displacement int16) uint16 {
	var word uint16
	view := utils.CreateBitView(&word)
	view.Write(uint16(JSH), opcodeBit, opcodeWidth)
	view.Write(uint16(displacement), jshDisplacementBit, jshDisplacementWidth)
	return word
}

// DecodeJSHDisplacement extracts and sign-extends JSH's 10-bit embedded
// displacement field to a full 16-bit signed value.
func DecodeJSHDisplacement(word uint16) int16 {
	view := utils.CreateBitView(&word)
	raw := view.Read(jshDisplacementBit, jshDisplacementWidth)
	shift := 16 - jshDisplacementWidth
	return int16(raw<<shift) >> shift
}
