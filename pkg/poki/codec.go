package poki

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/crashandsideburns/lawa/pkg/utils"
)

// Words on disk are 16-bit, native-endian, matching the upstream Rust
// codec's to_ne_bytes/from_ne_bytes. binary.NativeEndian is the direct Go
// equivalent; unlike the original we reach it through encoding/binary
// rather than reinterpreting a byte slice through unsafe, since nothing
// else in the example pack reaches for unsafe to do I/O.
var nativeEndian = binary.NativeEndian

var magic = [4]uint16{'p', 'o', 'k', 'i'}

// Serialization errors. Each names the field that overflowed u16.
var (
	ErrOversizedSegmentContents = errors.New("segment contents exceed 65535 words")
	ErrOversizedRelocationTable = errors.New("relocation table exceeds 65535 words")
	ErrOversizedExportTable     = errors.New("export table exceeds 65535 words")
	ErrOversizedLabel           = errors.New("label exceeds 65535 UTF-16 code units")
)

// Deserialization errors.
var (
	ErrInvalidMagic               = errors.New("invalid poki magic header")
	ErrInvalidRelocationTableSize = errors.New("relocation table size is not a multiple of 3")
	ErrStringOverrun              = errors.New("label length overruns its table's budget")
)

func writeWord(w io.Writer, v uint16) error {
	var buf [2]byte
	nativeEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeWords(w io.Writer, vs []uint16) error {
	buf := make([]byte, 2*len(vs))
	for i, v := range vs {
		nativeEndian.PutUint16(buf[2*i:], v)
	}
	_, err := w.Write(buf)
	return err
}

// readWord reads one word. It reports io.EOF verbatim (as opposed to
// io.ErrUnexpectedEOF) only when zero bytes were read, so callers reading
// the unresolved table opportunistically can distinguish "clean end of
// stream" from "a short, corrupt read".
func readWord(r io.Reader) (uint16, error) {
	var buf [2]byte
	n, err := io.ReadFull(r, buf[:])
	if n == 0 && errors.Is(err, io.EOF) {
		return 0, io.EOF
	}
	if err != nil {
		return 0, err
	}
	return nativeEndian.Uint16(buf[:]), nil
}

func readWords(r io.Reader, n uint16) ([]uint16, error) {
	if n == 0 {
		return nil, nil
	}
	words := make([]uint16, n)
	buf := make([]byte, 2*int(n))
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	for i := range words {
		words[i] = nativeEndian.Uint16(buf[2*i:])
	}
	return words, nil
}

func checkU16(n int, sentinel error, what string) (uint16, error) {
	if n > 0xFFFF {
		return 0, utils.MakeError(sentinel, "%s is %d words", what, n)
	}
	return uint16(n), nil
}

// exportTableWordSize returns an export table's on-disk size in words:
// the sum over entries of 1 (label_len) + label_length + 1 (offset).
func exportTableWordSize(table []ExportEntry) int {
	total := 0
	for _, e := range table {
		total += 1 + len(utils.Utf16Encode(e.Label)) + 1
	}
	return total
}

// Serialize writes p in the on-disk poki format: a magic header, eight
// segment headers, eight segment bodies, then the unresolved table.
func (p *Poki) Serialize(w io.Writer) error {
	for i := range magic {
		if err := writeWord(w, magic[i]); err != nil {
			return err
		}
	}

	for i := range p.Segments {
		seg := &p.Segments[i]

		contentsSize, err := checkU16(len(seg.Contents), ErrOversizedSegmentContents, "segment contents")
		if err != nil {
			return err
		}
		relocSize, err := checkU16(3*len(seg.RelocationTable), ErrOversizedRelocationTable, "relocation table")
		if err != nil {
			return err
		}
		exportSize, err := checkU16(exportTableWordSize(seg.ExportTable), ErrOversizedExportTable, "export table")
		if err != nil {
			return err
		}

		if err := writeWord(w, contentsSize); err != nil {
			return err
		}
		if err := writeWord(w, relocSize); err != nil {
			return err
		}
		if err := writeWord(w, exportSize); err != nil {
			return err
		}
	}

	for i := range p.Segments {
		if err := p.Segments[i].serializeBody(w); err != nil {
			return err
		}
	}

	for _, label := range p.UnresolvedTable {
		units := utils.Utf16Encode(label)
		length, err := checkU16(len(units), ErrOversizedLabel, fmt.Sprintf("unresolved label %q", label))
		if err != nil {
			return err
		}
		if err := writeWord(w, length); err != nil {
			return err
		}
		if err := writeWords(w, units); err != nil {
			return err
		}
	}

	return nil
}

func (seg *Segment) serializeBody(w io.Writer) error {
	if err := writeWords(w, seg.Contents); err != nil {
		return err
	}

	for _, reloc := range seg.RelocationTable {
		if err := writeWord(w, reloc.Offset); err != nil {
			return err
		}
		if err := writeWord(w, reloc.SegmentIndex); err != nil {
			return err
		}
		if err := writeWord(w, reloc.SegmentOffset); err != nil {
			return err
		}
	}

	for _, export := range seg.ExportTable {
		units := utils.Utf16Encode(export.Label)
		length, err := checkU16(len(units), ErrOversizedLabel, fmt.Sprintf("export label %q", export.Label))
		if err != nil {
			return err
		}
		if err := writeWord(w, length); err != nil {
			return err
		}
		if err := writeWords(w, units); err != nil {
			return err
		}
		if err := writeWord(w, export.Offset); err != nil {
			return err
		}
	}

	return nil
}

type segmentHeader struct {
	contentsSize uint16
	relocSize    uint16
	exportSize   uint16
}

// Deserialize reads a poki object back from r, reversing Serialize
// exactly. The unresolved table is read opportunistically: each iteration
// first attempts to read a label-length word, and a clean zero-byte read
// there (io.EOF) ends the table; any other short read is a corrupt-stream
// error.
func Deserialize(r io.Reader) (*Poki, error) {
	var observed [4]uint16
	for i := range observed {
		v, err := readWord(r)
		if err != nil {
			return nil, err
		}
		observed[i] = v
	}
	if observed != magic {
		return nil, utils.MakeError(ErrInvalidMagic, "got %v", observed)
	}

	headers := make([]segmentHeader, NumSegments)
	for i := range headers {
		contentsSize, err := readWord(r)
		if err != nil {
			return nil, err
		}
		relocSize, err := readWord(r)
		if err != nil {
			return nil, err
		}
		if relocSize%3 != 0 {
			return nil, utils.MakeError(ErrInvalidRelocationTableSize, "%d", relocSize)
		}
		exportSize, err := readWord(r)
		if err != nil {
			return nil, err
		}
		headers[i] = segmentHeader{contentsSize, relocSize, exportSize}
	}

	p := NewEmpty()
	for i := range p.Segments {
		seg, err := deserializeBody(r, headers[i])
		if err != nil {
			return nil, err
		}
		p.Segments[i] = *seg
	}

	for {
		length, err := readWord(r)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		units, err := readWords(r, length)
		if err != nil {
			return nil, err
		}
		p.UnresolvedTable = append(p.UnresolvedTable, utils.Utf16Decode(units))
	}

	return p, nil
}

func deserializeBody(r io.Reader, h segmentHeader) (*Segment, error) {
	contents, err := readWords(r, h.contentsSize)
	if err != nil {
		return nil, err
	}

	relocEntries := h.relocSize / 3
	var relocations []RelocationEntry
	if relocEntries > 0 {
		relocations = make([]RelocationEntry, relocEntries)
	}
	for i := range relocations {
		offset, err := readWord(r)
		if err != nil {
			return nil, err
		}
		segIdx, err := readWord(r)
		if err != nil {
			return nil, err
		}
		segOff, err := readWord(r)
		if err != nil {
			return nil, err
		}
		relocations[i] = RelocationEntry{Offset: offset, SegmentIndex: segIdx, SegmentOffset: segOff}
	}

	var exports []ExportEntry
	budget := int(h.exportSize)
	for budget > 0 {
		length, err := readWord(r)
		if err != nil {
			return nil, err
		}
		budget--
		if int(length) > budget {
			return nil, utils.MakeError(ErrStringOverrun, "label length %d, %d words remain in export table", length, budget)
		}
		units, err := readWords(r, length)
		if err != nil {
			return nil, err
		}
		budget -= int(length)
		offset, err := readWord(r)
		if err != nil {
			return nil, err
		}
		budget--
		exports = append(exports, ExportEntry{Label: utils.Utf16Decode(units), Offset: offset})
	}

	return &Segment{Contents: contents, RelocationTable: relocations, ExportTable: exports}, nil
}
