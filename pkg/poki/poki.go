// Package poki implements the lawa relocatable object format: its
// in-memory data model and its bit-exact binary serialization.
package poki

// NumSegments is the number of permission-indexed segments a Poki always
// carries, one per 3-bit (readable, writable, executable) combination.
const NumSegments = 8

// RelocationEntry is a fix-up pointing at one word in a segment that must
// be rewritten to the resolved address of a target symbol. When
// SegmentIndex == UnresolvedSentinel, SegmentOffset indexes
// Poki.UnresolvedTable instead of a segment.
type RelocationEntry struct {
	Offset        uint16
	SegmentIndex  uint16
	SegmentOffset uint16
}

// UnresolvedSentinel marks a RelocationEntry whose target is not defined
// in this object; SegmentOffset is then an index into
// Poki.UnresolvedTable.
const UnresolvedSentinel = 0xFFFF

// Unresolved reports whether this entry points into the unresolved table
// rather than a segment.
func (e RelocationEntry) Unresolved() bool {
	return e.SegmentIndex == UnresolvedSentinel
}

// ExportEntry names a word offset within a segment that the defining
// object makes visible to a linker under a given label.
type ExportEntry struct {
	Label  string
	Offset uint16
}

// Segment holds one permission class's contents plus the relocation and
// export tables that refer into it.
type Segment struct {
	Contents        []uint16
	RelocationTable []RelocationEntry
	ExportTable     []ExportEntry
}

// Poki is the in-memory object file: eight permission-indexed segments
// plus the ordered, de-duplicated list of labels referenced but not
// defined by this object.
type Poki struct {
	Segments        [NumSegments]Segment
	UnresolvedTable []string
}

// NewEmpty returns a Poki with all eight segments present and empty.
func NewEmpty() *Poki {
	return &Poki{}
}
