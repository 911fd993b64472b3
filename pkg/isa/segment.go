package isa

// SegmentPermissions describes the read/write/execute permissions declared
// on a pali `segment` block. The assembler uses these to pick which of the
// eight permission-indexed segments a block of code belongs to.
type SegmentPermissions struct {
	Readable   bool
	Writable   bool
	Executable bool
}

// Encode packs permissions into a 3-bit index (r<<2 | w<<1 | x), matching
// the eight-segment layout a poki.Poki keeps its segments in.
func (p SegmentPermissions) Encode() uint16 {
	var bits uint16
	if p.Readable {
		bits |= 0b100
	}
	if p.Writable {
		bits |= 0b010
	}
	if p.Executable {
		bits |= 0b001
	}
	return bits
}

// segmentPermissionNames enumerates the seven recognized permission-set
// keywords pali source may write after `segment`. Only the canonical
// letter orders below are recognized; a reordered form such as "xwr" is
// not.
var segmentPermissionNames = map[string]SegmentPermissions{
	"r":   {Readable: true},
	"w":   {Writable: true},
	"x":   {Executable: true},
	"rw":  {Readable: true, Writable: true},
	"rx":  {Readable: true, Executable: true},
	"wx":  {Writable: true, Executable: true},
	"rwx": {Readable: true, Writable: true, Executable: true},
}

// ParseSegmentPermissions recognizes one of the seven permission-set
// keywords. The empty set (no permissions at all) has no keyword, so it is
// never returned here.
func ParseSegmentPermissions(s string) (SegmentPermissions, bool) {
	p, ok := segmentPermissionNames[s]
	return p, ok
}

// Index returns the 0-7 slot a poki.Poki stores segments of these
// permissions in, so the assembler and object codec agree on the mapping
// without either depending on the other's internals.
func (p SegmentPermissions) Index() int {
	return int(p.Encode())
}
