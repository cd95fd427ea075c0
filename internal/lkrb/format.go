// Package lkrb implements the persistent bytecode container format
// (component C3): a section-framed binary format that round-trips a
// compiled bytecode.Function losslessly, so ahead-of-time compiled
// modules can be reloaded without the external parser/type checker.
//
// Grounded on funxy's internal/vm/bundle.go (SerializeBundle/
// DeserializeBundle: magic bytes + version byte + length-prefixed blobs,
// forward-compatible skip of unrecognized data), generalized from a
// single gob-encoded blob into multiple typed, independently-versioned
// sections as spec §4.3 requires.
package lkrb

// Magic is the 4-byte file signature identifying an LKRB container.
var Magic = [4]byte{'L', 'K', 'R', 'B'}

// Version is the current LKRB format version. Readers must reject any
// version above their own ceiling explicitly (spec §9).
const Version uint16 = 7

// Section tags. Unknown tags are skipped for forward compatibility.
type SectionTag [4]byte

var (
	TagFunc SectionTag = [4]byte{'F', 'U', 'N', 'C'} // entry function
	TagMeta SectionTag = [4]byte{'M', 'E', 'T', 'A'} // JSON metadata
	TagMods SectionTag = [4]byte{'M', 'O', 'D', 'S'} // bundled (path, inner LKRB) modules
	TagDbg  SectionTag = [4]byte{'D', 'B', 'G', '!'} // opaque debug blob
)

// Version gates for optional fields, per spec §4.3 "Function payload layout".
const (
	versionNamedParams  = 5 // named_param_regs[]
	versionPatternPlans = 6 // pattern_plans[] (length-prefixed JSON)
	versionAnalysis     = 7 // optional analysis block
	versionProtos       = 2 // nested protos
	versionCaptures     = 4 // captures on protos
)
