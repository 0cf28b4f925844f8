package main

import "fmt"

// EntityID indexes into a Dict's arena. Entities reference each other by
// id, never by pointer, so the cyclic reference graph between mutually
// recursive Words never needs anything fancier than a slice and a scan.
type EntityID int

// NoEntity is the zero value of an optional EntityID field (Substitute,
// EndLabel before it is assigned, and so on).
const NoEntity EntityID = -1

// EntityKind distinguishes the Named subtypes of §3.
type EntityKind int

const (
	KindLabel EntityKind = iota
	KindForward
	KindWord
	KindPrimitive
	KindConstant
	KindBit
	KindVariable
	KindFlashData
)

func (k EntityKind) String() string {
	switch k {
	case KindLabel:
		return "label"
	case KindForward:
		return "forward"
	case KindWord:
		return "word"
	case KindPrimitive:
		return "primitive"
	case KindConstant:
		return "constant"
	case KindBit:
		return "bit"
	case KindVariable:
		return "variable"
	case KindFlashData:
		return "flash-data"
	default:
		return "unknown"
	}
}

// Section is where an entity's output block belongs in the final listing.
type Section int

const (
	SectionUndefined Section = iota
	SectionCode
	SectionMemory
	SectionConstants
	SectionStaticData
)

// Flags are the boolean attributes a Named entity can carry.
type Flags uint16

const (
	FlagImmediate Flags = 1 << iota
	FlagInlined
	FlagNotInlinable
	FlagInW
	FlagOutW
	FlagOutZ
	FlagFromSource
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// Entity is the fat struct backing every Named subtype. Only the fields
// relevant to Kind are meaningful; this mirrors the source's single class
// hierarchy with optional attributes rather than one Go struct per kind,
// which would force every reference site to type-switch.
type Entity struct {
	ID         EntityID
	Name       string
	Mangled    string
	Occurrence int
	Order      int
	Kind       EntityKind
	Section    Section
	Loc        Location
	Refs       []EntityID
	ReferencedBy int
	Flags      Flags

	// Word
	Body       []Opcode
	EndLabel   EntityID
	Substitute EntityID
	Prepared   bool

	// Primitive
	PrimKind PrimitiveKind
	asmOp    Mnemonic // for assembly-mnemonic primitives: the real instruction

	// Constant / Bit / Variable / FlashData
	ConstValue Value
	Addr       Value
	BitIndex   Value
	Cell       bool // true: 16-bit value-cell, false: 8-bit byte
	EEPROM     bool
	Data       []byte
}

func (e *Entity) String() string {
	return fmt.Sprintf("%s(%s)#%d", e.Name, e.Kind, e.Occurrence)
}

// AddRef records that e's body or definition mentions target, used later
// by the reachability walk to count ReferencedBy.
func (e *Entity) AddRef(target EntityID) {
	for _, r := range e.Refs {
		if r == target {
			return
		}
	}
	e.Refs = append(e.Refs, target)
}

// mangleTable is the character-substitution table of §4.9, applied
// byte-by-byte; multi-letter substitutions are bracketed by underscores so
// the result stays unambiguous to re-split if ever needed.
var mangleTable = map[byte]string{
	'?': "QM", '!': "EX", '@': "AT", '+': "PL", '-': "_",
	'*': "ST", '/': "SL", '=': "EQ", '<': "LT", '>': "GT",
	'$': "_", '.': "_", '"': "QU", '\'': "_", ':': "CL",
	';': "SC", '(': "OP", ')': "CP", '%': "PC",
}

// gpasmDirectives lists gpasm's reserved assembler directives; a mangled
// name equal to one of these must be disambiguated with a leading
// underscore or it would shadow the directive in the generated listing.
var gpasmDirectives = map[string]bool{
	"__badram": true, "__config": true, "__idlocs": true, "__maxram": true,
	"bankisel": true, "banksel": true, "cblock": true, "code": true, "constant": true,
	"da": true, "data": true, "db": true, "de": true, "dt": true, "dw": true, "else": true,
	"end": true, "endc": true, "endif": true, "endm": true, "endw": true, "equ": true,
	"error": true, "errorlevel": true, "extern": true, "exitm": true,
	"expand": true, "fill": true, "global": true, "high": true,
	"idata": true, "if": true, "ifdef": true,
	"ifndef": true, "list": true, "local": true, "low": true, "macro": true, "messg": true,
	"noexpand": true, "nolist": true, "org": true, "page": true, "pagesel": true,
	"processor": true, "radix": true, "res": true, "set": true, "space": true,
	"subtitle": true, "title": true, "udata": true, "udata_acs": true,
	"udata_ovr": true, "udata_shr": true, "variable": true, "while": true,
}

// mangle turns name into an assembler-safe identifier, letter-substituting
// punctuation, prefixing a leading digit, appending a __N occurrence
// suffix for redefinitions, and dodging a collision with a gpasm
// directive.
func mangle(name string, occurrence int) string {
	var out []byte
	for i := 0; i < len(name); i++ {
		c := name[i]
		if sub, ok := mangleTable[c]; ok {
			if len(sub) > 1 {
				out = append(out, '_')
				out = append(out, sub...)
				out = append(out, '_')
			} else {
				out = append(out, sub...)
			}
		} else {
			out = append(out, c)
		}
	}
	mangled := string(out)
	if len(mangled) > 0 && mangled[0] >= '0' && mangled[0] <= '9' {
		mangled = "_" + mangled
	}
	if occurrence > 0 {
		mangled = fmt.Sprintf("%s__%d", mangled, occurrence)
	}
	if gpasmDirectives[mangled] {
		mangled = "_" + mangled
	}
	return mangled
}
