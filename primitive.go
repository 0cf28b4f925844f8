package main

// PrimitiveKind enumerates every immediate word the compiler registers,
// standing in for the source compiler's one-class-per-primitive-via-
// metaclass trick (see the design note on dynamic primitive dispatch).
// Dispatch is a single table keyed by this enum instead of virtual calls.
type PrimitiveKind int

const (
	_ PrimitiveKind = iota

	// assembly mnemonics: one PrimitiveKind per opcode shape family,
	// the specific mnemonic is carried on the Entity itself (AsmOp).
	PAsmPlain // no operand: clrwdt, daw, nop, sleep, reset, tblrd*, ...
	PAsmL     // single literal operand: bra target, addlw n, ...
	PAsmS     // bare return-family: return, retfie
	PAsmLA    // file + access: clrf f,a / movwf f,a / lfsr n,addr
	PAsmLL    // file + file: movff src,dst
	PAsmLS    // file + fast flag: call target,fast
	PAsmLFA   // file + dest(w/f) + access: addwf f,d,a
	PAsmLLA   // bit + file + access: bsf f,b,a

	PColon
	PSemi
	PConstant
	PVariable
	PCVariable
	PEEVariable
	PEECVariable
	PValueWord
	PCreate
	PComma
	PCComma
	PAllot
	PBitDef
	PForward

	PBegin
	PAgain
	PUntil
	PWhile
	PRepeat
	PIf
	PElse
	PThen
	PAhead
	PEarlyOpen
	PEarlyClose
	PCFor
	PCNext
	PSwitchW
	PCaseW
	PDefaultW
	PEndCaseW
	PEndSwitchW
	PQIf
	PRecurse
	PExit

	PDup
	PDrop
	PToW
	PFromW
	PToR
	PFromR

	PAdd
	PSub
	PMul
	PLShift
	POnePlus
	POneMinus

	PStore
	PCStore
	PFetch
	PCFetch
	POnePlusStore

	PBitSet
	PBitClr
	PBitToggle
	PBitSetQ
	PBitClrQ

	PCode
	PCodeEnd
	PPrefix
	PPostfix
	PSufW
	PSufF
	PSufAccess
	PSufNoAccess
	PSufFast

	PIntrProtect
	PIntrUnprotect
	PLowInterrupt
	PHighInterrupt

	PInlineMark
	PNoInlineMark
	PInW
	POutW
	POutZ

	PParenComment
	PString
)

// primitiveFn is the compiler-side behavior a primitive runs when
// invoked by the interpreter loop.
type primitiveFn func(c *Compiler, self *Entity) error

var primitiveTable = map[PrimitiveKind]primitiveFn{}

func registerPrimitive(kind PrimitiveKind, fn primitiveFn) {
	primitiveTable[kind] = fn
}

// defPrimitive installs a named immediate word of the given kind into the
// dictionary; it is the Go analogue of Named.__init__(compile=False) plus
// enter_object for the Primitive subtype.
func (c *Compiler) defPrimitive(name string, kind PrimitiveKind) *Entity {
	e := c.Dict.New(name, KindPrimitive, c.CurrentLocation())
	e.Flags |= FlagImmediate
	e.PrimKind = kind
	c.Dict.Enter(e, c.CurrentObject, func(msg string) { c.Warning("redefinition of %s", msg) })
	return e
}

// defAsmPrimitive installs a PIC18 mnemonic as an immediate word whose
// shape (operand count/kind) is given by kind; AsmOp records which real
// instruction it compiles.
func (c *Compiler) defAsmPrimitive(name string, op Mnemonic, kind PrimitiveKind) *Entity {
	e := c.defPrimitive(name, kind)
	e.asmOp = op
	return e
}

// addAsmInstructions registers every real PIC18 mnemonic as an immediate
// word grouped by operand shape, mirroring add_pic_instructions over the
// pic_opcodes* lists.
func (c *Compiler) addAsmInstructions() {
	plain := []Mnemonic{IClrwdt, IDaw, INop, ISleep, IReset, ITblrdStar, ITblrdStarPlus, ITblrdStarMinus, ITblrdPlusStar, ITblwtStar, ITblwtStarPlus, ITblwtStarMinus, ITblwtPlusStar}
	l := []Mnemonic{IBc, IBn, IBnc, IBnn, IBnov, IBnz, IBov, IBra, IBz, IGoto, IRcall, IAddlw, IAndlw, IIorlw, IMovlb, IMovlw, IMullw, IRetlw, ISublw, IXorlw}
	s := []Mnemonic{IReturn, IRetfie}
	la := []Mnemonic{IClrf, ICpfseq, ICpfsgt, ICpfslt, IMovwf, IMulwf, INegf, ISetf, ITstfsz, ILfsr}
	ll := []Mnemonic{IMovff}
	ls := []Mnemonic{ICall}
	lfa := []Mnemonic{IAddwf, IAddwfc, IAndwf, IComf, IDecf, IDecfsz, IDcfsnz, IIncf, IIncfsz, IInfsnz, IIorwf, IMovf, IRlcf, IRlncf, IRrcf, IRrncf, ISubfwb, ISubwf, ISubwfb, ISwapf, IXorwf}
	lla := []Mnemonic{IBcf, IBsf, IBtfsc, IBtfss, IBtg}

	add := func(ms []Mnemonic, kind PrimitiveKind) {
		for _, m := range ms {
			c.defAsmPrimitive(m.String(), m, kind)
		}
	}
	add(plain, PAsmPlain)
	add(l, PAsmL)
	add(s, PAsmS)
	add(la, PAsmLA)
	add(ll, PAsmLL)
	add(ls, PAsmLS)
	add(lfa, PAsmLFA)
	add(lla, PAsmLLA)
}

// addPrimitives registers the compile-time vocabulary (everything in
// §4.4) and then loads the standard library, which is written in terms
// of these primitives plus the assembly escape.
func (c *Compiler) addPrimitives() error {
	registerDefinitionPrimitives(c)
	registerControlPrimitives(c)
	registerStackPrimitives(c)
	registerArithPrimitives(c)
	registerMemPrimitives(c)
	registerBitPrimitives(c)
	registerAsmEscapePrimitives(c)
	registerIntrPrimitives(c)
	registerInlinePrimitives(c)
	registerReaderPrimitives(c)

	if err := c.Include("lib/core.fs"); err != nil {
		return err
	}
	if c.UseInterrupts {
		if err := c.Include("lib/interrupts.fs"); err != nil {
			return err
		}
	}
	return nil
}
