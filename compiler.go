package main

import (
	"fmt"
	"os"

	"github.com/forth18/rforth1/internal/logio"
	"github.com/forth18/rforth1/internal/mem"
)

// CompileState mirrors the two interpreter modes of §4.3.
type CompileState int

const (
	StateInterpret CompileState = iota
	StateCompile
)

// StackItemKind tags what a compile-time data-stack slot actually holds.
type StackItemKind int

const (
	ItemValue StackItemKind = iota
	ItemEntity
	ItemInt
)

// StackItem is one slot of the compile-time data stack: control-flow
// primitives push labels (entities), arithmetic folding pushes Values,
// and an Int kind exists for raw host integers, though no primitive pushes one.
type StackItem struct {
	Kind   StackItemKind
	Value  Value
	Entity EntityID
	Int    int64
}

func itemValue(v Value) StackItem  { return StackItem{Kind: ItemValue, Value: v} }
func itemEntity(id EntityID) StackItem { return StackItem{Kind: ItemEntity, Entity: id} }
func itemInt(n int64) StackItem    { return StackItem{Kind: ItemInt, Int: n} }

type objectFrame struct {
	object *Entity
	state  CompileState
}

// Compiler is the process-wide singleton described in §3 and §5: a single
// mutable state machine driven by the interpreter loop, with no
// concurrency beyond the final gpasm subprocess.
type Compiler struct {
	Dict *Dict
	Lex  *Lexer

	DataStack   []StackItem
	ObjectStack []objectFrame

	CurrentObject *Entity
	State         CompileState

	Here     int
	EEHere   int
	FlashHere int
	FlashPool mem.Bytes

	InitializeVariables bool
	UseInterrupts       bool
	LowInterrupt        EntityID
	HighInterrupt       EntityID

	LoadedFiles map[string]bool
	InlineList  []Location

	// suffix sticky-state for the "code ... ;code" assembly escape
	asm asmState

	Processor         string
	Start             int
	MainName          string
	AutomaticInlining bool
	NoComments        bool

	InFile  string
	AsmFile string

	Out *os.File
	Log *logio.Logger
	warn func(string)
	fatal error
}

// NewCompiler builds a fresh compiler in its initial state; it does not
// yet register any primitives or load the standard library — that is
// Process's job, mirroring add_default_content in the source compiler.
func NewCompiler(processor string, start int, mainName string, autoInline, noComments bool, infile, asmfile string) *Compiler {
	c := &Compiler{
		Dict:          NewDict(),
		Lex:           NewLexer(),
		LowInterrupt:  NoEntity,
		HighInterrupt: NoEntity,
		EEHere:        0x1000,
		FlashHere:     0x8000,
		LoadedFiles:   make(map[string]bool),
		Processor:     processor,
		Start:         start,
		MainName:      mainName,
		AutomaticInlining: autoInline,
		NoComments:    noComments,
		InFile:        infile,
		AsmFile:       asmfile,
	}
	log := &logio.Logger{}
	log.SetOutput(os.Stderr)
	c.Log = log
	c.warn = func(msg string) { c.Log.Printf("WARNING", "%s", msg) }
	return c
}

// EnableInterrupts turns on interrupt support; must happen before any
// words are defined, matching the source compiler's restriction.
func (c *Compiler) EnableInterrupts() error {
	if len(c.Dict.entities) > 0 {
		return c.Error("interrupts need to be enabled at the beginning")
	}
	c.UseInterrupts = true
	return nil
}

// CurrentLocation reports where the lexer currently is, or "<builtin>"
// when there is no active input (used while registering primitives).
func (c *Compiler) CurrentLocation() Location {
	if c.Lex == nil {
		return Location{Name: "<builtin>"}
	}
	return c.Lex.Location()
}

// Warning prints a non-fatal, location-annotated diagnostic.
func (c *Compiler) Warning(format string, args ...interface{}) {
	c.warn(fmt.Sprintf("%s: %s", c.CurrentLocation(), fmt.Sprintf(format, args...)))
}

// Error builds a location-annotated CompilationError; callers return it.
func (c *Compiler) Error(format string, args ...interface{}) error {
	return errCompilation(c.CurrentLocation(), format, args...)
}

// Allot reserves n bytes of RAM starting at Here.
func (c *Compiler) Allot(n int) { c.Here += n }

// PushObject temporarily installs obj as the current compilation target,
// entering compile state; PopObject restores whatever was active before.
func (c *Compiler) PushObject(obj *Entity) {
	c.ObjectStack = append(c.ObjectStack, objectFrame{c.CurrentObject, c.State})
	c.CurrentObject = obj
	c.State = StateCompile
}

func (c *Compiler) PopObject() {
	n := len(c.ObjectStack)
	frame := c.ObjectStack[n-1]
	c.ObjectStack = c.ObjectStack[:n-1]
	c.CurrentObject = frame.object
	c.State = frame.state
}

func (c *Compiler) PushInitRuntime() {
	ent, _ := c.Dict.LookupFirst("init_runtime")
	c.PushObject(ent)
}

// CtPush/CtPop/CtSwap manipulate the compile-time data stack used by
// control-flow primitives and arithmetic folding in interpret state.
func (c *Compiler) CtPush(it StackItem) { c.DataStack = append([]StackItem{it}, c.DataStack...) }

func (c *Compiler) CtPop() (StackItem, error) {
	if len(c.DataStack) == 0 {
		return StackItem{}, c.Error("data stack underflow")
	}
	it := c.DataStack[0]
	c.DataStack = c.DataStack[1:]
	return it, nil
}

func (c *Compiler) CtSwap() error {
	a, err := c.CtPop()
	if err != nil {
		return err
	}
	b, err := c.CtPop()
	if err != nil {
		return err
	}
	c.CtPush(a)
	c.CtPush(b)
	return nil
}

// Find looks up the current binding of name in the dictionary.
func (c *Compiler) Find(name string) (*Entity, bool) { return c.Dict.Lookup(name) }

// FindMain looks up the configured main word, optionally signalling an
// error if it is absent.
func (c *Compiler) FindMain(signalError bool) (*Entity, error) {
	m, ok := c.Find(c.MainName)
	if !ok {
		if signalError {
			return nil, c.Error("cannot find `%s' word", c.MainName)
		}
		return nil, nil
	}
	return m, nil
}

// Builtin resolves a name through first_dict, the binding library code
// and special-register references must always use regardless of later
// redefinition by user source.
func (c *Compiler) Builtin(name string) *Entity {
	e, ok := c.Dict.LookupFirst(name)
	if !ok {
		panic(errInternal("%s: cannot find internal entity %s", c.CurrentLocation(), name))
	}
	return e
}

func (c *Compiler) ref(name string) Value {
	return Ref{Entity: c.Builtin(name).ID, Dict: c.Dict}
}

// AddInstruction appends an opcode to whichever entity is currently being
// compiled and records its reference edges.
func (c *Compiler) AddInstruction(op Mnemonic, args ...Value) {
	c.CurrentObject.Body = append(c.CurrentObject.Body, Opcode{Op: op, Args: args})
	for _, a := range args {
		if r, ok := a.(Ref); ok && r.Entity != c.CurrentObject.ID {
			c.CurrentObject.AddRef(r.Entity)
		}
	}
}

// LastInstruction/BeforeLastInstruction/Rewind give the stack-optimizing
// primitives (dup, drop, >w, pop_to_fsr, ...) a window onto the tail of
// the opcode list they can inspect and retract.
func (c *Compiler) LastInstruction() (Opcode, bool) {
	b := c.CurrentObject.Body
	if len(b) == 0 {
		return Opcode{}, false
	}
	return b[len(b)-1], true
}

func (c *Compiler) BeforeLastInstruction() (Opcode, bool) {
	b := c.CurrentObject.Body
	if len(b) < 2 {
		return Opcode{}, false
	}
	return b[len(b)-2], true
}

func (c *Compiler) Rewind() {
	b := c.CurrentObject.Body
	if len(b) > 0 {
		c.CurrentObject.Body = b[:len(b)-1]
	}
}

// AddCall compiles a call to target, honoring its inw/outw/outz calling
// convention attributes and inlining it in place if it is marked inlined.
func (c *Compiler) AddCall(target *Entity) error {
	if target.Flags.Has(FlagInW) {
		if err := c.RunWord(">w"); err != nil {
			return err
		}
	}
	if target.Flags.Has(FlagInlined) || c.forcedInline(target) {
		c.InlineCall(target)
	} else {
		c.AddInstruction(ICall, Ref{Entity: target.ID, Dict: c.Dict}, NoFastTag)
	}
	if target.Flags.Has(FlagOutW) {
		if err := c.RunWord("w>"); err != nil {
			return err
		}
	}
	if target.Flags.Has(FlagOutZ) {
		c.AddInstruction(MarkerZSet)
		c.AddInstruction(OpNormalize)
	}
	return nil
}

// RunWord invokes the named immediate word's primitive behavior directly
// (used internally by AddCall and a handful of primitives that compose).
func (c *Compiler) RunWord(name string) error {
	ent, ok := c.Find(name)
	if !ok {
		return errInternal("cannot find internal word %s", name)
	}
	return c.RunEntity(ent)
}

// NewLabel allocates and enters an anonymous Label entity, used by the
// control-flow primitives to mark branch targets.
func (c *Compiler) NewLabel() *Entity {
	lbl := c.Dict.New("_lbl_", KindLabel, c.CurrentLocation())
	lbl.Flags &^= FlagFromSource
	c.Dict.Enter(lbl, c.CurrentObject, nil)
	return lbl
}

// pushOrCtPush compiles a push of v if a word is being compiled, or folds
// it straight onto the compile-time stack in interpret state; it is how
// referencing a constant, variable or bit by bare name hands its value or
// address onward, the same split pushValue/CtPush already draw on.
func (c *Compiler) pushOrCtPush(v Value) {
	if c.State == StateCompile {
		c.pushValue(v)
	} else {
		c.CtPush(itemValue(v))
	}
}

// RunEntity invokes ent's immediate-word behavior. Constants, variables
// and bit-pairs carry FlagImmediate so that referencing them by name runs
// them just like any other primitive, but they have no PrimKind of their
// own (they are data, not code): dispatch on Kind first and only fall
// through to the primitiveTable for actual KindPrimitive entities.
func (c *Compiler) RunEntity(ent *Entity) error {
	switch ent.Kind {
	case KindConstant:
		c.pushOrCtPush(ent.ConstValue)
		return nil
	case KindVariable, KindFlashData:
		c.pushOrCtPush(ent.Addr)
		return nil
	case KindBit:
		c.pushOrCtPush(ent.Addr)
		c.pushOrCtPush(ent.BitIndex)
		return nil
	}
	fn, ok := primitiveTable[ent.PrimKind]
	if !ok {
		return errInternal("entity %s has no primitive implementation", ent.Name)
	}
	return fn(c, ent)
}
