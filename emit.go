package main

import (
	"fmt"
	"io"
	"sort"
)

// expandOpcode rewrites a single pseudo-op into the real PIC18 instruction
// sequence it stands for. Every stack cell in this port is one byte (see
// the design note by the same name in DESIGN.md): `@`/`!` move a 16-bit
// RAM cell by pushing or popping its two bytes as two ordinary byte
// cells, rather than the pseudo-ops themselves growing a 16-bit mode.
func expandOpcode(c *Compiler, op Opcode) []Opcode {
	access := func(v Value) Value { return accessBitFor(v) }
	switch op.Op {
	case OpPush:
		v := op.Args[0]
		if n, ok := v.StaticValue(); ok && n == 0 {
			return []Opcode{{Op: IClrf, Args: []Value{c.ref("PREINC0"), AccessTag}}}
		}
		return []Opcode{
			{Op: IMovlw, Args: []Value{v}},
			{Op: IMovwf, Args: []Value{c.ref("PREINC0"), AccessTag}},
		}
	case OpFetch:
		addr := op.Args[0]
		hi := Binary{Op: OpAdd, L: addr, R: NewNumber(1)}
		return []Opcode{
			{Op: IMovf, Args: []Value{addr, DstW, access(addr)}},
			{Op: IMovwf, Args: []Value{c.ref("PREINC0"), AccessTag}},
			{Op: IMovf, Args: []Value{hi, DstW, access(hi)}},
			{Op: IMovwf, Args: []Value{c.ref("PREINC0"), AccessTag}},
		}
	case OpCFetch:
		addr := op.Args[0]
		return []Opcode{
			{Op: IMovf, Args: []Value{addr, DstW, access(addr)}},
			{Op: IMovwf, Args: []Value{c.ref("PREINC0"), AccessTag}},
		}
	case OpFetchTOS:
		return []Opcode{{Op: IMovf, Args: []Value{c.ref("INDF0"), DstW, AccessTag}}}
	case OpCFetchTOS:
		return []Opcode{{Op: IMovf, Args: []Value{c.ref("INDF0"), DstW, AccessTag}}}
	case OpPushW:
		return []Opcode{{Op: IMovwf, Args: []Value{c.ref("PREINC0"), AccessTag}}}
	case OpPopW:
		return []Opcode{{Op: IMovf, Args: []Value{c.ref("POSTDEC0"), DstW, AccessTag}}}
	case OpDup:
		return []Opcode{
			{Op: IMovf, Args: []Value{c.ref("INDF0"), DstW, AccessTag}},
			{Op: IMovwf, Args: []Value{c.ref("PREINC0"), AccessTag}},
		}
	case OpZeroEq:
		return []Opcode{
			{Op: IMovf, Args: []Value{c.ref("POSTDEC0"), DstF, AccessTag}},
		}
	case OpNormalize:
		return nil
	case OpBitSetQ:
		addr, bit := op.Args[0], op.Args[1]
		return []Opcode{
			{Op: IBtfss, Args: []Value{addr, bit, access(addr)}},
			{Op: IBcf, Args: []Value{c.ref("STATUS"), c.ref("Z"), AccessTag}},
		}
	case OpBitClrQ:
		addr, bit := op.Args[0], op.Args[1]
		return []Opcode{
			{Op: IBtfsc, Args: []Value{addr, bit, access(addr)}},
			{Op: IBcf, Args: []Value{c.ref("STATUS"), c.ref("Z"), AccessTag}},
		}
	case Op2To1:
		return []Opcode{{Op: IMovf, Args: []Value{c.ref("POSTDEC0"), DstF, AccessTag}}}
	case OpIntrProtect:
		return []Opcode{{Op: IBcf, Args: []Value{c.ref("INTCON"), c.ref("GIE"), AccessTag}}}
	case OpIntrUnprotect:
		return []Opcode{{Op: IBsf, Args: []Value{c.ref("INTCON"), c.ref("GIE"), AccessTag}}}
	default:
		return []Opcode{op}
	}
}

// expandWord replaces w's whole body with the real-instruction expansion
// of every pseudo-op it contains; meta markers (Label, Comment) and
// already-real instructions pass through untouched. MarkerZSet is
// consumed as a hint by the optimizer and never reaches emission.
func expandWord(c *Compiler, w *Entity) {
	var out []Opcode
	for _, op := range w.Body {
		if op.Op == Label || op.Op == Comment {
			out = append(out, op)
			continue
		}
		if op.Op == MarkerZSet {
			continue
		}
		out = append(out, expandOpcode(c, op)...)
	}
	w.Body = out
}

// Emit writes the gpasm-compatible listing described by §4.8: a header
// naming the target processor, a udata section for the RAM variables
// the compilation allocated, the flash-data blocks, a prologue straight-lining
// init_runtime's accumulated setup code before falling into main, the
// body of every reachable word in plan order, and the interrupt vectors
// when enabled.
func (c *Compiler) Emit(out io.Writer, plan *Plan) error {
	for _, e := range plan.order {
		if e.Kind == KindWord {
			expandWord(c, e)
		}
	}
	if init, ok := c.Dict.LookupFirst("init_runtime"); ok {
		expandWord(c, init)
	}

	w := bufWriter{w: out}
	w.printf("\tprocessor\t%s\n", c.Processor)
	w.printf("\t#include <p%s.inc>\n\n", c.Processor)

	c.emitMemorySection(&w)
	c.emitFlashDataSection(&w)

	w.printf("\n\torg\t0x%04X\n", c.Start)
	if c.UseInterrupts {
		w.printf("\tgoto\tstart_up\n")
		w.printf("\torg\t0x%04X\n", c.Start+0x08)
		c.emitInterruptVector(&w, c.HighInterrupt)
		w.printf("\torg\t0x%04X\n", c.Start+0x18)
		c.emitInterruptVector(&w, c.LowInterrupt)
		w.printf("\torg\t0x%04X\n", c.Start+0x20)
		w.printf("start_up\n")
	}

	c.outputPrologue(&w)

	for _, e := range plan.order {
		if e.Kind != KindWord {
			continue
		}
		c.outputSectionHeader(&w, e)
		c.deepOutput(&w, e)
	}

	c.outputEpilogue(&w)
	w.printf("\n\tend\n")
	return w.err
}

// emitMemorySection lays out one udata block reserving space for every
// allocated RAM variable. EEPROM variables get no block here, and flash
// data is written separately by emitFlashDataSection.
func (c *Compiler) emitMemorySection(w *bufWriter) {
	w.printf("RAM_VARS\tudata\t0x100\n")
	for _, e := range c.Dict.AllEntities() {
		if e.Kind != KindVariable || e.EEPROM {
			continue
		}
		size := 1
		if e.Cell {
			size = 2
		}
		w.printf("%s\tres\t%d\n", e.Mangled, size)
	}
	w.printf("\n")
}

// emitFlashDataSection writes out every string literal's backing bytes
// into program memory at the address primString reserved for it, each in
// its own org'd code block the way the teacher lays out absolute-address
// fragments, so a string's compiled address resolves to real data once
// assembled.
func (c *Compiler) emitFlashDataSection(w *bufWriter) {
	var flash []*Entity
	for _, e := range c.Dict.AllEntities() {
		if e.Kind == KindFlashData {
			flash = append(flash, e)
		}
	}
	if len(flash) == 0 {
		return
	}
	sort.Slice(flash, func(i, j int) bool {
		ai, _ := flash[i].Addr.StaticValue()
		aj, _ := flash[j].Addr.StaticValue()
		return ai < aj
	})
	w.printf("\n\tcode\n")
	for _, e := range flash {
		addr, _ := e.Addr.StaticValue()
		w.printf("\torg\t0x%04X\n", addr)
		w.printf("%s\n", e.Mangled)
		w.printf("\tdb\t%s\n", dbBytes(e.Data))
	}
}

func dbBytes(data []byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("0x%02X", b)
	}
	return joinComma(parts)
}

func (c *Compiler) emitInterruptVector(w *bufWriter, ent EntityID) {
	if ent == NoEntity {
		w.printf("\tretfie\n")
		return
	}
	target := c.Dict.Entity(ent)
	w.printf("\tcall\t%s,0\n", target.Mangled)
	w.printf("\tretfie\n")
}

// outputPrologue straight-lines whatever init_runtime accumulated (stack
// pointer setup, then every initialized variable's store, in the order
// they were declared) followed by a call into main; should main ever
// return, execution parks in an idle loop right after that call.
func (c *Compiler) outputPrologue(w *bufWriter) {
	if init, ok := c.Dict.LookupFirst("init_runtime"); ok {
		for _, op := range init.Body {
			c.emitOpcode(w, op)
		}
	}
	main, _ := c.FindMain(true)
	w.printf("\tcall\t%s,0\n", main.Mangled)
	w.printf("idle_loop\n\tbra\tidle_loop\n")
}

func (c *Compiler) outputEpilogue(w *bufWriter) {
	w.printf("\n")
}

// outputSectionHeader prints the gpasm comment banner the source
// compiler emits ahead of each word, naming it and where it came from.
func (c *Compiler) outputSectionHeader(w *bufWriter, e *Entity) {
	if c.NoComments {
		return
	}
	w.printf("\n; %s (%s)\n", e.Name, e.Loc)
}

// deepOutput prints e's expanded body: LABEL opcodes become gpasm labels
// on their own line, everything else an indented mnemonic with its
// operands.
func (c *Compiler) deepOutput(w *bufWriter, e *Entity) {
	for _, op := range e.Body {
		c.emitOpcode(w, op)
	}
}

func (c *Compiler) emitOpcode(w *bufWriter, op Opcode) {
	switch op.Op {
	case Label:
		ent := c.Dict.Entity(op.LabelOf())
		if ent != nil {
			w.printf("%s\n", ent.Mangled)
		}
		return
	case Comment:
		if !c.NoComments && len(op.Args) > 0 {
			if s, ok := op.Args[0].(Tag); ok {
				w.printf("\t; %s\n", s.String())
			}
		}
		return
	}
	name := op.Op.String()
	if len(op.Args) == 0 {
		w.printf("\t%s\n", name)
		return
	}
	parts := make([]string, len(op.Args))
	for i, a := range op.Args {
		parts[i] = c.formatOperand(a)
	}
	w.printf("\t%s\t%s\n", name, joinComma(parts))
}

// tagOperandText gives the gpasm spelling of a destination/access/fast
// sentinel as it appears in an instruction's operand list.
var tagOperandText = map[Tag]string{
	DstW: "w", DstF: "f",
	AccessTag: "a", NoAccess: "1",
	FastTag: "1", NoFastTag: "0",
}

func (c *Compiler) formatOperand(v Value) string {
	switch t := v.(type) {
	case Tag:
		if s, ok := tagOperandText[t]; ok {
			return s
		}
		return t.String()
	case Ref:
		if ent := c.Dict.Entity(t.Entity); ent != nil {
			return ent.Mangled
		}
	}
	if n, ok := v.StaticValue(); ok {
		return fmt.Sprintf("0x%02X", n&0xFFFF)
	}
	return "?"
}

func joinComma(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += "," + p
	}
	return out
}

// bufWriter is a tiny sticky-error writer so emitOpcode's many printf
// calls don't each need their own error check; Emit surfaces w.err once
// at the end, matching the teacher's flush-on-first-error idiom.
type bufWriter struct {
	w   io.Writer
	err error
}

func (w *bufWriter) printf(format string, args ...interface{}) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.w, format, args...)
}
