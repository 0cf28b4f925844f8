package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestCompiler builds a Compiler with the default content loaded,
// mirroring what Process does before it starts interpreting user source,
// so unit tests below can exercise primitives directly.
func newTestCompiler(t *testing.T) *Compiler {
	t.Helper()
	c := NewCompiler("18f248", 0x2000, "main", false, false, "<test>", "")
	require.NoError(t, c.addDefaultContent())
	return c
}

// Referencing a constant, a variable or a bit by name must push its
// value/address (not error out looking for a PrimKind implementation):
// these entities are FlagImmediate but carry no primitive code of their
// own, see the Kind-based dispatch at the top of RunEntity.
func Test_RunEntity_constantPushesValue(t *testing.T) {
	c := newTestCompiler(t)
	ent := c.Dict.New("ANSWER", KindConstant, c.CurrentLocation())
	ent.ConstValue = NewNumber(42)
	ent.Flags |= FlagImmediate
	c.Dict.Enter(ent, c.CurrentObject, nil)

	require.NoError(t, c.RunEntity(ent))
	item, err := c.CtPop()
	require.NoError(t, err)
	v, err := itemToValue(item)
	require.NoError(t, err)
	n, ok := v.StaticValue()
	require.True(t, ok)
	require.Equal(t, 42, n)
}

func Test_RunEntity_variablePushesAddress(t *testing.T) {
	c := newTestCompiler(t)
	c.CtPush(itemValue(NewNumber(0)))
	ent, err := c.allocVariable("counter", true, false)
	require.NoError(t, err)

	require.NoError(t, c.RunEntity(ent))
	item, err := c.CtPop()
	require.NoError(t, err)
	v, err := itemToValue(item)
	require.NoError(t, err)
	n, ok := v.StaticValue()
	require.True(t, ok)
	addr, _ := ent.Addr.StaticValue()
	require.Equal(t, addr, n)
}

func Test_RunEntity_bitPushesAddrThenBit(t *testing.T) {
	c := newTestCompiler(t)
	ent := c.Dict.New("my-bit", KindBit, c.CurrentLocation())
	ent.Addr = NewNumber(0x20)
	ent.BitIndex = NewNumber(3)
	ent.Flags |= FlagImmediate
	c.Dict.Enter(ent, c.CurrentObject, nil)

	require.NoError(t, c.RunEntity(ent))
	bitItem, err := c.CtPop()
	require.NoError(t, err)
	addrItem, err := c.CtPop()
	require.NoError(t, err)
	bitV, _ := itemToValue(bitItem)
	addrV, _ := itemToValue(addrItem)
	n, _ := bitV.StaticValue()
	require.Equal(t, 3, n)
	n, _ = addrV.StaticValue()
	require.Equal(t, 0x20, n)
}

// End-to-end: a minimal program compiles to a listing with the expected
// header, a variable udata block, and a call into main from the prologue.
func Test_Process_minimalProgram(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "prog.rf")
	asm := filepath.Join(dir, "prog.asm")
	require.NoError(t, os.WriteFile(src, []byte("0 variable counter\n: main 0 counter ! ;\n"), 0o644))

	opts := Options{
		InFile:    src,
		AsmFile:   asm,
		Processor: "18f248",
		Start:     0x2000,
		MainName:  "main",
	}
	require.NoError(t, Process(opts))

	out, err := os.ReadFile(asm)
	require.NoError(t, err)
	text := string(out)
	require.Contains(t, text, "processor\t18f248")
	require.Contains(t, text, "RAM_VARS\tudata\t0x100")
	require.Contains(t, text, "counter\tres\t2")
	require.Contains(t, text, "call\tmain,0")
	require.Contains(t, text, "\tend\n")
}

func Test_Process_unknownMainErrors(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "prog.rf")
	asm := filepath.Join(dir, "prog.asm")
	require.NoError(t, os.WriteFile(src, []byte(": notmain ;\n"), 0o644))

	opts := Options{
		InFile:    src,
		AsmFile:   asm,
		Processor: "18f248",
		Start:     0x2000,
		MainName:  "main",
	}
	err := Process(opts)
	require.Error(t, err)
}
