package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// newBitTestWord sets up a bare word entity as the current compile
// target, mirroring the low-level harness used for the switchw/casew
// chain: bit-set/bit-clr/bit-toggle/bit-set?/bit-clr? all read their
// address and bit index off the compile-time stack directly, the way
// primBitDef's RunEntity dispatch leaves them for a bit word referenced
// outside of a compiled call.
func newBitTestWord(t *testing.T, c *Compiler) *Entity {
	t.Helper()
	w := c.Dict.New("t", KindWord, c.CurrentLocation())
	endLabel := c.Dict.New("_lbl_", KindLabel, c.CurrentLocation())
	c.Dict.Enter(endLabel, nil, nil)
	w.EndLabel = endLabel.ID
	w.Body = []Opcode{opLabel(w.ID, c.Dict)}
	c.Dict.Enter(w, nil, nil)
	c.PushObject(w)
	return w
}

// A short, compile-time address folds bit-set straight to a single bsf.
func Test_BitSet_shortAddress_foldsToSingleInstruction(t *testing.T) {
	c := newTestCompiler(t)
	w := newBitTestWord(t, c)
	defer c.PopObject()

	c.CtPush(itemValue(NewNumber(0x20)))
	c.CtPush(itemValue(NewNumber(3)))
	require.NoError(t, primBitSetForTest(c))

	ops := make([]Mnemonic, len(w.Body))
	for i, op := range w.Body {
		ops[i] = op.Op
	}
	require.Equal(t, []Mnemonic{Label, IBsf}, ops)
	last := w.Body[len(w.Body)-1]
	require.Equal(t, AccessTag, last.Args[2])
}

// An address outside the short-addressable range defers to the runtime
// helper word, pushing address and bit first.
func Test_BitSet_longAddress_fallsBackToRuntimeHelper(t *testing.T) {
	c := newTestCompiler(t)
	w := newBitTestWord(t, c)
	defer c.PopObject()

	c.CtPush(itemValue(NewNumber(0x300)))
	c.CtPush(itemValue(NewNumber(3)))
	require.NoError(t, primBitSetForTest(c))

	ops := make([]Mnemonic, len(w.Body))
	for i, op := range w.Body {
		ops[i] = op.Op
	}
	require.Equal(t, []Mnemonic{Label, OpPush, OpPush, ICall}, ops)
}

func Test_BitSetQ_shortAddress_compilesPseudoOp(t *testing.T) {
	c := newTestCompiler(t)
	w := newBitTestWord(t, c)
	defer c.PopObject()

	c.CtPush(itemValue(NewNumber(0x20)))
	c.CtPush(itemValue(NewNumber(5)))
	require.NoError(t, primBitSetQForTest(c))

	last := w.Body[len(w.Body)-1]
	require.Equal(t, OpBitSetQ, last.Op)
}

// primitiveTable is keyed by PrimKind, which is unexported plumbing;
// these thin wrappers invoke the registered primitive functions exactly
// the way RunEntity would, without needing a real dictionary entity.
func primBitSetForTest(c *Compiler) error {
	return bitOp(IBsf, "rt_bit_set")(c, nil)
}

func primBitSetQForTest(c *Compiler) error {
	return bitQuery(OpBitSetQ, "rt_bit_set_q")(c, nil)
}
