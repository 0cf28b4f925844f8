package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// "code ... ;code" leaves the word's body exactly as written, with no
// end_label or closing return — unlike an ordinary `:`/`;` definition,
// the assembly escape's author is responsible for every instruction.
func Test_CodeEscape_compilesRawMnemonicNoClosingReturn(t *testing.T) {
	c := newTestCompiler(t)
	require.NoError(t, c.Interpret("code t movlw 5 ;code"))

	w, ok := c.Find("t")
	require.True(t, ok)
	require.Equal(t, NoEntity, w.EndLabel)

	ops := make([]Mnemonic, len(w.Body))
	for i, op := range w.Body {
		ops[i] = op.Op
	}
	require.Equal(t, []Mnemonic{Label, IMovlw}, ops)

	n, ok := w.Body[1].Args[0].StaticValue()
	require.True(t, ok)
	require.Equal(t, 5, n)
}

// Suffix modifiers (",w" ",0" ...) immediately following an operand are
// consumed before the next mnemonic and feed the destination/access bits
// of the instruction they follow.
func Test_CodeEscape_suffixModifiersSetDestAndAccess(t *testing.T) {
	c := newTestCompiler(t)
	require.NoError(t, c.Interpret("code t2 incf 0x20 ,w ,0 ;code"))

	w, ok := c.Find("t2")
	require.True(t, ok)
	require.Len(t, w.Body, 2)
	op := w.Body[1]
	require.Equal(t, IIncf, op.Op)
	require.Len(t, op.Args, 3)
	require.Equal(t, DstW, op.Args[1])
	require.Equal(t, AccessTag, op.Args[2])
}

// Omitting the suffixes entirely still compiles, defaulting to an
// F-destination access-bank instruction with a warning.
func Test_CodeEscape_missingSuffixesDefaultToDstFAccess(t *testing.T) {
	c := newTestCompiler(t)
	require.NoError(t, c.Interpret("code t3 incf 0x20 ;code"))

	w, ok := c.Find("t3")
	require.True(t, ok)
	op := w.Body[1]
	require.Equal(t, IIncf, op.Op)
	require.Equal(t, DstF, op.Args[1])
	require.Equal(t, AccessTag, op.Args[2])
}

// A two-operand instruction like movff reads both operands in
// conventional assembler order (source, then destination).
func Test_CodeEscape_twoOperandInstruction_readsInOrder(t *testing.T) {
	c := newTestCompiler(t)
	require.NoError(t, c.Interpret("code t4 movff 0x20 0x21 ;code"))

	w, ok := c.Find("t4")
	require.True(t, ok)
	op := w.Body[1]
	require.Equal(t, IMovff, op.Op)
	src, _ := op.Args[0].StaticValue()
	dst, _ := op.Args[1].StaticValue()
	require.Equal(t, 0x20, src)
	require.Equal(t, 0x21, dst)
}
