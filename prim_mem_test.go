package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Address-class predicates from §3's invariants: the access bank covers
// the low 0x60 bytes of bank 0 plus the SFR window, bank-1 is any
// address whose high byte is exactly 0x01, and RAM/EEPROM are
// distinguished purely by their top nibble.
func Test_AddressClassPredicates(t *testing.T) {
	require.True(t, inAccessBank(NewNumber(0x50)))
	require.True(t, inAccessBank(NewNumber(0xFA0)))
	require.False(t, inAccessBank(NewNumber(0x80)))

	require.True(t, inBank1(NewNumber(0x150)))
	require.False(t, inBank1(NewNumber(0x250)))

	require.True(t, ramAddr(NewNumber(0x0100)))
	require.False(t, ramAddr(NewNumber(0x1000)))

	require.True(t, eepromAddr(NewNumber(0x1050)))
	require.False(t, eepromAddr(NewNumber(0x0100)))

	require.Equal(t, AccessTag, accessBitFor(NewNumber(0x50)))
	require.Equal(t, NoAccess, accessBitFor(NewNumber(0x150)))
}

// "! " on a statically-known RAM address folds straight to the two-byte
// movff pair, consuming the address push that preceded it rather than
// emitting a runtime pop-to-FSR1 round trip.
func Test_Store_staticRAMAddress_foldsToDirectMovff(t *testing.T) {
	c := newTestCompiler(t)
	require.NoError(t, c.Interpret("0 variable v"))
	require.NoError(t, c.Interpret(": t 1 v ! ;"))

	w, ok := c.Find("t")
	require.True(t, ok)
	ops := make([]Mnemonic, len(w.Body))
	for i, op := range w.Body {
		ops[i] = op.Op
	}
	require.Equal(t, []Mnemonic{Label, OpPush, IMovff, IMovff, Label, IReturn}, ops)
}

// "@" on a statically-known address folds to a single OP_FETCH marker
// instead of a runtime fetch call.
func Test_Fetch_staticAddress_foldsToOpFetch(t *testing.T) {
	c := newTestCompiler(t)
	require.NoError(t, c.Interpret("0 variable v"))
	require.NoError(t, c.Interpret(": t v @ ;"))

	w, ok := c.Find("t")
	require.True(t, ok)
	ops := make([]Mnemonic, len(w.Body))
	for i, op := range w.Body {
		ops[i] = op.Op
	}
	require.Equal(t, []Mnemonic{Label, OpFetch, Label, IReturn}, ops)
}

// When the address on top of the stack is not a compile-time constant,
// primFetch falls back to popping it into FSR1 and calling the runtime
// helper word.
func Test_Fetch_dynamicAddress_fallsBackToRuntimeCall(t *testing.T) {
	c := newTestCompiler(t)
	w := c.Dict.New("t", KindWord, c.CurrentLocation())
	endLabel := c.Dict.New("_lbl_", KindLabel, c.CurrentLocation())
	c.Dict.Enter(endLabel, nil, nil)
	w.EndLabel = endLabel.ID
	w.Body = []Opcode{opLabel(w.ID, c.Dict)}
	c.Dict.Enter(w, nil, nil)
	c.PushObject(w)
	defer c.PopObject()

	// A non-push instruction stands in for an address that only becomes
	// known at runtime (e.g. left on the stack by a prior call).
	c.AddInstruction(IMovlw, NewNumber(5))
	require.NoError(t, primFetch(c, nil))

	var sawICall bool
	for _, op := range w.Body {
		if op.Op == ICall {
			sawICall = true
		}
	}
	require.True(t, sawICall, "a dynamic address must defer to the rt_fetch helper word")
}

// "c!" on a static RAM address folds to a single tosToAddrByte pop/store.
func Test_CStore_staticRAMAddress_foldsToSingleByteStore(t *testing.T) {
	c := newTestCompiler(t)
	require.NoError(t, c.Interpret("0 cvariable v"))
	require.NoError(t, c.Interpret(": t 1 v c! ;"))

	w, ok := c.Find("t")
	require.True(t, ok)
	ops := make([]Mnemonic, len(w.Body))
	for i, op := range w.Body {
		ops[i] = op.Op
	}
	require.Equal(t, []Mnemonic{Label, OpPush, IMovf, IMovff, Label, IReturn}, ops)
}

// 1+! on a static RAM address specializes to a two-instruction
// skip-on-overflow increment rather than a fetch/add/store round trip.
func Test_OnePlusStore_staticRAMAddress_specializesToSkipIncrement(t *testing.T) {
	c := newTestCompiler(t)
	require.NoError(t, c.Interpret("0 cvariable v"))
	require.NoError(t, c.Interpret(": t v 1+! ;"))

	w, ok := c.Find("t")
	require.True(t, ok)
	ops := make([]Mnemonic, len(w.Body))
	for i, op := range w.Body {
		ops[i] = op.Op
	}
	require.Equal(t, []Mnemonic{Label, IInfsnz, IIncf, Label, IReturn}, ops)
}
