package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ref(d *Dict, e *Entity) Ref { return Ref{Entity: e.ID, Dict: d} }

// A dead-code stretch whose closing label is the target of an earlier
// goto must survive: this is the Open Question the dead-code rule
// resolves by breaking out of its reference scan the instant it finds a
// reference, rather than letting a later pass overwrite the "found" flag.
func Test_optimizeDeadCode_keepsBackwardJumpTarget(t *testing.T) {
	d := NewDict()
	w := d.New("loop", KindWord, Location{})
	loopTop := d.New("_lbl_", KindLabel, Location{})
	d.Enter(loopTop, nil, nil)
	after := d.New("_lbl_", KindLabel, Location{})
	d.Enter(after, nil, nil)

	w.Body = []Opcode{
		opLabel(loopTop.ID, d),
		{Op: IGoto, Args: []Value{ref(d, after)}}, // forward exit
		{Op: IGoto, Args: []Value{ref(d, loopTop)}}, // unreachable by fallthrough...
		opLabel(after.ID, d),                        // ...but after is reached by the first goto
	}

	changed := optimizeDeadCode(w)
	require.False(t, changed, "after is referenced by the earlier goto, the block must not be dropped")
	require.Len(t, w.Body, 4)
}

// A dead-code stretch with no surviving reference to its following label
// is removed entirely.
func Test_optimizeDeadCode_dropsTrulyDeadCode(t *testing.T) {
	d := NewDict()
	w := d.New("w", KindWord, Location{})
	orphan := d.New("_lbl_", KindLabel, Location{})
	d.Enter(orphan, nil, nil)

	w.Body = []Opcode{
		{Op: IReturn, Args: []Value{NoFastTag}},
		{Op: IClrwdt},
		opLabel(orphan.ID, d),
	}

	changed := optimizeDeadCode(w)
	require.True(t, changed)
	require.Len(t, w.Body, 2, "the clrwdt between return and the unreferenced label is dropped")
}

func Test_optimizeTailCall_rewritesCallReturnToGoto(t *testing.T) {
	d := NewDict()
	w := d.New("w", KindWord, Location{})
	callee := d.New("callee", KindWord, Location{})
	d.Enter(callee, nil, nil)

	w.Body = []Opcode{
		{Op: ICall, Args: []Value{ref(d, callee), NoFastTag}},
		{Op: IReturn, Args: []Value{NoFastTag}},
	}
	changed := optimizeTailCall(w)
	require.True(t, changed)
	require.Len(t, w.Body, 1)
	require.Equal(t, IGoto, w.Body[0].Op)
}

func Test_optimizeTailCall_leavesFastReturnAlone(t *testing.T) {
	d := NewDict()
	w := d.New("w", KindWord, Location{})
	callee := d.New("callee", KindWord, Location{})
	d.Enter(callee, nil, nil)

	w.Body = []Opcode{
		{Op: ICall, Args: []Value{ref(d, callee), NoFastTag}},
		{Op: IReturn, Args: []Value{FastTag}},
	}
	changed := optimizeTailCall(w)
	require.False(t, changed, "a fast return changes register-save semantics, not a plain tail call")
}

func Test_optimizeUselessGotos_removesJumpToNextLine(t *testing.T) {
	d := NewDict()
	w := d.New("w", KindWord, Location{})
	lbl := d.New("_lbl_", KindLabel, Location{})
	d.Enter(lbl, nil, nil)

	w.Body = []Opcode{
		{Op: IGoto, Args: []Value{ref(d, lbl)}},
		opLabel(lbl.ID, d),
	}
	changed := optimizeUselessGotos(w)
	require.True(t, changed)
	require.Len(t, w.Body, 1)
	require.Equal(t, Label, w.Body[0].Op)
}

func Test_optimizeRetlwFusion_fusesMovlwReturn(t *testing.T) {
	w := &Entity{Body: []Opcode{
		{Op: IMovlw, Args: []Value{NewNumber(9)}},
		{Op: IReturn, Args: []Value{NoFastTag}},
	}}
	changed := optimizeRetlwFusion(w)
	require.True(t, changed)
	require.Len(t, w.Body, 1)
	require.Equal(t, IRetlw, w.Body[0].Op)
}
