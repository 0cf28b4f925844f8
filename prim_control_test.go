package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// begin/until compiles a backward-branching loop: a Label at the top,
// the test body, then a zero-normalize-and-branch back to it.
func Test_BeginUntil_compilesBackwardBranch(t *testing.T) {
	c := newTestCompiler(t)
	require.NoError(t, c.Interpret(": loopw begin 1 until ;"))

	w, ok := c.Find("loopw")
	require.True(t, ok)
	ops := make([]Mnemonic, len(w.Body))
	for i, op := range w.Body {
		ops[i] = op.Op
	}
	require.Equal(t, []Mnemonic{Label, Label, OpPush, OpZeroEq, IBz, Label, IReturn}, ops)
	require.Equal(t, w.Body[1].Args[0], w.Body[4].Args[0], "until must branch back to begin's own label")
}

// A compile-time-constant `if` condition folds away entirely: per §8
// scenario 3, a known-zero condition compiles to an unconditional skip
// with no comparison at all.
func Test_If_constantZero_foldsToUnconditionalSkip(t *testing.T) {
	c := newTestCompiler(t)
	require.NoError(t, c.Interpret(": t 0 if 1 then ;"))

	w, ok := c.Find("t")
	require.True(t, ok)
	ops := make([]Mnemonic, len(w.Body))
	for i, op := range w.Body {
		ops[i] = op.Op
	}
	require.Equal(t, []Mnemonic{Label, IGoto, OpPush, Label, Label, IReturn}, ops, "no OpZeroEq/IBz: the branch is never emitted")
}

func Test_If_constantNonzero_alwaysRuns(t *testing.T) {
	c := newTestCompiler(t)
	require.NoError(t, c.Interpret(": t 5 if 1 then ;"))

	w, ok := c.Find("t")
	require.True(t, ok)
	ops := make([]Mnemonic, len(w.Body))
	for i, op := range w.Body {
		ops[i] = op.Op
	}
	require.Equal(t, []Mnemonic{Label, OpPush, Label, IReturn}, ops, "the body runs unconditionally with no skip of any kind")
}

// A dynamic `if` condition (one that did not just compile to a static
// push) compiles a real zero-test and conditional branch.
func Test_If_dynamicCondition_compilesBranch(t *testing.T) {
	c := newTestCompiler(t)
	require.NoError(t, c.Interpret("0 variable flag"))
	require.NoError(t, c.Interpret(": t flag @ if 1 then ;"))

	w, ok := c.Find("t")
	require.True(t, ok)
	ops := make([]Mnemonic, len(w.Body))
	for i, op := range w.Body {
		ops[i] = op.Op
	}
	require.Equal(t, []Mnemonic{Label, OpFetch, OpZeroEq, IBz, OpPush, Label, Label, IReturn}, ops)
}

func Test_IfElseThen_resolvesBothBranches(t *testing.T) {
	c := newTestCompiler(t)
	require.NoError(t, c.Interpret("0 variable flag"))
	require.NoError(t, c.Interpret(": t flag @ if 1 else 2 then ;"))

	w, ok := c.Find("t")
	require.True(t, ok)
	ops := make([]Mnemonic, len(w.Body))
	for i, op := range w.Body {
		ops[i] = op.Op
	}
	require.Equal(t, []Mnemonic{Label, OpFetch, OpZeroEq, IBz, OpPush, IGoto, Label, OpPush, Label, Label, IReturn}, ops)
}

// cfor/cnext move the loop count to the return stack as a single byte
// and decrement it in place.
func Test_CFor_CNext_compileByteCountedLoop(t *testing.T) {
	c := newTestCompiler(t)
	require.NoError(t, c.Interpret(": loopn cfor 1 cnext ;"))

	w, ok := c.Find("loopn")
	require.True(t, ok)
	ops := make([]Mnemonic, len(w.Body))
	for i, op := range w.Body {
		ops[i] = op.Op
	}
	require.Equal(t, []Mnemonic{Label, IMovff, Label, OpPush, IDecf, IBnz, IMovf, Label, IReturn}, ops)
}

// switchw/casew/endcasew/endswitchw are exercised directly against the
// compile-time stack: the chain pops its case value and end/next labels
// in strict LIFO order, exactly as the interpreter loop would leave them
// for a "N casew ... endcasew" clause.
func Test_SwitchCaseChain_compilesLinearCompareBranch(t *testing.T) {
	c := newTestCompiler(t)
	w := c.Dict.New("sw", KindWord, c.CurrentLocation())
	endLabel := c.Dict.New("_lbl_", KindLabel, c.CurrentLocation())
	c.Dict.Enter(endLabel, nil, nil)
	w.EndLabel = endLabel.ID
	w.Body = []Opcode{opLabel(w.ID, c.Dict)}
	c.Dict.Enter(w, nil, nil)
	c.PushObject(w)
	defer c.PopObject()

	require.NoError(t, primSwitchW(c, nil))
	c.CtPush(itemValue(NewNumber(1)))
	require.NoError(t, primCaseW(c, nil))
	require.NoError(t, primEndCaseW(c, nil))
	require.NoError(t, primEndSwitchW(c, nil))

	ops := make([]Mnemonic, len(w.Body))
	for i, op := range w.Body {
		ops[i] = op.Op
	}
	require.Equal(t, []Mnemonic{Label, ISublw, IBnz, IGoto, Label, Label}, ops)
	require.Empty(t, c.DataStack, "the chain must leave the compile-time stack balanced")
}

// recurse compiles a call back to the word currently being defined.
func Test_Recurse_callsOwnWord(t *testing.T) {
	c := newTestCompiler(t)
	require.NoError(t, c.Interpret(": countdown recurse ;"))

	w, ok := c.Find("countdown")
	require.True(t, ok)
	found := false
	for _, op := range w.Body {
		if op.Op == ICall {
			ref, ok := op.Args[0].(Ref)
			require.True(t, ok)
			require.Equal(t, w.ID, ref.Entity)
			found = true
		}
	}
	require.True(t, found, "recurse must compile a call to the enclosing word")
}

// exit jumps straight to the word's own end_label.
func Test_Exit_jumpsToEndLabel(t *testing.T) {
	c := newTestCompiler(t)
	require.NoError(t, c.Interpret(": early exit ;"))

	w, ok := c.Find("early")
	require.True(t, ok)
	found := false
	for _, op := range w.Body {
		if op.Op == IGoto {
			ref, ok := op.Args[0].(Ref)
			require.True(t, ok)
			require.Equal(t, w.EndLabel, ref.Entity)
			found = true
		}
	}
	require.True(t, found, "exit must compile a goto to the word's end_label")
}

func Test_Exit_outsideWordDefinition_errors(t *testing.T) {
	c := newTestCompiler(t)
	err := primExit(c, nil)
	require.Error(t, err)
}
