package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Number_StaticValue(t *testing.T) {
	n := NewNumber(42)
	v, ok := n.StaticValue()
	require.True(t, ok)
	require.Equal(t, 42, v)
	require.False(t, n.MakesReferenceTo(0))
}

func Test_Binary_Folds(t *testing.T) {
	expr := Binary{Op: OpAdd, L: NewNumber(2), R: NewNumber(3)}
	v, ok := expr.StaticValue()
	require.True(t, ok, "both operands are static, must fold")
	require.Equal(t, 5, v)
}

func Test_Binary_WithRef_DoesNotFold(t *testing.T) {
	d := NewDict()
	lbl := d.New("_lbl_", KindLabel, Location{})
	d.Enter(lbl, nil, nil)

	expr := Binary{Op: OpAdd, L: Ref{Entity: lbl.ID, Dict: d}, R: NewNumber(1)}
	_, ok := expr.StaticValue()
	require.False(t, ok, "a reference to an unresolved label has no static value")
	require.True(t, expr.MakesReferenceTo(lbl.ID))
	require.False(t, expr.MakesReferenceTo(lbl.ID+1))
}

func Test_Unary_Folds(t *testing.T) {
	expr := Unary{Op: OpLowByte, V: NewNumber(0x1234)}
	v, ok := expr.StaticValue()
	require.True(t, ok)
	require.Equal(t, 0x34, v)

	hi := Unary{Op: OpHighByte, V: NewNumber(0x1234)}
	v, ok = hi.StaticValue()
	require.True(t, ok)
	require.Equal(t, 0x12, v)
}

func Test_Ref_StaticValue_ResolvesConstant(t *testing.T) {
	d := NewDict()
	c := d.New("FOO", KindConstant, Location{})
	c.ConstValue = NewNumber(7)
	d.Enter(c, nil, nil)

	r := Ref{Entity: c.ID, Dict: d}
	v, ok := r.StaticValue()
	require.True(t, ok)
	require.Equal(t, 7, v)
}

func Test_Tag_IsNeverStatic(t *testing.T) {
	_, ok := AccessTag.StaticValue()
	require.False(t, ok)
}
