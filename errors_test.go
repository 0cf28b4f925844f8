package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_errCompilation_annotatesLocation(t *testing.T) {
	err := errCompilation(Location{Name: "prog.rf", Line: 12}, "stack underflow")
	require.EqualError(t, err, "prog.rf:12: stack underflow")

	var ce *CompilationError
	require.ErrorAs(t, err, &ce)
}

func Test_errFatal_hasNoLocationByDefault(t *testing.T) {
	err := errFatal("cannot open %s", "foo.rf")
	require.EqualError(t, err, "cannot open foo.rf")
}

func Test_IsEOF(t *testing.T) {
	require.True(t, IsEOF(errEOF()))
	require.False(t, IsEOF(errFatal("boom")))
}

func Test_errorKinds_areDistinguishable(t *testing.T) {
	var internal *InternalError
	require.ErrorAs(t, errInternal("invariant broken"), &internal)

	var unimpl *UnimplementedError
	require.ErrorAs(t, errUnimplemented("not supported"), &unimpl)

	var fatal *FatalError
	require.ErrorAs(t, errFatalAt(Location{Name: "x", Line: 1}, "unknown word %s", "foo"), &fatal)
}
