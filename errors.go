package main

import (
	"fmt"

	"github.com/forth18/rforth1/internal/fileinput"
)

// Location records where in the source a diagnostic originates; it is the
// same Name/Line pair fileinput.Input tracks for the current and last
// scanned lines, so the lexer can hand its position straight to
// errCompilation and friends without a parallel type.
type Location = fileinput.Location

// CompilerError is implemented by every error the compiler itself raises.
// The CLI driver catches any error from Process uniformly and never needs
// to know which kind it got; individual components use the concrete kinds
// below to decide whether a failure is fatal, a bug in the compiler, or
// just the end of input.
type CompilerError interface {
	error
	compilerError()
}

type baseError struct {
	msg string
	loc Location
}

func (e *baseError) Error() string {
	if e.loc.Name != "" {
		return fmt.Sprintf("%s: %s", e.loc, e.msg)
	}
	return e.msg
}

func (e *baseError) compilerError() {}

// EOFError signals ordinary end of input; Process treats it as success.
type EOFError struct{ baseError }

func errEOF() error { return &EOFError{baseError{msg: "EOF"}} }

// FatalError is a malformed program or a failure to get at its input:
// unknown word, a source file that cannot be found or opened, an output
// file that cannot be created, and the like.
type FatalError struct{ baseError }

func errFatal(format string, args ...interface{}) error {
	return &FatalError{baseError{msg: fmt.Sprintf(format, args...)}}
}

func errFatalAt(loc Location, format string, args ...interface{}) error {
	return &FatalError{baseError{msg: fmt.Sprintf(format, args...), loc: loc}}
}

// UnimplementedError marks a feature this compiler deliberately does not
// support (the source language's embedded host-language escape, primarily).
type UnimplementedError struct{ baseError }

func errUnimplemented(format string, args ...interface{}) error {
	return &UnimplementedError{baseError{msg: fmt.Sprintf(format, args...)}}
}

// InternalError means an invariant the compiler itself is supposed to
// maintain was broken; seeing one is always a compiler bug, not bad input.
type InternalError struct{ baseError }

func errInternal(format string, args ...interface{}) error {
	return &InternalError{baseError{msg: fmt.Sprintf(format, args...)}}
}

// CompilationError is a location-annotated, user-facing diagnostic: the
// ordinary "you wrote something wrong" error.
type CompilationError struct{ baseError }

func errCompilation(loc Location, format string, args ...interface{}) error {
	return &CompilationError{baseError{msg: fmt.Sprintf(format, args...), loc: loc}}
}

// IsEOF reports whether err is an EOFError; wrapped errors are not
// unwrapped.
func IsEOF(err error) bool {
	_, ok := err.(*EOFError)
	return ok
}
