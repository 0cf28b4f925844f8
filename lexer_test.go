package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Lexer_ParseWord_basic(t *testing.T) {
	lx := NewLexer()
	lx.PushInclude("t", []string{"foo bar  baz\n"})

	for _, want := range []string{"foo", "bar", "baz"} {
		got, err := lx.ParseWord()
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := lx.ParseWord()
	require.True(t, IsEOF(err))
}

func Test_Lexer_ParseWord_backslashComment(t *testing.T) {
	lx := NewLexer()
	lx.PushInclude("t", []string{"foo \\ bar baz\n", "next\n"})

	got, err := lx.ParseWord()
	require.NoError(t, err)
	require.Equal(t, "foo", got)

	got, err = lx.ParseWord()
	require.NoError(t, err)
	require.Equal(t, "next", got, "a backslash discards the rest of its line")
}

func Test_Lexer_Unread_replaysToken(t *testing.T) {
	lx := NewLexer()
	lx.PushInclude("t", []string{"a b\n"})

	got, err := lx.ParseWord()
	require.NoError(t, err)
	require.Equal(t, "a", got)

	lx.Unread(got)
	got, err = lx.ParseWord()
	require.NoError(t, err)
	require.Equal(t, "a", got)

	got, err = lx.ParseWord()
	require.NoError(t, err)
	require.Equal(t, "b", got)
}

func Test_Lexer_Parse_consumesThroughDelimiter(t *testing.T) {
	lx := NewLexer()
	lx.PushInclude("t", []string{"hello ) world\n"})

	body, err := lx.Parse(')')
	require.NoError(t, err)
	require.Equal(t, "hello ", body)

	rest, err := lx.ParseWord()
	require.NoError(t, err)
	require.Equal(t, "world", rest)
}

func Test_ParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"42", 42, true},
		{"-5", -5, true},
		{"--5", 5, true},
		{"$2A", 0x2A, true},
		{"0x2A", 0x2A, true},
		{"0b101", 0b101, true},
		{"", 0, false},
		{"notanumber", 0, false},
	}
	for _, tc := range cases {
		n, ok := ParseNumber(tc.in)
		require.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			require.Equal(t, tc.want, n.Int, tc.in)
		}
	}
}

// The reader-level escapes registered by registerReaderPrimitives ride on
// the same Lexer.Parse mechanism as the assembly-escape suffix scan:
// `(` discards a comment, `"` lays out a string in the flash pool and
// compiles a push of its address.
func Test_ParenComment_isDiscarded(t *testing.T) {
	c := newTestCompiler(t)
	require.NoError(t, c.Interpret("( this is a comment ) 7 constant AFTER_COMMENT"))
	ent, ok := c.Find("AFTER_COMMENT")
	require.True(t, ok)
	v, ok := ent.ConstValue.StaticValue()
	require.True(t, ok)
	require.Equal(t, 7, v)
}

func Test_StringLiteral_bindsFlashData(t *testing.T) {
	c := newTestCompiler(t)
	before := c.FlashHere
	require.NoError(t, c.Interpret(`: main " hi" ;`))
	require.Greater(t, c.FlashHere, before, "the string's bytes must be laid out in the flash pool")

	w, ok := c.Find("main")
	require.True(t, ok)
	foundPush := false
	for _, op := range w.Body {
		if op.Op == OpPush {
			if n, ok := op.Args[0].StaticValue(); ok && n == before {
				foundPush = true
			}
		}
	}
	require.True(t, foundPush, "main must compile a push of the string's address")
}
