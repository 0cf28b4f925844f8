package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_parseAddress(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"$2000", 0x2000},
		{"0x2000", 0x2000},
		{"0X2000", 0x2000},
		{"0b101", 0b101},
		{"0B101", 0b101},
		{"8192", 8192},
	}
	for _, tc := range cases {
		got, err := parseAddress(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}
}

func Test_parseAddress_rejectsGarbage(t *testing.T) {
	_, err := parseAddress("not-a-number")
	require.Error(t, err)
}

func Test_defaultAsmName(t *testing.T) {
	require.Equal(t, "prog.asm", defaultAsmName("prog.rf"))
	require.Equal(t, "dir/prog.asm", defaultAsmName("dir/prog.rf"))
	require.Equal(t, "noext.asm", defaultAsmName("noext"))
}
