package mem

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Bytes_storLoadRoundTrip(t *testing.T) {
	var m Bytes
	m.PageSize = 4

	require.NoError(t, m.Stor(0, 'h', 'i'))
	b, err := m.Load(0)
	require.NoError(t, err)
	require.Equal(t, byte('h'), b)
	b, err = m.Load(1)
	require.NoError(t, err)
	require.Equal(t, byte('i'), b)
}

func Test_Bytes_unallocatedReadsAsZero(t *testing.T) {
	var m Bytes
	m.PageSize = 4
	require.NoError(t, m.Stor(8, 1))

	b, err := m.Load(0)
	require.NoError(t, err)
	require.Equal(t, byte(0), b)
}

func Test_Bytes_LoadInto_spansPageGap(t *testing.T) {
	var m Bytes
	m.PageSize = 4
	require.NoError(t, m.Stor(0, 1, 2))
	require.NoError(t, m.Stor(8, 9))

	buf := make([]byte, 9)
	require.NoError(t, m.LoadInto(0, buf))
	require.Equal(t, []byte{1, 2, 0, 0, 0, 0, 0, 0, 9}, buf)
}

func Test_Bytes_Size_tracksLastPage(t *testing.T) {
	var m Bytes
	m.PageSize = 4
	require.Equal(t, uint(0), m.Size())
	require.NoError(t, m.Stor(10, 1))
	require.Equal(t, uint(12), m.Size())
}

func Test_Bytes_Stor_respectsLimit(t *testing.T) {
	var m Bytes
	m.PageSize = 4
	m.Limit = 10
	err := m.Stor(9, 1, 2, 3)
	require.Error(t, err)
	var limErr LimitError
	require.ErrorAs(t, err, &limErr)
}

func Test_Bytes_Stor_defaultsPageSize(t *testing.T) {
	var m Bytes
	require.NoError(t, m.Stor(0, 0xFF))
	b, err := m.Load(0)
	require.NoError(t, err)
	require.Equal(t, byte(0xFF), b)
}
