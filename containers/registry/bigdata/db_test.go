package bigdata

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDBHeaderRoundTrips(t *testing.T) {
	buf := make([]byte, DBHeaderSize)
	require.NoError(t, WriteDBHeader(buf, 3, 0x4000))

	hdr, err := ReadDBHeader(buf)
	require.NoError(t, err)
	require.Equal(t, uint16(3), hdr.Count)
	require.Equal(t, uint32(0x4000), hdr.Blocklist)
	require.Equal(t, uint32(0), hdr.Reserved)
}

func TestDBHeaderRejectsTruncatedBuffer(t *testing.T) {
	_, err := ReadDBHeader(make([]byte, DBHeaderSize-1))
	require.ErrorIs(t, err, ErrTruncated)
}

func TestDBHeaderRejectsBadSignature(t *testing.T) {
	buf := make([]byte, DBHeaderSize)
	require.NoError(t, WriteDBHeader(buf, 1, 0x1000))
	buf[0] = 'x'

	_, err := ReadDBHeader(buf)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestBlocklistRoundTrips(t *testing.T) {
	refs := []uint32{0x1000, 0x2000, 0x3000}
	buf := make([]byte, len(refs)*4)
	require.NoError(t, WriteBlocklist(buf, refs))

	got, err := ReadBlocklist(buf, uint16(len(refs)))
	require.NoError(t, err)
	require.Equal(t, refs, got)
}

func TestBlocklistReturnsPartialOnTruncatedEntry(t *testing.T) {
	refs := []uint32{0x1000, 0x2000}
	buf := make([]byte, len(refs)*4)
	require.NoError(t, WriteBlocklist(buf, refs))

	// Claim one more entry than the buffer actually holds.
	got, err := ReadBlocklist(buf, 3)
	require.NoError(t, err)
	require.Equal(t, refs, got)
}
