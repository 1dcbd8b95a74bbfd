package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	iv, err := GenerateRandomIV()
	require.NoError(t, err)

	plaintext := bytes.Repeat([]byte{0x41}, 1048576)
	sealed, err := SealChunk([]byte(key), []byte(iv), plaintext)
	require.NoError(t, err)
	assert.Len(t, sealed, len(plaintext)+GCMTagSize)

	opened, err := OpenChunk([]byte(key), []byte(iv), sealed)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestOpenChunkRejectsTamperedCiphertext(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	iv, err := GenerateRandomIV()
	require.NoError(t, err)

	sealed, err := SealChunk([]byte(key), []byte(iv), []byte("hello world"))
	require.NoError(t, err)
	sealed[0] ^= 0xFF

	_, err = OpenChunk([]byte(key), []byte(iv), sealed)
	assert.Error(t, err)
}

func TestGenerateCounterIV(t *testing.T) {
	assert.Equal(t, "AAAAAAAAAAAA", GenerateCounterIV(0))
	assert.Equal(t, "AAAAAAAAAAAB", GenerateCounterIV(1))
	assert.Equal(t, "AAAAAAAAAABB", GenerateCounterIV(63))
}

func TestGenerateAlphanumericCharset(t *testing.T) {
	s, err := GenerateAlphanumeric(32)
	require.NoError(t, err)
	assert.Len(t, s, 32)
	for _, r := range s {
		assert.Contains(t, alphanumericCharset, string(r))
	}
}

func TestDeriveAuthV2(t *testing.T) {
	d := DeriveAuthV2("test", "saltyasthesea")
	assert.Equal(t, "215624a1a33f9962aa2e4a6beeade36dca74a300bece1981c984db32fff85692", d.MasterKey)
	assert.Equal(t, "d103ae8e5fec137e5586bf75707b274b07b8d2ab607d63ac75fb586e8dff9d691ddc104426ce2f9225d3d785b6bffebd9b0c7c579ca5fd53aad0b4808f20e57d", d.LoginPassword)
}

func TestSHA1OfSHA512Hex(t *testing.T) {
	got := SHA1OfSHA512Hex("test.txt")
	assert.Len(t, got, 40)
}
