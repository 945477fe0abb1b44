package private

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptCIDRoundTrip(t *testing.T) {
	key := [32]byte{1, 2, 3}
	id := mustCID(t, 9)

	block, err := encryptCID(key, id)
	require.NoError(t, err)

	got, err := decryptCID(key, block)
	require.NoError(t, err)
	require.True(t, got.Equals(id))
}

func TestDecryptCIDWrongKeyFails(t *testing.T) {
	key := [32]byte{1, 2, 3}
	other := [32]byte{4, 5, 6}
	id := mustCID(t, 9)

	block, err := encryptCID(key, id)
	require.NoError(t, err)

	_, err = decryptCID(other, block)
	require.Error(t, err)
}
