package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalRoundTrip(t *testing.T) {
	type inner struct {
		B string `cbor:"b"`
	}
	type outer struct {
		A int    `cbor:"a"`
		I inner  `cbor:"i"`
		S []byte `cbor:"s"`
	}

	in := outer{A: 7, I: inner{B: "hi"}, S: []byte{1, 2, 3}}
	data, err := Marshal(in)
	require.NoError(t, err)

	var out outer
	require.NoError(t, Unmarshal(data, &out))
	require.Equal(t, in, out)
}

func TestMarshalDeterministic(t *testing.T) {
	type m struct {
		Z int `cbor:"z"`
		A int `cbor:"a"`
	}
	v := m{Z: 1, A: 2}

	d1, err := Marshal(v)
	require.NoError(t, err)
	d2, err := Marshal(v)
	require.NoError(t, err)
	require.Equal(t, d1, d2)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	var key [32]byte
	for i := range key {
		key[i] = byte(i)
	}

	plaintext := []byte("the quick brown fox jumps over the lazy dog")
	block, err := Encrypt(key, plaintext)
	require.NoError(t, err)
	require.Len(t, block, NonceSize+len(plaintext)+TagSize)

	got, err := Decrypt(key, block)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestDecryptWrongKeyFails(t *testing.T) {
	var key1, key2 [32]byte
	key2[0] = 1

	block, err := Encrypt(key1, []byte("secret"))
	require.NoError(t, err)

	_, err = Decrypt(key2, block)
	require.Error(t, err)
}

func TestEncryptNoncesDiffer(t *testing.T) {
	var key [32]byte
	b1, err := Encrypt(key, []byte("same plaintext"))
	require.NoError(t, err)
	b2, err := Encrypt(key, []byte("same plaintext"))
	require.NoError(t, err)
	require.NotEqual(t, b1, b2)
}
