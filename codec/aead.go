package codec

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// NonceSize and TagSize fix the encrypted block layout from spec §6.2:
// nonce (12 bytes) || ciphertext || tag (16 bytes).
const (
	NonceSize = chacha20poly1305.NonceSize // 12
	TagSize   = chacha20poly1305.Overhead  // 16
)

// ErrCiphertextTooShort is returned when a block is too small to even
// contain a nonce and a tag.
var ErrCiphertextTooShort = errors.New("codec: ciphertext shorter than nonce+tag")

// Encrypt seals plaintext under key with a fresh random nonce and returns
// nonce || ciphertext || tag, associated data empty as required by §6.2.
func Encrypt(key [32]byte, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, fmt.Errorf("codec: building aead: %w", err)
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("codec: generating nonce: %w", err)
	}

	out := aead.Seal(nonce, nonce, plaintext, nil)
	return out, nil
}

// Decrypt opens a block produced by Encrypt.
func Decrypt(key [32]byte, block []byte) ([]byte, error) {
	if len(block) < NonceSize+TagSize {
		return nil, ErrCiphertextTooShort
	}

	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, fmt.Errorf("codec: building aead: %w", err)
	}

	nonce, ciphertext := block[:NonceSize], block[NonceSize:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("codec: decrypt: %w", err)
	}
	return plaintext, nil
}
