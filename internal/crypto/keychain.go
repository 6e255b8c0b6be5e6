// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/MKhiriev/go-multimatrix/internal/secret"
	"golang.org/x/crypto/argon2"
)

const saltSize = 16

var ErrCiphertextTooShort = errors.New("ciphertext too short")

// KeyChain derives the store key from the user's passphrase.
type KeyChain struct {
	// Argon2id tuning parameters.
	argonTime    uint32
	argonMemory  uint32
	argonThreads uint8
	argonKeyLen  uint32
}

// NewKeyChain constructs a [KeyChain] with the Argon2id parameters
// recommended by OWASP (2024):
//   - time cost:   1 iteration
//   - memory cost: 64 MiB
//   - parallelism: 4 threads
//   - key length:  32 bytes (256 bits)
func NewKeyChain() *KeyChain {
	return &KeyChain{
		argonTime:    1,
		argonMemory:  64 * 1024, // 64 MiB
		argonThreads: 4,
		argonKeyLen:  32, // 256 bits
	}
}

// GenerateSalt reads 16 random bytes from the OS CSPRNG. The salt is not a
// secret and is stored next to the sealed tokens.
func (k *KeyChain) GenerateSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// DeriveKey runs Argon2id over passphrase and salt.
func (k *KeyChain) DeriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey(
		[]byte(passphrase),
		salt,
		k.argonTime,
		k.argonMemory,
		k.argonThreads,
		k.argonKeyLen,
	)
}

// NewSealer derives the key and moves it into locked memory. The returned
// sealer must be closed when the store is closed.
func (k *KeyChain) NewSealer(passphrase string, salt []byte) (*TokenSealer, error) {
	key, err := secret.NewFromBytes(k.DeriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("lock derived key: %w", err)
	}

	return &TokenSealer{key: key}, nil
}

// TokenSealer is the AES-256-GCM [Sealer] used by the account repository.
type TokenSealer struct {
	key *secret.Buffer
}

// Seal implements [Sealer]. A random 12-byte nonce is prepended to the
// ciphertext: blob = nonce ‖ ciphertext.
func (s *TokenSealer) Seal(plaintext []byte) (string, error) {
	var blob []byte
	err := s.key.Use(func(key []byte) error {
		gcm, err := newGCM(key)
		if err != nil {
			return err
		}

		nonce := make([]byte, gcm.NonceSize())
		if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
			return fmt.Errorf("generate nonce: %w", err)
		}

		blob = gcm.Seal(nonce, nonce, plaintext, nil)
		return nil
	})
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Open implements [Sealer].
func (s *TokenSealer) Open(sealed string) ([]byte, error) {
	blob, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}

	var plaintext []byte
	err = s.key.Use(func(key []byte) error {
		gcm, err := newGCM(key)
		if err != nil {
			return err
		}

		nonceSize := gcm.NonceSize()
		if len(blob) < nonceSize {
			return ErrCiphertextTooShort
		}

		nonce, ciphertext := blob[:nonceSize], blob[nonceSize:]
		plaintext, err = gcm.Open(nil, nonce, ciphertext, nil)
		if err != nil {
			return fmt.Errorf("decryption failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return plaintext, nil
}

// Close wipes the key.
func (s *TokenSealer) Close() error {
	return s.key.Close()
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}
