package crypto

//go:generate mockgen -source=interfaces.go -destination=../mock/sealer_mock.go -package=mock

// Sealer protects small values (access tokens) before they are written to
// the local store. Sealed values are base64(nonce ‖ ciphertext).
type Sealer interface {
	// Seal encrypts plaintext. The caller keeps ownership of plaintext.
	Seal(plaintext []byte) (string, error)

	// Open reverses Seal. An error almost always means the passphrase that
	// derived the key differs from the one used to seal.
	Open(sealed string) ([]byte, error)
}
