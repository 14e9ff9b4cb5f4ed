package ports

// SecurityPort encrypts sensitive values before they are persisted.
type SecurityPort interface {
	Encrypt(plaintext []byte) (ciphertext []byte, err error)
	Decrypt(ciphertext []byte) (plaintext []byte, err error)

	// EncryptString returns a base64 ciphertext suitable for a text column.
	EncryptString(plaintext string) (string, error)
	// DecryptString reverses EncryptString.
	DecryptString(encoded string) (string, error)
}
