package models

// Encryptor protects token values at rest.
type Encryptor interface {
	Encrypt(value string) (encrypted string, err error)
	Decrypt(value string) (decrypted string, err error)
}
