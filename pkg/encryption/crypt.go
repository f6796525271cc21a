package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the AES-256 key length.
const KeySize = 32

const nonceSize = 12

// EncryptionManagerInterface defines encryption and decryption methods.
type EncryptionManagerInterface interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// EncryptionManager implements AES-GCM encryption. Ciphertexts are nonce||sealed.
type EncryptionManager struct {
	aesgcm cipher.AEAD
}

// NewEncryptionManager creates an EncryptionManager for a 32-byte key.
func NewEncryptionManager(key []byte) (*EncryptionManager, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid AES key size: got %d bytes, want %d bytes", len(key), KeySize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher block: %w", err)
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES-GCM: %w", err)
	}

	return &EncryptionManager{aesgcm: aesgcm}, nil
}

// NewDerivedEncryptionManager derives a key from sharedKey with HKDF-SHA256 and
// returns an EncryptionManager for it. The salt scopes the key to one use, e.g. a pairing token.
func NewDerivedEncryptionManager(sharedKey, salt []byte, info string) (*EncryptionManager, error) {
	key, err := DeriveKey(sharedKey, salt, info)
	if err != nil {
		return nil, err
	}
	return NewEncryptionManager(key)
}

// DeriveKey expands sharedKey into a KeySize key with HKDF-SHA256.
func DeriveKey(sharedKey, salt []byte, info string) ([]byte, error) {
	if len(sharedKey) == 0 {
		return nil, errors.New("shared key is empty")
	}

	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, sharedKey, salt, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// Encrypt encrypts plaintext using AES-GCM.
func (a *EncryptionManager) Encrypt(plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return a.aesgcm.Seal(nonce[:], nonce[:], plaintext, nil), nil
}

// Decrypt decrypts ciphertext using AES-GCM.
func (a *EncryptionManager) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < nonceSize {
		return nil, errors.New("ciphertext too short: must include nonce and encrypted data")
	}

	plaintext, err := a.aesgcm.Open(nil, ciphertext[:nonceSize], ciphertext[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}

	return plaintext, nil
}
