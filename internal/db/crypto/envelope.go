// Package crypto provides encryption utilities for key material at rest and
// per-recipient envelope encryption of project keys.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/box"
)

// Envelope implements symmetric master-key wrapping (AES-256-GCM) and
// asymmetric per-recipient sealing (NaCl box) of key material.
type Envelope struct {
	gcm cipher.AEAD
}

// NewEnvelope creates an Envelope from a hex-encoded 32-byte master key.
func NewEnvelope(hexKey string) (*Envelope, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decode master key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("master key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return &Envelope{gcm: gcm}, nil
}

// Encrypt encrypts plaintext under the master key and returns hex-encoded
// ciphertext with the nonce prepended.
func (e *Envelope) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, e.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	ciphertext := e.gcm.Seal(nonce, nonce, plaintext, nil)
	return hex.EncodeToString(ciphertext), nil
}

// Decrypt decrypts hex-encoded master-key ciphertext.
func (e *Envelope) Decrypt(hexCiphertext string) ([]byte, error) {
	ciphertext, err := hex.DecodeString(hexCiphertext)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	nonceSize := e.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := e.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plaintext, nil
}

// CreateKeyPair generates a Curve25519 key pair, base64 encoded.
func (e *Envelope) CreateKeyPair() (publicKey, privateKey string, err error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate key pair: %w", err)
	}
	return base64.StdEncoding.EncodeToString(pub[:]),
		base64.StdEncoding.EncodeToString(priv[:]), nil
}

// SealKey encrypts plaintext for the receiver's public key, authenticated by
// the sender's private key. Returns base64 ciphertext and nonce.
func (e *Envelope) SealKey(plaintext []byte, receiverPublicKey, senderPrivateKey string) (ciphertext, nonce string, err error) {
	pub, err := decodeBoxKey(receiverPublicKey)
	if err != nil {
		return "", "", fmt.Errorf("receiver public key: %w", err)
	}
	priv, err := decodeBoxKey(senderPrivateKey)
	if err != nil {
		return "", "", fmt.Errorf("sender private key: %w", err)
	}

	var n [24]byte
	if _, err := io.ReadFull(rand.Reader, n[:]); err != nil {
		return "", "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := box.Seal(nil, plaintext, &n, pub, priv)
	return base64.StdEncoding.EncodeToString(sealed),
		base64.StdEncoding.EncodeToString(n[:]), nil
}

// OpenKey decrypts base64 box ciphertext produced by SealKey.
func (e *Envelope) OpenKey(ciphertext, nonce, senderPublicKey, receiverPrivateKey string) ([]byte, error) {
	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	nonceBytes, err := base64.StdEncoding.DecodeString(nonce)
	if err != nil {
		return nil, fmt.Errorf("decode nonce: %w", err)
	}
	if len(nonceBytes) != 24 {
		return nil, fmt.Errorf("nonce must be 24 bytes, got %d", len(nonceBytes))
	}
	pub, err := decodeBoxKey(senderPublicKey)
	if err != nil {
		return nil, fmt.Errorf("sender public key: %w", err)
	}
	priv, err := decodeBoxKey(receiverPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("receiver private key: %w", err)
	}

	var n [24]byte
	copy(n[:], nonceBytes)

	plaintext, ok := box.Open(nil, sealed, &n, pub, priv)
	if !ok {
		return nil, fmt.Errorf("open box: authentication failed")
	}
	return plaintext, nil
}

// NewSymmetricKey generates a random 32-byte symmetric key, e.g. a project
// key distributed via key shares.
func NewSymmetricKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generate symmetric key: %w", err)
	}
	return key, nil
}

func decodeBoxKey(encoded string) (*[32]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes, got %d", len(raw))
	}
	var key [32]byte
	copy(key[:], raw)
	return &key, nil
}
