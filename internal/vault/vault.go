// Package vault encrypts and decrypts the per-user mailbox credential at
// rest. Nothing outside this package ever sees a usable key, and the
// storage layer only ever sees vault output.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
)

var (
	// ErrEncryptFailed indicates credential encryption failed
	ErrEncryptFailed = errors.New("credential encryption failed")
	// ErrDecryptFailed indicates the ciphertext could not be decrypted;
	// the stored credential was written under a different key or is corrupt
	ErrDecryptFailed = errors.New("credential decryption failed")
)

// Vault performs AES-256-GCM encryption of credential blobs with a single
// process-wide symmetric key.
type Vault struct {
	key       []byte // 32 bytes for AES-256
	ephemeral bool
}

// New creates a Vault from the configured secret. The key is derived with
// SHA-256 so any secret length works. An empty secret yields a random
// ephemeral key: the vault still functions, but nothing encrypted under it
// survives a restart.
func New(secret string) *Vault {
	if secret == "" {
		key := make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, key); err != nil {
			// rand.Reader failing means the platform is broken
			panic(fmt.Sprintf("vault: cannot generate ephemeral key: %v", err))
		}
		log.Println("[Vault] WARNING: no encryption key configured, using a temporary key for this session")
		log.Println("[Vault] WARNING: credentials encrypted now will NOT be decryptable after restart")
		log.Println("[Vault]          set JOB_PARSER_ENCRYPTION_KEY to a stable secret to fix this")
		return &Vault{key: key, ephemeral: true}
	}

	hash := sha256.Sum256([]byte(secret))
	return &Vault{key: hash[:]}
}

// Ephemeral reports whether the vault is running on a session-only key.
func (v *Vault) Ephemeral() bool {
	return v.ephemeral
}

// Encrypt encrypts plaintext with AES-256-GCM and returns the
// nonce-prefixed ciphertext as standard base64 text.
func (v *Vault) Encrypt(plaintext []byte) (string, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", ErrEncryptFailed
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", ErrEncryptFailed
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", ErrEncryptFailed
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. Two historical storage shapes are tolerated
// before giving up: hex-escaped text ("\x67\x41...", produced by an old
// write path that stored raw bytes through a text column) and raw
// ciphertext bytes kept as-is in the text column. All failures collapse
// into ErrDecryptFailed so the caller can prompt for re-authorization
// instead of crashing.
func (v *Vault) Decrypt(stored string) ([]byte, error) {
	if stored == "" {
		return nil, ErrDecryptFailed
	}

	for _, raw := range decodeCandidates(stored) {
		plaintext, err := v.open(raw)
		if err == nil {
			return plaintext, nil
		}
	}

	return nil, ErrDecryptFailed
}

// decodeCandidates returns the possible byte interpretations of a stored
// ciphertext value, most likely shape first.
func decodeCandidates(stored string) [][]byte {
	var candidates [][]byte

	if raw, err := base64.StdEncoding.DecodeString(stored); err == nil {
		candidates = append(candidates, raw)
	}

	if strings.Contains(stored, `\x`) {
		if raw, err := hex.DecodeString(strings.ReplaceAll(stored, `\x`, "")); err == nil {
			candidates = append(candidates, raw)
		}
	}

	// Last resort: the column held the ciphertext bytes directly
	candidates = append(candidates, []byte(stored))

	return candidates
}

func (v *Vault) open(ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return nil, ErrDecryptFailed
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ErrDecryptFailed
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, ErrDecryptFailed
	}

	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrDecryptFailed
	}

	return plaintext, nil
}
