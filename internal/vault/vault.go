// Package vault encrypts stored store passwords with AES-256-CBC. Values are
// encoded as "iv:payload" in lowercase hex so they survive any configuration
// store that can hold a string.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/corpusgate/corpusgate/internal/domain"
)

// Vault performs symmetric encryption of stored secrets.
type Vault struct {
	key [32]byte
}

// New derives the 256-bit key by hashing the operator-supplied secret.
func New(secret string) *Vault {
	return &Vault{key: sha256.Sum256([]byte(secret))}
}

// Encrypt encrypts plaintext with a random per-value IV and returns
// hex(iv) + ":" + hex(ciphertext).
func (v *Vault) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(v.key[:])
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Malformed input fails with an error wrapping
// domain.ErrMalformedCiphertext; callers may fall back to using the value
// as given only during interactive connection testing, never when persisting.
func (v *Vault) Decrypt(value string) (string, error) {
	ivHex, dataHex, ok := splitCiphertext(value)
	if !ok {
		return "", fmt.Errorf("%w: not iv:payload hex", domain.ErrMalformedCiphertext)
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return "", fmt.Errorf("%w: bad iv: %v", domain.ErrMalformedCiphertext, err)
	}
	data, err := hex.DecodeString(dataHex)
	if err != nil {
		return "", fmt.Errorf("%w: bad payload: %v", domain.ErrMalformedCiphertext, err)
	}

	block, err := aes.NewCipher(v.key[:])
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}

	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, data)

	plain, err := pkcs7Unpad(out, aes.BlockSize)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrMalformedCiphertext, err)
	}
	return string(plain), nil
}

// IsEncrypted reports whether value is a well-formed iv:payload encoding.
// This is a strict structural check: the IV part must be exactly 32 hex
// characters and the payload a non-empty whole number of hex-encoded AES
// blocks. Plaintexts containing colons or hex-looking substrings must not
// pass.
func (v *Vault) IsEncrypted(value string) bool {
	_, _, ok := splitCiphertext(value)
	return ok
}

func splitCiphertext(value string) (ivHex, dataHex string, ok bool) {
	ivHex, dataHex, found := strings.Cut(value, ":")
	if !found {
		return "", "", false
	}
	if len(ivHex) != aes.BlockSize*2 || !isHex(ivHex) {
		return "", "", false
	}
	if len(dataHex) == 0 || len(dataHex)%(aes.BlockSize*2) != 0 || !isHex(dataHex) {
		return "", "", false
	}
	return ivHex, dataHex, true
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	pad := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+pad)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(pad)
	}
	return out
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded length %d", len(data))
	}
	pad := int(data[len(data)-1])
	if pad == 0 || pad > blockSize {
		return nil, fmt.Errorf("invalid padding byte %d", pad)
	}
	for _, b := range data[len(data)-pad:] {
		if int(b) != pad {
			return nil, fmt.Errorf("inconsistent padding")
		}
	}
	return data[:len(data)-pad], nil
}
