// Package secret encrypts stored connection passwords in the
// ENC:<ivHex>:<cipherHex> format (AES-256-CBC, PKCS#7 padding).
package secret

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	prefix  = "ENC:"
	keySize = 32
	ivSize  = aes.BlockSize
)

// ErrNotEncrypted is returned by Decrypt for values without a valid ENC: shape.
var ErrNotEncrypted = errors.New("value is not in ENC:<iv>:<ciphertext> format")

// Cipher encrypts and decrypts with a fixed AES-256 key.
type Cipher struct {
	block cipher.Block
}

// New returns a Cipher for a 32-byte key.
func New(key []byte) (*Cipher, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("secret key must be %d bytes, got %d", keySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &Cipher{block: block}, nil
}

// NewFromHex returns a Cipher for a key given as 64 hex characters.
func NewFromHex(s string) (*Cipher, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("secret key is not valid hex: %w", err)
	}
	return New(key)
}

// Encrypt returns ENC:<ivHex>:<cipherHex> using a fresh random IV.
func (c *Cipher) Encrypt(plain string) (string, error) {
	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}
	data := pad([]byte(plain))
	out := make([]byte, len(data))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(out, data)
	return prefix + hex.EncodeToString(iv) + ":" + hex.EncodeToString(out), nil
}

// Decrypt reverses Encrypt.
func (c *Cipher) Decrypt(s string) (string, error) {
	if !IsEncrypted(s) {
		return "", ErrNotEncrypted
	}
	parts := strings.Split(s, ":")
	iv, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("decode iv: %w", err)
	}
	data, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return "", errors.New("ciphertext is not a multiple of the block size")
	}
	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(out, data)
	plain, err := unpad(out)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// Reveal decrypts ENC: values and returns anything else unchanged.
func (c *Cipher) Reveal(s string) (string, error) {
	if !IsEncrypted(s) {
		return s, nil
	}
	return c.Decrypt(s)
}

// Conceal encrypts s unless it is empty or already encrypted.
func (c *Cipher) Conceal(s string) (string, error) {
	if s == "" || IsEncrypted(s) {
		return s, nil
	}
	return c.Encrypt(s)
}

// IsEncrypted reports whether s has the ENC:<32 hex>:<hex> shape.
func IsEncrypted(s string) bool {
	if !strings.HasPrefix(s, prefix) {
		return false
	}
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return false
	}
	return len(parts[1]) == 2*ivSize && isHex(parts[1]) && isHex(parts[2])
}

// isHex reports whether s is a non-empty, even-length hex string.
func isHex(s string) bool {
	if s == "" || len(s)%2 != 0 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

func pad(b []byte) []byte {
	n := aes.BlockSize - len(b)%aes.BlockSize
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, errors.New("bad decrypt")
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, errors.New("bad decrypt")
	}
	for _, v := range b[len(b)-n:] {
		if int(v) != n {
			return nil, errors.New("bad decrypt")
		}
	}
	return b[:len(b)-n], nil
}
