package secret

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "querydeck"
	keyringUser    = "master-key"
)

// Options selects where the encryption key comes from.
type Options struct {
	// KeyHex is a 64-character hex key. It wins over the keyring.
	KeyHex string
	// UseKeyring allows loading (or creating) the key in the OS credential manager.
	UseKeyring bool
	Logger     *slog.Logger
}

// Open returns a Cipher using the configured key source.
func Open(opts Options) (*Cipher, error) {
	if opts.KeyHex != "" {
		return NewFromHex(opts.KeyHex)
	}
	if !opts.UseKeyring {
		return nil, errors.New("no secret key configured and keyring disabled")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	key, err := loadOrCreateKey(logger)
	if err != nil {
		return nil, err
	}
	return NewFromHex(key)
}

// loadOrCreateKey reads the key from the OS credential manager, generating
// and storing a new one on first use.
func loadOrCreateKey(logger *slog.Logger) (string, error) {
	key, err := keyring.Get(keyringService, keyringUser)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("read key from keyring: %w", err)
	}

	raw := make([]byte, keySize)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	key = hex.EncodeToString(raw)
	if err := keyring.Set(keyringService, keyringUser, key); err != nil {
		return "", fmt.Errorf("store key in keyring: %w", err)
	}
	logger.Info("generated new encryption key", "service", keyringService)
	return key, nil
}
