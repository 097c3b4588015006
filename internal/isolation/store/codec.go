package store

import (
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"isolationd/internal/isolation/models"
	"isolationd/pkg/platform/sentinel"
)

// formatVersion is bumped whenever the persisted envelope changes shape.
const formatVersion = 1

var encryptedPrefix = []byte("xc1:")

type envelope struct {
	Version            int                       `json:"version"`
	IsolationStateInfo models.IsolationStateInfo `json:"isolationStateInfo"`
}

// Codec encodes isolation state for a backend, optionally sealing it with
// XChaCha20-Poly1305 so the value is encrypted at rest.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec returns a plaintext codec when key is empty, otherwise an
// encrypting codec. Keys must be chacha20poly1305.KeySize bytes.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) == 0 {
		return &Codec{}, nil
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// NewCodecFromHex decodes a hex key, as carried in configuration.
func NewCodecFromHex(hexKey string) (*Codec, error) {
	if hexKey == "" {
		return NewCodec(nil)
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	return NewCodec(key)
}

// Encrypted reports whether values are sealed.
func (c *Codec) Encrypted() bool { return c.aead != nil }

func (c *Codec) Encode(info models.IsolationStateInfo) ([]byte, error) {
	plain, err := json.Marshal(envelope{Version: formatVersion, IsolationStateInfo: info})
	if err != nil {
		return nil, fmt.Errorf("encode isolation state: %w", err)
	}
	if c.aead == nil {
		return plain, nil
	}
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plain)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, plain, encryptedPrefix)
	return append(bytes.Clone(encryptedPrefix), sealed...), nil
}

func (c *Codec) Decode(raw []byte) (models.IsolationStateInfo, error) {
	plain := raw
	if bytes.HasPrefix(raw, encryptedPrefix) {
		if c.aead == nil {
			return models.IsolationStateInfo{}, fmt.Errorf("encrypted isolation state without a key: %w", sentinel.ErrInvalidState)
		}
		sealed := raw[len(encryptedPrefix):]
		if len(sealed) < c.aead.NonceSize() {
			return models.IsolationStateInfo{}, fmt.Errorf("truncated isolation state: %w", sentinel.ErrInvalidState)
		}
		opened, err := c.aead.Open(nil, sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():], encryptedPrefix)
		if err != nil {
			return models.IsolationStateInfo{}, fmt.Errorf("decrypt isolation state: %w", sentinel.ErrInvalidState)
		}
		plain = opened
	}

	var env envelope
	if err := json.Unmarshal(plain, &env); err != nil {
		return models.IsolationStateInfo{}, fmt.Errorf("decode isolation state: %w: %w", sentinel.ErrInvalidState, err)
	}
	if env.Version != formatVersion {
		return models.IsolationStateInfo{}, fmt.Errorf("unsupported isolation state version %d: %w", env.Version, sentinel.ErrInvalidState)
	}
	return env.IsolationStateInfo, nil
}
