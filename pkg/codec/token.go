// Package codec provides the authenticated wire encryption, the framed
// transport built on top of it, and the gob envelope used to carry
// commands and results between client and server, mirroring
// original_source/src/luxdb/connection.go's gen_key/pack_obj/send_obj.
package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/pbkdf2"

	"github.com/sacovo/vectord/pkg/vdberr"
)

const (
	defaultSalt       = "wYfJIy4Nx1hPcxiljwg"
	defaultIterations = 1 << 18
	defaultTTL        = 60 * time.Second
	keyLen            = 32 // AES-256
)

// TokenConfig controls key derivation and replay-window enforcement. Any
// zero field resolves to the package default above; environment variables
// are read only by TokenConfigFromEnv.
type TokenConfig struct {
	Salt       []byte
	Iterations int
	TTL        time.Duration
}

// TokenConfigFromEnv builds a TokenConfig from LUXDB_SALT, KDF_ITERATIONS,
// and FERNET_TTL, falling back to the compiled-in defaults for any unset
// or invalid value.
func TokenConfigFromEnv() TokenConfig {
	cfg := TokenConfig{
		Salt:       []byte(defaultSalt),
		Iterations: defaultIterations,
		TTL:        defaultTTL,
	}
	if s := os.Getenv("LUXDB_SALT"); s != "" {
		cfg.Salt = []byte(s)
	}
	if s := os.Getenv("KDF_ITERATIONS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			cfg.Iterations = n
		}
	}
	if s := os.Getenv("FERNET_TTL"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			cfg.TTL = time.Duration(n) * time.Second
		}
	}
	return cfg
}

func (c TokenConfig) resolve() TokenConfig {
	if len(c.Salt) == 0 {
		c.Salt = []byte(defaultSalt)
	}
	if c.Iterations <= 0 {
		c.Iterations = defaultIterations
	}
	if c.TTL <= 0 {
		c.TTL = defaultTTL
	}
	return c
}

// Token derives a symmetric AES-256-GCM key from a shared secret via
// PBKDF2-HMAC-SHA256 and uses it to seal/open authenticated, replay-bounded
// frames — a Fernet-equivalent construction using only standard-library
// and golang.org/x/crypto primitives.
type Token struct {
	gcm cipher.AEAD
	ttl time.Duration
	now func() time.Time
}

// NewToken derives a Token from secret using cfg (zero value resolves to
// the compiled-in defaults).
func NewToken(secret string, cfg TokenConfig) (*Token, error) {
	cfg = cfg.resolve()
	key := pbkdf2.Key([]byte(secret), cfg.Salt, cfg.Iterations, keyLen, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("codec: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("codec: new gcm: %w", err)
	}
	return &Token{gcm: gcm, ttl: cfg.TTL, now: time.Now}, nil
}

// Seal encrypts plaintext, embedding the current unix timestamp as
// associated data so Open can enforce the replay window without growing
// the ciphertext.
func (t *Token) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, t.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("codec: read nonce: %w", err)
	}

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(t.now().Unix()))

	sealed := t.gcm.Seal(nil, nonce, plaintext, ts[:])

	out := make([]byte, 0, len(ts)+len(nonce)+len(sealed))
	out = append(out, ts[:]...)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

// Open authenticates and decrypts data produced by Seal, rejecting it with
// InvalidToken if the MAC fails, the timestamp is malformed, or the frame
// is older than the configured TTL. A wrong key and a tampered frame are
// deliberately indistinguishable from an expired one: the wire-visible
// failure mode never tells an attacker which.
func (t *Token) Open(data []byte) ([]byte, error) {
	nonceSize := t.gcm.NonceSize()
	if len(data) < 8+nonceSize {
		return nil, &vdberr.InvalidToken{}
	}

	ts := data[:8]
	nonce := data[8 : 8+nonceSize]
	sealed := data[8+nonceSize:]

	plaintext, err := t.gcm.Open(nil, nonce, sealed, ts)
	if err != nil {
		return nil, &vdberr.InvalidToken{}
	}

	issued := time.Unix(int64(binary.BigEndian.Uint64(ts)), 0)
	if t.now().Sub(issued) > t.ttl {
		return nil, &vdberr.InvalidToken{}
	}

	return plaintext, nil
}
