// Package crypto implements the low-level primitives shared by every
// encrypted-transfer component: the alphanumeric key/IV generator, the
// counter IV used for chunk sealing, AES-256-GCM seal/open, and the two
// PBKDF2-HMAC-SHA512 derivations the wire format depends on.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha512"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// KeySize is the length in bytes of a file chunk key.
const KeySize = 32

// IVSize is the length in bytes of the AES-GCM nonce used per chunk.
const IVSize = 12

// GCMTagSize is the length in bytes of the GCM authentication tag.
const GCMTagSize = 16

// alphanumericCharset is the 62-symbol alphabet peer SDKs assume for
// generated keys and IVs: uppercase, then lowercase, then digits.
const alphanumericCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateAlphanumeric fills n bytes from a CSPRNG and maps each byte
// modulo 62 into alphanumericCharset. Used for both key and IV material
// so generated values round-trip through peer SDKs that only accept
// alphanumeric ASCII.
func GenerateAlphanumeric(n int) (string, error) {
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return "", &Error{Op: "generate_alphanumeric", Err: err}
	}
	out := make([]byte, n)
	for i, b := range raw {
		out[i] = alphanumericCharset[int(b)%len(alphanumericCharset)]
	}
	return string(out), nil
}

// GenerateKey returns a fresh 32-char alphanumeric chunk key.
func GenerateKey() (string, error) {
	return GenerateAlphanumeric(KeySize)
}

// GenerateRandomIV returns a fresh 12-char alphanumeric IV.
func GenerateRandomIV() (string, error) {
	return GenerateAlphanumeric(IVSize)
}

// GenerateCounterIV encodes i in base-62 (big-endian) into a 12-byte
// alphanumeric IV, left-padded with the zero symbol 'A'. Counter IVs are
// unique within a file (one per chunk index) but repeat across files,
// which is safe because chunk keys are per-file and uniformly random.
func GenerateCounterIV(i uint64) string {
	buf := [IVSize]byte{}
	for pos := range buf {
		buf[pos] = 'A'
	}
	const base = uint64(len(alphanumericCharset))
	for pos := IVSize - 1; pos >= 0 && i > 0; pos-- {
		buf[pos] = alphanumericCharset[i%base]
		i /= base
	}
	return string(buf[:])
}

// SealChunk encrypts plaintext with AES-256-GCM under key/iv and an empty
// AAD, returning ciphertext||tag.
func SealChunk(key, iv, plaintext []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != IVSize {
		return nil, &Error{Op: "seal_chunk", Err: fmt.Errorf("iv must be %d bytes, got %d", IVSize, len(iv))}
	}
	return aead.Seal(nil, iv, plaintext, nil), nil
}

// OpenChunk decrypts ciphertext||tag with AES-256-GCM under key/iv and an
// empty AAD.
func OpenChunk(key, iv, sealed []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != IVSize {
		return nil, &Error{Op: "open_chunk", Err: fmt.Errorf("iv must be %d bytes, got %d", IVSize, len(iv))}
	}
	plain, err := aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, &Error{Op: "open_chunk", Err: err}
	}
	return plain, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, &Error{Op: "new_gcm", Err: fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))}
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, &Error{Op: "new_gcm", Err: err}
	}
	aead, err := cipher.NewGCMWithNonceSize(block, IVSize)
	if err != nil {
		return nil, &Error{Op: "new_gcm", Err: err}
	}
	return aead, nil
}

// AuthV2Rounds and AuthV2BitLength are the round count and output length
// used for the login password-derivation step.
const (
	AuthV2Rounds    = 200000
	AuthV2BitLength = 512
)

// PBKDF2SHA512 derives outputLenBytes of key material via
// PBKDF2-HMAC-SHA512 with the given round count. Used both for the
// heavyweight auth-V2 derivation (200 000 rounds) and, with rounds=1, for
// the metadata-key transform — a wire-format compatibility wart that must
// not be altered regardless of how weak a single PBKDF2 round looks in
// isolation.
func PBKDF2SHA512(password, salt []byte, rounds, outputLenBytes int) []byte {
	return pbkdf2.Key(password, salt, rounds, outputLenBytes, sha512.New)
}

// TransformKey derives the 32-byte AES key used for metadata envelopes
// from a caller-supplied key string, via exactly one round of
// PBKDF2-HMAC-SHA512 with salt = password = the key's own bytes.
func TransformKey(key string) [KeySize]byte {
	derived := PBKDF2SHA512([]byte(key), []byte(key), 1, KeySize)
	var out [KeySize]byte
	copy(out[:], derived)
	return out
}

// SHA512Hex returns the lowercase hex SHA-512 digest of data.
func SHA512Hex(data []byte) string {
	sum := sha512.Sum512(data)
	return hex.EncodeToString(sum[:])
}

// SHA1OfSHA512Hex returns hex(SHA1(SHA512(message))), the name_hashed
// algorithm the server expects for lowercased file names.
func SHA1OfSHA512Hex(message string) string {
	inner := sha512.Sum512([]byte(message))
	outer := sha1.Sum(inner[:])
	return hex.EncodeToString(outer[:])
}

// Error wraps a crypto failure (random generation, key construction, or
// seal/open) with the operation that produced it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("crypto: %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }
