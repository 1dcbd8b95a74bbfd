// Package metadata implements the versioned encrypted-metadata envelope
// ("002" || iv || base64(ciphertext||tag)) and the JSON file-metadata
// record carried inside it.
package metadata

import (
	"encoding/base64"
	"fmt"

	"github.com/cloudvault/filesdk/crypto"
)

// Version is the wire-format version prefix every encrypted metadata
// blob carries.
const Version = "002"

const minBlobLen = len(Version) + crypto.IVSize

// EncryptedMetadataError reports a malformed encrypted-metadata blob:
// wrong version prefix, short buffer, or a base64 decode failure.
type EncryptedMetadataError struct {
	Reason string
}

func (e *EncryptedMetadataError) Error() string {
	return fmt.Sprintf("invalid metadata: %s", e.Reason)
}

// Encrypt seals plain under the metadata key derived from keyStr (one
// round of PBKDF2-HMAC-SHA512, see crypto.TransformKey) and returns the
// "002" || iv || base64(ciphertext||tag) envelope.
func Encrypt(plain, keyStr string) (string, error) {
	key := crypto.TransformKey(keyStr)
	iv, err := crypto.GenerateRandomIV()
	if err != nil {
		return "", err
	}
	sealed, err := crypto.SealChunk(key[:], []byte(iv), []byte(plain))
	if err != nil {
		return "", err
	}
	return Version + iv + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt: it validates the "002" prefix, extracts the
// 12-byte IV, base64-decodes the remainder, and opens it under the same
// derived key.
func Decrypt(blob, keyStr string) (string, error) {
	if len(blob) < minBlobLen {
		return "", &EncryptedMetadataError{Reason: "buffer shorter than version+iv"}
	}
	if blob[:len(Version)] != Version {
		return "", &EncryptedMetadataError{Reason: "unrecognized version prefix"}
	}
	iv := blob[len(Version) : len(Version)+crypto.IVSize]
	encoded := blob[len(Version)+crypto.IVSize:]

	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", &EncryptedMetadataError{Reason: "base64 decode failed: " + err.Error()}
	}

	key := crypto.TransformKey(keyStr)
	plain, err := crypto.OpenChunk(key[:], []byte(iv), sealed)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
