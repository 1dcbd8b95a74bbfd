package auth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudvault/filesdk/crypto"
	sdkerrors "github.com/cloudvault/filesdk/errors"
	"github.com/tyler-smith/go-bip39"
)

// credentialExportEntropyBits sizes the bip39 entropy used to derive the
// export's wrapping key; 128 bits yields a 12-word recovery phrase.
const credentialExportEntropyBits = 128

// ExportCredentials serializes c to an opaque self-describing text
// blob: a bip39 recovery phrase followed by the AES-256-GCM-sealed
// credential JSON, wrapped under a key derived from the phrase's
// entropy. The wire format is internal to this package; the phrase is
// what a caller is expected to write down and hand back to
// ImportCredentials later.
func ExportCredentials(c Credentials) (string, error) {
	entropy, err := bip39.NewEntropy(credentialExportEntropyBits)
	if err != nil {
		return "", &sdkerrors.CryptoError{Cause: err}
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", &sdkerrors.CryptoError{Cause: err}
	}

	plain, err := json.Marshal(c)
	if err != nil {
		return "", &sdkerrors.JSONError{Message: err.Error()}
	}

	key := wrappingKey(entropy)
	iv, err := crypto.GenerateRandomIV()
	if err != nil {
		return "", &sdkerrors.CryptoError{Cause: err}
	}
	sealed, err := crypto.SealChunk(key[:], []byte(iv), plain)
	if err != nil {
		return "", &sdkerrors.CryptoError{Cause: err}
	}

	blob := base64.StdEncoding.EncodeToString(append([]byte(iv), sealed...))
	return mnemonic + "\n" + blob, nil
}

// ImportCredentials reverses ExportCredentials.
func ImportCredentials(blob string) (Credentials, error) {
	mnemonic, encoded, ok := strings.Cut(blob, "\n")
	if !ok {
		return Credentials{}, &sdkerrors.InvalidMetadataError{Reason: "credential blob missing mnemonic/ciphertext separator"}
	}

	entropy, err := bip39.EntropyFromMnemonic(mnemonic)
	if err != nil {
		return Credentials{}, fmt.Errorf("invalid recovery phrase: %w", err)
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Credentials{}, &sdkerrors.InvalidMetadataError{Reason: "ciphertext is not valid base64"}
	}
	if len(raw) < crypto.IVSize {
		return Credentials{}, &sdkerrors.InvalidMetadataError{Reason: "ciphertext shorter than iv"}
	}
	iv, ciphertext := raw[:crypto.IVSize], raw[crypto.IVSize:]

	key := wrappingKey(entropy)
	plain, err := crypto.OpenChunk(key[:], iv, ciphertext)
	if err != nil {
		return Credentials{}, &sdkerrors.CryptoError{Cause: err}
	}

	var c Credentials
	if err := json.Unmarshal(plain, &c); err != nil {
		return Credentials{}, &sdkerrors.JSONError{Body: plain, Message: err.Error()}
	}
	return c, nil
}

func wrappingKey(entropy []byte) [32]byte {
	var out [32]byte
	derived := crypto.PBKDF2SHA512(entropy, entropy, 1, crypto.KeySize)
	copy(out[:], derived)
	return out
}
