package crypto

import "encoding/hex"

// DerivedAuth holds the two secrets produced by the AuthV2 password
// derivation: the master key (used to encrypt file metadata) and the
// login password sent to the server in place of the plaintext password.
type DerivedAuth struct {
	MasterKey     string
	LoginPassword string
}

// DeriveAuthV2 implements the AuthV2 credential derivation: 200 000
// rounds of PBKDF2-HMAC-SHA512 over (password, salt) producing a 512-bit
// (64-byte) key, hex-encoded to 128 characters. The left half of the hex
// string becomes the master key; the right half is hashed again with
// SHA-512 (hex) and sent to the server as the login password.
func DeriveAuthV2(password, salt string) DerivedAuth {
	derived := PBKDF2SHA512([]byte(password), []byte(salt), AuthV2Rounds, AuthV2BitLength/8)
	full := hex.EncodeToString(derived)
	mid := len(full) / 2
	left, right := full[:mid], full[mid:]
	return DerivedAuth{
		MasterKey:     left,
		LoginPassword: SHA512Hex([]byte(right)),
	}
}
