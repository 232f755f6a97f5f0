package crypto

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/hkdf"
)

// DummyHash is compared against when a login names an unknown account so
// that both paths cost one bcrypt comparison.
var DummyHash = mustHash("mtg-stone-dummy-password")

func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// DeriveSessionKeys expands secret into a 32-byte HMAC key and a 32-byte
// AES key for the session cookie codec.
func DeriveSessionKeys(secret string) (authKey, encKey []byte, err error) {
	authKey, err = deriveKey(secret, "mtg-stone session auth")
	if err != nil {
		return nil, nil, err
	}
	encKey, err = deriveKey(secret, "mtg-stone session encryption")
	if err != nil {
		return nil, nil, err
	}
	return authKey, encKey, nil
}

// DeriveCSRFKey expands secret into the 32-byte key used to sign CSRF
// tokens.
func DeriveCSRFKey(secret string) ([]byte, error) {
	return deriveKey(secret, "mtg-stone csrf")
}

func deriveKey(secret, info string) ([]byte, error) {
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(info))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

func mustHash(password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
}
