package crypto

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHashing(t *testing.T) {
	password := "pikachu"
	hash, err := HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if hash == password || !strings.HasPrefix(hash, "$2") {
		t.Errorf("Expected a bcrypt hash, got %q", hash)
	}

	if !CheckPasswordHash(password, hash) {
		t.Error("CheckPasswordHash failed for correct password")
	}

	if CheckPasswordHash("charmander", hash) {
		t.Error("CheckPasswordHash succeeded for wrong password")
	}
}

func TestHashPasswordIsSalted(t *testing.T) {
	h1, _ := HashPassword("same", bcrypt.MinCost)
	h2, _ := HashPassword("same", bcrypt.MinCost)
	if h1 == h2 {
		t.Error("HashPassword produced identical hashes for the same password")
	}
}

func TestHashPasswordDefaultCost(t *testing.T) {
	hash, err := HashPassword("pw", 0)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil || cost != bcrypt.DefaultCost {
		t.Errorf("Expected default cost %d, got %d (%v)", bcrypt.DefaultCost, cost, err)
	}
}

func TestDummyHashRejectsEverything(t *testing.T) {
	if CheckPasswordHash("", DummyHash) || CheckPasswordHash("password", DummyHash) {
		t.Error("DummyHash matched a guessable password")
	}
}

func TestDeriveSessionKeys(t *testing.T) {
	auth1, enc1, err := DeriveSessionKeys("secret")
	if err != nil {
		t.Fatalf("DeriveSessionKeys failed: %v", err)
	}
	auth2, enc2, _ := DeriveSessionKeys("secret")

	if !bytes.Equal(auth1, auth2) || !bytes.Equal(enc1, enc2) {
		t.Error("DeriveSessionKeys with same secret produced different keys")
	}
	if bytes.Equal(auth1, enc1) {
		t.Error("auth and encryption keys must differ")
	}
	if len(auth1) != 32 || len(enc1) != 32 {
		t.Errorf("Expected 32-byte keys, got %d and %d", len(auth1), len(enc1))
	}

	auth3, _, _ := DeriveSessionKeys("other")
	if bytes.Equal(auth1, auth3) {
		t.Error("different secrets produced the same key")
	}
}

func TestDeriveCSRFKey(t *testing.T) {
	key, err := DeriveCSRFKey("secret")
	if err != nil {
		t.Fatalf("DeriveCSRFKey failed: %v", err)
	}
	authKey, encKey, _ := DeriveSessionKeys("secret")
	if len(key) != 32 {
		t.Errorf("Expected a 32-byte key, got %d", len(key))
	}
	if bytes.Equal(key, authKey) || bytes.Equal(key, encKey) {
		t.Error("CSRF key must differ from the session keys")
	}
}
