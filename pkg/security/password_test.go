package security_test

import (
	"testing"

	"github.com/angelmondragon/chatstore-backend/pkg/config"
	"github.com/angelmondragon/chatstore-backend/pkg/security"
)

func TestHashAndVerifyPassphrase(t *testing.T) {
	cfg := config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}

	hash, err := security.HashPassphrase("open-sesame", cfg)
	if err != nil {
		t.Fatalf("HashPassphrase returned error: %v", err)
	}
	if hash == "" {
		t.Fatal("HashPassphrase returned empty string")
	}

	ok, err := security.VerifyPassphrase("open-sesame", hash)
	if err != nil {
		t.Fatalf("VerifyPassphrase returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("VerifyPassphrase failed for the correct passphrase")
	}

	ok, err = security.VerifyPassphrase("wrong-guess", hash)
	if err != nil {
		t.Fatalf("VerifyPassphrase returned error for invalid passphrase: %v", err)
	}
	if ok {
		t.Fatal("VerifyPassphrase returned true for incorrect passphrase")
	}
}

func TestVerifyPassphraseBadHash(t *testing.T) {
	if _, err := security.VerifyPassphrase("irrelevant", "not-a-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}
