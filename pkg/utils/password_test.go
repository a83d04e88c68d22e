package utils

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Sup3r$ecret")
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	if hash == "Sup3r$ecret" {
		t.Fatal("hash must not equal the plaintext password")
	}
	if !CheckPassword("Sup3r$ecret", hash) {
		t.Fatal("expected the correct password to verify")
	}
	if CheckPassword("wrong-password", hash) {
		t.Fatal("expected a wrong password to fail verification")
	}
}

func TestHashPasswordProducesUniqueHashes(t *testing.T) {
	first, err := HashPassword("Sup3r$ecret")
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}
	second, err := HashPassword("Sup3r$ecret")
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	if first == second {
		t.Fatal("expected salted hashes to differ")
	}
}
