package auth

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cure-pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cure-pass" {
		t.Fatalf("password stored in recoverable form")
	}
	if !VerifyPassword(hash, "s3cure-pass") {
		t.Fatalf("correct password rejected")
	}
	if VerifyPassword(hash, "wrong-pass") {
		t.Fatalf("wrong password accepted")
	}
	if VerifyPassword("not-a-hash", "s3cure-pass") {
		t.Fatalf("garbage hash accepted")
	}
}

func TestHashesAreSalted(t *testing.T) {
	a, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	b, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if a == b {
		t.Fatalf("two hashes of the same password are identical")
	}
}
