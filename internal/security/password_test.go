package security

import "testing"

func TestHashAndCheckPIN(t *testing.T) {
	hash, err := HashPIN("1234")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "1234" {
		t.Fatalf("hash must not equal the plaintext")
	}
	if !CheckPIN(hash, "1234") {
		t.Fatalf("expected matching PIN to verify")
	}
	if CheckPIN(hash, "4321") {
		t.Fatalf("expected different PIN to fail")
	}
}
