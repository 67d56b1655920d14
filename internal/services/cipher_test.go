package services

import (
	"errors"
	"testing"
)

func TestTokenCipher(t *testing.T) {
	c, err := NewTokenCipher("secret")
	if err != nil {
		t.Fatal(err)
	}

	sealed, err := c.Encrypt("eyJhbGciOi.access")
	if err != nil {
		t.Fatal(err)
	}
	again, _ := c.Encrypt("eyJhbGciOi.access")
	if sealed == again {
		t.Error("two encryptions produced the same ciphertext")
	}

	plain, err := c.Decrypt(sealed)
	if err != nil || plain != "eyJhbGciOi.access" {
		t.Fatalf("Decrypt = %q, %v", plain, err)
	}

	other, _ := NewTokenCipher("other")
	if _, err := other.Decrypt(sealed); !errors.Is(err, ErrCiphertext) {
		t.Errorf("wrong key err = %v", err)
	}
	if _, err := c.Decrypt("not base64!"); !errors.Is(err, ErrCiphertext) {
		t.Errorf("garbage err = %v", err)
	}
	if _, err := NewTokenCipher(""); err == nil {
		t.Error("empty key accepted")
	}
}
