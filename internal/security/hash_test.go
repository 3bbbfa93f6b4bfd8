package security

import (
	"strings"
	"testing"
)

func TestHashSecretRoundTrip(t *testing.T) {
	hash, err := HashSecret("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.Contains(hash, ".") {
		t.Fatalf("stored form missing salt separator: %q", hash)
	}
	if !VerifySecret("correct horse battery staple", hash) {
		t.Fatal("correct plaintext did not verify")
	}
	if VerifySecret("wrong plaintext", hash) {
		t.Fatal("wrong plaintext verified")
	}
}

func TestHashSecretSaltsDiffer(t *testing.T) {
	a, err := HashSecret("same input")
	if err != nil {
		t.Fatalf("hash a: %v", err)
	}
	b, err := HashSecret("same input")
	if err != nil {
		t.Fatalf("hash b: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of the same input are identical; salt is not random")
	}
}

func TestVerifySecretMalformedStored(t *testing.T) {
	cases := []string{
		"",
		"no-separator",
		"nothex.deadbeef",
		"deadbeef.nothex",
		"deadbeef.",
	}
	for _, stored := range cases {
		if VerifySecret("anything", stored) {
			t.Fatalf("malformed stored form %q verified", stored)
		}
	}
}

func FuzzVerifySecretStoredForm(f *testing.F) {
	valid, err := HashSecret("seed")
	if err != nil {
		f.Fatalf("hash: %v", err)
	}
	f.Add("seed", valid)
	f.Add("", "")
	f.Add("x", "deadbeef.")
	f.Add("x", ".deadbeef")
	f.Add("x", "nothex.nothex")

	f.Fuzz(func(t *testing.T, plaintext, stored string) {
		if VerifySecret(plaintext, stored) && !strings.Contains(stored, ".") {
			t.Fatalf("stored form without separator verified: %q", stored)
		}
	})
}
