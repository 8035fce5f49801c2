package vault

import (
	"errors"
	"strings"
	"testing"

	"github.com/corpusgate/corpusgate/internal/domain"
)

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	v := New("operator-secret")

	plaintexts := []string{
		"hunter2",
		"pass:with:colons",
		"deadbeefcafe", // all-hex plaintext
		"длинный пароль с юникодом 密码",
		strings.Repeat("x", 300),
		"a",
	}

	for _, p := range plaintexts {
		ct, err := v.Encrypt(p)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", p, err)
		}
		if !v.IsEncrypted(ct) {
			t.Errorf("IsEncrypted(Encrypt(%q)) = false", p)
		}
		got, err := v.Decrypt(ct)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if got != p {
			t.Errorf("round trip = %q, want %q", got, p)
		}
	}
}

func TestEncrypt_UniqueIV(t *testing.T) {
	v := New("s")
	a, err := v.Encrypt("same")
	if err != nil {
		t.Fatal(err)
	}
	b, err := v.Encrypt("same")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("two encryptions of the same plaintext produced identical output")
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	ct, err := New("key-one").Encrypt("secret")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New("key-two").Decrypt(ct); err == nil {
		t.Error("expected error decrypting with wrong key")
	}
}

func TestIsEncrypted_Strict(t *testing.T) {
	v := New("s")

	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"plaintext with colon", "my:password", false},
		{"all hex, no colon", "deadbeefdeadbeefdeadbeefdeadbeef", false},
		{"short iv", "deadbeef:deadbeefdeadbeefdeadbeefdeadbeef", false},
		{"non-hex iv", "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz:deadbeefdeadbeefdeadbeefdeadbeef", false},
		{"empty payload", "00112233445566778899aabbccddeeff:", false},
		{"payload not block-aligned", "00112233445566778899aabbccddeeff:deadbeef", false},
		{"non-hex payload", "00112233445566778899aabbccddeeff:deadbeefdeadbeefdeadbeefdeadbeeg", false},
		{"well formed", "00112233445566778899aabbccddeeff:deadbeefdeadbeefdeadbeefdeadbeef", true},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.IsEncrypted(tt.value); got != tt.want {
				t.Errorf("IsEncrypted(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestDecrypt_Malformed(t *testing.T) {
	v := New("s")

	for _, bad := range []string{
		"",
		"no-separator",
		"short:beef",
		"00112233445566778899aabbccddeeff:",
	} {
		_, err := v.Decrypt(bad)
		if err == nil {
			t.Errorf("Decrypt(%q): expected error", bad)
			continue
		}
		if !errors.Is(err, domain.ErrMalformedCiphertext) {
			t.Errorf("Decrypt(%q): error %v does not wrap ErrMalformedCiphertext", bad, err)
		}
	}
}
