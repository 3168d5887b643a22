package backup

import (
	"bytes"
	"errors"
	"testing"
)

func TestSealOpenRoundTrip(t *testing.T) {
	plain := []byte("SQLite format 3\x00 items and groups")

	sealed, err := Seal(plain, "correct horse")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if bytes.Contains(sealed, plain) {
		t.Fatal("sealed output contains plaintext")
	}
	if len(sealed) <= saltSize+nonceSize {
		t.Fatalf("sealed length = %d, want header plus ciphertext", len(sealed))
	}

	got, err := Open(sealed, "correct horse")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Errorf("open = %q, want %q", got, plain)
	}
}

func TestSealUsesFreshSalt(t *testing.T) {
	a, err := Seal([]byte("same"), "pw")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	b, err := Seal([]byte("same"), "pw")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if bytes.Equal(a[:saltSize], b[:saltSize]) {
		t.Error("two seals share a salt")
	}
}

func TestOpenWrongPassphrase(t *testing.T) {
	sealed, err := Seal([]byte("secret"), "right")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if _, err := Open(sealed, "wrong"); err == nil {
		t.Fatal("expected error for wrong passphrase")
	}
}

func TestOpenTampered(t *testing.T) {
	sealed, err := Seal([]byte("secret"), "pw")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	sealed[len(sealed)-1] ^= 0xff
	if _, err := Open(sealed, "pw"); err == nil {
		t.Fatal("expected error for tampered ciphertext")
	}
}

func TestOpenTooShort(t *testing.T) {
	if _, err := Open([]byte("short"), "pw"); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("err = %v, want ErrCorrupt", err)
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	salt := bytes.Repeat([]byte{7}, saltSize)
	k1 := DeriveKey("pw", salt)
	k2 := DeriveKey("pw", salt)
	if len(k1) != keySize {
		t.Fatalf("key length = %d, want %d", len(k1), keySize)
	}
	if !bytes.Equal(k1, k2) {
		t.Error("same passphrase and salt produced different keys")
	}
	if bytes.Equal(k1, DeriveKey("other", salt)) {
		t.Error("different passphrases produced the same key")
	}
}
