package blob

import (
	"bytes"
	"testing"

	"github.com/neosmart/securestore-go/pkg/sscrypto"
)

func testKeys(t *testing.T) (enc, mac []byte) {
	t.Helper()
	enc, err := sscrypto.RandomBytes(sscrypto.KeySize)
	if err != nil {
		t.Fatalf("RandomBytes(enc) error = %v", err)
	}
	mac, err = sscrypto.RandomBytes(sscrypto.KeySize)
	if err != nil {
		t.Fatalf("RandomBytes(mac) error = %v", err)
	}
	return enc, mac
}

func TestEncryptDecryptRoundtrip(t *testing.T) {
	enc, mac := testKeys(t)
	plaintext := []byte("the quick brown fox jumps over the lazy dog")

	b, err := Encrypt(enc, mac, plaintext)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if !b.Valid() {
		t.Fatal("Encrypt() produced an invalid blob")
	}

	got, err := b.Decrypt(enc, mac)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("Decrypt() = %q, want %q", got, plaintext)
	}
}

func TestEncryptProducesUniqueIVs(t *testing.T) {
	enc, mac := testKeys(t)

	b1, err := Encrypt(enc, mac, []byte("payload"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	b2, err := Encrypt(enc, mac, []byte("payload"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	if bytes.Equal(b1.IV, b2.IV) {
		t.Error("two Encrypt() calls produced the same IV")
	}
	if bytes.Equal(b1.Payload, b2.Payload) {
		t.Error("two Encrypt() calls of identical plaintext produced identical ciphertext")
	}
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	enc, mac := testKeys(t)
	otherEnc, otherMac := testKeys(t)

	b, err := Encrypt(enc, mac, []byte("top secret"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	if _, err := b.Decrypt(otherEnc, mac); err != ErrTampered {
		t.Errorf("Decrypt() with wrong enc key error = %v, want ErrTampered", err)
	}
	if _, err := b.Decrypt(enc, otherMac); err != ErrTampered {
		t.Errorf("Decrypt() with wrong mac key error = %v, want ErrTampered", err)
	}
}

func TestDecryptRejectsTamperedPayload(t *testing.T) {
	enc, mac := testKeys(t)

	b, err := Encrypt(enc, mac, []byte("do not modify me"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	b.Payload[0] ^= 0xFF
	if _, err := b.Decrypt(enc, mac); err != ErrTampered {
		t.Errorf("Decrypt() of tampered payload error = %v, want ErrTampered", err)
	}
}

func TestDecryptRejectsTamperedIV(t *testing.T) {
	enc, mac := testKeys(t)

	b, err := Encrypt(enc, mac, []byte("do not modify my iv"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	b.IV[0] ^= 0xFF
	if _, err := b.Decrypt(enc, mac); err != ErrTampered {
		t.Errorf("Decrypt() of tampered IV error = %v, want ErrTampered", err)
	}
}

func TestDecryptRejectsTamperedHMAC(t *testing.T) {
	enc, mac := testKeys(t)

	b, err := Encrypt(enc, mac, []byte("tag me not"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	b.HMAC[0] ^= 0xFF
	if _, err := b.Decrypt(enc, mac); err != ErrTampered {
		t.Errorf("Decrypt() of tampered HMAC error = %v, want ErrTampered", err)
	}
}

func TestValid(t *testing.T) {
	enc, mac := testKeys(t)
	b, err := Encrypt(enc, mac, []byte("x"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if !b.Valid() {
		t.Error("freshly encrypted blob should be Valid()")
	}

	empty := &Blob{}
	if empty.Valid() {
		t.Error("zero-value blob should not be Valid()")
	}
}

func TestEncryptHandlesEmptyPlaintext(t *testing.T) {
	enc, mac := testKeys(t)
	b, err := Encrypt(enc, mac, nil)
	if err != nil {
		t.Fatalf("Encrypt() of empty plaintext error = %v", err)
	}
	got, err := b.Decrypt(enc, mac)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Decrypt() = %v, want empty", got)
	}
}
