// Package blob implements the Encrypted Blob: the (iv, hmac, payload)
// triple that is the atom of authenticated encryption in a SecureStore
// vault, and the Encrypt/Decrypt algorithms that produce and consume it.
package blob

import (
	"errors"
	"fmt"

	"github.com/neosmart/securestore-go/pkg/sscrypto"
)

// ErrTampered is returned by Decrypt when HMAC verification fails, whether
// because the key is wrong or because the blob was altered after it was
// written. The two cases are deliberately indistinguishable: surfacing a
// different error for "wrong key" vs. "tampered bytes" would leak which
// guess an attacker made.
var ErrTampered = errors.New("blob: HMAC verification failed")

// Blob is a single encrypted value: a random IV, an HMAC-SHA1 tag over
// iv||payload, and the AES-CBC ciphertext payload itself.
type Blob struct {
	IV      []byte
	HMAC    []byte
	Payload []byte
}

// Encrypt seals plaintext under (encKey, macKey): a fresh random IV is
// generated, plaintext is AES-128-CBC-encrypted with PKCS#7 padding, and an
// HMAC-SHA1 tag is computed over iv||ciphertext.
func Encrypt(encKey, macKey, plaintext []byte) (*Blob, error) {
	iv, err := sscrypto.RandomBytes(sscrypto.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("blob: failed to generate IV: %w", err)
	}

	payload, err := sscrypto.EncryptCBC(encKey, iv, plaintext)
	if err != nil {
		return nil, fmt.Errorf("blob: encryption failed: %w", err)
	}

	tag := sscrypto.Tag(macKey, iv, payload)

	return &Blob{IV: iv, HMAC: tag, Payload: payload}, nil
}

// Decrypt verifies b's HMAC tag under macKey and, only if it matches,
// AES-128-CBC-decrypts the payload under encKey and strips PKCS#7 padding.
// Verification happens before any decryption work (MAC-then-decrypt),
// closing off CBC padding-oracle attacks: a forged or corrupted blob never
// reaches the block cipher.
func (b *Blob) Decrypt(encKey, macKey []byte) ([]byte, error) {
	expected := sscrypto.Tag(macKey, b.IV, b.Payload)
	if !sscrypto.ConstantTimeEqual(expected, b.HMAC) {
		return nil, ErrTampered
	}

	plaintext, err := sscrypto.DecryptCBC(encKey, b.IV, b.Payload)
	if err != nil {
		// Padding failures after a verified HMAC should be practically
		// unreachable (the tag covers the exact bytes being decrypted);
		// still surface it as tampering rather than a distinct error kind,
		// since no other explanation is possible once the tag matched.
		return nil, ErrTampered
	}
	return plaintext, nil
}

// Valid reports whether b has well-formed field lengths: a BlockSize IV, an
// HMACSize tag, and a payload that is a positive multiple of BlockSize.
func (b *Blob) Valid() bool {
	return len(b.IV) == sscrypto.BlockSize &&
		len(b.HMAC) == sscrypto.HMACSize &&
		len(b.Payload) > 0 &&
		len(b.Payload)%sscrypto.BlockSize == 0
}
