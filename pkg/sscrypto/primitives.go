package sscrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// BlockSize is the AES block size in bytes; also the PKCS#7 padding unit.
	BlockSize = aes.BlockSize

	// KeySize is the size in bytes of each AES-128 / HMAC-SHA1 key half.
	KeySize = 16

	// HMACSize is the size in bytes of an HMAC-SHA1 tag.
	HMACSize = sha1.Size

	// RoundsV1V2 is the PBKDF2 iteration count for schema versions 1 and 2.
	RoundsV1V2 = 10_000

	// RoundsV3 is the PBKDF2 iteration count for schema version 3.
	RoundsV3 = 256_000

	// DerivedKeyLen is the total length of a PBKDF2-derived key, split into
	// an encryption half and an HMAC half of KeySize each.
	DerivedKeyLen = 2 * KeySize
)

// RandomBytes returns n cryptographically random bytes.
func RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return nil, fmt.Errorf("sscrypto: failed to read random bytes: %w", err)
	}
	return buf, nil
}

// DeriveKey runs PBKDF2-HMAC-SHA1 over password with the given salt and
// round count, returning DerivedKeyLen bytes. The caller splits the result
// into encryption and HMAC halves.
func DeriveKey(password, salt []byte, rounds int) []byte {
	return pbkdf2.Key(password, salt, rounds, DerivedKeyLen, sha1.New)
}

// pkcs7Pad appends PKCS#7 padding so len(result) is a positive multiple of
// BlockSize. An empty input still pads to one full block.
func pkcs7Pad(data []byte) []byte {
	padLen := BlockSize - (len(data) % BlockSize)
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

// pkcs7Unpad strips and validates PKCS#7 padding. It rejects any padding
// that is structurally invalid so a tampered plaintext cannot be silently
// truncated to the wrong length.
func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 || len(data)%BlockSize != 0 {
		return nil, fmt.Errorf("sscrypto: padded data length %d is not a positive multiple of %d", len(data), BlockSize)
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > BlockSize || padLen > len(data) {
		return nil, fmt.Errorf("sscrypto: invalid PKCS#7 padding length %d", padLen)
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("sscrypto: invalid PKCS#7 padding bytes")
		}
	}
	return data[:len(data)-padLen], nil
}

// EncryptCBC AES-128-CBC-encrypts plaintext under encKey using the given
// IV, after PKCS#7 padding. encKey must be KeySize bytes and iv must be
// BlockSize bytes.
func EncryptCBC(encKey, iv, plaintext []byte) ([]byte, error) {
	if len(encKey) != KeySize {
		return nil, fmt.Errorf("sscrypto: encryption key must be %d bytes, got %d", KeySize, len(encKey))
	}
	if len(iv) != BlockSize {
		return nil, fmt.Errorf("sscrypto: IV must be %d bytes, got %d", BlockSize, len(iv))
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, fmt.Errorf("sscrypto: failed to create cipher: %w", err)
	}

	padded := pkcs7Pad(plaintext)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	return ciphertext, nil
}

// DecryptCBC AES-128-CBC-decrypts ciphertext under encKey using iv, then
// strips and validates PKCS#7 padding.
func DecryptCBC(encKey, iv, ciphertext []byte) ([]byte, error) {
	if len(encKey) != KeySize {
		return nil, fmt.Errorf("sscrypto: encryption key must be %d bytes, got %d", KeySize, len(encKey))
	}
	if len(iv) != BlockSize {
		return nil, fmt.Errorf("sscrypto: IV must be %d bytes, got %d", BlockSize, len(iv))
	}
	if len(ciphertext) == 0 || len(ciphertext)%BlockSize != 0 {
		return nil, fmt.Errorf("sscrypto: ciphertext length %d is not a positive multiple of %d", len(ciphertext), BlockSize)
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, fmt.Errorf("sscrypto: failed to create cipher: %w", err)
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)
	return pkcs7Unpad(padded)
}

// Tag computes the HMAC-SHA1 tag over iv||payload under macKey.
func Tag(macKey, iv, payload []byte) []byte {
	mac := hmac.New(sha1.New, macKey)
	mac.Write(iv)
	mac.Write(payload)
	return mac.Sum(nil)
}

// ConstantTimeEqual reports whether a and b are equal. Byte content is
// compared in time independent of where (if anywhere) a and b first
// differ; a length mismatch is rejected immediately, but length is public
// format information here (tags and IVs are always a fixed size), not
// secret material, so that short-circuit leaks nothing.
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
