// Package keymaterial owns the 256-bit SecureStore working key and its
// lifecycle: fresh generation, derivation from a password, import from a
// raw or PEM-armored file/stream, and export back out in PEM-armored form.
//
// A Key is produced exactly once per caller and is split into two distinct
// 16-byte halves — one for AES-128, one for HMAC-SHA1 — that must never be
// used for the other primitive.
package keymaterial

import (
	"fmt"
	"io"

	"github.com/neosmart/securestore-go/pkg/armor"
	"github.com/neosmart/securestore-go/pkg/secbuf"
	"github.com/neosmart/securestore-go/pkg/sscrypto"
)

// maxKeyStreamBytes bounds how much a Stream importer will read before
// giving up, defending against resource exhaustion from a malformed or
// hostile source.
const maxKeyStreamBytes = 2048

// legacyRawKeyLen is the length, in bytes, of an unarmored raw key file: the
// 32-byte concatenation of the encryption and HMAC halves with no framing.
const legacyRawKeyLen = 2 * sscrypto.KeySize

// Key holds the loaded working key, split into an encryption half and an
// HMAC half, each in its own scrubbing secbuf.Buffer.
type Key struct {
	enc *secbuf.Buffer
	mac *secbuf.Buffer
}

// Generate creates a fresh Key from the CSPRNG.
func Generate() (*Key, error) {
	raw, err := sscrypto.RandomBytes(sscrypto.DerivedKeyLen)
	if err != nil {
		return nil, fmt.Errorf("keymaterial: failed to generate key: %w", err)
	}
	return fromRaw(raw)
}

// FromPassword derives a Key from password and salt using PBKDF2-HMAC-SHA1
// at the given round count (10,000 for schema v1/v2, 256,000 for v3).
func FromPassword(password, salt []byte, rounds int) (*Key, error) {
	derived := sscrypto.DeriveKey(password, salt, rounds)
	return fromRaw(derived)
}

// fromRaw splits a 32-byte source into encryption/HMAC halves, each copied
// into its own secbuf.Buffer, and scrubs the source before returning.
func fromRaw(raw []byte) (k *Key, err error) {
	if len(raw) != sscrypto.DerivedKeyLen {
		return nil, fmt.Errorf("keymaterial: key material must be %d bytes, got %d", sscrypto.DerivedKeyLen, len(raw))
	}

	source, err := secbuf.Wrap(append([]byte(nil), raw...))
	if err != nil {
		return nil, fmt.Errorf("keymaterial: failed to pin key material: %w", err)
	}
	defer source.Destroy()

	enc, err := secbuf.New(sscrypto.KeySize)
	if err != nil {
		return nil, fmt.Errorf("keymaterial: failed to allocate encryption key buffer: %w", err)
	}
	mac, err := secbuf.New(sscrypto.KeySize)
	if err != nil {
		enc.Destroy()
		return nil, fmt.Errorf("keymaterial: failed to allocate HMAC key buffer: %w", err)
	}

	if err := enc.Set(source.Bytes()[:sscrypto.KeySize]); err != nil {
		enc.Destroy()
		mac.Destroy()
		return nil, err
	}
	if err := mac.Set(source.Bytes()[sscrypto.KeySize:]); err != nil {
		enc.Destroy()
		mac.Destroy()
		return nil, err
	}

	return &Key{enc: enc, mac: mac}, nil
}

// Import reads a key file's full contents and recognizes its form by
// length: exactly 32 bytes is legacy raw concatenation; anything longer is
// treated as PEM armor wrapping a 32-byte payload. Anything shorter than 32
// bytes is rejected outright.
func Import(data []byte) (*Key, error) {
	switch {
	case len(data) == legacyRawKeyLen:
		return fromRaw(data)
	case len(data) > legacyRawKeyLen:
		payload, err := armor.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("keymaterial: invalid key file: %w", err)
		}
		if len(payload) != legacyRawKeyLen {
			return nil, fmt.Errorf("keymaterial: invalid key file: PEM payload is %d bytes, want %d", len(payload), legacyRawKeyLen)
		}
		return fromRaw(payload)
	default:
		return nil, fmt.Errorf("keymaterial: invalid key file: %d bytes is shorter than the minimum of %d", len(data), legacyRawKeyLen)
	}
}

// ImportStream reads up to the 2 KiB ceiling from r and imports the result.
// A source that is exactly at or under the ceiling but still malformed
// fails through the same path as Import; a source that exceeds the
// ceiling is rejected before any parsing is attempted.
func ImportStream(r io.Reader) (*Key, error) {
	limited := io.LimitReader(r, maxKeyStreamBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("keymaterial: failed to read key stream: %w", err)
	}
	if len(data) > maxKeyStreamBytes {
		return nil, fmt.Errorf("keymaterial: key stream exceeds %d byte ceiling", maxKeyStreamBytes)
	}
	return Import(data)
}

// EncKey returns the live 16-byte AES-128 key. The returned slice aliases
// internal storage and must not be retained past the Key's lifetime.
func (k *Key) EncKey() []byte {
	return k.enc.Bytes()
}

// MACKey returns the live 16-byte HMAC-SHA1 key. The returned slice aliases
// internal storage and must not be retained past the Key's lifetime.
func (k *Key) MACKey() []byte {
	return k.mac.Bytes()
}

// Export concatenates the encryption and HMAC halves back into the
// canonical 32-byte form (encKey || macKey), then PEM-armors them. New key
// files are always written in armored form; Import still reads legacy raw
// files for backward compatibility.
func (k *Key) Export() []byte {
	raw := make([]byte, 0, legacyRawKeyLen)
	raw = append(raw, k.enc.Bytes()...)
	raw = append(raw, k.mac.Bytes()...)
	armored := armor.Encode(raw)
	for i := range raw {
		raw[i] = 0
	}
	return armored
}

// Destroy scrubs both key halves. Safe to call more than once.
func (k *Key) Destroy() {
	if k == nil {
		return
	}
	k.enc.Destroy()
	k.mac.Destroy()
}
