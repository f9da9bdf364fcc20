// Package upgrade implements the Vault Upgrader: a directed chain of
// single-step upgraders that advance a loaded vault document from an
// older schema version to the current one, keyed by source version.
package upgrade

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/neosmart/securestore-go/pkg/blob"
	"github.com/neosmart/securestore-go/pkg/keymaterial"
	"github.com/neosmart/securestore-go/pkg/sscrypto"
	"github.com/neosmart/securestore-go/pkg/vaultdoc"
)

// Policy controls whether an older-schema vault may be auto-upgraded.
type Policy int

const (
	// PolicyStrict refuses to load a vault whose schema predates the
	// current one. This is the library's default.
	PolicyStrict Policy = iota
	// PolicyUpgrade transparently upgrades an older vault in place when a
	// key becomes available. This is the CLI's default.
	PolicyUpgrade
)

// Sentinel errors. ErrUpgradeFailure deliberately swallows the inner
// cause: partial plaintext or step-dependent ciphertext detail must never
// leak through an upgrade error.
var (
	ErrPolicyViolation    = errors.New("upgrade: vault predates current schema and policy is Strict")
	ErrUnsupportedVersion = errors.New("upgrade: no upgrade step from this schema version")
	ErrUpgradeFailure     = errors.New("upgrade: step failed")
	ErrPasswordRequired   = errors.New("upgrade: password is required for this step")
)

// PasswordSource supplies the password needed by password-gated steps
// (v2→v3). It is nil when the manager was keyed by file or generation
// rather than by password, in which case any pending upgrade past v2
// cannot proceed.
type PasswordSource func() ([]byte, error)

// Apply advances doc from its current version to vaultdoc.CurrentVersion,
// applying each intermediate step in order under key. It returns the key
// to use going forward: unchanged unless a step re-derives one (v2→v3).
//
// If doc is already current, Apply is a no-op and returns key unchanged.
func Apply(doc *vaultdoc.Document, key *keymaterial.Key, password PasswordSource, policy Policy) (*keymaterial.Key, error) {
	if doc.Version == vaultdoc.CurrentVersion {
		return key, nil
	}
	if policy == PolicyStrict {
		return nil, ErrPolicyViolation
	}

	current := key
	for doc.Version < vaultdoc.CurrentVersion {
		step, ok := steps[doc.Version]
		if !ok {
			return nil, fmt.Errorf("%w: no step defined for version %d", ErrUnsupportedVersion, doc.Version)
		}
		next, err := step(doc, current, password)
		if err != nil {
			return nil, ErrUpgradeFailure
		}
		current = next
	}
	return current, nil
}

type stepFunc func(doc *vaultdoc.Document, key *keymaterial.Key, password PasswordSource) (*keymaterial.Key, error)

var steps = map[int]stepFunc{
	vaultdoc.Version1: stepV1ToV2,
	vaultdoc.Version2: stepV2ToV3,
}

// stepV1ToV2 decrypts every secret, reinterprets its plaintext as a v1
// JSON-encoded value (a JSON string or a JSON array of byte values),
// re-stores it as raw UTF-8/bytes, and mints a sentinel.
func stepV1ToV2(doc *vaultdoc.Document, key *keymaterial.Key, _ PasswordSource) (*keymaterial.Key, error) {
	upgraded := make(map[string]*blob.Blob, len(doc.Secrets))

	for name, b := range doc.Secrets {
		plaintext, err := b.Decrypt(key.EncKey(), key.MACKey())
		if err != nil {
			return nil, err
		}

		raw, err := v1PlaintextToRaw(plaintext)
		if err != nil {
			return nil, err
		}

		nb, err := blob.Encrypt(key.EncKey(), key.MACKey(), raw)
		if err != nil {
			return nil, err
		}
		upgraded[name] = nb
	}

	sentinelPlain, err := sscrypto.RandomBytes(32)
	if err != nil {
		return nil, err
	}
	sentinel, err := blob.Encrypt(key.EncKey(), key.MACKey(), sentinelPlain)
	if err != nil {
		return nil, err
	}

	doc.Secrets = upgraded
	doc.Sentinel = sentinel
	doc.Version = vaultdoc.Version2
	return key, nil
}

// v1PlaintextToRaw interprets v1's JSON-encoded plaintext: a JSON string
// becomes its raw UTF-8 bytes, a JSON array of byte values becomes those
// raw bytes, anything else is rejected.
func v1PlaintextToRaw(plaintext []byte) ([]byte, error) {
	var asString string
	if err := json.Unmarshal(plaintext, &asString); err == nil {
		return []byte(asString), nil
	}

	var asBytes []byte
	if err := json.Unmarshal(plaintext, &asBytes); err == nil {
		return asBytes, nil
	}

	return nil, fmt.Errorf("upgrade: v1 secret plaintext is neither a JSON string nor a JSON byte array")
}

// stepV2ToV3 requires a password: it decrypts every secret and the
// sentinel under the supplied v2 key, generates a fresh 16-byte salt,
// derives the v3 key from the password at 256,000 rounds, and re-encrypts
// everything under the new key.
func stepV2ToV3(doc *vaultdoc.Document, key *keymaterial.Key, password PasswordSource) (*keymaterial.Key, error) {
	if password == nil {
		return nil, ErrPasswordRequired
	}
	pw, err := password()
	if err != nil {
		return nil, err
	}

	// The caller already derived and supplied the v2 key; it is used as-is
	// rather than re-derived here, and the password is used only for the
	// new v3 derivation.
	plaintexts := make(map[string][]byte, len(doc.Secrets))
	for name, b := range doc.Secrets {
		plaintext, err := b.Decrypt(key.EncKey(), key.MACKey())
		if err != nil {
			return nil, err
		}
		plaintexts[name] = plaintext
	}

	var sentinelPlain []byte
	if doc.Sentinel != nil {
		sentinelPlain, err = doc.Sentinel.Decrypt(key.EncKey(), key.MACKey())
		if err != nil {
			return nil, err
		}
	} else {
		sentinelPlain, err = sscrypto.RandomBytes(32)
		if err != nil {
			return nil, err
		}
	}

	newSalt, err := sscrypto.RandomBytes(vaultdoc.SaltLen(vaultdoc.Version3))
	if err != nil {
		return nil, err
	}
	newKey, err := keymaterial.FromPassword(pw, newSalt, vaultdoc.Rounds(vaultdoc.Version3))
	if err != nil {
		return nil, err
	}

	newSecrets := make(map[string]*blob.Blob, len(plaintexts))
	for name, plaintext := range plaintexts {
		nb, err := blob.Encrypt(newKey.EncKey(), newKey.MACKey(), plaintext)
		if err != nil {
			newKey.Destroy()
			return nil, err
		}
		newSecrets[name] = nb
	}
	newSentinel, err := blob.Encrypt(newKey.EncKey(), newKey.MACKey(), sentinelPlain)
	if err != nil {
		newKey.Destroy()
		return nil, err
	}

	doc.Secrets = newSecrets
	doc.Sentinel = newSentinel
	doc.Salt = newSalt
	doc.Version = vaultdoc.Version3

	key.Destroy()
	return newKey, nil
}
