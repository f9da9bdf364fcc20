// Package securestore is the library-level API: the Manager state machine
// that composes key material, encrypted blobs, the vault document, and the
// upgrader into create/load/get/set/delete/save operations.
package securestore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/neosmart/securestore-go/pkg/blob"
	"github.com/neosmart/securestore-go/pkg/keymaterial"
	"github.com/neosmart/securestore-go/pkg/secbuf"
	"github.com/neosmart/securestore-go/pkg/serializer"
	"github.com/neosmart/securestore-go/pkg/sscrypto"
	"github.com/neosmart/securestore-go/pkg/upgrade"
	"github.com/neosmart/securestore-go/pkg/vaultdoc"
)

// Policy controls whether a Manager may transparently upgrade a vault
// loaded at an older schema version. PolicyStrict is the library default;
// a CLI binary may choose PolicyUpgrade instead.
type Policy = upgrade.Policy

const (
	PolicyStrict  = upgrade.PolicyStrict
	PolicyUpgrade = upgrade.PolicyUpgrade
)

// Sentinel errors, one per error kind a caller may need to distinguish via
// errors.Is. The library performs no logging and recovers none of these
// internally; every kind is surfaced to the caller.
var (
	ErrNoStoreLoaded      = errors.New("securestore: no vault loaded or created")
	ErrNoKeyLoaded        = errors.New("securestore: no key loaded")
	ErrKeyAlreadyLoaded   = errors.New("securestore: key material already loaded")
	ErrInvalidKeyFile     = errors.New("securestore: invalid key file")
	ErrTamperedCiphertext = errors.New("securestore: HMAC verification failed")
	ErrNotFound           = errors.New("securestore: secret not found")
	ErrUnsupportedVersion = upgrade.ErrUnsupportedVersion
	ErrPolicyViolation    = upgrade.ErrPolicyViolation
	ErrUpgradeFailure     = upgrade.ErrUpgradeFailure
	ErrDisposed           = errors.New("securestore: manager has been disposed")
)

type state int

const (
	stateFresh state = iota
	stateFreshKeyed
	stateLoadedUnkeyed
	stateLoadedKeyed
	stateDisposed
)

// Manager is the SecureStore state machine. It is not safe for concurrent
// use; callers mutating one Manager from multiple goroutines must provide
// their own synchronization.
type Manager struct {
	state          state
	doc            *vaultdoc.Document
	key            *keymaterial.Key
	policy         Policy
	pendingUpgrade bool

	// pw holds the password used to derive key, if key loading was
	// password-based. It is needed again if a pending v2→v3 upgrade must
	// re-derive a key at the new round count, and is destroyed as soon as
	// it is no longer needed.
	pw *secbuf.Buffer

	sentinelValidated bool
	codec             serializer.Codec
}

// Create returns a fresh Manager with a newly generated 16-byte salt, no
// key loaded, and no file touched.
func Create() (*Manager, error) {
	salt, err := sscrypto.RandomBytes(vaultdoc.SaltLen(vaultdoc.CurrentVersion))
	if err != nil {
		return nil, fmt.Errorf("securestore: failed to generate salt: %w", err)
	}
	return &Manager{
		state: stateFresh,
		doc:   vaultdoc.New(salt),
		codec: serializer.Default{},
	}, nil
}

// Load parses a vault document from r. If its schema predates the current
// one, the upgrade is deferred until key material becomes available under
// PolicyUpgrade; under PolicyStrict, an older vault is refused outright.
func Load(r io.Reader, policy Policy) (*Manager, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("securestore: failed to read vault: %w", err)
	}
	doc, err := vaultdoc.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("securestore: %w", err)
	}
	if doc.Version > vaultdoc.CurrentVersion {
		return nil, fmt.Errorf("%w: vault schema %d is newer than the %d this implementation knows", ErrUnsupportedVersion, doc.Version, vaultdoc.CurrentVersion)
	}

	pending := doc.Version < vaultdoc.CurrentVersion
	if pending && policy == PolicyStrict {
		return nil, ErrPolicyViolation
	}

	return &Manager{
		state:          stateLoadedUnkeyed,
		doc:            doc,
		policy:         policy,
		pendingUpgrade: pending,
		codec:          serializer.Default{},
	}, nil
}

// LoadFile opens path and calls Load on its contents.
func LoadFile(path string, policy Policy) (*Manager, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("securestore: failed to open vault file: %w", err)
	}
	defer f.Close()
	return Load(f, policy)
}

// SetCodec installs a non-default serializer used by SetValue/GetValue.
func (m *Manager) SetCodec(c serializer.Codec) {
	m.codec = c
}

func (m *Manager) checkDisposed() error {
	if m.state == stateDisposed {
		return ErrDisposed
	}
	return nil
}

func (m *Manager) keyed() bool {
	return m.state == stateFreshKeyed || m.state == stateLoadedKeyed
}

// afterKeyLoaded finalizes a successful key load: it applies any pending
// upgrade and transitions state. It does not release a retained password;
// LoadKeyFromPassword does that once this returns.
func (m *Manager) afterKeyLoaded(key *keymaterial.Key, passwordSource upgrade.PasswordSource) error {
	if m.pendingUpgrade {
		newKey, err := upgrade.Apply(m.doc, key, passwordSource, m.policy)
		if err != nil {
			key.Destroy()
			return err
		}
		key = newKey
		m.pendingUpgrade = false
	}

	m.key = key
	if m.state == stateFresh {
		m.state = stateFreshKeyed
	} else {
		m.state = stateLoadedKeyed
	}
	return nil
}

// GenerateKey creates a fresh key from the CSPRNG.
func (m *Manager) GenerateKey() error {
	if err := m.checkDisposed(); err != nil {
		return err
	}
	if m.keyed() {
		return ErrKeyAlreadyLoaded
	}
	key, err := keymaterial.Generate()
	if err != nil {
		return err
	}
	return m.afterKeyLoaded(key, nil)
}

// LoadKeyFromFile reads a key from path (raw or PEM-armored, by length).
func (m *Manager) LoadKeyFromFile(path string) error {
	if err := m.checkDisposed(); err != nil {
		return err
	}
	if m.keyed() {
		return ErrKeyAlreadyLoaded
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKeyFile, err)
	}
	key, err := keymaterial.Import(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKeyFile, err)
	}
	return m.afterKeyLoaded(key, nil)
}

// LoadKeyFromStream reads a key from r, capped at a 2 KiB ceiling.
func (m *Manager) LoadKeyFromStream(r io.Reader) error {
	if err := m.checkDisposed(); err != nil {
		return err
	}
	if m.keyed() {
		return ErrKeyAlreadyLoaded
	}
	key, err := keymaterial.ImportStream(r)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKeyFile, err)
	}
	return m.afterKeyLoaded(key, nil)
}

// LoadKeyFromPassword derives a key from password using the vault's salt
// at the round count its schema version requires. A vault must already be
// loaded or created, since the salt comes from it.
func (m *Manager) LoadKeyFromPassword(password string) error {
	if err := m.checkDisposed(); err != nil {
		return err
	}
	if m.doc == nil {
		return ErrNoStoreLoaded
	}
	if m.keyed() {
		return ErrKeyAlreadyLoaded
	}

	pwBytes := []byte(password)
	rounds := vaultdoc.Rounds(m.doc.Version)
	key, err := keymaterial.FromPassword(pwBytes, m.doc.Salt, rounds)
	if err != nil {
		return err
	}

	pwBuf, err := secbuf.Wrap(append([]byte(nil), pwBytes...))
	if err != nil {
		key.Destroy()
		return err
	}
	m.pw = pwBuf

	passwordSource := func() ([]byte, error) {
		return m.pw.Bytes(), nil
	}
	err = m.afterKeyLoaded(key, passwordSource)
	m.pw.Destroy()
	m.pw = nil
	return err
}

// ExportKeyToWriter writes the loaded key, PEM-armored, to w.
func (m *Manager) ExportKeyToWriter(w io.Writer) error {
	if err := m.checkDisposed(); err != nil {
		return err
	}
	if !m.keyed() {
		return ErrNoKeyLoaded
	}
	_, err := w.Write(m.key.Export())
	return err
}

// ExportKeyToFile writes the loaded key, PEM-armored, to path.
func (m *Manager) ExportKeyToFile(path string) error {
	if err := m.checkDisposed(); err != nil {
		return err
	}
	if !m.keyed() {
		return ErrNoKeyLoaded
	}
	return os.WriteFile(path, m.key.Export(), 0600)
}

// ensureSentinel lazily creates or validates the sentinel on first write
// after a key becomes available. Once it has succeeded, later calls return
// immediately; a failed validation is retried on the next call.
func (m *Manager) ensureSentinel() error {
	if m.sentinelValidated {
		return nil
	}
	if m.doc.Sentinel == nil {
		plaintext, err := sscrypto.RandomBytes(32)
		if err != nil {
			return err
		}
		sentinel, err := blob.Encrypt(m.key.EncKey(), m.key.MACKey(), plaintext)
		if err != nil {
			return err
		}
		m.doc.Sentinel = sentinel
		m.sentinelValidated = true
		return nil
	}

	if _, err := m.doc.Sentinel.Decrypt(m.key.EncKey(), m.key.MACKey()); err != nil {
		return ErrTamperedCiphertext
	}
	m.sentinelValidated = true
	return nil
}

// Get returns the decrypted value of name as a UTF-8 string.
func (m *Manager) Get(name string) (string, error) {
	data, err := m.GetBytes(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GetBytes returns the decrypted raw value of name.
func (m *Manager) GetBytes(name string) ([]byte, error) {
	if err := m.checkDisposed(); err != nil {
		return nil, err
	}
	if !m.keyed() {
		return nil, ErrNoKeyLoaded
	}
	storedName, ok := m.doc.FindName(name)
	if !ok {
		return nil, ErrNotFound
	}
	plaintext, err := m.doc.Secrets[storedName].Decrypt(m.key.EncKey(), m.key.MACKey())
	if err != nil {
		return nil, ErrTamperedCiphertext
	}
	return plaintext, nil
}

// GetValue decrypts name and deserializes it into out using the installed
// codec.
func (m *Manager) GetValue(name string, out any) error {
	data, err := m.GetBytes(name)
	if err != nil {
		return err
	}
	return m.codec.Deserialize(data, out)
}

// Set encrypts value (a UTF-8 string) and stores it under name, replacing
// any prior value. If no sentinel exists yet, one is created first; if one
// exists, it is validated against the loaded key before the new value is
// written.
func (m *Manager) Set(name, value string) error {
	return m.setRaw(name, []byte(value))
}

// SetBytes encrypts a raw byte value and stores it under name.
func (m *Manager) SetBytes(name string, value []byte) error {
	return m.setRaw(name, value)
}

// SetValue serializes v through the installed codec and stores it under
// name.
func (m *Manager) SetValue(name string, v any) error {
	data, err := m.codec.Serialize(v)
	if err != nil {
		return err
	}
	return m.setRaw(name, data)
}

func (m *Manager) setRaw(name string, value []byte) error {
	if err := m.checkDisposed(); err != nil {
		return err
	}
	if !m.keyed() {
		return ErrNoKeyLoaded
	}
	if err := m.ensureSentinel(); err != nil {
		return err
	}

	b, err := blob.Encrypt(m.key.EncKey(), m.key.MACKey(), value)
	if err != nil {
		return err
	}

	storedName := name
	if existing, ok := m.doc.FindName(name); ok {
		storedName = existing
	}
	m.doc.Secrets[storedName] = b
	return nil
}

// Delete removes name's entry and reports whether it existed.
func (m *Manager) Delete(name string) (bool, error) {
	if err := m.checkDisposed(); err != nil {
		return false, err
	}
	if !m.keyed() {
		return false, ErrNoKeyLoaded
	}
	storedName, ok := m.doc.FindName(name)
	if !ok {
		return false, nil
	}
	delete(m.doc.Secrets, storedName)
	return true, nil
}

// Keys returns the secret names in the same case-insensitive ordinal order
// they are written to the vault document's secrets map.
func (m *Manager) Keys() ([]string, error) {
	if err := m.checkDisposed(); err != nil {
		return nil, err
	}
	if m.doc == nil {
		return nil, ErrNoStoreLoaded
	}
	return m.doc.SortedNames(), nil
}

// Save writes the vault document deterministically to w. A sentinel is
// created first if none exists yet. A Manager with no key loaded cannot
// save: a freshly created, never-keyed Manager reports ErrNoStoreLoaded, and
// one loaded from disk without a key reports ErrNoKeyLoaded.
func (m *Manager) Save(w io.Writer) error {
	if err := m.checkDisposed(); err != nil {
		return err
	}
	switch m.state {
	case stateFresh:
		return ErrNoStoreLoaded
	case stateLoadedUnkeyed:
		return ErrNoKeyLoaded
	}
	if err := m.ensureSentinel(); err != nil {
		return err
	}
	out, err := m.doc.Marshal()
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// SaveFile writes the vault document to path, truncating any existing
// file. Crash-safety across a failed write is the caller's responsibility;
// callers needing atomicity should write to a temp file and rename it.
func (m *Manager) SaveFile(path string) error {
	var buf bytes.Buffer
	if err := m.Save(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0600)
}

// Dispose scrubs key material and marks the Manager unusable. Safe to
// call more than once.
func (m *Manager) Dispose() {
	if m.state == stateDisposed {
		return
	}
	if m.key != nil {
		m.key.Destroy()
		m.key = nil
	}
	if m.pw != nil {
		m.pw.Destroy()
		m.pw = nil
	}
	m.state = stateDisposed
}
