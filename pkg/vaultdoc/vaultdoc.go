// Package vaultdoc implements the Vault Document: the on-disk JSON
// container holding the schema version, the PBKDF2 salt, an optional
// sentinel, and the sorted name→blob map of secrets.
//
// Encoding is hand-rolled rather than left to encoding/json's default
// struct marshaling because the wire format pins two things
// encoding/json does not let a struct tag express: a fixed top-level
// member order (version, iv, sentinel, secrets) and secrets sorted by
// case-insensitive ordinal name comparison, both required so that a vault
// committed to version control diffs cleanly one secret at a time.
package vaultdoc

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/neosmart/securestore-go/pkg/blob"
)

// Schema version constants.
const (
	Version1 = 1
	Version2 = 2
	Version3 = 3

	// CurrentVersion is the schema this implementation writes.
	CurrentVersion = Version3
)

// SaltLen returns the expected PBKDF2 salt length for a given schema
// version: 8 bytes at v1/v2, 16 bytes at v3.
func SaltLen(version int) int {
	if version >= Version3 {
		return 16
	}
	return 8
}

// Rounds returns the PBKDF2 iteration count mandated for a given schema
// version.
func Rounds(version int) int {
	if version >= Version3 {
		return 256_000
	}
	return 10_000
}

// Document is the in-memory form of a vault file.
type Document struct {
	Version  int
	Salt     []byte
	Sentinel *blob.Blob
	Secrets  map[string]*blob.Blob
}

// New returns an empty Document at CurrentVersion with the given salt.
func New(salt []byte) *Document {
	return &Document{
		Version: CurrentVersion,
		Salt:    salt,
		Secrets: make(map[string]*blob.Blob),
	}
}

// wireBlob mirrors blob.Blob's three fields for JSON (de)serialization.
type wireBlob struct {
	IV      string `json:"iv"`
	HMAC    string `json:"hmac"`
	Payload string `json:"payload"`
}

func encodeBlob(b *blob.Blob) wireBlob {
	return wireBlob{
		IV:      base64.StdEncoding.EncodeToString(b.IV),
		HMAC:    base64.StdEncoding.EncodeToString(b.HMAC),
		Payload: base64.StdEncoding.EncodeToString(b.Payload),
	}
}

func decodeBlob(w wireBlob) (*blob.Blob, error) {
	iv, err := base64.StdEncoding.DecodeString(w.IV)
	if err != nil {
		return nil, fmt.Errorf("vaultdoc: malformed iv base64: %w", err)
	}
	hmacTag, err := base64.StdEncoding.DecodeString(w.HMAC)
	if err != nil {
		return nil, fmt.Errorf("vaultdoc: malformed hmac base64: %w", err)
	}
	payload, err := base64.StdEncoding.DecodeString(w.Payload)
	if err != nil {
		return nil, fmt.Errorf("vaultdoc: malformed payload base64: %w", err)
	}
	return &blob.Blob{IV: iv, HMAC: hmacTag, Payload: payload}, nil
}

// SortedNames returns d's secret names ordered by case-insensitive ordinal
// comparison, the order the wire format requires and the order Manager.Keys
// exposes to callers.
func (d *Document) SortedNames() []string {
	names := make([]string, 0, len(d.Secrets))
	for name := range d.Secrets {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names
}

// Marshal serializes d to its canonical on-disk form: member order
// (version, iv, sentinel, secrets), two-space indentation, '\n' line
// endings, and secrets sorted case-insensitive-ordinally by name.
//
// encoding/json's Marshal on a map does its own key sort (byte-wise, not
// case-insensitive) and offers no control over top-level member order, so
// the object is assembled as raw JSON text directly.
func (d *Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	fmt.Fprintf(&buf, "  \"version\": %d,\n", d.Version)
	fmt.Fprintf(&buf, "  \"iv\": %q,\n", base64.StdEncoding.EncodeToString(d.Salt))

	if d.Sentinel != nil {
		sentinelJSON, err := marshalBlobIndented(d.Sentinel, "  ")
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, "  \"sentinel\": %s,\n", sentinelJSON)
	} else {
		buf.WriteString("  \"sentinel\": null,\n")
	}

	buf.WriteString("  \"secrets\": {")
	names := d.SortedNames()
	if len(names) == 0 {
		buf.WriteString("}\n")
	} else {
		buf.WriteString("\n")
		for i, name := range names {
			entryJSON, err := marshalBlobIndented(d.Secrets[name], "    ")
			if err != nil {
				return nil, err
			}
			nameJSON, err := json.Marshal(name)
			if err != nil {
				return nil, fmt.Errorf("vaultdoc: failed to encode secret name %q: %w", name, err)
			}
			comma := ","
			if i == len(names)-1 {
				comma = ""
			}
			fmt.Fprintf(&buf, "    %s: %s%s\n", nameJSON, entryJSON, comma)
		}
		buf.WriteString("  }\n")
	}
	buf.WriteString("}\n")

	return buf.Bytes(), nil
}

// marshalBlobIndented renders a blob as a single-line JSON object whose
// field order matches wireBlob: iv, hmac, payload.
func marshalBlobIndented(b *blob.Blob, _ string) (string, error) {
	w := encodeBlob(b)
	out, err := json.Marshal(w)
	if err != nil {
		return "", fmt.Errorf("vaultdoc: failed to encode blob: %w", err)
	}
	return string(out), nil
}

// wireDocument is used only for Unmarshal, where member order on the way
// in does not matter.
type wireDocument struct {
	Version  int                 `json:"version"`
	IV       string              `json:"iv"`
	Sentinel *wireBlob           `json:"sentinel"`
	Secrets  map[string]wireBlob `json:"secrets"`
}

// Unmarshal parses raw vault JSON into a Document. It accepts any
// documented schema version; the caller is responsible for rejecting or
// upgrading versions below CurrentVersion.
func Unmarshal(data []byte) (*Document, error) {
	var w wireDocument
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("vaultdoc: malformed vault document: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(w.IV)
	if err != nil {
		return nil, fmt.Errorf("vaultdoc: malformed iv base64: %w", err)
	}

	d := &Document{
		Version: w.Version,
		Salt:    salt,
		Secrets: make(map[string]*blob.Blob, len(w.Secrets)),
	}

	if w.Sentinel != nil {
		sentinel, err := decodeBlob(*w.Sentinel)
		if err != nil {
			return nil, fmt.Errorf("vaultdoc: sentinel: %w", err)
		}
		d.Sentinel = sentinel
	}

	for name, wb := range w.Secrets {
		b, err := decodeBlob(wb)
		if err != nil {
			return nil, fmt.Errorf("vaultdoc: secret %q: %w", name, err)
		}
		d.Secrets[name] = b
	}

	return d, nil
}

// FindName returns the stored secret name matching target under
// case-insensitive ordinal comparison, and whether it was found. The
// vault preserves the original casing of the name it was set with.
func (d *Document) FindName(target string) (string, bool) {
	lowered := strings.ToLower(target)
	for name := range d.Secrets {
		if strings.ToLower(name) == lowered {
			return name, true
		}
	}
	return "", false
}
