package vaultdoc

import (
	"strings"
	"testing"

	"github.com/neosmart/securestore-go/pkg/blob"
)

func sampleBlob(seed byte) *blob.Blob {
	return &blob.Blob{
		IV:      []byte{seed, seed, seed, seed, seed, seed, seed, seed, seed, seed, seed, seed, seed, seed, seed, seed},
		HMAC:    []byte{seed, seed, seed, seed, seed, seed, seed, seed, seed, seed, seed, seed, seed, seed, seed, seed, seed, seed, seed, seed},
		Payload: []byte{seed, seed, seed, seed, seed, seed, seed, seed, seed, seed, seed, seed, seed, seed, seed, seed},
	}
}

func TestMarshalMemberOrder(t *testing.T) {
	d := New(make([]byte, 16))
	d.Sentinel = sampleBlob(1)
	d.Secrets["foo"] = sampleBlob(2)

	out, err := d.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	text := string(out)

	order := []string{`"version"`, `"iv"`, `"sentinel"`, `"secrets"`}
	last := -1
	for _, key := range order {
		idx := strings.Index(text, key)
		if idx == -1 {
			t.Fatalf("Marshal() output missing member %s: %s", key, text)
		}
		if idx < last {
			t.Fatalf("Marshal() member %s out of order: %s", key, text)
		}
		last = idx
	}
}

func TestMarshalUsesTwoSpaceIndentAndLF(t *testing.T) {
	d := New(make([]byte, 16))
	out, err := d.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(out), "\r") {
		t.Error("Marshal() output should use bare \\n line endings")
	}
	if !strings.HasPrefix(string(out), "{\n  \"version\"") {
		t.Errorf("Marshal() should open with two-space indented members, got: %q", out)
	}
}

func TestSecretsSortedCaseInsensitiveOrdinal(t *testing.T) {
	d := New(make([]byte, 16))
	d.Secrets["Banana"] = sampleBlob(1)
	d.Secrets["apple"] = sampleBlob(2)
	d.Secrets["Cherry"] = sampleBlob(3)

	names := d.SortedNames()
	want := []string{"apple", "Banana", "Cherry"}
	if len(names) != len(want) {
		t.Fatalf("SortedNames() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("SortedNames()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	d := New([]byte("0123456789abcdef"))
	d.Sentinel = sampleBlob(7)
	d.Secrets["alpha"] = sampleBlob(1)
	d.Secrets["beta"] = sampleBlob(2)

	out, err := d.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	got, err := Unmarshal(out)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if got.Version != d.Version {
		t.Errorf("Version = %d, want %d", got.Version, d.Version)
	}
	if string(got.Salt) != string(d.Salt) {
		t.Errorf("Salt = %v, want %v", got.Salt, d.Salt)
	}
	if len(got.Secrets) != len(d.Secrets) {
		t.Fatalf("Secrets length = %d, want %d", len(got.Secrets), len(d.Secrets))
	}
	for name, b := range d.Secrets {
		gb, ok := got.Secrets[name]
		if !ok {
			t.Fatalf("Unmarshal() missing secret %q", name)
		}
		if string(gb.Payload) != string(b.Payload) {
			t.Errorf("secret %q payload mismatch", name)
		}
	}
}

func TestMarshalEmptySecretsIsEmptyObject(t *testing.T) {
	d := New(make([]byte, 16))
	out, err := d.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(out), `"secrets": {}`) {
		t.Errorf("Marshal() with no secrets should emit an empty object, got: %s", out)
	}
}

func TestMarshalDeterministicAcrossInsertionOrder(t *testing.T) {
	d1 := New(make([]byte, 16))
	d1.Secrets["zed"] = sampleBlob(1)
	d1.Secrets["alpha"] = sampleBlob(2)

	d2 := New(make([]byte, 16))
	d2.Secrets["alpha"] = sampleBlob(2)
	d2.Secrets["zed"] = sampleBlob(1)

	out1, err := d1.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	out2, err := d2.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out1) != string(out2) {
		t.Error("Marshal() output depends on map insertion order")
	}
}

func TestFindNameCaseInsensitive(t *testing.T) {
	d := New(make([]byte, 16))
	d.Secrets["MySecret"] = sampleBlob(1)

	name, ok := d.FindName("mysecret")
	if !ok || name != "MySecret" {
		t.Errorf("FindName() = (%q, %v), want (%q, true)", name, ok, "MySecret")
	}

	if _, ok := d.FindName("nope"); ok {
		t.Error("FindName() of missing name should report false")
	}
}

func TestSaltLenAndRounds(t *testing.T) {
	if SaltLen(Version1) != 8 || SaltLen(Version2) != 8 {
		t.Error("v1/v2 salt length should be 8")
	}
	if SaltLen(Version3) != 16 {
		t.Error("v3 salt length should be 16")
	}
	if Rounds(Version2) != 10_000 {
		t.Error("v2 rounds should be 10000")
	}
	if Rounds(Version3) != 256_000 {
		t.Error("v3 rounds should be 256000")
	}
}
