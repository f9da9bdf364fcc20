package secbuf

import (
	"bytes"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantErr bool
	}{
		{name: "positive length", length: 32, wantErr: false},
		{name: "zero length", length: 0, wantErr: true},
		{name: "negative length", length: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(tt.length)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				if b.Len() != tt.length {
					t.Errorf("Len() = %d, want %d", b.Len(), tt.length)
				}
				b.Destroy()
			}
		})
	}
}

func TestSetAndBytes(t *testing.T) {
	b, err := New(5)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer b.Destroy()

	if err := b.Set([]byte("hello")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if !bytes.Equal(b.Bytes(), []byte("hello")) {
		t.Errorf("Bytes() = %v, want %v", b.Bytes(), []byte("hello"))
	}

	if err := b.Set([]byte("short")[:3]); err == nil {
		t.Error("Set() with mismatched length should fail")
	}
}

func TestWrap(t *testing.T) {
	src := []byte("secret-material")
	b, err := Wrap(src)
	if err != nil {
		t.Fatalf("Wrap() error = %v", err)
	}
	defer b.Destroy()

	if !bytes.Equal(b.Bytes(), src) {
		t.Errorf("Bytes() = %v, want %v", b.Bytes(), src)
	}

	if _, err := Wrap(nil); err == nil {
		t.Error("Wrap(nil) should fail")
	}
}

func TestDestroyScrubsAndIsIdempotent(t *testing.T) {
	b, err := New(16)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := b.Set(bytes.Repeat([]byte{0xAB}, 16)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	backing := b.Bytes()

	b.Destroy()
	if bytes.Equal(backing, bytes.Repeat([]byte{0xAB}, 16)) {
		t.Error("Destroy() should overwrite the buffer's contents")
	}
	if b.Bytes() != nil {
		t.Error("Bytes() after Destroy() should be nil")
	}

	// Second call must not panic.
	b.Destroy()
}

func TestSetAfterDestroyFails(t *testing.T) {
	b, err := New(4)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	b.Destroy()

	if err := b.Set([]byte("xxxx")); err == nil {
		t.Error("Set() after Destroy() should fail")
	}
}
