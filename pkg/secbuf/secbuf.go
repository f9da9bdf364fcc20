// Package secbuf provides a fixed-length byte buffer for sensitive material
// (key halves, decrypted plaintext) that scrubs itself on release.
//
// A Buffer's methods are serialized by an internal mutex, but the slice
// returned by Bytes is not guarded; callers that use that slice across
// goroutines must provide their own synchronization.
package secbuf

import (
	"crypto/rand"
	"fmt"
	"sync"
)

// Buffer holds a fixed-length region of sensitive bytes. The zero value is
// not usable; construct one with New or Wrap.
type Buffer struct {
	mu       sync.Mutex
	data     []byte
	locked   bool
	disposed bool
}

// New allocates a Buffer of the given length, pinned against relocation
// where the platform supports it (see lock/unlock in secbuf_unix.go and
// secbuf_other.go).
func New(n int) (*Buffer, error) {
	if n <= 0 {
		return nil, fmt.Errorf("secbuf: length must be positive, got %d", n)
	}
	b := &Buffer{data: make([]byte, n)}
	if err := lock(b.data); err != nil {
		return nil, fmt.Errorf("secbuf: failed to pin buffer: %w", err)
	}
	b.locked = true
	return b, nil
}

// Wrap takes ownership of an existing byte slice, pinning it in place. The
// caller must not retain or mutate the slice through any other reference
// after calling Wrap; doing so defeats the scrub-on-destroy guarantee.
func Wrap(data []byte) (*Buffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("secbuf: cannot wrap empty slice")
	}
	b := &Buffer{data: data}
	if err := lock(b.data); err != nil {
		return nil, fmt.Errorf("secbuf: failed to pin buffer: %w", err)
	}
	b.locked = true
	return b, nil
}

// Len returns the buffer's length.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Bytes returns the live, mutable backing slice. The returned slice aliases
// the Buffer's storage and becomes invalid the instant Destroy runs; callers
// must not retain it past the Buffer's lifetime.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return nil
	}
	return b.data
}

// Set overwrites the entire buffer with the contents of src. len(src) must
// equal Len().
func (b *Buffer) Set(src []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return fmt.Errorf("secbuf: buffer already destroyed")
	}
	if len(src) != len(b.data) {
		return fmt.Errorf("secbuf: length mismatch, buffer is %d bytes, source is %d", len(b.data), len(src))
	}
	copy(b.data, src)
	return nil
}

// Destroy overwrites the buffer with fresh random bytes and releases any
// pin. Safe to call more than once; only the first call has an effect.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return
	}
	scrub(b.data)
	if b.locked {
		unlock(b.data)
	}
	b.data = nil
	b.disposed = true
}

// scrub overwrites buf with CSPRNG output. Random bytes are preferred over
// zero fill so the post-scrub pattern is not uniquely recognizable in a
// memory dump.
func scrub(buf []byte) {
	if len(buf) == 0 {
		return
	}
	// Best effort: if the CSPRNG is unavailable, fall back to a volatile
	// zero fill rather than leaving the secret in place.
	if _, err := rand.Read(buf); err != nil {
		for i := range buf {
			buf[i] = 0
		}
		return
	}
	// Touch every byte through a second pass so the optimizer cannot prove
	// the rand.Read result is unused and elide the write.
	var sink byte
	for i := range buf {
		sink ^= buf[i]
	}
	volatileSink = sink
}

// volatileSink exists only to give the compiler an externally observable
// use of scrub's second pass so it cannot be optimized away.
var volatileSink byte
