//go:build !unix

package secbuf

// lock is a no-op on platforms without an mlock-equivalent wired up here.
// The scrub-on-destroy guarantee still holds regardless.
func lock(buf []byte) error {
	return nil
}

func unlock(buf []byte) {}
