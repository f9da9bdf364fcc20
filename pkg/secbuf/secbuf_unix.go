//go:build unix

package secbuf

import "golang.org/x/sys/unix"

// lock pins buf against being paged out or relocated by calling mlock(2).
// mlock failure (e.g. EPERM in an unprivileged container without
// CAP_IPC_LOCK, or ENOMEM against RLIMIT_MEMLOCK) is swallowed: pinning is
// a best-effort hardening measure, not a correctness requirement, so a
// buffer that cannot be locked is still usable, just swappable.
func lock(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	_ = unix.Mlock(buf)
	return nil
}

func unlock(buf []byte) {
	if len(buf) == 0 {
		return
	}
	_ = unix.Munlock(buf)
}
