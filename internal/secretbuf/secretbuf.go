// Package secretbuf provides an owning byte buffer that zeroizes its
// contents on destruction. The key set derived at unlock is held in
// Buffers; passwords, decrypted plaintext, and master-key bytes read from
// the keychain are passed as ordinary strings and byte slices.
package secretbuf

import (
	"crypto/subtle"
	"fmt"
	"os"
	"runtime"
)

// Buffer owns a heap-allocated byte region holding secret material.
// It is not safe for concurrent use without external synchronization.
type Buffer struct {
	data    []byte
	zeroed  bool
	mlocked bool
}

// New allocates a Buffer of the given length. The contents are
// uninitialized (zero) until Set or the returned Bytes slice is written.
func New(length int) *Buffer {
	b := &Buffer{data: make([]byte, length)}
	b.tryLock()
	runtime.SetFinalizer(b, finalize)
	return b
}

// Wrap takes ownership of an existing slice. The caller must not retain
// or mutate src after calling Wrap.
func Wrap(src []byte) *Buffer {
	b := &Buffer{data: src}
	b.tryLock()
	runtime.SetFinalizer(b, finalize)
	return b
}

// Clone returns a new Buffer holding a copy of the contents. Cloning is
// explicit and discouraged — prefer passing the original Buffer around.
func (b *Buffer) Clone() *Buffer {
	cp := make([]byte, len(b.data))
	copy(cp, b.data)
	return Wrap(cp)
}

// Bytes returns the underlying slice. The caller must not retain it
// beyond the Buffer's lifetime.
func (b *Buffer) Bytes() []byte {
	if b.zeroed {
		return nil
	}
	return b.data
}

// Len returns the buffer length.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Zero overwrites every byte with zero under a compiler-opaque write and
// marks the buffer as destroyed. Safe to call multiple times.
func (b *Buffer) Zero() {
	if b.zeroed {
		return
	}
	zeroBytes(b.data)
	b.zeroed = true
}

// zeroBytes overwrites data with zero using subtle.ConstantTimeCompare as
// a compiler barrier, preventing the zeroing loop from being optimized away.
func zeroBytes(data []byte) {
	for i := range data {
		data[i] = 0
	}
	dummy := make([]byte, len(data))
	subtle.ConstantTimeCompare(data, dummy)
}

// tryLock makes a best-effort attempt to pin the buffer's pages in
// physical memory so they are never written to swap. Failure is logged,
// never propagated — per the spec this is a best-effort side effect.
func (b *Buffer) tryLock() {
	if len(b.data) == 0 {
		return
	}
	if err := mlock(b.data); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to lock secret memory: %v\n", err)
		return
	}
	b.mlocked = true
}

func finalize(b *Buffer) {
	b.Zero()
	if b.mlocked {
		_ = munlock(b.data)
	}
}

// ZeroBytes is a package-level helper for callers holding a raw slice
// they did not wrap in a Buffer (e.g. a password argument received from
// a CLI flag). It performs the same compiler-opaque zeroing as Buffer.Zero.
func ZeroBytes(data []byte) {
	if data == nil {
		return
	}
	zeroBytes(data)
}
