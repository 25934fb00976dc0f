package secretbuf

import (
	"bytes"
	"testing"
)

func TestNewZero(t *testing.T) {
	b := New(32)
	if b.Len() != 32 {
		t.Fatalf("expected length 32, got %d", b.Len())
	}
	copy(b.Bytes(), bytes.Repeat([]byte{0xAB}, 32))

	b.Zero()
	for i, v := range b.data {
		if v != 0 {
			t.Fatalf("byte %d not zeroed: %x", i, v)
		}
	}
	if b.Bytes() != nil {
		t.Fatal("Bytes() should return nil after Zero")
	}
}

func TestWrapClone(t *testing.T) {
	src := []byte("master-key-material-0123456789ab")
	b := Wrap(append([]byte(nil), src...))

	clone := b.Clone()
	if !bytes.Equal(clone.Bytes(), src) {
		t.Fatal("clone should hold an equal copy")
	}

	clone.Zero()
	if !bytes.Equal(b.Bytes(), src) {
		t.Fatal("zeroing the clone must not affect the original")
	}
	b.Zero()
}

func TestZeroIdempotent(t *testing.T) {
	b := New(8)
	b.Zero()
	b.Zero() // must not panic
}

func TestZeroBytesHelper(t *testing.T) {
	data := []byte("raw-password-bytes")
	ZeroBytes(data)
	for _, v := range data {
		if v != 0 {
			t.Fatal("ZeroBytes did not clear the slice")
		}
	}
	ZeroBytes(nil) // must not panic
}
