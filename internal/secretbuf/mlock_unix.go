//go:build linux || darwin

package secretbuf

import "golang.org/x/sys/unix"

func mlock(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return unix.Mlock(data)
}

func munlock(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return unix.Munlock(data)
}
