//go:build !linux && !darwin

package secretbuf

import "errors"

func mlock(data []byte) error {
	return errors.New("locked memory is not supported on this platform")
}

func munlock(data []byte) error {
	return nil
}
