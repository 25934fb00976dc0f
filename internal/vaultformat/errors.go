package vaultformat

import "errors"

var (
	// ErrInvalidMagic indicates the first four bytes did not match "DODO".
	ErrInvalidMagic = errors.New("invalid magic bytes")
	// ErrUnsupportedVersion indicates the container's version is newer than this codec understands.
	ErrUnsupportedVersion = errors.New("unsupported container version")
	// ErrTruncated indicates a declared length field exceeds the remaining bytes.
	ErrTruncated = errors.New("truncated container")
	// ErrMalformed indicates some other structural problem in the container bytes.
	ErrMalformed = errors.New("malformed container")
)
