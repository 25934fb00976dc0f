// Package vaultformat implements the bit-exact on-disk container layout
// and its version migrations. The codec never interprets the ciphertext
// payloads it frames — that is the vault engine's job once keys are
// available — it only validates structure and length framing.
package vaultformat

import (
	"encoding/binary"
	"fmt"
)

// Magic is the 4-byte identifier every container begins with.
var Magic = [4]byte{'D', 'O', 'D', 'O'}

// CurrentVersion is the highest container version this codec understands.
const CurrentVersion = 1

const (
	offMagic    = 0
	offVersion  = 4
	offSalt     = 8
	saltLen     = 32
	offVerifLen = offSalt + saltLen // 40
	headerLen   = offVerifLen + 4   // 44: everything before the first length-prefixed blob
)

// Container is the decoded, framed on-disk structure. Byte slices are
// non-owning views into the original buffer passed to Decode — callers
// that need to retain them past the buffer's lifetime must copy.
type Container struct {
	Version       uint32
	Salt          []byte
	VerifierBlob  []byte
	MetadataBlob  []byte
	ItemsBlob     []byte
}

// Encode serializes a Container into the wire format described in
// spec.md §4.4. It validates salt length and that every blob fits in a
// uint32-prefixed field.
func Encode(c *Container) ([]byte, error) {
	if len(c.Salt) != saltLen {
		return nil, fmt.Errorf("%w: salt must be %d bytes, got %d", ErrMalformed, saltLen, len(c.Salt))
	}
	for name, blob := range map[string][]byte{
		"verifier": c.VerifierBlob,
		"metadata": c.MetadataBlob,
		"items":    c.ItemsBlob,
	} {
		if uint64(len(blob)) > uint64(^uint32(0)) {
			return nil, fmt.Errorf("%w: %s blob too large for uint32 length field", ErrMalformed, name)
		}
	}

	total := headerLen + len(c.VerifierBlob) + 4 + len(c.MetadataBlob) + 4 + len(c.ItemsBlob)
	out := make([]byte, 0, total)

	out = append(out, Magic[:]...)

	var versionBuf [4]byte
	binary.LittleEndian.PutUint32(versionBuf[:], c.Version)
	out = append(out, versionBuf[:]...)

	out = append(out, c.Salt...)

	out = appendLengthPrefixed(out, c.VerifierBlob)
	out = appendLengthPrefixed(out, c.MetadataBlob)
	out = appendLengthPrefixed(out, c.ItemsBlob)

	return out, nil
}

func appendLengthPrefixed(dst, blob []byte) []byte {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(blob)))
	dst = append(dst, lenBuf[:]...)
	dst = append(dst, blob...)
	return dst
}

// Decode parses the wire format back into a Container. It validates
// magic, version, and that every declared length fits within the
// remaining bytes before returning any field — a caller can trust a
// returned Container's structure without re-validating it. Decoding does
// not copy: the returned slices alias data.
func Decode(data []byte) (*Container, error) {
	if len(data) < headerLen {
		return nil, ErrTruncated
	}
	if [4]byte(data[offMagic:offMagic+4]) != Magic {
		return nil, ErrInvalidMagic
	}

	version := binary.LittleEndian.Uint32(data[offVersion : offVersion+4])
	if version == 0 || version > CurrentVersion {
		return nil, ErrUnsupportedVersion
	}

	salt := data[offSalt : offSalt+saltLen]

	cursor := offVerifLen
	verifier, cursor, err := readLengthPrefixed(data, cursor)
	if err != nil {
		return nil, err
	}
	metadata, cursor, err := readLengthPrefixed(data, cursor)
	if err != nil {
		return nil, err
	}
	items, cursor, err := readLengthPrefixed(data, cursor)
	if err != nil {
		return nil, err
	}
	if cursor != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(data)-cursor)
	}

	return &Container{
		Version:      version,
		Salt:         salt,
		VerifierBlob: verifier,
		MetadataBlob: metadata,
		ItemsBlob:    items,
	}, nil
}

func readLengthPrefixed(data []byte, offset int) (blob []byte, next int, err error) {
	if offset+4 > len(data) {
		return nil, 0, ErrTruncated
	}
	length := binary.LittleEndian.Uint32(data[offset : offset+4])
	start := offset + 4
	end := start + int(length)
	if end < start || end > len(data) {
		return nil, 0, ErrTruncated
	}
	return data[start:end], end, nil
}
