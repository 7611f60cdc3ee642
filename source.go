package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// readSource reads the file at path and returns its contents as UTF-8.
// A UTF-8 byte order mark is stripped and UTF-16 input with a byte order mark
// is transcoded. Anything else must already be valid UTF-8.
func readSource(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}

	src, err := decodeSource(raw)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}

	return src, nil
}

func decodeSource(raw []byte) ([]byte, error) {
	// the x/text decoders replace malformed input with U+FFFD, so validity is checked first
	switch {
	case bytes.HasPrefix(raw, bomUTF16LE):
		if !validUTF16(raw[len(bomUTF16LE):], binary.LittleEndian) {
			return nil, ErrInvalidEncoding
		}
	case bytes.HasPrefix(raw, bomUTF16BE):
		if !validUTF16(raw[len(bomUTF16BE):], binary.BigEndian) {
			return nil, ErrInvalidEncoding
		}
	case !utf8.Valid(raw):
		return nil, ErrInvalidEncoding
	}

	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	src, _, err := transform.Bytes(dec, raw)
	if err != nil {
		return nil, err
	}

	return src, nil
}

// validUTF16 reports whether b is a whole number of code units without unpaired surrogates
func validUTF16(b []byte, order binary.ByteOrder) bool {
	if len(b)%2 != 0 {
		return false
	}

	for i := 0; i < len(b); i += 2 {
		u := rune(order.Uint16(b[i:]))
		if !utf16.IsSurrogate(u) {
			continue
		}

		// a high surrogate must be followed by a low one
		if u >= 0xDC00 || i+4 > len(b) {
			return false
		}
		next := rune(order.Uint16(b[i+2:]))
		if next < 0xDC00 || next > 0xDFFF {
			return false
		}
		i += 2
	}

	return true
}
