package rvc

import "fmt"

// FormatError reports a malformed bitstream: bad magic, an unknown frame
// type, a varint whose width exceeds 11 bits, a Huffman code that leaves the
// table, an AC run past the end of a block, an empty frame body, or an inter
// frame whose reference frame is missing. A length prefix that runs past the
// remaining input is not a FormatError: it surfaces as the underlying io
// error (io.ErrUnexpectedEOF or io.EOF), wrapped with context.
type FormatError string

func (e FormatError) Error() string { return "rvc: format error: " + string(e) }

// RangeError reports a value outside the range a codec layer accepts, such
// as a quantized coefficient beyond ±1023 at the Block layer, distinct from a
// FormatError found while decoding a stream that claims to be valid.
type RangeError string

func (e RangeError) Error() string { return "rvc: range error: " + string(e) }

// UnsupportedError reports a structurally valid but unsupported feature of
// the bitstream.
type UnsupportedError string

func (e UnsupportedError) Error() string { return "rvc: unsupported: " + string(e) }

func formatErrorf(format string, args ...interface{}) FormatError {
	return FormatError(fmt.Sprintf(format, args...))
}
