// Package codec implements the LwM2M primitive value encoders and decoders
// used by the TLV and plain-text content formats: integers, booleans,
// opaque bytes, strings and time values.
//
// OMA-TS-LightweightM2M-V1_0_2-20180209-A Appendix C. Data Types.
package codec

import (
	"encoding/base64"
	"errors"
	"math"
)

// ErrInvalidLength is returned by the decoders when the input is not one of
// the widths the LwM2M integer/time encoding can produce (1, 2, 4 or 8
// bytes).
var ErrInvalidLength = errors.New("codec: invalid encoded length")

// ErrInvalidValue is returned when a byte sequence cannot be interpreted as
// the requested primitive (e.g. a boolean byte other than 0x00/0x01).
var ErrInvalidValue = errors.New("codec: invalid encoded value")

// EncodeInt produces the shortest big-endian two's-complement byte sequence
// (1, 2, 4 or 8 bytes) that can represent v without ambiguity against a
// negative interpretation of the leading bit.
func EncodeInt(v int64) []byte {
	switch {
	case v >= -(1<<7) && v < (1 << 7):
		return []byte{byte(v)}
	case v >= -(1<<15) && v < (1 << 15):
		return encodeN(uint64(v), 2)
	case v >= -(1<<31) && v < (1 << 31):
		return encodeN(uint64(v), 4)
	default:
		return encodeN(uint64(v), 8)
	}
}

func encodeN(v uint64, n int) []byte {
	ret := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		ret[i] = byte(v)
		v >>= 8
	}
	return ret
}

// DecodeInt interprets a 1/2/4/8-byte buffer as a signed big-endian integer.
func DecodeInt(buf []byte) (int64, error) {
	switch len(buf) {
	case 1:
		return int64(int8(buf[0])), nil
	case 2:
		return int64(int16(be16(buf))), nil
	case 4:
		return int64(int32(be32(buf))), nil
	case 8:
		return int64(be64(buf)), nil
	default:
		return 0, ErrInvalidLength
	}
}

func be16(b []byte) uint16 { return uint16(b[0])<<8 | uint16(b[1]) }
func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
func be64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

// EncodeBool encodes a boolean as a single byte, 0x01 for true, 0x00 for
// false.
func EncodeBool(v bool) []byte {
	if v {
		return []byte{0x01}
	}
	return []byte{0x00}
}

// DecodeBool decodes a single-byte boolean.
func DecodeBool(buf []byte) (bool, error) {
	if len(buf) != 1 {
		return false, ErrInvalidLength
	}
	switch buf[0] {
	case 0x00:
		return false, nil
	case 0x01:
		return true, nil
	default:
		return false, ErrInvalidValue
	}
}

// EncodeTime encodes a signed 64-bit seconds-since-epoch value using the
// same shortest-width rule as EncodeInt.
func EncodeTime(sec int64) []byte { return EncodeInt(sec) }

// DecodeTime decodes a seconds-since-epoch value encoded by EncodeTime.
func DecodeTime(buf []byte) (int64, error) { return DecodeInt(buf) }

// EncodeFloat encodes a float64 as an IEEE754 8-byte big-endian value.
// LwM2M also allows a 4-byte float32 encoding; EncodeFloat always emits the
// wider form since no precision is lost doing so.
func EncodeFloat(v float64) []byte {
	bits := math.Float64bits(v)
	return encodeN(bits, 8)
}

// DecodeFloat accepts either a 4-byte float32 or 8-byte float64 IEEE754
// encoding.
func DecodeFloat(buf []byte) (float64, error) {
	switch len(buf) {
	case 4:
		return float64(math.Float32frombits(be32(buf))), nil
	case 8:
		return math.Float64frombits(be64(buf)), nil
	default:
		return 0, ErrInvalidLength
	}
}

// EncodeOpaque is the identity function: opaque values travel as raw bytes.
func EncodeOpaque(buf []byte) []byte { return buf }

// DecodeOpaque is the identity function: opaque values travel as raw bytes.
func DecodeOpaque(buf []byte) []byte { return buf }

// EncodeString is the identity function: strings are UTF-8 and travel as
// raw bytes.
func EncodeString(s string) []byte { return []byte(s) }

// DecodeString is the identity function: strings are UTF-8 and travel as
// raw bytes.
func DecodeString(buf []byte) string { return string(buf) }

// Base64 helpers encode opaque values as plain text, used by the
// dispatcher to convert opaque TLV values to and from the text form
// that Reader and Writer handlers exchange.

// EncodeOpaqueText renders an opaque value as base64 text.
func EncodeOpaqueText(buf []byte) string {
	return base64.StdEncoding.EncodeToString(buf)
}

// DecodeOpaqueText parses a base64-text opaque value.
func DecodeOpaqueText(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
