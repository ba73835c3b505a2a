package conditions

import (
	"encoding/base64"

	"github.com/holiman/uint256"
)

// maxVarUintBytes bounds the number of continuation bytes decodeVarUint will
// consume before giving up: ceil(64/7) = 10 groups cover the full uint64
// range, so an 11th byte with its continuation bit still set can only
// represent a value above 2^64-1.
const maxVarUintBytes = 10

// encodeVarUint encodes v as little-endian base-128 with the high bit of
// each byte marking continuation. The encoding is always minimal: the
// number of bytes is exactly what v requires, so it round-trips through
// decodeVarUint's canonical check.
func encodeVarUint(v uint64) []byte {
	if v == 0 {
		return []byte{0}
	}
	var out []byte
	for v > 0 {
		b := byte(v & 0x7f)
		v >>= 7
		if v > 0 {
			b |= 0x80
		}
		out = append(out, b)
	}
	return out
}

// decodeVarUint decodes a VARUINT prefix of b, returning the value and the
// number of bytes consumed. It rejects non-canonical encodings (a final
// byte of 0x00 preceded by other bytes) and values above 2^64-1.
func decodeVarUint(b []byte) (uint64, int, error) {
	var acc uint256.Int
	var shift uint

	for i := 0; i < len(b); i++ {
		if i >= maxVarUintBytes {
			return 0, 0, newParseError(MalformedEncoding, "varuint exceeds 2^64-1")
		}
		cur := b[i]
		group := uint64(cur & 0x7f)

		var term uint256.Int
		term.SetUint64(group)
		term.Lsh(&term, shift)
		acc.Or(&acc, &term)

		if cur&0x80 == 0 {
			if i > 0 && group == 0 {
				return 0, 0, newParseError(MalformedEncoding, "non-canonical varuint: trailing zero byte")
			}
			if !acc.IsUint64() {
				return 0, 0, newParseError(MalformedEncoding, "varuint exceeds 2^64-1")
			}
			return acc.Uint64(), i + 1, nil
		}
		shift += 7
	}
	return 0, 0, newParseError(MalformedEncoding, "truncated varuint")
}

// encodeVarBytes encodes b as a VARUINT length prefix followed by the bytes
// themselves. Zero-length is valid.
func encodeVarBytes(b []byte) []byte {
	out := encodeVarUint(uint64(len(b)))
	return append(out, b...)
}

// decodeVarBytes decodes a VARBYTES prefix of b, returning a copy of the
// payload and the number of bytes consumed.
func decodeVarBytes(b []byte) ([]byte, int, error) {
	length, n, err := decodeVarUint(b)
	if err != nil {
		return nil, 0, err
	}
	remaining := uint64(len(b) - n)
	if length > remaining {
		return nil, 0, newParseError(MalformedEncoding, "varbytes length exceeds remaining buffer")
	}
	payload := make([]byte, length)
	copy(payload, b[n:n+int(length)])
	return payload, n + int(length), nil
}

// encodeVarArray encodes items as a VARUINT element count followed by each
// item encoded with encode, concatenated in order.
func encodeVarArray[T any](items []T, encode func(T) []byte) []byte {
	out := encodeVarUint(uint64(len(items)))
	for _, it := range items {
		out = append(out, encode(it)...)
	}
	return out
}

// decodeVarArray decodes a VARARRAY prefix of b using decode for each
// element, returning the items and the number of bytes consumed.
func decodeVarArray[T any](b []byte, decode func([]byte) (T, int, error)) ([]T, int, error) {
	count, n, err := decodeVarUint(b)
	if err != nil {
		return nil, 0, err
	}
	if count > uint64(len(b)-n) {
		return nil, 0, newParseError(MalformedEncoding, "vararray count exceeds remaining buffer")
	}
	items := make([]T, 0, count)
	pos := n
	for i := uint64(0); i < count; i++ {
		item, consumed, err := decode(b[pos:])
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
		pos += consumed
	}
	return items, pos, nil
}

// base64URLEncode returns the URL-safe, unpadded base64 encoding of b.
func base64URLEncode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// base64URLDecode decodes a URL-safe, unpadded base64 string.
func base64URLDecode(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, wrapParseError(MalformedEncoding, "invalid base64url", err)
	}
	return b, nil
}
