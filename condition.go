package conditions

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Condition is the immutable commitment to a predicate: a version, the
// aggregated feature bitmask of every fulfillment variant reachable in the
// tree, a fixed-length hash, and an upper bound on the size of any
// fulfillment that will ever satisfy it.
//
// Two conditions are equal iff all four fields are byte-equal.
type Condition struct {
	Version              uint8
	TypeBitmask          uint32
	Hash                 []byte
	MaxFulfillmentLength uint64
}

// Equal reports whether c and other are the same condition.
func (c Condition) Equal(other Condition) bool {
	return c.Version == other.Version &&
		c.TypeBitmask == other.TypeBitmask &&
		c.MaxFulfillmentLength == other.MaxFulfillmentLength &&
		bytes.Equal(c.Hash, other.Hash)
}

// ToBinary returns VARUINT type_bitmask || VARBYTES hash || VARUINT
// max_fulfillment_length. The version is not part of the binary form; it
// is implicit (only version 1 is defined).
func (c Condition) ToBinary() []byte {
	out := encodeVarUint(uint64(c.TypeBitmask))
	out = append(out, encodeVarBytes(c.Hash)...)
	out = append(out, encodeVarUint(c.MaxFulfillmentLength)...)
	return out
}

// ToURI returns "cc:" DEC(version) ":" HEX(type_bitmask) ":" B64URL(hash)
// ":" DEC(max_fulfillment_length).
func (c Condition) ToURI() string {
	return fmt.Sprintf("cc:%s:%s:%s:%s",
		strconv.FormatUint(uint64(c.Version), 10),
		strconv.FormatUint(uint64(c.TypeBitmask), 16),
		base64URLEncode(c.Hash),
		strconv.FormatUint(c.MaxFulfillmentLength, 10),
	)
}

func (c Condition) String() string { return c.ToURI() }

// parseConditionBinaryBody decodes a condition's binary form starting at
// b[0], returning the condition and the number of bytes consumed. Unlike
// ParseConditionBinary, it does not require the whole buffer to be
// consumed — used when a condition binary form is nested inside a larger
// structure (a threshold subentry).
func parseConditionBinaryBody(b []byte) (Condition, int, error) {
	bitmask, n, err := decodeVarUint(b)
	if err != nil {
		return Condition{}, 0, err
	}
	if bitmask > 0xffffffff {
		return Condition{}, 0, newParseError(MalformedEncoding, "type bitmask exceeds 32 bits")
	}
	pos := n

	hash, c1, err := decodeVarBytes(b[pos:])
	if err != nil {
		return Condition{}, 0, err
	}
	pos += c1

	maxLen, c2, err := decodeVarUint(b[pos:])
	if err != nil {
		return Condition{}, 0, err
	}
	pos += c2

	return Condition{
		Version:              1,
		TypeBitmask:          uint32(bitmask),
		Hash:                 hash,
		MaxFulfillmentLength: maxLen,
	}, pos, nil
}

// ParseConditionBinary decodes the full binary form of a condition. Any
// unconsumed trailing bytes are a MalformedEncoding error.
func ParseConditionBinary(b []byte) (Condition, error) {
	c, n, err := parseConditionBinaryBody(b)
	if err != nil {
		return Condition{}, err
	}
	if n != len(b) {
		return Condition{}, newParseError(MalformedEncoding, "trailing bytes after condition")
	}
	return c, nil
}

// ParseConditionURI decodes a condition URI of the form
// "cc:1:HEX:B64URL:DEC".
func ParseConditionURI(s string) (Condition, error) {
	if strings.ContainsAny(s, " \t\r\n") {
		return Condition{}, newParseError(MalformedEncoding, "condition uri contains whitespace")
	}
	parts := strings.Split(s, ":")
	if len(parts) != 5 || parts[0] != "cc" {
		return Condition{}, newParseError(MalformedEncoding, "condition uri must be cc:version:bitmask:hash:maxlength")
	}

	version, err := parseDecimalCanonical(parts[1])
	if err != nil {
		return Condition{}, wrapParseError(MalformedEncoding, "condition uri version", err)
	}
	if version != 1 {
		return Condition{}, newParseError(UnsupportedVersion, fmt.Sprintf("unsupported condition version %d", version))
	}

	bitmask, err := parseHexCanonical(parts[2])
	if err != nil {
		return Condition{}, wrapParseError(MalformedEncoding, "condition uri type_bitmask", err)
	}
	if bitmask > 0xffffffff {
		return Condition{}, newParseError(MalformedEncoding, "type bitmask exceeds 32 bits")
	}

	hash, err := base64URLDecode(parts[3])
	if err != nil {
		return Condition{}, err
	}

	maxLen, err := parseDecimalCanonical(parts[4])
	if err != nil {
		return Condition{}, wrapParseError(MalformedEncoding, "condition uri max_fulfillment_length", err)
	}

	return Condition{
		Version:              1,
		TypeBitmask:          uint32(bitmask),
		Hash:                 hash,
		MaxFulfillmentLength: maxLen,
	}, nil
}

// parseDecimalCanonical parses s as an unsigned decimal integer, rejecting
// empty strings, non-digit characters, and leading zeros (other than the
// single digit "0").
func parseDecimalCanonical(s string) (uint64, error) {
	if s == "" {
		return 0, newParseError(MalformedEncoding, "empty decimal field")
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, newParseError(MalformedEncoding, "decimal field has leading zero")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, newParseError(MalformedEncoding, "decimal field contains non-digit character")
		}
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, wrapParseError(MalformedEncoding, "decimal field out of range", err)
	}
	return v, nil
}

// parseHexCanonical parses s as a lowercase hexadecimal integer, rejecting
// empty strings, uppercase or non-hex characters, and leading zeros (other
// than the single digit "0").
func parseHexCanonical(s string) (uint64, error) {
	if s == "" {
		return 0, newParseError(MalformedEncoding, "empty hex field")
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, newParseError(MalformedEncoding, "hex field has leading zero")
	}
	for _, r := range s {
		isLowerHex := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
		if !isLowerHex {
			return 0, newParseError(MalformedEncoding, "hex field contains non-lowercase-hex character")
		}
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, wrapParseError(MalformedEncoding, "hex field out of range", err)
	}
	return v, nil
}
