package conditions

import (
	"fmt"
	"strconv"
	"strings"
)

// Fulfillment is a witness that, when measured, reproduces a Condition and
// evaluates to true against a message. The three concrete variants are
// *Preimage, *Ed25519, and *Threshold.
type Fulfillment interface {
	// TypeBit identifies the variant in the registry (0, 2, or 4).
	TypeBit() int
	// FeatureBitmask is the set of feature bits this fulfillment and every
	// fulfillment reachable underneath it (for Threshold) exercises.
	FeatureBitmask() uint32
	// Condition derives the commitment this fulfillment satisfies. It fails
	// with ErrIncompleteFulfillment if a required field hasn't been set.
	Condition() (Condition, error)
	// MaxFulfillmentLength reports the size bound this fulfillment
	// contributes to its derived condition.
	MaxFulfillmentLength() (uint64, error)
	// Validate reports whether this fulfillment satisfies its condition
	// against message. It never returns an error; cryptographic or
	// structural failure is simply false.
	Validate(message []byte) bool

	payload() ([]byte, error)
}

// Fulfillment type bits, per the variant registry.
const (
	TypePreimage  = 0
	TypeThreshold = 2
	TypeEd25519   = 4
)

// Feature bits, OR'd together across every fulfillment reachable in a tree.
const (
	FeaturePreimage  uint32 = 0x01
	FeatureRSA       uint32 = 0x02
	FeatureThreshold uint32 = 0x04
	FeaturePrefix    uint32 = 0x08
	FeatureEd25519   uint32 = 0x20
)

func typeBitName(bit int) string {
	switch bit {
	case TypePreimage:
		return "preimage-sha-256"
	case TypeThreshold:
		return "threshold-sha-256"
	case TypeEd25519:
		return "ed25519-sha-256"
	default:
		return "unknown"
	}
}

// deriveCondition builds the Condition a fulfillment commits to: its
// feature bitmask (which already carries the variant's own feature bit),
// its hash fingerprint, and its max fulfillment length.
func deriveCondition(f Fulfillment, hash []byte) (Condition, error) {
	maxLen, err := f.MaxFulfillmentLength()
	if err != nil {
		return Condition{}, err
	}
	return Condition{
		Version:              1,
		TypeBitmask:          f.FeatureBitmask(),
		Hash:                 hash,
		MaxFulfillmentLength: maxLen,
	}, nil
}

// fulfillmentBinary wraps a variant's payload as VARUINT type_bit ||
// payload.
func fulfillmentBinary(f Fulfillment) ([]byte, error) {
	p, err := f.payload()
	if err != nil {
		return nil, err
	}
	out := encodeVarUint(uint64(f.TypeBit()))
	return append(out, p...), nil
}

// fulfillmentBinaryWithMessage wraps f's payload the same way
// fulfillmentBinary does, except that when f is itself a *Threshold, it
// routes through serializePayload(message) instead of the message-free
// payload() — so a nested threshold's own subset selection sees the
// message its validating branches (e.g. Ed25519 leaves) need, rather than
// always failing closed with ErrUnsatisfiedThreshold.
func fulfillmentBinaryWithMessage(f Fulfillment, message []byte) ([]byte, error) {
	th, ok := f.(*Threshold)
	if !ok {
		return fulfillmentBinary(f)
	}
	p, err := th.serializePayload(message)
	if err != nil {
		return nil, err
	}
	out := encodeVarUint(uint64(TypeThreshold))
	return append(out, p...), nil
}

// fulfillmentURI wraps a variant's payload as
// cf:DEC(version):HEX(type_bit):B64URL(payload).
func fulfillmentURI(f Fulfillment) (string, error) {
	p, err := f.payload()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("cf:1:%s:%s",
		strconv.FormatUint(uint64(f.TypeBit()), 16),
		base64URLEncode(p),
	), nil
}

// parseFulfillmentBinaryBody decodes a fulfillment's binary form starting
// at b[0] — VARUINT type_bit followed by the variant payload — returning
// the fulfillment and the number of bytes consumed. trustedMax, when
// non-negative, bounds payload allocation (resource budget from an
// out-of-band trust-root condition); pass -1 for no bound.
func parseFulfillmentBinaryBody(b []byte, trustedMax int64) (Fulfillment, int, error) {
	typeBit, n, err := decodeVarUint(b)
	if err != nil {
		return nil, 0, err
	}
	if trustedMax >= 0 && int64(len(b)-n) > trustedMax {
		return nil, 0, wrapParseError(FulfillmentTooLarge,
			"fulfillment payload exceeds trust-root max_fulfillment_length", nil)
	}

	switch typeBit {
	case TypePreimage:
		f, consumed, err := parsePreimagePayload(b[n:])
		if err != nil {
			return nil, 0, err
		}
		return f, n + consumed, nil
	case TypeEd25519:
		f, consumed, err := parseEd25519Payload(b[n:])
		if err != nil {
			return nil, 0, err
		}
		return f, n + consumed, nil
	case TypeThreshold:
		f, consumed, err := parseThresholdPayload(b[n:], trustedMax)
		if err != nil {
			return nil, 0, err
		}
		return f, n + consumed, nil
	default:
		return nil, 0, wrapParseError(UnsupportedType,
			fmt.Sprintf("unsupported fulfillment type bit %d", typeBit), nil)
	}
}

// ParseFulfillmentBinary decodes the full binary form of a fulfillment. Any
// unconsumed trailing bytes are a MalformedEncoding error.
func ParseFulfillmentBinary(b []byte) (Fulfillment, error) {
	f, n, err := parseFulfillmentBinaryBody(b, -1)
	if err != nil {
		return nil, err
	}
	if n != len(b) {
		return nil, newParseError(MalformedEncoding, "trailing bytes after fulfillment")
	}
	return f, nil
}

// ParseFulfillmentBinaryTrusted decodes a fulfillment the same way as
// ParseFulfillmentBinary, but bounds payload allocation by trust's
// MaxFulfillmentLength and verifies the parsed fulfillment's derived
// condition matches trust.
func ParseFulfillmentBinaryTrusted(b []byte, trust Condition) (Fulfillment, error) {
	f, n, err := parseFulfillmentBinaryBody(b, int64(trust.MaxFulfillmentLength))
	if err != nil {
		return nil, err
	}
	if n != len(b) {
		return nil, newParseError(MalformedEncoding, "trailing bytes after fulfillment")
	}
	cond, err := f.Condition()
	if err != nil {
		return nil, err
	}
	if !cond.Equal(trust) {
		return nil, newParseError(KeyMismatch, "fulfillment does not match trust-root condition")
	}
	return f, nil
}

// ParseFulfillmentURI decodes a fulfillment URI of the form
// "cf:1:HEX:B64URL".
func ParseFulfillmentURI(s string) (Fulfillment, error) {
	if strings.ContainsAny(s, " \t\r\n") {
		return nil, newParseError(MalformedEncoding, "fulfillment uri contains whitespace")
	}
	parts := strings.Split(s, ":")
	if len(parts) != 4 || parts[0] != "cf" {
		return nil, newParseError(MalformedEncoding, "fulfillment uri must be cf:version:type_bit:payload")
	}

	version, err := parseDecimalCanonical(parts[1])
	if err != nil {
		return nil, wrapParseError(MalformedEncoding, "fulfillment uri version", err)
	}
	if version != 1 {
		return nil, newParseError(UnsupportedVersion, fmt.Sprintf("unsupported fulfillment version %d", version))
	}

	typeBit, err := parseHexCanonical(parts[2])
	if err != nil {
		return nil, wrapParseError(MalformedEncoding, "fulfillment uri type_bit", err)
	}

	payload, err := base64URLDecode(parts[3])
	if err != nil {
		return nil, err
	}

	switch typeBit {
	case TypePreimage:
		f, n, err := parsePreimagePayload(payload)
		if err != nil {
			return nil, err
		}
		if n != len(payload) {
			return nil, newParseError(MalformedEncoding, "trailing bytes after preimage payload")
		}
		return f, nil
	case TypeEd25519:
		f, n, err := parseEd25519Payload(payload)
		if err != nil {
			return nil, err
		}
		if n != len(payload) {
			return nil, newParseError(MalformedEncoding, "trailing bytes after ed25519 payload")
		}
		return f, nil
	case TypeThreshold:
		f, n, err := parseThresholdPayload(payload, -1)
		if err != nil {
			return nil, err
		}
		if n != len(payload) {
			return nil, newParseError(MalformedEncoding, "trailing bytes after threshold payload")
		}
		return f, nil
	default:
		return nil, wrapParseError(UnsupportedType,
			fmt.Sprintf("unsupported fulfillment type bit %d (%s)", typeBit, typeBitName(int(typeBit))), nil)
	}
}
