// Package conditions implements the crypto-conditions predicate format: a
// self-describing binary and URI encoding for boolean combinations of
// cryptographic checks.
//
// A Condition is a compact, size-bounded commitment to a predicate. A
// Fulfillment is a witness that, when measured against a message, proves
// that predicate true. Three fulfillment variants are supported:
//
//   - Preimage-SHA-256: the witness is a hash preimage, revealed directly.
//   - Ed25519-SHA-256: the witness is an Ed25519 signature over the message.
//   - Threshold-SHA-256: the witness is a weighted subset of sub-fulfillments
//     whose combined weight meets a required threshold.
//
// Every operation is pure and synchronous. Conditions and fulfillments are
// value types, safe to share freely once constructed; builders (NewPreimage,
// NewEd25519, NewThreshold) are the only mutation points, and only up to the
// point their derived Condition is first observed.
//
// # Binary and URI forms
//
// Both conditions and fulfillments have a canonical binary encoding (VARUINT
// and VARBYTES fields, little-endian base-128) and a URI encoding
// ("cc:"/"cf:" followed by colon-separated decimal/hex/base64url fields).
// ParseConditionURI/ParseConditionBinary and ParseFulfillmentURI/
// ParseFulfillmentBinary decode either form; ToURI/ToBinary on a Condition
// or Fulfillment encode it.
//
// # Trust-bounded parsing
//
// ParseFulfillmentBinaryTrusted decodes a fulfillment against an expected
// trust-root Condition, rejecting a payload that exceeds the condition's
// declared max_fulfillment_length before allocating, and rejecting a parsed
// fulfillment whose derived condition does not match.
//
// # Errors
//
// Every failure this package returns is a *ParseError, whose Kind field
// (MalformedEncoding, UnsupportedType, UnsupportedVersion,
// IncompleteFulfillment, UnsatisfiedThreshold, KeyMismatch,
// FulfillmentTooLarge) can be tested with errors.Is against the matching
// package-level sentinel (ErrMalformedEncoding, and so on).
package conditions
