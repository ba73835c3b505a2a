package conditions

import (
	"bytes"
	stded25519 "crypto/ed25519"
)

// ed25519PayloadLength is the fixed, unprefixed payload size: a 32-byte
// public key followed by a 64-byte signature.
const ed25519PayloadLength = stded25519.PublicKeySize + stded25519.SignatureSize

// Ed25519 is the Ed25519-SHA-256 fulfillment variant.
type Ed25519 struct {
	publicKey stded25519.PublicKey
	signature []byte // nil or all-zero until Sign is called
}

// NewEd25519 constructs an unsigned Ed25519 fulfillment committed to the
// given public key. Call Sign to attach a signature before it will
// validate.
func NewEd25519(publicKey stded25519.PublicKey) *Ed25519 {
	pk := make(stded25519.PublicKey, stded25519.PublicKeySize)
	copy(pk, publicKey)
	return &Ed25519{publicKey: pk, signature: make([]byte, stded25519.SignatureSize)}
}

// Sign computes the signature over message using signingKey, which must be
// the private key corresponding to the fulfillment's public key.
func (e *Ed25519) Sign(message []byte, signingKey stded25519.PrivateKey) error {
	derived := signingKey.Public().(stded25519.PublicKey)
	if !bytes.Equal(derived, e.publicKey) {
		return newParseError(KeyMismatch, "signing key does not correspond to fulfillment public key")
	}
	e.signature = stded25519.Sign(signingKey, message)
	return nil
}

func (e *Ed25519) TypeBit() int { return TypeEd25519 }

func (e *Ed25519) FeatureBitmask() uint32 { return FeatureEd25519 }

func (e *Ed25519) Validate(message []byte) bool {
	if message == nil {
		return false
	}
	if len(e.signature) != stded25519.SignatureSize || allZero(e.signature) {
		return false
	}
	return stded25519.Verify(e.publicKey, message, e.signature)
}

func (e *Ed25519) payload() ([]byte, error) {
	out := make([]byte, 0, ed25519PayloadLength)
	out = append(out, e.publicKey...)
	out = append(out, e.signature...)
	return out, nil
}

// MaxFulfillmentLength is the fixed 96-byte payload size: public key and
// signature are never length-prefixed.
func (e *Ed25519) MaxFulfillmentLength() (uint64, error) {
	return ed25519PayloadLength, nil
}

func (e *Ed25519) Condition() (Condition, error) {
	hash := make([]byte, stded25519.PublicKeySize)
	copy(hash, e.publicKey)
	return deriveCondition(e, hash)
}

func (e *Ed25519) ToBinary() ([]byte, error) { return fulfillmentBinary(e) }
func (e *Ed25519) ToURI() (string, error)    { return fulfillmentURI(e) }

func (e *Ed25519) String() string {
	s, err := e.ToURI()
	if err != nil {
		return "ed25519(unset)"
	}
	return s
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// parseEd25519Payload decodes a fixed-length Ed25519-SHA-256 payload
// (32-byte public key || 64-byte signature) starting at b[0].
func parseEd25519Payload(b []byte) (*Ed25519, int, error) {
	if len(b) < ed25519PayloadLength {
		return nil, 0, newParseError(MalformedEncoding, "truncated ed25519 payload")
	}
	pk := make(stded25519.PublicKey, stded25519.PublicKeySize)
	copy(pk, b[:stded25519.PublicKeySize])
	sig := make([]byte, stded25519.SignatureSize)
	copy(sig, b[stded25519.PublicKeySize:ed25519PayloadLength])
	return &Ed25519{publicKey: pk, signature: sig}, ed25519PayloadLength, nil
}
