package conditions

import "crypto/sha256"

// Preimage is the Preimage-SHA-256 fulfillment variant: a hash preimage
// revealed directly as its own witness.
type Preimage struct {
	preimage []byte
	set      bool
}

// NewPreimage constructs a Preimage fulfillment over the given preimage
// bytes. A nil or empty preimage is valid (SHA-256 of the empty string is a
// well-defined condition).
func NewPreimage(preimage []byte) *Preimage {
	p := make([]byte, len(preimage))
	copy(p, preimage)
	return &Preimage{preimage: p, set: true}
}

func (p *Preimage) TypeBit() int { return TypePreimage }

func (p *Preimage) FeatureBitmask() uint32 { return FeaturePreimage }

// Validate reports whether the preimage has been set. This is a structural
// well-formedness check, not proof of secret possession: any *Preimage
// constructed via NewPreimage already "validates" regardless of message,
// since parsing or constructing the fulfillment is itself the disclosure of
// the witness.
func (p *Preimage) Validate(message []byte) bool {
	return p.set
}

func (p *Preimage) payload() ([]byte, error) {
	if !p.set {
		return nil, newParseError(IncompleteFulfillment, "preimage not set")
	}
	return encodeVarBytes(p.preimage), nil
}

func (p *Preimage) MaxFulfillmentLength() (uint64, error) {
	payload, err := p.payload()
	if err != nil {
		return 0, err
	}
	return uint64(len(payload)), nil
}

func (p *Preimage) Condition() (Condition, error) {
	if !p.set {
		return Condition{}, newParseError(IncompleteFulfillment, "preimage not set")
	}
	sum := sha256.Sum256(p.preimage)
	return deriveCondition(p, sum[:])
}

func (p *Preimage) ToBinary() ([]byte, error) { return fulfillmentBinary(p) }
func (p *Preimage) ToURI() (string, error)    { return fulfillmentURI(p) }

func (p *Preimage) String() string {
	s, err := p.ToURI()
	if err != nil {
		return "preimage(unset)"
	}
	return s
}

// parsePreimagePayload decodes a Preimage-SHA-256 payload (VARBYTES
// preimage) starting at b[0], returning the fulfillment and bytes consumed.
func parsePreimagePayload(b []byte) (*Preimage, int, error) {
	preimage, n, err := decodeVarBytes(b)
	if err != nil {
		return nil, 0, err
	}
	return &Preimage{preimage: preimage, set: true}, n, nil
}
