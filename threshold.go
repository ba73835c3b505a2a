package conditions

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"sort"
	"strconv"
)

// thresholdMaxCandidates bounds the brute-force subset search in
// serializePayload: beyond this many simultaneously-validating resolved
// subentries, exhaustive 2^k enumeration stops being practical. The spec's
// own interoperability vectors never exceed a handful of subentries per
// threshold.
const thresholdMaxCandidates = 20

// thresholdSubentry is one weighted branch of a Threshold. Exactly one of
// fulfillment or condition is meaningful: a resolved branch carries a
// Fulfillment (and can be included in a satisfying subset); an unresolved
// branch carries only the bare Condition it commits to.
type thresholdSubentry struct {
	weight      uint64
	prefix      []byte
	fulfillment Fulfillment
	condition   Condition
}

func (s thresholdSubentry) conditionValue() (Condition, error) {
	if s.fulfillment != nil {
		return s.fulfillment.Condition()
	}
	return s.condition, nil
}

// Threshold is the Threshold-SHA-256 fulfillment variant: a weighted set of
// subentries that validates when the summed weight of its validating
// branches meets or exceeds the threshold.
type Threshold struct {
	threshold  uint64
	subentries []thresholdSubentry
}

// NewThreshold constructs an empty threshold requiring the given weight.
func NewThreshold(threshold uint64) *Threshold {
	return &Threshold{threshold: threshold}
}

// Add appends a resolved branch: a fulfillment that may be included in the
// satisfying subset at serialization time. A zero prefix means no prefix.
func (t *Threshold) Add(weight uint64, prefix []byte, f Fulfillment) *Threshold {
	t.subentries = append(t.subentries, thresholdSubentry{
		weight:      weight,
		prefix:      append([]byte(nil), prefix...),
		fulfillment: f,
	})
	return t
}

// AddCondition appends an unresolved branch: its condition counts toward
// the condition hash and the worst-case size bound, but it can never be
// part of a satisfying subset since there is no witness to embed.
func (t *Threshold) AddCondition(weight uint64, prefix []byte, c Condition) *Threshold {
	t.subentries = append(t.subentries, thresholdSubentry{
		weight:    weight,
		prefix:    append([]byte(nil), prefix...),
		condition: c,
	})
	return t
}

func (t *Threshold) TypeBit() int { return TypeThreshold }

func (t *Threshold) FeatureBitmask() uint32 {
	bm := FeatureThreshold
	for _, s := range t.subentries {
		cond, err := s.conditionValue()
		if err != nil {
			continue
		}
		bm |= cond.TypeBitmask
	}
	return bm
}

// hashFingerprint computes SHA-256 over VARUINT threshold || VARARRAY of
// [VARUINT weight || VARBYTES prefix || CONDITION(sub)] in insertion order.
func (t *Threshold) hashFingerprint() ([]byte, error) {
	body := encodeVarUint(t.threshold)
	body = append(body, encodeVarUint(uint64(len(t.subentries)))...)
	for _, s := range t.subentries {
		cond, err := s.conditionValue()
		if err != nil {
			return nil, err
		}
		body = append(body, encodeVarUint(s.weight)...)
		body = append(body, encodeVarBytes(s.prefix)...)
		body = append(body, cond.ToBinary()...)
	}
	sum := sha256.Sum256(body)
	return sum[:], nil
}

func (t *Threshold) Condition() (Condition, error) {
	hash, err := t.hashFingerprint()
	if err != nil {
		return Condition{}, err
	}
	return deriveCondition(t, hash)
}

// MaxFulfillmentLength computes the worst-case serialized size: sort
// subentries by the cost of including their fulfillment descending, take
// the minimal-cardinality prefix of that order whose weights meet the
// threshold, and sum those fulfilled costs with the remaining subentries'
// bare-condition costs plus the threshold/count wrapper overhead.
func (t *Threshold) MaxFulfillmentLength() (uint64, error) {
	type costed struct {
		idx      int
		weight   uint64
		included uint64
		bare     uint64
	}
	costs := make([]costed, len(t.subentries))
	var totalWeight uint64
	for i, s := range t.subentries {
		cond, err := s.conditionValue()
		if err != nil {
			return 0, err
		}
		overhead := uint64(1) // flags byte
		if s.weight != 1 {
			overhead += uint64(len(encodeVarUint(s.weight)))
		}
		if len(s.prefix) > 0 {
			overhead += uint64(len(encodeVarBytes(s.prefix)))
		}
		costs[i] = costed{
			idx:      i,
			weight:   s.weight,
			included: overhead + 1 + cond.MaxFulfillmentLength, // +1 for the fulfillment wrapper's type-bit byte
			bare:     overhead + uint64(len(cond.ToBinary())),
		}
		totalWeight += s.weight
	}
	if totalWeight < t.threshold {
		return 0, wrapParseError(UnsatisfiedThreshold, "threshold exceeds total available weight", nil)
	}

	sort.Slice(costs, func(a, b int) bool { return costs[a].included > costs[b].included })

	included := make(map[int]bool, len(costs))
	var sum uint64
	for _, c := range costs {
		if sum >= t.threshold {
			break
		}
		included[c.idx] = true
		sum += c.weight
	}

	total := uint64(len(encodeVarUint(t.threshold))) + uint64(len(encodeVarUint(uint64(len(t.subentries)))))
	for _, c := range costs {
		if included[c.idx] {
			total += c.included
		} else {
			total += c.bare
		}
	}
	return total, nil
}

// Validate reports whether the summed weight of currently-validating
// resolved branches meets the threshold. Unresolved branches never
// contribute.
func (t *Threshold) Validate(message []byte) bool {
	var sum uint64
	for _, s := range t.subentries {
		if s.fulfillment == nil {
			continue
		}
		if s.fulfillment.Validate(prefixedMessage(s.prefix, message)) {
			sum += s.weight
		}
	}
	return sum >= t.threshold
}

func prefixedMessage(prefix, message []byte) []byte {
	if len(prefix) == 0 {
		return message
	}
	out := make([]byte, 0, len(prefix)+len(message))
	out = append(out, prefix...)
	out = append(out, message...)
	return out
}

// payload satisfies the Fulfillment interface with a message-free
// serialization. It only succeeds when serializePayload(nil) finds a
// satisfying subset without a message — true for trees whose validating
// branches don't need one (pure Preimage trees). Trees with Ed25519
// branches must call SerializeBinary/SerializeURI directly.
func (t *Threshold) payload() ([]byte, error) {
	return t.serializePayload(nil)
}

func (t *Threshold) ToBinary() ([]byte, error) { return fulfillmentBinary(t) }
func (t *Threshold) ToURI() (string, error)    { return fulfillmentURI(t) }

func (t *Threshold) String() string {
	s, err := t.ToURI()
	if err != nil {
		return "threshold(unsatisfied)"
	}
	return s
}

// SerializeBinary runs the subset-selection algorithm against message and
// returns the resulting fulfillment's binary wrapper form.
func (t *Threshold) SerializeBinary(message []byte) ([]byte, error) {
	p, err := t.serializePayload(message)
	if err != nil {
		return nil, err
	}
	out := encodeVarUint(uint64(TypeThreshold))
	return append(out, p...), nil
}

// SerializeURI runs the subset-selection algorithm against message and
// returns the resulting fulfillment's URI wrapper form.
func (t *Threshold) SerializeURI(message []byte) (string, error) {
	p, err := t.serializePayload(message)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("cf:1:%s:%s",
		strconv.FormatUint(uint64(TypeThreshold), 16),
		base64URLEncode(p),
	), nil
}

// serializePayload selects the minimal-size satisfying subset of resolved,
// currently-validating branches and serializes every subentry: chosen
// branches embed their fulfillment, the rest embed their bare condition.
// Selection minimizes total encoded size, tiebreaking first by smaller
// subset cardinality, then by lexicographically smaller encoded bytes, so
// two independent implementations produce byte-identical output.
func (t *Threshold) serializePayload(message []byte) ([]byte, error) {
	var candidateIdx []int
	for i, s := range t.subentries {
		if s.fulfillment == nil {
			continue
		}
		if s.fulfillment.Validate(prefixedMessage(s.prefix, message)) {
			candidateIdx = append(candidateIdx, i)
		}
	}
	k := len(candidateIdx)
	if k > thresholdMaxCandidates {
		return nil, newParseError(UnsatisfiedThreshold, "too many validating subentries for exhaustive selection")
	}

	var best []byte
	bestCardinality := 0
	found := false

	for mask := 0; mask < (1 << k); mask++ {
		var sum uint64
		chosen := make(map[int]bool)
		for bit := 0; bit < k; bit++ {
			if mask&(1<<bit) != 0 {
				idx := candidateIdx[bit]
				chosen[idx] = true
				sum += t.subentries[idx].weight
			}
		}
		if sum < t.threshold {
			continue
		}
		encoded, err := t.encodeSubentries(chosen, message)
		if err != nil {
			return nil, err
		}
		cardinality := len(chosen)
		if !found || betterCandidate(encoded, cardinality, best, bestCardinality) {
			best = encoded
			bestCardinality = cardinality
			found = true
		}
	}

	if !found {
		return nil, wrapParseError(UnsatisfiedThreshold, "no satisfying subset of sub-fulfillments", nil)
	}
	return best, nil
}

func betterCandidate(candBytes []byte, candCardinality int, curBytes []byte, curCardinality int) bool {
	if len(candBytes) != len(curBytes) {
		return len(candBytes) < len(curBytes)
	}
	if candCardinality != curCardinality {
		return candCardinality < curCardinality
	}
	return bytes.Compare(candBytes, curBytes) < 0
}

// encodeSubentries serializes VARUINT threshold || VARARRAY of every
// subentry in insertion order, embedding a fulfillment body for indices in
// chosen and a bare condition body for everything else. message is the
// outer validation message, prefixed per-subentry before being threaded
// into any chosen nested Threshold so its own subset selection sees the
// same message a direct Validate(message) call would.
func (t *Threshold) encodeSubentries(chosen map[int]bool, message []byte) ([]byte, error) {
	out := encodeVarUint(t.threshold)
	out = append(out, encodeVarUint(uint64(len(t.subentries)))...)
	for i, s := range t.subentries {
		b, err := serializeSubentry(s, chosen[i], prefixedMessage(s.prefix, message))
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// serializeSubentry encodes one subentry as UINT8 flags || OPTIONAL
// VARUINT weight (flags&0x40, omitted when weight==1) || OPTIONAL VARBYTES
// prefix (flags&0x20, omitted when empty) || FULFILLMENT body (flags&0x80)
// or CONDITION body (!flags&0x80). message is this subentry's own
// (already-prefixed) validation message, needed when the embedded
// fulfillment is itself a *Threshold whose subset selection depends on it.
func serializeSubentry(s thresholdSubentry, fulfilled bool, message []byte) ([]byte, error) {
	var flags byte
	var weightBytes, prefixBytes []byte

	if s.weight != 1 {
		flags |= 0x40
		weightBytes = encodeVarUint(s.weight)
	}
	if len(s.prefix) > 0 {
		flags |= 0x20
		prefixBytes = encodeVarBytes(s.prefix)
	}

	var bodyBytes []byte
	if fulfilled {
		if s.fulfillment == nil {
			return nil, newParseError(UnsatisfiedThreshold, "subentry selected without a fulfillment")
		}
		flags |= 0x80
		fb, err := fulfillmentBinaryWithMessage(s.fulfillment, message)
		if err != nil {
			return nil, err
		}
		bodyBytes = fb
	} else {
		cond, err := s.conditionValue()
		if err != nil {
			return nil, err
		}
		bodyBytes = cond.ToBinary()
	}

	out := make([]byte, 0, 1+len(weightBytes)+len(prefixBytes)+len(bodyBytes))
	out = append(out, flags)
	out = append(out, weightBytes...)
	out = append(out, prefixBytes...)
	out = append(out, bodyBytes...)
	return out, nil
}

// parseThresholdPayload decodes a Threshold-SHA-256 payload (VARUINT
// threshold || VARARRAY subentries) starting at b[0]. trustedMax, when
// non-negative, bounds nested fulfillment payload allocation.
func parseThresholdPayload(b []byte, trustedMax int64) (*Threshold, int, error) {
	threshold, n, err := decodeVarUint(b)
	if err != nil {
		return nil, 0, err
	}
	pos := n

	subentries, consumed, err := decodeVarArray(b[pos:], func(sb []byte) (thresholdSubentry, int, error) {
		return parseThresholdSubentry(sb, trustedMax)
	})
	if err != nil {
		return nil, 0, err
	}
	pos += consumed

	return &Threshold{threshold: threshold, subentries: subentries}, pos, nil
}

func parseThresholdSubentry(b []byte, trustedMax int64) (thresholdSubentry, int, error) {
	if len(b) < 1 {
		return thresholdSubentry{}, 0, newParseError(MalformedEncoding, "truncated threshold subentry")
	}
	flags := b[0]
	pos := 1

	weight := uint64(1)
	if flags&0x40 != 0 {
		w, n, err := decodeVarUint(b[pos:])
		if err != nil {
			return thresholdSubentry{}, 0, err
		}
		weight = w
		pos += n
	}

	var prefix []byte
	if flags&0x20 != 0 {
		p, n, err := decodeVarBytes(b[pos:])
		if err != nil {
			return thresholdSubentry{}, 0, err
		}
		prefix = p
		pos += n
	}

	if flags&0x80 != 0 {
		f, n, err := parseFulfillmentBinaryBody(b[pos:], trustedMax)
		if err != nil {
			return thresholdSubentry{}, 0, err
		}
		pos += n
		return thresholdSubentry{weight: weight, prefix: prefix, fulfillment: f}, pos, nil
	}

	c, n, err := parseConditionBinaryBody(b[pos:])
	if err != nil {
		return thresholdSubentry{}, 0, err
	}
	pos += n
	return thresholdSubentry{weight: weight, prefix: prefix, condition: c}, pos, nil
}
