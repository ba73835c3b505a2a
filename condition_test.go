package conditions

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func mustHash(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

func TestConditionURIBinaryRoundTrip(t *testing.T) {
	cases := []Condition{
		{Version: 1, TypeBitmask: 0x01, Hash: mustHash("e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"), MaxFulfillmentLength: 1},
		{Version: 1, TypeBitmask: 0x20, Hash: make([]byte, 32), MaxFulfillmentLength: 96},
		{Version: 1, TypeBitmask: 0, Hash: nil, MaxFulfillmentLength: 0},
	}
	for _, c := range cases {
		t.Run(c.ToURI(), func(t *testing.T) {
			uri := c.ToURI()
			parsed, err := ParseConditionURI(uri)
			if err != nil {
				t.Fatalf("ParseConditionURI(%q) error: %v", uri, err)
			}
			// A nil and an empty hash are the same bytes on the wire, and
			// Condition.Equal treats them as equal; parsing yields an empty
			// slice.
			if diff := cmp.Diff(c, parsed, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("uri round-trip mismatch (-want +got):\n%s", diff)
			}

			binary := c.ToBinary()
			parsedBin, err := ParseConditionBinary(binary)
			if err != nil {
				t.Fatalf("ParseConditionBinary error: %v", err)
			}
			if diff := cmp.Diff(c, parsedBin, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("binary round-trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConditionEqual(t *testing.T) {
	a := Condition{Version: 1, TypeBitmask: 1, Hash: []byte{1, 2}, MaxFulfillmentLength: 3}
	b := Condition{Version: 1, TypeBitmask: 1, Hash: []byte{1, 2}, MaxFulfillmentLength: 3}
	c := Condition{Version: 1, TypeBitmask: 1, Hash: []byte{1, 3}, MaxFulfillmentLength: 3}
	if !a.Equal(b) {
		t.Fatalf("expected a.Equal(b)")
	}
	if a.Equal(c) {
		t.Fatalf("expected !a.Equal(c)")
	}
}

func TestConditionURIRejectsMalformedHex(t *testing.T) {
	// Interop vector 5: parsing "cc:1:ZZ:..." fails MalformedEncoding.
	_, err := ParseConditionURI("cc:1:ZZ:AA:0")
	if !errors.Is(err, ErrMalformedEncoding) {
		t.Fatalf("want ErrMalformedEncoding, got %v", err)
	}
}

func TestConditionURIRejectsWrongVersion(t *testing.T) {
	_, err := ParseConditionURI("cc:2:1:AA:0")
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("want ErrUnsupportedVersion, got %v", err)
	}
}

func TestConditionURIRejectsTrailingBytesAndWhitespace(t *testing.T) {
	cases := []string{
		"cc:1:1:AA:0:extra",
		"cc:1:1:AA: 0",
		"not-a-condition",
	}
	for _, s := range cases {
		if _, err := ParseConditionURI(s); !errors.Is(err, ErrMalformedEncoding) {
			t.Errorf("ParseConditionURI(%q): want ErrMalformedEncoding, got %v", s, err)
		}
	}
}

func TestConditionBinaryRejectsTrailingBytes(t *testing.T) {
	c := Condition{Version: 1, TypeBitmask: 1, Hash: []byte{1}, MaxFulfillmentLength: 1}
	b := append(c.ToBinary(), 0x00)
	if _, err := ParseConditionBinary(b); !errors.Is(err, ErrMalformedEncoding) {
		t.Fatalf("want ErrMalformedEncoding, got %v", err)
	}
}

func TestParseDecimalCanonicalRejectsLeadingZero(t *testing.T) {
	if _, err := parseDecimalCanonical("01"); !errors.Is(err, ErrMalformedEncoding) {
		t.Fatalf("want ErrMalformedEncoding, got %v", err)
	}
	if v, err := parseDecimalCanonical("0"); err != nil || v != 0 {
		t.Fatalf("parseDecimalCanonical(\"0\") = %d, %v", v, err)
	}
}

func TestParseHexCanonicalRejectsUppercaseAndLeadingZero(t *testing.T) {
	if _, err := parseHexCanonical("0A"); !errors.Is(err, ErrMalformedEncoding) {
		t.Fatalf("want ErrMalformedEncoding for leading zero, got %v", err)
	}
	if _, err := parseHexCanonical("A"); !errors.Is(err, ErrMalformedEncoding) {
		t.Fatalf("want ErrMalformedEncoding for uppercase, got %v", err)
	}
	if v, err := parseHexCanonical("1a"); err != nil || v != 0x1a {
		t.Fatalf("parseHexCanonical(\"1a\") = %d, %v", v, err)
	}
}
