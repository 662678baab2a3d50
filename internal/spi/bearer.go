// Package spi carries the broadcast bearer identity model and its canonical
// string codec. Bearer strings are a stable external contract: any persisted
// or logged identity must match the encoded form bit-exactly.
package spi

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
)

// BearerKind tags the bearer variant.
type BearerKind int

const (
	// BearerDAB is a digital terrestrial (DAB) bearer.
	BearerDAB BearerKind = iota
	// BearerFM is an analog FM bearer with RDS programme identification.
	BearerFM
	// BearerIP is an IP stream bearer, identified by its URI alone.
	BearerIP
)

func (k BearerKind) String() string {
	switch k {
	case BearerDAB:
		return "dab"
	case BearerFM:
		return "fm"
	case BearerIP:
		return "ip"
	}
	return "unknown"
}

// Bearer is a tagged variant over the three bearer kinds. Only the fields of
// the active kind are meaningful. Cost and Offset are optional payload shared
// by every variant. Two bearers are equal iff their canonical strings are
// equal; use Equal, not ==.
type Bearer struct {
	Kind BearerKind

	// DAB
	ECC   int // extended country code
	EId   int // ensemble identifier
	SId   int // service identifier; >0xFFFF is the long form embedding ECC/CC
	SCIdS int // service component identifier within the service
	XPAD  *int

	// FM
	PI        int // RDS programme identification code
	Frequency int // Hz

	// IP
	URI string

	// Variant-common optional payload.
	Cost   *int
	Offset *int
}

// NewDABBearer builds a DAB bearer with SCIdS defaulted to 0.
func NewDABBearer(ecc, eid, sid int) Bearer {
	return Bearer{Kind: BearerDAB, ECC: ecc, EId: eid, SId: sid}
}

// NewFMBearer builds an FM bearer. frequency is in Hz and must be a multiple
// of 10 to survive encoding.
func NewFMBearer(ecc, pi, frequency int) Bearer {
	return Bearer{Kind: BearerFM, ECC: ecc, PI: pi, Frequency: frequency}
}

// NewIPBearer builds an IP stream bearer.
func NewIPBearer(uri string) Bearer {
	return Bearer{Kind: BearerIP, URI: uri}
}

// String encodes the canonical bearer identity:
//
//	dab:<gcc>.<eid>.<sid>.<scids>[.<xpad>]   all hex, fixed widths
//	fm:<gcc>.<pi>.<frequency/10>             gcc/pi hex, frequency decimal
//	<uri>                                    IP streams pass through verbatim
//
// The DAB GCC combines the first nibble of the EId with the ECC.
func (b Bearer) String() string {
	switch b.Kind {
	case BearerDAB:
		uri := fmt.Sprintf("dab:%03x.%04x.%04x.%01x", (b.EId>>4&0xf00)+b.ECC, b.EId, b.SId, b.SCIdS)
		if b.XPAD != nil {
			uri += fmt.Sprintf(".%04x", *b.XPAD)
		}
		return uri
	case BearerFM:
		return fmt.Sprintf("fm:%03x.%04x.%05d", (b.PI>>4&0xf00)+b.ECC, b.PI, b.Frequency/10)
	default:
		return b.URI
	}
}

// Equal reports canonical-string equality.
func (b Bearer) Equal(o Bearer) bool { return b.String() == o.String() }

// MarshalJSON emits the canonical string form.
func (b Bearer) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(b.String())), nil
}

// GCC derives the composite country code used for directory lookups.
//
// For DAB, a long SId (>0xFFFF) embeds its own ECC and country-code nibble;
// a short SId borrows the bearer's ECC and contributes only its first nibble.
// For FM the programme code's first nibble combines with the ECC.
func (b Bearer) GCC() int {
	switch b.Kind {
	case BearerDAB:
		if b.SId > 0xFFFF {
			return (b.SId >> 12 & 0xf00) + (b.SId >> 24)
		}
		return (b.SId >> 4 & 0xf00) + b.ECC
	case BearerFM:
		return (b.PI >> 4 & 0xf00) + b.ECC
	}
	return 0
}

// ErrInvalidBearer reports a bearer string that fails to decode.
var ErrInvalidBearer = errors.New("invalid bearer format")

var (
	dabPattern = regexp.MustCompile(`^dab:([0-9a-fA-F]{3})\.([0-9a-fA-F]{4})\.([0-9a-fA-F]{4})\.([0-9a-fA-F])(?:\.([0-9a-fA-F]{4}))?$`)
	fmPattern  = regexp.MustCompile(`^fm:([0-9a-fA-F]{3})\.([0-9a-fA-F]{4})\.([0-9]{5})$`)
)

// ParseBearer decodes a canonical bearer string. Field widths are validated
// exactly; anything that matches neither the dab: nor fm: layout must be a
// URI with a scheme to be accepted as an IP stream bearer.
func ParseBearer(s string) (Bearer, error) {
	switch {
	case len(s) >= 4 && s[:4] == "dab:":
		m := dabPattern.FindStringSubmatch(s)
		if m == nil {
			return Bearer{}, fmt.Errorf("%w: %q does not match the dab layout", ErrInvalidBearer, s)
		}
		gcc, _ := strconv.ParseInt(m[1], 16, 32)
		eid, _ := strconv.ParseInt(m[2], 16, 32)
		sid, _ := strconv.ParseInt(m[3], 16, 64)
		scids, _ := strconv.ParseInt(m[4], 16, 32)
		b := Bearer{Kind: BearerDAB, ECC: int(gcc) & 0xff, EId: int(eid), SId: int(sid), SCIdS: int(scids)}
		if m[5] != "" {
			xpad64, _ := strconv.ParseInt(m[5], 16, 32)
			xpad := int(xpad64)
			b.XPAD = &xpad
		}
		return b, nil

	case len(s) >= 3 && s[:3] == "fm:":
		m := fmPattern.FindStringSubmatch(s)
		if m == nil {
			return Bearer{}, fmt.Errorf("%w: %q does not match the fm layout", ErrInvalidBearer, s)
		}
		gcc, _ := strconv.ParseInt(m[1], 16, 32)
		pi, _ := strconv.ParseInt(m[2], 16, 32)
		freq, _ := strconv.Atoi(m[3])
		return Bearer{Kind: BearerFM, ECC: int(gcc) & 0xff, PI: int(pi), Frequency: freq * 10}, nil

	default:
		u, err := url.Parse(s)
		if err != nil || u.Scheme == "" {
			return Bearer{}, fmt.Errorf("%w: %q has no recognized scheme", ErrInvalidBearer, s)
		}
		return Bearer{Kind: BearerIP, URI: s}, nil
	}
}
