package ldap

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/go-objectsid"
)

// SID is a Windows security identifier in its S-1-… string form.
type SID string

func (s SID) String() string {
	return string(s)
}

// SIDCodec decodes binary objectSid values.
var SIDCodec Codec[SID] = sidCodec{}

type sidCodec struct{}

func (sidCodec) Kind() string { return "sid" }

func (sidCodec) Encode(value SID) RawValue {
	b, err := encodeSID(string(value))
	if err != nil {
		// Not a well-formed SID: keep the text so nothing is lost on the wire.
		return Single(string(value))
	}
	return Single(string(b))
}

func (c sidCodec) Decode(raw RawValue) (SID, error) {
	v, err := first(raw)
	if err != nil {
		return "", decodeError(c.Kind(), raw, err)
	}
	// Header is revision, sub-authority count and a 6 byte authority.
	if len(v) < 8 || len(v) != 8+4*int(v[1]) {
		return "", decodeError(c.Kind(), raw, fmt.Errorf("invalid SID length %d", len(v)))
	}
	return SID(objectsid.Decode([]byte(v)).String()), nil
}

// encodeSID converts S-R-A-S1-S2-… into its binary form.
func encodeSID(sid string) ([]byte, error) {
	parts := strings.Split(sid, "-")
	if len(parts) < 3 || parts[0] != "S" {
		return nil, fmt.Errorf("invalid SID format: must start with 'S-'")
	}

	revision, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("invalid SID revision: %w", err)
	}
	authority, err := strconv.ParseUint(parts[2], 10, 48)
	if err != nil {
		return nil, fmt.Errorf("invalid SID authority: %w", err)
	}

	subs := parts[3:]
	if len(subs) > 15 {
		return nil, fmt.Errorf("too many SID sub-authorities: %d", len(subs))
	}

	out := make([]byte, 8, 8+4*len(subs))
	out[0] = byte(revision)
	out[1] = byte(len(subs))
	for i := range 6 {
		out[2+i] = byte(authority >> (8 * (5 - i)))
	}
	for _, s := range subs {
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid SID sub-authority %q: %w", s, err)
		}
		out = binary.LittleEndian.AppendUint32(out, uint32(n))
	}

	return out, nil
}
