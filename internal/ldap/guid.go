package ldap

import (
	"fmt"

	"github.com/google/uuid"
)

// GUIDBytesLength is the size of a binary objectGUID value.
const GUIDBytesLength = 16

// UUIDCodec decodes textual UUIDs such as the entryUUID operational attribute.
var UUIDCodec Codec[uuid.UUID] = uuidCodec{}

type uuidCodec struct{}

func (uuidCodec) Kind() string { return "uuid" }

func (uuidCodec) Encode(value uuid.UUID) RawValue { return Single(value.String()) }

func (c uuidCodec) Decode(raw RawValue) (uuid.UUID, error) {
	v, err := first(raw)
	if err != nil {
		return uuid.Nil, decodeError(c.Kind(), raw, err)
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, decodeError(c.Kind(), raw, err)
	}
	return id, nil
}

// GUIDCodec decodes Active Directory objectGUID values.
//
// Active Directory stores GUIDs in a mixed-endian format: Data1, Data2 and
// Data3 are little-endian while Data4 keeps its byte order.
var GUIDCodec Codec[uuid.UUID] = guidCodec{}

type guidCodec struct{}

func (guidCodec) Kind() string { return "guid" }

func (guidCodec) Encode(value uuid.UUID) RawValue {
	return Single(string(swapGUIDBytes(value[:])))
}

func (c guidCodec) Decode(raw RawValue) (uuid.UUID, error) {
	v, err := first(raw)
	if err != nil {
		return uuid.Nil, decodeError(c.Kind(), raw, err)
	}
	if len(v) != GUIDBytesLength {
		return uuid.Nil, decodeError(c.Kind(), raw,
			fmt.Errorf("invalid GUID byte length: expected %d, got %d", GUIDBytesLength, len(v)))
	}
	id, err := uuid.FromBytes(swapGUIDBytes([]byte(v)))
	if err != nil {
		return uuid.Nil, decodeError(c.Kind(), raw, err)
	}
	return id, nil
}

// swapGUIDBytes converts between RFC 4122 and Active Directory byte order.
// The conversion is its own inverse.
func swapGUIDBytes(in []byte) []byte {
	out := make([]byte, GUIDBytesLength)

	// Data1 (bytes 0-3)
	out[0], out[1], out[2], out[3] = in[3], in[2], in[1], in[0]

	// Data2 (bytes 4-5)
	out[4], out[5] = in[5], in[4]

	// Data3 (bytes 6-7)
	out[6], out[7] = in[7], in[6]

	// Data4 (bytes 8-15)
	copy(out[8:], in[8:])

	return out
}
