package ldap

import (
	"time"

	ber "github.com/go-asn1-ber/asn1-ber"
)

// generalizedTimeLayout writes UTC with as many fractional second digits as
// the value needs, none for whole seconds.
const generalizedTimeLayout = "20060102150405.999999999Z"

// GeneralizedTime decodes RFC 4517 generalized time values such as
// createTimestamp. Decoded values are in UTC.
var GeneralizedTime Codec[time.Time] = generalizedTimeCodec{}

type generalizedTimeCodec struct{}

func (generalizedTimeCodec) Kind() string { return "generalizedTime" }

func (generalizedTimeCodec) Encode(value time.Time) RawValue {
	return Single(value.UTC().Format(generalizedTimeLayout))
}

func (c generalizedTimeCodec) Decode(raw RawValue) (time.Time, error) {
	v, err := first(raw)
	if err != nil {
		return time.Time{}, decodeError(c.Kind(), raw, err)
	}
	t, err := ber.ParseGeneralizedTime([]byte(v))
	if err != nil {
		return time.Time{}, decodeError(c.Kind(), raw, err)
	}
	return t.UTC(), nil
}
