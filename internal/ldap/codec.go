package ldap

import (
	"errors"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Codec converts between a typed value and its RawValue form.
//
// Implementations must round-trip every value they can represent. The
// reverse is not required: a raw value carrying extra values may decode
// lossily for scalar kinds.
type Codec[T any] interface {
	Kind() string
	Encode(value T) RawValue
	Decode(raw RawValue) (T, error)
}

var errEmptyValue = errors.New("no value present")

// first returns the first raw value, failing on empty input.
func first(raw RawValue) (string, error) {
	v, ok := raw.First()
	if !ok {
		return "", errEmptyValue
	}
	return v, nil
}

// cloner is implemented by codecs whose values share memory (slices, maps,
// pointers). Clone returns a value that shares nothing with its argument.
type cloner[T any] interface {
	Clone(value T) T
}

// cloneValue copies value when codec knows how to. Values of other kinds are
// immutable and returned as is.
func cloneValue[T any](codec Codec[T], value T) T {
	if c, ok := codec.(cloner[T]); ok {
		return c.Clone(value)
	}
	return value
}

func decodeError(kind string, raw RawValue, err error) error {
	return &DecodeError{Kind: kind, Raw: raw, Err: err}
}

// String is the codec for directory strings.
var String Codec[string] = stringCodec{}

type stringCodec struct{}

func (stringCodec) Kind() string { return "string" }

func (stringCodec) Encode(value string) RawValue { return Single(value) }

func (c stringCodec) Decode(raw RawValue) (string, error) {
	v, err := first(raw)
	if err != nil {
		return "", decodeError(c.Kind(), raw, err)
	}
	return v, nil
}

// Bool is the codec for directory booleans, written as TRUE or FALSE.
var Bool Codec[bool] = boolCodec{}

type boolCodec struct{}

func (boolCodec) Kind() string { return "bool" }

func (boolCodec) Encode(value bool) RawValue {
	if value {
		return Single("TRUE")
	}
	return Single("FALSE")
}

func (c boolCodec) Decode(raw RawValue) (bool, error) {
	v, err := first(raw)
	if err != nil {
		return false, decodeError(c.Kind(), raw, err)
	}
	return strings.EqualFold(v, "TRUE"), nil
}

type signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

type unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

type signedCodec[T signed] struct {
	kind string
	bits int
}

func (c signedCodec[T]) Kind() string { return c.kind }

func (signedCodec[T]) Encode(value T) RawValue {
	return Single(strconv.FormatInt(int64(value), 10))
}

func (c signedCodec[T]) Decode(raw RawValue) (T, error) {
	v, err := first(raw)
	if err != nil {
		return 0, decodeError(c.kind, raw, err)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, c.bits)
	if err != nil {
		return 0, decodeError(c.kind, raw, err)
	}
	return T(n), nil
}

type unsignedCodec[T unsigned] struct {
	kind string
	bits int
}

func (c unsignedCodec[T]) Kind() string { return c.kind }

func (unsignedCodec[T]) Encode(value T) RawValue {
	return Single(strconv.FormatUint(uint64(value), 10))
}

func (c unsignedCodec[T]) Decode(raw RawValue) (T, error) {
	v, err := first(raw)
	if err != nil {
		return 0, decodeError(c.kind, raw, err)
	}
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, c.bits)
	if err != nil {
		return 0, decodeError(c.kind, raw, err)
	}
	return T(n), nil
}

// Integer codecs use canonical decimal text.
var (
	Int    Codec[int]    = signedCodec[int]{kind: "int", bits: strconv.IntSize}
	Int32  Codec[int32]  = signedCodec[int32]{kind: "int32", bits: 32}
	Int64  Codec[int64]  = signedCodec[int64]{kind: "int64", bits: 64}
	Uint32 Codec[uint32] = unsignedCodec[uint32]{kind: "uint32", bits: 32}
	Uint64 Codec[uint64] = unsignedCodec[uint64]{kind: "uint64", bits: 64}
)

// Float64 is the codec for floating point values.
var Float64 Codec[float64] = floatCodec{}

type floatCodec struct{}

func (floatCodec) Kind() string { return "float64" }

func (floatCodec) Encode(value float64) RawValue {
	return Single(strconv.FormatFloat(value, 'g', -1, 64))
}

func (c floatCodec) Decode(raw RawValue) (float64, error) {
	v, err := first(raw)
	if err != nil {
		return 0, decodeError(c.Kind(), raw, err)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, decodeError(c.Kind(), raw, err)
	}
	return f, nil
}

// Optional wraps a codec so that an empty raw value decodes to nil and nil
// encodes to an empty raw value.
func Optional[T any](elem Codec[T]) Codec[*T] {
	return optionalCodec[T]{elem: elem}
}

type optionalCodec[T any] struct {
	elem Codec[T]
}

func (c optionalCodec[T]) Kind() string { return "optional<" + c.elem.Kind() + ">" }

func (c optionalCodec[T]) Encode(value *T) RawValue {
	if value == nil {
		return RawValue{}
	}
	return c.elem.Encode(*value)
}

func (c optionalCodec[T]) Clone(value *T) *T {
	if value == nil {
		return nil
	}
	v := cloneValue(c.elem, *value)
	return &v
}

func (c optionalCodec[T]) Decode(raw RawValue) (*T, error) {
	if raw.IsEmpty() {
		return nil, nil
	}
	v, err := c.elem.Decode(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListOf decodes every raw value independently with elem, preserving order.
// An empty list, nil or not, encodes to an empty raw value, and an empty raw
// value decodes to a nil list.
func ListOf[T any](elem Codec[T]) Codec[[]T] {
	return listCodec[T]{elem: elem}
}

type listCodec[T any] struct {
	elem Codec[T]
}

func (c listCodec[T]) Kind() string { return "list<" + c.elem.Kind() + ">" }

func (c listCodec[T]) Encode(values []T) RawValue {
	parts := make([]RawValue, len(values))
	for i, v := range values {
		parts[i] = c.elem.Encode(v)
	}
	return Concat(parts...)
}

func (c listCodec[T]) Clone(values []T) []T {
	if values == nil {
		return nil
	}
	out := make([]T, len(values))
	for i, v := range values {
		out[i] = cloneValue(c.elem, v)
	}
	return out
}

func (c listCodec[T]) Decode(raw RawValue) ([]T, error) {
	if raw.IsEmpty() {
		return nil, nil
	}
	out := make([]T, 0, raw.Len())
	for v := range raw.All() {
		decoded, err := c.elem.Decode(Single(v))
		if err != nil {
			return nil, err
		}
		out = append(out, decoded)
	}
	return out, nil
}

// ValueSet is an unordered collection of distinct values.
type ValueSet[T comparable] map[T]struct{}

// NewValueSet returns a set holding values.
func NewValueSet[T comparable](values ...T) ValueSet[T] {
	s := make(ValueSet[T], len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s ValueSet[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// SetOf decodes raw values into a set. Encoding sorts the encoded values so
// the raw form is deterministic.
func SetOf[T comparable](elem Codec[T]) Codec[ValueSet[T]] {
	return setCodec[T]{elem: elem}
}

type setCodec[T comparable] struct {
	elem Codec[T]
}

func (c setCodec[T]) Kind() string { return "set<" + c.elem.Kind() + ">" }

func (c setCodec[T]) Encode(values ValueSet[T]) RawValue {
	encoded := make([]string, 0, len(values))
	for v := range values {
		encoded = c.elem.Encode(v).appendTo(encoded)
	}
	slices.Sort(encoded)
	return RawOf(encoded...)
}

func (setCodec[T]) Clone(values ValueSet[T]) ValueSet[T] {
	return maps.Clone(values)
}

func (c setCodec[T]) Decode(raw RawValue) (ValueSet[T], error) {
	out := make(ValueSet[T], raw.Len())
	for v := range raw.All() {
		decoded, err := c.elem.Decode(Single(v))
		if err != nil {
			return nil, err
		}
		out[decoded] = struct{}{}
	}
	return out, nil
}
