package ldap

import (
	"iter"
	"slices"
	"strconv"
	"strings"
)

// RawKind identifies the shape of a RawValue.
type RawKind uint8

const (
	RawEmpty RawKind = iota
	RawSingle
	RawMany
)

func (k RawKind) String() string {
	switch k {
	case RawEmpty:
		return "empty"
	case RawSingle:
		return "single"
	case RawMany:
		return "many"
	default:
		return "RawKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// RawValue is the wire representation of one attribute: no value, one
// value, or an ordered list of values. The zero value is empty.
//
// A RawValue built through RawOf or Concat is always normalized, so the
// many form never holds fewer than two elements.
type RawValue struct {
	kind   RawKind
	single string
	many   []string
}

// Single returns a RawValue holding exactly one value.
func Single(value string) RawValue {
	return RawValue{kind: RawSingle, single: value}
}

// RawOf builds a normalized RawValue from the given values. The slice is copied.
func RawOf(values ...string) RawValue {
	switch len(values) {
	case 0:
		return RawValue{}
	case 1:
		return Single(values[0])
	default:
		return RawValue{kind: RawMany, many: slices.Clone(values)}
	}
}

// Concat joins raw values in order and re-normalizes the result.
func Concat(values ...RawValue) RawValue {
	n := 0
	for _, v := range values {
		n += v.Len()
	}

	out := make([]string, 0, n)
	for _, v := range values {
		out = v.appendTo(out)
	}

	switch len(out) {
	case 0:
		return RawValue{}
	case 1:
		return Single(out[0])
	default:
		return RawValue{kind: RawMany, many: out}
	}
}

// Concat returns r followed by other.
func (r RawValue) Concat(other RawValue) RawValue {
	return Concat(r, other)
}

func (r RawValue) Kind() RawKind {
	return r.kind
}

func (r RawValue) IsEmpty() bool {
	return r.kind == RawEmpty
}

func (r RawValue) Len() int {
	switch r.kind {
	case RawSingle:
		return 1
	case RawMany:
		return len(r.many)
	default:
		return 0
	}
}

// First returns the first value, if any.
func (r RawValue) First() (string, bool) {
	switch r.kind {
	case RawSingle:
		return r.single, true
	case RawMany:
		return r.many[0], true
	default:
		return "", false
	}
}

// Values returns a copy of the values in wire order.
func (r RawValue) Values() []string {
	return r.appendTo(nil)
}

// All iterates over the values in wire order.
func (r RawValue) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		switch r.kind {
		case RawSingle:
			yield(r.single)
		case RawMany:
			for _, v := range r.many {
				if !yield(v) {
					return
				}
			}
		}
	}
}

// Contains reports whether any value matches s under the given comparison.
func (r RawValue) Contains(s string, eq func(a, b string) bool) bool {
	for v := range r.All() {
		if eq(v, s) {
			return true
		}
	}
	return false
}

func (r RawValue) Equal(other RawValue) bool {
	if r.kind != other.kind {
		return false
	}
	switch r.kind {
	case RawSingle:
		return r.single == other.single
	case RawMany:
		return slices.Equal(r.many, other.many)
	default:
		return true
	}
}

func (r RawValue) String() string {
	switch r.kind {
	case RawSingle:
		return strconv.Quote(r.single)
	case RawMany:
		quoted := make([]string, len(r.many))
		for i, v := range r.many {
			quoted[i] = strconv.Quote(v)
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	default:
		return "<empty>"
	}
}

func (r RawValue) appendTo(dst []string) []string {
	switch r.kind {
	case RawSingle:
		return append(dst, r.single)
	case RawMany:
		return append(dst, r.many...)
	default:
		return dst
	}
}
