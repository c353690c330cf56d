// Package types contains value types shared by the domain packages: an
// explicit optional and the tagged cell value used by report tables.
package types

import (
	"encoding/json"
	"strconv"
	"time"
)

// TimeLayout is the day-first rendering used for timestamps in reports.
const TimeLayout = "02/01/2006 15:04:05"

// Optional holds a value that may be absent. The zero Optional is absent.
type Optional[T any] struct {
	value T
	ok    bool
}

// Some wraps a present value.
func Some[T any](v T) Optional[T] { return Optional[T]{value: v, ok: true} }

// None returns an absent value.
func None[T any]() Optional[T] { return Optional[T]{} }

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) { return o.value, o.ok }

// IsSet reports whether the value is present.
func (o Optional[T]) IsSet() bool { return o.ok }

// OrElse returns the value, or d when absent.
func (o Optional[T]) OrElse(d T) T {
	if o.ok {
		return o.value
	}
	return d
}

// Kind tags the payload of a Value.
type Kind uint8

// Value kinds.
const (
	KindAbsent Kind = iota
	KindText
	KindNumber
	KindInteger
	KindTime
)

// Value is one table cell. Absent is distinct from empty text: absent cells
// come from columns a row never had.
type Value struct {
	kind    Kind
	text    string
	num     float64
	integer int64
	ts      time.Time
}

// Absent returns the absent value.
func Absent() Value { return Value{} }

// Text returns a text value, even when s is empty.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// TextOrAbsent treats an empty string as not supplied.
func TextOrAbsent(s string) Value {
	if s == "" {
		return Absent()
	}
	return Text(s)
}

// Number returns a float value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Integer returns an integer value.
func Integer(i int64) Value { return Value{kind: KindInteger, integer: i} }

// Time returns a timestamp value.
func Time(t time.Time) Value { return Value{kind: KindTime, ts: t} }

// FromFloat converts an optional float, keeping absence.
func FromFloat(o Optional[float64]) Value {
	if v, ok := o.Get(); ok {
		return Number(v)
	}
	return Absent()
}

// FromInt converts an optional int, keeping absence.
func FromInt(o Optional[int]) Value {
	if v, ok := o.Get(); ok {
		return Integer(int64(v))
	}
	return Absent()
}

// FromTime converts an optional timestamp, keeping absence.
func FromTime(o Optional[time.Time]) Value {
	if v, ok := o.Get(); ok {
		return Time(v)
	}
	return Absent()
}

// Kind returns the value tag.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether the cell has no value.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// String renders the value for display. Absent renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindInteger:
		return strconv.FormatInt(v.integer, 10)
	case KindTime:
		return v.ts.Format(TimeLayout)
	default:
		return ""
	}
}

// Raw returns the Go value carried by v: nil, string, float64, int64 or time.Time.
func (v Value) Raw() any {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return v.num
	case KindInteger:
		return v.integer
	case KindTime:
		return v.ts
	default:
		return nil
	}
}

// MarshalJSON encodes absent as null and timestamps in TimeLayout.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindAbsent:
		return []byte("null"), nil
	case KindTime:
		return json.Marshal(v.String())
	default:
		return json.Marshal(v.Raw())
	}
}
