// Package optional provides a small generic optional value with combinators.
//
// Billing aggregates are full of values that may legitimately be absent (a period
// without a declared contracted power, the first period's variation, a seasonal
// index over a zero average). Value keeps that absence explicit and lets callers
// combine optional inputs with Map and ZipWith instead of chains of nil checks.
package optional

import (
	"bytes"
	"encoding/json"
)

// Value holds either a T or nothing. The zero Value is empty.
type Value[T any] struct {
	value T
	ok    bool
}

// Some wraps a present value
func Some[T any](v T) Value[T] {
	return Value[T]{value: v, ok: true}
}

// None returns an empty value
func None[T any]() Value[T] {
	return Value[T]{}
}

// FromPtr converts a nil-able pointer into a Value
func FromPtr[T any](p *T) Value[T] {
	if p == nil {
		return None[T]()
	}
	return Some(*p)
}

// Get returns the wrapped value and whether it is present
func (o Value[T]) Get() (T, bool) {
	return o.value, o.ok
}

// IsPresent reports whether a value is held
func (o Value[T]) IsPresent() bool {
	return o.ok
}

// OrElse returns the wrapped value or def when empty
func (o Value[T]) OrElse(def T) T {
	if o.ok {
		return o.value
	}
	return def
}

// Ptr returns a pointer to a copy of the value, or nil when empty
func (o Value[T]) Ptr() *T {
	if !o.ok {
		return nil
	}
	v := o.value
	return &v
}

// Filter keeps the value only if pred holds for it
func (o Value[T]) Filter(pred func(T) bool) Value[T] {
	if o.ok && pred(o.value) {
		return o
	}
	return None[T]()
}

// Map applies f to a present value
func Map[T, U any](o Value[T], f func(T) U) Value[U] {
	if !o.ok {
		return None[U]()
	}
	return Some(f(o.value))
}

// FlatMap applies an optional-returning f to a present value
func FlatMap[T, U any](o Value[T], f func(T) Value[U]) Value[U] {
	if !o.ok {
		return None[U]()
	}
	return f(o.value)
}

// ZipWith combines two values with f when both are present
func ZipWith[A, B, C any](a Value[A], b Value[B], f func(A, B) C) Value[C] {
	if !a.ok || !b.ok {
		return None[C]()
	}
	return Some(f(a.value, b.value))
}

// MarshalJSON encodes an empty value as null
func (o Value[T]) MarshalJSON() ([]byte, error) {
	if !o.ok {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON decodes null (or a missing field) as empty
func (o *Value[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = None[T]()
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// MarshalYAML encodes an empty value as null
func (o Value[T]) MarshalYAML() (interface{}, error) {
	if !o.ok {
		return nil, nil
	}
	return o.value, nil
}
