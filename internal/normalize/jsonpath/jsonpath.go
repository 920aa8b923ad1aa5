// Package jsonpath reads optional fields out of provider payloads without
// binding them to fixed structs. Every accessor reports absence instead of
// failing, so callers can chain lookups and pick their own fallback.
package jsonpath

import (
	"io"
	"strconv"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
)

// Parse returns the document root, or false when payload is not exactly one
// JSON value. Surrounding whitespace is allowed, trailing content is not.
func Parse(payload []byte) (jsoniter.Any, bool) {
	if len(payload) == 0 {
		return nil, false
	}
	buf, ok := single(payload)
	if !ok {
		return nil, false
	}
	root := jsoniter.Get(buf)
	if root.LastError() != nil {
		return nil, false
	}
	return root, true
}

// single reports whether payload holds one complete value and returns it
// padded with a trailing space. The padding lets a complete value end before
// the buffer does, so reaching EOF while skipping means it was cut short.
func single(payload []byte) ([]byte, bool) {
	buf := make([]byte, len(payload)+1)
	copy(buf, payload)
	buf[len(payload)] = ' '

	iter := jsoniter.ConfigDefault.BorrowIterator(buf)
	defer jsoniter.ConfigDefault.ReturnIterator(iter)
	if iter.WhatIsNext() == jsoniter.InvalidValue {
		return nil, false
	}
	iter.Skip()
	if iter.Error != nil {
		return nil, false
	}
	iter.WhatIsNext()
	return buf, iter.Error == io.EOF
}

// Lookup walks path from v. String keys index objects and int keys index
// arrays. A key repeated within one object resolves to its last value.
func Lookup(v jsoniter.Any, path ...interface{}) (jsoniter.Any, bool) {
	if v == nil {
		return nil, false
	}
	for _, step := range path {
		switch key := step.(type) {
		case string:
			if v.ValueType() != jsoniter.ObjectValue {
				return nil, false
			}
			next, ok := field(v, key)
			if !ok {
				return nil, false
			}
			v = next
		case int:
			if v.ValueType() != jsoniter.ArrayValue {
				return nil, false
			}
			v = v.Get(key)
		default:
			return nil, false
		}
	}
	if v.ValueType() == jsoniter.InvalidValue {
		return nil, false
	}
	return v, true
}

// field scans obj for the last member named key.
func field(obj jsoniter.Any, key string) (jsoniter.Any, bool) {
	iter := jsoniter.ConfigDefault.BorrowIterator([]byte(obj.ToString()))
	defer jsoniter.ConfigDefault.ReturnIterator(iter)
	var last []byte
	iter.ReadObjectCB(func(it *jsoniter.Iterator, name string) bool {
		if name != key {
			it.Skip()
			return true
		}
		last = append(last[:0], it.SkipAndReturnBytes()...)
		return true
	})
	if iter.Error != nil || last == nil {
		return nil, false
	}
	return jsoniter.Get(append(last, ' ')), true
}

// Object returns the object at path.
func Object(v jsoniter.Any, path ...interface{}) (jsoniter.Any, bool) {
	node, ok := Lookup(v, path...)
	if !ok || node.ValueType() != jsoniter.ObjectValue {
		return nil, false
	}
	return node, true
}

// Array returns the array at path.
func Array(v jsoniter.Any, path ...interface{}) (jsoniter.Any, bool) {
	node, ok := Lookup(v, path...)
	if !ok || node.ValueType() != jsoniter.ArrayValue {
		return nil, false
	}
	return node, true
}

// Each calls fn for every element of an array node.
func Each(arr jsoniter.Any, fn func(int, jsoniter.Any)) {
	if arr == nil || arr.ValueType() != jsoniter.ArrayValue {
		return
	}
	n := arr.Size()
	for i := 0; i < n; i++ {
		fn(i, arr.Get(i))
	}
}

// String returns the string at path. Other JSON types are absent.
func String(v jsoniter.Any, path ...interface{}) (string, bool) {
	node, ok := Lookup(v, path...)
	if !ok || node.ValueType() != jsoniter.StringValue {
		return "", false
	}
	return node.ToString(), true
}

// Text returns the string at path when it is valid UTF-8. JSON escapes always
// decode cleanly but raw bytes inside a string are copied through unchecked.
func Text(v jsoniter.Any, path ...interface{}) (string, bool) {
	s, ok := String(v, path...)
	if !ok || !utf8.ValidString(s) {
		return "", false
	}
	return s, true
}

// StringOr returns the string at path or fallback.
func StringOr(v jsoniter.Any, fallback string, path ...interface{}) string {
	if s, ok := String(v, path...); ok {
		return s
	}
	return fallback
}

// Int returns the integer at path. Fractional and out of range numbers are absent.
func Int(v jsoniter.Any, path ...interface{}) (int64, bool) {
	node, ok := Lookup(v, path...)
	if !ok || node.ValueType() != jsoniter.NumberValue {
		return 0, false
	}
	n, err := strconv.ParseInt(node.ToString(), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Uint returns the non-negative integer at path.
func Uint(v jsoniter.Any, path ...interface{}) (uint64, bool) {
	node, ok := Lookup(v, path...)
	if !ok || node.ValueType() != jsoniter.NumberValue {
		return 0, false
	}
	n, err := strconv.ParseUint(node.ToString(), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Bool returns the boolean at path.
func Bool(v jsoniter.Any, path ...interface{}) (bool, bool) {
	node, ok := Lookup(v, path...)
	if !ok || node.ValueType() != jsoniter.BoolValue {
		return false, false
	}
	return node.ToBool(), true
}

// ID returns an identifier stored either as a string or as an integer.
// Integers are rendered in decimal.
func ID(v jsoniter.Any, path ...interface{}) (string, bool) {
	if s, ok := String(v, path...); ok {
		return s, true
	}
	if n, ok := Int(v, path...); ok {
		return strconv.FormatInt(n, 10), true
	}
	return "", false
}

// StatusIs reports whether the integer sentinel at path equals want.
func StatusIs(v jsoniter.Any, want int64, path ...interface{}) bool {
	n, ok := Int(v, path...)
	return ok && n == want
}
