// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package swarm

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// TimedValue is a snapshot of a remote-observed value at a particular point
// in time. Once constructed it is immutable; callers use the timestamp to
// reason about staleness.
type TimedValue[T any] struct {
	value T
	stamp int64
}

// NewTimedValue constructs a TimedValue from a value and a UNIX timestamp
// in seconds.
func NewTimedValue[T any](value T, stamp int64) TimedValue[T] {
	return TimedValue[T]{value: value, stamp: stamp}
}

// Value returns the observed value.
func (v TimedValue[T]) Value() T {
	return v.value
}

// Time returns the observation time.
func (v TimedValue[T]) Time() time.Time {
	return time.Unix(v.stamp, 0)
}

// RawTime returns the observation time as seconds since the UNIX epoch.
func (v TimedValue[T]) RawTime() int64 {
	return v.stamp
}

// String returns the observed value formatted with fmt.
func (v TimedValue[T]) String() string {
	return fmt.Sprintf("%v", v.value)
}

// timedValue decodes a `{value, time}` JSON object into a TimedValue using
// conv to extract the typed value.
func timedValue[T any](src gjson.Result, conv func(gjson.Result) T) TimedValue[T] {
	return TimedValue[T]{
		value: conv(src.Get("value")),
		stamp: src.Get("time").Int(),
	}
}

func asString(r gjson.Result) string { return r.String() }
func asInt(r gjson.Result) int64     { return r.Int() }
func asBool(r gjson.Result) bool     { return r.Bool() }
