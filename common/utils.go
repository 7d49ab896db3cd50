/*
 * Copyright (c) 2021 yedf. All rights reserved.
 * Use of this source code is governed by a BSD-style
 * license that can be found in the LICENSE file.
 */

package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// E2P error to panic
func E2P(err error) {
	if err != nil {
		panic(err)
	}
}

// P2E panic to error
func P2E(perr *error) {
	if x := recover(); x != nil {
		*perr = AsError(x)
	}
}

// CatchP catch panic to error
func CatchP(f func()) (rerr error) {
	defer P2E(&rerr)
	f()
	return nil
}

// PanicIf panic if cond is true
func PanicIf(cond bool, err error) {
	if cond {
		panic(err)
	}
}

// AsError wrap a panic value as an error
func AsError(x interface{}) error {
	if e, ok := x.(error); ok {
		return e
	}
	str, ok := x.(string)
	if !ok {
		str = fmt.Sprintf("%v", x)
	}
	return errors.New(str)
}

// OrString return the first not empty string
func OrString(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}

// MustAtoi is string to int
func MustAtoi(s string) int {
	r, err := strconv.Atoi(s)
	if err != nil {
		E2P(errors.New("convert to int error: " + s))
	}
	return r
}

// MustMarshal checked version for marshal
func MustMarshal(v interface{}) []byte {
	b, err := json.Marshal(v)
	E2P(err)
	return b
}

// MustMarshalString string version of MustMarshal
func MustMarshalString(v interface{}) string {
	return string(MustMarshal(v))
}

// MustUnmarshal checked version for unmarshal
func MustUnmarshal(b []byte, obj interface{}) {
	err := json.Unmarshal(b, obj)
	E2P(err)
}

// MustUnmarshalString string version of MustUnmarshal
func MustUnmarshalString(s string, obj interface{}) {
	MustUnmarshal([]byte(s), obj)
}

// MillisToTime converts epoch milliseconds to a time in loc
func MillisToTime(ms int64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.UnixMilli(ms).In(loc)
}

// TimeToMillis converts t to epoch milliseconds
func TimeToMillis(t time.Time) int64 {
	return t.UnixMilli()
}
