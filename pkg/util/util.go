// Copyright 2023-2024 daviszhen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package util

import (
	"math"
	"os"

	"github.com/cockroachdb/errors"
)

const (
	DefaultVectorSize = 2048
)

// AssertFunc panics with an assertion failure when b is false.
func AssertFunc(b bool) {
	if !b {
		panic(errors.AssertionFailedWithDepthf(1, "assertion failed"))
	}
}

// AssertFuncf is AssertFunc with a formatted message.
func AssertFuncf(b bool, format string, args ...interface{}) {
	if !b {
		panic(errors.AssertionFailedWithDepthf(1, format, args...))
	}
}

type Pair[K any, V any] struct {
	First  K
	Second V
}

func FileIsValid(path string) bool {
	stat, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !stat.IsDir()
}

// ConvertPanicError turns a recovered value into an error.
func ConvertPanicError(v interface{}) error {
	if err, ok := v.(error); ok {
		return errors.Wrap(err, "panic")
	}
	return errors.Newf("panic %v", v)
}

// RecoverPanic runs fn and reports a panic inside it as an error.
func RecoverPanic(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ConvertPanicError(r)
		}
	}()
	return fn()
}

// GreaterFloat orders NaN above every other value.
func GreaterFloat[T ~float32 | ~float64](lhs, rhs T) bool {
	lIsNan := math.IsNaN(float64(lhs))
	rIsNan := math.IsNaN(float64(rhs))
	if rIsNan {
		return false
	}
	if lIsNan {
		return true
	}
	return lhs > rhs
}

func EqualFloat[T ~float32 | ~float64](lhs, rhs T) bool {
	if math.IsNaN(float64(lhs)) && math.IsNaN(float64(rhs)) {
		return true
	}
	return lhs == rhs
}

func Back[T any](data []T) T {
	l := len(data)
	if l == 0 {
		panic("empty slice")
	}
	return data[l-1]
}

func Fill[T any](data []T, count int, val T) {
	for i := 0; i < count; i++ {
		data[i] = val
	}
}
