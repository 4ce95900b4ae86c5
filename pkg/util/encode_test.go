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
	"bytes"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func assertOrdered[T any](t *testing.T, enc Encoder[T], vals []T) {
	keys := make([][]byte, len(vals))
	for i := range vals {
		keys[i] = enc.EncodeData(nil, &vals[i])
	}
	assert.True(t, sort.SliceIsSorted(keys, func(i, j int) bool {
		return bytes.Compare(keys[i], keys[j]) < 0
	}), "%v", vals)
}

func TestEncodeOrder(t *testing.T) {
	assertOrdered[int32](t, Int32Encoder{}, []int32{math.MinInt32, -5, -1, 0, 1, 7, math.MaxInt32})
	assertOrdered[int64](t, Int64Encoder{}, []int64{math.MinInt64, -300, 0, 300, math.MaxInt64})
	assertOrdered[int16](t, Int16Encoder{}, []int16{-300, -1, 0, 2, 300})
	assertOrdered[int8](t, Int8Encoder{}, []int8{-128, -1, 0, 127})
	assertOrdered[uint64](t, Uint64Encoder{}, []uint64{0, 1, 256, math.MaxUint64})
	assertOrdered[float64](t, Float64Encoder{}, []float64{math.Inf(-1), -2.5, -0.5, 0, 0.5, 3, math.Inf(1), math.NaN()})
	assertOrdered[float32](t, Float32Encoder{}, []float32{-2.5, -0.5, 0, 0.5, 3})
	assertOrdered[string](t, StringEncoder{}, []string{"", "a", "a\x00", "a\x00b", "ab", "b"})
	assertOrdered[bool](t, BoolEncoder{}, []bool{false, true})
}

func TestEncodeStringComposite(t *testing.T) {
	// ("a", "z") must sort before ("ab", "a")
	k1 := EncodeString(EncodeString(nil, "a"), "z")
	k2 := EncodeString(EncodeString(nil, "ab"), "a")
	assert.Equal(t, -1, bytes.Compare(k1, k2))
}
