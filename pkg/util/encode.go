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
	"encoding/binary"
	"math"
)

// Order preserving key encoding.
// Encoded keys compare with bytes.Compare in the same order as the values.

func FlipSign(b uint8) uint8 {
	return b ^ 128
}

type Encoder[T any] interface {
	// EncodeData appends the encoding of value to dst.
	EncodeData(dst []byte, value *T) []byte
}

type BoolEncoder struct{}

func (BoolEncoder) EncodeData(dst []byte, value *bool) []byte {
	if *value {
		return append(dst, 1)
	}
	return append(dst, 0)
}

type Int8Encoder struct{}

func (Int8Encoder) EncodeData(dst []byte, value *int8) []byte {
	return append(dst, FlipSign(uint8(*value)))
}

type Int16Encoder struct{}

func (Int16Encoder) EncodeData(dst []byte, value *int16) []byte {
	dst = binary.BigEndian.AppendUint16(dst, uint16(*value))
	dst[len(dst)-2] = FlipSign(dst[len(dst)-2])
	return dst
}

type Int32Encoder struct{}

func (Int32Encoder) EncodeData(dst []byte, value *int32) []byte {
	return EncodeInt32(dst, *value)
}

type Int64Encoder struct{}

func (Int64Encoder) EncodeData(dst []byte, value *int64) []byte {
	return EncodeInt64(dst, *value)
}

type Uint8Encoder struct{}

func (Uint8Encoder) EncodeData(dst []byte, value *uint8) []byte {
	return append(dst, *value)
}

type Uint16Encoder struct{}

func (Uint16Encoder) EncodeData(dst []byte, value *uint16) []byte {
	return binary.BigEndian.AppendUint16(dst, *value)
}

type Uint32Encoder struct{}

func (Uint32Encoder) EncodeData(dst []byte, value *uint32) []byte {
	return binary.BigEndian.AppendUint32(dst, *value)
}

type Uint64Encoder struct{}

func (Uint64Encoder) EncodeData(dst []byte, value *uint64) []byte {
	return binary.BigEndian.AppendUint64(dst, *value)
}

type Float32Encoder struct{}

func (Float32Encoder) EncodeData(dst []byte, value *float32) []byte {
	bits := math.Float32bits(*value)
	if math.IsNaN(float64(*value)) {
		bits = math.MaxUint32
	} else if bits&(1<<31) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 31
	}
	return binary.BigEndian.AppendUint32(dst, bits)
}

type Float64Encoder struct{}

func (Float64Encoder) EncodeData(dst []byte, value *float64) []byte {
	return EncodeFloat64(dst, *value)
}

type StringEncoder struct{}

func (StringEncoder) EncodeData(dst []byte, value *string) []byte {
	return EncodeString(dst, *value)
}

func EncodeInt32(dst []byte, value int32) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(value))
	dst[len(dst)-4] = FlipSign(dst[len(dst)-4])
	return dst
}

func EncodeInt64(dst []byte, value int64) []byte {
	dst = binary.BigEndian.AppendUint64(dst, uint64(value))
	dst[len(dst)-8] = FlipSign(dst[len(dst)-8])
	return dst
}

// EncodeFloat64 puts negatives before positives and NaN last.
func EncodeFloat64(dst []byte, value float64) []byte {
	bits := math.Float64bits(value)
	if math.IsNaN(value) {
		bits = math.MaxUint64
	} else if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	return binary.BigEndian.AppendUint64(dst, bits)
}

// EncodeString escapes 0x00 as 0x00 0xFF and terminates with 0x00 0x00,
// so that a prefix sorts before its extensions in composite keys.
func EncodeString(dst []byte, value string) []byte {
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c == 0 {
			dst = append(dst, 0, 0xFF)
		} else {
			dst = append(dst, c)
		}
	}
	return append(dst, 0, 0)
}
