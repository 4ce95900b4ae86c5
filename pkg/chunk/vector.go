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

package chunk

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/daviszhen/vecexec/pkg/common"
	"github.com/daviszhen/vecexec/pkg/util"
)

// Vector is a batch of values of one type.
// Data is a []T where T follows the physical type of the logical type.
type Vector struct {
	_PhyFormat PhyFormat
	_Typ       common.LType
	Data       any
	Mask       *util.Bitmap
	// dictionary selection
	Buf *VecBuffer
	// dictionary child
	Aux *VecBuffer
	// buffer allocated by the vector itself
	own   *VecBuffer
	count int
}

func (vec *Vector) Init(cap int) {
	vec.Aux = nil
	vec.Mask = &util.Bitmap{}
	vec.own = NewStandardBuffer(vec.Typ(), cap)
	vec.Buf = vec.own
	vec.Data = vec.own.Data
}

func (vec *Vector) Typ() common.LType {
	return vec._Typ
}

func (vec *Vector) PhyFormat() PhyFormat {
	return vec._PhyFormat
}

// SetPhyFormat switches the format. A vector that stops being a
// dictionary or a reference falls back to its own buffer, so that
// writing it never touches data of another vector.
func (vec *Vector) SetPhyFormat(pf PhyFormat) {
	vec._PhyFormat = pf
	if pf.IsDict() {
		return
	}
	vec.Aux = nil
	if vec.own == nil || vec.Buf != vec.own {
		if vec.own == nil {
			vec.own = NewStandardBuffer(vec.Typ(), util.DefaultVectorSize)
		}
		vec.Buf = vec.own
		vec.Data = vec.own.Data
		vec.Mask = &util.Bitmap{}
	}
}

func (vec *Vector) Count() int {
	return vec.count
}

func (vec *Vector) SetCount(count int) {
	util.AssertFuncf(count >= 0 && count <= util.DefaultVectorSize,
		"vector count %d out of range [0,%d]", count, util.DefaultVectorSize)
	vec.count = count
}

// Capacity is the number of physical slots of Data.
func (vec *Vector) Capacity() int {
	if vec.Data == nil {
		return 0
	}
	return reflect.ValueOf(vec.Data).Len()
}

func (vec *Vector) Reference(other *Vector) {
	util.AssertFunc(vec.Typ().Equal(other.Typ()))
	vec.Reinterpret(other)
}

func (vec *Vector) Reinterpret(other *Vector) {
	vec._PhyFormat = other._PhyFormat
	vec.Buf = other.Buf
	vec.Aux = other.Aux
	vec.Data = other.Data
	vec.Mask = &util.Bitmap{}
	vec.Mask.ShareWith(other.Mask)
	vec.count = other.count
}

// ReferenceValue makes vec a constant of val.
func (vec *Vector) ReferenceValue(val *Value) {
	util.AssertFunc(vec.Typ().Id == val.Typ.Id)
	vec.SetPhyFormat(PF_CONST)
	vec.Mask = &util.Bitmap{}
	vec.SetValue(0, val)
}

func (vec *Vector) Reset() {
	vec._PhyFormat = PF_FLAT
	vec.Aux = nil
	if vec.own != nil {
		vec.Buf = vec.own
		vec.Data = vec.own.Data
	}
	vec.Mask = &util.Bitmap{}
	vec.count = 0
}

func (vec *Vector) GetValue(idx int) *Value {
	switch vec.PhyFormat() {
	case PF_CONST:
		idx = 0
	case PF_FLAT:
	case PF_DICT:
		sel := GetSelVectorInPhyFormatDict(vec)
		child := GetChildInPhyFormatDict(vec)
		return child.GetValue(sel.GetIndex(idx))
	default:
		panic("usp")
	}
	if !vec.Mask.RowIsValid(uint64(idx)) {
		return &Value{
			Typ:    vec.Typ(),
			IsNull: true,
		}
	}
	ret := &Value{Typ: vec.Typ()}
	switch vec.Typ().GetInternalType() {
	case common.BOOL:
		ret.Bool = vec.Data.([]bool)[idx]
	case common.INT8:
		ret.I64 = int64(vec.Data.([]int8)[idx])
	case common.INT16:
		ret.I64 = int64(vec.Data.([]int16)[idx])
	case common.INT32:
		ret.I64 = int64(vec.Data.([]int32)[idx])
	case common.INT64:
		ret.I64 = vec.Data.([]int64)[idx]
	case common.UINT8:
		ret.U64 = uint64(vec.Data.([]uint8)[idx])
	case common.UINT16:
		ret.U64 = uint64(vec.Data.([]uint16)[idx])
	case common.UINT32:
		ret.U64 = uint64(vec.Data.([]uint32)[idx])
	case common.UINT64:
		ret.U64 = vec.Data.([]uint64)[idx]
	case common.FLOAT:
		ret.F64 = float64(vec.Data.([]float32)[idx])
	case common.DOUBLE:
		ret.F64 = vec.Data.([]float64)[idx]
	case common.VARCHAR:
		ret.Str = vec.Data.([]string)[idx]
	case common.DECIMAL:
		d := vec.Data.([]common.Decimal)[idx]
		w, f, ok := d.Decimal.Int64(vec.Typ().Scale)
		if ok {
			ret.I64 = w
			ret.I64_1 = f
		} else {
			ret.Str = d.String()
		}
	default:
		panic("usp")
	}
	return ret
}

func (vec *Vector) SetValue(idx int, val *Value) {
	if vec.PhyFormat().IsDict() {
		sel := GetSelVectorInPhyFormatDict(vec)
		child := GetChildInPhyFormatDict(vec)
		child.SetValue(sel.GetIndex(idx), val)
		return
	}
	util.AssertFunc(val.Typ.GetInternalType() == vec.Typ().GetInternalType())
	vec.Mask.Set(uint64(idx), !val.IsNull)
	if val.IsNull {
		return
	}
	switch vec.Typ().GetInternalType() {
	case common.BOOL:
		vec.Data.([]bool)[idx] = val.Bool
	case common.INT8:
		vec.Data.([]int8)[idx] = int8(val.I64)
	case common.INT16:
		vec.Data.([]int16)[idx] = int16(val.I64)
	case common.INT32:
		vec.Data.([]int32)[idx] = int32(val.I64)
	case common.INT64:
		vec.Data.([]int64)[idx] = val.I64
	case common.UINT8:
		vec.Data.([]uint8)[idx] = uint8(val.U64)
	case common.UINT16:
		vec.Data.([]uint16)[idx] = uint16(val.U64)
	case common.UINT32:
		vec.Data.([]uint32)[idx] = uint32(val.U64)
	case common.UINT64:
		vec.Data.([]uint64)[idx] = val.U64
	case common.FLOAT:
		vec.Data.([]float32)[idx] = float32(val.F64)
	case common.DOUBLE:
		vec.Data.([]float64)[idx] = val.F64
	case common.VARCHAR:
		vec.Data.([]string)[idx] = val.Str
	case common.DECIMAL:
		d, err := val.Decimal()
		if err != nil {
			panic(err)
		}
		vec.Data.([]common.Decimal)[idx] = d
	default:
		panic("usp")
	}
}

func (vec *Vector) Print2(prefix string, rowCount int) {
	fields := make([]zap.Field, 0, rowCount)
	for j := 0; j < rowCount; j++ {
		val := vec.GetValue(j)
		fields = append(fields, zap.String("", val.String()))
	}
	util.Info(prefix, fields...)
}

// constant vector
func GetSliceInPhyFormatConst[T any](vec *Vector) []T {
	util.AssertFunc(vec.PhyFormat().IsConst() || vec.PhyFormat().IsFlat())
	return vec.Data.([]T)
}

func IsNullInPhyFormatConst(vec *Vector) bool {
	util.AssertFunc(vec.PhyFormat().IsConst())
	return !vec.Mask.RowIsValid(0)
}

func SetNullInPhyFormatConst(vec *Vector, null bool) {
	util.AssertFunc(vec.PhyFormat().IsConst())
	if null {
		vec.Mask.SetInvalid(0)
	} else {
		vec.Mask.Reset()
	}
}

func GetMaskInPhyFormatConst(vec *Vector) *util.Bitmap {
	util.AssertFunc(vec.PhyFormat().IsConst())
	return vec.Mask
}

// flat vector
func GetSliceInPhyFormatFlat[T any](vec *Vector) []T {
	return GetSliceInPhyFormatConst[T](vec)
}

func GetMaskInPhyFormatFlat(vec *Vector) *util.Bitmap {
	util.AssertFunc(vec.PhyFormat().IsFlat())
	return vec.Mask
}

func SetNullInPhyFormatFlat(vec *Vector, idx uint64, null bool) {
	util.AssertFunc(vec.PhyFormat().IsFlat())
	vec.Mask.Set(idx, !null)
}

// dictionary vector
func GetSelVectorInPhyFormatDict(vec *Vector) *SelectVector {
	util.AssertFunc(vec.PhyFormat().IsDict())
	return vec.Buf.GetSelVector()
}

func GetChildInPhyFormatDict(vec *Vector) *Vector {
	util.AssertFunc(vec.PhyFormat().IsDict())
	return vec.Aux.Child
}

// GenerateSequence fills start, start+increment, ... into result.
func GenerateSequence(
	result *Vector,
	count int,
	start, increment uint64,
) {
	result.SetPhyFormat(PF_FLAT)
	result.Mask.Reset()
	switch result.Typ().GetInternalType() {
	case common.UINT64:
		data := GetSliceInPhyFormatFlat[uint64](result)
		value := start
		for i := 0; i < count; i++ {
			data[i] = value
			value += increment
		}
	case common.INT64:
		data := GetSliceInPhyFormatFlat[int64](result)
		value := int64(start)
		for i := 0; i < count; i++ {
			data[i] = value
			value += int64(increment)
		}
	default:
		panic("usp")
	}
	result.SetCount(count)
}

func HasNull(input *Vector, count int) bool {
	if count == 0 {
		return false
	}
	if input.PhyFormat().IsConst() {
		return IsNullInPhyFormatConst(input)
	}
	var data UnifiedFormat
	input.ToUnifiedFormat(count, &data)
	if data.Mask.AllValid() {
		return false
	}
	for i := 0; i < count; i++ {
		idx := data.Sel.GetIndex(i)
		if !data.Mask.RowIsValid(uint64(idx)) {
			return true
		}
	}
	return false
}
