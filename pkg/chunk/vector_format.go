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
	"github.com/daviszhen/vecexec/pkg/common"
	"github.com/daviszhen/vecexec/pkg/util"
)

// Flatten materializes a constant or dictionary vector into its own
// flat buffer of at least cnt slots.
func (vec *Vector) Flatten(cnt int) {
	if vec.PhyFormat().IsFlat() {
		return
	}
	var uni UnifiedFormat
	vec.ToUnifiedFormat(cnt, &uni)
	buf := NewStandardBuffer(vec.Typ(), max(util.DefaultVectorSize, cnt))
	mask := &util.Bitmap{}
	switch vec.Typ().GetInternalType() {
	case common.BOOL:
		gather[bool](&uni, buf.Data.([]bool), mask, cnt)
	case common.UINT8:
		gather[uint8](&uni, buf.Data.([]uint8), mask, cnt)
	case common.INT8:
		gather[int8](&uni, buf.Data.([]int8), mask, cnt)
	case common.UINT16:
		gather[uint16](&uni, buf.Data.([]uint16), mask, cnt)
	case common.INT16:
		gather[int16](&uni, buf.Data.([]int16), mask, cnt)
	case common.UINT32:
		gather[uint32](&uni, buf.Data.([]uint32), mask, cnt)
	case common.INT32:
		gather[int32](&uni, buf.Data.([]int32), mask, cnt)
	case common.UINT64:
		gather[uint64](&uni, buf.Data.([]uint64), mask, cnt)
	case common.INT64:
		gather[int64](&uni, buf.Data.([]int64), mask, cnt)
	case common.FLOAT:
		gather[float32](&uni, buf.Data.([]float32), mask, cnt)
	case common.DOUBLE:
		gather[float64](&uni, buf.Data.([]float64), mask, cnt)
	case common.VARCHAR:
		gather[string](&uni, buf.Data.([]string), mask, cnt)
	case common.DECIMAL:
		gather[common.Decimal](&uni, buf.Data.([]common.Decimal), mask, cnt)
	default:
		panic("usp")
	}
	vec._PhyFormat = PF_FLAT
	vec.own = buf
	vec.Buf = buf
	vec.Aux = nil
	vec.Data = buf.Data
	vec.Mask = mask
}

func gather[T any](uni *UnifiedFormat, dst []T, mask *util.Bitmap, cnt int) {
	src := GetSliceInPhyFormatUnifiedFormat[T](uni)
	if uni.Mask.AllValid() {
		for i := 0; i < cnt; i++ {
			dst[i] = src[uni.Sel.GetIndex(i)]
		}
		return
	}
	for i := 0; i < cnt; i++ {
		idx := uni.Sel.GetIndex(i)
		if uni.Mask.RowIsValid(uint64(idx)) {
			dst[i] = src[idx]
		} else {
			mask.SetInvalid(uint64(i))
		}
	}
}

// ToUnifiedFormat exposes the first count logical rows of vec.
// It never modifies vec.
func (vec *Vector) ToUnifiedFormat(count int, output *UnifiedFormat) {
	switch vec.PhyFormat() {
	case PF_DICT:
		sel := GetSelVectorInPhyFormatDict(vec)
		util.AssertFuncf(sel.Invalid() || sel.Len() >= count,
			"dictionary selection has %d slots, need %d", sel.Len(), count)
		child := GetChildInPhyFormatDict(vec)
		switch child.PhyFormat() {
		case PF_FLAT:
			output.Sel = sel
			output.Data = child.Data
			output.Mask = child.Mask
		case PF_CONST:
			output.Sel = zeroSelectVector()
			output.Data = child.Data
			output.Mask = child.Mask
		case PF_DICT:
			// resolve the child over the slots this dictionary reaches
			var childUni UnifiedFormat
			child.ToUnifiedFormat(maxIndex(sel, count)+1, &childUni)
			output.InterSel.SelVec = childUni.Sel.Slice(sel, count)
			output.Sel = &output.InterSel
			output.Data = childUni.Data
			output.Mask = childUni.Mask
		}
	case PF_CONST:
		util.AssertFunc(count <= util.DefaultVectorSize)
		util.AssertFuncf(vec.Capacity() >= 1, "constant vector without data")
		output.Sel = zeroSelectVector()
		output.Data = vec.Data
		output.Mask = vec.Mask
	case PF_FLAT:
		util.AssertFuncf(vec.Capacity() >= count,
			"flat vector has %d slots, need %d", vec.Capacity(), count)
		output.Sel = IdentitySelectVector()
		output.Data = vec.Data
		output.Mask = vec.Mask
	}
}

func maxIndex(sel *SelectVector, count int) int {
	if sel.Invalid() {
		return count - 1
	}
	ret := -1
	for i := 0; i < count; i++ {
		ret = max(ret, sel.GetIndex(i))
	}
	return ret
}

// SliceOnSelf turns vec into a dictionary of its current content.
func (vec *Vector) SliceOnSelf(sel *SelectVector, count int) {
	switch vec.PhyFormat() {
	case PF_CONST:
	case PF_DICT:
		curSel := GetSelVectorInPhyFormatDict(vec)
		vec.Buf = NewDictBuffer(curSel.Slice(sel, count))
	default:
		child := &Vector{
			_Typ: vec.Typ(),
		}
		child.Reference(vec)
		vec._PhyFormat = PF_DICT
		var selData []uint32
		if !sel.Invalid() {
			selData = append(selData, sel.SelVec[:count]...)
		}
		vec.Buf = NewDictBuffer(selData)
		vec.Aux = NewChildBuffer(child)
		vec.Data = nil
		vec.Mask = &util.Bitmap{}
	}
	vec.count = count
}

// Slice makes vec the rows sel of other without copying.
func (vec *Vector) Slice(other *Vector, sel *SelectVector, count int) {
	vec.Reference(other)
	vec.SliceOnSelf(sel, count)
}

// SliceRange makes vec the rows [offset, end) of a flat or constant other.
func (vec *Vector) SliceRange(other *Vector, offset int, end int) {
	vec.Reference(other)
	vec.count = end - offset
	if other.PhyFormat().IsConst() {
		return
	}
	util.AssertFunc(other.PhyFormat().IsFlat())
	if offset == 0 {
		return
	}
	vec.Data = sliceFrom(other.Data, offset)
	vec.Mask = &util.Bitmap{}
	vec.Mask.Slice(other.Mask, uint64(offset), uint64(end-offset))
}

func sliceFrom(data any, offset int) any {
	switch d := data.(type) {
	case []bool:
		return d[offset:]
	case []uint8:
		return d[offset:]
	case []int8:
		return d[offset:]
	case []uint16:
		return d[offset:]
	case []int16:
		return d[offset:]
	case []uint32:
		return d[offset:]
	case []int32:
		return d[offset:]
	case []uint64:
		return d[offset:]
	case []int64:
		return d[offset:]
	case []float32:
		return d[offset:]
	case []float64:
		return d[offset:]
	case []string:
		return d[offset:]
	case []common.Decimal:
		return d[offset:]
	default:
		panic("usp")
	}
}
