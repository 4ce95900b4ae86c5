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

func NewVector(lTyp common.LType, initData bool, cap int) *Vector {
	vec := &Vector{
		_PhyFormat: PF_FLAT,
		_Typ:       lTyp,
		Mask:       &util.Bitmap{},
	}
	if initData {
		vec.Init(cap)
	}
	return vec
}

func NewFlatVector(lTyp common.LType, cap int) *Vector {
	return NewVector(lTyp, true, cap)
}

func NewConstVector(lTyp common.LType) *Vector {
	vec := NewVector(lTyp, true, util.DefaultVectorSize)
	vec.SetPhyFormat(PF_CONST)
	return vec
}

func NewEmptyVector(typ common.LType, pf PhyFormat, cap int) *Vector {
	var vec *Vector
	switch pf {
	case PF_FLAT:
		vec = NewFlatVector(typ, cap)
	case PF_CONST:
		vec = NewConstVector(typ)
	default:
		panic("usp")
	}
	return vec
}

// NewFlatVectorFrom copies vals into a flat vector with count len(vals).
// Rows listed in nulls are NULL.
func NewFlatVectorFrom[T any](typ common.LType, vals []T, nulls ...int) *Vector {
	vec := NewFlatVector(typ, max(len(vals), util.DefaultVectorSize))
	copy(GetSliceInPhyFormatFlat[T](vec), vals)
	for _, idx := range nulls {
		SetNullInPhyFormatFlat(vec, uint64(idx), true)
	}
	vec.SetCount(len(vals))
	return vec
}

// NewConstVectorFrom broadcasts val to count rows.
func NewConstVectorFrom[T any](typ common.LType, val T, null bool, count int) *Vector {
	vec := NewConstVector(typ)
	GetSliceInPhyFormatConst[T](vec)[0] = val
	SetNullInPhyFormatConst(vec, null)
	vec.SetCount(count)
	return vec
}

// NewDictVectorFrom is a dictionary over child with selection sel.
func NewDictVectorFrom(child *Vector, sel []uint32) *Vector {
	vec := NewVector(child.Typ(), false, 0)
	vec.Slice(child, NewSelectVectorFrom(sel), len(sel))
	return vec
}

func NewUbigintFlatVector(v []uint64, sz int) *Vector {
	vec := NewFlatVector(common.UbigintType(), sz)
	copy(GetSliceInPhyFormatFlat[uint64](vec), v)
	vec.SetCount(len(v))
	return vec
}

// Copy copies rows [srcOffset, srcCount) of src, addressed through selP,
// into dst starting at dstOffset.
func Copy(
	srcP *Vector,
	dstP *Vector,
	selP *SelectVector,
	srcCount int,
	srcOffset int,
	dstOffset int,
) {
	util.AssertFunc(srcOffset <= srcCount)
	util.AssertFunc(srcP.Typ().GetInternalType() == dstP.Typ().GetInternalType())
	copyCount := srcCount - srcOffset
	if copyCount == 0 {
		return
	}

	// resolve dictionaries down to a flat or constant source
	sel := selP
	if sel == nil {
		sel = IdentitySelectVector()
	}
	src := srcP
	for finished := false; !finished; {
		switch src.PhyFormat() {
		case PF_DICT:
			dictSel := GetSelVectorInPhyFormatDict(src)
			sel = NewSelectVectorFrom(dictSel.Slice(sel, srcCount))
			src = GetChildInPhyFormatDict(src)
		case PF_CONST:
			sel = zeroSelectVector()
			finished = true
		case PF_FLAT:
			finished = true
		default:
			panic("usp")
		}
	}

	if !dstP.PhyFormat().IsFlat() {
		dstP.SetPhyFormat(PF_FLAT)
	}
	util.AssertFuncf(dstP.Capacity() >= dstOffset+copyCount,
		"copy of %d rows overflows %d slots", dstOffset+copyCount, dstP.Capacity())

	//copy bitmap
	dstBitmap := GetMaskInPhyFormatFlat(dstP)
	srcBitmap := src.Mask
	if !srcBitmap.AllValid() || !dstBitmap.AllValid() {
		if dstBitmap.AllValid() {
			dstBitmap.Init(max(util.DefaultVectorSize, dstOffset+copyCount))
		}
		for i := 0; i < copyCount; i++ {
			idx := sel.GetIndex(srcOffset + i)
			dstBitmap.Set(uint64(dstOffset+i), srcBitmap.RowIsValid(uint64(idx)))
		}
	}

	//copy data
	switch src.Typ().GetInternalType() {
	case common.BOOL:
		TemplatedCopy[bool](src, sel, dstP, srcOffset, dstOffset, copyCount)
	case common.UINT8:
		TemplatedCopy[uint8](src, sel, dstP, srcOffset, dstOffset, copyCount)
	case common.INT8:
		TemplatedCopy[int8](src, sel, dstP, srcOffset, dstOffset, copyCount)
	case common.UINT16:
		TemplatedCopy[uint16](src, sel, dstP, srcOffset, dstOffset, copyCount)
	case common.INT16:
		TemplatedCopy[int16](src, sel, dstP, srcOffset, dstOffset, copyCount)
	case common.UINT32:
		TemplatedCopy[uint32](src, sel, dstP, srcOffset, dstOffset, copyCount)
	case common.INT32:
		TemplatedCopy[int32](src, sel, dstP, srcOffset, dstOffset, copyCount)
	case common.UINT64:
		TemplatedCopy[uint64](src, sel, dstP, srcOffset, dstOffset, copyCount)
	case common.INT64:
		TemplatedCopy[int64](src, sel, dstP, srcOffset, dstOffset, copyCount)
	case common.FLOAT:
		TemplatedCopy[float32](src, sel, dstP, srcOffset, dstOffset, copyCount)
	case common.DOUBLE:
		TemplatedCopy[float64](src, sel, dstP, srcOffset, dstOffset, copyCount)
	case common.VARCHAR:
		TemplatedCopy[string](src, sel, dstP, srcOffset, dstOffset, copyCount)
	case common.DECIMAL:
		TemplatedCopy[common.Decimal](src, sel, dstP, srcOffset, dstOffset, copyCount)
	default:
		panic("usp")
	}
}

func TemplatedCopy[T any](
	src *Vector,
	sel *SelectVector,
	dst *Vector,
	srcOffset int,
	dstOffset int,
	copyCount int,
) {
	srcSlice := src.Data.([]T)
	dstSlice := GetSliceInPhyFormatFlat[T](dst)
	for i := 0; i < copyCount; i++ {
		srcIdx := sel.GetIndex(srcOffset + i)
		dstSlice[dstOffset+i] = srcSlice[srcIdx]
	}
}
