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

type VecBufferType int

const (
	// typed array of data
	VBT_STANDARD VecBufferType = iota
	VBT_DICT
	VBT_CHILD
)

type VecBuffer struct {
	BufTyp VecBufferType
	Data   any
	Sel    *SelectVector
	Child  *Vector
}

func (buf *VecBuffer) GetSelVector() *SelectVector {
	util.AssertFunc(buf.BufTyp == VBT_DICT)
	return buf.Sel
}

func NewStandardBuffer(lt common.LType, cap int) *VecBuffer {
	return &VecBuffer{
		BufTyp: VBT_STANDARD,
		Data:   newTypedSlice(lt.GetInternalType(), cap),
	}
}

func NewDictBuffer(data []uint32) *VecBuffer {
	return &VecBuffer{
		BufTyp: VBT_DICT,
		Sel: &SelectVector{
			SelVec: data,
		},
	}
}

func NewChildBuffer(child *Vector) *VecBuffer {
	return &VecBuffer{
		BufTyp: VBT_CHILD,
		Child:  child,
	}
}

func newTypedSlice(pTyp common.PhyType, cap int) any {
	switch pTyp {
	case common.BOOL:
		return make([]bool, cap)
	case common.UINT8:
		return make([]uint8, cap)
	case common.INT8:
		return make([]int8, cap)
	case common.UINT16:
		return make([]uint16, cap)
	case common.INT16:
		return make([]int16, cap)
	case common.UINT32:
		return make([]uint32, cap)
	case common.INT32:
		return make([]int32, cap)
	case common.UINT64:
		return make([]uint64, cap)
	case common.INT64:
		return make([]int64, cap)
	case common.FLOAT:
		return make([]float32, cap)
	case common.DOUBLE:
		return make([]float64, cap)
	case common.VARCHAR:
		return make([]string, cap)
	case common.DECIMAL:
		return make([]common.Decimal, cap)
	default:
		panic("usp " + pTyp.String())
	}
}
