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
	"github.com/daviszhen/vecexec/pkg/util"
)

// SelectVector maps a logical row to a physical slot.
// An empty SelVec is the identity.
type SelectVector struct {
	SelVec []uint32
}

var (
	zeroSel = SelectVector{
		SelVec: make([]uint32, util.DefaultVectorSize),
	}
	identitySel = SelectVector{}
)

// zeroSelectVector maps every row to slot 0. It is shared and read only.
func zeroSelectVector() *SelectVector {
	return &zeroSel
}

// IdentitySelectVector is shared and read only.
func IdentitySelectVector() *SelectVector {
	return &identitySel
}

func NewSelectVector(count int) *SelectVector {
	vec := &SelectVector{}
	vec.Init(count)
	return vec
}

func NewSelectVectorFrom(tuples []uint32) *SelectVector {
	return &SelectVector{SelVec: tuples}
}

// NewIncrSelectVector holds start, start+1, ..., start+count-1.
func NewIncrSelectVector(start, count int) *SelectVector {
	vec := NewSelectVector(max(count, util.DefaultVectorSize))
	for i := 0; i < count; i++ {
		vec.SetIndex(i, start+i)
	}
	return vec
}

func (svec *SelectVector) Invalid() bool {
	return len(svec.SelVec) == 0
}

func (svec *SelectVector) isShared() bool {
	return svec == &zeroSel || svec == &identitySel
}

func (svec *SelectVector) Init(cnt int) {
	util.AssertFuncf(!svec.isShared(), "init of a shared selection vector")
	svec.SelVec = make([]uint32, cnt)
}

func (svec *SelectVector) Len() int {
	return len(svec.SelVec)
}

func (svec *SelectVector) GetIndex(idx int) int {
	if svec.Invalid() {
		return idx
	}
	return int(svec.SelVec[idx])
}

func (svec *SelectVector) SetIndex(idx int, index int) {
	util.AssertFuncf(!svec.isShared(), "write to a shared selection vector")
	svec.SelVec[idx] = uint32(index)
}

// Slice composes: result[i] = svec[sel[i]].
func (svec *SelectVector) Slice(sel *SelectVector, count int) []uint32 {
	data := make([]uint32, count)
	for i := 0; i < count; i++ {
		data[i] = uint32(svec.GetIndex(sel.GetIndex(i)))
	}
	return data
}

// Indices returns the first count entries as ints.
func (svec *SelectVector) Indices(count int) []int {
	ret := make([]int, count)
	for i := 0; i < count; i++ {
		ret[i] = svec.GetIndex(i)
	}
	return ret
}
