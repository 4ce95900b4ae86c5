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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviszhen/vecexec/pkg/common"
	"github.com/daviszhen/vecexec/pkg/util"
)

func TestChunkSliceAndAppend(t *testing.T) {
	src := &Chunk{}
	src.Init([]common.LType{common.IntegerType(), common.VarcharType()}, util.DefaultVectorSize)
	for i := 0; i < 4; i++ {
		src.Data[0].SetValue(i, IntegerValue(int32(i)))
		src.Data[1].SetValue(i, VarcharValue(string(rune('a'+i))))
	}
	src.SetCard(4)

	sliced := &Chunk{}
	sliced.Init(src.Types(), util.DefaultVectorSize)
	sliced.Slice(src, NewSelectVectorFrom([]uint32{3, 1}), 2, 0)
	require.Equal(t, 2, sliced.Card())
	assert.Equal(t, [][]string{{"3", "d"}, {"1", "b"}}, sliced.Rows())

	dst := &Chunk{}
	dst.Init(src.Types(), util.DefaultVectorSize)
	dst.Append(src)
	dst.Append(sliced)
	assert.Equal(t, 6, dst.Card())
	assert.Equal(t, []string{"1", "b"}, dst.Rows()[5])
	for _, vec := range dst.Data {
		assert.Equal(t, 6, vec.Count())
	}

	sliced.Flatten()
	assert.Equal(t, PF_FLAT, sliced.Data[1].PhyFormat())
	assert.Equal(t, [][]string{{"3", "d"}, {"1", "b"}}, sliced.Rows())
}

func TestSelectVector(t *testing.T) {
	inner := NewSelectVectorFrom([]uint32{5, 6, 7, 8})
	outer := NewSelectVectorFrom([]uint32{3, 0})
	assert.Equal(t, []uint32{8, 5}, inner.Slice(outer, 2))
	assert.Equal(t, 3, IdentitySelectVector().GetIndex(3))
	assert.Equal(t, 0, zeroSelectVector().GetIndex(2047))
	assert.Equal(t, []int{2, 3, 4}, NewIncrSelectVector(2, 3).Indices(3))
}

func TestSharedSelectVectorReadOnly(t *testing.T) {
	vec := NewConstVectorFrom[int32](common.IntegerType(), 7, false, 10)
	var uni UnifiedFormat
	vec.ToUnifiedFormat(10, &uni)
	assert.Panics(t, func() {
		uni.Sel.SetIndex(0, 5)
	})
	assert.Panics(t, func() {
		IdentitySelectVector().Init(4)
	})
	assert.Equal(t, 0, uni.Sel.GetIndex(9))

	//later constant normalizations still read slot 0
	var other UnifiedFormat
	NewConstVectorFrom[int32](common.IntegerType(), 8, false, 3).ToUnifiedFormat(3, &other)
	assert.Equal(t, 0, other.Sel.GetIndex(1))
}
