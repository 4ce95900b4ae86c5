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

package compute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviszhen/vecexec/pkg/chunk"
	"github.com/daviszhen/vecexec/pkg/common"
	"github.com/daviszhen/vecexec/pkg/util"
)

func selIndices(sel *chunk.SelectVector, count int) []int {
	ret := make([]int, count)
	for i := 0; i < count; i++ {
		ret[i] = sel.GetIndex(i)
	}
	return ret
}

func Test_select_comparison(t *testing.T) {
	left := chunk.NewFlatVectorFrom[int32](common.IntegerType(), []int32{5, 1, 7, 3, 9, 2}, 4)
	right := chunk.NewConstVectorFrom[int32](common.IntegerType(), 4, false, 6)

	trueSel := chunk.NewSelectVector(util.DefaultVectorSize)
	falseSel := chunk.NewSelectVector(util.DefaultVectorSize)
	n := SelectComparison(ET_Greater, left, right, nil, trueSel, falseSel)
	require.Equal(t, 2, n)
	assert.Equal(t, []int{0, 2}, selIndices(trueSel, n))
	//null goes to the false side
	assert.Equal(t, []int{1, 3, 4, 5}, selIndices(falseSel, 6-n))

	cases := []struct {
		op     ET_SubTyp
		expect []int
	}{
		{ET_Equal, []int{}},
		{ET_NotEqual, []int{0, 1, 2, 3, 5}},
		{ET_Less, []int{1, 3, 5}},
		{ET_LessEqual, []int{1, 3, 5}},
		{ET_GreaterEqual, []int{0, 2}},
	}
	for _, c := range cases {
		t.Run(c.op.String(), func(t *testing.T) {
			n := SelectComparison(c.op, left, right, nil, trueSel, nil)
			assert.Equal(t, c.expect, selIndices(trueSel, n))
		})
	}
}

func Test_select_comparison_null_and_equal(t *testing.T) {
	//row 1 is 1 < 1, row 2 is NULL, row 3 is 9 < 3
	a := chunk.NewFlatVectorFrom[int32](common.IntegerType(), []int32{5, 1, 0, 9}, 2)
	b := chunk.NewFlatVectorFrom[int32](common.IntegerType(), []int32{6, 1, 2, 3})
	trueSel := chunk.NewSelectVector(util.DefaultVectorSize)
	falseSel := chunk.NewSelectVector(util.DefaultVectorSize)
	n := SelectComparison(ET_Less, a, b, nil, trueSel, falseSel)
	require.Equal(t, 1, n)
	assert.Equal(t, []int{0}, selIndices(trueSel, n))
	assert.Equal(t, []int{1, 2, 3}, selIndices(falseSel, 4-n))

	//same split through a predicate function
	less := BinaryPredicateFunc[int32, int32](func(l *int32, r *int32) bool {
		return *l < *r
	})
	n = BinarySelect[int32, int32](a, b, nil, trueSel, falseSel, less)
	require.Equal(t, 1, n)
	assert.Equal(t, []int{0}, selIndices(trueSel, n))
	assert.Equal(t, []int{1, 2, 3}, selIndices(falseSel, 4-n))
}

func Test_select_with_selection(t *testing.T) {
	vals := []int64{10, 20, 30, 40, 50, 60}
	left := chunk.NewFlatVectorFrom[int64](common.BigintType(), vals)
	right := chunk.NewConstVectorFrom[int64](common.BigintType(), 35, false, len(vals))

	//rows 5, 1, 3 evaluated in that order
	sel := chunk.NewSelectVectorFrom([]uint32{5, 1, 3, 0, 0, 0})
	dl := chunk.NewDictVectorFrom(left, []uint32{5, 1, 3})
	dr := chunk.NewConstVectorFrom[int64](common.BigintType(), 35, false, 3)
	trueSel := chunk.NewSelectVector(util.DefaultVectorSize)
	falseSel := chunk.NewSelectVector(util.DefaultVectorSize)
	n := SelectComparison(ET_Greater, dl, dr, sel, trueSel, falseSel)
	require.Equal(t, 2, n)
	//order of sel is kept
	assert.Equal(t, []int{5, 3}, selIndices(trueSel, n))
	assert.Equal(t, []int{1}, selIndices(falseSel, 1))

	//true side may alias the selection
	n = SelectComparison(ET_Greater, dl, dr, sel, sel, nil)
	assert.Equal(t, []int{5, 3}, selIndices(sel, n))

	//the full comparison partitions all rows
	n = SelectComparison(ET_Greater, left, right, nil, trueSel, falseSel)
	got := append(selIndices(trueSel, n), selIndices(falseSel, len(vals)-n)...)
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5}, got)
}

func Test_select_strings_decimals(t *testing.T) {
	left := chunk.NewFlatVectorFrom[string](common.VarcharType(), []string{"b", "a", "c"})
	right := chunk.NewFlatVectorFrom[string](common.VarcharType(), []string{"b", "b", "b"})
	trueSel := chunk.NewSelectVector(util.DefaultVectorSize)
	n := SelectComparison(ET_LessEqual, left, right, nil, trueSel, nil)
	assert.Equal(t, []int{0, 1}, selIndices(trueSel, n))

	decTyp := common.DecimalType(10, 2)
	dl := chunk.NewFlatVectorFrom[common.Decimal](decTyp, []common.Decimal{
		common.MustParseDecimal("1.50", 2),
		common.MustParseDecimal("2.00", 2),
		common.MustParseDecimal("0.99", 2),
	})
	dr := chunk.NewConstVectorFrom[common.Decimal](decTyp, common.MustParseDecimal("1.5", 2), false, 3)
	n = SelectComparison(ET_Equal, dl, dr, nil, trueSel, nil)
	assert.Equal(t, []int{0}, selIndices(trueSel, n))
	n = SelectComparison(ET_Less, dl, dr, nil, trueSel, nil)
	assert.Equal(t, []int{2}, selIndices(trueSel, n))
}

func Test_select_between(t *testing.T) {
	x := chunk.NewFlatVectorFrom[int32](common.IntegerType(), []int32{1, 5, 10, 15, 7}, 4)
	lo := chunk.NewConstVectorFrom[int32](common.IntegerType(), 5, false, 5)
	hi := chunk.NewConstVectorFrom[int32](common.IntegerType(), 10, false, 5)
	trueSel := chunk.NewSelectVector(util.DefaultVectorSize)
	falseSel := chunk.NewSelectVector(util.DefaultVectorSize)
	n := SelectBetween(x, lo, hi, nil, trueSel, falseSel)
	assert.Equal(t, []int{1, 2}, selIndices(trueSel, n))
	assert.Equal(t, []int{0, 3, 4}, selIndices(falseSel, 5-n))

	//a null bound matches nothing
	nullHi := chunk.NewConstVectorFrom[int32](common.IntegerType(), 0, true, 5)
	n = SelectBetween(x, lo, nullHi, nil, trueSel, falseSel)
	assert.Equal(t, 0, n)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, selIndices(falseSel, 5))
}

func Test_select_not_null(t *testing.T) {
	vec := chunk.NewFlatVectorFrom[string](common.VarcharType(), []string{"a", "", "c", "d"}, 1, 3)
	trueSel := chunk.NewSelectVector(util.DefaultVectorSize)
	falseSel := chunk.NewSelectVector(util.DefaultVectorSize)
	n := SelectNotNull(vec, nil, trueSel, falseSel)
	assert.Equal(t, []int{0, 2}, selIndices(trueSel, n))
	assert.Equal(t, []int{1, 3}, selIndices(falseSel, 4-n))

	cst := chunk.NewConstVectorFrom[string](common.VarcharType(), "x", false, 4)
	assert.Equal(t, 4, SelectNotNull(cst, nil, trueSel, falseSel))
	assert.Equal(t, []int{0, 1, 2, 3}, selIndices(trueSel, 4))
	cnull := chunk.NewConstVectorFrom[string](common.VarcharType(), "", true, 4)
	assert.Equal(t, 0, SelectNotNull(cnull, nil, trueSel, falseSel))
	assert.Equal(t, []int{0, 1, 2, 3}, selIndices(falseSel, 4))

	//counting only
	assert.Equal(t, 2, SelectNotNull(vec, nil, nil, nil))
}

func Test_select_bool(t *testing.T) {
	vec := chunk.NewFlatVectorFrom[bool](common.BooleanType(), []bool{true, false, true, true}, 3)
	trueSel := chunk.NewSelectVector(util.DefaultVectorSize)
	n := SelectBool(vec, nil, trueSel, nil)
	assert.Equal(t, []int{0, 2}, selIndices(trueSel, n))
}

func Test_select_short_selection(t *testing.T) {
	vec := chunk.NewFlatVectorFrom[int32](common.IntegerType(), []int32{1, 2, 3})
	assert.Panics(t, func() {
		SelectNotNull(vec, nil, chunk.NewSelectVector(2), nil)
	})
}
