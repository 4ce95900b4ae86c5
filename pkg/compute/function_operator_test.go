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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviszhen/vecexec/pkg/chunk"
	"github.com/daviszhen/vecexec/pkg/common"
	"github.com/daviszhen/vecexec/pkg/util"
)

// logicalValues reads the first count rows of vec. NULL is nil.
func logicalValues[T any](vec *chunk.Vector, count int) []any {
	var uni chunk.UnifiedFormat
	vec.ToUnifiedFormat(count, &uni)
	data := chunk.GetSliceInPhyFormatUnifiedFormat[T](&uni)
	ret := make([]any, count)
	for i := 0; i < count; i++ {
		idx := uni.Sel.GetIndex(i)
		if uni.Mask.RowIsValid(uint64(idx)) {
			ret[i] = data[idx]
		}
	}
	return ret
}

func newResult(typ common.LType, count int) *chunk.Vector {
	vec := chunk.NewFlatVector(typ, util.DefaultVectorSize)
	vec.SetCount(count)
	return vec
}

func negInt32(in *int32, out *int32) {
	*out = -*in
}

func addInt32(l *int32, r *int32, out *int32) {
	*out = *l + *r
}

func Test_unary_execute(t *testing.T) {
	calls := 0
	op := func(in *int32, out *int32) {
		calls++
		negInt32(in, out)
	}

	input := chunk.NewFlatVectorFrom[int32](common.IntegerType(), []int32{1, 2, 3}, 1)
	result := newResult(common.IntegerType(), 3)
	UnaryExecute[int32, int32](input, result, op)
	assert.Equal(t, []any{int32(-1), nil, int32(-3)}, logicalValues[int32](result, 3))
	assert.Equal(t, 2, calls)
	assert.True(t, result.PhyFormat().IsFlat())
	//input untouched
	assert.Equal(t, []any{int32(1), nil, int32(3)}, logicalValues[int32](input, 3))

	//constant in, constant out
	calls = 0
	cinput := chunk.NewConstVectorFrom[int32](common.IntegerType(), 5, false, 100)
	result = newResult(common.IntegerType(), 100)
	UnaryExecute[int32, int32](cinput, result, op)
	assert.True(t, result.PhyFormat().IsConst())
	assert.Equal(t, 1, calls)
	assert.Equal(t, int64(-5), result.GetValue(99).I64)

	//null constant
	calls = 0
	cnull := chunk.NewConstVectorFrom[int32](common.IntegerType(), 5, true, 100)
	result = newResult(common.IntegerType(), 100)
	UnaryExecute[int32, int32](cnull, result, op)
	assert.True(t, result.PhyFormat().IsConst())
	assert.True(t, result.GetValue(0).IsNull)
	assert.Equal(t, 0, calls)
}

func Test_unary_execute_dict(t *testing.T) {
	child := chunk.NewFlatVectorFrom[int32](common.IntegerType(), []int32{10, 20, 30, 40}, 2)
	dict := chunk.NewDictVectorFrom(child, []uint32{3, 2, 0, 0})
	result := newResult(common.IntegerType(), 4)
	UnaryExecute[int32, int32](dict, result, negInt32)
	assert.Equal(t,
		[]any{int32(-40), nil, int32(-10), int32(-10)},
		logicalValues[int32](result, 4))

	//same as the flattened input
	flat := chunk.NewDictVectorFrom(child, []uint32{3, 2, 0, 0})
	flat.Flatten(4)
	expect := newResult(common.IntegerType(), 4)
	UnaryExecute[int32, int32](flat, expect, negInt32)
	assert.Equal(t, logicalValues[int32](expect, 4), logicalValues[int32](result, 4))
}

func Test_unary_execute_with_nulls(t *testing.T) {
	input := chunk.NewFlatVectorFrom[int32](common.IntegerType(), []int32{4, 0, 2})
	result := newResult(common.IntegerType(), 3)
	UnaryExecuteWithNulls[int32, int32](input, result,
		func(in *int32, out *int32, mask *util.Bitmap, idx int) {
			if *in == 0 {
				mask.SetInvalid(uint64(idx))
				return
			}
			*out = 8 / *in
		})
	assert.Equal(t, []any{int32(2), nil, int32(4)}, logicalValues[int32](result, 3))
	//the input mask is not shared with the result
	assert.True(t, input.Mask.AllValid())
}

func Test_unary_try_execute(t *testing.T) {
	input := chunk.NewFlatVectorFrom[int64](common.BigintType(), []int64{1, 300, 2})
	result := newResult(common.TinyintType(), 3)
	err := UnaryTryExecute[int64, int8](input, result, castIntegerToInteger[int64, int8])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "300")

	input = chunk.NewFlatVectorFrom[int64](common.BigintType(), []int64{1, -128, 127})
	result = newResult(common.TinyintType(), 3)
	require.NoError(t, UnaryTryExecute[int64, int8](input, result, castIntegerToInteger[int64, int8]))
	assert.Equal(t, []any{int8(1), int8(-128), int8(127)}, logicalValues[int8](result, 3))
}

func Test_binary_execute(t *testing.T) {
	left := chunk.NewFlatVectorFrom[int32](common.IntegerType(), []int32{1, 2, 3, 4}, 1)
	right := chunk.NewFlatVectorFrom[int32](common.IntegerType(), []int32{10, 20, 30, 40}, 3)
	result := newResult(common.IntegerType(), 4)
	BinaryExecute[int32, int32, int32](left, right, result, addInt32)
	assert.Equal(t, []any{int32(11), nil, int32(33), nil}, logicalValues[int32](result, 4))

	//both constant
	cl := chunk.NewConstVectorFrom[int32](common.IntegerType(), 1, false, 4)
	cr := chunk.NewConstVectorFrom[int32](common.IntegerType(), 2, false, 4)
	result = newResult(common.IntegerType(), 4)
	BinaryExecute[int32, int32, int32](cl, cr, result, addInt32)
	assert.True(t, result.PhyFormat().IsConst())
	assert.Equal(t, int64(3), result.GetValue(2).I64)

	//a null constant nulls every row
	cnull := chunk.NewConstVectorFrom[int32](common.IntegerType(), 0, true, 4)
	result = newResult(common.IntegerType(), 4)
	BinaryExecute[int32, int32, int32](left, cnull, result, addInt32)
	assert.Equal(t, []any{nil, nil, nil, nil}, logicalValues[int32](result, 4))
}

func Test_binary_execute_const_flat(t *testing.T) {
	vals := []int32{5, 6, 7, 8, 9}
	right := chunk.NewFlatVectorFrom[int32](common.IntegerType(), vals, 2)

	//a constant behaves as the flat vector repeating it
	cl := chunk.NewConstVectorFrom[int32](common.IntegerType(), 100, false, len(vals))
	fl := chunk.NewFlatVectorFrom[int32](common.IntegerType(), []int32{100, 100, 100, 100, 100})
	r1 := newResult(common.IntegerType(), len(vals))
	r2 := newResult(common.IntegerType(), len(vals))
	BinaryExecute[int32, int32, int32](cl, right, r1, addInt32)
	BinaryExecute[int32, int32, int32](fl, right, r2, addInt32)
	assert.Equal(t, logicalValues[int32](r2, len(vals)), logicalValues[int32](r1, len(vals)))

	r1 = newResult(common.IntegerType(), len(vals))
	r2 = newResult(common.IntegerType(), len(vals))
	BinaryExecute[int32, int32, int32](right, cl, r1, addInt32)
	BinaryExecute[int32, int32, int32](right, fl, r2, addInt32)
	assert.Equal(t, logicalValues[int32](r2, len(vals)), logicalValues[int32](r1, len(vals)))

	//dictionary on one side
	dict := chunk.NewDictVectorFrom(right, []uint32{4, 3, 2, 1, 0})
	r1 = newResult(common.IntegerType(), len(vals))
	BinaryExecute[int32, int32, int32](cl, dict, r1, addInt32)
	assert.Equal(t,
		[]any{int32(109), int32(108), nil, int32(106), int32(105)},
		logicalValues[int32](r1, len(vals)))
}

func Test_binary_execute_with_nulls(t *testing.T) {
	left := chunk.NewFlatVectorFrom[int64](common.BigintType(), []int64{10, 10, 10})
	right := chunk.NewFlatVectorFrom[int64](common.BigintType(), []int64{2, 0, 5}, 2)
	result := newResult(common.BigintType(), 3)
	BinaryExecuteWithNulls[int64, int64, int64](left, right, result, divIntegerOp[int64])
	assert.Equal(t, []any{int64(5), nil, nil}, logicalValues[int64](result, 3))
	//the mask of right is not modified by the division
	assert.True(t, right.Mask.RowIsValid(1))
}

func Test_binary_try_execute(t *testing.T) {
	left := chunk.NewFlatVectorFrom[int32](common.IntegerType(), []int32{1, 2147483647})
	right := chunk.NewConstVectorFrom[int32](common.IntegerType(), 1, false, 2)
	result := newResult(common.IntegerType(), 2)
	err := BinaryTryExecute[int32, int32, int32](left, right, result, addSignedCheckOf[int32])
	assert.ErrorIs(t, err, errOutOfRange)

	//null rows are not evaluated
	left = chunk.NewFlatVectorFrom[int32](common.IntegerType(), []int32{1, 2147483647}, 1)
	result = newResult(common.IntegerType(), 2)
	require.NoError(t, BinaryTryExecute[int32, int32, int32](left, right, result, addSignedCheckOf[int32]))
	assert.Equal(t, []any{int32(2), nil}, logicalValues[int32](result, 2))
}

func Test_ternary_execute(t *testing.T) {
	clamp := func(x *int64, lo *int64, hi *int64, out *int64) {
		*out = min(max(*x, *lo), *hi)
	}
	x := chunk.NewFlatVectorFrom[int64](common.BigintType(), []int64{-5, 5, 50, 7}, 3)
	lo := chunk.NewConstVectorFrom[int64](common.BigintType(), 0, false, 4)
	hi := chunk.NewDictVectorFrom(
		chunk.NewFlatVectorFrom[int64](common.BigintType(), []int64{10, 20}),
		[]uint32{0, 0, 1, 1})
	result := newResult(common.BigintType(), 4)
	TernaryExecute[int64, int64, int64, int64](x, lo, hi, result, clamp)
	assert.Equal(t, []any{int64(0), int64(5), int64(20), nil}, logicalValues[int64](result, 4))

	//all constant
	cx := chunk.NewConstVectorFrom[int64](common.BigintType(), 30, false, 4)
	chi := chunk.NewConstVectorFrom[int64](common.BigintType(), 25, false, 4)
	result = newResult(common.BigintType(), 4)
	TernaryExecute[int64, int64, int64, int64](cx, lo, chi, result, clamp)
	assert.True(t, result.PhyFormat().IsConst())
	assert.Equal(t, int64(25), result.GetValue(3).I64)

	cnull := chunk.NewConstVectorFrom[int64](common.BigintType(), 0, true, 4)
	result = newResult(common.BigintType(), 4)
	TernaryExecute[int64, int64, int64, int64](cx, cnull, chi, result, clamp)
	assert.True(t, result.GetValue(0).IsNull)
}

func Test_execute_cardinality(t *testing.T) {
	left := chunk.NewFlatVectorFrom[int32](common.IntegerType(), []int32{1, 2, 3})
	right := chunk.NewFlatVectorFrom[int32](common.IntegerType(), []int32{1, 2})
	assert.Panics(t, func() {
		BinaryExecute[int32, int32, int32](left, right, newResult(common.IntegerType(), 3), addInt32)
	})
	assert.Panics(t, func() {
		UnaryExecute[int32, int32](left, newResult(common.IntegerType(), 2), negInt32)
	})
	//result must not alias an input
	assert.Panics(t, func() {
		UnaryExecute[int32, int32](left, left, negInt32)
	})
	assert.Panics(t, func() {
		newResult(common.IntegerType(), util.DefaultVectorSize+1)
	})
}

func Test_execute_empty(t *testing.T) {
	left := chunk.NewFlatVectorFrom[int32](common.IntegerType(), []int32{})
	right := chunk.NewFlatVectorFrom[int32](common.IntegerType(), []int32{})
	result := newResult(common.IntegerType(), 0)
	BinaryExecute[int32, int32, int32](left, right, result, func(*int32, *int32, *int32) {
		t.Fatal("called on empty input")
	})
	assert.Equal(t, 0, result.Count())
}

func fmaInt64(a *int64, b *int64, c *int64, out *int64) {
	*out = *a + *b**c
}

func sum3Int64(a *int64, b *int64, c *int64, out *int64) {
	*out = *a + *b + *c
}

func int64Const(val int64, null bool, count int) *chunk.Vector {
	return chunk.NewConstVectorFrom[int64](common.BigintType(), val, null, count)
}

func Test_ternary_execute_scenarios(t *testing.T) {
	//constant inputs give one constant value for any count
	for _, count := range []int{0, 1, util.DefaultVectorSize} {
		calls := 0
		result := newResult(common.BigintType(), count)
		TernaryExecute[int64, int64, int64, int64](
			int64Const(2, false, count), int64Const(3, false, count), int64Const(4, false, count),
			result,
			func(a *int64, b *int64, c *int64, out *int64) {
				calls++
				fmaInt64(a, b, c, out)
			})
		require.True(t, result.PhyFormat().IsConst(), "count %d", count)
		assert.False(t, chunk.IsNullInPhyFormatConst(result))
		assert.Equal(t, int64(14), chunk.GetSliceInPhyFormatConst[int64](result)[0])
		assert.Equal(t, 1, calls)
		assert.Equal(t, count, result.Count())
	}

	//a null row is null in the result
	a := chunk.NewFlatVectorFrom[int64](common.BigintType(), []int64{1, 0, 3}, 1)
	b := chunk.NewFlatVectorFrom[int64](common.BigintType(), []int64{10, 20, 30})
	c := chunk.NewFlatVectorFrom[int64](common.BigintType(), []int64{100, 200, 300})
	result := newResult(common.BigintType(), 3)
	TernaryExecute[int64, int64, int64, int64](a, b, c, result, sum3Int64)
	assert.Equal(t, []any{int64(111), nil, int64(333)}, logicalValues[int64](result, 3))

	//a null constant nulls every row whatever the other operands hold
	for _, pos := range []int{0, 1, 2} {
		inputs := []*chunk.Vector{
			chunk.NewFlatVectorFrom[int64](common.BigintType(), []int64{1, 2, 3}),
			chunk.NewFlatVectorFrom[int64](common.BigintType(), []int64{4, 5, 6}),
			chunk.NewFlatVectorFrom[int64](common.BigintType(), []int64{7, 8, 9}),
		}
		inputs[pos] = int64Const(42, true, 3)
		calls := 0
		result = newResult(common.BigintType(), 3)
		TernaryExecute[int64, int64, int64, int64](inputs[0], inputs[1], inputs[2], result,
			func(a *int64, b *int64, c *int64, out *int64) {
				calls++
				sum3Int64(a, b, c, out)
			})
		assert.Equal(t, []any{nil, nil, nil}, logicalValues[int64](result, 3), "null at %d", pos)
		assert.Equal(t, 0, calls)
	}

	//a selection maps logical rows to physical slots
	buf := chunk.NewFlatVectorFrom[int64](common.BigintType(), []int64{30, 10, 20})
	dict := chunk.NewDictVectorFrom(buf, []uint32{2, 0, 1})
	assert.Equal(t, []any{int64(20), int64(30), int64(10)}, logicalValues[int64](dict, 3))
	result = newResult(common.BigintType(), 3)
	TernaryExecute[int64, int64, int64, int64](dict, int64Const(0, false, 3), int64Const(1, false, 3),
		result, fmaInt64)
	assert.Equal(t, []any{int64(20), int64(30), int64(10)}, logicalValues[int64](result, 3))
}

// flattened returns a flat copy of a constant vector.
func flattened(val int64, null bool, count int) *chunk.Vector {
	vec := int64Const(val, null, count)
	vec.Flatten(count)
	return vec
}

func Test_execute_const_equivalence(t *testing.T) {
	mix := func(a *int64, b *int64, c *int64, out *int64) {
		*out = *a*10 + *b - *c
	}
	sub := func(a *int64, b *int64, out *int64) {
		*out = *a - *b
	}
	neg := func(a *int64, out *int64) {
		*out = -*a
	}
	for _, count := range []int{0, 1, util.DefaultVectorSize} {
		vals := make([]int64, count)
		var nulls []int
		for i := range vals {
			vals[i] = int64(i * 3)
			if i%5 == 4 {
				nulls = append(nulls, i)
			}
		}
		for _, null := range []bool{false, true} {
			name := fmt.Sprintf("count=%d null=%v", count, null)
			flat := chunk.NewFlatVectorFrom[int64](common.BigintType(), vals, nulls...)
			require.True(t, flattened(7, null, count).PhyFormat().IsFlat())

			//unary
			r1 := newResult(common.BigintType(), count)
			r2 := newResult(common.BigintType(), count)
			UnaryExecute[int64, int64](int64Const(7, null, count), r1, neg)
			UnaryExecute[int64, int64](flattened(7, null, count), r2, neg)
			assert.Equal(t, logicalValues[int64](r2, count), logicalValues[int64](r1, count), name)

			//binary, the constant on either side
			r1 = newResult(common.BigintType(), count)
			r2 = newResult(common.BigintType(), count)
			BinaryExecute[int64, int64, int64](int64Const(7, null, count), flat, r1, sub)
			BinaryExecute[int64, int64, int64](flattened(7, null, count), flat, r2, sub)
			assert.Equal(t, logicalValues[int64](r2, count), logicalValues[int64](r1, count), name)
			r1 = newResult(common.BigintType(), count)
			r2 = newResult(common.BigintType(), count)
			BinaryExecute[int64, int64, int64](flat, int64Const(7, null, count), r1, sub)
			BinaryExecute[int64, int64, int64](flat, flattened(7, null, count), r2, sub)
			assert.Equal(t, logicalValues[int64](r2, count), logicalValues[int64](r1, count), name)

			//ternary, all constant and mixed
			r1 = newResult(common.BigintType(), count)
			r2 = newResult(common.BigintType(), count)
			TernaryExecute[int64, int64, int64, int64](
				int64Const(7, null, count), int64Const(2, false, count), int64Const(1, false, count), r1, mix)
			TernaryExecute[int64, int64, int64, int64](
				flattened(7, null, count), flattened(2, false, count), flattened(1, false, count), r2, mix)
			assert.Equal(t, logicalValues[int64](r2, count), logicalValues[int64](r1, count), name)
			r1 = newResult(common.BigintType(), count)
			r2 = newResult(common.BigintType(), count)
			TernaryExecute[int64, int64, int64, int64](
				flat, int64Const(7, null, count), flat, r1, mix)
			TernaryExecute[int64, int64, int64, int64](
				flat, flattened(7, null, count), flat, r2, mix)
			assert.Equal(t, logicalValues[int64](r2, count), logicalValues[int64](r1, count), name)

			//selection over the same inputs
			ts1 := chunk.NewSelectVector(util.DefaultVectorSize)
			fs1 := chunk.NewSelectVector(util.DefaultVectorSize)
			ts2 := chunk.NewSelectVector(util.DefaultVectorSize)
			fs2 := chunk.NewSelectVector(util.DefaultVectorSize)
			n1 := SelectComparison(ET_Less, flat, int64Const(3000, null, count), nil, ts1, fs1)
			n2 := SelectComparison(ET_Less, flat, flattened(3000, null, count), nil, ts2, fs2)
			require.Equal(t, n2, n1, name)
			assert.Equal(t, selIndices(ts2, n2), selIndices(ts1, n1), name)
			assert.Equal(t, selIndices(fs2, count-n2), selIndices(fs1, count-n1), name)
		}
	}
}
