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
	"github.com/daviszhen/vecexec/pkg/chunk"
	"github.com/daviszhen/vecexec/pkg/util"
)

type UnaryOp[T any, R any] func(input *T, result *R)

type UnaryFunc[T any, R any] func(input *T, result *R, mask *util.Bitmap, idx int)

type UnaryWrapper[T any, R any] interface {
	operation(input *T, result *R, mask *util.Bitmap, idx int, fun UnaryFunc[T, R])
}

type UnaryStandardOperatorWrapper[T any, R any] struct {
	op UnaryOp[T, R]
}

func (wrapper *UnaryStandardOperatorWrapper[T, R]) operation(
	input *T, result *R, _ *util.Bitmap, _ int, _ UnaryFunc[T, R]) {
	wrapper.op(input, result)
}

type UnaryLambdaWrapper[T any, R any] struct {
}

func (wrapper *UnaryLambdaWrapper[T, R]) operation(
	input *T, result *R, mask *util.Bitmap, idx int, fun UnaryFunc[T, R]) {
	fun(input, result, mask, idx)
}

// UnaryExecute computes result[i] = op(input[i]) with null propagation.
func UnaryExecute[T any, R any](input, result *chunk.Vector, op UnaryOp[T, R]) {
	count := checkCardinality(result, input)
	unaryExecSwitch[T, R](input, result, count, nil,
		&UnaryStandardOperatorWrapper[T, R]{op: op})
}

// UnaryExecuteWithNulls lets fun mark result rows null through mask.
func UnaryExecuteWithNulls[T any, R any](input, result *chunk.Vector, fun UnaryFunc[T, R]) {
	count := checkCardinality(result, input)
	unaryExecSwitch[T, R](input, result, count, fun, &UnaryLambdaWrapper[T, R]{})
}

// UnaryTryExecute stops calling op after its first error and returns it.
func UnaryTryExecute[T any, R any](input, result *chunk.Vector, op func(*T, *R) error) error {
	count := checkCardinality(result, input)
	var err error
	fun := func(in *T, res *R, _ *util.Bitmap, _ int) {
		if err != nil {
			return
		}
		err = op(in, res)
	}
	unaryExecSwitch[T, R](input, result, count, fun, &UnaryLambdaWrapper[T, R]{})
	return err
}

func unaryExecSwitch[T any, R any](
	input, result *chunk.Vector,
	count int,
	fun UnaryFunc[T, R],
	wrapper UnaryWrapper[T, R],
) {
	switch input.PhyFormat() {
	case chunk.PF_CONST:
		if chunk.IsNullInPhyFormatConst(input) {
			setConstNull(result)
			return
		}
		inSlice := chunk.GetSliceInPhyFormatConst[T](input)
		res := prepareConstResult[R](result)
		wrapper.operation(&inSlice[0], res, result.Mask, 0, fun)
	case chunk.PF_FLAT:
		unaryExecFlat[T, R](input, result, count, fun, wrapper)
	default:
		unaryExecGeneric[T, R](input, result, count, fun, wrapper)
	}
}

func unaryExecFlat[T any, R any](
	input, result *chunk.Vector,
	count int,
	fun UnaryFunc[T, R],
	wrapper UnaryWrapper[T, R],
) {
	inSlice := chunk.GetSliceInPhyFormatFlat[T](input)
	util.AssertFuncf(len(inSlice) >= count, "input has %d slots, need %d", len(inSlice), count)
	resSlice, _ := prepareFlatResult[R](result, count)
	result.Mask = flatMask(count, input.Mask)
	mask := result.Mask
	if mask.AllValid() {
		for i := 0; i < count; i++ {
			wrapper.operation(&inSlice[i], &resSlice[i], mask, i, fun)
		}
		return
	}
	baseIdx := 0
	eCnt := util.EntryCount(count)
	for e := 0; e < eCnt; e++ {
		ent := mask.GetEntry(uint64(e))
		next := min(baseIdx+util.BitsPerEntry, count)
		if util.AllValidInEntry(ent) {
			for ; baseIdx < next; baseIdx++ {
				wrapper.operation(&inSlice[baseIdx], &resSlice[baseIdx], mask, baseIdx, fun)
			}
		} else if util.NoneValidInEntry(ent) {
			baseIdx = next
		} else {
			start := baseIdx
			for ; baseIdx < next; baseIdx++ {
				if util.RowIsValidInEntry(ent, uint64(baseIdx-start)) {
					wrapper.operation(&inSlice[baseIdx], &resSlice[baseIdx], mask, baseIdx, fun)
				}
			}
		}
	}
}

func unaryExecGeneric[T any, R any](
	input, result *chunk.Vector,
	count int,
	fun UnaryFunc[T, R],
	wrapper UnaryWrapper[T, R],
) {
	var uni chunk.UnifiedFormat
	input.ToUnifiedFormat(count, &uni)
	inSlice := chunk.GetSliceInPhyFormatUnifiedFormat[T](&uni)
	resSlice, resMask := prepareFlatResult[R](result, count)
	if uni.Mask.AllValid() {
		for i := 0; i < count; i++ {
			idx := uni.Sel.GetIndex(i)
			wrapper.operation(&inSlice[idx], &resSlice[i], resMask, i, fun)
		}
		return
	}
	for i := 0; i < count; i++ {
		idx := uni.Sel.GetIndex(i)
		if uni.Mask.RowIsValid(uint64(idx)) {
			wrapper.operation(&inSlice[idx], &resSlice[i], resMask, i, fun)
		} else {
			resMask.SetInvalid(uint64(i))
		}
	}
}
