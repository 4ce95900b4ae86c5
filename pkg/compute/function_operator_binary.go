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

type BinaryOp[T any, S any, R any] func(left *T, right *S, result *R)

type BinaryFunc[T any, S any, R any] func(left *T, right *S, result *R, mask *util.Bitmap, idx int)

type BinaryWrapper[T any, S any, R any] interface {
	operation(left *T, right *S, result *R, mask *util.Bitmap, idx int,
		op BinaryOp[T, S, R], fun BinaryFunc[T, S, R])
}

type BinaryStandardOperatorWrapper[T any, S any, R any] struct {
}

func (wrapper *BinaryStandardOperatorWrapper[T, S, R]) operation(
	left *T, right *S, result *R, _ *util.Bitmap, _ int,
	op BinaryOp[T, S, R], _ BinaryFunc[T, S, R]) {
	op(left, right, result)
}

type BinaryLambdaWrapper[T any, S any, R any] struct {
}

func (wrapper *BinaryLambdaWrapper[T, S, R]) operation(
	left *T, right *S, result *R, mask *util.Bitmap, idx int,
	_ BinaryOp[T, S, R], fun BinaryFunc[T, S, R]) {
	fun(left, right, result, mask, idx)
}

// BinaryExecute computes result[i] = op(left[i], right[i]).
// A row with a null operand is null and op is not called for it.
func BinaryExecute[T any, S any, R any](
	left, right, result *chunk.Vector,
	op BinaryOp[T, S, R],
) {
	count := checkCardinality(result, left, right)
	binaryExecSwitch[T, S, R](left, right, result, count, op, nil,
		&BinaryStandardOperatorWrapper[T, S, R]{})
}

// BinaryExecuteWithNulls passes the result mask to fun so it can
// null out rows itself, e.g. division by zero.
func BinaryExecuteWithNulls[T any, S any, R any](
	left, right, result *chunk.Vector,
	fun BinaryFunc[T, S, R],
) {
	count := checkCardinality(result, left, right)
	binaryExecSwitch[T, S, R](left, right, result, count, nil, fun,
		&BinaryLambdaWrapper[T, S, R]{})
}

// BinaryTryExecute returns the first error of op. Rows after it are
// left unspecified.
func BinaryTryExecute[T any, S any, R any](
	left, right, result *chunk.Vector,
	op func(left *T, right *S, result *R) error,
) error {
	count := checkCardinality(result, left, right)
	var err error
	fun := func(l *T, r *S, res *R, _ *util.Bitmap, _ int) {
		if err != nil {
			return
		}
		err = op(l, r, res)
	}
	binaryExecSwitch[T, S, R](left, right, result, count, nil, fun,
		&BinaryLambdaWrapper[T, S, R]{})
	return err
}

func binaryExecSwitch[T any, S any, R any](
	left, right, result *chunk.Vector,
	count int,
	op BinaryOp[T, S, R],
	fun BinaryFunc[T, S, R],
	wrapper BinaryWrapper[T, S, R],
) {
	lConst := left.PhyFormat().IsConst()
	rConst := right.PhyFormat().IsConst()
	if lConst && rConst {
		binaryExecConst[T, S, R](left, right, result, op, fun, wrapper)
	} else if left.PhyFormat().IsFlat() && rConst {
		binaryExecFlat[T, S, R](left, right, result, count, op, fun, wrapper, false, true)
	} else if lConst && right.PhyFormat().IsFlat() {
		binaryExecFlat[T, S, R](left, right, result, count, op, fun, wrapper, true, false)
	} else if left.PhyFormat().IsFlat() && right.PhyFormat().IsFlat() {
		binaryExecFlat[T, S, R](left, right, result, count, op, fun, wrapper, false, false)
	} else {
		binaryExecGeneric[T, S, R](left, right, result, count, op, fun, wrapper)
	}
}

func binaryExecConst[T any, S any, R any](
	left, right, result *chunk.Vector,
	op BinaryOp[T, S, R],
	fun BinaryFunc[T, S, R],
	wrapper BinaryWrapper[T, S, R],
) {
	if chunk.IsNullInPhyFormatConst(left) ||
		chunk.IsNullInPhyFormatConst(right) {
		setConstNull(result)
		return
	}
	lSlice := chunk.GetSliceInPhyFormatConst[T](left)
	rSlice := chunk.GetSliceInPhyFormatConst[S](right)
	res := prepareConstResult[R](result)
	wrapper.operation(&lSlice[0], &rSlice[0], res, result.Mask, 0, op, fun)
}

func binaryExecFlat[T any, S any, R any](
	left, right, result *chunk.Vector,
	count int,
	op BinaryOp[T, S, R],
	fun BinaryFunc[T, S, R],
	wrapper BinaryWrapper[T, S, R],
	lconst, rconst bool,
) {
	if lconst && chunk.IsNullInPhyFormatConst(left) ||
		rconst && chunk.IsNullInPhyFormatConst(right) {
		setAllNull(result, count)
		return
	}
	lSlice := chunk.GetSliceInPhyFormatFlat[T](left)
	rSlice := chunk.GetSliceInPhyFormatFlat[S](right)
	util.AssertFuncf(lconst || len(lSlice) >= count, "left has %d slots, need %d", len(lSlice), count)
	util.AssertFuncf(rconst || len(rSlice) >= count, "right has %d slots, need %d", len(rSlice), count)
	resSlice, _ := prepareFlatResult[R](result, count)

	var masks []*util.Bitmap
	if !lconst {
		masks = append(masks, left.Mask)
	}
	if !rconst {
		masks = append(masks, right.Mask)
	}
	result.Mask = flatMask(count, masks...)
	mask := result.Mask
	binaryExecFlatLoop[T, S, R](lSlice, rSlice, resSlice, count, mask, op, fun, wrapper, lconst, rconst)
}

func binaryExecFlatLoop[T any, S any, R any](
	ldata []T, rdata []S, resData []R,
	count int,
	mask *util.Bitmap,
	op BinaryOp[T, S, R],
	fun BinaryFunc[T, S, R],
	wrapper BinaryWrapper[T, S, R],
	lconst, rconst bool,
) {
	lidx := func(i int) int {
		if lconst {
			return 0
		}
		return i
	}
	ridx := func(i int) int {
		if rconst {
			return 0
		}
		return i
	}
	if mask.AllValid() {
		for i := 0; i < count; i++ {
			wrapper.operation(&ldata[lidx(i)], &rdata[ridx(i)], &resData[i], mask, i, op, fun)
		}
		return
	}
	// the entry is read before the loop, so rows nulled by fun are not
	// confused with rows null on input
	baseIdx := 0
	eCnt := util.EntryCount(count)
	for e := 0; e < eCnt; e++ {
		ent := mask.GetEntry(uint64(e))
		next := min(baseIdx+util.BitsPerEntry, count)
		if util.AllValidInEntry(ent) {
			for ; baseIdx < next; baseIdx++ {
				wrapper.operation(&ldata[lidx(baseIdx)], &rdata[ridx(baseIdx)], &resData[baseIdx], mask, baseIdx, op, fun)
			}
		} else if util.NoneValidInEntry(ent) {
			baseIdx = next
		} else {
			start := baseIdx
			for ; baseIdx < next; baseIdx++ {
				if util.RowIsValidInEntry(ent, uint64(baseIdx-start)) {
					wrapper.operation(&ldata[lidx(baseIdx)], &rdata[ridx(baseIdx)], &resData[baseIdx], mask, baseIdx, op, fun)
				}
			}
		}
	}
}

func binaryExecGeneric[T any, S any, R any](
	left, right, result *chunk.Vector,
	count int,
	op BinaryOp[T, S, R],
	fun BinaryFunc[T, S, R],
	wrapper BinaryWrapper[T, S, R],
) {
	var ldata, rdata chunk.UnifiedFormat
	left.ToUnifiedFormat(count, &ldata)
	right.ToUnifiedFormat(count, &rdata)

	lSlice := chunk.GetSliceInPhyFormatUnifiedFormat[T](&ldata)
	rSlice := chunk.GetSliceInPhyFormatUnifiedFormat[S](&rdata)
	resSlice, resMask := prepareFlatResult[R](result, count)
	binaryExecGenericLoop[T, S, R](lSlice, rSlice, resSlice,
		ldata.Sel, rdata.Sel, count,
		ldata.Mask, rdata.Mask, resMask,
		op, fun, wrapper)
}

func binaryExecGenericLoop[T any, S any, R any](
	ldata []T, rdata []S, resData []R,
	lsel, rsel *chunk.SelectVector,
	count int,
	lmask, rmask, resMask *util.Bitmap,
	op BinaryOp[T, S, R],
	fun BinaryFunc[T, S, R],
	wrapper BinaryWrapper[T, S, R],
) {
	if lmask.AllValid() && rmask.AllValid() {
		for i := 0; i < count; i++ {
			lidx := lsel.GetIndex(i)
			ridx := rsel.GetIndex(i)
			wrapper.operation(&ldata[lidx], &rdata[ridx], &resData[i], resMask, i, op, fun)
		}
		return
	}
	for i := 0; i < count; i++ {
		lidx := lsel.GetIndex(i)
		ridx := rsel.GetIndex(i)
		if lmask.RowIsValid(uint64(lidx)) && rmask.RowIsValid(uint64(ridx)) {
			wrapper.operation(&ldata[lidx], &rdata[ridx], &resData[i], resMask, i, op, fun)
		} else {
			resMask.SetInvalid(uint64(i))
		}
	}
}
