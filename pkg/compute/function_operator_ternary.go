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

type TernaryOp[A any, B any, C any, R any] func(a *A, b *B, c *C, result *R)

type TernaryFunc[A any, B any, C any, R any] func(a *A, b *B, c *C, result *R, mask *util.Bitmap, idx int)

type TernaryWrapper[A any, B any, C any, R any] interface {
	operation(a *A, b *B, c *C, result *R, mask *util.Bitmap, idx int,
		op TernaryOp[A, B, C, R], fun TernaryFunc[A, B, C, R])
}

type TernaryStandardOperatorWrapper[A any, B any, C any, R any] struct {
}

func (wrapper *TernaryStandardOperatorWrapper[A, B, C, R]) operation(
	a *A, b *B, c *C, result *R, _ *util.Bitmap, _ int,
	op TernaryOp[A, B, C, R], _ TernaryFunc[A, B, C, R]) {
	op(a, b, c, result)
}

type TernaryLambdaWrapper[A any, B any, C any, R any] struct {
}

func (wrapper *TernaryLambdaWrapper[A, B, C, R]) operation(
	a *A, b *B, c *C, result *R, mask *util.Bitmap, idx int,
	_ TernaryOp[A, B, C, R], fun TernaryFunc[A, B, C, R]) {
	fun(a, b, c, result, mask, idx)
}

// TernaryExecute computes result[i] = op(a[i], b[i], c[i]).
func TernaryExecute[A any, B any, C any, R any](
	a, b, c, result *chunk.Vector,
	op TernaryOp[A, B, C, R],
) {
	count := checkCardinality(result, a, b, c)
	ternaryExecSwitch[A, B, C, R](a, b, c, result, count, op, nil,
		&TernaryStandardOperatorWrapper[A, B, C, R]{})
}

func TernaryExecuteWithNulls[A any, B any, C any, R any](
	a, b, c, result *chunk.Vector,
	fun TernaryFunc[A, B, C, R],
) {
	count := checkCardinality(result, a, b, c)
	ternaryExecSwitch[A, B, C, R](a, b, c, result, count, nil, fun,
		&TernaryLambdaWrapper[A, B, C, R]{})
}

func TernaryTryExecute[A any, B any, C any, R any](
	a, b, c, result *chunk.Vector,
	op func(a *A, b *B, c *C, result *R) error,
) error {
	count := checkCardinality(result, a, b, c)
	var err error
	fun := func(x *A, y *B, z *C, res *R, _ *util.Bitmap, _ int) {
		if err != nil {
			return
		}
		err = op(x, y, z, res)
	}
	ternaryExecSwitch[A, B, C, R](a, b, c, result, count, nil, fun,
		&TernaryLambdaWrapper[A, B, C, R]{})
	return err
}

func ternaryExecSwitch[A any, B any, C any, R any](
	a, b, c, result *chunk.Vector,
	count int,
	op TernaryOp[A, B, C, R],
	fun TernaryFunc[A, B, C, R],
	wrapper TernaryWrapper[A, B, C, R],
) {
	if a.PhyFormat().IsConst() &&
		b.PhyFormat().IsConst() &&
		c.PhyFormat().IsConst() {
		if chunk.IsNullInPhyFormatConst(a) ||
			chunk.IsNullInPhyFormatConst(b) ||
			chunk.IsNullInPhyFormatConst(c) {
			setConstNull(result)
			return
		}
		aSlice := chunk.GetSliceInPhyFormatConst[A](a)
		bSlice := chunk.GetSliceInPhyFormatConst[B](b)
		cSlice := chunk.GetSliceInPhyFormatConst[C](c)
		res := prepareConstResult[R](result)
		wrapper.operation(&aSlice[0], &bSlice[0], &cSlice[0], res, result.Mask, 0, op, fun)
		return
	}
	ternaryExecGeneric[A, B, C, R](a, b, c, result, count, op, fun, wrapper)
}

func ternaryExecGeneric[A any, B any, C any, R any](
	a, b, c, result *chunk.Vector,
	count int,
	op TernaryOp[A, B, C, R],
	fun TernaryFunc[A, B, C, R],
	wrapper TernaryWrapper[A, B, C, R],
) {
	var adata, bdata, cdata chunk.UnifiedFormat
	a.ToUnifiedFormat(count, &adata)
	b.ToUnifiedFormat(count, &bdata)
	c.ToUnifiedFormat(count, &cdata)

	aSlice := chunk.GetSliceInPhyFormatUnifiedFormat[A](&adata)
	bSlice := chunk.GetSliceInPhyFormatUnifiedFormat[B](&bdata)
	cSlice := chunk.GetSliceInPhyFormatUnifiedFormat[C](&cdata)
	resSlice, resMask := prepareFlatResult[R](result, count)

	if adata.Mask.AllValid() && bdata.Mask.AllValid() && cdata.Mask.AllValid() {
		for i := 0; i < count; i++ {
			aidx := adata.Sel.GetIndex(i)
			bidx := bdata.Sel.GetIndex(i)
			cidx := cdata.Sel.GetIndex(i)
			wrapper.operation(&aSlice[aidx], &bSlice[bidx], &cSlice[cidx], &resSlice[i], resMask, i, op, fun)
		}
		return
	}
	for i := 0; i < count; i++ {
		aidx := adata.Sel.GetIndex(i)
		bidx := bdata.Sel.GetIndex(i)
		cidx := cdata.Sel.GetIndex(i)
		if adata.Mask.RowIsValid(uint64(aidx)) &&
			bdata.Mask.RowIsValid(uint64(bidx)) &&
			cdata.Mask.RowIsValid(uint64(cidx)) {
			wrapper.operation(&aSlice[aidx], &bSlice[bidx], &cSlice[cidx], &resSlice[i], resMask, i, op, fun)
		} else {
			resMask.SetInvalid(uint64(i))
		}
	}
}
