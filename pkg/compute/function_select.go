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

// Selection partitions rows by a predicate. Rows with a null operand
// always go to the false side. Both sides are filled from slot 0 in row
// order and hold sel.GetIndex(i) for row i. A nil sel is the identity,
// trueSel or falseSel may be nil when the caller does not need that side.

type UnaryPredicate[A any] interface {
	Operation(a *A) bool
}

type BinaryPredicate[A any, B any] interface {
	Operation(a *A, b *B) bool
}

type TernaryPredicate[A any, B any, C any] interface {
	Operation(a *A, b *B, c *C) bool
}

type UnaryPredicateFunc[A any] func(a *A) bool

func (fun UnaryPredicateFunc[A]) Operation(a *A) bool {
	return fun(a)
}

type BinaryPredicateFunc[A any, B any] func(a *A, b *B) bool

func (fun BinaryPredicateFunc[A, B]) Operation(a *A, b *B) bool {
	return fun(a, b)
}

type TernaryPredicateFunc[A any, B any, C any] func(a *A, b *B, c *C) bool

func (fun TernaryPredicateFunc[A, B, C]) Operation(a *A, b *B, c *C) bool {
	return fun(a, b, c)
}

func prepareSelect(count int, sel, trueSel, falseSel *chunk.SelectVector) *chunk.SelectVector {
	util.AssertFuncf(trueSel == nil || trueSel.Len() >= count,
		"true selection has %d slots, need %d", selLen(trueSel), count)
	util.AssertFuncf(falseSel == nil || falseSel.Len() >= count,
		"false selection has %d slots, need %d", selLen(falseSel), count)
	if sel == nil {
		return chunk.IdentitySelectVector()
	}
	util.AssertFuncf(sel.Invalid() || sel.Len() >= count,
		"selection has %d slots, need %d", sel.Len(), count)
	return sel
}

func selLen(sel *chunk.SelectVector) int {
	if sel == nil {
		return 0
	}
	return sel.Len()
}

// selectConst routes all rows to one side.
func selectConst(
	match bool,
	count int,
	sel, trueSel, falseSel *chunk.SelectVector,
) int {
	target := falseSel
	if match {
		target = trueSel
	}
	if target != nil {
		for i := 0; i < count; i++ {
			target.SetIndex(i, sel.GetIndex(i))
		}
	}
	if match {
		return count
	}
	return 0
}

// route records row i on its side and returns the new true count.
func route(
	match bool,
	i int,
	trueCount int,
	sel, trueSel, falseSel *chunk.SelectVector,
) int {
	resIdx := sel.GetIndex(i)
	if match {
		if trueSel != nil {
			trueSel.SetIndex(trueCount, resIdx)
		}
		return trueCount + 1
	}
	if falseSel != nil {
		falseSel.SetIndex(i-trueCount, resIdx)
	}
	return trueCount
}

func UnarySelect[A any, P UnaryPredicate[A]](
	input *chunk.Vector,
	sel, trueSel, falseSel *chunk.SelectVector,
	pred P,
) int {
	count := checkCardinality(nil, input)
	sel = prepareSelect(count, sel, trueSel, falseSel)
	if input.PhyFormat().IsConst() {
		match := !chunk.IsNullInPhyFormatConst(input) &&
			pred.Operation(&chunk.GetSliceInPhyFormatConst[A](input)[0])
		return selectConst(match, count, sel, trueSel, falseSel)
	}
	var idata chunk.UnifiedFormat
	input.ToUnifiedFormat(count, &idata)
	iSlice := chunk.GetSliceInPhyFormatUnifiedFormat[A](&idata)
	trueCount := 0
	if idata.Mask.AllValid() {
		for i := 0; i < count; i++ {
			idx := idata.Sel.GetIndex(i)
			trueCount = route(pred.Operation(&iSlice[idx]), i, trueCount, sel, trueSel, falseSel)
		}
		return trueCount
	}
	for i := 0; i < count; i++ {
		idx := idata.Sel.GetIndex(i)
		match := idata.Mask.RowIsValid(uint64(idx)) && pred.Operation(&iSlice[idx])
		trueCount = route(match, i, trueCount, sel, trueSel, falseSel)
	}
	return trueCount
}

func BinarySelect[A any, B any, P BinaryPredicate[A, B]](
	left, right *chunk.Vector,
	sel, trueSel, falseSel *chunk.SelectVector,
	pred P,
) int {
	count := checkCardinality(nil, left, right)
	sel = prepareSelect(count, sel, trueSel, falseSel)
	if left.PhyFormat().IsConst() && right.PhyFormat().IsConst() {
		match := !chunk.IsNullInPhyFormatConst(left) &&
			!chunk.IsNullInPhyFormatConst(right) &&
			pred.Operation(
				&chunk.GetSliceInPhyFormatConst[A](left)[0],
				&chunk.GetSliceInPhyFormatConst[B](right)[0])
		return selectConst(match, count, sel, trueSel, falseSel)
	}
	var ldata, rdata chunk.UnifiedFormat
	left.ToUnifiedFormat(count, &ldata)
	right.ToUnifiedFormat(count, &rdata)
	lSlice := chunk.GetSliceInPhyFormatUnifiedFormat[A](&ldata)
	rSlice := chunk.GetSliceInPhyFormatUnifiedFormat[B](&rdata)
	trueCount := 0
	if ldata.Mask.AllValid() && rdata.Mask.AllValid() {
		for i := 0; i < count; i++ {
			lidx := ldata.Sel.GetIndex(i)
			ridx := rdata.Sel.GetIndex(i)
			trueCount = route(pred.Operation(&lSlice[lidx], &rSlice[ridx]),
				i, trueCount, sel, trueSel, falseSel)
		}
		return trueCount
	}
	for i := 0; i < count; i++ {
		lidx := ldata.Sel.GetIndex(i)
		ridx := rdata.Sel.GetIndex(i)
		match := ldata.Mask.RowIsValid(uint64(lidx)) &&
			rdata.Mask.RowIsValid(uint64(ridx)) &&
			pred.Operation(&lSlice[lidx], &rSlice[ridx])
		trueCount = route(match, i, trueCount, sel, trueSel, falseSel)
	}
	return trueCount
}

func TernarySelect[A any, B any, C any, P TernaryPredicate[A, B, C]](
	a, b, c *chunk.Vector,
	sel, trueSel, falseSel *chunk.SelectVector,
	pred P,
) int {
	count := checkCardinality(nil, a, b, c)
	sel = prepareSelect(count, sel, trueSel, falseSel)
	if a.PhyFormat().IsConst() && b.PhyFormat().IsConst() && c.PhyFormat().IsConst() {
		match := !chunk.IsNullInPhyFormatConst(a) &&
			!chunk.IsNullInPhyFormatConst(b) &&
			!chunk.IsNullInPhyFormatConst(c) &&
			pred.Operation(
				&chunk.GetSliceInPhyFormatConst[A](a)[0],
				&chunk.GetSliceInPhyFormatConst[B](b)[0],
				&chunk.GetSliceInPhyFormatConst[C](c)[0])
		return selectConst(match, count, sel, trueSel, falseSel)
	}
	var adata, bdata, cdata chunk.UnifiedFormat
	a.ToUnifiedFormat(count, &adata)
	b.ToUnifiedFormat(count, &bdata)
	c.ToUnifiedFormat(count, &cdata)
	aSlice := chunk.GetSliceInPhyFormatUnifiedFormat[A](&adata)
	bSlice := chunk.GetSliceInPhyFormatUnifiedFormat[B](&bdata)
	cSlice := chunk.GetSliceInPhyFormatUnifiedFormat[C](&cdata)
	noNull := adata.Mask.AllValid() && bdata.Mask.AllValid() && cdata.Mask.AllValid()
	trueCount := 0
	for i := 0; i < count; i++ {
		aidx := adata.Sel.GetIndex(i)
		bidx := bdata.Sel.GetIndex(i)
		cidx := cdata.Sel.GetIndex(i)
		match := (noNull ||
			adata.Mask.RowIsValid(uint64(aidx)) &&
				bdata.Mask.RowIsValid(uint64(bidx)) &&
				cdata.Mask.RowIsValid(uint64(cidx))) &&
			pred.Operation(&aSlice[aidx], &bSlice[bidx], &cSlice[cidx])
		trueCount = route(match, i, trueCount, sel, trueSel, falseSel)
	}
	return trueCount
}
