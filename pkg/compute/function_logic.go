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
)

// Boolean connectives with three valued logic.
// false AND NULL is false, true OR NULL is true.

func logicalAnd(left, right, result *chunk.Vector) {
	logicalBinary(left, right, result, true)
}

func logicalOr(left, right, result *chunk.Vector) {
	logicalBinary(left, right, result, false)
}

// logicalBinary evaluates AND when isAnd is set and OR otherwise.
// The dominant value of AND is false and of OR is true.
func logicalBinary(left, right, result *chunk.Vector, isAnd bool) {
	count := checkCardinality(result, left, right)
	dominant := !isAnd
	var ldata, rdata chunk.UnifiedFormat
	left.ToUnifiedFormat(count, &ldata)
	right.ToUnifiedFormat(count, &rdata)
	lSlice := chunk.GetSliceInPhyFormatUnifiedFormat[bool](&ldata)
	rSlice := chunk.GetSliceInPhyFormatUnifiedFormat[bool](&rdata)
	resSlice, resMask := prepareFlatResult[bool](result, count)
	for i := 0; i < count; i++ {
		lidx := ldata.Sel.GetIndex(i)
		ridx := rdata.Sel.GetIndex(i)
		lvalid := ldata.Mask.RowIsValid(uint64(lidx))
		rvalid := rdata.Mask.RowIsValid(uint64(ridx))
		switch {
		case lvalid && rvalid:
			if isAnd {
				resSlice[i] = lSlice[lidx] && rSlice[ridx]
			} else {
				resSlice[i] = lSlice[lidx] || rSlice[ridx]
			}
		case lvalid && lSlice[lidx] == dominant,
			rvalid && rSlice[ridx] == dominant:
			resSlice[i] = dominant
		default:
			resMask.SetInvalid(uint64(i))
		}
	}
}

func logicalNot(input, result *chunk.Vector) {
	UnaryExecute[bool, bool](input, result, func(in *bool, out *bool) {
		*out = !*in
	})
}

// selectionToBool writes true at the positions in trueSel[:trueCount]
// and false elsewhere.
func selectionToBool(
	trueSel *chunk.SelectVector,
	trueCount int,
	count int,
	result *chunk.Vector,
) []bool {
	resSlice, _ := prepareFlatResult[bool](result, count)
	for i := 0; i < count; i++ {
		resSlice[i] = false
	}
	for i := 0; i < trueCount; i++ {
		resSlice[trueSel.GetIndex(i)] = true
	}
	return resSlice
}
