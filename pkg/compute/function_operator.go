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
	"github.com/cockroachdb/errors"

	"github.com/daviszhen/vecexec/pkg/chunk"
	"github.com/daviszhen/vecexec/pkg/util"
)

// checkCardinality returns the shared count of inputs and result.
// Any mismatch is a caller bug.
func checkCardinality(result *chunk.Vector, inputs ...*chunk.Vector) int {
	count := inputs[0].Count()
	for i, input := range inputs {
		if input.Count() != count {
			panic(errors.AssertionFailedf(
				"cardinality mismatch: input %d has %d rows, input 0 has %d",
				i, input.Count(), count))
		}
		if result == input {
			panic(errors.AssertionFailedf("result aliases input %d", i))
		}
	}
	if result != nil && result.Count() != count {
		panic(errors.AssertionFailedf(
			"cardinality mismatch: result has %d rows, inputs have %d",
			result.Count(), count))
	}
	return count
}

// prepareFlatResult makes result a flat vector with a fresh all valid
// mask and returns its data. Masks are never written in place since
// other vectors may share their bits.
func prepareFlatResult[R any](result *chunk.Vector, count int) ([]R, *util.Bitmap) {
	result.SetPhyFormat(chunk.PF_FLAT)
	result.Mask = &util.Bitmap{}
	resSlice := chunk.GetSliceInPhyFormatFlat[R](result)
	util.AssertFuncf(len(resSlice) >= count,
		"result has %d slots, need %d", len(resSlice), count)
	return resSlice, result.Mask
}

// setAllNull makes result a flat vector of count nulls.
func setAllNull(result *chunk.Vector, count int) {
	result.SetPhyFormat(chunk.PF_FLAT)
	result.Mask = &util.Bitmap{}
	result.Mask.SetAllInvalid(count)
}

func prepareConstResult[R any](result *chunk.Vector) *R {
	result.SetPhyFormat(chunk.PF_CONST)
	result.Mask = &util.Bitmap{}
	return &chunk.GetSliceInPhyFormatConst[R](result)[0]
}

func setConstNull(result *chunk.Vector) {
	result.SetPhyFormat(chunk.PF_CONST)
	result.Mask = &util.Bitmap{}
	result.Mask.SetInvalid(0)
}

// flatMask is the combined validity of the flat inputs of a call.
// It is a private copy the result may own.
func flatMask(count int, masks ...*util.Bitmap) *util.Bitmap {
	ret := &util.Bitmap{}
	for _, mask := range masks {
		ret.Combine(mask, count)
	}
	return ret
}
