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

// UnifiedFormat is a read only view of a vector: value of logical row i
// is Data[Sel.GetIndex(i)], valid if Mask.RowIsValid(Sel.GetIndex(i)).
type UnifiedFormat struct {
	Sel  *SelectVector
	Data any
	Mask *util.Bitmap
	// backs Sel when it is composed for nested dictionaries
	InterSel SelectVector
}

func GetSliceInPhyFormatUnifiedFormat[T any](uni *UnifiedFormat) []T {
	return uni.Data.([]T)
}
