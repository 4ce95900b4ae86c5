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

package common

func Numeric() []LType {
	typs := []LTypeId{
		LTID_TINYINT, LTID_SMALLINT, LTID_INTEGER,
		LTID_BIGINT, LTID_FLOAT, LTID_DOUBLE,
		LTID_UTINYINT, LTID_USMALLINT, LTID_UINTEGER,
		LTID_UBIGINT,
	}
	ret := make([]LType, len(typs))
	for i, typ := range typs {
		ret[i] = MakeLType(typ)
	}
	return ret
}

// TargetTypeCost prefers bigint, then double, then integer.
func TargetTypeCost(typ LType) int64 {
	switch typ.Id {
	case LTID_INTEGER:
		return 103
	case LTID_BIGINT:
		return 101
	case LTID_DOUBLE:
		return 102
	case LTID_VARCHAR:
		return 149
	case LTID_DECIMAL:
		return 104
	default:
		return 110
	}
}

// targets of implicit casts per source type
var implicitCastTo = map[LTypeId][]LTypeId{
	LTID_BOOLEAN:   {},
	LTID_TINYINT:   {LTID_SMALLINT, LTID_INTEGER, LTID_BIGINT, LTID_FLOAT, LTID_DOUBLE, LTID_DECIMAL},
	LTID_SMALLINT:  {LTID_INTEGER, LTID_BIGINT, LTID_FLOAT, LTID_DOUBLE, LTID_DECIMAL},
	LTID_INTEGER:   {LTID_BIGINT, LTID_FLOAT, LTID_DOUBLE, LTID_DECIMAL},
	LTID_BIGINT:    {LTID_FLOAT, LTID_DOUBLE, LTID_DECIMAL},
	LTID_UTINYINT:  {LTID_USMALLINT, LTID_UINTEGER, LTID_UBIGINT, LTID_SMALLINT, LTID_INTEGER, LTID_BIGINT, LTID_FLOAT, LTID_DOUBLE, LTID_DECIMAL},
	LTID_USMALLINT: {LTID_UINTEGER, LTID_UBIGINT, LTID_INTEGER, LTID_BIGINT, LTID_FLOAT, LTID_DOUBLE, LTID_DECIMAL},
	LTID_UINTEGER:  {LTID_UBIGINT, LTID_BIGINT, LTID_FLOAT, LTID_DOUBLE, LTID_DECIMAL},
	LTID_UBIGINT:   {LTID_FLOAT, LTID_DOUBLE, LTID_DECIMAL},
	LTID_FLOAT:     {LTID_DOUBLE},
	LTID_DOUBLE:    {},
	LTID_DECIMAL:   {LTID_FLOAT, LTID_DOUBLE},
}

// ImplicitCast is the cost of casting from to to during overload
// resolution, or -1 if the cast must be explicit.
func ImplicitCast(from, to LType) int64 {
	if from.Id == LTID_NULL {
		return TargetTypeCost(to)
	}
	if from.Id == to.Id {
		return 0
	}
	if to.Id == LTID_VARCHAR {
		return TargetTypeCost(to)
	}
	for _, target := range implicitCastTo[from.Id] {
		if target == to.Id {
			return TargetTypeCost(to)
		}
	}
	return -1
}
