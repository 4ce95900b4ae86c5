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

import (
	"fmt"
)

type LType struct {
	Id    LTypeId
	PTyp  PhyType
	Width int
	Scale int
	// Collation of a VARCHAR. Empty means binary.
	Collation string
}

func MakeLType(id LTypeId) LType {
	ret := LType{Id: id}
	ret.PTyp = ret.GetInternalType()
	return ret
}

func Null() LType {
	return MakeLType(LTID_NULL)
}

func BooleanType() LType {
	return MakeLType(LTID_BOOLEAN)
}

func TinyintType() LType {
	return MakeLType(LTID_TINYINT)
}

func SmallintType() LType {
	return MakeLType(LTID_SMALLINT)
}

func IntegerType() LType {
	return MakeLType(LTID_INTEGER)
}

func BigintType() LType {
	return MakeLType(LTID_BIGINT)
}

func UbigintType() LType {
	return MakeLType(LTID_UBIGINT)
}

func FloatType() LType {
	return MakeLType(LTID_FLOAT)
}

func DoubleType() LType {
	return MakeLType(LTID_DOUBLE)
}

func VarcharType() LType {
	return MakeLType(LTID_VARCHAR)
}

func CollatedVarcharType(collation string) LType {
	ret := VarcharType()
	ret.Collation = collation
	return ret
}

func DecimalType(width, scale int) LType {
	ret := MakeLType(LTID_DECIMAL)
	ret.Width = width
	ret.Scale = scale
	return ret
}

func CopyLTypes(typs ...LType) []LType {
	ret := make([]LType, len(typs))
	copy(ret, typs)
	return ret
}

func (lt LType) IsNumeric() bool {
	switch lt.Id {
	case LTID_TINYINT, LTID_SMALLINT, LTID_INTEGER, LTID_BIGINT,
		LTID_UTINYINT, LTID_USMALLINT, LTID_UINTEGER, LTID_UBIGINT,
		LTID_FLOAT, LTID_DOUBLE, LTID_DECIMAL:
		return true
	default:
		return false
	}
}

func (lt LType) IsIntegral() bool {
	return lt.IsNumeric() && lt.PTyp.IsIntegral()
}

func (lt LType) Equal(o LType) bool {
	if lt.Id != o.Id {
		return false
	}
	switch lt.Id {
	case LTID_DECIMAL:
		return lt.Width == o.Width && lt.Scale == o.Scale
	case LTID_VARCHAR:
		return lt.Collation == o.Collation
	default:
	}
	return true
}

func (lt LType) GetInternalType() PhyType {
	switch lt.Id {
	case LTID_BOOLEAN:
		return BOOL
	case LTID_TINYINT:
		return INT8
	case LTID_UTINYINT:
		return UINT8
	case LTID_SMALLINT:
		return INT16
	case LTID_USMALLINT:
		return UINT16
	case LTID_NULL, LTID_INTEGER:
		return INT32
	case LTID_UINTEGER:
		return UINT32
	case LTID_BIGINT:
		return INT64
	case LTID_UBIGINT:
		return UINT64
	case LTID_FLOAT:
		return FLOAT
	case LTID_DOUBLE:
		return DOUBLE
	case LTID_DECIMAL:
		return DECIMAL
	case LTID_VARCHAR:
		return VARCHAR
	case LTID_INVALID:
		return INVALID
	default:
		panic(fmt.Sprintf("usp logical type %d", lt.Id))
	}
}

func (lt LType) String() string {
	switch lt.Id {
	case LTID_DECIMAL:
		return fmt.Sprintf("%v(%d,%d)", lt.Id, lt.Width, lt.Scale)
	case LTID_VARCHAR:
		if lt.Collation != "" {
			return fmt.Sprintf("%v COLLATE %s", lt.Id, lt.Collation)
		}
	}
	return lt.Id.String()
}

// MaxLType is the common type two operands of an arithmetic or
// comparison are cast to.
func MaxLType(left, right LType) LType {
	if left.Equal(right) {
		return left
	}
	if left.Id == LTID_NULL {
		return right
	}
	if right.Id == LTID_NULL {
		return left
	}
	if left.Id == LTID_DECIMAL || right.Id == LTID_DECIMAL {
		if left.Id == LTID_DOUBLE || right.Id == LTID_DOUBLE ||
			left.Id == LTID_FLOAT || right.Id == LTID_FLOAT {
			return DoubleType()
		}
		lw, ls := decimalWidthScale(left)
		rw, rs := decimalWidthScale(right)
		scale := max(ls, rs)
		width := max(lw-ls, rw-rs) + scale
		return DecimalType(min(width, DecimalMaxWidth), scale)
	}
	if left.Id == LTID_VARCHAR && right.Id == LTID_VARCHAR {
		if left.Collation != "" {
			return left
		}
		return right
	}
	if left.Id > right.Id {
		return left
	}
	return right
}

const DecimalMaxWidth = 18

func decimalWidthScale(lt LType) (int, int) {
	switch lt.Id {
	case LTID_DECIMAL:
		return lt.Width, lt.Scale
	case LTID_BOOLEAN, LTID_TINYINT, LTID_UTINYINT:
		return 3, 0
	case LTID_SMALLINT, LTID_USMALLINT:
		return 5, 0
	case LTID_INTEGER, LTID_UINTEGER:
		return 10, 0
	default:
		return DecimalMaxWidth, 0
	}
}
