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
	"cmp"
	"fmt"

	"github.com/daviszhen/vecexec/pkg/chunk"
	"github.com/daviszhen/vecexec/pkg/common"
	"github.com/daviszhen/vecexec/pkg/util"
)

// Comparer is a total order over T.
type Comparer[T any] interface {
	Equal(a, b *T) bool
	Less(a, b *T) bool
}

type OrderedComparer[T cmp.Ordered] struct{}

func (OrderedComparer[T]) Equal(a, b *T) bool { return *a == *b }
func (OrderedComparer[T]) Less(a, b *T) bool  { return *a < *b }

// FloatComparer orders NaN after every other value and equal to itself.
type FloatComparer[T ~float32 | ~float64] struct{}

func (FloatComparer[T]) Equal(a, b *T) bool { return util.EqualFloat(*a, *b) }
func (FloatComparer[T]) Less(a, b *T) bool  { return util.GreaterFloat(*b, *a) }

type BoolComparer struct{}

func (BoolComparer) Equal(a, b *bool) bool { return *a == *b }
func (BoolComparer) Less(a, b *bool) bool  { return !*a && *b }

type DecimalComparer struct{}

func (DecimalComparer) Equal(a, b *common.Decimal) bool { return a.Equal(*b) }
func (DecimalComparer) Less(a, b *common.Decimal) bool  { return a.Less(*b) }

type EqualOp[T any, C Comparer[T]] struct{}

func (EqualOp[T, C]) Operation(a, b *T) bool {
	var c C
	return c.Equal(a, b)
}

type NotEqualOp[T any, C Comparer[T]] struct{}

func (NotEqualOp[T, C]) Operation(a, b *T) bool {
	var c C
	return !c.Equal(a, b)
}

type LessOp[T any, C Comparer[T]] struct{}

func (LessOp[T, C]) Operation(a, b *T) bool {
	var c C
	return c.Less(a, b)
}

type LessEqualOp[T any, C Comparer[T]] struct{}

func (LessEqualOp[T, C]) Operation(a, b *T) bool {
	var c C
	return !c.Less(b, a)
}

type GreaterOp[T any, C Comparer[T]] struct{}

func (GreaterOp[T, C]) Operation(a, b *T) bool {
	var c C
	return c.Less(b, a)
}

type GreaterEqualOp[T any, C Comparer[T]] struct{}

func (GreaterEqualOp[T, C]) Operation(a, b *T) bool {
	var c C
	return !c.Less(a, b)
}

// BetweenOp is lo <= x AND x <= hi.
type BetweenOp[T any, C Comparer[T]] struct{}

func (BetweenOp[T, C]) Operation(x, lo, hi *T) bool {
	var c C
	return !c.Less(x, lo) && !c.Less(hi, x)
}

func IsCompareOp(op ET_SubTyp) bool {
	switch op {
	case ET_Equal, ET_NotEqual, ET_Less, ET_LessEqual, ET_Greater, ET_GreaterEqual:
		return true
	default:
		return false
	}
}

// SelectComparison partitions the rows of left op right.
// Both sides must have the same physical type.
func SelectComparison(
	op ET_SubTyp,
	left, right *chunk.Vector,
	sel, trueSel, falseSel *chunk.SelectVector,
) int {
	util.AssertFuncf(left.Typ().GetInternalType() == right.Typ().GetInternalType(),
		"compare %s with %s", left.Typ(), right.Typ())
	switch left.Typ().GetInternalType() {
	case common.BOOL:
		return selectCompare[bool, BoolComparer](op, left, right, sel, trueSel, falseSel)
	case common.UINT8:
		return selectCompare[uint8, OrderedComparer[uint8]](op, left, right, sel, trueSel, falseSel)
	case common.INT8:
		return selectCompare[int8, OrderedComparer[int8]](op, left, right, sel, trueSel, falseSel)
	case common.UINT16:
		return selectCompare[uint16, OrderedComparer[uint16]](op, left, right, sel, trueSel, falseSel)
	case common.INT16:
		return selectCompare[int16, OrderedComparer[int16]](op, left, right, sel, trueSel, falseSel)
	case common.UINT32:
		return selectCompare[uint32, OrderedComparer[uint32]](op, left, right, sel, trueSel, falseSel)
	case common.INT32:
		return selectCompare[int32, OrderedComparer[int32]](op, left, right, sel, trueSel, falseSel)
	case common.UINT64:
		return selectCompare[uint64, OrderedComparer[uint64]](op, left, right, sel, trueSel, falseSel)
	case common.INT64:
		return selectCompare[int64, OrderedComparer[int64]](op, left, right, sel, trueSel, falseSel)
	case common.FLOAT:
		return selectCompare[float32, FloatComparer[float32]](op, left, right, sel, trueSel, falseSel)
	case common.DOUBLE:
		return selectCompare[float64, FloatComparer[float64]](op, left, right, sel, trueSel, falseSel)
	case common.VARCHAR:
		return selectCompare[string, OrderedComparer[string]](op, left, right, sel, trueSel, falseSel)
	case common.DECIMAL:
		return selectCompare[common.Decimal, DecimalComparer](op, left, right, sel, trueSel, falseSel)
	default:
		panic(fmt.Sprintf("usp compare type %s", left.Typ()))
	}
}

func selectCompare[T any, C Comparer[T]](
	op ET_SubTyp,
	left, right *chunk.Vector,
	sel, trueSel, falseSel *chunk.SelectVector,
) int {
	switch op {
	case ET_Equal:
		return BinarySelect[T, T](left, right, sel, trueSel, falseSel, EqualOp[T, C]{})
	case ET_NotEqual:
		return BinarySelect[T, T](left, right, sel, trueSel, falseSel, NotEqualOp[T, C]{})
	case ET_Less:
		return BinarySelect[T, T](left, right, sel, trueSel, falseSel, LessOp[T, C]{})
	case ET_LessEqual:
		return BinarySelect[T, T](left, right, sel, trueSel, falseSel, LessEqualOp[T, C]{})
	case ET_Greater:
		return BinarySelect[T, T](left, right, sel, trueSel, falseSel, GreaterOp[T, C]{})
	case ET_GreaterEqual:
		return BinarySelect[T, T](left, right, sel, trueSel, falseSel, GreaterEqualOp[T, C]{})
	default:
		panic(fmt.Sprintf("usp compare op %v", op))
	}
}

// SelectBetween partitions the rows of lo <= x AND x <= hi.
func SelectBetween(
	x, lo, hi *chunk.Vector,
	sel, trueSel, falseSel *chunk.SelectVector,
) int {
	switch x.Typ().GetInternalType() {
	case common.BOOL:
		return TernarySelect[bool, bool, bool](x, lo, hi, sel, trueSel, falseSel, BetweenOp[bool, BoolComparer]{})
	case common.UINT8:
		return TernarySelect[uint8, uint8, uint8](x, lo, hi, sel, trueSel, falseSel, BetweenOp[uint8, OrderedComparer[uint8]]{})
	case common.INT8:
		return TernarySelect[int8, int8, int8](x, lo, hi, sel, trueSel, falseSel, BetweenOp[int8, OrderedComparer[int8]]{})
	case common.UINT16:
		return TernarySelect[uint16, uint16, uint16](x, lo, hi, sel, trueSel, falseSel, BetweenOp[uint16, OrderedComparer[uint16]]{})
	case common.INT16:
		return TernarySelect[int16, int16, int16](x, lo, hi, sel, trueSel, falseSel, BetweenOp[int16, OrderedComparer[int16]]{})
	case common.UINT32:
		return TernarySelect[uint32, uint32, uint32](x, lo, hi, sel, trueSel, falseSel, BetweenOp[uint32, OrderedComparer[uint32]]{})
	case common.INT32:
		return TernarySelect[int32, int32, int32](x, lo, hi, sel, trueSel, falseSel, BetweenOp[int32, OrderedComparer[int32]]{})
	case common.UINT64:
		return TernarySelect[uint64, uint64, uint64](x, lo, hi, sel, trueSel, falseSel, BetweenOp[uint64, OrderedComparer[uint64]]{})
	case common.INT64:
		return TernarySelect[int64, int64, int64](x, lo, hi, sel, trueSel, falseSel, BetweenOp[int64, OrderedComparer[int64]]{})
	case common.FLOAT:
		return TernarySelect[float32, float32, float32](x, lo, hi, sel, trueSel, falseSel, BetweenOp[float32, FloatComparer[float32]]{})
	case common.DOUBLE:
		return TernarySelect[float64, float64, float64](x, lo, hi, sel, trueSel, falseSel, BetweenOp[float64, FloatComparer[float64]]{})
	case common.VARCHAR:
		return TernarySelect[string, string, string](x, lo, hi, sel, trueSel, falseSel, BetweenOp[string, OrderedComparer[string]]{})
	case common.DECIMAL:
		return TernarySelect[common.Decimal, common.Decimal, common.Decimal](x, lo, hi, sel, trueSel, falseSel, BetweenOp[common.Decimal, DecimalComparer]{})
	default:
		panic(fmt.Sprintf("usp between type %s", x.Typ()))
	}
}

// SelectNotNull partitions rows by validity.
func SelectNotNull(
	input *chunk.Vector,
	sel, trueSel, falseSel *chunk.SelectVector,
) int {
	switch input.Typ().GetInternalType() {
	case common.BOOL:
		return UnarySelect[bool](input, sel, trueSel, falseSel, alwaysTrue[bool]{})
	case common.UINT8:
		return UnarySelect[uint8](input, sel, trueSel, falseSel, alwaysTrue[uint8]{})
	case common.INT8:
		return UnarySelect[int8](input, sel, trueSel, falseSel, alwaysTrue[int8]{})
	case common.UINT16:
		return UnarySelect[uint16](input, sel, trueSel, falseSel, alwaysTrue[uint16]{})
	case common.INT16:
		return UnarySelect[int16](input, sel, trueSel, falseSel, alwaysTrue[int16]{})
	case common.UINT32:
		return UnarySelect[uint32](input, sel, trueSel, falseSel, alwaysTrue[uint32]{})
	case common.INT32:
		return UnarySelect[int32](input, sel, trueSel, falseSel, alwaysTrue[int32]{})
	case common.UINT64:
		return UnarySelect[uint64](input, sel, trueSel, falseSel, alwaysTrue[uint64]{})
	case common.INT64:
		return UnarySelect[int64](input, sel, trueSel, falseSel, alwaysTrue[int64]{})
	case common.FLOAT:
		return UnarySelect[float32](input, sel, trueSel, falseSel, alwaysTrue[float32]{})
	case common.DOUBLE:
		return UnarySelect[float64](input, sel, trueSel, falseSel, alwaysTrue[float64]{})
	case common.VARCHAR:
		return UnarySelect[string](input, sel, trueSel, falseSel, alwaysTrue[string]{})
	case common.DECIMAL:
		return UnarySelect[common.Decimal](input, sel, trueSel, falseSel, alwaysTrue[common.Decimal]{})
	default:
		panic(fmt.Sprintf("usp type %s", input.Typ()))
	}
}

type alwaysTrue[T any] struct{}

func (alwaysTrue[T]) Operation(*T) bool { return true }

// SelectBool partitions rows of a boolean vector by value.
func SelectBool(
	input *chunk.Vector,
	sel, trueSel, falseSel *chunk.SelectVector,
) int {
	return UnarySelect[bool](input, sel, trueSel, falseSel,
		UnaryPredicateFunc[bool](func(b *bool) bool { return *b }))
}

func compareFunction[T any, C Comparer[T]](op ET_SubTyp) ScalarFunc {
	switch op {
	case ET_Equal:
		return BinaryFunction[T, T, bool](predicateOp[T](EqualOp[T, C]{}))
	case ET_NotEqual:
		return BinaryFunction[T, T, bool](predicateOp[T](NotEqualOp[T, C]{}))
	case ET_Less:
		return BinaryFunction[T, T, bool](predicateOp[T](LessOp[T, C]{}))
	case ET_LessEqual:
		return BinaryFunction[T, T, bool](predicateOp[T](LessEqualOp[T, C]{}))
	case ET_Greater:
		return BinaryFunction[T, T, bool](predicateOp[T](GreaterOp[T, C]{}))
	case ET_GreaterEqual:
		return BinaryFunction[T, T, bool](predicateOp[T](GreaterEqualOp[T, C]{}))
	default:
		panic(fmt.Sprintf("usp compare op %v", op))
	}
}

func predicateOp[T any](pred BinaryPredicate[T, T]) BinaryOp[T, T, bool] {
	return func(left, right *T, result *bool) {
		*result = pred.Operation(left, right)
	}
}

func GetCompareFunction(op ET_SubTyp, pTyp common.PhyType) ScalarFunc {
	switch pTyp {
	case common.BOOL:
		return compareFunction[bool, BoolComparer](op)
	case common.UINT8:
		return compareFunction[uint8, OrderedComparer[uint8]](op)
	case common.INT8:
		return compareFunction[int8, OrderedComparer[int8]](op)
	case common.UINT16:
		return compareFunction[uint16, OrderedComparer[uint16]](op)
	case common.INT16:
		return compareFunction[int16, OrderedComparer[int16]](op)
	case common.UINT32:
		return compareFunction[uint32, OrderedComparer[uint32]](op)
	case common.INT32:
		return compareFunction[int32, OrderedComparer[int32]](op)
	case common.UINT64:
		return compareFunction[uint64, OrderedComparer[uint64]](op)
	case common.INT64:
		return compareFunction[int64, OrderedComparer[int64]](op)
	case common.FLOAT:
		return compareFunction[float32, FloatComparer[float32]](op)
	case common.DOUBLE:
		return compareFunction[float64, FloatComparer[float64]](op)
	case common.VARCHAR:
		return compareFunction[string, OrderedComparer[string]](op)
	case common.DECIMAL:
		return compareFunction[common.Decimal, DecimalComparer](op)
	default:
		panic(fmt.Sprintf("usp compare type %s", pTyp))
	}
}

type CompareFunc struct {
}

func (CompareFunc) Register(funcList FunctionList) {
	typs := append(common.Numeric(),
		common.BooleanType(),
		common.VarcharType(),
		common.DecimalType(common.DecimalMaxWidth, 0))
	for _, op := range []ET_SubTyp{ET_Equal, ET_NotEqual, ET_Less, ET_LessEqual, ET_Greater, ET_GreaterEqual} {
		set := NewFunctionSet(op.String(), ScalarFuncType)
		for _, typ := range typs {
			set.Add(&FunctionV2{
				_name:    op.String(),
				_args:    []common.LType{typ, typ},
				_retType: common.BooleanType(),
				_funcTyp: ScalarFuncType,
				_scalar:  GetCompareFunction(op, typ.GetInternalType()),
			})
		}
		funcList.Add(op.String(), set)
	}
}
