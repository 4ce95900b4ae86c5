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
	"fmt"
	"math"

	"github.com/cockroachdb/errors"

	"github.com/daviszhen/vecexec/pkg/common"
	"github.com/daviszhen/vecexec/pkg/util"
)

type signed interface {
	~int8 | ~int16 | ~int32 | ~int64
}

type unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

type integer interface {
	signed | unsigned
}

type float interface {
	~float32 | ~float64
}

type number interface {
	integer | float
}

var errOutOfRange = errors.New("integer out of range")

func addSignedCheckOf[T signed](left, right, result *T) error {
	res := *left + *right
	if (*right > 0 && res < *left) || (*right < 0 && res > *left) {
		return errors.Wrapf(errOutOfRange, "%d + %d", *left, *right)
	}
	*result = res
	return nil
}

func addUnsignedCheckOf[T unsigned](left, right, result *T) error {
	res := *left + *right
	if res < *left {
		return errors.Wrapf(errOutOfRange, "%d + %d", *left, *right)
	}
	*result = res
	return nil
}

func subSignedCheckOf[T signed](left, right, result *T) error {
	res := *left - *right
	if (*right > 0 && res > *left) || (*right < 0 && res < *left) {
		return errors.Wrapf(errOutOfRange, "%d - %d", *left, *right)
	}
	*result = res
	return nil
}

func subUnsignedCheckOf[T unsigned](left, right, result *T) error {
	if *right > *left {
		return errors.Wrapf(errOutOfRange, "%d - %d", *left, *right)
	}
	*result = *left - *right
	return nil
}

func mulSignedCheckOf[T signed](left, right, result *T) error {
	res := *left * *right
	if *left != 0 {
		// the product of -1 and the minimum wraps to itself
		if res / *left != *right ||
			(*left == -1 && *right < 0 && res < 0) {
			return errors.Wrapf(errOutOfRange, "%d * %d", *left, *right)
		}
	}
	*result = res
	return nil
}

func mulUnsignedCheckOf[T unsigned](left, right, result *T) error {
	res := *left * *right
	if *left != 0 && res / *left != *right {
		return errors.Wrapf(errOutOfRange, "%d * %d", *left, *right)
	}
	*result = res
	return nil
}

func addOp[T number](left, right, result *T) {
	*result = *left + *right
}

func subOp[T number](left, right, result *T) {
	*result = *left - *right
}

func mulOp[T number](left, right, result *T) {
	*result = *left * *right
}

// divide by zero is NULL
func divIntegerOp[T integer](left, right, result *T, mask *util.Bitmap, idx int) {
	if *right == 0 {
		mask.SetInvalid(uint64(idx))
		return
	}
	*result = *left / *right
}

func divFloatOp[T float](left, right, result *T, mask *util.Bitmap, idx int) {
	if *right == 0 {
		mask.SetInvalid(uint64(idx))
		return
	}
	*result = *left / *right
}

func modIntegerOp[T integer](left, right, result *T, mask *util.Bitmap, idx int) {
	if *right == 0 {
		mask.SetInvalid(uint64(idx))
		return
	}
	*result = *left % *right
}

func modFloatOp[T float](left, right, result *T, mask *util.Bitmap, idx int) {
	if *right == 0 {
		mask.SetInvalid(uint64(idx))
		return
	}
	*result = T(math.Mod(float64(*left), float64(*right)))
}

func negateSignedCheckOf[T signed](input, result *T) error {
	res := -*input
	if *input != 0 && res == *input {
		return errors.Wrapf(errOutOfRange, "-%d", *input)
	}
	*result = res
	return nil
}

func negateFloat[T float](input, result *T) {
	*result = -*input
}

func addDecimal(left, right, result *common.Decimal) error {
	res, err := common.AddDecimal(*left, *right)
	if err != nil {
		return err
	}
	*result = res
	return nil
}

func subDecimal(left, right, result *common.Decimal) error {
	res, err := common.SubDecimal(*left, *right)
	if err != nil {
		return err
	}
	*result = res
	return nil
}

// mulDecimalScale keeps the scale of the operands.
func mulDecimalScale(scale int) func(left, right, result *common.Decimal) error {
	return func(left, right, result *common.Decimal) error {
		res, err := common.MulDecimal(*left, *right)
		if err != nil {
			return err
		}
		*result = res.Rescale(scale)
		return nil
	}
}

func divDecimalScale(scale int) BinaryFunc[common.Decimal, common.Decimal, common.Decimal] {
	return func(left, right, result *common.Decimal, mask *util.Bitmap, idx int) {
		if right.IsZero() {
			mask.SetInvalid(uint64(idx))
			return
		}
		res, err := common.QuoDecimal(*left, *right)
		if err != nil {
			mask.SetInvalid(uint64(idx))
			return
		}
		*result = res.Rescale(scale)
	}
}

func negateDecimal(input, result *common.Decimal) {
	*result = common.NegateDecimal(*input)
}

// GetScalarArithFunction returns op over pTyp. Integer + - * fail on
// overflow. / and % yield NULL for a zero divisor.
func GetScalarArithFunction(op ET_SubTyp, typ common.LType) ScalarFunc {
	switch typ.GetInternalType() {
	case common.INT8:
		return signedArith[int8](op)
	case common.INT16:
		return signedArith[int16](op)
	case common.INT32:
		return signedArith[int32](op)
	case common.INT64:
		return signedArith[int64](op)
	case common.UINT8:
		return unsignedArith[uint8](op)
	case common.UINT16:
		return unsignedArith[uint16](op)
	case common.UINT32:
		return unsignedArith[uint32](op)
	case common.UINT64:
		return unsignedArith[uint64](op)
	case common.FLOAT:
		return floatArith[float32](op)
	case common.DOUBLE:
		return floatArith[float64](op)
	case common.DECIMAL:
		return decimalArith(op, typ.Scale)
	default:
		panic(fmt.Sprintf("usp arith type %s", typ))
	}
}

func signedArith[T signed](op ET_SubTyp) ScalarFunc {
	switch op {
	case ET_Add:
		return BinaryTryFunction[T, T, T](addSignedCheckOf[T])
	case ET_Sub:
		return BinaryTryFunction[T, T, T](subSignedCheckOf[T])
	case ET_Mul:
		return BinaryTryFunction[T, T, T](mulSignedCheckOf[T])
	case ET_Div:
		return BinaryFunctionWithNulls[T, T, T](divIntegerOp[T])
	case ET_Mod:
		return BinaryFunctionWithNulls[T, T, T](modIntegerOp[T])
	case ET_Neg:
		return UnaryTryFunction[T, T](negateSignedCheckOf[T])
	default:
		panic(fmt.Sprintf("usp arith op %v", op))
	}
}

func unsignedArith[T unsigned](op ET_SubTyp) ScalarFunc {
	switch op {
	case ET_Add:
		return BinaryTryFunction[T, T, T](addUnsignedCheckOf[T])
	case ET_Sub:
		return BinaryTryFunction[T, T, T](subUnsignedCheckOf[T])
	case ET_Mul:
		return BinaryTryFunction[T, T, T](mulUnsignedCheckOf[T])
	case ET_Div:
		return BinaryFunctionWithNulls[T, T, T](divIntegerOp[T])
	case ET_Mod:
		return BinaryFunctionWithNulls[T, T, T](modIntegerOp[T])
	default:
		panic(fmt.Sprintf("usp arith op %v", op))
	}
}

func floatArith[T float](op ET_SubTyp) ScalarFunc {
	switch op {
	case ET_Add:
		return BinaryFunction[T, T, T](addOp[T])
	case ET_Sub:
		return BinaryFunction[T, T, T](subOp[T])
	case ET_Mul:
		return BinaryFunction[T, T, T](mulOp[T])
	case ET_Div:
		return BinaryFunctionWithNulls[T, T, T](divFloatOp[T])
	case ET_Mod:
		return BinaryFunctionWithNulls[T, T, T](modFloatOp[T])
	case ET_Neg:
		return UnaryFunction[T, T](negateFloat[T])
	default:
		panic(fmt.Sprintf("usp arith op %v", op))
	}
}

func decimalArith(op ET_SubTyp, scale int) ScalarFunc {
	switch op {
	case ET_Add:
		return BinaryTryFunction[common.Decimal, common.Decimal, common.Decimal](addDecimal)
	case ET_Sub:
		return BinaryTryFunction[common.Decimal, common.Decimal, common.Decimal](subDecimal)
	case ET_Mul:
		return BinaryTryFunction[common.Decimal, common.Decimal, common.Decimal](mulDecimalScale(scale))
	case ET_Div:
		return BinaryFunctionWithNulls[common.Decimal, common.Decimal, common.Decimal](divDecimalScale(scale))
	case ET_Neg:
		return UnaryFunction[common.Decimal, common.Decimal](negateDecimal)
	default:
		panic(fmt.Sprintf("usp arith op %v", op))
	}
}

func arithFunctions(op ET_SubTyp, typs []common.LType) *FunctionSet {
	set := NewFunctionSet(op.String(), ScalarFuncType)
	for _, typ := range typs {
		set.Add(&FunctionV2{
			_name:    op.String(),
			_args:    []common.LType{typ, typ},
			_retType: typ,
			_funcTyp: ScalarFuncType,
			_scalar:  GetScalarArithFunction(op, typ),
		})
	}
	set.Add(&FunctionV2{
		_name:    op.String(),
		_args:    []common.LType{common.DecimalType(common.DecimalMaxWidth, 0), common.DecimalType(common.DecimalMaxWidth, 0)},
		_funcTyp: ScalarFuncType,
		_bind:    bindDecimalArith(op),
	})
	return set
}

// bindDecimalArith specializes a decimal overload to the scale of its
// operands, which the binder has already cast to a common type.
func bindDecimalArith(op ET_SubTyp) bindScalarFunc {
	return func(fun *FunctionV2, args []*Expr) *FunctionData {
		typ := args[0].DataTyp
		fun = &FunctionV2{
			_name:    fun._name,
			_args:    []common.LType{typ, typ},
			_retType: typ,
			_funcTyp: ScalarFuncType,
			_scalar:  GetScalarArithFunction(op, typ),
		}
		return &FunctionData{RetType: typ, Fun: fun}
	}
}

type AddFunc struct {
}

func (AddFunc) Register(funcList FunctionList) {
	funcList.Add(ET_Add.String(), arithFunctions(ET_Add, common.Numeric()))
}

type SubFunc struct {
}

func (SubFunc) Register(funcList FunctionList) {
	set := arithFunctions(ET_Sub, common.Numeric())
	funcList.Add(ET_Sub.String(), set)
	neg := NewFunctionSet(ET_Neg.String(), ScalarFuncType)
	for _, typ := range common.Numeric() {
		if typ.PTyp.IsIntegral() && !isSignedPhyType(typ.PTyp) {
			continue
		}
		neg.Add(&FunctionV2{
			_name:    ET_Neg.String(),
			_args:    []common.LType{typ},
			_retType: typ,
			_funcTyp: ScalarFuncType,
			_scalar:  GetScalarArithFunction(ET_Neg, typ),
		})
	}
	neg.Add(&FunctionV2{
		_name:    ET_Neg.String(),
		_args:    []common.LType{common.DecimalType(common.DecimalMaxWidth, 0)},
		_funcTyp: ScalarFuncType,
		_bind: func(fun *FunctionV2, args []*Expr) *FunctionData {
			typ := args[0].DataTyp
			return &FunctionData{RetType: typ, Fun: &FunctionV2{
				_name:    fun._name,
				_args:    []common.LType{typ},
				_retType: typ,
				_funcTyp: ScalarFuncType,
				_scalar:  GetScalarArithFunction(ET_Neg, typ),
			}}
		},
	})
	funcList.Add(ET_Neg.String(), neg)
}

func isSignedPhyType(pTyp common.PhyType) bool {
	switch pTyp {
	case common.INT8, common.INT16, common.INT32, common.INT64:
		return true
	default:
		return false
	}
}

type MultiplyFunc struct {
}

func (MultiplyFunc) Register(funcList FunctionList) {
	funcList.Add(ET_Mul.String(), arithFunctions(ET_Mul, common.Numeric()))
}

type DivideFunc struct {
}

func (DivideFunc) Register(funcList FunctionList) {
	funcList.Add(ET_Div.String(), arithFunctions(ET_Div, common.Numeric()))
}

type ModFunc struct {
}

func (ModFunc) Register(funcList FunctionList) {
	set := NewFunctionSet(ET_Mod.String(), ScalarFuncType)
	for _, typ := range common.Numeric() {
		set.Add(&FunctionV2{
			_name:    ET_Mod.String(),
			_args:    []common.LType{typ, typ},
			_retType: typ,
			_funcTyp: ScalarFuncType,
			_scalar:  GetScalarArithFunction(ET_Mod, typ),
		})
	}
	funcList.Add(ET_Mod.String(), set)
}
