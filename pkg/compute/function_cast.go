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
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/daviszhen/vecexec/pkg/chunk"
	"github.com/daviszhen/vecexec/pkg/common"
)

const FuncCast = "cast"

func isSignedType[T integer]() bool {
	var zero T
	return ^zero < 0
}

func castIntegerToInteger[S integer, T integer](in *S, out *T) error {
	v := T(*in)
	if S(v) != *in || (v < 0) != (*in < 0) {
		return errors.Newf("cast %d out of range", *in)
	}
	*out = v
	return nil
}

func castFloatToInteger[S float, T integer](in *S, out *T) error {
	f := math.Round(float64(*in))
	v := T(f)
	if math.IsNaN(f) || float64(v) != f {
		return errors.Newf("cast %v out of range", *in)
	}
	*out = v
	return nil
}

func castNumberToNumber[S number, T number](in *S, out *T) {
	*out = T(*in)
}

func castIntegerToDecimal[S integer](scale int) func(in *S, out *common.Decimal) error {
	return func(in *S, out *common.Decimal) error {
		v := int64(*in)
		if S(v) != *in || (v < 0) != (*in < 0) {
			return errors.Newf("cast %d to decimal out of range", *in)
		}
		d, err := common.DecimalFromInt64(v, scale)
		if err != nil {
			return err
		}
		*out = d
		return nil
	}
}

func castFloatToDecimal[S float](scale int) func(in *S, out *common.Decimal) error {
	return func(in *S, out *common.Decimal) error {
		d, err := common.DecimalFromFloat64(float64(*in), scale)
		if err != nil {
			return err
		}
		*out = d
		return nil
	}
}

func castDecimalToInteger[T integer](in *common.Decimal, out *T) error {
	v, err := in.ToInt64()
	if err != nil {
		return err
	}
	return castIntegerToInteger[int64, T](&v, out)
}

func castDecimalToFloat[T float](in *common.Decimal, out *T) {
	*out = T(in.ToFloat64())
}

func castDecimalToDecimal(scale int) func(in *common.Decimal, out *common.Decimal) {
	return func(in *common.Decimal, out *common.Decimal) {
		*out = in.Rescale(scale)
	}
}

func castIntegerToVarchar[S integer](in *S, out *string) {
	if isSignedType[S]() {
		*out = strconv.FormatInt(int64(*in), 10)
	} else {
		*out = strconv.FormatUint(uint64(*in), 10)
	}
}

func castFloatToVarchar[S float](bitSize int) func(in *S, out *string) {
	return func(in *S, out *string) {
		*out = strconv.FormatFloat(float64(*in), 'g', -1, bitSize)
	}
}

func castBoolToVarchar(in *bool, out *string) {
	*out = strconv.FormatBool(*in)
}

func castDecimalToVarchar(in *common.Decimal, out *string) {
	*out = in.String()
}

func castVarcharToInteger[T integer](in *string, out *T) error {
	s := strings.TrimSpace(*in)
	if isSignedType[T]() {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "cast %q", *in)
		}
		return castIntegerToInteger[int64, T](&v, out)
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "cast %q", *in)
	}
	return castIntegerToInteger[uint64, T](&v, out)
}

func castVarcharToFloat[T float](bitSize int) func(in *string, out *T) error {
	return func(in *string, out *T) error {
		v, err := strconv.ParseFloat(strings.TrimSpace(*in), bitSize)
		if err != nil {
			return errors.Wrapf(err, "cast %q", *in)
		}
		*out = T(v)
		return nil
	}
}

func castVarcharToBool(in *string, out *bool) error {
	v, err := strconv.ParseBool(strings.TrimSpace(*in))
	if err != nil {
		return errors.Wrapf(err, "cast %q", *in)
	}
	*out = v
	return nil
}

func castVarcharToDecimal(scale int) func(in *string, out *common.Decimal) error {
	return func(in *string, out *common.Decimal) error {
		d, err := common.ParseDecimal(strings.TrimSpace(*in), scale)
		if err != nil {
			return err
		}
		*out = d.Rescale(scale)
		return nil
	}
}

// GetCastFunction returns the scalar function casting src to dst.
// Failing rows make the whole cast fail.
func GetCastFunction(src, dst common.LType) (ScalarFunc, error) {
	var fun ScalarFunc
	switch src.GetInternalType() {
	case common.BOOL:
		if dst.Id == common.LTID_VARCHAR {
			fun = UnaryFunction[bool, string](castBoolToVarchar)
		}
	case common.INT8:
		fun = castFromInteger[int8](dst)
	case common.INT16:
		fun = castFromInteger[int16](dst)
	case common.INT32:
		fun = castFromInteger[int32](dst)
	case common.INT64:
		fun = castFromInteger[int64](dst)
	case common.UINT8:
		fun = castFromInteger[uint8](dst)
	case common.UINT16:
		fun = castFromInteger[uint16](dst)
	case common.UINT32:
		fun = castFromInteger[uint32](dst)
	case common.UINT64:
		fun = castFromInteger[uint64](dst)
	case common.FLOAT:
		fun = castFromFloat[float32](dst, 32)
	case common.DOUBLE:
		fun = castFromFloat[float64](dst, 64)
	case common.DECIMAL:
		fun = castFromDecimal(dst)
	case common.VARCHAR:
		fun = castFromVarchar(dst)
	}
	if fun == nil {
		return nil, errors.Newf("unsupported cast from %s to %s", src, dst)
	}
	return fun, nil
}

func castFromInteger[S integer](dst common.LType) ScalarFunc {
	switch dst.GetInternalType() {
	case common.INT8:
		return UnaryTryFunction[S, int8](castIntegerToInteger[S, int8])
	case common.INT16:
		return UnaryTryFunction[S, int16](castIntegerToInteger[S, int16])
	case common.INT32:
		return UnaryTryFunction[S, int32](castIntegerToInteger[S, int32])
	case common.INT64:
		return UnaryTryFunction[S, int64](castIntegerToInteger[S, int64])
	case common.UINT8:
		return UnaryTryFunction[S, uint8](castIntegerToInteger[S, uint8])
	case common.UINT16:
		return UnaryTryFunction[S, uint16](castIntegerToInteger[S, uint16])
	case common.UINT32:
		return UnaryTryFunction[S, uint32](castIntegerToInteger[S, uint32])
	case common.UINT64:
		return UnaryTryFunction[S, uint64](castIntegerToInteger[S, uint64])
	case common.FLOAT:
		return UnaryFunction[S, float32](castNumberToNumber[S, float32])
	case common.DOUBLE:
		return UnaryFunction[S, float64](castNumberToNumber[S, float64])
	case common.DECIMAL:
		return UnaryTryFunction[S, common.Decimal](castIntegerToDecimal[S](dst.Scale))
	case common.VARCHAR:
		return UnaryFunction[S, string](castIntegerToVarchar[S])
	default:
		return nil
	}
}

func castFromFloat[S float](dst common.LType, bitSize int) ScalarFunc {
	switch dst.GetInternalType() {
	case common.INT8:
		return UnaryTryFunction[S, int8](castFloatToInteger[S, int8])
	case common.INT16:
		return UnaryTryFunction[S, int16](castFloatToInteger[S, int16])
	case common.INT32:
		return UnaryTryFunction[S, int32](castFloatToInteger[S, int32])
	case common.INT64:
		return UnaryTryFunction[S, int64](castFloatToInteger[S, int64])
	case common.UINT8:
		return UnaryTryFunction[S, uint8](castFloatToInteger[S, uint8])
	case common.UINT16:
		return UnaryTryFunction[S, uint16](castFloatToInteger[S, uint16])
	case common.UINT32:
		return UnaryTryFunction[S, uint32](castFloatToInteger[S, uint32])
	case common.UINT64:
		return UnaryTryFunction[S, uint64](castFloatToInteger[S, uint64])
	case common.FLOAT:
		return UnaryFunction[S, float32](castNumberToNumber[S, float32])
	case common.DOUBLE:
		return UnaryFunction[S, float64](castNumberToNumber[S, float64])
	case common.DECIMAL:
		return UnaryTryFunction[S, common.Decimal](castFloatToDecimal[S](dst.Scale))
	case common.VARCHAR:
		return UnaryFunction[S, string](castFloatToVarchar[S](bitSize))
	default:
		return nil
	}
}

func castFromDecimal(dst common.LType) ScalarFunc {
	switch dst.GetInternalType() {
	case common.INT8:
		return UnaryTryFunction[common.Decimal, int8](castDecimalToInteger[int8])
	case common.INT16:
		return UnaryTryFunction[common.Decimal, int16](castDecimalToInteger[int16])
	case common.INT32:
		return UnaryTryFunction[common.Decimal, int32](castDecimalToInteger[int32])
	case common.INT64:
		return UnaryTryFunction[common.Decimal, int64](castDecimalToInteger[int64])
	case common.UINT8:
		return UnaryTryFunction[common.Decimal, uint8](castDecimalToInteger[uint8])
	case common.UINT16:
		return UnaryTryFunction[common.Decimal, uint16](castDecimalToInteger[uint16])
	case common.UINT32:
		return UnaryTryFunction[common.Decimal, uint32](castDecimalToInteger[uint32])
	case common.UINT64:
		return UnaryTryFunction[common.Decimal, uint64](castDecimalToInteger[uint64])
	case common.FLOAT:
		return UnaryFunction[common.Decimal, float32](castDecimalToFloat[float32])
	case common.DOUBLE:
		return UnaryFunction[common.Decimal, float64](castDecimalToFloat[float64])
	case common.DECIMAL:
		return UnaryFunction[common.Decimal, common.Decimal](castDecimalToDecimal(dst.Scale))
	case common.VARCHAR:
		return UnaryFunction[common.Decimal, string](castDecimalToVarchar)
	default:
		return nil
	}
}

func castFromVarchar(dst common.LType) ScalarFunc {
	switch dst.GetInternalType() {
	case common.BOOL:
		return UnaryTryFunction[string, bool](castVarcharToBool)
	case common.INT8:
		return UnaryTryFunction[string, int8](castVarcharToInteger[int8])
	case common.INT16:
		return UnaryTryFunction[string, int16](castVarcharToInteger[int16])
	case common.INT32:
		return UnaryTryFunction[string, int32](castVarcharToInteger[int32])
	case common.INT64:
		return UnaryTryFunction[string, int64](castVarcharToInteger[int64])
	case common.UINT8:
		return UnaryTryFunction[string, uint8](castVarcharToInteger[uint8])
	case common.UINT16:
		return UnaryTryFunction[string, uint16](castVarcharToInteger[uint16])
	case common.UINT32:
		return UnaryTryFunction[string, uint32](castVarcharToInteger[uint32])
	case common.UINT64:
		return UnaryTryFunction[string, uint64](castVarcharToInteger[uint64])
	case common.FLOAT:
		return UnaryTryFunction[string, float32](castVarcharToFloat[float32](32))
	case common.DOUBLE:
		return UnaryTryFunction[string, float64](castVarcharToFloat[float64](64))
	case common.DECIMAL:
		return UnaryTryFunction[string, common.Decimal](castVarcharToDecimal(dst.Scale))
	case common.VARCHAR:
		return UnaryFunction[string, string](func(in *string, out *string) { *out = *in })
	default:
		return nil
	}
}

// AddCastToType wraps expr in a cast to typ unless it already has it.
// Constants are folded.
func AddCastToType(expr *Expr, typ common.LType) (*Expr, error) {
	if expr.DataTyp.Equal(typ) {
		return expr, nil
	}
	if expr.DataTyp.Id == common.LTID_VARCHAR && typ.Id == common.LTID_VARCHAR {
		// collation only
		ret := expr.copy()
		ret.DataTyp = typ
		return ret, nil
	}
	if expr.Typ == ET_Const {
		return foldConstCast(expr, typ)
	}
	fun, err := GetCastFunction(expr.DataTyp, typ)
	if err != nil {
		return nil, err
	}
	return &Expr{
		Typ:     ET_Func,
		SubTyp:  ET_Cast,
		DataTyp: typ,
		FunImpl: &FunctionV2{
			_name:    FuncCast,
			_args:    []common.LType{expr.DataTyp},
			_retType: typ,
			_funcTyp: ScalarFuncType,
			_scalar:  fun,
		},
		Children: []*Expr{expr},
	}, nil
}

func foldConstCast(expr *Expr, typ common.LType) (*Expr, error) {
	if expr.ConstValue.IsNull {
		ret := expr.copy()
		ret.DataTyp = typ
		ret.ConstValue.Typ = typ
		return ret, nil
	}
	val, err := CastValue(expr.ConstValue, typ)
	if err != nil {
		return nil, err
	}
	ret := expr.copy()
	ret.DataTyp = typ
	ret.ConstValue = val
	return ret, nil
}

// CastValue casts a single value by running the cast kernel on a
// constant vector.
func CastValue(val *chunk.Value, typ common.LType) (*chunk.Value, error) {
	if val.IsNull {
		return chunk.NullValue(typ), nil
	}
	fun, err := GetCastFunction(val.Typ, typ)
	if err != nil {
		return nil, err
	}
	src := chunk.NewConstVector(val.Typ)
	src.ReferenceValue(val)
	src.SetCount(1)
	input := &chunk.Chunk{Data: []*chunk.Vector{src}, Count: 1}
	result := chunk.NewConstVector(typ)
	result.SetCount(1)
	if err = fun(input, nil, result); err != nil {
		return nil, err
	}
	return result.GetValue(0), nil
}
