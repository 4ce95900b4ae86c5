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
	"fmt"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/daviszhen/vecexec/pkg/common"
)

type Value struct {
	Typ    common.LType
	IsNull bool
	//value
	Bool bool
	I64  int64
	// fraction of a decimal
	I64_1 int64
	U64   uint64
	F64   float64
	Str   string
}

func NullValue(typ common.LType) *Value {
	return &Value{Typ: typ, IsNull: true}
}

func BoolValue(b bool) *Value {
	return &Value{Typ: common.BooleanType(), Bool: b}
}

func IntegerValue(i int32) *Value {
	return &Value{Typ: common.IntegerType(), I64: int64(i)}
}

func BigintValue(i int64) *Value {
	return &Value{Typ: common.BigintType(), I64: i}
}

func UbigintValue(u uint64) *Value {
	return &Value{Typ: common.UbigintType(), U64: u}
}

func DoubleValue(f float64) *Value {
	return &Value{Typ: common.DoubleType(), F64: f}
}

func VarcharValue(s string) *Value {
	return &Value{Typ: common.VarcharType(), Str: s}
}

// DecimalValue keeps the literal text. It is parsed at the type's scale.
func DecimalValue(s string, width, scale int) *Value {
	return &Value{Typ: common.DecimalType(width, scale), Str: s}
}

func (val Value) Decimal() (common.Decimal, error) {
	if len(val.Str) != 0 {
		return common.ParseDecimal(val.Str, val.Typ.Scale)
	}
	return common.DecimalFromParts(val.I64, val.I64_1, val.Typ.Scale)
}

func (val Value) String() string {
	if val.IsNull {
		return "NULL"
	}
	switch val.Typ.GetInternalType() {
	case common.BOOL:
		return strconv.FormatBool(val.Bool)
	case common.INT8, common.INT16, common.INT32, common.INT64:
		return strconv.FormatInt(val.I64, 10)
	case common.UINT8, common.UINT16, common.UINT32, common.UINT64:
		return strconv.FormatUint(val.U64, 10)
	case common.FLOAT:
		return strconv.FormatFloat(val.F64, 'g', -1, 32)
	case common.DOUBLE:
		return strconv.FormatFloat(val.F64, 'g', -1, 64)
	case common.VARCHAR:
		return val.Str
	case common.DECIMAL:
		d, err := val.Decimal()
		if err != nil {
			return val.Str
		}
		return d.String()
	default:
		panic(fmt.Sprintf("usp %v", val.Typ))
	}
}

// ParseValue reads the text form of a value of type typ.
func ParseValue(typ common.LType, s string) (*Value, error) {
	ret := &Value{Typ: typ}
	var err error
	switch typ.GetInternalType() {
	case common.BOOL:
		ret.Bool, err = strconv.ParseBool(s)
	case common.INT8:
		ret.I64, err = strconv.ParseInt(s, 10, 8)
	case common.INT16:
		ret.I64, err = strconv.ParseInt(s, 10, 16)
	case common.INT32:
		ret.I64, err = strconv.ParseInt(s, 10, 32)
	case common.INT64:
		ret.I64, err = strconv.ParseInt(s, 10, 64)
	case common.UINT8:
		ret.U64, err = strconv.ParseUint(s, 10, 8)
	case common.UINT16:
		ret.U64, err = strconv.ParseUint(s, 10, 16)
	case common.UINT32:
		ret.U64, err = strconv.ParseUint(s, 10, 32)
	case common.UINT64:
		ret.U64, err = strconv.ParseUint(s, 10, 64)
	case common.FLOAT:
		ret.F64, err = strconv.ParseFloat(s, 32)
	case common.DOUBLE:
		ret.F64, err = strconv.ParseFloat(s, 64)
	case common.VARCHAR:
		ret.Str = s
	case common.DECIMAL:
		var d common.Decimal
		d, err = common.ParseDecimal(s, typ.Scale)
		if err == nil {
			ret.Str = d.String()
		}
	default:
		return nil, errors.Newf("can not parse %v", typ)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parse %q as %v", s, typ)
	}
	return ret, nil
}
