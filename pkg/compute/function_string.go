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
	"unicode"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/daviszhen/vecexec/pkg/catalog"
	"github.com/daviszhen/vecexec/pkg/chunk"
	"github.com/daviszhen/vecexec/pkg/common"
)

const (
	FuncUpper     = "upper"
	FuncLower     = "lower"
	FuncLength    = "length"
	FuncConcat    = "concat"
	FuncSubstring = "substring"
)

// casers are stateful, so every batch gets its own.
func caseFunction(newCaser func() cases.Caser) ScalarFunc {
	return func(input *chunk.Chunk, state *ExprState, result *chunk.Vector) error {
		caser := newCaser()
		UnaryExecute[string, string](input.Data[0], result,
			func(in *string, res *string) {
				*res = caser.String(*in)
			})
		return nil
	}
}

type UpperFunc struct {
}

func (UpperFunc) Register(funcList FunctionList) {
	set := NewFunctionSet(FuncUpper, ScalarFuncType)
	set.Add(&FunctionV2{
		_name:    FuncUpper,
		_args:    []common.LType{common.VarcharType()},
		_retType: common.VarcharType(),
		_funcTyp: ScalarFuncType,
		_scalar: caseFunction(func() cases.Caser {
			return cases.Upper(language.Und)
		}),
	})
	funcList.Add(FuncUpper, set)
}

type LowerFunc struct {
}

func (LowerFunc) Register(funcList FunctionList) {
	set := NewFunctionSet(FuncLower, ScalarFuncType)
	set.Add(&FunctionV2{
		_name:    FuncLower,
		_args:    []common.LType{common.VarcharType()},
		_retType: common.VarcharType(),
		_funcTyp: ScalarFuncType,
		_scalar: caseFunction(func() cases.Caser {
			return cases.Lower(language.Und)
		}),
	})
	funcList.Add(FuncLower, set)
}

func lengthOp(s *string, result *int64) {
	*result = int64(utf8.RuneCountInString(*s))
}

type LengthFunc struct {
}

func (LengthFunc) Register(funcList FunctionList) {
	set := NewFunctionSet(FuncLength, ScalarFuncType)
	set.Add(&FunctionV2{
		_name:    FuncLength,
		_args:    []common.LType{common.VarcharType()},
		_retType: common.BigintType(),
		_funcTyp: ScalarFuncType,
		_scalar:  UnaryFunction[string, int64](lengthOp),
	})
	funcList.Add(FuncLength, set)
}

func concatOp(left, right, result *string) {
	*result = *left + *right
}

type ConcatFunc struct {
}

func (ConcatFunc) Register(funcList FunctionList) {
	set := NewFunctionSet(FuncConcat, ScalarFuncType)
	set.Add(&FunctionV2{
		_name:    FuncConcat,
		_args:    []common.LType{common.VarcharType(), common.VarcharType()},
		_retType: common.VarcharType(),
		_funcTyp: ScalarFuncType,
		_scalar:  BinaryFunction[string, string, string](concatOp),
	})
	funcList.Add(FuncConcat, set)
}

const (
	substringLowerLimit = -math.MaxUint32
	substringUpperLimit = math.MaxUint32
)

// substringStartEnd computes the rune range [start, end) of
// substring(s, offset, length). offset is 1 based and counts from the end
// when negative. A negative length takes the runes before offset.
func substringStartEnd(slen, offset, length int64) (start, end int64, ok bool) {
	if length == 0 {
		return 0, 0, false
	}
	if offset > 0 {
		start = min(slen, offset-1)
	} else if offset < 0 {
		start = max(slen+offset, 0)
	} else {
		start = 0
		length--
		if length <= 0 {
			return 0, 0, false
		}
	}
	if length > 0 {
		end = min(slen, start+length)
	} else {
		end = start
		start = max(0, start+length)
	}
	return start, end, start < end
}

func substringOp(s *string, offset *int64, length *int64, result *string) error {
	if *offset < substringLowerLimit || *offset > substringUpperLimit ||
		*length < substringLowerLimit || *length > substringUpperLimit {
		return errors.Newf("substring offset %d length %d out of range", *offset, *length)
	}
	isASCII := true
	for i := 0; i < len(*s); i++ {
		if (*s)[i] >= utf8.RuneSelf {
			isASCII = false
			break
		}
	}
	if isASCII {
		start, end, ok := substringStartEnd(int64(len(*s)), *offset, *length)
		if !ok {
			*result = ""
			return nil
		}
		*result = (*s)[start:end]
		return nil
	}
	rs := []rune(*s)
	start, end, ok := substringStartEnd(int64(len(rs)), *offset, *length)
	if !ok {
		*result = ""
		return nil
	}
	*result = string(rs[start:end])
	return nil
}

func substringWithoutLengthOp(s *string, offset *int64, result *string) error {
	length := int64(substringUpperLimit)
	return substringOp(s, offset, &length, result)
}

type SubstringFunc struct {
}

func (SubstringFunc) Register(funcList FunctionList) {
	set := NewFunctionSet(FuncSubstring, ScalarFuncType)
	set.Add(&FunctionV2{
		_name: FuncSubstring,
		_args: []common.LType{
			common.VarcharType(),
			common.BigintType(),
			common.BigintType(),
		},
		_retType: common.VarcharType(),
		_funcTyp: ScalarFuncType,
		_scalar: func(input *chunk.Chunk, state *ExprState, result *chunk.Vector) error {
			return TernaryTryExecute[string, int64, int64, string](
				input.Data[0], input.Data[1], input.Data[2], result, substringOp)
		},
	})
	set.Add(&FunctionV2{
		_name: FuncSubstring,
		_args: []common.LType{
			common.VarcharType(),
			common.BigintType(),
		},
		_retType: common.VarcharType(),
		_funcTyp: ScalarFuncType,
		_scalar:  BinaryTryFunction[string, int64, string](substringWithoutLengthOp),
	})
	funcList.Add(FuncSubstring, set)
}

// Collation functions map a string to a key whose binary order is the
// collation order.

func nocaseFunction() ScalarFunc {
	return caseFunction(func() cases.Caser {
		return cases.Fold()
	})
}

func noaccentFunction() ScalarFunc {
	return func(input *chunk.Chunk, state *ExprState, result *chunk.Vector) error {
		t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
		return UnaryTryExecute[string, string](input.Data[0], result,
			func(in *string, res *string) error {
				out, _, err := transform.String(t, *in)
				if err != nil {
					return errors.Wrapf(err, "strip accents of %q", *in)
				}
				*res = out
				return nil
			})
	}
}

func languageFunction(tag language.Tag) ScalarFunc {
	return func(input *chunk.Chunk, state *ExprState, result *chunk.Vector) error {
		col := collate.New(tag)
		buf := &collate.Buffer{}
		UnaryExecute[string, string](input.Data[0], result,
			func(in *string, res *string) {
				*res = string(col.KeyFromString(buf, *in))
				buf.Reset()
			})
		return nil
	}
}

type CollateFunc struct {
	Languages []string
}

func (fun CollateFunc) Register(funcList FunctionList) {
	add := func(collation string, scalar ScalarFunc) {
		name := catalog.CollateFunctionName(collation)
		set := NewFunctionSet(name, ScalarFuncType)
		set.Add(&FunctionV2{
			_name:    name,
			_args:    []common.LType{common.VarcharType()},
			_retType: common.VarcharType(),
			_funcTyp: ScalarFuncType,
			_scalar:  scalar,
		})
		funcList.Add(name, set)
	}
	add(catalog.CollationNocase, nocaseFunction())
	add(catalog.CollationNoaccent, noaccentFunction())
	for _, lang := range fun.Languages {
		add(lang, languageFunction(language.Make(lang)))
	}
}
