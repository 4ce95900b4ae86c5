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
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/daviszhen/vecexec/pkg/chunk"
	"github.com/daviszhen/vecexec/pkg/common"
)

type FuncType int

const (
	ScalarFuncType FuncType = 0
)

type FuncNullHandling int

const (
	DefaultNullHandling FuncNullHandling = 0
	SpecialHandling     FuncNullHandling = 1
)

// ScalarFunc computes result from the columns of input.
// result already has the cardinality of input.
type ScalarFunc func(input *chunk.Chunk, state *ExprState, result *chunk.Vector) error

type bindScalarFunc func(fun *FunctionV2, args []*Expr) *FunctionData

// FunctionData is the outcome of binding an overload to its arguments.
// Fun replaces the overload when it is set.
type FunctionData struct {
	RetType common.LType
	Fun     *FunctionV2
}

type FunctionV2 struct {
	_name         string
	_args         []common.LType
	_retType      common.LType
	_funcTyp      FuncType
	_nullHandling FuncNullHandling

	_scalar ScalarFunc
	_bind   bindScalarFunc
}

func (fun *FunctionV2) Name() string {
	return fun._name
}

func (fun *FunctionV2) RetType() common.LType {
	return fun._retType
}

type FunctionSet struct {
	_name      string
	_functions []*FunctionV2
	_funcTyp   FuncType
}

func NewFunctionSet(name string, ftyp FuncType) *FunctionSet {
	return &FunctionSet{
		_name:    name,
		_funcTyp: ftyp,
	}
}

func (set *FunctionSet) Add(fun *FunctionV2) {
	set._functions = append(set._functions, fun)
}

func (set *FunctionSet) GetFunc(offset int) *FunctionV2 {
	return set._functions[offset]
}

type FunctionList map[string]*FunctionSet

func (list FunctionList) Add(name string, set *FunctionSet) {
	if old, has := list[name]; has {
		old._functions = append(old._functions, set._functions...)
		return
	}
	list[name] = set
}

func (list FunctionList) Names() []string {
	names := make([]string, 0, len(list))
	for name := range list {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type FunctionRegister interface {
	Register(funcList FunctionList)
}

// NewFunctionList registers the builtin scalar functions and the
// collation functions of languages.
func NewFunctionList(languages []string) FunctionList {
	list := make(FunctionList)
	registers := []FunctionRegister{
		AddFunc{},
		SubFunc{},
		MultiplyFunc{},
		DivideFunc{},
		ModFunc{},
		CompareFunc{},
		UpperFunc{},
		LowerFunc{},
		LengthFunc{},
		ConcatFunc{},
		SubstringFunc{},
		CollateFunc{Languages: languages},
	}
	for _, reg := range registers {
		reg.Register(list)
	}
	return list
}

type FunctionBinder struct {
	funcs FunctionList
}

func NewFunctionBinder(funcs FunctionList) *FunctionBinder {
	return &FunctionBinder{funcs: funcs}
}

// BindScalarFunc resolves the overload of name with the lowest implicit
// cast cost and wraps args in the casts it needs.
func (binder *FunctionBinder) BindScalarFunc(
	name string,
	args []*Expr,
	subTyp ET_SubTyp,
) (*Expr, error) {
	set := binder.funcs[name]
	if set == nil {
		return nil, errors.Newf("function %s not found", name)
	}
	argsTypes := make([]common.LType, len(args))
	for i, arg := range args {
		argsTypes[i] = arg.DataTyp
	}
	best, err := binder.BindFunc(name, set, argsTypes)
	if err != nil {
		return nil, err
	}
	fun := set.GetFunc(best)
	children := make([]*Expr, len(args))
	for i, arg := range args {
		target := fun._args[i]
		if target.Id == common.LTID_DECIMAL && arg.DataTyp.Id == common.LTID_DECIMAL {
			// decimal overloads accept any width and scale
			target = arg.DataTyp
		}
		children[i], err = AddCastToType(arg, target)
		if err != nil {
			return nil, err
		}
	}
	retType := fun._retType
	if fun._bind != nil {
		data := fun._bind(fun, children)
		retType = data.RetType
		if data.Fun != nil {
			fun = data.Fun
		}
	}
	return &Expr{
		Typ:      ET_Func,
		SubTyp:   subTyp,
		DataTyp:  retType,
		Children: children,
		FunImpl:  fun,
	}, nil
}

func (binder *FunctionBinder) BindFunc(
	name string,
	set *FunctionSet,
	args []common.LType,
) (int, error) {
	bestFunc := -1
	lowestCost := int64(math.MaxInt64)
	ambiguous := false
	for i, fun := range set._functions {
		cost := binder.BindFuncCost(fun, args)
		if cost < 0 || cost > lowestCost {
			continue
		}
		ambiguous = cost == lowestCost
		lowestCost = cost
		bestFunc = i
	}
	if bestFunc == -1 {
		return -1, errors.Newf("no function matches %s(%v)", name, args)
	}
	if ambiguous {
		return -1, errors.Newf("multiple functions match %s(%v)", name, args)
	}
	return bestFunc, nil
}

func (binder *FunctionBinder) BindFuncCost(
	fun *FunctionV2,
	args []common.LType,
) int64 {
	if len(fun._args) != len(args) {
		return -1
	}
	cost := int64(0)
	for i, arg := range args {
		castCost := common.ImplicitCast(arg, fun._args[i])
		if castCost < 0 {
			return -1
		}
		cost += castCost
	}
	return cost
}

func UnaryFunction[T any, R any](op UnaryOp[T, R]) ScalarFunc {
	return func(input *chunk.Chunk, state *ExprState, result *chunk.Vector) error {
		UnaryExecute[T, R](input.Data[0], result, op)
		return nil
	}
}

func UnaryTryFunction[T any, R any](op func(*T, *R) error) ScalarFunc {
	return func(input *chunk.Chunk, state *ExprState, result *chunk.Vector) error {
		return UnaryTryExecute[T, R](input.Data[0], result, op)
	}
}

func BinaryFunction[T any, S any, R any](op BinaryOp[T, S, R]) ScalarFunc {
	return func(input *chunk.Chunk, state *ExprState, result *chunk.Vector) error {
		BinaryExecute[T, S, R](input.Data[0], input.Data[1], result, op)
		return nil
	}
}

func BinaryFunctionWithNulls[T any, S any, R any](fun BinaryFunc[T, S, R]) ScalarFunc {
	return func(input *chunk.Chunk, state *ExprState, result *chunk.Vector) error {
		BinaryExecuteWithNulls[T, S, R](input.Data[0], input.Data[1], result, fun)
		return nil
	}
}

func BinaryTryFunction[T any, S any, R any](op func(*T, *S, *R) error) ScalarFunc {
	return func(input *chunk.Chunk, state *ExprState, result *chunk.Vector) error {
		return BinaryTryExecute[T, S, R](input.Data[0], input.Data[1], result, op)
	}
}

func TernaryFunction[A any, B any, C any, R any](op TernaryOp[A, B, C, R]) ScalarFunc {
	return func(input *chunk.Chunk, state *ExprState, result *chunk.Vector) error {
		TernaryExecute[A, B, C, R](input.Data[0], input.Data[1], input.Data[2], result, op)
		return nil
	}
}
