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

	"github.com/cockroachdb/errors"

	"github.com/daviszhen/vecexec/pkg/chunk"
	"github.com/daviszhen/vecexec/pkg/common"
	"github.com/daviszhen/vecexec/pkg/util"
)

type ExprState struct {
	_expr       *Expr
	_execState  *ExprExecState
	_children   []*ExprState
	_types      []common.LType
	_interChunk *chunk.Chunk
	// scratch selections of boolean connectives
	_trueSel, _falseSel *chunk.SelectVector
	_matched            []bool
}

func NewExprState(expr *Expr, eeState *ExprExecState) *ExprState {
	return &ExprState{
		_expr:       expr,
		_execState:  eeState,
		_interChunk: &chunk.Chunk{},
	}
}

func (es *ExprState) addChild(child *Expr) {
	es._types = append(es._types, child.DataTyp)
	es._children = append(es._children, initExprState(child, es._execState))
}

func (es *ExprState) finalize() {
	if len(es._types) == 0 {
		return
	}
	es._interChunk.Init(es._types, util.DefaultVectorSize)
}

type ExprExecState struct {
	_root *ExprState
	_exec *ExprExec
}

// ExprExec evaluates bound expressions over the columns of one chunk.
// It keeps intermediate vectors between calls and must not be shared
// by goroutines.
type ExprExec struct {
	_exprs      []*Expr
	_chunk      *chunk.Chunk
	_execStates []*ExprExecState
}

func NewExprExec(es ...*Expr) *ExprExec {
	exec := &ExprExec{}
	for _, e := range es {
		if e == nil {
			continue
		}
		exec.addExpr(e)
	}
	return exec
}

func (exec *ExprExec) addExpr(expr *Expr) {
	util.AssertFuncf(expr.IsBound(), "execute unbound expression %s", expr)
	exec._exprs = append(exec._exprs, expr)
	eeState := &ExprExecState{}
	eeState._exec = exec
	eeState._root = initExprState(expr, eeState)
	exec._execStates = append(exec._execStates, eeState)
}

// ExecuteExprs evaluates expression i into result column i.
func (exec *ExprExec) ExecuteExprs(data *chunk.Chunk, result *chunk.Chunk) error {
	util.AssertFuncf(result.ColumnCount() >= len(exec._exprs),
		"%d result columns for %d expressions", result.ColumnCount(), len(exec._exprs))
	for i := 0; i < len(exec._exprs); i++ {
		err := exec.ExecuteExprI(data, i, result.Data[i])
		if err != nil {
			return err
		}
	}
	result.Count = data.Card()
	return nil
}

func (exec *ExprExec) ExecuteExprI(data *chunk.Chunk, exprId int, result *chunk.Vector) error {
	exec._chunk = data
	return exec.execute(
		exec._exprs[exprId],
		exec._execStates[exprId]._root,
		nil,
		data.Card(),
		result,
	)
}

// execute writes count rows into result. When sel is set, row i of
// result is row sel[i] of the input chunk.
func (exec *ExprExec) execute(expr *Expr, eState *ExprState, sel *chunk.SelectVector, count int, result *chunk.Vector) error {
	if count == 0 {
		result.Reset()
		return nil
	}
	switch expr.Typ {
	case ET_Column:
		return exec.executeColumnRef(expr, sel, count, result)
	case ET_Const:
		return exec.executeConst(expr, count, result)
	case ET_Func:
		switch expr.SubTyp {
		case ET_And, ET_Or:
			return exec.executeConjunction(expr, eState, sel, count, result)
		case ET_Not:
			return exec.executeNot(expr, eState, sel, count, result)
		case ET_Between, ET_IsNull, ET_IsNotNull:
			return exec.executePredicate(expr, eState, sel, count, result)
		default:
			return exec.executeFunc(expr, eState, sel, count, result)
		}
	default:
		panic(fmt.Sprintf("usp expr type %d", expr.Typ))
	}
}

func (exec *ExprExec) executeColumnRef(expr *Expr, sel *chunk.SelectVector, count int, result *chunk.Vector) error {
	if expr.ColIdx >= exec._chunk.ColumnCount() {
		return errors.Newf("column %s index %d out of %d columns",
			expr.Name, expr.ColIdx, exec._chunk.ColumnCount())
	}
	col := exec._chunk.Data[expr.ColIdx]
	if sel != nil {
		result.Slice(col, sel, count)
	} else {
		result.Reference(col)
		result.SetCount(count)
	}
	return nil
}

func (exec *ExprExec) executeConst(expr *Expr, count int, result *chunk.Vector) error {
	result.ReferenceValue(expr.ConstValue)
	result.SetCount(count)
	return nil
}

func (exec *ExprExec) executeChildren(expr *Expr, eState *ExprState, sel *chunk.SelectVector, count int) error {
	eState._interChunk.Reset()
	for i, child := range expr.Children {
		err := exec.execute(child,
			eState._children[i],
			sel,
			count,
			eState._interChunk.Data[i])
		if err != nil {
			return err
		}
	}
	eState._interChunk.SetCard(count)
	return nil
}

func (exec *ExprExec) executeFunc(expr *Expr, eState *ExprState, sel *chunk.SelectVector, count int, result *chunk.Vector) error {
	err := exec.executeChildren(expr, eState, sel, count)
	if err != nil {
		return err
	}
	result.SetCount(count)
	err = expr.FunImpl._scalar(eState._interChunk, eState, result)
	if err != nil {
		return errors.Wrapf(err, "evaluate %s", expr)
	}
	return nil
}

func (exec *ExprExec) executeConjunction(expr *Expr, eState *ExprState, sel *chunk.SelectVector, count int, result *chunk.Vector) error {
	err := exec.executeChildren(expr, eState, sel, count)
	if err != nil {
		return err
	}
	acc := eState._interChunk.Data[0]
	for i := 1; i < len(expr.Children); i++ {
		// the last step writes the result
		dst := result
		if i+1 < len(expr.Children) {
			dst = chunk.NewFlatVector(common.BooleanType(), util.DefaultVectorSize)
		}
		dst.SetCount(count)
		if expr.SubTyp == ET_And {
			logicalAnd(acc, eState._interChunk.Data[i], dst)
		} else {
			logicalOr(acc, eState._interChunk.Data[i], dst)
		}
		acc = dst
	}
	if len(expr.Children) == 1 {
		result.Reference(acc)
	}
	return nil
}

func (exec *ExprExec) executeNot(expr *Expr, eState *ExprState, sel *chunk.SelectVector, count int, result *chunk.Vector) error {
	err := exec.executeChildren(expr, eState, sel, count)
	if err != nil {
		return err
	}
	result.SetCount(count)
	logicalNot(eState._interChunk.Data[0], result)
	return nil
}

// executePredicate materializes BETWEEN and IS [NOT] NULL.
// BETWEEN is null when any operand is null.
func (exec *ExprExec) executePredicate(expr *Expr, eState *ExprState, sel *chunk.SelectVector, count int, result *chunk.Vector) error {
	err := exec.executeChildren(expr, eState, sel, count)
	if err != nil {
		return err
	}
	children := eState._interChunk.Data
	trueCount := exec.selectChildren(expr, children, nil, eState._trueSel, nil)
	result.SetCount(count)
	selectionToBool(eState._trueSel, trueCount, count, result)
	if expr.SubTyp == ET_Between {
		mask := result.Mask
		for _, child := range children[:3] {
			var uni chunk.UnifiedFormat
			child.ToUnifiedFormat(count, &uni)
			if uni.Mask.AllValid() {
				continue
			}
			for i := 0; i < count; i++ {
				if !uni.Mask.RowIsValid(uint64(uni.Sel.GetIndex(i))) {
					mask.SetInvalid(uint64(i))
				}
			}
		}
	}
	return nil
}

// selectChildren runs the selection of a predicate over its evaluated
// children.
func (exec *ExprExec) selectChildren(
	expr *Expr,
	children []*chunk.Vector,
	sel, trueSel, falseSel *chunk.SelectVector,
) int {
	switch {
	case IsCompareOp(expr.SubTyp):
		return SelectComparison(expr.SubTyp, children[0], children[1], sel, trueSel, falseSel)
	case expr.SubTyp == ET_Between:
		return SelectBetween(children[0], children[1], children[2], sel, trueSel, falseSel)
	case expr.SubTyp == ET_IsNotNull:
		return SelectNotNull(children[0], sel, trueSel, falseSel)
	case expr.SubTyp == ET_IsNull:
		// the true side of the not null selection is the false side here
		return children[0].Count() - SelectNotNull(children[0], sel, falseSel, trueSel)
	default:
		panic(fmt.Sprintf("usp predicate %v", expr.SubTyp))
	}
}

// ExecuteSelect writes the rows of data satisfying the first expression
// into sel in row order and returns their count. Null counts as false.
func (exec *ExprExec) ExecuteSelect(data *chunk.Chunk, sel *chunk.SelectVector) (int, error) {
	card := data.Card()
	if len(exec._exprs) == 0 {
		return card, nil
	}
	exec._chunk = data
	return exec.execSelectExpr(
		exec._exprs[0],
		exec._execStates[0]._root,
		nil,
		card,
		sel,
		nil,
	)
}

func (exec *ExprExec) execSelectExpr(expr *Expr, eState *ExprState, sel *chunk.SelectVector, count int, trueSel, falseSel *chunk.SelectVector) (retCount int, err error) {
	if count == 0 {
		return 0, nil
	}
	util.AssertFuncf(expr.DataTyp.Id == common.LTID_BOOLEAN,
		"filter on %s expression %s", expr.DataTyp, expr)
	if expr.Typ == ET_Func {
		switch expr.SubTyp {
		case ET_And:
			return exec.execSelectAnd(expr, eState, sel, count, trueSel, falseSel)
		case ET_Or:
			return exec.execSelectOr(expr, eState, sel, count, trueSel, falseSel)
		case ET_Between, ET_IsNull, ET_IsNotNull:
			return exec.execSelectPredicate(expr, eState, sel, count, trueSel, falseSel)
		default:
			if IsCompareOp(expr.SubTyp) {
				return exec.execSelectPredicate(expr, eState, sel, count, trueSel, falseSel)
			}
		}
	}
	// any other boolean expression
	vec := chunk.NewFlatVector(common.BooleanType(), util.DefaultVectorSize)
	err = exec.execute(expr, eState, sel, count, vec)
	if err != nil {
		return 0, err
	}
	vec.SetCount(count)
	return SelectBool(vec, sel, trueSel, falseSel), nil
}

func (exec *ExprExec) execSelectPredicate(expr *Expr, eState *ExprState, sel *chunk.SelectVector, count int, trueSel, falseSel *chunk.SelectVector) (int, error) {
	err := exec.executeChildren(expr, eState, sel, count)
	if err != nil {
		return 0, err
	}
	return exec.selectChildren(expr, eState._interChunk.Data, sel, trueSel, falseSel), nil
}

// execSelectAnd narrows the candidate rows child by child.
func (exec *ExprExec) execSelectAnd(expr *Expr, eState *ExprState, sel *chunk.SelectVector, count int, trueSel, falseSel *chunk.SelectVector) (int, error) {
	curSel := sel
	curCount := count
	for i, child := range expr.Children {
		trueCount, err := exec.execSelectExpr(child,
			eState._children[i],
			curSel,
			curCount,
			eState._trueSel,
			nil)
		if err != nil {
			return 0, err
		}
		curCount = trueCount
		curSel = eState._trueSel
		if curCount == 0 {
			break
		}
	}
	return exec.partition(eState, sel, count, eState._trueSel, curCount, trueSel, falseSel), nil
}

// execSelectOr tests each child on the rows no earlier child accepted.
func (exec *ExprExec) execSelectOr(expr *Expr, eState *ExprState, sel *chunk.SelectVector, count int, trueSel, falseSel *chunk.SelectVector) (int, error) {
	curSel := sel
	curCount := count
	matched := eState._matched
	clear(matched)
	for i, child := range expr.Children {
		trueCount, err := exec.execSelectExpr(
			child,
			eState._children[i],
			curSel,
			curCount,
			eState._trueSel,
			eState._falseSel)
		if err != nil {
			return 0, err
		}
		for j := 0; j < trueCount; j++ {
			matched[eState._trueSel.GetIndex(j)] = true
		}
		curCount -= trueCount
		curSel = eState._falseSel
		if curCount == 0 {
			break
		}
	}
	return exec.fill(sel, count, matched, trueSel, falseSel), nil
}

// partition routes the rows of sel by membership in accepted.
func (exec *ExprExec) partition(
	eState *ExprState,
	sel *chunk.SelectVector,
	count int,
	accepted *chunk.SelectVector,
	acceptedCount int,
	trueSel, falseSel *chunk.SelectVector,
) int {
	matched := eState._matched
	clear(matched)
	for i := 0; i < acceptedCount; i++ {
		matched[accepted.GetIndex(i)] = true
	}
	return exec.fill(sel, count, matched, trueSel, falseSel)
}

// fill writes the rows of sel in order to the side given by matched.
func (exec *ExprExec) fill(
	sel *chunk.SelectVector,
	count int,
	matched []bool,
	trueSel, falseSel *chunk.SelectVector,
) int {
	if sel == nil {
		sel = chunk.IdentitySelectVector()
	}
	trueCount := 0
	falseCount := 0
	for i := 0; i < count; i++ {
		idx := sel.GetIndex(i)
		if matched[idx] {
			if trueSel != nil {
				trueSel.SetIndex(trueCount, idx)
			}
			trueCount++
		} else {
			if falseSel != nil {
				falseSel.SetIndex(falseCount, idx)
			}
			falseCount++
		}
	}
	return trueCount
}

func initExprState(expr *Expr, eeState *ExprExecState) (ret *ExprState) {
	switch expr.Typ {
	case ET_Column, ET_Const:
		ret = NewExprState(expr, eeState)
	case ET_Func:
		ret = NewExprState(expr, eeState)
		for _, child := range expr.Children {
			ret.addChild(child)
		}
		switch expr.SubTyp {
		case ET_And, ET_Or:
			ret._trueSel = chunk.NewSelectVector(util.DefaultVectorSize)
			ret._falseSel = chunk.NewSelectVector(util.DefaultVectorSize)
			ret._matched = make([]bool, util.DefaultVectorSize)
		case ET_Between, ET_IsNull, ET_IsNotNull:
			ret._trueSel = chunk.NewSelectVector(util.DefaultVectorSize)
		}
	default:
		panic(fmt.Sprintf("usp expr type %d", expr.Typ))
	}
	ret.finalize()
	return
}
