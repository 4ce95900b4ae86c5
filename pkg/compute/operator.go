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
	"context"
	"fmt"

	"github.com/xlab/treeprint"

	"github.com/daviszhen/vecexec/pkg/chunk"
	"github.com/daviszhen/vecexec/pkg/common"
	"github.com/daviszhen/vecexec/pkg/storage"
	"github.com/daviszhen/vecexec/pkg/util"
)

type POT int

const (
	POT_Project     POT = 0
	POT_Filter      POT = 2
	POT_Scan        POT = 7
	POT_CreateIndex POT = 12
)

var potToStr = map[POT]string{
	POT_Project:     "project",
	POT_Filter:      "filter",
	POT_Scan:        "scan",
	POT_CreateIndex: "createIndex",
}

func (t POT) String() string {
	if s, has := potToStr[t]; has {
		return s
	}
	panic(fmt.Sprintf("usp %d", t))
}

type OperatorResult int

const (
	InvalidOpResult OperatorResult = 0
	NeedMoreInput   OperatorResult = 1
	HaveMoreOutput  OperatorResult = 2
	Done            OperatorResult = 3
)

func (res OperatorResult) String() string {
	switch res {
	case NeedMoreInput:
		return "needMoreInput"
	case HaveMoreOutput:
		return "haveMoreOutput"
	case Done:
		return "done"
	default:
		return "invalid"
	}
}

// OperatorState is the state of one operator in one pipeline. The
// states of a pipeline form a chain along the operator children.
type OperatorState struct {
	ctx        context.Context
	child      *OperatorState
	childChunk *chunk.Chunk

	//for table scan
	tableScanState *storage.TableScanState
	scanned        int

	//for filter
	filterExec *ExprExec
	filterSel  *chunk.SelectVector

	//for projection
	projExec *ExprExec

	//for create index
	keyChunk *chunk.Chunk
	keySel   *chunk.SelectVector
	nullSel  *chunk.SelectVector
	appended uint64
	skipped  uint64
}

// PhysicalOperator produces chunks on demand. An operator is shared by
// the pipelines of a parallel build, so everything that changes while
// running lives in the OperatorState.
type PhysicalOperator interface {
	Type() POT
	Children() []PhysicalOperator
	OutputTypes() []common.LType
	// InitState prepares a pipeline over part of the scanned table.
	InitState(ctx context.Context, part *storage.ScanPartition) (*OperatorState, error)
	GetNextChunk(state *OperatorState, output *chunk.Chunk) (OperatorResult, error)
	Explain(tree treeprint.Tree)
}

// initChildState prepares the child pipeline and the chunk the child
// writes into.
func initChildState(
	ctx context.Context,
	child PhysicalOperator,
	part *storage.ScanPartition,
) (*OperatorState, error) {
	childState, err := child.InitState(ctx, part)
	if err != nil {
		return nil, err
	}
	state := &OperatorState{
		ctx:        ctx,
		child:      childState,
		childChunk: &chunk.Chunk{},
	}
	state.childChunk.Init(child.OutputTypes(), util.DefaultVectorSize)
	return state, nil
}

// nextChildChunk pulls the next non empty chunk of child.
func nextChildChunk(child PhysicalOperator, state *OperatorState) (OperatorResult, error) {
	for {
		if err := state.ctx.Err(); err != nil {
			return InvalidOpResult, err
		}
		res, err := child.GetNextChunk(state.child, state.childChunk)
		if err != nil {
			return InvalidOpResult, err
		}
		switch res {
		case Done, InvalidOpResult:
			return res, nil
		}
		if state.childChunk.Card() > 0 {
			return HaveMoreOutput, nil
		}
	}
}

type PhysicalTableScan struct {
	_table     *storage.DataTable
	_columnIds []int
	_types     []common.LType
	// stop after this many rows per pipeline. 0 is unlimited
	_maxRows int
	_showRaw bool
}

var _ PhysicalOperator = &PhysicalTableScan{}

// NewPhysicalTableScan reads columnIds of table. storage.RowIdColumn
// reads the row ids.
func NewPhysicalTableScan(table *storage.DataTable, columnIds []int) *PhysicalTableScan {
	return &PhysicalTableScan{
		_table:     table,
		_columnIds: columnIds,
		_types:     table.ScanTypes(columnIds),
	}
}

func (scan *PhysicalTableScan) Type() POT {
	return POT_Scan
}

func (scan *PhysicalTableScan) Children() []PhysicalOperator {
	return nil
}

func (scan *PhysicalTableScan) OutputTypes() []common.LType {
	return scan._types
}

func (scan *PhysicalTableScan) Table() *storage.DataTable {
	return scan._table
}

// SetDebug applies the scan limit and raw chunk logging of opts.
func (scan *PhysicalTableScan) SetDebug(opts util.DebugOptions) {
	scan._maxRows = opts.MaxScanRows
	scan._showRaw = opts.ShowRaw
}

func (scan *PhysicalTableScan) InitState(ctx context.Context, part *storage.ScanPartition) (*OperatorState, error) {
	state := &OperatorState{
		ctx:            ctx,
		tableScanState: &storage.TableScanState{},
	}
	scan._table.InitScan(state.tableScanState, scan._columnIds, part)
	return state, nil
}

func (scan *PhysicalTableScan) GetNextChunk(state *OperatorState, output *chunk.Chunk) (OperatorResult, error) {
	if scan._maxRows > 0 && state.scanned >= scan._maxRows {
		output.SetCard(0)
		return Done, nil
	}
	scan._table.Scan(state.tableScanState, output)
	if output.Card() == 0 {
		return Done, nil
	}
	if scan._maxRows > 0 && state.scanned+output.Card() > scan._maxRows {
		output.SetCard(scan._maxRows - state.scanned)
	}
	state.scanned += output.Card()
	if scan._showRaw {
		output.Print2("scan " + scan._table.Name())
	}
	return HaveMoreOutput, nil
}

type PhysicalFilter struct {
	_child  PhysicalOperator
	_filter *Expr
}

var _ PhysicalOperator = &PhysicalFilter{}

func NewPhysicalFilter(child PhysicalOperator, filter *Expr) *PhysicalFilter {
	return &PhysicalFilter{
		_child:  child,
		_filter: filter,
	}
}

func (filter *PhysicalFilter) Type() POT {
	return POT_Filter
}

func (filter *PhysicalFilter) Children() []PhysicalOperator {
	return []PhysicalOperator{filter._child}
}

func (filter *PhysicalFilter) OutputTypes() []common.LType {
	return filter._child.OutputTypes()
}

func (filter *PhysicalFilter) InitState(ctx context.Context, part *storage.ScanPartition) (*OperatorState, error) {
	state, err := initChildState(ctx, filter._child, part)
	if err != nil {
		return nil, err
	}
	state.filterExec = NewExprExec(filter._filter)
	state.filterSel = chunk.NewSelectVector(util.DefaultVectorSize)
	return state, nil
}

// GetNextChunk returns the next chunk with at least one qualifying row.
func (filter *PhysicalFilter) GetNextChunk(state *OperatorState, output *chunk.Chunk) (OperatorResult, error) {
	for {
		res, err := nextChildChunk(filter._child, state)
		if err != nil || res != HaveMoreOutput {
			return res, err
		}
		input := state.childChunk
		count, err := state.filterExec.ExecuteSelect(input, state.filterSel)
		if err != nil {
			return InvalidOpResult, err
		}
		if count == 0 {
			continue
		}
		if count == input.Card() {
			output.Reference(input)
		} else {
			output.Slice(input, state.filterSel, count, 0)
		}
		return HaveMoreOutput, nil
	}
}

type PhysicalProjection struct {
	_child PhysicalOperator
	_exprs []*Expr
	_types []common.LType
}

var _ PhysicalOperator = &PhysicalProjection{}

func NewPhysicalProjection(child PhysicalOperator, exprs []*Expr) *PhysicalProjection {
	proj := &PhysicalProjection{
		_child: child,
		_exprs: exprs,
	}
	for _, e := range exprs {
		proj._types = append(proj._types, e.DataTyp)
	}
	return proj
}

func (proj *PhysicalProjection) Type() POT {
	return POT_Project
}

func (proj *PhysicalProjection) Children() []PhysicalOperator {
	return []PhysicalOperator{proj._child}
}

func (proj *PhysicalProjection) OutputTypes() []common.LType {
	return proj._types
}

func (proj *PhysicalProjection) InitState(ctx context.Context, part *storage.ScanPartition) (*OperatorState, error) {
	state, err := initChildState(ctx, proj._child, part)
	if err != nil {
		return nil, err
	}
	state.projExec = NewExprExec(proj._exprs...)
	return state, nil
}

func (proj *PhysicalProjection) GetNextChunk(state *OperatorState, output *chunk.Chunk) (OperatorResult, error) {
	res, err := nextChildChunk(proj._child, state)
	if err != nil || res != HaveMoreOutput {
		return res, err
	}
	if err = state.projExec.ExecuteExprs(state.childChunk, output); err != nil {
		return InvalidOpResult, err
	}
	return HaveMoreOutput, nil
}

// findTableScan returns the scan at the bottom of the pipeline of op.
func findTableScan(op PhysicalOperator) *PhysicalTableScan {
	for op != nil {
		if scan, ok := op.(*PhysicalTableScan); ok {
			return scan
		}
		children := op.Children()
		if len(children) == 0 {
			return nil
		}
		op = children[0]
	}
	return nil
}
