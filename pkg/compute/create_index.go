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
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/xlab/treeprint"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/daviszhen/vecexec/pkg/catalog"
	"github.com/daviszhen/vecexec/pkg/chunk"
	"github.com/daviszhen/vecexec/pkg/common"
	"github.com/daviszhen/vecexec/pkg/index"
	"github.com/daviszhen/vecexec/pkg/storage"
	"github.com/daviszhen/vecexec/pkg/util"
)

var ErrNullKey = errors.New("null index key")

// CreateIndexInfo describes the index a PhysicalCreateIndex builds.
type CreateIndexInfo struct {
	IndexName   string
	Table       string
	IndexType   index.IndexType
	Constraint  index.IndexConstraintType
	IfNotExists bool
	// key expressions as written and as bound to the table
	UnboundExprs []*Expr
	Exprs        []*Expr
	// nil without WHERE
	UnboundPredicate *Expr
	Predicate        *Expr
}

func (info *CreateIndexInfo) KeyTypes() []common.LType {
	ret := make([]common.LType, len(info.Exprs))
	for i, e := range info.Exprs {
		ret[i] = e.DataTyp
	}
	return ret
}

// PhysicalCreateIndex appends the keys its child produces to an index.
// The child yields the key columns followed by the row id column.
type PhysicalCreateIndex struct {
	_child      PhysicalOperator
	_info       *CreateIndexInfo
	_index      *index.Index
	_nullPolicy util.NullPolicy
	_catalog    *catalog.Catalog
}

var _ PhysicalOperator = &PhysicalCreateIndex{}

func NewPhysicalCreateIndex(
	child PhysicalOperator,
	info *CreateIndexInfo,
	idx *index.Index,
	nullPolicy util.NullPolicy,
) (*PhysicalCreateIndex, error) {
	childTypes := child.OutputTypes()
	keyCount := len(idx.LogicalTypes())
	if len(childTypes) != keyCount+1 ||
		childTypes[keyCount].GetInternalType() != common.UINT64 {
		return nil, errors.Newf("create index %s needs %d key columns and the row id, child has %v",
			idx.Name(), keyCount, childTypes)
	}
	if nullPolicy == "" {
		nullPolicy = util.NullPolicySkip
	}
	if info == nil {
		info = &CreateIndexInfo{
			IndexName: idx.Name(),
			IndexType: idx.Type(),
		}
	}
	return &PhysicalCreateIndex{
		_child:      child,
		_info:       info,
		_index:      idx,
		_nullPolicy: nullPolicy,
	}, nil
}

func (op *PhysicalCreateIndex) Type() POT {
	return POT_CreateIndex
}

func (op *PhysicalCreateIndex) Children() []PhysicalOperator {
	return []PhysicalOperator{op._child}
}

func (op *PhysicalCreateIndex) OutputTypes() []common.LType {
	return nil
}

func (op *PhysicalCreateIndex) Index() *index.Index {
	return op._index
}

func (op *PhysicalCreateIndex) Info() *CreateIndexInfo {
	return op._info
}

func (op *PhysicalCreateIndex) keyCount() int {
	return len(op._index.LogicalTypes())
}

func (op *PhysicalCreateIndex) InitState(ctx context.Context, part *storage.ScanPartition) (*OperatorState, error) {
	state, err := initChildState(ctx, op._child, part)
	if err != nil {
		return nil, err
	}
	state.keyChunk = &chunk.Chunk{}
	state.keyChunk.Init(op._child.OutputTypes(), util.DefaultVectorSize)
	state.keySel = chunk.NewSelectVector(util.DefaultVectorSize)
	state.nullSel = chunk.NewSelectVector(util.DefaultVectorSize)
	return state, nil
}

// GetNextChunk drains the child into the index. It only returns Done or
// an error. output stays empty.
func (op *PhysicalCreateIndex) GetNextChunk(state *OperatorState, output *chunk.Chunk) (res OperatorResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = InvalidOpResult
			err = errors.CombineErrors(err, util.ConvertPanicError(r))
		}
	}()
	for {
		res, err = nextChildChunk(op._child, state)
		if err != nil {
			return InvalidOpResult, err
		}
		switch res {
		case Done:
			return Done, nil
		case InvalidOpResult:
			return InvalidOpResult, errors.Newf("create index %s: invalid child result", op._index.Name())
		}
		if err = op.appendChunk(state, state.childChunk); err != nil {
			return InvalidOpResult, err
		}
	}
}

// appendChunk separates the rows with a null key and appends the rest.
func (op *PhysicalCreateIndex) appendChunk(state *OperatorState, input *chunk.Chunk) error {
	card := input.Card()
	keyCount := op.keyCount()
	src := input
	for i := 0; i < keyCount && src.Card() > 0; i++ {
		count := SelectNotNull(src.Data[i], nil, state.keySel, state.nullSel)
		if count == src.Card() {
			continue
		}
		if op._nullPolicy == util.NullPolicyReject {
			rowId := src.Data[keyCount].GetValue(state.nullSel.GetIndex(0))
			return errors.Wrapf(ErrNullKey, "index %s column %d row %s",
				op._index.Name(), i, rowId)
		}
		if src == input {
			state.keyChunk.Slice(input, state.keySel, count, 0)
			src = state.keyChunk
		} else {
			src.SliceItself(state.keySel, count)
		}
	}
	state.skipped += uint64(card - src.Card())
	if src.Card() == 0 {
		return nil
	}

	keys := &chunk.Chunk{
		Data:  src.Data[:keyCount],
		Count: src.Card(),
	}
	if err := op._index.Append(keys, src.Data[keyCount]); err != nil {
		return err
	}
	state.appended += uint64(src.Card())
	return nil
}

// BuildResult counts the rows of a build.
type BuildResult struct {
	Appended uint64
	Skipped  uint64
	Duration time.Duration
}

// Build runs one pipeline per partition of the scanned table on at most
// threads goroutines and registers the index in the catalog when every
// pipeline succeeds.
func (op *PhysicalCreateIndex) Build(ctx context.Context, threads int) (*BuildResult, error) {
	scan := findTableScan(op._child)
	if scan == nil {
		return nil, errors.Newf("create index %s without table scan", op._index.Name())
	}
	start := time.Now()
	parts := scan.Table().Partitions(max(threads, 1))
	util.Info("create index start",
		zap.String("index", op._index.Name()),
		zap.String("table", scan.Table().Name()),
		zap.String("type", op._index.Type().String()),
		zap.Int("partitions", len(parts)))

	var appended, skipped atomic.Uint64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(threads, 1))
	for _, part := range parts {
		g.Go(func() error {
			return util.RecoverPanic(func() error {
				state, err := op.InitState(gctx, part)
				if err != nil {
					return err
				}
				_, err = op.GetNextChunk(state, &chunk.Chunk{})
				appended.Add(state.appended)
				skipped.Add(state.skipped)
				if err != nil {
					return errors.Wrapf(err, "partition %d", part.Index)
				}
				util.Debug("create index partition done",
					zap.String("index", op._index.Name()),
					zap.Int("partition", part.Index),
					zap.Uint64("rows", state.appended))
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		util.Error("create index failed",
			zap.String("index", op._index.Name()),
			zap.Error(err))
		return nil, err
	}
	if op._catalog != nil {
		err := op._catalog.CreateIndex(&catalog.IndexEntry{
			Name:      op._info.IndexName,
			Table:     op._info.Table,
			Index:     op._index,
			Exprs:     exprStrings(op._info.UnboundExprs),
			Predicate: op._info.UnboundPredicate.String(),
		})
		if err != nil {
			return nil, err
		}
	}
	ret := &BuildResult{
		Appended: appended.Load(),
		Skipped:  skipped.Load(),
		Duration: time.Since(start),
	}
	util.Info("create index finish",
		zap.String("index", op._index.Name()),
		zap.Uint64("appended", ret.Appended),
		zap.Uint64("skipped", ret.Skipped),
		zap.Int("size", op._index.Count()),
		zap.Duration("duration", ret.Duration))
	return ret, nil
}

func exprStrings(exprs []*Expr) []string {
	ret := make([]string, len(exprs))
	for i, e := range exprs {
		ret[i] = e.String()
	}
	return ret
}

func (op *PhysicalCreateIndex) Explain(tree treeprint.Tree) {
	branch := tree.AddMetaBranch(op.Type().String(),
		op._index.Name()+" "+op._index.Type().String())
	branch.AddMetaNode("nullPolicy", string(op._nullPolicy))
	if op._index.IsUnique() {
		branch.AddNode("unique")
	}
	keys := branch.AddBranch("keys")
	WriteExprsTree(keys, op._info.Exprs)
	for _, child := range op.Children() {
		child.Explain(branch)
	}
}
