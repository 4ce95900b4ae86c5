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

package index

import (
	"bytes"
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/daviszhen/vecexec/pkg/chunk"
	"github.com/daviszhen/vecexec/pkg/common"
	"github.com/daviszhen/vecexec/pkg/util"
)

// IndexKey is the order preserving encoding of the indexed values of
// one row. A key without data is a row with a NULL indexed value.
type IndexKey struct {
	Data  []byte
	RowId uint64
}

func (k *IndexKey) Empty() bool {
	return len(k.Data) == 0
}

func (k *IndexKey) String() string {
	return fmt.Sprintf("%x@%d", k.Data, k.RowId)
}

// IndexKeyLess orders keys by data then row id.
func IndexKeyLess(a, b *IndexKey) bool {
	c := bytes.Compare(a.Data, b.Data)
	if c != 0 {
		return c < 0
	}
	return a.RowId < b.RowId
}

// GenerateKeys encodes every row of input into keys. Columns are
// concatenated in order. A row with a NULL in any column gets an empty
// key.
func GenerateKeys(input *chunk.Chunk, keys []*IndexKey) {
	util.AssertFunc(len(keys) >= input.Card())
	for i := 0; i < input.Card(); i++ {
		keys[i] = &IndexKey{}
	}
	for i := 0; i < input.ColumnCount(); i++ {
		ConcatenateKeys(input.Data[i], input.Card(), keys, i == 0)
	}
}

// ConcatenateKeys appends the encoding of column input to keys.
func ConcatenateKeys(input *chunk.Vector, count int, keys []*IndexKey, first bool) {
	switch input.Typ().GetInternalType() {
	case common.BOOL:
		templatedConcatenateKeys[bool](input, count, keys, first, util.BoolEncoder{})
	case common.INT8:
		templatedConcatenateKeys[int8](input, count, keys, first, util.Int8Encoder{})
	case common.INT16:
		templatedConcatenateKeys[int16](input, count, keys, first, util.Int16Encoder{})
	case common.INT32:
		templatedConcatenateKeys[int32](input, count, keys, first, util.Int32Encoder{})
	case common.INT64:
		templatedConcatenateKeys[int64](input, count, keys, first, util.Int64Encoder{})
	case common.UINT8:
		templatedConcatenateKeys[uint8](input, count, keys, first, util.Uint8Encoder{})
	case common.UINT16:
		templatedConcatenateKeys[uint16](input, count, keys, first, util.Uint16Encoder{})
	case common.UINT32:
		templatedConcatenateKeys[uint32](input, count, keys, first, util.Uint32Encoder{})
	case common.UINT64:
		templatedConcatenateKeys[uint64](input, count, keys, first, util.Uint64Encoder{})
	case common.FLOAT:
		templatedConcatenateKeys[float32](input, count, keys, first, util.Float32Encoder{})
	case common.DOUBLE:
		templatedConcatenateKeys[float64](input, count, keys, first, util.Float64Encoder{})
	case common.VARCHAR:
		templatedConcatenateKeys[string](input, count, keys, first, util.StringEncoder{})
	case common.DECIMAL:
		templatedConcatenateKeys[common.Decimal](input, count, keys, first,
			DecimalEncoder{Scale: input.Typ().Scale})
	default:
		panic(fmt.Sprintf("usp index key type %s", input.Typ()))
	}
}

func templatedConcatenateKeys[T any](
	input *chunk.Vector,
	count int,
	keys []*IndexKey,
	first bool,
	enc util.Encoder[T],
) {
	var idata chunk.UnifiedFormat
	input.ToUnifiedFormat(count, &idata)
	inputData := chunk.GetSliceInPhyFormatUnifiedFormat[T](&idata)
	for i := 0; i < count; i++ {
		//some previous column is NULL
		if !first && keys[i].Empty() {
			continue
		}
		idx := idata.Sel.GetIndex(i)
		if !idata.Mask.RowIsValid(uint64(idx)) {
			//set whole key is NULL
			keys[i].Data = nil
			continue
		}
		keys[i].Data = enc.EncodeData(keys[i].Data, &inputData[idx])
	}
}

// DecimalEncoder encodes the whole and fraction parts at a fixed scale.
type DecimalEncoder struct {
	Scale int
}

func (enc DecimalEncoder) EncodeData(dst []byte, value *common.Decimal) []byte {
	whole, frac, ok := value.Rescale(enc.Scale).Int64(enc.Scale)
	if !ok {
		panic(errors.AssertionFailedf("decimal %s does not fit scale %d", value, enc.Scale))
	}
	dst = util.EncodeInt64(dst, whole)
	return util.EncodeInt64(dst, frac)
}

// CreateKey encodes values as a lookup key. Values convert to types
// first. A shorter list of values is a key prefix.
func CreateKey(types []common.LType, values []*chunk.Value) ([]byte, error) {
	if len(values) > len(types) {
		return nil, errors.Newf("%d key values for %d index columns", len(values), len(types))
	}
	if len(values) == 0 {
		return nil, nil
	}
	input := &chunk.Chunk{}
	input.Init(types[:len(values)], 1)
	for i, val := range values {
		if val.IsNull {
			return nil, errors.Newf("NULL key value at column %d", i)
		}
		if val.Typ.GetInternalType() != types[i].GetInternalType() {
			return nil, errors.Newf("key value %s of type %s for column of type %s",
				val, val.Typ, types[i])
		}
		if types[i].Id == common.LTID_DECIMAL {
			// parse at the scale of the column
			d, err := val.Decimal()
			if err != nil {
				return nil, err
			}
			val = &chunk.Value{Typ: types[i], Str: d.Rescale(types[i].Scale).String()}
		}
		input.Data[i].SetValue(0, val)
	}
	input.SetCard(1)
	keys := make([]*IndexKey, 1)
	GenerateKeys(input, keys)
	return keys[0].Data, nil
}
