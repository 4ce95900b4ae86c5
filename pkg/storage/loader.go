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

package storage

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	pqLocal "github.com/xitongsys/parquet-go-source/local"
	pqReader "github.com/xitongsys/parquet-go/reader"
	"go.uber.org/zap"

	"github.com/daviszhen/vecexec/pkg/chunk"
	"github.com/daviszhen/vecexec/pkg/common"
	"github.com/daviszhen/vecexec/pkg/util"
)

type CSVOptions struct {
	Delimiter rune
	// skip the first line
	Header bool
	// fields equal to NullString are NULL
	NullString string
}

func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter:  ',',
		NullString: "",
	}
}

// LoadCSV appends the rows of the csv file at path to table. Fields map
// to columns by position.
func LoadCSV(table *DataTable, path string, opts CSVOptions) (uint64, error) {
	dataFile, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrapf(err, "open csv %s", path)
	}
	defer dataFile.Close()

	reader := csv.NewReader(dataFile)
	reader.Comma = opts.Delimiter
	reader.FieldsPerRecord = len(table.Columns())
	reader.ReuseRecord = true
	if opts.Header {
		if _, err = reader.Read(); err != nil && !errors.Is(err, io.EOF) {
			return 0, errors.Wrapf(err, "read csv header %s", path)
		}
	}

	output := &chunk.Chunk{}
	output.Init(table.GetTypes(), util.DefaultVectorSize)
	total := uint64(0)
	for {
		output.Reset()
		rowCount := 0
		for rowCount < util.DefaultVectorSize {
			line, err := reader.Read()
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return total, errors.Wrapf(err, "read csv %s", path)
			}
			//[row rowCount, col j] = field
			for j, field := range line {
				vec := output.Data[j]
				val, err := fieldToValue(field, vec.Typ(), opts.NullString)
				if err != nil {
					return total, errors.Wrapf(err, "csv %s line %d column %d",
						path, total+uint64(rowCount)+1, j)
				}
				vec.SetValue(rowCount, val)
			}
			rowCount++
		}
		if rowCount == 0 {
			break
		}
		output.SetCard(rowCount)
		if err = table.Append(output); err != nil {
			return total, err
		}
		total += uint64(rowCount)
	}
	util.Info("load csv",
		zap.String("file", path),
		zap.String("table", table.Name()),
		zap.Uint64("rows", total))
	return total, nil
}

func fieldToValue(field string, lTyp common.LType, nullString string) (*chunk.Value, error) {
	if field == nullString && (nullString != "" || lTyp.Id != common.LTID_VARCHAR) {
		return chunk.NullValue(lTyp), nil
	}
	return chunk.ParseValue(lTyp, field)
}

// LoadParquet appends the rows of the parquet file at path to table.
// Leaf columns map to table columns by position.
func LoadParquet(table *DataTable, path string) (uint64, error) {
	pqFile, err := pqLocal.NewLocalFileReader(path)
	if err != nil {
		return 0, errors.Wrapf(err, "open parquet %s", path)
	}
	defer pqFile.Close()

	reader, err := pqReader.NewParquetColumnReader(pqFile, 1)
	if err != nil {
		return 0, errors.Wrapf(err, "read parquet footer %s", path)
	}
	defer reader.ReadStop()

	colCount := len(reader.SchemaHandler.ValueColumns)
	if colCount != len(table.Columns()) {
		return 0, errors.Newf("parquet %s has %d columns, table %s has %d",
			path, colCount, table.Name(), len(table.Columns()))
	}

	numRows := reader.GetNumRows()
	output := &chunk.Chunk{}
	output.Init(table.GetTypes(), util.DefaultVectorSize)
	total := uint64(0)
	for int64(total) < numRows {
		output.Reset()
		maxCnt := min(int64(util.DefaultVectorSize), numRows-int64(total))
		rowCount := -1
		//fill field into vector
		for j := 0; j < colCount; j++ {
			values, _, _, err := reader.ReadColumnByIndex(int64(j), maxCnt)
			if err != nil && !errors.Is(err, io.EOF) {
				return total, errors.Wrapf(err, "read parquet %s column %d", path, j)
			}
			if rowCount < 0 {
				rowCount = len(values)
			} else if len(values) != rowCount {
				return total, errors.Newf("parquet %s column %d has %d values, previous columns %d",
					path, j, len(values), rowCount)
			}
			vec := output.Data[j]
			for i, field := range values {
				//[row i, col j]
				val, err := parquetColToValue(field, vec.Typ())
				if err != nil {
					return total, errors.Wrapf(err, "parquet %s row %d column %d",
						path, total+uint64(i), j)
				}
				vec.SetValue(i, val)
			}
		}
		if rowCount <= 0 {
			break
		}
		output.SetCard(rowCount)
		if err = table.Append(output); err != nil {
			return total, err
		}
		total += uint64(rowCount)
	}
	util.Info("load parquet",
		zap.String("file", path),
		zap.String("table", table.Name()),
		zap.Uint64("rows", total))
	return total, nil
}

func parquetColToValue(field any, lTyp common.LType) (*chunk.Value, error) {
	if field == nil {
		return chunk.NullValue(lTyp), nil
	}
	val := &chunk.Value{
		Typ: lTyp,
	}
	switch lTyp.Id {
	case common.LTID_BOOLEAN:
		b, ok := field.(bool)
		if !ok {
			return nil, errors.Newf("parquet %T is not %v", field, lTyp)
		}
		val.Bool = b
	case common.LTID_TINYINT, common.LTID_SMALLINT, common.LTID_INTEGER, common.LTID_BIGINT:
		switch fVal := field.(type) {
		case int32:
			val.I64 = int64(fVal)
		case int64:
			val.I64 = fVal
		default:
			return nil, errors.Newf("parquet %T is not %v", field, lTyp)
		}
	case common.LTID_UTINYINT, common.LTID_USMALLINT, common.LTID_UINTEGER, common.LTID_UBIGINT:
		switch fVal := field.(type) {
		case int32:
			val.U64 = uint64(uint32(fVal))
		case int64:
			val.U64 = uint64(fVal)
		default:
			return nil, errors.Newf("parquet %T is not %v", field, lTyp)
		}
	case common.LTID_FLOAT, common.LTID_DOUBLE:
		switch fVal := field.(type) {
		case float32:
			val.F64 = float64(fVal)
		case float64:
			val.F64 = fVal
		default:
			return nil, errors.Newf("parquet %T is not %v", field, lTyp)
		}
	case common.LTID_VARCHAR:
		s, ok := field.(string)
		if !ok {
			return nil, errors.Newf("parquet %T is not %v", field, lTyp)
		}
		val.Str = s
	case common.LTID_DECIMAL:
		p10 := int64(1)
		for i := 0; i < lTyp.Scale; i++ {
			p10 *= 10
		}
		switch v := field.(type) {
		case int32:
			val.I64 = int64(v) / p10
			val.I64_1 = int64(v) % p10
		case int64:
			val.I64 = v / p10
			val.I64_1 = v % p10
		case string:
			val.Str = v
		default:
			return nil, errors.Newf("parquet %T is not %v", field, lTyp)
		}
	default:
		return nil, errors.Newf("parquet column of type %v", lTyp)
	}
	return val, nil
}
