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

package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitmap(t *testing.T) {
	mask := &Bitmap{}
	assert.True(t, mask.AllValid())
	assert.True(t, mask.RowIsValid(100))

	mask.SetInvalid(70)
	assert.False(t, mask.AllValid())
	assert.Len(t, mask.Bits, EntryCount(DefaultVectorSize))
	assert.False(t, mask.RowIsValid(70))
	assert.True(t, mask.RowIsValid(69))
	mask.SetValid(70)
	assert.True(t, mask.RowIsValid(70))

	mask.SetAllInvalid(65)
	assert.Equal(t, 0, mask.CountValid(65))
	assert.True(t, mask.RowIsValid(65))
	mask.SetAllValid(65)
	assert.Equal(t, 65, mask.CountValid(65))
}

func TestBitmapCombineDoesNotAlias(t *testing.T) {
	a := &Bitmap{}
	b := &Bitmap{}
	b.SetInvalid(3)
	a.Combine(b, 10)
	assert.False(t, a.RowIsValid(3))
	a.SetInvalid(4)
	assert.True(t, b.RowIsValid(4))

	c := &Bitmap{}
	c.SetInvalid(5)
	c.Combine(b, 10)
	assert.False(t, c.RowIsValid(3))
	assert.False(t, c.RowIsValid(5))
	assert.Equal(t, 8, c.CountValid(10))
}

func TestBitmapSlice(t *testing.T) {
	src := &Bitmap{}
	src.SetInvalid(10)
	dst := &Bitmap{}
	dst.Slice(src, 8, 5)
	assert.False(t, dst.RowIsValid(2))
	assert.True(t, dst.RowIsValid(0))

	dst.Slice(&Bitmap{}, 8, 5)
	assert.True(t, dst.AllValid())
}

func TestBitmapCopyFrom(t *testing.T) {
	src := &Bitmap{}
	src.SetInvalid(1)
	dst := &Bitmap{}
	dst.CopyFrom(src, 4)
	dst.SetValid(1)
	assert.False(t, src.RowIsValid(1))
	assert.True(t, dst.RowIsValid(1))
}
