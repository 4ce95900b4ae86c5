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

import "math/bits"

const (
	BitsPerEntry = 64
	AllValidBits = ^uint64(0)
)

// Bitmap is the validity mask of a vector.
// A set bit is a valid row. An unset bit is NULL.
// Nil Bits means every row is valid.
type Bitmap struct {
	Bits []uint64
}

func EntryCount(cnt int) int {
	return (cnt + BitsPerEntry - 1) / BitsPerEntry
}

func GetEntryIndex(idx uint64) (uint64, uint64) {
	return idx / BitsPerEntry, idx % BitsPerEntry
}

func EntryIsSet(e uint64, pos uint64) bool {
	return e&(1<<pos) != 0
}

func RowIsValidInEntry(e uint64, pos uint64) bool {
	return EntryIsSet(e, pos)
}

func AllValidInEntry(entry uint64) bool {
	return entry == AllValidBits
}

func NoneValidInEntry(entry uint64) bool {
	return entry == 0
}

// Init allocates space for count rows, all valid.
func (bm *Bitmap) Init(count int) {
	bm.Bits = make([]uint64, EntryCount(count))
	for i := range bm.Bits {
		bm.Bits[i] = AllValidBits
	}
}

func (bm *Bitmap) ShareWith(other *Bitmap) {
	bm.Bits = other.Bits
}

func (bm *Bitmap) AllValid() bool {
	return len(bm.Bits) == 0
}

func (bm *Bitmap) IsMaskSet() bool {
	return !bm.AllValid()
}

func (bm *Bitmap) GetEntry(eIdx uint64) uint64 {
	if bm.AllValid() {
		return AllValidBits
	}
	return bm.Bits[eIdx]
}

func (bm *Bitmap) RowIsValidUnsafe(idx uint64) bool {
	eIdx, pos := GetEntryIndex(idx)
	return EntryIsSet(bm.Bits[eIdx], pos)
}

func (bm *Bitmap) RowIsValid(idx uint64) bool {
	if bm.AllValid() {
		return true
	}
	return bm.RowIsValidUnsafe(idx)
}

func (bm *Bitmap) SetValid(idx uint64) {
	if bm.AllValid() {
		return
	}
	eIdx, pos := GetEntryIndex(idx)
	bm.Bits[eIdx] |= 1 << pos
}

// SetInvalid materializes a DefaultVectorSize mask on first use.
func (bm *Bitmap) SetInvalid(idx uint64) {
	if bm.AllValid() {
		bm.Init(DefaultVectorSize)
	}
	eIdx, pos := GetEntryIndex(idx)
	bm.Bits[eIdx] &^= 1 << pos
}

func (bm *Bitmap) Set(idx uint64, valid bool) {
	if valid {
		bm.SetValid(idx)
	} else {
		bm.SetInvalid(idx)
	}
}

func (bm *Bitmap) Reset() {
	bm.Bits = nil
}

func (bm *Bitmap) prepareSpace(cnt int) {
	if bm.AllValid() || len(bm.Bits) < EntryCount(cnt) {
		bm.Init(max(cnt, DefaultVectorSize))
	}
}

func (bm *Bitmap) SetAllValid(cnt int) {
	if cnt == 0 {
		return
	}
	bm.prepareSpace(cnt)
	for i := 0; i < EntryCount(cnt); i++ {
		bm.Bits[i] = AllValidBits
	}
}

func (bm *Bitmap) SetAllInvalid(cnt int) {
	if cnt == 0 {
		return
	}
	bm.prepareSpace(cnt)
	last := EntryCount(cnt) - 1
	for i := 0; i < last; i++ {
		bm.Bits[i] = 0
	}
	if rest := cnt % BitsPerEntry; rest == 0 {
		bm.Bits[last] = 0
	} else {
		bm.Bits[last] = AllValidBits << rest
	}
}

func (bm *Bitmap) Resize(old int, new int) {
	if new <= old || bm.AllValid() {
		return
	}
	ncnt := EntryCount(new)
	if ncnt <= len(bm.Bits) {
		return
	}
	newBits := make([]uint64, ncnt)
	copy(newBits, bm.Bits)
	for i := len(bm.Bits); i < ncnt; i++ {
		newBits[i] = AllValidBits
	}
	bm.Bits = newBits
}

// CopyFrom copies the first count rows of other into a private buffer.
func (bm *Bitmap) CopyFrom(other *Bitmap, count int) {
	if other.AllValid() {
		bm.Bits = nil
		return
	}
	bm.Init(max(count, DefaultVectorSize))
	copy(bm.Bits, other.Bits[:min(EntryCount(count), len(other.Bits))])
}

// Combine ands other into bm. The result never aliases other.
func (bm *Bitmap) Combine(other *Bitmap, count int) {
	if other.AllValid() {
		return
	}
	if bm.AllValid() {
		bm.CopyFrom(other, count)
		return
	}
	old := bm.Bits
	bm.Init(max(count, DefaultVectorSize))
	for i := 0; i < EntryCount(count); i++ {
		bm.Bits[i] = old[i] & other.Bits[i]
	}
}

// Slice makes bm the mask of rows [offset, offset+count) of other.
func (bm *Bitmap) Slice(other *Bitmap, offset uint64, count uint64) {
	if other.AllValid() {
		bm.Bits = nil
		return
	}
	if offset == 0 {
		bm.ShareWith(other)
		return
	}
	res := Bitmap{}
	res.Init(int(count))
	for i := uint64(0); i < count; i++ {
		if !other.RowIsValidUnsafe(offset + i) {
			res.SetInvalid(i)
		}
	}
	bm.Bits = res.Bits
}

// CountValid counts the valid rows among the first count.
func (bm *Bitmap) CountValid(count int) int {
	if bm.AllValid() {
		return count
	}
	valid := 0
	full := count / BitsPerEntry
	for i := 0; i < full; i++ {
		valid += bits.OnesCount64(bm.Bits[i])
	}
	if rest := count % BitsPerEntry; rest != 0 {
		valid += bits.OnesCount64(bm.Bits[full] & ^(AllValidBits << rest))
	}
	return valid
}
