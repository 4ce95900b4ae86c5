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
	"sort"

	"github.com/RoaringBitmap/roaring/roaring64"
)

// Adaptive radix tree. Inner nodes grow from 4 to 16, 48 and 256
// children and keep a compressed path prefix. Leaves keep the full key
// and the set of row ids with that key. Keys must be prefix free, which
// the column encodings guarantee.

type artKind uint8

const (
	artLeaf artKind = iota
	artNode4
	artNode16
	artNode48
	artNode256
)

const (
	node4Cap  = 4
	node16Cap = 16
	node48Cap = 48
)

type artNode struct {
	kind   artKind
	prefix []byte

	// node4 and node16: keys[:n] sorted, children[:n]
	// node48: index[b] is 1 + slot of b in children
	// node256: children[b]
	keys     []byte
	children []*artNode
	index    *[256]uint8
	n        int

	// leaf
	key    []byte
	rowIds *roaring64.Bitmap
}

func newLeaf(key []byte, rowId uint64) *artNode {
	rowIds := roaring64.New()
	rowIds.Add(rowId)
	return &artNode{
		kind:   artLeaf,
		key:    append([]byte(nil), key...),
		rowIds: rowIds,
	}
}

func newNode4(prefix []byte) *artNode {
	return &artNode{
		kind:     artNode4,
		prefix:   append([]byte(nil), prefix...),
		keys:     make([]byte, 0, node4Cap),
		children: make([]*artNode, 0, node4Cap),
	}
}

func (node *artNode) isLeaf() bool {
	return node.kind == artLeaf
}

// findChild returns the slot of the child for b or nil.
func (node *artNode) findChild(b byte) **artNode {
	switch node.kind {
	case artNode4, artNode16:
		i := sort.Search(node.n, func(i int) bool { return node.keys[i] >= b })
		if i < node.n && node.keys[i] == b {
			return &node.children[i]
		}
	case artNode48:
		if slot := node.index[b]; slot != 0 {
			return &node.children[slot-1]
		}
	case artNode256:
		if node.children[b] != nil {
			return &node.children[b]
		}
	}
	return nil
}

func (node *artNode) full() bool {
	switch node.kind {
	case artNode4:
		return node.n == node4Cap
	case artNode16:
		return node.n == node16Cap
	case artNode48:
		return node.n == node48Cap
	default:
		return false
	}
}

// grow converts node in place to the next larger kind.
func (node *artNode) grow() {
	switch node.kind {
	case artNode4:
		node.kind = artNode16
		keys := make([]byte, node.n, node16Cap)
		copy(keys, node.keys)
		children := make([]*artNode, node.n, node16Cap)
		copy(children, node.children)
		node.keys, node.children = keys, children
	case artNode16:
		node.kind = artNode48
		node.index = &[256]uint8{}
		children := make([]*artNode, node48Cap)
		for i := 0; i < node.n; i++ {
			children[i] = node.children[i]
			node.index[node.keys[i]] = uint8(i + 1)
		}
		node.keys, node.children = nil, children
	case artNode48:
		node.kind = artNode256
		children := make([]*artNode, 256)
		for b := 0; b < 256; b++ {
			if slot := node.index[b]; slot != 0 {
				children[b] = node.children[slot-1]
			}
		}
		node.index, node.children = nil, children
	}
}

func (node *artNode) addChild(b byte, child *artNode) {
	if node.full() {
		node.grow()
	}
	switch node.kind {
	case artNode4, artNode16:
		i := sort.Search(node.n, func(i int) bool { return node.keys[i] >= b })
		node.keys = append(node.keys, 0)
		node.children = append(node.children, nil)
		copy(node.keys[i+1:], node.keys[i:node.n])
		copy(node.children[i+1:], node.children[i:node.n])
		node.keys[i] = b
		node.children[i] = child
	case artNode48:
		slot := 0
		for node.children[slot] != nil {
			slot++
		}
		node.children[slot] = child
		node.index[b] = uint8(slot + 1)
	case artNode256:
		node.children[b] = child
	}
	node.n++
}

func (node *artNode) removeChild(b byte) {
	switch node.kind {
	case artNode4, artNode16:
		i := sort.Search(node.n, func(i int) bool { return node.keys[i] >= b })
		copy(node.keys[i:], node.keys[i+1:node.n])
		copy(node.children[i:], node.children[i+1:node.n])
		node.keys = node.keys[:node.n-1]
		node.children[node.n-1] = nil
		node.children = node.children[:node.n-1]
	case artNode48:
		slot := node.index[b]
		node.children[slot-1] = nil
		node.index[b] = 0
	case artNode256:
		node.children[b] = nil
	}
	node.n--
}

// each visits the children in key byte order.
func (node *artNode) each(fn func(b byte, child *artNode) bool) bool {
	switch node.kind {
	case artNode4, artNode16:
		for i := 0; i < node.n; i++ {
			if !fn(node.keys[i], node.children[i]) {
				return false
			}
		}
	case artNode48:
		for b := 0; b < 256; b++ {
			if slot := node.index[b]; slot != 0 {
				if !fn(byte(b), node.children[slot-1]) {
					return false
				}
			}
		}
	case artNode256:
		for b := 0; b < 256; b++ {
			if child := node.children[b]; child != nil {
				if !fn(byte(b), child) {
					return false
				}
			}
		}
	}
	return true
}

// onlyChild returns the single child of node.
func (node *artNode) onlyChild() (byte, *artNode) {
	var ret *artNode
	var key byte
	node.each(func(b byte, child *artNode) bool {
		key, ret = b, child
		return false
	})
	return key, ret
}

func commonPrefix(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

type Art struct {
	_root *artNode
	// number of (key, row id) pairs
	_count int
}

func NewArt() *Art {
	return &Art{}
}

func (art *Art) Len() int {
	return art._count
}

// Lookup returns the row ids with key or nil.
func (art *Art) Lookup(key []byte) *roaring64.Bitmap {
	node := art._root
	depth := 0
	for node != nil {
		if node.isLeaf() {
			if bytes.Equal(node.key, key) {
				return node.rowIds
			}
			return nil
		}
		if !bytes.HasPrefix(key[depth:], node.prefix) {
			return nil
		}
		depth += len(node.prefix)
		if depth >= len(key) {
			return nil
		}
		child := node.findChild(key[depth])
		if child == nil {
			return nil
		}
		node = *child
		depth++
	}
	return nil
}

// Insert adds rowId under key.
func (art *Art) Insert(key []byte, rowId uint64) {
	if art.insert(&art._root, key, 0, rowId) {
		art._count++
	}
}

func (art *Art) insert(ref **artNode, key []byte, depth int, rowId uint64) bool {
	node := *ref
	if node == nil {
		*ref = newLeaf(key, rowId)
		return true
	}
	if node.isLeaf() {
		if bytes.Equal(node.key, key) {
			return node.rowIds.CheckedAdd(rowId)
		}
		//split the leaf
		l := commonPrefix(node.key[depth:], key[depth:])
		inner := newNode4(key[depth : depth+l])
		depth += l
		inner.addChild(node.key[depth], node)
		inner.addChild(key[depth], newLeaf(key, rowId))
		*ref = inner
		return true
	}
	if len(node.prefix) > 0 {
		p := commonPrefix(node.prefix, key[depth:])
		if p < len(node.prefix) {
			//split the prefix
			inner := newNode4(node.prefix[:p])
			b := node.prefix[p]
			node.prefix = append([]byte(nil), node.prefix[p+1:]...)
			inner.addChild(b, node)
			inner.addChild(key[depth+p], newLeaf(key, rowId))
			*ref = inner
			return true
		}
		depth += len(node.prefix)
	}
	child := node.findChild(key[depth])
	if child != nil {
		return art.insert(child, key, depth+1, rowId)
	}
	node.addChild(key[depth], newLeaf(key, rowId))
	return true
}

// Delete removes rowId from key and reports whether it was present.
func (art *Art) Delete(key []byte, rowId uint64) bool {
	if art.delete(&art._root, key, 0, rowId) {
		art._count--
		return true
	}
	return false
}

func (art *Art) delete(ref **artNode, key []byte, depth int, rowId uint64) bool {
	node := *ref
	if node == nil {
		return false
	}
	if node.isLeaf() {
		if !bytes.Equal(node.key, key) || !node.rowIds.CheckedRemove(rowId) {
			return false
		}
		if node.rowIds.IsEmpty() {
			*ref = nil
		}
		return true
	}
	if !bytes.HasPrefix(key[depth:], node.prefix) {
		return false
	}
	depth += len(node.prefix)
	if depth >= len(key) {
		return false
	}
	b := key[depth]
	child := node.findChild(b)
	if child == nil || !art.delete(child, key, depth+1, rowId) {
		return false
	}
	if *child == nil {
		node.removeChild(b)
		art.shrink(ref)
	}
	return true
}

// shrink collapses an inner node left with one child or none.
func (art *Art) shrink(ref **artNode) {
	node := *ref
	switch node.n {
	case 0:
		*ref = nil
	case 1:
		b, child := node.onlyChild()
		if !child.isLeaf() {
			prefix := make([]byte, 0, len(node.prefix)+1+len(child.prefix))
			prefix = append(prefix, node.prefix...)
			prefix = append(prefix, b)
			child.prefix = append(prefix, child.prefix...)
		}
		*ref = child
	}
}

// Scan visits the leaves with keys between lo and hi in key order.
// Bounds compare with the key prefix of the same length. A nil bound is
// open.
func (art *Art) Scan(
	lo, hi []byte,
	loInclusive, hiInclusive bool,
	fn func(key []byte, rowIds *roaring64.Bitmap) bool,
) {
	if art._root == nil {
		return
	}
	path := make([]byte, 0, 64)
	art.scan(art._root, path, lo, hi, loInclusive, hiInclusive, lo == nil, fn)
}

// scan returns false to stop the iteration. loDone means every key
// under node is above lo.
func (art *Art) scan(
	node *artNode,
	path []byte,
	lo, hi []byte,
	loInclusive, hiInclusive bool,
	loDone bool,
	fn func(key []byte, rowIds *roaring64.Bitmap) bool,
) bool {
	if node.isLeaf() {
		if !loDone {
			c := comparePrefix(node.key, lo)
			if c < 0 || c == 0 && !loInclusive {
				return true
			}
		}
		if hi != nil {
			c := comparePrefix(node.key, hi)
			if c > 0 || c == 0 && !hiInclusive {
				return false
			}
		}
		return fn(node.key, node.rowIds)
	}
	path = append(path, node.prefix...)
	if !loDone {
		c := comparePrefix(path, lo[:min(len(lo), len(path))])
		if c < 0 {
			return true
		}
		loDone = c > 0 || len(path) >= len(lo) && loInclusive
	}
	if hi != nil && comparePrefix(path, hi[:min(len(hi), len(path))]) > 0 {
		return false
	}
	return node.each(func(b byte, child *artNode) bool {
		return art.scan(child, append(path, b), lo, hi, loInclusive, hiInclusive, loDone, fn)
	})
}
