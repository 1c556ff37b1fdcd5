/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Index Manager Implementation
=============================

Index wraps the B-Tree in btree.go as the engine's single in-memory
index: an ordered string-to-bytes map supporting point lookup and
lexicographically-ordered prefix scans. It exists so engine.go talks to
"the index" through a small, stable contract instead of reaching into
BTree's node-splitting internals directly.

Storage:
========

Unlike the table/column secondary indexes this file used to describe,
there is exactly one Index per engine, covering every key the engine
has ever Set. The BTree itself already serializes Put against
concurrent Get/PrefixScan via its own RWMutex; Index adds nothing on
top of that beyond the narrower method set the engine needs.
*/
package storage

// Index is the engine's primary in-memory index: an ordered mapping
// from key to value, backed by a B-Tree so that PrefixScan runs in
// O(log n + k) instead of a full table scan.
type Index struct {
	tree *BTree
}

// NewIndex creates an empty index with a reasonable node fanout for an
// in-memory, string-keyed tree.
func NewIndex() *Index {
	return &Index{tree: NewBTree(8)}
}

// Put replaces any prior binding for key. Atomic with respect to
// concurrent Get/PrefixScan: callers observe either the pre-image or
// the new binding, never a partial value, because BTree.Insert holds
// its write lock for the whole swap.
func (idx *Index) Put(key string, value []byte) {
	idx.tree.Insert(key, value)
}

// Get returns the current binding for key, or (nil, false) if absent.
func (idx *Index) Get(key string) ([]byte, bool) {
	return idx.tree.Search(key)
}

// KV is one (key, value) pair returned by PrefixScan.
type KV struct {
	Key   string
	Value []byte
}

// PrefixScan returns up to maxResults bindings whose keys begin with
// prefix, in ascending lexicographic order. maxResults <= 0 means no
// limit.
func (idx *Index) PrefixScan(prefix string, maxResults int) []KV {
	return idx.tree.PrefixScan(prefix, maxResults)
}

// Len returns the current number of bindings. May be observed slightly
// stale under concurrency; acceptable for Stat.
func (idx *Index) Len() int {
	return idx.tree.Size()
}
