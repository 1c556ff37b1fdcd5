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
B-Tree Index Implementation
============================

This file implements a B-Tree data structure for efficient key lookups
and ordered prefix scans. The B-Tree provides O(log N) search and
insert, and O(log N + K) prefix scans, which is what makes the engine's
GetPrefix sub-linear in the total key count.

B-Tree Properties:
==================

  - Each node can have at most 2*t children (t = minimum degree)
  - Each node (except root) has at least t-1 keys
  - All leaves are at the same depth
  - Keys within a node are sorted

There is no Delete: the engine's core never removes a key, so the
merge/borrow machinery a general-purpose B-Tree needs for deletion has
no caller here and is not implemented.
*/
package storage

import (
	"sync"
)

// BTreeNode represents a node in the B-Tree.
type BTreeNode struct {
	keys     []string     // Keys stored in this node
	values   [][]byte     // Values corresponding to each key
	children []*BTreeNode // Child nodes (nil for leaf nodes)
	leaf     bool         // True if this is a leaf node
}

// BTree is a balanced tree structure for efficient key lookups.
// It provides O(log N) search and insert.
//
// Thread Safety: All methods are safe for concurrent use.
type BTree struct {
	root *BTreeNode // Root node of the tree
	t    int        // Minimum degree (defines the range for number of keys)
	mu   sync.RWMutex
}

// NewBTree creates a new B-Tree with the specified minimum degree.
// The minimum degree t determines the range of keys per node:
//   - Each node has at most 2*t - 1 keys
//   - Each node (except root) has at least t - 1 keys
//
// A typical value for t is 4-16 for in-memory trees.
func NewBTree(t int) *BTree {
	return &BTree{
		root: &BTreeNode{leaf: true},
		t:    t,
	}
}

// Search looks up a key in the B-Tree.
// Returns the associated value and true if found, or nil and false if
// not found.
//
// Time complexity: O(log N)
func (bt *BTree) Search(key string) ([]byte, bool) {
	bt.mu.RLock()
	defer bt.mu.RUnlock()
	return bt.searchNode(bt.root, key)
}

// searchNode recursively searches for a key starting from the given node.
func (bt *BTree) searchNode(node *BTreeNode, key string) ([]byte, bool) {
	i := 0
	for i < len(node.keys) && key > node.keys[i] {
		i++
	}

	if i < len(node.keys) && node.keys[i] == key {
		return node.values[i], true
	}

	if node.leaf {
		return nil, false
	}

	return bt.searchNode(node.children[i], key)
}

// Insert adds a key-value pair to the B-Tree.
// If the key already exists, the value is replaced.
//
// Time complexity: O(log N)
func (bt *BTree) Insert(key string, value []byte) {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	root := bt.root

	if len(root.keys) == 2*bt.t-1 {
		newRoot := &BTreeNode{leaf: false}
		newRoot.children = append(newRoot.children, root)
		bt.splitChild(newRoot, 0)
		bt.root = newRoot
		bt.insertNonFull(newRoot, key, value)
	} else {
		bt.insertNonFull(root, key, value)
	}
}

// insertNonFull inserts a key into a node that is guaranteed to be non-full.
func (bt *BTree) insertNonFull(node *BTreeNode, key string, value []byte) {
	i := len(node.keys) - 1

	if node.leaf {
		for i >= 0 && key < node.keys[i] {
			i--
		}
		if i >= 0 && node.keys[i] == key {
			node.values[i] = value // Replace existing binding
			return
		}
		node.keys = append(node.keys, "")
		node.values = append(node.values, nil)
		copy(node.keys[i+2:], node.keys[i+1:])
		copy(node.values[i+2:], node.values[i+1:])
		node.keys[i+1] = key
		node.values[i+1] = value
	} else {
		for i >= 0 && key < node.keys[i] {
			i--
		}
		if i >= 0 && node.keys[i] == key {
			node.values[i] = value // Replace existing binding promoted into this node
			return
		}
		i++
		if len(node.children[i].keys) == 2*bt.t-1 {
			bt.splitChild(node, i)
			if key == node.keys[i] {
				node.values[i] = value // The split promoted this very key
				return
			}
			if key > node.keys[i] {
				i++
			}
		}
		bt.insertNonFull(node.children[i], key, value)
	}
}

// splitChild splits the i-th child of node, which must be full.
func (bt *BTree) splitChild(node *BTreeNode, i int) {
	t := bt.t
	child := node.children[i]
	newNode := &BTreeNode{leaf: child.leaf}

	midKey := child.keys[t-1]
	midVal := child.values[t-1]

	newNode.keys = append(newNode.keys, child.keys[t:]...)
	newNode.values = append(newNode.values, child.values[t:]...)
	child.keys = child.keys[:t-1]
	child.values = child.values[:t-1]

	if !child.leaf {
		newNode.children = append(newNode.children, child.children[t:]...)
		child.children = child.children[:t]
	}

	node.keys = append(node.keys, "")
	node.values = append(node.values, nil)
	copy(node.keys[i+1:], node.keys[i:])
	copy(node.values[i+1:], node.values[i:])
	node.keys[i] = midKey
	node.values[i] = midVal

	node.children = append(node.children, nil)
	copy(node.children[i+2:], node.children[i+1:])
	node.children[i+1] = newNode
}

// PrefixScan returns up to maxResults (key, value) pairs whose keys
// begin with prefix, in ascending lexicographic order. maxResults <= 0
// means no limit. It walks the tree in order starting from the first
// key >= prefix and stops at the first key that doesn't start with
// prefix, or once maxResults pairs have been collected.
//
// Time complexity: O(log N + K) where K is the number of results.
func (bt *BTree) PrefixScan(prefix string, maxResults int) []KV {
	bt.mu.RLock()
	defer bt.mu.RUnlock()

	var result []KV
	bt.prefixScanNode(bt.root, prefix, maxResults, &result)
	return result
}

// prefixScanNode walks node in sorted order, appending every key with
// the given prefix to result. It returns true once the caller should
// stop visiting further nodes, either because maxResults was reached
// or because the in-order walk has passed the last key that could
// possibly match (any key greater than every string with this prefix).
func (bt *BTree) prefixScanNode(node *BTreeNode, prefix string, maxResults int, result *[]KV) bool {
	if node == nil {
		return false
	}

	// Keys below prefix cannot match, and neither can the children to
	// their left, so start at the first key >= prefix.
	i := 0
	for i < len(node.keys) && node.keys[i] < prefix {
		i++
	}
	for i < len(node.keys) {
		if !node.leaf {
			if bt.prefixScanNode(node.children[i], prefix, maxResults, result) {
				return true
			}
		}

		key := node.keys[i]
		switch {
		case hasPrefix(key, prefix):
			*result = append(*result, KV{Key: key, Value: node.values[i]})
			if maxResults > 0 && len(*result) >= maxResults {
				return true
			}
		case key > prefix:
			// Sorted order guarantees no further key can match once
			// the walk has passed the matching range.
			return true
		}

		i++
	}

	if !node.leaf {
		if bt.prefixScanNode(node.children[i], prefix, maxResults, result) {
			return true
		}
	}

	return false
}

func hasPrefix(key, prefix string) bool {
	if len(key) < len(prefix) {
		return false
	}
	return key[:len(prefix)] == prefix
}

// Size returns the number of keys in the B-Tree.
func (bt *BTree) Size() int {
	bt.mu.RLock()
	defer bt.mu.RUnlock()
	return bt.sizeNode(bt.root)
}

func (bt *BTree) sizeNode(node *BTreeNode) int {
	if node == nil {
		return 0
	}
	count := len(node.keys)
	for _, child := range node.children {
		count += bt.sizeNode(child)
	}
	return count
}
