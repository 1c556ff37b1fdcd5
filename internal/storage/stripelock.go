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
Package storage: striped lock array.

A fixed-size array of mutexes gives the engine per-key serialization
without paying for a lock per key. A key is mapped to exactly one
stripe by a deterministic hash, so repeated calls for the same key
always contend on the same mutex, and a writer never needs more than
one lock at a time.
*/
package storage

import (
	"hash/fnv"
	"sync"
)

// StripeLocks is a fixed array of mutexes; keys are assigned to
// stripes by FNV-1a hashing.
type StripeLocks struct {
	locks []sync.Mutex
}

// NewStripeLocks builds an array of n mutexes (64 if n <= 0). Any
// positive n works; stripe selection takes the hash modulo n.
func NewStripeLocks(n int) *StripeLocks {
	if n <= 0 {
		n = 64
	}
	return &StripeLocks{locks: make([]sync.Mutex, n)}
}

// stripeIndex computes the deterministic stripe for key via FNV-1a,
// the hash spec names explicitly for this purpose.
func (s *StripeLocks) stripeIndex(key string) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum64() % uint64(len(s.locks)))
}

// Lock acquires the stripe lock for key and returns an unlock function.
// Callers hold exactly this one lock for the duration of a Set's
// "WAL append + index publish" critical section.
func (s *StripeLocks) Lock(key string) (unlock func()) {
	m := &s.locks[s.stripeIndex(key)]
	m.Lock()
	return m.Unlock
}
