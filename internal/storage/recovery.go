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
Package storage: recovery driver.

replayIntoIndex runs once, at engine construction, before the engine
accepts any client traffic. It replays the WAL directly into the index
with no locking: this phase is single-threaded by construction (no
other goroutine has a reference to the engine yet).
*/
package storage

// replayIntoIndex replays wal into idx and returns the replay summary
// for the caller to log. Per §4.6, index.Put is called directly for
// every record in log order, so I2 (recovery equals runtime: the index
// ends up holding the value of the last Set per key) holds for free —
// BTree.Insert already replaces rather than appends.
func replayIntoIndex(wal *WAL, idx *Index) (ReplaySummary, error) {
	return wal.Replay(func(key string, value []byte) error {
		idx.Put(key, value)
		return nil
	})
}
