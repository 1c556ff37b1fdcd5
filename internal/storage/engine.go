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
Package storage provides the persistence layer for the key-value
engine: the record codec, the write-ahead log, the striped lock array,
the in-memory ordered index, this facade, and the recovery driver.

Architecture:
=============

	┌─────────────────────────────────────────────────────┐
	│                    RPC adapter                       │
	└─────────────────────────────────────────────────────┘
	                         │
	                         ▼
	┌─────────────────────────────────────────────────────┐
	│                  Engine facade                       │
	│         (Set, Get, GetPrefix, Stat, Close)           │
	└─────────────────────────────────────────────────────┘
	              │                        │
	              ▼                        ▼
	┌───────────────────────┐   ┌───────────────────────┐
	│  StripeLocks + WAL     │   │        Index          │
	│  (durability, §4.2/4.3)│   │  (§4.4, B-Tree backed) │
	└───────────────────────┘   └───────────────────────┘
*/
package storage

import (
	"sync/atomic"
	"time"

	dberrors "shardkv/internal/errors"
	"shardkv/internal/logging"
	"shardkv/internal/metrics"
)

// Options configures a new Engine. Every field corresponds to one of
// the engine constructor's recognized configuration options.
type Options struct {
	WALPath       string
	StripeCount   int
	MaxKeyBytes   int
	MaxValueBytes int
	FsyncOnAppend bool
	Logger        *logging.Logger
	Metrics       *metrics.EngineMetrics
}

// DefaultOptions returns the engine's documented defaults.
func DefaultOptions() Options {
	return Options{
		WALPath:       "wal.log",
		StripeCount:   64,
		MaxKeyBytes:   4 * 1024,
		MaxValueBytes: 1024 * 1024,
		FsyncOnAppend: true,
	}
}

// Stat is the point-in-time snapshot returned by Engine.Stat.
type Stat struct {
	KeyCount        int
	ServerStartTime string
	TotalRequests   uint64
	SetCount        uint64
	GetCount        uint64
	GetPrefixCount  uint64
}

// Engine orchestrates Set/Get/GetPrefix/Stat over the WAL, the stripe
// lock array, and the index, and owns the lifetime of all three.
type Engine struct {
	wal   *WAL
	index *Index
	locks *StripeLocks

	maxKeyBytes   int
	maxValueBytes int

	startTime time.Time

	totalRequests  atomic.Uint64
	setCount       atomic.Uint64
	getCount       atomic.Uint64
	getPrefixCount atomic.Uint64

	log     *logging.Logger
	metrics *metrics.EngineMetrics
}

// NewEngine opens (or creates) the WAL at opts.WALPath, replays it into
// a fresh index, and returns an Engine ready to accept traffic. Replay
// runs to completion before this returns, per §4.6: no caller can
// observe a partially-recovered index.
func NewEngine(opts Options) (*Engine, error) {
	if opts.StripeCount <= 0 {
		opts.StripeCount = 64
	}
	if opts.MaxKeyBytes <= 0 {
		opts.MaxKeyBytes = 4 * 1024
	}
	if opts.MaxValueBytes <= 0 {
		opts.MaxValueBytes = 1024 * 1024
	}
	if opts.WALPath == "" {
		opts.WALPath = "wal.log"
	}
	log := opts.Logger
	if log == nil {
		log = logging.NewLogger("engine")
	}

	wal, err := OpenWAL(opts.WALPath, WALOptions{
		SyncOnAppend:  opts.FsyncOnAppend,
		MaxKeyBytes:   opts.MaxKeyBytes,
		MaxValueBytes: opts.MaxValueBytes,
	})
	if err != nil {
		return nil, err
	}

	idx := NewIndex()
	summary, err := replayIntoIndex(wal, idx)
	if err != nil {
		_ = wal.Close()
		return nil, err
	}
	log.Info("recovery complete", "records_applied", summary.RecordsApplied, "truncated_at", summary.TruncatedAt)

	e := &Engine{
		wal:           wal,
		index:         idx,
		locks:         NewStripeLocks(opts.StripeCount),
		maxKeyBytes:   opts.MaxKeyBytes,
		maxValueBytes: opts.MaxValueBytes,
		startTime:     time.Now().UTC(),
		log:           log,
		metrics:       opts.Metrics,
	}
	if e.metrics != nil {
		e.metrics.SetKeyCount(idx.Len())
	}
	return e, nil
}

// Set validates key and value, appends to the WAL under the key's
// stripe lock, and only then publishes to the index. If the WAL append
// fails the index is never touched, so a failed Set leaves no trace
// (I1: no false acknowledgements).
func (e *Engine) Set(key string, value []byte) error {
	if len(key) == 0 {
		e.countRequest(&e.setCount)
		return dberrors.EmptyKey()
	}
	if len(key) > e.maxKeyBytes {
		e.countRequest(&e.setCount)
		return dberrors.KeyTooLarge(len(key), e.maxKeyBytes)
	}
	if len(value) > e.maxValueBytes {
		e.countRequest(&e.setCount)
		return dberrors.ValueTooLarge(len(value), e.maxValueBytes)
	}

	unlock := e.locks.Lock(key)
	defer unlock()

	if err := e.wal.AppendAndSync(Record{Key: key, Value: value}); err != nil {
		e.countRequest(&e.setCount)
		return err
	}
	e.index.Put(key, value)
	e.countRequest(&e.setCount)

	if e.metrics != nil {
		e.metrics.ObserveSet()
		e.metrics.SetKeyCount(e.index.Len())
	}
	return nil
}

// Get looks up key in the index. It takes no stripe lock: point reads
// rely solely on the index's own concurrency guarantees (§5).
func (e *Engine) Get(key string) (value []byte, found bool, err error) {
	if len(key) == 0 {
		e.countRequest(&e.getCount)
		return nil, false, dberrors.EmptyKey()
	}
	value, found = e.index.Get(key)
	e.countRequest(&e.getCount)
	if e.metrics != nil {
		e.metrics.ObserveGet()
	}
	return value, found, nil
}

// GetPrefix returns up to maxResults (key, value) pairs whose keys
// begin with prefix, in ascending lexicographic order. maxResults <= 0
// means no limit; an empty prefix matches every key.
func (e *Engine) GetPrefix(prefix string, maxResults int) []KV {
	results := e.index.PrefixScan(prefix, maxResults)
	e.countRequest(&e.getPrefixCount)
	if e.metrics != nil {
		e.metrics.ObserveGetPrefix()
	}
	return results
}

// Stat returns a snapshot of the engine's counters and key count.
func (e *Engine) Stat() Stat {
	return Stat{
		KeyCount:        e.index.Len(),
		ServerStartTime: e.startTime.Format(time.RFC3339),
		TotalRequests:   e.totalRequests.Load(),
		SetCount:        e.setCount.Load(),
		GetCount:        e.getCount.Load(),
		GetPrefixCount:  e.getPrefixCount.Load(),
	}
}

// Close syncs and closes the WAL. The index is in-memory only and
// needs no explicit teardown.
func (e *Engine) Close() error {
	return e.wal.Close()
}

// countRequest increments both the per-operation counter and the
// shared total, matching I5 (monotone counters). Every operation that
// reaches the engine counts, including ones that return a validation
// error — only transport-level rejects, which never reach here, are
// excluded.
func (e *Engine) countRequest(op *atomic.Uint64) {
	op.Add(1)
	e.totalRequests.Add(1)
}
