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

package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	dberrors "shardkv/internal/errors"
)

// WAL is the append-only write-ahead log backing the engine. All
// appends are serialized by mu; the file is opened for append so
// concurrent readers of the same path see a monotonically growing
// prefix during normal operation.
type WAL struct {
	file          *os.File
	mu            sync.Mutex
	syncOnAppend  bool
	maxKeyBytes   int
	maxValueBytes int
}

// WALOptions configures OpenWAL.
type WALOptions struct {
	SyncOnAppend  bool
	MaxKeyBytes   int
	MaxValueBytes int
}

// OpenWAL opens or creates the log file at path in append mode and
// positions the write cursor at the end of the file.
func OpenWAL(path string, opts WALOptions) (*WAL, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, dberrors.IoError("creating WAL directory", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, dberrors.IoError("opening WAL file", err)
	}

	return &WAL{
		file:          f,
		syncOnAppend:  opts.SyncOnAppend,
		maxKeyBytes:   opts.MaxKeyBytes,
		maxValueBytes: opts.MaxValueBytes,
	}, nil
}

// AppendAndSync serializes r via the record codec, writes the full
// frame, and (unless disabled for testing) forces a full-data fsync
// before returning. A key or value that fails validation is reported
// as EmptyKey, KeyTooLarge or ValueTooLarge; a write or fsync failure is
// reported as IoError. The caller must not publish to the index when
// this returns an error.
func (w *WAL) AppendAndSync(r Record) error {
	if len(r.Key) == 0 {
		return dberrors.EmptyKey()
	}
	if len(r.Key) > w.maxKeyBytes {
		return dberrors.KeyTooLarge(len(r.Key), w.maxKeyBytes)
	}
	if len(r.Value) > w.maxValueBytes {
		return dberrors.ValueTooLarge(len(r.Value), w.maxValueBytes)
	}

	frame, err := EncodeRecord(r)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Write(frame); err != nil {
		return dberrors.IoError("writing WAL frame", err)
	}
	if w.syncOnAppend {
		if err := w.file.Sync(); err != nil {
			return dberrors.IoError("fsyncing WAL", err)
		}
	}
	return nil
}

// ReplaySummary reports what happened during a Replay call.
type ReplaySummary struct {
	RecordsApplied int
	TruncatedAt    int64
}

// Replay reads the log sequentially from the start of the file and
// invokes visit for every well-formed record. A torn frame at the tail
// (one that runs out of bytes mid-record, or one whose declared length
// checks out but that occupies exactly the remaining bytes in the file
// with no well-formed record after it) is treated as a crash artifact:
// the file is truncated to the offset right before it, and Replay
// returns normally. A decode failure followed by more well-formed
// records is mid-file corruption and is a hard failure: CorruptLog.
func (w *WAL) Replay(visit func(key string, value []byte) error) (ReplaySummary, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return ReplaySummary{}, dberrors.IoError("seeking WAL for replay", err)
	}

	data, err := io.ReadAll(w.file)
	if err != nil {
		return ReplaySummary{}, dberrors.IoError("reading WAL for replay", err)
	}

	summary := ReplaySummary{}
	offset := int64(0)
	buf := data

	for len(buf) > 0 {
		rec, n, err := DecodeRecord(buf, w.maxKeyBytes, w.maxValueBytes)
		if err != nil {
			if IsShortBuffer(err) {
				// Torn tail: discard and truncate.
				if err := w.file.Truncate(offset); err != nil {
					return summary, dberrors.IoError("truncating torn WAL tail", err)
				}
				summary.TruncatedAt = offset
				break
			}

			// The header parsed and declared a length that fits within
			// the configured limits, but the frame failed its CRC. If
			// that frame's declared length consumes exactly the rest of
			// the file, nothing follows it to prove mid-file corruption
			// — it's a full-length but garbled tail record, the same
			// crash artifact as a torn one, so truncate instead of
			// escalating.
			if total, ok := recordFrameLen(buf, w.maxKeyBytes, w.maxValueBytes); ok && total == len(buf) {
				if err := w.file.Truncate(offset); err != nil {
					return summary, dberrors.IoError("truncating corrupt WAL tail", err)
				}
				summary.TruncatedAt = offset
				break
			}

			// Corruption strictly before the tail, or a header so
			// damaged its length can't be trusted: escalate.
			return summary, dberrors.CorruptLog(fmt.Sprintf("decode failure at offset %d: %v", offset, err))
		}

		if err := visit(rec.Key, rec.Value); err != nil {
			return summary, err
		}
		summary.RecordsApplied++
		offset += int64(n)
		buf = buf[n:]
	}

	if _, err := w.file.Seek(0, io.SeekEnd); err != nil {
		return summary, dberrors.IoError("seeking WAL to end after replay", err)
	}
	return summary, nil
}

// Close syncs and closes the underlying file.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.file.Sync()
	return w.file.Close()
}
