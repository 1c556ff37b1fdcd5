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
Package storage implements the durable key-value engine: the record
codec, the write-ahead log, the striped lock array, the in-memory
ordered index, the engine facade, and the recovery driver.

Record Frame Layout:
=====================

	[ magic:2 | version:1 | key_len:u32 be | value_len:u32 be | key | value | crc32:u32 be ]

crc32 covers every byte from magic through the value, i.e. everything
except the trailing checksum itself.
*/
package storage

import (
	"encoding/binary"
	"hash/crc32"

	dberrors "shardkv/internal/errors"
)

// recordMagic identifies the start of a record frame. Not spec-mandated;
// an implementation choice for this port.
var recordMagic = [2]byte{'S', 'K'}

const recordVersion byte = 1

// headerSize is magic(2) + version(1) + key_len(4) + value_len(4).
const headerSize = 2 + 1 + 4 + 4

// trailerSize is the trailing crc32.
const trailerSize = 4

// Record is a single logical Set: a (key, value) pair as persisted in
// the write-ahead log.
type Record struct {
	Key   string
	Value []byte
}

// EncodedLen returns the number of bytes EncodeRecord would produce for
// a record with the given key/value lengths.
func EncodedLen(keyLen, valueLen int) int {
	return headerSize + keyLen + valueLen + trailerSize
}

// EncodeRecord serializes r into the self-describing frame described in
// the package doc. It does not check the configured key/value limits;
// callers validate before calling (WAL.AppendAndSync does), and the
// codec itself only guards against overflow of the u32 length fields.
func EncodeRecord(r Record) ([]byte, error) {
	keyBytes := []byte(r.Key)
	if len(keyBytes) > 0xFFFFFFFF || len(r.Value) > 0xFFFFFFFF {
		return nil, dberrors.ValueTooLarge(len(r.Value), 0xFFFFFFFF)
	}

	buf := make([]byte, EncodedLen(len(keyBytes), len(r.Value)))
	buf[0], buf[1] = recordMagic[0], recordMagic[1]
	buf[2] = recordVersion
	binary.BigEndian.PutUint32(buf[3:7], uint32(len(keyBytes)))
	binary.BigEndian.PutUint32(buf[7:11], uint32(len(r.Value)))
	copy(buf[headerSize:], keyBytes)
	copy(buf[headerSize+len(keyBytes):], r.Value)

	body := buf[:len(buf)-trailerSize]
	sum := crc32.ChecksumIEEE(body)
	binary.BigEndian.PutUint32(buf[len(buf)-trailerSize:], sum)

	return buf, nil
}

// DecodeRecord parses a single frame out of the front of buf. It
// returns the decoded record, the number of bytes consumed, and an
// error. A short buffer (fewer bytes than the frame needs) is reported
// via errShortBuffer so callers at the tail of a log can distinguish
// "not enough bytes yet" from "these bytes are garbage" — the WAL uses
// that distinction to implement tail truncation versus CorruptLog.
func DecodeRecord(buf []byte, maxKeyBytes, maxValueBytes int) (Record, int, error) {
	if len(buf) < headerSize {
		return Record{}, 0, errShortBuffer
	}
	if buf[0] != recordMagic[0] || buf[1] != recordMagic[1] {
		return Record{}, 0, dberrors.CorruptRecord("bad magic")
	}
	if buf[2] != recordVersion {
		return Record{}, 0, dberrors.CorruptRecord("unknown record version")
	}

	keyLen := int(binary.BigEndian.Uint32(buf[3:7]))
	valueLen := int(binary.BigEndian.Uint32(buf[7:11]))
	if keyLen > maxKeyBytes {
		return Record{}, 0, dberrors.CorruptRecord("declared key length exceeds configured maximum")
	}
	if valueLen > maxValueBytes {
		return Record{}, 0, dberrors.CorruptRecord("declared value length exceeds configured maximum")
	}

	total := EncodedLen(keyLen, valueLen)
	if len(buf) < total {
		return Record{}, 0, errShortBuffer
	}

	body := buf[:total-trailerSize]
	wantSum := binary.BigEndian.Uint32(buf[total-trailerSize : total])
	gotSum := crc32.ChecksumIEEE(body)
	if gotSum != wantSum {
		return Record{}, 0, dberrors.CorruptRecord("crc32 mismatch")
	}

	key := string(buf[headerSize : headerSize+keyLen])
	value := make([]byte, valueLen)
	copy(value, buf[headerSize+keyLen:headerSize+keyLen+valueLen])

	return Record{Key: key, Value: value}, total, nil
}

// recordFrameLen reads just enough of the header to report the total
// frame length a record at the front of buf declares, without
// validating its checksum. ok is false if the header itself isn't
// trustworthy (too few bytes, bad magic/version, or a declared length
// outside the configured limits) — in that case the caller has no
// reliable way to know how many bytes this frame claims to occupy.
func recordFrameLen(buf []byte, maxKeyBytes, maxValueBytes int) (total int, ok bool) {
	if len(buf) < headerSize {
		return 0, false
	}
	if buf[0] != recordMagic[0] || buf[1] != recordMagic[1] || buf[2] != recordVersion {
		return 0, false
	}
	keyLen := int(binary.BigEndian.Uint32(buf[3:7]))
	valueLen := int(binary.BigEndian.Uint32(buf[7:11]))
	if keyLen > maxKeyBytes || valueLen > maxValueBytes {
		return 0, false
	}
	return EncodedLen(keyLen, valueLen), true
}

// errShortBuffer is a sentinel distinct from CorruptRecord: it means
// "well-formed so far, but the frame isn't fully present in buf." The
// WAL reader uses it to tell a torn tail apart from bad bytes.
var errShortBuffer = shortBufferError{}

type shortBufferError struct{}

func (shortBufferError) Error() string { return "record: buffer shorter than declared frame" }

// IsShortBuffer reports whether err is the short-buffer sentinel.
func IsShortBuffer(err error) bool {
	_, ok := err.(shortBufferError)
	return ok
}
