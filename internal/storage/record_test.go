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

import "testing"

// TestRecordRoundTrip is property P5: encode then decode yields the
// original record, for a range of key/value shapes.
func TestRecordRoundTrip(t *testing.T) {
	cases := []Record{
		{Key: "a", Value: []byte("1")},
		{Key: "empty-value", Value: []byte{}},
		{Key: "binary", Value: []byte{0x00, 0xFF, 0x10, 0x00}},
		{Key: "longer-key-name-here", Value: make([]byte, 4096)},
	}

	for _, want := range cases {
		frame, err := EncodeRecord(want)
		if err != nil {
			t.Fatalf("encode(%q): %v", want.Key, err)
		}
		got, n, err := DecodeRecord(frame, 1<<20, 1<<20)
		if err != nil {
			t.Fatalf("decode(%q): %v", want.Key, err)
		}
		if n != len(frame) {
			t.Errorf("decode(%q): consumed %d, want %d", want.Key, n, len(frame))
		}
		if got.Key != want.Key {
			t.Errorf("decode key: got %q, want %q", got.Key, want.Key)
		}
		if string(got.Value) != string(want.Value) {
			t.Errorf("decode value: got %q, want %q", got.Value, want.Value)
		}
	}
}

func TestDecodeRecordShortBuffer(t *testing.T) {
	frame, err := EncodeRecord(Record{Key: "k", Value: []byte("v")})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	_, _, err = DecodeRecord(frame[:len(frame)-1], 1<<20, 1<<20)
	if !IsShortBuffer(err) {
		t.Fatalf("expected short-buffer error, got %v", err)
	}
}

func TestDecodeRecordBadCRC(t *testing.T) {
	frame, err := EncodeRecord(Record{Key: "k", Value: []byte("v")})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	frame[len(frame)-1] ^= 0xFF
	_, _, err = DecodeRecord(frame, 1<<20, 1<<20)
	if err == nil {
		t.Fatal("expected CRC mismatch to be reported")
	}
	if IsShortBuffer(err) {
		t.Fatal("CRC mismatch should not be a short-buffer error")
	}
}
