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

package logging

import "testing"

func TestParseLevel(t *testing.T) {
	cases := []struct {
		name string
		want Level
	}{
		{"debug", DEBUG},
		{"warn", WARN},
		{"warning", WARN},
		{"error", ERROR},
		{"info", INFO},
		{"bogus", INFO},
		{"", INFO},
	}
	for _, tt := range cases {
		if got := ParseLevel(tt.name); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestNewLoggerDoesNotPanic(t *testing.T) {
	logger := NewLogger("test-component")
	logger.Debug("debug line", "k", 1)
	logger.Info("info line", "k", 1)
	logger.Warn("warn line", "k", 1)
	logger.Error("error line", "k", 1)
	if err := logger.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
}

func TestWithAddsFields(t *testing.T) {
	logger := NewLogger("engine")
	derived := logger.With("request_id", "abc123")
	if derived == logger {
		t.Fatal("With should return a new Logger, not mutate the receiver")
	}
	derived.Info("derived logger line")
}

func TestSetGlobalLevelAndJSONMode(t *testing.T) {
	SetGlobalLevel(DEBUG)
	SetJSONMode(true)
	logger := NewLogger("json-mode")
	logger.Debug("should be emitted as json")
	SetJSONMode(false)
	SetGlobalLevel(INFO)
}
