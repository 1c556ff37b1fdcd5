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

package rpcserver

import (
	"net/rpc"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shardkv/internal/storage"
)

func setupTestServer(t *testing.T) (*rpc.Client, func()) {
	tmpDir, err := os.MkdirTemp("", "shardkv_rpc_test_*")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}

	engine, err := storage.NewEngine(storage.Options{
		WALPath:       filepath.Join(tmpDir, "wal.log"),
		StripeCount:   8,
		MaxKeyBytes:   4096,
		MaxValueBytes: 1024 * 1024,
		FsyncOnAppend: true,
	})
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("NewEngine: %v", err)
	}

	srv := New("127.0.0.1:0", engine, nil)
	ln, err := srv.Listen()
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	client, err := rpc.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	cleanup := func() {
		client.Close()
		srv.Stop()
		<-errCh
		engine.Close()
		os.RemoveAll(tmpDir)
	}
	return client, cleanup
}

func TestRPCSetGetRoundTrip(t *testing.T) {
	client, cleanup := setupTestServer(t)
	defer cleanup()

	var setReply SetReply
	if err := client.Call("KVService.Set", SetArgs{Key: "a", Value: []byte("1")}, &setReply); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var getReply GetReply
	if err := client.Call("KVService.Get", GetArgs{Key: "a"}, &getReply); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !getReply.Found || string(getReply.Value) != "1" {
		t.Fatalf("Get(a): value=%q found=%v", getReply.Value, getReply.Found)
	}
}

func TestRPCGetPrefix(t *testing.T) {
	client, cleanup := setupTestServer(t)
	defer cleanup()

	for _, k := range []string{"app", "apple", "banana"} {
		var reply SetReply
		if err := client.Call("KVService.Set", SetArgs{Key: k, Value: []byte(k)}, &reply); err != nil {
			t.Fatalf("Set(%s): %v", k, err)
		}
	}

	var prefixReply GetPrefixReply
	if err := client.Call("KVService.GetPrefix", GetPrefixArgs{Prefix: "ap"}, &prefixReply); err != nil {
		t.Fatalf("GetPrefix: %v", err)
	}
	if len(prefixReply.Results) != 2 {
		t.Fatalf("expected 2 results, got %d: %v", len(prefixReply.Results), prefixReply.Results)
	}
}

func TestRPCStat(t *testing.T) {
	client, cleanup := setupTestServer(t)
	defer cleanup()

	var setReply SetReply
	if err := client.Call("KVService.Set", SetArgs{Key: "a", Value: []byte("1")}, &setReply); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var statReply StatReply
	if err := client.Call("KVService.Stat", StatArgs{}, &statReply); err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if statReply.SetCount != 1 {
		t.Errorf("expected set_count=1, got %d", statReply.SetCount)
	}
	if statReply.KeyCount != 1 {
		t.Errorf("expected key_count=1, got %d", statReply.KeyCount)
	}
}

func TestRPCValidationErrorPropagates(t *testing.T) {
	client, cleanup := setupTestServer(t)
	defer cleanup()

	var setReply SetReply
	err := client.Call("KVService.Set", SetArgs{Key: "", Value: []byte("v")}, &setReply)
	if err == nil {
		t.Fatal("expected an error for an empty key")
	}
	// net/rpc only carries the error's message across the wire (as an
	// rpc.ServerError), not its concrete type, so assert on the message
	// rather than on the EngineError code.
	if !strings.Contains(err.Error(), "EmptyKey") {
		t.Fatalf("expected the EmptyKey error kind to survive the RPC boundary, got %v", err)
	}
}
