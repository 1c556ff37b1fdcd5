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
Package rpcserver exposes an Engine over net/rpc, gob-encoded.

Each exported Engine operation (Set, Get, GetPrefix, Stat) gets a
matching RPC method on KVService, following the standard net/rpc
convention of a single request struct, a single reply struct, and an
error return. The server accepts connections on a dedicated listener
and hands each one to rpc.ServeConn in its own goroutine, the same
accept-loop shape the teacher's TCP server uses for its text and
binary protocol listeners.
*/
package rpcserver

import (
	"net"
	"net/rpc"
	"sync"

	"shardkv/internal/logging"
	"shardkv/internal/storage"
)

// KVService is the RPC-visible facade over an Engine. Its methods are
// exported so net/rpc can register them; each one forwards directly to
// the engine and does no business logic of its own.
type KVService struct {
	engine *storage.Engine
}

// SetArgs is the request for KVService.Set.
type SetArgs struct {
	Key   string
	Value []byte
}

// SetReply is the (empty) response for a successful Set.
type SetReply struct{}

// Set stores key/value, returning the engine's error verbatim so
// callers can distinguish validation failures from I/O failures.
func (s *KVService) Set(args SetArgs, reply *SetReply) error {
	return s.engine.Set(args.Key, args.Value)
}

// GetArgs is the request for KVService.Get.
type GetArgs struct {
	Key string
}

// GetReply is the response for KVService.Get.
type GetReply struct {
	Value []byte
	Found bool
}

// Get looks up a key.
func (s *KVService) Get(args GetArgs, reply *GetReply) error {
	value, found, err := s.engine.Get(args.Key)
	if err != nil {
		return err
	}
	reply.Value = value
	reply.Found = found
	return nil
}

// GetPrefixArgs is the request for KVService.GetPrefix.
type GetPrefixArgs struct {
	Prefix     string
	MaxResults int
}

// GetPrefixReply is the response for KVService.GetPrefix.
type GetPrefixReply struct {
	Results []storage.KV
}

// GetPrefix returns every (key, value) pair whose key begins with
// args.Prefix, up to args.MaxResults entries.
func (s *KVService) GetPrefix(args GetPrefixArgs, reply *GetPrefixReply) error {
	reply.Results = s.engine.GetPrefix(args.Prefix, args.MaxResults)
	return nil
}

// StatArgs is the (empty) request for KVService.Stat.
type StatArgs struct{}

// StatReply mirrors storage.Stat for the wire.
type StatReply struct {
	KeyCount        int
	ServerStartTime string
	TotalRequests   uint64
	SetCount        uint64
	GetCount        uint64
	GetPrefixCount  uint64
}

// Stat returns a snapshot of the engine's counters.
func (s *KVService) Stat(args StatArgs, reply *StatReply) error {
	stat := s.engine.Stat()
	reply.KeyCount = stat.KeyCount
	reply.ServerStartTime = stat.ServerStartTime
	reply.TotalRequests = stat.TotalRequests
	reply.SetCount = stat.SetCount
	reply.GetCount = stat.GetCount
	reply.GetPrefixCount = stat.GetPrefixCount
	return nil
}

// Server listens for net/rpc clients and dispatches to a KVService.
type Server struct {
	addr     string
	engine   *storage.Engine
	log      *logging.Logger
	listener net.Listener

	mu      sync.Mutex
	stopped bool
	stopCh  chan struct{}
}

// New creates a Server bound to addr that serves engine over RPC.
func New(addr string, engine *storage.Engine, log *logging.Logger) *Server {
	if log == nil {
		log = logging.NewLogger("rpcserver")
	}
	return &Server{
		addr:   addr,
		engine: engine,
		log:    log,
		stopCh: make(chan struct{}),
	}
}

// Listen opens the TCP listener without starting the accept loop, so
// callers (and tests) can learn the bound address before Serve blocks.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.log.Error("failed to start RPC listener", "address", s.addr, "error", err)
		return nil, err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	return ln, nil
}

// Start opens the listener and runs the accept loop, blocking until
// Stop closes the listener. Other Accept errors are logged and the
// loop keeps accepting.
func (s *Server) Start() error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve registers KVService and runs the accept loop against an
// already-open listener, blocking until Stop closes it.
func (s *Server) Serve(ln net.Listener) error {
	registry := rpc.NewServer()
	if err := registry.RegisterName("KVService", &KVService{engine: s.engine}); err != nil {
		return err
	}

	s.log.Info("RPC server listening", "address", ln.Addr().String())

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				s.log.Info("RPC server stopped, exiting accept loop")
				return nil
			default:
			}
			s.log.Warn("accept error", "error", err)
			continue
		}
		s.log.Debug("RPC connection accepted", "remote_addr", conn.RemoteAddr().String())
		go registry.ServeConn(conn)
	}
}

// Stop closes the listener, causing Start's accept loop to return.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil
	}
	s.stopped = true
	close(s.stopCh)

	if s.listener == nil {
		return nil
	}
	err := s.listener.Close()
	s.log.Info("RPC server stopped")
	return err
}
