/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package fixclient

import (
	"net"
	"testing"
	"time"

	"github.com/ForrestLi/auto-test-poc/fixmsg"
)

func newTestSession(t *testing.T) (*Session, net.Conn) {
	t.Helper()
	clientSide, serverSide := net.Pipe()
	s := New(Config{SenderCompID: "CLIENT1", TargetCompID: "EXCH1", HeartBtInt: 30})
	s.Attach(clientSide)
	t.Cleanup(func() {
		s.Shutdown()
		_ = serverSide.Close()
	})
	return s, serverSide
}

func readFrame(t *testing.T, conn net.Conn) *fixmsg.Message {
	t.Helper()
	buf := make([]byte, 0, 256)
	tmp := make([]byte, 256)
	for {
		if frame, _, found := fixmsg.FindFrame(buf); found {
			m, err := fixmsg.Decode(frame)
			if err != nil {
				t.Fatalf("decode frame: %v", err)
			}
			return m
		}
		n, err := conn.Read(tmp)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		buf = append(buf, tmp[:n]...)
	}
}

func TestLogonEnablesHeartbeats(t *testing.T) {
	s, server := newTestSession(t)

	done := make(chan error, 1)
	go func() { done <- s.Logon(2 * time.Second) }()

	req := readFrame(t, server)
	if req.MsgType() != "A" {
		t.Fatalf("expected Logon (35=A), got %q", req.MsgType())
	}

	resp := fixmsg.New()
	resp.Set(8, "FIX.4.4")
	resp.Set(35, "A")
	resp.Set(108, "30")
	frame, err := resp.Encode()
	if err != nil {
		t.Fatalf("encode logon response: %v", err)
	}
	if _, err := server.Write(frame); err != nil {
		t.Fatalf("write logon response: %v", err)
	}

	if err := <-done; err != nil {
		t.Fatalf("logon: %v", err)
	}

	s.mu.Lock()
	enabled := s.heartbeatsEnabled
	s.mu.Unlock()
	if !enabled {
		t.Fatalf("expected heartbeats enabled after logon")
	}
}

func TestEnqueueStampsSeqNumAndCompIDs(t *testing.T) {
	s, server := newTestSession(t)

	m := fixmsg.New()
	m.Set(8, "FIX.4.4")
	m.Set(35, "D")
	s.Enqueue(m)

	got := readFrame(t, server)
	if v, _ := got.Get(49); v != "CLIENT1" {
		t.Fatalf("expected SenderCompID CLIENT1, got %q", v)
	}
	if v, _ := got.Get(56); v != "EXCH1" {
		t.Fatalf("expected TargetCompID EXCH1, got %q", v)
	}
	if v, ok := got.GetInt(34); !ok || v != 1 {
		t.Fatalf("expected MsgSeqNum 1, got %v (ok=%v)", v, ok)
	}
}
