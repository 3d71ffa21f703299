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

package espclient

import (
	"net"
	"testing"
	"time"

	"github.com/ForrestLi/auto-test-poc/esp"
	"github.com/ForrestLi/auto-test-poc/fields"
)

// newTestSession assigns the client half of a net.Pipe directly to a
// Session and starts its workers — no dialing involved, so Connect and
// its 13x retry/back-off path are not exercised by these tests.
func newTestSession(t *testing.T) (*Session, net.Conn) {
	t.Helper()
	clientSide, serverSide := net.Pipe()
	s := New(Config{
		ParticipantCode: "PART1",
		VirtualServerNo: "VS0001",
		ExchangeCode:    "TK",
		MarketCode:      "01",
	})
	s.conn = clientSide
	s.wg.Add(2)
	go s.senderLoop()
	go s.receiverLoop()
	t.Cleanup(func() {
		s.Shutdown()
		_ = serverSide.Close()
	})
	return s, serverSide
}

func buildLoginResponseFrame(t *testing.T) []byte {
	t.Helper()
	resp := esp.NewLayer(esp.LoginResponse)
	resp.Values["ARMSN"] = fields.Some(int64(42))
	resp.Values["Reserved"] = fields.None[string]()

	common := esp.NewLayer(esp.ESPCommon)
	common.Values["MessageType"] = "11"
	common.Values["SeqNo"] = fields.Some(int64(1))
	common.Values["ResendFlag"] = "0"
	common.Values["ParticipantCode"] = fields.Some("PART1")
	common.Values["VirtualServerNo"] = fields.Some("VS0001")
	common.Values["ARMSN"] = fields.Some(int64(42))
	common.Values["SAMSN"] = fields.Some(int64(0))
	common.Values["NumberOfDataTransactions"] = fields.Some(int64(1))
	common.Values["TransmissionDate"] = fields.None[time.Time]()
	common.Values["TransmissionTime"] = fields.None[time.Duration]()
	common.Values["Reserved"] = " "
	common.Child = resp

	frame, err := esp.Build(common)
	if err != nil {
		t.Fatalf("build login response: %v", err)
	}
	return frame
}

func TestLoginAlignsSeqNoAndEnablesHeartbeats(t *testing.T) {
	s, server := newTestSession(t)

	done := make(chan error, 1)
	go func() { done <- s.Login(2 * time.Second) }()

	// Drain the LoginRequest the sender writes, then respond.
	header := make([]byte, esp.ESPCommon.Width())
	if err := recvExact(server, header); err != nil {
		t.Fatalf("read login request header: %v", err)
	}
	layer, err := esp.ParseHeader(esp.ESPCommon, header)
	if err != nil {
		t.Fatalf("parse login request header: %v", err)
	}
	declaredLen, _ := optInt64(layer.Values["MessageLength"])
	remaining := int(declaredLen) - esp.ESPCommon.Width() + 5
	body := make([]byte, remaining)
	if remaining > 0 {
		if err := recvExact(server, body); err != nil {
			t.Fatalf("read login request body: %v", err)
		}
	}

	if _, err := server.Write(buildLoginResponseFrame(t)); err != nil {
		t.Fatalf("write login response: %v", err)
	}

	if err := <-done; err != nil {
		t.Fatalf("login: %v", err)
	}

	s.mu.Lock()
	seqNo := s.lastSentSeqNo
	enabled := s.heartbeatsEnabled
	s.mu.Unlock()
	if seqNo != 42 {
		t.Fatalf("got lastSentSeqNo %d, want 42", seqNo)
	}
	if !enabled {
		t.Fatalf("expected heartbeats enabled after login")
	}
}

// readFullFrame reads one complete ESPCommon-framed message off conn
// and decodes it, mirroring receiverLoop's own header-then-body read.
func readFullFrame(t *testing.T, conn net.Conn) *esp.Layer {
	t.Helper()
	header := make([]byte, esp.ESPCommon.Width())
	if err := recvExact(conn, header); err != nil {
		t.Fatalf("read header: %v", err)
	}
	layer, err := esp.ParseHeader(esp.ESPCommon, header)
	if err != nil {
		t.Fatalf("parse header: %v", err)
	}
	declaredLen, _ := optInt64(layer.Values["MessageLength"])
	remaining := int(declaredLen) - esp.ESPCommon.Width() + 5
	body := make([]byte, remaining)
	if remaining > 0 {
		if err := recvExact(conn, body); err != nil {
			t.Fatalf("read body: %v", err)
		}
	}
	full, err := esp.Parse(esp.ESPCommon, append(header, body...))
	if err != nil {
		t.Fatalf("parse frame: %v", err)
	}
	return full
}

// TestEnqueueAssignsConsecutiveSeqNo asserts spec.md §8's outgoing
// sequence invariant: successive sends carry ESPCommon.SeqNo 1, 2, 3…
// when the caller leaves it null.
func TestEnqueueAssignsConsecutiveSeqNo(t *testing.T) {
	s, server := newTestSession(t)

	for want := int64(1); want <= 3; want++ {
		req := s.espCommonEnvelope("01")
		req.Child = esp.NewLayer(esp.LoginRequest)
		req.Child.Values["ParticipantCode"] = fields.Some("PART1")
		req.Child.Values["VirtualServerNo"] = fields.Some("VS0001")
		s.Enqueue(req)

		frame := readFullFrame(t, server)
		got, ok := optInt64(frame.Values["SeqNo"])
		if !ok {
			t.Fatalf("send %d: SeqNo not set on outgoing frame", want)
		}
		if got != want {
			t.Fatalf("send %d: got SeqNo %d, want %d", want, got, want)
		}
	}
}
