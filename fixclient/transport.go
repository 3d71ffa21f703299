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
	"sync"
	"time"

	"github.com/ForrestLi/auto-test-poc/fixmsg"
	"github.com/ForrestLi/auto-test-poc/harnesserr"
)

// RawTransport adapts a net.Conn to checker.Transport's raw
// []byte Send/Recv contract: checker.FIXChecker builds and decodes
// complete fixmsg.Message frames itself, so the harness only needs a
// byte pipe with stream resynchronization, not a full Session
// (Session's Logon/heartbeat lifecycle is for the stress client, which
// drives orders directly rather than through the checker harness).
type RawTransport struct {
	conn net.Conn

	mu  sync.Mutex
	buf []byte
}

func NewRawTransport(conn net.Conn) *RawTransport {
	return &RawTransport{conn: conn}
}

func (t *RawTransport) Send(frame []byte) error {
	for written := 0; written < len(frame); {
		n, err := t.conn.Write(frame[written:])
		if err != nil {
			return harnesserr.NewTransportError("write", err)
		}
		written += n
	}
	return nil
}

func (t *RawTransport) Recv(timeout time.Duration) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if frame, discard, found := fixmsg.FindFrame(t.buf); found {
		t.buf = t.buf[discard+len(frame):]
		return frame, nil
	} else if discard > 0 {
		t.buf = t.buf[discard:]
	}

	_ = t.conn.SetReadDeadline(time.Now().Add(timeout))
	tmp := make([]byte, 4096)
	for {
		n, err := t.conn.Read(tmp)
		if n > 0 {
			t.buf = append(t.buf, tmp[:n]...)
		}
		if err != nil {
			if isTimeoutErr(err) {
				return nil, harnesserr.NewTimeout("fixclient.RawTransport.Recv")
			}
			return nil, harnesserr.NewTransportError("read", err)
		}
		if frame, discard, found := fixmsg.FindFrame(t.buf); found {
			t.buf = t.buf[discard+len(frame):]
			return frame, nil
		} else if discard > 0 {
			t.buf = t.buf[discard:]
		}
	}
}

func isTimeoutErr(err error) bool {
	type timeouter interface{ Timeout() bool }
	te, ok := err.(timeouter)
	return ok && te.Timeout()
}
