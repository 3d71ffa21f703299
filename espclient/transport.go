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
	"time"

	"github.com/ForrestLi/auto-test-poc/esp"
	"github.com/ForrestLi/auto-test-poc/harnesserr"
)

// RawTransport adapts a net.Conn to checker.Transport's raw []byte
// contract for ESPChecker, which builds and parses whole ESPCommon
// frames itself. It performs the same two-phase header-then-body read
// Session's receiverLoop does, without the session's handler chain,
// counters, or heartbeat lifecycle.
type RawTransport struct {
	conn net.Conn
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
	_ = t.conn.SetReadDeadline(time.Now().Add(timeout))

	header := make([]byte, espCommonHeaderWidth)
	if err := recvExact(t.conn, header); err != nil {
		if isTimeoutErr(err) {
			return nil, harnesserr.NewTimeout("espclient.RawTransport.Recv")
		}
		return nil, harnesserr.NewTransportError("read", err)
	}
	layer, err := esp.ParseHeader(esp.ESPCommon, header)
	if err != nil {
		return nil, err
	}
	declaredLen, _ := optInt64(layer.Values["MessageLength"])
	remaining := int(declaredLen) - espCommonHeaderWidth + 5
	if remaining < 0 {
		remaining = 0
	}
	body := make([]byte, remaining)
	if remaining > 0 {
		if err := recvExact(t.conn, body); err != nil {
			return nil, harnesserr.NewTransportError("read", err)
		}
	}
	return append(header, body...), nil
}

func isTimeoutErr(err error) bool {
	type timeouter interface{ Timeout() bool }
	te, ok := err.(timeouter)
	return ok && te.Timeout()
}
