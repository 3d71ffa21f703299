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

package stress

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/ForrestLi/auto-test-poc/fixmsg"
)

// fakeExchange logs onto the server side of a net.Pipe and echoes back
// a matching ExecutionReport for every NewOrderSingle it sees.
func fakeExchange(t *testing.T, conn net.Conn) {
	t.Helper()
	buf := make([]byte, 0, 4096)
	tmp := make([]byte, 4096)
	for {
		if frame, discard, found := fixmsg.FindFrame(buf); found {
			buf = buf[discard+len(frame):]
			m, err := fixmsg.Decode(frame)
			if err != nil {
				continue
			}
			switch m.MsgType() {
			case "A":
				resp := fixmsg.New()
				resp.Set(8, "FIX.4.4")
				resp.Set(35, "A")
				resp.Set(108, "30")
				out, _ := resp.Encode()
				if _, err := conn.Write(out); err != nil {
					return
				}
			case "D":
				clOrdID, _ := m.Get(11)
				resp := fixmsg.New()
				resp.Set(8, "FIX.4.4")
				resp.Set(35, "8")
				resp.Set(11, clOrdID)
				resp.Set(39, "0")
				out, _ := resp.Encode()
				if _, err := conn.Write(out); err != nil {
					return
				}
			}
			continue
		} else if discard > 0 {
			buf = buf[discard:]
			continue
		}
		n, err := conn.Read(tmp)
		if err != nil {
			return
		}
		buf = append(buf, tmp[:n]...)
	}
}

func TestRunAggregatesWorkerResultsAndLatency(t *testing.T) {
	const workers = 2
	const perWorker = 3

	var serverConns []net.Conn
	dial := func() (net.Conn, error) {
		client, server := net.Pipe()
		serverConns = append(serverConns, server)
		go fakeExchange(t, server)
		return client, nil
	}

	cfg := Config{
		Workers:           workers,
		MessagesPerWorker: perWorker,
		Symbol:            "AAPL",
		SenderCompID:      "CLIENT1",
		TargetCompID:      "EXCH1",
		SampleEvery:       1,
		Timeout:           2 * time.Second,
	}

	result := Run(context.Background(), dial, cfg)
	defer func() {
		for _, c := range serverConns {
			_ = c.Close()
		}
	}()

	if len(result.Workers) != workers {
		t.Fatalf("expected %d worker results, got %d", workers, len(result.Workers))
	}
	for i, w := range result.Workers {
		if w.Err != nil {
			t.Fatalf("worker %d failed: %v", i, w.Err)
		}
		if w.Count != perWorker {
			t.Fatalf("worker %d: expected %d sent, got %d", i, perWorker, w.Count)
		}
	}
}
