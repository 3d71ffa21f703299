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
	"io"
	"strings"
	"time"

	"github.com/ForrestLi/auto-test-poc/esp"
)

// senderLoop drains the bounded send queue with a 1-second wait;
// idle past the heartbeat interval with heartbeats enabled synthesizes
// one. Each frame is serialized via esp.Build and written with a
// full-write retry loop.
func (s *Session) senderLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case l := <-s.sendQueue:
			if err := s.writeFrame(l); err != nil {
				return
			}
		case <-time.After(1 * time.Second):
			s.mu.Lock()
			enabled := s.heartbeatsEnabled
			idle := time.Since(s.lastSendTime)
			s.mu.Unlock()
			if enabled && idle >= s.cfg.HeartbeatInterval {
				if err := s.writeFrame(s.newHeartbeat()); err != nil {
					return
				}
			}
		}
	}
}

func (s *Session) writeFrame(l *esp.Layer) error {
	frame, err := esp.Build(l)
	if err != nil {
		return err
	}
	for written := 0; written < len(frame); {
		n, err := s.conn.Write(frame[written:])
		if err != nil {
			if isWouldBlock(err) {
				continue
			}
			return err
		}
		written += n
	}
	s.mu.Lock()
	s.lastSendTime = time.Now()
	s.mu.Unlock()
	return nil
}

func isWouldBlock(err error) bool {
	return strings.Contains(err.Error(), "would block") || strings.Contains(err.Error(), "temporarily unavailable")
}

// espCommonHeaderWidth is the fixed byte width of every ESPCommon
// frame's header, independent of what it binds to beneath it.
var espCommonHeaderWidth = esp.ESPCommon.Width()

// receiverLoop reads full ESPCommon-framed messages off the
// connection, updates session counters from every frame, dispatches
// to registered handlers, and falls back to the receive queue.
// Cancelling the session's context closes the connection, which
// unblocks the in-flight Read — this is the idiomatic Go replacement
// for the self-pipe poll() pattern spec.md describes.
func (s *Session) receiverLoop() {
	defer s.wg.Done()
	for {
		header := make([]byte, espCommonHeaderWidth)
		if err := recvExact(s.conn, header); err != nil {
			return
		}
		layer, err := esp.ParseHeader(esp.ESPCommon, header)
		if err != nil {
			continue
		}
		declaredLen, _ := optInt64(layer.Values["MessageLength"])
		remaining := int(declaredLen) - espCommonHeaderWidth + 5
		if remaining < 0 {
			remaining = 0
		}
		body := make([]byte, remaining)
		if remaining > 0 {
			if err := recvExact(s.conn, body); err != nil {
				return
			}
		}

		full, err := esp.Parse(esp.ESPCommon, append(header, body...))
		if err != nil {
			continue
		}
		s.updateCounters(full)
		s.dispatch(full)
	}
}

func recvExact(r io.Reader, buf []byte) error {
	_, err := io.ReadFull(r, buf)
	return err
}

func (s *Session) updateCounters(l *esp.Layer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := optInt64(l.Values["SeqNo"]); ok {
		s.lastRcvdSeqNo = v
	}
	if v, ok := optInt64(l.Values["ARMSN"]); ok {
		s.lastRcvdARMSN = v
	}
	if v, ok := optInt64(l.Values["SAMSN"]); ok {
		s.lastRcvdSAMSN = v
	}

	notice := l.Get("NoticeCommonO")
	if notice == nil {
		notice = l.Get("NoticeCommonQ")
	}
	if notice == nil {
		notice = l.Get("NoticeCommonD")
	}
	if notice == nil || notice.Child == nil {
		return
	}
	name := notice.Child.Schema.Name
	if strings.HasSuffix(name, "AcceptanceNotice") || strings.HasSuffix(name, "AcceptanceError") {
		s.lastRcvdNoticeSeqNo++
	} else {
		s.lastRcvdExecutionSeqNo++
	}
}

// optInt64 type-asserts a decoded field value to fields.Option[int64]
// without importing the fields package's concrete type directly into
// every call site.
func optInt64(v any) (int64, bool) {
	type getter interface{ Get() (int64, bool) }
	g, ok := v.(getter)
	if !ok {
		return 0, false
	}
	return g.Get()
}

func (s *Session) dispatch(l *esp.Layer) {
	if s.handleHeartbeats && l.Has("Heartbeat") {
		return
	}
	for _, h := range s.handlers {
		if h(l) {
			return
		}
	}
	select {
	case s.recvQueue <- l:
	default:
	}
}
