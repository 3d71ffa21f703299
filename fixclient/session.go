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

// Package fixclient is the order-entry FIX 4.4 session client: a
// sender/receiver worker pair over net.Conn, built directly on fixmsg
// rather than github.com/quickfixgo/quickfix (the core session client
// stays free of that dependency; see checker/fixinterop for the one
// place it is legitimately wired in). The shape mirrors espclient's
// Session — bounded send queue, idle heartbeat synthesis, a receive
// queue with handler-chain fallback — adapted from fixmsg framing
// instead of ESP's self-sizing header.
package fixclient

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/ForrestLi/auto-test-poc/constants"
	"github.com/ForrestLi/auto-test-poc/fixmsg"
	"github.com/ForrestLi/auto-test-poc/harnesserr"
)

// Config carries the session-level identity fields every outbound
// message's header is stamped with.
type Config struct {
	SenderCompID      string
	TargetCompID      string
	BeginString       string
	HeartBtInt        int
	SendQueueDepth    int
	RecvQueueDepth    int
	HeartbeatInterval time.Duration
}

// Handler inspects a decoded inbound message and reports whether it
// consumed it (stopping the chain).
type Handler func(*fixmsg.Message) bool

// Session is a single FIX 4.4 order-entry connection.
type Session struct {
	cfg  Config
	conn net.Conn

	handlers  []Handler
	sendQueue chan *fixmsg.Message
	recvQueue chan *fixmsg.Message

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu                sync.Mutex
	outSeq            int64
	lastRcvdSeqNo     int64
	heartbeatsEnabled bool
	lastSendTime      time.Time
}

func New(cfg Config) *Session {
	if cfg.SendQueueDepth == 0 {
		cfg.SendQueueDepth = 256
	}
	if cfg.RecvQueueDepth == 0 {
		cfg.RecvQueueDepth = 256
	}
	if cfg.BeginString == "" {
		cfg.BeginString = "FIX.4.4"
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		cfg:       cfg,
		sendQueue: make(chan *fixmsg.Message, cfg.SendQueueDepth),
		recvQueue: make(chan *fixmsg.Message, cfg.RecvQueueDepth),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (s *Session) AddHandler(h Handler) {
	s.handlers = append(s.handlers, h)
}

// Attach starts the sender/receiver workers over an already-connected
// net.Conn. Unlike espclient, the order-entry FIX endpoint in this
// harness is dialed once by the caller (stress.Run's Dialer, for
// instance), since spec.md's connect/retry algorithm is defined for
// ESP, not FIX.
func (s *Session) Attach(conn net.Conn) {
	s.conn = conn
	s.wg.Add(2)
	go s.senderLoop()
	go s.receiverLoop()
}

func (s *Session) Shutdown() {
	s.cancel()
	if s.conn != nil {
		_ = s.conn.Close()
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(4 * time.Second):
	}
}

func (s *Session) nextSeqNo() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outSeq++
	return s.outSeq
}

// stamp fills in BeginString/SenderCompID/TargetCompID/MsgSeqNum/
// SendingTime, each only when absent, on an outbound message the
// caller has already set MsgType(35) on, per spec.md §4.D's
// header-defaulting list.
func (s *Session) stamp(m *fixmsg.Message) {
	fill := func(tag int, value func() string) {
		if _, ok := m.Get(tag); !ok {
			m.Set(tag, value())
		}
	}
	fill(constants.TagBeginString, func() string { return s.cfg.BeginString })
	fill(49, func() string { return s.cfg.SenderCompID })
	fill(constants.TagTargetCompID, func() string { return s.cfg.TargetCompID })
	fill(constants.TagMsgSeqNum, func() string { return strconv.FormatInt(s.nextSeqNo(), 10) })
	fill(constants.TagSendingTime, func() string { return time.Now().UTC().Format("20060102-15:04:05.000") })
}

// Enqueue stamps and queues m for sending; blocks if the send queue is
// full.
func (s *Session) Enqueue(m *fixmsg.Message) {
	s.stamp(m)
	s.sendQueue <- m
}

// Recv pops the next dispatched-but-unhandled message, or times out.
func (s *Session) Recv(timeout time.Duration) (*fixmsg.Message, error) {
	select {
	case m := <-s.recvQueue:
		return m, nil
	case <-time.After(timeout):
		return nil, harnesserr.NewTimeout("fixclient.Recv")
	case <-s.ctx.Done():
		return nil, harnesserr.NewTransportError("recv", s.ctx.Err())
	}
}

func (s *Session) senderLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case m := <-s.sendQueue:
			if err := s.writeFrame(m); err != nil {
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

func (s *Session) writeFrame(m *fixmsg.Message) error {
	frame, err := m.Encode()
	if err != nil {
		return err
	}
	for written := 0; written < len(frame); {
		n, err := s.conn.Write(frame[written:])
		if err != nil {
			return harnesserr.NewTransportError("write", err)
		}
		written += n
	}
	s.mu.Lock()
	s.lastSendTime = time.Now()
	s.mu.Unlock()
	return nil
}

func (s *Session) newHeartbeat() *fixmsg.Message {
	m := fixmsg.New()
	m.Set(constants.TagMsgType, "0")
	s.stamp(m)
	return m
}

// receiverLoop reads a stream of bytes off the connection, resyncing
// via fixmsg.FindFrame (mirroring ESP's Trailing-remainder model) and
// dispatching each fully decoded frame.
func (s *Session) receiverLoop() {
	defer s.wg.Done()
	buf := make([]byte, 0, 4096)
	tmp := make([]byte, 4096)
	for {
		for {
			frame, discard, found := fixmsg.FindFrame(buf)
			if discard > 0 {
				buf = buf[discard:]
				continue
			}
			if !found {
				break
			}
			buf = buf[len(frame):]
			m, err := fixmsg.Decode(frame)
			if err != nil {
				continue
			}
			s.updateCounters(m)
			s.dispatch(m)
		}
		n, err := s.conn.Read(tmp)
		if err != nil {
			return
		}
		buf = append(buf, tmp[:n]...)
	}
}

func (s *Session) updateCounters(m *fixmsg.Message) {
	if seq, ok := m.GetInt(constants.TagMsgSeqNum); ok {
		s.mu.Lock()
		s.lastRcvdSeqNo = seq
		s.mu.Unlock()
	}
}

func (s *Session) dispatch(m *fixmsg.Message) {
	if m.MsgType() == "0" {
		return
	}
	for _, h := range s.handlers {
		if h(m) {
			return
		}
	}
	select {
	case s.recvQueue <- m:
	default:
	}
}

// Logon sends MsgType=A with HeartBtInt and blocks until the peer's
// logon response arrives.
func (s *Session) Logon(timeout time.Duration) error {
	m := fixmsg.New()
	m.Set(constants.TagMsgType, "A")
	m.Set(constants.TagHeartBtInt, strconv.Itoa(s.cfg.HeartBtInt))
	s.Enqueue(m)

	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return harnesserr.NewTimeout("fixclient.Logon")
		}
		resp, err := s.Recv(remaining)
		if err != nil {
			return err
		}
		if resp.MsgType() == "A" {
			s.mu.Lock()
			s.heartbeatsEnabled = true
			s.mu.Unlock()
			return nil
		}
	}
}

// Logout sends MsgType=5 and blocks until the peer's logout response.
func (s *Session) Logout(timeout time.Duration) error {
	m := fixmsg.New()
	m.Set(constants.TagMsgType, "5")
	s.Enqueue(m)

	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return harnesserr.NewTimeout("fixclient.Logout")
		}
		resp, err := s.Recv(remaining)
		if err != nil {
			return err
		}
		if resp.MsgType() == "5" {
			return nil
		}
	}
}
