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

// Package espclient implements the ESP session client of spec.md
// §4.C: connect with bounded retry/back-off, a sender worker driving a
// bounded outbound queue with heartbeat synthesis, a receiver worker
// decoding framed ESPCommon messages and dispatching them to handlers,
// the login/admin_start/op_start/logout handshakes, and session
// counters updated from every received frame.
//
// The original protocol describes a self-pipe used to break a poll()
// call out of its wait on shutdown; this client uses the idiomatic Go
// equivalent instead — a context.Context whose cancellation closes the
// underlying connection, which unblocks any in-flight Read.
package espclient

import (
	"context"
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/ForrestLi/auto-test-poc/esp"
	"github.com/ForrestLi/auto-test-poc/fields"
	"github.com/ForrestLi/auto-test-poc/harnesserr"
)

// Config is the session's immutable-after-construction configuration.
type Config struct {
	LocalAddr                string
	RemoteAddr               string
	ParticipantCode          string
	VirtualServerNo          string
	InternalProcessingPrefix string
	ExchangeCode             string
	MarketCode               string
	HeartbeatInterval        time.Duration
	SendQueueDepth           int
	RecvQueueDepth           int
}

// Handler inspects a decoded frame and reports whether it consumed the
// message (true) or whether it should fall through to the receive
// queue (false). Handlers run in registration order; the first one
// returning true wins.
type Handler func(*esp.Layer) bool

// Session is one connected ESP session.
type Session struct {
	cfg      Config
	conn     net.Conn
	handlers []Handler

	sendQueue chan *esp.Layer
	recvQueue chan *esp.Layer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu                     sync.Mutex
	lastSentSeqNo          int64
	lastRcvdSeqNo          int64
	lastRcvdARMSN          int64
	lastRcvdSAMSN          int64
	lastRcvdNoticeSeqNo    int64
	lastRcvdExecutionSeqNo int64
	heartbeatsEnabled      bool
	lastSendTime           time.Time

	handleHeartbeats bool
}

func New(cfg Config) *Session {
	if cfg.SendQueueDepth <= 0 {
		cfg.SendQueueDepth = 256
	}
	if cfg.RecvQueueDepth <= 0 {
		cfg.RecvQueueDepth = 256
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		cfg:              cfg,
		sendQueue:        make(chan *esp.Layer, cfg.SendQueueDepth),
		recvQueue:        make(chan *esp.Layer, cfg.RecvQueueDepth),
		ctx:              ctx,
		cancel:           cancel,
		handleHeartbeats: true,
	}
}

// AddHandler registers a handler at the end of the dispatch chain.
func (s *Session) AddHandler(h Handler) {
	s.handlers = append(s.handlers, h)
}

const (
	connectAttempts = 13
	connectBackoff  = 10 * time.Second
)

// Connect binds LocalAddr (SO_REUSEADDR, SO_LINGER(on, 0)) and dials
// RemoteAddr, retrying up to 13 times with a 10-second back-off when
// the failure is specifically "address already in use"; any other
// dial error aborts immediately. On success it starts the sender and
// receiver workers.
func (s *Session) Connect() error {
	dialer := &net.Dialer{
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1)
				if sockErr != nil {
					return
				}
				sockErr = syscall.SetsockoptLinger(int(fd), syscall.SOL_SOCKET, syscall.SO_LINGER, &syscall.Linger{Onoff: 1, Linger: 0})
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}
	if s.cfg.LocalAddr != "" {
		local, err := net.ResolveTCPAddr("tcp", s.cfg.LocalAddr)
		if err != nil {
			return harnesserr.NewTransportError("resolve local addr", err)
		}
		dialer.LocalAddr = local
	}

	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		conn, err := dialer.DialContext(s.ctx, "tcp", s.cfg.RemoteAddr)
		if err == nil {
			s.conn = conn
			s.wg.Add(2)
			go s.senderLoop()
			go s.receiverLoop()
			return nil
		}
		lastErr = err
		if !isAddrInUse(err) {
			return harnesserr.NewTransportError("connect", err)
		}
		select {
		case <-time.After(connectBackoff):
		case <-s.ctx.Done():
			return harnesserr.NewTransportError("connect", s.ctx.Err())
		}
	}
	return harnesserr.NewTransportError("connect", lastErr)
}

func isAddrInUse(err error) bool {
	var sysErr syscall.Errno
	for unwrapped := err; unwrapped != nil; {
		if errno, ok := unwrapped.(syscall.Errno); ok {
			sysErr = errno
			break
		}
		u, ok := unwrapped.(interface{ Unwrap() error })
		if !ok {
			break
		}
		unwrapped = u.Unwrap()
	}
	return sysErr == syscall.EADDRINUSE
}

// Shutdown signals both workers, closes the connection, and waits up
// to 4 seconds in total for both of them to exit.
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

// Enqueue stamps l's ESPCommon.SeqNo (spec.md §4.B: sender-defaulted
// to last_sent_seq_no+1 if null, then committed) and places it on the
// bounded send queue.
func (s *Session) Enqueue(l *esp.Layer) {
	s.stampSeqNo(l)
	select {
	case s.sendQueue <- l:
	case <-s.ctx.Done():
	}
}

// stampSeqNo fills ESPCommon.SeqNo with last_sent_seq_no+1 when absent
// and commits the new value, mirroring fixclient/session.go's stamp()
// for MsgSeqNum. Every outgoing envelope goes through either Enqueue
// or newHeartbeat, so this is the single place the counter advances.
func (s *Session) stampSeqNo(l *esp.Layer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := optInt64(l.Values["SeqNo"]); !ok {
		s.lastSentSeqNo++
		l.Values["SeqNo"] = fields.Some(s.lastSentSeqNo)
	}
}

// Recv blocks up to timeout for the next handler-unconsumed frame.
func (s *Session) Recv(timeout time.Duration) (*esp.Layer, error) {
	select {
	case l := <-s.recvQueue:
		return l, nil
	case <-time.After(timeout):
		return nil, harnesserr.NewTimeout("espclient.Recv")
	case <-s.ctx.Done():
		return nil, harnesserr.NewTransportError("recv", s.ctx.Err())
	}
}

func (s *Session) counters() (seqNo, armSN, samSN, noticeSeqNo, execSeqNo int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRcvdSeqNo, s.lastRcvdARMSN, s.lastRcvdSAMSN, s.lastRcvdNoticeSeqNo, s.lastRcvdExecutionSeqNo
}

func (s *Session) newHeartbeat() *esp.Layer {
	l := esp.NewLayer(esp.ESPCommon)
	l.Values["MessageType"] = "05"
	l.Values["ResendFlag"] = "0"
	l.Values["ParticipantCode"] = fields.Some(s.cfg.ParticipantCode)
	l.Values["VirtualServerNo"] = fields.Some(s.cfg.VirtualServerNo)
	l.Values["TransmissionDate"] = fields.None[time.Time]()
	l.Values["TransmissionTime"] = fields.None[time.Duration]()
	l.Values["Reserved"] = " "
	l.Child = esp.NewLayer(esp.Heartbeat)
	s.stampSeqNo(l)
	return l
}
