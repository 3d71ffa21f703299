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
	"time"

	"github.com/ForrestLi/auto-test-poc/esp"
	"github.com/ForrestLi/auto-test-poc/fields"
	"github.com/ForrestLi/auto-test-poc/harnesserr"
)

func (s *Session) espCommonEnvelope(messageType string) *esp.Layer {
	l := esp.NewLayer(esp.ESPCommon)
	l.Values["MessageType"] = messageType
	l.Values["ResendFlag"] = "0"
	l.Values["ParticipantCode"] = fields.Some(s.cfg.ParticipantCode)
	l.Values["VirtualServerNo"] = fields.Some(s.cfg.VirtualServerNo)
	l.Values["TransmissionDate"] = fields.None[time.Time]()
	l.Values["TransmissionTime"] = fields.None[time.Duration]()
	l.Values["Reserved"] = " "
	return l
}

// Login sends LoginRequest and blocks until a LoginResponse frame
// arrives, aligning lastSentSeqNo to the response's ARMSN and enabling
// heartbeats.
func (s *Session) Login(timeout time.Duration) error {
	req := s.espCommonEnvelope("01")
	req.Child = esp.NewLayer(esp.LoginRequest)
	req.Child.Values["ParticipantCode"] = fields.Some(s.cfg.ParticipantCode)
	req.Child.Values["VirtualServerNo"] = fields.Some(s.cfg.VirtualServerNo)
	s.Enqueue(req)

	resp, err := s.awaitLayer("LoginResponse", timeout)
	if err != nil {
		return err
	}
	armsn, _ := optInt64(resp.Values["ARMSN"])
	s.mu.Lock()
	s.lastSentSeqNo = armsn
	s.heartbeatsEnabled = true
	s.mu.Unlock()
	return nil
}

// AdminStart blocks until a MarketAdmin frame arrives.
func (s *Session) AdminStart(timeout time.Duration) error {
	_, err := s.awaitLayer("MarketAdmin", timeout)
	return err
}

// OpStart sends OpStart seeded from the current notice/execution
// sequence counters and blocks until OpStartResponse arrives;
// OpStartErrorResponse is treated as fatal.
func (s *Session) OpStart(timeout time.Duration) error {
	_, _, _, noticeSeqNo, execSeqNo := s.counters()

	payload := esp.NewLayer(esp.OpStart)
	payload.Values["AcceptanceSeqNo"] = fields.Some(noticeSeqNo)
	payload.Values["ExecutionSeqNo"] = fields.Some(execSeqNo)

	admin := esp.NewLayer(esp.AdminCommonOU)
	admin.Values["DataCode"] = "T101"
	admin.Values["ExchangeCode"] = fields.Some(s.cfg.ExchangeCode)
	admin.Values["MarketCode"] = fields.Some(s.cfg.MarketCode)
	admin.Values["ParticipantCode"] = fields.Some(s.cfg.ParticipantCode)
	admin.Values["VirtualServerNo"] = fields.Some(s.cfg.VirtualServerNo)
	admin.Child = payload

	req := s.espCommonEnvelope("80")
	req.Child = admin
	s.Enqueue(req)

	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return harnesserr.NewTimeout("espclient.OpStart")
		}
		l, err := s.Recv(remaining)
		if err != nil {
			return err
		}
		if l.Has("OpStartErrorResponse") {
			return harnesserr.NewProtocolError("OpStartErrorResponse received", l)
		}
		if l.Has("OpStartResponse") {
			return nil
		}
	}
}

// Logout runs the two-step PreLogoutRequest/PreLogoutResponse then
// LogoutRequest/LogoutResponse exchange.
func (s *Session) Logout(timeout time.Duration) error {
	pre := s.espCommonEnvelope("02")
	pre.Child = esp.NewLayer(esp.PreLogoutRequest)
	pre.Child.Values["Reserved"] = "    "
	s.Enqueue(pre)
	if _, err := s.awaitLayer("PreLogoutResponse", timeout); err != nil {
		return err
	}

	req := s.espCommonEnvelope("03")
	req.Child = esp.NewLayer(esp.LogoutRequest)
	req.Child.Values["Reserved"] = "    "
	s.Enqueue(req)
	if _, err := s.awaitLayer("LogoutResponse", timeout); err != nil {
		return err
	}
	return nil
}

// awaitLayer blocks until a frame containing a layer named name is
// received (handlers that would consume it must not be registered for
// handshake frames), or timeout elapses.
func (s *Session) awaitLayer(name string, timeout time.Duration) (*esp.Layer, error) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, harnesserr.NewTimeout("espclient.awaitLayer:" + name)
		}
		l, err := s.Recv(remaining)
		if err != nil {
			return nil, err
		}
		if found := l.Get(name); found != nil {
			return found, nil
		}
	}
}
