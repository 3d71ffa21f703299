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

// Package fixinterop is the one place github.com/quickfixgo/quickfix
// is wired into this module. spec.md §1 scopes quickfix out of the
// core session client — fixmsg is hand-rolled — but the checker
// harness can optionally cross-validate a hand-rolled frame against
// quickfix's own FIX parser before trusting an assertion on it,
// catching a divergence between the two codecs rather than a real
// exchange bug. This mirrors how fixclient/fixapp.go (the teacher)
// hands every inbound byte stream to quickfix.Message for parsing.
package fixinterop

import (
	"bufio"
	"bytes"

	"github.com/quickfixgo/quickfix"

	"github.com/ForrestLi/auto-test-poc/fixmsg"
	"github.com/ForrestLi/auto-test-poc/harnesserr"
)

// CrossValidate parses raw with both fixmsg.Decode and quickfix's own
// message parser and fails if quickfix cannot parse it or the two
// disagree on MsgType (tag 35); no other tag is compared. This is a
// consistency check between two independent codecs, not an additional
// protocol validation.
func CrossValidate(raw []byte) error {
	ours, err := fixmsg.Decode(raw)
	if err != nil {
		return err
	}

	qfMsg := quickfix.NewMessage()
	if err := quickfix.ParseMessage(qfMsg, bufio.NewReader(bytes.NewReader(raw))); err != nil {
		return harnesserr.NewProtocolError("quickfix failed to parse a frame fixmsg accepted", err)
	}

	qfMsgType, err := qfMsg.Header.GetString(quickfix.Tag(35))
	if err != nil {
		return harnesserr.NewProtocolError("quickfix frame missing MsgType", err)
	}
	if qfMsgType != ours.MsgType() {
		return harnesserr.NewValidationFailure("35", ours.MsgType(), qfMsgType)
	}
	return nil
}
