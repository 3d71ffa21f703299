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

// Package fixmsg implements the FIX 4.4 tag=value codec of spec.md
// §4.D: an ordered tag->value map, SOH framing, BodyLength and
// CheckSum computation, and stream framing for partial reads.
//
// This codec is hand-rolled rather than built on
// github.com/quickfixgo/quickfix: spec.md §1 names "the third-party
// FIX library used in some tests" as an out-of-scope external
// collaborator, not a dependency of the core session client. See
// checker/fixinterop for the one place quickfix is legitimately wired
// in, as an optional cross-validation adapter.
package fixmsg

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ForrestLi/auto-test-poc/harnesserr"
)

const SOH = "\x01"

// Message is an ordered tag->value mapping. Tags 8, 9, and 10 are
// positional (BeginString first, BodyLength second, CheckSum last);
// every other tag is emitted sorted numerically in between.
type Message struct {
	fields map[int]string
	order  []int
}

func New() *Message {
	return &Message{fields: make(map[int]string)}
}

func (m *Message) Set(tag int, value string) *Message {
	if _, exists := m.fields[tag]; !exists {
		m.order = append(m.order, tag)
	}
	m.fields[tag] = value
	return m
}

func (m *Message) SetInt(tag int, value int64) *Message {
	return m.Set(tag, strconv.FormatInt(value, 10))
}

func (m *Message) Get(tag int) (string, bool) {
	v, ok := m.fields[tag]
	return v, ok
}

func (m *Message) GetInt(tag int) (int64, bool) {
	s, ok := m.Get(tag)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (m *Message) MsgType() string {
	t, _ := m.Get(35)
	return t
}

// Encode serializes the message: 8=…<SOH>, 9=<bodyLen><SOH>, every
// other tag sorted numerically joined by <SOH>, then <SOH>10=NNN<SOH>.
// BodyLength counts bytes between the end of 9=<bodyLen><SOH> and the
// start of 10=. CheckSum is the sum modulo 256 of all bytes before
// "10=", formatted as three zero-padded decimal digits.
func (m *Message) Encode() ([]byte, error) {
	begin, ok := m.Get(8)
	if !ok {
		return nil, harnesserr.NewCodecError("8", "BeginString is required")
	}

	var body strings.Builder
	others := make([]int, 0, len(m.order))
	for _, tag := range m.order {
		if tag == 8 || tag == 9 || tag == 10 {
			continue
		}
		others = append(others, tag)
	}
	sort.Ints(others)
	for _, tag := range others {
		body.WriteString(strconv.Itoa(tag))
		body.WriteByte('=')
		body.WriteString(m.fields[tag])
		body.WriteString(SOH)
	}

	bodyLen := body.Len()

	var head strings.Builder
	head.WriteString("8=")
	head.WriteString(begin)
	head.WriteString(SOH)
	head.WriteString("9=")
	head.WriteString(strconv.Itoa(bodyLen))
	head.WriteString(SOH)

	prefix := head.String() + body.String()
	checksum := computeChecksum([]byte(prefix))

	var out strings.Builder
	out.WriteString(prefix)
	out.WriteString("10=")
	out.WriteString(checksumStr(checksum))
	out.WriteString(SOH)
	return []byte(out.String()), nil
}

func computeChecksum(b []byte) int {
	sum := 0
	for _, c := range b {
		sum += int(c)
	}
	return sum % 256
}

func checksumStr(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}

// Decode splits a frame on SOH into k=v pairs. A trailing SOH is
// tolerated. Frames with no "10=" field, or whose checksum does not
// recompute, are rejected with a CodecError.
func Decode(frame []byte) (*Message, error) {
	s := strings.TrimSuffix(string(frame), SOH)
	parts := strings.Split(s, SOH)

	m := New()
	for _, p := range parts {
		if p == "" {
			continue
		}
		eq := strings.IndexByte(p, '=')
		if eq < 0 {
			return nil, harnesserr.NewCodecError("", "malformed tag=value pair: "+p)
		}
		tag, err := strconv.Atoi(p[:eq])
		if err != nil {
			return nil, harnesserr.NewCodecError("", "non-numeric tag: "+p[:eq])
		}
		m.Set(tag, p[eq+1:])
	}

	recvChecksum, ok := m.Get(10)
	if !ok {
		return nil, harnesserr.NewCodecError("10", "frame missing CheckSum")
	}

	idx := strings.LastIndex(s, SOH+"10=")
	if idx < 0 {
		return nil, harnesserr.NewCodecError("10", "frame missing CheckSum delimiter")
	}
	prefix := s[:idx+1]
	want := checksumStr(computeChecksum([]byte(prefix)))
	if want != recvChecksum {
		return nil, harnesserr.NewCodecError("10", "checksum mismatch: got "+recvChecksum+" want "+want)
	}

	return m, nil
}

// FindFrame scans buf for a complete FIX frame: the first "10=" tag
// followed by its terminating SOH. Returns the frame bytes (including
// the trailing SOH), the number of leading bytes to discard if buf did
// not start with "8=" (resynchronization), and whether a full frame
// was found at all.
func FindFrame(buf []byte) (frame []byte, discard int, found bool) {
	start := 0
	if !strings.HasPrefix(string(buf), "8=") {
		idx := strings.Index(string(buf), "8=")
		if idx < 0 {
			return nil, len(buf), false
		}
		start = idx
	}
	rest := buf[start:]
	tagIdx := strings.Index(string(rest), SOH+"10=")
	if tagIdx < 0 {
		return nil, start, false
	}
	sohIdx := strings.IndexByte(string(rest[tagIdx+1:]), '\x01')
	if sohIdx < 0 {
		return nil, start, false
	}
	end := tagIdx + 1 + sohIdx + 1
	return rest[:end], start, true
}
