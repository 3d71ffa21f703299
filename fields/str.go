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

package fields

import (
	"strings"

	"github.com/ForrestLi/auto-test-poc/harnesserr"
)

// FixedAscii is a plain fixed-width ASCII field with no padding and no
// null sentinel — used for reserved/constant regions of a layer header
// (e.g. ESPCommon's trailing Reserved(1) byte).
type FixedAscii struct {
	N int
}

func (c FixedAscii) Encode(v string) ([]byte, error) {
	if len(v) != c.N {
		return nil, harnesserr.NewCodecError("FixedAscii", "value length does not match field width")
	}
	return []byte(v), nil
}

func (c FixedAscii) Decode(b []byte) (string, error) {
	if len(b) != c.N {
		return "", harnesserr.NewCodecError("FixedAscii", "frame shorter than declared field width")
	}
	return string(b), nil
}

// RPadStr right-pads a string with Pad to N bytes; decode right-strips
// Pad. A decoded value equal to Undef round-trips to null.
type RPadStr struct {
	N    int
	Pad  byte
	Undef string
}

func NewRPadStr(n int) RPadStr { return RPadStr{N: n, Pad: ' '} }

func (c RPadStr) Encode(v Option[string]) ([]byte, error) {
	s, ok := v.Get()
	if !ok {
		s = c.Undef
	}
	if len(s) > c.N {
		return nil, harnesserr.NewCodecError("RPadStr", "value longer than field width")
	}
	out := make([]byte, c.N)
	copy(out, s)
	for i := len(s); i < c.N; i++ {
		out[i] = c.Pad
	}
	return out, nil
}

func (c RPadStr) Decode(b []byte) (Option[string], error) {
	if len(b) != c.N {
		return Option[string]{}, harnesserr.NewCodecError("RPadStr", "frame shorter than declared field width")
	}
	s := strings.TrimRight(string(b), string(c.Pad))
	if s == c.Undef {
		return None[string](), nil
	}
	return Some(s), nil
}

// LPadStr left-pads a string with Pad to N bytes; decode left-strips
// Pad. A decoded value equal to Undef round-trips to null.
type LPadStr struct {
	N     int
	Pad   byte
	Undef string
}

func NewLPadStr(n int) LPadStr { return LPadStr{N: n, Pad: ' '} }

func (c LPadStr) Encode(v Option[string]) ([]byte, error) {
	s, ok := v.Get()
	if !ok {
		s = c.Undef
	}
	if len(s) > c.N {
		return nil, harnesserr.NewCodecError("LPadStr", "value longer than field width")
	}
	out := make([]byte, c.N)
	pad := c.N - len(s)
	for i := 0; i < pad; i++ {
		out[i] = c.Pad
	}
	copy(out[pad:], s)
	return out, nil
}

func (c LPadStr) Decode(b []byte) (Option[string], error) {
	if len(b) != c.N {
		return Option[string]{}, harnesserr.NewCodecError("LPadStr", "frame shorter than declared field width")
	}
	s := strings.TrimLeft(string(b), string(c.Pad))
	if s == c.Undef {
		return None[string](), nil
	}
	return Some(s), nil
}

// CharEnum encodes/decodes a single character checked against a fixed
// enumeration of valid codes.
type CharEnum struct {
	Codes map[string]string // code -> label, informational only
}

func (c CharEnum) Encode(code string) ([]byte, error) {
	if len(code) != 1 {
		return nil, harnesserr.NewCodecError("CharEnum", "code must be exactly one character")
	}
	if _, ok := c.Codes[code]; !ok {
		return nil, harnesserr.NewCodecError("CharEnum", "code not in enumeration: "+code)
	}
	return []byte(code), nil
}

func (c CharEnum) Decode(b []byte) (string, error) {
	if len(b) != 1 {
		return "", harnesserr.NewCodecError("CharEnum", "frame shorter than declared field width")
	}
	code := string(b)
	if _, ok := c.Codes[code]; !ok {
		return "", harnesserr.NewCodecError("CharEnum", "code not in enumeration: "+code)
	}
	return code, nil
}
