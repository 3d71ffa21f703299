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
	"math"
	"strconv"
	"strings"

	"github.com/ForrestLi/auto-test-poc/harnesserr"
)

// LPadInt is a base-10 integer left-padded with Pad (space by
// default) to N bytes. An all-blank frame decodes to null.
type LPadInt struct {
	N   int
	Pad byte
}

func NewLPadInt(n int) LPadInt { return LPadInt{N: n, Pad: ' '} }

func NewZeroPadInt(n int) LPadInt { return LPadInt{N: n, Pad: '0'} }

func (c LPadInt) Encode(v Option[int64]) ([]byte, error) {
	n, ok := v.Get()
	if !ok {
		out := make([]byte, c.N)
		for i := range out {
			out[i] = ' '
		}
		return out, nil
	}
	if n < 0 {
		return nil, harnesserr.NewCodecError("LPadInt", "negative values are not representable")
	}
	s := strconv.FormatInt(n, 10)
	if len(s) > c.N {
		return nil, harnesserr.NewCodecError("LPadInt", "value does not fit in field width")
	}
	out := make([]byte, c.N)
	pad := c.N - len(s)
	for i := 0; i < pad; i++ {
		out[i] = c.Pad
	}
	copy(out[pad:], s)
	return out, nil
}

func (c LPadInt) Decode(b []byte) (Option[int64], error) {
	if len(b) != c.N {
		return Option[int64]{}, harnesserr.NewCodecError("LPadInt", "frame shorter than declared field width")
	}
	s := strings.TrimLeft(strings.TrimLeft(string(b), " "), "\x00")
	if s == "" {
		return None[int64](), nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Option[int64]{}, harnesserr.NewCodecError("LPadInt", "non-digit byte in integer field")
	}
	return Some(n), nil
}

// Price encodes the fixed-point, zero-padded "market"-aware numeric
// field used throughout the ESP protocol (OrderPrice, ExecPrice, …).
//
// Width is IntDigits + DecDigits + 1: one extra leading character
// distinguishes a regular value (always left-padded with '0') from
// the literal "market" sentinel ('0' followed by blanks) and from
// null (all blanks). See spec.md §4.A.
type PriceCodec struct {
	IntDigits int
	DecDigits int
}

func (c PriceCodec) Width() int { return c.IntDigits + c.DecDigits + 1 }

// PriceValue is the decoded form of a Price field: either null, the
// literal "market" sentinel, or a scaled fixed-point number equal to
// Scaled / 10^DecDigits.
type PriceValue struct {
	Null     bool
	Market   bool
	Scaled   int64
	DecDigits int
}

func NullPrice() PriceValue { return PriceValue{Null: true} }

func MarketPrice() PriceValue { return PriceValue{Market: true} }

func NewPrice(x float64, decDigits int) PriceValue {
	scale := math.Pow10(decDigits)
	return PriceValue{Scaled: int64(math.Round(x * scale)), DecDigits: decDigits}
}

func (p PriceValue) Float() float64 {
	if p.Null || p.Market {
		return 0
	}
	return float64(p.Scaled) / math.Pow10(p.DecDigits)
}

func (c PriceCodec) Encode(v PriceValue) ([]byte, error) {
	w := c.Width()
	if v.Null {
		out := make([]byte, w)
		for i := range out {
			out[i] = ' '
		}
		return out, nil
	}
	if v.Market {
		out := make([]byte, w)
		out[0] = '0'
		for i := 1; i < w; i++ {
			out[i] = ' '
		}
		return out, nil
	}
	if v.Scaled < 0 {
		return nil, harnesserr.NewCodecError("Price", "negative prices are not representable")
	}
	s := strconv.FormatInt(v.Scaled, 10)
	if len(s) > w {
		return nil, harnesserr.NewCodecError("Price", "value does not fit in field width")
	}
	out := make([]byte, w)
	pad := w - len(s)
	for i := 0; i < pad; i++ {
		out[i] = '0'
	}
	copy(out[pad:], s)
	return out, nil
}

func (c PriceCodec) Decode(b []byte) (PriceValue, error) {
	w := c.Width()
	if len(b) != w {
		return PriceValue{}, harnesserr.NewCodecError("Price", "frame shorter than declared field width")
	}
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "" {
		return NullPrice(), nil
	}
	if b[0] == '0' && strings.TrimSpace(string(b[1:])) == "" {
		return MarketPrice(), nil
	}
	n, err := strconv.ParseInt(strings.TrimLeft(string(b), " "), 10, 64)
	if err != nil {
		return PriceValue{}, harnesserr.NewCodecError("Price", "non-digit byte in price field")
	}
	return PriceValue{Scaled: n, DecDigits: c.DecDigits}, nil
}
