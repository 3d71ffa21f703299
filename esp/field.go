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

// Package esp implements the ESP fixed-width binary protocol: the
// declarative layer/binding model of spec.md §4.B and the concrete
// layer catalogue of §6 (ESPCommon, OrderCommon/NoticeCommon/AdminCommon,
// and the order/notice/admin payloads bound beneath them).
package esp

import (
	"time"

	"github.com/ForrestLi/auto-test-poc/fields"
	"github.com/ForrestLi/auto-test-poc/harnesserr"
)

// Field is the uniform, type-erased view of a fields.* codec that the
// layer engine needs: a static byte width plus encode/decode against
// `any`. Each fields.* codec is adapted to it below rather than the
// engine depending on generics directly, since a LayerSchema's field
// list mixes codecs of different value types.
type Field interface {
	Width() int
	Encode(v any) ([]byte, error)
	Decode(b []byte) (any, error)
}

type fixedAsciiField struct{ c fields.FixedAscii }

func FixedAscii(n int) Field { return fixedAsciiField{fields.FixedAscii{N: n}} }
func (f fixedAsciiField) Width() int { return f.c.N }
func (f fixedAsciiField) Encode(v any) ([]byte, error) {
	s, _ := v.(string)
	return f.c.Encode(s)
}
func (f fixedAsciiField) Decode(b []byte) (any, error) { return f.c.Decode(b) }

type rPadStrField struct{ c fields.RPadStr }

func RPadStr(n int) Field { return rPadStrField{fields.RPadStr{N: n, Pad: ' '}} }
func RPadStrUndef(n int, undef string) Field {
	return rPadStrField{fields.RPadStr{N: n, Pad: ' ', Undef: undef}}
}
func (f rPadStrField) Width() int { return f.c.N }
func (f rPadStrField) Encode(v any) ([]byte, error) {
	opt, _ := v.(fields.Option[string])
	return f.c.Encode(opt)
}
func (f rPadStrField) Decode(b []byte) (any, error) { return f.c.Decode(b) }

type lPadStrField struct{ c fields.LPadStr }

func LPadStr(n int) Field { return lPadStrField{fields.LPadStr{N: n, Pad: ' '}} }
func (f lPadStrField) Width() int { return f.c.N }
func (f lPadStrField) Encode(v any) ([]byte, error) {
	opt, _ := v.(fields.Option[string])
	return f.c.Encode(opt)
}
func (f lPadStrField) Decode(b []byte) (any, error) { return f.c.Decode(b) }

type lPadIntField struct{ c fields.LPadInt }

func LPadInt(n int) Field     { return lPadIntField{fields.NewLPadInt(n)} }
func ZeroPadInt(n int) Field  { return lPadIntField{fields.NewZeroPadInt(n)} }
func (f lPadIntField) Width() int { return f.c.N }
func (f lPadIntField) Encode(v any) ([]byte, error) {
	opt, _ := v.(fields.Option[int64])
	return f.c.Encode(opt)
}
func (f lPadIntField) Decode(b []byte) (any, error) { return f.c.Decode(b) }

type priceField struct{ c fields.PriceCodec }

func Price(intDigits, decDigits int) Field {
	return priceField{fields.PriceCodec{IntDigits: intDigits, DecDigits: decDigits}}
}
func (f priceField) Width() int { return f.c.Width() }
func (f priceField) Encode(v any) ([]byte, error) {
	pv, _ := v.(fields.PriceValue)
	return f.c.Encode(pv)
}
func (f priceField) Decode(b []byte) (any, error) { return f.c.Decode(b) }

type date8Field struct{ c fields.Date8 }

func Date8() Field { return date8Field{} }
func (f date8Field) Width() int { return 8 }
func (f date8Field) Encode(v any) ([]byte, error) {
	opt, _ := v.(fields.Option[time.Time])
	return f.c.Encode(opt)
}
func (f date8Field) Decode(b []byte) (any, error) { return f.c.Decode(b) }

type time9Field struct{ c fields.Time9 }

func Time9() Field { return time9Field{} }
func (f time9Field) Width() int { return 9 }
func (f time9Field) Encode(v any) ([]byte, error) {
	opt, _ := v.(fields.Option[time.Duration])
	return f.c.Encode(opt)
}
func (f time9Field) Decode(b []byte) (any, error) { return f.c.Decode(b) }

type time12Field struct{ c fields.Time12 }

func Time12() Field { return time12Field{} }
func (f time12Field) Width() int { return 12 }
func (f time12Field) Encode(v any) ([]byte, error) {
	opt, _ := v.(fields.Option[time.Duration])
	return f.c.Encode(opt)
}
func (f time12Field) Decode(b []byte) (any, error) { return f.c.Decode(b) }

type charEnumField struct{ c fields.CharEnum }

func CharEnum(codes map[string]string) Field { return charEnumField{fields.CharEnum{Codes: codes}} }
func (f charEnumField) Width() int { return 1 }
func (f charEnumField) Encode(v any) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, harnesserr.NewCodecError("CharEnum", "expected string value")
	}
	return f.c.Encode(s)
}
func (f charEnumField) Decode(b []byte) (any, error) { return f.c.Decode(b) }
