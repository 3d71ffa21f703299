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
	"time"

	"github.com/ForrestLi/auto-test-poc/harnesserr"
)

// Date8 encodes YYYYMMDD; an all-space frame decodes to null.
type Date8 struct{}

func (Date8) Encode(v Option[time.Time]) ([]byte, error) {
	t, ok := v.Get()
	if !ok {
		return []byte("        "), nil
	}
	return []byte(t.Format("20060102")), nil
}

func (Date8) Decode(b []byte) (Option[time.Time], error) {
	if len(b) != 8 {
		return Option[time.Time]{}, harnesserr.NewCodecError("Date8", "frame shorter than declared field width")
	}
	if strings.TrimSpace(string(b)) == "" {
		return None[time.Time](), nil
	}
	t, err := time.Parse("20060102", string(b))
	if err != nil {
		return Option[time.Time]{}, harnesserr.NewCodecError("Date8", "malformed date")
	}
	return Some(t), nil
}

// Time9 encodes HHMMSSmmm (milliseconds); an all-space frame decodes
// to null. Sub-millisecond precision is truncated, never rounded.
type Time9 struct{}

func (Time9) Encode(v Option[time.Duration]) ([]byte, error) {
	d, ok := v.Get()
	if !ok {
		return []byte("         "), nil
	}
	return []byte(formatClock(d, 3)), nil
}

func (Time9) Decode(b []byte) (Option[time.Duration], error) {
	if len(b) != 9 {
		return Option[time.Duration]{}, harnesserr.NewCodecError("Time9", "frame shorter than declared field width")
	}
	if strings.TrimSpace(string(b)) == "" {
		return None[time.Duration](), nil
	}
	d, err := parseClock(string(b), 3)
	if err != nil {
		return Option[time.Duration]{}, err
	}
	return Some(d), nil
}

// Time12 encodes HHMMSSmmmmmm (microseconds); an all-space frame
// decodes to null.
type Time12 struct{}

func (Time12) Encode(v Option[time.Duration]) ([]byte, error) {
	d, ok := v.Get()
	if !ok {
		return []byte("            "), nil
	}
	return []byte(formatClock(d, 6)), nil
}

func (Time12) Decode(b []byte) (Option[time.Duration], error) {
	if len(b) != 12 {
		return Option[time.Duration]{}, harnesserr.NewCodecError("Time12", "frame shorter than declared field width")
	}
	if strings.TrimSpace(string(b)) == "" {
		return None[time.Duration](), nil
	}
	d, err := parseClock(string(b), 6)
	if err != nil {
		return Option[time.Duration]{}, err
	}
	return Some(d), nil
}

// formatClock renders a duration-since-midnight as HHMMSS followed by
// fracDigits of sub-second precision, truncating (not rounding) any
// precision beyond fracDigits.
func formatClock(d time.Duration, fracDigits int) string {
	if d < 0 {
		d = 0
	}
	total := d
	hh := total / time.Hour
	total -= hh * time.Hour
	mm := total / time.Minute
	total -= mm * time.Minute
	ss := total / time.Second
	total -= ss * time.Second

	var frac int64
	switch fracDigits {
	case 3:
		frac = int64(total / time.Millisecond)
	case 6:
		frac = int64(total / time.Microsecond)
	}

	buf := make([]byte, 0, 6+fracDigits)
	buf = appendPad2(buf, int(hh))
	buf = appendPad2(buf, int(mm))
	buf = appendPad2(buf, int(ss))
	buf = appendPadN(buf, frac, fracDigits)
	return string(buf)
}

func parseClock(s string, fracDigits int) (time.Duration, error) {
	if len(s) != 6+fracDigits {
		return 0, harnesserr.NewCodecError("Time", "malformed clock value")
	}
	hh, err1 := atoi2(s[0:2])
	mm, err2 := atoi2(s[2:4])
	ss, err3 := atoi2(s[4:6])
	frac, err4 := atoiN(s[6:], fracDigits)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return 0, harnesserr.NewCodecError("Time", "non-digit byte in clock field")
	}
	d := time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute + time.Duration(ss)*time.Second
	switch fracDigits {
	case 3:
		d += time.Duration(frac) * time.Millisecond
	case 6:
		d += time.Duration(frac) * time.Microsecond
	}
	return d, nil
}

func appendPad2(buf []byte, v int) []byte {
	return append(buf, byte('0'+(v/10)%10), byte('0'+v%10))
}

func appendPadN(buf []byte, v int64, n int) []byte {
	digits := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		digits[i] = byte('0' + v%10)
		v /= 10
	}
	return append(buf, digits...)
}

func atoi2(s string) (int, error) {
	if len(s) != 2 || s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, harnesserr.NewCodecError("Time", "non-digit byte")
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), nil
}

func atoiN(s string, n int) (int, error) {
	if len(s) != n {
		return 0, harnesserr.NewCodecError("Time", "non-digit byte")
	}
	v := 0
	for i := 0; i < n; i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, harnesserr.NewCodecError("Time", "non-digit byte")
		}
		v = v*10 + int(s[i]-'0')
	}
	return v, nil
}
