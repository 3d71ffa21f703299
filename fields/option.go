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

// Package fields implements the fixed-width ASCII field codecs: the
// primitive encode/decode units that every ESP packet layer and
// FIX tag value is built from.
package fields

// Option is a nullable value. The zero Option is null — every Field
// kind maps null to a well-known sentinel on the wire (all-spaces for
// strings, all-zero/space for ints and prices) rather than using a
// pointer or an error to represent absence.
type Option[T any] struct {
	Value T
	Valid bool
}

func Some[T any](v T) Option[T] { return Option[T]{Value: v, Valid: true} }

func None[T any]() Option[T] { return Option[T]{} }

func (o Option[T]) Get() (T, bool) { return o.Value, o.Valid }

func (o Option[T]) OrElse(def T) T {
	if o.Valid {
		return o.Value
	}
	return def
}
