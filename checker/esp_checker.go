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

package checker

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ForrestLi/auto-test-poc/esp"
	"github.com/ForrestLi/auto-test-poc/espclient"
	"github.com/ForrestLi/auto-test-poc/fields"
	"github.com/ForrestLi/auto-test-poc/harnesserr"
	"github.com/ForrestLi/auto-test-poc/order"
)

// espSideCodes maps the checker's B/S vocabulary onto the wire Side
// codes ("3" = buy, "1" = sell is how the exchange enumerates the Side
// field of NewOrder and NewOrderAcceptanceNotice; see
// esp/catalogue.go's sideCodes).
var espSideCodes = map[string]string{
	order.SideBuy:  "3",
	order.SideSell: "1",
}

// ESPChecker drives Orders against an ESP session. Policy selects how
// the default InternalProcessing value used on a new order is
// composed: PolicyClOrdID (the default) derives it from the checker's
// own clOrdID; PolicyDestClOrdID (the "raw" subclass of spec.md §4.F)
// derives it from destClOrdID instead.
//
// NewOrder/Ordered/Fill talk to conn as a raw Transport rather than an
// espclient.Session: the checker harness drives ESPCheckers directly
// over fakeTransport in unit tests (see checker_test.go), which a
// Session-shaped dependency would preclude. cfg carries the same
// identity fields espclient.Config does, and the counter/defaulting
// logic below is a deliberate, documented duplicate of
// espclient.Session's stampSeqNo/counters — see DESIGN.md.
type ESPChecker struct {
	*GenericChecker
	Policy          InternalProcessingPolicy
	ExchangeCode    string
	MarketCode      string
	ParticipantCode string
	VirtualServerNo string

	mu              sync.Mutex
	orderEntrySeqNo int64
	espSeqNo        int64
	lastRcvdARMSN   int64
	lastRcvdSAMSN   int64
}

type InternalProcessingPolicy int

const (
	PolicyClOrdID InternalProcessingPolicy = iota
	PolicyDestClOrdID
)

func NewESPChecker(conn Transport, cfg espclient.Config) *ESPChecker {
	return &ESPChecker{
		GenericChecker:  NewGenericChecker(conn),
		Policy:          PolicyClOrdID,
		ExchangeCode:    cfg.ExchangeCode,
		MarketCode:      cfg.MarketCode,
		ParticipantCode: cfg.ParticipantCode,
		VirtualServerNo: cfg.VirtualServerNo,
	}
}

// nextOrderEntrySeqNo advances the OrderEntrySeqNo counter on every
// NewOrder call, unconditionally — unlike the clOrdID it seeds, which
// only applies when the order doesn't already carry one.
func (c *ESPChecker) nextOrderEntrySeqNo() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orderEntrySeqNo++
	return c.orderEntrySeqNo
}

// nextSeqNo advances ESPCommon.SeqNo, mirroring
// espclient.Session.stampSeqNo's last_sent_seq_no+1 algorithm
// (spec.md §4.B) for the raw-Transport send path. It is a distinct
// counter from OrderEntrySeqNo: the two must not be conflated.
func (c *ESPChecker) nextSeqNo() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.espSeqNo++
	return c.espSeqNo
}

// lastRcvdCounters returns the ARMSN/SAMSN last observed on an inbound
// frame, for stamping onto the next outgoing envelope — mirroring
// espclient.Session.counters().
func (c *ESPChecker) lastRcvdCounters() (armsn, samsn int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRcvdARMSN, c.lastRcvdSAMSN
}

// recordCounters updates lastRcvdARMSN/lastRcvdSAMSN from an inbound
// ESPCommon envelope.
func (c *ESPChecker) recordCounters(l *esp.Layer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := optInt64Field(l.Values["ARMSN"]); ok {
		c.lastRcvdARMSN = v
	}
	if v, ok := optInt64Field(l.Values["SAMSN"]); ok {
		c.lastRcvdSAMSN = v
	}
}

// optInt64Field unwraps the fields.Option[int64] shape used for
// LPadInt-backed values.
func optInt64Field(raw any) (int64, bool) {
	opt, ok := raw.(fields.Option[int64])
	if !ok {
		return 0, false
	}
	return opt.Get()
}

// clOrdIDFor composes VirtualServerNo||seqNo, the latter zero-padded
// to 8 digits, as spec.md §4.F specifies for the default clOrdID.
func (c *ESPChecker) clOrdIDFor(seqNo int64) string {
	seqStr := strconv.FormatInt(seqNo, 10)
	for len(seqStr) < 8 {
		seqStr = "0" + seqStr
	}
	return c.VirtualServerNo + seqStr
}

// expectedInternalProcessing resolves the checker's InternalProcessing
// policy: explicit kwargs always win, else fall back to clOrdID or
// destClOrdID depending on Policy.
func (c *ESPChecker) expectedInternalProcessing(k order.Kwargs, o *order.Order) string {
	if v, ok := k["internalProcessing"].(string); ok {
		return v
	}
	if c.Policy == PolicyDestClOrdID {
		return o.DestClOrdID
	}
	return o.ClOrdID()
}

// NewOrder builds and sends a NewOrder ESP frame for o, deriving
// InternalProcessing, IssueCode, Side, OrderQuantity and OrderPrice
// from the order's current state (any of k may override).
func (c *ESPChecker) NewOrder(o *order.Order, k order.Kwargs) error {
	k = k.Normalize()
	entrySeqNo := c.nextOrderEntrySeqNo()
	if o.ClOrdID() == "" {
		_ = o.Ordering(order.Kwargs{"clOrdID": c.clOrdIDFor(entrySeqNo)})
	}

	side, ok := espSideCodes[o.Side]
	if !ok {
		return harnesserr.NewProtocolError("unknown ESP side", o.Side)
	}

	newOrder := esp.NewLayer(esp.NewOrder)
	newOrder.Values["Reserved1"] = "  "
	newOrder.Values["Optional"] = "0000"
	newOrder.Values["Reserved2"] = strings.Repeat(" ", 19)
	newOrder.Values["InternalProcessing"] = fields.Some(c.expectedInternalProcessing(k, o))
	newOrder.Values["IssueCode"] = fields.Some(o.Security)
	newOrder.Values["Side"] = side
	newOrder.Values["OrderQuantity"] = fields.Some(o.OrderQty())
	newOrder.Values["OrderPrice"] = o.OrderPrice()

	orderCommon := esp.NewLayer(esp.OrderCommonO)
	orderCommon.Values["DataCode"] = "1111"
	orderCommon.Values["ExchangeCode"] = fields.Some(c.ExchangeCode)
	orderCommon.Values["MarketCode"] = fields.Some(c.MarketCode)
	orderCommon.Values["ParticipantCode"] = fields.Some(c.ParticipantCode)
	orderCommon.Values["VirtualServerNo"] = fields.Some(c.VirtualServerNo)
	orderCommon.Values["OrderEntrySeqNo"] = fields.Some(entrySeqNo)
	orderCommon.Child = newOrder

	armsn, samsn := c.lastRcvdCounters()
	espCommon := esp.NewLayer(esp.ESPCommon)
	espCommon.Values["MessageType"] = "40"
	espCommon.Values["SeqNo"] = fields.Some(c.nextSeqNo())
	espCommon.Values["ResendFlag"] = "0"
	espCommon.Values["ParticipantCode"] = fields.Some(c.ParticipantCode)
	espCommon.Values["VirtualServerNo"] = fields.Some(c.VirtualServerNo)
	espCommon.Values["ARMSN"] = fields.Some(armsn)
	espCommon.Values["SAMSN"] = fields.Some(samsn)
	espCommon.Values["TransmissionDate"] = fields.None[time.Time]()
	espCommon.Values["TransmissionTime"] = fields.None[time.Duration]()
	espCommon.Values["Reserved"] = " "
	espCommon.Child = orderCommon

	frame, err := esp.Build(espCommon)
	if err != nil {
		return err
	}
	return c.Conn.Send(frame)
}

// Ordered awaits a NewOrderAcceptanceNotice and validates it against
// expected field values, recording OrderAcceptanceNo as the order's
// orderID2.
func (c *ESPChecker) Ordered(o *order.Order, k order.Kwargs, timeout time.Duration) error {
	k = k.Normalize()
	raw, err := c.Conn.Recv(timeout)
	if err != nil {
		return err
	}
	layer, err := esp.Parse(esp.ESPCommon, raw)
	if err != nil {
		return err
	}
	c.recordCounters(layer)
	notice := layer.Get("NewOrderAcceptanceNotice")
	if notice == nil {
		return harnesserr.NewProtocolError("expected NewOrderAcceptanceNotice", layer)
	}

	expectedInternal := c.expectedInternalProcessing(k, o)
	checks := []struct {
		field    string
		expected any
	}{
		{"InternalProcessing", expectedInternal},
		{"IssueCode", o.Security},
		{"Side", espSideCodes[o.Side]},
		{"OrderQuantity", o.OrderQty()},
	}
	for _, ck := range checks {
		if err := assertESPField(notice, ck.field, ck.expected); err != nil {
			return err
		}
	}

	if acceptanceNo, ok := notice.Values["OrderAcceptanceNo"].(fields.Option[string]); ok {
		if v, present := acceptanceNo.Get(); present {
			o.OrderID2 = v
		}
	}
	return o.Ordered(k)
}

// Fill invokes the exchange simulator then awaits and validates the
// resulting ExecutionCompletionNotice.
func (c *ESPChecker) Fill(o *order.Order, sim ExchangeSimulator, execQty int64, execPrice float64, timeout time.Duration) error {
	if err := sim.Fill(o.OrderID2, execQty, execPrice); err != nil {
		return err
	}
	raw, err := c.Conn.Recv(timeout)
	if err != nil {
		return err
	}
	layer, err := esp.Parse(esp.ESPCommon, raw)
	if err != nil {
		return err
	}
	c.recordCounters(layer)
	notice := layer.Get("ExecutionCompletionNotice")
	if notice == nil {
		return harnesserr.NewProtocolError("expected ExecutionCompletionNotice", layer)
	}
	return o.Fill(order.Kwargs{"execQty": execQty})
}

// assertESPField pulls a field out of a decoded layer's Values,
// unwrapping the common Option[string]/Option[int64] shapes, and
// compares it against expected.
func assertESPField(l *esp.Layer, field string, expected any) error {
	raw, ok := l.Values[field]
	if !ok {
		return harnesserr.NewValidationFailure(field, expected, nil)
	}
	var actual any
	switch v := raw.(type) {
	case fields.Option[string]:
		actual, _ = v.Get()
	case fields.Option[int64]:
		actual, _ = v.Get()
	case fields.PriceValue:
		actual = v.Float()
	default:
		actual = raw
	}
	return assertField(field, expected, actual)
}
