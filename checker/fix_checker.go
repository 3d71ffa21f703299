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
	"time"

	"github.com/ForrestLi/auto-test-poc/checker/fixinterop"
	"github.com/ForrestLi/auto-test-poc/constants"
	"github.com/ForrestLi/auto-test-poc/fixmsg"
	"github.com/ForrestLi/auto-test-poc/harnesserr"
	"github.com/ForrestLi/auto-test-poc/order"
)

// fixSideCodes is spec.md §4.F's FIX side map: B->1, S->2, SS->5
// (sell short), SSE->6 (sell short exempt).
var fixSideCodes = map[string]string{
	"B":   constants.SideBuy,
	"S":   constants.SideSell,
	"SS":  constants.SideSellShort,
	"SSE": constants.SideSellShortExempt,
}

// FIXChecker drives Orders against a FIX 4.4 session.
type FIXChecker struct {
	*GenericChecker
	seq int64
}

func NewFIXChecker(conn Transport) *FIXChecker {
	return &FIXChecker{GenericChecker: NewGenericChecker(conn)}
}

func (c *FIXChecker) nextClOrdID(base string) string {
	c.seq++
	return base + "ORD" + strconv.FormatInt(c.seq, 10)
}

// NewOrder builds and sends a NewOrderSingle (35=D), dropping any tag
// whose value is null (no price on a market order, for instance).
func (c *FIXChecker) NewOrder(o *order.Order, k order.Kwargs) error {
	k = k.Normalize()
	side, ok := fixSideCodes[o.Side]
	if !ok {
		return harnesserr.NewProtocolError("unknown FIX side", o.Side)
	}
	if o.ClOrdID() == "" {
		_ = o.Ordering(order.Kwargs{"clOrdID": c.nextClOrdID(o.Security)})
	}

	m := fixmsg.New()
	m.Set(constants.TagBeginString, "FIX.4.4")
	m.Set(constants.TagMsgType, constants.MsgTypeNewOrderSingle)
	m.Set(constants.TagClOrdID, o.ClOrdID())
	m.Set(constants.TagSymbol, o.Security)
	m.Set(constants.TagSide, side)
	m.SetInt(constants.TagOrderQty, o.OrderQty())
	if price := o.OrderPrice(); !price.Null {
		m.Set(constants.TagPrice, formatPrice(price.Float()))
	}
	frame, err := m.Encode()
	if err != nil {
		return err
	}
	return c.Conn.Send(frame)
}

// awaitExecutionReport receives and decodes the next ExecutionReport
// (35=8), rejecting anything else as a protocol error. Every inbound
// frame is cross-validated against github.com/quickfixgo/quickfix's
// own parser before fixmsg trusts it, catching any frame fixmsg would
// accept but a reference FIX engine would not.
func (c *FIXChecker) awaitExecutionReport(timeout time.Duration) (*fixmsg.Message, error) {
	raw, err := c.Conn.Recv(timeout)
	if err != nil {
		return nil, err
	}
	if err := fixinterop.CrossValidate(raw); err != nil {
		return nil, err
	}
	m, err := fixmsg.Decode(raw)
	if err != nil {
		return nil, err
	}
	if m.MsgType() != constants.MsgTypeExecutionReport {
		return nil, harnesserr.NewProtocolError("expected ExecutionReport (35=8)", m.MsgType())
	}
	return m, nil
}

// execQty extracts the fill quantity, accepting either the legacy
// LastShares (tag 32) or LastQty (tag 29) key per spec.md §9's dual
// acceptance resolution.
func execQty(m *fixmsg.Message) (string, bool) {
	if v, ok := m.Get(constants.TagLastShares); ok {
		return v, ok
	}
	return m.Get(constants.TagLastQty)
}

// assertTags compares each (tag, expected) pair against m, skipping
// any pair whose expected value is nil.
func assertTags(m *fixmsg.Message, checks map[int]any) error {
	for tag, expected := range checks {
		if expected == nil {
			continue
		}
		actual, _ := m.Get(tag)
		if err := assertField(strconv.Itoa(tag), expected, actual); err != nil {
			return err
		}
	}
	return nil
}

// Ordered awaits the acknowledging ExecutionReport (OrdStatus=NEW) and
// validates {11, 37?, 55, 54, 38, 44?, 39, 150}. Tag 37 is checked only
// when an expected orderID2 is known (from k, else from the order).
func (c *FIXChecker) Ordered(o *order.Order, k order.Kwargs, timeout time.Duration) error {
	k = k.Normalize()
	m, err := c.awaitExecutionReport(timeout)
	if err != nil {
		return err
	}
	side := fixSideCodes[o.Side]
	var price any
	if pv := o.OrderPrice(); !pv.Null {
		price = formatPrice(pv.Float())
	}
	var orderID any
	if v, ok := k["orderID2"].(string); ok {
		orderID = v
	} else if o.OrderID2 != "" {
		orderID = o.OrderID2
	}
	if err := assertTags(m, map[int]any{
		constants.TagClOrdID:  o.ClOrdID(),
		constants.TagOrderID:  orderID,
		constants.TagSymbol:   o.Security,
		constants.TagSide:     side,
		constants.TagOrderQty: strconv.FormatInt(o.OrderQty(), 10),
		constants.TagPrice:    price,
		constants.TagOrdStatus: constants.OrdStatusNew,
		constants.TagExecType:  constants.ExecTypeNew,
	}); err != nil {
		return err
	}
	if orderID, ok := m.Get(constants.TagOrderID); ok {
		o.OrderID2 = orderID
	}
	return o.Ordered(k)
}

// Reject awaits a rejecting ExecutionReport (OrdStatus=REJECTED).
func (c *FIXChecker) Reject(timeout time.Duration) error {
	m, err := c.awaitExecutionReport(timeout)
	if err != nil {
		return err
	}
	return assertTags(m, map[int]any{
		constants.TagOrdStatus: constants.OrdStatusRejected,
		constants.TagExecType:  constants.ExecTypeRejected,
	})
}

// Fill invokes the exchange simulator then awaits and validates the
// resulting ExecutionReport, accepting either LastShares or LastQty as
// the fill-quantity tag.
func (c *FIXChecker) Fill(o *order.Order, sim ExchangeSimulator, execQtyWant int64, execPrice float64, timeout time.Duration) error {
	if err := sim.Fill(o.OrderID2, execQtyWant, execPrice); err != nil {
		return err
	}
	m, err := c.awaitExecutionReport(timeout)
	if err != nil {
		return err
	}
	gotQty, ok := execQty(m)
	if !ok {
		return harnesserr.NewValidationFailure("32/29", execQtyWant, nil)
	}
	if err := assertField("32/29", strconv.FormatInt(execQtyWant, 10), gotQty); err != nil {
		return err
	}
	wantStatus := constants.OrdStatusPartiallyFilled
	wantExecType := constants.ExecTypePartialFill
	if execQtyWant+o.ExecQty >= o.OrderQty() {
		wantStatus = constants.OrdStatusFilled
		wantExecType = constants.ExecTypeFilled
	}
	if err := assertTags(m, map[int]any{
		constants.TagOrdStatus: wantStatus,
		constants.TagExecType:  wantExecType,
	}); err != nil {
		return err
	}
	return o.Fill(order.Kwargs{"execQty": execQtyWant})
}

func formatPrice(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
