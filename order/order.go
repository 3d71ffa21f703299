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

package order

import (
	"github.com/ForrestLi/auto-test-poc/fields"
	"github.com/ForrestLi/auto-test-poc/harnesserr"
)

// Status is the order lifecycle state of spec.md §4.E.
type Status string

const (
	StatusNew    Status = "new"
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Side is the protocol-agnostic B/S vocabulary an Order is created
// with; ESPChecker and FIXChecker each translate it into their own
// wire-level side code (spec.md §4.F).
const (
	SideBuy  = "B"
	SideSell = "S"
)

// attrs holds the four modifiable attributes: the ones spec.md §3
// says live on the modification-history stack rather than directly on
// the Order. Every push_modify duplicates the current top; every
// pop_modify discards or rebases entries relative to it.
type attrs struct {
	OrderQty    int64
	OrderPrice  fields.PriceValue
	ClOrdID     string
	TimeInForce string
}

// Order is a single working order and its modification history.
// Non-modifiable identity and fill state live directly on the struct;
// the four modifiable attributes (order quantity, order price,
// ClOrdID, time in force) live on history, a stack whose bottom
// (index 0) is the oldest committed value and whose top (last index)
// is the most recently proposed, still-pending value.
type Order struct {
	Security    string
	Side        string
	ExecQty     int64
	ExecQtyDK   bool // true if execQty was reported "don't know" at new_order
	DestClOrdID string
	OrderID2    string
	ClientID    string
	AccountID   string
	Status      Status

	history []attrs
}

func New() *Order {
	return &Order{Status: StatusNew, history: []attrs{{}}}
}

func (o *Order) top() *attrs {
	return &o.history[len(o.history)-1]
}

// OrderQty is the current (top-of-history) order quantity.
func (o *Order) OrderQty() int64 { return o.top().OrderQty }

// OrderPrice is the current (top-of-history) order price.
func (o *Order) OrderPrice() fields.PriceValue { return o.top().OrderPrice }

// ClOrdID is the current (top-of-history) client order ID.
func (o *Order) ClOrdID() string { return o.top().ClOrdID }

// TimeInForce is the current (top-of-history) time in force.
func (o *Order) TimeInForce() string { return o.top().TimeInForce }

// OpenQty is orderQty - execQty floored at zero, or zero once closed.
func (o *Order) OpenQty() int64 {
	if o.Status == StatusClosed {
		return 0
	}
	q := o.OrderQty() - o.ExecQty
	if q < 0 {
		return 0
	}
	return q
}

// Pending reports whether a modify/cancel is currently awaiting an
// exchange response (history holds more than just the committed base).
func (o *Order) Pending() bool {
	return len(o.history) > 1
}

// pushModify duplicates the current top and appends it, opening a new
// pending slot that the caller then mutates in place (spec.md §3's
// push_modify()).
func (o *Order) pushModify() {
	o.history = append(o.history, *o.top())
}

// popModify resolves the oldest pending entry (history[1]).
//
// restore=false ("accepted"): the oldest committed value (history[0])
// is dropped; the oldest pending entry becomes the new base. The
// queue moves one step forward.
//
// restore=true ("rejected"): the oldest pending entry is discarded.
// For the numeric attributes (order quantity, order price), the diff
// it would have introduced (pending - base) is subtracted from every
// later pending entry still in the history, so any modification
// proposed while this one was in flight keeps its value relative to
// the reverted baseline. The non-numeric attributes need no such
// rebase: index 0 (the base) was never touched, so dropping the
// rejected entry alone restores it at the front.
func (o *Order) popModify(restore bool) error {
	if len(o.history) < 2 {
		return harnesserr.NewProtocolError("pop_modify called with no pending modification", nil)
	}
	if !restore {
		o.history = o.history[1:]
		return nil
	}

	base := o.history[0]
	rejected := o.history[1]
	remaining := append([]attrs{base}, o.history[2:]...)

	qtyDiff := rejected.OrderQty - base.OrderQty
	var priceDiff fields.PriceValue
	havePriceDiff := !base.OrderPrice.Null && !rejected.OrderPrice.Null
	if havePriceDiff {
		priceDiff = fields.NewPrice(rejected.OrderPrice.Float()-base.OrderPrice.Float(), base.OrderPrice.DecDigits)
	}

	for i := 1; i < len(remaining); i++ {
		remaining[i].OrderQty -= qtyDiff
		if havePriceDiff && !remaining[i].OrderPrice.Null {
			remaining[i].OrderPrice = fields.NewPrice(remaining[i].OrderPrice.Float()-priceDiff.Float(), remaining[i].OrderPrice.DecDigits)
		}
	}
	o.history = remaining
	return nil
}

// NewOrder is the new_order transition: valid only in StatusNew. It
// seeds identity, the initial modifiable attributes, and optionally
// marks execQty as "don't know" (dk) rather than a definite zero.
func (o *Order) NewOrder(k Kwargs) error {
	if o.Status != StatusNew {
		return harnesserr.NewProtocolError("new_order requires status=new", o.Status)
	}
	k = k.Normalize()

	o.Security, _ = k.str("security")
	o.Side, _ = k.str("side")
	o.DestClOrdID, _ = k.str("destClOrdID")
	o.OrderID2, _ = k.str("orderID2")
	o.ClientID, _ = k.str("clientID")
	o.AccountID, _ = k.str("accountID")
	o.ExecQtyDK = k.boolean("dk")

	top := o.top()
	if qty, ok := k.i64("orderQty"); ok {
		top.OrderQty = qty
	}
	if price, ok := k["orderPrice"].(fields.PriceValue); ok {
		top.OrderPrice = price
	}
	if clOrdID, ok := k.str("clOrdID"); ok {
		top.ClOrdID = clOrdID
	}
	if tif, ok := k.str("timeInForce"); ok {
		top.TimeInForce = tif
	}
	return nil
}

// applyPatch overwrites any of the four modifiable attributes present
// in k onto the current top, without changing Status. Used by
// ordering/modifying/canceling, the "acknowledge a pending request
// without resolving it" transitions.
func (o *Order) applyPatch(k Kwargs) {
	top := o.top()
	if qty, ok := k.i64("orderQty"); ok {
		top.OrderQty = qty
	}
	if price, ok := k["orderPrice"].(fields.PriceValue); ok {
		top.OrderPrice = price
	}
	if clOrdID, ok := k.str("clOrdID"); ok {
		top.ClOrdID = clOrdID
	}
	if tif, ok := k.str("timeInForce"); ok {
		top.TimeInForce = tif
	}
	if destClOrdID, ok := k.str("destClOrdID"); ok {
		o.DestClOrdID = destClOrdID
	}
	if orderID2, ok := k.str("orderID2"); ok {
		o.OrderID2 = orderID2
	}
}

// Ordering acknowledges a new-order request still in flight: valid in
// new or open, patches fields without changing Status.
func (o *Order) Ordering(k Kwargs) error {
	if o.Status != StatusNew && o.Status != StatusOpen {
		return harnesserr.NewProtocolError("ordering requires status in {new, open}", o.Status)
	}
	o.applyPatch(k.Normalize())
	return nil
}

// Ordered transitions new->open and applies any accompanying patch.
func (o *Order) Ordered(k Kwargs) error {
	if o.Status != StatusNew {
		return harnesserr.NewProtocolError("ordered requires status=new", o.Status)
	}
	o.Status = StatusOpen
	o.applyPatch(k.Normalize())
	return nil
}

// Reject transitions new->closed: the exchange refused the new order.
func (o *Order) Reject() error {
	if o.Status != StatusNew {
		return harnesserr.NewProtocolError("reject requires status=new", o.Status)
	}
	o.Status = StatusClosed
	return nil
}

// Modify pushes a new pending entry and applies either an absolute
// quantity/price or a delta (dOrderQty/dOrderPrice), clamped so the
// resulting quantity never drops the open quantity below zero.
func (o *Order) Modify(k Kwargs) error {
	if o.Status != StatusOpen {
		return harnesserr.NewProtocolError("modify requires status=open", o.Status)
	}
	k = k.Normalize()
	o.pushModify()
	top := o.top()

	if qty, ok := k.i64("orderQty"); ok {
		if qty < 0 {
			qty = 0
		}
		top.OrderQty = qty
	} else if dQty, ok := k.i64("dOrderQty"); ok {
		floor := -o.OpenQty()
		if dQty < floor {
			dQty = floor
		}
		top.OrderQty += dQty
	}

	if price, ok := k["orderPrice"].(fields.PriceValue); ok {
		top.OrderPrice = price
	} else if dPrice, ok := k["dOrderPrice"].(fields.PriceValue); ok && !top.OrderPrice.Null {
		top.OrderPrice = fields.NewPrice(top.OrderPrice.Float()+dPrice.Float(), top.OrderPrice.DecDigits)
	}

	if clOrdID, ok := k.str("clOrdID"); ok {
		top.ClOrdID = clOrdID
	}
	if tif, ok := k.str("timeInForce"); ok {
		top.TimeInForce = tif
	}
	return nil
}

// Modifying acknowledges a pending modify without resolving it.
func (o *Order) Modifying(k Kwargs) error {
	if !o.Pending() {
		return harnesserr.NewProtocolError("modifying requires a pending modification", nil)
	}
	o.applyPatch(k.Normalize())
	return nil
}

// Modified accepts the pending modify; closes the order if it leaves
// no open quantity.
func (o *Order) Modified() error {
	if err := o.popModify(false); err != nil {
		return err
	}
	if o.OpenQty() <= 0 {
		o.Status = StatusClosed
	}
	return nil
}

// ModReject rejects the pending modify, restoring the prior state.
func (o *Order) ModReject() error {
	return o.popModify(true)
}

// Cancel pushes a pending entry for a cancel request; callers may
// overwrite ClOrdID/DestClOrdID via k as the exchange protocol
// requires a fresh ID pair per cancel attempt.
func (o *Order) Cancel(k Kwargs) error {
	if o.Status != StatusOpen {
		return harnesserr.NewProtocolError("cancel requires status=open", o.Status)
	}
	k = k.Normalize()
	o.pushModify()
	if clOrdID, ok := k.str("clOrdID"); ok {
		o.top().ClOrdID = clOrdID
	}
	if destClOrdID, ok := k.str("destClOrdID"); ok {
		o.DestClOrdID = destClOrdID
	}
	return nil
}

// Canceling acknowledges a pending cancel without resolving it.
func (o *Order) Canceling(k Kwargs) error {
	if !o.Pending() {
		return harnesserr.NewProtocolError("canceling requires a pending cancel", nil)
	}
	o.applyPatch(k.Normalize())
	return nil
}

// Canceled accepts the pending cancel and closes the order.
func (o *Order) Canceled(k Kwargs) error {
	if err := o.popModify(false); err != nil {
		return err
	}
	o.applyPatch(k.Normalize())
	o.Status = StatusClosed
	return nil
}

// CxlReject rejects the pending cancel, restoring the prior state.
func (o *Order) CxlReject() error {
	return o.popModify(true)
}

// Expire transitions open->closed: the order's time in force lapsed.
func (o *Order) Expire() error {
	if o.Status != StatusOpen {
		return harnesserr.NewProtocolError("expire requires status=open", o.Status)
	}
	o.Status = StatusClosed
	return nil
}

// DFD ("done for day") is the same transition as Expire under a
// different exchange-assigned name.
func (o *Order) DFD() error {
	return o.Expire()
}

// Fill applies an execution of x shares at execPrice; orderQty is
// raised to match execQty if the fill exceeds what was on the book
// (the exchange's view of quantity wins), and the order closes once
// no open quantity remains.
func (o *Order) Fill(k Kwargs) error {
	if o.Status != StatusOpen {
		return harnesserr.NewProtocolError("fill requires status=open", o.Status)
	}
	k = k.Normalize()
	x, _ := k.i64("execQty")
	o.ExecQty += x
	o.ExecQtyDK = false
	if o.OrderQty() < o.ExecQty {
		o.top().OrderQty = o.ExecQty
	}
	if o.OpenQty() <= 0 {
		o.Status = StatusClosed
	}
	return nil
}

// Bust reverses x shares of a previous fill; reopens the order if that
// leaves open quantity again.
func (o *Order) Bust(k Kwargs) error {
	if o.Status != StatusOpen && o.Status != StatusClosed {
		return harnesserr.NewProtocolError("bust requires status in {open, closed}", o.Status)
	}
	k = k.Normalize()
	x, _ := k.i64("execQty")
	o.ExecQty -= x
	if o.OrderQty()-o.ExecQty > 0 {
		o.Status = StatusOpen
	}
	return nil
}
