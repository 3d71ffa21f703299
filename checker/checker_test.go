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
	"testing"
	"time"

	"github.com/ForrestLi/auto-test-poc/constants"
	"github.com/ForrestLi/auto-test-poc/esp"
	"github.com/ForrestLi/auto-test-poc/espclient"
	"github.com/ForrestLi/auto-test-poc/fields"
	"github.com/ForrestLi/auto-test-poc/fixmsg"
	"github.com/ForrestLi/auto-test-poc/order"
)

var testESPConfig = espclient.Config{
	ExchangeCode:    "TK",
	MarketCode:      "01",
	ParticipantCode: "PART1",
	VirtualServerNo: "VS0001",
}

// fakeTransport is an in-memory Transport: Send appends to sent,
// Recv pops from a preloaded queue of frames.
type fakeTransport struct {
	sent  [][]byte
	queue [][]byte
}

func (f *fakeTransport) Send(frame []byte) error {
	f.sent = append(f.sent, append([]byte(nil), frame...))
	return nil
}

func (f *fakeTransport) Recv(timeout time.Duration) ([]byte, error) {
	if len(f.queue) == 0 {
		return nil, errTimeout
	}
	frame := f.queue[0]
	f.queue = f.queue[1:]
	return frame, nil
}

var errTimeout = &fixedErr{"no frame queued"}

type fixedErr struct{ s string }

func (e *fixedErr) Error() string { return e.s }

type fakeSimulator struct{ filled []int64 }

func (s *fakeSimulator) Fill(orderID string, execQty int64, execPrice float64) error {
	s.filled = append(s.filled, execQty)
	return nil
}

func TestFindOrderByIndexesOnSecurity(t *testing.T) {
	gc := NewGenericChecker(nil)
	a := order.New()
	_ = a.NewOrder(order.Kwargs{"security": "AAPL", "order_qty": int64(1)})
	b := order.New()
	_ = b.NewOrder(order.Kwargs{"security": "MSFT", "order_qty": int64(1)})
	gc.AddOrder(a)
	gc.AddOrder(b)

	got := gc.FindOrderBy("security", "AAPL")
	if len(got) != 1 || got[0] != a {
		t.Fatalf("expected exactly order a, got %v", got)
	}
}

func TestVerifyResetsIndexesAndDrainsQueue(t *testing.T) {
	tr := &fakeTransport{queue: [][]byte{[]byte("leftover")}}
	gc := NewGenericChecker(tr)
	o := order.New()
	_ = o.NewOrder(order.Kwargs{"security": "AAPL"})
	gc.AddOrder(o)
	_ = gc.FindOrderBy("security", "AAPL")

	if err := gc.Verify(); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if len(tr.queue) != 0 {
		t.Fatalf("expected verify to drain the queue, %d frames remain", len(tr.queue))
	}
}

func buildAcceptanceFrame(t *testing.T, internalProcessing string) []byte {
	t.Helper()

	notice := esp.NewLayer(esp.NewOrderAcceptanceNotice)
	notice.Values["InternalProcessing"] = fields.Some(internalProcessing)
	notice.Values["OrderAcceptanceNo"] = fields.Some("ACC00001")
	notice.Values["IssueCode"] = fields.Some("AAPL")
	notice.Values["Side"] = "1" // sell
	notice.Values["OrderQuantity"] = fields.Some(int64(100))
	notice.Values["OrderPrice"] = fields.NewPrice(101.25, 4)
	notice.Values["Reserved"] = fields.None[string]()

	noticeCommon := esp.NewLayer(esp.NoticeCommonO)
	noticeCommon.Values["DataCode"] = "A111"
	noticeCommon.Values["ExchangeCode"] = fields.Some("TK")
	noticeCommon.Values["MarketCode"] = fields.Some("01")
	noticeCommon.Values["ParticipantCode"] = fields.Some("PART1")
	noticeCommon.Values["VirtualServerNo"] = fields.Some("VS0001")
	noticeCommon.Values["OrderEntrySeqNo"] = fields.Some(int64(1))
	noticeCommon.Child = notice

	espCommon := esp.NewLayer(esp.ESPCommon)
	espCommon.Values["MessageType"] = "50"
	espCommon.Values["SeqNo"] = fields.Some(int64(1))
	espCommon.Values["ResendFlag"] = "0"
	espCommon.Values["ParticipantCode"] = fields.Some("PART1")
	espCommon.Values["VirtualServerNo"] = fields.Some("VS0001")
	espCommon.Values["ARMSN"] = fields.Some(int64(0))
	espCommon.Values["SAMSN"] = fields.Some(int64(0))
	espCommon.Values["NumberOfDataTransactions"] = fields.Some(int64(1))
	espCommon.Values["TransmissionDate"] = fields.None[time.Time]()
	espCommon.Values["TransmissionTime"] = fields.None[time.Duration]()
	espCommon.Values["Reserved"] = " "
	espCommon.Child = noticeCommon

	frame, err := esp.Build(espCommon)
	if err != nil {
		t.Fatalf("build acceptance frame: %v", err)
	}
	return frame
}

func TestESPCheckerNewOrderThenOrdered(t *testing.T) {
	tr := &fakeTransport{}
	c := NewESPChecker(tr, testESPConfig)

	o := order.New()
	_ = o.NewOrder(order.Kwargs{
		"security":    "AAPL",
		"side":        order.SideSell,
		"order_qty":   int64(100),
		"order_price": fields.NewPrice(101.25, 4),
	})

	if err := c.NewOrder(o, nil); err != nil {
		t.Fatalf("new_order: %v", err)
	}
	if len(tr.sent) != 1 {
		t.Fatalf("expected one frame sent, got %d", len(tr.sent))
	}

	tr.queue = [][]byte{buildAcceptanceFrame(t, o.ClOrdID())}
	if err := c.Ordered(o, nil, time.Second); err != nil {
		t.Fatalf("ordered: %v", err)
	}
	if o.Status != order.StatusOpen {
		t.Fatalf("got status %v, want open", o.Status)
	}
	if o.OrderID2 != "ACC00001" {
		t.Fatalf("got orderID2 %q, want ACC00001", o.OrderID2)
	}
}

func TestESPCheckerOrderedRejectsFieldMismatch(t *testing.T) {
	tr := &fakeTransport{}
	c := NewESPChecker(tr, testESPConfig)

	o := order.New()
	_ = o.NewOrder(order.Kwargs{
		"security":    "AAPL",
		"side":        order.SideSell,
		"order_qty":   int64(100),
		"order_price": fields.NewPrice(101.25, 4),
	})
	_ = c.NewOrder(o, nil)

	// Build an acceptance notice for a different clOrdID than the one
	// just sent; Ordered must reject it.
	tr.queue = [][]byte{buildAcceptanceFrame(t, "SOME-OTHER-ID")}
	if err := c.Ordered(o, nil, time.Second); err == nil {
		t.Fatalf("expected field mismatch to be rejected")
	}
}

// TestESPCheckerNewOrderStampsIdentityAndSeparatesCounters asserts the
// fix for the identity fields NewOrder previously left blank
// (ExchangeCode/MarketCode/ParticipantCode/VirtualServerNo, ARMSN/
// SAMSN) and for the OrderEntrySeqNo/SeqNo counter conflation: two
// NewOrder calls must carry OrderEntrySeqNo 1, 2 while SeqNo advances
// independently on its own counter.
func TestESPCheckerNewOrderStampsIdentityAndSeparatesCounters(t *testing.T) {
	tr := &fakeTransport{}
	c := NewESPChecker(tr, testESPConfig)

	for i := 0; i < 2; i++ {
		o := order.New()
		_ = o.NewOrder(order.Kwargs{
			"security":    "AAPL",
			"side":        order.SideSell,
			"order_qty":   int64(100),
			"order_price": fields.NewPrice(101.25, 4),
		})
		if err := c.NewOrder(o, nil); err != nil {
			t.Fatalf("new_order %d: %v", i, err)
		}
	}
	if len(tr.sent) != 2 {
		t.Fatalf("expected 2 frames sent, got %d", len(tr.sent))
	}

	for i, frame := range tr.sent {
		layer, err := esp.Parse(esp.ESPCommon, frame)
		if err != nil {
			t.Fatalf("parse sent frame %d: %v", i, err)
		}
		if got, _ := layer.Values["ParticipantCode"].(fields.Option[string]).Get(); got != "PART1" {
			t.Fatalf("frame %d: ESPCommon.ParticipantCode = %q, want PART1", i, got)
		}
		if got, _ := layer.Values["VirtualServerNo"].(fields.Option[string]).Get(); got != "VS0001" {
			t.Fatalf("frame %d: ESPCommon.VirtualServerNo = %q, want VS0001", i, got)
		}
		orderCommon := layer.Get("OrderCommonO")
		if orderCommon == nil {
			t.Fatalf("frame %d: OrderCommonO not found", i)
		}
		if got, _ := orderCommon.Values["ExchangeCode"].(fields.Option[string]).Get(); got != "TK" {
			t.Fatalf("frame %d: OrderCommonO.ExchangeCode = %q, want TK", i, got)
		}
		if got, _ := orderCommon.Values["MarketCode"].(fields.Option[string]).Get(); got != "01" {
			t.Fatalf("frame %d: OrderCommonO.MarketCode = %q, want 01", i, got)
		}
		if got, _ := orderCommon.Values["ParticipantCode"].(fields.Option[string]).Get(); got != "PART1" {
			t.Fatalf("frame %d: OrderCommonO.ParticipantCode = %q, want PART1", i, got)
		}
		wantEntrySeqNo := int64(i + 1)
		gotEntrySeqNo, _ := orderCommon.Values["OrderEntrySeqNo"].(fields.Option[int64]).Get()
		if gotEntrySeqNo != wantEntrySeqNo {
			t.Fatalf("frame %d: OrderEntrySeqNo = %d, want %d", i, gotEntrySeqNo, wantEntrySeqNo)
		}
		wantSeqNo := int64(i + 1)
		gotSeqNo, _ := layer.Values["SeqNo"].(fields.Option[int64]).Get()
		if gotSeqNo != wantSeqNo {
			t.Fatalf("frame %d: ESPCommon.SeqNo = %d, want %d", i, gotSeqNo, wantSeqNo)
		}
	}
}

func TestFIXCheckerNewOrderThenOrdered(t *testing.T) {
	tr := &fakeTransport{}
	c := NewFIXChecker(tr)

	o := order.New()
	_ = o.NewOrder(order.Kwargs{
		"security":    "AAPL",
		"side":        order.SideBuy,
		"order_qty":   int64(100),
		"order_price": fields.NewPrice(101.25, 4),
	})

	if err := c.NewOrder(o, nil); err != nil {
		t.Fatalf("new_order: %v", err)
	}

	resp := fixmsg.New()
	resp.Set(8, "FIX.4.4")
	resp.Set(35, "8")
	resp.Set(11, o.ClOrdID())
	resp.Set(37, "EXCH-OID-1")
	resp.Set(55, "AAPL")
	resp.Set(54, "1")
	resp.Set(38, "100")
	resp.Set(44, "101.25")
	resp.Set(constants.TagOrdStatus, constants.OrdStatusNew)
	resp.Set(constants.TagExecType, constants.ExecTypeNew)
	frame, err := resp.Encode()
	if err != nil {
		t.Fatalf("encode response: %v", err)
	}
	tr.queue = [][]byte{frame}

	if err := c.Ordered(o, nil, time.Second); err != nil {
		t.Fatalf("ordered: %v", err)
	}
	if o.OrderID2 != "EXCH-OID-1" {
		t.Fatalf("got orderID2 %q, want EXCH-OID-1", o.OrderID2)
	}
}

func TestFIXCheckerFillAcceptsLastQtyOrLastShares(t *testing.T) {
	tr := &fakeTransport{}
	c := NewFIXChecker(tr)
	sim := &fakeSimulator{}

	o := order.New()
	_ = o.NewOrder(order.Kwargs{"security": "AAPL", "side": order.SideBuy, "order_qty": int64(100)})
	_ = o.Ordered(nil)
	o.OrderID2 = "EXCH-OID-1"

	resp := fixmsg.New()
	resp.Set(8, "FIX.4.4")
	resp.Set(35, "8")
	resp.Set(29, "100") // LastQty, not LastShares
	resp.Set(constants.TagOrdStatus, constants.OrdStatusFilled)
	resp.Set(constants.TagExecType, constants.ExecTypeFilled)
	frame, err := resp.Encode()
	if err != nil {
		t.Fatalf("encode response: %v", err)
	}
	tr.queue = [][]byte{frame}

	if err := c.Fill(o, sim, 100, 101.25, time.Second); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if o.Status != order.StatusClosed {
		t.Fatalf("got status %v, want closed", o.Status)
	}
	if len(sim.filled) != 1 || sim.filled[0] != 100 {
		t.Fatalf("expected simulator invoked once with 100, got %v", sim.filled)
	}
}
