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

package consoled

import (
	"testing"
	"time"

	"github.com/ForrestLi/auto-test-poc/checker"
	"github.com/ForrestLi/auto-test-poc/order"
)

// fakeDriver satisfies Driver without any real wire I/O, recording
// what was called so the handlers can be asserted against directly —
// the readline loop itself (Run) isn't exercised since it needs a real
// terminal.
type fakeDriver struct {
	newOrderCalls int
	orderedCalls  int
	fillCalls     int
	verifyCalls   int
	findResult    []*order.Order
	failNewOrder  bool
	failOrdered   bool
	failFill      bool
	failVerify    bool
}

func (f *fakeDriver) NewOrder(o *order.Order, k order.Kwargs) error {
	f.newOrderCalls++
	if f.failNewOrder {
		return errStub
	}
	return nil
}

func (f *fakeDriver) Ordered(o *order.Order, k order.Kwargs, timeout time.Duration) error {
	f.orderedCalls++
	if f.failOrdered {
		return errStub
	}
	return o.Ordered(k)
}

func (f *fakeDriver) Fill(o *order.Order, sim checker.ExchangeSimulator, execQty int64, execPrice float64, timeout time.Duration) error {
	f.fillCalls++
	if f.failFill {
		return errStub
	}
	return o.Fill(order.Kwargs{"execQty": execQty})
}

func (f *fakeDriver) FindOrderBy(attr string, value any) []*order.Order {
	return f.findResult
}

func (f *fakeDriver) Verify() error {
	f.verifyCalls++
	if f.failVerify {
		return errStub
	}
	return nil
}

type stubErr struct{}

func (stubErr) Error() string { return "stub error" }

var errStub = stubErr{}

type fakeSim struct{}

func (fakeSim) Fill(orderID string, execQty int64, execPrice float64) error { return nil }

func TestHandleNewAcceptsOrder(t *testing.T) {
	driver := &fakeDriver{}
	c := New(driver, fakeSim{}, time.Second)

	c.handleNew([]string{"new", "buy", "AAPL", "100", "150.25"})

	if driver.newOrderCalls != 1 || driver.orderedCalls != 1 {
		t.Fatalf("expected one NewOrder and one Ordered call, got %d/%d", driver.newOrderCalls, driver.orderedCalls)
	}
	if c.current == nil {
		t.Fatal("expected current order to be set")
	}
	if c.current.Status != order.StatusOpen {
		t.Fatalf("expected status open, got %s", c.current.Status)
	}
	if c.current.Security != "AAPL" {
		t.Fatalf("expected security AAPL, got %s", c.current.Security)
	}
}

func TestHandleNewRejectsBadArgs(t *testing.T) {
	driver := &fakeDriver{}
	c := New(driver, fakeSim{}, time.Second)

	c.handleNew([]string{"new", "buy", "AAPL"})

	if driver.newOrderCalls != 0 {
		t.Fatal("expected no NewOrder call on malformed command")
	}
	if c.current != nil {
		t.Fatal("expected no current order set on malformed command")
	}
}

func TestHandleFillUpdatesCurrentOrder(t *testing.T) {
	driver := &fakeDriver{}
	c := New(driver, fakeSim{}, time.Second)
	c.handleNew([]string{"new", "buy", "AAPL", "100", "150.25"})

	c.handleFill([]string{"fill", "100", "150.25"})

	if driver.fillCalls != 1 {
		t.Fatalf("expected one Fill call, got %d", driver.fillCalls)
	}
	if c.current.Status != order.StatusClosed {
		t.Fatalf("expected status closed after full fill, got %s", c.current.Status)
	}
	if c.current.OpenQty() != 0 {
		t.Fatalf("expected zero open qty, got %d", c.current.OpenQty())
	}
}

func TestHandleFillWithoutCurrentOrderNoops(t *testing.T) {
	driver := &fakeDriver{}
	c := New(driver, fakeSim{}, time.Second)

	c.handleFill([]string{"fill", "100", "150.25"})

	if driver.fillCalls != 0 {
		t.Fatal("expected no Fill call with no current order")
	}
}

func TestHandleFindSelectsFirstMatch(t *testing.T) {
	o1 := order.New()
	o2 := order.New()
	driver := &fakeDriver{findResult: []*order.Order{o1, o2}}
	c := New(driver, fakeSim{}, time.Second)

	c.handleFind([]string{"find", "security", "AAPL"})

	if c.current != o1 {
		t.Fatal("expected current to be set to the first match")
	}
}

func TestHandleVerifyReportsFailure(t *testing.T) {
	driver := &fakeDriver{failVerify: true}
	c := New(driver, fakeSim{}, time.Second)

	c.handleVerify()

	if driver.verifyCalls != 1 {
		t.Fatal("expected Verify to be called")
	}
}
