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

// Package checker implements the harness that drives order.Order
// instances through their lifecycle against a live ESP or FIX session,
// validating each wire response against expected values (spec.md
// §4.F). GenericChecker owns the order list and the lazily built
// per-attribute indexes shared by both protocol-specific checkers;
// ESPChecker and FIXChecker supply the protocol-specific send/receive
// and field-equality assertions.
package checker

import (
	"sync"
	"time"

	"github.com/ForrestLi/auto-test-poc/harnesserr"
	"github.com/ForrestLi/auto-test-poc/order"
)

// Transport is the send/receive boundary a checker drives.
// espclient.RawTransport and fixclient.RawTransport satisfy it; the
// session clients (espclient.Session, fixclient.Session) do not. Tests
// can substitute a fake.
type Transport interface {
	Send(frame []byte) error
	Recv(timeout time.Duration) ([]byte, error)
}

// ExchangeSimulator is the external collaborator spec.md §4.F calls
// "the external exchange simulator": it is invoked out of band to
// trigger a fill before the checker awaits the corresponding
// wire notice. This harness only depends on the interface; spec.md
// scopes the simulator itself out as an external collaborator.
type ExchangeSimulator interface {
	Fill(orderID string, execQty int64, execPrice float64) error
}

// GenericChecker owns the set of orders being driven through a test
// and a lazily built set of per-attribute hash indexes used by
// FindOrderBy. Grounded on fixclient/orderstore.go's
// sync.RWMutex-guarded map-of-orders pattern.
type GenericChecker struct {
	mu      sync.RWMutex
	orders  []*order.Order
	byAttr  map[string]map[any][]*order.Order
	dirty   bool
	Conn    Transport
}

func NewGenericChecker(conn Transport) *GenericChecker {
	return &GenericChecker{Conn: conn}
}

// AddOrder registers a new order with the checker and invalidates the
// attribute indexes.
func (c *GenericChecker) AddOrder(o *order.Order) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders = append(c.orders, o)
	c.byAttr = nil
	c.dirty = true
}

// Orders returns a snapshot of every order currently owned.
func (c *GenericChecker) Orders() []*order.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*order.Order, len(c.orders))
	copy(out, c.orders)
	return out
}

// orderAttr extracts the named attribute from an order for indexing.
// Only the attributes find_order_by is documented to key on are
// supported: clOrdID, destClOrdID, orderID2, security, status.
func orderAttr(o *order.Order, attr string) any {
	switch attr {
	case "clOrdID":
		return o.ClOrdID()
	case "destClOrdID":
		return o.DestClOrdID
	case "orderID2":
		return o.OrderID2
	case "security":
		return o.Security
	case "status":
		return o.Status
	default:
		return nil
	}
}

// FindOrderBy returns every order whose named attribute equals value,
// building (or rebuilding, if the order set changed since the last
// call) a hash index lazily.
func (c *GenericChecker) FindOrderBy(attr string, value any) []*order.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.byAttr == nil {
		c.byAttr = make(map[string]map[any][]*order.Order)
	}
	idx, ok := c.byAttr[attr]
	if !ok || c.dirty {
		idx = make(map[any][]*order.Order)
		for _, o := range c.orders {
			key := orderAttr(o, attr)
			idx[key] = append(idx[key], o)
		}
		c.byAttr[attr] = idx
	}
	c.dirty = false
	return idx[value]
}

// Verify is the reset/flush synchronization point between test steps:
// it drops the attribute indexes (order state may have changed) and
// drains any unconsumed transport buffer so the next step starts from
// a clean slate.
func (c *GenericChecker) Verify() error {
	c.mu.Lock()
	c.byAttr = nil
	c.dirty = true
	c.mu.Unlock()

	if c.Conn == nil {
		return nil
	}
	for {
		_, err := c.Conn.Recv(0)
		if err != nil {
			return nil
		}
	}
}

// assertField compares an expected value against an actual decoded
// field, returning a harnesserr.ValidationFailure on mismatch. A nil
// expected value means "don't check this field".
func assertField(field string, expected, actual any) error {
	if expected == nil {
		return nil
	}
	if expected != actual {
		return harnesserr.NewValidationFailure(field, expected, actual)
	}
	return nil
}
