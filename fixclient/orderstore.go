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

// Package fixclient is the order-entry FIX 4.4 session client.
//
// OrderStore is a thread-safe snapshot cache of the raw tag values
// last seen for each order over a Session — distinct from order.Order,
// which is the checker harness's own lifecycle state machine. Session
// does not feed it: callers fill it themselves through AddOrder and
// UpdateOrderFromExecReport.
package fixclient

import (
	"sync"
	"time"
)

// Order is the last known snapshot of one order's FIX fields, built
// up from every ExecutionReport seen for its ClOrdID.
type Order struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	ClOrdID   string `json:"clOrdId"`
	OrderID   string `json:"orderId"`
	Symbol    string `json:"symbol"`
	Side      string `json:"side"`
	OrdType   string `json:"ordType"`
	OrdStatus string `json:"ordStatus"`
	ExecType  string `json:"execType"`

	OrderQty  string `json:"orderQty"`
	Price     string `json:"price"`
	AvgPx     string `json:"avgPx"`
	CumQty    string `json:"cumQty"`
	LeavesQty string `json:"leavesQty"`

	LastPx     string `json:"lastPx"`
	LastShares string `json:"lastShares"`
	ExecID     string `json:"execId"`

	OrdRejReason string `json:"ordRejReason,omitempty"`
	Text         string `json:"text,omitempty"`
}

// ExecutionReport is a parsed Execution Report (35=8) message.
type ExecutionReport struct {
	ClOrdID string `json:"clOrdId"`
	OrderID string `json:"orderId"`
	ExecID  string `json:"execId"`
	Symbol  string `json:"symbol"`

	OrdStatus string `json:"ordStatus"`
	ExecType  string `json:"execType"`
	Side      string `json:"side"`
	OrdType   string `json:"ordType"`

	OrderQty  string `json:"orderQty"`
	CumQty    string `json:"cumQty"`
	LeavesQty string `json:"leavesQty"`

	Price      string `json:"price,omitempty"`
	AvgPx      string `json:"avgPx,omitempty"`
	LastPx     string `json:"lastPx,omitempty"`
	LastShares string `json:"lastShares,omitempty"`

	OrdRejReason string `json:"ordRejReason,omitempty"`
	Text         string `json:"text,omitempty"`
}

// OrderCancelReject is a parsed Order Cancel Reject (35=9) message.
type OrderCancelReject struct {
	ClOrdID          string `json:"clOrdId"`
	OrigClOrdID      string `json:"origClOrdId"`
	OrderID          string `json:"orderId"`
	OrdStatus        string `json:"ordStatus"`
	CxlRejReason     string `json:"cxlRejReason,omitempty"`
	CxlRejResponseTo string `json:"cxlRejResponseTo"`
	Text             string `json:"text,omitempty"`
}

// SessionReject is a parsed Reject (35=3) message.
type SessionReject struct {
	RefSeqNum           string `json:"refSeqNum"`
	RefMsgType          string `json:"refMsgType"`
	RefTagID            string `json:"refTagId,omitempty"`
	SessionRejectReason string `json:"sessionRejectReason,omitempty"`
	Text                string `json:"text,omitempty"`
}

// BusinessReject is a parsed Business Message Reject (35=j) message.
type BusinessReject struct {
	RefSeqNum            string `json:"refSeqNum"`
	RefMsgType           string `json:"refMsgType"`
	BusinessRejectReason string `json:"businessRejectReason"`
	Text                 string `json:"text,omitempty"`
}

// OrderStore provides thread-safe storage for order snapshots.
type OrderStore struct {
	mu     sync.RWMutex
	orders map[string]*Order // ClOrdID -> Order
}

func NewOrderStore() *OrderStore {
	return &OrderStore{orders: make(map[string]*Order)}
}

// AddOrder adds or overwrites an order snapshot in the store.
func (os *OrderStore) AddOrder(order *Order) {
	os.mu.Lock()
	defer os.mu.Unlock()
	order.UpdatedAt = time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = order.UpdatedAt
	}
	os.orders[order.ClOrdID] = order
}

// GetOrder retrieves an order snapshot by ClOrdID.
func (os *OrderStore) GetOrder(clOrdID string) *Order {
	os.mu.RLock()
	defer os.mu.RUnlock()
	if order, exists := os.orders[clOrdID]; exists {
		copy := *order
		return &copy
	}
	return nil
}

// GetOrderByOrderID retrieves an order snapshot by exchange OrderID.
func (os *OrderStore) GetOrderByOrderID(orderID string) *Order {
	os.mu.RLock()
	defer os.mu.RUnlock()
	for _, order := range os.orders {
		if order.OrderID == orderID {
			copy := *order
			return &copy
		}
	}
	return nil
}

// UpdateOrderFromExecReport folds an ExecutionReport into the stored
// snapshot for its ClOrdID, creating one if this is the first report
// seen for that order.
func (os *OrderStore) UpdateOrderFromExecReport(er *ExecutionReport) {
	os.mu.Lock()
	defer os.mu.Unlock()

	order, exists := os.orders[er.ClOrdID]
	if !exists {
		order = &Order{ClOrdID: er.ClOrdID, CreatedAt: time.Now()}
		os.orders[er.ClOrdID] = order
	}

	order.UpdatedAt = time.Now()
	order.OrderID = er.OrderID
	order.Symbol = er.Symbol
	order.Side = er.Side
	order.OrdType = er.OrdType
	order.OrdStatus = er.OrdStatus
	order.ExecType = er.ExecType

	if er.OrderQty != "" {
		order.OrderQty = er.OrderQty
	}
	if er.Price != "" {
		order.Price = er.Price
	}
	if er.AvgPx != "" {
		order.AvgPx = er.AvgPx
	}
	if er.CumQty != "" {
		order.CumQty = er.CumQty
	}
	if er.LeavesQty != "" {
		order.LeavesQty = er.LeavesQty
	}
	if er.LastPx != "" {
		order.LastPx = er.LastPx
	}
	if er.LastShares != "" {
		order.LastShares = er.LastShares
	}
	if er.ExecID != "" {
		order.ExecID = er.ExecID
	}
	if er.OrdRejReason != "" {
		order.OrdRejReason = er.OrdRejReason
	}
	if er.Text != "" {
		order.Text = er.Text
	}
}

// GetAllOrders returns a copy of every stored order snapshot.
func (os *OrderStore) GetAllOrders() []*Order {
	os.mu.RLock()
	defer os.mu.RUnlock()

	result := make([]*Order, 0, len(os.orders))
	for _, order := range os.orders {
		copy := *order
		result = append(result, &copy)
	}
	return result
}

// GetOpenOrders returns snapshots whose OrdStatus indicates the order
// is still open.
func (os *OrderStore) GetOpenOrders() []*Order {
	os.mu.RLock()
	defer os.mu.RUnlock()

	result := make([]*Order, 0)
	for _, order := range os.orders {
		if isOpenStatus(order.OrdStatus) {
			copy := *order
			result = append(result, &copy)
		}
	}
	return result
}

// RemoveOrder removes a snapshot from the store.
func (os *OrderStore) RemoveOrder(clOrdID string) {
	os.mu.Lock()
	defer os.mu.Unlock()
	delete(os.orders, clOrdID)
}

// isOpenStatus reports whether status (tag 39) indicates an open order.
func isOpenStatus(status string) bool {
	switch status {
	case "0", "1", "6", "9", "A", "E": // New, PartiallyFilled, PendingCancel, Suspended, PendingNew, PendingReplace
		return true
	default:
		return false
	}
}
