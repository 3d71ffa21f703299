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

package esp

import (
	"strings"
	"testing"
	"time"

	"github.com/ForrestLi/auto-test-poc/fields"
)

func buildNewOrderFrame(t *testing.T) []byte {
	t.Helper()

	newOrder := NewLayer(NewOrder)
	newOrder.Values["Reserved1"] = "  "
	newOrder.Values["IssueCode"] = fields.Some("AAPL")
	newOrder.Values["Side"] = "1" // sell
	newOrder.Values["ExecutionCondition"] = fields.None[string]()
	newOrder.Values["OrderPrice"] = fields.NewPrice(101.25, 4)
	newOrder.Values["OrderQuantity"] = fields.Some(int64(100))
	newOrder.Values["PropBrokerage"] = fields.None[string]()
	newOrder.Values["CashMarginCode"] = fields.None[string]()
	newOrder.Values["ShortSellFlag"] = fields.None[string]()
	newOrder.Values["StabArbCode"] = fields.None[string]()
	newOrder.Values["OrderAttribute"] = fields.None[string]()
	newOrder.Values["SupportMember"] = fields.None[string]()
	newOrder.Values["InternalProcessing"] = fields.Some("AAAAAAAAAAAAAAAAA001")
	newOrder.Values["Optional"] = "0000"
	newOrder.Values["Reserved2"] = strings.Repeat(" ", 19)

	orderCommon := NewLayer(OrderCommonO)
	orderCommon.Values["DataCode"] = "1111"
	orderCommon.Values["ExchangeCode"] = fields.Some("TK")
	orderCommon.Values["MarketCode"] = fields.Some("01")
	orderCommon.Values["ParticipantCode"] = fields.Some("PART1")
	orderCommon.Values["VirtualServerNo"] = fields.Some("VS0001")
	orderCommon.Values["OrderEntrySeqNo"] = fields.Some(int64(1))
	orderCommon.Child = newOrder

	espCommon := NewLayer(ESPCommon)
	espCommon.Values["MessageType"] = "40"
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
	espCommon.Child = orderCommon

	frame, err := Build(espCommon)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return frame
}

func TestBuildParseRoundTrip(t *testing.T) {
	frame := buildNewOrderFrame(t)

	layer, err := Parse(ESPCommon, frame)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if layer.Values["MessageType"] != "40" {
		t.Fatalf("got MessageType %v", layer.Values["MessageType"])
	}
	oc := layer.Child
	if oc == nil || oc.Schema.Name != "OrderCommonO" {
		t.Fatalf("expected OrderCommonO child, got %v", oc)
	}
	no := oc.Child
	if no == nil || no.Schema.Name != "NewOrder" {
		t.Fatalf("expected NewOrder grandchild, got %v", no)
	}
	if issue, _ := no.Values["IssueCode"].(fields.Option[string]).Get(); issue != "AAPL" {
		t.Fatalf("got IssueCode %v", issue)
	}
}

func TestMessageLengthIsRecomputedNotTrusted(t *testing.T) {
	frame := buildNewOrderFrame(t)

	// MessageLength occupies the first 5 bytes of the frame; corrupt a
	// caller-side value and rebuild from a re-parsed chain to prove
	// Build recomputes it rather than trusting Values.
	layer, err := Parse(ESPCommon, frame)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	layer.Values["MessageLength"] = fields.Some(int64(99999))
	rebuilt, err := Build(layer)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if string(rebuilt[:5]) == "99999" {
		t.Fatalf("MessageLength must be recomputed, not trusted from Values")
	}
	if string(rebuilt) != string(frame) {
		t.Fatalf("rebuild mismatch:\n%q\n%q", rebuilt, frame)
	}
}

func TestLayerGetWalksChain(t *testing.T) {
	frame := buildNewOrderFrame(t)
	layer, err := Parse(ESPCommon, frame)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !layer.Has("NewOrder") {
		t.Fatalf("expected NewOrder reachable via Get/Has")
	}
	if layer.Get("NoSuchLayer") != nil {
		t.Fatalf("expected nil for absent layer")
	}
}
