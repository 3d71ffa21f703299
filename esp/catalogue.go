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

import "github.com/ForrestLi/auto-test-poc/fields"

// This file is the concrete ESP layer catalogue: ESPCommon, the three
// middle layers (OrderCommon/NoticeCommon/AdminCommon, each in their
// O/Q/D or U/D admin-direction variants), and the order/notice/admin
// payloads bound beneath them. Field widths and the MessageType
// binding table come verbatim from spec.md §6. Payload interior field
// layouts beyond what spec.md enumerates explicitly (NewOrder) are
// reconstructed to the same house style pending the verbatim table in
// original_source/common/ahd_msg.py — see DESIGN.md.

var resendFlagCodes = map[string]string{"0": "Normal", "1": "Resent"}
var sideCodes = map[string]string{"3": "Buy", "1": "Sell"}

// ESPCommon is the 72-byte session framing header carried by every
// ESP frame. MessageLength and DataAreaLength are self-sized: they are
// always recomputed from the actual serialized byte counts on Build
// and any caller-supplied value is discarded.
var ESPCommon = NewLayerSchema("ESPCommon", "MessageType",
	FieldSpec{Name: "MessageLength", Field: LPadInt(5), Compute: func(ctx BuildCtx) any {
		// total frame bytes (this 72-byte header + everything beneath it)
		// minus the 5 bytes occupied by this field itself.
		return Some64(int64(72 + ctx.ChildLen - 5))
	}},
	FieldSpec{Name: "MessageType", Field: FixedAscii(2)},
	FieldSpec{Name: "SeqNo", Field: LPadInt(8)},
	FieldSpec{Name: "ResendFlag", Field: CharEnum(resendFlagCodes)},
	FieldSpec{Name: "ParticipantCode", Field: RPadStr(5)},
	FieldSpec{Name: "VirtualServerNo", Field: RPadStr(6)},
	FieldSpec{Name: "ARMSN", Field: LPadInt(8)},
	FieldSpec{Name: "SAMSN", Field: LPadInt(8)},
	FieldSpec{Name: "DataAreaLength", Field: LPadInt(5), Compute: func(ctx BuildCtx) any {
		return Some64(int64(ctx.ChildLen))
	}},
	FieldSpec{Name: "NumberOfDataTransactions", Field: LPadInt(3)},
	FieldSpec{Name: "TransmissionDate", Field: Date8()},
	FieldSpec{Name: "TransmissionTime", Field: Time12()},
	FieldSpec{Name: "Reserved", Field: FixedAscii(1)},
)

func commonMiddle(name string) *LayerSchema {
	return NewLayerSchema(name, "DataCode",
		FieldSpec{Name: "DataLength", Field: LPadInt(5), Compute: func(ctx BuildCtx) any {
			return Some64(int64(ctx.ChildLen))
		}},
		FieldSpec{Name: "DataCode", Field: FixedAscii(4)},
		FieldSpec{Name: "ExchangeCode", Field: RPadStr(2)},
		FieldSpec{Name: "MarketCode", Field: RPadStr(2)},
		FieldSpec{Name: "ParticipantCode", Field: RPadStr(5)},
		FieldSpec{Name: "VirtualServerNo", Field: RPadStr(6)},
		FieldSpec{Name: "OrderEntrySeqNo", Field: LPadInt(8)},
	)
}

var (
	OrderCommonO  = commonMiddle("OrderCommonO")
	OrderCommonQ  = commonMiddle("OrderCommonQ")
	OrderCommonD  = commonMiddle("OrderCommonD")
	NoticeCommonO = commonMiddle("NoticeCommonO")
	NoticeCommonQ = commonMiddle("NoticeCommonQ")
	NoticeCommonD = commonMiddle("NoticeCommonD")
	AdminCommonOU = commonMiddle("AdminCommonOU")
	AdminCommonOD = commonMiddle("AdminCommonOD")
	AdminCommonQU = commonMiddle("AdminCommonQU")
	AdminCommonQD = commonMiddle("AdminCommonQD")
	AdminCommonDU = commonMiddle("AdminCommonDU")
	AdminCommonDD = commonMiddle("AdminCommonDD")
)

func leaf(name string, specs ...FieldSpec) *LayerSchema {
	return NewLayerSchema(name, "", specs...)
}

var (
	LoginRequest = leaf("LoginRequest",
		FieldSpec{Name: "ParticipantCode", Field: RPadStr(5)},
		FieldSpec{Name: "VirtualServerNo", Field: RPadStr(6)},
		FieldSpec{Name: "Reserved", Field: RPadStr(10)},
	)
	LoginResponse = leaf("LoginResponse",
		FieldSpec{Name: "ARMSN", Field: ZeroPadInt(8)},
		FieldSpec{Name: "Reserved", Field: RPadStr(10)},
	)
	PreLogoutRequest  = leaf("PreLogoutRequest", FieldSpec{Name: "Reserved", Field: RPadStr(4)})
	PreLogoutResponse = leaf("PreLogoutResponse", FieldSpec{Name: "Reserved", Field: RPadStr(4)})
	LogoutRequest     = leaf("LogoutRequest", FieldSpec{Name: "Reserved", Field: RPadStr(4)})
	LogoutResponse    = leaf("LogoutResponse", FieldSpec{Name: "Reserved", Field: RPadStr(4)})
	Heartbeat         = leaf("Heartbeat")
	ResendRequest     = leaf("ResendRequest",
		FieldSpec{Name: "FromSeqNo", Field: ZeroPadInt(8)},
		FieldSpec{Name: "ToSeqNo", Field: ZeroPadInt(8)},
	)
	Skip   = leaf("Skip")
	Reject = leaf("Reject",
		FieldSpec{Name: "ErrorCode", Field: RPadStr(4)},
		FieldSpec{Name: "Reserved", Field: RPadStr(10)},
	)

	// NewOrder's field order is given verbatim in spec.md §6.
	NewOrder = leaf("NewOrder",
		FieldSpec{Name: "Reserved1", Field: FixedAscii(2)},
		FieldSpec{Name: "IssueCode", Field: RPadStr(12)},
		FieldSpec{Name: "Side", Field: CharEnum(sideCodes)},
		FieldSpec{Name: "ExecutionCondition", Field: RPadStr(1)},
		FieldSpec{Name: "OrderPrice", Field: Price(8, 4)},
		FieldSpec{Name: "OrderQuantity", Field: ZeroPadInt(13)},
		FieldSpec{Name: "PropBrokerage", Field: RPadStr(1)},
		FieldSpec{Name: "CashMarginCode", Field: RPadStr(1)},
		FieldSpec{Name: "ShortSellFlag", Field: RPadStr(1)},
		FieldSpec{Name: "StabArbCode", Field: RPadStr(1)},
		FieldSpec{Name: "OrderAttribute", Field: RPadStr(1)},
		FieldSpec{Name: "SupportMember", Field: RPadStr(1)},
		FieldSpec{Name: "InternalProcessing", Field: RPadStr(20)},
		FieldSpec{Name: "Optional", Field: FixedAscii(4)},
		FieldSpec{Name: "Reserved2", Field: FixedAscii(19)},
	)

	ModificationOrderByInternal = leaf("ModificationOrderByInternal",
		FieldSpec{Name: "InternalProcessing", Field: RPadStr(20)},
		FieldSpec{Name: "NewOrderQuantity", Field: ZeroPadInt(13)},
		FieldSpec{Name: "DeltaQuantitySign", Field: CharEnum(map[string]string{"+": "increase", "-": "decrease", " ": "absolute"})},
		FieldSpec{Name: "DeltaQuantityMagnitude", Field: ZeroPadInt(12)},
		FieldSpec{Name: "NewOrderPrice", Field: Price(8, 4)},
		FieldSpec{Name: "Reserved", Field: RPadStr(10)},
	)
	ModificationOrderByAcceptanceNo = leaf("ModificationOrderByAcceptanceNo",
		FieldSpec{Name: "OrderAcceptanceNo", Field: RPadStr(20)},
		FieldSpec{Name: "NewOrderQuantity", Field: ZeroPadInt(13)},
		FieldSpec{Name: "DeltaQuantitySign", Field: CharEnum(map[string]string{"+": "increase", "-": "decrease", " ": "absolute"})},
		FieldSpec{Name: "DeltaQuantityMagnitude", Field: ZeroPadInt(12)},
		FieldSpec{Name: "NewOrderPrice", Field: Price(8, 4)},
		FieldSpec{Name: "Reserved", Field: RPadStr(10)},
	)
	CancelOrderByInternal = leaf("CancelOrderByInternal",
		FieldSpec{Name: "InternalProcessing", Field: RPadStr(20)},
		FieldSpec{Name: "Reserved", Field: RPadStr(10)},
	)

	NewOrderAcceptanceNotice = leaf("NewOrderAcceptanceNotice",
		FieldSpec{Name: "InternalProcessing", Field: RPadStr(20)},
		FieldSpec{Name: "OrderAcceptanceNo", Field: RPadStr(20)},
		FieldSpec{Name: "IssueCode", Field: RPadStr(12)},
		FieldSpec{Name: "Side", Field: CharEnum(sideCodes)},
		FieldSpec{Name: "OrderQuantity", Field: ZeroPadInt(13)},
		FieldSpec{Name: "OrderPrice", Field: Price(8, 4)},
		FieldSpec{Name: "Reserved", Field: RPadStr(10)},
	)
	ExecutionCompletionNotice = leaf("ExecutionCompletionNotice",
		FieldSpec{Name: "OrderAcceptanceNo", Field: RPadStr(20)},
		FieldSpec{Name: "ExecutionQuantity", Field: ZeroPadInt(13)},
		FieldSpec{Name: "ExecutionPrice", Field: Price(8, 4)},
		FieldSpec{Name: "Reserved", Field: RPadStr(10)},
	)
	CancelOrderResultNotice = leaf("CancelOrderResultNotice",
		FieldSpec{Name: "InternalProcessing", Field: RPadStr(20)},
		FieldSpec{Name: "OrderAcceptanceNo", Field: RPadStr(20)},
		FieldSpec{Name: "Reserved", Field: RPadStr(10)},
	)
	NewOrderRegistrationError = leaf("NewOrderRegistrationError",
		FieldSpec{Name: "InternalProcessing", Field: RPadStr(20)},
		FieldSpec{Name: "ErrorCode", Field: RPadStr(4)},
		FieldSpec{Name: "Reserved", Field: RPadStr(10)},
	)
	ModificationOrderAcceptanceError = leaf("ModificationOrderAcceptanceError",
		FieldSpec{Name: "InternalProcessing", Field: RPadStr(20)},
		FieldSpec{Name: "ErrorCode", Field: RPadStr(4)},
		FieldSpec{Name: "Reserved", Field: RPadStr(10)},
	)
	CancelOrderAcceptanceError = leaf("CancelOrderAcceptanceError",
		FieldSpec{Name: "InternalProcessing", Field: RPadStr(20)},
		FieldSpec{Name: "ErrorCode", Field: RPadStr(4)},
		FieldSpec{Name: "Reserved", Field: RPadStr(10)},
	)

	MarketAdmin = leaf("MarketAdmin",
		FieldSpec{Name: "MarketStatus", Field: RPadStr(1)},
		FieldSpec{Name: "Reserved", Field: RPadStr(10)},
	)
	OpStart = leaf("OpStart",
		FieldSpec{Name: "AcceptanceSeqNo", Field: ZeroPadInt(8)},
		FieldSpec{Name: "ExecutionSeqNo", Field: ZeroPadInt(8)},
	)
	OpStartResponse = leaf("OpStartResponse",
		FieldSpec{Name: "AcceptanceSeqNo", Field: ZeroPadInt(8)},
		FieldSpec{Name: "ExecutionSeqNo", Field: ZeroPadInt(8)},
	)
	OpStartErrorResponse = leaf("OpStartErrorResponse",
		FieldSpec{Name: "ErrorCode", Field: RPadStr(4)},
		FieldSpec{Name: "Reserved", Field: RPadStr(10)},
	)
)

func init() {
	// Top-level bindings: ESPCommon.MessageType -> layer, verbatim from
	// spec.md §6. Codes sharing a layer (e.g. "05"/"15" -> Heartbeat)
	// reflect the same frame shape usable in either direction.
	Bind(ESPCommon, "01", LoginRequest)
	Bind(ESPCommon, "11", LoginResponse)
	Bind(ESPCommon, "02", PreLogoutRequest)
	Bind(ESPCommon, "12", PreLogoutResponse)
	Bind(ESPCommon, "03", LogoutRequest)
	Bind(ESPCommon, "13", LogoutRequest)
	Bind(ESPCommon, "04", LogoutResponse)
	Bind(ESPCommon, "14", LogoutResponse)
	Bind(ESPCommon, "05", Heartbeat)
	Bind(ESPCommon, "15", Heartbeat)
	Bind(ESPCommon, "06", ResendRequest)
	Bind(ESPCommon, "16", ResendRequest)
	Bind(ESPCommon, "07", Skip)
	Bind(ESPCommon, "17", Skip)
	Bind(ESPCommon, "08", Reject)
	Bind(ESPCommon, "18", Reject)
	Bind(ESPCommon, "40", OrderCommonO)
	Bind(ESPCommon, "41", OrderCommonQ)
	Bind(ESPCommon, "42", OrderCommonD)
	Bind(ESPCommon, "50", NoticeCommonO)
	Bind(ESPCommon, "51", NoticeCommonQ)
	Bind(ESPCommon, "52", NoticeCommonD)
	Bind(ESPCommon, "80", AdminCommonOU)
	Bind(ESPCommon, "90", AdminCommonOD)
	Bind(ESPCommon, "81", AdminCommonQU)
	Bind(ESPCommon, "91", AdminCommonQD)
	Bind(ESPCommon, "82", AdminCommonDU)
	Bind(ESPCommon, "92", AdminCommonDD)

	// Order/Notice middle-layer DataCode bindings named explicitly in
	// spec.md §6 plus spec.md §9's ModificationOrderByAcceptanceNo /
	// B131 cross-reference, preserved verbatim. The three error-notice
	// codes (1119, 9139, 7129) are placeholders — see DESIGN.md.
	Bind(OrderCommonO, "1111", NewOrder)
	Bind(OrderCommonO, "9132", ModificationOrderByInternal)
	Bind(OrderCommonO, "5131", ModificationOrderByAcceptanceNo)
	Bind(OrderCommonO, "7122", CancelOrderByInternal)
	Bind(NoticeCommonO, "A111", NewOrderAcceptanceNotice)
	Bind(NoticeCommonO, "J211", ExecutionCompletionNotice)
	Bind(NoticeCommonO, "F221", CancelOrderResultNotice)
	Bind(NoticeCommonO, "B131", ModificationOrderByAcceptanceNo)
	Bind(NoticeCommonO, "1119", NewOrderRegistrationError)
	Bind(NoticeCommonO, "9139", ModificationOrderAcceptanceError)
	Bind(NoticeCommonO, "7129", CancelOrderAcceptanceError)

	// Admin-direction DataCode bindings: T111 and T211 are named in
	// spec.md §6; T212 and T101 are placeholders — see DESIGN.md.
	Bind(AdminCommonOD, "T111", MarketAdmin)
	Bind(AdminCommonOD, "T211", OpStartResponse)
	Bind(AdminCommonOD, "T212", OpStartErrorResponse)
	Bind(AdminCommonOU, "T101", OpStart)
}

// Some64 lifts a plain int64 into the Option[int64] value the LPadInt
// field adapter expects. Exported for use by callers composing layers
// by hand (e.g. session clients setting explicit counters).
func Some64(v int64) any { return fields.Some(v) }
