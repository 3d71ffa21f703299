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

// Package constants holds the FIX 4.4 tag numbers and field value
// literals exercised by the order-entry checker harness. fixmsg.Message
// is tag-number keyed rather than quickfix.FieldMap keyed, so tags here
// are plain ints instead of quickfix.Tag.
package constants

// --- Message Types (Tag 35) ---
const (
	MsgTypeNewOrderSingle     = "D"
	MsgTypeOrderCancelRequest = "F"
	MsgTypeOrderCancelReplace = "G"
	MsgTypeOrderStatusRequest = "H"
	MsgTypeExecutionReport    = "8"
	MsgTypeOrderCancelReject  = "9"
	MsgTypeReject             = "3"
	MsgTypeBusinessReject     = "j"
)

// --- Side (Tag 54) ---
const (
	SideBuy           = "1"
	SideSell          = "2"
	SideSellShort     = "5"
	SideSellShortExempt = "6"
)

// --- Order Types (Tag 40) ---
const (
	OrdTypeMarket    = "1"
	OrdTypeLimit     = "2"
	OrdTypeStop      = "3"
	OrdTypeStopLimit = "4"
)

// --- Time In Force (Tag 59) ---
const (
	TimeInForceGTC = "1"
	TimeInForceIOC = "3"
	TimeInForceFOK = "4"
	TimeInForceGTD = "6"
)

// --- Order Status (Tag 39) ---
const (
	OrdStatusNew             = "0"
	OrdStatusPartiallyFilled = "1"
	OrdStatusFilled          = "2"
	OrdStatusDoneForDay      = "3"
	OrdStatusCanceled        = "4"
	OrdStatusReplaced        = "5"
	OrdStatusPendingCancel   = "6"
	OrdStatusStopped         = "7"
	OrdStatusRejected        = "8"
	OrdStatusSuspended       = "9"
	OrdStatusPendingNew      = "A"
	OrdStatusExpired         = "C"
	OrdStatusPendingReplace  = "E"
)

// --- Execution Type (Tag 150) ---
const (
	ExecTypeNew           = "0"
	ExecTypePartialFill   = "1"
	ExecTypeFilled        = "2"
	ExecTypeDone          = "3"
	ExecTypeCanceled      = "4"
	ExecTypePendingCancel = "6"
	ExecTypeStopped       = "7"
	ExecTypeRejected      = "8"
	ExecTypePendingNew    = "A"
	ExecTypeExpired       = "C"
)

// --- Order Reject Reason (Tag 103) ---
const (
	OrdRejReasonBrokerOption   = "0"
	OrdRejReasonUnknownSymbol  = "1"
	OrdRejReasonExchangeClosed = "2"
	OrdRejReasonExceedsLimit   = "3"
	OrdRejReasonTooLate        = "4"
	OrdRejReasonUnknownOrder   = "5"
	OrdRejReasonDuplicateOrder = "6"
	OrdRejReasonOther          = "99"
)

// --- Cancel Reject Response To (Tag 434) ---
const (
	CxlRejResponseToCancel  = "1"
	CxlRejResponseToReplace = "2"
)

// --- Session Reject Reason (Tag 373) ---
const (
	SessionRejectReasonInvalidTag         = "0"
	SessionRejectReasonRequiredTagMissing = "1"
	SessionRejectReasonTagNotDefined      = "2"
	SessionRejectReasonInvalidMsgType     = "11"
)

// --- Standard FIX Tags exercised by the order-entry checker ---
const (
	TagAccount       = 1
	TagAvgPx         = 6
	TagBeginString   = 8
	TagClOrdID       = 11
	TagCumQty        = 14
	TagExecID        = 17
	TagLastPx        = 31
	TagLastShares    = 32
	TagMsgSeqNum     = 34
	TagMsgType       = 35
	TagOrderID       = 37
	TagOrderQty      = 38
	TagOrdStatus     = 39
	TagOrdType       = 40
	TagOrigClOrdID   = 41
	TagPrice         = 44
	TagRefSeqNum     = 45
	TagSenderCompID  = 49
	TagSendingTime   = 52
	TagSide          = 54
	TagSymbol        = 55
	TagText          = 58
	TagTimeInForce   = 59
	TagTransactTime  = 60
	TagTargetCompID  = 56
	TagOrdRejReason  = 103
	TagCxlRejReason  = 102
	TagHeartBtInt    = 108
	TagExpireTime    = 126
	TagExecType      = 150
	TagLeavesQty     = 151
	TagRefTagID      = 371
	TagRefMsgType    = 372
	TagSessionRejReason = 373
	TagCxlRejResponseTo = 434
	TagLastQty       = 29
)
