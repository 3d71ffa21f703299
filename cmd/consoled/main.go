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

// Command consoled opens an interactive consoled.Console against a
// live FIX or ESP order-entry endpoint. spec.md §4.F scopes the
// exchange simulator itself out as an external collaborator; noopSim
// below is a stand-in that satisfies checker.ExchangeSimulator so the
// console's fill command has something to call.
package main

import (
	"flag"
	"log"
	"net"
	"time"

	"github.com/ForrestLi/auto-test-poc/checker"
	"github.com/ForrestLi/auto-test-poc/consoled"
	"github.com/ForrestLi/auto-test-poc/espclient"
	"github.com/ForrestLi/auto-test-poc/fixclient"
)

// noopSim is a placeholder checker.ExchangeSimulator: the real
// simulator is external and out of this harness's scope.
type noopSim struct{}

func (noopSim) Fill(orderID string, execQty int64, execPrice float64) error {
	log.Printf("exchange simulator stub: fill orderID=%s qty=%d price=%.4f (no-op)", orderID, execQty, execPrice)
	return nil
}

func main() {
	addr := flag.String("addr", "localhost:5001", "order-entry endpoint address")
	protocol := flag.String("protocol", "fix", "fix or esp")
	virtualServerNo := flag.String("virtual-server-no", "01", "ESP VirtualServerNo (esp protocol only)")
	exchangeCode := flag.String("exchange-code", "TK", "ESP ExchangeCode (esp protocol only)")
	marketCode := flag.String("market-code", "01", "ESP MarketCode (esp protocol only)")
	participantCode := flag.String("participant-code", "PART1", "ESP ParticipantCode (esp protocol only)")
	timeout := flag.Duration("timeout", 5*time.Second, "per-transition assertion timeout")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		log.Fatalf("dial %s: %v", *addr, err)
	}
	defer conn.Close()

	var driver consoled.Driver
	switch *protocol {
	case "fix":
		driver = checker.NewFIXChecker(fixclient.NewRawTransport(conn))
	case "esp":
		driver = checker.NewESPChecker(espclient.NewRawTransport(conn), espclient.Config{
			ExchangeCode:    *exchangeCode,
			MarketCode:      *marketCode,
			ParticipantCode: *participantCode,
			VirtualServerNo: *virtualServerNo,
		})
	default:
		log.Fatalf("unknown protocol %q, want fix or esp", *protocol)
	}

	console := consoled.New(driver, noopSim{}, *timeout)
	if err := console.Run(); err != nil {
		log.Fatal(err)
	}
}
