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

// Command stress drives stress.Run against a live order-entry FIX
// endpoint. CLI argument parsing and CSV reporting are out of scope
// per spec.md §1 ("the test-runner integration, logging setup, CLI
// stress-driver argument parsing and CSV reporting ... are named only
// by the interfaces the core consumes from them"); this entry point is
// the thinnest possible adapter between flag and stress.Config.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"github.com/ForrestLi/auto-test-poc/database"
	"github.com/ForrestLi/auto-test-poc/stress"
)

func main() {
	addr := flag.String("addr", "localhost:5001", "order-entry FIX endpoint address")
	workers := flag.Int("workers", 4, "number of concurrent sessions")
	messages := flag.Int("messages", 100, "NewOrderSingle messages per worker")
	rate := flag.Float64("rate", 0, "target messages/sec per worker, 0 for unbounded")
	sampleEvery := flag.Int("sample-every", 1, "latency-sample every Nth message, 0 to disable")
	symbol := flag.String("symbol", "AAPL", "security symbol for generated orders")
	senderCompID := flag.String("sender-comp-id", "STRESS", "FIX SenderCompID")
	targetCompID := flag.String("target-comp-id", "EXCHANGE", "FIX TargetCompID")
	timeout := flag.Duration("timeout", 5*time.Second, "per-message and handshake timeout")
	journalPath := flag.String("journal", "", "optional sqlite path for database.JournalDB latency recording")
	flag.Parse()

	cfg := stress.Config{
		Workers:           *workers,
		MessagesPerWorker: *messages,
		Rate:              *rate,
		SampleEvery:       *sampleEvery,
		Symbol:            *symbol,
		SenderCompID:      *senderCompID,
		TargetCompID:      *targetCompID,
		Timeout:           *timeout,
	}

	var journal *database.JournalDB
	if *journalPath != "" {
		var err error
		journal, err = database.NewJournalDB(*journalPath)
		if err != nil {
			log.Fatalf("open journal db: %v", err)
		}
		defer journal.Close()
	}

	dial := func() (net.Conn, error) {
		return net.DialTimeout("tcp", *addr, *timeout)
	}

	result := stress.Run(context.Background(), dial, cfg)

	for i, w := range result.Workers {
		if w.Err != nil {
			fmt.Fprintf(os.Stderr, "worker %d: error: %v\n", i, w.Err)
			continue
		}
		fmt.Printf("worker %d: sent=%d elapsed=%s rate=%.1f/s", i, w.Count, w.Elapsed, w.AchievedRate)
		if w.Latency != nil {
			fmt.Printf(" latency(count=%d mean=%s p50=%s p90=%s p99=%s)",
				w.Latency.Count, w.Latency.Mean, w.Latency.P50, w.Latency.P90, w.Latency.P99)
			if journal != nil {
				sessionID := fmt.Sprintf("worker-%d", i)
				_ = journal.RecordLatencySample(sessionID, w.Count, w.Latency.Mean.Microseconds())
			}
		}
		fmt.Println()
	}
	fmt.Printf("aggregate rate: p50=%.1f p90=%.1f p99=%.1f\n", result.Rate.P50, result.Rate.P90, result.Rate.P99)
}
