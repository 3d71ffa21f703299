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

package stress

import (
	"context"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ForrestLi/auto-test-poc/constants"
	"github.com/ForrestLi/auto-test-poc/fixclient"
	"github.com/ForrestLi/auto-test-poc/fixmsg"
)

// Config parameterizes one stress run. Rate of 0 means unbounded
// (send as fast as the sender worker can write). SampleEvery of 0
// disables latency sampling; SampleEvery of N samples every Nth
// message ("1-in-N frequency" per spec.md §4.G).
type Config struct {
	Workers          int
	MessagesPerWorker int
	Rate             float64
	SampleEvery      int
	Symbol           string
	SenderCompID     string
	TargetCompID     string
	Timeout          time.Duration
}

// Dialer opens one new connection for a worker session.
type Dialer func() (net.Conn, error)

// WorkerResult is one worker's output per spec.md §4.G.
type WorkerResult struct {
	Count        int
	Elapsed      time.Duration
	AchievedRate float64
	FirstSend    time.Time
	LastSend     time.Time
	Latency      *LatencyStats
	Err          error
}

// Result aggregates every worker's output plus the rate distribution
// across workers.
type Result struct {
	Workers []WorkerResult
	Rate    RateStats
}

// Run opens cfg.Workers concurrent sessions via dial, each driving the
// connect->logon->send M NewOrderSingle->disconnect algorithm of
// spec.md §4.G, and aggregates the per-worker results.
func Run(ctx context.Context, dial Dialer, cfg Config) *Result {
	results := make([]WorkerResult, cfg.Workers)
	var wg sync.WaitGroup
	wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go func(idx int) {
			defer wg.Done()
			results[idx] = runWorker(ctx, dial, cfg, idx)
		}(i)
	}
	wg.Wait()

	rates := make([]float64, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			rates = append(rates, r.AchievedRate)
		}
	}
	return &Result{Workers: results, Rate: rateStatsOf(rates)}
}

func runWorker(ctx context.Context, dial Dialer, cfg Config, workerIdx int) WorkerResult {
	conn, err := dial()
	if err != nil {
		return WorkerResult{Err: err}
	}
	defer conn.Close()

	sess := fixclient.New(fixclient.Config{
		SenderCompID: cfg.SenderCompID,
		TargetCompID: cfg.TargetCompID,
		HeartBtInt:   30,
	})
	defer sess.Shutdown()

	sampler := newLatencySampler()
	var sampleMu sync.Mutex
	var pending sync.Map // clOrdID -> send time
	var pendingCount int32
	sampling := cfg.SampleEvery > 0

	if sampling {
		sess.AddHandler(func(m *fixmsg.Message) bool {
			if m.MsgType() != constants.MsgTypeExecutionReport {
				return false
			}
			clOrdID, ok := m.Get(constants.TagClOrdID)
			if !ok {
				return false
			}
			if sentAt, found := pending.LoadAndDelete(clOrdID); found {
				atomic.AddInt32(&pendingCount, -1)
				sampleMu.Lock()
				sampler.add(time.Since(sentAt.(time.Time)))
				sampleMu.Unlock()
			}
			return true
		})
	}
	sess.Attach(conn)

	if err := sess.Logon(cfg.Timeout); err != nil {
		return WorkerResult{Err: err}
	}

	var interval time.Duration
	if cfg.Rate > 0 {
		interval = time.Duration(float64(time.Second) / cfg.Rate)
	}

	var first, last time.Time
	sent := 0
	for i := 0; i < cfg.MessagesPerWorker; i++ {
		select {
		case <-ctx.Done():
			i = cfg.MessagesPerWorker
			continue
		default:
		}

		clOrdID := "W" + strconv.Itoa(workerIdx) + "-" + strconv.Itoa(i)
		m := fixmsg.New()
		m.Set(constants.TagMsgType, constants.MsgTypeNewOrderSingle)
		m.Set(constants.TagClOrdID, clOrdID)
		m.Set(constants.TagSymbol, cfg.Symbol)
		m.Set(constants.TagSide, constants.SideBuy)
		m.SetInt(constants.TagOrderQty, 100)

		now := time.Now()
		if sampling && cfg.SampleEvery > 0 && i%cfg.SampleEvery == 0 {
			pending.Store(clOrdID, now)
			atomic.AddInt32(&pendingCount, 1)
		}
		sess.Enqueue(m)
		if first.IsZero() {
			first = now
		}
		last = now
		sent++

		if interval > 0 {
			time.Sleep(interval)
		}
	}

	if sampling {
		deadline := time.Now().Add(cfg.Timeout)
		for atomic.LoadInt32(&pendingCount) > 0 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
	}

	elapsed := time.Since(first)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(sent) / elapsed.Seconds()
	}
	sampleMu.Lock()
	stats := sampler.stats()
	sampleMu.Unlock()
	return WorkerResult{
		Count:        sent,
		Elapsed:      elapsed,
		AchievedRate: rate,
		FirstSend:    first,
		LastSend:     last,
		Latency:      stats,
	}
}
