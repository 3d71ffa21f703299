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

// Package consoled is an interactive readline console for manually
// driving an order.Order through a checker.ESPChecker or
// checker.FIXChecker against a live session: new, modify, cancel,
// fill, verify. Adapted from fixclient/repl.go's completer tree and
// command-dispatch loop, with the market-data/RFQ commands (md,
// unsubscribe, rfq, accept, quotes) dropped — this harness only drives
// order entry — and new, modify, cancel, fill, verify commands added
// in their place.
package consoled

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/ForrestLi/auto-test-poc/checker"
	"github.com/ForrestLi/auto-test-poc/fields"
	"github.com/ForrestLi/auto-test-poc/order"
)

// Driver is the subset of ESPChecker/FIXChecker's surface the console
// needs. Both satisfy it: NewOrder/Ordered/Fill are their own methods,
// FindOrderBy/Verify come from the embedded *checker.GenericChecker.
type Driver interface {
	NewOrder(o *order.Order, k order.Kwargs) error
	Ordered(o *order.Order, k order.Kwargs, timeout time.Duration) error
	Fill(o *order.Order, sim checker.ExchangeSimulator, execQty int64, execPrice float64, timeout time.Duration) error
	FindOrderBy(attr string, value any) []*order.Order
	Verify() error
}

// Console owns the readline loop, the in-progress Order, and the
// Driver it talks to.
type Console struct {
	driver  Driver
	sim     checker.ExchangeSimulator
	timeout time.Duration
	current *order.Order
}

func New(driver Driver, sim checker.ExchangeSimulator, timeout time.Duration) *Console {
	return &Console{driver: driver, sim: sim, timeout: timeout}
}

func newCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("new",
			readline.PcItem("buy"),
			readline.PcItem("sell"),
		),
		readline.PcItem("modify"),
		readline.PcItem("cancel"),
		readline.PcItem("fill"),
		readline.PcItem("verify"),
		readline.PcItem("find"),
		readline.PcItem("status"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

// Run starts the readline loop, blocking until the user exits or input
// closes (Ctrl-D).
func (c *Console) Run() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "checker> ",
		HistoryFile:     "/tmp/checker_console_history",
		AutoComplete:    newCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			return nil
		}

		parts := strings.Fields(strings.TrimSpace(line))
		if len(parts) == 0 {
			continue
		}

		cmd := strings.ToLower(parts[0])
		switch cmd {
		case "new":
			c.handleNew(parts)
		case "modify":
			c.handleModify(parts)
		case "cancel":
			c.handleCancel()
		case "fill":
			c.handleFill(parts)
		case "verify":
			c.handleVerify()
		case "find":
			c.handleFind(parts)
		case "status":
			c.handleStatus()
		case "help":
			c.displayHelp()
		case "exit":
			return nil
		default:
			fmt.Println("Unknown command. Type 'help' for available commands.")
		}
	}
}

// handleNew parses: new <buy|sell> <security> <qty> <price>
func (c *Console) handleNew(parts []string) {
	if len(parts) < 5 {
		fmt.Println("usage: new <buy|sell> <security> <qty> <price>")
		return
	}
	side := order.SideBuy
	if strings.EqualFold(parts[1], "sell") {
		side = order.SideSell
	}
	qty, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		fmt.Println("invalid qty:", err)
		return
	}
	price, err := strconv.ParseFloat(parts[4], 64)
	if err != nil {
		fmt.Println("invalid price:", err)
		return
	}

	o := order.New()
	k := order.Kwargs{
		"security":   parts[2],
		"side":       side,
		"orderQty":   qty,
		"orderPrice": fields.NewPrice(price, 2),
	}
	if err := o.NewOrder(k); err != nil {
		fmt.Println("new_order failed:", err)
		return
	}
	if err := c.driver.NewOrder(o, k); err != nil {
		fmt.Println("send failed:", err)
		return
	}
	if err := c.driver.Ordered(o, k, c.timeout); err != nil {
		fmt.Println("ordered assertion failed:", err)
		return
	}
	c.current = o
	fmt.Printf("order accepted: clOrdID=%s status=%s\n", o.ClOrdID(), o.Status)
}

func (c *Console) handleModify(parts []string) {
	if c.current == nil {
		fmt.Println("no current order; use 'new' first")
		return
	}
	if len(parts) < 2 {
		fmt.Println("usage: modify <qty>")
		return
	}
	qty, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		fmt.Println("invalid qty:", err)
		return
	}
	if err := c.current.Modify(order.Kwargs{"orderQty": qty}); err != nil {
		fmt.Println("modify failed:", err)
	}
}

func (c *Console) handleCancel() {
	if c.current == nil {
		fmt.Println("no current order; use 'new' first")
		return
	}
	if err := c.current.Cancel(order.Kwargs{}); err != nil {
		fmt.Println("cancel failed:", err)
	}
}

func (c *Console) handleFill(parts []string) {
	if c.current == nil {
		fmt.Println("no current order; use 'new' first")
		return
	}
	if len(parts) < 3 {
		fmt.Println("usage: fill <qty> <price>")
		return
	}
	qty, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		fmt.Println("invalid qty:", err)
		return
	}
	price, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		fmt.Println("invalid price:", err)
		return
	}
	if err := c.driver.Fill(c.current, c.sim, qty, price, c.timeout); err != nil {
		fmt.Println("fill failed:", err)
		return
	}
	fmt.Printf("order filled: status=%s openQty=%d\n", c.current.Status, c.current.OpenQty())
}

func (c *Console) handleVerify() {
	if err := c.driver.Verify(); err != nil {
		fmt.Println("verify failed:", err)
		return
	}
	fmt.Println("verify ok")
}

func (c *Console) handleFind(parts []string) {
	if len(parts) < 3 {
		fmt.Println("usage: find <attr> <value>")
		return
	}
	var value any = parts[2]
	if parts[1] == "status" {
		value = order.Status(parts[2])
	}
	matches := c.driver.FindOrderBy(parts[1], value)
	if len(matches) == 0 {
		fmt.Println("not found")
		return
	}
	c.current = matches[0]
	fmt.Printf("found %d match(es); selected clOrdID=%s security=%s status=%s\n",
		len(matches), c.current.ClOrdID(), c.current.Security, c.current.Status)
}

func (c *Console) handleStatus() {
	if c.current == nil {
		fmt.Println("no current order")
		return
	}
	o := c.current
	fmt.Printf("clOrdID=%s security=%s side=%s status=%s qty=%d openQty=%d\n",
		o.ClOrdID(), o.Security, o.Side, o.Status, o.OrderQty(), o.OpenQty())
}

func (c *Console) displayHelp() {
	fmt.Println(`commands:
  new <buy|sell> <security> <qty> <price>   submit and confirm a new order
  modify <qty>                              push a pending quantity modification
  cancel                                    cancel the current order
  fill <qty> <price>                        drive a fill through the exchange simulator
  verify                                    flush the checker's verification queue
  find <attr> <value>                       look up orders (security, status, clOrdID, destClOrdID, orderID2)
  status                                    print the current order's state
  help                                      this message
  exit                                      quit`)
}
