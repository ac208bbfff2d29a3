// Copyright 2025 icmpkg Author. All Rights Reserved.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//      http://www.apache.org/licenses/LICENSE-2.0
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"

	"github.com/rivo/tview"
)

// columns are the hop table's headers, in display order.
var columns = []string{"TTL", "Host", "Loss%", "Snd", "Recv", "Last", "Avg", "Best", "Wrst", "StdDev"}

// mtrTable is the live-updating per-hop stats table shown while a trace runs.
type mtrTable struct {
	app   *tview.Application
	table *tview.Table
}

// newMtrTable builds the table shell with its header row painted once.
func newMtrTable(title string) *mtrTable {
	table := tview.NewTable().SetBorders(false).SetFixed(1, 0)
	for col, name := range columns {
		table.SetCell(0, col, tview.NewTableCell(name).
			SetTextColor(tview.Styles.SecondaryTextColor).
			SetSelectable(false).
			SetAlign(tview.AlignRight))
	}
	table.SetTitle(title).SetBorder(true)

	app := tview.NewApplication().SetRoot(table, true)
	return &mtrTable{app: app, table: table}
}

// refresh repaints every hop row from the current hops snapshot. Safe to
// call from the round scheduler's publisher callback; queues the redraw
// onto tview's own draw loop rather than touching the table directly.
func (m *mtrTable) refresh(hops []hop) {
	m.app.QueueUpdateDraw(func() {
		row := 1
		for i := range hops {
			h := &hops[i]
			if h.Sent == 0 {
				continue
			}
			m.setRow(row, h)
			row++
		}
	})
}

func (m *mtrTable) setRow(row int, h *hop) {
	host := h.Addr
	if host == "" {
		host = "???"
	}
	cells := []string{
		fmt.Sprintf("%d", h.TTL),
		host,
		fmt.Sprintf("%.1f", h.lossPct()),
		fmt.Sprintf("%d", h.Sent),
		fmt.Sprintf("%d", h.Received),
		fmt.Sprintf("%.1f", float64(h.Last)),
		fmt.Sprintf("%.1f", h.avg()),
		fmt.Sprintf("%.1f", float64(h.Best)),
		fmt.Sprintf("%.1f", float64(h.Worst)),
		fmt.Sprintf("%.1f", h.stdDev()),
	}
	for col, text := range cells {
		m.table.SetCell(row, col, tview.NewTableCell(text).SetAlign(tview.AlignRight))
	}
}

// run blocks until the application is stopped, driving the terminal UI.
func (m *mtrTable) run() error {
	return m.app.Run()
}

// stop tears down the terminal UI so the process can exit cleanly.
func (m *mtrTable) stop() {
	m.app.Stop()
}
