// Copyright 2025 icmpkg Author. All Rights Reserved.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package icmpkg

import (
	"net"
	"sync"
	"testing"
	"time"
)

// newTestPingEngine builds a pingEngine with its channels wired up directly,
// skipping newPacket/listen() so the test never touches a real ICMP socket.
// runPing only talks to wc/hc/ic, so that's all this needs to populate.
func newTestPingEngine(count int) *pingEngine {
	return &pingEngine{
		addr:     &net.IPAddr{IP: net.ParseIP("203.0.113.1")},
		ip4:      "203.0.113.1",
		count:    count,
		readDur:  2 * time.Millisecond,
		writeDur: 2 * time.Millisecond,
		wc:       make(chan *Proto, 16),
		hc:       make(chan *Proto, 16),
		ic:       make(chan *Proto, 16),
		wg:       &sync.WaitGroup{},
	}
}

// TestRunPingUsesDefaultTTL guards against regressing to a hardcoded low
// TTL: every request pingEngine writes must carry TTL 0, meaning "no
// override, use the OS default", exactly like the teacher's ping mode did.
// A positive TTL here would make every probe expire at that many hops,
// rather than reaching the target.
func TestRunPingUsesDefaultTTL(t *testing.T) {
	pe := newTestPingEngine(3)
	pe.runPing()

	sent := make([]*Proto, 0, 3)
	for pto := range pe.wc {
		sent = append(sent, pto)
	}
	if len(sent) != 3 {
		t.Fatalf("sent %d requests; want 3", len(sent))
	}
	for i, pto := range sent {
		if pto.TTL != 0 {
			t.Errorf("request %d: TTL = %d; want 0 (no override)", i, pto.TTL)
		}
	}
}

// TestReadOneTimeoutUsesDefaultTTL checks the timeout placeholder Proto
// also carries TTL 0, consistent with the requests it answers.
func TestReadOneTimeoutUsesDefaultTTL(t *testing.T) {
	pe := newTestPingEngine(1)
	pto := pe.readOne(99, 0)
	if pto == nil {
		t.Fatal("readOne should return a timeout Proto when ic never receives")
	}
	if pto.TTL != 0 {
		t.Errorf("timeout Proto TTL = %d; want 0", pto.TTL)
	}
	if pto.ID != 99 {
		t.Errorf("timeout Proto ID = %d; want 99", pto.ID)
	}
}

// TestRunPingReportsEveryRequest checks runPing/runRemaining deliver one
// handler callback per sequence, including the initial echo.
func TestRunPingReportsEveryRequest(t *testing.T) {
	pe := newTestPingEngine(2)
	pe.runPing()

	got := 0
	for range pe.hc {
		got++
	}
	if got != 2 {
		t.Errorf("handler deliveries = %d; want 2", got)
	}
}
