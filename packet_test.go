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

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

func newTestPacket() *packet {
	return &packet{mu: &sync.Mutex{}, m: make(map[string]sentAt)}
}

func TestPacketRecordSentTakeRtt(t *testing.T) {
	p := newTestPacket()
	p.recordSent(1, 1)
	time.Sleep(time.Millisecond)

	rtt := p.takeRtt(1, 1)
	if rtt <= 0 {
		t.Fatalf("takeRtt = %v; want > 0", rtt)
	}
	// The entry is cleared on the first read.
	if again := p.takeRtt(1, 1); again != 0 {
		t.Errorf("second takeRtt = %v; want 0 after the first read cleared the entry", again)
	}
}

func TestPacketMessageReadAcceptsEchoReply(t *testing.T) {
	p := newTestPacket()
	p.recordSent(7, 3)
	srcAddr := &net.IPAddr{IP: net.ParseIP("8.8.8.8")}

	msg := &icmp.Message{Type: ipv4.ICMPTypeEchoReply, Body: &icmp.Echo{ID: 7, Seq: 3}}
	pto := p.messageRead(msg, srcAddr)
	if pto == nil {
		t.Fatal("messageRead should return a Proto for a genuine Echo Reply")
	}
	if pto.ID != 7 || pto.Seq != 3 {
		t.Errorf("ID/Seq = %d/%d; want 7/3", pto.ID, pto.Seq)
	}
	if pto.Rtt <= 0 {
		t.Errorf("Rtt = %v; want > 0", pto.Rtt)
	}
}

// TestPacketMessageReadIgnoresTimeExceeded guards the fix for a regression
// where an intermediate router's Time Exceeded reply was unwrapped and
// reported as if it were the target's own Echo Reply. pingEngine never
// lowers TTL to provoke such a reply, so it must never be treated as a pong.
func TestPacketMessageReadIgnoresTimeExceeded(t *testing.T) {
	p := newTestPacket()
	p.recordSent(9, 1)
	srcAddr := &net.IPAddr{IP: net.ParseIP("192.0.2.1")} // some router, not the target

	inner, err := (&icmp.Message{Type: ipv4.ICMPTypeEcho, Body: &icmp.Echo{ID: 9, Seq: 1}}).Marshal(nil)
	if err != nil {
		t.Fatalf("marshal inner echo: %v", err)
	}
	data := append(make([]byte, 20), inner...) // 20 bytes of stand-in IPv4 header.
	msg := &icmp.Message{Type: ipv4.ICMPTypeTimeExceeded, Body: &icmp.TimeExceeded{Data: data}}

	if pto := p.messageRead(msg, srcAddr); pto != nil {
		t.Errorf("messageRead(TimeExceeded) = %v; want nil, a router reply must not masquerade as the target's pong", pto)
	}
}

func TestPacketMessageReadUnknownEchoIgnored(t *testing.T) {
	p := newTestPacket()
	srcAddr := &net.IPAddr{IP: net.ParseIP("8.8.8.8")}
	// No matching recordSent call: takeRtt finds nothing, rtt stays 0.
	msg := &icmp.Message{Type: ipv4.ICMPTypeEchoReply, Body: &icmp.Echo{ID: 42, Seq: 1}}
	if pto := p.messageRead(msg, srcAddr); pto != nil {
		t.Errorf("messageRead for an unrecorded ID/Seq = %v; want nil", pto)
	}
}
