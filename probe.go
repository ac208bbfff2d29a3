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

package icmpkg

import (
	"net"
	"time"
)

// ProbeStatus is the lifecycle state of a Probe.
type ProbeStatus int

const (
	// ProbeStatusNotSent is the default, zero-value status of an unused ring slot.
	ProbeStatusNotSent ProbeStatus = iota
	// ProbeStatusAwaited means the probe has been sent and no response has arrived yet.
	ProbeStatusAwaited
	// ProbeStatusComplete means a response has been correlated with the probe.
	ProbeStatusComplete
)

func (s ProbeStatus) String() string {
	switch s {
	case ProbeStatusAwaited:
		return "Awaited"
	case ProbeStatusComplete:
		return "Complete"
	default:
		return "NotSent"
	}
}

// IcmpPacketType is the kind of ICMP response that completed a Probe.
type IcmpPacketType int

const (
	// IcmpPacketTypeNone means no response has been associated with the probe yet.
	IcmpPacketTypeNone IcmpPacketType = iota
	// IcmpPacketTypeTimeExceeded means an intermediate hop reported TTL expiry.
	IcmpPacketTypeTimeExceeded
	// IcmpPacketTypeUnreachable means an intermediate hop reported destination unreachable.
	IcmpPacketTypeUnreachable
	// IcmpPacketTypeEchoReply means the target host replied directly.
	IcmpPacketTypeEchoReply
)

func (t IcmpPacketType) String() string {
	switch t {
	case IcmpPacketTypeTimeExceeded:
		return "TimeExceeded"
	case IcmpPacketTypeUnreachable:
		return "Unreachable"
	case IcmpPacketTypeEchoReply:
		return "EchoReply"
	default:
		return "None"
	}
}

// Probe describes one outgoing ICMP Echo Request and, once matched, the
// response that completed it.
//
// Invariants (spec.md §3):
//  1. Status == ProbeStatusNotSent implies Sent.IsZero(), TTL == 0, Sequence == 0.
//  2. Status == ProbeStatusAwaited implies !Sent.IsZero() && Received.IsZero().
//  3. Status == ProbeStatusComplete implies !Sent.IsZero(), !Received.IsZero(),
//     Host != nil, IcmpPacketType != IcmpPacketTypeNone.
//  4. In the ring buffer, buffer[i] is either the zero Probe or satisfies
//     Sequence.index() == i.
type Probe struct {
	Sequence       Sequence
	TTL            TimeToLive
	Round          Round
	Sent           time.Time
	Received       time.Time
	Host           net.IP
	Status         ProbeStatus
	IcmpPacketType IcmpPacketType
}

// newProbe constructs a freshly-sent, Awaited probe.
func newProbe(sequence Sequence, ttl TimeToLive, round Round, sent time.Time) Probe {
	return Probe{
		Sequence: sequence,
		TTL:      ttl,
		Round:    round,
		Sent:     sent,
		Status:   ProbeStatusAwaited,
	}
}

// withResponse returns a copy of p completed with the given response fields.
func (p Probe) withResponse(status ProbeStatus, typ IcmpPacketType, host net.IP, received time.Time) Probe {
	p.Status = status
	p.IcmpPacketType = typ
	p.Host = host
	p.Received = received
	return p
}

// classify maps an IcmpResponseKind to the (status, packet type, found)
// triple used to complete a Probe. This is the only place the
// variant-to-field mapping lives (spec.md §4.6).
func classify(kind IcmpResponseKind) (status ProbeStatus, typ IcmpPacketType, found bool) {
	switch kind {
	case IcmpResponseTimeExceeded:
		return ProbeStatusComplete, IcmpPacketTypeTimeExceeded, false
	case IcmpResponseDestinationUnreachable:
		return ProbeStatusComplete, IcmpPacketTypeUnreachable, false
	case IcmpResponseEchoReply:
		return ProbeStatusComplete, IcmpPacketTypeEchoReply, true
	default:
		return ProbeStatusNotSent, IcmpPacketTypeNone, false
	}
}
