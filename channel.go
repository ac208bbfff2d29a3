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

// IcmpResponseKind distinguishes the ICMP message variants the engine cares about.
type IcmpResponseKind int

const (
	// IcmpResponseTimeExceeded is an intermediate hop's TTL-expired reply.
	IcmpResponseTimeExceeded IcmpResponseKind = iota
	// IcmpResponseDestinationUnreachable is an intermediate hop's unreachable reply.
	IcmpResponseDestinationUnreachable
	// IcmpResponseEchoReply is a reply from the probed host itself.
	IcmpResponseEchoReply
)

// IcmpResponse is a single parsed ICMP message of interest to the tracer.
type IcmpResponse struct {
	Kind       IcmpResponseKind
	Sequence   uint16
	Identifier uint16
	Addr       net.IP
	Recv       time.Time
}

// IcmpChannel is the raw ICMP socket collaborator the round scheduler
// consumes. Implementations must be safe to use from a single goroutine;
// the engine never calls Send or Receive concurrently with itself.
type IcmpChannel interface {
	// Send transmits one ICMP Echo Request built from probe. ttl becomes the
	// IP TTL / IPv6 hop-limit, sequence the ICMP sequence field, and
	// traceIdentifier the ICMP identifier field. packetSize is the total
	// IP+ICMP+payload size; the payload is filled with bytes of value
	// payloadPattern.
	Send(probe Probe, target net.IP, traceIdentifier TraceId, packetSize PacketSize, payloadPattern PayloadPattern) error

	// Receive blocks up to timeout waiting for an ICMP response. It returns
	// (nil, nil) on timeout.
	Receive(timeout time.Duration) (*IcmpResponse, error)

	// Close releases any resources (sockets) held by the channel.
	Close() error
}
