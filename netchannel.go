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
	"fmt"
	logpkg "log"
	"net"
	"os"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// Constants defining the network protocol and listening address for ICMP
// communication, one pair per IP family. Adapted from the teacher's
// packet.go (which only ever listened on ip4:icmp).
const (
	listenNetworkV4 = "ip4:icmp"
	listenAddressV4 = "0.0.0.0"
	listenNetworkV6 = "ip6:ipv6-icmp"
	listenAddressV6 = "::"

	// ipv4HeaderLen is the fixed (no-options) IPv4 header size embedded
	// ahead of the original datagram inside a TimeExceeded/Unreachable body.
	ipv4HeaderLen = 20
	// ipv6HeaderLen is the fixed IPv6 header size; extension headers are
	// not handled, matching the teacher's IPv4-only precedent of assuming
	// no options are present.
	ipv6HeaderLen = 40
)

// Global variables controlling debug/trace logging, mirroring the
// teacher's packet.go (env-var gated, read once at init).
var (
	netChannelDebug = os.Getenv("ICMPKG_DEBUG") == "T"
	netChannelTrace = os.Getenv("ICMPKG_TRACE") == "T"
)

// NetChannel is the concrete, dual-stack IcmpChannel used outside of
// tests: a single ICMP socket per IP family, written to and read from
// synchronously. Adapted from the teacher's packet.go, which ran the
// equivalent logic across goroutines and channels; the round scheduler
// requires a synchronous Send/Receive pair instead (spec.md §5).
type NetChannel struct {
	lo     *logpkg.Logger
	conn   *icmp.PacketConn
	isIPv6 bool
	buf    []byte
}

// NewNetChannel opens an ICMP socket appropriate for target's IP family.
func NewNetChannel(target net.IP) (*NetChannel, error) {
	isIPv6 := target.To4() == nil
	network, address := listenNetworkV4, listenAddressV4
	if isIPv6 {
		network, address = listenNetworkV6, listenAddressV6
	}
	conn, err := icmp.ListenPacket(network, address)
	if err != nil {
		return nil, fmt.Errorf("icmpkg: listen on %s:%s: %w", network, address, err)
	}
	nc := &NetChannel{conn: conn, isIPv6: isIPv6, buf: make([]byte, 1500)}
	if netChannelDebug || netChannelTrace {
		nc.lo = logpkg.New(os.Stdout, fmt.Sprintf("[icmp-channel%-14s] ", ""), logpkg.LstdFlags)
	}
	return nc, nil
}

func (c *NetChannel) debug(format string, arg ...any) {
	if netChannelDebug {
		c.lo.Println(fmt.Sprintf(format, arg...))
	}
}

func (c *NetChannel) trace(format string, arg ...any) {
	if netChannelTrace {
		c.lo.Println(fmt.Sprintf(format, arg...))
	}
}

// Send implements IcmpChannel.
func (c *NetChannel) Send(probe Probe, target net.IP, traceIdentifier TraceId, packetSize PacketSize, payloadPattern PayloadPattern) error {
	echoType := icmp.Type(ipv4.ICMPTypeEcho)
	if c.isIPv6 {
		echoType = ipv6.ICMPTypeEchoRequest
	}
	// packetSize covers the IP header, the 8-byte ICMP header and the payload.
	headerLen := ipv4HeaderLen + 8
	if c.isIPv6 {
		headerLen = ipv6HeaderLen + 8
	}
	payloadLen := 0
	if int(packetSize) > headerLen {
		payloadLen = int(packetSize) - headerLen
	}
	payload := make([]byte, payloadLen)
	for i := range payload {
		payload[i] = byte(payloadPattern)
	}
	msg := &icmp.Message{
		Type: echoType,
		Code: 0,
		Body: &icmp.Echo{
			ID:   int(traceIdentifier),
			Seq:  int(probe.Sequence),
			Data: payload,
		},
	}
	buf, err := msg.Marshal(nil)
	if err != nil {
		return fmt.Errorf("icmpkg: marshal echo request: %w", err)
	}

	if err := c.setTTL(int(probe.TTL)); err != nil {
		return fmt.Errorf("icmpkg: set ttl: %w", err)
	}

	dst := &net.IPAddr{IP: target}
	c.trace("Send() ttl=%d seq=%d -> %s", probe.TTL, probe.Sequence, target)
	if _, err := c.conn.WriteTo(buf, dst); err != nil {
		c.debug("Send() error: %v", err)
		return fmt.Errorf("icmpkg: write: %w", err)
	}
	return nil
}

func (c *NetChannel) setTTL(ttl int) error {
	if ttl <= 0 {
		return nil
	}
	if c.isIPv6 {
		return c.conn.IPv6PacketConn().SetHopLimit(ttl)
	}
	return c.conn.IPv4PacketConn().SetTTL(ttl)
}

// Receive implements IcmpChannel.
func (c *NetChannel) Receive(timeout time.Duration) (*IcmpResponse, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, fmt.Errorf("icmpkg: set read deadline: %w", err)
	}
	n, srcAddr, err := c.conn.ReadFrom(c.buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, nil
		}
		return nil, fmt.Errorf("icmpkg: read: %w", err)
	}
	recv := time.Now()
	proto := 1
	if c.isIPv6 {
		proto = 58
	}
	msg, err := icmp.ParseMessage(proto, c.buf[:n])
	if err != nil || msg == nil {
		return nil, nil
	}
	resp := c.messageToResponse(msg, srcAddr, recv)
	if resp != nil {
		c.debug("Receive() ok: %+v", resp)
	}
	return resp, nil
}

// messageToResponse maps a parsed ICMP message to an IcmpResponse, or nil
// if it is not one of the three variants the engine understands.
// Grounded on the teacher's packet.go messageRead, generalized to
// dual-stack ICMP types.
func (c *NetChannel) messageToResponse(msg *icmp.Message, srcAddr net.Addr, recv time.Time) *IcmpResponse {
	parseEcho := func(kind IcmpResponseKind, ec *icmp.Echo) *IcmpResponse {
		if ec == nil {
			return nil
		}
		return &IcmpResponse{
			Kind:       kind,
			Sequence:   uint16(ec.Seq),
			Identifier: uint16(ec.ID),
			Addr:       hostOf(srcAddr),
			Recv:       recv,
		}
	}

	parseEmbedded := func(kind IcmpResponseKind, data []byte) *IcmpResponse {
		headerLen := ipv4HeaderLen
		proto := 1
		if c.isIPv6 {
			headerLen = ipv6HeaderLen
			proto = 58
		}
		if len(data) <= headerLen {
			return nil
		}
		inner, err := icmp.ParseMessage(proto, data[headerLen:])
		if err != nil || inner == nil || inner.Body == nil {
			return nil
		}
		echo, ok := inner.Body.(*icmp.Echo)
		if !ok {
			return nil
		}
		return parseEcho(kind, echo)
	}

	if c.isIPv6 {
		switch msg.Type {
		case ipv6.ICMPTypeEchoReply:
			return parseEcho(IcmpResponseEchoReply, msg.Body.(*icmp.Echo))
		case ipv6.ICMPTypeTimeExceeded:
			te, ok := msg.Body.(*icmp.TimeExceeded)
			if !ok {
				return nil
			}
			return parseEmbedded(IcmpResponseTimeExceeded, te.Data)
		case ipv6.ICMPTypeDestinationUnreachable:
			du, ok := msg.Body.(*icmp.DstUnreach)
			if !ok {
				return nil
			}
			return parseEmbedded(IcmpResponseDestinationUnreachable, du.Data)
		}
		return nil
	}

	switch msg.Type {
	case ipv4.ICMPTypeEchoReply:
		return parseEcho(IcmpResponseEchoReply, msg.Body.(*icmp.Echo))
	case ipv4.ICMPTypeTimeExceeded:
		te, ok := msg.Body.(*icmp.TimeExceeded)
		if !ok {
			return nil
		}
		return parseEmbedded(IcmpResponseTimeExceeded, te.Data)
	case ipv4.ICMPTypeDestinationUnreachable:
		du, ok := msg.Body.(*icmp.DstUnreach)
		if !ok {
			return nil
		}
		return parseEmbedded(IcmpResponseDestinationUnreachable, du.Data)
	}
	return nil
}

// Close implements IcmpChannel.
func (c *NetChannel) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
