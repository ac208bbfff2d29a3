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
	"strings"
	"sync"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

// Constants defining the network protocol and listening address for ICMP communication.
const (
	listenNetwork = "ip4:icmp" // Specifies the ICMP over IPv4 network protocol.
	listenAddress = "0.0.0.0"  // Listening address to accept all incoming connections.
)

// Global variables controlling debug and trace logging based on environment variables.
var (
	icmpkgDebug = func() bool { return os.Getenv("ICMPKG_DEBUG") == "T" } // Enables debug logging if ICMPKG_DEBUG is set to "T".
	icmpkgTrace = func() bool { return os.Getenv("ICMPKG_TRACE") == "T" } // Enables trace logging if ICMPKG_TRACE is set to "T".
)

// sentAt records when a ping request for a given ID-Seq was written, so the
// matching reply's RTT can be computed. pingEngine never varies TTL across
// probes, so unlike the teacher's traceroute correlation there is nothing
// per-hop to remember here beyond the send time.
type sentAt struct {
	unix int64 // Unix timestamp in milliseconds when the packet was sent.
}

// packet represents an ICMP packet handler with connection, logging, and synchronization primitives.
type packet struct {
	lo         *logpkg.Logger    // Logger instance for debug and trace output.
	packetConn *icmp.PacketConn  // ICMP packet connection for sending and receiving packets.
	wc         chan<- *Proto     // Write channel for sending Proto messages.
	rc         <-chan *Proto     // Read channel for receiving Proto messages.
	mu         *sync.Mutex       // Mutex for thread-safe access to the send-time map.
	m          map[string]sentAt // Send timestamps for in-flight requests, keyed by ID-Seq.
	wec, rec   chan struct{}     // Channels for signaling write and read goroutine termination.
}

// newPacket creates and initializes a new packet handler instance.
func newPacket(wc chan<- *Proto, rc <-chan *Proto) *packet {
	pkt := &packet{
		wc:  wc,                      // Initialize write channel.
		rc:  rc,                      // Initialize read channel.
		mu:  &sync.Mutex{},           // Initialize mutex for thread safety.
		m:   make(map[string]sentAt), // Initialize send-time map.
		wec: make(chan struct{}, 1),  // Initialize write exit channel with buffer size 1.
		rec: make(chan struct{}, 1),  // Initialize read exit channel with buffer size 1.
	}
	// Set up logger if debug or trace mode is enabled.
	if icmpkgDebug() || icmpkgTrace() {
		pkt.lo = logpkg.New(os.Stdout, fmt.Sprintf("[icmp-packet%0-18s] ", ""), logpkg.LstdFlags)
	}
	// Start the packet handler's main loop.
	pkt.run()
	return pkt
}

// debug logs a debug message if debug mode is enabled.
func (p *packet) debug(format string, arg ...any) {
	if icmpkgDebug() {
		p.lo.Println(fmt.Sprintf(format, arg...)) // Log formatted debug message.
	}
}

// trace logs a trace message if trace mode is enabled.
func (p *packet) trace(format string, arg ...any) {
	if icmpkgTrace() {
		p.lo.Println(fmt.Sprintf(format, arg...)) // Log formatted trace message.
	}
}

// listen sets up the ICMP packet connection to listen on the specified network and address.
func (p *packet) listen() {
	p.trace("listen() start")     // Log start of listen operation.
	defer p.trace("listen() end") // Log end of listen operation.
	var err error
	// Create an ICMP packet connection.
	p.packetConn, err = icmp.ListenPacket(listenNetwork, listenAddress)
	if err != nil {
		// Panic if listening fails, including error details.
		panic(fmt.Sprintf("listen() listen on[%s:%s] error:%v", listenNetwork, listenAddress, err))
		return
	}
	// Log successful listening setup.
	p.trace("listen() listen on %s:%s", listenNetwork, listenAddress)
}

// run initializes the packet handler by setting up the listener and starting read/write goroutines.
func (p *packet) run() {
	p.trace("run() start")     // Log start of run operation.
	defer p.trace("run() end") // Log end of run operation.
	p.listen()                 // Set up ICMP listener.
	p.start()                  // Start read and write goroutines.
}

// start launches separate goroutines for reading and writing ICMP packets.
func (p *packet) start() {
	p.trace("start() start")     // Log start of start operation.
	defer p.trace("start() end") // Log end of start operation.
	go p.startWrite()            // Start write goroutine.
	go p.startRead()             // Start read goroutine.
}

// stop terminates the read and write goroutines and closes the packet connection.
func (p *packet) stop() {
	p.trace("stop() start")     // Log start of stop operation.
	defer p.trace("stop() end") // Log end of stop operation.
	p.wec <- struct{}{}         // Signal write goroutine to exit.
	close(p.wec)                // Close write exit channel.
	p.rec <- struct{}{}         // Signal read goroutine to exit.
	close(p.rec)                // Close read exit channel.
	if p.packetConn != nil {
		_ = p.packetConn.Close() // Close the ICMP packet connection.
	}
}

// startWrite handles writing ICMP packets to the network.
func (p *packet) startWrite() {
	p.trace("startWrite() start")     // Log start of write operation.
	defer p.trace("startWrite() end") // Log end of write operation.
	for {
		select {
		case <-p.wec:
			return // Exit if write exit channel is signaled.
		case pto, ok := <-p.rc:
			if !ok {
				return // Exit if read channel is closed.
			}
			setTtl := pto.TTL > 0 // Check if TTL needs to be set (pingEngine always passes 0: no override).
			if setTtl {
				// Set TTL for the packet connection.
				if err := p.packetConn.IPv4PacketConn().SetTTL(pto.TTL); p.closed(err) {
					return // Exit if connection is closed.
				}
			}
			// Write packet data to the destination address.
			_, err := p.packetConn.WriteTo(pto.buf(), pto.Addr)
			if err != nil {
				// Log error if write fails.
				p.debug("conn<<<<<<-err: %s, %v", pto, err)
				if p.closed(err) {
					return // Exit if connection is closed.
				}
			} else {
				// Log successful write and record its send time.
				p.debug("conn<<<<<<-ok: %s", pto)
				p.recordSent(pto.ID, pto.Seq)
			}
		}
	}
}

// startRead handles reading ICMP packets from the network.
func (p *packet) startRead() {
	p.trace("startRead() start")     // Log start of read operation.
	defer p.trace("startRead() end") // Log end of read operation.
	buf := make([]byte, 64)          // Buffer for reading ICMP packets.
	for {
		select {
		case <-p.rec:
			close(p.wc)                      // Close write channel on exit.
			p.trace("startRead() closed wc") // Log write channel closure.
			return
		default:
			// Set a read deadline to prevent blocking indefinitely.
			if err := p.packetConn.SetReadDeadline(time.Now().Add(time.Millisecond * 10)); p.closed(err) {
				close(p.wc)                      // Close write channel if connection is closed.
				p.trace("startRead() closed wc") // Log write channel closure.
				return
			}
			// Read packet data from the connection.
			n, srcAddr, err := p.packetConn.ReadFrom(buf)
			if p.closed(err) {
				close(p.wc)                      // Close write channel if connection is closed.
				p.trace("startRead() closed wc") // Log write channel closure.
				return
			}
			if n > 0 && srcAddr != nil {
				buf2 := buf[:n] // Slice buffer to actual data size.
				// Parse received ICMP message.
				if msg, _ := icmp.ParseMessage(1, buf2); msg != nil {
					// Process the parsed message and send to write channel if valid.
					if pto := p.messageRead(msg, srcAddr); pto != nil {
						p.debug("conn->>>>>>ok: %s", pto.String()) // Log successful read.
						p.wc <- pto                                // Send Proto message to write channel.
					}
				}
			}
		}
	}
}

// messageRead processes a received ICMP message and returns a Proto instance
// if it is a genuine Echo Reply from the target. Unlike the teacher's
// traceroute mode, pingEngine never sets a low TTL to provoke an
// intermediate router's Time Exceeded reply, so an Echo Reply is the only
// message type that can validly answer a ping request here — treating a
// Time Exceeded the same way would let a router's reply masquerade as the
// target's.
func (p *packet) messageRead(msg *icmp.Message, srcAddr net.Addr) (pto *Proto) {
	if msg.Type != ipv4.ICMPTypeEchoReply {
		return // Ignore anything other than a genuine Echo Reply.
	}
	ec, ok := msg.Body.(*icmp.Echo)
	if !ok || ec.ID <= 0 {
		return
	}
	// Look up the send time and compute RTT.
	if rtt := p.takeRtt(ec.ID, ec.Seq); rtt > 0 {
		pto = pongProto(0, ec.ID, ec.Seq, srcAddr, aip4(srcAddr), rtt)
	}
	return
}

// recordSent stores the send timestamp for a packet in the map, keyed by ID-Seq.
func (p *packet) recordSent(id, seq int) {
	p.mu.Lock()                        // Lock for thread-safe map access.
	defer p.mu.Unlock()                // Unlock after map access.
	k := fmt.Sprintf("%d-%d", id, seq) // Create key from ID and sequence number.
	p.m[k] = sentAt{time.Now().UnixMilli()}
}

// takeRtt retrieves and clears the send timestamp for id/seq, returning the
// round-trip time since it was recorded.
func (p *packet) takeRtt(id, seq int) (rtt time.Duration) {
	p.mu.Lock()                        // Lock for thread-safe map access.
	defer p.mu.Unlock()                // Unlock after map access.
	k := fmt.Sprintf("%d-%d", id, seq) // Create key from ID and sequence number.
	opt, ok := p.m[k]                  // Retrieve send time from map.
	if !ok {
		return // Return zero if not found.
	}
	delete(p.m, k)                // Remove entry from map.
	now := time.Now().UnixMilli() // Get current timestamp.
	ms := now - opt.unix          // Calculate time difference in milliseconds.
	if ms == 0 {
		ms = 1 // Ensure non-zero RTT.
	}
	return time.Duration(ms) * time.Millisecond
}

// closed checks if an error indicates a closed network connection.
func (p *packet) closed(err error) (closed bool) {
	return err != nil && strings.HasSuffix(err.Error(), "use of closed network connection")
}
