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

// Package icmpkg provides an ICMP-based path-tracing engine alongside a
// simpler ICMP echo ping companion mode.
//
// The path-tracing engine (IcmpTracer) discovers the sequence of routers
// between the local host and a target by emitting ICMP Echo Requests with
// ascending TTL and correlating the Time Exceeded, Destination
// Unreachable and Echo Reply responses back to the probes that provoked
// them. It runs as a single-threaded round scheduler: each round sweeps
// TTLs from a configured starting value until the target responds or the
// round's time budget is exhausted, then publishes the round's probes to
// a caller-supplied sink and starts the next round.
//
// The package includes the following main components:
//   - Probe / tracerState: the per-probe record and the 256-slot ring
//     buffer that is the engine's only live memory of in-flight and past
//     probes.
//   - IcmpTracer: the round scheduler — decides when to send the next
//     probe, classifies incoming responses, and determines round
//     completion.
//   - IcmpChannel / NetChannel: the raw ICMP socket collaborator the
//     scheduler consumes (send/receive), with a dual IPv4/IPv6
//     implementation built on golang.org/x/net/icmp.
//   - pingEngine / Proto: a simpler, non-TTL-sweeping ICMP echo ping mode,
//     retained from this package's earlier ping/traceroute implementation.
//
// Usage examples:
//
//	// Ping example: Perform a ping to 8.8.8.8 with 3 packets.
//	ping := icmpkg.Ping("8.8.8.8", 3)
//	ping.PongHandler(func(pong *icmpkg.Proto) {
//	    fmt.Printf("Received: %s\n", pong.String())
//	})
//	ping.Run()
//
//	// Traceroute example: trace the path to 8.8.8.8, one round only.
//	cfg, _ := icmpkg.NewIcmpTracerConfig(net.ParseIP("8.8.8.8"), 1234, 1, 30)
//	channel, _ := icmpkg.NewNetChannel(cfg.TargetAddr)
//	defer channel.Close()
//	ctx, cancel := context.WithCancel(context.Background())
//	tracer := icmpkg.NewIcmpTracer(*cfg, func(p icmpkg.Probe) {
//	    fmt.Printf("%d %v\n", p.TTL, p.Host)
//	    cancel()
//	})
//	_ = tracer.Trace(ctx, channel)
//
// Environment variables:
//   - ICMPKG_DEBUG / ICMPKG_TRACE: debug/trace logging for the ICMP socket layers.
//   - PING_DEBUG / PING_TRACE: debug/trace logging for pingEngine.
//   - TRACER_DEBUG / TRACER_TRACE: debug/trace logging for IcmpTracer's round scheduler.
//
// The package uses "golang.org/x/net/icmp", "golang.org/x/net/ipv4" and
// "golang.org/x/net/ipv6" for low-level ICMP communication, supporting
// both IPv4 and IPv6 targets.
package icmpkg
