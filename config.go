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
	"net"
	"time"
)

// IcmpTracerConfig holds everything the round scheduler needs for a single trace.
type IcmpTracerConfig struct {
	// TargetAddr is the destination host.
	TargetAddr net.IP
	// TraceIdentifier is placed in outgoing ICMP echo requests and matched on incoming replies.
	TraceIdentifier TraceId
	// FirstTTL is the starting TTL for each round; must be >= 1.
	FirstTTL TimeToLive
	// MaxTTL is the upper TTL bound for a round.
	MaxTTL TimeToLive
	// GraceDuration is the silence required after the last response before ending a round.
	GraceDuration time.Duration
	// MaxInflight caps the number of unknown-target-ttl probes outstanding.
	MaxInflight MaxInflight
	// ReadTimeout bounds a single channel.Receive call.
	ReadTimeout time.Duration
	// MinRoundDuration is the minimum time a round must run before it can complete.
	MinRoundDuration time.Duration
	// MaxRoundDuration forces round completion even without finding the target.
	MaxRoundDuration time.Duration
	// PacketSize is the total wire size of outgoing probes.
	PacketSize PacketSize
	// PayloadPattern is the byte value used to pad the ICMP echo payload.
	PayloadPattern PayloadPattern
	// VerifyTargetAddr additionally requires the EchoReply's responder to
	// equal TargetAddr before treating it as the target (spec.md §7/§9
	// "SpuriousTarget" hardening; SPEC_FULL.md decision D2). Off by
	// default to match the reference behavior.
	VerifyTargetAddr bool
}

// NewIcmpTracerConfig builds a config with the reference defaults for
// every field not explicitly meaningful to the caller (grace/round
// durations, read timeout, packet shape), mirroring the teacher's
// TracerouteDuration(address, maxTTL, count, writeDur, readDur)
// convenience constructors.
func NewIcmpTracerConfig(target net.IP, traceIdentifier TraceId, firstTTL, maxTTL TimeToLive) (*IcmpTracerConfig, error) {
	cfg := &IcmpTracerConfig{
		TargetAddr:       target,
		TraceIdentifier:  traceIdentifier,
		FirstTTL:         firstTTL,
		MaxTTL:           maxTTL,
		GraceDuration:    100 * time.Millisecond,
		MaxInflight:      24,
		ReadTimeout:      10 * time.Millisecond,
		MinRoundDuration: 1 * time.Second,
		MaxRoundDuration: 5 * time.Second,
		PacketSize:       84,
		PayloadPattern:   0,
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *IcmpTracerConfig) validate() error {
	if c.TargetAddr == nil {
		return fmt.Errorf("%w: target address is required", ErrInvalidConfig)
	}
	if c.FirstTTL < 1 {
		return fmt.Errorf("%w: first ttl must be >= 1", ErrInvalidConfig)
	}
	if c.MaxTTL < c.FirstTTL {
		return fmt.Errorf("%w: max ttl must be >= first ttl", ErrInvalidConfig)
	}
	if c.MaxTTL > bufferSize {
		return fmt.Errorf("%w: max ttl must be <= %d", ErrInvalidConfig, bufferSize)
	}
	if c.ReadTimeout >= c.MinRoundDuration {
		return fmt.Errorf("%w: read timeout must be well below min round duration", ErrInvalidConfig)
	}
	return nil
}
