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
	"time"

	"github.com/icmp-route/icmpkg"
)

// probeOutput adapts icmpkg.Probe for JSON/XML serialization.
type probeOutput struct {
	TTL    int           `json:"ttl" xml:"TTL"`
	Host   string        `json:"host" xml:"Host"`
	Status string        `json:"status" xml:"Status"`
	Type   string        `json:"type" xml:"Type"`
	Rtt    time.Duration `json:"rtt" xml:"Rtt"`
}

// newProbeOutput adapts probe for serialization, computing RTT from its sent/received timestamps.
func newProbeOutput(probe icmpkg.Probe) probeOutput {
	var rtt time.Duration
	if !probe.Received.IsZero() && !probe.Sent.IsZero() {
		rtt = probe.Received.Sub(probe.Sent)
	}
	host := ""
	if probe.Host != nil {
		host = probe.Host.String()
	}
	return probeOutput{
		TTL:    int(probe.TTL),
		Host:   host,
		Status: probe.Status.String(),
		Type:   probe.IcmpPacketType.String(),
		Rtt:    rtt,
	}
}

// String returns a string representation of the probe for logging or debugging.
func (p *probeOutput) String() string {
	host := p.Host
	if host == "" {
		host = "*"
	}
	return fmt.Sprintf("TTL: %d, Host: %s, Status: %s, Type: %s, Rtt: %v", p.TTL, host, p.Status, p.Type, p.Rtt)
}
