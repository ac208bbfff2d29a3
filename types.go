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

// Sequence identifies a single probe end-to-end. It is embedded in the
// ICMP echo sequence field and wraps between minSequence and maxSequence.
type Sequence uint16

// TimeToLive is placed in the IP TTL / IPv6 hop-limit field of outgoing probes.
type TimeToLive uint8

// Round is a monotonically increasing sweep counter.
type Round uint64

// TraceId is embedded in the ICMP echo identifier to distinguish this
// process's probes from unrelated ICMP traffic.
type TraceId uint16

// MaxInflight caps the number of unknown-target-ttl probes outstanding.
type MaxInflight uint8

// PacketSize is the total wire size (IP+ICMP+payload) of an outgoing probe.
type PacketSize uint16

// PayloadPattern is the byte value used to pad the ICMP echo payload.
type PayloadPattern uint8

const (
	// minSequence is the first sequence number ever assigned to a probe.
	minSequence Sequence = 33000
	// maxSequence is the last sequence number before wrapping back to minSequence.
	maxSequence Sequence = 65535
	// bufferSize is the number of slots in the ring buffer, and so the
	// largest TTL / inflight count the engine can track.
	bufferSize = 256
)

// index returns the ring buffer slot for this sequence.
func (s Sequence) index() int {
	return int(s) % bufferSize
}

// next returns the sequence following s, wrapping maxSequence back to minSequence.
func (s Sequence) next() Sequence {
	if s == maxSequence {
		return minSequence
	}
	return s + 1
}

// geWrap reports whether s is the same or later than other.
//
// This is a direct, non-wrap-aware integer comparison: it matches the
// reference implementation and is correct only while a single round's
// span of sequences does not exceed half the sequence space. See
// spec.md §4.3.
func (s Sequence) geWrap(other Sequence) bool {
	return s >= other
}

// ltWrap reports whether s is strictly earlier than other, using the same
// direct comparison as geWrap.
func (s Sequence) ltWrap(other Sequence) bool {
	return s < other
}
