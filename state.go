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

// tracerState is the mutable state owned exclusively by the round
// scheduler (IcmpTracer). No locking is needed: it is never touched from
// more than one goroutine.
type tracerState struct {
	// buffer is the ring of in-flight/past probes, indexed by sequence mod bufferSize.
	buffer [bufferSize]Probe

	sequence      Sequence
	roundSequence Sequence
	ttl           TimeToLive
	round         Round
	roundStart    time.Time

	targetFound    bool
	maxReceivedTTL *TimeToLive
	targetTTL      *TimeToLive
	targetSeq      *Sequence
	receivedTime   *time.Time
}

// newTracerState initializes state for a trace starting at firstTTL.
func newTracerState(firstTTL TimeToLive) *tracerState {
	return &tracerState{
		sequence:      minSequence,
		roundSequence: minSequence,
		ttl:           firstTTL,
		round:         0,
		roundStart:    time.Now(),
	}
}

// probes yields probes beginning at roundSequence, cycling through the
// ring buffer in order. Callers truncate to the round size they computed.
func (st *tracerState) probes() []Probe {
	out := make([]Probe, 0, bufferSize)
	start := st.roundSequence.index()
	for i := 0; i < bufferSize; i++ {
		out = append(out, st.buffer[(start+i)%bufferSize])
	}
	return out
}

// probeAt returns a copy of the stored probe for sequence s.
func (st *tracerState) probeAt(s Sequence) Probe {
	return st.buffer[s.index()]
}

// ttlValue returns the TTL the next probe will be sent with.
func (st *tracerState) ttlValue() TimeToLive {
	return st.ttl
}

// inRound reports whether sequence s belongs to the round currently in progress.
func (st *tracerState) inRound(s Sequence) bool {
	return s.geWrap(st.roundSequence)
}

// nextProbe constructs, stores and returns a fresh Awaited probe at the
// current sequence/ttl, then advances both for the following call.
func (st *tracerState) nextProbe() Probe {
	probe := newProbe(st.sequence, st.ttl, st.round, time.Now())
	st.buffer[st.sequence.index()] = probe
	st.ttl++
	st.sequence = st.sequence.next()
	return probe
}

// updateProbe overwrites the stored probe for sequence s with probe,
// updates maxReceivedTTL/receivedTime/targetFound, and (re-)selects the
// target TTL per spec.md §4.5 and SPEC_FULL.md decision D1.
func (st *tracerState) updateProbe(s Sequence, probe Probe, receivedTime time.Time, found bool) {
	switch {
	case st.targetTTL == nil && found:
		ttl := probe.TTL
		seq := s
		st.targetTTL = &ttl
		st.targetSeq = &seq
	case st.targetTTL != nil && st.targetSeq != nil && found && s.ltWrap(*st.targetSeq):
		ttl := probe.TTL
		seq := s
		st.targetTTL = &ttl
		st.targetSeq = &seq
	case st.targetTTL != nil && st.targetSeq == nil && found:
		// Decision D1 (SPEC_FULL.md §6): a prior round found the target but
		// advanceRound cleared targetSeq without clearing targetTTL. Without
		// this arm the first EchoReply of every later round would be
		// silently discarded forever, per spec.md §9's open question.
		ttl := probe.TTL
		seq := s
		st.targetTTL = &ttl
		st.targetSeq = &seq
	}

	st.buffer[s.index()] = probe
	if st.maxReceivedTTL == nil || probe.TTL > *st.maxReceivedTTL {
		ttl := probe.TTL
		st.maxReceivedTTL = &ttl
	}
	rt := receivedTime
	st.receivedTime = &rt
	st.targetFound = st.targetFound || found
}

// advanceRound starts a new round at the current sequence, resetting the
// per-round fields. targetTTL is deliberately retained across rounds; see
// SPEC_FULL.md decision D1.
func (st *tracerState) advanceRound(firstTTL TimeToLive) {
	st.targetFound = false
	st.roundSequence = st.sequence
	st.receivedTime = nil
	st.roundStart = time.Now()
	st.maxReceivedTTL = nil
	st.round++
	st.ttl = firstTTL
	st.targetSeq = nil
}

// hostOf extracts the IP from a socket read's source address; NetChannel
// uses it to fill IcmpResponse.Addr, which becomes a completed probe's Host.
func hostOf(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case *net.IPAddr:
		return a.IP
	case *net.UDPAddr:
		return a.IP
	default:
		return nil
	}
}
