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
	"context"
	"fmt"
	logpkg "log"
	"os"
	"time"
)

// Global variables controlling debug/trace logging for the round
// scheduler, mirroring the teacher's pingDebug/pingTrace/tracerouteDebug
// style (env-var gated, read once at init).
var (
	tracerDebug = os.Getenv("TRACER_DEBUG") == "T"
	tracerTrace = os.Getenv("TRACER_TRACE") == "T"
)

// Publisher receives each probe of a completed round, in ascending
// sequence order. It is called synchronously from the scheduler
// goroutine and must not block or fail.
type Publisher func(probe Probe)

// IcmpTracer is the round scheduler: the outer loop that decides send vs.
// wait, invokes the channel, classifies responses, and advances rounds.
// It is strictly single-threaded; see spec.md §5.
type IcmpTracer struct {
	cfg     IcmpTracerConfig
	publish Publisher
	lo      *logpkg.Logger
}

// NewIcmpTracer creates a tracer for cfg, invoking publish once for each
// probe of every completed round.
func NewIcmpTracer(cfg IcmpTracerConfig, publish Publisher) *IcmpTracer {
	t := &IcmpTracer{cfg: cfg, publish: publish}
	if tracerDebug || tracerTrace {
		t.lo = logpkg.New(os.Stdout, fmt.Sprintf("[tracer:%-22s] ", cfg.TargetAddr), logpkg.LstdFlags)
	}
	return t
}

func (t *IcmpTracer) debug(format string, arg ...any) {
	if tracerDebug {
		t.lo.Println(fmt.Sprintf(format, arg...))
	}
}

func (t *IcmpTracer) trace(format string, arg ...any) {
	if tracerTrace {
		t.lo.Println(fmt.Sprintf(format, arg...))
	}
}

// Trace runs the round scheduler against channel until ctx is cancelled
// or a fatal channel error occurs. It traces continuously, publishing one
// round's worth of probes at a time (spec.md §4.4); callers that want a
// single round (e.g. a one-shot traceroute CLI) should cancel ctx from
// within their Publisher after observing the first round.
func (t *IcmpTracer) Trace(ctx context.Context, channel IcmpChannel) error {
	t.trace("Trace() start")
	defer t.trace("Trace() end")
	st := newTracerState(t.cfg.FirstTTL)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := t.sendRequest(channel, st); err != nil {
			return err
		}
		if err := t.recvResponse(channel, st); err != nil {
			return err
		}
		t.updateRound(st)
	}
}

// sendRequest implements spec.md §4.4(a).
func (t *IcmpTracer) sendRequest(channel IcmpChannel, st *tracerState) error {
	if st.targetFound {
		return nil
	}
	if st.ttlValue() > t.cfg.MaxTTL {
		return nil
	}
	canSend := false
	if st.targetTTL != nil {
		canSend = st.ttlValue() <= *st.targetTTL
	} else {
		maxReceived := TimeToLive(0)
		if st.maxReceivedTTL != nil {
			maxReceived = *st.maxReceivedTTL
		}
		canSend = st.ttlValue()-maxReceived < TimeToLive(t.cfg.MaxInflight)
	}
	if !canSend {
		return nil
	}
	probe := st.nextProbe()
	t.trace("sendRequest() ttl=%d seq=%d", probe.TTL, probe.Sequence)
	if err := channel.Send(probe, t.cfg.TargetAddr, t.cfg.TraceIdentifier, t.cfg.PacketSize, t.cfg.PayloadPattern); err != nil {
		return &TraceError{Phase: phaseSend, Err: err}
	}
	return nil
}

// recvResponse implements spec.md §4.4(b).
func (t *IcmpTracer) recvResponse(channel IcmpChannel, st *tracerState) error {
	resp, err := channel.Receive(t.cfg.ReadTimeout)
	if err != nil {
		return &TraceError{Phase: phaseReceive, Err: err}
	}
	if resp == nil {
		return nil
	}
	if resp.Identifier != uint16(t.cfg.TraceIdentifier) {
		t.debug("recvResponse() discarded: foreign identifier %d", resp.Identifier)
		return nil
	}
	sequence := Sequence(resp.Sequence)
	if !st.inRound(sequence) {
		t.debug("recvResponse() discarded: sequence %d not in round", sequence)
		return nil
	}

	status, typ, found := classify(resp.Kind)
	if found && t.cfg.VerifyTargetAddr && !resp.Addr.Equal(t.cfg.TargetAddr) {
		t.debug("recvResponse() spurious target reply from %s, ignoring found", resp.Addr)
		found = false
	}

	probe := st.probeAt(sequence).withResponse(status, typ, resp.Addr, resp.Recv)
	t.trace("recvResponse() seq=%d type=%s found=%v", sequence, typ, found)
	st.updateProbe(sequence, probe, resp.Recv, found)
	return nil
}

// updateRound implements spec.md §4.4(c) and §4.4.1.
func (t *IcmpTracer) updateRound(st *tracerState) {
	now := time.Now()
	roundDuration := durationSince(st.roundStart, now)

	complete := roundDuration > t.cfg.MaxRoundDuration ||
		(roundDuration > t.cfg.MinRoundDuration && exceeds(st.receivedTime, now, t.cfg.GraceDuration) && st.targetFound)
	if !complete {
		return
	}
	t.publishRound(st)
	st.advanceRound(t.cfg.FirstTTL)
}

func (t *IcmpTracer) publishRound(st *tracerState) {
	roundSize := t.roundSize(st)
	if roundSize == 0 {
		return
	}
	probes := st.probes()
	if roundSize > len(probes) {
		roundSize = len(probes)
	}
	for _, probe := range probes[:roundSize] {
		t.publish(probe)
	}
}

// roundSize implements spec.md §4.4.1.
func (t *IcmpTracer) roundSize(st *tracerState) int {
	if st.targetTTL != nil {
		return int(*st.targetTTL) - int(t.cfg.FirstTTL) + 1
	}
	if st.maxReceivedTTL != nil {
		size0 := int(*st.maxReceivedTTL) - int(t.cfg.FirstTTL) + 1
		maxAllowed := int(t.cfg.MaxTTL) - int(t.cfg.FirstTTL)
		if size0 > maxAllowed {
			size0 = maxAllowed
		}
		return size0 + 1
	}
	return 0
}

// exceeds reports whether the duration between start and end is greater
// than dur. A nil start (no response received yet) never exceeds.
func exceeds(start *time.Time, end time.Time, dur time.Duration) bool {
	if start == nil {
		return false
	}
	return durationSince(*start, end) > dur
}

// durationSince treats a negative duration (clock went backward) as zero,
// per spec.md §7's TimestampRegression handling.
func durationSince(start, end time.Time) time.Duration {
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return d
}
