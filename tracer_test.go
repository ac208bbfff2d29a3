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
	"net"
	"testing"
	"time"
)

func testConfig(t *testing.T) IcmpTracerConfig {
	t.Helper()
	cfg, err := NewIcmpTracerConfig(net.ParseIP("198.51.100.1"), 42, 1, 10)
	if err != nil {
		t.Fatalf("NewIcmpTracerConfig() error = %v", err)
	}
	return *cfg
}

func TestSendRequestStopsWhenTargetFound(t *testing.T) {
	cfg := testConfig(t)
	tr := NewIcmpTracer(cfg, func(Probe) {})
	st := newTracerState(cfg.FirstTTL)
	st.targetFound = true

	fc := &fakeChannel{}
	if err := tr.sendRequest(fc, st); err != nil {
		t.Fatalf("sendRequest() error = %v", err)
	}
	if len(fc.sent) != 0 {
		t.Error("sendRequest must not send once the target is found")
	}
}

func TestSendRequestStopsAboveMaxTTL(t *testing.T) {
	cfg := testConfig(t)
	tr := NewIcmpTracer(cfg, func(Probe) {})
	st := newTracerState(cfg.FirstTTL)
	st.ttl = cfg.MaxTTL + 1

	fc := &fakeChannel{}
	if err := tr.sendRequest(fc, st); err != nil {
		t.Fatalf("sendRequest() error = %v", err)
	}
	if len(fc.sent) != 0 {
		t.Error("sendRequest must not send past MaxTTL")
	}
}

func TestSendRequestRespectsMaxInflightCap(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxInflight = 3
	tr := NewIcmpTracer(cfg, func(Probe) {})
	st := newTracerState(cfg.FirstTTL)

	fc := &fakeChannel{}
	for i := 0; i < 10; i++ {
		if err := tr.sendRequest(fc, st); err != nil {
			t.Fatalf("sendRequest() error = %v", err)
		}
	}
	// With no responses yet, maxReceivedTTL is treated as 0: sendRequest
	// keeps sending while ttl-0 < MaxInflight, i.e. TTLs 1..MaxInflight-1.
	want := int(cfg.MaxInflight) - 1
	if len(fc.sent) != want {
		t.Errorf("sent %d probes; want %d with no responses received", len(fc.sent), want)
	}
}

func TestSendRequestCapsAtTargetTTL(t *testing.T) {
	cfg := testConfig(t)
	tr := NewIcmpTracer(cfg, func(Probe) {})
	st := newTracerState(cfg.FirstTTL)
	targetTTL := TimeToLive(3)
	st.targetTTL = &targetTTL

	fc := &fakeChannel{}
	for i := 0; i < 10; i++ {
		if err := tr.sendRequest(fc, st); err != nil {
			t.Fatalf("sendRequest() error = %v", err)
		}
	}
	if len(fc.sent) != int(targetTTL) {
		t.Errorf("sent %d probes; want exactly targetTTL=%d (ttls 1..3)", len(fc.sent), targetTTL)
	}
}

// TestRecvResponseSingleTimeExceeded covers scenario S1: a single
// TimeExceeded response in round 0 completes its probe without setting
// targetFound.
func TestRecvResponseSingleTimeExceeded(t *testing.T) {
	cfg := testConfig(t)
	tr := NewIcmpTracer(cfg, func(Probe) {})
	st := newTracerState(cfg.FirstTTL)
	probe := st.nextProbe()

	fc := &fakeChannel{queue: []*IcmpResponse{
		{Kind: IcmpResponseTimeExceeded, Sequence: uint16(probe.Sequence), Identifier: uint16(cfg.TraceIdentifier), Addr: net.ParseIP("203.0.113.1"), Recv: time.Now()},
	}}
	if err := tr.recvResponse(fc, st); err != nil {
		t.Fatalf("recvResponse() error = %v", err)
	}

	got := st.probeAt(probe.Sequence)
	if got.Status != ProbeStatusComplete || got.IcmpPacketType != IcmpPacketTypeTimeExceeded {
		t.Errorf("probe = %+v; want Complete/TimeExceeded", got)
	}
	if st.targetFound {
		t.Error("targetFound must stay false for a TimeExceeded response")
	}
	if st.maxReceivedTTL == nil || *st.maxReceivedTTL != probe.TTL {
		t.Errorf("maxReceivedTTL = %v; want %d", st.maxReceivedTTL, probe.TTL)
	}
}

// TestRecvResponseForeignIdentifierIgnored covers scenario S4: a response
// carrying an identifier that does not match this trace's is discarded
// without touching state.
func TestRecvResponseForeignIdentifierIgnored(t *testing.T) {
	cfg := testConfig(t)
	tr := NewIcmpTracer(cfg, func(Probe) {})
	st := newTracerState(cfg.FirstTTL)
	probe := st.nextProbe()

	fc := &fakeChannel{queue: []*IcmpResponse{
		{Kind: IcmpResponseEchoReply, Sequence: uint16(probe.Sequence), Identifier: uint16(cfg.TraceIdentifier) + 1, Addr: cfg.TargetAddr, Recv: time.Now()},
	}}
	if err := tr.recvResponse(fc, st); err != nil {
		t.Fatalf("recvResponse() error = %v", err)
	}
	if st.targetFound {
		t.Error("a foreign-identifier response must not be treated as found")
	}
	if st.probeAt(probe.Sequence).Status != ProbeStatusAwaited {
		t.Error("a foreign-identifier response must not complete the probe")
	}
}

// TestRecvResponseOutOfRoundIgnored covers the out-of-round-sequence
// discard path alongside S4.
func TestRecvResponseOutOfRoundIgnored(t *testing.T) {
	cfg := testConfig(t)
	tr := NewIcmpTracer(cfg, func(Probe) {})
	st := newTracerState(cfg.FirstTTL)
	st.roundSequence = minSequence + 5

	fc := &fakeChannel{queue: []*IcmpResponse{
		{Kind: IcmpResponseEchoReply, Sequence: uint16(minSequence), Identifier: uint16(cfg.TraceIdentifier), Addr: cfg.TargetAddr, Recv: time.Now()},
	}}
	if err := tr.recvResponse(fc, st); err != nil {
		t.Fatalf("recvResponse() error = %v", err)
	}
	if st.targetFound {
		t.Error("a response for a sequence outside the current round must be discarded")
	}
}

// TestRecvResponseSpuriousTargetHardening covers SPEC_FULL.md decision D2:
// with VerifyTargetAddr enabled, an EchoReply from an address other than
// TargetAddr must not set targetFound.
func TestRecvResponseSpuriousTargetHardening(t *testing.T) {
	cfg := testConfig(t)
	cfg.VerifyTargetAddr = true
	tr := NewIcmpTracer(cfg, func(Probe) {})
	st := newTracerState(cfg.FirstTTL)
	probe := st.nextProbe()

	fc := &fakeChannel{queue: []*IcmpResponse{
		{Kind: IcmpResponseEchoReply, Sequence: uint16(probe.Sequence), Identifier: uint16(cfg.TraceIdentifier), Addr: net.ParseIP("203.0.113.99"), Recv: time.Now()},
	}}
	if err := tr.recvResponse(fc, st); err != nil {
		t.Fatalf("recvResponse() error = %v", err)
	}
	if st.targetFound {
		t.Error("VerifyTargetAddr must reject an EchoReply from an unexpected address")
	}
	if got := st.probeAt(probe.Sequence); got.IcmpPacketType != IcmpPacketTypeEchoReply {
		t.Errorf("the probe should still record EchoReply, just not as the found target: got %+v", got)
	}
}

// TestUpdateRoundCompletesOnTargetFound covers scenario S5: a round
// completes once MinRoundDuration has elapsed and GraceDuration of
// silence has passed since the target was found.
func TestUpdateRoundCompletesOnTargetFound(t *testing.T) {
	cfg := testConfig(t)
	cfg.MinRoundDuration = time.Millisecond
	cfg.GraceDuration = time.Millisecond
	cfg.MaxRoundDuration = time.Hour

	var published []Probe
	tr := NewIcmpTracer(cfg, func(p Probe) { published = append(published, p) })
	st := newTracerState(cfg.FirstTTL)
	probe := st.nextProbe()
	completed := probe.withResponse(ProbeStatusComplete, IcmpPacketTypeEchoReply, cfg.TargetAddr, time.Now())
	st.updateProbe(probe.Sequence, completed, time.Now(), true)

	st.roundStart = time.Now().Add(-time.Second)
	past := time.Now().Add(-time.Second)
	st.receivedTime = &past

	round := st.round
	tr.updateRound(st)

	if len(published) == 0 {
		t.Fatal("updateRound should publish once the target is found and grace elapses")
	}
	if st.round != round+1 {
		t.Errorf("round = %d; want %d", st.round, round+1)
	}
}

// TestUpdateRoundCompletesOnMaxRoundDuration covers scenario S6: a round
// completes by timeout even though the target was never found.
func TestUpdateRoundCompletesOnMaxRoundDuration(t *testing.T) {
	cfg := testConfig(t)
	cfg.MinRoundDuration = time.Hour
	cfg.MaxRoundDuration = time.Millisecond

	var published []Probe
	tr := NewIcmpTracer(cfg, func(p Probe) { published = append(published, p) })
	st := newTracerState(cfg.FirstTTL)
	probe := st.nextProbe()
	completed := probe.withResponse(ProbeStatusComplete, IcmpPacketTypeTimeExceeded, net.ParseIP("203.0.113.1"), time.Now())
	st.updateProbe(probe.Sequence, completed, time.Now(), false)

	st.roundStart = time.Now().Add(-time.Second)

	round := st.round
	tr.updateRound(st)

	if st.targetFound {
		t.Fatal("target must not be found in this scenario")
	}
	if len(published) == 0 {
		t.Fatal("updateRound should publish once MaxRoundDuration elapses, target or not")
	}
	if st.round != round+1 {
		t.Errorf("round = %d; want %d", st.round, round+1)
	}
}

func TestUpdateRoundDoesNothingBeforeMinRoundDuration(t *testing.T) {
	cfg := testConfig(t)
	cfg.MinRoundDuration = time.Hour
	cfg.MaxRoundDuration = time.Hour

	var published []Probe
	tr := NewIcmpTracer(cfg, func(p Probe) { published = append(published, p) })
	st := newTracerState(cfg.FirstTTL)
	st.targetFound = true
	now := time.Now()
	st.receivedTime = &now

	tr.updateRound(st)

	if len(published) != 0 {
		t.Error("updateRound must not publish before MinRoundDuration has elapsed")
	}
	if st.round != 0 {
		t.Error("round must not advance before completion criteria are met")
	}
}

func TestRoundSizeWithTargetTTL(t *testing.T) {
	cfg := testConfig(t)
	tr := NewIcmpTracer(cfg, func(Probe) {})
	st := newTracerState(cfg.FirstTTL)
	targetTTL := TimeToLive(5)
	st.targetTTL = &targetTTL

	if got, want := tr.roundSize(st), 5; got != want {
		t.Errorf("roundSize() = %d; want %d", got, want)
	}
}

func TestRoundSizeWithoutTargetClampsToMaxTTL(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxTTL = 8
	tr := NewIcmpTracer(cfg, func(Probe) {})
	st := newTracerState(cfg.FirstTTL)
	maxReceived := TimeToLive(20)
	st.maxReceivedTTL = &maxReceived

	got := tr.roundSize(st)
	want := int(cfg.MaxTTL) - int(cfg.FirstTTL) + 1
	if got != want {
		t.Errorf("roundSize() = %d; want %d (clamped to MaxTTL)", got, want)
	}
}

func TestRoundSizeZeroWhenNothingReceived(t *testing.T) {
	cfg := testConfig(t)
	tr := NewIcmpTracer(cfg, func(Probe) {})
	st := newTracerState(cfg.FirstTTL)
	if got := tr.roundSize(st); got != 0 {
		t.Errorf("roundSize() = %d; want 0", got)
	}
}

func TestDurationSinceClampsNegativeToZero(t *testing.T) {
	start := time.Now()
	end := start.Add(-time.Second)
	if got := durationSince(start, end); got != 0 {
		t.Errorf("durationSince() = %v; want 0 for a clock regression", got)
	}
}

func TestExceedsNilStartNeverExceeds(t *testing.T) {
	if exceeds(nil, time.Now(), time.Nanosecond) {
		t.Error("exceeds(nil, ...) must be false: no response received yet")
	}
}

func TestTraceStopsOnContextCancellation(t *testing.T) {
	cfg := testConfig(t)
	cfg.ReadTimeout = time.Millisecond
	cfg.MinRoundDuration = time.Millisecond
	cfg.GraceDuration = time.Millisecond

	done := make(chan struct{})
	tr := NewIcmpTracer(cfg, func(Probe) {})
	fc := &fakeChannel{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	go func() {
		_ = tr.Trace(ctx, fc)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Trace() did not return promptly after ctx was already cancelled")
	}
}
