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
	"errors"
	"fmt"
)

// ErrFatalChannel is returned when the IcmpChannel reports a send or
// receive failure distinct from a plain timeout. It aborts the trace.
var ErrFatalChannel = errors.New("icmpkg: fatal channel error")

// ErrInvalidConfig is returned by NewIcmpTracerConfig when the supplied
// fields are not usable (e.g. firstTTL == 0).
var ErrInvalidConfig = errors.New("icmpkg: invalid tracer config")

// ErrTargetUnresponsive is returned by callers that run a single round to
// completion (Trace returning nil) without ever observing a probe from the
// target itself — every hop timed out or only intermediate routers replied.
var ErrTargetUnresponsive = errors.New("icmpkg: target unresponsive")

// tracePhase names the round-scheduler phase a TraceError originated in,
// for logging and for callers that want to distinguish send failures from
// receive failures.
type tracePhase string

const (
	phaseSend    tracePhase = "send_request"
	phaseReceive tracePhase = "recv_response"
)

// TraceError wraps a fatal channel error with the phase it occurred in.
type TraceError struct {
	Phase tracePhase
	Err   error
}

func (e *TraceError) Error() string {
	return fmt.Sprintf("icmpkg: %s: %v", e.Phase, e.Err)
}

func (e *TraceError) Unwrap() error {
	return e.Err
}

func (e *TraceError) Is(target error) bool {
	return target == ErrFatalChannel
}
