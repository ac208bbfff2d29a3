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
	"context"
	"fmt"
	"math"
	"net"
	"os"
	"os/signal"
	"time"

	"github.com/icmp-route/icmpkg"
	"github.com/spf13/cobra"
)

// hop accumulates statistics for a single TTL hop across rounds.
type hop struct {
	TTL                  int
	Addr                 string
	Sent, Received       int
	Last, Best, Worst    int
	sum, sumSq           float64
}

func (h *hop) dataset(probe icmpkg.Probe) {
	h.TTL = int(probe.TTL)
	h.Sent++
	if h.Addr == "" && probe.Host != nil {
		h.Addr = probe.Host.String()
	}
	if probe.Status != icmpkg.ProbeStatusComplete || probe.Received.IsZero() || probe.Sent.IsZero() {
		return
	}
	rtt := float64(probe.Received.Sub(probe.Sent).Milliseconds())
	h.Received++
	h.Last = int(rtt)
	if h.Best == 0 || int(rtt) < h.Best {
		h.Best = int(rtt)
	}
	if int(rtt) > h.Worst {
		h.Worst = int(rtt)
	}
	h.sum += rtt
	h.sumSq += rtt * rtt
}

func (h *hop) lossPct() float64 {
	if h.Sent == 0 {
		return 0
	}
	return float64(h.Sent-h.Received) * 100 / float64(h.Sent)
}

func (h *hop) avg() float64 {
	if h.Received == 0 {
		return 0
	}
	return h.sum / float64(h.Received)
}

func (h *hop) stdDev() float64 {
	if h.Received == 0 {
		return 0
	}
	mean := h.avg()
	variance := h.sumSq/float64(h.Received) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

var hops [256]hop

func start(ctx context.Context) error {
	addr, err := net.ResolveIPAddr("ip", target)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", target, err)
	}

	cfg, err := icmpkg.NewIcmpTracerConfig(addr.IP, icmpkg.TraceId(os.Getpid()&0xffff), 1, icmpkg.TimeToLive(maxTTL))
	if err != nil {
		return err
	}
	cfg.ReadTimeout = readTimeout
	cfg.MinRoundDuration = interval
	cfg.MaxInflight = icmpkg.MaxInflight(count)

	channel, err := icmpkg.NewNetChannel(cfg.TargetAddr)
	if err != nil {
		return err
	}
	defer channel.Close()

	prints(addr.IP.String())

	ui := newMtrTable(fmt.Sprintf("gomtr: %s (%s)", target, addr.IP))

	tracer := icmpkg.NewIcmpTracer(*cfg, func(probe icmpkg.Probe) {
		(&hops[probe.TTL]).dataset(probe)
		ui.refresh(hops[:])
	})

	go func() {
		<-ctx.Done()
		ui.stop()
	}()
	go func() {
		_ = tracer.Trace(ctx, channel)
		ui.stop()
	}()

	return ui.run()
}

// rootCmd represents the gomtr root command
var rootCmd = &cobra.Command{
	Use:   "gomtr [target]",
	Short: "gomtr is a command-line tool for ICMP-based MTR",
	Long: `gomtr is a command-line tool based on the icmpkg package for performing continuous ICMP
path-tracing with a live terminal table similar to the mtr command. It supports configuration of
target address, maximum TTL, maximum inflight probes, interval, read timeout, and debug/trace logging.`,
	Args: cobra.ExactArgs(1), // Requires exactly one argument (target address)
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Set debug and trace environment variables
		if debug {
			os.Setenv("ICMPKG_DEBUG", "T")
			os.Setenv("TRACER_DEBUG", "T")
		}
		if trace {
			os.Setenv("ICMPKG_TRACE", "T")
			os.Setenv("TRACER_TRACE", "T")
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		target = args[0]
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer cancel()
		return start(ctx)
	},
}

// Command-line flags
var (
	target      string
	maxTTL      int           // Maximum TTL (hops)
	count       int           // Maximum unknown-target-ttl probes outstanding per round
	interval    time.Duration // Minimum round duration
	readTimeout time.Duration // Read timeout duration
	debug       bool          // Enable debug logging
	trace       bool          // Enable trace logging
)

func init() {
	// Add flags
	rootCmd.Flags().IntVarP(&maxTTL, "max-ttl", "m", 30, "Maximum TTL (hops)")
	rootCmd.Flags().IntVarP(&count, "count", "c", 24, "Maximum inflight probes per round")
	rootCmd.Flags().DurationVarP(&interval, "interval", "i", 1*time.Second, "Minimum round duration")
	rootCmd.Flags().DurationVarP(&readTimeout, "read-timeout", "r", 10*time.Millisecond, "Read timeout duration")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.Flags().BoolVar(&trace, "trace", false, "Enable trace logging")
}

// Execute runs the root command
func Execute() {
	defer func() {
		if re := recover(); re != nil {
			fmt.Println(re)
		}
	}()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
	}
}

var hostname, _ = os.Hostname()

func localAddr() (addr string) {
	conn, _ := net.Dial("udp", target+":80")
	if conn != nil {
		addr = conn.LocalAddr().(*net.UDPAddr).IP.String()
		conn.Close()
	}
	return addr
}
