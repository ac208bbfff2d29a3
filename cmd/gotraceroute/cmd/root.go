// Copyright 2025 icmpkg Author. All Rights Reserved.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/icmp-route/icmpkg"
	"github.com/spf13/cobra"
)

// rootCmd represents the gotraceroute root command
var rootCmd = &cobra.Command{
	Use:   "gotraceroute [target]",
	Short: "gotraceroute is a command-line tool for ICMP traceroute",
	Long: `gotraceroute is a command-line tool based on the icmpkg package for performing a single ICMP
traceroute round. It supports configuration of target address, first/max TTL, inflight cap, round
durations, output format (text, json, xml), and debug/trace logging.`,
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
		target := args[0]
		addr, err := net.ResolveIPAddr("ip", target)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", target, err)
		}

		cfg, err := icmpkg.NewIcmpTracerConfig(addr.IP, icmpkg.TraceId(os.Getpid()&0xffff), icmpkg.TimeToLive(firstTTL), icmpkg.TimeToLive(maxTTL))
		if err != nil {
			return err
		}
		cfg.MaxInflight = icmpkg.MaxInflight(maxInflight)
		cfg.ReadTimeout = readTimeout
		cfg.GraceDuration = graceDuration
		cfg.MinRoundDuration = minRoundDuration
		cfg.MaxRoundDuration = maxRoundDuration

		channel, err := icmpkg.NewNetChannel(cfg.TargetAddr)
		if err != nil {
			return err
		}
		defer channel.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		reachedTarget := false
		tracer := icmpkg.NewIcmpTracer(*cfg, func(probe icmpkg.Probe) {
			out := newProbeOutput(probe)
			switch {
			case jsonOutput:
				data, _ := json.Marshal(out)
				fmt.Println(string(data))
			case xmlOutput:
				data, _ := xml.Marshal(out)
				fmt.Printf("%s\n", data)
			default:
				fmt.Println(out.String())
			}
			if probe.IcmpPacketType == icmpkg.IcmpPacketTypeEchoReply {
				reachedTarget = true
			}
			cancel()
		})

		if err := tracer.Trace(ctx, channel); err != nil {
			return err
		}
		if !reachedTarget {
			return fmt.Errorf("gotraceroute: %s: %w", target, icmpkg.ErrTargetUnresponsive)
		}
		return nil
	},
}

// Command-line flags
var (
	firstTTL         int
	maxTTL           int
	maxInflight      int
	readTimeout      time.Duration
	graceDuration    time.Duration
	minRoundDuration time.Duration
	maxRoundDuration time.Duration
	jsonOutput       bool
	xmlOutput        bool
	debug            bool
	trace            bool
)

func init() {
	rootCmd.Flags().IntVarP(&firstTTL, "first-ttl", "f", 1, "Starting TTL (hops)")
	rootCmd.Flags().IntVarP(&maxTTL, "max-ttl", "m", 30, "Maximum TTL (hops)")
	rootCmd.Flags().IntVar(&maxInflight, "max-inflight", 24, "Maximum unknown-target-ttl probes outstanding")
	rootCmd.Flags().DurationVarP(&readTimeout, "read-timeout", "r", 10*time.Millisecond, "Inner receive timeout")
	rootCmd.Flags().DurationVarP(&graceDuration, "grace", "g", 100*time.Millisecond, "Silence required after the last response before ending the round")
	rootCmd.Flags().DurationVar(&minRoundDuration, "min-round-duration", 1*time.Second, "Minimum round duration")
	rootCmd.Flags().DurationVar(&maxRoundDuration, "max-round-duration", 5*time.Second, "Maximum round duration")
	rootCmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Enable JSON output")
	rootCmd.Flags().BoolVarP(&xmlOutput, "xml", "x", false, "Enable XML output")
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
