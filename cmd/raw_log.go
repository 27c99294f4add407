// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/breeze/internal/logger"
	"github.com/Thermoquad/breeze/pkg/link"
)

var (
	rawLogShowErrors    bool
	rawLogStatsInterval int
)

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display link packets in human-readable format",
	Long: `Continuously decode and display emitter link packets as they arrive.

Each packet is shown with timestamp, message type, CRC and decoded payload.
Useful for watching the traffic between a host and a bridge on a shared
serial line or WebSocket relay. Statistics are printed every --stats seconds
and on exit.`,
	Args: cobra.NoArgs,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
	rawLogCmd.Flags().BoolVar(&rawLogShowErrors, "errors", true, "Show framing and CRC errors")
	rawLogCmd.Flags().IntVar(&rawLogStatsInterval, "stats", 0, "Statistics interval in seconds (0 disables)")
}

type rawLogResult struct {
	packet *link.Packet
	err    error
}

func runRawLog(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection(cfg.Link)
	if err != nil {
		return &connectionError{err}
	}
	defer conn.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Breeze - Raw Packet Log\n")
	fmt.Fprintf(out, "Connection: %s\n", connInfo)
	fmt.Fprintf(out, "Press Ctrl+C to exit\n\n")

	results := make(chan rawLogResult, 64)
	readErr := make(chan error, 1)
	go func() {
		decoder := link.NewDecoder()
		buf := make([]byte, 256)
		for {
			n, err := conn.Read(buf)
			for i := 0; i < n; i++ {
				packet, decodeErr := decoder.DecodeByte(buf[i])
				if packet != nil || decodeErr != nil {
					results <- rawLogResult{packet, decodeErr}
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var tick <-chan time.Time
	if rawLogStatsInterval > 0 {
		ticker := time.NewTicker(time.Duration(rawLogStatsInterval) * time.Second)
		defer ticker.Stop()
		tick = ticker.C
	}

	stats := link.NewStatistics()
	for {
		select {
		case r := <-results:
			stats.Update(r.packet, r.err)
			switch {
			case r.err != nil && rawLogShowErrors:
				fmt.Fprintf(out, "[ERROR] %v\n", r.err)
			case r.packet != nil:
				fmt.Fprint(out, link.FormatPacket(r.packet))
			}

		case <-tick:
			fmt.Fprintf(out, "\n%s\n", stats)

		case <-ctx.Done():
			fmt.Fprintf(out, "\n%s", stats)
			return nil

		case err := <-readErr:
			fmt.Fprintf(out, "\n%s", stats)
			if errors.Is(err, io.EOF) || errors.Is(err, ErrConnectionClosed) {
				logger.Info("connection closed")
				return nil
			}
			return &connectionError{err}
		}
	}
}
