// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/breeze/internal/logger"
	"github.com/Thermoquad/breeze/pkg/link"
)

var (
	pingTimeout  int
	pingCount    int
	pingInterval time.Duration
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the remote emitter answers",
	Long: `Send PING_REQUEST packets to the remote emitter and print the round trip
time and the emitter's uptime.

Exit codes:
  0 - Every ping answered
  1 - A ping timed out
  2 - Connection error`,
	Args: cobra.NoArgs,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingTimeout, "timeout", 5, "Timeout in seconds for each ping")
	pingCmd.Flags().IntVarP(&pingCount, "count", "c", 1, "Number of pings")
	pingCmd.Flags().DurationVar(&pingInterval, "interval", time.Second, "Delay between pings")
}

func runPing(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection(cfg.Link)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Breeze - Ping\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n\n", pingTimeout)

	sender := link.NewSender(conn)
	sender.Logf = logger.Debug

	for i := 0; i < pingCount; i++ {
		if i > 0 {
			time.Sleep(pingInterval)
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(pingTimeout)*time.Second)
		res, err := sender.Ping(ctx)
		cancel()

		switch {
		case err == nil:
			fmt.Printf("PING_RESPONSE seq=%d rtt=%v uptime=%s\n", i, res.RTT.Round(time.Microsecond), formatUptime(res.Uptime))
		case errors.Is(err, link.ErrTimeout):
			fmt.Fprintf(os.Stderr, "TIMEOUT: no response within %d seconds\n", pingTimeout)
			os.Exit(1)
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
	}
	return nil
}

// formatUptime renders d as "2 days, 3 hours and 1 minute"
func formatUptime(d time.Duration) string {
	units := []struct {
		name string
		size time.Duration
	}{
		{"day", 24 * time.Hour},
		{"hour", time.Hour},
		{"minute", time.Minute},
		{"second", time.Second},
	}

	var parts []string
	for _, u := range units {
		n := d / u.size
		d -= n * u.size
		if n == 0 && !(u.size == time.Second && len(parts) == 0) {
			continue
		}
		part := fmt.Sprintf("%d %s", n, u.name)
		if n != 1 {
			part += "s"
		}
		parts = append(parts, part)
	}

	if len(parts) == 1 {
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}
