// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/breeze/internal/logger"
	"github.com/Thermoquad/breeze/pkg/blaster"
	"github.com/Thermoquad/breeze/pkg/link"
)

var bridgePin int

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Act as a remote emitter for another host",
	Long: `Serve the emitter link on --port (or --url) and transmit every
TRANSMIT request on the local GPIO pin.

Run this on the machine wired to the IR LED, then use 'send --remote',
'serve' or 'remote' with the same link settings on the controlling host.
The link is reopened with exponential backoff if it drops.`,
	Args: cobra.NoArgs,
	RunE: runBridge,
}

func init() {
	rootCmd.AddCommand(bridgeCmd)
	bridgeCmd.Flags().IntVar(&bridgePin, "led-pin", -1, "GPIO pin driving the IR LED (default from config)")
}

func runBridge(cmd *cobra.Command, args []string) error {
	pin := bridgePin
	if pin < 0 {
		pin = cfg.GPIOPin
	}
	drv, err := blaster.OpenGPIO(pin)
	if err != nil {
		return err
	}
	defer drv.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bridge := link.NewBridge(drv, pin)
	bridge.Logf = logger.Debug

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		conn, info, err := OpenConnection(cfg.Link)
		if err == nil {
			logger.Info("bridge serving GPIO %d on %s", pin, info)
			backoff = time.Second
			err = bridge.Serve(ctx, conn)
			conn.Close()
			if err == nil {
				logger.Warn("link closed by peer")
			}
		}
		if ctx.Err() != nil {
			logger.Info("bridge stopped")
			return nil
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("link: %v (retrying in %v)", err, backoff)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = min(2*backoff, maxBackoff)
	}
}
