// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/breeze/internal/config"
	"github.com/Thermoquad/breeze/internal/logger"
	"github.com/Thermoquad/breeze/pkg/blaster"
	"github.com/Thermoquad/breeze/pkg/pulse"
)

var (
	sendFlags  settingsFlags
	sendPin    int
	sendDryRun bool
	sendRemote bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Transmit settings to the air conditioner",
	Long: `Encode settings and transmit them on the infrared LED.

By default the frame is driven on the configured GPIO pin with a 38 kHz
carrier. --remote ships the pulse train over the link (--port or --url) to an
emitter that does the timing itself. --dry-run records the waveform instead
of touching any hardware and prints a timing summary.

Ctrl+C aborts between pulses and leaves the LED off.`,
	Args: cobra.NoArgs,
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendFlags.register(sendCmd.Flags())
	sendCmd.Flags().IntVar(&sendPin, "led-pin", -1, "GPIO pin driving the IR LED (default from config)")
	sendCmd.Flags().BoolVar(&sendDryRun, "dry-run", false, "Record the waveform instead of transmitting")
	sendCmd.Flags().BoolVar(&sendRemote, "remote", false, "Transmit through the remote emitter link")
}

func runSend(cmd *cobra.Command, args []string) error {
	enc, err := sendFlags.encode(cfg)
	if err != nil {
		return err
	}
	plan, err := sendFlags.plan(cfg, enc.seq)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	if sendDryRun {
		return dryRun(ctx, out, cfg, sendPin, enc, plan)
	}

	em, err := openEmitter(cfg, sendRemote, sendPin)
	if err != nil {
		return err
	}
	defer em.Close()

	logger.Info("transmitting %s via %s", enc.summary(), em.info)
	report, err := em.Emit(ctx, plan)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	fmt.Fprintf(out, "Sent %s: %s\n", enc.summary(), report)
	return nil
}

// dryRun sends plan into a Recorder and compares the recorded envelope with
// the encoded pulse train
func dryRun(ctx context.Context, out io.Writer, c config.Config, pin int, enc encoded, plan *blaster.Plan) error {
	if pin < 0 {
		pin = c.GPIOPin
	}
	rec := &blaster.Recorder{}
	tx, err := blaster.NewTransmitter(rec, pin, blaster.WithCarrier(c.Carrier()), blaster.WithLogf(logger.Debug))
	if err != nil {
		return err
	}
	report, err := tx.Send(ctx, plan)
	if err != nil {
		return err
	}

	carrier := tx.Carrier()
	got := rec.Pairs(2 * carrier.Period())
	want := enc.seq.Pairs()

	printEncoded(out, enc, false)
	fmt.Fprintf(out, "Carrier: %s, period %v\n", carrier, carrier.Period())
	fmt.Fprintf(out, "Plan:    %d x %d pairs, gap %v, on-air %v\n", plan.Repeat(), enc.seq.Len(), plan.Gap(), plan.Duration())
	fmt.Fprintf(out, "Result:  %s, %d edges, virtual time %v\n", report, rec.Edges(), rec.Elapsed())
	markErr, spaceErr := envelopeError(want, got)
	fmt.Fprintf(out, "Envelope: max mark error %v, max space error %v\n", markErr, spaceErr)
	return nil
}

// envelopeError returns the worst mark and space deviation over the first
// repeat. The last space is skipped since it also absorbs the repeat gap.
func envelopeError(want, got []pulse.Pair) (mark, space time.Duration) {
	n := min(len(want), len(got))
	for i := 0; i < n; i++ {
		mark = max(mark, absDuration(want[i].Mark-got[i].Mark))
		if i < n-1 {
			space = max(space, absDuration(want[i].Space-got[i].Space))
		}
	}
	return mark, space
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
