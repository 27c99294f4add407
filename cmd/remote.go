// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/breeze/internal/logger"
	"github.com/Thermoquad/breeze/internal/server"
	"github.com/Thermoquad/breeze/pkg/blaster"
)

var (
	remoteLink   bool
	remotePin    int
	remoteDryRun bool
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Interactive virtual remote control",
	Long: `A terminal version of the air conditioner remote.

Arrow keys pick a setting and change its value, enter transmits the whole
state, p toggles power and sends immediately. The frame that would be sent
is shown live.

Transmits on the local GPIO pin, or through the link with --remote.`,
	Args: cobra.NoArgs,
	RunE: runRemote,
}

func init() {
	rootCmd.AddCommand(remoteCmd)
	remoteCmd.Flags().BoolVar(&remoteLink, "remote", false, "Transmit through the remote emitter link")
	remoteCmd.Flags().IntVar(&remotePin, "led-pin", -1, "GPIO pin driving the IR LED (default from config)")
	remoteCmd.Flags().BoolVar(&remoteDryRun, "dry-run", false, "Record instead of transmitting")
}

func runRemote(cmd *cobra.Command, args []string) error {
	var (
		em   server.Emitter
		info string
	)
	if remoteDryRun {
		pin := remotePin
		if pin < 0 {
			pin = cfg.GPIOPin
		}
		tx, err := blaster.NewTransmitter(&blaster.Recorder{}, pin, blaster.WithCarrier(cfg.Carrier()))
		if err != nil {
			return err
		}
		em, info = server.EmitterFunc(tx.Send), "dry run"
	} else {
		opened, err := openEmitter(cfg, remoteLink, remotePin)
		if err != nil {
			return err
		}
		defer opened.Close()
		em, info = opened, opened.info
	}

	// the TUI owns the terminal
	logger.SetLevel(logger.OffLevel)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	m := newRemoteModel(ctx, em, cfg, info)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
