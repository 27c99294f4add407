// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/breeze/pkg/panasonic"
)

var (
	encodeFlags settingsFlags
	encodeJSON  bool
	encodePulse bool
)

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Print the frame and pulse train for a set of settings",
	Long: `Encode air conditioner settings without transmitting.

Prints the frame in hex, the decoded field slots and the mark/space pulse
train in units of T. With --json the pulse train is printed in microseconds
in the {"ir_code": [...]} format understood by pigpio's irrp.py.

Examples:
  breeze encode --mode cool --temp 24 --strength 3
  breeze encode --mode heat --temp 22 --json > heat22.json
  breeze encode --format aeha --hex 1234567890`,
	Args: cobra.NoArgs,
	RunE: runEncode,
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	encodeFlags.register(encodeCmd.Flags())
	encodeCmd.Flags().BoolVar(&encodeJSON, "json", false, "Print the pulse train as irrp JSON")
	encodeCmd.Flags().BoolVar(&encodePulse, "pulses", true, "Print the pulse train")
}

func runEncode(cmd *cobra.Command, args []string) error {
	enc, err := encodeFlags.encode(cfg)
	if err != nil {
		return err
	}
	if encodeJSON {
		return writeIRCode(cmd.OutOrStdout(), enc)
	}
	printEncoded(cmd.OutOrStdout(), enc, encodePulse)
	return nil
}

// irCode is the irrp.py code file shape
type irCode struct {
	IRCode []int `json:"ir_code"`
}

func writeIRCode(w io.Writer, enc encoded) error {
	out := json.NewEncoder(w)
	out.SetIndent("", "  ")
	return out.Encode(irCode{IRCode: enc.seq.Micros()})
}

func printEncoded(w io.Writer, enc encoded, pulses bool) {
	if enc.frame != nil {
		fmt.Fprint(w, panasonic.FormatFrame(*enc.frame))
		fmt.Fprintf(w, "Hex:    %s\n", enc.frame.Hex())
	} else {
		fmt.Fprintf(w, "Data:   %s\n", panasonic.FormatBytes(enc.data))
	}
	if pulses {
		fmt.Fprintf(w, "Pulses: %s\n", enc.seq)
	} else {
		fmt.Fprintf(w, "Pulses: %d pairs, %v\n", enc.seq.Len(), enc.seq.Duration())
	}
}
