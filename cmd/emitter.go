// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/Thermoquad/breeze/internal/config"
	"github.com/Thermoquad/breeze/internal/logger"
	"github.com/Thermoquad/breeze/internal/server"
	"github.com/Thermoquad/breeze/pkg/blaster"
	"github.com/Thermoquad/breeze/pkg/link"
)

// emitter is an open transmit path plus what it holds open
type emitter struct {
	server.Emitter
	io.Closer
	info string
}

// openEmitter opens the GPIO pin, or the link when remote is set.
// A pin < 0 keeps the configured one.
func openEmitter(c config.Config, remote bool, pin int) (*emitter, error) {
	if pin < 0 {
		pin = c.GPIOPin
	}
	if remote {
		return openRemoteEmitter(c)
	}

	drv, err := blaster.OpenGPIO(pin)
	if err != nil {
		return nil, err
	}
	tx, err := blaster.NewTransmitter(drv, pin,
		blaster.WithCarrier(c.Carrier()),
		blaster.WithLogf(logger.Debug),
	)
	if err != nil {
		drv.Close()
		return nil, err
	}
	return &emitter{
		Emitter: server.EmitterFunc(tx.Send),
		Closer:  drv,
		info:    fmt.Sprintf("GPIO %d, %s", pin, tx.Carrier()),
	}, nil
}

func openRemoteEmitter(c config.Config) (*emitter, error) {
	conn, info, err := OpenConnection(c.Link)
	if err != nil {
		return nil, &connectionError{err}
	}
	sender := link.NewSender(conn)
	sender.Timeout = c.Link.Timeout()
	sender.Logf = logger.Debug

	carrier := c.Carrier()
	send := func(ctx context.Context, plan *blaster.Plan) (blaster.Report, error) {
		return sender.Transmit(ctx, plan, carrier)
	}
	return &emitter{
		Emitter: server.EmitterFunc(send),
		Closer:  conn,
		info:    fmt.Sprintf("%s, %s", info, carrier),
	}, nil
}

// connectionError marks failures that exit with status 2
type connectionError struct {
	err error
}

func (e *connectionError) Error() string { return "connection error: " + e.err.Error() }
func (e *connectionError) Unwrap() error { return e.err }
