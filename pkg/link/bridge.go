// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Thermoquad/breeze/pkg/blaster"
)

// Bridge is the emitter side of the link: it answers pings and executes
// TRANSMIT requests on a local driver.
type Bridge struct {
	Logf func(format string, args ...interface{})

	driver  blaster.Driver
	pin     int
	started time.Time
}

// NewBridge serves requests using pin on driver
func NewBridge(d blaster.Driver, pin int) *Bridge {
	return &Bridge{driver: d, pin: pin, started: time.Now()}
}

func (b *Bridge) logf(format string, args ...interface{}) {
	if b.Logf != nil {
		b.Logf(format, args...)
	}
}

// Serve handles requests from rw until ctx is done or the connection fails.
// A clean EOF returns nil.
//
// When ctx is done and rw is an io.Closer, Serve closes it and waits for the
// pending Read to return. Otherwise the caller must close rw to release the
// reader goroutine.
func (b *Bridge) Serve(ctx context.Context, rw io.ReadWriter) error {
	packets := make(chan *Packet)
	readErr := make(chan error, 1)
	readerDone := make(chan struct{})

	go func() {
		defer close(readerDone)
		decoder := NewDecoder()
		buf := make([]byte, 512)
		for {
			n, err := rw.Read(buf)
			for i := 0; i < n; i++ {
				packet, decodeErr := decoder.DecodeByte(buf[i])
				if decodeErr != nil {
					b.logf("bridge: dropped frame: %v", decodeErr)
					continue
				}
				if packet != nil {
					select {
					case packets <- packet:
					case <-ctx.Done():
						return
					}
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			if c, ok := rw.(io.Closer); ok {
				c.Close()
				<-readerDone
			}
			return ctx.Err()
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("bridge: read: %w", err)
		case p := <-packets:
			resp := b.handle(ctx, p)
			wire, err := EncodePacket(resp)
			if err != nil {
				return err
			}
			if _, err := rw.Write(wire); err != nil {
				return fmt.Errorf("bridge: write: %w", err)
			}
		}
	}
}

func (b *Bridge) handle(ctx context.Context, p *Packet) *Packet {
	b.logf("bridge: %s", FormatMessageType(p.Type()))

	switch p.Type() {
	case MsgPingRequest:
		return NewPingResponse(time.Since(b.started))

	case MsgTransmit:
		req, err := ParseTransmit(p)
		if err != nil {
			b.logf("bridge: %v", err)
			return NewError(ErrorInvalid, 0)
		}
		plan, err := req.Plan()
		if err != nil {
			b.logf("bridge: %v", err)
			return NewError(ErrorInvalid, 0)
		}
		tx, err := blaster.NewTransmitter(b.driver, b.pin, blaster.WithCarrier(req.Carrier), blaster.WithLogf(b.logf))
		if err != nil {
			b.logf("bridge: %v", err)
			return NewError(ErrorInvalid, 0)
		}
		report, err := tx.Send(ctx, plan)
		if err != nil {
			b.logf("bridge: %v", err)
			return NewError(errorCodeFor(err), report.Pairs)
		}
		return NewTransmitDone(report.Pairs)
	}

	return NewError(ErrorUnknownMsg, 0)
}
