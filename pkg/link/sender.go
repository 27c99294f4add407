// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/Thermoquad/breeze/pkg/blaster"
)

// DefaultTimeout is how long to wait for a response beyond the on-air time
const DefaultTimeout = 5 * time.Second

// PingResult is the answer to a ping
type PingResult struct {
	Uptime time.Duration
	RTT    time.Duration
}

// Sender issues requests to a remote emitter. Requests are serialized; one
// background goroutine owns reads from the connection.
type Sender struct {
	// Timeout bounds the wait for a response when ctx has no deadline
	Timeout time.Duration
	// Logf receives diagnostics about dropped or unexpected packets
	Logf func(format string, args ...interface{})

	rw      io.ReadWriter
	mu      sync.Mutex
	start   sync.Once
	packets chan *Packet
	done    chan struct{}
	readErr error
}

// NewSender wraps a serial port or WebSocket connection
func NewSender(rw io.ReadWriter) *Sender {
	return &Sender{
		Timeout: DefaultTimeout,
		rw:      rw,
		packets: make(chan *Packet, 16),
		done:    make(chan struct{}),
	}
}

func (s *Sender) logf(format string, args ...interface{}) {
	if s.Logf != nil {
		s.Logf(format, args...)
	}
}

func (s *Sender) readLoop() {
	defer close(s.done)
	decoder := NewDecoder()
	buf := make([]byte, 512)
	for {
		n, err := s.rw.Read(buf)
		for i := 0; i < n; i++ {
			packet, decodeErr := decoder.DecodeByte(buf[i])
			if decodeErr != nil {
				s.logf("link: dropped frame: %v", decodeErr)
				continue
			}
			if packet == nil {
				continue
			}
			select {
			case s.packets <- packet:
			default:
				s.logf("link: receive queue full, dropped %s", FormatMessageType(packet.Type()))
			}
		}
		if err != nil {
			s.readErr = err
			return
		}
	}
}

// drain discards responses left over from an earlier request
func (s *Sender) drain() {
	for {
		select {
		case p := <-s.packets:
			s.logf("link: discarding stale %s", FormatMessageType(p.Type()))
		default:
			return
		}
	}
}

func (s *Sender) await(ctx context.Context, types ...uint8) (*Packet, error) {
	for {
		select {
		case p := <-s.packets:
			if slices.Contains(types, p.Type()) {
				return p, nil
			}
			s.logf("link: ignoring unexpected %s", FormatMessageType(p.Type()))
		case <-s.done:
			select {
			case p := <-s.packets:
				if slices.Contains(types, p.Type()) {
					return p, nil
				}
			default:
			}
			if s.readErr != nil && !errors.Is(s.readErr, io.EOF) {
				return nil, fmt.Errorf("%w: %w", ErrClosed, s.readErr)
			}
			return nil, ErrClosed
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
			}
			return nil, fmt.Errorf("%w: %w", blaster.ErrCanceled, ctx.Err())
		}
	}
}

// request writes wire and waits for one of types. extra is added to the
// default timeout when ctx carries no deadline.
func (s *Sender) request(ctx context.Context, wire []byte, extra time.Duration, types ...uint8) (*Packet, error) {
	s.start.Do(func() { go s.readLoop() })

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok {
		timeout := s.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout+extra)
		defer cancel()
	}

	s.drain()
	if _, err := s.rw.Write(wire); err != nil {
		return nil, fmt.Errorf("link: write: %w", err)
	}
	return s.await(ctx, types...)
}

// Transmit sends plan to the emitter and waits until it reports completion
func (s *Sender) Transmit(ctx context.Context, plan *blaster.Plan, carrier blaster.Carrier) (blaster.Report, error) {
	if plan == nil {
		return blaster.Report{}, fmt.Errorf("%w: nil plan", blaster.ErrInvalidPlan)
	}
	if err := carrier.Validate(); err != nil {
		return blaster.Report{}, err
	}
	wire, err := EncodePacket(NewTransmitRequest(plan, carrier).Packet())
	if err != nil {
		return blaster.Report{}, err
	}
	if err := plan.Consume(); err != nil {
		return blaster.Report{}, err
	}

	start := time.Now()
	resp, err := s.request(ctx, wire, plan.Duration(), MsgTransmitDone, MsgError)
	if err != nil {
		return blaster.Report{}, err
	}

	m := resp.Payload()
	if resp.Type() == MsgTransmitDone {
		pairs, _ := GetMapUint(m, 0)
		return blaster.Report{Repeats: plan.Repeat(), Pairs: int(pairs), Elapsed: time.Since(start)}, nil
	}

	code, _ := GetMapUint(m, 0)
	pairs, _ := GetMapUint(m, 1)
	remote := &RemoteError{Code: ErrorCode(code), PairsSent: int(pairs)}
	report := blaster.Report{Pairs: int(pairs), Elapsed: time.Since(start)}
	if remote.Code != ErrorDriver {
		return report, remote
	}
	n := plan.Sequence().Len()
	report.Repeats = remote.PairsSent / n
	return report, &blaster.TransmissionError{
		Repeat:    remote.PairsSent / n,
		Pair:      remote.PairsSent % n,
		PairsSent: remote.PairsSent,
		Err:       remote,
	}
}

// Ping checks that the emitter is responsive
func (s *Sender) Ping(ctx context.Context) (PingResult, error) {
	wire, err := EncodePacket(NewPingRequest())
	if err != nil {
		return PingResult{}, err
	}
	start := time.Now()
	resp, err := s.request(ctx, wire, 0, MsgPingResponse)
	if err != nil {
		return PingResult{}, err
	}
	ms, _ := GetMapUint(resp.Payload(), 0)
	return PingResult{Uptime: time.Duration(ms) * time.Millisecond, RTT: time.Since(start)}, nil
}
