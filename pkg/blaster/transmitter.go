// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package blaster

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Thermoquad/breeze/pkg/pulse"
)

// Option configures a Transmitter
type Option func(*Transmitter)

// WithCarrier overrides the default 38 kHz / 50% carrier
func WithCarrier(c Carrier) Option {
	return func(t *Transmitter) { t.carrier = c }
}

// WithLogf installs a printf style hook called before and after each send
func WithLogf(logf func(format string, args ...interface{})) Option {
	return func(t *Transmitter) { t.logf = logf }
}

// Transmitter emits plans on one pin. It is safe for concurrent use but only
// one Send runs at a time; others fail with ErrBusy.
type Transmitter struct {
	driver  Driver
	pin     int
	carrier Carrier
	logf    func(format string, args ...interface{})
	busy    atomic.Bool
}

// NewTransmitter creates a transmitter for pin on driver
func NewTransmitter(d Driver, pin int, opts ...Option) (*Transmitter, error) {
	if d == nil {
		return nil, fmt.Errorf("blaster: nil driver")
	}
	if pin < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPin, pin)
	}
	t := &Transmitter{
		driver:  d,
		pin:     pin,
		carrier: DefaultCarrier(),
		logf:    func(string, ...interface{}) {},
	}
	for _, opt := range opts {
		opt(t)
	}
	if err := t.carrier.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Transmitter) Pin() int         { return t.pin }
func (t *Transmitter) Carrier() Carrier { return t.carrier }

// Busy reports whether a Send is in progress
func (t *Transmitter) Busy() bool {
	return t.busy.Load()
}

// step holds the pin at level for d
type step struct {
	level Level
	d     time.Duration
}

// burst is the carrier schedule of one mark duration
type burst struct {
	steps []step
	span  time.Duration // sum of step durations
}

// schedule builds the carrier edges of a mark. Edge times are computed from
// the start of the mark and rounded, so per cycle rounding never accumulates.
func (t *Transmitter) schedule(mark time.Duration) burst {
	freq := float64(t.carrier.Frequency)
	period := 1e9 / freq
	duty := float64(t.carrier.DutyPercent) / 100

	cycles := int(math.Round(mark.Seconds() * freq))
	if cycles < 1 {
		cycles = 1
	}

	steps := make([]step, 0, 2*cycles)
	var at time.Duration
	for i := 0; i < cycles; i++ {
		start := float64(i) * period
		off := time.Duration(math.Round(start + duty*period))
		end := time.Duration(math.Round(start + period))
		steps = append(steps, step{High, off - at}, step{Low, end - off})
		at = end
	}
	return burst{steps: steps, span: at}
}

func (t *Transmitter) schedules(seq pulse.Sequence) map[time.Duration]burst {
	out := make(map[time.Duration]burst)
	for _, m := range seq.Marks() {
		out[m] = t.schedule(m)
	}
	return out
}

// The GC percent is process wide, so overlapping sends on different
// transmitters share one pause: the first disables the collector and the
// last restores the saved setting.
var gcPause struct {
	sync.Mutex
	active int
	saved  int
}

func pauseGC() {
	gcPause.Lock()
	defer gcPause.Unlock()
	if gcPause.active == 0 {
		gcPause.saved = debug.SetGCPercent(-1)
	}
	gcPause.active++
}

func resumeGC() {
	gcPause.Lock()
	defer gcPause.Unlock()
	gcPause.active--
	if gcPause.active == 0 {
		debug.SetGCPercent(gcPause.saved)
	}
}

// idle waits between frames, through Idle when the driver has it
func (t *Transmitter) idle(d time.Duration) {
	if i, ok := t.driver.(Idler); ok {
		i.Idle(d)
		return
	}
	if d > 0 {
		t.driver.Sleep(d)
	}
}

func (t *Transmitter) overruns() int {
	if o, ok := t.driver.(interface{ Overruns() int }); ok {
		return o.Overruns()
	}
	return 0
}

// Send emits the plan. It returns once the last space has elapsed, ctx is
// canceled (checked between pairs) or the driver fails. On abort the pin is
// driven low before returning.
func (t *Transmitter) Send(ctx context.Context, p *Plan) (Report, error) {
	if p == nil {
		return Report{}, fmt.Errorf("%w: nil plan", ErrInvalidPlan)
	}
	if !t.busy.CompareAndSwap(false, true) {
		return Report{}, ErrBusy
	}
	defer t.busy.Store(false)

	if err := p.Consume(); err != nil {
		return Report{}, err
	}

	seq := p.Sequence()
	bursts := t.schedules(seq)
	t.logf("sending %d pairs x%d on pin %d (%v, nominal %v)", seq.Len(), p.Repeat(), t.pin, t.carrier, p.Duration())

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	pauseGC()
	defer resumeGC()

	t.idle(0)
	overruns := t.overruns()
	report := Report{}
	start := time.Now()

	abort := func(err error) (Report, error) {
		_ = t.driver.SetLevel(t.pin, Low)
		report.Elapsed = time.Since(start)
		t.logf("aborted after %d pairs: %v", report.Pairs, err)
		return report, err
	}

	for r := 0; r < p.Repeat(); r++ {
		if r > 0 && p.Gap() > 0 {
			t.idle(p.Gap())
		}
		for i := 0; i < seq.Len(); i++ {
			select {
			case <-ctx.Done():
				return abort(fmt.Errorf("%w after %d pairs: %w", ErrCanceled, report.Pairs, ctx.Err()))
			default:
			}

			pair := seq.At(i)
			b := bursts[pair.Mark]
			for _, s := range b.steps {
				if err := t.driver.SetLevel(t.pin, s.level); err != nil {
					return abort(&TransmissionError{Repeat: r, Pair: i, PairsSent: report.Pairs, Err: err})
				}
				t.driver.Sleep(s.d)
			}
			if rest := pair.Mark + pair.Space - b.span; rest > 0 {
				t.driver.Sleep(rest)
			}
			report.Pairs++
		}
		report.Repeats++
	}

	report.Elapsed = time.Since(start)
	t.logf("sent %s", report)
	if n := t.overruns() - overruns; n > 0 {
		t.logf("timing fell behind %d time(s); late edges were stretched", n)
	}
	return report, nil
}
