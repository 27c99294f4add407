// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/breeze/internal/config"
	"github.com/Thermoquad/breeze/internal/server"
	"github.com/Thermoquad/breeze/pkg/blaster"
	"github.com/Thermoquad/breeze/pkg/panasonic"
	"github.com/Thermoquad/breeze/pkg/pulse"
)

func parseSettingsFlags(t *testing.T, args ...string) *settingsFlags {
	t.Helper()
	f := &settingsFlags{}
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.register(fs)
	require.NoError(t, fs.Parse(args))
	return f
}

// ============================================================
// Settings flags
// ============================================================

func TestSettingsFlags_OverlayOnDefaults(t *testing.T) {
	f := parseSettingsFlags(t, "--mode", "cool", "--temp", "24", "--strength", "max")

	base := panasonic.DefaultSettings()
	base.Direction = panasonic.Direction3
	got, err := f.settings(base)
	require.NoError(t, err)

	want := base
	want.Mode = panasonic.ModeCool
	want.Temperature = 24
	want.Strength = panasonic.Fan4
	assert.Equal(t, want, got, "unset flags keep the base values")
}

func TestSettingsFlags_Invalid(t *testing.T) {
	tests := map[string][]string{
		"mode":        {"--mode", "turbo"},
		"power":       {"--power", "maybe"},
		"temperature": {"--temp", "12"},
		"direction":   {"--direction", "7"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseSettingsFlags(t, args...).settings(panasonic.DefaultSettings())
			assert.ErrorIs(t, err, panasonic.ErrInvalidParameter)
		})
	}
}

func TestSettingsFlags_EncodePanasonic(t *testing.T) {
	c := config.Default()
	enc, err := parseSettingsFlags(t, "--mode", "heat", "--temp", "22").encode(c)
	require.NoError(t, err)

	require.NotNil(t, enc.settings)
	require.NotNil(t, enc.frame)
	assert.Equal(t, panasonic.ModeHeat, enc.settings.Mode)
	assert.Equal(t, panasonic.PulseCount, enc.seq.Len())
	assert.Equal(t, pulse.DefaultUnit, enc.seq.Unit())

	// the same frame passed back as --hex gives the same pulses
	raw, err := parseSettingsFlags(t, "--hex", enc.frame.Spaced(), "--unit-time", "440").encode(c)
	require.NoError(t, err)
	assert.Nil(t, raw.settings)
	assert.Equal(t, *enc.frame, *raw.frame)
	assert.Equal(t, 440*time.Microsecond, raw.seq.Unit())
}

func TestSettingsFlags_EncodeErrors(t *testing.T) {
	c := config.Default()

	frame := panasonic.MustBuild(panasonic.DefaultSettings())
	bad := frame.Bytes()
	bad[len(bad)-1] ^= 0xff
	_, err := parseSettingsFlags(t, "--hex", fmt.Sprintf("%x", bad)).encode(c)
	assert.ErrorIs(t, err, panasonic.ErrChecksum)

	_, err = parseSettingsFlags(t, "--format", "aeha").encode(c)
	assert.ErrorContains(t, err, "needs --hex")

	_, err = parseSettingsFlags(t, "--format", "nec").encode(c)
	assert.ErrorContains(t, err, "unknown --format")

	_, err = parseSettingsFlags(t, "--format", "aeha", "--hex", "zz").encode(c)
	assert.Error(t, err)
}

func TestSettingsFlags_EncodeAEHA(t *testing.T) {
	enc, err := parseSettingsFlags(t, "--format", "AEHA", "--hex", "0x01:02").encode(config.Default())
	require.NoError(t, err)
	assert.Nil(t, enc.frame)
	assert.Equal(t, []byte{0x01, 0x02}, enc.data)
	assert.Equal(t, pulse.Count(pulse.Block{Data: enc.data, Gap: pulse.AEHAGap}), enc.seq.Len())
	assert.Contains(t, enc.summary(), "01 02")
}

func TestSettingsFlags_Plan(t *testing.T) {
	c := config.Default()
	c.Repeat = 2
	enc, err := parseSettingsFlags(t).encode(c)
	require.NoError(t, err)

	plan, err := parseSettingsFlags(t).plan(c, enc.seq)
	require.NoError(t, err)
	assert.Equal(t, 2, plan.Repeat(), "config repeat")

	plan, err = parseSettingsFlags(t, "--repeat", "3", "--gap", "40").plan(c, enc.seq)
	require.NoError(t, err)
	assert.Equal(t, 3, plan.Repeat())
	assert.Equal(t, 40*time.Millisecond, plan.Gap())

	_, err = parseSettingsFlags(t, "--repeat", "0").plan(c, enc.seq)
	assert.Error(t, err)
}

// ============================================================
// Output helpers
// ============================================================

func TestWriteIRCode(t *testing.T) {
	enc, err := parseSettingsFlags(t).encode(config.Default())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeIRCode(&buf, enc))

	var code irCode
	require.NoError(t, json.Unmarshal(buf.Bytes(), &code))
	assert.Equal(t, enc.seq.Micros(), code.IRCode)
	assert.Equal(t, 3400, code.IRCode[0], "leader mark")
}

func TestEnvelopeError(t *testing.T) {
	want := []pulse.Pair{{Mark: 400, Space: 400}, {Mark: 400, Space: 1200}, {Mark: 400, Space: 9000}}
	got := []pulse.Pair{{Mark: 410, Space: 390}, {Mark: 395, Space: 1230}, {Mark: 400, Space: 50000}}
	mark, space := envelopeError(want, got)
	assert.Equal(t, time.Duration(10), mark)
	assert.Equal(t, time.Duration(30), space, "last space ignored")
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0 seconds"},
		{time.Second, "1 second"},
		{90 * time.Second, "1 minute and 30 seconds"},
		{time.Hour + time.Minute + time.Second, "1 hour, 1 minute and 1 second"},
		{51 * time.Hour, "2 days and 3 hours"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatUptime(tt.d), tt.d.String())
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
	assert.Equal(t, 2, ExitCode(fmt.Errorf("send: %w", &connectionError{errors.New("no port")})))
}

// ============================================================
// Virtual remote
// ============================================================

func TestStepSetting(t *testing.T) {
	s := panasonic.DefaultSettings()

	assert.Equal(t, panasonic.PowerOff, stepSetting(s, rowPower, 1).Power)
	assert.Equal(t, panasonic.ModeHeat, stepSetting(s, rowMode, -1).Mode, "mode wraps backwards")
	assert.Equal(t, panasonic.FanQuiet, stepSetting(s, rowStrength, -1).Strength)
	assert.Equal(t, panasonic.DirectionAuto, stepSetting(s, rowDirection, 6).Direction)
	assert.Equal(t, panasonic.PowerfulOn, stepSetting(s, rowPowerful, 1).Powerful)

	s.Temperature = panasonic.MaxTemperature
	assert.Equal(t, panasonic.MaxTemperature, stepSetting(s, rowTemperature, 1).Temperature, "temperature clamps")
	s.Temperature = panasonic.MinTemperature
	assert.Equal(t, panasonic.MinTemperature, stepSetting(s, rowTemperature, -1).Temperature)
}

func newTestRemote(t *testing.T) (remoteModel, *blaster.Recorder) {
	t.Helper()
	rec := &blaster.Recorder{}
	tx, err := blaster.NewTransmitter(rec, 17)
	require.NoError(t, err)
	return newRemoteModel(context.Background(), server.EmitterFunc(tx.Send), config.Default(), "test"), rec
}

func press(m remoteModel, msgs ...tea.KeyMsg) remoteModel {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(remoteModel)
	}
	return m
}

func TestRemoteModel_Navigate(t *testing.T) {
	m, _ := newTestRemote(t)
	down := tea.KeyMsg{Type: tea.KeyDown}
	right := tea.KeyMsg{Type: tea.KeyRight}
	up := tea.KeyMsg{Type: tea.KeyUp}

	m = press(m, down, down, right, right)
	assert.Equal(t, rowTemperature, m.cursor)
	assert.Equal(t, panasonic.DefaultTemperature+2, m.settings.Temperature)

	m = press(m, up, up, up)
	assert.Equal(t, rowPowerful, m.cursor, "cursor wraps")
	assert.Contains(t, m.View(), "BREEZE")
}

func TestRemoteModel_Send(t *testing.T) {
	m, rec := newTestRemote(t)
	m = press(m, tea.KeyMsg{Type: tea.KeyRight}) // power off

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(remoteModel)
	require.NotNil(t, cmd)
	assert.True(t, m.sending)

	// keys other than quit and help are ignored while sending
	m = press(m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, rowPower, m.cursor)

	done := m.send(m.settings)().(sendDoneMsg)
	require.NoError(t, done.err)
	assert.Equal(t, panasonic.PulseCount, done.report.Pairs)
	assert.Positive(t, rec.Edges())

	next, _ = m.Update(done)
	m = next.(remoteModel)
	assert.False(t, m.sending)
	require.NotNil(t, m.lastSent)
	assert.Equal(t, panasonic.PowerOff, m.lastSent.Power)
	require.Len(t, m.log, 1)
	assert.False(t, m.log[0].isError)
}

func TestRemoteModel_SendFailure(t *testing.T) {
	m, _ := newTestRemote(t)
	next, _ := m.Update(sendDoneMsg{err: blaster.ErrBusy})
	m = next.(remoteModel)
	require.Len(t, m.log, 1)
	assert.True(t, m.log[0].isError)
	assert.Nil(t, m.lastSent)
}
