// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package server exposes the air conditioner over a small JSON HTTP API
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Thermoquad/breeze/internal/logger"
	"github.com/Thermoquad/breeze/internal/store"
	"github.com/Thermoquad/breeze/pkg/blaster"
	"github.com/Thermoquad/breeze/pkg/panasonic"
	"github.com/Thermoquad/breeze/pkg/pulse"
)

// Emitter puts a plan on air, locally or through a link
type Emitter interface {
	Emit(ctx context.Context, plan *blaster.Plan) (blaster.Report, error)
}

// EmitterFunc adapts a function to Emitter
type EmitterFunc func(ctx context.Context, plan *blaster.Plan) (blaster.Report, error)

func (f EmitterFunc) Emit(ctx context.Context, plan *blaster.Plan) (blaster.Report, error) {
	return f(ctx, plan)
}

// Options controls how settings become pulses
type Options struct {
	Unit     time.Duration
	Repeat   int
	Gap      time.Duration
	Defaults panasonic.Settings
	// SendTimeout bounds one emission
	SendTimeout time.Duration
}

// Server handles the HTTP API. Transmissions are serialized.
type Server struct {
	store   *store.Store
	emitter Emitter
	opts    Options
	sending sync.Mutex
}

func New(st *store.Store, em Emitter, opts Options) *Server {
	if opts.Unit <= 0 {
		opts.Unit = pulse.DefaultUnit
	}
	if opts.Repeat < 1 {
		opts.Repeat = 1
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 10 * time.Second
	}
	if panasonic.Validate(opts.Defaults) != nil {
		opts.Defaults = panasonic.DefaultSettings()
	}
	return &Server{store: st, emitter: em, opts: opts}
}

// Router builds the gin engine
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		api.GET("/state", s.getState)
		api.PUT("/state", s.putState)
		api.PATCH("/state", s.patchState)
		api.POST("/encode", s.encode)
		api.GET("/history", s.history)
	}
	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// StateResponse describes the current settings and their frame
type StateResponse struct {
	Settings  panasonic.Settings `json:"settings"`
	Summary   string             `json:"summary"`
	Frame     string             `json:"frame"`
	Saved     bool               `json:"saved"`
	UpdatedAt *time.Time         `json:"updated_at,omitempty"`
}

// SendResponse is returned after a transmission
type SendResponse struct {
	Settings  panasonic.Settings `json:"settings"`
	Frame     string             `json:"frame"`
	Repeats   int                `json:"repeats"`
	Pairs     int                `json:"pairs"`
	ElapsedMS int64              `json:"elapsed_ms"`
}

// EncodeResponse is the result of encoding without sending
type EncodeResponse struct {
	Settings panasonic.Settings `json:"settings"`
	Frame    string             `json:"frame"`
	Spaced   string             `json:"spaced"`
	Checksum string             `json:"checksum"`
	Pairs    int                `json:"pairs"`
	Duration string             `json:"duration"`
	IRCode   []int              `json:"ir_code"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (s *Server) current() (panasonic.Settings, *time.Time, bool, error) {
	set, updated, err := s.store.LoadState()
	if errors.Is(err, store.ErrNoState) {
		return s.opts.Defaults, nil, false, nil
	}
	if err != nil {
		return panasonic.Settings{}, nil, false, err
	}
	return set, &updated, true, nil
}

func (s *Server) getState(c *gin.Context) {
	set, updated, saved, err := s.current()
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	frame, err := panasonic.Build(set)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, StateResponse{
		Settings:  set,
		Summary:   set.String(),
		Frame:     frame.Hex(),
		Saved:     saved,
		UpdatedAt: updated,
	})
}

func (s *Server) putState(c *gin.Context) {
	var set panasonic.Settings
	if err := c.ShouldBindJSON(&set); err != nil {
		badRequest(c, err)
		return
	}
	s.send(c, set)
}

func (s *Server) patchState(c *gin.Context) {
	set, _, _, err := s.current()
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	// decoding over the current settings keeps fields absent from the body
	if err := c.ShouldBindJSON(&set); err != nil {
		badRequest(c, err)
		return
	}
	s.send(c, set)
}

func (s *Server) encode(c *gin.Context) {
	set := s.opts.Defaults
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&set); err != nil {
			badRequest(c, err)
			return
		}
	}
	frame, err := panasonic.Build(set)
	if err != nil {
		badRequest(c, err)
		return
	}
	seq, err := panasonic.EncodePulses(frame, s.opts.Unit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, EncodeResponse{
		Settings: set,
		Frame:    frame.Hex(),
		Spaced:   frame.Spaced(),
		Checksum: fmt.Sprintf("%02x", frame.Checksum()),
		Pairs:    seq.Len(),
		Duration: seq.Duration().String(),
		IRCode:   seq.Micros(),
	})
}

func (s *Server) history(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid limit %q", v)})
			return
		}
		limit = n
	}
	hist, err := s.store.History(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transmissions": hist})
}

func (s *Server) send(c *gin.Context, set panasonic.Settings) {
	frame, err := panasonic.Build(set)
	if err != nil {
		badRequest(c, err)
		return
	}
	seq, err := panasonic.EncodePulses(frame, s.opts.Unit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	plan, err := blaster.NewPlan(seq, s.opts.Repeat, s.opts.Gap)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	if !s.sending.TryLock() {
		c.JSON(http.StatusConflict, errorResponse{Error: blaster.ErrBusy.Error()})
		return
	}
	defer s.sending.Unlock()

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.opts.SendTimeout+plan.Duration())
	defer cancel()

	logger.Info("sending %s", set)
	report, err := s.emitter.Emit(ctx, plan)

	record := &store.Transmission{
		Frame:     frame.Hex(),
		Settings:  set.String(),
		Repeat:    plan.Repeat(),
		Pairs:     report.Pairs,
		ElapsedMS: report.Elapsed.Milliseconds(),
	}
	if err != nil {
		record.Status = store.StatusFailed
		record.Error = err.Error()
	}
	if rerr := s.store.RecordTransmission(record); rerr != nil {
		logger.Warn("record transmission: %v", rerr)
	}

	if err != nil {
		logger.Error("send failed: %v", err)
		status := http.StatusBadGateway
		if errors.Is(err, blaster.ErrBusy) {
			status = http.StatusConflict
		}
		c.JSON(status, errorResponse{Error: err.Error()})
		return
	}

	if err := s.store.SaveState(set); err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, SendResponse{
		Settings:  set,
		Frame:     frame.Hex(),
		Repeats:   report.Repeats,
		Pairs:     report.Pairs,
		ElapsedMS: report.Elapsed.Milliseconds(),
	})
}

func badRequest(c *gin.Context, err error) {
	resp := errorResponse{Error: err.Error()}
	var pe *panasonic.ParameterError
	if errors.As(err, &pe) {
		resp.Field = pe.Field.String()
	}
	c.JSON(http.StatusBadRequest, resp)
}
