// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/breeze/internal/logger"
	"github.com/Thermoquad/breeze/internal/server"
	"github.com/Thermoquad/breeze/internal/store"
)

var (
	serveListen string
	serveDB     string
	serveRemote bool
	servePin    int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve a JSON API for the air conditioner.

  GET   /api/v1/state     last sent settings and their frame
  PUT   /api/v1/state     send a complete set of settings
  PATCH /api/v1/state     change some settings and send
  POST  /api/v1/encode    encode without sending
  GET   /api/v1/history   recent transmissions (?limit=N)
  GET   /healthz

Sent settings and the transmission history are kept in a sqlite database.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (default from config)")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "sqlite database path (default from config)")
	serveCmd.Flags().BoolVar(&serveRemote, "remote", false, "Transmit through the remote emitter link")
	serveCmd.Flags().IntVar(&servePin, "led-pin", -1, "GPIO pin driving the IR LED (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	listen, dbPath := cfg.Listen, cfg.Database
	if serveListen != "" {
		listen = serveListen
	}
	if serveDB != "" {
		dbPath = serveDB
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	em, err := openEmitter(cfg, serveRemote, servePin)
	if err != nil {
		return err
	}
	defer em.Close()

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(st, em, server.Options{
		Unit:        cfg.UnitTime(),
		Repeat:      cfg.Repeat,
		Gap:         cfg.Gap(),
		Defaults:    cfg.Defaults,
		SendTimeout: cfg.Link.Timeout(),
	})
	httpServer := &http.Server{
		Addr:              listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening on %s (%s, db %s)", listen, em.info, dbPath)
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
