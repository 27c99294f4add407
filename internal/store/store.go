// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package store persists the last sent settings and a transmission history
package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Thermoquad/breeze/pkg/panasonic"
)

// ErrNoState is returned by LoadState before anything was saved
var ErrNoState = errors.New("store: no saved state")

// stateID is the primary key of the single State row
const stateID = 1

// State is the last settings sent to the unit
type State struct {
	ID          int    `gorm:"primaryKey"`
	Power       string `gorm:"type:varchar(8)"`
	Mode        string `gorm:"type:varchar(8)"`
	Temperature int
	Strength    string `gorm:"type:varchar(8)"`
	Direction   string `gorm:"type:varchar(8)"`
	Powerful    string `gorm:"type:varchar(8)"`
	UpdatedAt   time.Time
}

// Transmission status values
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
	StatusDryRun = "dry-run"
)

// Transmission is one attempt to send a frame
type Transmission struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Frame     string    `gorm:"type:varchar(38)" json:"frame"`
	Settings  string    `gorm:"type:varchar(128)" json:"settings"`
	Repeat    int       `json:"repeat"`
	Pairs     int       `json:"pairs"`
	ElapsedMS int64     `json:"elapsed_ms"`
	Status    string    `gorm:"type:varchar(16);index" json:"status"`
	Error     string    `gorm:"type:varchar(255)" json:"error,omitempty"`
}

// Store wraps a gorm database
type Store struct {
	db *gorm.DB
}

// Open opens (creating and migrating) the sqlite database at path.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	// sqlite allows one writer; a single connection also keeps :memory: shared
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&State{}, &Transmission{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func stateFromSettings(set panasonic.Settings) State {
	return State{
		ID:          stateID,
		Power:       set.Power.String(),
		Mode:        set.Mode.String(),
		Temperature: set.Temperature,
		Strength:    set.Strength.String(),
		Direction:   set.Direction.String(),
		Powerful:    set.Powerful.String(),
	}
}

// Settings decodes the stored symbols
func (st State) Settings() (panasonic.Settings, error) {
	var (
		set  = panasonic.Settings{Temperature: st.Temperature}
		errs []error
		err  error
	)
	set.Power, err = panasonic.ParsePower(st.Power)
	errs = append(errs, err)
	set.Mode, err = panasonic.ParseMode(st.Mode)
	errs = append(errs, err)
	set.Strength, err = panasonic.ParseStrength(st.Strength)
	errs = append(errs, err)
	set.Direction, err = panasonic.ParseDirection(st.Direction)
	errs = append(errs, err)
	set.Powerful, err = panasonic.ParsePowerful(st.Powerful)
	errs = append(errs, err)
	return set, errors.Join(errs...)
}

// LoadState returns the saved settings, or ErrNoState
func (s *Store) LoadState() (panasonic.Settings, time.Time, error) {
	var st State
	err := s.db.First(&st, stateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return panasonic.Settings{}, time.Time{}, ErrNoState
	}
	if err != nil {
		return panasonic.Settings{}, time.Time{}, err
	}
	set, err := st.Settings()
	if err != nil {
		return panasonic.Settings{}, time.Time{}, fmt.Errorf("store: corrupt state: %w", err)
	}
	return set, st.UpdatedAt, nil
}

// SaveState replaces the saved settings
func (s *Store) SaveState(set panasonic.Settings) error {
	if err := panasonic.Validate(set); err != nil {
		return err
	}
	st := stateFromSettings(set)
	return s.db.Save(&st).Error
}

// RecordTransmission appends t to the history and fills its ID
func (s *Store) RecordTransmission(t *Transmission) error {
	if t.Status == "" {
		t.Status = StatusSent
	}
	return s.db.Create(t).Error
}

// History returns up to limit transmissions, newest first
func (s *Store) History(limit int) ([]Transmission, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []Transmission
	err := s.db.Order("id desc").Limit(limit).Find(&out).Error
	return out, err
}
