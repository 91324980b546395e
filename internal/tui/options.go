package tui

import (
	"time"

	charmLog "github.com/charmbracelet/log"
	"github.com/evanschultz/tackboard/internal/drag"
)

// RuntimeConfig holds settings that can change while the program runs.
type RuntimeConfig struct {
	Tuning   drag.Tuning
	ArmDelay time.Duration
}

// DefaultRuntimeConfig returns terminal-scale drag defaults.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		Tuning: drag.Tuning{
			Padding:           1,
			MinDragDistance:   4,
			Cooldown:          500 * time.Millisecond,
			LeftEdge:          4,
			RightEdge:         30,
			ColumnWidth:       34,
			CardWidth:         30,
			CardHalfHeight:    1,
			AnimationDuration: 120 * time.Millisecond,
			MeasureDelay:      100 * time.Millisecond,
			NotifyHz:          30,
		},
		ArmDelay: 300 * time.Millisecond,
	}
}

// Option configures a Model.
type Option func(*Model)

// WithRuntimeConfig sets drag tuning and the long-press arm delay.
func WithRuntimeConfig(cfg RuntimeConfig) Option {
	return func(m *Model) {
		m.runtime = cfg
		if m.runtime.ArmDelay < 0 {
			m.runtime.ArmDelay = 0
		}
	}
}

// WithLogger sets the logger handed to the drag engine.
func WithLogger(logger *charmLog.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithBoardID selects the board shown on start.
func WithBoardID(boardID string) Option {
	return func(m *Model) {
		m.pendingBoardID = boardID
	}
}

// WithConfigUpdates subscribes the model to live config reloads.
func WithConfigUpdates(ch <-chan RuntimeConfig) Option {
	return func(m *Model) {
		m.configUpdates = ch
	}
}
