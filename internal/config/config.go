package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the persisted tackboard configuration.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
	Drag     DragConfig     `toml:"drag"`
	Board    BoardConfig    `toml:"board"`
	Server   ServerConfig   `toml:"server"`
}

// DatabaseConfig holds configuration for database.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// LoggingConfig holds configuration for runtime logging.
type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

// DevFileConfig holds configuration for the rotating dev log file.
type DevFileConfig struct {
	Enabled    bool   `toml:"enabled"`
	Dir        string `toml:"dir"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// DragConfig holds drag thresholds in terminal cells and milliseconds.
type DragConfig struct {
	Padding         float64 `toml:"padding"`
	CooldownMS      int     `toml:"cooldown_ms"`
	MinDragDistance float64 `toml:"min_drag_distance"`
	LeftEdge        float64 `toml:"left_edge"`
	RightEdge       float64 `toml:"right_edge"`
	ColumnWidth     float64 `toml:"column_width"`
	CardWidth       float64 `toml:"card_width"`
	CardHalfHeight  float64 `toml:"card_half_height"`
	AnimationMS     int     `toml:"animation_ms"`
	MeasureDelayMS  int     `toml:"measure_delay_ms"`
	ArmDelayMS      int     `toml:"arm_delay_ms"`
	NotifyHz        float64 `toml:"notify_hz"`
}

// BoardConfig holds configuration for new boards.
type BoardConfig struct {
	Groups []GroupConfig `toml:"groups"`
}

// GroupConfig describes one default group.
type GroupConfig struct {
	ID    string `toml:"id"`
	Title string `toml:"title"`
}

// ServerConfig holds configuration for the serve command.
type ServerConfig struct {
	Bind        string `toml:"bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

// defaultGroups returns the default board groups.
func defaultGroups() []GroupConfig {
	return []GroupConfig{
		{ID: "todo", Title: "To Do"},
		{ID: "progress", Title: "In Progress"},
		{ID: "done", Title: "Done"},
	}
}

// Default returns the default configuration for dbPath.
func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled:    true,
				Dir:        ".tackboard/log",
				MaxSizeMB:  10,
				MaxBackups: 3,
			},
		},
		Drag: DragConfig{
			Padding:         1,
			CooldownMS:      500,
			MinDragDistance: 4,
			LeftEdge:        4,
			RightEdge:       30,
			ColumnWidth:     34,
			CardWidth:       30,
			CardHalfHeight:  1,
			AnimationMS:     120,
			MeasureDelayMS:  100,
			ArmDelayMS:      300,
			NotifyHz:        30,
		},
		Board: BoardConfig{
			Groups: defaultGroups(),
		},
		Server: ServerConfig{
			Bind:        "127.0.0.1:5437",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
	}
}

// Load reads path over defaults. A missing or empty file yields defaults.
func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	if _, err := charmLog.ParseLevel(strings.TrimSpace(c.Logging.Level)); err != nil {
		return fmt.Errorf("invalid logging.level %q: %w", c.Logging.Level, err)
	}
	if c.Logging.DevFile.MaxSizeMB < 0 {
		return errors.New("logging.dev_file.max_size_mb must be >= 0")
	}
	if c.Logging.DevFile.MaxBackups < 0 {
		return errors.New("logging.dev_file.max_backups must be >= 0")
	}

	if err := c.Drag.validate(); err != nil {
		return err
	}

	if len(c.Board.Groups) == 0 {
		return errors.New("board.groups must include at least one group")
	}
	seenGroupID := map[string]struct{}{}
	for idx, group := range c.Board.Groups {
		id := strings.TrimSpace(strings.ToLower(group.ID))
		if id == "" {
			return fmt.Errorf("board.groups[%d].id is required", idx)
		}
		if strings.TrimSpace(group.Title) == "" {
			return fmt.Errorf("board.groups[%d].title is required", idx)
		}
		if _, ok := seenGroupID[id]; ok {
			return fmt.Errorf("board.groups[%d].id is duplicated: %s", idx, id)
		}
		seenGroupID[id] = struct{}{}
	}

	if strings.TrimSpace(c.Server.Bind) == "" {
		return errors.New("server.bind is required")
	}
	for name, endpoint := range map[string]string{"server.api_endpoint": c.Server.APIEndpoint, "server.mcp_endpoint": c.Server.MCPEndpoint} {
		if !strings.HasPrefix(strings.TrimSpace(endpoint), "/") {
			return fmt.Errorf("%s must start with '/': %q", name, endpoint)
		}
	}
	return nil
}

// validate checks drag thresholds.
func (d DragConfig) validate() error {
	nonNegative := []struct {
		name  string
		value float64
	}{
		{"drag.padding", d.Padding},
		{"drag.cooldown_ms", float64(d.CooldownMS)},
		{"drag.min_drag_distance", d.MinDragDistance},
		{"drag.card_width", d.CardWidth},
		{"drag.card_half_height", d.CardHalfHeight},
		{"drag.animation_ms", float64(d.AnimationMS)},
		{"drag.measure_delay_ms", float64(d.MeasureDelayMS)},
		{"drag.arm_delay_ms", float64(d.ArmDelayMS)},
		{"drag.notify_hz", d.NotifyHz},
	}
	for _, field := range nonNegative {
		if field.value < 0 {
			return fmt.Errorf("%s must be >= 0", field.name)
		}
	}
	positive := []struct {
		name  string
		value float64
	}{
		{"drag.left_edge", d.LeftEdge},
		{"drag.right_edge", d.RightEdge},
		{"drag.column_width", d.ColumnWidth},
	}
	for _, field := range positive {
		if field.value <= 0 {
			return fmt.Errorf("%s must be > 0", field.name)
		}
	}
	return nil
}

// Cooldown returns the auto-scroll cooldown.
func (d DragConfig) Cooldown() time.Duration {
	return time.Duration(d.CooldownMS) * time.Millisecond
}

// Animation returns the scroll animation duration.
func (d DragConfig) Animation() time.Duration {
	return time.Duration(d.AnimationMS) * time.Millisecond
}

// MeasureDelay returns the layout settle delay.
func (d DragConfig) MeasureDelay() time.Duration {
	return time.Duration(d.MeasureDelayMS) * time.Millisecond
}

// ArmDelay returns how long a press must be held before a drag arms.
func (d DragConfig) ArmDelay() time.Duration {
	return time.Duration(d.ArmDelayMS) * time.Millisecond
}

// EnsureConfigDir creates the parent directory of path.
func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
