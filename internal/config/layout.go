package config

import (
	"fmt"
	"time"
)

// LayoutConfig holds the grid and party-size settings.
type LayoutConfig struct {
	GridSize           int // pixel size of one grid cell
	ItemWidth          int // cells a seat occupies horizontally
	ItemHeight         int // cells a seat occupies vertically
	Columns            int // drop area width in cells, 0 = unbounded
	Rows               int // drop area height in cells, 0 = unbounded
	ActivationDistance int // pointer travel in px before a press becomes a drag
	MaxBlock           int // most seats a single block add may create
	PeopleMin          int
	PeopleMax          int
	PeopleDefault      int
}

func LoadLayoutConfig() LayoutConfig {
	return LayoutConfig{
		GridSize:           envInt("GRID_SIZE", 40),
		ItemWidth:          envInt("GRID_ITEM_WIDTH", 2),
		ItemHeight:         envInt("GRID_ITEM_HEIGHT", 2),
		Columns:            envInt("GRID_COLUMNS", 48),
		Rows:               envInt("GRID_ROWS", 32),
		ActivationDistance: envInt("DRAG_ACTIVATION_DISTANCE", 5),
		MaxBlock:           envInt("GRID_MAX_BLOCK", 1000),
		PeopleMin:          envInt("PEOPLE_MIN", 1),
		PeopleMax:          envInt("PEOPLE_MAX", 10),
		PeopleDefault:      envInt("PEOPLE_DEFAULT", 1),
	}
}

// Validate checks the invariants the editor and sessions rely on.
func (c LayoutConfig) Validate() error {
	switch {
	case c.GridSize <= 0:
		return fmt.Errorf("GRID_SIZE must be positive, got %d", c.GridSize)
	case c.ItemWidth <= 0 || c.ItemHeight <= 0:
		return fmt.Errorf("GRID_ITEM_WIDTH and GRID_ITEM_HEIGHT must be positive")
	case c.Columns < 0 || c.Rows < 0:
		return fmt.Errorf("GRID_COLUMNS and GRID_ROWS must not be negative")
	case c.MaxBlock <= 0:
		return fmt.Errorf("GRID_MAX_BLOCK must be positive, got %d", c.MaxBlock)
	case c.PeopleMin < 0 || c.PeopleMax < c.PeopleMin:
		return fmt.Errorf("invalid people range [%d,%d]", c.PeopleMin, c.PeopleMax)
	case c.PeopleDefault < c.PeopleMin || c.PeopleDefault > c.PeopleMax:
		return fmt.Errorf("PEOPLE_DEFAULT %d outside [%d,%d]", c.PeopleDefault, c.PeopleMin, c.PeopleMax)
	}
	return nil
}

// SyncConfig controls the background layout writer.
type SyncConfig struct {
	QueueSize       int
	MaxTries        int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	OpTimeout       time.Duration
}

func LoadSyncConfig() SyncConfig {
	return SyncConfig{
		QueueSize:       envInt("SYNC_QUEUE_SIZE", 1024),
		MaxTries:        envInt("SYNC_MAX_TRIES", 5),
		InitialInterval: envDur("SYNC_INITIAL_INTERVAL", 200*time.Millisecond),
		MaxInterval:     envDur("SYNC_MAX_INTERVAL", 5*time.Second),
		OpTimeout:       envDur("SYNC_OP_TIMEOUT", 5*time.Second),
	}
}

// SessionConfig controls booking session expiry and the reserved-seat cache.
type SessionConfig struct {
	IdleTTL        time.Duration
	SweepInterval  time.Duration
	ReservedTTL    time.Duration
	ReservedPrefix string
}

func LoadSessionConfig() SessionConfig {
	return SessionConfig{
		IdleTTL:        envDur("SESSION_IDLE_TTL", 30*time.Minute),
		SweepInterval:  envDur("SESSION_SWEEP_INTERVAL", time.Minute),
		ReservedTTL:    envDur("RESERVED_CACHE_TTL", 30*time.Second),
		ReservedPrefix: envStr("RESERVED_CACHE_PREFIX", "seating"),
	}
}
