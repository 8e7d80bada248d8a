// Package sensor keeps the measurement location and persists it next to the
// world data.
package sensor

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/i474232898/temperature-monitor/internal/climate"
	"github.com/i474232898/temperature-monitor/internal/logging"
	"github.com/i474232898/temperature-monitor/internal/store"
)

// DefaultFileName is the settings file name inside the world directory.
const DefaultFileName = "temperaturemonitorconfig.yaml"

// Mode says where the sensor measures.
type Mode string

const (
	ModeSpawn Mode = "spawn"
	ModeFixed Mode = "fixed"
	ModeUnset Mode = "unset"
)

// Settings is the persisted sensor configuration.
type Settings struct {
	UseSpawnPoint bool              `yaml:"use_spawn_point"`
	Location      *climate.Position `yaml:"location,omitempty"`
}

// Location is the resolved, displayable sensor location.
type Location struct {
	Mode     Mode             `json:"mode"`
	Position climate.Position `json:"position"`
}

// Manager owns the settings file. It is safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	path     string
	spawn    climate.Position
	settings Settings
	writer   *store.AtomicWriter
	log      *slog.Logger
}

// Open loads the settings at path, creating a spawn-point default when the
// file is missing. An unreadable file falls back to defaults.
func Open(path string, spawn climate.Position, log *slog.Logger) (*Manager, error) {
	if log == nil {
		log = logging.Component("sensor")
	}
	m := &Manager{
		path:     path,
		spawn:    spawn,
		settings: Settings{UseSpawnPoint: true},
		writer:   store.NewAtomicWriter(log, false),
		log:      log,
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := m.save(m.settings); err != nil {
			return m, err
		}
		return m, nil
	case err != nil:
		log.Error("error loading sensor settings; using defaults", "path", path, "error", err)
		return m, nil
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		log.Error("sensor settings are malformed; using defaults", "path", path, "error", err)
		return m, nil
	}
	m.settings = s
	return m, nil
}

// Current returns the resolved location.
func (m *Manager) Current() Location {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resolve()
}

// Position returns where samples are taken. A fixed location that was never
// set falls back to the spawn point.
func (m *Manager) Position() climate.Position {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if loc := m.resolve(); loc.Mode == ModeFixed {
		return loc.Position
	}
	return m.spawn
}

func (m *Manager) resolve() Location {
	switch {
	case m.settings.UseSpawnPoint:
		return Location{Mode: ModeSpawn, Position: m.spawn}
	case m.settings.Location != nil:
		return Location{Mode: ModeFixed, Position: *m.settings.Location}
	default:
		return Location{Mode: ModeUnset}
	}
}

// SetSpawn moves the sensor to the world spawn point.
func (m *Manager) SetSpawn() (Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := Settings{UseSpawnPoint: true}
	if err := m.save(next); err != nil {
		return m.resolve(), err
	}
	m.settings = next
	m.log.Info("sensor moved to spawn point", "position", m.spawn.String())
	return m.resolve(), nil
}

// SetLocation pins the sensor to pos.
func (m *Manager) SetLocation(pos climate.Position) (Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := pos
	next := Settings{UseSpawnPoint: false, Location: &p}
	if err := m.save(next); err != nil {
		return m.resolve(), err
	}
	m.settings = next
	m.log.Info("sensor moved", "position", pos.String())
	return m.resolve(), nil
}

func (m *Manager) save(s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode sensor settings: %w", err)
	}
	verify := func(b []byte) error {
		var check Settings
		return yaml.Unmarshal(b, &check)
	}
	if err := m.writer.Write(m.path, data, verify); err != nil {
		m.log.Error("could not save sensor settings", "path", m.path, "error", err)
		return err
	}
	return nil
}
