package store

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/i474232898/temperature-monitor/internal/history"
	"github.com/i474232898/temperature-monitor/internal/logging"
	"github.com/i474232898/temperature-monitor/internal/metrics"
)

// DefaultFileName is the canonical document name inside the world directory.
const DefaultFileName = "TemperatureMonitorlog.json"

// WorldDir returns the per-world data directory:
// <dataPath>/ModData/<worldID>/temperaturemonitor.
func WorldDir(dataPath, worldID string) string {
	return filepath.Join(dataPath, "ModData", worldID, "temperaturemonitor")
}

// DurableStore persists the temperature index as a single document and
// recovers it on startup.
type DurableStore struct {
	path    string
	writer  *AtomicWriter
	log     *slog.Logger
	metrics *metrics.Manager
}

// Option configures a DurableStore.
type Option func(*DurableStore)

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *DurableStore) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *DurableStore) { s.metrics = m }
}

// NewDurableStore creates a store for dir/fileName. Nothing is touched on
// disk until Load or Persist is called.
func NewDurableStore(dir, fileName string, opts ...Option) *DurableStore {
	if fileName == "" {
		fileName = DefaultFileName
	}
	s := &DurableStore{path: filepath.Join(dir, fileName)}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logging.Component("store")
	}
	s.writer = NewAtomicWriter(s.log, true)
	s.writer.onBackupFailure = s.metrics.BackupFailed
	return s
}

// Path returns the canonical document path.
func (s *DurableStore) Path() string { return s.path }

// BackupPath returns the previous-generation path.
func (s *DurableStore) BackupPath() string { return s.path + backupSuffix }

// TempPath returns the transient write path. It is never read by Load.
func (s *DurableStore) TempPath() string { return s.path + tempSuffix }

// Load reads the canonical document. A missing, blank or {} document yields
// an empty index. Malformed content is logged and the .bak generation is
// tried before falling back to an empty index. recovered is set when the
// index came from .bak, meaning the canonical document is behind and should
// be rewritten. The returned error is only set for unexpected I/O failures,
// and even then a usable empty index is returned.
func (s *DurableStore) Load() (ix *history.Index, recovered bool, err error) {
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if ix, ok := s.loadBackup(); ok {
			return ix, true, nil
		}
		s.log.Info("no saved temperature data", "path", s.path)
		return history.NewIndex(), false, nil
	case err != nil:
		return history.NewIndex(), false, fmt.Errorf("read %s: %w", s.path, err)
	}

	if history.IsBlank(data) {
		s.log.Info("temperature data file is empty; no previous records", "path", s.path)
		return history.NewIndex(), false, nil
	}

	ix, err = history.Decode(data)
	if err != nil {
		s.log.Error("saved temperature data is malformed", "path", s.path, "error", err)
		if ix, ok := s.loadBackup(); ok {
			return ix, true, nil
		}
		return history.NewIndex(), false, nil
	}
	s.log.Info("loaded temperature records", "path", s.path, "days", ix.Len())
	return ix, false, nil
}

func (s *DurableStore) loadBackup() (*history.Index, bool) {
	data, err := os.ReadFile(s.BackupPath())
	if err != nil || history.IsBlank(data) {
		return nil, false
	}
	ix, err := history.Decode(data)
	if err != nil {
		s.log.Warn("backup is malformed too", "path", s.BackupPath(), "error", err)
		return nil, false
	}
	s.log.Warn("recovered temperature records from backup", "path", s.BackupPath(), "days", ix.Len())
	return ix, true
}

// Persist writes the whole index atomically. On error the canonical
// document is unchanged and the error matches ErrPersistence.
func (s *DurableStore) Persist(ix *history.Index) error {
	start := time.Now()

	doc, err := history.Encode(ix)
	if err != nil {
		perr := &PersistError{Step: StepEncode, Path: s.path, Err: err}
		s.fail(perr)
		return perr
	}

	verify := func(data []byte) error {
		_, err := history.Decode(data)
		return err
	}
	if err := s.writer.Write(s.path, doc, verify); err != nil {
		var perr *PersistError
		if errors.As(err, &perr) {
			s.fail(perr)
		}
		return err
	}

	s.metrics.PersistSucceeded(time.Since(start).Seconds())
	s.log.Debug("persisted temperature records", "path", s.path, "days", ix.Len(), "bytes", len(doc))
	return nil
}

func (s *DurableStore) fail(perr *PersistError) {
	s.metrics.PersistFailed(string(perr.Step))
	s.log.Error("persist aborted", "path", s.path, "step", perr.Step, "error", perr.Err)
}

// ReadDocument returns the canonical document bytes, or ErrNoDocument when
// nothing has been persisted yet.
func (s *DurableStore) ReadDocument() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return data, nil
}
