package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/i474232898/temperature-monitor/internal/logging"
)

const (
	tempSuffix   = ".tmp"
	backupSuffix = ".bak"
	dirPerm      = 0o755
	filePerm     = 0o644
)

// VerifyFunc checks that bytes read back from the temp file are usable.
type VerifyFunc func(data []byte) error

// AtomicWriter replaces files so that readers only ever see a complete
// previous or a complete new generation. The sequence is: write <path>.tmp,
// verify it, copy the current file to <path>.bak (best effort), rename the
// temp file over <path>.
type AtomicWriter struct {
	log             *slog.Logger
	backup          bool
	onBackupFailure func()

	// Seams for fault injection in tests.
	writeFile func(name string, data []byte) error
	rename    func(oldpath, newpath string) error
}

// NewAtomicWriter returns a writer that keeps a .bak generation when backup is set.
func NewAtomicWriter(log *slog.Logger, backup bool) *AtomicWriter {
	if log == nil {
		log = logging.Component("atomic")
	}
	return &AtomicWriter{
		log:       log,
		backup:    backup,
		writeFile: writeSynced,
		rename:    os.Rename,
	}
}

// Write runs the full sequence for path. Any error is a *PersistError and
// leaves path untouched; the temp file is removed on failure.
func (w *AtomicWriter) Write(path string, data []byte, verify VerifyFunc) error {
	tmp := path + tempSuffix

	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return &PersistError{Step: StepWriteTemp, Path: path, Err: err}
	}
	if err := w.writeFile(tmp, data); err != nil {
		w.discard(tmp)
		return &PersistError{Step: StepWriteTemp, Path: path, Err: err}
	}

	if err := verifyFile(tmp, verify); err != nil {
		w.discard(tmp)
		return &PersistError{Step: StepVerifyTemp, Path: path, Err: err}
	}

	if w.backup {
		// An unusable current file must not replace a good backup.
		if err := verifyFile(path, verify); err != nil && !errors.Is(err, fs.ErrNotExist) {
			w.log.Warn("current file is unusable; keeping previous backup", "path", path, "error", err)
		} else if err := backupFile(path, path+backupSuffix); err != nil {
			w.log.Warn("backup failed; continuing", "path", path, "step", StepBackup, "error", err)
			if w.onBackupFailure != nil {
				w.onBackupFailure()
			}
		}
	}

	if err := w.rename(tmp, path); err != nil {
		w.discard(tmp)
		return &PersistError{Step: StepReplace, Path: path, Err: err}
	}
	syncDir(filepath.Dir(path))
	return nil
}

func (w *AtomicWriter) discard(tmp string) {
	if err := os.Remove(tmp); err != nil && !errors.Is(err, fs.ErrNotExist) {
		w.log.Warn("could not remove temp file", "path", tmp, "error", err)
	}
}

func writeSynced(name string, data []byte) error {
	f, err := os.OpenFile(name, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func verifyFile(name string, verify VerifyFunc) error {
	data, err := os.ReadFile(name)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return errors.New("file is empty")
	}
	if verify != nil {
		if err := verify(data); err != nil {
			return fmt.Errorf("file does not parse: %w", err)
		}
	}
	return nil
}

// backupFile copies src to dst. A missing src is not an error.
func backupFile(src, dst string) error {
	in, err := os.Open(src)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// syncDir flushes the directory entry after a rename. Not every platform
// supports it, so failures are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
