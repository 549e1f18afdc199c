package sink

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// staged is a file written under a temporary name next to its target.
type staged struct {
	tmp, final string
}

// written tracks files a sink produced for the current import. Output
// goes to a temporary file and only replaces the target on commit, so an
// aborted import leaves earlier files of the same name untouched.
type written struct {
	mu    sync.Mutex
	files []staged
}

// create opens a temporary file in the directory of final.
func (w *written) create(final string) (*os.File, error) {
	f, err := os.CreateTemp(filepath.Dir(final), "."+filepath.Base(final)+".*.tmp")
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	w.files = append(w.files, staged{tmp: f.Name(), final: final})
	w.mu.Unlock()
	return f, nil
}

// commit moves every staged file over its target.
func (w *written) commit() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for _, s := range w.files {
		if err := os.Rename(s.tmp, s.final); err != nil {
			errs = append(errs, err)
			os.Remove(s.tmp)
		}
	}
	w.files = nil
	return errors.Join(errs...)
}

// rollback removes every staged file.
func (w *written) rollback() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for _, s := range w.files {
		if err := os.Remove(s.tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	w.files = nil
	return errors.Join(errs...)
}
