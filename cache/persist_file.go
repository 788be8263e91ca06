package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

type fileAdapter struct {
	path string
}

var _ Adapter = (*fileAdapter)(nil)

// NewFileAdapter returns an Adapter that stores the snapshot as a JSON
// array in a single file. Saves are atomic: the snapshot is written to a
// temp file in the same directory and renamed into place.
func NewFileAdapter(path string) Adapter {
	return &fileAdapter{path: path}
}

func (a *fileAdapter) Load(_ context.Context) ([]Record, error) {
	buf, err := os.ReadFile(a.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "cache: read snapshot file")
	}
	var records []Record
	if err := json.Unmarshal(buf, &records); err != nil {
		return nil, errors.Wrap(err, "cache: decode snapshot file")
	}
	return records, nil
}

func (a *fileAdapter) Save(_ context.Context, records []Record) error {
	buf, err := json.Marshal(records)
	if err != nil {
		return errors.Wrap(err, "cache: encode snapshot")
	}
	dir := filepath.Dir(a.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(a.path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "cache: create snapshot temp file")
	}
	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "cache: write snapshot")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "cache: close snapshot temp file")
	}
	if err := os.Rename(tmp.Name(), a.path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "cache: replace snapshot file")
	}
	return nil
}

func (a *fileAdapter) Close() error {
	return nil
}
