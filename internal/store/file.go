// Package store holds the daemon's two shared mutable resources: the
// seen-fingerprint cache and the pending alert queue. Both are bounded FIFO
// structures persisted as JSON files, written via temp-file-then-rename so a
// partial write can never corrupt the previous state.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"sentinel/pkg/errors"
)

// atomicWriteJSON marshals v and replaces path in one rename. The parent
// directory is created on demand.
func atomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal state")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create state dir")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "failed to write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "failed to close temp file")
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "failed to replace state file")
	}
	return nil
}

// readJSON loads path into v. A missing file is not an error; v is left
// untouched and ok is false.
func readJSON(path string, v interface{}) (ok bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "failed to read state file")
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, errors.Wrap(err, "failed to decode state file")
	}
	return true, nil
}
