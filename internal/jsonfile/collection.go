// README: JSON-array file collection used by the file-backed stores.
package jsonfile

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

var (
	ErrExists  = errors.New("record already exists")
	ErrMissing = errors.New("record not found")
)

// Collection is a keyed set of records stored as one JSON array. Several
// processes may share a file: every operation reloads it under an OS lock
// on <path>.lock, and mutations hold that lock exclusively until the new
// file is in place.
type Collection[T any] struct {
	mu    sync.Mutex
	path  string
	lock  *flock.Flock
	key   func(T) string
	items map[string]T
	order []string
}

// Open loads path (a JSON array) or starts empty when the file does not exist.
func Open[T any](path string, key func(T) string) (*Collection[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "create data dir for %s", path)
	}
	c := &Collection[T]{
		path:  path,
		lock:  flock.New(path + ".lock"),
		key:   key,
		items: make(map[string]T),
	}
	if err := c.locked(false, func() error { return nil }); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Collection[T]) Path() string {
	return c.path
}

func (c *Collection[T]) Len() int {
	var n int
	c.read(func() { n = len(c.items) })
	return n
}

func (c *Collection[T]) Get(key string) (T, bool) {
	var (
		v  T
		ok bool
	)
	c.read(func() { v, ok = c.items[key] })
	return v, ok
}

// List returns matching records in insertion order. A nil match returns all.
func (c *Collection[T]) List(match func(T) bool) []T {
	var out []T
	c.read(func() {
		out = make([]T, 0, len(c.order))
		for _, k := range c.order {
			v := c.items[k]
			if match == nil || match(v) {
				out = append(out, v)
			}
		}
	})
	return out
}

// Insert adds v. guard, when set, runs against every existing record under the
// file lock and aborts the insert by returning an error.
func (c *Collection[T]) Insert(v T, guard func(existing T) error) error {
	return c.locked(true, func() error {
		k := c.key(v)
		if _, ok := c.items[k]; ok {
			return ErrExists
		}
		if guard != nil {
			for _, existing := range c.items {
				if err := guard(existing); err != nil {
					return err
				}
			}
		}
		c.items[k] = v
		c.order = append(c.order, k)
		if err := c.flush(); err != nil {
			delete(c.items, k)
			c.order = c.order[:len(c.order)-1]
			return err
		}
		return nil
	})
}

// Update applies fn to a copy of the record and persists it. An error from fn
// or from the write leaves the stored record untouched.
func (c *Collection[T]) Update(key string, fn func(*T) error) (T, error) {
	var out T
	err := c.locked(true, func() error {
		old, ok := c.items[key]
		if !ok {
			return ErrMissing
		}
		out = old
		next := old
		if err := fn(&next); err != nil {
			return err
		}
		c.items[key] = next
		if err := c.flush(); err != nil {
			c.items[key] = old
			return err
		}
		out = next
		return nil
	})
	return out, err
}

func (c *Collection[T]) Delete(key string) error {
	return c.locked(true, func() error {
		old, ok := c.items[key]
		if !ok {
			return ErrMissing
		}
		idx := -1
		for i, k := range c.order {
			if k == key {
				idx = i
				break
			}
		}
		delete(c.items, key)
		prevOrder := c.order
		if idx >= 0 {
			c.order = append(append([]string{}, c.order[:idx]...), c.order[idx+1:]...)
		}
		if err := c.flush(); err != nil {
			c.items[key] = old
			c.order = prevOrder
			return err
		}
		return nil
	})
}

// locked runs fn with the in-process mutex and the file lock held, after
// reloading the file so fn sees writes made by other processes.
func (c *Collection[T]) locked(exclusive bool, fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	acquire := c.lock.RLock
	if exclusive {
		acquire = c.lock.Lock
	}
	if err := acquire(); err != nil {
		return errors.Wrapf(err, "lock %s", c.path)
	}
	defer func() { _ = c.lock.Unlock() }()

	if err := c.load(); err != nil {
		return err
	}
	return fn()
}

// read serves from the last good snapshot when the file cannot be reloaded.
func (c *Collection[T]) read(fn func()) {
	err := c.locked(false, func() error {
		fn()
		return nil
	})
	if err == nil {
		return
	}
	slog.Warn("reload failed, serving cached rows", "path", c.path, "error", err)
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
}

// load replaces the in-memory rows with the file contents. State is left
// untouched on error.
func (c *Collection[T]) load() error {
	raw, err := os.ReadFile(c.path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "read %s", c.path)
	}
	var rows []T
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &rows); err != nil {
			return errors.Wrapf(err, "decode %s", c.path)
		}
	}
	items := make(map[string]T, len(rows))
	order := make([]string, 0, len(rows))
	for _, r := range rows {
		k := c.key(r)
		if _, dup := items[k]; !dup {
			order = append(order, k)
		}
		items[k] = r
	}
	c.items, c.order = items, order
	return nil
}

// flush writes to a sibling temp file and renames it over the target.
func (c *Collection[T]) flush() error {
	rows := make([]T, 0, len(c.order))
	for _, k := range c.order {
		rows = append(rows, c.items[k])
	}
	raw, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encode %s", c.path)
	}
	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "create temp for %s", c.path)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "write %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "close %s", tmpName)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "replace %s", c.path)
	}
	return nil
}
