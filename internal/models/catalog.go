// Package models maintains the catalog of loadable 3D model files that
// back the `model` placement kind. The catalog scans a models directory
// once at startup and keeps itself current through a filesystem watcher,
// so files dropped in while a session runs become placeable without a
// restart.
package models

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/arlock/arlock/internal/logging"
)

// Entry is one placeable model.
type Entry struct {
	Name string // catalog key: file name without extension
	Path string
}

// modelExtensions are the file types the catalog admits.
var modelExtensions = map[string]bool{
	".glb":  true,
	".gltf": true,
	".obj":  true,
}

// Catalog is the live model index.
type Catalog struct {
	dir    string
	logger logging.Logger

	mutex   sync.RWMutex
	entries map[string]Entry

	watcher  *fsnotify.Watcher
	stopOnce sync.Once
	done     chan struct{}
}

// NewCatalog scans the models directory and returns the catalog. A
// missing directory yields an empty catalog, not an error; models may
// appear later.
func NewCatalog(dir string, logger logging.Logger) *Catalog {
	c := &Catalog{
		dir:     dir,
		logger:  logger.WithComponent("models"),
		entries: make(map[string]Entry),
		done:    make(chan struct{}),
	}
	c.rescan()
	return c
}

// Start begins watching the models directory for changes.
func (c *Catalog) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(c.dir); err != nil {
		watcher.Close()
		return err
	}
	c.watcher = watcher

	go c.watchLoop(ctx)
	return nil
}

// Stop stops the directory watcher.
func (c *Catalog) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
		if c.watcher != nil {
			c.watcher.Close()
		}
	})
}

func (c *Catalog) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				c.rescan()
				c.logger.Debug(ctx, "model catalog refreshed", "trigger", event.Name)
			}
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.logger.Warn(ctx, err, "model watcher error")
		}
	}
}

// rescan rebuilds the catalog from the directory contents.
func (c *Catalog) rescan() {
	entries := make(map[string]Entry)

	files, err := os.ReadDir(c.dir)
	if err == nil {
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			ext := strings.ToLower(filepath.Ext(f.Name()))
			if !modelExtensions[ext] {
				continue
			}
			name := strings.TrimSuffix(f.Name(), filepath.Ext(f.Name()))
			entries[name] = Entry{
				Name: name,
				Path: filepath.Join(c.dir, f.Name()),
			}
		}
	}

	c.mutex.Lock()
	c.entries = entries
	c.mutex.Unlock()
}

// Lookup resolves a model reference to its file path.
func (c *Catalog) Lookup(name string) (Entry, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	e, ok := c.entries[name]
	return e, ok
}

// List returns every catalog entry, unordered.
func (c *Catalog) List() []Entry {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	return out
}

// Count returns the number of placeable models.
func (c *Catalog) Count() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}
