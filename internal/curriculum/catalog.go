package curriculum

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yungbote/lattice-backend/internal/platform/logger"
)

const defaultDebounce = 500 * time.Millisecond

// Catalog holds the current curriculum snapshot. Readers never block on a
// reload; the snapshot is swapped whole.
type Catalog struct {
	root string
	fsys fs.FS
	log  *logger.Logger

	mu      sync.RWMutex
	entries []Entry
	byTitle map[string]int
}

// Open loads the catalog rooted at dir. A missing dir yields an empty catalog.
func Open(dir string, baseLog *logger.Logger) (*Catalog, error) {
	c := &Catalog{root: dir, log: baseLog.With("service", "Curriculum")}
	if dir != "" {
		c.fsys = os.DirFS(dir)
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// FromEntries builds a fixed catalog, mostly for tests and tooling.
func FromEntries(entries []Entry) *Catalog {
	c := &Catalog{log: logger.Nop()}
	c.swap(entries)
	return c
}

func (c *Catalog) Reload() error {
	if c.fsys == nil {
		c.swap(nil)
		return nil
	}
	if _, err := os.Stat(c.root); os.IsNotExist(err) {
		c.log.Warn("curriculum dir missing", "dir", c.root)
		c.swap(nil)
		return nil
	}
	entries, err := Load(c.fsys)
	if err != nil {
		return err
	}
	c.swap(entries)
	c.log.Info("curriculum loaded", "dir", c.root, "entries", len(entries))
	return nil
}

func (c *Catalog) swap(entries []Entry) {
	idx := make(map[string]int, len(entries))
	for i, e := range entries {
		if _, dup := idx[e.NormalizedTitle]; !dup {
			idx[e.NormalizedTitle] = i
		}
	}
	c.mu.Lock()
	c.entries = entries
	c.byTitle = idx
	c.mu.Unlock()
}

// Entries returns a copy of the snapshot in catalog order.
func (c *Catalog) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Catalog) Lookup(normalizedTitle string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byTitle[normalizedTitle]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Watch reloads the catalog whenever files under the root change, coalescing
// bursts of events within debounce. It returns once the watcher is running
// and stops when ctx is done.
func (c *Catalog) Watch(ctx context.Context, debounce time.Duration) error {
	if c.root == "" {
		return nil
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := addDirs(w, c.root); err != nil {
		_ = w.Close()
		return err
	}
	go c.watchLoop(ctx, w, debounce)
	return nil
}

func (c *Catalog) watchLoop(ctx context.Context, w *fsnotify.Watcher, debounce time.Duration) {
	defer w.Close()
	timer := time.NewTimer(debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = addDirs(w, ev.Name)
				}
			}
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			c.log.Warn("curriculum watcher error", "error", err)
		case <-timer.C:
			if err := c.Reload(); err != nil {
				// Keep serving the previous snapshot.
				c.log.Error("curriculum reload failed", "error", err)
			}
		}
	}
}

func addDirs(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if base := d.Name(); strings.HasPrefix(base, ".") && p != root {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
