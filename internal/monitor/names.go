package monitor

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Names resolves camera IPs to display names from a two-column CSV file
// maintained by operators. The file is optional and frequently hand-edited;
// a missing or unreadable file simply yields an empty map and every broken
// row is skipped without noise.
type Names struct {
	path string
	log  zerolog.Logger

	mu      sync.RWMutex
	byIP    map[string]string
	modTime time.Time
}

func NewNames(path string, log zerolog.Logger) *Names {
	return &Names{path: path, log: log, byIP: map[string]string{}}
}

// Path returns the configured file location.
func (n *Names) Path() string {
	return n.path
}

// Snapshot copies the current map for one tick.
func (n *Names) Snapshot() map[string]string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make(map[string]string, len(n.byIP))
	for ip, name := range n.byIP {
		out[ip] = name
	}
	return out
}

// Reload parses the file now and replaces the map.
func (n *Names) Reload() {
	byIP := map[string]string{}
	var mod time.Time

	if info, err := os.Stat(n.path); err == nil {
		mod = info.ModTime()
	}
	if f, err := os.Open(n.path); err == nil {
		byIP = parseNames(f)
		f.Close()
	}

	n.mu.Lock()
	n.byIP = byIP
	n.modTime = mod
	n.mu.Unlock()
}

// parseNames reads `ip,name` rows. The first row is a header and is always
// skipped; a UTF-8 BOM is tolerated; fields are trimmed; rows with a blank
// ip or name, or that do not parse, are dropped.
func parseNames(r io.Reader) map[string]string {
	byIP := map[string]string{}

	raw, err := io.ReadAll(r)
	if err != nil {
		return byIP
	}
	cr := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(raw), "\uFEFF")))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if header {
			header = false
			continue
		}
		if len(rec) < 2 {
			continue
		}
		ip := strings.TrimSpace(rec[0])
		name := strings.TrimSpace(rec[1])
		if ip == "" || name == "" {
			continue
		}
		byIP[ip] = name
	}
	return byIP
}

// Watch reloads on filesystem events. The parent directory is watched so
// rename-style saves and a file created after startup are both caught; a
// slow re-stat loop backs it up where fsnotify does not work (NFS mounts).
func (n *Names) Watch(ctx context.Context) {
	var events <-chan fsnotify.Event
	var errs <-chan error

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		n.log.Warn().Err(err).Msg("csv watcher unavailable, relying on periodic reload")
		watcher = nil
	} else if err := watcher.Add(filepath.Dir(n.path)); err != nil {
		n.log.Warn().Err(err).Str("path", n.path).Msg("csv watch failed, relying on periodic reload")
		watcher.Close()
		watcher = nil
	}
	if watcher != nil {
		events = watcher.Events
		errs = watcher.Errors
	}

	go func() {
		if watcher != nil {
			defer watcher.Close()
		}
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				if filepath.Base(ev.Name) != filepath.Base(n.path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				// Editors write in bursts; let the file settle.
				time.Sleep(100 * time.Millisecond)
				n.Reload()
				n.log.Debug().Str("path", n.path).Msg("camera names reloaded")
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				n.log.Warn().Err(err).Msg("csv watcher error")
			case <-ticker.C:
				n.reloadIfChanged()
			}
		}
	}()
}

func (n *Names) reloadIfChanged() {
	info, err := os.Stat(n.path)

	n.mu.RLock()
	last := n.modTime
	n.mu.RUnlock()

	switch {
	case err != nil && last.IsZero():
		// Still absent.
	case err != nil:
		n.Reload()
	case !info.ModTime().Equal(last):
		n.Reload()
	}
}
